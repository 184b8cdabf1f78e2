package rfs

import (
	"encoding/binary"
	"fmt"
)

// StatSize is the encoded size of a Stat. The layout matches struct stat on
// Linux x86-64, with every field stored little-endian.
const StatSize = 144

// Timespec is a point in time as seconds and nanoseconds since the Unix
// epoch.
type Timespec struct {
	Sec  int64
	Nsec int64
}

// Stat is the result of a stat request.
type Stat struct {
	Dev     uint64
	Ino     uint64
	Nlink   uint64
	Mode    uint32
	UID     uint32
	GID     uint32
	Rdev    uint64
	Size    int64
	Blksize int64
	Blocks  int64
	Atim    Timespec
	Mtim    Timespec
	Ctim    Timespec
}

// IsDir reports whether the stat describes a directory.
func (s *Stat) IsDir() bool { return s.Mode&0170000 == 0040000 }

// MarshalBinary encodes s into a StatSize-byte buffer.
func (s *Stat) MarshalBinary() ([]byte, error) {
	buf := make([]byte, StatSize)
	s.encode(buf)
	return buf, nil
}

// UnmarshalBinary decodes s from a StatSize-byte buffer.
func (s *Stat) UnmarshalBinary(buf []byte) error {
	if len(buf) != StatSize {
		return fmt.Errorf("stat buffer must be %d bytes, got %d", StatSize, len(buf))
	}
	s.decode(buf)
	return nil
}

func (s *Stat) encode(b []byte) {
	le := binary.LittleEndian
	le.PutUint64(b[0:], s.Dev)
	le.PutUint64(b[8:], s.Ino)
	le.PutUint64(b[16:], s.Nlink)
	le.PutUint32(b[24:], s.Mode)
	le.PutUint32(b[28:], s.UID)
	le.PutUint32(b[32:], s.GID)
	le.PutUint32(b[36:], 0) // padding
	le.PutUint64(b[40:], s.Rdev)
	le.PutUint64(b[48:], uint64(s.Size))
	le.PutUint64(b[56:], uint64(s.Blksize))
	le.PutUint64(b[64:], uint64(s.Blocks))
	le.PutUint64(b[72:], uint64(s.Atim.Sec))
	le.PutUint64(b[80:], uint64(s.Atim.Nsec))
	le.PutUint64(b[88:], uint64(s.Mtim.Sec))
	le.PutUint64(b[96:], uint64(s.Mtim.Nsec))
	le.PutUint64(b[104:], uint64(s.Ctim.Sec))
	le.PutUint64(b[112:], uint64(s.Ctim.Nsec))
	// b[120:144] is reserved and left zeroed.
	for i := 120; i < StatSize; i++ {
		b[i] = 0
	}
}

func (s *Stat) decode(b []byte) {
	le := binary.LittleEndian
	*s = Stat{
		Dev:     le.Uint64(b[0:]),
		Ino:     le.Uint64(b[8:]),
		Nlink:   le.Uint64(b[16:]),
		Mode:    le.Uint32(b[24:]),
		UID:     le.Uint32(b[28:]),
		GID:     le.Uint32(b[32:]),
		Rdev:    le.Uint64(b[40:]),
		Size:    int64(le.Uint64(b[48:])),
		Blksize: int64(le.Uint64(b[56:])),
		Blocks:  int64(le.Uint64(b[64:])),
		Atim:    Timespec{Sec: int64(le.Uint64(b[72:])), Nsec: int64(le.Uint64(b[80:]))},
		Mtim:    Timespec{Sec: int64(le.Uint64(b[88:])), Nsec: int64(le.Uint64(b[96:]))},
		Ctim:    Timespec{Sec: int64(le.Uint64(b[104:])), Nsec: int64(le.Uint64(b[112:]))},
	}
}
