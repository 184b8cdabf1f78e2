//go:build linux || darwin || freebsd || openbsd

package hostfs

import (
	"golang.org/x/sys/unix"

	"github.com/rfratto/rpcfs/internal/rfs"
)

func statFromHost(s *unix.Stat_t) rfs.Stat {
	return rfs.Stat{
		Dev:     uint64(s.Dev),
		Ino:     uint64(s.Ino),
		Nlink:   uint64(s.Nlink),
		Mode:    uint32(s.Mode),
		UID:     s.Uid,
		GID:     s.Gid,
		Rdev:    uint64(s.Rdev),
		Size:    s.Size,
		Blksize: int64(s.Blksize),
		Blocks:  s.Blocks,
		Atim:    rfs.Timespec{Sec: int64(s.Atim.Sec), Nsec: int64(s.Atim.Nsec)},
		Mtim:    rfs.Timespec{Sec: int64(s.Mtim.Sec), Nsec: int64(s.Mtim.Nsec)},
		Ctim:    rfs.Timespec{Sec: int64(s.Ctim.Sec), Nsec: int64(s.Ctim.Nsec)},
	}
}
