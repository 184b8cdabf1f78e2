// Package hostfs performs rfs operations against the local host's real
// descriptors. It's used by the server to execute requests and by the client
// stub for descriptors that never went remote.
package hostfs

import (
	"golang.org/x/sys/unix"

	"github.com/rfratto/rpcfs/internal/rfs"
)

// Open opens path with the given open(2) flags and mode.
func Open(path string, flags int, mode uint32) (int, error) {
	return unix.Open(path, flags, mode)
}

// Read reads into buf from fd.
func Read(fd int, buf []byte) (int, error) {
	return unix.Read(fd, buf)
}

// Write writes buf to fd.
func Write(fd int, buf []byte) (int, error) {
	return unix.Write(fd, buf)
}

// Close closes fd.
func Close(fd int) error {
	return unix.Close(fd)
}

// Lseek repositions fd.
func Lseek(fd int, offset int64, whence int) (int64, error) {
	return unix.Seek(fd, offset, whence)
}

// Unlink removes path.
func Unlink(path string) error {
	return unix.Unlink(path)
}

// Stat stats path, following symbolic links.
func Stat(path string) (rfs.Stat, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return rfs.Stat{}, err
	}
	return statFromHost(&st), nil
}
