package hostfs

import (
	"io"

	"golang.org/x/sys/unix"
)

// Getdirentries reads directory entries from fd into buf. Linux has no
// getdirentries syscall, so this behaves like the glibc wrapper: base is set
// to the directory offset from before the read.
func Getdirentries(fd int, buf []byte, base *int64) (int, error) {
	off, err := unix.Seek(fd, 0, io.SeekCurrent)
	if err != nil {
		return -1, err
	}
	n, err := unix.Getdents(fd, buf)
	if err != nil {
		return -1, err
	}
	if base != nil {
		*base = off
	}
	return n, nil
}
