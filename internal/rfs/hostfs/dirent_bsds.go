//go:build darwin || freebsd || openbsd

package hostfs

import "golang.org/x/sys/unix"

// Getdirentries reads directory entries from fd into buf, updating base to
// the directory position reported by the host.
func Getdirentries(fd int, buf []byte, base *int64) (int, error) {
	var b uintptr
	if base != nil {
		b = uintptr(*base)
	}
	n, err := unix.Getdirentries(fd, buf, &b)
	if err != nil {
		return -1, err
	}
	if base != nil {
		*base = int64(b)
	}
	return n, nil
}
