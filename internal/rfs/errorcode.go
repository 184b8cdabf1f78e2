package rfs

import (
	"strconv"
	"syscall"
)

// Errno is a POSIX error code carried in the status field of a response. 0
// means success. Values are copied verbatim from the server host's errno, so
// the common codes are re-defined here with their Linux values.
type Errno int32

// Common error codes.
const (
	EPERM        = Errno(0x01)
	ENOENT       = Errno(0x02)
	EINTR        = Errno(0x04)
	EIO          = Errno(0x05)
	EBADF        = Errno(0x09)
	EAGAIN       = Errno(0x0b)
	ENOMEM       = Errno(0x0c)
	EACCES       = Errno(0x0d)
	EFAULT       = Errno(0x0e)
	EEXIST       = Errno(0x11)
	EXDEV        = Errno(0x12)
	ENOTDIR      = Errno(0x14)
	EISDIR       = Errno(0x15)
	EINVAL       = Errno(0x16)
	EMFILE       = Errno(0x18)
	EFBIG        = Errno(0x1b)
	ENOSPC       = Errno(0x1c)
	ESPIPE       = Errno(0x1d)
	EROFS        = Errno(0x1e)
	ENAMETOOLONG = Errno(0x24)
	ENOSYS       = Errno(0x26)
	ENOTEMPTY    = Errno(0x27)
	ELOOP        = Errno(0x28)
	ECONNABORTED = Errno(0x67)
)

var errnoDescriptions = map[Errno]string{
	EPERM:        "operation not permitted",
	ENOENT:       "no such file or directory",
	EINTR:        "interrupted system call",
	EIO:          "input/output error",
	EBADF:        "bad file descriptor",
	EAGAIN:       "resource temporarily unavailable",
	ENOMEM:       "cannot allocate memory",
	EACCES:       "permission denied",
	EFAULT:       "bad address",
	EEXIST:       "file exists",
	EXDEV:        "invalid cross-device link",
	ENOTDIR:      "not a directory",
	EISDIR:       "is a directory",
	EINVAL:       "invalid argument",
	EMFILE:       "too many open files",
	EFBIG:        "file too large",
	ENOSPC:       "no space left on device",
	ESPIPE:       "illegal seek",
	EROFS:        "read-only file system",
	ENAMETOOLONG: "file name too long",
	ENOSYS:       "function not implemented",
	ENOTEMPTY:    "directory not empty",
	ELOOP:        "too many levels of symbolic links",
	ECONNABORTED: "software caused connection abort",
}

// Error prints the description of the error.
func (e Errno) Error() string {
	if desc := errnoDescriptions[e]; desc != "" {
		return desc
	}
	return "errno " + strconv.Itoa(int(e))
}

// Is allows errors.Is to compare e against a syscall.Errno or against the
// generic os and io/fs errors (fs.ErrNotExist, fs.ErrExist, ...).
func (e Errno) Is(target error) bool {
	if se, ok := target.(syscall.Errno); ok {
		return int32(se) == int32(e)
	}
	return syscall.Errno(e).Is(target)
}

// Err returns e as an error, or nil if e is 0.
func (e Errno) Err() error {
	if e == 0 {
		return nil
	}
	return e
}
