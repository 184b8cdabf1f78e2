package server

import (
	"context"
	"errors"
	"io"
	"os"
	"syscall"

	"github.com/rfratto/rpcfs/internal/rfs"
)

// errorForResponse converts err into the errno placed in a response status.
// Host errnos are copied verbatim.
func errorForResponse(err error) rfs.Errno {
	if err == nil {
		return 0
	}

	var (
		re rfs.Errno
		se syscall.Errno
	)
	switch {
	case errors.As(err, &re):
		return re
	case errors.As(err, &se):
		return rfs.Errno(se)
	}

	// Check for common system-level errors.
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return rfs.ECONNABORTED
	case errors.Is(err, context.Canceled):
		return rfs.EINTR
	case errors.Is(err, os.ErrNotExist):
		return rfs.ENOENT
	case errors.Is(err, os.ErrExist):
		return rfs.EEXIST
	case errors.Is(err, os.ErrPermission):
		return rfs.EACCES
	case errors.Is(err, os.ErrClosed):
		return rfs.EBADF
	case errors.Is(err, io.EOF):
		return 0
	}
	return rfs.EIO
}
