package stub

import "github.com/rfratto/rpcfs/internal/rfs/hostfs"

// Local performs descriptor operations that bypass the remote session. It
// receives every call made with a local Handle.
type Local interface {
	Read(fd int, p []byte) (int, error)
	Write(fd int, p []byte) (int, error)
	Close(fd int) error
	Lseek(fd int, offset int64, whence int) (int64, error)
	Getdirentries(fd int, buf []byte, basep *int64) (int, error)
}

// HostFS is a Local that calls straight into the host kernel.
type HostFS struct{}

var _ Local = HostFS{}

func (HostFS) Read(fd int, p []byte) (int, error)  { return hostfs.Read(fd, p) }
func (HostFS) Write(fd int, p []byte) (int, error) { return hostfs.Write(fd, p) }
func (HostFS) Close(fd int) error                  { return hostfs.Close(fd) }

func (HostFS) Lseek(fd int, offset int64, whence int) (int64, error) {
	return hostfs.Lseek(fd, offset, whence)
}

func (HostFS) Getdirentries(fd int, buf []byte, basep *int64) (int, error) {
	return hostfs.Getdirentries(fd, buf, basep)
}
