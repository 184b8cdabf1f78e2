// Package stub is the boundary between an interception layer and the rfs
// client. Applications see plain integer descriptors; the stub maps each one
// to either a local descriptor or a descriptor on the remote session and
// dispatches accordingly.
//
// Path-based operations (open, stat, unlink, getdirtree) always go to the
// remote session.
package stub

import (
	"errors"

	"github.com/rfratto/rpcfs/internal/rfs"
	"github.com/rfratto/rpcfs/internal/rfs/client"
	"github.com/rfratto/rpcfs/internal/rfs/dirtree"
)

// Stub dispatches file operations between a remote session and the local
// host.
type Stub struct {
	conn  *client.Conn
	local Local
}

// New creates a Stub that opens files through conn. If local is nil, HostFS
// is used for local descriptors.
func New(conn *client.Conn, local Local) *Stub {
	if local == nil {
		local = HostFS{}
	}
	return &Stub{conn: conn, local: local}
}

// Virtual converts h into the integer descriptor handed to applications.
// Remote descriptors are offset by VirtualOffset; local descriptors are
// returned unchanged.
func (s *Stub) Virtual(h Handle) int {
	if h.IsRemote() {
		return h.fd + VirtualOffset
	}
	return h.fd
}

// Handle converts a descriptor from an application back into a Handle.
func (s *Stub) Handle(fd int) Handle {
	if fd >= VirtualOffset {
		return RemoteHandle(s.conn, fd-VirtualOffset)
	}
	return LocalHandle(fd)
}

// Open opens path on the remote session.
func (s *Stub) Open(path string, flags int, mode uint32) (Handle, error) {
	fd, err := s.conn.Open(path, flags, mode)
	if err != nil {
		return Handle{}, err
	}
	if fd >= VirtualOffset {
		// The virtual descriptor would overflow; give it back.
		_ = s.conn.Close(fd)
		return Handle{}, rfs.EMFILE
	}
	return RemoteHandle(s.conn, fd), nil
}

// Read reads from h.
func (s *Stub) Read(h Handle, p []byte) (int, error) {
	if h.IsRemote() {
		return h.conn.Read(h.fd, p)
	}
	return s.local.Read(h.fd, p)
}

// Write writes to h.
func (s *Stub) Write(h Handle, p []byte) (int, error) {
	if h.IsRemote() {
		return h.conn.Write(h.fd, p)
	}
	return s.local.Write(h.fd, p)
}

// Close closes h. A remote handle is invalid after a successful Close.
func (s *Stub) Close(h Handle) error {
	if h.IsRemote() {
		return h.conn.Close(h.fd)
	}
	return s.local.Close(h.fd)
}

// Lseek repositions h.
func (s *Stub) Lseek(h Handle, offset int64, whence int) (int64, error) {
	if h.IsRemote() {
		return h.conn.Lseek(h.fd, offset, whence)
	}
	return s.local.Lseek(h.fd, offset, whence)
}

// Getdirentries reads raw directory entries from h.
func (s *Stub) Getdirentries(h Handle, buf []byte, basep *int64) (int, error) {
	if h.IsRemote() {
		return h.conn.Getdirentries(h.fd, buf, basep)
	}
	return s.local.Getdirentries(h.fd, buf, basep)
}

// Stat stats path on the remote session.
func (s *Stub) Stat(path string, st *rfs.Stat) error {
	return s.conn.Stat(path, st)
}

// Unlink removes path on the remote session.
func (s *Stub) Unlink(path string) error {
	return s.conn.Unlink(path)
}

// GetDirTree fetches the directory tree at path from the remote session.
func (s *Stub) GetDirTree(path string) (*dirtree.Tree, error) {
	return s.conn.GetDirTree(path)
}

// FreeDirTree releases a tree returned by GetDirTree. Trees are ordinary Go
// values, so this never reaches the server and only clears t.
func (s *Stub) FreeDirTree(t *dirtree.Tree) {
	if t != nil {
		t.Nodes = nil
	}
}

// Shutdown closes the remote session.
func (s *Stub) Shutdown() error {
	if s.conn == nil {
		return errors.New("stub has no remote session")
	}
	return s.conn.Shutdown()
}
