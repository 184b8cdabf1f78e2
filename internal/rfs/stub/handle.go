package stub

import (
	"fmt"

	"github.com/rfratto/rpcfs/internal/rfs/client"
)

// VirtualOffset is added to server descriptors to form virtual descriptors.
// It's well above any descriptor the local kernel hands out, so the two
// ranges never collide.
const VirtualOffset = 1 << 30

// Handle is a descriptor known to the stub: either a local descriptor that
// was never intercepted, or a descriptor on a remote session.
type Handle struct {
	conn *client.Conn // nil for local handles
	fd   int
}

// LocalHandle returns a Handle for a descriptor owned by the local kernel.
func LocalHandle(fd int) Handle { return Handle{fd: fd} }

// RemoteHandle returns a Handle for a descriptor opened on conn.
func RemoteHandle(conn *client.Conn, fd int) Handle { return Handle{conn: conn, fd: fd} }

// IsRemote reports whether h refers to a remote descriptor.
func (h Handle) IsRemote() bool { return h.conn != nil }

// FD returns the descriptor number as known by its owner: the local kernel
// for local handles or the server for remote handles.
func (h Handle) FD() int { return h.fd }

// String implements fmt.Stringer.
func (h Handle) String() string {
	if h.IsRemote() {
		return fmt.Sprintf("remote(%d)", h.fd)
	}
	return fmt.Sprintf("local(%d)", h.fd)
}
