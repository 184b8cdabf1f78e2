// Package client implements the calling side of the rfs protocol. A Conn is
// a single session with a server; operations on it are synchronous and
// serialized, with at most one request outstanding.
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/rfratto/rpcfs/internal/rfs"
	"github.com/rfratto/rpcfs/internal/rfs/wire"
	"go.uber.org/atomic"
)

// ErrBroken is returned by every call on a Conn after a transport failure.
// The session can't be recovered; dial a new Conn instead.
var ErrBroken = errors.New("rfs connection broken")

// Conn is a session with an rfs server. Conn is safe for concurrent use, but
// calls are executed one at a time.
type Conn struct {
	log  log.Logger
	conn net.Conn

	mut    sync.Mutex
	r      *bufio.Reader
	w      *bufio.Writer
	broken error // Transport error that broke the session, if any.

	calls atomic.Uint64
}

// Dial connects to an rfs server. addr is either host:port or a URL in the
// form tcp://host:port or unix://path.
func Dial(ctx context.Context, l log.Logger, addr string) (*Conn, error) {
	network, address := "tcp", addr
	if strings.Contains(addr, "://") {
		u, err := url.Parse(addr)
		if err != nil {
			return nil, fmt.Errorf("cannot parse addr %q as url: %w", addr, err)
		}
		network, address = u.Scheme, u.Host+u.Path
	}

	var d net.Dialer
	nc, err := d.DialContext(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("dialing %s %s: %w", network, address, err)
	}
	return NewConn(l, nc), nil
}

// NewConn creates a Conn over an established connection. Conn takes
// ownership of nc.
func NewConn(l log.Logger, nc net.Conn) *Conn {
	if l == nil {
		l = log.NewNopLogger()
	}
	return &Conn{
		log:  log.With(l, "remote", nc.RemoteAddr()),
		conn: nc,
		r:    bufio.NewReaderSize(nc, rfs.MaxFrameSize),
		w:    bufio.NewWriterSize(nc, rfs.MaxFrameSize),
	}
}

// Shutdown closes the session. Descriptors still open on the server are
// closed by the server.
func (c *Conn) Shutdown() error {
	c.mut.Lock()
	defer c.mut.Unlock()

	if c.broken == nil {
		c.broken = net.ErrClosed
	}
	return c.conn.Close()
}

// Calls returns the number of round trips made on c.
func (c *Conn) Calls() uint64 { return c.calls.Load() }

// roundTrip sends req and waits for its response. Any transport error
// breaks the Conn.
func (c *Conn) roundTrip(req rfs.Request) (rfs.Response, error) {
	c.mut.Lock()
	defer c.mut.Unlock()

	if c.broken != nil {
		return nil, fmt.Errorf("%w: %s", ErrBroken, c.broken)
	}

	c.calls.Inc()
	if err := wire.WriteRequest(c.w, req); err != nil {
		if errors.Is(err, wire.ErrFrameTooLarge) {
			// Nothing was written; the session is still usable.
			return nil, err
		}
		return nil, c.breakConn(req.Op(), err)
	}

	resp, err := wire.ReadResponse(c.r, req)
	if err != nil {
		return nil, c.breakConn(req.Op(), err)
	}
	return resp, nil
}

func (c *Conn) breakConn(op rfs.Op, err error) error {
	level.Warn(c.log).Log("msg", "rfs connection broken", "op", op, "err", err)
	c.broken = err
	_ = c.conn.Close()
	return fmt.Errorf("%w: %s: %s", ErrBroken, op, err)
}
