package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/hashicorp/go-multierror"
	"github.com/rfratto/rpcfs/internal/rfs"
	"github.com/rfratto/rpcfs/internal/rfs/wire"
	uuid "github.com/satori/go.uuid"
)

// session serves requests from a single connection. Requests are handled
// strictly one at a time: read, dispatch, respond, repeat.
type session struct {
	id      uuid.UUID
	log     log.Logger
	conn    net.Conn
	handler Handler

	mw      Middleware
	invoker Invoker
}

func newSession(l log.Logger, conn net.Conn, h Handler, mw Middleware) *session {
	id := uuid.NewV4()
	return &session{
		id:      id,
		log:     log.With(l, "session", id, "remote", conn.RemoteAddr()),
		conn:    conn,
		handler: h,
		mw:      mw,
		invoker: handlerInvoker(h),
	}
}

// Serve handles requests until the peer closes the connection or a request
// can't be read. Serve returns nil when the peer hangs up between requests.
// The connection and handler are always closed before Serve returns.
func (s *session) Serve(ctx context.Context) (err error) {
	level.Debug(s.log).Log("msg", "session started")
	defer func() {
		if cerr := s.close(); cerr != nil {
			err = multierror.Append(err, cerr).ErrorOrNil()
		}
		level.Debug(s.log).Log("msg", "session ended", "err", err)
	}()

	var (
		r = bufio.NewReaderSize(s.conn, rfs.MaxFrameSize)
		w = bufio.NewWriterSize(s.conn, rfs.MaxFrameSize)
	)

	for seq := uint64(0); ; seq++ {
		req, err := wire.ReadRequest(r)
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, net.ErrClosed):
			// Closed locally by a server shutdown.
			return nil
		case err != nil:
			level.Warn(s.log).Log("msg", "terminating session on bad request", "err", err)
			return err
		}

		hdr := &RequestHeader{Op: req.Op(), Session: s.id, Seq: seq}
		resp := s.handle(ctx, hdr, req)

		if err := wire.WriteResponse(w, resp); err != nil {
			return fmt.Errorf("writing %s response: %w", hdr.Op, err)
		}
	}
}

func (s *session) handle(ctx context.Context, hdr *RequestHeader, req rfs.Request) rfs.Response {
	resp, err := s.mw.HandleRequest(ctx, hdr, req, s.invoker)
	if err == nil && resp != nil {
		return resp
	}

	status := errorForResponse(err)
	if status == 0 {
		status = rfs.EIO
	}
	return rfs.FailedResponse(req, status)
}

func (s *session) close() error {
	var errs *multierror.Error
	if err := s.handler.Close(); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("closing handler: %w", err))
	}
	if err := s.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		errs = multierror.Append(errs, fmt.Errorf("closing connection: %w", err))
	}
	return errs.ErrorOrNil()
}
