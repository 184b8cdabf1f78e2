package server

import (
	"context"
	"fmt"

	"github.com/rfratto/rpcfs/internal/rfs"
	uuid "github.com/satori/go.uuid"
)

// Handler executes requests for a single session. Each session gets its own
// Handler from Options.NewHandler, and the Handler is closed when the
// session ends.
//
// Returning an error from a request method causes a failure response to be
// sent with the error converted to an errno. A nil error must come with a
// non-nil response.
type Handler interface {
	// Close is called when the session ends.
	Close() error

	Open(context.Context, *rfs.OpenRequest) (*rfs.OpenResponse, error)
	Read(context.Context, *rfs.ReadRequest) (*rfs.ReadResponse, error)
	Write(context.Context, *rfs.WriteRequest) (*rfs.WriteResponse, error)
	CloseFile(context.Context, *rfs.CloseRequest) (*rfs.CloseResponse, error)
	Lseek(context.Context, *rfs.LseekRequest) (*rfs.LseekResponse, error)
	Stat(context.Context, *rfs.StatRequest) (*rfs.StatResponse, error)
	Unlink(context.Context, *rfs.UnlinkRequest) (*rfs.UnlinkResponse, error)
	Getdirentries(context.Context, *rfs.GetdirentriesRequest) (*rfs.GetdirentriesResponse, error)
	Getdirtree(context.Context, *rfs.GetdirtreeRequest) (*rfs.GetdirtreeResponse, error)
}

// RequestHeader describes where a request came from. It's passed through
// Middleware alongside every request.
type RequestHeader struct {
	Op      rfs.Op
	Session uuid.UUID // Session the request was read from.
	Seq     uint64    // Number of requests the session handled before this one.
}

// handlerInvoker converts h into an Invoker.
func handlerInvoker(h Handler) Invoker {
	return func(ctx context.Context, hdr *RequestHeader, req rfs.Request) (resp rfs.Response, err error) {
		switch req := req.(type) {
		case *rfs.OpenRequest:
			resp, err = h.Open(ctx, req)
		case *rfs.ReadRequest:
			resp, err = h.Read(ctx, req)
		case *rfs.WriteRequest:
			resp, err = h.Write(ctx, req)
		case *rfs.CloseRequest:
			resp, err = h.CloseFile(ctx, req)
		case *rfs.LseekRequest:
			resp, err = h.Lseek(ctx, req)
		case *rfs.StatRequest:
			resp, err = h.Stat(ctx, req)
		case *rfs.UnlinkRequest:
			resp, err = h.Unlink(ctx, req)
		case *rfs.GetdirentriesRequest:
			resp, err = h.Getdirentries(ctx, req)
		case *rfs.GetdirtreeRequest:
			resp, err = h.Getdirtree(ctx, req)
		default:
			err = fmt.Errorf("unexpected request %T for %s: %w", req, hdr.Op, rfs.ENOSYS)
		}
		return resp, err
	}
}
