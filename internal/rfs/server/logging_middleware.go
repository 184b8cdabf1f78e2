package server

import (
	"context"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/rfratto/rpcfs/internal/rfs"
)

// NewLoggingMiddleware returns a new logging middleware.
func NewLoggingMiddleware(l log.Logger) Middleware {
	if l == nil {
		l = log.NewNopLogger()
	}
	return &loggingMiddleware{l: l}
}

type loggingMiddleware struct {
	l log.Logger
}

func (lm *loggingMiddleware) HandleRequest(ctx context.Context, hdr *RequestHeader, req rfs.Request, invoker Invoker) (rfs.Response, error) {
	level.Debug(lm.l).Log("msg", "starting request", "op", hdr.Op, "session", hdr.Session, "seq", hdr.Seq)
	resp, err := invoker(ctx, hdr, req)
	level.Debug(lm.l).Log("msg", "finished request", "op", hdr.Op, "session", hdr.Session, "seq", hdr.Seq, "err", err)
	return resp, err
}
