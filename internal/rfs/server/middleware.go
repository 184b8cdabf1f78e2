package server

import (
	"context"

	"github.com/rfratto/rpcfs/internal/rfs"
)

// Middleware hooks into requests.
type Middleware interface {
	// HandleRequest handles an individual request.
	HandleRequest(ctx context.Context, hdr *RequestHeader, req rfs.Request, invoker Invoker) (rfs.Response, error)
}

// Invoker is called by Middleware to complete requests.
type Invoker func(ctx context.Context, hdr *RequestHeader, req rfs.Request) (rfs.Response, error)

// FuncMiddleware is a function that implements Middleware.
type FuncMiddleware func(ctx context.Context, hdr *RequestHeader, req rfs.Request, i Invoker) (rfs.Response, error)

func (f FuncMiddleware) HandleRequest(ctx context.Context, h *RequestHeader, req rfs.Request, i Invoker) (rfs.Response, error) {
	return f(ctx, h, req, i)
}

type chainMiddleware []Middleware

func (c chainMiddleware) HandleRequest(ctx context.Context, h *RequestHeader, req rfs.Request, invoker Invoker) (rfs.Response, error) {
	if len(c) == 0 {
		return invoker(ctx, h, req)
	}

	var (
		index        int
		chainInvoker Invoker
	)

	chainInvoker = func(ctx context.Context, h *RequestHeader, req rfs.Request) (rfs.Response, error) {
		mw := c[index]
		index++

		var next Invoker
		if index == len(c) {
			next = invoker
		} else {
			next = chainInvoker
		}

		return mw.HandleRequest(ctx, h, req, next)
	}
	return chainInvoker(ctx, h, req)
}
