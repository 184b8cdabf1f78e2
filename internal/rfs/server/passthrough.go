package server

import (
	"context"
	"path/filepath"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/rfratto/rpcfs/internal/rfs"
	"github.com/rfratto/rpcfs/internal/rfs/dirtree"
	"github.com/rfratto/rpcfs/internal/rfs/hostfs"
)

// Passthrough creates a new Handler which passes requests through to the
// host filesystem. Descriptors are real host descriptors and are returned to
// the client untranslated.
//
// If root is non-empty, relative request paths are resolved against it.
// Note that this isn't a chroot: absolute paths and symbolic links can reach
// anywhere on the host.
func Passthrough(l log.Logger, root string) Handler {
	if l == nil {
		l = log.NewNopLogger()
	}
	return &passthroughHandler{
		log:  l,
		root: root,
		fds:  newFDTable(),
	}
}

type passthroughHandler struct {
	log  log.Logger
	root string
	fds  *fdTable
}

var (
	_ Handler = (*passthroughHandler)(nil)
)

func (h *passthroughHandler) resolve(path string) string {
	if h.root == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(h.root, path)
}

// Close closes every descriptor the session left open.
func (h *passthroughHandler) Close() error {
	if n := h.fds.Len(); n > 0 {
		level.Debug(h.log).Log("msg", "closing descriptors left open by session", "count", n)
	}
	return h.fds.CloseAll(hostfs.Close)
}

func (h *passthroughHandler) Open(ctx context.Context, req *rfs.OpenRequest) (*rfs.OpenResponse, error) {
	fd, err := hostfs.Open(h.resolve(req.Path), int(req.Flags), req.Mode)
	if err != nil {
		return nil, err
	}
	h.fds.Add(int32(fd), req.Path)
	return &rfs.OpenResponse{FD: int32(fd)}, nil
}

func (h *passthroughHandler) Read(ctx context.Context, req *rfs.ReadRequest) (*rfs.ReadResponse, error) {
	if err := h.fds.Check(req.FD); err != nil {
		return nil, err
	}

	// The response always carries the full data region, even when fewer
	// bytes were read.
	data := make([]byte, req.Count)
	n, err := hostfs.Read(int(req.FD), data)
	if err != nil {
		return nil, err
	}
	return &rfs.ReadResponse{N: int32(n), Data: data}, nil
}

func (h *passthroughHandler) Write(ctx context.Context, req *rfs.WriteRequest) (*rfs.WriteResponse, error) {
	if err := h.fds.Check(req.FD); err != nil {
		return nil, err
	}
	n, err := hostfs.Write(int(req.FD), req.Data)
	if err != nil {
		return nil, err
	}
	return &rfs.WriteResponse{N: int32(n)}, nil
}

func (h *passthroughHandler) CloseFile(ctx context.Context, req *rfs.CloseRequest) (*rfs.CloseResponse, error) {
	if err := h.fds.Remove(req.FD); err != nil {
		return nil, err
	}
	// The descriptor is released by the host even if close reports an error,
	// so it's never re-added.
	if err := hostfs.Close(int(req.FD)); err != nil {
		return nil, err
	}
	return &rfs.CloseResponse{}, nil
}

func (h *passthroughHandler) Lseek(ctx context.Context, req *rfs.LseekRequest) (*rfs.LseekResponse, error) {
	if err := h.fds.Check(req.FD); err != nil {
		return nil, err
	}
	off, err := hostfs.Lseek(int(req.FD), req.Offset, int(req.Whence))
	if err != nil {
		return nil, err
	}
	return &rfs.LseekResponse{Offset: off}, nil
}

func (h *passthroughHandler) Stat(ctx context.Context, req *rfs.StatRequest) (*rfs.StatResponse, error) {
	st, err := hostfs.Stat(h.resolve(req.Path))
	if err != nil {
		return nil, err
	}
	return &rfs.StatResponse{Stat: st}, nil
}

func (h *passthroughHandler) Unlink(ctx context.Context, req *rfs.UnlinkRequest) (*rfs.UnlinkResponse, error) {
	if err := hostfs.Unlink(h.resolve(req.Path)); err != nil {
		return nil, err
	}
	return &rfs.UnlinkResponse{}, nil
}

func (h *passthroughHandler) Getdirentries(ctx context.Context, req *rfs.GetdirentriesRequest) (*rfs.GetdirentriesResponse, error) {
	if err := h.fds.Check(req.FD); err != nil {
		return nil, err
	}

	var (
		buf  = make([]byte, req.Count)
		base = req.Base
	)
	n, err := hostfs.Getdirentries(int(req.FD), buf, &base)
	if err != nil {
		return nil, err
	}
	return &rfs.GetdirentriesResponse{N: int32(n), Data: buf[:n]}, nil
}

func (h *passthroughHandler) Getdirtree(ctx context.Context, req *rfs.GetdirtreeRequest) (*rfs.GetdirtreeResponse, error) {
	t, err := dirtree.Build(h.resolve(req.Path))
	if err != nil {
		return nil, err
	}
	t.Nodes[t.Root()].Name = req.Path

	data, err := dirtree.Encode(t)
	if err != nil {
		return nil, err
	}
	return &rfs.GetdirtreeResponse{Tree: data}, nil
}
