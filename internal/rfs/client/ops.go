package client

import (
	"fmt"

	"github.com/rfratto/rpcfs/internal/rfs"
	"github.com/rfratto/rpcfs/internal/rfs/dirtree"
	"github.com/rfratto/rpcfs/internal/rfs/wire"
)

// checkPath rejects paths that can't fit in a single request frame before
// anything is sent.
func checkPath(op rfs.Op, path string) error {
	if len(path) > wire.PathLimit(op) {
		return fmt.Errorf("%s: path of %d bytes: %w", op, len(path), rfs.ENAMETOOLONG)
	}
	return nil
}

// Open opens path on the server and returns the server's descriptor.
func (c *Conn) Open(path string, flags int, mode uint32) (int, error) {
	if err := checkPath(rfs.OpOpen, path); err != nil {
		return -1, err
	}
	resp, err := c.roundTrip(&rfs.OpenRequest{Path: path, Flags: int32(flags), Mode: mode})
	if err != nil {
		return -1, err
	}
	r := resp.(*rfs.OpenResponse)
	if r.FD < 0 || r.Status != 0 {
		return -1, statusErr(r.Status)
	}
	return int(r.FD), nil
}

// Close closes a descriptor on the server.
func (c *Conn) Close(fd int) error {
	resp, err := c.roundTrip(&rfs.CloseRequest{FD: int32(fd)})
	if err != nil {
		return err
	}
	r := resp.(*rfs.CloseResponse)
	if r.Result < 0 || r.Status != 0 {
		return statusErr(r.Status)
	}
	return nil
}

// Lseek repositions a descriptor on the server and returns the new offset.
func (c *Conn) Lseek(fd int, offset int64, whence int) (int64, error) {
	resp, err := c.roundTrip(&rfs.LseekRequest{FD: int32(fd), Offset: offset, Whence: int32(whence)})
	if err != nil {
		return -1, err
	}
	r := resp.(*rfs.LseekResponse)
	if r.Offset < 0 || r.Status != 0 {
		return -1, statusErr(r.Status)
	}
	return r.Offset, nil
}

// Stat stats path on the server. The contents of st are sent along with the
// request and replaced with the server's result.
func (c *Conn) Stat(path string, st *rfs.Stat) error {
	if err := checkPath(rfs.OpStat, path); err != nil {
		return err
	}
	req := &rfs.StatRequest{Path: path}
	if st != nil {
		req.Stat = *st
	}
	resp, err := c.roundTrip(req)
	if err != nil {
		return err
	}
	r := resp.(*rfs.StatResponse)
	if st != nil {
		*st = r.Stat
	}
	if r.Result < 0 || r.Status != 0 {
		return statusErr(r.Status)
	}
	return nil
}

// Unlink removes path on the server.
func (c *Conn) Unlink(path string) error {
	if err := checkPath(rfs.OpUnlink, path); err != nil {
		return err
	}
	resp, err := c.roundTrip(&rfs.UnlinkRequest{Path: path})
	if err != nil {
		return err
	}
	r := resp.(*rfs.UnlinkResponse)
	if r.Result < 0 || r.Status != 0 {
		return statusErr(r.Status)
	}
	return nil
}

// Getdirentries reads raw directory entries from fd into buf. At most one
// frame's worth of entries is returned per call. If basep is non-nil, it's
// sent to the server and then advanced by the number of bytes returned.
func (c *Conn) Getdirentries(fd int, buf []byte, basep *int64) (int, error) {
	count := len(buf)
	if count > rfs.MaxFrameSize {
		count = rfs.MaxFrameSize
	}

	req := &rfs.GetdirentriesRequest{FD: int32(fd), Count: uint32(count)}
	if basep != nil {
		req.Base = *basep
	}
	resp, err := c.roundTrip(req)
	if err != nil {
		return -1, err
	}
	r := resp.(*rfs.GetdirentriesResponse)
	if r.N < 0 || r.Status != 0 {
		return -1, statusErr(r.Status)
	}

	n := copy(buf, r.Data)
	if basep != nil {
		*basep += int64(n)
	}
	return n, nil
}

// GetDirTree fetches the directory tree rooted at path from the server. The
// root node is named path.
func (c *Conn) GetDirTree(path string) (*dirtree.Tree, error) {
	if err := checkPath(rfs.OpGetdirtree, path); err != nil {
		return nil, err
	}
	resp, err := c.roundTrip(&rfs.GetdirtreeRequest{Path: path})
	if err != nil {
		return nil, err
	}
	r := resp.(*rfs.GetdirtreeResponse)
	if len(r.Tree) == 0 {
		// The server sends no errno for getdirtree; an empty tree only says
		// that path couldn't be walked.
		return nil, fmt.Errorf("getdirtree %s: %w", path, rfs.ENOENT)
	}
	return dirtree.Decode(r.Tree)
}

// statusErr converts a failure status into an error. A failure result with
// a zero status is reported as EIO.
func statusErr(status rfs.Errno) error {
	if status == 0 {
		return rfs.EIO
	}
	return status
}
