// Package wire implements the byte layout of rfs messages. Every field is a
// fixed-width little-endian integer or a byte string whose length was sent
// in an earlier field. Nothing is self-describing: a reader must know which
// message it expects.
//
// Requests start with a 4-byte opcode. Responses carry no opcode and are
// decoded against the request they answer.
package wire

import (
	"errors"
	"fmt"
	"io"

	"github.com/rfratto/rpcfs/internal/rfs"
)

// Errors returned while decoding messages. A session that sees any of these
// can't find the start of the next message and must be torn down.
var (
	ErrFrameTooLarge = errors.New("frame exceeds maximum size")
	ErrUnknownOp     = errors.New("unknown opcode")
	ErrShortFrame    = errors.New("short frame")
	ErrMalformed     = errors.New("malformed message")
)

// MaxTreeSize is the largest serialized directory tree a client will accept.
const MaxTreeSize = 1 << 30

// Fixed overhead of each request, including the opcode, excluding variable
// length fields.
const (
	openOverhead   = 4 + 4 + 4 + 4
	statOverhead   = 4 + 4 + rfs.StatSize
	unlinkOverhead = 4 + 4
	treeOverhead   = 4 + 4
)

// PathLimit returns the longest path that fits in a single request frame
// for op. Ops that don't carry a path return 0.
func PathLimit(op rfs.Op) int {
	switch op {
	case rfs.OpOpen:
		return rfs.MaxFrameSize - openOverhead
	case rfs.OpStat:
		return rfs.MaxFrameSize - statOverhead
	case rfs.OpUnlink:
		return rfs.MaxFrameSize - unlinkOverhead
	case rfs.OpGetdirtree:
		return rfs.MaxFrameSize - treeOverhead
	default:
		return 0
	}
}

// ReadRequest reads the next request from r. io.EOF is returned if r ends
// cleanly before a new request starts. Declared lengths are validated
// before anything is allocated.
func ReadRequest(r io.Reader) (req rfs.Request, err error) {
	defer recoverArgs(&err)

	ar := argReader{r: r}
	op := rfs.Op(ar.Uint32())

	switch op {
	case rfs.OpOpen:
		path := ar.Bytes(ar.Length(PathLimit(op)))
		return &rfs.OpenRequest{
			Path:  string(path),
			Flags: ar.Int32(),
			Mode:  ar.Uint32(),
		}, nil

	case rfs.OpRead:
		fd := ar.Int32()
		return &rfs.ReadRequest{FD: fd, Count: uint32(ar.Length(rfs.ReadChunkSize))}, nil

	case rfs.OpWrite:
		fd := ar.Int32()
		data := ar.Bytes(ar.Length(rfs.WriteChunkSize))
		return &rfs.WriteRequest{FD: fd, Data: data}, nil

	case rfs.OpClose:
		return &rfs.CloseRequest{FD: ar.Int32()}, nil

	case rfs.OpLseek:
		return &rfs.LseekRequest{
			FD:     ar.Int32(),
			Offset: ar.Int64(),
			Whence: ar.Int32(),
		}, nil

	case rfs.OpStat:
		path := ar.Bytes(ar.Length(PathLimit(op)))
		return &rfs.StatRequest{Path: string(path), Stat: ar.Stat()}, nil

	case rfs.OpUnlink:
		path := ar.Bytes(ar.Length(PathLimit(op)))
		return &rfs.UnlinkRequest{Path: string(path)}, nil

	case rfs.OpGetdirentries:
		fd := ar.Int32()
		count := ar.Length(rfs.MaxFrameSize)
		return &rfs.GetdirentriesRequest{FD: fd, Count: uint32(count), Base: ar.Int64()}, nil

	case rfs.OpGetdirtree:
		path := ar.Bytes(ar.Length(PathLimit(op)))
		return &rfs.GetdirtreeRequest{Path: string(path)}, nil

	default:
		return nil, fmt.Errorf("%w %d", ErrUnknownOp, uint32(op))
	}
}

// WriteRequest writes req to w as a single frame. Requests that don't fit in
// a frame are rejected with ErrFrameTooLarge and nothing is written.
func WriteRequest(w io.Writer, req rfs.Request) error {
	var aw argWriter
	aw.Uint32(uint32(req.Op()))

	switch req := req.(type) {
	case *rfs.OpenRequest:
		aw.Path(req.Path)
		aw.Int32(req.Flags)
		aw.Uint32(req.Mode)
	case *rfs.ReadRequest:
		aw.Int32(req.FD)
		aw.Uint32(req.Count)
	case *rfs.WriteRequest:
		aw.Int32(req.FD)
		aw.Uint32(uint32(len(req.Data)))
		aw.Bytes(req.Data)
	case *rfs.CloseRequest:
		aw.Int32(req.FD)
	case *rfs.LseekRequest:
		aw.Int32(req.FD)
		aw.Int64(req.Offset)
		aw.Int32(req.Whence)
	case *rfs.StatRequest:
		aw.Path(req.Path)
		aw.Stat(&req.Stat)
	case *rfs.UnlinkRequest:
		aw.Path(req.Path)
	case *rfs.GetdirentriesRequest:
		aw.Int32(req.FD)
		aw.Uint32(req.Count)
		aw.Int64(req.Base)
	case *rfs.GetdirtreeRequest:
		aw.Path(req.Path)
	default:
		return fmt.Errorf("%w %s", ErrUnknownOp, req.Op())
	}

	if aw.Len() > rfs.MaxFrameSize {
		return fmt.Errorf("%w: %s request is %d bytes", ErrFrameTooLarge, req.Op(), aw.Len())
	}
	return aw.Flush(w)
}

// WriteResponse writes resp to w. getdirentries and getdirtree responses are
// sent as a header frame followed by a data frame, each flushed on its own.
func WriteResponse(w io.Writer, resp rfs.Response) error {
	var aw argWriter

	switch resp := resp.(type) {
	case *rfs.OpenResponse:
		aw.Int32(resp.FD)
		aw.Errno(resp.Status)
	case *rfs.ReadResponse:
		aw.Int32(resp.N)
		aw.Errno(resp.Status)
		aw.Bytes(resp.Data)
	case *rfs.WriteResponse:
		aw.Int32(resp.N)
		aw.Errno(resp.Status)
	case *rfs.CloseResponse:
		aw.Int32(resp.Result)
		aw.Errno(resp.Status)
	case *rfs.LseekResponse:
		aw.Int64(resp.Offset)
		aw.Errno(resp.Status)
	case *rfs.StatResponse:
		aw.Int32(resp.Result)
		aw.Errno(resp.Status)
		aw.Stat(&resp.Stat)
	case *rfs.UnlinkResponse:
		aw.Int32(resp.Result)
		aw.Errno(resp.Status)

	case *rfs.GetdirentriesResponse:
		aw.Int32(resp.N)
		aw.Errno(resp.Status)
		if err := aw.Flush(w); err != nil {
			return err
		}
		if resp.N <= 0 || resp.Status != 0 {
			return nil
		}
		if int(resp.N) > len(resp.Data) {
			return fmt.Errorf("%w: getdirentries reports %d bytes but has %d", ErrMalformed, resp.N, len(resp.Data))
		}
		aw.Bytes(resp.Data[:resp.N])

	case *rfs.GetdirtreeResponse:
		aw.Uint32(uint32(len(resp.Tree)))
		if err := aw.Flush(w); err != nil {
			return err
		}
		if len(resp.Tree) == 0 {
			return nil
		}
		aw.Bytes(resp.Tree)

	default:
		return fmt.Errorf("%w: no layout for response %T", ErrUnknownOp, resp)
	}

	return aw.Flush(w)
}

// ReadResponse reads the response to req from r.
func ReadResponse(r io.Reader, req rfs.Request) (resp rfs.Response, err error) {
	defer recoverArgs(&err)

	// A response is always expected, so running out of input at any point is
	// a short frame.
	ar := argReader{r: r, started: true}

	switch req := req.(type) {
	case *rfs.OpenRequest:
		return &rfs.OpenResponse{FD: ar.Int32(), Status: ar.Errno()}, nil

	case *rfs.ReadRequest:
		n, status := ar.Int32(), ar.Errno()
		if n > int32(req.Count) {
			return nil, fmt.Errorf("%w: read returned %d bytes for a %d byte request", ErrMalformed, n, req.Count)
		}
		data := ar.Bytes(int(req.Count))
		if n > 0 {
			data = data[:n]
		} else {
			data = data[:0]
		}
		return &rfs.ReadResponse{N: n, Status: status, Data: data}, nil

	case *rfs.WriteRequest:
		return &rfs.WriteResponse{N: ar.Int32(), Status: ar.Errno()}, nil

	case *rfs.CloseRequest:
		return &rfs.CloseResponse{Result: ar.Int32(), Status: ar.Errno()}, nil

	case *rfs.LseekRequest:
		return &rfs.LseekResponse{Offset: ar.Int64(), Status: ar.Errno()}, nil

	case *rfs.StatRequest:
		return &rfs.StatResponse{Result: ar.Int32(), Status: ar.Errno(), Stat: ar.Stat()}, nil

	case *rfs.UnlinkRequest:
		return &rfs.UnlinkResponse{Result: ar.Int32(), Status: ar.Errno()}, nil

	case *rfs.GetdirentriesRequest:
		resp := &rfs.GetdirentriesResponse{N: ar.Int32(), Status: ar.Errno()}
		if resp.N > int32(req.Count) {
			return nil, fmt.Errorf("%w: getdirentries returned %d bytes for a %d byte request", ErrMalformed, resp.N, req.Count)
		}
		if resp.N > 0 && resp.Status == 0 {
			resp.Data = ar.Bytes(int(resp.N))
		}
		return resp, nil

	case *rfs.GetdirtreeRequest:
		n := ar.Length(MaxTreeSize)
		return &rfs.GetdirtreeResponse{Tree: ar.Bytes(n)}, nil

	default:
		return nil, fmt.Errorf("%w %s", ErrUnknownOp, req.Op())
	}
}
