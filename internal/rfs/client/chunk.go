package client

import (
	"io"

	"github.com/rfratto/rpcfs/internal/rfs"
)

// Read reads up to len(p) bytes from fd on the server. Reads larger than a
// frame are split into chunks of rfs.ReadChunkSize; reading stops early at
// the first short chunk.
//
// If any chunk fails, the whole call fails and returns 0, even if earlier
// chunks succeeded.
func (c *Conn) Read(fd int, p []byte) (int, error) {
	var total int
	for total < len(p) {
		want := len(p) - total
		if want > rfs.ReadChunkSize {
			want = rfs.ReadChunkSize
		}

		resp, err := c.roundTrip(&rfs.ReadRequest{FD: int32(fd), Count: uint32(want)})
		if err != nil {
			return 0, err
		}
		r := resp.(*rfs.ReadResponse)
		if r.N < 0 || r.Status != 0 {
			return 0, statusErr(r.Status)
		}

		total += copy(p[total:], r.Data)
		if int(r.N) < want {
			break
		}
	}
	return total, nil
}

// Write writes p to fd on the server. Writes larger than a frame are split
// into chunks of rfs.WriteChunkSize. A short chunk is retried from where it
// stopped; a chunk that writes nothing fails the call.
//
// If any chunk fails, the whole call fails and returns 0, even if earlier
// chunks succeeded.
func (c *Conn) Write(fd int, p []byte) (int, error) {
	var total int
	for total < len(p) {
		end := total + rfs.WriteChunkSize
		if end > len(p) {
			end = len(p)
		}

		resp, err := c.roundTrip(&rfs.WriteRequest{FD: int32(fd), Data: p[total:end]})
		if err != nil {
			return 0, err
		}
		r := resp.(*rfs.WriteResponse)
		switch {
		case r.Status != 0:
			return 0, r.Status
		case r.N <= 0:
			return 0, io.ErrShortWrite
		case int(r.N) > end-total:
			return 0, rfs.EIO
		}
		total += int(r.N)
	}
	return total, nil
}
