// Package rfs implements the types for a small remote file protocol. A client
// forwards individual file operations (open, read, write, close, lseek, stat,
// unlink, getdirentries, getdirtree) to a server over a single stream
// connection, one outstanding request at a time.
//
// Messages are flat sequences of fixed-width little-endian integers and
// length-prefixed byte strings. See the wire package for the encoding and
// the server and client packages for either end of the connection.
package rfs

// MaxFrameSize is the largest message either side will send or accept in a
// single frame. Transfers larger than MaxFrameSize are split by the client.
const MaxFrameSize = 4096

// Chunk sizes used when splitting reads and writes across multiple frames.
const (
	// ReadChunkSize is the largest read payload that fits in a response frame
	// after the bytes_read and status fields.
	ReadChunkSize = MaxFrameSize - 8

	// WriteChunkSize is the largest write payload that fits in a request frame
	// after the opcode, fd and count fields.
	WriteChunkSize = MaxFrameSize - 12
)

// Request is used for protocol request messages which are sent by a client
// to the server.
type Request interface {
	// Op returns the opcode of the request.
	Op() Op
}

// Response is used for protocol response messages which are sent by the
// server after processing a request.
type Response interface {
	// Op returns the opcode of the request the response is for.
	Op() Op
}
