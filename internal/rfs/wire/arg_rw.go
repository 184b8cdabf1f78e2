package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/rfratto/rpcfs/internal/rfs"
)

// argError wraps an error raised by an argReader or argWriter. It's used as
// a panic value so decoding code can pop fields without checking errors on
// every call; recoverArgs turns it back into a returned error.
type argError struct{ err error }

// recoverArgs recovers from a panic raised by argReader or argWriter and
// stores the underlying error into err. Other panics are re-raised.
func recoverArgs(err *error) {
	r := recover()
	if r == nil {
		return
	}
	ae, ok := r.(argError)
	if !ok {
		panic(r)
	}
	*err = ae.err
}

// argReader allows popping individual fields off of a stream. Every field is
// read in full before it is returned. Any method that fails will panic with
// an argError.
//
// Running out of input before the first field is reported as io.EOF; running
// out of input anywhere else is ErrShortFrame.
type argReader struct {
	r       io.Reader
	started bool
	scratch [8]byte
}

func (ar *argReader) read(buf []byte) {
	_, err := io.ReadFull(ar.r, buf)
	switch {
	case err == nil:
		ar.started = true
		return
	case err == io.EOF && !ar.started:
		// Clean end of stream between frames.
	case err == io.EOF || err == io.ErrUnexpectedEOF:
		err = fmt.Errorf("%w: %s", ErrShortFrame, io.ErrUnexpectedEOF)
	}
	panic(argError{err})
}

func (ar *argReader) fill(n int) []byte {
	buf := ar.scratch[:n]
	ar.read(buf)
	return buf
}

// Uint32 pops a little-endian uint32.
func (ar *argReader) Uint32() uint32 { return binary.LittleEndian.Uint32(ar.fill(4)) }

// Int32 pops a little-endian int32.
func (ar *argReader) Int32() int32 { return int32(ar.Uint32()) }

// Int64 pops a little-endian int64.
func (ar *argReader) Int64() int64 { return int64(binary.LittleEndian.Uint64(ar.fill(8))) }

// Errno pops a status field.
func (ar *argReader) Errno() rfs.Errno { return rfs.Errno(ar.Int32()) }

// Length pops a length field and checks it against limit.
func (ar *argReader) Length(limit int) int {
	n := ar.Uint32()
	if uint64(n) > uint64(limit) {
		panic(argError{fmt.Errorf("%w: declared length %d exceeds %d", ErrFrameTooLarge, n, limit)})
	}
	return int(n)
}

// Bytes pops n bytes.
func (ar *argReader) Bytes(n int) []byte {
	res := make([]byte, n)
	ar.read(res)
	return res
}

// Stat pops an encoded rfs.Stat.
func (ar *argReader) Stat() rfs.Stat {
	var st rfs.Stat
	if err := st.UnmarshalBinary(ar.Bytes(rfs.StatSize)); err != nil {
		panic(argError{err})
	}
	return st
}

// argWriter allows queueing individual fields onto a frame. The frame can
// then be flushed to the stream in a single write.
type argWriter struct {
	buf []byte
}

// Uint32 appends a little-endian uint32.
func (aw *argWriter) Uint32(v uint32) {
	aw.buf = append(aw.buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// Int32 appends a little-endian int32.
func (aw *argWriter) Int32(v int32) { aw.Uint32(uint32(v)) }

// Int64 appends a little-endian int64.
func (aw *argWriter) Int64(v int64) {
	aw.Uint32(uint32(v))
	aw.Uint32(uint32(uint64(v) >> 32))
}

// Errno appends a status field.
func (aw *argWriter) Errno(e rfs.Errno) { aw.Int32(int32(e)) }

// Bytes appends b with no length prefix.
func (aw *argWriter) Bytes(b []byte) { aw.buf = append(aw.buf, b...) }

// Path appends a length-prefixed path. The NUL terminator is not sent.
func (aw *argWriter) Path(p string) {
	aw.Uint32(uint32(len(p)))
	aw.buf = append(aw.buf, p...)
}

// Stat appends an encoded rfs.Stat.
func (aw *argWriter) Stat(st *rfs.Stat) {
	b, _ := st.MarshalBinary()
	aw.buf = append(aw.buf, b...)
}

// Len returns the current size of the frame.
func (aw *argWriter) Len() int { return len(aw.buf) }

// Flush writes the queued frame to w and resets the writer. If w buffers
// writes (like *bufio.Writer), it is flushed so the frame reaches the peer.
func (aw *argWriter) Flush(w io.Writer) error {
	buf := aw.buf
	aw.buf = aw.buf[:0]
	if _, err := w.Write(buf); err != nil {
		return err
	}
	if f, ok := w.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}
