package dirtree

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Errors returned by Encode and Decode.
var (
	ErrEmptyTree = errors.New("tree has no root")
	ErrNameNUL   = errors.New("node name contains NUL")
	ErrCorrupt   = errors.New("corrupt serialized tree")
)

// minNodeSize is the smallest encoding of a node: an empty name's NUL and
// the child count.
const minNodeSize = 1 + 4

// Size returns the number of bytes Encode will produce for t.
func (t *Tree) Size() int {
	var sz int
	for _, n := range t.Nodes {
		sz += len(n.Name) + minNodeSize
	}
	return sz
}

// Encode serializes t in pre-order. Only nodes reachable from the root are
// written.
func Encode(t *Tree) ([]byte, error) {
	if t.Root() < 0 {
		return nil, ErrEmptyTree
	}

	var (
		buf     = make([]byte, 0, t.Size())
		scratch [4]byte
		err     error
	)
	t.Walk(func(_, _ int, n *Node) bool {
		if err != nil {
			return false
		}
		if strings.IndexByte(n.Name, 0) >= 0 {
			err = fmt.Errorf("%w: %q", ErrNameNUL, n.Name)
			return false
		}
		buf = append(buf, n.Name...)
		buf = append(buf, 0)
		binary.LittleEndian.PutUint32(scratch[:], uint32(len(n.Children)))
		buf = append(buf, scratch[:]...)
		return true
	})
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Decode deserializes a tree produced by Encode into a new Tree. A single
// cursor advances across the whole input; the input must be consumed
// exactly.
func Decode(data []byte) (*Tree, error) {
	d := decoder{data: data}
	t := &Tree{}

	rootName, rootCount, err := d.node()
	if err != nil {
		return nil, err
	}
	t.Nodes = append(t.Nodes, Node{Name: rootName})

	type frame struct {
		idx       int
		remaining uint32
	}
	stack := []frame{{idx: 0, remaining: rootCount}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.remaining == 0 {
			stack = stack[:len(stack)-1]
			continue
		}
		top.remaining--
		parent := top.idx

		name, count, err := d.node()
		if err != nil {
			return nil, err
		}
		idx := t.Add(parent, name)
		stack = append(stack, frame{idx: idx, remaining: count})
	}

	if d.off != len(d.data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(d.data)-d.off)
	}
	return t, nil
}

type decoder struct {
	data []byte
	off  int
}

// node pops a node header: its name and child count.
func (d *decoder) node() (name string, count uint32, err error) {
	buf := d.data[d.off:]
	nul := bytes.IndexByte(buf, 0)
	if nul < 0 {
		return "", 0, fmt.Errorf("%w: unterminated name at offset %d", ErrCorrupt, d.off)
	}
	if len(buf) < nul+minNodeSize {
		return "", 0, fmt.Errorf("%w: truncated child count at offset %d", ErrCorrupt, d.off+nul+1)
	}
	name = string(buf[:nul])
	count = binary.LittleEndian.Uint32(buf[nul+1:])
	d.off += nul + minNodeSize

	// Every child needs at least minNodeSize bytes; reject counts that can't
	// possibly fit before allocating for them.
	if uint64(count)*minNodeSize > uint64(len(d.data)-d.off) {
		return "", 0, fmt.Errorf("%w: node %q claims %d children with %d bytes left", ErrCorrupt, name, count, len(d.data)-d.off)
	}
	return name, count, nil
}
