// Package dirtree implements recursive directory trees and their serialized
// form.
//
// A Tree is stored as an arena: nodes refer to their children by index into
// Tree.Nodes, and the root is always index 0. Trees serialize in pre-order,
// each node as its name followed by a NUL byte, a little-endian uint32 child
// count, and then each of its children.
package dirtree

// Node is a single entry in a Tree.
type Node struct {
	Name     string
	Children []int // Indices into Tree.Nodes, in order.
}

// Tree is a directory tree. The zero value is an empty tree with no root.
type Tree struct {
	Nodes []Node
}

// New creates a tree with a root node named name.
func New(name string) *Tree {
	return &Tree{Nodes: []Node{{Name: name}}}
}

// Root returns the index of the root node, or -1 if t is empty.
func (t *Tree) Root() int {
	if t == nil || len(t.Nodes) == 0 {
		return -1
	}
	return 0
}

// Add appends a new child named name to parent and returns its index.
func (t *Tree) Add(parent int, name string) int {
	idx := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{Name: name})
	t.Nodes[parent].Children = append(t.Nodes[parent].Children, idx)
	return idx
}

// Len returns the number of nodes in t.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Nodes)
}

// WalkFunc is invoked for each node visited by Walk. depth is 0 for the
// root. Returning false skips the node's children.
type WalkFunc func(idx, depth int, n *Node) bool

// Walk visits every node of t in pre-order.
func (t *Tree) Walk(fn WalkFunc) {
	if t.Root() < 0 {
		return
	}

	type frame struct{ idx, depth int }
	stack := []frame{{idx: 0}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := &t.Nodes[f.idx]
		if !fn(f.idx, f.depth, n) {
			continue
		}
		// Push children in reverse so they pop in order.
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{idx: n.Children[i], depth: f.depth + 1})
		}
	}
}
