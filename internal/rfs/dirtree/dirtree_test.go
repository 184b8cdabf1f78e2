package dirtree

import (
	"encoding/binary"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func randomTree(r *rand.Rand, maxNodes int) *Tree {
	t := New(randomName(r))
	n := r.Intn(maxNodes)
	for i := 0; i < n; i++ {
		parent := r.Intn(t.Len())
		t.Add(parent, randomName(r))
	}
	return t
}

func randomName(r *rand.Rand) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789._- "
	b := make([]byte, r.Intn(12))
	for i := range b {
		b[i] = alphabet[r.Intn(len(alphabet))]
	}
	return string(b)
}

// shape returns the nested structure of t so trees that differ only in arena
// order compare equal.
type shape struct {
	Name     string
	Children []shape
}

func shapeOf(t *Tree, idx int) shape {
	n := t.Nodes[idx]
	s := shape{Name: n.Name}
	for _, c := range n.Children {
		s.Children = append(s.Children, shapeOf(t, c))
	}
	return s
}

func TestRoundTrip_Random(t *testing.T) {
	r := rand.New(rand.NewSource(15440))

	for i := 0; i < 200; i++ {
		in := randomTree(r, 64)

		data, err := Encode(in)
		require.NoError(t, err)
		require.Len(t, data, in.Size())

		out, err := Decode(data)
		require.NoError(t, err)
		if diff := cmp.Diff(shapeOf(in, 0), shapeOf(out, 0)); diff != "" {
			t.Fatalf("tree %d mismatch (-in +out):\n%s", i, diff)
		}
	}
}

func TestRoundTrip_Deep(t *testing.T) {
	// Deep trees must not depend on the call stack.
	in := New("root")
	parent := 0
	for i := 0; i < 100000; i++ {
		parent = in.Add(parent, "d")
	}

	data, err := Encode(in)
	require.NoError(t, err)
	out, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, in.Len(), out.Len())
}

func TestEncode_Layout(t *testing.T) {
	tree := New("d")
	tree.Add(0, "f")
	sub := tree.Add(0, "s")
	tree.Add(sub, "x")

	data, err := Encode(tree)
	require.NoError(t, err)

	expect := []byte{
		'd', 0, 2, 0, 0, 0,
		'f', 0, 0, 0, 0, 0,
		's', 0, 1, 0, 0, 0,
		'x', 0, 0, 0, 0, 0,
	}
	require.Equal(t, expect, data)
}

func TestEncode_Errors(t *testing.T) {
	_, err := Encode(&Tree{})
	require.True(t, errors.Is(err, ErrEmptyTree))

	bad := New("a")
	bad.Add(0, "b\x00c")
	_, err = Encode(bad)
	require.True(t, errors.Is(err, ErrNameNUL))
}

func TestDecode_Errors(t *testing.T) {
	count := func(n uint32) []byte {
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, n)
		return b
	}

	tt := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"missing NUL", []byte("abc")},
		{"truncated count", []byte{'a', 0, 1, 0}},
		{"missing child", append([]byte{'a', 0}, count(1)...)},
		{"impossible child count", append([]byte{'a', 0}, count(1<<31)...)},
		{"trailing bytes", append(append([]byte{'a', 0}, count(0)...), 'x')},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.data)
			require.True(t, errors.Is(err, ErrCorrupt), "got %v", err)
		})
	}
}

func TestWalk(t *testing.T) {
	tree := New("r")
	a := tree.Add(0, "a")
	tree.Add(a, "a1")
	tree.Add(0, "b")

	var visited []string
	tree.Walk(func(_, depth int, n *Node) bool {
		visited = append(visited, strings.Repeat(" ", depth)+n.Name)
		return true
	})
	require.Equal(t, []string{"r", " a", "  a1", " b"}, visited)

	visited = nil
	tree.Walk(func(_, depth int, n *Node) bool {
		visited = append(visited, n.Name)
		return n.Name != "a"
	})
	require.Equal(t, []string{"r", "a", "b"}, visited)
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "s"), 0755))

	tree, err := Build(dir)
	require.NoError(t, err)

	expect := shape{
		Name:     dir,
		Children: []shape{{Name: "f"}, {Name: "s"}},
	}
	require.Empty(t, cmp.Diff(expect, shapeOf(tree, 0)))
}

func TestBuild_Nested(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "b", "c"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b", "c", "file"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a"), nil, 0644))

	// Symlinks to directories are leaves.
	require.NoError(t, os.Symlink(filepath.Join(dir, "b"), filepath.Join(dir, "link")))

	tree, err := Build(dir)
	require.NoError(t, err)

	expect := shape{
		Name: dir,
		Children: []shape{
			{Name: "a"},
			{Name: "b", Children: []shape{
				{Name: "c", Children: []shape{{Name: "file"}}},
			}},
			{Name: "link"},
		},
	}
	require.Empty(t, cmp.Diff(expect, shapeOf(tree, 0)))
}

func TestBuild_Missing(t *testing.T) {
	_, err := Build(filepath.Join(t.TempDir(), "missing"))
	require.True(t, os.IsNotExist(err))
}
