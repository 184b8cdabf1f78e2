package dirtree

import (
	"os"
	"path/filepath"
)

// Build creates a tree from the directory at path. The root is named path as
// given; every other node is named by its base name. Entries are sorted by
// name. Subdirectories are descended into, but symbolic links are never
// followed. A subdirectory that can't be read is kept as a leaf.
func Build(path string) (*Tree, error) {
	ents, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	t := New(path)

	type pending struct {
		idx  int
		path string
		ents []os.DirEntry
	}
	queue := []pending{{idx: 0, path: path, ents: ents}}

	for len(queue) > 0 {
		p := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		for _, ent := range p.ents {
			idx := t.Add(p.idx, ent.Name())
			if !ent.IsDir() {
				continue
			}
			childPath := filepath.Join(p.path, ent.Name())
			childEnts, err := os.ReadDir(childPath)
			if err != nil {
				continue
			}
			queue = append(queue, pending{idx: idx, path: childPath, ents: childEnts})
		}
	}

	return t, nil
}
