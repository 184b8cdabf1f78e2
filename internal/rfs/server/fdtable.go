package server

import (
	"fmt"
	"sort"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/rfratto/rpcfs/internal/rfs"
)

// fdTable tracks the real descriptors opened by a single session. A session
// may only operate on descriptors it opened itself; anything else is
// reported as EBADF, even if the descriptor is open in the server process.
type fdTable struct {
	mut sync.RWMutex
	fds map[int32]string // fd -> path it was opened with
}

func newFDTable() *fdTable {
	return &fdTable{fds: make(map[int32]string)}
}

// Add records that fd was opened for path.
func (t *fdTable) Add(fd int32, path string) {
	t.mut.Lock()
	defer t.mut.Unlock()
	t.fds[fd] = path
}

// Check returns EBADF if fd isn't owned by the session.
func (t *fdTable) Check(fd int32) error {
	t.mut.RLock()
	defer t.mut.RUnlock()
	if _, ok := t.fds[fd]; !ok {
		return fmt.Errorf("descriptor %d not owned by session: %w", fd, rfs.EBADF)
	}
	return nil
}

// Remove forgets fd. It returns EBADF if fd wasn't owned by the session.
func (t *fdTable) Remove(fd int32) error {
	t.mut.Lock()
	defer t.mut.Unlock()
	if _, ok := t.fds[fd]; !ok {
		return fmt.Errorf("descriptor %d not owned by session: %w", fd, rfs.EBADF)
	}
	delete(t.fds, fd)
	return nil
}

// Len returns the number of descriptors owned by the session.
func (t *fdTable) Len() int {
	t.mut.RLock()
	defer t.mut.RUnlock()
	return len(t.fds)
}

// CloseAll calls closeFn for every owned descriptor in ascending order and
// empties the table. Errors are aggregated.
func (t *fdTable) CloseAll(closeFn func(fd int) error) error {
	t.mut.Lock()
	defer t.mut.Unlock()

	fds := make([]int, 0, len(t.fds))
	for fd := range t.fds {
		fds = append(fds, int(fd))
	}
	sort.Ints(fds)

	var errs *multierror.Error
	for _, fd := range fds {
		if err := closeFn(fd); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("closing %d (%s): %w", fd, t.fds[int32(fd)], err))
		}
		delete(t.fds, int32(fd))
	}
	return errs.ErrorOrNil()
}
