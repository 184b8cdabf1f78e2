package server

import (
	"errors"
	"testing"

	"github.com/rfratto/rpcfs/internal/rfs"
	"github.com/stretchr/testify/require"
)

func TestFDTable(t *testing.T) {
	tbl := newFDTable()
	require.ErrorIs(t, tbl.Check(3), rfs.EBADF)

	tbl.Add(3, "/a")
	tbl.Add(5, "/b")
	require.NoError(t, tbl.Check(3))
	require.Equal(t, 2, tbl.Len())

	require.NoError(t, tbl.Remove(3))
	require.ErrorIs(t, tbl.Remove(3), rfs.EBADF)
	require.ErrorIs(t, tbl.Check(3), rfs.EBADF)
}

func TestFDTable_CloseAll(t *testing.T) {
	tbl := newFDTable()
	tbl.Add(7, "/a")
	tbl.Add(4, "/b")
	tbl.Add(9, "/c")

	var closed []int
	err := tbl.CloseAll(func(fd int) error {
		closed = append(closed, fd)
		if fd == 7 {
			return errors.New("boom")
		}
		return nil
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "closing 7 (/a)")
	require.Equal(t, []int{4, 7, 9}, closed)
	require.Equal(t, 0, tbl.Len())

	require.NoError(t, tbl.CloseAll(func(int) error { return nil }))
}
