package hostfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestStat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0640))

	st, err := Stat(path)
	require.NoError(t, err)
	require.Equal(t, int64(5), st.Size)
	require.Equal(t, uint32(0640), st.Mode&0777)
	require.False(t, st.IsDir())

	fi, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, fi.ModTime().Unix(), st.Mtim.Sec)

	dirSt, err := Stat(filepath.Dir(path))
	require.NoError(t, err)
	require.True(t, dirSt.IsDir())

	_, err = Stat(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, unix.ENOENT)
}

func TestGetdirentries(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}

	fd, err := Open(dir, unix.O_RDONLY|unix.O_DIRECTORY, 0)
	require.NoError(t, err)
	defer Close(fd)

	var (
		base  int64
		total int
		buf   = make([]byte, 4096)
	)
	for {
		n, err := Getdirentries(fd, buf, &base)
		require.NoError(t, err)
		if n == 0 {
			break
		}
		total += n
	}
	require.Greater(t, total, 0)

	_, err = Getdirentries(-1, buf, &base)
	require.ErrorIs(t, err, unix.EBADF)
}

func TestReadWriteSeek(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rw")
	fd, err := Open(path, unix.O_CREAT|unix.O_RDWR, 0644)
	require.NoError(t, err)

	n, err := Write(fd, []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)

	off, err := Lseek(fd, 1, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), off)

	buf := make([]byte, 8)
	n, err = Read(fd, buf)
	require.NoError(t, err)
	require.Equal(t, "ello", string(buf[:n]))

	require.NoError(t, Close(fd))
	require.NoError(t, Unlink(path))
	require.ErrorIs(t, Unlink(path), unix.ENOENT)
}
