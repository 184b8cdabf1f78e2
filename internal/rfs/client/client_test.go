package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/rand"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-kit/log"
	"github.com/rfratto/rpcfs/internal/rfs"
	"github.com/rfratto/rpcfs/internal/rfs/server"
	"github.com/rfratto/rpcfs/internal/rfs/wire"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

// testServer starts an in-process server and returns its address.
func testServer(t *testing.T) string {
	t.Helper()

	srv, err := server.New(log.NewNopLogger(), server.Options{ListenAddr: "tcp://127.0.0.1:0"})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	return srv.Addr().String()
}

func dial(t *testing.T, addr string) *Conn {
	t.Helper()
	c, err := Dial(context.Background(), log.NewNopLogger(), addr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Shutdown() })
	return c
}

func TestConn_Scenario(t *testing.T) {
	c := dial(t, testServer(t))
	path := filepath.Join(t.TempDir(), "file")

	fd, err := c.Open(path, unix.O_CREAT|unix.O_RDWR, 0644)
	require.NoError(t, err)

	n, err := c.Write(fd, []byte("hello"))
	require.NoError(t, err)
	require.Equal(t, 5, n)

	off, err := c.Lseek(fd, 0, io.SeekStart)
	require.NoError(t, err)
	require.Equal(t, int64(0), off)

	buf := make([]byte, 5)
	n, err = c.Read(fd, buf)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "hello", string(buf))

	require.NoError(t, c.Close(fd))
	require.ErrorIs(t, c.Close(fd), rfs.EBADF)
}

func TestConn_ChunkedTransfer(t *testing.T) {
	c := dial(t, testServer(t))
	path := filepath.Join(t.TempDir(), "big")

	data := make([]byte, 3*rfs.MaxFrameSize+17)
	rand.New(rand.NewSource(1)).Read(data)

	fd, err := c.Open(path, unix.O_CREAT|unix.O_RDWR, 0644)
	require.NoError(t, err)

	before := c.Calls()
	n, err := c.Write(fd, data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, uint64(4), c.Calls()-before, "write should take ceil(len/WriteChunkSize) round trips")

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.Equal(data, onDisk))

	_, err = c.Lseek(fd, 0, io.SeekStart)
	require.NoError(t, err)

	// Ask for more than the file holds; the final short chunk ends the read.
	out := make([]byte, len(data)+100)
	n, err = c.Read(fd, out)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.True(t, bytes.Equal(data, out[:n]))

	// Reading at EOF returns 0.
	n, err = c.Read(fd, out)
	require.NoError(t, err)
	require.Equal(t, 0, n)

	require.NoError(t, c.Close(fd))
}

func TestConn_ZeroLength(t *testing.T) {
	c := dial(t, testServer(t))

	before := c.Calls()
	n, err := c.Read(12345, nil)
	require.NoError(t, err)
	require.Equal(t, 0, n)

	n, err = c.Write(12345, []byte{})
	require.NoError(t, err)
	require.Equal(t, 0, n)
	require.Equal(t, before, c.Calls(), "zero-length transfers must not reach the server")
}

func TestConn_Stat(t *testing.T) {
	c := dial(t, testServer(t))
	dir := t.TempDir()

	var st rfs.Stat
	err := c.Stat(filepath.Join(dir, "missing"), &st)
	require.ErrorIs(t, err, rfs.ENOENT)
	require.True(t, errors.Is(err, fs.ErrNotExist))

	path := filepath.Join(dir, "present")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0600))
	require.NoError(t, c.Stat(path, &st))
	require.Equal(t, int64(3), st.Size)
	require.Equal(t, uint32(0600), st.Mode&0777)

	require.NoError(t, c.Unlink(path))
	require.ErrorIs(t, c.Unlink(path), rfs.ENOENT)
}

func TestConn_PathTooLong(t *testing.T) {
	c := dial(t, testServer(t))

	long := "/" + strings.Repeat("x", rfs.MaxFrameSize)
	before := c.Calls()

	_, err := c.Open(long, unix.O_RDONLY, 0)
	require.ErrorIs(t, err, rfs.ENAMETOOLONG)
	require.ErrorIs(t, c.Stat(long, nil), rfs.ENAMETOOLONG)
	require.ErrorIs(t, c.Unlink(long), rfs.ENAMETOOLONG)
	_, err = c.GetDirTree(long)
	require.ErrorIs(t, err, rfs.ENAMETOOLONG)
	require.Equal(t, before, c.Calls())

	// The session is unaffected.
	require.NoError(t, c.Stat(t.TempDir(), nil))
}

func TestConn_DistinctDescriptors(t *testing.T) {
	c := dial(t, testServer(t))
	dir := t.TempDir()

	seen := map[int]bool{}
	for i := 0; i < 8; i++ {
		fd, err := c.Open(filepath.Join(dir, fmt.Sprintf("f%d", i)), unix.O_CREAT|unix.O_WRONLY, 0644)
		require.NoError(t, err)
		require.False(t, seen[fd], "descriptor %d handed out twice", fd)
		seen[fd] = true
	}
}

func TestConn_SessionIsolation(t *testing.T) {
	addr := testServer(t)
	dir := t.TempDir()

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		i := i
		g.Go(func() error {
			c, err := Dial(context.Background(), nil, addr)
			if err != nil {
				return err
			}
			defer c.Shutdown()

			path := filepath.Join(dir, fmt.Sprintf("session-%d", i))
			fd, err := c.Open(path, unix.O_CREAT|unix.O_RDWR, 0644)
			if err != nil {
				return err
			}

			payload := bytes.Repeat([]byte{byte('a' + i)}, rfs.MaxFrameSize*2)
			if _, err := c.Write(fd, payload); err != nil {
				return err
			}
			if _, err := c.Lseek(fd, 0, io.SeekStart); err != nil {
				return err
			}
			got := make([]byte, len(payload))
			n, err := c.Read(fd, got)
			if err != nil {
				return err
			}
			if !bytes.Equal(payload, got[:n]) {
				return fmt.Errorf("session %d read back foreign data", i)
			}
			return c.Close(fd)
		})
	}
	require.NoError(t, g.Wait())
}

func TestConn_GetDirTree(t *testing.T) {
	c := dial(t, testServer(t))

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f"), nil, 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "s"), 0755))

	tree, err := c.GetDirTree(dir)
	require.NoError(t, err)

	root := tree.Nodes[tree.Root()]
	require.Equal(t, dir, root.Name)
	require.Len(t, root.Children, 2)

	f, s := tree.Nodes[root.Children[0]], tree.Nodes[root.Children[1]]
	require.Equal(t, "f", f.Name)
	require.Empty(t, f.Children)
	require.Equal(t, "s", s.Name)
	require.Empty(t, s.Children)

	_, err = c.GetDirTree(filepath.Join(dir, "missing"))
	require.ErrorIs(t, err, rfs.ENOENT)
}

func TestConn_Getdirentries(t *testing.T) {
	c := dial(t, testServer(t))

	dir := t.TempDir()
	for i := 0; i < 50; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("entry-%02d", i)), nil, 0644))
	}

	fd, err := c.Open(dir, unix.O_RDONLY|unix.O_DIRECTORY, 0)
	require.NoError(t, err)
	defer c.Close(fd)

	var (
		base  int64
		total int
		buf   = make([]byte, 2*rfs.MaxFrameSize) // clamped to one frame
	)
	for {
		n, err := c.Getdirentries(fd, buf, &base)
		require.NoError(t, err)
		require.LessOrEqual(t, n, rfs.MaxFrameSize)
		if n == 0 {
			break
		}
		total += n
	}
	require.Equal(t, int64(total), base)
	require.Greater(t, total, 0)

	_, err = c.Getdirentries(99999, buf, nil)
	require.ErrorIs(t, err, rfs.EBADF)
}

// fakeServer serves scripted responses over one end of a pipe.
func fakeServer(t *testing.T, respond func(req rfs.Request) rfs.Response) *Conn {
	t.Helper()

	cliConn, srvConn := net.Pipe()
	go func() {
		defer srvConn.Close()
		for {
			req, err := wire.ReadRequest(srvConn)
			if err != nil {
				return
			}
			resp := respond(req)
			if resp == nil {
				return
			}
			if err := wire.WriteResponse(srvConn, resp); err != nil {
				return
			}
		}
	}()

	c := NewConn(nil, cliConn)
	t.Cleanup(func() { _ = c.Shutdown() })
	return c
}

func TestConn_ReadChunkFailureDiscardsProgress(t *testing.T) {
	var calls int
	c := fakeServer(t, func(req rfs.Request) rfs.Response {
		calls++
		r := req.(*rfs.ReadRequest)
		if calls == 2 {
			return rfs.FailedResponse(r, rfs.EIO)
		}
		return &rfs.ReadResponse{N: int32(r.Count), Data: make([]byte, r.Count)}
	})

	n, err := c.Read(3, make([]byte, rfs.ReadChunkSize*3))
	require.ErrorIs(t, err, rfs.EIO)
	require.Equal(t, 0, n)
	require.Equal(t, 2, calls)
}

func TestConn_WriteShortChunk(t *testing.T) {
	var received []byte
	c := fakeServer(t, func(req rfs.Request) rfs.Response {
		r := req.(*rfs.WriteRequest)
		// Accept at most 1000 bytes per request.
		n := len(r.Data)
		if n > 1000 {
			n = 1000
		}
		received = append(received, r.Data[:n]...)
		return &rfs.WriteResponse{N: int32(n)}
	})

	data := make([]byte, 2500)
	rand.New(rand.NewSource(2)).Read(data)

	n, err := c.Write(3, data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, data, received)
	require.Equal(t, uint64(3), c.Calls())
}

func TestConn_WriteNoProgress(t *testing.T) {
	c := fakeServer(t, func(req rfs.Request) rfs.Response {
		return &rfs.WriteResponse{N: 0}
	})

	n, err := c.Write(3, []byte("data"))
	require.ErrorIs(t, err, io.ErrShortWrite)
	require.Equal(t, 0, n)
}

func TestConn_Broken(t *testing.T) {
	c := fakeServer(t, func(req rfs.Request) rfs.Response {
		// Hang up instead of responding.
		return nil
	})

	_, err := c.Lseek(3, 0, io.SeekStart)
	require.True(t, errors.Is(err, ErrBroken), "got %v", err)

	// Later calls fail without touching the transport.
	before := c.Calls()
	err = c.Close(3)
	require.True(t, errors.Is(err, ErrBroken))
	require.Equal(t, before, c.Calls())
}

func TestDial_URL(t *testing.T) {
	addr := testServer(t)

	c, err := Dial(context.Background(), nil, "tcp://"+addr)
	require.NoError(t, err)
	require.NoError(t, c.Stat(t.TempDir(), nil))
	require.NoError(t, c.Shutdown())

	_, err = c.Lseek(0, 0, 0)
	require.ErrorIs(t, err, ErrBroken)
}
