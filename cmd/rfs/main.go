// Command rfs runs file operations against an rfs server. The server is
// located with RFS_SERVER and RFS_SERVERPORT unless -server is given.
//
// Usage:
//
//	rfs [flags] cat PATH
//	rfs [flags] put LOCAL REMOTE
//	rfs [flags] rm PATH
//	rfs [flags] stat PATH
//	rfs [flags] ls PATH
//	rfs [flags] tree PATH
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/rfratto/rpcfs/internal/cmdutil"
	"github.com/rfratto/rpcfs/internal/rfs"
	"github.com/rfratto/rpcfs/internal/rfs/client"
	"github.com/rfratto/rpcfs/internal/rfs/dirtree"
	"github.com/rfratto/rpcfs/internal/rfs/stub"
	"golang.org/x/sys/unix"
)

type command struct {
	args int
	run  func(s *stub.Stub, args []string) error
}

var commands = map[string]command{
	"cat":  {1, runCat},
	"put":  {2, runPut},
	"rm":   {1, runRm},
	"stat": {1, runStat},
	"ls":   {1, runLs},
	"tree": {1, runTree},
}

func main() {
	var (
		ll         cmdutil.LogLevel
		serverAddr = cmdutil.ServerAddr()
		timeout    = 10 * time.Second
	)
	_ = ll.Set("warn")

	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	fs.Var(&ll, "log.level", "Level to display logs at")
	fs.StringVar(&serverAddr, "server", serverAddr, "rfs server to connect to, host:port or a tcp:// or unix:// URL")
	fs.DurationVar(&timeout, "dial-timeout", timeout, "Timeout for connecting to the server")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: %s [flags] cat|put|rm|stat|ls|tree ARGS...\n", os.Args[0])
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error parsing flags: %s", err.Error())
		os.Exit(1)
	}

	args := fs.Args()
	if len(args) == 0 {
		fs.Usage()
		os.Exit(2)
	}
	cmd, ok := commands[args[0]]
	if !ok || len(args)-1 != cmd.args {
		fs.Usage()
		os.Exit(2)
	}

	l := cmdutil.NewLogger(os.Stderr, ll)
	if err := run(l, serverAddr, timeout, cmd, args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", args[0], err)
		os.Exit(1)
	}
}

func run(l log.Logger, addr string, timeout time.Duration, cmd command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	conn, err := client.Dial(ctx, l, addr)
	if err != nil {
		return err
	}
	s := stub.New(conn, nil)
	defer func() {
		if err := s.Shutdown(); err != nil {
			level.Warn(l).Log("msg", "failed to shut down session", "err", err)
		}
		level.Debug(l).Log("msg", "session finished", "calls", conn.Calls())
	}()

	return cmd.run(s, args)
}

// remoteFile adapts a remote handle to io.Reader and io.Writer.
type remoteFile struct {
	s *stub.Stub
	h stub.Handle
}

func (f remoteFile) Read(p []byte) (int, error) {
	n, err := f.s.Read(f.h, p)
	if err == nil && n == 0 && len(p) > 0 {
		return 0, io.EOF
	}
	return n, err
}

func (f remoteFile) Write(p []byte) (int, error) { return f.s.Write(f.h, p) }

func runCat(s *stub.Stub, args []string) error {
	h, err := s.Open(args[0], unix.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer s.Close(h)

	_, err = io.Copy(os.Stdout, remoteFile{s: s, h: h})
	return err
}

func runPut(s *stub.Stub, args []string) error {
	src, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer src.Close()

	h, err := s.Open(args[1], unix.O_WRONLY|unix.O_CREAT|unix.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(remoteFile{s: s, h: h}, src); err != nil {
		_ = s.Close(h)
		return err
	}
	return s.Close(h)
}

func runRm(s *stub.Stub, args []string) error {
	return s.Unlink(args[0])
}

func runStat(s *stub.Stub, args []string) error {
	var st rfs.Stat
	if err := s.Stat(args[0], &st); err != nil {
		return err
	}
	fmt.Printf("  File: %s\n", args[0])
	fmt.Printf("  Size: %d\tBlocks: %d\tIO Block: %d\n", st.Size, st.Blocks, st.Blksize)
	fmt.Printf("Device: %d\tInode: %d\tLinks: %d\n", st.Dev, st.Ino, st.Nlink)
	fmt.Printf("Access: (%#o)\tUid: %d\tGid: %d\n", st.Mode, st.UID, st.GID)
	fmt.Printf("Modify: %s\n", time.Unix(st.Mtim.Sec, st.Mtim.Nsec).Format(time.RFC3339Nano))
	return nil
}

func runLs(s *stub.Stub, args []string) error {
	h, err := s.Open(args[0], unix.O_RDONLY|unix.O_DIRECTORY, 0)
	if err != nil {
		return err
	}
	defer s.Close(h)

	var (
		buf  = make([]byte, rfs.MaxFrameSize)
		base int64
	)
	for {
		n, err := s.Getdirentries(h, buf, &base)
		if err != nil {
			return err
		} else if n == 0 {
			return nil
		}

		_, _, names := unix.ParseDirent(buf[:n], -1, nil)
		for _, name := range names {
			fmt.Println(name)
		}
	}
}

func runTree(s *stub.Stub, args []string) error {
	t, err := s.GetDirTree(args[0])
	if err != nil {
		return err
	}
	defer s.FreeDirTree(t)

	t.Walk(func(_, depth int, n *dirtree.Node) bool {
		fmt.Printf("%s%s\n", strings.Repeat("  ", depth), n.Name)
		return true
	})
	return nil
}
