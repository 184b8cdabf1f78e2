// Package server implements the rfs server. A Server accepts connections and
// runs one session per connection; each session reads requests, executes
// them against its own Handler and writes back responses.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/hashicorp/go-multierror"
	"github.com/mitchellh/go-homedir"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
)

// Options configures a Server.
type Options struct {
	// ListenAddr is the address to accept connections on, in the form
	// tcp://host:port or unix://path. A leading ~ in a unix path is expanded
	// to the home directory.
	ListenAddr string

	// MaxSessions is the maximum number of sessions served at once. Additional
	// connections wait to be accepted. If MaxSessions is <= 0, it will obtain
	// its default from DefaultOptions.
	MaxSessions int

	// Root is used to resolve relative paths when NewHandler is nil.
	Root string

	// NewHandler creates the Handler for a new session. Defaults to a
	// Passthrough handler rooted at Root.
	NewHandler func(l log.Logger) Handler

	// Optional middleware to preprocess requests with.
	Middleware []Middleware

	// Registerer to register server metrics against. May be nil.
	Registerer prometheus.Registerer
}

// DefaultOptions provides defaults for Server.
var DefaultOptions = Options{
	ListenAddr:  "tcp://0.0.0.0:15440",
	MaxSessions: 256,
}

// Server accepts connections and serves a session for each.
type Server struct {
	log log.Logger
	o   Options
	lis net.Listener
	mw  Middleware

	active         atomic.Int64
	sessionsActive prometheus.Gauge

	connsMut sync.Mutex
	conns    map[net.Conn]struct{}
	closed   atomic.Bool
}

// New creates a new Server and starts listening on o.ListenAddr. Call Serve
// to start accepting connections.
func New(l log.Logger, o Options) (*Server, error) {
	if l == nil {
		l = log.NewNopLogger()
	}
	if o.ListenAddr == "" {
		o.ListenAddr = DefaultOptions.ListenAddr
	}
	if o.MaxSessions <= 0 {
		o.MaxSessions = DefaultOptions.MaxSessions
	}
	if o.NewHandler == nil {
		root := o.Root
		o.NewHandler = func(l log.Logger) Handler { return Passthrough(l, root) }
	}

	lis, err := Listen(o.ListenAddr)
	if err != nil {
		return nil, err
	}

	s := &Server{
		log: l,
		o:   o,
		lis: lis,
		mw:  chainMiddleware(o.Middleware),

		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rfs_server_sessions_active",
			Help: "Number of sessions currently being served.",
		}),
		conns: make(map[net.Conn]struct{}),
	}
	if o.Registerer != nil {
		if err := o.Registerer.Register(s.sessionsActive); err != nil {
			_ = lis.Close()
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
	}
	return s, nil
}

// Listen opens a listener for a tcp:// or unix:// URL.
func Listen(addr string) (net.Listener, error) {
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("cannot parse listen addr %q as url: %w", addr, err)
	}
	switch u.Scheme {
	case "tcp", "tcp4", "tcp6", "unix":
	default:
		return nil, fmt.Errorf("unsupported listen addr scheme %q", u.Scheme)
	}

	address, err := homedir.Expand(u.Host + u.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid listen addr: %w", err)
	}

	lis, err := net.Listen(u.Scheme, address)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s listener %s: %w", u.Scheme, address, err)
	}
	return lis, nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() net.Addr { return s.lis.Addr() }

// ActiveSessions returns the number of sessions currently being served.
func (s *Server) ActiveSessions() int64 { return s.active.Load() }

// Serve accepts connections until ctx is canceled or Close is called. Every
// open session is torn down before Serve returns.
//
// Serve should not be called again after it has exited.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	var (
		sessions sync.WaitGroup
		exited   = make(chan struct{})
	)
	defer func() {
		cancel()
		<-exited
		sessions.Wait()
	}()

	// Closing the listener and connections is the only way to interrupt
	// blocking reads, so do it from a dedicated goroutine once ctx is done.
	go func() {
		defer close(exited)
		<-ctx.Done()

		level.Info(s.log).Log("msg", "rfs server exiting")
		if err := s.shutdown(); err != nil {
			level.Error(s.log).Log("msg", "error during shutdown", "err", err)
		}
	}()

	level.Info(s.log).Log("msg", "rfs server listening", "addr", s.lis.Addr())

	slots := make(chan struct{}, s.o.MaxSessions)
	var tempDelay time.Duration

	for {
		select {
		case slots <- struct{}{}:
		case <-ctx.Done():
			return nil
		}

		conn, err := s.lis.Accept()
		if err != nil {
			<-slots
			if ctx.Err() != nil || s.closed.Load() {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Temporary() {
				if tempDelay == 0 {
					tempDelay = 5 * time.Millisecond
				} else if tempDelay *= 2; tempDelay > time.Second {
					tempDelay = time.Second
				}
				level.Warn(s.log).Log("msg", "accept error; retrying", "err", err, "delay", tempDelay)
				time.Sleep(tempDelay)
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}
		tempDelay = 0

		if !s.trackConn(conn, true) {
			_ = conn.Close()
			<-slots
			return nil
		}

		sess := newSession(s.log, conn, s.o.NewHandler(s.log), s.mw)
		sessions.Add(1)
		s.active.Inc()
		s.sessionsActive.Inc()

		go func() {
			defer sessions.Done()
			defer func() { <-slots }()
			defer s.sessionsActive.Dec()
			defer s.active.Dec()
			defer s.trackConn(conn, false)

			if err := sess.Serve(ctx); err != nil {
				level.Warn(sess.log).Log("msg", "session exited with error", "err", err)
			}
		}()
	}
}

// trackConn adds or removes conn from the set of open connections. Adding
// fails once the server is closed.
func (s *Server) trackConn(conn net.Conn, add bool) bool {
	s.connsMut.Lock()
	defer s.connsMut.Unlock()

	if !add {
		delete(s.conns, conn)
		return true
	}
	if s.closed.Load() {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

// Close stops the listener and closes all open connections. Serve returns
// once every session has been torn down.
func (s *Server) Close() error {
	return s.shutdown()
}

func (s *Server) shutdown() error {
	s.connsMut.Lock()
	defer s.connsMut.Unlock()

	if !s.closed.CAS(false, true) {
		return nil
	}

	var errs *multierror.Error
	if err := s.lis.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		errs = multierror.Append(errs, fmt.Errorf("closing listener: %w", err))
	}
	for conn := range s.conns {
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}
