// Command rfsd serves files from the local host to rfs clients.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "net/http/pprof" // anonymous import to get the pprof handler registered

	"github.com/go-kit/log/level"
	"github.com/gorilla/mux"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rfratto/rpcfs/internal/cmdutil"
	"github.com/rfratto/rpcfs/internal/rfs/server"
)

func main() {
	var (
		o  = server.DefaultOptions
		ll cmdutil.LogLevel

		httpAddr    = "0.0.0.0:8080"
		logRequests = cmdutil.EnvBool("RFSD_LOG_REQUESTS")
	)
	o.ListenAddr = cmdutil.ListenAddr()

	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	fs.Var(&ll, "log.level", "Level to display logs at")

	fs.StringVar(&o.ListenAddr, "listen.addr", o.ListenAddr, "tcp:// or unix:// address to serve rfs sessions on")
	fs.StringVar(&o.Root, "root", o.Root, "Directory to resolve relative paths against")
	fs.IntVar(&o.MaxSessions, "max-sessions", o.MaxSessions, "Maximum number of concurrent sessions")
	fs.StringVar(&httpAddr, "http.listen-addr", httpAddr, "listen address for the metrics and pprof HTTP server")
	fs.BoolVar(&logRequests, "log.requests", logRequests, "Log every request at debug level")

	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error parsing flags: %s", err.Error())
		os.Exit(1)
	}

	l := cmdutil.NewLogger(os.Stdout, ll)

	o.Registerer = prometheus.DefaultRegisterer
	if logRequests {
		o.Middleware = append(o.Middleware, server.NewLoggingMiddleware(l))
	}
	metrics, err := server.NewMetricsMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		level.Error(l).Log("msg", "failed to create metrics middleware", "err", err)
		os.Exit(1)
	}
	o.Middleware = append(o.Middleware, metrics)

	var group run.Group

	// Information server worker
	{
		lis, err := net.Listen("tcp", httpAddr)
		if err != nil {
			level.Error(l).Log("msg", "failed to create listener for HTTP server", "err", err)
			os.Exit(1)
		}

		r := mux.NewRouter()
		r.Handle("/metrics", promhttp.Handler())
		r.PathPrefix("/debug/pprof").Handler(http.DefaultServeMux)
		srv := http.Server{Handler: r}

		group.Add(func() error {
			err := srv.Serve(lis)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		}, func(_ error) {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer shutdownCancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				_ = srv.Close()
			}
		})
	}

	// rfs server worker
	{
		srv, err := server.New(l, o)
		if err != nil {
			level.Error(l).Log("msg", "failed to create rfs server", "err", err)
			os.Exit(1)
		}
		level.Info(l).Log("msg", "serving rfs sessions", "addr", srv.Addr())

		ctx, cancel := context.WithCancel(context.Background())
		group.Add(func() error {
			return srv.Serve(ctx)
		}, func(_ error) {
			cancel()
		})
	}

	// signal worker
	{
		ctx, cancel := context.WithCancel(context.Background())

		group.Add(func() error {
			ch := make(chan os.Signal, 2)
			signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(ch)

			select {
			case <-ch:
				level.Info(l).Log("msg", "received shutdown signal")
			case <-ctx.Done():
			}
			return nil
		}, func(_ error) {
			cancel()
		})
	}

	if err := group.Run(); err != nil {
		level.Error(l).Log("msg", "error running rfsd", "err", err)
		os.Exit(1)
	}
}
