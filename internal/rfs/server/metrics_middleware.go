package server

import (
	"context"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rfratto/rpcfs/internal/rfs"
	"golang.org/x/sys/unix"
)

type metricsMiddleware struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetricsMiddleware returns a Middleware that counts requests by op and
// result status and observes how long each op takes. Metrics are registered
// against reg.
func NewMetricsMiddleware(reg prometheus.Registerer) (Middleware, error) {
	mm := &metricsMiddleware{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rfs_server_requests_total",
			Help: "Total number of requests handled, partitioned by op and status.",
		}, []string{"op", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rfs_server_request_duration_seconds",
			Help:    "Time spent handling requests, partitioned by op.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 4, 10),
		}, []string{"op"}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{mm.requests, mm.duration} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return mm, nil
}

func (mm *metricsMiddleware) HandleRequest(ctx context.Context, hdr *RequestHeader, req rfs.Request, invoker Invoker) (rfs.Response, error) {
	start := time.Now()
	resp, err := invoker(ctx, hdr, req)

	op := hdr.Op.String()
	mm.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	mm.requests.WithLabelValues(op, statusLabel(errorForResponse(err))).Inc()
	return resp, err
}

// statusLabel returns a low-cardinality label for a status.
func statusLabel(e rfs.Errno) string {
	if e == 0 {
		return "ok"
	}
	if name := unix.ErrnoName(syscall.Errno(e)); name != "" {
		return name
	}
	return strconv.Itoa(int(e))
}
