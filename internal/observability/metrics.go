package observability

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/danmuck/spmctl/internal/client"
	"github.com/danmuck/spmctl/internal/protocol"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spmctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"service", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "spmctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)
	clientTransactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spmctl",
			Subsystem: "client",
			Name:      "transactions_total",
			Help:      "Instrument transactions by command and outcome.",
		},
		[]string{"command", "outcome"},
	)
	clientDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "spmctl",
			Subsystem: "client",
			Name:      "transaction_duration_seconds",
			Help:      "Instrument transaction duration in seconds.",
			Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 10},
		},
		[]string{"command"},
	)
	clientBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "spmctl",
			Subsystem: "client",
			Name:      "bytes_total",
			Help:      "Bytes exchanged with the instrument, headers included.",
		},
		[]string{"direction"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, clientTransactions, clientDuration, clientBytes)
	})
}

func RecordHTTPRequest(service, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(service, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(service, method, path, statusLabel).Observe(duration.Seconds())
}

// Outcome buckets a transaction error for the outcome label.
func Outcome(err error) string {
	var se *client.ServerError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &se):
		return "server_error"
	case errors.Is(err, client.ErrConnectionBroken):
		return "broken"
	case errors.Is(err, client.ErrTimeout):
		return "timeout"
	case errors.Is(err, client.ErrIO):
		return "io"
	case errors.Is(err, protocol.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, protocol.ErrProtocol):
		return "protocol"
	default:
		return "error"
	}
}

// ClientObserver feeds client transaction reports into the metrics above.
type ClientObserver struct{}

func (ClientObserver) ObserveTransaction(r client.Report) {
	RegisterMetrics()
	clientTransactions.WithLabelValues(r.Command, Outcome(r.Err)).Inc()
	clientDuration.WithLabelValues(r.Command).Observe(r.Duration.Seconds())
	clientBytes.WithLabelValues("out").Add(float64(r.BytesOut))
	clientBytes.WithLabelValues("in").Add(float64(r.BytesIn))
}
