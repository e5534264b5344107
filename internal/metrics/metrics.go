package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "beerus"

// Poll results.
const (
	PollOK    = "ok"
	PollError = "error"
)

// Request results.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics groups the collectors beerus exports. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	syncPolls       *prometheus.CounterVec
	syncBlockNumber prometheus.Gauge
	rpcRequests     *prometheus.CounterVec
	rpcDuration     *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		syncPolls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sync_polls_total",
				Help:      "Number of state polls by result.",
			},
			[]string{"result"},
		),
		syncBlockNumber: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sync_block_number",
				Help:      "Block number of the current trusted state.",
			},
		),
		rpcRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rpc_requests_total",
				Help:      "Number of JSON-RPC requests served.",
			},
			[]string{"method", "kind", "result"},
		),
		rpcDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "rpc_request_duration_seconds",
				Help:      "Time spent serving a JSON-RPC request.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}

	for _, c := range []prometheus.Collector{m.syncPolls, m.syncBlockNumber, m.rpcRequests, m.rpcDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Metrics) ObservePoll(result string) {
	if m == nil {
		return
	}
	m.syncPolls.WithLabelValues(result).Inc()
}

func (m *Metrics) SetBlockNumber(n uint64) {
	if m == nil {
		return
	}
	m.syncBlockNumber.Set(float64(n))
}

// ObserveRequest records one served call. kind is the dispatch class of the
// method (local, forwarded, transformed or unknown).
func (m *Metrics) ObserveRequest(method, kind, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.rpcRequests.WithLabelValues(method, kind, result).Inc()
	m.rpcDuration.WithLabelValues(method).Observe(elapsed.Seconds())
}
