package transport

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records request counts and latencies. Labels carry the method and
// the resource kind ("base", "doc", "file", "txt_idx"), never ids or paths.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	retries  *prometheus.CounterVec
}

// NewMetrics registers the transport collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lbclient_requests_total",
				Help: "Total number of requests sent to the LightBase server",
			},
			[]string{"method", "resource", "status"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lbclient_request_duration_seconds",
				Help:    "LightBase request duration in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "resource"},
		),
		retries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lbclient_retries_total",
				Help: "Total number of retried LightBase requests",
			},
			[]string{"method", "resource"},
		),
	}
}

func (m *Metrics) observe(method, resource string, status int, d time.Duration) {
	if m == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(method, resource, code).Inc()
	m.duration.WithLabelValues(method, resource).Observe(d.Seconds())
}

func (m *Metrics) retry(method, resource string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(method, resource).Inc()
}

// resource classifies a request path for metric labels.
func resource(req *Request) string {
	switch {
	case len(req.Path) == 0:
		return "base"
	case req.Path[0] == "_txt_idx":
		return "txt_idx"
	case len(req.Path) >= 2 && (req.Path[1] == "doc" || req.Path[1] == "file"):
		return req.Path[1]
	}
	return "base"
}
