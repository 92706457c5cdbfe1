package middleware

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/any-hub/rackup/internal/rack"
)

var (
	requestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rack",
		Name:      "requests_total",
		Help:      "Requests that passed through the Metrics middleware.",
	}, []string{"method", "status"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "rack",
		Name:      "request_duration_seconds",
		Help:      "Time spent in the handlers wrapped by the Metrics middleware.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})
)

func init() {
	prometheus.MustRegister(requestsTotal, requestDuration)
}

// Metrics 统计经过的请求数与下游处理耗时，按方法/状态码打标签。
type Metrics struct {
	next     rack.Handler
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics is the rack.Factory for Metrics. It reports to the collectors
// registered on the default prometheus registry.
func NewMetrics(next rack.Handler) rack.Handler {
	return &Metrics{
		next:     rack.OrNotFound(next),
		requests: requestsTotal,
		duration: requestDuration,
	}
}

func (m *Metrics) Call(env rack.Env) rack.Response {
	method := env.String(rack.KeyRequestMethod)
	start := time.Now()
	resp := m.next.Call(env)

	m.duration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	m.requests.WithLabelValues(method, strconv.Itoa(resp.Status)).Inc()
	return resp
}
