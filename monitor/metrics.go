package monitor

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	ProviderOpenAI    = "openai"
	ProviderDashScope = "dashscope"
)

var (
	providerRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dealmate",
		Name:      "provider_requests_total",
		Help:      "Requests sent to upstream LLM providers.",
	}, []string{"provider", "model", "stream", "status"})

	providerLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dealmate",
		Name:      "provider_request_duration_seconds",
		Help:      "Time until the provider answered (first byte for streams).",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"provider", "model", "stream"})

	providerTokens = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dealmate",
		Name:      "provider_tokens_total",
		Help:      "Tokens billed by upstream LLM providers.",
	}, []string{"provider", "model", "kind"})

	bridgeLoopsOpen = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "dealmate",
		Name:      "bridge_loops_open",
		Help:      "Per-call loops currently owned by wrapper calls.",
	})

	bridgeLoopsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "dealmate",
		Name:      "bridge_loops_created_total",
		Help:      "Per-call loops created by wrapper calls.",
	})

	bridgeLoopsClosed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "dealmate",
		Name:      "bridge_loops_closed_total",
		Help:      "Per-call loops torn down by wrapper calls.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dealmate",
		Name:      "http_requests_total",
		Help:      "HTTP requests served, by route and status.",
	}, []string{"method", "route", "status"})

	httpLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "dealmate",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request handling time, by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
)

func init() {
	prometheus.MustRegister(
		providerRequests,
		providerLatency,
		providerTokens,
		bridgeLoopsOpen,
		bridgeLoopsCreated,
		bridgeLoopsClosed,
		httpRequests,
		httpLatency,
	)
}

// StatusLabel turns an HTTP status into a metric label.
func StatusLabel(code int) string {
	return strconv.Itoa(code)
}

// RecordProviderRequest records one upstream call.
func RecordProviderRequest(provider, model string, stream bool, status string, elapsed time.Duration) {
	streamLabel := strconv.FormatBool(stream)
	providerRequests.WithLabelValues(provider, model, streamLabel, status).Inc()
	providerLatency.WithLabelValues(provider, model, streamLabel).Observe(elapsed.Seconds())
}

// RecordTokenUsage adds the prompt and completion tokens of one finished call.
func RecordTokenUsage(provider, model string, promptTokens, completionTokens int) {
	if promptTokens > 0 {
		providerTokens.WithLabelValues(provider, model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		providerTokens.WithLabelValues(provider, model, "completion").Add(float64(completionTokens))
	}
}

// LoopOpened records that a wrapper call created its private loop.
func LoopOpened() {
	bridgeLoopsCreated.Inc()
	bridgeLoopsOpen.Inc()
}

// LoopClosed records that a wrapper call tore its private loop down.
func LoopClosed() {
	bridgeLoopsClosed.Inc()
	bridgeLoopsOpen.Dec()
}

// RecordHTTPRequest records one served HTTP request.
func RecordHTTPRequest(method, route string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, StatusLabel(status)).Inc()
	httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
