package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector aggregates the service-level Prometheus metrics.
type Collector struct {
	authFailures   *prometheus.CounterVec
	exchanges      *prometheus.CounterVec
	weatherLookups prometheus.Counter
	llmLatency     prometheus.Histogram
}

// NewCollector registers all metrics on reg and returns the collector.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vulval_auth_failures_total",
			Help: "Init-data validation failures by kind",
		}, []string{"kind"}),
		exchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vulval_exchanges_total",
			Help: "Chat exchanges by outcome",
		}, []string{"outcome"}),
		weatherLookups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vulval_weather_lookups_total",
			Help: "Weather tool invocations requested by the model",
		}),
		llmLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vulval_llm_latency_seconds",
			Help:    "LLM completion latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
	}

	reg.MustRegister(c.authFailures, c.exchanges, c.weatherLookups, c.llmLatency)

	return c
}

func (c *Collector) RecordAuthFailure(kind string) {
	c.authFailures.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordExchange(outcome string) {
	c.exchanges.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordWeatherLookup() {
	c.weatherLookups.Inc()
}

func (c *Collector) RecordLLMLatency(d time.Duration) {
	c.llmLatency.Observe(d.Seconds())
}
