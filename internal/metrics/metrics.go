package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ── HTTP request metrics (RED method) ──────────────────────────────────

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "euler_yield_bot",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status_code"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "euler_yield_bot",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "euler_yield_bot",
		Subsystem: "http",
		Name:      "requests_in_flight",
		Help:      "Number of HTTP requests currently being processed.",
	})
)

// ── Pipeline metrics ───────────────────────────────────────────────────

var (
	FetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "euler_yield_bot",
		Subsystem: "fetch",
		Name:      "total",
		Help:      "Total fetch attempts per upstream source.",
	}, []string{"source", "status"})

	VaultReadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "euler_yield_bot",
		Subsystem: "registry",
		Name:      "vault_reads_total",
		Help:      "Per-vault lens reads by chain and outcome.",
	}, []string{"chain", "status"})

	SnapshotCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "euler_yield_bot",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Daily snapshot lookups served without recomputation.",
	})

	SnapshotCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "euler_yield_bot",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Daily snapshot lookups that triggered a registry scan.",
	})
)

// ── Bot metrics ────────────────────────────────────────────────────────

var (
	BotMessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "euler_yield_bot",
		Subsystem: "telegram",
		Name:      "messages_sent_total",
		Help:      "Total Telegram messages delivered, by kind.",
	}, []string{"kind"})

	BotMessagesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "euler_yield_bot",
		Subsystem: "telegram",
		Name:      "messages_failed_total",
		Help:      "Total Telegram message delivery failures, by kind.",
	}, []string{"kind"})
)
