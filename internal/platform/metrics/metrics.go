package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the ledger process.
type Metrics struct {
	TokensIssued         *prometheus.CounterVec
	TokensBurned         *prometheus.CounterVec
	Transfers            prometheus.Counter
	ForcedTransfers      prometheus.Counter
	ComplianceDenials    prometheus.Counter
	IdentitiesRegistered prometheus.Counter
	RequestDuration      *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		TokensIssued: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "basalt_tokens_issued_total",
			Help: "Total tokens issued, by asset key",
		}, []string{"asset"}),
		TokensBurned: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "basalt_tokens_burned_total",
			Help: "Total tokens burned, by asset key",
		}, []string{"asset"}),
		Transfers: promauto.NewCounter(prometheus.CounterOpts{
			Name: "basalt_transfers_total",
			Help: "Total completed peer-to-peer transfers",
		}),
		ForcedTransfers: promauto.NewCounter(prometheus.CounterOpts{
			Name: "basalt_forced_transfers_total",
			Help: "Total agent-initiated recovery transfers",
		}),
		ComplianceDenials: promauto.NewCounter(prometheus.CounterOpts{
			Name: "basalt_compliance_denials_total",
			Help: "Total transfers denied by the compliance policy",
		}),
		IdentitiesRegistered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "basalt_identities_registered_total",
			Help: "Total identity records created",
		}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "basalt_http_request_duration_seconds",
			Help:    "HTTP request latency, by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}

// NewForTest creates metrics on a private registry so parallel test suites
// do not collide on promauto's default registerer.
func NewForTest() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		TokensIssued: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "basalt_tokens_issued_total",
			Help: "Total tokens issued, by asset key",
		}, []string{"asset"}),
		TokensBurned: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "basalt_tokens_burned_total",
			Help: "Total tokens burned, by asset key",
		}, []string{"asset"}),
		Transfers: factory.NewCounter(prometheus.CounterOpts{
			Name: "basalt_transfers_total",
			Help: "Total completed peer-to-peer transfers",
		}),
		ForcedTransfers: factory.NewCounter(prometheus.CounterOpts{
			Name: "basalt_forced_transfers_total",
			Help: "Total agent-initiated recovery transfers",
		}),
		ComplianceDenials: factory.NewCounter(prometheus.CounterOpts{
			Name: "basalt_compliance_denials_total",
			Help: "Total transfers denied by the compliance policy",
		}),
		IdentitiesRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "basalt_identities_registered_total",
			Help: "Total identity records created",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "basalt_http_request_duration_seconds",
			Help:    "HTTP request latency, by route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}
