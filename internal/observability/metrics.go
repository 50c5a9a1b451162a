// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Operation metrics
	OperationsTotal    *prometheus.CounterVec
	OperationsRejected *prometheus.CounterVec
	OperationDuration  *prometheus.HistogramVec

	// Ledger metrics
	TokensMinted       prometheus.Counter
	UnitsMinted        prometheus.Counter
	UnitsRedeemed      prometheus.Counter
	UnitsTransferred   prometheus.Counter
	TokenCount         prometheus.Gauge

	// Exchange metrics
	ListingsCreated    prometheus.Counter
	PurchasesCompleted prometheus.Counter
	UnitsSold          prometheus.Counter
	ActiveListings     prometheus.Gauge

	// Journal metrics
	EventsJournaled  prometheus.Counter
	JournalErrors    prometheus.Counter
	ArchiveErrors    prometheus.Counter
	FeedSubscribers  prometheus.Gauge
	FeedDroppedTotal prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered
// on the given registerer. Pass a fresh registry in tests to avoid
// duplicate registration.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "recs_contract"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		// Operation metrics
		OperationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runtime",
			Name:      "operations_total",
			Help:      "Total number of operations executed by name",
		}, []string{"operation"}),
		OperationsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "runtime",
			Name:      "operations_rejected_total",
			Help:      "Total number of rejected operations by name and error kind",
		}, []string{"operation", "kind"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "runtime",
			Name:      "operation_duration_seconds",
			Help:      "Operation execution duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),

		// Ledger metrics
		TokensMinted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "tokens_minted_total",
			Help:      "Total number of certificate token ids created",
		}),
		UnitsMinted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "units_minted_total",
			Help:      "Total number of certificate units minted",
		}),
		UnitsRedeemed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "units_redeemed_total",
			Help:      "Total number of certificate units redeemed",
		}),
		UnitsTransferred: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "units_transferred_total",
			Help:      "Total number of certificate units transferred",
		}),
		TokenCount: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "token_count",
			Help:      "Number of certificate token ids minted so far",
		}),

		// Exchange metrics
		ListingsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "exchange",
			Name:      "listings_created_total",
			Help:      "Total number of listings created",
		}),
		PurchasesCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "exchange",
			Name:      "purchases_completed_total",
			Help:      "Total number of purchases settled",
		}),
		UnitsSold: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "exchange",
			Name:      "units_sold_total",
			Help:      "Total number of certificate units sold",
		}),
		ActiveListings: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "exchange",
			Name:      "active_listings",
			Help:      "Current number of listings with a positive amount",
		}),

		// Journal metrics
		EventsJournaled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "events_total",
			Help:      "Total number of notifications written to the journal",
		}),
		JournalErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "errors_total",
			Help:      "Total number of journal write failures",
		}),
		ArchiveErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "journal",
			Name:      "archive_errors_total",
			Help:      "Total number of purchase archive write failures",
		}),
		FeedSubscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "subscribers",
			Help:      "Current number of event feed subscribers",
		}),
		FeedDroppedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "dropped_total",
			Help:      "Total number of notifications dropped by slow subscribers",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
