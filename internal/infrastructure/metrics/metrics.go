package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Chart of accounts
	AccountsCreated   prometheus.Counter
	AccountOperations *prometheus.CounterVec

	// Journal entries
	EntriesCreated    prometheus.Counter
	EntriesPosted     prometheus.Counter
	EntriesVoided     prometheus.Counter
	EntriesDuplicated prometheus.Counter
	MovementsApplied  *prometheus.CounterVec
	PostedAmount      prometheus.Histogram
	LedgerErrors      *prometheus.CounterVec
	LifecycleDuration *prometheus.HistogramVec

	// Reconciliation
	ReconciliationRuns          prometheus.Counter
	ReconciliationDiscrepancies prometheus.Gauge

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge

	// Outbox
	EventsPublished *prometheus.CounterVec

	// Redis metrics
	CacheLookups *prometheus.CounterVec

	// Audit metrics
	AuditLogsCreated *prometheus.CounterVec
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookkeeper_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		AccountOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookkeeper_account_operations_total",
				Help: "Total chart of accounts operations by type",
			},
			[]string{"operation"},
		),

		EntriesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookkeeper_entries_created_total",
			Help: "Total number of journal entries created",
		}),
		EntriesPosted: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookkeeper_entries_posted_total",
			Help: "Total number of journal entries posted",
		}),
		EntriesVoided: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookkeeper_entries_voided_total",
			Help: "Total number of journal entries voided",
		}),
		EntriesDuplicated: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookkeeper_entries_duplicated_total",
			Help: "Total number of journal entries duplicated",
		}),
		MovementsApplied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookkeeper_movements_applied_total",
				Help: "Movements applied or reverted by category and kind",
			},
			[]string{"category", "kind", "direction"},
		),
		PostedAmount: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bookkeeper_posted_entry_amount",
			Help:    "Total debit amount of posted entries",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
		}),
		LedgerErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookkeeper_ledger_errors_total",
				Help: "Ledger operation failures by operation and error code",
			},
			[]string{"operation", "code"},
		),
		LifecycleDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bookkeeper_entry_lifecycle_duration_seconds",
				Help:    "Duration of post, void and duplicate operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		ReconciliationRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "bookkeeper_reconciliation_runs_total",
			Help: "Total reconciliation reports generated",
		}),
		ReconciliationDiscrepancies: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bookkeeper_reconciliation_discrepancies",
			Help: "Accounts whose stored balance disagreed with the recomputed one in the last run",
		}),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookkeeper_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bookkeeper_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bookkeeper_http_requests_in_flight",
			Help: "HTTP requests currently being served",
		}),

		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookkeeper_outbox_events_total",
				Help: "Outbox events processed by type and result",
			},
			[]string{"event_type", "result"},
		),

		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookkeeper_cache_lookups_total",
				Help: "Hierarchy path cache lookups by result",
			},
			[]string{"result"},
		),

		AuditLogsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookkeeper_audit_logs_total",
				Help: "Total audit logs created",
			},
			[]string{"action", "status"},
		),
	}
}
