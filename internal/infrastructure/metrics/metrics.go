package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Payment metrics
	PaymentsApplied  *prometheus.CounterVec
	PaymentsReversed prometheus.Counter
	PaymentDuration  prometheus.Histogram
	PaymentAmount    prometheus.Histogram
	PaymentErrors    *prometheus.CounterVec

	// Credit metrics
	CreditsCreated     prometheus.Counter
	CreditsFormalized  prometheus.Counter
	CreditsCancelled   prometheus.Counter
	OutstandingBalance *prometheus.GaugeVec

	// Schedule metrics
	SchedulesGenerated   prometheus.Counter
	SchedulesRegenerated prometheus.Counter
	ScheduleDuration     prometheus.Histogram

	// Planilla metrics
	BatchesProcessed prometheus.Counter
	BatchesVoided    prometheus.Counter
	BatchRows        prometheus.Histogram
	BatchDuration    prometheus.Histogram

	// Suspense metrics
	SuspenseCreated  prometheus.Counter
	SuspenseAssigned *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBQueries     *prometheus.CounterVec
	DBDuration    *prometheus.HistogramVec
	DBConnections prometheus.Gauge
	DBErrors      *prometheus.CounterVec

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisDuration   *prometheus.HistogramVec
	RedisErrors     *prometheus.CounterVec

	// Authentication metrics
	AuthAttempts   *prometheus.CounterVec
	AuthFailures   *prometheus.CounterVec
	ActiveSessions prometheus.Gauge

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec

	// Outbox metrics
	OutboxPosted prometheus.Counter
	OutboxErrors prometheus.Counter

	// Audit metrics
	AuditLogsCreated *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Payment metrics
		PaymentsApplied: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crediledger_payments_applied_total",
				Help: "Total number of payments applied, by source",
			},
			[]string{"source"},
		),
		PaymentsReversed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crediledger_payments_reversed_total",
			Help: "Total number of payments reversed",
		}),
		PaymentDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "crediledger_payment_duration_seconds",
			Help:    "Duration of payment applications",
			Buckets: prometheus.DefBuckets,
		}),
		PaymentAmount: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "crediledger_payment_amount",
			Help:    "Payment amounts",
			Buckets: []float64{1000, 10000, 50000, 100000, 500000, 1000000, 5000000},
		}),
		PaymentErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crediledger_payment_errors_total",
				Help: "Total number of payment errors by type",
			},
			[]string{"error_type"},
		),

		// Credit metrics
		CreditsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crediledger_credits_created_total",
			Help: "Total number of credits created",
		}),
		CreditsFormalized: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crediledger_credits_formalized_total",
			Help: "Total number of credits formalized",
		}),
		CreditsCancelled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crediledger_credits_cancelled_total",
			Help: "Total number of credits fully paid off",
		}),
		OutstandingBalance: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "crediledger_outstanding_balance",
				Help: "Current outstanding balance per deductora",
			},
			[]string{"deductora_id"},
		),

		// Schedule metrics
		SchedulesGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crediledger_schedules_generated_total",
			Help: "Total number of amortization schedules generated",
		}),
		SchedulesRegenerated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crediledger_schedules_regenerated_total",
			Help: "Total number of amortization schedules regenerated",
		}),
		ScheduleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "crediledger_schedule_duration_seconds",
			Help:    "Duration of schedule generation",
			Buckets: prometheus.DefBuckets,
		}),

		// Planilla metrics
		BatchesProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crediledger_batches_processed_total",
			Help: "Total number of payroll batches processed",
		}),
		BatchesVoided: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crediledger_batches_voided_total",
			Help: "Total number of payroll batches voided",
		}),
		BatchRows: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "crediledger_batch_rows",
			Help:    "Number of rows per payroll batch",
			Buckets: []float64{1, 10, 50, 100, 500, 1000, 5000},
		}),
		BatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "crediledger_batch_duration_seconds",
			Help:    "Duration of batch applications",
			Buckets: prometheus.DefBuckets,
		}),

		// Suspense metrics
		SuspenseCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crediledger_suspense_created_total",
			Help: "Total number of suspense balances created",
		}),
		SuspenseAssigned: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crediledger_suspense_assigned_total",
				Help: "Total number of suspense balances assigned, by target",
			},
			[]string{"target"},
		),

		// API metrics
		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crediledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crediledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Database metrics
		DBQueries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crediledger_db_queries_total",
				Help: "Total database queries",
			},
			[]string{"operation", "table"},
		),
		DBDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crediledger_db_query_duration_seconds",
				Help:    "Database query duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "table"},
		),
		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "crediledger_db_connections",
			Help: "Current number of database connections",
		}),
		DBErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crediledger_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),

		// Redis metrics
		RedisOperations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crediledger_redis_operations_total",
				Help: "Total Redis operations",
			},
			[]string{"operation"},
		),
		RedisDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crediledger_redis_duration_seconds",
				Help:    "Redis operation duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		RedisErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crediledger_redis_errors_total",
				Help: "Total Redis errors",
			},
			[]string{"operation"},
		),

		// Authentication metrics
		AuthAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crediledger_auth_attempts_total",
				Help: "Total authentication attempts",
			},
			[]string{"status"},
		),
		AuthFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crediledger_auth_failures_total",
				Help: "Total authentication failures",
			},
			[]string{"reason"},
		),
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "crediledger_active_sessions",
			Help: "Current number of active sessions",
		}),

		// Rate limiting metrics
		RateLimitHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crediledger_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),

		// Outbox metrics
		OutboxPosted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crediledger_outbox_posted_total",
			Help: "Total outbox events posted to accounting",
		}),
		OutboxErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crediledger_outbox_errors_total",
			Help: "Total outbox posting errors",
		}),

		// Audit metrics
		AuditLogsCreated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crediledger_audit_logs_total",
				Help: "Total audit logs created",
			},
			[]string{"action", "status"},
		),
	}
}
