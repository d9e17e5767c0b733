package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the governance core. Counters track the
// write paths; the histogram covers the only suspension point (ledger calls).
type Metrics struct {
	RegistrationsSubmitted prometheus.Counter
	RegistrationsApproved  prometheus.Counter
	RegistrationsRejected  prometheus.Counter
	ProposalsCreated       prometheus.Counter
	VotesCast              prometheus.Counter
	GateVotesCast          prometheus.Counter
	LedgerCallDuration     prometheus.Histogram
	LedgerCallFailures     prometheus.Counter
}

// New creates a Metrics instance with all metrics registered.
func New() *Metrics {
	return &Metrics{
		RegistrationsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dasigov_registrations_submitted_total",
			Help: "Total number of registration submissions accepted",
		}),
		RegistrationsApproved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dasigov_registrations_approved_total",
			Help: "Total number of registrations approved (token issued)",
		}),
		RegistrationsRejected: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dasigov_registrations_rejected_total",
			Help: "Total number of registrations rejected",
		}),
		ProposalsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dasigov_proposals_created_total",
			Help: "Total number of proposals created",
		}),
		VotesCast: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dasigov_votes_cast_total",
			Help: "Total number of public votes admitted",
		}),
		GateVotesCast: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dasigov_gate_votes_cast_total",
			Help: "Total number of authority approval-gate votes admitted",
		}),
		LedgerCallDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "dasigov_ledger_call_duration_seconds",
			Help:    "Duration of ledger gateway calls (mint, balance lookup)",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		LedgerCallFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "dasigov_ledger_call_failures_total",
			Help: "Total number of failed or timed-out ledger gateway calls",
		}),
	}
}

// ObserveLedgerCall records the duration of a ledger gateway call.
// Call with time.Now() captured at the start of the operation.
func (m *Metrics) ObserveLedgerCall(start time.Time) {
	if m == nil {
		return
	}
	m.LedgerCallDuration.Observe(time.Since(start).Seconds())
}
