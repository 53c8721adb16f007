// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LedgerEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sacco_ledger_entries_total",
			Help: "Total number of ledger transactions appended",
		},
		[]string{"type"},
	)

	VotesCastTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sacco_votes_cast_total",
			Help: "Total number of governance votes cast",
		},
		[]string{"ballot", "choice"},
	)

	LoansDecidedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sacco_loans_decided_total",
			Help: "Total number of loan voting outcomes",
		},
		[]string{"outcome"},
	)

	LoanRepaymentsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sacco_loan_repayments_total",
			Help: "Total number of loan repayments processed",
		},
	)

	WithdrawalExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sacco_withdrawal_executions_total",
			Help: "Total number of withdrawal proposal executions",
		},
		[]string{"result"},
	)
)
