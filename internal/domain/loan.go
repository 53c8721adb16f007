// internal/domain/loan.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"sacco-ledger/internal/util"
)

// LoanStatus is the loan lifecycle state machine:
// voting_in_progress -> active -> repaid, with voting_in_progress -> rejected
// and the informational active -> defaulted edge.
type LoanStatus string

const (
	LoanStatusVoting    LoanStatus = "voting_in_progress"
	LoanStatusActive    LoanStatus = "active"
	LoanStatusRepaid    LoanStatus = "repaid"
	LoanStatusRejected  LoanStatus = "rejected"
	LoanStatusDefaulted LoanStatus = "defaulted"
)

// RepaymentStatus is the state of a single installment.
type RepaymentStatus string

const (
	RepaymentStatusPending RepaymentStatus = "pending"
	RepaymentStatusPaid    RepaymentStatus = "paid"
	RepaymentStatusOverdue RepaymentStatus = "overdue"
)

// Monetary comparison tolerances. Repayment amounts arrive from clients as
// decimal strings, so drift is tiny but non-zero once installments are split.
var (
	// OverpaymentTolerance is how far past the remaining balance a repayment
	// may land before it is rejected outright.
	OverpaymentTolerance = decimal.NewFromFloat(0.01)
	// InstallmentPaidTolerance is how close cumulative payments must get to an
	// installment's due amount for it to count as paid.
	InstallmentPaidTolerance = decimal.NewFromFloat(0.001)
)

const (
	MinLoanTermMonths = 1
	MaxLoanTermMonths = 36
)

// Repayment is one installment of a loan's schedule. The schedule is generated
// in bulk at approval and installments are mutated individually as payments
// are applied.
type Repayment struct {
	ID          string          `db:"id" json:"id"`
	LoanID      string          `db:"loan_id" json:"loan_id"`
	Seq         int             `db:"seq" json:"seq"`
	DueDate     time.Time       `db:"due_date" json:"due_date"`
	AmountDue   decimal.Decimal `db:"amount_due" json:"amount_due"`
	AmountPaid  decimal.Decimal `db:"amount_paid" json:"amount_paid"`
	PaymentDate *time.Time      `db:"payment_date" json:"payment_date,omitempty"`
	Status      RepaymentStatus `db:"status" json:"status"`
}

// Loan is a member's borrow request against a group wallet, including its
// voting tally and, once approved, its repayment schedule. Loans are never
// deleted; terminal states keep the audit trail.
type Loan struct {
	ID           string          `db:"id" json:"id"`
	WalletID     int64           `db:"wallet_id" json:"wallet_id"`
	BorrowerID   int64           `db:"borrower_id" json:"borrower_id"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	InterestRate decimal.Decimal `db:"interest_rate" json:"interest_rate"`
	TermMonths   int             `db:"term_months" json:"term_months"`
	Purpose      string          `db:"purpose" json:"purpose"`
	Status       LoanStatus      `db:"status" json:"status"`
	RequestDate  time.Time       `db:"request_date" json:"request_date"`
	ApprovalDate *time.Time      `db:"approval_date" json:"approval_date,omitempty"`
	TotalRepaid  decimal.Decimal `db:"total_repaid" json:"total_repaid"`
	Tally        VoteTally       `json:"tally"`
	Schedule     []Repayment     `json:"schedule,omitempty"`
}

// NewLoan validates the request inputs and creates a Loan awaiting votes.
func NewLoan(walletID, borrowerID int64, amount, annualRate decimal.Decimal, termMonths int, purpose string) (*Loan, error) {
	if amount.LessThanOrEqual(decimal.Zero) || annualRate.LessThanOrEqual(decimal.Zero) {
		return nil, util.ErrInvalidAmount
	}
	if termMonths < MinLoanTermMonths || termMonths > MaxLoanTermMonths {
		return nil, util.ErrInvalidTerm
	}
	return &Loan{
		ID:           uuid.NewString(),
		WalletID:     walletID,
		BorrowerID:   borrowerID,
		Amount:       amount,
		InterestRate: annualRate,
		TermMonths:   termMonths,
		Purpose:      purpose,
		Status:       LoanStatusVoting,
		RequestDate:  time.Now().UTC(),
		TotalRepaid:  decimal.Zero,
	}, nil
}

// TotalDue is principal plus flat interest: amount * (1 + rate).
func (l *Loan) TotalDue() decimal.Decimal {
	return l.Amount.Mul(decimal.NewFromInt(1).Add(l.InterestRate))
}

// RemainingBalance is the amount still owed.
func (l *Loan) RemainingBalance() decimal.Decimal {
	return l.TotalDue().Sub(l.TotalRepaid)
}

// GenerateSchedule produces termMonths equal installments covering TotalDue,
// due on successive month boundaries from approvedAt. Division remainders are
// absorbed by the final installment so the schedule sums exactly to TotalDue.
func (l *Loan) GenerateSchedule(approvedAt time.Time) []Repayment {
	total := l.TotalDue()
	per := total.Div(decimal.NewFromInt(int64(l.TermMonths))).Round(2)

	schedule := make([]Repayment, 0, l.TermMonths)
	allocated := decimal.Zero
	for i := 1; i <= l.TermMonths; i++ {
		due := per
		if i == l.TermMonths {
			due = total.Sub(allocated)
		}
		allocated = allocated.Add(due)
		schedule = append(schedule, Repayment{
			ID:         uuid.NewString(),
			LoanID:     l.ID,
			Seq:        i,
			DueDate:    approvedAt.AddDate(0, i, 0),
			AmountDue:  due,
			AmountPaid: decimal.Zero,
			Status:     RepaymentStatusPending,
		})
	}
	return schedule
}

// ApplyRepayment spreads amount across the schedule in due-date order,
// topping up each unpaid installment before moving to the next. Installments
// already paid are never touched. It mutates l.Schedule and l.TotalRepaid and
// flips the loan to repaid once the total due is covered (within tolerance).
// The caller is responsible for the overpayment check and for persistence.
func (l *Loan) ApplyRepayment(amount decimal.Decimal, paidAt time.Time) {
	remaining := amount
	for i := range l.Schedule {
		if remaining.LessThanOrEqual(decimal.Zero) {
			break
		}
		inst := &l.Schedule[i]
		if inst.Status == RepaymentStatusPaid {
			continue
		}
		owed := inst.AmountDue.Sub(inst.AmountPaid)
		applied := decimal.Min(owed, remaining)
		inst.AmountPaid = inst.AmountPaid.Add(applied)
		remaining = remaining.Sub(applied)

		if inst.AmountPaid.GreaterThanOrEqual(inst.AmountDue.Sub(InstallmentPaidTolerance)) {
			inst.Status = RepaymentStatusPaid
			at := paidAt
			inst.PaymentDate = &at
		}
	}

	l.TotalRepaid = l.TotalRepaid.Add(amount)
	if l.TotalRepaid.GreaterThanOrEqual(l.TotalDue().Sub(OverpaymentTolerance)) {
		l.Status = LoanStatusRepaid
	}
}
