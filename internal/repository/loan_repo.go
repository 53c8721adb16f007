// internal/repository/loan_repo.go
package repository

import (
	"context"

	"sacco-ledger/internal/domain"
)

// LoanRepository defines the interface for loan data operations. Loans are
// never deleted; terminal states preserve the audit trail.
type LoanRepository interface {
	// CreateLoan adds a new loan in the voting state.
	CreateLoan(ctx context.Context, q DBExecutor, loan *domain.Loan) error
	// GetLoanByID retrieves a loan by id, without its schedule.
	GetLoanByID(ctx context.Context, q DBExecutor, id string) (*domain.Loan, error)
	// GetLoanByIDForUpdate retrieves a loan by id and locks the row. Engines
	// always lock the loan before the wallet.
	GetLoanByIDForUpdate(ctx context.Context, q DBExecutor, id string) (*domain.Loan, error)
	// UpdateLoanVoting persists the vote tally, status and approval date.
	UpdateLoanVoting(ctx context.Context, q DBExecutor, loan *domain.Loan) error
	// UpdateLoanRepayment persists the repaid accumulator and status.
	UpdateLoanRepayment(ctx context.Context, q DBExecutor, loan *domain.Loan) error
	// CreateRepayments bulk-inserts a generated schedule.
	CreateRepayments(ctx context.Context, q DBExecutor, schedule []domain.Repayment) error
	// GetRepaymentsByLoanID returns a loan's schedule in due-date order.
	GetRepaymentsByLoanID(ctx context.Context, q DBExecutor, loanID string) ([]domain.Repayment, error)
	// UpdateRepayment persists one installment's paid amount, date and status.
	UpdateRepayment(ctx context.Context, q DBExecutor, repayment *domain.Repayment) error
	// ListLoansByWalletID returns all loans requested against a wallet.
	ListLoansByWalletID(ctx context.Context, q DBExecutor, walletID int64) ([]domain.Loan, error)
}
