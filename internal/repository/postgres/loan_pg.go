// internal/repository/postgres/loan_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"sacco-ledger/internal/domain"
	"sacco-ledger/internal/repository"
	"sacco-ledger/internal/util"
)

const loanColumns = `id, wallet_id, borrower_id, amount, interest_rate, term_months, purpose,
              status, request_date, approval_date, total_repaid, voters, votes_for, votes_against`

// loanRow is the storage shape of a loan. Vote sets live in int8[] columns via
// pq.Int64Array; rows that fail to scan or carry an unknown status fail
// closed instead of being patched up.
type loanRow struct {
	ID           string          `db:"id"`
	WalletID     int64           `db:"wallet_id"`
	BorrowerID   int64           `db:"borrower_id"`
	Amount       decimal.Decimal `db:"amount"`
	InterestRate decimal.Decimal `db:"interest_rate"`
	TermMonths   int             `db:"term_months"`
	Purpose      string          `db:"purpose"`
	Status       string          `db:"status"`
	RequestDate  time.Time       `db:"request_date"`
	ApprovalDate *time.Time      `db:"approval_date"`
	TotalRepaid  decimal.Decimal `db:"total_repaid"`
	Voters       pq.Int64Array   `db:"voters"`
	VotesFor     pq.Int64Array   `db:"votes_for"`
	VotesAgainst pq.Int64Array   `db:"votes_against"`
}

func (row *loanRow) toDomain() (*domain.Loan, error) {
	switch domain.LoanStatus(row.Status) {
	case domain.LoanStatusVoting, domain.LoanStatusActive, domain.LoanStatusRepaid,
		domain.LoanStatusRejected, domain.LoanStatusDefaulted:
	default:
		return nil, fmt.Errorf("loan %s has unknown status %q: %w", row.ID, row.Status, util.ErrCorruptRecord)
	}
	return &domain.Loan{
		ID:           row.ID,
		WalletID:     row.WalletID,
		BorrowerID:   row.BorrowerID,
		Amount:       row.Amount,
		InterestRate: row.InterestRate,
		TermMonths:   row.TermMonths,
		Purpose:      row.Purpose,
		Status:       domain.LoanStatus(row.Status),
		RequestDate:  row.RequestDate,
		ApprovalDate: row.ApprovalDate,
		TotalRepaid:  row.TotalRepaid,
		Tally: domain.VoteTally{
			Voters:       []int64(row.Voters),
			VotesFor:     []int64(row.VotesFor),
			VotesAgainst: []int64(row.VotesAgainst),
		},
	}, nil
}

// LoanRepository implements repository.LoanRepository for PostgreSQL.
type LoanRepository struct{}

// NewLoanRepository creates a new LoanRepository.
func NewLoanRepository(db *sqlx.DB) repository.LoanRepository {
	return &LoanRepository{}
}

// CreateLoan inserts a new loan using the provided DBExecutor.
func (r *LoanRepository) CreateLoan(ctx context.Context, q repository.DBExecutor, loan *domain.Loan) error {
	query := `INSERT INTO loans (id, wallet_id, borrower_id, amount, interest_rate, term_months, purpose,
              status, request_date, total_repaid, voters, votes_for, votes_against)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := q.ExecContext(ctx, query,
		loan.ID,
		loan.WalletID,
		loan.BorrowerID,
		loan.Amount,
		loan.InterestRate,
		loan.TermMonths,
		loan.Purpose,
		loan.Status,
		loan.RequestDate,
		loan.TotalRepaid,
		pq.Array(loan.Tally.Voters),
		pq.Array(loan.Tally.VotesFor),
		pq.Array(loan.Tally.VotesAgainst),
	)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

// GetLoanByID retrieves a loan by id using the provided DBExecutor.
func (r *LoanRepository) GetLoanByID(ctx context.Context, q repository.DBExecutor, id string) (*domain.Loan, error) {
	return r.getLoan(ctx, q, id, false)
}

// GetLoanByIDForUpdate retrieves a loan by id with a row lock.
func (r *LoanRepository) GetLoanByIDForUpdate(ctx context.Context, q repository.DBExecutor, id string) (*domain.Loan, error) {
	return r.getLoan(ctx, q, id, true)
}

func (r *LoanRepository) getLoan(ctx context.Context, q repository.DBExecutor, id string, forUpdate bool) (*domain.Loan, error) {
	var row loanRow
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	err := q.GetContext(ctx, &row, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get loan %s: %w", id, err)
	}
	return row.toDomain()
}

// UpdateLoanVoting persists the vote tally, status and approval date.
func (r *LoanRepository) UpdateLoanVoting(ctx context.Context, q repository.DBExecutor, loan *domain.Loan) error {
	query := `UPDATE loans SET voters = $1, votes_for = $2, votes_against = $3, status = $4, approval_date = $5
              WHERE id = $6`
	result, err := q.ExecContext(ctx, query,
		pq.Array(loan.Tally.Voters),
		pq.Array(loan.Tally.VotesFor),
		pq.Array(loan.Tally.VotesAgainst),
		loan.Status,
		loan.ApprovalDate,
		loan.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update voting for loan %s: %w", loan.ID, err)
	}
	return checkOneRow(result, loan.ID)
}

// UpdateLoanRepayment persists the repaid accumulator and status.
func (r *LoanRepository) UpdateLoanRepayment(ctx context.Context, q repository.DBExecutor, loan *domain.Loan) error {
	query := `UPDATE loans SET total_repaid = $1, status = $2 WHERE id = $3`
	result, err := q.ExecContext(ctx, query, loan.TotalRepaid, loan.Status, loan.ID)
	if err != nil {
		return fmt.Errorf("failed to update repayment state for loan %s: %w", loan.ID, err)
	}
	return checkOneRow(result, loan.ID)
}

// CreateRepayments bulk-inserts a generated schedule.
func (r *LoanRepository) CreateRepayments(ctx context.Context, q repository.DBExecutor, schedule []domain.Repayment) error {
	query := `INSERT INTO repayments (id, loan_id, seq, due_date, amount_due, amount_paid, payment_date, status)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for i := range schedule {
		inst := &schedule[i]
		_, err := q.ExecContext(ctx, query,
			inst.ID,
			inst.LoanID,
			inst.Seq,
			inst.DueDate,
			inst.AmountDue,
			inst.AmountPaid,
			inst.PaymentDate,
			inst.Status,
		)
		if err != nil {
			return fmt.Errorf("failed to insert repayment %d of loan %s: %w", inst.Seq, inst.LoanID, err)
		}
	}
	return nil
}

// GetRepaymentsByLoanID returns a loan's schedule in due-date order.
func (r *LoanRepository) GetRepaymentsByLoanID(ctx context.Context, q repository.DBExecutor, loanID string) ([]domain.Repayment, error) {
	schedule := []domain.Repayment{}
	query := `SELECT id, loan_id, seq, due_date, amount_due, amount_paid, payment_date, status
              FROM repayments WHERE loan_id = $1 ORDER BY due_date ASC, seq ASC`
	if err := q.SelectContext(ctx, &schedule, query, loanID); err != nil {
		return nil, fmt.Errorf("failed to get repayments for loan %s: %w", loanID, err)
	}
	return schedule, nil
}

// UpdateRepayment persists one installment's paid amount, date and status.
func (r *LoanRepository) UpdateRepayment(ctx context.Context, q repository.DBExecutor, repayment *domain.Repayment) error {
	query := `UPDATE repayments SET amount_paid = $1, payment_date = $2, status = $3 WHERE id = $4`
	result, err := q.ExecContext(ctx, query,
		repayment.AmountPaid,
		repayment.PaymentDate,
		repayment.Status,
		repayment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update repayment %s: %w", repayment.ID, err)
	}
	return checkOneRow(result, repayment.ID)
}

// ListLoansByWalletID returns all loans requested against a wallet.
func (r *LoanRepository) ListLoansByWalletID(ctx context.Context, q repository.DBExecutor, walletID int64) ([]domain.Loan, error) {
	rows := []loanRow{}
	query := `SELECT ` + loanColumns + ` FROM loans WHERE wallet_id = $1 ORDER BY request_date DESC`
	if err := q.SelectContext(ctx, &rows, query, walletID); err != nil {
		return nil, fmt.Errorf("failed to list loans for wallet %d: %w", walletID, err)
	}
	loans := make([]domain.Loan, 0, len(rows))
	for i := range rows {
		loan, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		loans = append(loans, *loan)
	}
	return loans, nil
}

func checkOneRow(result sql.Result, id string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for %s: %w", id, err)
	}
	if rowsAffected == 0 {
		return util.ErrNotFound
	}
	return nil
}
