// internal/repository/postgres/proposal_pg.go
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

const proposalColumns = `id, wallet_id, creator_id, amount, reason, status, request_date,
              executed_at, voters, votes_for, votes_against`

// proposalRow is the storage shape of a withdrawal proposal.
type proposalRow struct {
	ID           string          `db:"id"`
	WalletID     int64           `db:"wallet_id"`
	CreatorID    int64           `db:"creator_id"`
	Amount       decimal.Decimal `db:"amount"`
	Reason       string          `db:"reason"`
	Status       string          `db:"status"`
	RequestDate  time.Time       `db:"request_date"`
	ExecutedAt   *time.Time      `db:"executed_at"`
	Voters       pq.Int64Array   `db:"voters"`
	VotesFor     pq.Int64Array   `db:"votes_for"`
	VotesAgainst pq.Int64Array   `db:"votes_against"`
}

func (row *proposalRow) toDomain() (*domain.WithdrawalProposal, error) {
	switch domain.ProposalStatus(row.Status) {
	case domain.ProposalStatusVoting, domain.ProposalStatusApproved, domain.ProposalStatusRejected,
		domain.ProposalStatusExecuted, domain.ProposalStatusFailed:
	default:
		return nil, fmt.Errorf("proposal %s has unknown status %q: %w", row.ID, row.Status, util.ErrCorruptRecord)
	}
	return &domain.WithdrawalProposal{
		ID:          row.ID,
		WalletID:    row.WalletID,
		CreatorID:   row.CreatorID,
		Amount:      row.Amount,
		Reason:      row.Reason,
		Status:      domain.ProposalStatus(row.Status),
		RequestDate: row.RequestDate,
		ExecutedAt:  row.ExecutedAt,
		Tally: domain.VoteTally{
			Voters:       []int64(row.Voters),
			VotesFor:     []int64(row.VotesFor),
			VotesAgainst: []int64(row.VotesAgainst),
		},
	}, nil
}

// ProposalRepository implements repository.ProposalRepository for PostgreSQL.
type ProposalRepository struct{}

// NewProposalRepository creates a new ProposalRepository.
func NewProposalRepository(db *sqlx.DB) repository.ProposalRepository {
	return &ProposalRepository{}
}

// CreateProposal inserts a new proposal using the provided DBExecutor.
func (r *ProposalRepository) CreateProposal(ctx context.Context, q repository.DBExecutor, proposal *domain.WithdrawalProposal) error {
	query := `INSERT INTO withdrawal_proposals (id, wallet_id, creator_id, amount, reason, status,
              request_date, voters, votes_for, votes_against)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := q.ExecContext(ctx, query,
		proposal.ID,
		proposal.WalletID,
		proposal.CreatorID,
		proposal.Amount,
		proposal.Reason,
		proposal.Status,
		proposal.RequestDate,
		pq.Array(proposal.Tally.Voters),
		pq.Array(proposal.Tally.VotesFor),
		pq.Array(proposal.Tally.VotesAgainst),
	)
	if err != nil {
		return fmt.Errorf("failed to create proposal: %w", err)
	}
	return nil
}

// GetProposalByID retrieves a proposal by id using the provided DBExecutor.
func (r *ProposalRepository) GetProposalByID(ctx context.Context, q repository.DBExecutor, id string) (*domain.WithdrawalProposal, error) {
	return r.getProposal(ctx, q, id, false)
}

// GetProposalByIDForUpdate retrieves a proposal by id with a row lock.
func (r *ProposalRepository) GetProposalByIDForUpdate(ctx context.Context, q repository.DBExecutor, id string) (*domain.WithdrawalProposal, error) {
	return r.getProposal(ctx, q, id, true)
}

func (r *ProposalRepository) getProposal(ctx context.Context, q repository.DBExecutor, id string, forUpdate bool) (*domain.WithdrawalProposal, error) {
	var row proposalRow
	query := `SELECT ` + proposalColumns + ` FROM withdrawal_proposals WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	err := q.GetContext(ctx, &row, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get proposal %s: %w", id, err)
	}
	return row.toDomain()
}

// UpdateProposalVoting persists the vote tally and status.
func (r *ProposalRepository) UpdateProposalVoting(ctx context.Context, q repository.DBExecutor, proposal *domain.WithdrawalProposal) error {
	query := `UPDATE withdrawal_proposals SET voters = $1, votes_for = $2, votes_against = $3, status = $4
              WHERE id = $5`
	result, err := q.ExecContext(ctx, query,
		pq.Array(proposal.Tally.Voters),
		pq.Array(proposal.Tally.VotesFor),
		pq.Array(proposal.Tally.VotesAgainst),
		proposal.Status,
		proposal.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update voting for proposal %s: %w", proposal.ID, err)
	}
	return checkOneRow(result, proposal.ID)
}

// UpdateProposalStatus persists a status transition and execution time.
func (r *ProposalRepository) UpdateProposalStatus(ctx context.Context, q repository.DBExecutor, proposal *domain.WithdrawalProposal) error {
	query := `UPDATE withdrawal_proposals SET status = $1, executed_at = $2 WHERE id = $3`
	result, err := q.ExecContext(ctx, query, proposal.Status, proposal.ExecutedAt, proposal.ID)
	if err != nil {
		return fmt.Errorf("failed to update status for proposal %s: %w", proposal.ID, err)
	}
	return checkOneRow(result, proposal.ID)
}

// ListProposalsByWalletID returns all proposals for a wallet.
func (r *ProposalRepository) ListProposalsByWalletID(ctx context.Context, q repository.DBExecutor, walletID int64) ([]domain.WithdrawalProposal, error) {
	rows := []proposalRow{}
	query := `SELECT ` + proposalColumns + ` FROM withdrawal_proposals WHERE wallet_id = $1 ORDER BY request_date DESC`
	if err := q.SelectContext(ctx, &rows, query, walletID); err != nil {
		return nil, fmt.Errorf("failed to list proposals for wallet %d: %w", walletID, err)
	}
	proposals := make([]domain.WithdrawalProposal, 0, len(rows))
	for i := range rows {
		p, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, *p)
	}
	return proposals, nil
}
