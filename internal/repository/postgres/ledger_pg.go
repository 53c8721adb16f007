// internal/repository/postgres/ledger_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"sacco-ledger/internal/domain"
	"sacco-ledger/internal/repository"
	"sacco-ledger/internal/util"
)

const ledgerColumns = `id, wallet_id, member_id, type, amount, description,
              related_loan_id, related_contribution_id, previous_hash, hash,
              transaction_time, created_at`

// LedgerRepository implements repository.LedgerRepository for PostgreSQL.
// ledger_transactions is append-only: this type issues INSERTs and SELECTs,
// never UPDATE or DELETE.
type LedgerRepository struct{}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db *sqlx.DB) repository.LedgerRepository {
	return &LedgerRepository{}
}

// AppendTransaction inserts a sealed transaction.
func (r *LedgerRepository) AppendTransaction(ctx context.Context, q repository.DBExecutor, tx *domain.Transaction) error {
	if tx.Hash == "" || tx.PreviousHash == "" {
		return fmt.Errorf("refusing to append unsealed transaction %s: %w", tx.ID, util.ErrCorruptRecord)
	}
	query := `INSERT INTO ledger_transactions (id, wallet_id, member_id, type, amount, description,
              related_loan_id, related_contribution_id, previous_hash, hash, transaction_time, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := q.ExecContext(ctx, query,
		tx.ID,
		tx.WalletID,
		tx.MemberID,
		tx.Type,
		tx.Amount,
		tx.Description,
		tx.RelatedLoanID,
		tx.RelatedContributionID,
		tx.PreviousHash,
		tx.Hash,
		tx.TransactionTime,
		tx.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append transaction %s: %w", tx.ID, err)
	}
	return nil
}

// GetWalletChainHead returns the most recent entry of a wallet's chain, or
// nil if the chain is empty.
func (r *LedgerRepository) GetWalletChainHead(ctx context.Context, q repository.DBExecutor, walletID int64) (*domain.Transaction, error) {
	var tx domain.Transaction
	query := `SELECT ` + ledgerColumns + `
              FROM ledger_transactions WHERE wallet_id = $1
              ORDER BY transaction_time DESC, created_at DESC LIMIT 1`
	err := q.GetContext(ctx, &tx, query, walletID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get chain head for wallet %d: %w", walletID, err)
	}
	return &tx, nil
}

// GetPersonalChainHead returns the most recent personal-ledger entry, scoped
// to one member or to the whole ledger when memberID is nil.
func (r *LedgerRepository) GetPersonalChainHead(ctx context.Context, q repository.DBExecutor, memberID *int64) (*domain.Transaction, error) {
	var tx domain.Transaction
	var err error
	if memberID != nil {
		query := `SELECT ` + ledgerColumns + `
              FROM ledger_transactions WHERE wallet_id IS NULL AND member_id = $1
              ORDER BY transaction_time DESC, created_at DESC LIMIT 1`
		err = q.GetContext(ctx, &tx, query, *memberID)
	} else {
		query := `SELECT ` + ledgerColumns + `
              FROM ledger_transactions WHERE wallet_id IS NULL
              ORDER BY transaction_time DESC, created_at DESC LIMIT 1`
		err = q.GetContext(ctx, &tx, query)
	}
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get personal chain head: %w", err)
	}
	return &tx, nil
}

// GetWalletChain returns a wallet's full chain in timestamp order.
func (r *LedgerRepository) GetWalletChain(ctx context.Context, q repository.DBExecutor, walletID int64) ([]domain.Transaction, error) {
	txs := []domain.Transaction{}
	query := `SELECT ` + ledgerColumns + `
              FROM ledger_transactions WHERE wallet_id = $1
              ORDER BY transaction_time ASC, created_at ASC`
	if err := q.SelectContext(ctx, &txs, query, walletID); err != nil {
		return nil, fmt.Errorf("failed to get chain for wallet %d: %w", walletID, err)
	}
	return txs, nil
}

// GetPersonalChain returns personal-ledger entries in timestamp order.
func (r *LedgerRepository) GetPersonalChain(ctx context.Context, q repository.DBExecutor, memberID *int64) ([]domain.Transaction, error) {
	txs := []domain.Transaction{}
	if memberID != nil {
		query := `SELECT ` + ledgerColumns + `
              FROM ledger_transactions WHERE wallet_id IS NULL AND member_id = $1
              ORDER BY transaction_time ASC, created_at ASC`
		if err := q.SelectContext(ctx, &txs, query, *memberID); err != nil {
			return nil, fmt.Errorf("failed to get personal chain for member %d: %w", *memberID, err)
		}
		return txs, nil
	}
	query := `SELECT ` + ledgerColumns + `
              FROM ledger_transactions WHERE wallet_id IS NULL
              ORDER BY transaction_time ASC, created_at ASC`
	if err := q.SelectContext(ctx, &txs, query); err != nil {
		return nil, fmt.Errorf("failed to get personal chain: %w", err)
	}
	return txs, nil
}

// GetTransactionsByWalletID retrieves a page of a wallet's history plus the
// total count, newest first.
func (r *LedgerRepository) GetTransactionsByWalletID(ctx context.Context, q repository.DBExecutor, walletID int64, limit, offset int) ([]domain.Transaction, int64, error) {
	txs := []domain.Transaction{}
	query := `SELECT ` + ledgerColumns + `
              FROM ledger_transactions WHERE wallet_id = $1
              ORDER BY transaction_time DESC, created_at DESC
              LIMIT $2 OFFSET $3`
	if err := q.SelectContext(ctx, &txs, query, walletID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to fetch transactions for wallet %d: %w", walletID, err)
	}

	var totalCount int64
	countQuery := `SELECT COUNT(*) FROM ledger_transactions WHERE wallet_id = $1`
	if err := q.GetContext(ctx, &totalCount, countQuery, walletID); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions for wallet %d: %w", walletID, err)
	}
	return txs, totalCount, nil
}

// GetPersonalTransactions retrieves a page of a member's personal history
// plus the total count, newest first.
func (r *LedgerRepository) GetPersonalTransactions(ctx context.Context, q repository.DBExecutor, memberID int64, limit, offset int) ([]domain.Transaction, int64, error) {
	txs := []domain.Transaction{}
	query := `SELECT ` + ledgerColumns + `
              FROM ledger_transactions WHERE wallet_id IS NULL AND member_id = $1
              ORDER BY transaction_time DESC, created_at DESC
              LIMIT $2 OFFSET $3`
	if err := q.SelectContext(ctx, &txs, query, memberID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to fetch personal transactions for member %d: %w", memberID, err)
	}

	var totalCount int64
	countQuery := `SELECT COUNT(*) FROM ledger_transactions WHERE wallet_id IS NULL AND member_id = $1`
	if err := q.GetContext(ctx, &totalCount, countQuery, memberID); err != nil {
		return nil, 0, fmt.Errorf("failed to count personal transactions for member %d: %w", memberID, err)
	}
	return txs, totalCount, nil
}

// GetNetContribution returns a member's lifetime contributions to a wallet
// net of their prior member-level withdrawals. Contributions are positive,
// withdrawals negative, so the signed sum is the net directly.
func (r *LedgerRepository) GetNetContribution(ctx context.Context, q repository.DBExecutor, walletID, memberID int64) (decimal.Decimal, error) {
	var net decimal.Decimal
	query := `SELECT COALESCE(SUM(amount), 0) FROM ledger_transactions
              WHERE wallet_id = $1 AND member_id = $2 AND type IN ($3, $4)`
	err := q.GetContext(ctx, &net, query, walletID, memberID,
		domain.TransactionTypeContribution, domain.TransactionTypeGroupWithdrawal)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to compute net contribution of member %d in wallet %d: %w", memberID, walletID, err)
	}
	return net, nil
}
