// internal/repository/postgres/wallet_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"sacco-ledger/internal/domain"
	"sacco-ledger/internal/repository"
	"sacco-ledger/internal/util"
)

// WalletRepository implements repository.WalletRepository for PostgreSQL.
type WalletRepository struct{}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(db *sqlx.DB) repository.WalletRepository {
	return &WalletRepository{}
}

// CreateWallet inserts a new group wallet using the provided DBExecutor.
func (r *WalletRepository) CreateWallet(ctx context.Context, q repository.DBExecutor, wallet *domain.GroupWallet) error {
	query := `INSERT INTO group_wallets (name, token_symbol, balance, creator_id, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		wallet.Name,
		wallet.TokenSymbol,
		wallet.Balance,
		wallet.CreatorID,
		wallet.CreatedAt,
		wallet.UpdatedAt,
	).Scan(&wallet.ID)
	if err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

// GetWalletByID retrieves a wallet by id using the provided DBExecutor.
func (r *WalletRepository) GetWalletByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.GroupWallet, error) {
	return r.getWallet(ctx, q, id, false)
}

// GetWalletByIDForUpdate retrieves a wallet by id with a row lock. The lock
// serializes every chain append against the wallet, which is what keeps two
// concurrent writers from sealing entries off the same chain head.
func (r *WalletRepository) GetWalletByIDForUpdate(ctx context.Context, q repository.DBExecutor, id int64) (*domain.GroupWallet, error) {
	return r.getWallet(ctx, q, id, true)
}

func (r *WalletRepository) getWallet(ctx context.Context, q repository.DBExecutor, id int64, forUpdate bool) (*domain.GroupWallet, error) {
	var wallet domain.GroupWallet
	query := `SELECT id, name, token_symbol, balance, creator_id, created_at, updated_at
              FROM group_wallets WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	err := q.GetContext(ctx, &wallet, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get wallet by ID %d: %w", id, err)
	}
	return &wallet, nil
}

// UpdateWalletBalance applies a signed delta to the wallet's cached balance.
func (r *WalletRepository) UpdateWalletBalance(ctx context.Context, q repository.DBExecutor, walletID int64, delta decimal.Decimal) error {
	query := `UPDATE group_wallets SET balance = balance + $1, updated_at = $2 WHERE id = $3`
	result, err := q.ExecContext(ctx, query, delta, time.Now().UTC(), walletID)
	if err != nil {
		return fmt.Errorf("failed to update wallet balance for ID %d: %w", walletID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected after updating wallet %d: %w", walletID, err)
	}
	if rowsAffected == 0 {
		return util.ErrNotFound
	}
	return nil
}

// AddMember records wallet membership.
func (r *WalletRepository) AddMember(ctx context.Context, q repository.DBExecutor, walletID, memberID int64, joinedAt time.Time) error {
	query := `INSERT INTO wallet_members (wallet_id, member_id, joined_at) VALUES ($1, $2, $3)`
	if _, err := q.ExecContext(ctx, query, walletID, memberID, joinedAt); err != nil {
		return fmt.Errorf("failed to add member %d to wallet %d: %w", memberID, walletID, err)
	}
	return nil
}

// IsMember reports whether memberID belongs to walletID.
func (r *WalletRepository) IsMember(ctx context.Context, q repository.DBExecutor, walletID, memberID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM wallet_members WHERE wallet_id = $1 AND member_id = $2)`
	if err := q.GetContext(ctx, &exists, query, walletID, memberID); err != nil {
		return false, fmt.Errorf("failed to check membership of member %d in wallet %d: %w", memberID, walletID, err)
	}
	return exists, nil
}

// CountMembers returns the wallet's member count.
func (r *WalletRepository) CountMembers(ctx context.Context, q repository.DBExecutor, walletID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM wallet_members WHERE wallet_id = $1`
	if err := q.GetContext(ctx, &count, query, walletID); err != nil {
		return 0, fmt.Errorf("failed to count members of wallet %d: %w", walletID, err)
	}
	return count, nil
}

// ListMemberIDs returns all member ids of the wallet.
func (r *WalletRepository) ListMemberIDs(ctx context.Context, q repository.DBExecutor, walletID int64) ([]int64, error) {
	ids := []int64{}
	query := `SELECT member_id FROM wallet_members WHERE wallet_id = $1 ORDER BY joined_at`
	if err := q.SelectContext(ctx, &ids, query, walletID); err != nil {
		return nil, fmt.Errorf("failed to list members of wallet %d: %w", walletID, err)
	}
	return ids, nil
}
