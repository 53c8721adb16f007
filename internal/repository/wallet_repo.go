// internal/repository/wallet_repo.go
package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"sacco-ledger/internal/domain"
)

// WalletRepository defines the interface for group wallet data operations.
type WalletRepository interface {
	// CreateWallet adds a new group wallet using the provided DBExecutor.
	CreateWallet(ctx context.Context, q DBExecutor, wallet *domain.GroupWallet) error
	// GetWalletByID retrieves a wallet by id.
	GetWalletByID(ctx context.Context, q DBExecutor, id int64) (*domain.GroupWallet, error)
	// GetWalletByIDForUpdate retrieves a wallet by id and locks the row.
	// Holding the wallet lock serializes chain appends and balance updates.
	GetWalletByIDForUpdate(ctx context.Context, q DBExecutor, id int64) (*domain.GroupWallet, error)
	// UpdateWalletBalance applies a signed delta to the wallet's cached balance.
	UpdateWalletBalance(ctx context.Context, q DBExecutor, walletID int64, delta decimal.Decimal) error
	// AddMember records wallet membership.
	AddMember(ctx context.Context, q DBExecutor, walletID, memberID int64, joinedAt time.Time) error
	// IsMember reports whether memberID belongs to walletID.
	IsMember(ctx context.Context, q DBExecutor, walletID, memberID int64) (bool, error)
	// CountMembers returns the wallet's member count, the quorum denominator.
	CountMembers(ctx context.Context, q DBExecutor, walletID int64) (int, error)
	// ListMemberIDs returns all member ids of the wallet.
	ListMemberIDs(ctx context.Context, q DBExecutor, walletID int64) ([]int64, error)
}
