// internal/repository/ledger_repo.go
package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"sacco-ledger/internal/domain"
)

// LedgerRepository defines the interface for the append-only transaction
// store. Entries are inserted once and never updated or deleted.
type LedgerRepository interface {
	// AppendTransaction inserts a sealed transaction.
	AppendTransaction(ctx context.Context, q DBExecutor, tx *domain.Transaction) error
	// GetWalletChainHead returns the most recent entry of a wallet's chain,
	// or nil if the chain is empty.
	GetWalletChainHead(ctx context.Context, q DBExecutor, walletID int64) (*domain.Transaction, error)
	// GetPersonalChainHead returns the most recent personal-ledger entry.
	// With a member id the lookup is scoped to that member's chain; with nil
	// it spans the whole personal ledger (the global chain scope).
	GetPersonalChainHead(ctx context.Context, q DBExecutor, memberID *int64) (*domain.Transaction, error)
	// GetWalletChain returns a wallet's full chain in timestamp order.
	GetWalletChain(ctx context.Context, q DBExecutor, walletID int64) ([]domain.Transaction, error)
	// GetPersonalChain returns personal-ledger entries in timestamp order,
	// scoped per member or globally as for GetPersonalChainHead.
	GetPersonalChain(ctx context.Context, q DBExecutor, memberID *int64) ([]domain.Transaction, error)
	// GetTransactionsByWalletID retrieves a page of a wallet's history plus
	// the total count, newest first.
	GetTransactionsByWalletID(ctx context.Context, q DBExecutor, walletID int64, limit, offset int) ([]domain.Transaction, int64, error)
	// GetPersonalTransactions retrieves a page of a member's personal history
	// plus the total count, newest first.
	GetPersonalTransactions(ctx context.Context, q DBExecutor, memberID int64, limit, offset int) ([]domain.Transaction, int64, error)
	// GetNetContribution returns a member's lifetime contributions to a wallet
	// minus their prior member-level withdrawals from it.
	GetNetContribution(ctx context.Context, q DBExecutor, walletID, memberID int64) (decimal.Decimal, error)
}
