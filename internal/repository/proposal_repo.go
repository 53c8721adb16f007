// internal/repository/proposal_repo.go
package repository

import (
	"context"

	"sacco-ledger/internal/domain"
)

// ProposalRepository defines the interface for withdrawal proposal data
// operations. Proposals are never deleted.
type ProposalRepository interface {
	// CreateProposal adds a new proposal in the voting state.
	CreateProposal(ctx context.Context, q DBExecutor, proposal *domain.WithdrawalProposal) error
	// GetProposalByID retrieves a proposal by id.
	GetProposalByID(ctx context.Context, q DBExecutor, id string) (*domain.WithdrawalProposal, error)
	// GetProposalByIDForUpdate retrieves a proposal by id and locks the row.
	// Engines always lock the proposal before the wallet.
	GetProposalByIDForUpdate(ctx context.Context, q DBExecutor, id string) (*domain.WithdrawalProposal, error)
	// UpdateProposalVoting persists the vote tally and status.
	UpdateProposalVoting(ctx context.Context, q DBExecutor, proposal *domain.WithdrawalProposal) error
	// UpdateProposalStatus persists a status transition and execution time.
	UpdateProposalStatus(ctx context.Context, q DBExecutor, proposal *domain.WithdrawalProposal) error
	// ListProposalsByWalletID returns all proposals for a wallet.
	ListProposalsByWalletID(ctx context.Context, q DBExecutor, walletID int64) ([]domain.WithdrawalProposal, error)
}
