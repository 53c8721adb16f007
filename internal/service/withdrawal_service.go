// internal/service/withdrawal_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"sacco-ledger/internal/config"
	"sacco-ledger/internal/domain"
	"sacco-ledger/internal/metrics"
	"sacco-ledger/internal/repository"
	"sacco-ledger/internal/util"
	"sacco-ledger/pkg/db"
)

// WithdrawalService defines the withdrawal governance engine. A wallet
// creator proposes taking funds out of the group wallet; the remaining
// members vote; an approved proposal is executed by the creator, at which
// point the balance is re-validated because approval reserves nothing.
type WithdrawalService interface {
	CreateProposal(ctx context.Context, walletID, creatorID int64, amount decimal.Decimal, reason string) (string, error)
	CastVote(ctx context.Context, proposalID string, voterID int64, choice domain.VoteChoice) (*domain.WithdrawalProposal, error)
	Execute(ctx context.Context, proposalID string, requesterID int64) (decimal.Decimal, error)
	GetProposal(ctx context.Context, proposalID string) (*domain.WithdrawalProposal, error)
	ListWalletProposals(ctx context.Context, walletID int64) ([]domain.WithdrawalProposal, error)
}

// withdrawalService implements the WithdrawalService interface.
type withdrawalService struct {
	dbBeginner   db.DBTxBeginner
	dbExecutor   repository.DBExecutor
	proposalRepo repository.ProposalRepository
	walletRepo   repository.WalletRepository
	ledgerRepo   repository.LedgerRepository
	memberRepo   repository.MemberRepository
	beginTx      db.BeginTxFunc
	commitTx     db.CommitTxFunc
	rollbackTx   db.RollbackTxFunc
	chainScope   config.PersonalChainScope
}

// NewWithdrawalService creates a new instance of WithdrawalService.
func NewWithdrawalService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	proposalRepo repository.ProposalRepository,
	walletRepo repository.WalletRepository,
	ledgerRepo repository.LedgerRepository,
	memberRepo repository.MemberRepository,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
	chainScope config.PersonalChainScope,
) WithdrawalService {
	return &withdrawalService{
		dbBeginner:   dbBeginner,
		dbExecutor:   dbExecutor,
		proposalRepo: proposalRepo,
		walletRepo:   walletRepo,
		ledgerRepo:   ledgerRepo,
		memberRepo:   memberRepo,
		beginTx:      beginTx,
		commitTx:     commitTx,
		rollbackTx:   rollbackTx,
		chainScope:   chainScope,
	}
}

// CreateProposal opens a withdrawal proposal for voting and returns its id.
// Only the wallet creator may propose. The wallet balance is deliberately not
// checked here; it is validated at execution time.
func (s *withdrawalService) CreateProposal(ctx context.Context, walletID, creatorID int64, amount decimal.Decimal, reason string) (string, error) {
	proposal, err := domain.NewWithdrawalProposal(walletID, creatorID, amount, reason)
	if err != nil {
		return "", err
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return "", fmt.Errorf("create proposal: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return "", fmt.Errorf("create proposal: transaction controller does not implement DBExecutor")
	}

	wallet, err := s.walletRepo.GetWalletByID(ctx, txExecutor, walletID)
	if err != nil {
		return "", fmt.Errorf("create proposal: failed to get wallet %d: %w", walletID, err)
	}
	if wallet.CreatorID != creatorID {
		return "", util.ErrUnauthorized
	}

	if err := s.proposalRepo.CreateProposal(ctx, txExecutor, proposal); err != nil {
		return "", fmt.Errorf("create proposal: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return "", fmt.Errorf("create proposal: failed to commit transaction: %w", err)
	}
	return proposal.ID, nil
}

// CastVote records a member's vote on a withdrawal proposal. The creator is
// excluded from the voter pool, so the quorum denominator is memberCount-1.
func (s *withdrawalService) CastVote(ctx context.Context, proposalID string, voterID int64, choice domain.VoteChoice) (*domain.WithdrawalProposal, error) {
	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("cast vote: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("cast vote: transaction controller does not implement DBExecutor")
	}

	proposal, err := s.proposalRepo.GetProposalByIDForUpdate(ctx, txExecutor, proposalID)
	if err != nil {
		return nil, fmt.Errorf("cast vote: failed to get proposal %s: %w", proposalID, err)
	}
	if proposal.Status != domain.ProposalStatusVoting {
		return nil, util.ErrNotVotingPhase
	}
	if voterID == proposal.CreatorID {
		return nil, util.ErrSelfVote
	}

	isMember, err := s.walletRepo.IsMember(ctx, txExecutor, proposal.WalletID, voterID)
	if err != nil {
		return nil, fmt.Errorf("cast vote: %w", err)
	}
	if !isMember {
		return nil, util.ErrNotAMember
	}

	if err := proposal.Tally.Record(voterID, choice); err != nil {
		return nil, err
	}
	metrics.VotesCastTotal.WithLabelValues("withdrawal", string(choice)).Inc()

	memberCount, err := s.walletRepo.CountMembers(ctx, txExecutor, proposal.WalletID)
	if err != nil {
		return nil, fmt.Errorf("cast vote: %w", err)
	}
	rules := domain.QuorumRules{TotalVoters: memberCount - 1}

	switch rules.Outcome(proposal.Tally) {
	case domain.VoteApproved:
		proposal.Status = domain.ProposalStatusApproved
	case domain.VoteRejected:
		proposal.Status = domain.ProposalStatusRejected
	}

	if err := s.proposalRepo.UpdateProposalVoting(ctx, txExecutor, proposal); err != nil {
		return nil, fmt.Errorf("cast vote: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("cast vote: failed to commit transaction: %w", err)
	}
	return proposal, nil
}

// Execute settles an approved proposal: the group wallet pays out and the
// creator's personal ledger is credited, all in one store transaction. If the
// balance no longer covers the amount, the proposal transitions to failed —
// and that transition itself is committed — before ErrInsufficientFunds is
// returned. Returns the settled amount on success.
func (s *withdrawalService) Execute(ctx context.Context, proposalID string, requesterID int64) (decimal.Decimal, error) {
	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return decimal.Zero, fmt.Errorf("execute: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return decimal.Zero, fmt.Errorf("execute: transaction controller does not implement DBExecutor")
	}

	proposal, err := s.proposalRepo.GetProposalByIDForUpdate(ctx, txExecutor, proposalID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("execute: failed to get proposal %s: %w", proposalID, err)
	}
	if requesterID != proposal.CreatorID {
		return decimal.Zero, util.ErrUnauthorized
	}
	if proposal.Status != domain.ProposalStatusApproved {
		return decimal.Zero, util.ErrProposalNotApproved
	}

	wallet, err := s.walletRepo.GetWalletByIDForUpdate(ctx, txExecutor, proposal.WalletID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("execute: failed to get wallet %d: %w", proposal.WalletID, err)
	}

	if wallet.Balance.LessThan(proposal.Amount) {
		proposal.Status = domain.ProposalStatusFailed
		if err := s.proposalRepo.UpdateProposalStatus(ctx, txExecutor, proposal); err != nil {
			return decimal.Zero, fmt.Errorf("execute: failed to mark proposal failed: %w", err)
		}
		if err := s.commitTx(txController); err != nil {
			return decimal.Zero, fmt.Errorf("execute: failed to commit failure transition: %w", err)
		}
		metrics.WithdrawalExecutionsTotal.WithLabelValues("failed").Inc()
		return decimal.Zero, util.ErrInsufficientFunds
	}

	debit := domain.NewTransaction(&wallet.ID, &proposal.CreatorID, domain.TransactionTypeGroupWithdrawal, proposal.Amount.Neg(), "group withdrawal: "+proposal.Reason)
	if err := appendToWalletChain(ctx, txExecutor, s.ledgerRepo, wallet.ID, debit); err != nil {
		return decimal.Zero, fmt.Errorf("execute: %w", err)
	}
	if err := s.walletRepo.UpdateWalletBalance(ctx, txExecutor, wallet.ID, proposal.Amount.Neg()); err != nil {
		return decimal.Zero, fmt.Errorf("execute: %w", err)
	}

	credit := domain.NewTransaction(nil, &proposal.CreatorID, domain.TransactionTypePersonalDeposit, proposal.Amount, "group withdrawal from wallet "+wallet.Name)
	if err := appendToPersonalChain(ctx, txExecutor, s.ledgerRepo, personalScope(s.chainScope, proposal.CreatorID), credit); err != nil {
		return decimal.Zero, fmt.Errorf("execute: %w", err)
	}
	if err := s.memberRepo.AdjustPersonalBalance(ctx, txExecutor, proposal.CreatorID, proposal.Amount); err != nil {
		return decimal.Zero, fmt.Errorf("execute: %w", err)
	}

	now := time.Now().UTC()
	proposal.Status = domain.ProposalStatusExecuted
	proposal.ExecutedAt = &now
	if err := s.proposalRepo.UpdateProposalStatus(ctx, txExecutor, proposal); err != nil {
		return decimal.Zero, fmt.Errorf("execute: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return decimal.Zero, fmt.Errorf("execute: failed to commit transaction: %w", err)
	}

	metrics.WithdrawalExecutionsTotal.WithLabelValues("executed").Inc()
	return proposal.Amount, nil
}

// GetProposal returns a proposal by id.
func (s *withdrawalService) GetProposal(ctx context.Context, proposalID string) (*domain.WithdrawalProposal, error) {
	proposal, err := s.proposalRepo.GetProposalByID(ctx, s.dbExecutor, proposalID)
	if err != nil {
		return nil, fmt.Errorf("get proposal: failed to get proposal %s: %w", proposalID, err)
	}
	return proposal, nil
}

// ListWalletProposals returns all proposals for a wallet.
func (s *withdrawalService) ListWalletProposals(ctx context.Context, walletID int64) ([]domain.WithdrawalProposal, error) {
	proposals, err := s.proposalRepo.ListProposalsByWalletID(ctx, s.dbExecutor, walletID)
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	return proposals, nil
}
