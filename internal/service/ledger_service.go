// internal/service/ledger_service.go
package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"sacco-ledger/internal/config"
	"sacco-ledger/internal/domain"
	"sacco-ledger/internal/repository"
	"sacco-ledger/internal/util"
	"sacco-ledger/pkg/db"
)

// Advisory lock key serializing appends to the global personal chain. Only
// used when the chain scope is global; per-member chains are serialized by
// the member row lock instead.
const globalPersonalChainLockKey = int64(920681001)

// LedgerService defines the personal ledger engine: individual deposits and
// withdrawals on members' own hash chains, outside any group wallet.
type LedgerService interface {
	RegisterMember(ctx context.Context, username string, role domain.MemberRole) (*domain.Member, error)
	AddPersonalTransaction(ctx context.Context, memberID int64, txType domain.TransactionType, amount decimal.Decimal, description string) (*domain.Transaction, error)
	GetPersonalHistory(ctx context.Context, memberID int64, limit, offset int) ([]domain.Transaction, int64, error)
	VerifyPersonalChain(ctx context.Context, memberID int64) error
}

// ledgerService implements the LedgerService interface.
type ledgerService struct {
	dbBeginner db.DBTxBeginner
	dbExecutor repository.DBExecutor
	ledgerRepo repository.LedgerRepository
	memberRepo repository.MemberRepository
	beginTx    db.BeginTxFunc
	commitTx   db.CommitTxFunc
	rollbackTx db.RollbackTxFunc
	chainScope config.PersonalChainScope
}

// NewLedgerService creates a new instance of LedgerService.
func NewLedgerService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	ledgerRepo repository.LedgerRepository,
	memberRepo repository.MemberRepository,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
	chainScope config.PersonalChainScope,
) LedgerService {
	return &ledgerService{
		dbBeginner: dbBeginner,
		dbExecutor: dbExecutor,
		ledgerRepo: ledgerRepo,
		memberRepo: memberRepo,
		beginTx:    beginTx,
		commitTx:   commitTx,
		rollbackTx: rollbackTx,
		chainScope: chainScope,
	}
}

// RegisterMember creates a member account with a zero opening balance.
func (s *ledgerService) RegisterMember(ctx context.Context, username string, role domain.MemberRole) (*domain.Member, error) {
	if username == "" {
		return nil, util.ErrInvalidInput
	}
	if role == "" {
		role = domain.RoleMember
	}
	if role != domain.RoleMember && role != domain.RoleAdmin {
		return nil, util.ErrInvalidInput
	}

	member := domain.NewMember(username, role)
	if err := s.memberRepo.CreateMember(ctx, s.dbExecutor, member); err != nil {
		return nil, fmt.Errorf("register member: %w", err)
	}
	return member, nil
}

// AddPersonalTransaction appends a deposit or withdrawal to the member's
// personal chain and adjusts the cached personal balance. amount is always
// positive; the entry's sign follows the type.
func (s *ledgerService) AddPersonalTransaction(ctx context.Context, memberID int64, txType domain.TransactionType, amount decimal.Decimal, description string) (*domain.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, util.ErrInvalidAmount
	}

	var signed decimal.Decimal
	switch txType {
	case domain.TransactionTypePersonalDeposit:
		signed = amount
	case domain.TransactionTypePersonalWithdrawal:
		signed = amount.Neg()
	default:
		return nil, fmt.Errorf("personal transaction of type %q: %w", txType, util.ErrInvalidTransactionType)
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("personal transaction: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("personal transaction: transaction controller does not implement DBExecutor")
	}

	// The member row lock serializes that member's chain. The global chain
	// interleaves all members, so it needs its own serialization point.
	if s.chainScope == config.ChainScopeGlobal {
		if _, err := txExecutor.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, globalPersonalChainLockKey); err != nil {
			return nil, fmt.Errorf("personal transaction: failed to lock global chain: %w", err)
		}
	}

	member, err := s.memberRepo.GetMemberByIDForUpdate(ctx, txExecutor, memberID)
	if err != nil {
		return nil, fmt.Errorf("personal transaction: failed to get member %d: %w", memberID, err)
	}
	if txType == domain.TransactionTypePersonalWithdrawal && member.PersonalBalance.LessThan(amount) {
		return nil, util.ErrInsufficientFunds
	}

	entry := domain.NewTransaction(nil, &memberID, txType, signed, description)
	if err := appendToPersonalChain(ctx, txExecutor, s.ledgerRepo, personalScope(s.chainScope, memberID), entry); err != nil {
		return nil, fmt.Errorf("personal transaction: %w", err)
	}
	if err := s.memberRepo.AdjustPersonalBalance(ctx, txExecutor, memberID, signed); err != nil {
		return nil, fmt.Errorf("personal transaction: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("personal transaction: failed to commit transaction: %w", err)
	}
	return entry, nil
}

// GetPersonalHistory retrieves a page of a member's personal ledger, newest
// first.
func (s *ledgerService) GetPersonalHistory(ctx context.Context, memberID int64, limit, offset int) ([]domain.Transaction, int64, error) {
	if _, err := s.memberRepo.GetMemberByID(ctx, s.dbExecutor, memberID); err != nil {
		return nil, 0, fmt.Errorf("personal history: failed to get member %d: %w", memberID, err)
	}
	txs, total, err := s.ledgerRepo.GetPersonalTransactions(ctx, s.dbExecutor, memberID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("personal history: %w", err)
	}
	return txs, total, nil
}

// VerifyPersonalChain audits the chain the member's entries belong to: the
// member's own chain under per-member scope, the whole personal ledger under
// global scope.
func (s *ledgerService) VerifyPersonalChain(ctx context.Context, memberID int64) error {
	chain, err := s.ledgerRepo.GetPersonalChain(ctx, s.dbExecutor, personalScope(s.chainScope, memberID))
	if err != nil {
		return fmt.Errorf("verify personal chain: %w", err)
	}
	if err := verifyChain(chain); err != nil {
		return fmt.Errorf("verify personal chain: member %d: %w", memberID, err)
	}
	return nil
}
