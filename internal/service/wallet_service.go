// internal/service/wallet_service.go
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

// WalletService defines the group wallet engine. Every mutating operation
// appends exactly one entry to the wallet's hash chain and updates the cached
// balance by the entry's signed amount within a single store transaction.
type WalletService interface {
	CreateWallet(ctx context.Context, name, tokenSymbol string, creatorID int64) (*domain.GroupWallet, error)
	Contribute(ctx context.Context, walletID, memberID int64, amount decimal.Decimal, description string) (*domain.Transaction, error)
	AddMember(ctx context.Context, walletID, memberID int64) error
	WithdrawNetContributions(ctx context.Context, walletID, memberID int64, amount decimal.Decimal) (*domain.Transaction, error)
	GetWallet(ctx context.Context, walletID int64) (*domain.GroupWallet, error)
	GetTransactionHistory(ctx context.Context, walletID int64, limit, offset int) ([]domain.Transaction, int64, error)
	VerifyWalletChain(ctx context.Context, walletID int64) error
}

// walletService implements the WalletService interface.
type walletService struct {
	dbBeginner db.DBTxBeginner
	dbExecutor repository.DBExecutor
	walletRepo repository.WalletRepository
	ledgerRepo repository.LedgerRepository
	memberRepo repository.MemberRepository
	beginTx    db.BeginTxFunc
	commitTx   db.CommitTxFunc
	rollbackTx db.RollbackTxFunc
	chainScope config.PersonalChainScope
}

// NewWalletService creates a new instance of WalletService.
func NewWalletService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	walletRepo repository.WalletRepository,
	ledgerRepo repository.LedgerRepository,
	memberRepo repository.MemberRepository,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
	chainScope config.PersonalChainScope,
) WalletService {
	return &walletService{
		dbBeginner: dbBeginner,
		dbExecutor: dbExecutor,
		walletRepo: walletRepo,
		ledgerRepo: ledgerRepo,
		memberRepo: memberRepo,
		beginTx:    beginTx,
		commitTx:   commitTx,
		rollbackTx: rollbackTx,
		chainScope: chainScope,
	}
}

// CreateWallet creates a group wallet with the creator as its first member
// and a zero-amount genesis entry opening the wallet's chain.
func (s *walletService) CreateWallet(ctx context.Context, name, tokenSymbol string, creatorID int64) (*domain.GroupWallet, error) {
	if name == "" {
		return nil, fmt.Errorf("create wallet: empty name: %w", util.ErrInvalidInput)
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("create wallet: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("create wallet: transaction controller does not implement DBExecutor")
	}

	if _, err := s.memberRepo.GetMemberByID(ctx, txExecutor, creatorID); err != nil {
		return nil, fmt.Errorf("create wallet: failed to get creator %d: %w", creatorID, err)
	}

	wallet := domain.NewGroupWallet(name, tokenSymbol, creatorID)
	if err := s.walletRepo.CreateWallet(ctx, txExecutor, wallet); err != nil {
		return nil, fmt.Errorf("create wallet: %w", err)
	}
	if err := s.walletRepo.AddMember(ctx, txExecutor, wallet.ID, creatorID, wallet.CreatedAt); err != nil {
		return nil, fmt.Errorf("create wallet: failed to add creator: %w", err)
	}

	genesis := domain.NewTransaction(&wallet.ID, &creatorID, domain.TransactionTypeWalletCreation, decimal.Zero, "wallet created: "+name)
	if err := appendToWalletChain(ctx, txExecutor, s.ledgerRepo, wallet.ID, genesis); err != nil {
		return nil, fmt.Errorf("create wallet: failed to append genesis entry: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("create wallet: failed to commit transaction: %w", err)
	}
	return wallet, nil
}

// Contribute adds a member's deposit to the wallet. The contributor's
// personal funds coverage is the caller's concern; this operation only
// requires membership and a positive amount.
func (s *walletService) Contribute(ctx context.Context, walletID, memberID int64, amount decimal.Decimal, description string) (*domain.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, util.ErrInvalidAmount
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("contribute: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("contribute: transaction controller does not implement DBExecutor")
	}

	wallet, err := s.walletRepo.GetWalletByIDForUpdate(ctx, txExecutor, walletID)
	if err != nil {
		return nil, fmt.Errorf("contribute: failed to get wallet %d: %w", walletID, err)
	}

	isMember, err := s.walletRepo.IsMember(ctx, txExecutor, wallet.ID, memberID)
	if err != nil {
		return nil, fmt.Errorf("contribute: %w", err)
	}
	if !isMember {
		return nil, util.ErrNotAMember
	}

	entry := domain.NewTransaction(&wallet.ID, &memberID, domain.TransactionTypeContribution, amount, description)
	if err := appendToWalletChain(ctx, txExecutor, s.ledgerRepo, wallet.ID, entry); err != nil {
		return nil, fmt.Errorf("contribute: %w", err)
	}
	if err := s.walletRepo.UpdateWalletBalance(ctx, txExecutor, wallet.ID, amount); err != nil {
		return nil, fmt.Errorf("contribute: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("contribute: failed to commit transaction: %w", err)
	}
	return entry, nil
}

// AddMember adds a member to the wallet with a zero-amount join entry.
// Idempotent: adding an existing member is a no-op, not an error.
func (s *walletService) AddMember(ctx context.Context, walletID, memberID int64) error {
	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return fmt.Errorf("add member: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return fmt.Errorf("add member: transaction controller does not implement DBExecutor")
	}

	wallet, err := s.walletRepo.GetWalletByIDForUpdate(ctx, txExecutor, walletID)
	if err != nil {
		return fmt.Errorf("add member: failed to get wallet %d: %w", walletID, err)
	}
	member, err := s.memberRepo.GetMemberByID(ctx, txExecutor, memberID)
	if err != nil {
		return fmt.Errorf("add member: failed to get member %d: %w", memberID, err)
	}

	isMember, err := s.walletRepo.IsMember(ctx, txExecutor, wallet.ID, member.ID)
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	if isMember {
		return nil
	}

	entry := domain.NewTransaction(&wallet.ID, &member.ID, domain.TransactionTypeMemberJoin, decimal.Zero, member.Username+" joined")
	if err := s.walletRepo.AddMember(ctx, txExecutor, wallet.ID, member.ID, entry.TransactionTime); err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	if err := appendToWalletChain(ctx, txExecutor, s.ledgerRepo, wallet.ID, entry); err != nil {
		return fmt.Errorf("add member: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return fmt.Errorf("add member: failed to commit transaction: %w", err)
	}
	return nil
}

// WithdrawNetContributions lets a member take back up to their lifetime
// contributions net of prior withdrawals. The withdrawn amount leaves the
// wallet chain as a group_withdrawal and lands on the member's personal
// ledger as a personal_deposit.
func (s *walletService) WithdrawNetContributions(ctx context.Context, walletID, memberID int64, amount decimal.Decimal) (*domain.Transaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, util.ErrInvalidAmount
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("withdraw contributions: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("withdraw contributions: transaction controller does not implement DBExecutor")
	}

	wallet, err := s.walletRepo.GetWalletByIDForUpdate(ctx, txExecutor, walletID)
	if err != nil {
		return nil, fmt.Errorf("withdraw contributions: failed to get wallet %d: %w", walletID, err)
	}

	isMember, err := s.walletRepo.IsMember(ctx, txExecutor, wallet.ID, memberID)
	if err != nil {
		return nil, fmt.Errorf("withdraw contributions: %w", err)
	}
	if !isMember {
		return nil, util.ErrNotAMember
	}

	net, err := s.ledgerRepo.GetNetContribution(ctx, txExecutor, wallet.ID, memberID)
	if err != nil {
		return nil, fmt.Errorf("withdraw contributions: %w", err)
	}
	if amount.GreaterThan(net) {
		return nil, util.ErrExceedsNetContribution
	}
	if amount.GreaterThan(wallet.Balance) {
		return nil, util.ErrExceedsWalletBalance
	}

	entry := domain.NewTransaction(&wallet.ID, &memberID, domain.TransactionTypeGroupWithdrawal, amount.Neg(), "contribution withdrawal")
	if err := appendToWalletChain(ctx, txExecutor, s.ledgerRepo, wallet.ID, entry); err != nil {
		return nil, fmt.Errorf("withdraw contributions: %w", err)
	}
	if err := s.walletRepo.UpdateWalletBalance(ctx, txExecutor, wallet.ID, amount.Neg()); err != nil {
		return nil, fmt.Errorf("withdraw contributions: %w", err)
	}

	credit := domain.NewTransaction(nil, &memberID, domain.TransactionTypePersonalDeposit, amount, "contribution withdrawal from wallet "+wallet.Name)
	if err := appendToPersonalChain(ctx, txExecutor, s.ledgerRepo, personalScope(s.chainScope, memberID), credit); err != nil {
		return nil, fmt.Errorf("withdraw contributions: %w", err)
	}
	if err := s.memberRepo.AdjustPersonalBalance(ctx, txExecutor, memberID, amount); err != nil {
		return nil, fmt.Errorf("withdraw contributions: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("withdraw contributions: failed to commit transaction: %w", err)
	}
	return entry, nil
}

// GetWallet returns a wallet by id.
func (s *walletService) GetWallet(ctx context.Context, walletID int64) (*domain.GroupWallet, error) {
	wallet, err := s.walletRepo.GetWalletByID(ctx, s.dbExecutor, walletID)
	if err != nil {
		return nil, fmt.Errorf("get wallet: failed to get wallet %d: %w", walletID, err)
	}
	wallet.MemberIDs, err = s.walletRepo.ListMemberIDs(ctx, s.dbExecutor, walletID)
	if err != nil {
		return nil, fmt.Errorf("get wallet: failed to list members of wallet %d: %w", walletID, err)
	}
	return wallet, nil
}

// GetTransactionHistory retrieves a page of a wallet's ledger, newest first.
func (s *walletService) GetTransactionHistory(ctx context.Context, walletID int64, limit, offset int) ([]domain.Transaction, int64, error) {
	if _, err := s.walletRepo.GetWalletByID(ctx, s.dbExecutor, walletID); err != nil {
		return nil, 0, fmt.Errorf("get history: failed to get wallet %d: %w", walletID, err)
	}
	txs, total, err := s.ledgerRepo.GetTransactionsByWalletID(ctx, s.dbExecutor, walletID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("get history: %w", err)
	}
	return txs, total, nil
}

// VerifyWalletChain audits a wallet: every entry must chain off its
// predecessor with a matching hash, and the cached balance must equal the sum
// of all entry amounts.
func (s *walletService) VerifyWalletChain(ctx context.Context, walletID int64) error {
	wallet, err := s.walletRepo.GetWalletByID(ctx, s.dbExecutor, walletID)
	if err != nil {
		return fmt.Errorf("verify chain: failed to get wallet %d: %w", walletID, err)
	}
	chain, err := s.ledgerRepo.GetWalletChain(ctx, s.dbExecutor, walletID)
	if err != nil {
		return fmt.Errorf("verify chain: %w", err)
	}
	if err := verifyChain(chain); err != nil {
		return fmt.Errorf("verify chain: wallet %d: %w", walletID, err)
	}

	sum := decimal.Zero
	for i := range chain {
		sum = sum.Add(chain[i].Amount)
	}
	if !sum.Equal(wallet.Balance) {
		return fmt.Errorf("verify chain: wallet %d balance %s diverges from ledger sum %s: %w",
			walletID, wallet.Balance, sum, util.ErrCorruptRecord)
	}
	return nil
}
