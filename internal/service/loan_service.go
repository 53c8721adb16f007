// internal/service/loan_service.go
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"sacco-ledger/internal/domain"
	"sacco-ledger/internal/metrics"
	"sacco-ledger/internal/repository"
	"sacco-ledger/internal/util"
	"sacco-ledger/pkg/db"
)

// LoanService defines the loan engine: proposal creation, member voting with
// quorum-triggered disbursement, and repayment processing. Votes and their
// consequences (including disbursement) are always applied within one store
// transaction; lock order is loan first, then wallet.
type LoanService interface {
	CreateLoanProposal(ctx context.Context, walletID, borrowerID int64, amount, annualRate decimal.Decimal, termMonths int, purpose string) (string, error)
	CastVote(ctx context.Context, loanID string, voterID int64, choice domain.VoteChoice) (*domain.Loan, error)
	ProcessRepayment(ctx context.Context, loanID string, payerID int64, amount decimal.Decimal) (*domain.Loan, error)
	MarkDefaulted(ctx context.Context, loanID string, actorID int64) error
	GetLoan(ctx context.Context, loanID string) (*domain.Loan, error)
	ListWalletLoans(ctx context.Context, walletID int64) ([]domain.Loan, error)
}

// loanService implements the LoanService interface.
type loanService struct {
	dbBeginner db.DBTxBeginner
	dbExecutor repository.DBExecutor
	loanRepo   repository.LoanRepository
	walletRepo repository.WalletRepository
	ledgerRepo repository.LedgerRepository
	memberRepo repository.MemberRepository
	beginTx    db.BeginTxFunc
	commitTx   db.CommitTxFunc
	rollbackTx db.RollbackTxFunc
}

// NewLoanService creates a new instance of LoanService.
func NewLoanService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	loanRepo repository.LoanRepository,
	walletRepo repository.WalletRepository,
	ledgerRepo repository.LedgerRepository,
	memberRepo repository.MemberRepository,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
) LoanService {
	return &loanService{
		dbBeginner: dbBeginner,
		dbExecutor: dbExecutor,
		loanRepo:   loanRepo,
		walletRepo: walletRepo,
		ledgerRepo: ledgerRepo,
		memberRepo: memberRepo,
		beginTx:    beginTx,
		commitTx:   commitTx,
		rollbackTx: rollbackTx,
	}
}

// CreateLoanProposal opens a loan request for voting and returns its id.
func (s *loanService) CreateLoanProposal(ctx context.Context, walletID, borrowerID int64, amount, annualRate decimal.Decimal, termMonths int, purpose string) (string, error) {
	loan, err := domain.NewLoan(walletID, borrowerID, amount, annualRate, termMonths, purpose)
	if err != nil {
		return "", err
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return "", fmt.Errorf("create loan: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return "", fmt.Errorf("create loan: transaction controller does not implement DBExecutor")
	}

	if _, err := s.walletRepo.GetWalletByID(ctx, txExecutor, walletID); err != nil {
		return "", fmt.Errorf("create loan: failed to get wallet %d: %w", walletID, err)
	}
	isMember, err := s.walletRepo.IsMember(ctx, txExecutor, walletID, borrowerID)
	if err != nil {
		return "", fmt.Errorf("create loan: %w", err)
	}
	if !isMember {
		return "", util.ErrNotAMember
	}

	if err := s.loanRepo.CreateLoan(ctx, txExecutor, loan); err != nil {
		return "", fmt.Errorf("create loan: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return "", fmt.Errorf("create loan: failed to commit transaction: %w", err)
	}
	return loan.ID, nil
}

// CastVote records a member's vote on a loan and, in the same store
// transaction, applies whatever the new tally implies: nothing yet, rejection,
// or approval with disbursement. A quorum that cannot be honored for lack of
// funds still keeps the vote committed; only the disbursement is abandoned and
// the loan flips to rejected.
func (s *loanService) CastVote(ctx context.Context, loanID string, voterID int64, choice domain.VoteChoice) (*domain.Loan, error) {
	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("cast vote: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("cast vote: transaction controller does not implement DBExecutor")
	}

	loan, err := s.loanRepo.GetLoanByIDForUpdate(ctx, txExecutor, loanID)
	if err != nil {
		return nil, fmt.Errorf("cast vote: failed to get loan %s: %w", loanID, err)
	}
	if loan.Status != domain.LoanStatusVoting {
		return nil, util.ErrNotVotingPhase
	}

	wallet, err := s.walletRepo.GetWalletByIDForUpdate(ctx, txExecutor, loan.WalletID)
	if err != nil {
		return nil, fmt.Errorf("cast vote: failed to get wallet %d: %w", loan.WalletID, err)
	}

	isMember, err := s.walletRepo.IsMember(ctx, txExecutor, wallet.ID, voterID)
	if err != nil {
		return nil, fmt.Errorf("cast vote: %w", err)
	}
	if !isMember {
		return nil, util.ErrNotAMember
	}

	if err := loan.Tally.Record(voterID, choice); err != nil {
		return nil, err
	}
	metrics.VotesCastTotal.WithLabelValues("loan", string(choice)).Inc()

	memberCount, err := s.walletRepo.CountMembers(ctx, txExecutor, wallet.ID)
	if err != nil {
		return nil, fmt.Errorf("cast vote: %w", err)
	}
	rules := domain.QuorumRules{TotalVoters: memberCount}

	switch rules.Outcome(loan.Tally) {
	case domain.VoteApproved:
		if err := s.approve(ctx, txExecutor, loan, wallet); err != nil {
			return nil, fmt.Errorf("cast vote: %w", err)
		}
	case domain.VoteRejected:
		loan.Status = domain.LoanStatusRejected
		metrics.LoansDecidedTotal.WithLabelValues("rejected").Inc()
	}

	if err := s.loanRepo.UpdateLoanVoting(ctx, txExecutor, loan); err != nil {
		return nil, fmt.Errorf("cast vote: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("cast vote: failed to commit transaction: %w", err)
	}
	return loan, nil
}

// approve is the quorum-triggered transition. It runs inside the voting
// transaction: the vote that reached quorum and the disbursement it triggers
// commit or abort together. Insufficient funds is not an abort: the loan is
// rejected instead, preserving the record that quorum was reached.
func (s *loanService) approve(ctx context.Context, q repository.DBExecutor, loan *domain.Loan, wallet *domain.GroupWallet) error {
	if wallet.Balance.LessThan(loan.Amount) {
		loan.Status = domain.LoanStatusRejected
		metrics.LoansDecidedTotal.WithLabelValues("rejected_insufficient_funds").Inc()
		return nil
	}

	now := time.Now().UTC()
	loan.Status = domain.LoanStatusActive
	loan.ApprovalDate = &now

	entry := domain.NewTransaction(&wallet.ID, &loan.BorrowerID, domain.TransactionTypeLoanDisbursement, loan.Amount.Neg(), "loan disbursement: "+loan.Purpose)
	entry.RelatedLoanID = &loan.ID
	if err := appendToWalletChain(ctx, q, s.ledgerRepo, wallet.ID, entry); err != nil {
		return err
	}
	if err := s.walletRepo.UpdateWalletBalance(ctx, q, wallet.ID, loan.Amount.Neg()); err != nil {
		return err
	}

	loan.Schedule = loan.GenerateSchedule(now)
	if err := s.loanRepo.CreateRepayments(ctx, q, loan.Schedule); err != nil {
		return err
	}

	metrics.LoansDecidedTotal.WithLabelValues("approved").Inc()
	return nil
}

// ProcessRepayment applies a payment across the loan's schedule in due-date
// order and credits the wallet in the same store transaction.
func (s *loanService) ProcessRepayment(ctx context.Context, loanID string, payerID int64, amount decimal.Decimal) (*domain.Loan, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, util.ErrInvalidAmount
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, fmt.Errorf("process repayment: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("process repayment: transaction controller does not implement DBExecutor")
	}

	loan, err := s.loanRepo.GetLoanByIDForUpdate(ctx, txExecutor, loanID)
	if err != nil {
		return nil, fmt.Errorf("process repayment: failed to get loan %s: %w", loanID, err)
	}
	if loan.Status != domain.LoanStatusActive {
		return nil, util.ErrLoanNotActive
	}

	remaining := loan.RemainingBalance()
	if amount.GreaterThan(remaining.Add(domain.OverpaymentTolerance)) {
		return nil, util.ErrOverpaymentRejected
	}

	loan.Schedule, err = s.loanRepo.GetRepaymentsByLoanID(ctx, txExecutor, loanID)
	if err != nil {
		return nil, fmt.Errorf("process repayment: %w", err)
	}

	now := time.Now().UTC()
	loan.ApplyRepayment(amount, now)

	wallet, err := s.walletRepo.GetWalletByIDForUpdate(ctx, txExecutor, loan.WalletID)
	if err != nil {
		return nil, fmt.Errorf("process repayment: failed to get wallet %d: %w", loan.WalletID, err)
	}

	entry := domain.NewTransaction(&wallet.ID, &payerID, domain.TransactionTypeLoanRepayment, amount, "loan repayment")
	entry.RelatedLoanID = &loan.ID
	if err := appendToWalletChain(ctx, txExecutor, s.ledgerRepo, wallet.ID, entry); err != nil {
		return nil, fmt.Errorf("process repayment: %w", err)
	}
	if err := s.walletRepo.UpdateWalletBalance(ctx, txExecutor, wallet.ID, amount); err != nil {
		return nil, fmt.Errorf("process repayment: %w", err)
	}

	for i := range loan.Schedule {
		if err := s.loanRepo.UpdateRepayment(ctx, txExecutor, &loan.Schedule[i]); err != nil {
			return nil, fmt.Errorf("process repayment: %w", err)
		}
	}
	if err := s.loanRepo.UpdateLoanRepayment(ctx, txExecutor, loan); err != nil {
		return nil, fmt.Errorf("process repayment: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("process repayment: failed to commit transaction: %w", err)
	}

	metrics.LoanRepaymentsTotal.Inc()
	return loan, nil
}

// MarkDefaulted flips an active loan to defaulted. Admin-only and purely
// informational; no automated detection, no wallet mutation.
func (s *loanService) MarkDefaulted(ctx context.Context, loanID string, actorID int64) error {
	actor, err := s.memberRepo.GetMemberByID(ctx, s.dbExecutor, actorID)
	if err != nil {
		return fmt.Errorf("mark defaulted: failed to get actor %d: %w", actorID, err)
	}
	if actor.Role != domain.RoleAdmin {
		return util.ErrUnauthorized
	}

	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return fmt.Errorf("mark defaulted: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return fmt.Errorf("mark defaulted: transaction controller does not implement DBExecutor")
	}

	loan, err := s.loanRepo.GetLoanByIDForUpdate(ctx, txExecutor, loanID)
	if err != nil {
		return fmt.Errorf("mark defaulted: failed to get loan %s: %w", loanID, err)
	}
	if loan.Status != domain.LoanStatusActive {
		return util.ErrLoanNotActive
	}

	loan.Status = domain.LoanStatusDefaulted
	if err := s.loanRepo.UpdateLoanRepayment(ctx, txExecutor, loan); err != nil {
		return fmt.Errorf("mark defaulted: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return fmt.Errorf("mark defaulted: failed to commit transaction: %w", err)
	}
	return nil
}

// GetLoan returns a loan with its repayment schedule.
func (s *loanService) GetLoan(ctx context.Context, loanID string) (*domain.Loan, error) {
	loan, err := s.loanRepo.GetLoanByID(ctx, s.dbExecutor, loanID)
	if err != nil {
		return nil, fmt.Errorf("get loan: failed to get loan %s: %w", loanID, err)
	}
	loan.Schedule, err = s.loanRepo.GetRepaymentsByLoanID(ctx, s.dbExecutor, loanID)
	if err != nil {
		return nil, fmt.Errorf("get loan: %w", err)
	}
	return loan, nil
}

// ListWalletLoans returns all loans requested against a wallet.
func (s *loanService) ListWalletLoans(ctx context.Context, walletID int64) ([]domain.Loan, error) {
	loans, err := s.loanRepo.ListLoansByWalletID(ctx, s.dbExecutor, walletID)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	return loans, nil
}
