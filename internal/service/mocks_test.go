// internal/service/mocks_test.go
package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"sacco-ledger/internal/domain"
	"sacco-ledger/internal/repository"
	"sacco-ledger/pkg/db"
)

// MockDBExecutor is a mock implementation of repository.DBExecutor.
type MockDBExecutor struct {
	mock.Mock
}

func (m *MockDBExecutor) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	argsCalled := m.Called(ctx, query, args)
	if argsCalled.Get(0) == nil {
		return nil, argsCalled.Error(1)
	}
	return argsCalled.Get(0).(sql.Result), argsCalled.Error(1)
}

func (m *MockDBExecutor) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	m.Called(ctx, query, args)
	return &sql.Row{}
}

// MockMemberRepository is a mock implementation of repository.MemberRepository.
type MockMemberRepository struct {
	mock.Mock
}

func (m *MockMemberRepository) CreateMember(ctx context.Context, q repository.DBExecutor, member *domain.Member) error {
	args := m.Called(ctx, q, member)
	return args.Error(0)
}

func (m *MockMemberRepository) GetMemberByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Member, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}

func (m *MockMemberRepository) GetMemberByIDForUpdate(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Member, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Member), args.Error(1)
}

func (m *MockMemberRepository) AdjustPersonalBalance(ctx context.Context, q repository.DBExecutor, memberID int64, delta decimal.Decimal) error {
	args := m.Called(ctx, q, memberID, delta)
	return args.Error(0)
}

// MockWalletRepository is a mock implementation of repository.WalletRepository.
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) CreateWallet(ctx context.Context, q repository.DBExecutor, wallet *domain.GroupWallet) error {
	args := m.Called(ctx, q, wallet)
	return args.Error(0)
}

func (m *MockWalletRepository) GetWalletByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.GroupWallet, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GroupWallet), args.Error(1)
}

func (m *MockWalletRepository) GetWalletByIDForUpdate(ctx context.Context, q repository.DBExecutor, id int64) (*domain.GroupWallet, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GroupWallet), args.Error(1)
}

func (m *MockWalletRepository) UpdateWalletBalance(ctx context.Context, q repository.DBExecutor, walletID int64, delta decimal.Decimal) error {
	args := m.Called(ctx, q, walletID, delta)
	return args.Error(0)
}

func (m *MockWalletRepository) AddMember(ctx context.Context, q repository.DBExecutor, walletID, memberID int64, joinedAt time.Time) error {
	args := m.Called(ctx, q, walletID, memberID, joinedAt)
	return args.Error(0)
}

func (m *MockWalletRepository) IsMember(ctx context.Context, q repository.DBExecutor, walletID, memberID int64) (bool, error) {
	args := m.Called(ctx, q, walletID, memberID)
	return args.Bool(0), args.Error(1)
}

func (m *MockWalletRepository) CountMembers(ctx context.Context, q repository.DBExecutor, walletID int64) (int, error) {
	args := m.Called(ctx, q, walletID)
	return args.Int(0), args.Error(1)
}

func (m *MockWalletRepository) ListMemberIDs(ctx context.Context, q repository.DBExecutor, walletID int64) ([]int64, error) {
	args := m.Called(ctx, q, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

// MockLedgerRepository is a mock implementation of repository.LedgerRepository.
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) AppendTransaction(ctx context.Context, q repository.DBExecutor, tx *domain.Transaction) error {
	args := m.Called(ctx, q, tx)
	return args.Error(0)
}

func (m *MockLedgerRepository) GetWalletChainHead(ctx context.Context, q repository.DBExecutor, walletID int64) (*domain.Transaction, error) {
	args := m.Called(ctx, q, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) GetPersonalChainHead(ctx context.Context, q repository.DBExecutor, memberID *int64) (*domain.Transaction, error) {
	args := m.Called(ctx, q, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) GetWalletChain(ctx context.Context, q repository.DBExecutor, walletID int64) ([]domain.Transaction, error) {
	args := m.Called(ctx, q, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) GetPersonalChain(ctx context.Context, q repository.DBExecutor, memberID *int64) ([]domain.Transaction, error) {
	args := m.Called(ctx, q, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) GetTransactionsByWalletID(ctx context.Context, q repository.DBExecutor, walletID int64, limit, offset int) ([]domain.Transaction, int64, error) {
	args := m.Called(ctx, q, walletID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockLedgerRepository) GetPersonalTransactions(ctx context.Context, q repository.DBExecutor, memberID int64, limit, offset int) ([]domain.Transaction, int64, error) {
	args := m.Called(ctx, q, memberID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockLedgerRepository) GetNetContribution(ctx context.Context, q repository.DBExecutor, walletID, memberID int64) (decimal.Decimal, error) {
	args := m.Called(ctx, q, walletID, memberID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// MockLoanRepository is a mock implementation of repository.LoanRepository.
type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) CreateLoan(ctx context.Context, q repository.DBExecutor, loan *domain.Loan) error {
	args := m.Called(ctx, q, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) GetLoanByID(ctx context.Context, q repository.DBExecutor, id string) (*domain.Loan, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) GetLoanByIDForUpdate(ctx context.Context, q repository.DBExecutor, id string) (*domain.Loan, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) UpdateLoanVoting(ctx context.Context, q repository.DBExecutor, loan *domain.Loan) error {
	args := m.Called(ctx, q, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) UpdateLoanRepayment(ctx context.Context, q repository.DBExecutor, loan *domain.Loan) error {
	args := m.Called(ctx, q, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) CreateRepayments(ctx context.Context, q repository.DBExecutor, schedule []domain.Repayment) error {
	args := m.Called(ctx, q, schedule)
	return args.Error(0)
}

func (m *MockLoanRepository) GetRepaymentsByLoanID(ctx context.Context, q repository.DBExecutor, loanID string) ([]domain.Repayment, error) {
	args := m.Called(ctx, q, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Repayment), args.Error(1)
}

func (m *MockLoanRepository) UpdateRepayment(ctx context.Context, q repository.DBExecutor, repayment *domain.Repayment) error {
	args := m.Called(ctx, q, repayment)
	return args.Error(0)
}

func (m *MockLoanRepository) ListLoansByWalletID(ctx context.Context, q repository.DBExecutor, walletID int64) ([]domain.Loan, error) {
	args := m.Called(ctx, q, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Loan), args.Error(1)
}

// MockProposalRepository is a mock implementation of repository.ProposalRepository.
type MockProposalRepository struct {
	mock.Mock
}

func (m *MockProposalRepository) CreateProposal(ctx context.Context, q repository.DBExecutor, proposal *domain.WithdrawalProposal) error {
	args := m.Called(ctx, q, proposal)
	return args.Error(0)
}

func (m *MockProposalRepository) GetProposalByID(ctx context.Context, q repository.DBExecutor, id string) (*domain.WithdrawalProposal, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WithdrawalProposal), args.Error(1)
}

func (m *MockProposalRepository) GetProposalByIDForUpdate(ctx context.Context, q repository.DBExecutor, id string) (*domain.WithdrawalProposal, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WithdrawalProposal), args.Error(1)
}

func (m *MockProposalRepository) UpdateProposalVoting(ctx context.Context, q repository.DBExecutor, proposal *domain.WithdrawalProposal) error {
	args := m.Called(ctx, q, proposal)
	return args.Error(0)
}

func (m *MockProposalRepository) UpdateProposalStatus(ctx context.Context, q repository.DBExecutor, proposal *domain.WithdrawalProposal) error {
	args := m.Called(ctx, q, proposal)
	return args.Error(0)
}

func (m *MockProposalRepository) ListProposalsByWalletID(ctx context.Context, q repository.DBExecutor, walletID int64) ([]domain.WithdrawalProposal, error) {
	args := m.Called(ctx, q, walletID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.WithdrawalProposal), args.Error(1)
}

// MockDBBeginner is a mock implementation of db.DBTxBeginner.
type MockDBBeginner struct {
	mock.Mock
}

func (m *MockDBBeginner) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	args := m.Called(ctx, opts)
	return &sqlx.Tx{}, args.Error(1)
}

// MockTxController is a mock implementation of db.TxController.
// It also implicitly implements repository.DBExecutor for testing purposes
// by embedding MockDBExecutor.
type MockTxController struct {
	mock.Mock
	MockDBExecutor // Embed MockDBExecutor to satisfy repository.DBExecutor interface
}

func (m *MockTxController) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTxController) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// txFuncs returns begin/commit/rollback functions routed through the given
// controller, matching the injection points the services expose.
func txFuncs(tc *MockTxController) (db.BeginTxFunc, db.CommitTxFunc, db.RollbackTxFunc) {
	begin := func(ctx context.Context, dbConn db.DBTxBeginner) (db.TxController, error) {
		return tc, nil
	}
	commit := func(tx db.TxController) error {
		return tc.Commit()
	}
	rollback := func(tx db.TxController) {
		_ = tc.Rollback()
	}
	return begin, commit, rollback
}
