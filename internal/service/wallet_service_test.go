// internal/service/wallet_service_test.go
package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"sacco-ledger/internal/config"
	"sacco-ledger/internal/domain"
	"sacco-ledger/internal/hashchain"
	"sacco-ledger/internal/util"
)

func newWalletServiceForTest(walletRepo *MockWalletRepository, ledgerRepo *MockLedgerRepository, memberRepo *MockMemberRepository, tc *MockTxController) WalletService {
	begin, commit, rollback := txFuncs(tc)
	return NewWalletService(
		new(MockDBBeginner),
		new(MockDBExecutor),
		walletRepo,
		ledgerRepo,
		memberRepo,
		begin,
		commit,
		rollback,
		config.ChainScopeMember,
	)
}

// TestContribute tests the Contribute method of WalletService.
func TestContribute(t *testing.T) {
	walletID := int64(1)
	memberID := int64(7)
	amount := decimal.NewFromFloat(250.00)

	t.Run("SuccessfulContribution", func(t *testing.T) {
		ctx := context.Background()
		mockWalletRepo := new(MockWalletRepository)
		mockLedgerRepo := new(MockLedgerRepository)
		mockMemberRepo := new(MockMemberRepository)
		mockTxController := new(MockTxController)
		service := newWalletServiceForTest(mockWalletRepo, mockLedgerRepo, mockMemberRepo, mockTxController)

		wallet := &domain.GroupWallet{ID: walletID, Name: "chama", Balance: decimal.NewFromFloat(1000.00)}

		mockTxController.On("Commit").Return(nil).Once()
		mockTxController.On("Rollback").Return(nil).Maybe()

		mockWalletRepo.On("GetWalletByIDForUpdate", ctx, mock.Anything, walletID).Return(wallet, nil).Once()
		mockWalletRepo.On("IsMember", ctx, mock.Anything, walletID, memberID).Return(true, nil).Once()
		mockLedgerRepo.On("GetWalletChainHead", ctx, mock.Anything, walletID).Return(nil, nil).Once()
		mockLedgerRepo.On("AppendTransaction", ctx, mock.Anything, mock.AnythingOfType("*domain.Transaction")).Return(nil).Once()
		mockWalletRepo.On("UpdateWalletBalance", ctx, mock.Anything, walletID, amount).Return(nil).Once()

		entry, err := service.Contribute(ctx, walletID, memberID, amount, "monthly savings")

		assert.NoError(t, err)
		assert.NotNil(t, entry)
		assert.Equal(t, domain.TransactionTypeContribution, entry.Type)
		assert.True(t, amount.Equal(entry.Amount))
		// Empty chain: the entry must chain off the genesis sentinel and be sealed.
		assert.Equal(t, hashchain.GenesisHash, entry.PreviousHash)
		assert.NotEmpty(t, entry.Hash)

		mock.AssertExpectationsForObjects(t, mockTxController, mockWalletRepo, mockLedgerRepo, mockMemberRepo)
	})

	t.Run("ChainsOffExistingHead", func(t *testing.T) {
		ctx := context.Background()
		mockWalletRepo := new(MockWalletRepository)
		mockLedgerRepo := new(MockLedgerRepository)
		mockMemberRepo := new(MockMemberRepository)
		mockTxController := new(MockTxController)
		service := newWalletServiceForTest(mockWalletRepo, mockLedgerRepo, mockMemberRepo, mockTxController)

		wallet := &domain.GroupWallet{ID: walletID, Balance: decimal.NewFromFloat(1000.00)}
		head := domain.NewTransaction(&walletID, &memberID, domain.TransactionTypeContribution, decimal.NewFromInt(100), "prior")
		head.Seal(hashchain.GenesisHash)

		mockTxController.On("Commit").Return(nil).Once()
		mockTxController.On("Rollback").Return(nil).Maybe()

		mockWalletRepo.On("GetWalletByIDForUpdate", ctx, mock.Anything, walletID).Return(wallet, nil).Once()
		mockWalletRepo.On("IsMember", ctx, mock.Anything, walletID, memberID).Return(true, nil).Once()
		mockLedgerRepo.On("GetWalletChainHead", ctx, mock.Anything, walletID).Return(head, nil).Once()
		mockLedgerRepo.On("AppendTransaction", ctx, mock.Anything, mock.AnythingOfType("*domain.Transaction")).Return(nil).Once()
		mockWalletRepo.On("UpdateWalletBalance", ctx, mock.Anything, walletID, amount).Return(nil).Once()

		entry, err := service.Contribute(ctx, walletID, memberID, amount, "")

		assert.NoError(t, err)
		assert.Equal(t, head.Hash, entry.PreviousHash)
		assert.Equal(t, hashchain.ComputeHash(entry.HashRecord()), entry.Hash)

		mock.AssertExpectationsForObjects(t, mockTxController, mockWalletRepo, mockLedgerRepo)
	})

	t.Run("InvalidAmount", func(t *testing.T) {
		ctx := context.Background()
		mockWalletRepo := new(MockWalletRepository)
		mockLedgerRepo := new(MockLedgerRepository)
		mockMemberRepo := new(MockMemberRepository)
		mockTxController := new(MockTxController)
		service := newWalletServiceForTest(mockWalletRepo, mockLedgerRepo, mockMemberRepo, mockTxController)

		entry, err := service.Contribute(ctx, walletID, memberID, decimal.NewFromFloat(-5), "")

		assert.ErrorIs(t, err, util.ErrInvalidAmount)
		assert.Nil(t, entry)
		mockTxController.AssertNotCalled(t, "Commit")
		mockTxController.AssertNotCalled(t, "Rollback")
	})

	t.Run("NotAMember", func(t *testing.T) {
		ctx := context.Background()
		mockWalletRepo := new(MockWalletRepository)
		mockLedgerRepo := new(MockLedgerRepository)
		mockMemberRepo := new(MockMemberRepository)
		mockTxController := new(MockTxController)
		service := newWalletServiceForTest(mockWalletRepo, mockLedgerRepo, mockMemberRepo, mockTxController)

		wallet := &domain.GroupWallet{ID: walletID, Balance: decimal.NewFromFloat(1000.00)}

		mockWalletRepo.On("GetWalletByIDForUpdate", ctx, mock.Anything, walletID).Return(wallet, nil).Once()
		mockWalletRepo.On("IsMember", ctx, mock.Anything, walletID, memberID).Return(false, nil).Once()
		mockTxController.On("Rollback").Return(nil).Once()

		entry, err := service.Contribute(ctx, walletID, memberID, amount, "")

		assert.ErrorIs(t, err, util.ErrNotAMember)
		assert.Nil(t, entry)
		mockTxController.AssertNotCalled(t, "Commit")
		mockLedgerRepo.AssertNotCalled(t, "AppendTransaction", mock.Anything, mock.Anything, mock.Anything)

		mock.AssertExpectationsForObjects(t, mockTxController, mockWalletRepo)
	})
}

// TestWithdrawNetContributions tests member-level withdrawals.
func TestWithdrawNetContributions(t *testing.T) {
	walletID := int64(1)
	memberID := int64(7)

	t.Run("SuccessfulWithdrawal", func(t *testing.T) {
		ctx := context.Background()
		mockWalletRepo := new(MockWalletRepository)
		mockLedgerRepo := new(MockLedgerRepository)
		mockMemberRepo := new(MockMemberRepository)
		mockTxController := new(MockTxController)
		service := newWalletServiceForTest(mockWalletRepo, mockLedgerRepo, mockMemberRepo, mockTxController)

		amount := decimal.NewFromFloat(150.00)
		wallet := &domain.GroupWallet{ID: walletID, Name: "chama", Balance: decimal.NewFromFloat(1000.00)}

		mockTxController.On("Commit").Return(nil).Once()
		mockTxController.On("Rollback").Return(nil).Maybe()

		mockWalletRepo.On("GetWalletByIDForUpdate", ctx, mock.Anything, walletID).Return(wallet, nil).Once()
		mockWalletRepo.On("IsMember", ctx, mock.Anything, walletID, memberID).Return(true, nil).Once()
		mockLedgerRepo.On("GetNetContribution", ctx, mock.Anything, walletID, memberID).Return(decimal.NewFromFloat(400.00), nil).Once()
		mockLedgerRepo.On("GetWalletChainHead", ctx, mock.Anything, walletID).Return(nil, nil).Once()
		mockLedgerRepo.On("GetPersonalChainHead", ctx, mock.Anything, &memberID).Return(nil, nil).Once()
		// One wallet-chain debit plus one personal-chain credit.
		mockLedgerRepo.On("AppendTransaction", ctx, mock.Anything, mock.AnythingOfType("*domain.Transaction")).Return(nil).Twice()
		mockWalletRepo.On("UpdateWalletBalance", ctx, mock.Anything, walletID, amount.Neg()).Return(nil).Once()
		mockMemberRepo.On("AdjustPersonalBalance", ctx, mock.Anything, memberID, amount).Return(nil).Once()

		entry, err := service.WithdrawNetContributions(ctx, walletID, memberID, amount)

		assert.NoError(t, err)
		assert.NotNil(t, entry)
		assert.Equal(t, domain.TransactionTypeGroupWithdrawal, entry.Type)
		assert.True(t, amount.Neg().Equal(entry.Amount))

		mock.AssertExpectationsForObjects(t, mockTxController, mockWalletRepo, mockLedgerRepo, mockMemberRepo)
	})

	t.Run("ExceedsNetContribution", func(t *testing.T) {
		ctx := context.Background()
		mockWalletRepo := new(MockWalletRepository)
		mockLedgerRepo := new(MockLedgerRepository)
		mockMemberRepo := new(MockMemberRepository)
		mockTxController := new(MockTxController)
		service := newWalletServiceForTest(mockWalletRepo, mockLedgerRepo, mockMemberRepo, mockTxController)

		wallet := &domain.GroupWallet{ID: walletID, Balance: decimal.NewFromFloat(1000.00)}

		mockWalletRepo.On("GetWalletByIDForUpdate", ctx, mock.Anything, walletID).Return(wallet, nil).Once()
		mockWalletRepo.On("IsMember", ctx, mock.Anything, walletID, memberID).Return(true, nil).Once()
		mockLedgerRepo.On("GetNetContribution", ctx, mock.Anything, walletID, memberID).Return(decimal.NewFromFloat(100.00), nil).Once()
		mockTxController.On("Rollback").Return(nil).Once()

		entry, err := service.WithdrawNetContributions(ctx, walletID, memberID, decimal.NewFromFloat(150.00))

		assert.ErrorIs(t, err, util.ErrExceedsNetContribution)
		assert.Nil(t, entry)
		mockTxController.AssertNotCalled(t, "Commit")
		mockLedgerRepo.AssertNotCalled(t, "AppendTransaction", mock.Anything, mock.Anything, mock.Anything)

		mock.AssertExpectationsForObjects(t, mockTxController, mockWalletRepo, mockLedgerRepo)
	})

	t.Run("ExceedsWalletBalance", func(t *testing.T) {
		ctx := context.Background()
		mockWalletRepo := new(MockWalletRepository)
		mockLedgerRepo := new(MockLedgerRepository)
		mockMemberRepo := new(MockMemberRepository)
		mockTxController := new(MockTxController)
		service := newWalletServiceForTest(mockWalletRepo, mockLedgerRepo, mockMemberRepo, mockTxController)

		// Net contribution covers the request but the pooled balance does not
		// (the rest was lent out).
		wallet := &domain.GroupWallet{ID: walletID, Balance: decimal.NewFromFloat(50.00)}

		mockWalletRepo.On("GetWalletByIDForUpdate", ctx, mock.Anything, walletID).Return(wallet, nil).Once()
		mockWalletRepo.On("IsMember", ctx, mock.Anything, walletID, memberID).Return(true, nil).Once()
		mockLedgerRepo.On("GetNetContribution", ctx, mock.Anything, walletID, memberID).Return(decimal.NewFromFloat(400.00), nil).Once()
		mockTxController.On("Rollback").Return(nil).Once()

		entry, err := service.WithdrawNetContributions(ctx, walletID, memberID, decimal.NewFromFloat(150.00))

		assert.ErrorIs(t, err, util.ErrExceedsWalletBalance)
		assert.Nil(t, entry)
		mockTxController.AssertNotCalled(t, "Commit")

		mock.AssertExpectationsForObjects(t, mockTxController, mockWalletRepo, mockLedgerRepo)
	})
}

// TestVerifyWalletChain tests the wallet audit.
func TestVerifyWalletChain(t *testing.T) {
	walletID := int64(1)
	memberID := int64(7)

	buildChain := func(amounts ...float64) []domain.Transaction {
		chain := make([]domain.Transaction, 0, len(amounts))
		previous := hashchain.GenesisHash
		for _, a := range amounts {
			tx := domain.NewTransaction(&walletID, &memberID, domain.TransactionTypeContribution, decimal.NewFromFloat(a), "entry")
			tx.Seal(previous)
			previous = tx.Hash
			chain = append(chain, *tx)
		}
		return chain
	}

	t.Run("ValidChain", func(t *testing.T) {
		ctx := context.Background()
		mockWalletRepo := new(MockWalletRepository)
		mockLedgerRepo := new(MockLedgerRepository)
		mockMemberRepo := new(MockMemberRepository)
		mockTxController := new(MockTxController)
		service := newWalletServiceForTest(mockWalletRepo, mockLedgerRepo, mockMemberRepo, mockTxController)

		chain := buildChain(100, 250, -50)
		wallet := &domain.GroupWallet{ID: walletID, Balance: decimal.NewFromFloat(300.00)}

		mockWalletRepo.On("GetWalletByID", ctx, mock.Anything, walletID).Return(wallet, nil).Once()
		mockLedgerRepo.On("GetWalletChain", ctx, mock.Anything, walletID).Return(chain, nil).Once()

		err := service.VerifyWalletChain(ctx, walletID)

		assert.NoError(t, err)
		mock.AssertExpectationsForObjects(t, mockWalletRepo, mockLedgerRepo)
	})

	t.Run("TamperedAmount", func(t *testing.T) {
		ctx := context.Background()
		mockWalletRepo := new(MockWalletRepository)
		mockLedgerRepo := new(MockLedgerRepository)
		mockMemberRepo := new(MockMemberRepository)
		mockTxController := new(MockTxController)
		service := newWalletServiceForTest(mockWalletRepo, mockLedgerRepo, mockMemberRepo, mockTxController)

		chain := buildChain(100, 250)
		chain[1].Amount = decimal.NewFromFloat(999.00) // altered after sealing
		wallet := &domain.GroupWallet{ID: walletID, Balance: decimal.NewFromFloat(350.00)}

		mockWalletRepo.On("GetWalletByID", ctx, mock.Anything, walletID).Return(wallet, nil).Once()
		mockLedgerRepo.On("GetWalletChain", ctx, mock.Anything, walletID).Return(chain, nil).Once()

		err := service.VerifyWalletChain(ctx, walletID)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "hash mismatch")
	})

	t.Run("BalanceDivergence", func(t *testing.T) {
		ctx := context.Background()
		mockWalletRepo := new(MockWalletRepository)
		mockLedgerRepo := new(MockLedgerRepository)
		mockMemberRepo := new(MockMemberRepository)
		mockTxController := new(MockTxController)
		service := newWalletServiceForTest(mockWalletRepo, mockLedgerRepo, mockMemberRepo, mockTxController)

		chain := buildChain(100, 250)
		wallet := &domain.GroupWallet{ID: walletID, Balance: decimal.NewFromFloat(9999.00)}

		mockWalletRepo.On("GetWalletByID", ctx, mock.Anything, walletID).Return(wallet, nil).Once()
		mockLedgerRepo.On("GetWalletChain", ctx, mock.Anything, walletID).Return(chain, nil).Once()

		err := service.VerifyWalletChain(ctx, walletID)

		assert.ErrorIs(t, err, util.ErrCorruptRecord)
	})
}

// TestCreateWallet tests wallet creation with its genesis entry.
func TestCreateWallet(t *testing.T) {
	creatorID := int64(3)

	t.Run("SuccessfulCreation", func(t *testing.T) {
		ctx := context.Background()
		mockWalletRepo := new(MockWalletRepository)
		mockLedgerRepo := new(MockLedgerRepository)
		mockMemberRepo := new(MockMemberRepository)
		mockTxController := new(MockTxController)
		service := newWalletServiceForTest(mockWalletRepo, mockLedgerRepo, mockMemberRepo, mockTxController)

		creator := &domain.Member{ID: creatorID, Username: "amina"}

		mockTxController.On("Commit").Return(nil).Once()
		mockTxController.On("Rollback").Return(nil).Maybe()

		mockMemberRepo.On("GetMemberByID", ctx, mock.Anything, creatorID).Return(creator, nil).Once()
		mockWalletRepo.On("CreateWallet", ctx, mock.Anything, mock.AnythingOfType("*domain.GroupWallet")).Return(nil).Once()
		mockWalletRepo.On("AddMember", ctx, mock.Anything, mock.Anything, creatorID, mock.Anything).Return(nil).Once()
		mockLedgerRepo.On("GetWalletChainHead", ctx, mock.Anything, mock.Anything).Return(nil, nil).Once()

		var genesis *domain.Transaction
		mockLedgerRepo.On("AppendTransaction", ctx, mock.Anything, mock.AnythingOfType("*domain.Transaction")).
			Run(func(args mock.Arguments) {
				genesis = args.Get(2).(*domain.Transaction)
			}).Return(nil).Once()

		wallet, err := service.CreateWallet(ctx, "village chama", "KES", creatorID)

		assert.NoError(t, err)
		assert.NotNil(t, wallet)
		assert.True(t, wallet.Balance.IsZero())
		assert.NotNil(t, genesis)
		assert.Equal(t, domain.TransactionTypeWalletCreation, genesis.Type)
		assert.True(t, genesis.Amount.IsZero())
		assert.Equal(t, hashchain.GenesisHash, genesis.PreviousHash)

		mock.AssertExpectationsForObjects(t, mockTxController, mockWalletRepo, mockLedgerRepo, mockMemberRepo)
	})

	t.Run("EmptyName", func(t *testing.T) {
		ctx := context.Background()
		mockWalletRepo := new(MockWalletRepository)
		mockLedgerRepo := new(MockLedgerRepository)
		mockMemberRepo := new(MockMemberRepository)
		mockTxController := new(MockTxController)
		service := newWalletServiceForTest(mockWalletRepo, mockLedgerRepo, mockMemberRepo, mockTxController)

		wallet, err := service.CreateWallet(ctx, "", "KES", creatorID)

		assert.ErrorIs(t, err, util.ErrInvalidInput)
		assert.Nil(t, wallet)
		mockTxController.AssertNotCalled(t, "Commit")
	})
}

// TestGetWallet tests the GetWallet method of WalletService.
func TestGetWallet(t *testing.T) {
	walletID := int64(1)

	t.Run("IncludesMembershipSet", func(t *testing.T) {
		ctx := context.Background()
		mockWalletRepo := new(MockWalletRepository)
		mockLedgerRepo := new(MockLedgerRepository)
		mockMemberRepo := new(MockMemberRepository)
		mockTxController := new(MockTxController)
		service := newWalletServiceForTest(mockWalletRepo, mockLedgerRepo, mockMemberRepo, mockTxController)

		wallet := &domain.GroupWallet{ID: walletID, Name: "chama", Balance: decimal.NewFromFloat(750.00)}
		memberIDs := []int64{3, 7, 11}

		mockWalletRepo.On("GetWalletByID", ctx, mock.Anything, walletID).Return(wallet, nil).Once()
		mockWalletRepo.On("ListMemberIDs", ctx, mock.Anything, walletID).Return(memberIDs, nil).Once()

		got, err := service.GetWallet(ctx, walletID)

		assert.NoError(t, err)
		assert.NotNil(t, got)
		assert.Equal(t, memberIDs, got.MemberIDs)
		mock.AssertExpectationsForObjects(t, mockWalletRepo)
	})

	t.Run("WalletNotFound", func(t *testing.T) {
		ctx := context.Background()
		mockWalletRepo := new(MockWalletRepository)
		mockLedgerRepo := new(MockLedgerRepository)
		mockMemberRepo := new(MockMemberRepository)
		mockTxController := new(MockTxController)
		service := newWalletServiceForTest(mockWalletRepo, mockLedgerRepo, mockMemberRepo, mockTxController)

		mockWalletRepo.On("GetWalletByID", ctx, mock.Anything, walletID).Return(nil, util.ErrNotFound).Once()

		got, err := service.GetWallet(ctx, walletID)

		assert.ErrorIs(t, err, util.ErrNotFound)
		assert.Nil(t, got)
		mockWalletRepo.AssertNotCalled(t, "ListMemberIDs", ctx, mock.Anything, walletID)
	})
}
