// internal/repository/postgres/ledger_pg_test.go
package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sacco-ledger/internal/domain"
	"sacco-ledger/internal/hashchain"
	"sacco-ledger/internal/repository"
	"sacco-ledger/internal/util"
)

var ledgerTestColumns = []string{
	"id", "wallet_id", "member_id", "type", "amount", "description",
	"related_loan_id", "related_contribution_id", "previous_hash", "hash",
	"transaction_time", "created_at",
}

func setupLedgerMock(t *testing.T) (repository.LedgerRepository, *sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	repo := NewLedgerRepository(sqlxDB)

	closer := func() { sqlxDB.Close() }
	return repo, sqlxDB, mock, closer
}

func sealedTransaction(walletID, memberID int64) *domain.Transaction {
	tx := domain.NewTransaction(&walletID, &memberID, domain.TransactionTypeContribution, decimal.NewFromFloat(250.00), "monthly savings")
	tx.Seal(hashchain.GenesisHash)
	return tx
}

func TestAppendTransaction_Success(t *testing.T) {
	repo, db, mock, close := setupLedgerMock(t)
	defer close()

	ctx := context.Background()
	tx := sealedTransaction(1, 7)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ledger_transactions")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.AppendTransaction(ctx, db, tx)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendTransaction_RefusesUnsealed(t *testing.T) {
	repo, db, mock, close := setupLedgerMock(t)
	defer close()

	ctx := context.Background()
	walletID, memberID := int64(1), int64(7)
	tx := domain.NewTransaction(&walletID, &memberID, domain.TransactionTypeContribution, decimal.NewFromInt(100), "unsealed")

	err := repo.AppendTransaction(ctx, db, tx)
	assert.ErrorIs(t, err, util.ErrCorruptRecord)
	// Nothing may reach the store.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetWalletChainHead(t *testing.T) {
	t.Run("ReturnsNewestEntry", func(t *testing.T) {
		repo, db, mock, close := setupLedgerMock(t)
		defer close()

		ctx := context.Background()
		now := time.Now()
		walletID := int64(1)

		mock.ExpectQuery(regexp.QuoteMeta("FROM ledger_transactions WHERE wallet_id = $1")).
			WithArgs(walletID).
			WillReturnRows(sqlmock.NewRows(ledgerTestColumns).
				AddRow("tx-2", walletID, 7, "contribution", "250", "latest", nil, nil, "prevhash", "headhash", now, now))

		head, err := repo.GetWalletChainHead(ctx, db, walletID)
		require.NoError(t, err)
		require.NotNil(t, head)
		assert.Equal(t, "headhash", head.Hash)
		assert.Equal(t, "tx-2", head.ID)
	})

	t.Run("EmptyChainIsNil", func(t *testing.T) {
		repo, db, mock, close := setupLedgerMock(t)
		defer close()

		ctx := context.Background()

		mock.ExpectQuery(regexp.QuoteMeta("FROM ledger_transactions WHERE wallet_id = $1")).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows(ledgerTestColumns))

		head, err := repo.GetWalletChainHead(ctx, db, 1)
		require.NoError(t, err)
		assert.Nil(t, head)
	})
}

func TestGetPersonalChainHead_GlobalScope(t *testing.T) {
	repo, db, mock, close := setupLedgerMock(t)
	defer close()

	ctx := context.Background()
	now := time.Now()

	// nil member id scopes the lookup to the whole personal ledger.
	mock.ExpectQuery(regexp.QuoteMeta("FROM ledger_transactions WHERE wallet_id IS NULL")).
		WillReturnRows(sqlmock.NewRows(ledgerTestColumns).
			AddRow("tx-9", nil, 3, "personal_deposit", "50", "", nil, nil, "prev", "head", now, now))

	head, err := repo.GetPersonalChainHead(ctx, db, nil)
	require.NoError(t, err)
	require.NotNil(t, head)
	assert.Nil(t, head.WalletID)
	assert.Equal(t, "head", head.Hash)
}

func TestGetTransactionsByWalletID_Paginated(t *testing.T) {
	repo, db, mock, close := setupLedgerMock(t)
	defer close()

	ctx := context.Background()
	now := time.Now()
	walletID := int64(1)

	mock.ExpectQuery(regexp.QuoteMeta("FROM ledger_transactions WHERE wallet_id = $1")).
		WithArgs(walletID, 10, 0).
		WillReturnRows(sqlmock.NewRows(ledgerTestColumns).
			AddRow("tx-2", walletID, 7, "contribution", "250", "", nil, nil, "h1", "h2", now, now).
			AddRow("tx-1", walletID, 7, "contribution", "100", "", nil, nil, hashchain.GenesisHash, "h1", now, now))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM ledger_transactions WHERE wallet_id = $1")).
		WithArgs(walletID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	txs, total, err := repo.GetTransactionsByWalletID(ctx, db, walletID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, txs, 2)
	assert.Equal(t, int64(2), total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetNetContribution(t *testing.T) {
	repo, db, mock, close := setupLedgerMock(t)
	defer close()

	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(amount), 0) FROM ledger_transactions")).
		WithArgs(int64(1), int64(7), "contribution", "group_withdrawal").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow("350.00"))

	net, err := repo.GetNetContribution(ctx, db, 1, 7)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromFloat(350.00).Equal(net))
}
