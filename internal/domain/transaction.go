// internal/domain/transaction.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal" // For precise monetary calculations

	"sacco-ledger/internal/hashchain"
)

// TransactionType defines the type of a ledger transaction.
type TransactionType string

const (
	TransactionTypeContribution       TransactionType = "contribution"
	TransactionTypeLoanDisbursement   TransactionType = "loan_disbursement"
	TransactionTypeLoanRepayment      TransactionType = "loan_repayment"
	TransactionTypeInterestAccrual    TransactionType = "interest_accrual"
	TransactionTypeWalletCreation     TransactionType = "wallet_creation"
	TransactionTypeMemberJoin         TransactionType = "member_join"
	TransactionTypeGroupWithdrawal    TransactionType = "group_withdrawal"
	TransactionTypePersonalDeposit    TransactionType = "personal_deposit"
	TransactionTypePersonalWithdrawal TransactionType = "personal_withdrawal"
)

// Transaction is one immutable entry in a hash chain. Entries with a wallet id
// belong to that wallet's chain; entries without one belong to the personal
// ledger. Amount is signed: positive = inflow, negative = outflow.
type Transaction struct {
	ID                    string          `db:"id" json:"id"`
	WalletID              *int64          `db:"wallet_id" json:"wallet_id,omitempty"`
	MemberID              *int64          `db:"member_id" json:"member_id,omitempty"`
	Type                  TransactionType `db:"type" json:"type"`
	Amount                decimal.Decimal `db:"amount" json:"amount"`
	Description           string          `db:"description" json:"description"`
	RelatedLoanID         *string         `db:"related_loan_id" json:"related_loan_id,omitempty"`
	RelatedContributionID *string         `db:"related_contribution_id" json:"related_contribution_id,omitempty"`
	PreviousHash          string          `db:"previous_hash" json:"previous_hash"`
	Hash                  string          `db:"hash" json:"hash"`
	TransactionTime       time.Time       `db:"transaction_time" json:"transaction_time"`
	CreatedAt             time.Time       `db:"created_at" json:"created_at"`
}

// NewTransaction creates an unsealed Transaction with a fresh id. The hash
// fields are empty until Seal is called with the chain head. Timestamps are
// truncated to microseconds, the resolution of a postgres timestamptz, so a
// persisted entry hashes identically after being read back.
func NewTransaction(walletID, memberID *int64, txType TransactionType, amount decimal.Decimal, description string) *Transaction {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &Transaction{
		ID:              uuid.NewString(),
		WalletID:        walletID,
		MemberID:        memberID,
		Type:            txType,
		Amount:          amount,
		Description:     description,
		TransactionTime: now,
		CreatedAt:       now,
	}
}

// Seal fixes the transaction's position in a chain: it records previousHash
// (hashchain.GenesisHash for a first entry) and computes the entry's own hash.
// Must happen inside the same store transaction that appends the entry, or two
// writers could seal off the same head and fork the chain.
func (t *Transaction) Seal(previousHash string) {
	t.PreviousHash = previousHash
	t.Hash = hashchain.ComputeHash(t.HashRecord())
}

// HashRecord returns the canonical hashing view of the transaction.
func (t *Transaction) HashRecord() hashchain.Record {
	return hashchain.Record{
		ID:                    t.ID,
		WalletID:              t.WalletID,
		MemberID:              t.MemberID,
		Type:                  string(t.Type),
		Amount:                t.Amount,
		Date:                  t.TransactionTime,
		Description:           t.Description,
		PreviousHash:          t.PreviousHash,
		RelatedLoanID:         t.RelatedLoanID,
		RelatedContributionID: t.RelatedContributionID,
	}
}
