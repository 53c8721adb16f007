// internal/domain/proposal.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"sacco-ledger/internal/util"
)

// ProposalStatus is the withdrawal governance state machine:
// voting_in_progress -> approved -> executed, with voting_in_progress ->
// rejected and the execution-time approved -> failed edge.
type ProposalStatus string

const (
	ProposalStatusVoting   ProposalStatus = "voting_in_progress"
	ProposalStatusApproved ProposalStatus = "approved"
	ProposalStatusRejected ProposalStatus = "rejected"
	ProposalStatusExecuted ProposalStatus = "executed"
	ProposalStatusFailed   ProposalStatus = "failed"
)

// WithdrawalProposal is a wallet creator's request to withdraw group funds,
// subject to the approval of the other members. Approval does not reserve
// funds; the balance is re-validated when the proposal is executed.
type WithdrawalProposal struct {
	ID          string          `db:"id" json:"id"`
	WalletID    int64           `db:"wallet_id" json:"wallet_id"`
	CreatorID   int64           `db:"creator_id" json:"creator_id"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Reason      string          `db:"reason" json:"reason"`
	Status      ProposalStatus  `db:"status" json:"status"`
	RequestDate time.Time       `db:"request_date" json:"request_date"`
	ExecutedAt  *time.Time      `db:"executed_at" json:"executed_at,omitempty"`
	Tally       VoteTally       `json:"tally"`
}

// NewWithdrawalProposal validates inputs and creates a proposal awaiting votes.
func NewWithdrawalProposal(walletID, creatorID int64, amount decimal.Decimal, reason string) (*WithdrawalProposal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, util.ErrInvalidAmount
	}
	return &WithdrawalProposal{
		ID:          uuid.NewString(),
		WalletID:    walletID,
		CreatorID:   creatorID,
		Amount:      amount,
		Reason:      reason,
		Status:      ProposalStatusVoting,
		RequestDate: time.Now().UTC(),
	}, nil
}
