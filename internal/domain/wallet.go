// internal/domain/wallet.go
package domain

import (
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// GroupWallet represents a shared savings pool. Balance is a cached projection
// of the wallet's transaction chain: it must always equal the sum of the
// signed amounts of every entry, genesis included. Only the wallet engine
// mutates it, and only together with a chain append.
type GroupWallet struct {
	ID          int64           `db:"id" json:"id"`
	Name        string          `db:"name" json:"name"`
	TokenSymbol string          `db:"token_symbol" json:"token_symbol"`
	Balance     decimal.Decimal `db:"balance" json:"balance"`
	CreatorID   int64           `db:"creator_id" json:"creator_id"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`

	// MemberIDs is loaded from the membership set, not the wallet row.
	MemberIDs []int64 `db:"-" json:"member_ids,omitempty"`
}

// NewGroupWallet creates a new GroupWallet with a zero balance.
func NewGroupWallet(name, tokenSymbol string, creatorID int64) *GroupWallet {
	now := time.Now().UTC()
	return &GroupWallet{
		Name:        name,
		TokenSymbol: tokenSymbol,
		Balance:     decimal.Zero,
		CreatorID:   creatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
