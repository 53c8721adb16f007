// internal/domain/member.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MemberRole defines a member's role in the cooperative.
type MemberRole string

const (
	RoleMember MemberRole = "member"
	RoleAdmin  MemberRole = "admin"
)

// Member represents a cooperative member. Group wallets, loans and proposals
// reference members by id only; the account subsystem owns the rest.
type Member struct {
	ID              int64           `db:"id" json:"id"`
	Username        string          `db:"username" json:"username"`
	Role            MemberRole      `db:"role" json:"role"`
	Verified        bool            `db:"verified" json:"verified"`
	CreditScore     int             `db:"credit_score" json:"credit_score"`
	PersonalBalance decimal.Decimal `db:"personal_balance" json:"personal_balance"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// NewMember creates a new unverified Member with a zero personal balance.
func NewMember(username string, role MemberRole) *Member {
	now := time.Now().UTC()
	return &Member{
		Username:        username,
		Role:            role,
		PersonalBalance: decimal.Zero,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
