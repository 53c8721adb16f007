// internal/repository/member_repo.go
package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"sacco-ledger/internal/domain"
)

// MemberRepository defines the interface for member data operations.
type MemberRepository interface {
	// CreateMember adds a new member using the provided DBExecutor.
	CreateMember(ctx context.Context, q DBExecutor, member *domain.Member) error
	// GetMemberByID retrieves a member by id using the provided DBExecutor.
	GetMemberByID(ctx context.Context, q DBExecutor, id int64) (*domain.Member, error)
	// GetMemberByIDForUpdate retrieves a member by id and locks the row for
	// the duration of the surrounding transaction.
	GetMemberByIDForUpdate(ctx context.Context, q DBExecutor, id int64) (*domain.Member, error)
	// AdjustPersonalBalance applies a signed delta to the member's cached
	// personal balance.
	AdjustPersonalBalance(ctx context.Context, q DBExecutor, memberID int64, delta decimal.Decimal) error
}
