// internal/repository/postgres/member_pg.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"sacco-ledger/internal/domain"
	"sacco-ledger/internal/repository"
	"sacco-ledger/internal/util"
)

// MemberRepository implements repository.MemberRepository for PostgreSQL.
type MemberRepository struct{}

// NewMemberRepository creates a new MemberRepository.
func NewMemberRepository(db *sqlx.DB) repository.MemberRepository {
	return &MemberRepository{}
}

// CreateMember inserts a new member using the provided DBExecutor.
func (r *MemberRepository) CreateMember(ctx context.Context, q repository.DBExecutor, member *domain.Member) error {
	query := `INSERT INTO members (username, role, verified, credit_score, personal_balance, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		member.Username,
		member.Role,
		member.Verified,
		member.CreditScore,
		member.PersonalBalance,
		member.CreatedAt,
		member.UpdatedAt,
	).Scan(&member.ID)
	if err != nil {
		return fmt.Errorf("failed to create member: %w", err)
	}
	return nil
}

// GetMemberByID retrieves a member by id using the provided DBExecutor.
func (r *MemberRepository) GetMemberByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Member, error) {
	return r.getMember(ctx, q, id, false)
}

// GetMemberByIDForUpdate retrieves a member by id with a row lock.
func (r *MemberRepository) GetMemberByIDForUpdate(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Member, error) {
	return r.getMember(ctx, q, id, true)
}

func (r *MemberRepository) getMember(ctx context.Context, q repository.DBExecutor, id int64, forUpdate bool) (*domain.Member, error) {
	var member domain.Member
	query := `SELECT id, username, role, verified, credit_score, personal_balance, created_at, updated_at
              FROM members WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	err := q.GetContext(ctx, &member, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get member by ID %d: %w", id, err)
	}
	if member.Role != domain.RoleMember && member.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("member %d has unknown role %q: %w", id, member.Role, util.ErrCorruptRecord)
	}
	return &member, nil
}

// AdjustPersonalBalance applies a signed delta to the member's cached balance.
func (r *MemberRepository) AdjustPersonalBalance(ctx context.Context, q repository.DBExecutor, memberID int64, delta decimal.Decimal) error {
	query := `UPDATE members SET personal_balance = personal_balance + $1, updated_at = $2 WHERE id = $3`
	result, err := q.ExecContext(ctx, query, delta, time.Now().UTC(), memberID)
	if err != nil {
		return fmt.Errorf("failed to adjust personal balance for member %d: %w", memberID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for member %d: %w", memberID, err)
	}
	if rowsAffected == 0 {
		return util.ErrNotFound
	}
	return nil
}
