package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Member is a provisioned member of a tenant. The import pipeline only reads
// members (duplicate detection); rows are written when invitations are
// accepted or members are added directly.
type Member struct {
	ID        string
	TenantID  string
	UserID    *string
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Role      string
	CreatedAt time.Time
}

type MemberRepository interface {
	Create(ctx context.Context, member *Member) error
	FindByEmail(ctx context.Context, tenantID, email string) (*Member, error)
	FindByUser(ctx context.Context, tenantID, userID string) (*Member, error)
	FindFirstByUser(ctx context.Context, userID string) (*Member, error)
	ListByTenant(ctx context.Context, tenantID string) ([]*Member, error)
}

type pgMemberRepository struct {
	pool *pgxpool.Pool
}

func NewMemberRepository(pool *pgxpool.Pool) MemberRepository {
	return &pgMemberRepository{pool: pool}
}

func (r *pgMemberRepository) Create(ctx context.Context, member *Member) error {
	query := `
		INSERT INTO tenant_members (tenant_id, user_id, email, first_name, last_name, phone, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	if member.Role == "" {
		member.Role = RoleMember
	}
	return r.pool.QueryRow(ctx, query,
		member.TenantID, member.UserID, member.Email, member.FirstName,
		member.LastName, member.Phone, member.Role,
	).Scan(&member.ID, &member.CreatedAt)
}

func (r *pgMemberRepository) FindByEmail(ctx context.Context, tenantID, email string) (*Member, error) {
	query := `
		SELECT id, tenant_id, user_id, email, first_name, last_name, phone, role, created_at
		FROM tenant_members WHERE tenant_id = $1 AND LOWER(email) = LOWER($2)
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, tenantID, email))
}

func (r *pgMemberRepository) FindByUser(ctx context.Context, tenantID, userID string) (*Member, error) {
	query := `
		SELECT id, tenant_id, user_id, email, first_name, last_name, phone, role, created_at
		FROM tenant_members WHERE tenant_id = $1 AND user_id = $2
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, tenantID, userID))
}

func (r *pgMemberRepository) FindFirstByUser(ctx context.Context, userID string) (*Member, error) {
	query := `
		SELECT id, tenant_id, user_id, email, first_name, last_name, phone, role, created_at
		FROM tenant_members WHERE user_id = $1
		ORDER BY created_at ASC LIMIT 1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, userID))
}

func (r *pgMemberRepository) ListByTenant(ctx context.Context, tenantID string) ([]*Member, error) {
	query := `
		SELECT id, tenant_id, user_id, email, first_name, last_name, phone, role, created_at
		FROM tenant_members WHERE tenant_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*Member
	for rows.Next() {
		member := &Member{}
		if err := rows.Scan(
			&member.ID, &member.TenantID, &member.UserID, &member.Email,
			&member.FirstName, &member.LastName, &member.Phone, &member.Role,
			&member.CreatedAt,
		); err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return members, rows.Err()
}

func (r *pgMemberRepository) scanOne(row pgx.Row) (*Member, error) {
	member := &Member{}
	err := row.Scan(
		&member.ID, &member.TenantID, &member.UserID, &member.Email,
		&member.FirstName, &member.LastName, &member.Phone, &member.Role,
		&member.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return member, nil
}
