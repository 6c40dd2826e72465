package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Tenant struct {
	ID        string
	Name      string
	Slug      string
	CreatedAt time.Time
}

type TenantRepository interface {
	Create(ctx context.Context, tenant *Tenant) error
	FindByID(ctx context.Context, id string) (*Tenant, error)
	FindBySlug(ctx context.Context, slug string) (*Tenant, error)
}

type pgTenantRepository struct {
	pool *pgxpool.Pool
}

func NewTenantRepository(pool *pgxpool.Pool) TenantRepository {
	return &pgTenantRepository{pool: pool}
}

func (r *pgTenantRepository) Create(ctx context.Context, tenant *Tenant) error {
	query := `
		INSERT INTO tenants (name, slug)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	return r.pool.QueryRow(ctx, query, tenant.Name, tenant.Slug).
		Scan(&tenant.ID, &tenant.CreatedAt)
}

func (r *pgTenantRepository) FindByID(ctx context.Context, id string) (*Tenant, error) {
	query := `SELECT id, name, slug, created_at FROM tenants WHERE id = $1`
	tenant := &Tenant{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&tenant.ID, &tenant.Name, &tenant.Slug, &tenant.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tenant, nil
}

func (r *pgTenantRepository) FindBySlug(ctx context.Context, slug string) (*Tenant, error) {
	query := `SELECT id, name, slug, created_at FROM tenants WHERE slug = $1`
	tenant := &Tenant{}
	err := r.pool.QueryRow(ctx, query, slug).Scan(
		&tenant.ID, &tenant.Name, &tenant.Slug, &tenant.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tenant, nil
}
