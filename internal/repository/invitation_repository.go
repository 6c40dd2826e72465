package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Tenant roles. Anything outside this set is coerced to member before an
// invitation is persisted.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

var ValidRoles = map[string]bool{
	RoleOwner:  true,
	RoleAdmin:  true,
	RoleMember: true,
}

// Invitation statuses. The import pipeline only ever writes pending; the
// other states are reached through the accept/cancel flows and the expiry
// sweep.
const (
	InvitationStatusPending   = "pending"
	InvitationStatusAccepted  = "accepted"
	InvitationStatusCancelled = "cancelled"
	InvitationStatusExpired   = "expired"
)

type Invitation struct {
	ID        string
	TenantID  string
	Email     string
	Role      string
	InvitedBy *string
	Status    string
	Token     string
	ExpiresAt time.Time
	CourseIDs []string
	CreatedAt time.Time
}

type InvitationRepository interface {
	Create(ctx context.Context, invitation *Invitation) error
	FindByID(ctx context.Context, id string) (*Invitation, error)
	FindByToken(ctx context.Context, token string) (*Invitation, error)
	FindPendingByEmail(ctx context.Context, tenantID, email string) (*Invitation, error)
	ListPendingByTenant(ctx context.Context, tenantID string) ([]*Invitation, error)
	UpdateStatus(ctx context.Context, id, status string) error
	UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error
	ExpireOld(ctx context.Context) (int, error)
}

type pgInvitationRepository struct {
	pool *pgxpool.Pool
}

func NewInvitationRepository(pool *pgxpool.Pool) InvitationRepository {
	return &pgInvitationRepository{pool: pool}
}

func (r *pgInvitationRepository) Create(ctx context.Context, invitation *Invitation) error {
	if invitation.Status == "" {
		invitation.Status = InvitationStatusPending
	}
	var courseIDs []byte
	if invitation.CourseIDs != nil {
		data, err := json.Marshal(invitation.CourseIDs)
		if err != nil {
			return err
		}
		courseIDs = data
	}
	query := `
		INSERT INTO invitations (tenant_id, email, role, invited_by, status, token, expires_at, course_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`
	return r.pool.QueryRow(ctx, query,
		invitation.TenantID, invitation.Email, invitation.Role, invitation.InvitedBy,
		invitation.Status, invitation.Token, invitation.ExpiresAt, courseIDs,
	).Scan(&invitation.ID, &invitation.CreatedAt)
}

func (r *pgInvitationRepository) FindByID(ctx context.Context, id string) (*Invitation, error) {
	query := selectInvitation + ` WHERE id = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *pgInvitationRepository) FindByToken(ctx context.Context, token string) (*Invitation, error) {
	query := selectInvitation + ` WHERE token = $1`
	return r.scanOne(r.pool.QueryRow(ctx, query, token))
}

// FindPendingByEmail is the duplicate-detection lookup: zero or one pending
// invitation per tenant+email, matched case-insensitively.
func (r *pgInvitationRepository) FindPendingByEmail(ctx context.Context, tenantID, email string) (*Invitation, error) {
	query := selectInvitation + `
		WHERE tenant_id = $1 AND LOWER(email) = LOWER($2) AND status = 'pending'
		ORDER BY created_at DESC LIMIT 1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, tenantID, email))
}

func (r *pgInvitationRepository) ListPendingByTenant(ctx context.Context, tenantID string) ([]*Invitation, error) {
	query := selectInvitation + `
		WHERE tenant_id = $1 AND status = 'pending'
		ORDER BY created_at DESC
	`
	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invitations []*Invitation
	for rows.Next() {
		invitation, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, invitation)
	}
	return invitations, rows.Err()
}

func (r *pgInvitationRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE invitations SET status = $2 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, status)
	return err
}

func (r *pgInvitationRepository) UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	query := `UPDATE invitations SET expires_at = $2 WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id, expiresAt)
	return err
}

func (r *pgInvitationRepository) ExpireOld(ctx context.Context) (int, error) {
	query := `UPDATE invitations SET status = 'expired' WHERE expires_at < NOW() AND status = 'pending'`
	result, err := r.pool.Exec(ctx, query)
	if err != nil {
		return 0, err
	}
	return int(result.RowsAffected()), nil
}

const selectInvitation = `
	SELECT id, tenant_id, email, role, invited_by, status, token, expires_at, course_ids, created_at
	FROM invitations`

func (r *pgInvitationRepository) scanOne(row pgx.Row) (*Invitation, error) {
	invitation, err := scanInvitation(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return invitation, nil
}

func scanInvitation(row pgx.Row) (*Invitation, error) {
	invitation := &Invitation{}
	var courseIDs []byte
	err := row.Scan(
		&invitation.ID, &invitation.TenantID, &invitation.Email, &invitation.Role,
		&invitation.InvitedBy, &invitation.Status, &invitation.Token,
		&invitation.ExpiresAt, &courseIDs, &invitation.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(courseIDs) > 0 {
		if err := json.Unmarshal(courseIDs, &invitation.CourseIDs); err != nil {
			return nil, err
		}
	}
	return invitation, nil
}
