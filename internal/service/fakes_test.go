package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ensina-app/ensina-backend/internal/repository"
)

// In-memory repository fakes for service tests.

type fakeMemberRepo struct {
	members []*repository.Member
	findErr error
}

func (f *fakeMemberRepo) Create(ctx context.Context, member *repository.Member) error {
	member.ID = fmt.Sprintf("member-%d", len(f.members)+1)
	member.CreatedAt = time.Now()
	f.members = append(f.members, member)
	return nil
}

func (f *fakeMemberRepo) FindByEmail(ctx context.Context, tenantID, email string) (*repository.Member, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, m := range f.members {
		if m.TenantID == tenantID && strings.EqualFold(m.Email, email) {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeMemberRepo) FindByUser(ctx context.Context, tenantID, userID string) (*repository.Member, error) {
	for _, m := range f.members {
		if m.TenantID == tenantID && m.UserID != nil && *m.UserID == userID {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeMemberRepo) FindFirstByUser(ctx context.Context, userID string) (*repository.Member, error) {
	for _, m := range f.members {
		if m.UserID != nil && *m.UserID == userID {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeMemberRepo) ListByTenant(ctx context.Context, tenantID string) ([]*repository.Member, error) {
	var out []*repository.Member
	for _, m := range f.members {
		if m.TenantID == tenantID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeInvitationRepo struct {
	invitations []*repository.Invitation
	createErr   error
	findErr     error
}

func (f *fakeInvitationRepo) Create(ctx context.Context, inv *repository.Invitation) error {
	if f.createErr != nil {
		return f.createErr
	}
	inv.ID = fmt.Sprintf("inv-%d", len(f.invitations)+1)
	inv.CreatedAt = time.Now()
	f.invitations = append(f.invitations, inv)
	return nil
}

func (f *fakeInvitationRepo) FindByID(ctx context.Context, id string) (*repository.Invitation, error) {
	for _, inv := range f.invitations {
		if inv.ID == id {
			return inv, nil
		}
	}
	return nil, nil
}

func (f *fakeInvitationRepo) FindByToken(ctx context.Context, token string) (*repository.Invitation, error) {
	for _, inv := range f.invitations {
		if inv.Token == token {
			return inv, nil
		}
	}
	return nil, nil
}

func (f *fakeInvitationRepo) FindPendingByEmail(ctx context.Context, tenantID, email string) (*repository.Invitation, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, inv := range f.invitations {
		if inv.TenantID == tenantID && strings.EqualFold(inv.Email, email) && inv.Status == repository.InvitationStatusPending {
			return inv, nil
		}
	}
	return nil, nil
}

func (f *fakeInvitationRepo) ListPendingByTenant(ctx context.Context, tenantID string) ([]*repository.Invitation, error) {
	var out []*repository.Invitation
	for _, inv := range f.invitations {
		if inv.TenantID == tenantID && inv.Status == repository.InvitationStatusPending {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeInvitationRepo) UpdateStatus(ctx context.Context, id, status string) error {
	for _, inv := range f.invitations {
		if inv.ID == id {
			inv.Status = status
			return nil
		}
	}
	return nil
}

func (f *fakeInvitationRepo) UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	for _, inv := range f.invitations {
		if inv.ID == id {
			inv.ExpiresAt = expiresAt
			return nil
		}
	}
	return nil
}

func (f *fakeInvitationRepo) ExpireOld(ctx context.Context) (int, error) {
	count := 0
	for _, inv := range f.invitations {
		if inv.Status == repository.InvitationStatusPending && inv.ExpiresAt.Before(time.Now()) {
			inv.Status = repository.InvitationStatusExpired
			count++
		}
	}
	return count, nil
}

type fakeTenantRepo struct {
	tenants []*repository.Tenant
}

func (f *fakeTenantRepo) Create(ctx context.Context, tenant *repository.Tenant) error {
	tenant.ID = fmt.Sprintf("tenant-%d", len(f.tenants)+1)
	f.tenants = append(f.tenants, tenant)
	return nil
}

func (f *fakeTenantRepo) FindByID(ctx context.Context, id string) (*repository.Tenant, error) {
	for _, t := range f.tenants {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, nil
}

func (f *fakeTenantRepo) FindBySlug(ctx context.Context, slug string) (*repository.Tenant, error) {
	for _, t := range f.tenants {
		if t.Slug == slug {
			return t, nil
		}
	}
	return nil, nil
}

type fakeUserRepo struct {
	users []*repository.User
}

func (f *fakeUserRepo) Create(ctx context.Context, user *repository.User) error {
	user.ID = fmt.Sprintf("user-%d", len(f.users)+1)
	f.users = append(f.users, user)
	return nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*repository.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*repository.User, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, nil
}

type sentMail struct {
	tenantName string
	to         string
	invitedBy  string
	token      string
}

type fakeMailer struct {
	sent    []sentMail
	failFor map[string]bool // addresses whose delivery fails
}

func (f *fakeMailer) SendInvitation(tenantName, to, invitedBy, token string) error {
	if f.failFor[to] {
		return fmt.Errorf("smtp: connection refused")
	}
	f.sent = append(f.sent, sentMail{tenantName: tenantName, to: to, invitedBy: invitedBy, token: token})
	return nil
}

type fakeTokenSource struct {
	err error
	n   int
}

func (f *fakeTokenSource) Generate(ctx context.Context, tenantID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.n++
	return fmt.Sprintf("token-%d", f.n), nil
}
