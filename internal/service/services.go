package service

import (
	"errors"
	"strings"
	"time"

	"github.com/ensina-app/ensina-backend/internal/config"
	"github.com/ensina-app/ensina-backend/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrNotFound           = errors.New("resource not found")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("resource already exists")
)

// InviteMailer delivers invitation notifications. Delivery is best effort
// everywhere it is used: failures are reported, never escalated.
type InviteMailer interface {
	SendInvitation(tenantName, to, invitedBy, token string) error
}

// ============================================
// Services Container
// ============================================

type Services struct {
	Auth       AuthService
	Tenant     TenantService
	Invitation InvitationService
	Import     ImportService
}

type ServiceDeps struct {
	Config *config.Config
	Repos  *repository.Repositories
	Mailer InviteMailer // nil when SMTP is not configured
}

func NewServices(deps *ServiceDeps) *Services {
	inviteTTL := time.Duration(deps.Config.InviteExpiryDays) * 24 * time.Hour

	return &Services{
		Auth:   NewAuthService(deps.Config, deps.Repos.UserRepo),
		Tenant: NewTenantService(deps.Repos.TenantRepo, deps.Repos.MemberRepo),
		Invitation: NewInvitationService(
			deps.Repos.InvitationRepo,
			deps.Repos.MemberRepo,
			deps.Repos.TenantRepo,
			deps.Repos.UserRepo,
			deps.Mailer,
			inviteTTL,
		),
		Import: NewImportService(
			deps.Repos.MemberRepo,
			deps.Repos.InvitationRepo,
			deps.Repos.TenantRepo,
			deps.Repos.UserRepo,
			nil,
			deps.Mailer,
			inviteTTL,
		),
	}
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// coerceRole constrains a role to the fixed enumeration, defaulting to
// member for anything unrecognized.
func coerceRole(role string) string {
	role = strings.ToLower(strings.TrimSpace(role))
	if repository.ValidRoles[role] {
		return role
	}
	return repository.RoleMember
}
