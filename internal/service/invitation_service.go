package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ensina-app/ensina-backend/internal/repository"
	"github.com/google/uuid"
)

type InvitationService interface {
	Create(ctx context.Context, inv *repository.Invitation) error
	GetByToken(ctx context.Context, token string) (*repository.Invitation, error)
	Accept(ctx context.Context, token, userID string) error
	Cancel(ctx context.Context, id string) error
	Resend(ctx context.Context, id string) (*repository.Invitation, error)
	ListPending(ctx context.Context, tenantID string) ([]*repository.Invitation, error)
	ExpireOld(ctx context.Context) (int, error)
}

type invitationService struct {
	invRepo    repository.InvitationRepository
	memberRepo repository.MemberRepository
	tenantRepo repository.TenantRepository
	userRepo   repository.UserRepository
	mailer     InviteMailer
	defaultTTL time.Duration
}

func NewInvitationService(
	invRepo repository.InvitationRepository,
	memberRepo repository.MemberRepository,
	tenantRepo repository.TenantRepository,
	userRepo repository.UserRepository,
	mailer InviteMailer,
	defaultTTL time.Duration,
) InvitationService {
	return &invitationService{
		invRepo:    invRepo,
		memberRepo: memberRepo,
		tenantRepo: tenantRepo,
		userRepo:   userRepo,
		mailer:     mailer,
		defaultTTL: defaultTTL,
	}
}

func (s *invitationService) Create(ctx context.Context, inv *repository.Invitation) error {
	if inv == nil {
		return errors.New("invitation is nil")
	}
	if strings.TrimSpace(inv.TenantID) == "" {
		return errors.New("tenant_id required")
	}
	if strings.TrimSpace(inv.Email) == "" {
		return errors.New("email required")
	}
	inv.Email = normalizeEmail(inv.Email)
	inv.Role = coerceRole(inv.Role)
	inv.Status = repository.InvitationStatusPending
	if inv.ExpiresAt.IsZero() {
		inv.ExpiresAt = time.Now().Add(s.defaultTTL)
	}

	member, err := s.memberRepo.FindByEmail(ctx, inv.TenantID, inv.Email)
	if err != nil {
		return err
	}
	if member != nil {
		return ErrConflict
	}
	pending, err := s.invRepo.FindPendingByEmail(ctx, inv.TenantID, inv.Email)
	if err != nil {
		return err
	}
	if pending != nil {
		return ErrConflict
	}

	inv.Token = uuid.New().String()
	if err := s.invRepo.Create(ctx, inv); err != nil {
		return err
	}

	if s.mailer != nil {
		go s.sendInvitationMail(inv)
	}
	return nil
}

func (s *invitationService) sendInvitationMail(inv *repository.Invitation) {
	tenantName := inv.TenantID
	if tenant, err := s.tenantRepo.FindByID(context.Background(), inv.TenantID); err == nil && tenant != nil {
		tenantName = tenant.Name
	}
	inviterName := ""
	if inv.InvitedBy != nil {
		if inviter, err := s.userRepo.FindByID(context.Background(), *inv.InvitedBy); err == nil && inviter != nil {
			inviterName = inviter.Name
		}
	}
	_ = s.mailer.SendInvitation(tenantName, inv.Email, inviterName, inv.Token)
}

func (s *invitationService) GetByToken(ctx context.Context, token string) (*repository.Invitation, error) {
	if token == "" {
		return nil, errors.New("token required")
	}
	return s.invRepo.FindByToken(ctx, token)
}

func (s *invitationService) Accept(ctx context.Context, token, userID string) error {
	if token == "" {
		return errors.New("token required")
	}
	if userID == "" {
		return errors.New("user_id required")
	}

	inv, err := s.invRepo.FindByToken(ctx, token)
	if err != nil {
		return err
	}
	if inv == nil {
		return ErrNotFound
	}
	if inv.Status != repository.InvitationStatusPending {
		return errors.New("invitation cannot be accepted")
	}
	if time.Now().After(inv.ExpiresAt) {
		_ = s.invRepo.UpdateStatus(ctx, inv.ID, repository.InvitationStatusExpired)
		return errors.New("invitation expired")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrNotFound
	}

	member := &repository.Member{
		TenantID:  inv.TenantID,
		UserID:    &userID,
		Email:     inv.Email,
		FirstName: user.Name,
		Role:      inv.Role,
	}
	if err := s.memberRepo.Create(ctx, member); err != nil {
		return err
	}
	return s.invRepo.UpdateStatus(ctx, inv.ID, repository.InvitationStatusAccepted)
}

func (s *invitationService) Cancel(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("id required")
	}
	inv, err := s.invRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if inv == nil {
		return ErrNotFound
	}
	if inv.Status != repository.InvitationStatusPending {
		return errors.New("invitation cannot be cancelled")
	}
	return s.invRepo.UpdateStatus(ctx, inv.ID, repository.InvitationStatusCancelled)
}

func (s *invitationService) Resend(ctx context.Context, id string) (*repository.Invitation, error) {
	if id == "" {
		return nil, errors.New("id required")
	}
	inv, err := s.invRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrNotFound
	}
	if inv.Status != repository.InvitationStatusPending {
		return nil, errors.New("invitation cannot be resent")
	}

	inv.ExpiresAt = time.Now().Add(s.defaultTTL)
	if err := s.invRepo.UpdateExpiry(ctx, inv.ID, inv.ExpiresAt); err != nil {
		return nil, err
	}

	if s.mailer != nil {
		go s.sendInvitationMail(inv)
	}
	return inv, nil
}

func (s *invitationService) ListPending(ctx context.Context, tenantID string) ([]*repository.Invitation, error) {
	if tenantID == "" {
		return nil, errors.New("tenant_id required")
	}
	return s.invRepo.ListPendingByTenant(ctx, tenantID)
}

func (s *invitationService) ExpireOld(ctx context.Context) (int, error) {
	return s.invRepo.ExpireOld(ctx)
}
