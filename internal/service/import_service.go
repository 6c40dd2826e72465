package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/ensina-app/ensina-backend/internal/importer"
	"github.com/ensina-app/ensina-backend/internal/repository"
	"github.com/google/uuid"
)

// TokenSource produces opaque, collision-resistant invitation tokens.
// Generation failure is a per-record error, never fatal to a run.
type TokenSource interface {
	Generate(ctx context.Context, tenantID string) (string, error)
}

type uuidTokenSource struct{}

func (uuidTokenSource) Generate(ctx context.Context, tenantID string) (string, error) {
	return uuid.New().String(), nil
}

type ImportService interface {
	// ImportAudience runs the bulk import pipeline over a delimited payload.
	// Records are processed strictly sequentially so that duplicate checks
	// see invitations issued earlier in the same run; a bad record never
	// aborts the batch.
	ImportAudience(ctx context.Context, tenantID, inviterID string, payload []byte) (*importer.Report, error)
}

type importService struct {
	memberRepo repository.MemberRepository
	invRepo    repository.InvitationRepository
	tenantRepo repository.TenantRepository
	userRepo   repository.UserRepository
	tokens     TokenSource
	mailer     InviteMailer
	inviteTTL  time.Duration
}

func NewImportService(
	memberRepo repository.MemberRepository,
	invRepo repository.InvitationRepository,
	tenantRepo repository.TenantRepository,
	userRepo repository.UserRepository,
	tokens TokenSource,
	mailer InviteMailer,
	inviteTTL time.Duration,
) ImportService {
	if tokens == nil {
		tokens = uuidTokenSource{}
	}
	return &importService{
		memberRepo: memberRepo,
		invRepo:    invRepo,
		tenantRepo: tenantRepo,
		userRepo:   userRepo,
		tokens:     tokens,
		mailer:     mailer,
		inviteTTL:  inviteTTL,
	}
}

func (s *importService) ImportAudience(ctx context.Context, tenantID, inviterID string, payload []byte) (*importer.Report, error) {
	rows, err := importer.Decode(payload)
	if err != nil {
		return nil, err
	}

	// Display names for the notification body, fetched once per run.
	tenantName := tenantID
	if tenant, err := s.tenantRepo.FindByID(ctx, tenantID); err == nil && tenant != nil {
		tenantName = tenant.Name
	}
	inviterName := ""
	if inviterID != "" {
		if inviter, err := s.userRepo.FindByID(ctx, inviterID); err == nil && inviter != nil {
			inviterName = inviter.Name
		}
	}

	report := importer.NewReport()
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			// Request cancelled: abort the run without rolling back
			// invitations already issued.
			return nil, err
		}
		s.processRecord(ctx, tenantID, inviterID, tenantName, inviterName, importer.Normalize(row), report)
	}
	return report, nil
}

// processRecord runs one record through validation, duplicate resolution,
// invitation issuance and notification. Every failure mode past validation
// is recorded on the report; nothing propagates out.
func (s *importService) processRecord(ctx context.Context, tenantID, inviterID, tenantName, inviterName string, rec importer.Record, report *importer.Report) {
	// Record validator: terminal outcomes, no further stage runs.
	if rec.Email == "" || !strings.Contains(rec.Email, "@") {
		report.AddError(rec.Line, rec.Email, "Email inválido ou ausente")
		return
	}
	if rec.FirstName == "" {
		report.AddError(rec.Line, rec.Email, "Nome é obrigatório")
		return
	}

	email := normalizeEmail(rec.Email)

	// Duplicate resolver: provisioned members first, then pending
	// invitations, so the two duplicate reasons stay distinguishable.
	member, err := s.memberRepo.FindByEmail(ctx, tenantID, email)
	if err != nil {
		report.AddError(rec.Line, rec.Email, "Erro ao verificar membros existentes: "+err.Error())
		return
	}
	if member != nil {
		report.AddDuplicate(rec.Line, email, rec.FirstName, rec.LastName, importer.StatusDuplicate)
		return
	}

	pending, err := s.invRepo.FindPendingByEmail(ctx, tenantID, email)
	if err != nil {
		report.AddError(rec.Line, rec.Email, "Erro ao verificar convites pendentes: "+err.Error())
		return
	}
	if pending != nil {
		report.AddDuplicate(rec.Line, email, rec.FirstName, rec.LastName, importer.StatusInvitePending)
		return
	}

	// Invitation issuer.
	token, err := s.tokens.Generate(ctx, tenantID)
	if err != nil {
		report.AddError(rec.Line, rec.Email, "Falha ao gerar token de convite: "+err.Error())
		return
	}

	inv := &repository.Invitation{
		TenantID:  tenantID,
		Email:     email,
		Role:      coerceRole(rec.Role),
		Status:    repository.InvitationStatusPending,
		Token:     token,
		ExpiresAt: time.Now().Add(s.inviteTTL),
	}
	if inviterID != "" {
		inv.InvitedBy = &inviterID
	}
	if err := s.invRepo.Create(ctx, inv); err != nil {
		report.AddError(rec.Line, rec.Email, "Falha ao salvar convite: "+err.Error())
		return
	}

	// Notification dispatcher: best effort. The invitation stays issued even
	// when the email cannot be sent; only the detail status is downgraded.
	emailSent := false
	if s.mailer != nil {
		if err := s.mailer.SendInvitation(tenantName, email, inviterName, token); err != nil {
			log.Printf("[Import] ⚠️ invitation email to %s failed: %v", email, err)
		} else {
			emailSent = true
		}
	}

	report.AddInvited(rec.Line, email, rec.FirstName, rec.LastName, emailSent)
}
