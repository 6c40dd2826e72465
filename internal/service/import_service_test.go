package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ensina-app/ensina-backend/internal/importer"
	"github.com/ensina-app/ensina-backend/internal/repository"
)

const testTenant = "tenant-1"

type importFixture struct {
	members *fakeMemberRepo
	invites *fakeInvitationRepo
	tenants *fakeTenantRepo
	users   *fakeUserRepo
	mailer  *fakeMailer
	tokens  *fakeTokenSource
	svc     ImportService
}

func newImportFixture() *importFixture {
	f := &importFixture{
		members: &fakeMemberRepo{},
		invites: &fakeInvitationRepo{},
		tenants: &fakeTenantRepo{tenants: []*repository.Tenant{{ID: testTenant, Name: "Curso de Violão", Slug: "curso-violao"}}},
		users:   &fakeUserRepo{users: []*repository.User{{ID: "user-1", Email: "prof@example.com", Name: "Prof. Carlos"}}},
		mailer:  &fakeMailer{failFor: map[string]bool{}},
		tokens:  &fakeTokenSource{},
	}
	f.svc = NewImportService(f.members, f.invites, f.tenants, f.users, f.tokens, f.mailer, 7*24*time.Hour)
	return f
}

func checkInvariant(t *testing.T, report *importer.Report) {
	t.Helper()
	if report.TotalProcessed != report.Successful+len(report.Errors)+len(report.Duplicates) {
		t.Errorf("invariant violated: total=%d successful=%d errors=%d duplicates=%d",
			report.TotalProcessed, report.Successful, len(report.Errors), len(report.Duplicates))
	}
}

func TestImportAudience_MixedValidAndInvalid(t *testing.T) {
	f := newImportFixture()
	payload := "email,nome,sobrenome\nbad-email,Ana,Silva\nnova@example.com,Nova,Aluna\n"

	report, err := f.svc.ImportAudience(context.Background(), testTenant, "user-1", []byte(payload))
	if err != nil {
		t.Fatalf("ImportAudience failed: %v", err)
	}
	checkInvariant(t, report)

	if report.TotalProcessed != 2 {
		t.Errorf("TotalProcessed = %d, want 2", report.TotalProcessed)
	}
	if report.Successful != 1 || report.Invited != 1 {
		t.Errorf("Successful = %d, Invited = %d, want 1, 1", report.Successful, report.Invited)
	}
	if len(report.Errors) != 1 {
		t.Fatalf("got %d errors, want 1", len(report.Errors))
	}
	e := report.Errors[0]
	if e.Line != 2 || e.Email != "bad-email" || !strings.Contains(e.Error, "Email inválido") {
		t.Errorf("error entry = %+v", e)
	}
	if len(report.Details) != 1 || report.Details[0].Status != importer.StatusInvited {
		t.Errorf("details = %+v, want one invited entry", report.Details)
	}
	if len(f.invites.invitations) != 1 {
		t.Fatalf("got %d invitations persisted, want 1", len(f.invites.invitations))
	}
	inv := f.invites.invitations[0]
	if inv.Email != "nova@example.com" || inv.Status != repository.InvitationStatusPending {
		t.Errorf("invitation = %+v", inv)
	}
	if inv.InvitedBy == nil || *inv.InvitedBy != "user-1" {
		t.Errorf("InvitedBy = %v, want user-1", inv.InvitedBy)
	}
	wantExpiry := time.Now().Add(7 * 24 * time.Hour)
	if inv.ExpiresAt.Before(wantExpiry.Add(-time.Minute)) || inv.ExpiresAt.After(wantExpiry.Add(time.Minute)) {
		t.Errorf("ExpiresAt = %v, want ~%v", inv.ExpiresAt, wantExpiry)
	}
	if len(f.mailer.sent) != 1 || f.mailer.sent[0].tenantName != "Curso de Violão" || f.mailer.sent[0].invitedBy != "Prof. Carlos" {
		t.Errorf("mail = %+v", f.mailer.sent)
	}
}

func TestImportAudience_MissingNameIsValidationError(t *testing.T) {
	f := newImportFixture()
	payload := "email,nome\nsemnome@example.com,\n"

	report, err := f.svc.ImportAudience(context.Background(), testTenant, "user-1", []byte(payload))
	if err != nil {
		t.Fatalf("ImportAudience failed: %v", err)
	}
	checkInvariant(t, report)
	if len(report.Errors) != 1 || !strings.Contains(report.Errors[0].Error, "Nome é obrigatório") {
		t.Errorf("errors = %+v", report.Errors)
	}
	if report.Skipped != 0 || report.Successful != 0 {
		t.Errorf("validation failure must not count as skipped or successful: %+v", report)
	}
}

func TestImportAudience_MissingEmailReportsNA(t *testing.T) {
	f := newImportFixture()
	payload := "email,nome\n,Ana\n"

	report, err := f.svc.ImportAudience(context.Background(), testTenant, "user-1", []byte(payload))
	if err != nil {
		t.Fatalf("ImportAudience failed: %v", err)
	}
	if len(report.Errors) != 1 || report.Errors[0].Email != "N/A" {
		t.Errorf("errors = %+v, want single entry with email N/A", report.Errors)
	}
}

func TestImportAudience_IntraRunDedup(t *testing.T) {
	f := newImportFixture()
	payload := "email,nome\ndupla@example.com,Ana\nDUPLA@example.com,Ana Clone\n"

	report, err := f.svc.ImportAudience(context.Background(), testTenant, "user-1", []byte(payload))
	if err != nil {
		t.Fatalf("ImportAudience failed: %v", err)
	}
	checkInvariant(t, report)

	if report.Successful != 1 || report.Skipped != 1 {
		t.Errorf("Successful = %d, Skipped = %d, want 1, 1", report.Successful, report.Skipped)
	}
	if len(report.Duplicates) != 1 || report.Duplicates[0].Line != 3 {
		t.Errorf("duplicates = %+v", report.Duplicates)
	}
	if len(report.Details) != 2 {
		t.Fatalf("details = %+v", report.Details)
	}
	if report.Details[0].Status != importer.StatusInvited {
		t.Errorf("first row status = %q, want invited", report.Details[0].Status)
	}
	if report.Details[1].Status != importer.StatusInvitePending {
		t.Errorf("second row status = %q, want invite_pending (duplicate of same-run invite)", report.Details[1].Status)
	}
	if len(f.invites.invitations) != 1 {
		t.Errorf("got %d invitations, want 1", len(f.invites.invitations))
	}
}

func TestImportAudience_MemberCheckRunsFirst(t *testing.T) {
	f := newImportFixture()
	// Both an existing member and a pending invite for the same email: the
	// member check wins and the row is reported as duplicate.
	f.members.members = append(f.members.members, &repository.Member{
		ID: "member-1", TenantID: testTenant, Email: "ja@example.com",
	})
	f.invites.invitations = append(f.invites.invitations, &repository.Invitation{
		ID: "inv-0", TenantID: testTenant, Email: "ja@example.com",
		Status: repository.InvitationStatusPending, Token: "tok", ExpiresAt: time.Now().Add(time.Hour),
	})
	payload := "email,nome\nJA@example.com,Ja\n"

	report, err := f.svc.ImportAudience(context.Background(), testTenant, "user-1", []byte(payload))
	if err != nil {
		t.Fatalf("ImportAudience failed: %v", err)
	}
	checkInvariant(t, report)
	if len(report.Details) != 1 || report.Details[0].Status != importer.StatusDuplicate {
		t.Errorf("details = %+v, want status duplicate", report.Details)
	}
	if report.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", report.Skipped)
	}
}

func TestImportAudience_MailFailureDoesNotFailRecord(t *testing.T) {
	f := newImportFixture()
	f.mailer.failFor["falha@example.com"] = true
	payload := "email,nome\nfalha@example.com,Ana\n"

	report, err := f.svc.ImportAudience(context.Background(), testTenant, "user-1", []byte(payload))
	if err != nil {
		t.Fatalf("ImportAudience failed: %v", err)
	}
	checkInvariant(t, report)
	if report.Successful != 1 || report.Invited != 1 {
		t.Errorf("Successful = %d, Invited = %d, want 1, 1", report.Successful, report.Invited)
	}
	if len(report.Errors) != 0 {
		t.Errorf("errors = %+v, want none", report.Errors)
	}
	if report.Details[0].Status != importer.StatusInvitedNoEmail {
		t.Errorf("status = %q, want invited_no_email", report.Details[0].Status)
	}
	if len(f.invites.invitations) != 1 {
		t.Errorf("invitation must persist despite delivery failure")
	}
}

func TestImportAudience_NoMailerConfigured(t *testing.T) {
	f := newImportFixture()
	f.svc = NewImportService(f.members, f.invites, f.tenants, f.users, f.tokens, nil, 7*24*time.Hour)
	payload := "email,nome\nsemail@example.com,Ana\n"

	report, err := f.svc.ImportAudience(context.Background(), testTenant, "user-1", []byte(payload))
	if err != nil {
		t.Fatalf("ImportAudience failed: %v", err)
	}
	if report.Details[0].Status != importer.StatusInvitedNoEmail {
		t.Errorf("status = %q, want invited_no_email when no mailer is configured", report.Details[0].Status)
	}
}

func TestImportAudience_TokenFailureIsPerRecord(t *testing.T) {
	f := newImportFixture()
	f.tokens.err = errors.New("token service unavailable")
	payload := "email,nome\numa@example.com,Uma\noutra@example.com,Outra\n"

	report, err := f.svc.ImportAudience(context.Background(), testTenant, "user-1", []byte(payload))
	if err != nil {
		t.Fatalf("ImportAudience failed: %v", err)
	}
	checkInvariant(t, report)
	if len(report.Errors) != 2 {
		t.Fatalf("errors = %+v, want 2 (one per record, run continues)", report.Errors)
	}
	for _, e := range report.Errors {
		if !strings.Contains(e.Error, "token service unavailable") {
			t.Errorf("error %q should carry the underlying message", e.Error)
		}
	}
}

func TestImportAudience_InsertFailureIsPerRecord(t *testing.T) {
	f := newImportFixture()
	f.invites.createErr = errors.New("connection reset")
	payload := "email,nome\numa@example.com,Uma\n"

	report, err := f.svc.ImportAudience(context.Background(), testTenant, "user-1", []byte(payload))
	if err != nil {
		t.Fatalf("ImportAudience failed: %v", err)
	}
	checkInvariant(t, report)
	if len(report.Errors) != 1 || !strings.Contains(report.Errors[0].Error, "connection reset") {
		t.Errorf("errors = %+v", report.Errors)
	}
	if report.Successful != 0 {
		t.Errorf("Successful = %d, want 0", report.Successful)
	}
}

func TestImportAudience_LookupErrorIsPerRecord(t *testing.T) {
	f := newImportFixture()
	f.members.findErr = errors.New("deadline exceeded")
	payload := "email,nome\numa@example.com,Uma\n"

	report, err := f.svc.ImportAudience(context.Background(), testTenant, "user-1", []byte(payload))
	if err != nil {
		t.Fatalf("ImportAudience failed: %v", err)
	}
	checkInvariant(t, report)
	if len(report.Errors) != 1 || len(report.Duplicates) != 0 {
		t.Errorf("lookup errors must land in errors, not duplicates: %+v", report)
	}
}

func TestImportAudience_RoleCoercion(t *testing.T) {
	f := newImportFixture()
	payload := "email,nome,funcao\nadm@example.com,Adm,ADMIN\nprof@example.net,Prof,professor\n"

	report, err := f.svc.ImportAudience(context.Background(), testTenant, "user-1", []byte(payload))
	if err != nil {
		t.Fatalf("ImportAudience failed: %v", err)
	}
	if report.Successful != 2 {
		t.Fatalf("Successful = %d, want 2: %+v", report.Successful, report.Errors)
	}
	if f.invites.invitations[0].Role != repository.RoleAdmin {
		t.Errorf("role = %q, want admin", f.invites.invitations[0].Role)
	}
	if f.invites.invitations[1].Role != repository.RoleMember {
		t.Errorf("role = %q, want member (unrecognized values coerce to member)", f.invites.invitations[1].Role)
	}
}

func TestImportAudience_EmptyPayload(t *testing.T) {
	f := newImportFixture()

	report, err := f.svc.ImportAudience(context.Background(), testTenant, "user-1", []byte("email,nome\n"))
	if err != nil {
		t.Fatalf("ImportAudience failed: %v", err)
	}
	if report.TotalProcessed != 0 {
		t.Errorf("TotalProcessed = %d, want 0", report.TotalProcessed)
	}
}

func TestImportAudience_CancelledContextAbortsRun(t *testing.T) {
	f := newImportFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.ImportAudience(ctx, testTenant, "user-1", []byte("email,nome\na@example.com,Ana\n"))
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
