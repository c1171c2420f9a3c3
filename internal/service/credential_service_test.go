package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dohwa-law/portal-gate/internal/domain"
	"github.com/dohwa-law/portal-gate/pkg/events"
)

func newTestCredentialService(repo *mockCredentialRepo, bus *mockPublisher, m *mockMailer, now time.Time) *credentialService {
	return &credentialService{
		repo:        repo,
		bus:         bus,
		mailer:      m,
		notifyEmail: "operator@example.com",
		now:         fixedClock(now),
	}
}

func TestCreateCredential(t *testing.T) {
	now := time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)
	repo := newMockCredentialRepo()
	bus := &mockPublisher{}
	s := newTestCredentialService(repo, bus, &mockMailer{}, now)

	expires := domain.NewDate(2025, time.June, 1)
	cred, err := s.Create(context.Background(), &domain.CreateCredentialRequest{
		Category:  domain.CategoryAgent,
		Secret:    "spring-agents",
		Label:     "  Spring batch  ",
		ExpiresAt: &expires,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if cred.ID == "" || cred.ID == domain.AdminCredentialID {
		t.Errorf("Create() assigned bad id %q", cred.ID)
	}
	if !cred.CreatedAt.Equal(now) {
		t.Errorf("CreatedAt = %v, want %v", cred.CreatedAt, now)
	}
	if cred.Label != "Spring batch" {
		t.Errorf("label not trimmed: %q", cred.Label)
	}

	listed, err := s.List(context.Background(), domain.CategoryAgent)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(listed) != 1 || listed[0].ID != cred.ID {
		t.Errorf("created credential missing from list: %+v", listed)
	}

	if subjects := bus.subjects(); len(subjects) != 1 || subjects[0] != events.CredentialCreated {
		t.Errorf("published subjects = %v", subjects)
	}
}

func TestCreateCredentialRejectsEmptySecret(t *testing.T) {
	now := time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)
	repo := newMockCredentialRepo()
	s := newTestCredentialService(repo, &mockPublisher{}, &mockMailer{}, now)

	_, err := s.Create(context.Background(), &domain.CreateCredentialRequest{
		Category: domain.CategoryAgent,
		Secret:   "",
	})
	if !domain.IsValidationError(err) {
		t.Fatalf("got %v, want validation error", err)
	}

	listed, err := s.List(context.Background(), domain.CategoryAgent)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("rejected credential leaked into the store: %+v", listed)
	}
}

func TestCreateCredentialRejectsAdminCategory(t *testing.T) {
	now := time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)
	s := newTestCredentialService(newMockCredentialRepo(), &mockPublisher{}, &mockMailer{}, now)

	_, err := s.Create(context.Background(), &domain.CreateCredentialRequest{
		Category: domain.CategoryAdmin,
		Secret:   "ShouldNotWork1",
	})
	if !domain.IsValidationError(err) {
		t.Errorf("got %v, want validation error; admin goes through SetAdminSecret", err)
	}
}

func TestListRejectsAdminCategory(t *testing.T) {
	now := time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)
	s := newTestCredentialService(newMockCredentialRepo(), &mockPublisher{}, &mockMailer{}, now)

	if _, err := s.List(context.Background(), domain.CategoryAdmin); !domain.IsValidationError(err) {
		t.Errorf("got %v, want validation error", err)
	}
}

func TestListAttachesExpiryStatus(t *testing.T) {
	now := time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)
	soon := domain.NewDate(2025, time.March, 18)
	repo := newMockCredentialRepo()
	repo.add(domain.Credential{ID: "a", Category: domain.CategoryBuyer, Secret: "s1", ExpiresAt: &soon})
	repo.add(domain.Credential{ID: "b", Category: domain.CategoryBuyer, Secret: "s2"})
	s := newTestCredentialService(repo, &mockPublisher{}, &mockMailer{}, now)

	listed, err := s.List(context.Background(), domain.CategoryBuyer)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	states := map[string]domain.ExpiryState{}
	for _, c := range listed {
		states[c.ID] = c.Expiry.State
	}
	if states["a"] != domain.ExpirySoon {
		t.Errorf("credential a state = %q, want expiring-soon", states["a"])
	}
	if states["b"] != domain.ExpiryNone {
		t.Errorf("credential b state = %q, want no-expiry", states["b"])
	}
}

func TestSetAdminSecretReplacesInPlace(t *testing.T) {
	now := time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)
	repo := newMockCredentialRepo()
	m := &mockMailer{}
	s := newTestCredentialService(repo, &mockPublisher{}, m, now)
	verifier := newTestVerifier(repo, &mockPublisher{}, now)

	if err := s.SetAdminSecret(context.Background(), &domain.SetAdminSecretRequest{Secret: "FirstSecret1"}); err != nil {
		t.Fatalf("SetAdminSecret() error = %v", err)
	}
	if err := s.SetAdminSecret(context.Background(), &domain.SetAdminSecretRequest{Secret: "NewSecret1"}); err != nil {
		t.Fatalf("SetAdminSecret() error = %v", err)
	}

	// Exactly one admin credential exists and only the second secret verifies.
	admins := 0
	for _, cred := range repo.creds {
		if cred.Category == domain.CategoryAdmin {
			admins++
		}
	}
	if admins != 1 {
		t.Errorf("admin credential count = %d, want 1", admins)
	}

	result, err := verifier.Verify(context.Background(), &domain.VerifyRequest{Category: domain.CategoryAdmin, Secret: "NewSecret1"})
	if err != nil || !result.Granted {
		t.Errorf("second secret must verify: granted=%v err=%v", result != nil && result.Granted, err)
	}
	result, err = verifier.Verify(context.Background(), &domain.VerifyRequest{Category: domain.CategoryAdmin, Secret: "FirstSecret1"})
	if err != nil || result.Granted {
		t.Errorf("first secret must no longer verify: granted=%v err=%v", result != nil && result.Granted, err)
	}

	if len(m.rotationTo) != 2 {
		t.Errorf("rotation notices sent = %d, want 2", len(m.rotationTo))
	}
}

func TestSetAdminSecretRejectsShortSecret(t *testing.T) {
	now := time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)
	repo := newMockCredentialRepo()
	s := newTestCredentialService(repo, &mockPublisher{}, &mockMailer{}, now)

	if err := s.SetAdminSecret(context.Background(), &domain.SetAdminSecretRequest{Secret: "short7c"}); !domain.IsValidationError(err) {
		t.Errorf("got %v, want validation error for 7-char secret", err)
	}

	status, err := s.AdminStatus(context.Background())
	if err != nil {
		t.Fatalf("AdminStatus() error = %v", err)
	}
	if status.Configured {
		t.Error("rejected secret must not configure the admin credential")
	}
}

func TestAdminStatus(t *testing.T) {
	now := time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)
	repo := newMockCredentialRepo()
	s := newTestCredentialService(repo, &mockPublisher{}, &mockMailer{}, now)

	status, err := s.AdminStatus(context.Background())
	if err != nil {
		t.Fatalf("AdminStatus() error = %v", err)
	}
	if status.Configured || status.CreatedAt != nil {
		t.Errorf("fresh store reported configured: %+v", status)
	}

	if err := s.SetAdminSecret(context.Background(), &domain.SetAdminSecretRequest{Secret: "ProperSecret1"}); err != nil {
		t.Fatalf("SetAdminSecret() error = %v", err)
	}

	status, err = s.AdminStatus(context.Background())
	if err != nil {
		t.Fatalf("AdminStatus() error = %v", err)
	}
	if !status.Configured || status.CreatedAt == nil || !status.CreatedAt.Equal(now) {
		t.Errorf("status after set = %+v", status)
	}
}

func TestDeleteCredential(t *testing.T) {
	now := time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)
	repo := newMockCredentialRepo()
	repo.add(domain.Credential{ID: "victim", Category: domain.CategoryAgent, Secret: "s"})
	bus := &mockPublisher{}
	s := newTestCredentialService(repo, bus, &mockMailer{}, now)

	if err := s.Delete(context.Background(), "victim"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Delete(context.Background(), "victim"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("double delete: got %v, want ErrNotFound", err)
	}
	if err := s.Delete(context.Background(), domain.AdminCredentialID); !errors.Is(err, domain.ErrAdminReserved) {
		t.Errorf("admin delete: got %v, want ErrAdminReserved", err)
	}

	if subjects := bus.subjects(); len(subjects) != 1 || subjects[0] != events.CredentialDeleted {
		t.Errorf("published subjects = %v", subjects)
	}
}

func TestStoreFailureSurfacesNotSwallowed(t *testing.T) {
	now := time.Date(2025, time.March, 15, 12, 0, 0, 0, time.UTC)
	repo := newMockCredentialRepo()
	repo.failing = true
	s := newTestCredentialService(repo, &mockPublisher{}, &mockMailer{}, now)

	if _, err := s.List(context.Background(), domain.CategoryAgent); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("List: got %v, want ErrStoreUnavailable", err)
	}
	if _, err := s.AdminStatus(context.Background()); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("AdminStatus: got %v, want ErrStoreUnavailable", err)
	}
}
