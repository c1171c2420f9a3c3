package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dohwa-law/portal-gate/internal/domain"
	"github.com/dohwa-law/portal-gate/internal/mailer"
)

// ---------- Mocks ----------

type mockCredentialRepo struct {
	creds   map[string]*domain.Credential
	failing bool
}

func newMockCredentialRepo() *mockCredentialRepo {
	return &mockCredentialRepo{creds: make(map[string]*domain.Credential)}
}

func (m *mockCredentialRepo) add(cred domain.Credential) {
	m.creds[cred.ID] = &cred
}

func (m *mockCredentialRepo) ListByCategory(_ context.Context, category domain.Category) ([]domain.Credential, error) {
	if m.failing {
		return nil, fmt.Errorf("%w: connection refused", domain.ErrStoreUnavailable)
	}
	var out []domain.Credential
	for id, cred := range m.creds {
		if id == domain.AdminCredentialID || cred.Category != category {
			continue
		}
		out = append(out, *cred)
	}
	return out, nil
}

func (m *mockCredentialRepo) Create(_ context.Context, cred *domain.Credential) error {
	if m.failing {
		return fmt.Errorf("%w: connection refused", domain.ErrStoreUnavailable)
	}
	copied := *cred
	m.creds[cred.ID] = &copied
	return nil
}

func (m *mockCredentialRepo) GetAdmin(_ context.Context) (*domain.Credential, error) {
	if m.failing {
		return nil, fmt.Errorf("%w: connection refused", domain.ErrStoreUnavailable)
	}
	admin, ok := m.creds[domain.AdminCredentialID]
	if !ok {
		return nil, nil
	}
	copied := *admin
	return &copied, nil
}

func (m *mockCredentialRepo) SetAdmin(_ context.Context, secret string, now time.Time) (*domain.Credential, error) {
	if m.failing {
		return nil, fmt.Errorf("%w: connection refused", domain.ErrStoreUnavailable)
	}
	cred := &domain.Credential{
		ID:        domain.AdminCredentialID,
		Category:  domain.CategoryAdmin,
		Secret:    secret,
		CreatedAt: now,
	}
	m.creds[domain.AdminCredentialID] = cred
	copied := *cred
	return &copied, nil
}

func (m *mockCredentialRepo) Delete(_ context.Context, id string) error {
	if m.failing {
		return fmt.Errorf("%w: connection refused", domain.ErrStoreUnavailable)
	}
	if id == domain.AdminCredentialID {
		return domain.ErrAdminReserved
	}
	if _, ok := m.creds[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.creds, id)
	return nil
}

type publishedEvent struct {
	subject string
	payload interface{}
}

type mockPublisher struct {
	events []publishedEvent
}

func (m *mockPublisher) Publish(_ context.Context, subject string, data interface{}) error {
	m.events = append(m.events, publishedEvent{subject: subject, payload: data})
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) subjects() []string {
	out := make([]string, len(m.events))
	for i, e := range m.events {
		out[i] = e.subject
	}
	return out
}

type mockMailer struct {
	reports      [][]mailer.ExpiringCredential
	rotationTo   []string
	lastReportTo string
	reportErr    error
}

func (m *mockMailer) SendExpiryReport(toEmail string, entries []mailer.ExpiringCredential) error {
	if m.reportErr != nil {
		return m.reportErr
	}
	m.lastReportTo = toEmail
	m.reports = append(m.reports, entries)
	return nil
}

func (m *mockMailer) SendAdminRotationNotice(toEmail string, _ time.Time) error {
	m.rotationTo = append(m.rotationTo, toEmail)
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
