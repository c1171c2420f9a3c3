package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dohwa-law/portal-gate/internal/domain"
	"github.com/dohwa-law/portal-gate/internal/mailer"
	"github.com/dohwa-law/portal-gate/internal/repository"
	"github.com/dohwa-law/portal-gate/pkg/events"
	"github.com/dohwa-law/portal-gate/pkg/logger"
)

// CredentialWithStatus pairs a credential with its expiry classification so
// the management screen can render badges without reimplementing the policy.
type CredentialWithStatus struct {
	domain.Credential
	Expiry domain.ExpiryStatus `json:"expiry"`
}

// CredentialService owns the credential lifecycle: issue, list, revoke, and
// the singleton admin secret.
type CredentialService interface {
	List(ctx context.Context, category domain.Category) ([]CredentialWithStatus, error)
	Create(ctx context.Context, req *domain.CreateCredentialRequest) (*domain.Credential, error)
	Delete(ctx context.Context, id string) error
	AdminStatus(ctx context.Context) (*domain.AdminStatus, error)
	SetAdminSecret(ctx context.Context, req *domain.SetAdminSecretRequest) error
}

type credentialService struct {
	repo        repository.CredentialRepository
	bus         events.Publisher
	mailer      mailer.Service
	notifyEmail string
	now         func() time.Time
}

func NewCredentialService(repo repository.CredentialRepository, bus events.Publisher, m mailer.Service, notifyEmail string) CredentialService {
	return &credentialService{
		repo:        repo,
		bus:         bus,
		mailer:      m,
		notifyEmail: notifyEmail,
		now:         time.Now,
	}
}

func (s *credentialService) List(ctx context.Context, category domain.Category) ([]CredentialWithStatus, error) {
	if category != domain.CategoryAgent && category != domain.CategoryBuyer {
		return nil, &domain.ValidationError{Field: "category", Message: "category must be agent or buyer"}
	}

	creds, err := s.repo.ListByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list credentials: %w", err)
	}

	today := domain.DateOf(s.now())
	out := make([]CredentialWithStatus, len(creds))
	for i, cred := range creds {
		out[i] = CredentialWithStatus{
			Credential: cred,
			Expiry:     domain.DescribeExpiry(&cred, today),
		}
	}
	return out, nil
}

func (s *credentialService) Create(ctx context.Context, req *domain.CreateCredentialRequest) (*domain.Credential, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cred := &domain.Credential{
		ID:        uuid.NewString(),
		Category:  req.Category,
		Secret:    req.Secret,
		Label:     req.Label,
		CreatedAt: s.now(),
		ExpiresAt: req.ExpiresAt,
	}

	if err := s.repo.Create(ctx, cred); err != nil {
		return nil, fmt.Errorf("failed to create credential: %w", err)
	}

	s.publish(ctx, events.CredentialCreated, events.CredentialCreatedEvent{
		CredentialID: cred.ID,
		Category:     string(cred.Category),
		Label:        cred.Label,
		ExpiresAt:    expiryString(cred.ExpiresAt),
		CreatedAt:    cred.CreatedAt,
	})

	return cred, nil
}

func (s *credentialService) Delete(ctx context.Context, id string) error {
	if id == domain.AdminCredentialID {
		return domain.ErrAdminReserved
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, events.CredentialDeleted, events.CredentialDeletedEvent{
		CredentialID: id,
		DeletedAt:    s.now(),
	})

	return nil
}

func (s *credentialService) AdminStatus(ctx context.Context) (*domain.AdminStatus, error) {
	admin, err := s.repo.GetAdmin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load admin credential: %w", err)
	}
	if admin == nil {
		return &domain.AdminStatus{Configured: false}, nil
	}
	createdAt := admin.CreatedAt
	return &domain.AdminStatus{Configured: true, CreatedAt: &createdAt}, nil
}

// SetAdminSecret replaces the admin secret in place. The previous secret is
// gone for good; last writer wins.
func (s *credentialService) SetAdminSecret(ctx context.Context, req *domain.SetAdminSecretRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	rotatedAt := s.now()
	if _, err := s.repo.SetAdmin(ctx, req.Secret, rotatedAt); err != nil {
		return fmt.Errorf("failed to set admin secret: %w", err)
	}

	s.publish(ctx, events.AdminSecretRotated, events.AdminSecretRotatedEvent{RotatedAt: rotatedAt})

	if s.mailer != nil && s.notifyEmail != "" {
		if err := s.mailer.SendAdminRotationNotice(s.notifyEmail, rotatedAt); err != nil {
			logger.WarnContext(ctx, "Failed to send admin rotation notice", "error", err)
		}
	}

	return nil
}

func (s *credentialService) publish(ctx context.Context, subject string, payload interface{}) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, subject, payload); err != nil {
		logger.WarnContext(ctx, "Failed to publish credential event", "error", err, "subject", subject)
	}
}

func expiryString(d *domain.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}
