package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dohwa-law/portal-gate/internal/domain"
	"github.com/dohwa-law/portal-gate/internal/repository"
	"github.com/dohwa-law/portal-gate/pkg/events"
	"github.com/dohwa-law/portal-gate/pkg/logger"
)

// Denial reasons returned to password prompts. They are intentionally coarse:
// a prompt never learns whether a secret was wrong or merely expired.
const (
	ReasonInvalid          = "invalid"
	ReasonInvalidOrExpired = "invalid_or_expired"
	ReasonNotConfigured    = "not_configured"
)

type VerifyResult struct {
	Granted bool
	Reason  string
	// Emergency marks a grant through the override secret; surfaced in events
	// so bypass use is auditable.
	Emergency bool
}

// VerificationService is the single authority deciding whether a submitted
// plaintext unlocks a category. It never mutates the credential store.
type VerificationService interface {
	Verify(ctx context.Context, req *domain.VerifyRequest) (*VerifyResult, error)
}

type verificationService struct {
	repo            repository.CredentialRepository
	bus             events.Publisher
	emergencySecret string
	now             func() time.Time
}

func NewVerificationService(repo repository.CredentialRepository, bus events.Publisher, emergencySecret string) VerificationService {
	return &verificationService{
		repo:            repo,
		bus:             bus,
		emergencySecret: emergencySecret,
		now:             time.Now,
	}
}

func (s *verificationService) Verify(ctx context.Context, req *domain.VerifyRequest) (*VerifyResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var (
		result *VerifyResult
		err    error
	)
	if req.Category == domain.CategoryAdmin {
		result, err = s.verifyAdmin(ctx, req.Secret)
	} else {
		result, err = s.verifyCategory(ctx, req.Category, req.Secret)
	}
	if err != nil {
		return nil, err
	}

	s.publishOutcome(ctx, req.Category, result)
	return result, nil
}

// verifyAdmin checks the emergency override first so operators are never
// permanently locked out, then falls back to the stored admin secret. Admin
// credentials carry no expiry.
func (s *verificationService) verifyAdmin(ctx context.Context, secret string) (*VerifyResult, error) {
	if s.emergencySecret != "" && secret == s.emergencySecret {
		logger.WarnContext(ctx, "Emergency override secret used for admin access")
		return &VerifyResult{Granted: true, Emergency: true}, nil
	}

	admin, err := s.repo.GetAdmin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load admin credential: %w", err)
	}
	if admin == nil {
		return &VerifyResult{Granted: false, Reason: ReasonNotConfigured}, nil
	}

	// Exact, case-sensitive comparison; plaintext by design.
	if secret == admin.Secret {
		return &VerifyResult{Granted: true}, nil
	}
	return &VerifyResult{Granted: false, Reason: ReasonInvalid}, nil
}

func (s *verificationService) verifyCategory(ctx context.Context, category domain.Category, secret string) (*VerifyResult, error) {
	creds, err := s.repo.ListByCategory(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s credentials: %w", category, err)
	}

	today := domain.DateOf(s.now())
	for _, cred := range creds {
		if !cred.CurrentlyValid(today) {
			continue
		}
		if secret == cred.Secret {
			return &VerifyResult{Granted: true}, nil
		}
	}
	return &VerifyResult{Granted: false, Reason: ReasonInvalidOrExpired}, nil
}

func (s *verificationService) publishOutcome(ctx context.Context, category domain.Category, result *VerifyResult) {
	if s.bus == nil {
		return
	}

	var err error
	if result.Granted {
		err = s.bus.Publish(ctx, events.AccessGranted, events.AccessGrantedEvent{
			Category:  string(category),
			Emergency: result.Emergency,
			GrantedAt: s.now(),
		})
	} else {
		err = s.bus.Publish(ctx, events.AccessDenied, events.AccessDeniedEvent{
			Category: string(category),
			Reason:   result.Reason,
			DeniedAt: s.now(),
		})
	}
	if err != nil {
		logger.WarnContext(ctx, "Failed to publish access event", "error", err, "category", category)
	}
}
