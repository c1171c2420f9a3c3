package service

import (
	"context"
	"time"

	"github.com/dohwa-law/portal-gate/internal/domain"
	"github.com/dohwa-law/portal-gate/internal/mailer"
	"github.com/dohwa-law/portal-gate/internal/repository"
	"github.com/dohwa-law/portal-gate/pkg/logger"
)

// ExpiryNotifier periodically mails the operator a summary of agent/buyer
// credentials inside the expiring-soon window so replacements can be shared
// before access lapses.
type ExpiryNotifier struct {
	repo        repository.CredentialRepository
	mailer      mailer.Service
	notifyEmail string
	interval    time.Duration
	now         func() time.Time
}

func NewExpiryNotifier(repo repository.CredentialRepository, m mailer.Service, notifyEmail string, interval time.Duration) *ExpiryNotifier {
	return &ExpiryNotifier{
		repo:        repo,
		mailer:      m,
		notifyEmail: notifyEmail,
		interval:    interval,
		now:         time.Now,
	}
}

// Run sweeps once at startup and then on every tick until the context ends.
func (n *ExpiryNotifier) Run(ctx context.Context) error {
	if n.notifyEmail == "" {
		logger.Info("Expiry notifier disabled: no notify email configured")
		<-ctx.Done()
		return ctx.Err()
	}

	n.sweep(ctx)

	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n.sweep(ctx)
		}
	}
}

func (n *ExpiryNotifier) sweep(ctx context.Context) {
	entries, err := n.collect(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Expiry sweep failed", "error", err)
		return
	}
	if len(entries) == 0 {
		logger.DebugContext(ctx, "Expiry sweep found nothing expiring soon")
		return
	}

	if err := n.mailer.SendExpiryReport(n.notifyEmail, entries); err != nil {
		logger.ErrorContext(ctx, "Failed to send expiry report", "error", err, "expiring", len(entries))
		return
	}
	logger.InfoContext(ctx, "Sent expiry report", "expiring", len(entries))
}

func (n *ExpiryNotifier) collect(ctx context.Context) ([]mailer.ExpiringCredential, error) {
	today := domain.DateOf(n.now())

	var entries []mailer.ExpiringCredential
	for _, category := range []domain.Category{domain.CategoryAgent, domain.CategoryBuyer} {
		creds, err := n.repo.ListByCategory(ctx, category)
		if err != nil {
			return nil, err
		}
		for _, cred := range creds {
			status := domain.DescribeExpiry(&cred, today)
			if status.State != domain.ExpirySoon {
				continue
			}
			entries = append(entries, mailer.ExpiringCredential{
				Category: string(cred.Category),
				Label:    cred.Label,
				Expires:  cred.ExpiresAt.String(),
				DaysLeft: today.DaysUntil(*cred.ExpiresAt),
			})
		}
	}
	return entries, nil
}
