package mailer

import (
	"fmt"
	"time"

	"github.com/dohwa-law/portal-gate/pkg/logger"
)

type DevMailer struct{}

func NewDevMailer() *DevMailer {
	return &DevMailer{}
}

func (d *DevMailer) SendExpiryReport(toEmail string, entries []ExpiringCredential) error {
	logger.Info("📧 [DEV MAIL] Expiry Report",
		"to", toEmail,
		"expiring", len(entries),
	)

	fmt.Printf("\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"📧 EXPIRY REPORT (DEV MODE)\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"To: %s\n"+
		"Subject: Portal passwords expiring soon\n\n",
		toEmail)
	for _, e := range entries {
		fmt.Printf("  - [%s] %s: expires %s (%d days left)\n", e.Category, e.Label, e.Expires, e.DaysLeft)
	}
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	return nil
}

func (d *DevMailer) SendAdminRotationNotice(toEmail string, rotatedAt time.Time) error {
	logger.Info("📧 [DEV MAIL] Admin Rotation Notice",
		"to", toEmail,
		"rotated_at", rotatedAt,
	)

	fmt.Printf("\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"📧 ADMIN ROTATION NOTICE (DEV MODE)\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n"+
		"To: %s\n"+
		"Subject: Admin password was changed\n"+
		"\n"+
		"The admin password was replaced at %s.\n"+
		"━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n",
		toEmail, rotatedAt.Format(time.RFC3339))

	return nil
}
