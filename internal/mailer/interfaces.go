package mailer

import "time"

// ExpiringCredential is one line of the daily expiry report.
type ExpiringCredential struct {
	Category string
	Label    string
	Expires  string
	DaysLeft int
}

type Service interface {
	SendExpiryReport(toEmail string, entries []ExpiringCredential) error
	SendAdminRotationNotice(toEmail string, rotatedAt time.Time) error
}
