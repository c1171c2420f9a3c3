package domain

import "fmt"

// ExpiryState classifies a credential's expiry for display. It is
// presentation metadata: the accept/reject decision only ever consults
// CurrentlyValid.
type ExpiryState string

const (
	ExpiryNone    ExpiryState = "no-expiry"
	ExpiryExpired ExpiryState = "expired"
	ExpirySoon    ExpiryState = "expiring-soon"
	ExpiryValid   ExpiryState = "valid-with-date"
)

// expiringSoonDays is the inclusive window for the "expiring soon" badge.
const expiringSoonDays = 7

type ExpiryStatus struct {
	State ExpiryState `json:"state"`
	Label string      `json:"label"`
}

// DescribeExpiry classifies a credential against a reference day.
func DescribeExpiry(c *Credential, today Date) ExpiryStatus {
	if c.ExpiresAt == nil {
		return ExpiryStatus{State: ExpiryNone, Label: "no expiry"}
	}

	days := today.DaysUntil(*c.ExpiresAt)
	switch {
	case days < 0:
		return ExpiryStatus{State: ExpiryExpired, Label: "expired"}
	case days <= expiringSoonDays:
		return ExpiryStatus{State: ExpirySoon, Label: fmt.Sprintf("expires in %d days", days)}
	default:
		return ExpiryStatus{State: ExpiryValid, Label: fmt.Sprintf("valid until %s", c.ExpiresAt)}
	}
}
