package domain

import (
	"strings"
	"time"
)

// Category identifies which dashboard a credential unlocks.
type Category string

const (
	CategoryAgent Category = "agent"
	CategoryBuyer Category = "buyer"
	CategoryAdmin Category = "admin"
)

var validCategories = map[Category]bool{
	CategoryAgent: true,
	CategoryBuyer: true,
	CategoryAdmin: true,
}

func (c Category) Valid() bool {
	return validCategories[c]
}

// Categories lists every dashboard category. Logout clears the session stamp
// for all of them at once.
func Categories() []Category {
	return []Category{CategoryAgent, CategoryBuyer, CategoryAdmin}
}

// AdminCredentialID is the reserved id of the singleton admin credential.
// The admin secret is replaced in place under this id, never appended.
const AdminCredentialID = "admin"

// MinAdminSecretLength is enforced at the store boundary, not merely in UI.
const MinAdminSecretLength = 8

// Credential is one sharable password. Secrets are stored and compared as
// plaintext: operators hand them out verbatim and read them back from the
// management screen. This is a documented weakness of the system, not an
// accident.
type Credential struct {
	ID        string    `json:"id"`
	Category  Category  `json:"category"`
	Secret    string    `json:"password"`
	Label     string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt *Date     `json:"expires_at,omitempty"`
}

// CurrentlyValid reports whether the credential is usable on the given day.
// No expiry date means the credential never expires; the expiry day itself is
// still valid.
func (c *Credential) CurrentlyValid(today Date) bool {
	if c.ExpiresAt == nil {
		return true
	}
	return !c.ExpiresAt.Before(today)
}

type CreateCredentialRequest struct {
	Category  Category `json:"category"`
	Secret    string   `json:"password"`
	Label     string   `json:"name,omitempty"`
	ExpiresAt *Date    `json:"expires_at,omitempty"`
}

func (r *CreateCredentialRequest) Normalize() {
	r.Label = strings.TrimSpace(r.Label)
}

func (r *CreateCredentialRequest) Validate() error {
	if !r.Category.Valid() {
		return &ValidationError{Field: "category", Message: "category must be agent, buyer, or admin"}
	}
	if r.Category == CategoryAdmin {
		return &ValidationError{Field: "category", Message: "admin credential is managed through the admin secret endpoint"}
	}
	if r.Secret == "" {
		return &ValidationError{Field: "password", Message: "password is required"}
	}
	return nil
}

type SetAdminSecretRequest struct {
	Secret string `json:"password"`
}

func (r *SetAdminSecretRequest) Validate() error {
	if r.Secret == "" {
		return &ValidationError{Field: "password", Message: "password is required"}
	}
	if len(r.Secret) < MinAdminSecretLength {
		return &ValidationError{Field: "password", Message: "password must be at least 8 characters"}
	}
	return nil
}

type VerifyRequest struct {
	Category Category `json:"category"`
	Secret   string   `json:"password"`
}

func (r *VerifyRequest) Validate() error {
	if !r.Category.Valid() {
		return &ValidationError{Field: "category", Message: "category must be agent, buyer, or admin"}
	}
	if r.Secret == "" {
		return &ValidationError{Field: "password", Message: "password is required"}
	}
	return nil
}

// AdminStatus describes whether the admin secret has been configured. An
// unconfigured admin secret is a valid state, not an error.
type AdminStatus struct {
	Configured bool       `json:"configured"`
	CreatedAt  *time.Time `json:"created_at,omitempty"`
}
