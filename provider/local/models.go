package local

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is a locally stored credential record. It mirrors the slice of the
// hosted provider's user table this system needs: id, email, confirmation
// state and the free-form metadata sign-up attaches.
type Account struct {
	bun.BaseModel    `bun:"table:local_accounts,alias:lacc"`
	ID               uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email            string         `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash     string         `bun:"password_hash,notnull" json:"-"`
	EmailConfirmedAt *time.Time     `bun:"email_confirmed_at,nullzero" json:"email_confirmed_at,omitempty"`
	Metadata         map[string]any `bun:"metadata,type:jsonb" json:"metadata,omitempty"`
	CreatedAt        *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt        *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// IsConfirmed reports whether the account's email has been verified.
func (a *Account) IsConfirmed() bool {
	return a != nil && a.EmailConfirmedAt != nil
}
