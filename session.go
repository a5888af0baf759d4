package hostel

import (
	"fmt"
	"time"
)

// User is the identity-provider-owned account record. It is read-only from
// this system's perspective; the application-level fields live on Profile.
type User struct {
	ID               string         `json:"id,omitempty"`
	Email            string         `json:"email,omitempty"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at,omitempty"`
	Metadata         map[string]any `json:"user_metadata,omitempty"`
	CreatedAt        *time.Time     `json:"created_at,omitempty"`
}

// MetadataString reads a string field from the provider-side user metadata.
// Sign-up stores first_name/last_name there for later profile seeding.
func (u *User) MetadataString(key string) string {
	if u == nil || u.Metadata == nil {
		return ""
	}
	if val, ok := u.Metadata[key].(string); ok {
		return val
	}
	return ""
}

// Session is the provider-issued credential bundle. It is replaced wholesale
// on every auth event and destroyed on sign-out; nothing mutates one in
// place.
type Session struct {
	AccessToken  string     `json:"access_token,omitempty"`
	TokenType    string     `json:"token_type,omitempty"`
	RefreshToken string     `json:"refresh_token,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	User         *User      `json:"user,omitempty"`
}

// GetUserID returns the id of the user the session was issued for.
func (s *Session) GetUserID() string {
	if s == nil || s.User == nil {
		return ""
	}
	return s.User.ID
}

// IsExpired reports whether the session's validity lifetime has passed.
// Sessions without an expiry are treated as live.
func (s *Session) IsExpired(now time.Time) bool {
	if s == nil {
		return true
	}
	if s.ExpiresAt == nil {
		return false
	}
	return !now.Before(*s.ExpiresAt)
}

func (s Session) String() string {
	expires := "<nil>"
	if s.ExpiresAt != nil {
		expires = s.ExpiresAt.Format(time.RFC1123)
	}
	return fmt.Sprintf("user=%s type=%s exp=%s", s.GetUserID(), s.TokenType, expires)
}
