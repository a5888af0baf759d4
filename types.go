package hostel

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// SessionEventKind identifies why the identity provider replaced the session.
type SessionEventKind string

const (
	EventInitialSession SessionEventKind = "INITIAL_SESSION"
	EventSignedIn       SessionEventKind = "SIGNED_IN"
	EventSignedOut      SessionEventKind = "SIGNED_OUT"
	EventTokenRefreshed SessionEventKind = "TOKEN_REFRESHED"
	EventUserUpdated    SessionEventKind = "USER_UPDATED"
)

// SessionHandler receives session-change notifications. The session is nil
// for sign-out events. Handlers must not call back into the identity client
// synchronously; defer any follow-up work.
type SessionHandler func(kind SessionEventKind, session *Session)

// Unsubscribe removes a previously registered session handler.
type Unsubscribe func()

// SignOutScope selects how far a sign-out reaches.
type SignOutScope string

const (
	// SignOutLocal invalidates only this client's session.
	SignOutLocal SignOutScope = "local"
	// SignOutGlobal invalidates every session the provider holds for the user.
	SignOutGlobal SignOutScope = "global"
)

// SignUpOptions carries the redirect target and pending profile metadata
// attached to an account creation request.
type SignUpOptions struct {
	// RedirectTo is the URL the provider embeds in the confirmation email.
	RedirectTo string
	// Data is arbitrary user metadata stored on the provider-side user
	// record; the profile seeding path reads first_name/last_name from it.
	Data map[string]any
}

// IdentityClient is the surface of the external auth service this package
// consumes. Implementations live under provider/.
type IdentityClient interface {
	SignInWithPassword(ctx context.Context, email, password string) error
	SignUp(ctx context.Context, email, password string, opts SignUpOptions) error
	SignOut(ctx context.Context, scope SignOutScope) error

	GetSession(ctx context.Context) (*Session, error)
	GetUser(ctx context.Context) (*User, error)

	OnSessionChange(handler SessionHandler) Unsubscribe
}

// ArtifactStore is a key-value store holding locally persisted auth
// artifacts (tokens, session blobs). Two scopes exist in practice: a
// process-lifetime store and a durable one; cleanup sweeps both.
type ArtifactStore interface {
	Keys(ctx context.Context) ([]string, error)
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, error)
	Remove(ctx context.Context, key string) error
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] HOSTEL "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] HOSTEL "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] HOSTEL "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] HOSTEL "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
