package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/hostelhub/go-hostel"
)

// SessionKey is the artifact-store key the client persists its session
// under. It sits under a swept prefix so hostel.CleanupAuthArtifacts removes
// it.
const SessionKey = "gotrue.auth.token"

// Client implements hostel.IdentityClient against a GoTrue HTTP endpoint.
//
// The client keeps the current session in memory, mirrors it to the
// configured artifact store, and emits a session-change event on every
// transition (sign-in, refresh, sign-out).
type Client struct {
	config  Config
	http    *http.Client
	logger  hostel.Logger
	now     func() time.Time
	emitter *emitter

	mu      sync.RWMutex
	session *hostel.Session
}

var _ hostel.IdentityClient = (*Client)(nil)

type ClientOption func(*Client)

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) ClientOption {
	return func(c *Client) {
		if clock != nil {
			c.now = clock
		}
	}
}

func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = defLogger{}
	}

	client := &Client{
		config:  cfg,
		http:    cfg.httpClient(),
		logger:  logger,
		now:     time.Now,
		emitter: newEmitter(),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	client.restoreSession()

	return client, nil
}

func (c *Client) OnSessionChange(handler hostel.SessionHandler) hostel.Unsubscribe {
	return c.emitter.Subscribe(handler)
}

// SignInWithPassword exchanges credentials for a session. On success the
// session is stored and a SIGNED_IN event fires; on failure the returned
// error is classified per the auth taxonomy and local state is untouched.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) error {
	payload := map[string]string{
		"email":    strings.TrimSpace(email),
		"password": password,
	}

	var raw sessionPayload
	err := c.do(ctx, http.MethodPost, "/token", url.Values{"grant_type": {"password"}}, payload, "", &raw)
	if err != nil {
		return err
	}

	session := raw.toSession(c.now())
	c.setSession(session, hostel.EventSignedIn)

	return nil
}

// SignUp requests account creation. GoTrue sends the confirmation email
// itself; no session is established and no event fires.
func (c *Client) SignUp(ctx context.Context, email, password string, opts hostel.SignUpOptions) error {
	query := url.Values{}
	if opts.RedirectTo != "" {
		query.Set("redirect_to", opts.RedirectTo)
	}

	payload := map[string]any{
		"email":    strings.TrimSpace(email),
		"password": password,
	}
	if len(opts.Data) > 0 {
		payload["data"] = opts.Data
	}

	return c.do(ctx, http.MethodPost, "/signup", query, payload, "", nil)
}

// SignOut revokes the session server-side and always clears local state,
// even when the revocation request fails; a dead local session must never
// outlive a sign-out attempt.
func (c *Client) SignOut(ctx context.Context, scope hostel.SignOutScope) error {
	token := c.accessToken()

	c.setSession(nil, hostel.EventSignedOut)

	if token == "" {
		return nil
	}

	query := url.Values{}
	if scope != "" {
		query.Set("scope", string(scope))
	}

	return c.do(ctx, http.MethodPost, "/logout", query, nil, token, nil)
}

// GetSession returns the current session, refreshing it first when expired
// and a refresh token is available. A nil session with a nil error means
// nobody is signed in.
func (c *Client) GetSession(ctx context.Context) (*hostel.Session, error) {
	c.mu.RLock()
	session := c.session
	c.mu.RUnlock()

	if session == nil {
		return nil, nil
	}

	if session.IsExpired(c.now()) {
		if session.RefreshToken == "" {
			c.setSession(nil, hostel.EventSignedOut)
			return nil, nil
		}
		return c.refreshSession(ctx, session.RefreshToken)
	}

	return session, nil
}

// GetUser fetches the live user record for the current session.
func (c *Client) GetUser(ctx context.Context) (*hostel.User, error) {
	token := c.accessToken()
	if token == "" {
		return nil, goerrors.New("gotrue: no active session", goerrors.CategoryAuth).
			WithCode(goerrors.CodeUnauthorized)
	}

	user := &hostel.User{}
	if err := c.do(ctx, http.MethodGet, "/user", nil, nil, token, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (c *Client) refreshSession(ctx context.Context, refreshToken string) (*hostel.Session, error) {
	payload := map[string]string{"refresh_token": refreshToken}

	var raw sessionPayload
	err := c.do(ctx, http.MethodPost, "/token", url.Values{"grant_type": {"refresh_token"}}, payload, "", &raw)
	if err != nil {
		// A rejected refresh token means the session is gone for good.
		c.setSession(nil, hostel.EventSignedOut)
		return nil, err
	}

	session := raw.toSession(c.now())
	c.setSession(session, hostel.EventTokenRefreshed)

	return session, nil
}

func (c *Client) accessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return ""
	}
	return c.session.AccessToken
}

func (c *Client) setSession(session *hostel.Session, kind hostel.SessionEventKind) {
	c.mu.Lock()
	c.session = session
	c.mu.Unlock()

	c.persistSession(session)
	c.emitter.Emit(kind, session)
}

func (c *Client) persistSession(session *hostel.Session) {
	store := c.config.SessionStore
	if store == nil {
		return
	}

	ctx := context.Background()
	if session == nil {
		if err := store.Remove(ctx, SessionKey); err != nil {
			c.logger.Debug("session store remove: %v", err)
		}
		return
	}

	blob, err := json.Marshal(session)
	if err != nil {
		c.logger.Warn("session serialization: %v", err)
		return
	}

	if err := store.Set(ctx, SessionKey, string(blob)); err != nil {
		c.logger.Debug("session store set: %v", err)
	}
}

func (c *Client) restoreSession() {
	store := c.config.SessionStore
	if store == nil {
		return
	}

	blob, err := store.Get(context.Background(), SessionKey)
	if err != nil || blob == "" {
		return
	}

	session := &hostel.Session{}
	if err := json.Unmarshal([]byte(blob), session); err != nil {
		c.logger.Warn("stored session is corrupt, discarding: %v", err)
		return
	}

	c.mu.Lock()
	c.session = session
	c.mu.Unlock()
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any, token string, out any) error {
	endpoint := c.config.baseURL() + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if payload != nil {
		blob, err := json.Marshal(payload)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "gotrue: encoding request")
		}
		body = bytes.NewReader(blob)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "gotrue: building request")
	}

	req.Header.Set("apikey", c.config.APIKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return goerrors.Wrap(hostel.ErrAuthUnavailable, goerrors.CategoryInternal, "gotrue: request failed").
			WithMetadata(map[string]any{"cause": err.Error()})
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return goerrors.Wrap(hostel.ErrAuthUnavailable, goerrors.CategoryInternal, "gotrue: reading response").
			WithMetadata(map[string]any{"cause": err.Error()})
	}

	if res.StatusCode >= 400 {
		return classifyError(res.StatusCode, raw)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "gotrue: decoding response")
		}
	}

	return nil
}

// sessionPayload is the wire shape of GoTrue's token responses. expires_at
// is preferred when present; otherwise expiry is derived from expires_in.
type sessionPayload struct {
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	ExpiresAt    int64        `json:"expires_at"`
	User         *hostel.User `json:"user"`
}

func (p sessionPayload) toSession(now time.Time) *hostel.Session {
	session := &hostel.Session{
		AccessToken:  p.AccessToken,
		TokenType:    p.TokenType,
		RefreshToken: p.RefreshToken,
		User:         p.User,
	}

	switch {
	case p.ExpiresAt > 0:
		at := time.Unix(p.ExpiresAt, 0)
		session.ExpiresAt = &at
	case p.ExpiresIn > 0:
		at := now.Add(time.Duration(p.ExpiresIn) * time.Second)
		session.ExpiresAt = &at
	}

	return session
}

// errorPayload covers the error shapes GoTrue has shipped over time.
type errorPayload struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

func (p errorPayload) text() string {
	for _, candidate := range []string{p.ErrorDescription, p.Msg, p.Message, p.Error} {
		if candidate != "" {
			return candidate
		}
	}
	return ""
}

// classifyError maps a GoTrue error response onto the auth error taxonomy.
// Anything unrecognized stays generic so provider internals never reach the
// sign-in form.
func classifyError(status int, raw []byte) error {
	payload := errorPayload{}
	_ = json.Unmarshal(raw, &payload)

	text := payload.text()
	lowered := strings.ToLower(text)

	meta := map[string]any{"status": status}
	if text != "" {
		meta["provider_message"] = text
	}
	if payload.ErrorCode != "" {
		meta["error_code"] = payload.ErrorCode
	}

	switch {
	case payload.ErrorCode == "invalid_credentials" || strings.Contains(lowered, "invalid login credentials"):
		return hostel.ErrInvalidCredentials.Clone().WithMetadata(meta)

	case payload.ErrorCode == "email_not_confirmed" || strings.Contains(lowered, "email not confirmed"):
		return hostel.ErrEmailNotConfirmed.Clone().WithMetadata(meta)

	case payload.ErrorCode == "user_already_exists" || strings.Contains(lowered, "already registered") || strings.Contains(lowered, "already been registered"):
		return hostel.ErrAlreadyRegistered.Clone().WithMetadata(meta)

	case payload.ErrorCode == "validation_failed" && strings.Contains(lowered, "email"),
		strings.Contains(lowered, "unable to validate email"),
		strings.Contains(lowered, "invalid email"),
		strings.Contains(lowered, "invalid format"):
		return hostel.ErrInvalidEmail.Clone().WithMetadata(meta)

	case status >= 500:
		return hostel.ErrAuthUnavailable.Clone().WithMetadata(meta)

	default:
		if text == "" {
			text = fmt.Sprintf("unexpected provider response (%d)", status)
		}
		return goerrors.New(text, goerrors.CategoryAuth).WithMetadata(meta)
	}
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] GOTRUE "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] GOTRUE "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] GOTRUE "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] GOTRUE "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
