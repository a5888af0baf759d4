package local

import (
	"context"
	"encoding/json"
	"net/mail"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/hostelhub/go-hostel"
	"github.com/uptrace/bun"
)

// SessionKey is the artifact-store key the provider persists its session
// under. It sits under a swept prefix so hostel.CleanupAuthArtifacts removes
// it.
const SessionKey = "hh-local.session"

// Config configures the local identity provider.
type Config struct {
	// SigningKey signs the HS256 access tokens.
	SigningKey []byte

	// TokenTTL is the access token lifetime. Defaults to an hour.
	TokenTTL time.Duration

	// Issuer is stamped into minted tokens.
	Issuer string

	// AutoConfirm marks new accounts as confirmed immediately instead of
	// requiring email verification. Meant for development setups where no
	// mailer exists.
	AutoConfirm bool

	// SessionStore persists the session blob between process restarts.
	SessionStore hostel.ArtifactStore

	// Logger defaults to a noop-ish stdout logger when nil.
	Logger hostel.Logger
}

// Provider implements hostel.IdentityClient against a local account table.
// It exists for development and self-hosted installs that have no hosted
// auth service; semantics mirror the hosted provider, including error
// classification and session-change events.
type Provider struct {
	config   Config
	accounts repository.Repository[*Account]
	db       *bun.DB
	tokens   *tokenService
	logger   hostel.Logger
	now      func() time.Time

	mu       sync.Mutex
	session  *hostel.Session
	next     uint64
	handlers map[uint64]hostel.SessionHandler
}

var _ hostel.IdentityClient = (*Provider)(nil)

type ProviderOption func(*Provider)

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) ProviderOption {
	return func(p *Provider) {
		if clock != nil {
			p.now = clock
		}
	}
}

func NewProvider(db *bun.DB, cfg Config, opts ...ProviderOption) (*Provider, error) {
	if len(cfg.SigningKey) == 0 {
		return nil, goerrors.New("local: signing key is required", goerrors.CategoryBadInput)
	}

	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = time.Hour
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	provider := &Provider{
		config:   cfg,
		accounts: newAccountsRepository(db),
		db:       db,
		tokens:   newTokenService(cfg.SigningKey, cfg.TokenTTL, cfg.Issuer),
		logger:   logger,
		now:      time.Now,
		handlers: map[uint64]hostel.SessionHandler{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(provider)
		}
	}

	provider.restoreSession()

	return provider, nil
}

func newAccountsRepository(db *bun.DB) repository.Repository[*Account] {
	return repository.NewRepository[*Account](db, repository.ModelHandlers[*Account]{
		NewRecord: func() *Account { return &Account{} },
		GetID: func(a *Account) uuid.UUID {
			if a == nil {
				return uuid.Nil
			}
			return a.ID
		},
		SetID: func(a *Account, id uuid.UUID) {
			if a != nil {
				a.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})
}

func (p *Provider) OnSessionChange(handler hostel.SessionHandler) hostel.Unsubscribe {
	p.mu.Lock()
	id := p.next
	p.next++
	p.handlers[id] = handler
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.handlers, id)
		p.mu.Unlock()
	}
}

func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) error {
	account, err := p.findByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			// Same error as a wrong password; account existence must not leak.
			return hostel.ErrInvalidCredentials.Clone()
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "local: account lookup failed")
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		return hostel.ErrInvalidCredentials.Clone()
	}

	if !account.IsConfirmed() {
		return hostel.ErrEmailNotConfirmed.Clone()
	}

	session, err := p.mintSession(account)
	if err != nil {
		return err
	}

	p.setSession(session, hostel.EventSignedIn)
	return nil
}

func (p *Provider) SignUp(ctx context.Context, email, password string, opts hostel.SignUpOptions) error {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return hostel.ErrInvalidEmail.Clone()
	}

	if _, err := p.findByEmail(ctx, email); err == nil {
		return hostel.ErrAlreadyRegistered.Clone()
	} else if !repository.IsRecordNotFound(err) {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "local: account lookup failed")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	account := &Account{
		Email:        email,
		PasswordHash: hash,
		Metadata:     opts.Data,
	}

	// Stable account ids: re-registering the same email after a wipe
	// produces the same id, which keeps profiles attached.
	if id, err := hashid.NewUUID(email); err == nil {
		account.ID = id
	}

	if p.config.AutoConfirm {
		confirmed := p.now()
		account.EmailConfirmedAt = &confirmed
	}

	if _, err := p.accounts.CreateTx(ctx, p.db, account); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryConflict, "local: could not create account")
	}

	return nil
}

func (p *Provider) SignOut(ctx context.Context, scope hostel.SignOutScope) error {
	p.setSession(nil, hostel.EventSignedOut)
	return nil
}

func (p *Provider) GetSession(ctx context.Context) (*hostel.Session, error) {
	p.mu.Lock()
	session := p.session
	p.mu.Unlock()

	if session == nil {
		return nil, nil
	}

	if session.IsExpired(p.now()) {
		p.setSession(nil, hostel.EventSignedOut)
		return nil, nil
	}

	return session, nil
}

func (p *Provider) GetUser(ctx context.Context) (*hostel.User, error) {
	session, err := p.GetSession(ctx)
	if err != nil {
		return nil, err
	}

	if session == nil || session.User == nil {
		return nil, goerrors.New("local: no active session", goerrors.CategoryAuth).
			WithCode(goerrors.CodeUnauthorized)
	}

	account, err := p.accounts.GetByID(ctx, session.User.ID)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, goerrors.New("local: account no longer exists", goerrors.CategoryNotFound)
		}
		return nil, err
	}

	return accountToUser(account), nil
}

// ConfirmEmail marks the account as verified. Installations without a
// mailer call this from an admin tool.
func (p *Provider) ConfirmEmail(ctx context.Context, email string) error {
	account, err := p.findByEmail(ctx, email)
	if err != nil {
		return err
	}

	confirmed := p.now()
	account.EmailConfirmedAt = &confirmed

	_, err = p.accounts.Update(ctx, account, repository.UpdateByID(account.ID.String()))
	return err
}

func (p *Provider) findByEmail(ctx context.Context, email string) (*Account, error) {
	record := &Account{}
	err := p.db.NewSelect().
		Model(record).
		Where("LOWER(?TableAlias.email) = LOWER(?)", strings.TrimSpace(email)).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound()
		}
		return nil, err
	}

	return record, nil
}

func (p *Provider) mintSession(account *Account) (*hostel.Session, error) {
	now := p.now()
	expires := now.Add(p.config.TokenTTL)

	token, err := p.tokens.Generate(account, now)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "local: minting access token")
	}

	return &hostel.Session{
		AccessToken:  token,
		TokenType:    "bearer",
		RefreshToken: uuid.NewString(),
		ExpiresAt:    &expires,
		User:         accountToUser(account),
	}, nil
}

func (p *Provider) setSession(session *hostel.Session, kind hostel.SessionEventKind) {
	p.mu.Lock()
	p.session = session
	handlers := make([]hostel.SessionHandler, 0, len(p.handlers))
	for _, h := range p.handlers {
		handlers = append(handlers, h)
	}
	p.mu.Unlock()

	p.persistSession(session)

	for _, h := range handlers {
		h(kind, session)
	}
}

func (p *Provider) persistSession(session *hostel.Session) {
	store := p.config.SessionStore
	if store == nil {
		return
	}

	ctx := context.Background()
	if session == nil {
		if err := store.Remove(ctx, SessionKey); err != nil {
			p.logger.Debug("session store remove: %v", err)
		}
		return
	}

	blob, err := json.Marshal(session)
	if err != nil {
		p.logger.Warn("session serialization: %v", err)
		return
	}

	if err := store.Set(ctx, SessionKey, string(blob)); err != nil {
		p.logger.Debug("session store set: %v", err)
	}
}

func (p *Provider) restoreSession() {
	store := p.config.SessionStore
	if store == nil {
		return
	}

	blob, err := store.Get(context.Background(), SessionKey)
	if err != nil || blob == "" {
		return
	}

	session := &hostel.Session{}
	if err := json.Unmarshal([]byte(blob), session); err != nil {
		p.logger.Warn("stored session is corrupt, discarding: %v", err)
		return
	}

	p.mu.Lock()
	p.session = session
	p.mu.Unlock()
}

func accountToUser(account *Account) *hostel.User {
	if account == nil {
		return nil
	}

	return &hostel.User{
		ID:               account.ID.String(),
		Email:            account.Email,
		EmailConfirmedAt: account.EmailConfirmedAt,
		Metadata:         account.Metadata,
		CreatedAt:        account.CreatedAt,
	}
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
