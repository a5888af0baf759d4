package hostel_test

import (
	"context"
	"sync"

	"github.com/google/uuid"
	hostel "github.com/hostelhub/go-hostel"
)

// fakeIdentityClient is a scriptable hostel.IdentityClient. Tests drive the
// event stream through Emit and control the one-shot session fetch with
// sessionGate.
type fakeIdentityClient struct {
	mu       sync.Mutex
	handlers []hostel.SessionHandler

	session    *hostel.Session
	sessionErr error
	// sessionGate, when set, blocks GetSession until closed.
	sessionGate chan struct{}

	user    *hostel.User
	userErr error

	signInErr  error
	signUpErr  error
	signOutErr error

	signInCalls  []string
	signUpCalls  []hostel.SignUpOptions
	signOutCalls []hostel.SignOutScope
}

func (f *fakeIdentityClient) OnSessionChange(handler hostel.SessionHandler) hostel.Unsubscribe {
	f.mu.Lock()
	f.handlers = append(f.handlers, handler)
	idx := len(f.handlers) - 1
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		f.handlers[idx] = nil
		f.mu.Unlock()
	}
}

func (f *fakeIdentityClient) Emit(kind hostel.SessionEventKind, session *hostel.Session) {
	f.mu.Lock()
	handlers := make([]hostel.SessionHandler, len(f.handlers))
	copy(handlers, f.handlers)
	f.mu.Unlock()

	for _, h := range handlers {
		if h != nil {
			h(kind, session)
		}
	}
}

func (f *fakeIdentityClient) SignInWithPassword(ctx context.Context, email, password string) error {
	f.mu.Lock()
	f.signInCalls = append(f.signInCalls, email)
	err := f.signInErr
	f.mu.Unlock()
	return err
}

func (f *fakeIdentityClient) SignUp(ctx context.Context, email, password string, opts hostel.SignUpOptions) error {
	f.mu.Lock()
	f.signUpCalls = append(f.signUpCalls, opts)
	err := f.signUpErr
	f.mu.Unlock()
	return err
}

func (f *fakeIdentityClient) SignOut(ctx context.Context, scope hostel.SignOutScope) error {
	f.mu.Lock()
	f.signOutCalls = append(f.signOutCalls, scope)
	err := f.signOutErr
	f.mu.Unlock()
	return err
}

func (f *fakeIdentityClient) GetSession(ctx context.Context) (*hostel.Session, error) {
	f.mu.Lock()
	gate := f.sessionGate
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.session, f.sessionErr
}

func (f *fakeIdentityClient) GetUser(ctx context.Context) (*hostel.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.user, f.userErr
}

func (f *fakeIdentityClient) SignOutScopes() []hostel.SignOutScope {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]hostel.SignOutScope, len(f.signOutCalls))
	copy(out, f.signOutCalls)
	return out
}

// fakeProfiles is a map-backed hostel.ProfileSource with error injection.
type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*hostel.Profile

	getErr    error
	createErr error
	// conflictRow simulates another client winning the insert race: Create
	// fails with a conflict and the row appears for the re-read.
	conflictRow *hostel.Profile

	createCalls int
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{profiles: map[uuid.UUID]*hostel.Profile{}}
}

func (f *fakeProfiles) GetByUserID(ctx context.Context, userID uuid.UUID) (*hostel.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}

	if profile, ok := f.profiles[userID]; ok {
		copied := *profile
		return &copied, nil
	}

	return nil, hostel.ErrProfileNotFound.Clone()
}

func (f *fakeProfiles) CreateFromSeed(ctx context.Context, userID uuid.UUID, seed hostel.ProfileSeed) (*hostel.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.createCalls++

	if f.conflictRow != nil {
		f.profiles[f.conflictRow.ID] = f.conflictRow
		return nil, hostel.ErrProfileConflict.Clone()
	}

	if f.createErr != nil {
		return nil, f.createErr
	}

	if _, ok := f.profiles[userID]; ok {
		return nil, hostel.ErrProfileConflict.Clone()
	}

	profile := &hostel.Profile{
		ID:        userID,
		Email:     seed.Email,
		FirstName: seed.FirstName,
		LastName:  seed.LastName,
		Role:      hostel.RoleGuest,
	}
	f.profiles[userID] = profile

	copied := *profile
	return &copied, nil
}

func (f *fakeProfiles) CreateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls
}

func (f *fakeProfiles) Put(profile *hostel.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[profile.ID] = profile
}

// fakeArtifactStore is a map-backed hostel.ArtifactStore with error
// injection.
type fakeArtifactStore struct {
	mu     sync.Mutex
	values map[string]string

	keysErr   error
	removeErr error
}

func newFakeArtifactStore(keys ...string) *fakeArtifactStore {
	store := &fakeArtifactStore{values: map[string]string{}}
	for _, key := range keys {
		store.values[key] = "value"
	}
	return store
}

func (f *fakeArtifactStore) Keys(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.keysErr != nil {
		return nil, f.keysErr
	}

	keys := make([]string, 0, len(f.values))
	for key := range f.values {
		keys = append(keys, key)
	}
	return keys, nil
}

func (f *fakeArtifactStore) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

func (f *fakeArtifactStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[key], nil
}

func (f *fakeArtifactStore) Remove(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.removeErr != nil {
		return f.removeErr
	}

	delete(f.values, key)
	return nil
}

func (f *fakeArtifactStore) Has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.values[key]
	return ok
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
