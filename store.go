package hostel

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// ProfileSource is the slice of the profile repository the session store
// needs to resolve and lazily create profiles.
type ProfileSource interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
	CreateFromSeed(ctx context.Context, userID uuid.UUID, seed ProfileSeed) (*Profile, error)
}

// SessionState is a snapshot of the authentication state: who is signed in,
// with what session, and which profile extends them. Loading is true until
// both initialization paths (event subscription and the one-shot session
// fetch) have completed at least once.
//
// Snapshots are values; readers must treat the referenced records as
// immutable.
type SessionState struct {
	User    *User
	Session *Session
	Profile *Profile
	Loading bool
}

// Authenticated reports whether a session is currently established.
func (s SessionState) Authenticated() bool {
	return s.Session != nil && s.User != nil
}

// Role returns the effective role for gating, defaulting to guest whenever
// the profile is missing or carries no valid role.
func (s SessionState) Role() Role {
	if s.Profile == nil {
		return RoleGuest
	}
	return NormalizeRole(s.Profile.Role)
}

// SessionStore is the process-wide source of truth for the current session,
// user and profile.
//
// All mutations run on a single internal goroutine fed by an unbounded task
// queue; identity-provider callbacks only enqueue work, they never mutate
// state inline. Profile resolution triggered by a session event is enqueued
// as a separate task, so it runs strictly after the event handler has
// returned and never re-enters the provider while it is dispatching the
// event. This is an ordering requirement, not an optimization.
type SessionStore struct {
	client    IdentityClient
	profiles  ProfileSource
	artifacts []ArtifactStore
	logger    Logger
	redirect  string
	now       func() time.Time

	queue *taskQueue

	startOnce sync.Once
	closeOnce sync.Once
	started   atomic.Bool
	quit      chan struct{}

	unsubscribe Unsubscribe

	// sawEvent is touched only from loop tasks. Once a stream event has
	// replaced the state, the one-shot GetSession result is stale and only
	// clears the loading flag.
	sawEvent bool

	mu          sync.RWMutex
	state       SessionState
	watchers    map[uint64]chan struct{}
	nextWatcher uint64
}

// StoreOption customizes session store construction.
type StoreOption func(*SessionStore)

// WithStoreLogger overrides the default logger.
func WithStoreLogger(logger Logger) StoreOption {
	return func(s *SessionStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStoreClock injects a custom clock (useful for tests).
func WithStoreClock(clock func() time.Time) StoreOption {
	return func(s *SessionStore) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithArtifactStores registers the local storages swept before sign-in and
// sign-out.
func WithArtifactStores(stores ...ArtifactStore) StoreOption {
	return func(s *SessionStore) {
		s.artifacts = append(s.artifacts, stores...)
	}
}

// WithSignUpRedirect sets the URL embedded in confirmation emails.
func WithSignUpRedirect(url string) StoreOption {
	return func(s *SessionStore) {
		s.redirect = url
	}
}

// NewSessionStore creates a session store bound to an identity client and a
// profile source. Call Initialize to start it and Close to tear it down.
func NewSessionStore(client IdentityClient, profiles ProfileSource, opts ...StoreOption) *SessionStore {
	store := &SessionStore{
		client:   client,
		profiles: profiles,
		logger:   defLogger{},
		now:      time.Now,
		queue:    newTaskQueue(),
		quit:     make(chan struct{}),
		state:    SessionState{Loading: true},
		watchers: map[uint64]chan struct{}{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(store)
		}
	}

	return store
}

// Initialize starts the store: it installs the session-change subscription
// first, then issues the one-shot current-session request, so no
// transitional event can be missed. The two paths may complete in either
// order; the store tolerates the one-shot result arriving after stream
// events. Idempotent.
func (s *SessionStore) Initialize(ctx context.Context) {
	s.startOnce.Do(func() {
		s.started.Store(true)
		go s.run()

		s.unsubscribe = s.client.OnSessionChange(func(kind SessionEventKind, session *Session) {
			s.enqueue(func() {
				s.applyEvent(ctx, kind, session)
			})
		})

		go func() {
			session, err := s.client.GetSession(ctx)
			s.enqueue(func() {
				s.applyInitialSession(ctx, session, err)
			})
		}()
	})
}

// Close unsubscribes from the event stream and stops the internal loop. No
// handler runs after Close returns.
func (s *SessionStore) Close() {
	s.closeOnce.Do(func() {
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
		close(s.quit)
	})
}

// Snapshot returns a copy of the current state. The returned value must be
// treated as read-only; it is not a live handle.
func (s *SessionStore) Snapshot() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Watch registers a change listener. The returned channel receives a wakeup
// whenever the state changes; consumers pull the new state via Snapshot.
// Notifications are coalesced, so a slow consumer sees at least one wakeup
// for any burst of changes and never blocks the store.
func (s *SessionStore) Watch() (<-chan struct{}, Unsubscribe) {
	ch := make(chan struct{}, 1)

	s.mu.Lock()
	id := s.nextWatcher
	s.nextWatcher++
	s.watchers[id] = ch
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		delete(s.watchers, id)
		s.mu.Unlock()
	}
}

// SignIn authenticates with email and password. Any stale local auth
// artifacts are removed and a global sign-out is requested first, so a
// half-valid previous session cannot survive into the new one. The store's
// state is NOT updated here; it changes when the provider emits the
// corresponding event. The returned error is classified (see errors.go) and
// suitable for AuthMessage.
func (s *SessionStore) SignIn(ctx context.Context, email, password string) error {
	CleanupAuthArtifacts(ctx, s.logger, s.artifacts...)

	if err := s.client.SignOut(ctx, SignOutGlobal); err != nil {
		// Best effort: there may be no prior session to revoke.
		s.logger.Debug("pre-sign-in global sign-out: %v", err)
	}

	return s.client.SignInWithPassword(ctx, email, password)
}

// SignUp requests account creation. First and last name travel as pending
// user metadata so the lazy profile creation path can seed the profile once
// the user first signs in. The user is not logged in by this call.
func (s *SessionStore) SignUp(ctx context.Context, email, password, firstName, lastName string) error {
	return s.client.SignUp(ctx, email, password, SignUpOptions{
		RedirectTo: s.redirect,
		Data: map[string]any{
			"first_name": firstName,
			"last_name":  lastName,
		},
	})
}

// SignOut tears the session down. The profile is cleared synchronously,
// before this method returns; user and session are cleared when the
// provider's sign-out event arrives. There is consequently no window in
// which an admin profile is visible without a session backing it.
func (s *SessionStore) SignOut(ctx context.Context) error {
	CleanupAuthArtifacts(ctx, s.logger, s.artifacts...)

	s.dispatch(func() {
		s.setState(func(st *SessionState) {
			st.Profile = nil
		})
	})

	return s.client.SignOut(ctx, SignOutGlobal)
}

func (s *SessionStore) run() {
	for {
		task, ok := s.queue.next(s.quit)
		if !ok {
			return
		}
		task()
	}
}

func (s *SessionStore) enqueue(task func()) {
	select {
	case <-s.quit:
	default:
		s.queue.push(task)
	}
}

// dispatch enqueues a task and waits for the loop to execute it. Before
// Initialize there is no loop to order against, so the task runs inline
// instead of waiting on a queue nothing drains. Must not be called from
// within a loop task.
func (s *SessionStore) dispatch(task func()) {
	if !s.started.Load() {
		task()
		return
	}

	done := make(chan struct{})
	s.enqueue(func() {
		task()
		close(done)
	})

	select {
	case <-done:
	case <-s.quit:
	}
}

// applyEvent replaces session and user wholesale and schedules profile
// resolution for the next queue turn. Runs on the loop.
func (s *SessionStore) applyEvent(ctx context.Context, kind SessionEventKind, session *Session) {
	s.sawEvent = true

	var user *User
	if session != nil {
		user = session.User
	}

	s.logger.Debug("session event %s user=%s", kind, userID(user))

	s.setState(func(st *SessionState) {
		st.Session = session
		st.User = user
		if user == nil {
			st.Profile = nil
		}
		st.Loading = false
	})

	if user != nil {
		id := user.ID
		s.enqueue(func() {
			s.resolveProfile(ctx, id)
		})
	}
}

// applyInitialSession handles the one-shot GetSession result. If a stream
// event already replaced the state, the result is stale and only the
// loading flag is touched. Runs on the loop.
func (s *SessionStore) applyInitialSession(ctx context.Context, session *Session, err error) {
	if err != nil {
		s.logger.Warn("initial session fetch: %v", err)
		s.setState(func(st *SessionState) {
			st.Loading = false
		})
		return
	}

	if s.sawEvent {
		s.setState(func(st *SessionState) {
			st.Loading = false
		})
		return
	}

	s.applyEvent(ctx, EventInitialSession, session)
}

// resolveProfile looks the profile up and lazily creates it on first login.
// Runs on the loop, always on a later turn than the event that scheduled
// it. Failures leave the profile nil; the user stays authenticated and
// role-gated features degrade to guest visibility.
func (s *SessionStore) resolveProfile(ctx context.Context, rawUserID string) {
	uid, err := uuid.Parse(rawUserID)
	if err != nil {
		s.logger.Error("resolve profile: invalid user id %q: %v", rawUserID, err)
		return
	}

	profile, err := s.profiles.GetByUserID(ctx, uid)
	switch {
	case err == nil:
	case IsProfileNotFound(err):
		profile = s.createProfile(ctx, uid)
	default:
		s.logger.Error("resolve profile %s: %v", uid, err)
		return
	}

	if profile == nil {
		return
	}
	profile.EnsureRole()

	// The session may have been replaced or torn down while we were doing
	// IO; only publish a profile that still matches the current user.
	s.setState(func(st *SessionState) {
		if st.User == nil || st.User.ID != rawUserID {
			return
		}
		st.Profile = profile
	})
}

// createProfile seeds a new profile from the live user record. A conflict
// means another client (e.g. a second tab) won the insert race; the
// existing row is the same logical profile, so we re-read and keep it.
func (s *SessionStore) createProfile(ctx context.Context, uid uuid.UUID) *Profile {
	seed := s.profileSeed(ctx)

	created, err := s.profiles.CreateFromSeed(ctx, uid, seed)
	if err == nil {
		return created
	}

	if IsProfileConflict(err) {
		existing, gerr := s.profiles.GetByUserID(ctx, uid)
		if gerr != nil {
			s.logger.Error("profile created elsewhere but re-read failed for %s: %v", uid, gerr)
			return nil
		}
		return existing
	}

	s.logger.Error("create profile %s: %v", uid, err)
	return nil
}

func (s *SessionStore) profileSeed(ctx context.Context) ProfileSeed {
	user, err := s.client.GetUser(ctx)
	if err != nil || user == nil {
		if err != nil {
			s.logger.Warn("profile seed: live user fetch failed, using session copy: %v", err)
		}
		// Fall back to the user delivered with the session event.
		st := s.Snapshot()
		user = st.User
	}

	if user == nil {
		return ProfileSeed{}
	}

	return ProfileSeed{
		Email:     user.Email,
		FirstName: user.MetadataString("first_name"),
		LastName:  user.MetadataString("last_name"),
	}
}

func (s *SessionStore) setState(mutate func(*SessionState)) {
	s.mu.Lock()
	mutate(&s.state)
	watchers := make([]chan struct{}, 0, len(s.watchers))
	for _, ch := range s.watchers {
		watchers = append(watchers, ch)
	}
	s.mu.Unlock()

	for _, ch := range watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func userID(u *User) string {
	if u == nil {
		return "<nil>"
	}
	return u.ID
}

// taskQueue is an unbounded FIFO feeding the store's single writer
// goroutine. Tasks may push further tasks while executing ("run on the next
// turn"), which a plain channel send from the loop would deadlock on.
type taskQueue struct {
	mu    sync.Mutex
	tasks []func()
	wake  chan struct{}
}

func newTaskQueue() *taskQueue {
	return &taskQueue{wake: make(chan struct{}, 1)}
}

func (q *taskQueue) push(task func()) {
	q.mu.Lock()
	q.tasks = append(q.tasks, task)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// next pops the oldest task, blocking until one is available or quit closes.
func (q *taskQueue) next(quit <-chan struct{}) (func(), bool) {
	for {
		q.mu.Lock()
		if len(q.tasks) > 0 {
			task := q.tasks[0]
			q.tasks = q.tasks[1:]
			q.mu.Unlock()
			return task, true
		}
		q.mu.Unlock()

		select {
		case <-q.wake:
		case <-quit:
			return nil, false
		}
	}
}
