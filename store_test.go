package hostel_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	hostel "github.com/hostelhub/go-hostel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	tick    = 10 * time.Millisecond
)

func sessionFor(userID uuid.UUID, email string, meta map[string]any) *hostel.Session {
	exp := time.Now().Add(time.Hour)
	return &hostel.Session{
		AccessToken:  "token-" + userID.String(),
		TokenType:    "bearer",
		RefreshToken: "refresh-" + userID.String(),
		ExpiresAt:    &exp,
		User: &hostel.User{
			ID:       userID.String(),
			Email:    email,
			Metadata: meta,
		},
	}
}

func TestSessionStoreAppliesInitialSession(t *testing.T) {
	userID := uuid.New()
	client := &fakeIdentityClient{
		session: sessionFor(userID, "ana@example.com", nil),
	}
	profiles := newFakeProfiles()
	profiles.Put(&hostel.Profile{ID: userID, Email: "ana@example.com", Role: hostel.RoleStaff})

	store := hostel.NewSessionStore(client, profiles, hostel.WithStoreLogger(noopLogger{}))
	defer store.Close()
	store.Initialize(context.Background())

	require.Eventually(t, func() bool {
		st := store.Snapshot()
		return !st.Loading && st.Authenticated() && st.Profile != nil
	}, waitFor, tick)

	st := store.Snapshot()
	assert.Equal(t, userID.String(), st.User.ID)
	assert.Equal(t, "ana@example.com", st.User.Email)
	assert.Equal(t, hostel.RoleStaff, st.Role())
	assert.Equal(t, 0, profiles.CreateCalls())
}

func TestSessionStoreNoSessionClearsLoading(t *testing.T) {
	client := &fakeIdentityClient{}
	store := hostel.NewSessionStore(client, newFakeProfiles(), hostel.WithStoreLogger(noopLogger{}))
	defer store.Close()
	store.Initialize(context.Background())

	require.Eventually(t, func() bool {
		return !store.Snapshot().Loading
	}, waitFor, tick)

	st := store.Snapshot()
	assert.False(t, st.Authenticated())
	assert.Nil(t, st.Profile)
	assert.Equal(t, hostel.RoleGuest, st.Role())
}

func TestSessionStoreFetchErrorClearsLoading(t *testing.T) {
	client := &fakeIdentityClient{sessionErr: errors.New("network down")}
	store := hostel.NewSessionStore(client, newFakeProfiles(), hostel.WithStoreLogger(noopLogger{}))
	defer store.Close()
	store.Initialize(context.Background())

	require.Eventually(t, func() bool {
		return !store.Snapshot().Loading
	}, waitFor, tick)

	assert.False(t, store.Snapshot().Authenticated())
}

func TestSessionStoreEventWinsOverStaleFetch(t *testing.T) {
	userID := uuid.New()
	gate := make(chan struct{})
	client := &fakeIdentityClient{sessionGate: gate}
	profiles := newFakeProfiles()
	profiles.Put(&hostel.Profile{ID: userID, Email: "ana@example.com", Role: hostel.RoleAdmin})

	store := hostel.NewSessionStore(client, profiles, hostel.WithStoreLogger(noopLogger{}))
	defer store.Close()
	store.Initialize(context.Background())

	// The stream delivers a signed-in event while the one-shot fetch is
	// still in flight.
	client.Emit(hostel.EventSignedIn, sessionFor(userID, "ana@example.com", nil))

	require.Eventually(t, func() bool {
		st := store.Snapshot()
		return st.Authenticated() && st.Profile != nil
	}, waitFor, tick)

	// The fetch now completes with no session. Its result is stale and must
	// not tear down the signed-in state.
	close(gate)

	require.Eventually(t, func() bool {
		return !store.Snapshot().Loading
	}, waitFor, tick)

	st := store.Snapshot()
	require.True(t, st.Authenticated())
	assert.Equal(t, userID.String(), st.User.ID)
	assert.Equal(t, hostel.RoleAdmin, st.Role())
}

func TestSessionStoreCreatesMissingProfile(t *testing.T) {
	userID := uuid.New()
	meta := map[string]any{"first_name": "Ana", "last_name": "Torres"}
	session := sessionFor(userID, "ana@example.com", meta)

	client := &fakeIdentityClient{session: session, user: session.User}
	profiles := newFakeProfiles()

	store := hostel.NewSessionStore(client, profiles, hostel.WithStoreLogger(noopLogger{}))
	defer store.Close()
	store.Initialize(context.Background())

	require.Eventually(t, func() bool {
		return store.Snapshot().Profile != nil
	}, waitFor, tick)

	profile := store.Snapshot().Profile
	assert.Equal(t, userID, profile.ID)
	assert.Equal(t, "ana@example.com", profile.Email)
	assert.Equal(t, "Ana", profile.FirstName)
	assert.Equal(t, "Torres", profile.LastName)
	assert.Equal(t, hostel.RoleGuest, profile.Role)
	assert.Equal(t, 1, profiles.CreateCalls())

	// Repeat events for the same user resolve the now-existing row and do
	// not insert again.
	client.Emit(hostel.EventTokenRefreshed, session)

	require.Eventually(t, func() bool {
		return store.Snapshot().Profile != nil
	}, waitFor, tick)
	assert.Equal(t, 1, profiles.CreateCalls())
}

func TestSessionStoreConflictKeepsExistingProfile(t *testing.T) {
	userID := uuid.New()
	session := sessionFor(userID, "ana@example.com", nil)

	profiles := newFakeProfiles()
	profiles.conflictRow = &hostel.Profile{
		ID:        userID,
		Email:     "ana@example.com",
		FirstName: "Ana",
		Role:      hostel.RoleStaff,
	}

	client := &fakeIdentityClient{session: session, user: session.User}
	store := hostel.NewSessionStore(client, profiles, hostel.WithStoreLogger(noopLogger{}))
	defer store.Close()
	store.Initialize(context.Background())

	require.Eventually(t, func() bool {
		return store.Snapshot().Profile != nil
	}, waitFor, tick)

	profile := store.Snapshot().Profile
	assert.Equal(t, "Ana", profile.FirstName)
	assert.Equal(t, hostel.RoleStaff, profile.Role)
	assert.Equal(t, 1, profiles.CreateCalls())
}

func TestSessionStoreResolveFailureLeavesProfileNil(t *testing.T) {
	userID := uuid.New()
	session := sessionFor(userID, "ana@example.com", nil)

	profiles := newFakeProfiles()
	profiles.getErr = errors.New("database is on fire")

	client := &fakeIdentityClient{session: session, user: session.User}
	store := hostel.NewSessionStore(client, profiles, hostel.WithStoreLogger(noopLogger{}))
	defer store.Close()
	store.Initialize(context.Background())

	require.Eventually(t, func() bool {
		st := store.Snapshot()
		return !st.Loading && st.Authenticated()
	}, waitFor, tick)

	st := store.Snapshot()
	assert.Nil(t, st.Profile)
	assert.Equal(t, hostel.RoleGuest, st.Role())
}

func TestSessionStoreSignOut(t *testing.T) {
	userID := uuid.New()
	session := sessionFor(userID, "ana@example.com", nil)
	client := &fakeIdentityClient{session: session, user: session.User}
	profiles := newFakeProfiles()
	profiles.Put(&hostel.Profile{ID: userID, Role: hostel.RoleAdmin})

	volatile := newFakeArtifactStore("gotrue.auth.token", "theme")
	durable := newFakeArtifactStore("hh-local.session")

	store := hostel.NewSessionStore(client, profiles,
		hostel.WithStoreLogger(noopLogger{}),
		hostel.WithArtifactStores(volatile, durable),
	)
	defer store.Close()
	store.Initialize(context.Background())

	require.Eventually(t, func() bool {
		return store.Snapshot().Profile != nil
	}, waitFor, tick)

	err := store.SignOut(context.Background())
	require.NoError(t, err)

	// The profile is gone before SignOut returns, not merely eventually.
	assert.Nil(t, store.Snapshot().Profile)
	assert.Equal(t, []hostel.SignOutScope{hostel.SignOutGlobal}, client.SignOutScopes())

	assert.False(t, volatile.Has("gotrue.auth.token"))
	assert.False(t, durable.Has("hh-local.session"))
	assert.True(t, volatile.Has("theme"))

	// The provider confirms with a signed-out event, which clears the rest.
	client.Emit(hostel.EventSignedOut, nil)

	require.Eventually(t, func() bool {
		st := store.Snapshot()
		return !st.Authenticated() && st.Profile == nil
	}, waitFor, tick)
}

func TestSessionStoreSignOutBeforeInitializeReturns(t *testing.T) {
	client := &fakeIdentityClient{}
	store := hostel.NewSessionStore(client, newFakeProfiles(), hostel.WithStoreLogger(noopLogger{}))
	defer store.Close()

	// No Initialize: the internal loop is not running, yet SignOut must not
	// block waiting on it.
	err := store.SignOut(context.Background())
	require.NoError(t, err)

	assert.Nil(t, store.Snapshot().Profile)
	assert.Equal(t, []hostel.SignOutScope{hostel.SignOutGlobal}, client.SignOutScopes())
}

func TestSessionStoreSignIn(t *testing.T) {
	client := &fakeIdentityClient{
		signInErr: hostel.ErrInvalidCredentials.Clone(),
	}
	volatile := newFakeArtifactStore("hh-draft", "unrelated")

	store := hostel.NewSessionStore(client, newFakeProfiles(),
		hostel.WithStoreLogger(noopLogger{}),
		hostel.WithArtifactStores(volatile),
	)
	defer store.Close()
	store.Initialize(context.Background())

	require.Eventually(t, func() bool {
		return !store.Snapshot().Loading
	}, waitFor, tick)

	err := store.SignIn(context.Background(), "ana@example.com", "nope")
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password. Please check your credentials and try again.", hostel.AuthMessage(err))

	// Stale artifacts are swept and a revoke-everywhere is attempted before
	// the credential exchange.
	assert.False(t, volatile.Has("hh-draft"))
	assert.True(t, volatile.Has("unrelated"))
	assert.Equal(t, []hostel.SignOutScope{hostel.SignOutGlobal}, client.SignOutScopes())

	// A failed sign-in never mutates the state; that is the provider
	// event's job.
	assert.False(t, store.Snapshot().Authenticated())
}

func TestSessionStoreSignUpForwardsMetadata(t *testing.T) {
	client := &fakeIdentityClient{}
	store := hostel.NewSessionStore(client, newFakeProfiles(),
		hostel.WithStoreLogger(noopLogger{}),
		hostel.WithSignUpRedirect("https://hostel.example.com/welcome"),
	)
	defer store.Close()
	store.Initialize(context.Background())

	err := store.SignUp(context.Background(), "ana@example.com", "s3cret", "Ana", "Torres")
	require.NoError(t, err)

	require.Len(t, client.signUpCalls, 1)
	opts := client.signUpCalls[0]
	assert.Equal(t, "https://hostel.example.com/welcome", opts.RedirectTo)
	assert.Equal(t, "Ana", opts.Data["first_name"])
	assert.Equal(t, "Torres", opts.Data["last_name"])

	// Sign-up does not establish a session.
	assert.False(t, store.Snapshot().Authenticated())
}

func TestSessionStoreWatchNotifies(t *testing.T) {
	userID := uuid.New()
	client := &fakeIdentityClient{}
	profiles := newFakeProfiles()
	profiles.Put(&hostel.Profile{ID: userID, Role: hostel.RoleGuest})

	store := hostel.NewSessionStore(client, profiles, hostel.WithStoreLogger(noopLogger{}))
	defer store.Close()

	changes, unsubscribe := store.Watch()
	defer unsubscribe()

	store.Initialize(context.Background())
	client.Emit(hostel.EventSignedIn, sessionFor(userID, "ana@example.com", nil))

	deadline := time.After(waitFor)
	for {
		select {
		case <-changes:
			if store.Snapshot().Authenticated() {
				return
			}
		case <-deadline:
			t.Fatal("no change notification for the signed-in event")
		}
	}
}

func TestSessionStoreCloseStopsHandling(t *testing.T) {
	userID := uuid.New()
	client := &fakeIdentityClient{}
	store := hostel.NewSessionStore(client, newFakeProfiles(), hostel.WithStoreLogger(noopLogger{}))
	store.Initialize(context.Background())

	require.Eventually(t, func() bool {
		return !store.Snapshot().Loading
	}, waitFor, tick)

	store.Close()

	client.Emit(hostel.EventSignedIn, sessionFor(userID, "late@example.com", nil))

	time.Sleep(50 * time.Millisecond)
	assert.False(t, store.Snapshot().Authenticated())
}
