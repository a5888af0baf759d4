package hostel_test

import (
	"context"
	"errors"
	"testing"

	hostel "github.com/hostelhub/go-hostel"
	"github.com/stretchr/testify/assert"
)

func TestIsAuthArtifactKey(t *testing.T) {
	assert.True(t, hostel.IsAuthArtifactKey("gotrue.auth.token"))
	assert.True(t, hostel.IsAuthArtifactKey("gotrue.auth.refresh"))
	assert.True(t, hostel.IsAuthArtifactKey("hh-local.session"))
	assert.True(t, hostel.IsAuthArtifactKey("hh-draft"))

	assert.False(t, hostel.IsAuthArtifactKey("theme"))
	assert.False(t, hostel.IsAuthArtifactKey("gotrue"))
	assert.False(t, hostel.IsAuthArtifactKey("hh"))
	assert.False(t, hostel.IsAuthArtifactKey(""))
}

func TestCleanupAuthArtifacts(t *testing.T) {
	volatile := newFakeArtifactStore("gotrue.auth.token", "theme", "hh-local.session")
	durable := newFakeArtifactStore("hh-remember-me", "locale")

	hostel.CleanupAuthArtifacts(context.Background(), noopLogger{}, volatile, durable)

	assert.False(t, volatile.Has("gotrue.auth.token"))
	assert.False(t, volatile.Has("hh-local.session"))
	assert.True(t, volatile.Has("theme"))

	assert.False(t, durable.Has("hh-remember-me"))
	assert.True(t, durable.Has("locale"))
}

func TestCleanupAuthArtifactsBestEffort(t *testing.T) {
	broken := newFakeArtifactStore("gotrue.auth.token")
	broken.keysErr = errors.New("store offline")

	healthy := newFakeArtifactStore("hh-local.session")

	stubborn := newFakeArtifactStore("gotrue.auth.token")
	stubborn.removeErr = errors.New("read-only filesystem")

	// Failures in one store never abort the sweep of the others, and never
	// surface to the caller.
	assert.NotPanics(t, func() {
		hostel.CleanupAuthArtifacts(context.Background(), noopLogger{}, broken, stubborn, healthy, nil)
	})

	assert.True(t, broken.Has("gotrue.auth.token"))
	assert.True(t, stubborn.Has("gotrue.auth.token"))
	assert.False(t, healthy.Has("hh-local.session"))
}
