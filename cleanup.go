package hostel

import (
	"context"
	"strings"
)

// AuthKeyPrefixes are the key prefixes under which identity providers
// persist local auth artifacts. Cleanup removes everything matching them.
var AuthKeyPrefixes = []string{"gotrue.auth.", "hh-"}

// IsAuthArtifactKey reports whether a stored key belongs to the identity
// provider's auth state.
func IsAuthArtifactKey(key string) bool {
	for _, prefix := range AuthKeyPrefixes {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// CleanupAuthArtifacts removes stale auth artifacts from every given store.
// It runs before a new sign-in and before sign-out so a crashed or
// half-torn-down session cannot leave the client in a limbo state where the
// provider considers a local session valid that the server already revoked.
//
// Best effort by design: an unavailable store or a failed delete is logged
// at debug level and otherwise ignored. Unrelated keys are never touched.
func CleanupAuthArtifacts(ctx context.Context, logger Logger, stores ...ArtifactStore) {
	if logger == nil {
		logger = defLogger{}
	}

	for _, store := range stores {
		if store == nil {
			continue
		}

		keys, err := store.Keys(ctx)
		if err != nil {
			logger.Debug("auth artifact cleanup: listing keys failed: %v", err)
			continue
		}

		for _, key := range keys {
			if !IsAuthArtifactKey(key) {
				continue
			}
			if err := store.Remove(ctx, key); err != nil {
				logger.Debug("auth artifact cleanup: removing %q failed: %v", key, err)
			}
		}
	}
}
