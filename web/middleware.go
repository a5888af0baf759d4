package web

import (
	"github.com/goliatone/go-router"
	"github.com/hostelhub/go-hostel"
)

// WithSessionState snapshots the session store once per request and exposes
// the state and the current profile to handlers and templates through
// locals. Handlers read the snapshot instead of hitting the store again, so
// one request sees one consistent state.
func WithSessionState(store *hostel.SessionStore) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			state := store.Snapshot()
			ctx.Locals(SessionStateKey, state)
			if state.Profile != nil {
				ctx.Locals(ProfileKey, state.Profile)
			}
			return next(ctx)
		}
	}
}

// RequireSession redirects unauthenticated requests to the sign-in screen.
// While the store is still loading the request is treated as
// unauthenticated; the sign-in screen bounces back once the session
// materializes.
func RequireSession(store *hostel.SessionStore, loginPath string) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			state := StateFromContext(ctx, store)
			if !state.Authenticated() {
				return ctx.Redirect(loginPath, router.StatusSeeOther)
			}
			return next(ctx)
		}
	}
}

// RequireAdmin returns 404 for non-admin sessions. Not 403: the admin
// section's existence is not advertised to users who cannot open it,
// matching the navigation which hides the entry entirely.
func RequireAdmin(store *hostel.SessionStore) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			state := StateFromContext(ctx, store)
			if !state.Profile.IsAdmin() {
				return ctx.Status(router.StatusNotFound).Render("errors/404", router.ViewContext{})
			}
			return next(ctx)
		}
	}
}

// StateFromContext reads the per-request session snapshot, falling back to
// the store when the middleware did not run (direct handler tests).
func StateFromContext(ctx router.Context, store *hostel.SessionStore) hostel.SessionState {
	if raw := ctx.Locals(SessionStateKey); raw != nil {
		if state, ok := raw.(hostel.SessionState); ok {
			return state
		}
	}
	return store.Snapshot()
}

// ViewData merges the session-derived globals every page template needs with
// handler-specific values.
func ViewData(ctx router.Context, store *hostel.SessionStore, data router.ViewContext) router.ViewContext {
	state := StateFromContext(ctx, store)

	out := router.ViewContext{
		SessionStateKey: state,
		ProfileKey:      state.Profile,
		"nav":           hostel.VisibleNav(state.Profile),
	}
	for key, value := range data {
		out[key] = value
	}

	return out
}
