// Package hostel implements the core of a small hostel management
// application: the session/authentication lifecycle, profile records,
// role-gated navigation, and the room/guest-stay repositories the web
// screens are built on.
//
// Authentication itself is delegated to an external identity provider
// (see the provider subpackages); this package owns the in-process
// session state, the lazily created profile that extends the provider's
// user record, and the derivation of what an authenticated user is
// allowed to see.
package hostel
