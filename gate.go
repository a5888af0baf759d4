package hostel

import "strings"

// NavEntry is a navigation item the layout renders for the current user.
type NavEntry struct {
	Label     string
	Path      string
	Icon      string
	AdminOnly bool
}

// navEntries is the full navigation set; visibility is derived per request
// from the current profile, never cached.
var navEntries = []NavEntry{
	{Label: "Dashboard", Path: "/", Icon: "home"},
	{Label: "Rooms", Path: "/rooms", Icon: "bed"},
	{Label: "Check In", Path: "/check-in", Icon: "log-in"},
	{Label: "Check Out", Path: "/check-out", Icon: "log-out"},
	{Label: "Guests", Path: "/guests", Icon: "users"},
	{Label: "Profile", Path: "/profile", Icon: "user"},
	{Label: "Admin", Path: "/admin", Icon: "shield", AdminOnly: true},
}

// NavEntries returns the complete navigation set, admin entries included.
func NavEntries() []NavEntry {
	out := make([]NavEntry, len(navEntries))
	copy(out, navEntries)
	return out
}

// VisibleNav derives the navigation entries for the given profile. The admin
// section is visible iff the profile's role is admin; every other entry is
// visible to any authenticated session. A nil profile or absent role counts
// as guest.
func VisibleNav(profile *Profile) []NavEntry {
	admin := profile.IsAdmin()

	out := make([]NavEntry, 0, len(navEntries))
	for _, entry := range navEntries {
		if entry.AdminOnly && !admin {
			continue
		}
		out = append(out, entry)
	}
	return out
}

// CanAccess reports whether the profile may open the given route path.
// Routes outside the admin section are open to any authenticated session.
func CanAccess(profile *Profile, path string) bool {
	if isAdminPath(path) {
		return profile.IsAdmin()
	}
	return true
}

func isAdminPath(path string) bool {
	return path == "/admin" || strings.HasPrefix(path, "/admin/")
}
