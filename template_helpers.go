package hostel

import (
	"github.com/goliatone/go-router"
)

var TemplateProfileKey = "current_profile"

// TemplateHelpers returns helper functions and data for the view layer,
// meant to be passed to the template engine's global data.
//
// In templates:
//
//	{% if current_profile %}
//	{% if current_profile|has_role:"admin" %}
//	{% for entry in nav_for(current_profile) %}
func TemplateHelpers() map[string]any {
	return map[string]any{
		"is_authenticated": templateIsAuthenticated,
		"has_role":         templateHasRole,
		"is_at_least":      templateIsAtLeast,
		"full_name":        templateFullName,
		"nav_for":          VisibleNav,
		"nav_entries":      NavEntries,

		"roles": map[string]string{
			"guest": RoleGuest,
			"staff": RoleStaff,
			"admin": RoleAdmin,
		},

		"room_statuses": map[string]string{
			"available":   RoomAvailable,
			"occupied":    RoomOccupied,
			"cleaning":    RoomCleaning,
			"maintenance": RoomMaintenance,
		},
	}
}

// TemplateHelpersWithProfile injects a specific profile as current_profile.
func TemplateHelpersWithProfile(profile *Profile) map[string]any {
	helpers := TemplateHelpers()
	helpers[TemplateProfileKey] = profile
	return helpers
}

// TemplateHelpersWithRouter extracts the current profile from router locals,
// where the session middleware stores it.
func TemplateHelpersWithRouter(ctx router.Context, profileKey string) map[string]any {
	if profileKey == "" {
		profileKey = TemplateProfileKey
	}

	helpers := TemplateHelpers()

	if profile := ctx.Locals(profileKey); profile != nil {
		helpers[TemplateProfileKey] = profile
	}

	return helpers
}

func templateIsAuthenticated(profile any) bool {
	switch p := profile.(type) {
	case *Profile:
		return p != nil
	case Profile:
		return true
	case SessionState:
		return p.Authenticated()
	default:
		return false
	}
}

func templateHasRole(profile any, role string) bool {
	return templateRole(profile) == NormalizeRole(role)
}

func templateIsAtLeast(profile any, minRole string) bool {
	return RoleIsAtLeast(templateRole(profile), NormalizeRole(minRole))
}

func templateFullName(profile any) string {
	switch p := profile.(type) {
	case *Profile:
		return p.FullName()
	case Profile:
		return p.FullName()
	default:
		return ""
	}
}

func templateRole(profile any) Role {
	switch p := profile.(type) {
	case *Profile:
		if p == nil {
			return RoleGuest
		}
		return NormalizeRole(p.Role)
	case Profile:
		return NormalizeRole(p.Role)
	case SessionState:
		return p.Role()
	default:
		return RoleGuest
	}
}
