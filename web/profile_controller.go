package web

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
)

// ProfileController lets the signed-in user view and edit their own profile.
// Role is deliberately not editable here; only the admin section changes
// roles.
type ProfileController struct {
	*Controllers
}

func (p *ProfileController) Show(ctx router.Context) error {
	state := StateFromContext(ctx, p.Store)

	return ctx.Render("profile", ViewData(ctx, p.Store, router.ViewContext{
		"record": state.Profile,
	}))
}

// ProfilePayload is the profile edit form payload.
type ProfilePayload struct {
	FirstName string `form:"first_name" json:"first_name"`
	LastName  string `form:"last_name" json:"last_name"`
	Phone     string `form:"phone_number" json:"phone_number"`
}

// Validate will validate the payload
func (r ProfilePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Length(0, 200)),
		validation.Field(&r.LastName, validation.Length(0, 200)),
		validation.Field(&r.Phone, validation.Length(0, 32)),
	)
}

func (p *ProfileController) Update(ctx router.Context) error {
	state := StateFromContext(ctx, p.Store)
	if state.Profile == nil {
		// Authenticated but the profile has not resolved yet; the form
		// cannot know what it is editing.
		return flash.WithError(ctx, router.ViewContext{
			"system_message": "Your profile is still loading. Try again in a moment.",
		}).Redirect("/profile", fiber.StatusSeeOther)
	}

	payload := new(ProfilePayload)
	if err := ctx.Bind(payload); err != nil {
		p.Logger.Error("profile update parse payload: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Redirect("/profile", fiber.StatusSeeOther)
	}

	if err := payload.Validate(); err != nil {
		return flash.WithError(ctx, router.ViewContext{
			"system_message": "Error validating payload",
			"validation":     FormatValidationErrorToMap(err),
		}).Redirect("/profile", fiber.StatusSeeOther)
	}

	_, err := p.Repo.Profiles().UpdateContact(
		ctx.Context(),
		state.Profile.ID,
		payload.FirstName,
		payload.LastName,
		payload.Phone,
	)
	if err != nil {
		p.Logger.Error("profile update for %s: %v", state.Profile.ID, err)
		return flash.WithError(ctx, router.ViewContext{
			"system_message": "Could not update profile",
		}).Redirect("/profile", fiber.StatusSeeOther)
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Profile updated",
	}).Redirect("/profile", fiber.StatusSeeOther)
}
