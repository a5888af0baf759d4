package web

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
	"github.com/google/uuid"
	"github.com/hostelhub/go-hostel"
)

// AdminController is the admin-only section: staff directory and role
// assignment. Routes are mounted behind RequireAdmin.
type AdminController struct {
	*Controllers
}

func (a *AdminController) Show(ctx router.Context) error {
	records, err := a.Repo.Profiles().ListAll(ctx.Context())
	if err != nil {
		a.Logger.Error("admin profiles list: %v", err)
		return a.ErrorHandler(ctx, err)
	}

	return ctx.Render("admin", ViewData(ctx, a.Store, router.ViewContext{
		"profiles": records,
		"roles":    hostel.AllRoles(),
	}))
}

// RolePayload is the role assignment form payload.
type RolePayload struct {
	ProfileID string `form:"profile_id" json:"profile_id"`
	Role      string `form:"role" json:"role"`
}

// Validate will validate the payload
func (r RolePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ProfileID, validation.Required, is.UUID),
		validation.Field(&r.Role, validation.Required, validation.In(
			hostel.RoleGuest,
			hostel.RoleStaff,
			hostel.RoleAdmin,
		)),
	)
}

func (a *AdminController) SetRole(ctx router.Context) error {
	payload := new(RolePayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("role assignment parse payload: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Redirect("/admin", fiber.StatusSeeOther)
	}

	if err := payload.Validate(); err != nil {
		return flash.WithError(ctx, router.ViewContext{
			"system_message": "Error validating payload",
			"validation":     FormatValidationErrorToMap(err),
		}).Redirect("/admin", fiber.StatusSeeOther)
	}

	profileID, _ := uuid.Parse(payload.ProfileID)

	state := StateFromContext(ctx, a.Store)
	if state.Profile != nil && state.Profile.ID == profileID && payload.Role != hostel.RoleAdmin {
		// Demoting yourself would lock the last admin out mid-session.
		return flash.WithError(ctx, router.ViewContext{
			"system_message": "You cannot change your own role",
		}).Redirect("/admin", fiber.StatusSeeOther)
	}

	if _, err := a.Repo.Profiles().SetRole(ctx.Context(), profileID, payload.Role); err != nil {
		a.Logger.Error("role assignment for %s: %v", profileID, err)
		return flash.WithError(ctx, router.ViewContext{
			"system_message": "Could not update role",
		}).Redirect("/admin", fiber.StatusSeeOther)
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Role updated",
	}).Redirect("/admin", fiber.StatusSeeOther)
}
