package web

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
	"github.com/google/uuid"
	"github.com/hostelhub/go-hostel"
)

// RoomsController lists and manages the room inventory. Creating rooms is
// admin-only; status changes (cleaning done, maintenance) are open to any
// staff session.
type RoomsController struct {
	*Controllers
}

func (r *RoomsController) List(ctx router.Context) error {
	criteria := []repository.SelectCriteria{}

	status := ctx.Query("status")
	if status != "" {
		criteria = append(criteria, hostel.RoomsByStatus(status))
	}

	if term := ctx.Query("q"); term != "" {
		criteria = append(criteria, hostel.RoomsMatching(term))
	}

	records, err := r.Repo.Rooms().ListAll(ctx.Context(), criteria...)
	if err != nil {
		r.Logger.Error("rooms list: %v", err)
		return r.ErrorHandler(ctx, err)
	}

	return ctx.Render("rooms", ViewData(ctx, r.Store, router.ViewContext{
		"rooms":  records,
		"status": status,
		"q":      ctx.Query("q"),
	}))
}

// RoomPayload is the room creation form payload.
type RoomPayload struct {
	Number      string  `form:"number" json:"number"`
	Type        string  `form:"room_type" json:"room_type"`
	Capacity    int     `form:"capacity" json:"capacity"`
	NightlyRate float64 `form:"nightly_rate" json:"nightly_rate"`
	Notes       string  `form:"notes" json:"notes"`
}

// Validate will validate the payload
func (r RoomPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Number, validation.Required, validation.Length(1, 32)),
		validation.Field(&r.Type, validation.Required, validation.Length(1, 64)),
		validation.Field(&r.Capacity, validation.Required, validation.Min(1), validation.Max(64)),
		validation.Field(&r.NightlyRate, validation.Min(0.0)),
	)
}

func (r *RoomsController) Create(ctx router.Context) error {
	payload := new(RoomPayload)

	if err := ctx.Bind(payload); err != nil {
		r.Logger.Error("room create parse payload: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Redirect("/rooms", fiber.StatusSeeOther)
	}

	if err := payload.Validate(); err != nil {
		return flash.WithError(ctx, router.ViewContext{
			"system_message": "Error validating payload",
			"validation":     FormatValidationErrorToMap(err),
		}).Redirect("/rooms", fiber.StatusSeeOther)
	}

	room := &hostel.Room{
		Number:      payload.Number,
		Type:        payload.Type,
		Capacity:    payload.Capacity,
		NightlyRate: payload.NightlyRate,
		Notes:       payload.Notes,
	}

	if _, err := r.Repo.Rooms().Create(ctx.Context(), room); err != nil {
		r.Logger.Error("room create: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"system_message": "Could not create room",
		}).Redirect("/rooms", fiber.StatusSeeOther)
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Room created",
	}).Redirect("/rooms", fiber.StatusSeeOther)
}

func (r *RoomsController) SetStatus(ctx router.Context) error {
	id, err := uuid.Parse(ctx.Param("id", ""))
	if err != nil {
		return flash.WithError(ctx, router.ViewContext{
			"system_message": "Unknown room",
		}).Redirect("/rooms", fiber.StatusSeeOther)
	}

	status := ctx.Query("status")
	if _, err := r.Repo.Rooms().SetStatus(ctx.Context(), id, status); err != nil {
		r.Logger.Error("room %s status change: %v", id, err)
		return flash.WithError(ctx, router.ViewContext{
			"system_message": "Could not update room status",
		}).Redirect("/rooms", fiber.StatusSeeOther)
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Room status updated",
	}).Redirect("/rooms", fiber.StatusSeeOther)
}
