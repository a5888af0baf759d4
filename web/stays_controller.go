package web

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
	"github.com/google/uuid"
	"github.com/hostelhub/go-hostel"
)

// StaysController drives the check-in and check-out flows through the
// command handlers.
type StaysController struct {
	*Controllers
}

func (s *StaysController) CheckInShow(ctx router.Context) error {
	available, err := s.Repo.Rooms().ListAll(ctx.Context(), hostel.RoomsByStatus(hostel.RoomAvailable))
	if err != nil {
		s.Logger.Error("check-in rooms list: %v", err)
		return s.ErrorHandler(ctx, err)
	}

	return ctx.Render("check_in", ViewData(ctx, s.Store, router.ViewContext{
		"rooms":  available,
		"record": CheckInPayload{},
	}))
}

// CheckInPayload is the check-in form payload.
type CheckInPayload struct {
	RoomID           string `form:"room_id" json:"room_id"`
	GuestName        string `form:"guest_name" json:"guest_name"`
	GuestEmail       string `form:"guest_email" json:"guest_email"`
	GuestPhone       string `form:"guest_phone" json:"guest_phone"`
	GuestDocument    string `form:"guest_document" json:"guest_document"`
	ExpectedCheckout string `form:"expected_checkout" json:"expected_checkout"`
}

// Validate will validate the payload
func (r CheckInPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RoomID, validation.Required, is.UUID),
		validation.Field(&r.GuestName, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.GuestEmail, is.Email),
		validation.Field(&r.ExpectedCheckout, validation.Date("2006-01-02")),
	)
}

func (s *StaysController) CheckInPost(ctx router.Context) error {
	payload := new(CheckInPayload)

	if err := ctx.Bind(payload); err != nil {
		s.Logger.Error("check-in parse payload: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Redirect("/check-in", fiber.StatusSeeOther)
	}

	if err := payload.Validate(); err != nil {
		return flash.WithError(ctx, router.ViewContext{
			"system_message": "Error validating payload",
			"validation":     FormatValidationErrorToMap(err),
		}).Redirect("/check-in", fiber.StatusSeeOther)
	}

	roomID, _ := uuid.Parse(payload.RoomID)

	msg := hostel.CheckInMessage{
		RoomID:        roomID,
		GuestName:     payload.GuestName,
		GuestEmail:    payload.GuestEmail,
		GuestPhone:    payload.GuestPhone,
		GuestDocument: payload.GuestDocument,
	}

	if payload.ExpectedCheckout != "" {
		if expected, err := time.Parse("2006-01-02", payload.ExpectedCheckout); err == nil {
			msg.ExpectedCheckout = &expected
		}
	}

	stay, err := hostel.NewCheckInHandler(s.Repo).Execute(ctx.Context(), msg)
	if err != nil {
		s.Logger.Warn("check-in room %s: %v", payload.RoomID, err)
		return flash.WithError(ctx, router.ViewContext{
			"system_message": checkInMessage(err),
		}).Redirect("/check-in", fiber.StatusSeeOther)
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Checked in. Reference " + stay.Reference,
	}).Redirect("/guests", fiber.StatusSeeOther)
}

func (s *StaysController) CheckOutShow(ctx router.Context) error {
	occupied, err := s.Repo.Rooms().ListAll(ctx.Context(), hostel.RoomsByStatus(hostel.RoomOccupied))
	if err != nil {
		s.Logger.Error("check-out rooms list: %v", err)
		return s.ErrorHandler(ctx, err)
	}

	return ctx.Render("check_out", ViewData(ctx, s.Store, router.ViewContext{
		"rooms": occupied,
	}))
}

// CheckOutPayload is the check-out form payload.
type CheckOutPayload struct {
	RoomID string `form:"room_id" json:"room_id"`
}

// Validate will validate the payload
func (r CheckOutPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RoomID, validation.Required, is.UUID),
	)
}

func (s *StaysController) CheckOutPost(ctx router.Context) error {
	payload := new(CheckOutPayload)

	if err := ctx.Bind(payload); err != nil {
		s.Logger.Error("check-out parse payload: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Redirect("/check-out", fiber.StatusSeeOther)
	}

	if err := payload.Validate(); err != nil {
		return flash.WithError(ctx, router.ViewContext{
			"system_message": "Error validating payload",
			"validation":     FormatValidationErrorToMap(err),
		}).Redirect("/check-out", fiber.StatusSeeOther)
	}

	roomID, _ := uuid.Parse(payload.RoomID)

	stay, err := hostel.NewCheckOutHandler(s.Repo).Execute(ctx.Context(), hostel.CheckOutMessage{RoomID: roomID})
	if err != nil {
		s.Logger.Warn("check-out room %s: %v", payload.RoomID, err)
		return flash.WithError(ctx, router.ViewContext{
			"system_message": checkOutMessage(err),
		}).Redirect("/check-out", fiber.StatusSeeOther)
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Checked out " + stay.GuestName + ". Room sent to cleaning.",
	}).Redirect("/rooms", fiber.StatusSeeOther)
}

func checkInMessage(err error) string {
	if isTextCode(err, hostel.TextCodeRoomUnavailable) {
		return "That room is not available."
	}
	return "Could not check in. Please try again."
}

func checkOutMessage(err error) string {
	if isTextCode(err, hostel.TextCodeNoActiveStay) {
		return "That room has no active stay."
	}
	return "Could not check out. Please try again."
}
