package web

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-router/flash"
	"github.com/hostelhub/go-hostel"
)

// AuthController renders the sign-in/sign-up screens and drives the session
// store. Provider error details never reach the page; every failure renders
// the curated message from hostel.AuthMessage.
type AuthController struct {
	*Controllers
}

func (a *AuthController) LoginShow(ctx router.Context) error {
	if StateFromContext(ctx, a.Store).Authenticated() {
		return ctx.Redirect("/", router.StatusSeeOther)
	}

	return ctx.Render("login", router.ViewContext{
		"errors": nil,
		"record": nil,
	})
}

// LoginPayload is the sign-in form payload.
type LoginPayload struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			is.Email,
		),
		validation.Field(
			&r.Password,
			validation.Required,
		),
	)
}

func (a *AuthController) LoginPost(ctx router.Context) error {
	payload := new(LoginPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("sign-in parse payload: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render("login", router.ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.Render("login", router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if err := a.Store.SignIn(ctx.Context(), payload.Email, payload.Password); err != nil {
		a.Logger.Warn("sign-in rejected for %s: %v", payload.Email, err)
		return ctx.Render("login", router.ViewContext{
			"record": payload,
			"errors": map[string]string{"authentication": hostel.AuthMessage(err)},
		})
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Signed in",
	}).Redirect("/", fiber.StatusSeeOther)
}

func (a *AuthController) RegisterShow(ctx router.Context) error {
	return ctx.Render("register", router.ViewContext{
		"errors": map[string]string{},
		"record": RegisterPayload{},
	})
}

// RegisterPayload is the sign-up form payload.
type RegisterPayload struct {
	FirstName       string `form:"first_name" json:"first_name"`
	LastName        string `form:"last_name" json:"last_name"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r RegisterPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) RegisterPost(ctx router.Context) error {
	payload := new(RegisterPayload)

	if err := ctx.Bind(payload); err != nil {
		a.Logger.Error("register parse payload: %v", err)
		return flash.WithError(ctx, router.ViewContext{
			"system_message": "Error parsing body",
		}).Status(fiber.StatusBadRequest).Render("register", router.ViewContext{
			"errors": map[string]string{"form": "Failed to parse form"},
			"record": payload,
		})
	}

	if err := payload.Validate(); err != nil {
		return ctx.Render("register", router.ViewContext{
			"record":     payload,
			"validation": FormatValidationErrorToMap(err),
		})
	}

	err := a.Store.SignUp(ctx.Context(), payload.Email, payload.Password, payload.FirstName, payload.LastName)
	if err != nil {
		a.Logger.Warn("sign-up rejected for %s: %v", payload.Email, err)
		return ctx.Render("register", router.ViewContext{
			"record": payload,
			"errors": map[string]string{"authentication": hostel.AuthMessage(err)},
		})
	}

	return flash.WithSuccess(ctx, router.ViewContext{
		"system_message": "Account created. Check your email to confirm your address.",
	}).Redirect("/login", fiber.StatusSeeOther)
}

func (a *AuthController) LogOut(ctx router.Context) error {
	if err := a.Store.SignOut(ctx.Context()); err != nil {
		// The local session is already gone; the user ends up signed out
		// either way.
		a.Logger.Warn("sign-out: %v", err)
	}
	return ctx.Redirect("/login", router.StatusSeeOther)
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return validation.NewError("validation_match", "values must match")
		}
		return nil
	}
}
