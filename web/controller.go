package web

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/hostelhub/go-hostel"
)

// Locals keys shared between middleware, controllers and templates.
const (
	SessionStateKey = "session_state"
	ProfileKey      = "current_profile"
)

// Controllers bundles the dependencies every controller in this package
// shares.
type Controllers struct {
	Debug        bool
	Logger       hostel.Logger
	Store        *hostel.SessionStore
	Repo         hostel.RepositoryManager
	ErrorHandler router.ErrorHandler
}

type ControllersOption func(*Controllers)

func WithDebug(debug bool) ControllersOption {
	return func(c *Controllers) {
		c.Debug = debug
	}
}

func WithLogger(logger hostel.Logger) ControllersOption {
	return func(c *Controllers) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

func WithErrorHandler(handler router.ErrorHandler) ControllersOption {
	return func(c *Controllers) {
		if handler != nil {
			c.ErrorHandler = handler
		}
	}
}

func NewControllers(store *hostel.SessionStore, repo hostel.RepositoryManager, opts ...ControllersOption) *Controllers {
	c := &Controllers{
		Store:        store,
		Repo:         repo,
		ErrorHandler: defaultErrHandler,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if c.Store == nil {
		panic("Missing SessionStore in web controllers...")
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in web controllers...")
	}

	return c
}

// RegisterRoutes mounts every route of the application: the public auth
// screens, the authenticated app and the admin section.
func RegisterRoutes[T any](app router.Router[T], c *Controllers) {
	auth := &AuthController{Controllers: c}
	dashboard := &DashboardController{Controllers: c}
	rooms := &RoomsController{Controllers: c}
	stays := &StaysController{Controllers: c}
	guests := &GuestsController{Controllers: c}
	profile := &ProfileController{Controllers: c}
	admin := &AdminController{Controllers: c}

	session := WithSessionState(c.Store)
	authed := RequireSession(c.Store, "/login")
	adminOnly := RequireAdmin(c.Store)

	app.Use(session)

	app.Get("/login", auth.LoginShow).SetName("sign-in.get")
	app.Post("/login", auth.LoginPost).SetName("sign-in.post")
	app.Get("/register", auth.RegisterShow).SetName("register.get")
	app.Post("/register", auth.RegisterPost).SetName("register.post")
	app.Get("/logout", auth.LogOut).SetName("sign-out.get")

	app.Get("/", authed(dashboard.Show)).SetName("dashboard.get")

	app.Get("/rooms", authed(rooms.List)).SetName("rooms.get")
	app.Post("/rooms", authed(adminOnly(rooms.Create))).SetName("rooms.post")
	app.Post("/rooms/:id/status", authed(rooms.SetStatus)).SetName("rooms-status.post")

	app.Get("/check-in", authed(stays.CheckInShow)).SetName("check-in.get")
	app.Post("/check-in", authed(stays.CheckInPost)).SetName("check-in.post")
	app.Get("/check-out", authed(stays.CheckOutShow)).SetName("check-out.get")
	app.Post("/check-out", authed(stays.CheckOutPost)).SetName("check-out.post")

	app.Get("/guests", authed(guests.List)).SetName("guests.get")

	app.Get("/profile", authed(profile.Show)).SetName("profile.get")
	app.Post("/profile", authed(profile.Update)).SetName("profile.post")

	app.Get("/admin", authed(adminOnly(admin.Show))).SetName("admin.get")
	app.Post("/admin/roles", authed(adminOnly(admin.SetRole))).SetName("admin-roles.post")
}

// FormatValidationErrorToMap flattens an ozzo validation error into a
// field→message map the form templates render inline.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}
	if err == nil {
		return out
	}

	if fieldErrors, ok := err.(validation.Errors); ok {
		for field, fieldErr := range fieldErrors {
			if fieldErr != nil {
				out[field] = fieldErr.Error()
			}
		}
		return out
	}

	out["form"] = err.Error()
	return out
}

func isTextCode(err error, textCode string) bool {
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == textCode
	}
	return false
}

func defaultErrHandler(c router.Context, err error) error {
	return c.Render("errors/500", router.ViewContext{
		"message": err.Error(),
	})
}
