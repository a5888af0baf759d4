package hostel

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeEmailNotConfirmed  = "EMAIL_NOT_CONFIRMED"
	TextCodeAlreadyRegistered  = "USER_ALREADY_REGISTERED"
	TextCodeInvalidEmail       = "INVALID_EMAIL"
	TextCodeAuthUnavailable    = "AUTH_UNAVAILABLE"
	TextCodeProfileNotFound    = "PROFILE_NOT_FOUND"
	TextCodeProfileConflict    = "PROFILE_CONFLICT"
	TextCodeRoomUnavailable    = "ROOM_UNAVAILABLE"
	TextCodeNoActiveStay       = "NO_ACTIVE_STAY"
)

// ErrInvalidCredentials is returned when the provider rejects the
// email/password pair.
var ErrInvalidCredentials = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrEmailNotConfirmed is returned when the account exists but the email
// address has not been verified yet.
var ErrEmailNotConfirmed = goerrors.New("email address has not been confirmed", goerrors.CategoryAuth).
	WithTextCode(TextCodeEmailNotConfirmed).
	WithCode(goerrors.CodeUnauthorized)

// ErrAlreadyRegistered is returned on sign-up when an account with that
// email already exists.
var ErrAlreadyRegistered = goerrors.New("an account with this email already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeAlreadyRegistered).
	WithCode(goerrors.CodeConflict)

// ErrInvalidEmail is returned when the provider rejects the email format.
var ErrInvalidEmail = goerrors.New("the email address is not valid", goerrors.CategoryValidation).
	WithTextCode(TextCodeInvalidEmail).
	WithCode(goerrors.CodeBadRequest)

// ErrAuthUnavailable covers unclassified identity provider failures.
var ErrAuthUnavailable = goerrors.New("authentication service unavailable", goerrors.CategoryInternal).
	WithTextCode(TextCodeAuthUnavailable).
	WithCode(goerrors.CodeInternal)

// ErrProfileNotFound means no profile row exists for the user id. This is a
// valid outcome for first logins; the session store reacts by creating one.
var ErrProfileNotFound = goerrors.New("profile not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeProfileNotFound)

// ErrProfileConflict means a profile already exists for the user id. Under
// concurrent first logins the loser of the insert race sees this; callers
// treat it as benign and re-read.
var ErrProfileConflict = goerrors.New("profile already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeProfileConflict).
	WithCode(goerrors.CodeConflict)

// ErrRoomUnavailable is returned by check-in when the room is not available.
var ErrRoomUnavailable = goerrors.New("room is not available", goerrors.CategoryConflict).
	WithTextCode(TextCodeRoomUnavailable).
	WithCode(goerrors.CodeConflict)

// ErrNoActiveStay is returned by check-out when the room has no open stay.
var ErrNoActiveStay = goerrors.New("room has no active stay", goerrors.CategoryNotFound).
	WithTextCode(TextCodeNoActiveStay)

// IsProfileNotFound reports whether err is the not-found outcome of a
// profile lookup.
func IsProfileNotFound(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == TextCodeProfileNotFound
	}

	return goerrors.IsNotFound(err)
}

// IsProfileConflict reports whether err is a duplicate-profile insert.
func IsProfileConflict(err error) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return richErr.TextCode == TextCodeProfileConflict ||
			richErr.Category == goerrors.CategoryConflict
	}

	return false
}

// AuthMessage maps a classified auth error to the message shown on the
// sign-in/sign-up screens. Unknown errors get a generic message so internal
// details never leak to the form.
func AuthMessage(err error) string {
	if err == nil {
		return ""
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return "Something went wrong. Please try again."
	}

	switch richErr.TextCode {
	case TextCodeInvalidCredentials:
		return "Invalid email or password. Please check your credentials and try again."
	case TextCodeEmailNotConfirmed:
		return "Please confirm your email address before signing in."
	case TextCodeAlreadyRegistered:
		return "An account with this email already exists. Try signing in instead."
	case TextCodeInvalidEmail:
		return "Please enter a valid email address."
	default:
		return "Something went wrong. Please try again."
	}
}
