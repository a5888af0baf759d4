package gotrue

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/golang-jwt/jwt/v5"
)

// ErrTokenExpired is returned when the access token's lifetime has passed.
var ErrTokenExpired = goerrors.New("access token expired", goerrors.CategoryAuth).
	WithTextCode("TOKEN_EXPIRED").
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed covers every other validation failure.
var ErrTokenMalformed = goerrors.New("access token invalid", goerrors.CategoryAuth).
	WithTextCode("TOKEN_MALFORMED").
	WithCode(goerrors.CodeUnauthorized)

// Claims are the GoTrue access-token claims this system reads.
type Claims struct {
	jwt.RegisteredClaims
	Email        string         `json:"email,omitempty"`
	Role         string         `json:"role,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

// UserID returns the provider-assigned user id the token was issued for.
func (c *Claims) UserID() string {
	if c == nil {
		return ""
	}
	return c.Subject
}

// TokenValidatorConfig configures server-side access token validation.
// Either Secret (HS256, GoTrue's default signing mode) or JWKSURL (asymmetric
// keys) must be set; when both are set JWKS wins.
type TokenValidatorConfig struct {
	Secret   string
	JWKSURL  string
	Issuer   string
	Audience string
	CacheTTL time.Duration
}

// TokenValidator validates GoTrue-issued access tokens.
type TokenValidator struct {
	config Config
	opts   TokenValidatorConfig
	jwks   *keyfunc.JWKS
}

// NewTokenValidator creates a validator. When a JWKS URL is configured the
// key set is fetched eagerly and refreshed in the background.
func NewTokenValidator(cfg Config, opts TokenValidatorConfig) (*TokenValidator, error) {
	v := &TokenValidator{
		config: cfg,
		opts:   opts,
	}

	jwksURL := strings.TrimSpace(opts.JWKSURL)
	if jwksURL == "" && strings.TrimSpace(opts.Secret) == "" {
		return nil, goerrors.New("gotrue: token secret or JWKS URL is required", goerrors.CategoryBadInput)
	}

	if jwksURL != "" {
		refresh := opts.CacheTTL
		if refresh == 0 {
			refresh = 5 * time.Minute
		}

		jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
			Ctx:             context.Background(),
			RefreshInterval: refresh,
			RefreshErrorHandler: func(err error) {
				if cfg.Logger != nil {
					cfg.Logger.Warn("jwks refresh: %v", err)
				}
			},
		})
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "gotrue: fetching JWKS")
		}
		v.jwks = jwks
	}

	return v, nil
}

// Validate parses and verifies an access token and returns its claims.
func (v *TokenValidator) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}

	parserOpts := []jwt.ParserOption{}
	if v.opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(v.opts.Issuer))
	}
	if v.opts.Audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(v.opts.Audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, v.keyFunc, parserOpts...)
	if err != nil {
		return nil, normalizeValidationError(err)
	}

	if !token.Valid || claims.Subject == "" {
		return nil, ErrTokenMalformed.Clone()
	}

	return claims, nil
}

func (v *TokenValidator) keyFunc(token *jwt.Token) (any, error) {
	if v.jwks != nil {
		return v.jwks.Keyfunc(token)
	}

	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, jwt.ErrTokenSignatureInvalid
	}

	return []byte(v.opts.Secret), nil
}

// Close stops the background JWKS refresh.
func (v *TokenValidator) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}

func normalizeValidationError(err error) error {
	if err == nil {
		return nil
	}

	clone := ErrTokenMalformed.Clone()
	if stderrors.Is(err, jwt.ErrTokenExpired) {
		clone = ErrTokenExpired.Clone()
	}

	clone.Source = err
	return clone.WithMetadata(map[string]any{
		"provider": "gotrue",
		"cause":    err.Error(),
	})
}
