package local

import (
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// tokenService mints the HS256 access tokens local sessions carry. They are
// shaped like the hosted provider's tokens so the same server-side validator
// accepts both.
type tokenService struct {
	signingKey []byte
	ttl        time.Duration
	issuer     string
}

func newTokenService(signingKey []byte, ttl time.Duration, issuer string) *tokenService {
	return &tokenService{
		signingKey: signingKey,
		ttl:        ttl,
		issuer:     issuer,
	}
}

type accountClaims struct {
	jwt.RegisteredClaims
	Email        string         `json:"email,omitempty"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
}

func (ts *tokenService) Generate(account *Account, now time.Time) (string, error) {
	if account == nil {
		return "", goerrors.New("account must not be nil", goerrors.CategoryInternal)
	}

	claims := &accountClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    ts.issuer,
			Subject:   account.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
		},
		Email:        account.Email,
		UserMetadata: account.Metadata,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign JWT")
	}

	return signed, nil
}
