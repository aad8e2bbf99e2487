package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// AccessTokenTTL and RefreshTokenTTL are the fixed lifetimes of the two
// credential kinds issued at login.
const (
	AccessTokenTTL  = 1 * time.Hour
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// ErrInvalidToken is returned by Verify for any token that fails
// signature, structure, or expiry checks.
var ErrInvalidToken = errors.New("invalid token")

// Codec creates and verifies signed, time-bounded tokens using a
// process-wide HMAC secret. It performs no I/O.
type Codec struct {
	secret []byte
}

// NewCodec creates a token codec from the signing secret
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Issue serializes the claims plus issued-at/expiry into a signed
// compact JWT
func (c *Codec) Issue(claims map[string]any, ttl time.Duration) (string, error) {
	now := time.Now()

	builder := jwt.NewBuilder().
		IssuedAt(now).
		Expiration(now.Add(ttl))

	for key, value := range claims {
		builder = builder.Claim(key, value)
	}

	tok, err := builder.Build()
	if err != nil {
		return "", fmt.Errorf("failed to build token: %w", err)
	}

	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, c.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return string(signed), nil
}

// Verify parses and validates a token, returning its claims. Standard
// registered claims other than sub are not echoed back.
func (c *Codec) Verify(tokenString string) (map[string]any, error) {
	tok, err := jwt.Parse([]byte(tokenString),
		jwt.WithKey(jwa.HS256, c.secret),
		jwt.WithValidate(true),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims := tok.PrivateClaims()
	if sub := tok.Subject(); sub != "" {
		claims["sub"] = sub
	}

	return claims, nil
}
