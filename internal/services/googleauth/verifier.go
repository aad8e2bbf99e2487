package googleauth

import (
	"context"
	"errors"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwt"
)

var (
	// ErrTokenRejected means Google's verification protocol rejected the
	// ID token (bad signature, wrong audience or issuer, expired).
	ErrTokenRejected = errors.New("google id token rejected")
	// ErrUnverifiedEmail means the token verified but carries no email
	// the issuer vouches for.
	ErrUnverifiedEmail = errors.New("google account email not verified")
)

// Identity is the verified identity claim extracted from a Google ID
// token. It lives only for the duration of a login call.
type Identity struct {
	Email   string
	Name    string
	Picture string
}

// Verifier validates Google-issued ID tokens
type Verifier struct {
	jwks *JWKSManager
}

// NewVerifier creates a verifier backed by the given JWKS manager
func NewVerifier(jwks *JWKSManager) *Verifier {
	return &Verifier{jwks: jwks}
}

// Google publishes both issuer spellings
var googleIssuers = []string{"https://accounts.google.com", "accounts.google.com"}

// Verify validates an ID token against Google's signing keys and the
// expected audience, then extracts the verified identity claim.
func (v *Verifier) Verify(ctx context.Context, idToken, audience string) (*Identity, error) {
	keys, err := v.jwks.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenRejected, err)
	}

	tok, err := jwt.Parse([]byte(idToken),
		jwt.WithKeySet(keys),
		jwt.WithValidate(true),
		jwt.WithAudience(audience),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenRejected, err)
	}

	issuerOK := false
	for _, iss := range googleIssuers {
		if tok.Issuer() == iss {
			issuerOK = true
			break
		}
	}
	if !issuerOK {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrTokenRejected, tok.Issuer())
	}

	claims := tok.PrivateClaims()

	email, _ := claims["email"].(string)

	// Google emits email_verified as a bool, but some token variants
	// carry it as the string "true"
	verified := false
	switch ev := claims["email_verified"].(type) {
	case bool:
		verified = ev
	case string:
		verified = ev == "true"
	}

	if email == "" || !verified {
		return nil, ErrUnverifiedEmail
	}

	identity := &Identity{Email: email}
	if name, ok := claims["name"].(string); ok {
		identity.Name = name
	}
	if picture, ok := claims["picture"].(string); ok {
		identity.Picture = picture
	}

	return identity, nil
}
