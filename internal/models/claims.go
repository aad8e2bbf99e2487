package models

// Platform identifies where a login originated; it controls how the
// refresh token is delivered (cookie for web, response body for mobile).
type Platform string

const (
	PlatformWeb    Platform = "web"
	PlatformMobile Platform = "mobile"
)

// TokenTypeRefresh is the type discriminator carried by refresh tokens.
const TokenTypeRefresh = "refresh"

// AccessClaims are the verified claims the guard attaches to the request
// context after a bearer token passes signature and expiry checks.
type AccessClaims struct {
	Sub      string `json:"sub"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	ImgURL   string `json:"img_url"`
	Platform string `json:"platform"`
	Role     string `json:"role"`
}

// ClaimsFromMap extracts AccessClaims from raw token claims. Missing or
// non-string values are left zero; the guard only hard-requires sub.
func ClaimsFromMap(raw map[string]any) *AccessClaims {
	str := func(key string) string {
		if v, ok := raw[key].(string); ok {
			return v
		}
		return ""
	}
	return &AccessClaims{
		Sub:      str("sub"),
		Email:    str("email"),
		Name:     str("name"),
		ImgURL:   str("img_url"),
		Platform: str("platform"),
		Role:     str("role"),
	}
}
