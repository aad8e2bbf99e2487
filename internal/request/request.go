package request

import (
	"context"
	"net/http"
	"strings"

	"github.com/storekit/storefront-api/internal/models"
)

type contextKey string

const identityContextKey contextKey = "identity"

// ClientIP extracts the client IP from the request, respecting
// X-Forwarded-For and X-Real-IP.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return r.RemoteAddr
}

// WithIdentity returns a context with the verified token claims attached.
func WithIdentity(ctx context.Context, claims *models.AccessClaims) context.Context {
	return context.WithValue(ctx, identityContextKey, claims)
}

// IdentityFromContext returns the verified claims from the request
// context, or nil if the route was public or the guard never ran.
func IdentityFromContext(r *http.Request) *models.AccessClaims {
	claims, _ := r.Context().Value(identityContextKey).(*models.AccessClaims)
	return claims
}
