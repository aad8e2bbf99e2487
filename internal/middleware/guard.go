package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/storekit/storefront-api/internal/models"
	"github.com/storekit/storefront-api/internal/request"
	"github.com/storekit/storefront-api/internal/services/token"
)

// Policy declares the access requirement of a route. The zero value is
// "authenticated, any role"; Public routes skip token inspection
// entirely.
type Policy struct {
	Public bool
	Role   string
}

// Guard gates requests on bearer-token verification and role matching.
// It trusts signature and expiry only; no store lookup happens per
// request.
type Guard struct {
	codec *token.Codec
	log   *zap.Logger
}

// NewGuard creates a guard around the token codec
func NewGuard(codec *token.Codec, log *zap.Logger) *Guard {
	return &Guard{codec: codec, log: log}
}

// Allow returns middleware enforcing the given policy. The policy is
// fixed at route registration time; there is no runtime metadata lookup.
func (g *Guard) Allow(policy Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if policy.Public {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondForbidden(w, "No token provided")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				respondForbidden(w, "Invalid token")
				return
			}

			claims, err := g.codec.Verify(parts[1])
			if err != nil {
				g.log.Debug("token_verification_failed", zap.Error(err))
				respondForbidden(w, "Invalid or expired token")
				return
			}

			identity := models.ClaimsFromMap(claims)
			ctx := request.WithIdentity(r.Context(), identity)

			if policy.Role != "" && identity.Role != policy.Role {
				respondForbidden(w, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Protect returns middleware requiring a valid access token with no
// role constraint.
func (g *Guard) Protect() func(http.Handler) http.Handler {
	return g.Allow(Policy{})
}

// Require returns middleware requiring a valid access token whose role
// claim exactly matches role.
func (g *Guard) Require(role string) func(http.Handler) http.Handler {
	return g.Allow(Policy{Role: role})
}

func respondForbidden(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)

	response := map[string]any{
		"success": false,
		"error":   message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode error response", http.StatusInternalServerError)
	}
}
