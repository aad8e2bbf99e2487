package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/storekit/storefront-api/internal/request"
	"github.com/storekit/storefront-api/internal/services/token"
)

func newTestGuard(t *testing.T) (*Guard, *token.Codec) {
	t.Helper()
	codec := token.NewCodec("guard-test-secret")
	return NewGuard(codec, zap.NewNop()), codec
}

func issueToken(t *testing.T, codec *token.Codec, claims map[string]any) string {
	t.Helper()
	tok, err := codec.Issue(claims, time.Minute)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return tok
}

func okHandler(hit *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*hit = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestGuard_PublicRoute(t *testing.T) {
	t.Parallel()

	guard, _ := newTestGuard(t)

	tests := []struct {
		name       string
		authHeader string
	}{
		{name: "no authorization header"},
		{name: "malformed header ignored", authHeader: "Bearer not-a-real-token"},
		{name: "garbage header ignored", authHeader: "garbage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var hit bool
			handler := guard.Allow(Policy{Public: true})(okHandler(&hit))

			r := httptest.NewRequest("GET", "/products", nil)
			if tt.authHeader != "" {
				r.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			if !hit {
				t.Error("Expected handler to be reached on public route")
			}
			if w.Code != http.StatusOK {
				t.Errorf("Expected 200, got %d", w.Code)
			}
		})
	}
}

func TestGuard_Rejections(t *testing.T) {
	t.Parallel()

	guard, codec := newTestGuard(t)
	otherCodec := token.NewCodec("a-different-secret")

	tests := []struct {
		name       string
		policy     Policy
		authHeader string
		wantError  string
	}{
		{
			name:      "missing header",
			policy:    Policy{},
			wantError: "No token provided",
		},
		{
			name:       "bearer with empty token",
			policy:     Policy{},
			authHeader: "Bearer",
			wantError:  "Invalid token",
		},
		{
			name:       "wrong signature",
			policy:     Policy{},
			authHeader: "Bearer " + issueToken(t, otherCodec, map[string]any{"sub": "u1"}),
			wantError:  "Invalid or expired token",
		},
		{
			name:       "malformed token",
			policy:     Policy{},
			authHeader: "Bearer not.a.jwt",
			wantError:  "Invalid or expired token",
		},
		{
			name:       "role mismatch",
			policy:     Policy{Role: "admin"},
			authHeader: "Bearer " + issueToken(t, codec, map[string]any{"sub": "u1", "role": "user"}),
			wantError:  "Insufficient permissions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var hit bool
			handler := guard.Allow(tt.policy)(okHandler(&hit))

			r := httptest.NewRequest("GET", "/orders", nil)
			if tt.authHeader != "" {
				r.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			if hit {
				t.Error("Expected handler not to be reached")
			}
			if w.Code != http.StatusForbidden {
				t.Errorf("Expected 403, got %d", w.Code)
			}

			var body map[string]any
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode body: %v", err)
			}
			if body["error"] != tt.wantError {
				t.Errorf("Expected error %q, got %q", tt.wantError, body["error"])
			}
		})
	}
}

func TestGuard_AllowsAndAttachesIdentity(t *testing.T) {
	t.Parallel()

	guard, codec := newTestGuard(t)

	tok := issueToken(t, codec, map[string]any{
		"sub":      "user-123",
		"email":    "buyer@example.com",
		"role":     "user",
		"platform": "web",
	})

	var gotSub, gotRole string
	handler := guard.Protect()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := request.IdentityFromContext(r)
		if claims != nil {
			gotSub = claims.Sub
			gotRole = claims.Role
		}
		w.WriteHeader(http.StatusOK)
	}))

	r := httptest.NewRequest("GET", "/orders", nil)
	r.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if gotSub != "user-123" {
		t.Errorf("Expected sub user-123, got %q", gotSub)
	}
	if gotRole != "user" {
		t.Errorf("Expected role user, got %q", gotRole)
	}
}

func TestGuard_RoleMatchAndNoRolePolicy(t *testing.T) {
	t.Parallel()

	guard, codec := newTestGuard(t)
	userToken := issueToken(t, codec, map[string]any{"sub": "u1", "role": "user"})
	adminToken := issueToken(t, codec, map[string]any{"sub": "u2", "role": "admin"})

	t.Run("admin token on admin route", func(t *testing.T) {
		t.Parallel()

		var hit bool
		handler := guard.Require("admin")(okHandler(&hit))
		r := httptest.NewRequest("GET", "/users", nil)
		r.Header.Set("Authorization", "Bearer "+adminToken)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		if !hit || w.Code != http.StatusOK {
			t.Errorf("Expected admin to pass, got status %d", w.Code)
		}
	})

	t.Run("user token on role-unspecified route", func(t *testing.T) {
		t.Parallel()

		var hit bool
		handler := guard.Protect()(okHandler(&hit))
		r := httptest.NewRequest("GET", "/orders", nil)
		r.Header.Set("Authorization", "Bearer "+userToken)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		if !hit || w.Code != http.StatusOK {
			t.Errorf("Expected user to pass on role-unspecified route, got status %d", w.Code)
		}
	})
}
