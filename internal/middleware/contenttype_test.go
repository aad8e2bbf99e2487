package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
)

func TestContentType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		method      string
		body        string
		contentType string
		wantStatus  int
	}{
		{name: "json post", method: "POST", body: `{"a":1}`, contentType: "application/json", wantStatus: http.StatusOK},
		{name: "multipart post", method: "POST", body: "data", contentType: "multipart/form-data; boundary=x", wantStatus: http.StatusOK},
		{name: "post body without content type", method: "POST", body: `{"a":1}`, wantStatus: http.StatusBadRequest},
		{name: "post with wrong content type", method: "POST", body: "<a/>", contentType: "text/xml", wantStatus: http.StatusUnsupportedMediaType},
		{name: "body-less post passes", method: "POST", wantStatus: http.StatusOK},
		{name: "body-less patch passes", method: "PATCH", wantStatus: http.StatusOK},
		{name: "get ignored", method: "GET", wantStatus: http.StatusOK},
		{name: "delete ignored", method: "DELETE", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var body *strings.Reader
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			} else {
				body = strings.NewReader("")
			}
			r := httptest.NewRequest(tt.method, "/api/v1/orders", body)
			if tt.contentType != "" {
				r.Header.Set("Content-Type", tt.contentType)
			}
			w := httptest.NewRecorder()

			handler := ContentType(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			handler.ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected %d, got %d (body: %s)", tt.wantStatus, w.Code, w.Body.String())
			}
		})
	}
}

// TestContentTypeBeforeGuard exercises the server's chain order: the
// Content-Type check sits above the guard, and a bare unauthenticated
// POST to a protected route must still reach the guard's 403, not die
// with a 400 over a header a body-less request has no reason to send.
func TestContentTypeBeforeGuard(t *testing.T) {
	t.Parallel()

	guard, codec := newTestGuard(t)

	r := mux.NewRouter()
	r.Use(ContentType)
	logoutRouter := r.PathPrefix("/api/v1/auth/logout").Subrouter()
	logoutRouter.Use(guard.Protect())
	logoutRouter.HandleFunc("", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods("POST")

	t.Run("no token no body yields forbidden", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest("POST", "/api/v1/auth/logout", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusForbidden {
			t.Fatalf("Expected 403, got %d (body: %s)", w.Code, w.Body.String())
		}
		if !strings.Contains(w.Body.String(), "No token provided") {
			t.Errorf("Expected guard rejection body, got %s", w.Body.String())
		}
	})

	t.Run("valid token no body passes", func(t *testing.T) {
		t.Parallel()

		tok := issueToken(t, codec, map[string]any{"sub": "u1", "role": "user"})
		req := httptest.NewRequest("POST", "/api/v1/auth/logout", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d (body: %s)", w.Code, w.Body.String())
		}
	})
}
