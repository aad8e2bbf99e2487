package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/storekit/storefront-api/internal/models"
	"github.com/storekit/storefront-api/internal/request"
)

// newOrderRouter wires the order handler behind a middleware that
// injects the given identity, mirroring what the access guard does.
func newOrderRouter(claims *models.AccessClaims) *mux.Router {
	r := mux.NewRouter()
	sub := r.PathPrefix("/orders").Subrouter()
	if claims != nil {
		sub.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(request.WithIdentity(req.Context(), claims)))
			})
		})
	}
	h := NewOrderHandler(nil, nil, nil)
	h.RegisterRoutes(sub)
	return r
}

func TestNewOrderNumber(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	number := newOrderNumber(now)
	if !strings.HasPrefix(number, "ORD-2026-03-14-") {
		t.Errorf("order number %q missing date prefix", number)
	}
	if len(number) != len("ORD-2026-03-14-")+6 {
		t.Errorf("order number %q has unexpected length", number)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	t.Parallel()

	claims := &models.AccessClaims{Sub: uuid.New().String(), Role: models.RoleUser}

	tests := []struct {
		name       string
		claims     *models.AccessClaims
		body       string
		wantStatus int
	}{
		{"no identity", nil, `{"items":[{"product_id":"x","quantity":1}]}`, http.StatusUnauthorized},
		{"bad subject", &models.AccessClaims{Sub: "not-a-uuid"}, `{"items":[]}`, http.StatusUnauthorized},
		{"malformed JSON", claims, `{"items":`, http.StatusBadRequest},
		{"empty items", claims, `{"items":[]}`, http.StatusBadRequest},
		{"zero quantity", claims, `{"items":[{"product_id":"` + uuid.New().String() + `","quantity":0}]}`, http.StatusBadRequest},
		{"bad product id", claims, `{"items":[{"product_id":"nope","quantity":1}]}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := newOrderRouter(tt.claims)
			req := httptest.NewRequest("POST", "/orders", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestOrderInvalidID(t *testing.T) {
	t.Parallel()

	claims := &models.AccessClaims{Sub: uuid.New().String(), Role: models.RoleUser}

	for _, method := range []string{"GET", "PATCH", "DELETE"} {
		t.Run(method, func(t *testing.T) {
			t.Parallel()

			router := newOrderRouter(claims)
			req := httptest.NewRequest(method, "/orders/not-a-uuid", strings.NewReader("{}"))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}
