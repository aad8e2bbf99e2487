package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
)

// Validation failures short-circuit before the repository is touched,
// so a nil repository is safe here.
func newCategoryRouter() *mux.Router {
	r := mux.NewRouter()
	h := NewCategoryHandler(nil)
	h.RegisterRoutes(r.PathPrefix("/categories").Subrouter())
	return r
}

func TestCreateCategoryValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"malformed JSON", `{"category_name":`},
		{"missing name", `{"description":"desc"}`},
		{"empty name", `{"category_name":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			router := newCategoryRouter()
			req := httptest.NewRequest("POST", "/categories", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestCategoryInvalidID(t *testing.T) {
	t.Parallel()

	for _, method := range []string{"GET", "PUT", "DELETE"} {
		t.Run(method, func(t *testing.T) {
			t.Parallel()

			router := newCategoryRouter()
			req := httptest.NewRequest(method, "/categories/not-a-uuid", strings.NewReader("{}"))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}
