package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
)

type fakeImageStore struct {
	uploads int
	url     string
	err     error
}

func (f *fakeImageStore) UploadProductImage(ctx context.Context, filename, contentType string, body io.Reader) (string, error) {
	f.uploads++
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

func newProductRouter(images *fakeImageStore) *mux.Router {
	r := mux.NewRouter()
	h := NewProductHandler(nil, images)
	h.RegisterPublicRoutes(r.PathPrefix("/products").Subrouter())
	h.RegisterProtectedRoutes(r.PathPrefix("/products").Subrouter())
	return r
}

// multipartBody builds a multipart form with the given fields and an
// optional image file.
func multipartBody(t *testing.T, fields map[string]string, withImage bool) (*bytes.Buffer, string) {
	t.Helper()

	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("WriteField(%q): %v", key, err)
		}
	}
	if withImage {
		part, err := writer.CreateFormFile("image", "shoe.png")
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := part.Write([]byte("fake-png-bytes")); err != nil {
			t.Fatalf("writing image part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("closing writer: %v", err)
	}
	return buf, writer.FormDataContentType()
}

func TestUploadProductValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		fields    map[string]string
		withImage bool
	}{
		{"missing name", map[string]string{"price": "9.99"}, true},
		{"missing price", map[string]string{"name": "Shoe"}, true},
		{"negative price", map[string]string{"name": "Shoe", "price": "-1"}, true},
		{"bad category id", map[string]string{"name": "Shoe", "price": "9.99", "category_id": "nope"}, true},
		{"bad availability flag", map[string]string{"name": "Shoe", "price": "9.99", "is_available": "maybe"}, true},
		{"missing image", map[string]string{"name": "Shoe", "price": "9.99"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			images := &fakeImageStore{url: "https://cdn.example.com/x.png"}
			router := newProductRouter(images)

			body, contentType := multipartBody(t, tt.fields, tt.withImage)
			req := httptest.NewRequest("POST", "/products/upload", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, http.StatusBadRequest, rec.Body.String())
			}
			if images.uploads != 0 {
				t.Errorf("image uploaded %d times on invalid input, want 0", images.uploads)
			}
		})
	}
}

func TestProductInvalidID(t *testing.T) {
	t.Parallel()

	for _, method := range []string{"GET", "PATCH", "DELETE"} {
		t.Run(method, func(t *testing.T) {
			t.Parallel()

			router := newProductRouter(&fakeImageStore{})
			req := httptest.NewRequest(method, "/products/not-a-uuid", strings.NewReader("{}"))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}
