package handlers

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/storekit/storefront-api/internal/database"
	"github.com/storekit/storefront-api/internal/models"
	"github.com/storekit/storefront-api/internal/storage"
	"github.com/storekit/storefront-api/internal/validation"
)

// MaxProductImageSize is the maximum accepted image upload size
const MaxProductImageSize = 5 << 20 // 5 MB

// ProductHandler handles product-related requests
type ProductHandler struct {
	productRepo *database.ProductRepository
	images      storage.ImageStore
}

// NewProductHandler creates a new product handler
func NewProductHandler(productRepo *database.ProductRepository, images storage.ImageStore) *ProductHandler {
	return &ProductHandler{productRepo: productRepo, images: images}
}

// RegisterPublicRoutes registers the read-only product routes
func (h *ProductHandler) RegisterPublicRoutes(r *mux.Router) {
	r.HandleFunc("", h.ListProducts).Methods("GET")
	r.HandleFunc("/{id}", h.GetProduct).Methods("GET")
}

// RegisterProtectedRoutes registers the mutating product routes
func (h *ProductHandler) RegisterProtectedRoutes(r *mux.Router) {
	r.HandleFunc("/upload", h.UploadProduct).Methods("POST")
	r.HandleFunc("/{id}", h.UpdateProduct).Methods("PATCH")
	r.HandleFunc("/{id}", h.DeleteProduct).Methods("DELETE")
}

// ListProducts lists all products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.productRepo.List(r.Context())
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve products")
		return
	}

	respondJSON(w, http.StatusOK, products)
}

// GetProduct retrieves a product by ID
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid product ID")
		return
	}

	product, err := h.productRepo.GetByID(r.Context(), id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Product not found")
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// UploadProduct creates a product from a multipart form carrying the
// image file plus product fields
func (h *ProductHandler) UploadProduct(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(MaxProductImageSize); err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid multipart form")
		return
	}

	name := validation.SanitizeText(r.FormValue("name"))
	if name == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Product name is required")
		return
	}

	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil || price < 0 {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Price must be a non-negative number")
		return
	}

	product := &models.Product{
		ID:          uuid.New(),
		Name:        name,
		Price:       price,
		IsAvailable: true,
	}

	if desc := validation.SanitizeText(r.FormValue("description")); desc != "" {
		product.Description = &desc
	}
	if cid := r.FormValue("category_id"); cid != "" {
		categoryID, err := uuid.Parse(cid)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid category ID")
			return
		}
		product.CategoryID = &categoryID
	}
	if avail := r.FormValue("is_available"); avail != "" {
		parsed, err := strconv.ParseBool(avail)
		if err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "is_available must be a boolean")
			return
		}
		product.IsAvailable = parsed
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Image file is required")
		return
	}
	defer func() { _ = file.Close() }()

	imageURL, err := h.storeImage(r, file, header)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to store image")
		return
	}
	product.ImageURL = &imageURL

	if err := h.productRepo.Create(r.Context(), product); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to create product")
		return
	}

	respondJSON(w, http.StatusCreated, product)
}

// UpdateProductRequest represents a JSON product update request
type UpdateProductRequest struct {
	Name        *string    `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	Price       *float64   `json:"price,omitempty" validate:"omitempty,gte=0"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
	IsAvailable *bool      `json:"is_available,omitempty"`
}

// UpdateProduct updates an existing product. A multipart request may
// carry a replacement image; a JSON request updates fields only.
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid product ID")
		return
	}

	product, err := h.productRepo.GetByID(r.Context(), id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Product not found")
		return
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := h.applyMultipartUpdate(r, product); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
	} else {
		if err := h.applyJSONUpdate(r, product); err != nil {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
			return
		}
	}

	if err := h.productRepo.Update(r.Context(), product); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update product")
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// applyJSONUpdate merges a JSON body into the product
func (h *ProductHandler) applyJSONUpdate(r *http.Request, product *models.Product) error {
	var req UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return fmt.Errorf("invalid request body")
	}
	if err := validation.Validate.Struct(req); err != nil {
		return fmt.Errorf("validation failed")
	}

	if req.Name != nil {
		sanitized := validation.SanitizeText(*req.Name)
		if sanitized == "" {
			return fmt.Errorf("product name cannot be empty after sanitization")
		}
		product.Name = sanitized
	}
	if req.Description != nil {
		product.Description = req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.CategoryID != nil {
		product.CategoryID = req.CategoryID
	}
	if req.IsAvailable != nil {
		product.IsAvailable = *req.IsAvailable
	}
	return nil
}

// applyMultipartUpdate merges multipart form fields into the product,
// replacing the image when a new file is attached
func (h *ProductHandler) applyMultipartUpdate(r *http.Request, product *models.Product) error {
	if err := r.ParseMultipartForm(MaxProductImageSize); err != nil {
		return fmt.Errorf("invalid multipart form")
	}

	if name := r.FormValue("name"); name != "" {
		sanitized := validation.SanitizeText(name)
		if sanitized == "" {
			return fmt.Errorf("product name cannot be empty after sanitization")
		}
		product.Name = sanitized
	}
	if desc := r.FormValue("description"); desc != "" {
		sanitized := validation.SanitizeText(desc)
		product.Description = &sanitized
	}
	if priceStr := r.FormValue("price"); priceStr != "" {
		price, err := strconv.ParseFloat(priceStr, 64)
		if err != nil || price < 0 {
			return fmt.Errorf("price must be a non-negative number")
		}
		product.Price = price
	}
	if cid := r.FormValue("category_id"); cid != "" {
		categoryID, err := uuid.Parse(cid)
		if err != nil {
			return fmt.Errorf("invalid category ID")
		}
		product.CategoryID = &categoryID
	}
	if avail := r.FormValue("is_available"); avail != "" {
		parsed, err := strconv.ParseBool(avail)
		if err != nil {
			return fmt.Errorf("is_available must be a boolean")
		}
		product.IsAvailable = parsed
	}

	file, header, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		return nil
	}
	if err != nil {
		return fmt.Errorf("invalid image file")
	}
	defer func() { _ = file.Close() }()

	imageURL, storeErr := h.storeImage(r, file, header)
	if storeErr != nil {
		return fmt.Errorf("failed to store image")
	}
	product.ImageURL = &imageURL
	return nil
}

// storeImage uploads the attached file and returns its public URL
func (h *ProductHandler) storeImage(r *http.Request, file multipart.File, header *multipart.FileHeader) (string, error) {
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return h.images.UploadProductImage(r.Context(), header.Filename, contentType, file)
}

// DeleteProduct deletes a product
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid product ID")
		return
	}

	if _, err := h.productRepo.GetByID(r.Context(), id); err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "Product not found")
		return
	}

	if err := h.productRepo.Delete(r.Context(), id); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete product")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Product deleted"})
}
