package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/storekit/storefront-api/internal/database"
	"github.com/storekit/storefront-api/internal/models"
	"github.com/storekit/storefront-api/internal/validation"
)

// UserHandler handles user account requests
type UserHandler struct {
	userRepo *database.UserRepository
}

// NewUserHandler creates a new user handler
func NewUserHandler(userRepo *database.UserRepository) *UserHandler {
	return &UserHandler{userRepo: userRepo}
}

// UpdateUserRequest represents an update user request. Email and role
// are not updatable through this endpoint.
type UpdateUserRequest struct {
	Name    *string         `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	ImgURL  *string         `json:"img_url,omitempty" validate:"omitempty,url"`
	Phone   *string         `json:"phone,omitempty" validate:"omitempty,max=32"`
	Address *models.Address `json:"address,omitempty"`
}

// ListUsers lists all user accounts
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.userRepo.List(r.Context())
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to retrieve users")
		return
	}

	respondJSON(w, http.StatusOK, users)
}

// GetUser retrieves a user by ID
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid user ID")
		return
	}

	user, err := h.userRepo.GetByID(r.Context(), id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "User not found")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// UpdateUser updates profile fields of a user
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid user ID")
		return
	}

	ctx := r.Context()
	user, err := h.userRepo.GetByID(ctx, id)
	if err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "User not found")
		return
	}

	var req UpdateUserRequest
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		if maxBytesErr, ok := err.(*http.MaxBytesError); ok {
			respondJSONError(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large", fmt.Sprintf("Request body exceeds maximum size of %d bytes", maxBytesErr.Limit))
			return
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return
	}

	if err := validation.Validate.Struct(req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldError := range validationErrors {
				respondJSONError(w, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Validation failed: %s", fieldError.Error()))
				return
			}
		}
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Validation failed")
		return
	}

	if req.Name != nil {
		sanitized := validation.SanitizeText(*req.Name)
		if sanitized == "" {
			respondJSONError(w, http.StatusBadRequest, "Bad Request", "Name cannot be empty after sanitization")
			return
		}
		user.Name = sanitized
	}
	if req.ImgURL != nil {
		user.ImgURL = req.ImgURL
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.Address != nil {
		user.Address = req.Address
	}

	if err := h.userRepo.Update(ctx, user); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to update user")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// DeleteUser deletes a user account
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid user ID")
		return
	}

	ctx := r.Context()
	if _, err := h.userRepo.GetByID(ctx, id); err != nil {
		respondJSONError(w, http.StatusNotFound, "Not Found", "User not found")
		return
	}

	if err := h.userRepo.Delete(ctx, id); err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to delete user")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

// PublicInfo is an unauthenticated marker endpoint
func (h *UserHandler) PublicInfo(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "This route is public"})
}
