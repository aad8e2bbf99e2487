package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/storekit/storefront-api/internal/models"
	"github.com/storekit/storefront-api/internal/services/auth"
	"github.com/storekit/storefront-api/internal/services/token"
	"github.com/storekit/storefront-api/internal/validation"
)

// RefreshCookieName is the cookie carrying the refresh token for web logins
const RefreshCookieName = "refresh_token"

// LoginService performs the federated login exchange. Implemented by
// auth.Service; the interface enables mock implementations in tests.
type LoginService interface {
	Login(ctx context.Context, idToken string, platform models.Platform) (*auth.LoginResult, error)
}

// AuthHandler handles login and logout requests
type AuthHandler struct {
	svc          LoginService
	secureCookie bool
}

// NewAuthHandler creates a new auth handler. secureCookie marks the
// refresh cookie Secure and should be true outside development.
func NewAuthHandler(svc LoginService, secureCookie bool) *AuthHandler {
	return &AuthHandler{svc: svc, secureCookie: secureCookie}
}

// GoogleLoginRequest represents a Google login request
type GoogleLoginRequest struct {
	IDToken  string `json:"idToken" validate:"required"`
	Platform string `json:"platform" validate:"required,platform"`
}

// GoogleLogin exchanges a Google ID token for locally issued tokens.
// Web logins receive the refresh token in an HttpOnly cookie; mobile
// logins receive it in the response body.
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req GoogleLoginRequest
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

	result, err := h.svc.Login(r.Context(), req.IDToken, models.Platform(req.Platform))
	if err != nil {
		// Verification, account resolution and signing failures all
		// collapse to a single 401; nothing is leaked to the client
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "Login failed")
		return
	}

	if models.Platform(req.Platform) == models.PlatformWeb {
		http.SetCookie(w, &http.Cookie{
			Name:     RefreshCookieName,
			Value:    result.RefreshToken,
			Path:     "/",
			MaxAge:   int(token.RefreshTokenTTL.Seconds()),
			HttpOnly: true,
			Secure:   h.secureCookie,
			SameSite: http.SameSiteStrictMode,
		})
		respondRaw(w, http.StatusOK, map[string]any{
			"access_token": result.AccessToken,
			"user":         result.User,
		})
		return
	}

	respondRaw(w, http.StatusOK, map[string]any{
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"user":          result.User,
	})
}

// Logout clears the refresh cookie. Tokens already issued stay valid
// until expiry; there is no server-side session to revoke.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteStrictMode,
	})

	respondRaw(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Logged out successfully",
	})
}
