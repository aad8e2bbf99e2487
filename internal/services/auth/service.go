package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storekit/storefront-api/internal/database"
	"github.com/storekit/storefront-api/internal/logger"
	"github.com/storekit/storefront-api/internal/models"
	"github.com/storekit/storefront-api/internal/services/googleauth"
	"github.com/storekit/storefront-api/internal/services/token"
)

// ErrAccountCreation means the store rejected the first-login insert.
// Reported to the caller as an authentication failure, not a 5xx.
var ErrAccountCreation = errors.New("failed to create account")

// LoginResult is the outcome of a successful login
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         *models.Profile
}

// IdentityVerifier validates an external ID token and extracts the
// verified identity claim. Implemented by googleauth.Verifier.
type IdentityVerifier interface {
	Verify(ctx context.Context, idToken, audience string) (*googleauth.Identity, error)
}

// Service orchestrates identity verification, account resolution and
// token issuance. Login always runs those three steps in that order.
type Service struct {
	verifier IdentityVerifier
	users    database.UserRepositoryInterface
	codec    *token.Codec
	audience string
	log      *zap.Logger
}

// NewService creates the auth service
func NewService(verifier IdentityVerifier, users database.UserRepositoryInterface, codec *token.Codec, audience string, log *zap.Logger) *Service {
	return &Service{
		verifier: verifier,
		users:    users,
		codec:    codec,
		audience: audience,
		log:      log,
	}
}

// Login exchanges a Google ID token for a locally-issued access/refresh
// token pair and the account profile.
func (s *Service) Login(ctx context.Context, idToken string, platform models.Platform) (*LoginResult, error) {
	identity, err := s.verifier.Verify(ctx, idToken, s.audience)
	if err != nil {
		return nil, err
	}

	user, err := s.resolveAccount(ctx, identity)
	if err != nil {
		return nil, err
	}

	accessClaims := map[string]any{
		"sub":      user.ID.String(),
		"email":    user.Email,
		"name":     user.Name,
		"platform": string(platform),
	}
	if user.ImgURL != nil {
		accessClaims["img_url"] = *user.ImgURL
	}
	if user.Role != "" {
		accessClaims["role"] = user.Role
	}

	refreshClaims := map[string]any{
		"sub":  user.ID.String(),
		"type": models.TokenTypeRefresh,
	}

	accessToken, err := s.codec.Issue(accessClaims, token.AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	refreshToken, err := s.codec.Issue(refreshClaims, token.RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         models.ProfileOf(user),
	}, nil
}

// resolveAccount maps a verified identity to an account record, creating
// one on first sight. Returning accounts are served as stored; name and
// picture drift from Google is not reconciled on later logins.
func (s *Service) resolveAccount(ctx context.Context, identity *googleauth.Identity) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, identity.Email)
	if err == nil {
		return user, nil
	}

	name := identity.Name
	if name == "" {
		name = strings.SplitN(identity.Email, "@", 2)[0]
	}

	user = &models.User{
		ID:    uuid.New(),
		Email: identity.Email,
		Name:  name,
		Role:  models.RoleUser,
	}
	if identity.Picture != "" {
		picture := identity.Picture
		user.ImgURL = &picture
	}

	if createErr := s.users.Create(ctx, user); createErr != nil {
		// Two first-logins may race to insert the same email; the unique
		// constraint decides the winner and the loser re-reads the row.
		if database.IsUniqueViolation(createErr) {
			existing, readErr := s.users.GetByEmail(ctx, identity.Email)
			if readErr == nil {
				return existing, nil
			}
			s.log.Error("account_reread_after_conflict_failed",
				zap.String("email", logger.SanitizeUserID(identity.Email)),
				zap.Error(readErr),
			)
			return nil, fmt.Errorf("%w: %v", ErrAccountCreation, readErr)
		}
		s.log.Error("account_creation_failed",
			zap.String("email", logger.SanitizeUserID(identity.Email)),
			zap.Error(createErr),
		)
		return nil, fmt.Errorf("%w: %v", ErrAccountCreation, createErr)
	}

	s.log.Info("account_created",
		zap.String("user_id", user.ID.String()),
	)

	return user, nil
}
