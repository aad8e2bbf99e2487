package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/storekit/storefront-api/internal/models"
	"github.com/storekit/storefront-api/internal/services/googleauth"
	"github.com/storekit/storefront-api/internal/services/token"
)

type fakeVerifier struct {
	identity *googleauth.Identity
	err      error
}

func (f *fakeVerifier) Verify(_ context.Context, _, _ string) (*googleauth.Identity, error) {
	return f.identity, f.err
}

// fakeUserRepo keeps accounts in memory keyed by email
type fakeUserRepo struct {
	byEmail     map[string]*models.User
	createErr   error
	createCalls int
	missFirst   bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: map[string]*models.User{}}
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	if f.missFirst {
		// Simulates a lookup that ran before a concurrent insert landed
		f.missFirst = false
		return nil, fmt.Errorf("user not found")
	}
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("user not found")
}

func (f *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	f.createCalls++
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.byEmail[user.Email]; ok {
		return &pq.Error{Code: "23505"}
	}
	f.byEmail[user.Email] = user
	return nil
}

func newTestService(verifier IdentityVerifier, users *fakeUserRepo) *Service {
	return NewService(verifier, users, token.NewCodec("auth-service-secret"), "client-id", zap.NewNop())
}

func TestLogin_FirstLoginCreatesAccount(t *testing.T) {
	t.Parallel()

	users := newFakeUserRepo()
	svc := newTestService(&fakeVerifier{identity: &googleauth.Identity{
		Email:   "new@example.com",
		Name:    "New User",
		Picture: "https://img.example.com/p.png",
	}}, users)

	result, err := svc.Login(context.Background(), "id-token", models.PlatformWeb)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	created := users.byEmail["new@example.com"]
	if created == nil {
		t.Fatal("Expected account to be created")
	}
	if created.Role != models.RoleUser {
		t.Errorf("Expected default role user, got %s", created.Role)
	}
	if result.User.Email != "new@example.com" {
		t.Errorf("Unexpected profile email %s", result.User.Email)
	}
	if result.AccessToken == "" || result.RefreshToken == "" {
		t.Error("Expected both tokens to be issued")
	}
}

func TestLogin_SecondLoginReusesAccount(t *testing.T) {
	t.Parallel()

	users := newFakeUserRepo()
	svc := newTestService(&fakeVerifier{identity: &googleauth.Identity{Email: "repeat@example.com"}}, users)

	first, err := svc.Login(context.Background(), "id-token", models.PlatformWeb)
	if err != nil {
		t.Fatalf("First login failed: %v", err)
	}
	second, err := svc.Login(context.Background(), "id-token", models.PlatformMobile)
	if err != nil {
		t.Fatalf("Second login failed: %v", err)
	}

	if first.User.ID != second.User.ID {
		t.Errorf("Expected same account id, got %s and %s", first.User.ID, second.User.ID)
	}
	if users.createCalls != 1 {
		t.Errorf("Expected exactly one create, got %d", users.createCalls)
	}
}

func TestLogin_NameDefaultsToEmailLocalPart(t *testing.T) {
	t.Parallel()

	users := newFakeUserRepo()
	svc := newTestService(&fakeVerifier{identity: &googleauth.Identity{Email: "nameless@example.com"}}, users)

	result, err := svc.Login(context.Background(), "id-token", models.PlatformWeb)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if result.User.Name != "nameless" {
		t.Errorf("Expected name 'nameless', got %q", result.User.Name)
	}
}

func TestLogin_AccessClaimsShape(t *testing.T) {
	t.Parallel()

	users := newFakeUserRepo()
	svc := newTestService(&fakeVerifier{identity: &googleauth.Identity{Email: "claims@example.com", Name: "Claims"}}, users)

	result, err := svc.Login(context.Background(), "id-token", models.PlatformWeb)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	codec := token.NewCodec("auth-service-secret")

	access, err := codec.Verify(result.AccessToken)
	if err != nil {
		t.Fatalf("Access token verify failed: %v", err)
	}
	if access["role"] != models.RoleUser {
		t.Errorf("Expected role claim user, got %v", access["role"])
	}
	if access["platform"] != "web" {
		t.Errorf("Expected platform web, got %v", access["platform"])
	}
	if access["sub"] != result.User.ID.String() {
		t.Errorf("Expected sub %s, got %v", result.User.ID, access["sub"])
	}

	refresh, err := codec.Verify(result.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh token verify failed: %v", err)
	}
	if refresh["type"] != models.TokenTypeRefresh {
		t.Errorf("Expected type refresh, got %v", refresh["type"])
	}
	if refresh["sub"] != result.User.ID.String() {
		t.Errorf("Expected sub %s, got %v", result.User.ID, refresh["sub"])
	}
}

func TestLogin_VerifierRejection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		wantErr error
	}{
		{name: "provider rejected token", wantErr: googleauth.ErrTokenRejected},
		{name: "unverified email", wantErr: googleauth.ErrUnverifiedEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			users := newFakeUserRepo()
			svc := newTestService(&fakeVerifier{err: tt.wantErr}, users)

			if _, err := svc.Login(context.Background(), "bad-token", models.PlatformWeb); !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
			if users.createCalls != 0 {
				t.Errorf("Expected no account creation, got %d calls", users.createCalls)
			}
		})
	}
}

func TestLogin_StoreFailure(t *testing.T) {
	t.Parallel()

	users := newFakeUserRepo()
	users.createErr = errors.New("connection reset")
	svc := newTestService(&fakeVerifier{identity: &googleauth.Identity{Email: "fail@example.com"}}, users)

	if _, err := svc.Login(context.Background(), "id-token", models.PlatformWeb); !errors.Is(err, ErrAccountCreation) {
		t.Errorf("Expected ErrAccountCreation, got %v", err)
	}
}

func TestLogin_InsertRaceRereadsWinningRow(t *testing.T) {
	t.Parallel()

	users := newFakeUserRepo()
	winner := &models.User{ID: uuid.New(), Email: "race@example.com", Name: "Winner", Role: models.RoleUser}

	// A concurrent first login wins the insert between our lookup and
	// our create: the initial lookup misses, the insert hits the unique
	// constraint, and the re-read returns the winning row.
	users.missFirst = true
	users.byEmail["race@example.com"] = winner
	users.createErr = &pq.Error{Code: "23505"}

	svc := newTestService(&fakeVerifier{identity: &googleauth.Identity{Email: "race@example.com"}}, users)

	result, err := svc.Login(context.Background(), "id-token", models.PlatformWeb)
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if result.User.ID != winner.ID {
		t.Errorf("Expected winning row id %s, got %s", winner.ID, result.User.ID)
	}
}
