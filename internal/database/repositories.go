package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/storekit/storefront-api/internal/models"
)

// UserRepositoryInterface defines the user repository operations the auth
// flow depends on. Enables mock implementations in tests.
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// OrderRepositoryInterface defines the order repository operations used
// by the order event worker.
type OrderRepositoryInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) (bool, error)
}

// Ensure concrete types implement the interfaces
var (
	_ UserRepositoryInterface  = (*UserRepository)(nil)
	_ OrderRepositoryInterface = (*OrderRepository)(nil)
)
