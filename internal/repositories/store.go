package repositories

import (
	"context"
	"errors"

	"qbay/internal/models"
)

var (
	// ErrNotFound is returned when no row matches the lookup key.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert or update violates a unique key (email or title).
	ErrDuplicate = errors.New("duplicate key")
)

// Store defines the persistence operations used by the services.
//
// Email and title are unique keys, so the Find methods return at most one row.
// WithTx runs fn as one serializable unit: either every write made through tx
// is committed or none is.
type Store interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	InsertUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error

	FindProductByTitle(ctx context.Context, title string) (*models.Product, error)
	ListProductsByOwner(ctx context.Context, email string) ([]models.Product, error)
	ListProductsNotOwnedBy(ctx context.Context, email string) ([]models.Product, error)
	InsertProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, product *models.Product) error
	DeleteProduct(ctx context.Context, product *models.Product) error

	InsertTransaction(ctx context.Context, txn *models.Transaction) error
	// ListTransactionsByOwner returns the purchases made by email.
	ListTransactionsByOwner(ctx context.Context, email string) ([]models.Transaction, error)

	WithTx(ctx context.Context, fn func(tx Store) error) error
}
