package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"qbay/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMStore is a GORM implementation of Store.
type GORMStore struct {
	db         *gorm.DB
	maxRetries int
	inTx       bool
}

// NewGORMStore creates a new GORMStore. maxRetries bounds how often WithTx
// re-runs a transaction aborted by a serialization failure or deadlock.
func NewGORMStore(db *gorm.DB, maxRetries int) *GORMStore {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &GORMStore{
		db:         db,
		maxRetries: maxRetries,
	}
}

// Migrate creates or updates the tables backing the store.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Product{}, &models.Transaction{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// WithTx runs fn inside a database transaction. On Postgres the transaction
// is serializable and is retried when the server aborts it.
func (s *GORMStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}

	var opts []*sql.TxOptions
	if s.db.Dialector.Name() == "postgres" {
		opts = append(opts, &sql.TxOptions{Isolation: sql.LevelSerializable})
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(&GORMStore{db: tx, maxRetries: s.maxRetries, inTx: true})
		}, opts...)
		if err == nil || !isRetryable(err) || attempt >= s.maxRetries {
			return err
		}
		log.Printf("Retrying transaction after conflict (attempt %d of %d): %v", attempt+1, s.maxRetries, err)
	}
}

// forUpdate locks the selected rows when running inside a transaction.
func (s *GORMStore) forUpdate(ctx context.Context) *gorm.DB {
	db := s.db.WithContext(ctx)
	if s.inTx {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

// FindUserByEmail retrieves a user by email.
func (s *GORMStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.forUpdate(ctx).First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user with email %s: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user by email %s: %w", email, err)
	}
	return &user, nil
}

// InsertUser creates a new user row.
func (s *GORMStore) InsertUser(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user with email %s: %w", user.Email, ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// UpdateUser writes the mutable profile fields and the balance.
func (s *GORMStore) UpdateUser(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ?", user.Email).
		Updates(map[string]any{
			"username":         user.Username,
			"shipping_address": user.ShippingAddress,
			"postal_code":      user.PostalCode,
			"balance":          user.Balance,
			"updated_at":       user.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with email %s not found for update: %w", user.Email, ErrNotFound)
	}
	return nil
}

// FindProductByTitle retrieves a product by its unique title.
func (s *GORMStore) FindProductByTitle(ctx context.Context, title string) (*models.Product, error) {
	var product models.Product
	if err := s.forUpdate(ctx).First(&product, "title = ?", title).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product with title %s: %w", title, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get product by title %s: %w", title, err)
	}
	return &product, nil
}

// ListProductsByOwner retrieves the products listed by email.
func (s *GORMStore) ListProductsByOwner(ctx context.Context, email string) ([]models.Product, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).Where("owner_email = ?", email).Order("title").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products of %s: %w", email, err)
	}
	return products, nil
}

// ListProductsNotOwnedBy retrieves every product listed by someone other than email.
func (s *GORMStore) ListProductsNotOwnedBy(ctx context.Context, email string) ([]models.Product, error) {
	var products []models.Product
	if err := s.db.WithContext(ctx).Where("owner_email <> ?", email).Order("title").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list listings for %s: %w", email, err)
	}
	return products, nil
}

// InsertProduct creates a new product row, generating its ID if needed.
func (s *GORMStore) InsertProduct(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("product with title %s: %w", product.Title, ErrDuplicate)
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// UpdateProduct writes title, description, price and date of the product with the same ID.
func (s *GORMStore) UpdateProduct(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = time.Now()
	res := s.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"title":              product.Title,
			"description":        product.Description,
			"price":              product.Price,
			"last_modified_date": product.LastModifiedDate,
			"updated_at":         product.UpdatedAt,
		})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return fmt.Errorf("product with title %s: %w", product.Title, ErrDuplicate)
		}
		return fmt.Errorf("failed to update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s not found for update: %w", product.ID, ErrNotFound)
	}
	return nil
}

// DeleteProduct removes the product with the same ID.
func (s *GORMStore) DeleteProduct(ctx context.Context, product *models.Product) error {
	res := s.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", product.ID)
	if res.Error != nil {
		return fmt.Errorf("failed to delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product with ID %s not found for deletion: %w", product.ID, ErrNotFound)
	}
	return nil
}

// InsertTransaction records a completed sale.
func (s *GORMStore) InsertTransaction(ctx context.Context, txn *models.Transaction) error {
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	if err := s.db.WithContext(ctx).Create(txn).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// ListTransactionsByOwner retrieves the purchases made by email, oldest first.
func (s *GORMStore) ListTransactionsByOwner(ctx context.Context, email string) ([]models.Transaction, error) {
	var txns []models.Transaction
	if err := s.db.WithContext(ctx).Where("buyer_email = ?", email).Order("created_at").Find(&txns).Error; err != nil {
		return nil, fmt.Errorf("failed to list transactions of %s: %w", email, err)
	}
	return txns, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isRetryable matches Postgres serialization_failure and deadlock_detected.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == "40001" || pgErr.Code == "40P01")
}
