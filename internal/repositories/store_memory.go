package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"qbay/internal/models"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory implementation of Store.
//
// WithTx holds the store lock for the whole callback and works on a copy of
// the data, which replaces the live copy only when the callback succeeds.
type MemoryStore struct {
	mu    sync.Mutex
	state *memoryState
}

// NewMemoryStore creates a new, empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		state: &memoryState{
			users:    make(map[string]models.User),
			products: make(map[string]models.Product),
		},
	}
}

type memoryState struct {
	users        map[string]models.User    // keyed by email
	products     map[string]models.Product // keyed by title
	transactions []models.Transaction
}

func (s *memoryState) clone() *memoryState {
	c := &memoryState{
		users:        make(map[string]models.User, len(s.users)),
		products:     make(map[string]models.Product, len(s.products)),
		transactions: append([]models.Transaction(nil), s.transactions...),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	return c
}

// WithTx runs fn against a private copy of the data and commits it on success.
func (s *MemoryStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	draft := s.state.clone()
	if err := fn(&memoryTx{state: draft}); err != nil {
		return err
	}
	s.state = draft
	return nil
}

func (s *MemoryStore) run(fn func(tx *memoryTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&memoryTx{state: s.state})
}

func (s *MemoryStore) FindUserByEmail(ctx context.Context, email string) (user *models.User, err error) {
	err = s.run(func(tx *memoryTx) error {
		user, err = tx.FindUserByEmail(ctx, email)
		return err
	})
	return user, err
}

func (s *MemoryStore) InsertUser(ctx context.Context, user *models.User) error {
	return s.run(func(tx *memoryTx) error { return tx.InsertUser(ctx, user) })
}

func (s *MemoryStore) UpdateUser(ctx context.Context, user *models.User) error {
	return s.run(func(tx *memoryTx) error { return tx.UpdateUser(ctx, user) })
}

func (s *MemoryStore) FindProductByTitle(ctx context.Context, title string) (product *models.Product, err error) {
	err = s.run(func(tx *memoryTx) error {
		product, err = tx.FindProductByTitle(ctx, title)
		return err
	})
	return product, err
}

func (s *MemoryStore) ListProductsByOwner(ctx context.Context, email string) (products []models.Product, err error) {
	err = s.run(func(tx *memoryTx) error {
		products, err = tx.ListProductsByOwner(ctx, email)
		return err
	})
	return products, err
}

func (s *MemoryStore) ListProductsNotOwnedBy(ctx context.Context, email string) (products []models.Product, err error) {
	err = s.run(func(tx *memoryTx) error {
		products, err = tx.ListProductsNotOwnedBy(ctx, email)
		return err
	})
	return products, err
}

func (s *MemoryStore) InsertProduct(ctx context.Context, product *models.Product) error {
	return s.run(func(tx *memoryTx) error { return tx.InsertProduct(ctx, product) })
}

func (s *MemoryStore) UpdateProduct(ctx context.Context, product *models.Product) error {
	return s.run(func(tx *memoryTx) error { return tx.UpdateProduct(ctx, product) })
}

func (s *MemoryStore) DeleteProduct(ctx context.Context, product *models.Product) error {
	return s.run(func(tx *memoryTx) error { return tx.DeleteProduct(ctx, product) })
}

func (s *MemoryStore) InsertTransaction(ctx context.Context, txn *models.Transaction) error {
	return s.run(func(tx *memoryTx) error { return tx.InsertTransaction(ctx, txn) })
}

func (s *MemoryStore) ListTransactionsByOwner(ctx context.Context, email string) (txns []models.Transaction, err error) {
	err = s.run(func(tx *memoryTx) error {
		txns, err = tx.ListTransactionsByOwner(ctx, email)
		return err
	})
	return txns, err
}

// memoryTx operates on a memoryState without locking; the caller holds the lock.
type memoryTx struct {
	state *memoryState
}

func (t *memoryTx) WithTx(_ context.Context, fn func(tx Store) error) error {
	return fn(t)
}

func (t *memoryTx) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := t.state.users[email]
	if !ok {
		return nil, fmt.Errorf("user with email %s: %w", email, ErrNotFound)
	}
	return &user, nil
}

func (t *memoryTx) InsertUser(_ context.Context, user *models.User) error {
	if _, ok := t.state.users[user.Email]; ok {
		return fmt.Errorf("user with email %s: %w", user.Email, ErrDuplicate)
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	t.state.users[user.Email] = *user
	return nil
}

func (t *memoryTx) UpdateUser(_ context.Context, user *models.User) error {
	if _, ok := t.state.users[user.Email]; !ok {
		return fmt.Errorf("user with email %s not found for update: %w", user.Email, ErrNotFound)
	}
	user.UpdatedAt = time.Now()
	t.state.users[user.Email] = *user
	return nil
}

func (t *memoryTx) FindProductByTitle(_ context.Context, title string) (*models.Product, error) {
	product, ok := t.state.products[title]
	if !ok {
		return nil, fmt.Errorf("product with title %s: %w", title, ErrNotFound)
	}
	return &product, nil
}

func (t *memoryTx) ListProductsByOwner(_ context.Context, email string) ([]models.Product, error) {
	return t.filterProducts(func(p models.Product) bool { return p.OwnerEmail == email }), nil
}

func (t *memoryTx) ListProductsNotOwnedBy(_ context.Context, email string) ([]models.Product, error) {
	return t.filterProducts(func(p models.Product) bool { return p.OwnerEmail != email }), nil
}

func (t *memoryTx) filterProducts(keep func(models.Product) bool) []models.Product {
	products := make([]models.Product, 0)
	for _, p := range t.state.products {
		if keep(p) {
			products = append(products, p)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].Title < products[j].Title })
	return products
}

func (t *memoryTx) InsertProduct(_ context.Context, product *models.Product) error {
	if _, ok := t.state.products[product.Title]; ok {
		return fmt.Errorf("product with title %s: %w", product.Title, ErrDuplicate)
	}
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now
	t.state.products[product.Title] = *product
	return nil
}

// UpdateProduct finds the stored row by ID, so the title may change.
func (t *memoryTx) UpdateProduct(_ context.Context, product *models.Product) error {
	var (
		current string
		found   bool
	)
	for title, p := range t.state.products {
		if p.ID == product.ID {
			current, found = title, true
			break
		}
	}
	if !found {
		return fmt.Errorf("product with ID %s not found for update: %w", product.ID, ErrNotFound)
	}
	if product.Title != current {
		if _, taken := t.state.products[product.Title]; taken {
			return fmt.Errorf("product with title %s: %w", product.Title, ErrDuplicate)
		}
		delete(t.state.products, current)
	}
	product.UpdatedAt = time.Now()
	t.state.products[product.Title] = *product
	return nil
}

func (t *memoryTx) DeleteProduct(_ context.Context, product *models.Product) error {
	stored, ok := t.state.products[product.Title]
	if !ok || stored.ID != product.ID {
		return fmt.Errorf("product with ID %s not found for deletion: %w", product.ID, ErrNotFound)
	}
	delete(t.state.products, product.Title)
	return nil
}

func (t *memoryTx) InsertTransaction(_ context.Context, txn *models.Transaction) error {
	if txn.ID == "" {
		txn.ID = uuid.New().String()
	}
	txn.CreatedAt = time.Now()
	t.state.transactions = append(t.state.transactions, *txn)
	return nil
}

func (t *memoryTx) ListTransactionsByOwner(_ context.Context, email string) ([]models.Transaction, error) {
	txns := make([]models.Transaction, 0)
	for _, txn := range t.state.transactions {
		if txn.BuyerEmail == email {
			txns = append(txns, txn)
		}
	}
	return txns, nil
}
