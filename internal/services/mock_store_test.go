package services_test

import (
	"context"

	"qbay/internal/models"
	"qbay/internal/repositories"

	"github.com/stretchr/testify/mock"
)

// MockStore is a mock implementation of repositories.Store. WithTx runs the
// callback against the mock itself.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStore) InsertUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockStore) UpdateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockStore) FindProductByTitle(ctx context.Context, title string) (*models.Product, error) {
	args := m.Called(ctx, title)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockStore) ListProductsByOwner(ctx context.Context, email string) ([]models.Product, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockStore) ListProductsNotOwnedBy(ctx context.Context, email string) ([]models.Product, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockStore) InsertProduct(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockStore) UpdateProduct(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockStore) DeleteProduct(ctx context.Context, product *models.Product) error {
	args := m.Called(ctx, product)
	return args.Error(0)
}

func (m *MockStore) InsertTransaction(ctx context.Context, txn *models.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockStore) ListTransactionsByOwner(ctx context.Context, email string) ([]models.Transaction, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *MockStore) WithTx(ctx context.Context, fn func(tx repositories.Store) error) error {
	return fn(m)
}

// MockPublisher is a mock implementation of services.EventPublisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishPurchaseCompleted(ctx context.Context, event map[string]interface{}) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

var (
	testSeller = models.User{Email: "seller@test.com", Username: "seller", Balance: models.InitialBalance}
	testPhone  = models.Product{
		ID:               "prod-1",
		Title:            "Phone",
		Description:      "A decently long description text",
		Price:            100,
		LastModifiedDate: "2021-02-17",
		OwnerEmail:       "seller@test.com",
	}
)
