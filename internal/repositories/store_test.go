package repositories_test

import (
	"context"
	"errors"
	"testing"

	"qbay/internal/models"
	"qbay/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStoreContract runs the behaviour every Store implementation shares.
func testStoreContract(t *testing.T, newStore func(t *testing.T) repositories.Store) {
	ctx := context.Background()

	t.Run("users", func(t *testing.T) {
		store := newStore(t)
		user := &models.User{Email: "a@test.com", Username: "Al", PasswordHash: "hash", Balance: models.InitialBalance}
		require.NoError(t, store.InsertUser(ctx, user))

		found, err := store.FindUserByEmail(ctx, "a@test.com")
		require.NoError(t, err)
		assert.Equal(t, "Al", found.Username)
		assert.Equal(t, 100, found.Balance)
		assert.Nil(t, found.ShippingAddress)

		err = store.InsertUser(ctx, &models.User{Email: "a@test.com", Username: "Other"})
		assert.True(t, errors.Is(err, repositories.ErrDuplicate))

		addr := "1 Main St"
		found.Username = "Alice"
		found.ShippingAddress = &addr
		found.Balance = 40
		require.NoError(t, store.UpdateUser(ctx, found))

		reloaded, err := store.FindUserByEmail(ctx, "a@test.com")
		require.NoError(t, err)
		assert.Equal(t, "Alice", reloaded.Username)
		assert.Equal(t, 40, reloaded.Balance)
		require.NotNil(t, reloaded.ShippingAddress)
		assert.Equal(t, addr, *reloaded.ShippingAddress)

		_, err = store.FindUserByEmail(ctx, "missing@test.com")
		assert.True(t, errors.Is(err, repositories.ErrNotFound))
		err = store.UpdateUser(ctx, &models.User{Email: "missing@test.com"})
		assert.True(t, errors.Is(err, repositories.ErrNotFound))
	})

	t.Run("products", func(t *testing.T) {
		store := newStore(t)
		phone := &models.Product{Title: "Phone", Description: "A decently long description text", Price: 1000, LastModifiedDate: "2021-02-17", OwnerEmail: "a@test.com"}
		lamp := &models.Product{Title: "Lamp", Description: "A bright lamp for the desk", Price: 20, LastModifiedDate: "2022-03-01", OwnerEmail: "b@test.com"}
		require.NoError(t, store.InsertProduct(ctx, phone))
		require.NoError(t, store.InsertProduct(ctx, lamp))
		assert.NotEmpty(t, phone.ID)

		err := store.InsertProduct(ctx, &models.Product{Title: "Phone", OwnerEmail: "b@test.com"})
		assert.True(t, errors.Is(err, repositories.ErrDuplicate))

		own, err := store.ListProductsByOwner(ctx, "a@test.com")
		require.NoError(t, err)
		require.Len(t, own, 1)
		assert.Equal(t, "Phone", own[0].Title)

		listings, err := store.ListProductsNotOwnedBy(ctx, "a@test.com")
		require.NoError(t, err)
		require.Len(t, listings, 1)
		assert.Equal(t, "Lamp", listings[0].Title)

		none, err := store.ListProductsByOwner(ctx, "nobody@test.com")
		require.NoError(t, err)
		assert.Empty(t, none)

		phone.Title = "Smart Phone"
		phone.Price = 1200
		require.NoError(t, store.UpdateProduct(ctx, phone))
		_, err = store.FindProductByTitle(ctx, "Phone")
		assert.True(t, errors.Is(err, repositories.ErrNotFound))
		renamed, err := store.FindProductByTitle(ctx, "Smart Phone")
		require.NoError(t, err)
		assert.Equal(t, 1200, renamed.Price)
		assert.Equal(t, phone.ID, renamed.ID)

		renamed.Title = "Lamp"
		err = store.UpdateProduct(ctx, renamed)
		assert.True(t, errors.Is(err, repositories.ErrDuplicate))

		err = store.UpdateProduct(ctx, &models.Product{ID: "missing", Title: "Ghost"})
		assert.True(t, errors.Is(err, repositories.ErrNotFound))

		require.NoError(t, store.DeleteProduct(ctx, lamp))
		_, err = store.FindProductByTitle(ctx, "Lamp")
		assert.True(t, errors.Is(err, repositories.ErrNotFound))
		err = store.DeleteProduct(ctx, lamp)
		assert.True(t, errors.Is(err, repositories.ErrNotFound))
	})

	t.Run("transactions", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.InsertTransaction(ctx, &models.Transaction{Title: "Phone", Price: 50, BuyerEmail: "b@test.com", SellerEmail: "a@test.com"}))
		require.NoError(t, store.InsertTransaction(ctx, &models.Transaction{Title: "Lamp", Price: 20, BuyerEmail: "a@test.com", SellerEmail: "b@test.com"}))

		bought, err := store.ListTransactionsByOwner(ctx, "b@test.com")
		require.NoError(t, err)
		require.Len(t, bought, 1)
		assert.Equal(t, "Phone", bought[0].Title)
		assert.NotEmpty(t, bought[0].ID)
		assert.Equal(t, "a@test.com", bought[0].SellerEmail)
	})

	t.Run("WithTx commits on success", func(t *testing.T) {
		store := newStore(t)
		err := store.WithTx(ctx, func(tx repositories.Store) error {
			if err := tx.InsertUser(ctx, &models.User{Email: "a@test.com", Username: "Al"}); err != nil {
				return err
			}
			// Writes are visible inside the transaction.
			_, err := tx.FindUserByEmail(ctx, "a@test.com")
			return err
		})
		require.NoError(t, err)

		_, err = store.FindUserByEmail(ctx, "a@test.com")
		assert.NoError(t, err)
	})

	t.Run("WithTx rolls back on error", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.InsertUser(ctx, &models.User{Email: "a@test.com", Username: "Al", Balance: 100}))
		product := &models.Product{Title: "Phone", Price: 60, OwnerEmail: "b@test.com"}
		require.NoError(t, store.InsertProduct(ctx, product))

		boom := errors.New("boom")
		err := store.WithTx(ctx, func(tx repositories.Store) error {
			user, err := tx.FindUserByEmail(ctx, "a@test.com")
			if err != nil {
				return err
			}
			user.Balance -= product.Price
			if err := tx.UpdateUser(ctx, user); err != nil {
				return err
			}
			if err := tx.DeleteProduct(ctx, product); err != nil {
				return err
			}
			if err := tx.InsertTransaction(ctx, &models.Transaction{Title: "Phone", BuyerEmail: "a@test.com"}); err != nil {
				return err
			}
			return boom
		})
		assert.Equal(t, boom, err)

		user, err := store.FindUserByEmail(ctx, "a@test.com")
		require.NoError(t, err)
		assert.Equal(t, 100, user.Balance)
		_, err = store.FindProductByTitle(ctx, "Phone")
		assert.NoError(t, err)
		txns, err := store.ListTransactionsByOwner(ctx, "a@test.com")
		require.NoError(t, err)
		assert.Empty(t, txns)
	})
}
