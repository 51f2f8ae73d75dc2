package services

import (
	"context"
	"fmt"
	"log"

	"qbay/internal/models"
	"qbay/internal/repositories"
)

// EventPublisher delivers purchase notifications to a message broker.
type EventPublisher interface {
	PublishPurchaseCompleted(ctx context.Context, event map[string]interface{}) error
}

// OrderService handles purchases.
type OrderService struct {
	store     repositories.Store
	publisher EventPublisher // optional
}

// NewOrderService creates a new OrderService. publisher may be nil.
func NewOrderService(store repositories.Store, publisher EventPublisher) *OrderService {
	return &OrderService{
		store:     store,
		publisher: publisher,
	}
}

// PlaceOrder sells the product titled productTitle to buyerEmail. The debit,
// the product removal and the transaction record are committed together.
func (s *OrderService) PlaceOrder(ctx context.Context, buyerEmail, productTitle string) (*models.Transaction, error) {
	var txn *models.Transaction
	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		buyer, err := tx.FindUserByEmail(ctx, buyerEmail)
		if err != nil {
			return notFound(err, "buyer "+buyerEmail)
		}
		product, err := tx.FindProductByTitle(ctx, productTitle)
		if err != nil {
			return notFound(err, "product "+productTitle)
		}

		if product.OwnerEmail == buyer.Email {
			return fmt.Errorf("%w: %s owns '%s'", ErrSelfPurchase, buyer.Email, product.Title)
		}
		if product.Price > buyer.Balance {
			return fmt.Errorf("%w: price %d exceeds balance %d", ErrInsufficientFunds, product.Price, buyer.Balance)
		}

		debited := *buyer
		debited.Balance -= product.Price
		if err := tx.UpdateUser(ctx, &debited); err != nil {
			return fmt.Errorf("failed to debit buyer: %w", err)
		}
		if err := tx.DeleteProduct(ctx, product); err != nil {
			return fmt.Errorf("failed to remove sold product: %w", err)
		}

		t := &models.Transaction{
			Price:            product.Price,
			Title:            product.Title,
			Description:      product.Description,
			LastModifiedDate: product.LastModifiedDate,
			BuyerEmail:       buyer.Email,
			SellerEmail:      product.OwnerEmail,
		}
		if err := tx.InsertTransaction(ctx, t); err != nil {
			return fmt.Errorf("failed to record transaction: %w", err)
		}
		txn = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishPurchase(ctx, txn)
	return txn, nil
}

// GetTransactions returns the purchases made by email.
func (s *OrderService) GetTransactions(ctx context.Context, email string) ([]models.Transaction, error) {
	return s.store.ListTransactionsByOwner(ctx, email)
}

// publishPurchase is best effort: the sale is already committed.
func (s *OrderService) publishPurchase(ctx context.Context, txn *models.Transaction) {
	if s.publisher == nil {
		return
	}
	event := map[string]interface{}{
		"transaction_id": txn.ID,
		"title":          txn.Title,
		"price":          txn.Price,
		"buyer_email":    txn.BuyerEmail,
		"seller_email":   txn.SellerEmail,
	}
	if err := s.publisher.PublishPurchaseCompleted(ctx, event); err != nil {
		log.Printf("Warning: failed to publish purchase event for transaction %s: %v", txn.ID, err)
		return
	}
	log.Printf("Published purchase event for transaction %s", txn.ID)
}
