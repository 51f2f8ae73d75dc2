package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"qbay/internal/models"
	"qbay/internal/repositories"
	"qbay/internal/validation"
)

// ProductService handles creating, updating and browsing listings.
type ProductService struct {
	store repositories.Store
	now   func() time.Time
}

// NewProductService creates a new ProductService.
func NewProductService(store repositories.Store) *ProductService {
	return &ProductService{
		store: store,
		now:   time.Now,
	}
}

// SetClock replaces the clock used to stamp updated products.
func (s *ProductService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateProduct validates and lists a new product for ownerEmail.
func (s *ProductService) CreateProduct(ctx context.Context, price int, title, description, date, ownerEmail string) (*models.Product, error) {
	if err := validateListing(title, description, price, nil); err != nil {
		return nil, err
	}
	if !validation.ValidateDate(date) {
		return nil, invalid("last_modified_date", "must be YYYY-MM-DD between 2021-01-02 and 2025-01-01")
	}
	if strings.TrimSpace(ownerEmail) == "" {
		return nil, invalid("owner_email", "must not be empty")
	}

	var product *models.Product
	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		if _, err := tx.FindUserByEmail(ctx, ownerEmail); err != nil {
			return notFound(err, "owner "+ownerEmail)
		}
		if err := ensureTitleAvailable(ctx, tx, title); err != nil {
			return err
		}

		p := &models.Product{
			Title:            title,
			Description:      description,
			Price:            price,
			LastModifiedDate: date,
			OwnerEmail:       ownerEmail,
		}
		if err := tx.InsertProduct(ctx, p); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return fmt.Errorf("%w: product '%s'", ErrConflict, title)
			}
			return fmt.Errorf("failed to create product: %w", err)
		}
		product = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Listed product %q for %s", title, ownerEmail)
	return product, nil
}

// UpdateProduct replaces price, title and description of the product
// currently titled existingTitle. The price may not decrease. Nothing is
// written unless every field is valid.
func (s *ProductService) UpdateProduct(ctx context.Context, newPrice int, newTitle, newDescription, existingTitle string) (*models.Product, error) {
	return s.updateProduct(ctx, "", newPrice, newTitle, newDescription, existingTitle)
}

// UpdateOwnProduct is UpdateProduct restricted to products listed by
// ownerEmail. Another seller's product is reported as not found.
func (s *ProductService) UpdateOwnProduct(ctx context.Context, ownerEmail string, newPrice int, newTitle, newDescription, existingTitle string) (*models.Product, error) {
	if strings.TrimSpace(ownerEmail) == "" {
		return nil, invalid("owner_email", "must not be empty")
	}
	return s.updateProduct(ctx, ownerEmail, newPrice, newTitle, newDescription, existingTitle)
}

// updateProduct skips the ownership check when ownerEmail is empty.
func (s *ProductService) updateProduct(ctx context.Context, ownerEmail string, newPrice int, newTitle, newDescription, existingTitle string) (*models.Product, error) {
	var updated *models.Product
	err := s.store.WithTx(ctx, func(tx repositories.Store) error {
		current, err := tx.FindProductByTitle(ctx, existingTitle)
		if err != nil {
			return notFound(err, "product "+existingTitle)
		}
		if ownerEmail != "" && current.OwnerEmail != ownerEmail {
			return fmt.Errorf("%w: product %s listed by %s", ErrNotFound, existingTitle, ownerEmail)
		}
		if err := validateListing(newTitle, newDescription, newPrice, &current.Price); err != nil {
			return err
		}
		if newTitle != existingTitle {
			if err := ensureTitleAvailable(ctx, tx, newTitle); err != nil {
				return err
			}
		}

		draft := *current
		draft.Title = newTitle
		draft.Description = newDescription
		draft.Price = newPrice
		draft.LastModifiedDate = s.now().Format(models.DateLayout)

		if err := tx.UpdateProduct(ctx, &draft); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return fmt.Errorf("%w: product '%s'", ErrConflict, newTitle)
			}
			return fmt.Errorf("failed to update product: %w", err)
		}
		updated = &draft
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GetProducts returns the products listed by ownerEmail.
func (s *ProductService) GetProducts(ctx context.Context, ownerEmail string) ([]models.Product, error) {
	return s.store.ListProductsByOwner(ctx, ownerEmail)
}

// GetListings returns the products ownerEmail can buy, i.e. everyone else's.
func (s *ProductService) GetListings(ctx context.Context, ownerEmail string) ([]models.Product, error) {
	return s.store.ListProductsNotOwnedBy(ctx, ownerEmail)
}

// validateListing checks title, description and price in that order.
func validateListing(title, description string, price int, previousPrice *int) error {
	if !validation.ValidateTitle(title) {
		return invalid("title", "must be 1-80 letters, digits or interior spaces")
	}
	if !validation.ValidateDescription(description, title) {
		return invalid("description", "must be 20-2000 characters and longer than the title")
	}
	if !validation.ValidatePrice(price, nil) {
		return invalid("price", fmt.Sprintf("must be between %d and %d", validation.MinPrice, validation.MaxPrice))
	}
	if !validation.ValidatePrice(price, previousPrice) {
		return invalid("price", "must not be lower than the current price")
	}
	return nil
}

func ensureTitleAvailable(ctx context.Context, store repositories.Store, title string) error {
	_, err := store.FindProductByTitle(ctx, title)
	switch {
	case err == nil:
		return fmt.Errorf("%w: product '%s'", ErrConflict, title)
	case errors.Is(err, repositories.ErrNotFound):
		return nil
	default:
		return err
	}
}
