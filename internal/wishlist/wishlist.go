// Package wishlist manages the signed-in shopper's saved products, keyed by
// (store, product id).
package wishlist

import (
	"fmt"
	"log/slog"

	"github.com/trendella/trendella/internal/models"
	"github.com/trendella/trendella/internal/store"
)

// Service implements wishlist operations on top of a store backend.
type Service struct {
	store store.Store
}

// NewService creates a wishlist service.
func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// Add saves a product to the user's wishlist. Adding an already-saved product
// refreshes its stored payload.
func (s *Service) Add(userID string, product models.Product) error {
	if userID == "" {
		return models.ErrNotAuthenticated
	}
	if product.ID == "" {
		return models.ErrEmptyProductID
	}
	if product.Store == "" {
		return models.ErrEmptyStore
	}
	if err := s.store.AddWishlistItem(userID, product); err != nil {
		slog.Error("Wishlist.Add failed", "error", err, "userID", userID, "key", product.Key())
		return fmt.Errorf("failed to add wishlist item: %w", err)
	}
	slog.Debug("Wishlist.Add succeeded", "userID", userID, "key", product.Key())
	return nil
}

// Remove deletes a product from the user's wishlist. Removing an absent
// product is not an error.
func (s *Service) Remove(userID, productStore, productID string) error {
	if userID == "" {
		return models.ErrNotAuthenticated
	}
	if productID == "" {
		return models.ErrEmptyProductID
	}
	if productStore == "" {
		return models.ErrEmptyStore
	}
	if err := s.store.RemoveWishlistItem(userID, productStore, productID); err != nil {
		slog.Error("Wishlist.Remove failed", "error", err, "userID", userID, "store", productStore, "productID", productID)
		return fmt.Errorf("failed to remove wishlist item: %w", err)
	}
	slog.Debug("Wishlist.Remove succeeded", "userID", userID, "store", productStore, "productID", productID)
	return nil
}

// List returns the user's saved products. Guests get an empty list, never an
// error.
func (s *Service) List(userID string) ([]models.Product, error) {
	if userID == "" {
		return []models.Product{}, nil
	}
	products, err := s.store.ListWishlist(userID)
	if err != nil {
		slog.Error("Wishlist.List failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to list wishlist: %w", err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}
