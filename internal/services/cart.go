package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vedacart/vedacart/internal/apperr"
	"github.com/vedacart/vedacart/internal/db"
	"github.com/vedacart/vedacart/internal/models"
)

type CartService struct {
	pool          *pgxpool.Pool
	cartStore     *db.CartStore
	wishlistStore *db.WishlistStore
	productStore  *db.ProductStore
	logger        *slog.Logger
}

func NewCartService(pool *pgxpool.Pool, cartStore *db.CartStore, wishlistStore *db.WishlistStore, productStore *db.ProductStore, logger *slog.Logger) *CartService {
	return &CartService{
		pool:          pool,
		cartStore:     cartStore,
		wishlistStore: wishlistStore,
		productStore:  productStore,
		logger:        logger,
	}
}

type CartItemInput struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Quantity  int        `json:"quantity" validate:"required,gt=0,lte=100"`
}

// AddToCart upserts a cart line, replacing the quantity for an existing
// (product, variant) pair.
func (s *CartService) AddToCart(ctx context.Context, userID uuid.UUID, input CartItemInput) (*models.CartItem, error) {
	product, err := s.productStore.GetByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "product not found")
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if !product.Active {
		return nil, apperr.New(apperr.KindBusiness, "product is no longer available")
	}

	if input.VariantID != nil {
		variant, err := s.productStore.GetVariant(ctx, *input.VariantID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperr.New(apperr.KindNotFound, "variant not found")
			}
			return nil, fmt.Errorf("failed to load variant: %w", err)
		}
		if variant.ProductID != product.ID || !variant.Active {
			return nil, apperr.New(apperr.KindValidation, "variant does not belong to product")
		}
	}

	item := &models.CartItem{
		UserID:    userID,
		ProductID: input.ProductID,
		VariantID: input.VariantID,
		Quantity:  input.Quantity,
	}
	if err := s.cartStore.Upsert(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to update cart: %w", err)
	}
	return item, nil
}

func (s *CartService) RemoveFromCart(ctx context.Context, userID, itemID uuid.UUID) error {
	if err := s.cartStore.Remove(ctx, userID, itemID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.New(apperr.KindNotFound, "cart item not found")
		}
		return fmt.Errorf("failed to remove cart item: %w", err)
	}
	return nil
}

func (s *CartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	if err := s.cartStore.Clear(ctx, s.pool, userID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (s *CartService) ListCart(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	items, err := s.cartStore.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart: %w", err)
	}
	return items, nil
}

func (s *CartService) AddToWishlist(ctx context.Context, userID, productID uuid.UUID) (*models.WishlistItem, error) {
	if _, err := s.productStore.GetByID(ctx, productID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "product not found")
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}

	item := &models.WishlistItem{UserID: userID, ProductID: productID}
	if err := s.wishlistStore.Add(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to add to wishlist: %w", err)
	}
	return item, nil
}

func (s *CartService) RemoveFromWishlist(ctx context.Context, userID, productID uuid.UUID) error {
	if err := s.wishlistStore.Remove(ctx, userID, productID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.New(apperr.KindNotFound, "wishlist item not found")
		}
		return fmt.Errorf("failed to remove from wishlist: %w", err)
	}
	return nil
}

func (s *CartService) ListWishlist(ctx context.Context, userID uuid.UUID) ([]models.WishlistItem, error) {
	items, err := s.wishlistStore.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list wishlist: %w", err)
	}
	return items, nil
}
