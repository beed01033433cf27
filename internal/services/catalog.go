package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/vedacart/vedacart/internal/apperr"
	"github.com/vedacart/vedacart/internal/cache"
	"github.com/vedacart/vedacart/internal/db"
	"github.com/vedacart/vedacart/internal/logging"
	"github.com/vedacart/vedacart/internal/media"
	"github.com/vedacart/vedacart/internal/models"
)

// productListTTL keeps public catalog reads cheap without letting admin
// edits go stale for long; writes invalidate eagerly as well.
const productListTTL = 5 * time.Minute

type CatalogService struct {
	categoryStore *db.CategoryStore
	productStore  *db.ProductStore
	bannerStore   *db.BannerStore
	cache         cache.Provider
	storage       *media.Storage
	logger        *slog.Logger
}

func NewCatalogService(
	categoryStore *db.CategoryStore,
	productStore *db.ProductStore,
	bannerStore *db.BannerStore,
	cacheProvider cache.Provider,
	storage *media.Storage,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		categoryStore: categoryStore,
		productStore:  productStore,
		bannerStore:   bannerStore,
		cache:         cacheProvider,
		storage:       storage,
		logger:        logger,
	}
}

func (s *CatalogService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

type CategoryInput struct {
	Name     string     `json:"name" validate:"required,min=2,max=100"`
	Slug     string     `json:"slug" validate:"required,min=2,max=100"`
	ParentID *uuid.UUID `json:"parent_id,omitempty"`
	Active   bool       `json:"active"`
}

func (s *CatalogService) CreateCategory(ctx context.Context, input CategoryInput) (*models.Category, error) {
	category := &models.Category{
		Name:     input.Name,
		Slug:     input.Slug,
		ParentID: input.ParentID,
		Active:   input.Active,
	}
	if err := s.categoryStore.Create(ctx, category); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, apperr.New(apperr.KindConflict, "a category with this slug already exists")
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return category, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, category *models.Category) error {
	if err := s.categoryStore.Update(ctx, category); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.New(apperr.KindNotFound, "category not found")
		}
		if errors.Is(err, db.ErrDuplicate) {
			return apperr.New(apperr.KindConflict, "a category with this slug already exists")
		}
		return fmt.Errorf("failed to update category: %w", err)
	}
	s.invalidateProductLists(ctx)
	return nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.categoryStore.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.New(apperr.KindNotFound, "category not found")
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}
	s.invalidateProductLists(ctx)
	return nil
}

func (s *CatalogService) ListCategories(ctx context.Context, activeOnly bool) ([]models.Category, error) {
	categories, err := s.categoryStore.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

type ProductInput struct {
	CategoryID  uuid.UUID `json:"category_id" validate:"required"`
	SKU         string    `json:"sku" validate:"required,min=2,max=64"`
	Name        string    `json:"name" validate:"required,min=2,max=200"`
	Description string    `json:"description" validate:"max=5000"`
	PricePaise  int64     `json:"price_paise" validate:"required,gt=0"`
	WeightGrams int       `json:"weight_grams" validate:"required,gt=0"`
	ImageKeys   []string  `json:"image_keys,omitempty"`
	Active      bool      `json:"active"`
}

func (s *CatalogService) CreateProduct(ctx context.Context, input ProductInput) (*models.Product, error) {
	if _, err := s.categoryStore.GetByID(ctx, input.CategoryID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindValidation, "category does not exist")
		}
		return nil, fmt.Errorf("failed to load category: %w", err)
	}

	product := &models.Product{
		CategoryID:  input.CategoryID,
		SKU:         input.SKU,
		Name:        input.Name,
		Description: input.Description,
		PricePaise:  input.PricePaise,
		WeightGrams: input.WeightGrams,
		ImageKeys:   input.ImageKeys,
		Active:      input.Active,
	}
	if err := s.productStore.Create(ctx, product); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, apperr.New(apperr.KindConflict, "a product with this SKU already exists")
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.invalidateProductLists(ctx, product.CategoryID)
	return product, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, product *models.Product) error {
	if err := s.productStore.Update(ctx, product); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.New(apperr.KindNotFound, "product not found")
		}
		if errors.Is(err, db.ErrDuplicate) {
			return apperr.New(apperr.KindConflict, "a product with this SKU already exists")
		}
		return fmt.Errorf("failed to update product: %w", err)
	}
	s.invalidateProductLists(ctx, product.CategoryID)
	return nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}

	if err := s.productStore.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.New(apperr.KindNotFound, "product not found")
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if s.storage != nil {
		for _, key := range product.ImageKeys {
			if err := s.storage.Delete(ctx, key); err != nil {
				s.loggerFromContext(ctx).Warn("failed to delete product image", "error", err, "key", key)
			}
		}
	}

	s.invalidateProductLists(ctx, product.CategoryID)
	return nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.productStore.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.KindNotFound, "product not found")
		}
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	return product, nil
}

// ListProducts serves public reads through the cache; admin reads
// (activeOnly=false) always hit the store.
func (s *CatalogService) ListProducts(ctx context.Context, categoryID *uuid.UUID, activeOnly bool) ([]models.Product, error) {
	if !activeOnly {
		return s.productStore.List(ctx, categoryID, false)
	}

	key := cache.ProductListKey(categoryKey(categoryID))
	if cached, err := s.cache.Get(ctx, key); err == nil {
		var products []models.Product
		if err := json.Unmarshal([]byte(cached), &products); err == nil {
			return products, nil
		}
	}

	products, err := s.productStore.List(ctx, categoryID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	if encoded, err := json.Marshal(products); err == nil {
		if err := s.cache.Set(ctx, key, string(encoded), productListTTL); err != nil {
			s.loggerFromContext(ctx).Warn("failed to cache product list", "error", err)
		}
	}
	return products, nil
}

type VariantInput struct {
	SKU        string `json:"sku" validate:"required,min=2,max=64"`
	Name       string `json:"name" validate:"required,min=1,max=100"`
	PricePaise int64  `json:"price_paise" validate:"gte=0"`
	Active     bool   `json:"active"`
}

func (s *CatalogService) CreateVariant(ctx context.Context, productID uuid.UUID, input VariantInput) (*models.Variant, error) {
	if _, err := s.GetProduct(ctx, productID); err != nil {
		return nil, err
	}

	variant := &models.Variant{
		ProductID:  productID,
		SKU:        input.SKU,
		Name:       input.Name,
		PricePaise: input.PricePaise,
		Active:     input.Active,
	}
	if err := s.productStore.CreateVariant(ctx, variant); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, apperr.New(apperr.KindConflict, "a variant with this SKU already exists")
		}
		return nil, fmt.Errorf("failed to create variant: %w", err)
	}

	s.invalidateProductLists(ctx)
	return variant, nil
}

func (s *CatalogService) UpdateVariant(ctx context.Context, variant *models.Variant) error {
	if err := s.productStore.UpdateVariant(ctx, variant); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.New(apperr.KindNotFound, "variant not found")
		}
		return fmt.Errorf("failed to update variant: %w", err)
	}
	s.invalidateProductLists(ctx)
	return nil
}

type BannerInput struct {
	Title    string `json:"title" validate:"required,min=2,max=200"`
	ImageKey string `json:"image_key" validate:"required"`
	LinkURL  string `json:"link_url" validate:"omitempty,url"`
	Position int    `json:"position" validate:"gte=0"`
	Active   bool   `json:"active"`
}

func (s *CatalogService) CreateBanner(ctx context.Context, input BannerInput) (*models.Banner, error) {
	banner := &models.Banner{
		Title:    input.Title,
		ImageKey: input.ImageKey,
		LinkURL:  input.LinkURL,
		Position: input.Position,
		Active:   input.Active,
	}
	if err := s.bannerStore.Create(ctx, banner); err != nil {
		return nil, fmt.Errorf("failed to create banner: %w", err)
	}
	return banner, nil
}

func (s *CatalogService) UpdateBanner(ctx context.Context, banner *models.Banner) error {
	if err := s.bannerStore.Update(ctx, banner); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.New(apperr.KindNotFound, "banner not found")
		}
		return fmt.Errorf("failed to update banner: %w", err)
	}
	return nil
}

func (s *CatalogService) DeleteBanner(ctx context.Context, id uuid.UUID) error {
	banner, err := s.bannerStore.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.New(apperr.KindNotFound, "banner not found")
		}
		return fmt.Errorf("failed to load banner: %w", err)
	}

	if err := s.bannerStore.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.New(apperr.KindNotFound, "banner not found")
		}
		return fmt.Errorf("failed to delete banner: %w", err)
	}

	if s.storage != nil && banner.ImageKey != "" {
		if err := s.storage.Delete(ctx, banner.ImageKey); err != nil {
			s.loggerFromContext(ctx).Warn("failed to delete banner image", "error", err, "key", banner.ImageKey)
		}
	}
	return nil
}

func (s *CatalogService) ListBanners(ctx context.Context, activeOnly bool) ([]models.Banner, error) {
	banners, err := s.bannerStore.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list banners: %w", err)
	}
	return banners, nil
}

// NewMediaUpload issues a signed PUT URL for a product or banner image.
func (s *CatalogService) NewMediaUpload(ctx context.Context, prefix, contentType string) (*media.Upload, error) {
	if s.storage == nil {
		return nil, apperr.New(apperr.KindValidation, "media uploads are not configured")
	}
	if prefix != "products" && prefix != "banners" {
		return nil, apperr.New(apperr.KindValidation, "upload prefix must be products or banners")
	}

	upload, err := s.storage.NewUpload(ctx, prefix, contentType)
	if err != nil {
		if errors.Is(err, media.ErrContentTypeNotAllowed) {
			return nil, apperr.New(apperr.KindValidation, "content type not allowed for media uploads")
		}
		return nil, fmt.Errorf("failed to create media upload: %w", err)
	}
	return upload, nil
}

func categoryKey(categoryID *uuid.UUID) string {
	if categoryID == nil {
		return "all"
	}
	return categoryID.String()
}

// invalidateProductLists drops the cached listings an admin write may
// have staled: the uncategorized listing plus any named categories.
func (s *CatalogService) invalidateProductLists(ctx context.Context, categoryIDs ...uuid.UUID) {
	keys := []string{cache.ProductListKey("all")}
	for _, id := range categoryIDs {
		keys = append(keys, cache.ProductListKey(id.String()))
	}
	for _, key := range keys {
		if err := s.cache.Delete(ctx, key); err != nil && !errors.Is(err, cache.ErrNotFound) {
			s.loggerFromContext(ctx).Warn("failed to invalidate product list cache", "error", err, "key", key)
		}
	}
}
