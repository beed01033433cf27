package handlers

import (
	"net/http"
	"strings"

	"github.com/vedacart/vedacart/internal/apperr"
	"github.com/vedacart/vedacart/internal/models"
	"github.com/vedacart/vedacart/internal/services"
)

// Public storefront reads.

func (h *Handlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalogService.ListCategories(r.Context(), true)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, categories)
}

func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	categoryID, err := optionalCategoryFilter(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	products, err := h.catalogService.ListProducts(r.Context(), categoryID, true)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, products)
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	product, err := h.catalogService.GetProduct(r.Context(), productID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	if !product.Active {
		h.respondError(w, r, apperr.New(apperr.KindNotFound, "product not found"))
		return
	}
	h.respondData(w, r, http.StatusOK, product)
}

func (h *Handlers) ListBanners(w http.ResponseWriter, r *http.Request) {
	banners, err := h.catalogService.ListBanners(r.Context(), true)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, banners)
}

// Admin catalog management.

func (h *Handlers) AdminListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalogService.ListCategories(r.Context(), false)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, categories)
}

func (h *Handlers) AdminCreateCategory(w http.ResponseWriter, r *http.Request) {
	var input services.CategoryInput
	if err := decodeJSON(r, &input); err != nil {
		h.respondError(w, r, err)
		return
	}

	category, err := h.catalogService.CreateCategory(r.Context(), input)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusCreated, category)
}

func (h *Handlers) AdminUpdateCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var input services.CategoryInput
	if err := decodeJSON(r, &input); err != nil {
		h.respondError(w, r, err)
		return
	}

	category := &models.Category{
		ID:       categoryID,
		Name:     input.Name,
		Slug:     input.Slug,
		ParentID: input.ParentID,
		Active:   input.Active,
	}
	if err := h.catalogService.UpdateCategory(r.Context(), category); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, category)
}

func (h *Handlers) AdminDeleteCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.catalogService.DeleteCategory(r.Context(), categoryID); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondMessage(w, r, http.StatusOK, "category deleted")
}

func (h *Handlers) AdminListProducts(w http.ResponseWriter, r *http.Request) {
	categoryID, err := optionalCategoryFilter(r)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	products, err := h.catalogService.ListProducts(r.Context(), categoryID, false)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, products)
}

func (h *Handlers) AdminGetProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	product, err := h.catalogService.GetProduct(r.Context(), productID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, product)
}

func (h *Handlers) AdminCreateProduct(w http.ResponseWriter, r *http.Request) {
	var input services.ProductInput
	if err := decodeJSON(r, &input); err != nil {
		h.respondError(w, r, err)
		return
	}

	product, err := h.catalogService.CreateProduct(r.Context(), input)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusCreated, product)
}

func (h *Handlers) AdminUpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var input services.ProductInput
	if err := decodeJSON(r, &input); err != nil {
		h.respondError(w, r, err)
		return
	}

	product := &models.Product{
		ID:          productID,
		CategoryID:  input.CategoryID,
		SKU:         input.SKU,
		Name:        input.Name,
		Description: input.Description,
		PricePaise:  input.PricePaise,
		WeightGrams: input.WeightGrams,
		ImageKeys:   input.ImageKeys,
		Active:      input.Active,
	}
	if err := h.catalogService.UpdateProduct(r.Context(), product); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, product)
}

func (h *Handlers) AdminDeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.catalogService.DeleteProduct(r.Context(), productID); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondMessage(w, r, http.StatusOK, "product deleted")
}

func (h *Handlers) AdminCreateVariant(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var input services.VariantInput
	if err := decodeJSON(r, &input); err != nil {
		h.respondError(w, r, err)
		return
	}

	variant, err := h.catalogService.CreateVariant(r.Context(), productID, input)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusCreated, variant)
}

func (h *Handlers) AdminUpdateVariant(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	variantID, err := pathID(r, "variantID")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var input services.VariantInput
	if err := decodeJSON(r, &input); err != nil {
		h.respondError(w, r, err)
		return
	}

	variant := &models.Variant{
		ID:         variantID,
		ProductID:  productID,
		SKU:        input.SKU,
		Name:       input.Name,
		PricePaise: input.PricePaise,
		Active:     input.Active,
	}
	if err := h.catalogService.UpdateVariant(r.Context(), variant); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, variant)
}

func (h *Handlers) AdminListBanners(w http.ResponseWriter, r *http.Request) {
	banners, err := h.catalogService.ListBanners(r.Context(), false)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, banners)
}

func (h *Handlers) AdminCreateBanner(w http.ResponseWriter, r *http.Request) {
	var input services.BannerInput
	if err := decodeJSON(r, &input); err != nil {
		h.respondError(w, r, err)
		return
	}

	banner, err := h.catalogService.CreateBanner(r.Context(), input)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusCreated, banner)
}

func (h *Handlers) AdminUpdateBanner(w http.ResponseWriter, r *http.Request) {
	bannerID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	var input services.BannerInput
	if err := decodeJSON(r, &input); err != nil {
		h.respondError(w, r, err)
		return
	}

	banner := &models.Banner{
		ID:       bannerID,
		Title:    input.Title,
		ImageKey: input.ImageKey,
		LinkURL:  input.LinkURL,
		Position: input.Position,
		Active:   input.Active,
	}
	if err := h.catalogService.UpdateBanner(r.Context(), banner); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusOK, banner)
}

func (h *Handlers) AdminDeleteBanner(w http.ResponseWriter, r *http.Request) {
	bannerID, err := pathID(r, "id")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.catalogService.DeleteBanner(r.Context(), bannerID); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondMessage(w, r, http.StatusOK, "banner deleted")
}

type mediaUploadRequest struct {
	Prefix      string `json:"prefix" validate:"required,oneof=products banners"`
	ContentType string `json:"content_type" validate:"required"`
}

// AdminCreateMediaUpload issues a presigned upload URL for product or
// banner images.
func (h *Handlers) AdminCreateMediaUpload(w http.ResponseWriter, r *http.Request) {
	var req mediaUploadRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	upload, err := h.catalogService.NewMediaUpload(r.Context(), req.Prefix, strings.TrimSpace(req.ContentType))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondData(w, r, http.StatusCreated, upload)
}
