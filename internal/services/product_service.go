// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront/internal/config"
	"github.com/javajoker/storefront/internal/models"
	"github.com/javajoker/storefront/internal/utils"
)

const (
	TopRatedLimit = 6
	FeaturedLimit = 3
)

type ProductService struct {
	products ProductRepository
	cfg      config.CatalogConfig
}

// UpdateProductRequest is a partial patch. Pointer fields distinguish
// "absent" from "zero"; whether zero values are applied depends on the
// catalog patch policy.
type UpdateProductRequest struct {
	Name          *string          `json:"name" validate:"omitempty,max=255"`
	Slug          *string          `json:"slug" validate:"omitempty,max=255"`
	Price         *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
	Category      *string          `json:"category" validate:"omitempty,max=100"`
	Brand         *string          `json:"brand" validate:"omitempty,max=100"`
	Image         *string          `json:"image"`
	FeaturedImage *string          `json:"featuredImage"`
	Images        []string         `json:"images"`
	IsFeatured    *bool            `json:"isFeatured"`
	CountInStock  *int             `json:"countInStock" validate:"omitempty,gte=0"`
	Description   *string          `json:"description"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"required,max=2000"`
}

// Reviewer is the author snapshot stored with a review.
type Reviewer struct {
	ID   uuid.UUID
	Name string
}

type ProductSearchParams struct {
	utils.PaginationParams
	Query     string
	Category  string
	Brand     string
	Price     string // "min-max", either side may be empty
	MinRating float64
}

func NewProductService(products ProductRepository, cfg config.CatalogConfig) *ProductService {
	return &ProductService{
		products: products,
		cfg:      cfg,
	}
}

// ListProducts returns the whole catalog, optionally narrowed by category
// and a case-insensitive name match. Not paginated.
func (s *ProductService) ListProducts(ctx context.Context, category, query string) ([]models.Product, error) {
	products, _, err := s.products.List(ctx, ProductFilter{
		Category: strings.TrimSpace(category),
		Query:    strings.TrimSpace(query),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *ProductService) SearchProducts(ctx context.Context, params ProductSearchParams) ([]models.Product, int64, error) {
	filter := ProductFilter{
		Query:     strings.TrimSpace(params.Query),
		Category:  strings.TrimSpace(params.Category),
		Brand:     strings.TrimSpace(params.Brand),
		MinRating: params.MinRating,
		Sort:      params.Sort,
		Limit:     params.Limit,
		Offset:    params.Offset(),
	}

	lo, hi, err := parsePriceRange(params.Price)
	if err != nil {
		return nil, 0, err
	}
	filter.MinPrice, filter.MaxPrice = lo, hi

	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search products: %w", err)
	}
	return products, total, nil
}

func parsePriceRange(raw string) (*decimal.Decimal, *decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "all" {
		return nil, nil, nil
	}

	parts := strings.SplitN(raw, "-", 2)
	parse := func(v string) (*decimal.Decimal, error) {
		v = strings.TrimSpace(v)
		if v == "" {
			return nil, nil
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, &InputError{Field: "price", Value: raw}
		}
		return &d, nil
	}

	lo, err := parse(parts[0])
	if err != nil {
		return nil, nil, err
	}
	if len(parts) == 1 {
		return lo, nil, nil
	}
	hi, err := parse(parts[1])
	if err != nil {
		return nil, nil, err
	}
	return lo, hi, nil
}

func (s *ProductService) GetCategories(ctx context.Context) ([]string, error) {
	categories, err := s.products.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *ProductService) GetTopRated(ctx context.Context) ([]models.Product, error) {
	products, _, err := s.products.List(ctx, ProductFilter{Sort: SortTopRated, Limit: TopRatedLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to list top rated products: %w", err)
	}
	return products, nil
}

func (s *ProductService) GetFeatured(ctx context.Context) ([]models.Product, error) {
	products, _, err := s.products.List(ctx, ProductFilter{Featured: true, Limit: FeaturedLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to list featured products: %w", err)
	}
	return products, nil
}

func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}
	return product, nil
}

func (s *ProductService) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	product, err := s.products.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to get product %q: %w", slug, err)
	}
	return product, nil
}

// CreateSampleProduct inserts a placeholder the admin then edits in place.
func (s *ProductService) CreateSampleProduct(ctx context.Context) (*models.Product, error) {
	suffix, err := utils.GenerateRandomString(8)
	if err != nil {
		return nil, fmt.Errorf("failed to generate slug: %w", err)
	}

	product := &models.Product{
		Name:         "simple name",
		Slug:         "sample-slug-" + strings.ToLower(suffix),
		Price:        decimal.Zero,
		CountInStock: 0,
		Image:        "/images/shirt1.jpg",
		Description:  "sample description",
		Brand:        "sample brand",
		Category:     "sample category",
		Rating:       0,
		NumReviews:   0,
		Reviews:      []models.Review{},
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, id uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}

	oldName := product.Name
	s.applyPatch(product, req)

	switch {
	case s.applies(req.Slug != nil && *req.Slug != "", req.Slug != nil):
		product.Slug = utils.Slugify(*req.Slug)
	case product.Name != oldName:
		product.Slug = utils.Slugify(product.Name)
	}
	if product.Slug, err = s.uniqueSlug(ctx, product.ID, product.Slug); err != nil {
		return nil, err
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"product_id": product.ID,
		"slug":       product.Slug,
	}).Info("Product updated")

	return product, nil
}

// applies decides whether a field is written. truthy is the value-based
// test; present is whether the client sent the field at all.
func (s *ProductService) applies(truthy, present bool) bool {
	if s.cfg.PresencePatch {
		return present
	}
	return truthy
}

func (s *ProductService) applyPatch(product *models.Product, req *UpdateProductRequest) {
	if s.applies(req.Name != nil && strings.TrimSpace(*req.Name) != "", req.Name != nil) {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if s.applies(req.Price != nil && !req.Price.IsZero(), req.Price != nil) {
		product.Price = *req.Price
	}
	if s.applies(req.Category != nil && *req.Category != "", req.Category != nil) {
		product.Category = *req.Category
	}
	if s.applies(req.Brand != nil && *req.Brand != "", req.Brand != nil) {
		product.Brand = *req.Brand
	}
	if s.applies(req.Image != nil && *req.Image != "", req.Image != nil) {
		product.Image = *req.Image
	}
	if s.applies(req.FeaturedImage != nil && *req.FeaturedImage != "", req.FeaturedImage != nil) {
		product.FeaturedImage = *req.FeaturedImage
	}
	if s.applies(len(req.Images) > 0, req.Images != nil) {
		product.Images = req.Images
	}
	if s.applies(req.IsFeatured != nil && *req.IsFeatured, req.IsFeatured != nil) {
		product.IsFeatured = *req.IsFeatured
	}
	if s.applies(req.CountInStock != nil && *req.CountInStock != 0, req.CountInStock != nil) {
		product.CountInStock = *req.CountInStock
	}
	if s.applies(req.Description != nil && *req.Description != "", req.Description != nil) {
		product.Description = *req.Description
	}
}

func (s *ProductService) uniqueSlug(ctx context.Context, id uuid.UUID, slug string) (string, error) {
	if slug == "" {
		slug = "product"
	}

	for candidate, attempt := slug, 0; attempt < 5; attempt++ {
		existing, err := s.products.GetBySlug(ctx, candidate)
		if errors.Is(err, ErrNotFound) || (err == nil && existing.ID == id) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}

		suffix, err := utils.GenerateRandomString(4)
		if err != nil {
			return "", fmt.Errorf("failed to generate slug: %w", err)
		}
		candidate = slug + "-" + strings.ToLower(suffix)
	}

	return "", fmt.Errorf("could not find a free slug for %q", slug)
}

func (s *ProductService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	return nil
}

// SubmitReview upserts the reviewer's review and returns the refreshed
// review list, newest first. created is false when an existing review was
// overwritten.
func (s *ProductService) SubmitReview(ctx context.Context, productID uuid.UUID, reviewer Reviewer, req *ReviewRequest) ([]models.Review, bool, error) {
	review := &models.Review{
		ProductID: productID,
		UserID:    reviewer.ID,
		Name:      reviewer.Name,
		Comment:   strings.TrimSpace(req.Comment),
		Rating:    req.Rating,
	}

	product, created, err := s.products.SaveReview(ctx, review)
	if err != nil {
		return nil, false, fmt.Errorf("failed to save review for product %s: %w", productID, err)
	}

	logrus.WithFields(logrus.Fields{
		"product_id":  productID,
		"user_id":     reviewer.ID,
		"created":     created,
		"num_reviews": product.NumReviews,
		"rating":      product.Rating,
	}).Info("Review saved")

	return product.Reviews, created, nil
}
