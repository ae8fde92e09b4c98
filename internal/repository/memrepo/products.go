// internal/repository/memrepo/products.go
package memrepo

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/javajoker/storefront/internal/models"
	"github.com/javajoker/storefront/internal/services"
)

var _ services.ProductRepository = (*ProductRepo)(nil)

type ProductRepo struct {
	s *Store
}

// cloneProduct copies slices so callers never alias stored state.
func cloneProduct(p models.Product, withReviews bool) models.Product {
	if p.Images != nil {
		p.Images = append([]string(nil), p.Images...)
	}
	if withReviews {
		reviews := make([]models.Review, len(p.Reviews))
		copy(reviews, p.Reviews)
		sort.SliceStable(reviews, func(i, j int) bool { return reviews[i].CreatedAt.After(reviews[j].CreatedAt) })
		p.Reviews = reviews
	} else {
		p.Reviews = nil
	}
	return p
}

func (r *ProductRepo) slugTaken(slug string, except uuid.UUID) bool {
	for id, p := range r.s.products {
		if id != except && p.Slug == slug {
			return true
		}
	}
	return false
}

func (r *ProductRepo) Create(_ context.Context, product *models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.slugTaken(product.Slug, uuid.Nil) {
		return fmt.Errorf("insert product: %w", ErrDuplicateKey)
	}

	product.ID = newID(product.ID)
	product.CreatedAt = r.s.tick()
	product.UpdatedAt = product.CreatedAt

	stored := cloneProduct(*product, false)
	stored.Reviews = []models.Review{}
	r.s.products[product.ID] = stored
	return nil
}

func (r *ProductRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, fmt.Errorf("product: %w", services.ErrNotFound)
	}
	out := cloneProduct(p, true)
	return &out, nil
}

func (r *ProductRepo) GetBySlug(_ context.Context, slug string) (*models.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.products {
		if p.Slug == slug {
			out := cloneProduct(p, true)
			return &out, nil
		}
	}
	return nil, fmt.Errorf("product: %w", services.ErrNotFound)
}

func matches(p models.Product, f services.ProductFilter) bool {
	switch {
	case f.Query != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Query)):
		return false
	case f.Category != "" && p.Category != f.Category:
		return false
	case f.Brand != "" && p.Brand != f.Brand:
		return false
	case f.MinPrice != nil && p.Price.LessThan(*f.MinPrice):
		return false
	case f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice):
		return false
	case f.MinRating > 0 && p.Rating < f.MinRating:
		return false
	case f.Featured && !p.IsFeatured:
		return false
	}
	return true
}

func lessFor(sortKey string) func(a, b models.Product) bool {
	newer := func(a, b models.Product) bool { return a.CreatedAt.After(b.CreatedAt) }
	switch sortKey {
	case services.SortFeatured:
		return func(a, b models.Product) bool {
			if a.IsFeatured != b.IsFeatured {
				return a.IsFeatured
			}
			return newer(a, b)
		}
	case services.SortLowest:
		return func(a, b models.Product) bool {
			if !a.Price.Equal(b.Price) {
				return a.Price.LessThan(b.Price)
			}
			return newer(a, b)
		}
	case services.SortHighest:
		return func(a, b models.Product) bool {
			if !a.Price.Equal(b.Price) {
				return a.Price.GreaterThan(b.Price)
			}
			return newer(a, b)
		}
	case services.SortTopRated:
		return func(a, b models.Product) bool {
			if a.Rating != b.Rating {
				return a.Rating > b.Rating
			}
			return a.NumReviews > b.NumReviews
		}
	case services.SortNewest:
		return newer
	default:
		return func(a, b models.Product) bool { return a.CreatedAt.Before(b.CreatedAt) }
	}
}

func (r *ProductRepo) List(_ context.Context, f services.ProductFilter) ([]models.Product, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	products := []models.Product{}
	for _, p := range r.s.products {
		if matches(p, f) {
			products = append(products, cloneProduct(p, false))
		}
	}

	// map iteration is random; settle ties by creation time first
	sort.Slice(products, func(i, j int) bool { return products[i].CreatedAt.Before(products[j].CreatedAt) })
	less := lessFor(f.Sort)
	sort.SliceStable(products, func(i, j int) bool { return less(products[i], products[j]) })

	total := int64(len(products))
	if f.Limit > 0 {
		start := f.Offset
		if start > len(products) {
			start = len(products)
		}
		end := start + f.Limit
		if end > len(products) {
			end = len(products)
		}
		products = products[start:end]
	}
	return products, total, nil
}

func (r *ProductRepo) Categories(_ context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	seen := map[string]bool{}
	categories := []string{}
	for _, p := range r.s.products {
		if !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

func (r *ProductRepo) Update(_ context.Context, product *models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.products[product.ID]
	if !ok {
		return fmt.Errorf("product: %w", services.ErrNotFound)
	}
	if r.slugTaken(product.Slug, product.ID) {
		return fmt.Errorf("update product: %w", ErrDuplicateKey)
	}

	stored.Name = product.Name
	stored.Slug = product.Slug
	stored.Category = product.Category
	stored.Brand = product.Brand
	stored.Image = product.Image
	stored.FeaturedImage = product.FeaturedImage
	stored.Images = append([]string(nil), product.Images...)
	stored.IsFeatured = product.IsFeatured
	stored.Price = product.Price
	stored.CountInStock = product.CountInStock
	stored.Description = product.Description
	stored.UpdatedAt = r.s.tick()
	r.s.products[product.ID] = stored

	product.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *ProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[id]; !ok {
		return fmt.Errorf("product: %w", services.ErrNotFound)
	}
	delete(r.s.products, id)
	return nil
}

func (r *ProductRepo) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.products)), nil
}

func (r *ProductRepo) SaveReview(_ context.Context, review *models.Review) (*models.Product, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	product, ok := r.s.products[review.ProductID]
	if !ok {
		return nil, false, fmt.Errorf("product: %w", services.ErrNotFound)
	}

	reviews := append([]models.Review(nil), product.Reviews...)
	created := true
	now := r.s.tick()
	for i := range reviews {
		if reviews[i].UserID == review.UserID {
			reviews[i].Comment = review.Comment
			reviews[i].Rating = review.Rating
			reviews[i].UpdatedAt = now
			*review = reviews[i]
			created = false
			break
		}
	}
	if created {
		review.ID = newID(review.ID)
		review.CreatedAt = now
		review.UpdatedAt = now
		reviews = append(reviews, *review)
	}

	product.Reviews = reviews
	product.RecomputeRating()
	r.s.products[product.ID] = product

	out := cloneProduct(product, true)
	return &out, created, nil
}
