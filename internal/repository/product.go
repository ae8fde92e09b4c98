// internal/repository/product.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/storefront/internal/database"
	"github.com/javajoker/storefront/internal/models"
	"github.com/javajoker/storefront/internal/services"
)

var _ services.ProductRepository = (*ProductRepository)(nil)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

var productColumns = []string{
	"name", "slug", "category", "brand", "image", "featured_image", "images",
	"is_featured", "price", "count_in_stock", "description",
}

func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error; err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func withReviews(db *gorm.DB) *gorm.DB {
	return db.Preload("Reviews", func(db *gorm.DB) *gorm.DB {
		return db.Order("reviews.created_at DESC")
	})
}

func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := withReviews(r.db.WithContext(ctx)).First(&product, "id = ?", id).Error; err != nil {
		return nil, translate(err, "product")
	}
	if product.Reviews == nil {
		product.Reviews = []models.Review{}
	}
	return &product, nil
}

func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := withReviews(r.db.WithContext(ctx)).Where("slug = ?", slug).First(&product).Error; err != nil {
		return nil, translate(err, "product")
	}
	if product.Reviews == nil {
		product.Reviews = []models.Review{}
	}
	return &product, nil
}

func orderFor(sort string) string {
	switch sort {
	case services.SortFeatured:
		return "is_featured DESC, created_at DESC"
	case services.SortLowest:
		return "price ASC, created_at DESC"
	case services.SortHighest:
		return "price DESC, created_at DESC"
	case services.SortTopRated:
		return "rating DESC, num_reviews DESC"
	case services.SortNewest:
		return "created_at DESC"
	default:
		return "created_at ASC"
	}
}

func (r *ProductRepository) List(ctx context.Context, f services.ProductFilter) ([]models.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})

	if f.Query != "" {
		query = query.Where("name ILIKE ?", likePattern(f.Query))
	}
	if f.Category != "" {
		query = query.Where("category = ?", f.Category)
	}
	if f.Brand != "" {
		query = query.Where("brand = ?", f.Brand)
	}
	if f.MinPrice != nil {
		query = query.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		query = query.Where("price <= ?", *f.MaxPrice)
	}
	if f.MinRating > 0 {
		query = query.Where("rating >= ?", f.MinRating)
	}
	if f.Featured {
		query = query.Where("is_featured = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query = query.Order(orderFor(f.Sort))
	if f.Limit > 0 {
		query = query.Limit(f.Limit).Offset(f.Offset)
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return products, total, nil
}

func (r *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Distinct("category").
		Order("category").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (r *ProductRepository) Update(ctx context.Context, product *models.Product) error {
	res := r.db.WithContext(ctx).Model(product).Select(productColumns).Updates(product)
	if res.Error != nil {
		return fmt.Errorf("update product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product: %w", services.ErrNotFound)
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("product: %w", services.ErrNotFound)
	}
	return nil
}

func (r *ProductRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// SaveReview locks the product row so concurrent reviews cannot interleave
// between the upsert and the aggregate recompute.
func (r *ProductRepository) SaveReview(ctx context.Context, review *models.Review) (*models.Product, bool, error) {
	var (
		product models.Product
		created bool
	)

	err := database.WithTransaction(r.db.WithContext(ctx), func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&product, "id = ?", review.ProductID).Error; err != nil {
			return translate(err, "product")
		}

		var existing models.Review
		err := tx.Where("product_id = ? AND user_id = ?", review.ProductID, review.UserID).First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Model(&existing).Updates(map[string]interface{}{
				"comment": review.Comment,
				"rating":  review.Rating,
			}).Error; err != nil {
				return fmt.Errorf("update review: %w", err)
			}
			existing.Comment, existing.Rating = review.Comment, review.Rating
			*review = existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(review).Error; err != nil {
				return fmt.Errorf("insert review: %w", err)
			}
			created = true
		default:
			return fmt.Errorf("find review: %w", err)
		}

		if err := tx.Where("product_id = ?", product.ID).
			Order("created_at DESC").
			Find(&product.Reviews).Error; err != nil {
			return fmt.Errorf("load reviews: %w", err)
		}

		product.RecomputeRating()
		return tx.Model(&product).Updates(map[string]interface{}{
			"rating":      product.Rating,
			"num_reviews": product.NumReviews,
		}).Error
	})
	if err != nil {
		return nil, false, err
	}

	return &product, created, nil
}
