// internal/models/product.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/montanaflynn/stats"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	BaseModel
	Name          string          `json:"name" gorm:"size:255;not null"`
	Slug          string          `json:"slug" gorm:"uniqueIndex;size:255;not null"`
	Category      string          `json:"category" gorm:"size:100;not null;index"`
	Brand         string          `json:"brand" gorm:"size:100"`
	Image         string          `json:"image" gorm:"type:text"`
	FeaturedImage string          `json:"featuredImage" gorm:"type:text"`
	Images        pq.StringArray  `json:"images" gorm:"type:text[]"`
	IsFeatured    bool            `json:"isFeatured" gorm:"default:false;index"`
	Price         decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null;default:0"`
	CountInStock  int             `json:"countInStock" gorm:"not null;default:0"`
	Description   string          `json:"description" gorm:"type:text"`
	Rating        float64         `json:"rating" gorm:"not null;default:0"`
	NumReviews    int             `json:"numReviews" gorm:"not null;default:0"`

	// Relationships
	Reviews []Review `json:"reviews" gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// Review is keyed by (product, user); a second submission by the same user
// overwrites the first.
type Review struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProductID uuid.UUID `json:"productId" gorm:"type:uuid;not null;uniqueIndex:idx_reviews_product_user"`
	UserID    uuid.UUID `json:"user" gorm:"type:uuid;not null;uniqueIndex:idx_reviews_product_user"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	Comment   string    `json:"comment" gorm:"type:text;not null"`
	Rating    int       `json:"rating" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// RecomputeRating refreshes the aggregate fields from the review list.
func (p *Product) RecomputeRating() {
	p.NumReviews = len(p.Reviews)

	ratings := make(stats.Float64Data, 0, len(p.Reviews))
	for _, r := range p.Reviews {
		ratings = append(ratings, float64(r.Rating))
	}

	// Mean reports an error on empty input.
	mean, err := stats.Mean(ratings)
	if err != nil {
		mean = 0
	}
	p.Rating = mean
}
