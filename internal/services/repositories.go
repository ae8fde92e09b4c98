// internal/services/repositories.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/javajoker/storefront/internal/models"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrEmailTaken         = errors.New("user already exists")
	ErrUserHasOrders      = errors.New("user has orders")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrPaymentNotVerified = errors.New("payment could not be verified")
	ErrGatewayUnavailable = errors.New("payment gateway is not configured")
	ErrInvalidFile        = errors.New("invalid file")
	ErrInvalidInput       = errors.New("invalid input")
)

// InputError names the request field a service rejected. It matches
// ErrInvalidInput under errors.Is.
type InputError struct {
	Field string
	Value string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
}

// ProductFilter narrows catalog listings. Zero values mean "no constraint";
// Limit 0 means unbounded.
type ProductFilter struct {
	Query     string
	Category  string
	Brand     string
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	MinRating float64
	Featured  bool
	Sort      string
	Limit     int
	Offset    int
}

// Sort orders understood by ProductFilter.Sort.
const (
	SortFeatured = "featured"
	SortLowest   = "lowest"
	SortHighest  = "highest"
	SortTopRated = "toprated"
	SortNewest   = "newest"
)

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	// GetByID and GetBySlug load reviews newest first.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]models.Product, int64, error)
	Categories(ctx context.Context) ([]string, error)
	// Update persists scalar fields only; reviews are written through SaveReview.
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
	// SaveReview inserts or overwrites the (product, user) review and
	// recomputes the product aggregates atomically. created reports an insert.
	SaveReview(ctx context.Context, review *models.Review) (product *models.Product, created bool, err error)
}

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	// List returns every order with its owner loaded, newest first.
	List(ctx context.Context) ([]models.Order, error)
	Update(ctx context.Context, order *models.Order) error
	Count(ctx context.Context) (int64, error)
	// SalesByMonth groups order totals by creation month, oldest first.
	SalesByMonth(ctx context.Context) ([]models.MonthlySales, error)
}

type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
}
