// internal/repository/postgres.go
package repository

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/javajoker/storefront/internal/services"
)

// Repositories bundles the GORM-backed stores.
type Repositories struct {
	Users    *UserRepository
	Products *ProductRepository
	Orders   *OrderRepository
	Audit    *AuditRepository
}

func New(db *gorm.DB) *Repositories {
	return &Repositories{
		Users:    NewUserRepository(db),
		Products: NewProductRepository(db),
		Orders:   NewOrderRepository(db),
		Audit:    NewAuditRepository(db),
	}
}

// translate maps GORM errors onto the service sentinels. The connection
// must be opened with TranslateError enabled.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, services.ErrNotFound)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

// likePattern escapes LIKE metacharacters in user input.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
