// internal/repository/audit.go
package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/javajoker/storefront/internal/models"
	"github.com/javajoker/storefront/internal/services"
)

var _ services.AuditRepository = (*AuditRepository)(nil)

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
