// internal/repository/memrepo/audit.go
package memrepo

import (
	"context"

	"github.com/javajoker/storefront/internal/models"
	"github.com/javajoker/storefront/internal/services"
)

var _ services.AuditRepository = (*AuditRepo)(nil)

type AuditRepo struct {
	s *Store
}

func (r *AuditRepo) Create(_ context.Context, entry *models.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	entry.ID = newID(entry.ID)
	entry.CreatedAt = r.s.tick()
	entry.UpdatedAt = entry.CreatedAt
	r.s.audit = append(r.s.audit, *entry)
	return nil
}

// Entries returns a copy of the recorded audit log.
func (r *AuditRepo) Entries() []models.AuditLog {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]models.AuditLog(nil), r.s.audit...)
}
