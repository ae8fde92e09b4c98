// internal/repository/memrepo/store.go
package memrepo

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/javajoker/storefront/internal/models"
)

// ErrDuplicateKey mirrors a unique index violation.
var ErrDuplicateKey = errors.New("duplicate key")

// Store is an in-memory stand-in for the PostgreSQL schema. All four
// repositories share one lock so cross-entity checks (a user with orders
// cannot be deleted) see a consistent view.
type Store struct {
	mu sync.RWMutex

	users    map[uuid.UUID]models.User
	products map[uuid.UUID]models.Product
	orders   map[uuid.UUID]models.Order
	audit    []models.AuditLog

	now  func() time.Time
	last time.Time
}

func New() *Store {
	return &Store{
		users:    map[uuid.UUID]models.User{},
		products: map[uuid.UUID]models.Product{},
		orders:   map[uuid.UUID]models.Order{},
		now:      time.Now,
	}
}

// SetClock replaces the time source used for CreatedAt/UpdatedAt.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	s.last = time.Time{}
}

// tick returns a strictly increasing timestamp so insertion order is
// preserved by created_at sorts. Callers hold the write lock.
func (s *Store) tick() time.Time {
	t := s.now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

func (s *Store) Users() *UserRepo       { return &UserRepo{s: s} }
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }
func (s *Store) Orders() *OrderRepo     { return &OrderRepo{s: s} }
func (s *Store) Audit() *AuditRepo      { return &AuditRepo{s: s} }

func newID(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}
