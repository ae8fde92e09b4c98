// internal/repository/memrepo/users.go
package memrepo

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/javajoker/storefront/internal/models"
	"github.com/javajoker/storefront/internal/services"
)

var _ services.UserRepository = (*UserRepo)(nil)

type UserRepo struct {
	s *Store
}

func (r *UserRepo) emailTaken(email string, except uuid.UUID) bool {
	for id, u := range r.s.users {
		if id != except && u.Email == email {
			return true
		}
	}
	return false
}

func (r *UserRepo) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.emailTaken(user.Email, uuid.Nil) {
		return services.ErrEmailTaken
	}

	user.ID = newID(user.ID)
	user.CreatedAt = r.s.tick()
	user.UpdatedAt = user.CreatedAt
	r.s.users[user.ID] = *user
	return nil
}

func (r *UserRepo) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, fmt.Errorf("user: %w", services.ErrNotFound)
	}
	return &u, nil
}

func (r *UserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user: %w", services.ErrNotFound)
}

func (r *UserRepo) List(_ context.Context) ([]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	users := make([]models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (r *UserRepo) Update(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.users[user.ID]
	if !ok {
		return fmt.Errorf("user: %w", services.ErrNotFound)
	}
	if r.emailTaken(user.Email, user.ID) {
		return services.ErrEmailTaken
	}

	stored.Name = user.Name
	stored.Email = user.Email
	stored.PasswordHash = user.PasswordHash
	stored.IsAdmin = user.IsAdmin
	stored.UpdatedAt = r.s.tick()
	r.s.users[user.ID] = stored

	user.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *UserRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return fmt.Errorf("user: %w", services.ErrNotFound)
	}
	for _, o := range r.s.orders {
		if o.UserID == id {
			return services.ErrUserHasOrders
		}
	}
	delete(r.s.users, id)
	return nil
}

func (r *UserRepo) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.users)), nil
}
