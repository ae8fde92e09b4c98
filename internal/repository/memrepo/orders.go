// internal/repository/memrepo/orders.go
package memrepo

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/javajoker/storefront/internal/models"
	"github.com/javajoker/storefront/internal/services"
)

var _ services.OrderRepository = (*OrderRepo)(nil)

type OrderRepo struct {
	s *Store
}

func cloneOrder(o models.Order) models.Order {
	o.OrderItems = append(models.OrderItems(nil), o.OrderItems...)
	if o.PaymentResult != nil {
		result := make(models.JSONB, len(o.PaymentResult))
		for k, v := range o.PaymentResult {
			result[k] = v
		}
		o.PaymentResult = result
	}
	o.User = nil
	return o
}

// withOwner mirrors Preload("User"). Callers hold the lock.
func (r *OrderRepo) withOwner(o models.Order) models.Order {
	out := cloneOrder(o)
	if u, ok := r.s.users[o.UserID]; ok {
		out.User = &u
	}
	return out
}

func (r *OrderRepo) Create(_ context.Context, order *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	order.ID = newID(order.ID)
	order.CreatedAt = r.s.tick()
	order.UpdatedAt = order.CreatedAt
	r.s.orders[order.ID] = cloneOrder(*order)
	return nil
}

func (r *OrderRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	o, ok := r.s.orders[id]
	if !ok {
		return nil, fmt.Errorf("order: %w", services.ErrNotFound)
	}
	out := r.withOwner(o)
	return &out, nil
}

func (r *OrderRepo) newestFirst(keep func(models.Order) bool, owner bool) []models.Order {
	orders := []models.Order{}
	for _, o := range r.s.orders {
		if !keep(o) {
			continue
		}
		if owner {
			orders = append(orders, r.withOwner(o))
		} else {
			orders = append(orders, cloneOrder(o))
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders
}

func (r *OrderRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.newestFirst(func(o models.Order) bool { return o.UserID == userID }, false), nil
}

func (r *OrderRepo) List(_ context.Context) ([]models.Order, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.newestFirst(func(models.Order) bool { return true }, true), nil
}

func (r *OrderRepo) Update(_ context.Context, order *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.orders[order.ID]
	if !ok {
		return fmt.Errorf("order: %w", services.ErrNotFound)
	}

	updated := cloneOrder(*order)
	stored.IsPaid = order.IsPaid
	stored.PaidAt = order.PaidAt
	stored.PaymentResult = updated.PaymentResult
	stored.IsDelivered = order.IsDelivered
	stored.DeliveredAt = order.DeliveredAt
	stored.UpdatedAt = r.s.tick()
	r.s.orders[order.ID] = stored

	order.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *OrderRepo) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.orders)), nil
}

func (r *OrderRepo) SalesByMonth(_ context.Context) ([]models.MonthlySales, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	totals := map[string]decimal.Decimal{}
	for _, o := range r.s.orders {
		month := o.CreatedAt.UTC().Format("2006-01")
		totals[month] = totals[month].Add(o.TotalPrice)
	}

	sales := make([]models.MonthlySales, 0, len(totals))
	for month, total := range totals {
		sales = append(sales, models.MonthlySales{Month: month, TotalSales: total})
	}
	sort.Slice(sales, func(i, j int) bool { return sales[i].Month < sales[j].Month })
	return sales, nil
}
