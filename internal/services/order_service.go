// internal/services/order_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront/internal/models"
)

type OrderService struct {
	orders   OrderRepository
	users    UserRepository
	payments *PaymentService
	notifier OrderNotifier
	now      func() time.Time
}

type OrderItemRequest struct {
	ProductID uuid.UUID       `json:"productId" validate:"required"`
	Name      string          `json:"name" validate:"required"`
	Slug      string          `json:"slug"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price" validate:"gte=0"`
	Quantity  int             `json:"quantity" validate:"required,gte=1"`
}

type ShippingAddressRequest struct {
	FullName   string `json:"fullName" validate:"required"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

// CreateOrderRequest prices are taken as submitted by the client.
type CreateOrderRequest struct {
	OrderItems      []OrderItemRequest     `json:"orderItems" validate:"required,min=1,dive"`
	ShippingAddress ShippingAddressRequest `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod" validate:"required,payment_method"`
	ItemsPrice      decimal.Decimal        `json:"itemsPrice" validate:"gte=0"`
	TaxPrice        decimal.Decimal        `json:"taxPrice" validate:"gte=0"`
	ShippingPrice   decimal.Decimal        `json:"shippingPrice" validate:"gte=0"`
	TotalPrice      decimal.Decimal        `json:"totalPrice" validate:"gte=0"`
}

// PayOrderRequest is the gateway payload. For PayPal it is the capture
// details as returned to the browser; for Stripe it must carry the intent id.
type PayOrderRequest map[string]interface{}

func (p PayOrderRequest) stringField(key string) string {
	if v, ok := p[key].(string); ok {
		return v
	}
	return ""
}

func NewOrderService(orders OrderRepository, users UserRepository, payments *PaymentService, notifier OrderNotifier) *OrderService {
	return &OrderService{
		orders:   orders,
		users:    users,
		payments: payments,
		notifier: notifier,
		now:      time.Now,
	}
}

func (s *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID, req *CreateOrderRequest) (*models.Order, error) {
	items := make(models.OrderItems, 0, len(req.OrderItems))
	for _, item := range req.OrderItems {
		items = append(items, models.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Slug:      item.Slug,
			Image:     item.Image,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
	}

	order := &models.Order{
		UserID:     userID,
		OrderItems: items,
		ShippingAddress: models.ShippingAddress{
			FullName:   req.ShippingAddress.FullName,
			Address:    req.ShippingAddress.Address,
			City:       req.ShippingAddress.City,
			PostalCode: req.ShippingAddress.PostalCode,
			Country:    req.ShippingAddress.Country,
		},
		PaymentMethod: models.PaymentMethod(req.PaymentMethod),
		ItemsPrice:    req.ItemsPrice,
		TaxPrice:      req.TaxPrice,
		ShippingPrice: req.ShippingPrice,
		TotalPrice:    req.TotalPrice,
	}

	warnOnPricingDiscrepancy(order)

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"order_id":    order.ID,
		"user_id":     userID,
		"total_price": order.TotalPrice.String(),
		"items":       len(order.OrderItems),
	}).Info("Order created")

	s.notify(ctx, order, "placed", OrderNotifier.SendOrderPlaced)
	return order, nil
}

// warnOnPricingDiscrepancy flags client totals that do not add up. The
// order is stored as submitted either way.
func warnOnPricingDiscrepancy(order *models.Order) {
	itemsTotal := order.OrderItems.ItemsTotal()
	total := order.ItemsPrice.Add(order.TaxPrice).Add(order.ShippingPrice)

	if itemsTotal.Equal(order.ItemsPrice) && total.Equal(order.TotalPrice) {
		return
	}

	logrus.WithFields(logrus.Fields{
		"user_id":        order.UserID,
		"items_sum":      itemsTotal.String(),
		"items_price":    order.ItemsPrice.String(),
		"computed_total": total.String(),
		"total_price":    order.TotalPrice.String(),
	}).Warn("Order totals do not match line items")
}

// GetOrder returns the order when the caller owns it or is an admin.
// Anyone else gets ErrNotFound so ids cannot be probed.
func (s *OrderService) GetOrder(ctx context.Context, id, callerID uuid.UUID, isAdmin bool) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}
	if !isAdmin && order.UserID != callerID {
		return nil, fmt.Errorf("order %s: %w", id, ErrNotFound)
	}
	return order, nil
}

func (s *OrderService) GetOrderHistory(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// CreatePaymentIntent starts a card payment for the caller's order.
func (s *OrderService) CreatePaymentIntent(ctx context.Context, id, callerID uuid.UUID) (*PaymentIntent, error) {
	order, err := s.GetOrder(ctx, id, callerID, false)
	if err != nil {
		return nil, err
	}
	return s.payments.CreateIntent(ctx, order)
}

// PayOrder records the gateway payload and marks the order paid. Paying
// twice overwrites the previous payment result.
func (s *OrderService) PayOrder(ctx context.Context, id, callerID uuid.UUID, isAdmin bool, payload PayOrderRequest) (*models.Order, error) {
	order, err := s.GetOrder(ctx, id, callerID, isAdmin)
	if err != nil {
		return nil, err
	}

	result := models.JSONB(payload)
	if order.PaymentMethod == models.PaymentMethodStripe {
		pi, err := s.payments.VerifyIntent(ctx, order, payload.stringField("paymentIntentId"))
		if err != nil {
			return nil, err
		}
		result = models.JSONB{
			"id":            pi.ID,
			"status":        pi.Status,
			"amount":        pi.Amount,
			"currency":      pi.Currency,
			"update_time":   s.now().UTC().Format(time.RFC3339),
			"email_address": payload.stringField("email_address"),
		}
	}

	paidAt := s.now()
	order.IsPaid = true
	order.PaidAt = &paidAt
	order.PaymentResult = result

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"order_id":       order.ID,
		"payment_method": order.PaymentMethod,
	}).Info("Order paid")

	s.notify(ctx, order, "paid", OrderNotifier.SendOrderPaid)
	return order, nil
}

// DeliverOrder marks the order delivered. It does not require payment.
func (s *OrderService) DeliverOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}

	deliveredAt := s.now()
	order.IsDelivered = true
	order.DeliveredAt = &deliveredAt

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	logrus.WithField("order_id", order.ID).Info("Order delivered")

	s.notify(ctx, order, "delivered", OrderNotifier.SendOrderDelivered)
	return order, nil
}

// notify emails the order owner in the background. Failures are logged only.
func (s *OrderService) notify(ctx context.Context, order *models.Order, event string, send func(OrderNotifier, *models.Order, *models.User) error) {
	if s.notifier == nil {
		return
	}

	snapshot := *order
	go func() {
		log := logrus.WithFields(logrus.Fields{
			"order_id": snapshot.ID,
			"event":    event,
		})

		user, err := s.users.GetByID(context.WithoutCancel(ctx), snapshot.UserID)
		if err != nil {
			log.WithError(err).Warn("Failed to load order owner for notification")
			return
		}
		if err := send(s.notifier, &snapshot, user); err != nil {
			log.WithError(err).Error("Failed to send order notification")
		}
	}()
}
