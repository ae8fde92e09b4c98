// internal/services/payment_service.go
package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"

	"github.com/javajoker/storefront/internal/config"
	"github.com/javajoker/storefront/internal/models"
)

// PaymentIntent is the gateway-neutral view of a card payment.
type PaymentIntent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"clientSecret,omitempty"`
	Status       string            `json:"status"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

type PaymentGateway interface {
	CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*PaymentIntent, error)
	GetIntent(ctx context.Context, id string) (*PaymentIntent, error)
}

// StripeGateway talks to Stripe through the package-level client.
type StripeGateway struct{}

func NewStripeGateway(secretKey string) *StripeGateway {
	stripe.Key = secretKey
	return &StripeGateway{}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}
	return fromStripe(pi), nil
}

func (g *StripeGateway) GetIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := paymentintent.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}
	return fromStripe(pi), nil
}

func fromStripe(pi *stripe.PaymentIntent) *PaymentIntent {
	return &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Metadata:     pi.Metadata,
	}
}

type PaymentService struct {
	gateway PaymentGateway
	cfg     config.PaymentConfig
}

// NewPaymentService wires the card gateway. gateway may be nil when Stripe
// is not configured; PayPal and cash keep working.
func NewPaymentService(gateway PaymentGateway, cfg config.PaymentConfig) *PaymentService {
	return &PaymentService{
		gateway: gateway,
		cfg:     cfg,
	}
}

func (s *PaymentService) PayPalClientID() string {
	return s.cfg.PayPalClientID
}

func (s *PaymentService) StripePublishableKey() string {
	return s.cfg.StripePublishableKey
}

// toMinorUnits converts a decimal amount into cents.
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func (s *PaymentService) CreateIntent(ctx context.Context, order *models.Order) (*PaymentIntent, error) {
	if s.gateway == nil {
		return nil, ErrGatewayUnavailable
	}

	return s.gateway.CreateIntent(ctx, toMinorUnits(order.TotalPrice), s.cfg.Currency, map[string]string{
		"order_id": order.ID.String(),
		"user_id":  order.UserID.String(),
	})
}

// VerifyIntent confirms the intent succeeded, belongs to the order and
// covers its total.
func (s *PaymentService) VerifyIntent(ctx context.Context, order *models.Order, intentID string) (*PaymentIntent, error) {
	if s.gateway == nil {
		return nil, ErrGatewayUnavailable
	}
	if intentID == "" {
		return nil, fmt.Errorf("%w: missing payment intent id", ErrPaymentNotVerified)
	}

	pi, err := s.gateway.GetIntent(ctx, intentID)
	if err != nil {
		return nil, err
	}

	log := logrus.WithFields(logrus.Fields{
		"order_id":  order.ID,
		"intent_id": pi.ID,
		"status":    pi.Status,
	})

	if pi.Status != string(stripe.PaymentIntentStatusSucceeded) {
		log.Warn("Payment intent not succeeded")
		return nil, fmt.Errorf("%w: intent status %s", ErrPaymentNotVerified, pi.Status)
	}
	if pi.Metadata["order_id"] != order.ID.String() {
		log.Warn("Payment intent belongs to another order")
		return nil, fmt.Errorf("%w: intent does not match order", ErrPaymentNotVerified)
	}
	if pi.Amount < toMinorUnits(order.TotalPrice) {
		log.Warn("Payment intent amount below order total")
		return nil, fmt.Errorf("%w: amount %d below order total", ErrPaymentNotVerified, pi.Amount)
	}

	return pi, nil
}
