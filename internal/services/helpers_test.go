package services_test

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/storefront/internal/config"
	"github.com/javajoker/storefront/internal/models"
	"github.com/javajoker/storefront/internal/repository/memrepo"
	"github.com/javajoker/storefront/internal/services"
)

func testConfig() *config.Config {
	return &config.Config{
		JWT:     config.JWTConfig{SecretKey: "test-secret", TTLHours: 1},
		Payment: config.PaymentConfig{PayPalClientID: "sb", StripePublishableKey: "pk_test", Currency: "usd"},
		Upload:  config.UploadConfig{MaxSizeMB: 1, PublicURL: "http://localhost:8080/uploads"},
	}
}

func newUser(t require.TestingT, store *memrepo.Store, name string, admin bool) *models.User {
	user := &models.User{Name: name, Email: name + "@example.com", IsAdmin: admin}
	require.NoError(t, user.SetPassword("secret123"))
	require.NoError(t, store.Users().Create(context.Background(), user))
	return user
}

func newProduct(t require.TestingT, store *memrepo.Store, name string, price int64, mutate ...func(*models.Product)) *models.Product {
	product := &models.Product{
		Name:         name,
		Slug:         name,
		Category:     "Shirts",
		Brand:        "Nike",
		Price:        decimal.NewFromInt(price),
		CountInStock: 10,
	}
	for _, m := range mutate {
		m(product)
	}
	require.NoError(t, store.Products().Create(context.Background(), product))
	return product
}

func orderRequest(productID uuid.UUID, price int64, qty int, method string) *services.CreateOrderRequest {
	itemsPrice := decimal.NewFromInt(price * int64(qty))
	return &services.CreateOrderRequest{
		OrderItems: []services.OrderItemRequest{{
			ProductID: productID,
			Name:      "Free Shirt",
			Slug:      "free-shirt",
			Price:     decimal.NewFromInt(price),
			Quantity:  qty,
		}},
		ShippingAddress: services.ShippingAddressRequest{
			FullName:   "Jane Doe",
			Address:    "1 Main St",
			City:       "Taipei",
			PostalCode: "100",
			Country:    "Taiwan",
		},
		PaymentMethod: method,
		ItemsPrice:    itemsPrice,
		TaxPrice:      decimal.Zero,
		ShippingPrice: decimal.Zero,
		TotalPrice:    itemsPrice,
	}
}

// fakeGateway records intents in memory.
type fakeGateway struct {
	mu      sync.Mutex
	intents map[string]*services.PaymentIntent
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{intents: map[string]*services.PaymentIntent{}}
}

func (g *fakeGateway) CreateIntent(_ context.Context, amount int64, currency string, metadata map[string]string) (*services.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	pi := &services.PaymentIntent{
		ID:           "pi_" + uuid.NewString()[:8],
		ClientSecret: "secret",
		Status:       "requires_payment_method",
		Amount:       amount,
		Currency:     currency,
		Metadata:     metadata,
	}
	g.intents[pi.ID] = pi
	return pi, nil
}

func (g *fakeGateway) GetIntent(_ context.Context, id string) (*services.PaymentIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	pi, ok := g.intents[id]
	if !ok {
		return nil, services.ErrPaymentNotVerified
	}
	copied := *pi
	return &copied, nil
}

func (g *fakeGateway) succeed(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents[id].Status = "succeeded"
}

// recordingNotifier captures lifecycle events sent from background goroutines.
type recordingNotifier struct {
	events chan string
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{events: make(chan string, 16)}
}

func (n *recordingNotifier) SendOrderPlaced(o *models.Order, u *models.User) error {
	n.events <- "placed:" + u.Email
	return nil
}

func (n *recordingNotifier) SendOrderPaid(o *models.Order, u *models.User) error {
	n.events <- "paid:" + u.Email
	return nil
}

func (n *recordingNotifier) SendOrderDelivered(o *models.Order, u *models.User) error {
	n.events <- "delivered:" + u.Email
	return nil
}
