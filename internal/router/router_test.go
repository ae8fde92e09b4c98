package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/storefront/internal/cart"
	"github.com/javajoker/storefront/internal/config"
	"github.com/javajoker/storefront/internal/i18n"
	"github.com/javajoker/storefront/internal/models"
	"github.com/javajoker/storefront/internal/repository/memrepo"
	"github.com/javajoker/storefront/internal/router"
	"github.com/javajoker/storefront/internal/services"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Meta json.RawMessage `json:"meta"`
}

type authResponse struct {
	Token   string `json:"token"`
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

type APITestSuite struct {
	suite.Suite
	store   *memrepo.Store
	router  *gin.Engine
	admin   authResponse
	shirt   *models.Product
	pants   *models.Product
	cookies []*http.Cookie
}

func (s *APITestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	s.Require().NoError(i18n.Initialize())
}

func (s *APITestSuite) SetupTest() {
	cfg := &config.Config{
		JWT:     config.JWTConfig{SecretKey: "router-test-secret", TTLHours: 1},
		Payment: config.PaymentConfig{PayPalClientID: "sb", StripePublishableKey: "pk_test", Currency: "usd"},
		Session: config.SessionConfig{HashKey: "0123456789abcdef0123456789abcdef", MaxAge: 3600},
		Upload:  config.UploadConfig{Dir: s.T().TempDir(), PublicURL: "http://localhost:8080/uploads", MaxSizeMB: 1},
	}

	s.store = memrepo.New()
	storage, err := services.NewStorageService(cfg)
	s.Require().NoError(err)

	s.router = router.New(context.Background(), cfg, router.Dependencies{
		Users:    s.store.Users(),
		Products: s.store.Products(),
		Orders:   s.store.Orders(),
		Audit:    s.store.Audit(),
		Storage:  storage,
	})
	s.cookies = nil

	ctx := context.Background()
	s.shirt = &models.Product{Name: "Free Shirt", Slug: "free-shirt", Category: "Shirts", Brand: "Nike", Price: decimal.NewFromInt(70), CountInStock: 2, IsFeatured: true}
	s.pants = &models.Product{Name: "Golf Pants", Slug: "golf-pants", Category: "Pants", Brand: "Oliver", Price: decimal.NewFromInt(90), CountInStock: 10}
	s.Require().NoError(s.store.Products().Create(ctx, s.shirt))
	s.Require().NoError(s.store.Products().Create(ctx, s.pants))

	adminUser := &models.User{Name: "Admin", Email: "admin@example.com", IsAdmin: true}
	s.Require().NoError(adminUser.SetPassword("admin123"))
	s.Require().NoError(s.store.Users().Create(ctx, adminUser))
	s.admin = s.login("admin@example.com", "admin123")
}

func (s *APITestSuite) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, c := range s.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *APITestSuite) decode(w *httptest.ResponseRecorder, dst interface{}) envelope {
	var env envelope
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if dst != nil {
		s.Require().NoError(json.Unmarshal(env.Data, dst))
	}
	return env
}

// keepCookies mimics a browser jar: expired cookies are dropped.
func (s *APITestSuite) keepCookies(w *httptest.ResponseRecorder) {
	jar := map[string]*http.Cookie{}
	for _, c := range s.cookies {
		jar[c.Name] = c
	}
	for _, c := range w.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(jar, c.Name)
			continue
		}
		jar[c.Name] = c
	}
	s.cookies = s.cookies[:0]
	for _, c := range jar {
		s.cookies = append(s.cookies, c)
	}
}

func (s *APITestSuite) register(name, email string) authResponse {
	w := s.do(http.MethodPost, "/api/users/register", "", map[string]string{"name": name, "email": email, "password": "secret123"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var resp authResponse
	s.decode(w, &resp)
	return resp
}

func (s *APITestSuite) login(email, password string) authResponse {
	w := s.do(http.MethodPost, "/api/users/login", "", map[string]string{"email": email, "password": password})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var resp authResponse
	s.decode(w, &resp)
	return resp
}

func (s *APITestSuite) placeOrder(token, method string) models.Order {
	w := s.do(http.MethodPost, "/api/orders", token, map[string]interface{}{
		"orderItems": []map[string]interface{}{{
			"productId": s.shirt.ID, "name": "Free Shirt", "slug": "free-shirt", "price": 70, "quantity": 1,
		}},
		"shippingAddress": map[string]string{
			"fullName": "Jane Doe", "address": "1 Main St", "city": "Taipei", "postalCode": "100", "country": "Taiwan",
		},
		"paymentMethod": method,
		"itemsPrice":    70,
		"taxPrice":      0,
		"shippingPrice": 0,
		"totalPrice":    70,
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		Order models.Order `json:"order"`
	}
	s.decode(w, &created)
	return created.Order
}

func (s *APITestSuite) TestHealth() {
	w := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "healthy")
}

func (s *APITestSuite) TestUserRegistration() {
	jane := s.register("Jane", "Jane@Example.com")
	s.Equal("jane@example.com", jane.Email)
	s.NotEmpty(jane.Token)
	s.False(jane.IsAdmin)

	w := s.do(http.MethodPost, "/api/users/register", "", map[string]string{"name": "Jane", "email": "jane@example.com", "password": "secret123"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("user already exists", s.decode(w, nil).Error.Message)

	w = s.do(http.MethodPost, "/api/users/register", "", map[string]string{"name": "Jane", "email": "not-an-email", "password": "secret123"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("VALIDATION_ERROR", s.decode(w, nil).Error.Code)
}

func (s *APITestSuite) TestUserLogin() {
	s.register("Jane", "jane@example.com")

	w := s.do(http.MethodPost, "/api/users/login", "", map[string]string{"email": "jane@example.com", "password": "wrong-pass"})
	s.Equal(http.StatusUnauthorized, w.Code)

	jane := s.login("JANE@example.com", "secret123")
	s.Equal("Jane", jane.Name)
}

func (s *APITestSuite) TestProfile() {
	jane := s.register("Jane", "jane@example.com")

	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/users/profile", "", nil).Code)

	w := s.do(http.MethodGet, "/api/users/profile", jane.Token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var profile models.User
	s.decode(w, &profile)
	s.Equal("jane@example.com", profile.Email)
	s.NotContains(w.Body.String(), "password")

	w = s.do(http.MethodPut, "/api/users/profile", jane.Token, map[string]string{"name": "Janet"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var updated authResponse
	s.decode(w, &updated)
	s.Equal("Janet", updated.Name)
	s.NotEmpty(updated.Token)

	w = s.do(http.MethodPut, "/api/users/profile", jane.Token, map[string]string{"email": "admin@example.com"})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("user already exists", s.decode(w, nil).Error.Message)
}

type guardedRoute struct {
	method  string
	pattern string
}

func (r guardedRoute) path(id string) string {
	return strings.NewReplacer(":id", id, ":slug", "free-shirt").Replace(r.pattern)
}

var (
	publicRoutes = []guardedRoute{
		{http.MethodGet, "/health"},
		{http.MethodGet, "/uploads/*filepath"},
		{http.MethodHead, "/uploads/*filepath"},
		{http.MethodPost, "/api/users/register"},
		{http.MethodPost, "/api/users/login"},
		{http.MethodGet, "/api/products"},
		{http.MethodGet, "/api/products/search"},
		{http.MethodGet, "/api/products/categories"},
		{http.MethodGet, "/api/products/top-rated"},
		{http.MethodGet, "/api/products/featured"},
		{http.MethodGet, "/api/products/slug/:slug"},
		{http.MethodGet, "/api/products/:id"},
		{http.MethodGet, "/api/session"},
		{http.MethodPost, "/api/session/actions"},
	}
	authRoutes = []guardedRoute{
		{http.MethodGet, "/api/users/profile"},
		{http.MethodPut, "/api/users/profile"},
		{http.MethodPost, "/api/products/:id/reviews"},
		{http.MethodPost, "/api/orders"},
		{http.MethodGet, "/api/orders/history"},
		{http.MethodGet, "/api/orders/:id"},
		{http.MethodPut, "/api/orders/:id/pay"},
		{http.MethodPost, "/api/orders/:id/payment-intent"},
		{http.MethodGet, "/api/keys/paypal"},
		{http.MethodGet, "/api/keys/stripe"},
	}
	adminRoutes = []guardedRoute{
		{http.MethodGet, "/api/admin/summary"},
		{http.MethodGet, "/api/admin/orders"},
		{http.MethodGet, "/api/admin/orders/export"},
		{http.MethodPut, "/api/admin/orders/:id/delivered"},
		{http.MethodGet, "/api/admin/products"},
		{http.MethodPost, "/api/admin/products"},
		{http.MethodGet, "/api/admin/products/:id"},
		{http.MethodPut, "/api/admin/products/:id"},
		{http.MethodDelete, "/api/admin/products/:id"},
		{http.MethodGet, "/api/admin/users"},
		{http.MethodGet, "/api/admin/users/:id"},
		{http.MethodPut, "/api/admin/users/:id"},
		{http.MethodDelete, "/api/admin/users/:id"},
		{http.MethodPost, "/api/admin/upload"},
	}
)

func (s *APITestSuite) TestEveryRouteIsClassified() {
	known := map[guardedRoute]bool{}
	for _, group := range [][]guardedRoute{publicRoutes, authRoutes, adminRoutes} {
		for _, r := range group {
			known[r] = true
		}
	}

	for _, info := range s.router.Routes() {
		s.True(known[guardedRoute{info.Method, info.Path}], "unclassified route %s %s", info.Method, info.Path)
	}
}

func (s *APITestSuite) TestAuthenticatedRoutesRequireToken() {
	id := s.shirt.ID.String()
	for _, r := range append(append([]guardedRoute{}, authRoutes...), adminRoutes...) {
		w := s.do(r.method, r.path(id), "", nil)
		s.Equal(http.StatusUnauthorized, w.Code, "%s %s", r.method, r.pattern)

		w = s.do(r.method, r.path(id), "not-a-jwt", nil)
		s.Equal(http.StatusUnauthorized, w.Code, "%s %s with garbage token", r.method, r.pattern)
	}
}

func (s *APITestSuite) TestAdminRoutesRejectCustomers() {
	jane := s.register("Jane", "jane@example.com")
	id := s.shirt.ID.String()

	for _, r := range adminRoutes {
		w := s.do(r.method, r.path(id), jane.Token, nil)
		s.Equal(http.StatusForbidden, w.Code, "%s %s", r.method, r.pattern)
		s.Equal("FORBIDDEN", s.decode(w, nil).Error.Code)
	}

	// the catalog is untouched by the rejected writes
	product, err := s.store.Products().GetByID(context.Background(), s.shirt.ID)
	s.Require().NoError(err)
	s.Equal("Free Shirt", product.Name)
}

func (s *APITestSuite) TestAuthRoutesAreRateLimited() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := &config.Config{
		JWT:     config.JWTConfig{SecretKey: "router-test-secret", TTLHours: 1},
		Session: config.SessionConfig{HashKey: "0123456789abcdef0123456789abcdef", MaxAge: 3600},
	}
	limited := router.New(ctx, cfg, router.Dependencies{
		Users:     s.store.Users(),
		Products:  s.store.Products(),
		Orders:    s.store.Orders(),
		RateLimit: true,
	})

	codes := make([]int, 0, 6)
	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/users/login",
			strings.NewReader(`{"email":"admin@example.com","password":"wrong-pass"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		limited.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	unauthorized := http.StatusUnauthorized
	s.Equal([]int{unauthorized, unauthorized, unauthorized, unauthorized, unauthorized, http.StatusTooManyRequests}, codes)
}

func (s *APITestSuite) TestCatalog() {
	w := s.do(http.MethodGet, "/api/products", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var products []models.Product
	s.decode(w, &products)
	s.Len(products, 2)

	w = s.do(http.MethodGet, "/api/products?category=Pants", "", nil)
	s.decode(w, &products)
	s.Require().Len(products, 1)
	s.Equal("Golf Pants", products[0].Name)

	w = s.do(http.MethodGet, "/api/products/categories", "", nil)
	var categories []string
	s.decode(w, &categories)
	s.Equal([]string{"Pants", "Shirts"}, categories)

	w = s.do(http.MethodGet, "/api/products/featured", "", nil)
	s.decode(w, &products)
	s.Require().Len(products, 1)
	s.Equal("Free Shirt", products[0].Name)

	w = s.do(http.MethodGet, "/api/products/slug/golf-pants", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var product models.Product
	s.decode(w, &product)
	s.Equal(s.pants.ID, product.ID)
	s.NotNil(product.Reviews)

	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/products/"+uuid.NewString(), "", nil).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/api/products/not-a-uuid", "", nil).Code)
}

func (s *APITestSuite) TestSearch() {
	w := s.do(http.MethodGet, "/api/products/search?category=all&price=50-100&sort=highest&page=1&limit=1", "", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var products []models.Product
	env := s.decode(w, &products)
	s.Require().Len(products, 1)
	s.Equal("Golf Pants", products[0].Name)
	s.Equal("2", w.Header().Get("X-Total-Count"))

	var meta struct {
		Pagination struct {
			Total      int64 `json:"total"`
			TotalPages int   `json:"total_pages"`
		} `json:"pagination"`
	}
	s.Require().NoError(json.Unmarshal(env.Meta, &meta))
	s.EqualValues(2, meta.Pagination.Total)
	s.Equal(2, meta.Pagination.TotalPages)

	w = s.do(http.MethodGet, "/api/products/search?price=cheap", "", nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("Invalid price", s.decode(w, nil).Error.Message)
	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/api/products/search?rating=high", "", nil).Code)
}

func (s *APITestSuite) TestReviews() {
	jane := s.register("Jane", "jane@example.com")
	path := "/api/products/" + s.shirt.ID.String() + "/reviews"

	s.Equal(http.StatusUnauthorized, s.do(http.MethodPost, path, "", map[string]interface{}{"rating": 5, "comment": "nice"}).Code)
	s.Equal(http.StatusBadRequest, s.do(http.MethodPost, path, jane.Token, map[string]interface{}{"rating": 6, "comment": "nice"}).Code)

	w := s.do(http.MethodPost, path, jane.Token, map[string]interface{}{"rating": 5, "comment": "nice"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, path, jane.Token, map[string]interface{}{"rating": 3, "comment": "faded"})
	s.Require().Equal(http.StatusOK, w.Code)
	var body struct {
		Reviews []models.Review `json:"reviews"`
	}
	s.decode(w, &body)
	s.Require().Len(body.Reviews, 1)
	s.Equal("Jane", body.Reviews[0].Name)
	s.Equal("faded", body.Reviews[0].Comment)

	var product models.Product
	s.decode(s.do(http.MethodGet, "/api/products/"+s.shirt.ID.String(), "", nil), &product)
	s.Equal(1, product.NumReviews)
	s.InDelta(3.0, product.Rating, 1e-9)

	s.Equal(http.StatusNotFound, s.do(http.MethodPost, "/api/products/"+uuid.NewString()+"/reviews", jane.Token, map[string]interface{}{"rating": 4, "comment": "x"}).Code)
}

func (s *APITestSuite) TestOrderLifecycle() {
	jane := s.register("Jane", "jane@example.com")
	bob := s.register("Bob", "bob@example.com")

	s.Equal(http.StatusUnauthorized, s.do(http.MethodPost, "/api/orders", "", map[string]string{}).Code)

	w := s.do(http.MethodPost, "/api/orders", jane.Token, map[string]interface{}{"orderItems": []interface{}{}, "paymentMethod": "PayPal"})
	s.Equal(http.StatusBadRequest, w.Code)

	order := s.placeOrder(jane.Token, "PayPal")
	s.False(order.IsPaid)
	s.Equal("Taiwan", order.ShippingAddress.Country)

	orderPath := "/api/orders/" + order.ID.String()
	s.Equal(http.StatusOK, s.do(http.MethodGet, orderPath, jane.Token, nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, orderPath, bob.Token, nil).Code)
	s.Equal(http.StatusOK, s.do(http.MethodGet, orderPath, s.admin.Token, nil).Code)

	var history []models.Order
	s.decode(s.do(http.MethodGet, "/api/orders/history", jane.Token, nil), &history)
	s.Len(history, 1)
	s.decode(s.do(http.MethodGet, "/api/orders/history", bob.Token, nil), &history)
	s.Empty(history)

	w = s.do(http.MethodPut, orderPath+"/pay", jane.Token, map[string]string{"id": "PAY-1", "status": "COMPLETED", "email_address": "jane@example.com"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var paid struct {
		Order models.Order `json:"order"`
	}
	s.decode(w, &paid)
	s.True(paid.Order.IsPaid)
	s.Equal("COMPLETED", paid.Order.PaymentResult["status"])

	s.Equal(http.StatusForbidden, s.do(http.MethodPut, "/api/admin/orders/"+order.ID.String()+"/delivered", jane.Token, nil).Code)
	w = s.do(http.MethodPut, "/api/admin/orders/"+order.ID.String()+"/delivered", s.admin.Token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var delivered struct {
		Order models.Order `json:"order"`
	}
	s.decode(w, &delivered)
	s.True(delivered.Order.IsDelivered)

	var all []models.Order
	s.decode(s.do(http.MethodGet, "/api/admin/orders", s.admin.Token, nil), &all)
	s.Require().Len(all, 1)
	s.Require().NotNil(all[0].User)
	s.Equal("Jane", all[0].User.Name)
}

func (s *APITestSuite) TestCardPaymentsWithoutGateway() {
	jane := s.register("Jane", "jane@example.com")
	order := s.placeOrder(jane.Token, "Stripe")

	w := s.do(http.MethodPost, "/api/orders/"+order.ID.String()+"/payment-intent", jane.Token, nil)
	s.Equal(http.StatusServiceUnavailable, w.Code)
	s.Equal("PAYMENT_UNAVAILABLE", s.decode(w, nil).Error.Code)
}

func (s *APITestSuite) TestKeys() {
	jane := s.register("Jane", "jane@example.com")

	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/api/keys/paypal", "", nil).Code)

	w := s.do(http.MethodGet, "/api/keys/paypal", jane.Token, nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("sb", w.Body.String())

	var key struct {
		PublishableKey string `json:"publishableKey"`
	}
	s.decode(s.do(http.MethodGet, "/api/keys/stripe", jane.Token, nil), &key)
	s.Equal("pk_test", key.PublishableKey)
}

func (s *APITestSuite) TestAdminProducts() {
	jane := s.register("Jane", "jane@example.com")
	s.Equal(http.StatusForbidden, s.do(http.MethodPost, "/api/admin/products", jane.Token, nil).Code)

	w := s.do(http.MethodPost, "/api/admin/products", s.admin.Token, nil)
	s.Require().Equal(http.StatusCreated, w.Code)
	var created struct {
		Product models.Product `json:"product"`
	}
	s.decode(w, &created)
	s.Equal("simple name", created.Product.Name)

	path := "/api/admin/products/" + created.Product.ID.String()
	w = s.do(http.MethodPut, path, s.admin.Token, map[string]interface{}{"name": "Slim Shirt", "price": 65, "countInStock": 0})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var updated struct {
		Product models.Product `json:"product"`
	}
	s.decode(w, &updated)
	s.Equal("slim-shirt", updated.Product.Slug)
	s.True(decimal.NewFromInt(65).Equal(updated.Product.Price))

	var listed []models.Product
	s.decode(s.do(http.MethodGet, "/api/admin/products", s.admin.Token, nil), &listed)
	s.Len(listed, 3)

	s.Equal(http.StatusOK, s.do(http.MethodDelete, path, s.admin.Token, nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodDelete, path, s.admin.Token, nil).Code)
}

func (s *APITestSuite) TestAdminUsers() {
	jane := s.register("Jane", "jane@example.com")
	idle := s.register("Idle", "idle@example.com")
	s.placeOrder(jane.Token, "Cash")

	var users []models.User
	s.decode(s.do(http.MethodGet, "/api/admin/users", s.admin.Token, nil), &users)
	s.Len(users, 3)

	w := s.do(http.MethodPut, "/api/admin/users/"+idle.ID, s.admin.Token, map[string]interface{}{"name": "Promoted", "isAdmin": true})
	s.Require().Equal(http.StatusOK, w.Code)
	var updated struct {
		User models.User `json:"user"`
	}
	s.decode(w, &updated)
	s.True(updated.User.IsAdmin)
	s.Equal("Promoted", updated.User.Name)

	s.Equal(http.StatusConflict, s.do(http.MethodDelete, "/api/admin/users/"+jane.ID, s.admin.Token, nil).Code)
	s.Equal(http.StatusOK, s.do(http.MethodDelete, "/api/admin/users/"+idle.ID, s.admin.Token, nil).Code)
	s.Equal(http.StatusNotFound, s.do(http.MethodGet, "/api/admin/users/"+idle.ID, s.admin.Token, nil).Code)
}

func (s *APITestSuite) TestAdminSummaryAndExport() {
	jane := s.register("Jane", "jane@example.com")
	s.placeOrder(jane.Token, "PayPal")
	s.placeOrder(jane.Token, "Cash")

	var summary models.Summary
	s.decode(s.do(http.MethodGet, "/api/admin/summary", s.admin.Token, nil), &summary)
	s.EqualValues(2, summary.OrdersCount)
	s.EqualValues(2, summary.ProductsCount)
	s.EqualValues(2, summary.UsersCount)
	s.True(decimal.NewFromInt(140).Equal(summary.OrdersPrice))
	s.Require().Len(summary.SalesData, 1)

	w := s.do(http.MethodGet, "/api/admin/orders/export", s.admin.Token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.True(strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv"))
	s.Contains(w.Header().Get("Content-Disposition"), "orders-")
	s.Equal(3, strings.Count(strings.TrimSpace(w.Body.String()), "\n")+1)

	w = s.do(http.MethodGet, "/api/admin/orders/export?format=xlsx", s.admin.Token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.True(bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))

	s.Equal(http.StatusBadRequest, s.do(http.MethodGet, "/api/admin/orders/export?format=pdf", s.admin.Token, nil).Code)
}

func (s *APITestSuite) upload(filename string, content []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	s.Require().NoError(err)
	_, err = part.Write(content)
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+s.admin.Token)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *APITestSuite) TestUpload() {
	w := s.upload("shirt.png", pngHeader)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var result services.UploadResult
	s.decode(w, &result)
	s.True(strings.HasPrefix(result.SecureURL, "http://localhost:8080/uploads/products/"))

	// the stored file is served back from /uploads
	served := s.do(http.MethodGet, "/uploads/"+result.Key, "", nil)
	s.Equal(http.StatusOK, served.Code)
	s.Equal(pngHeader, served.Body.Bytes())

	s.Equal(http.StatusBadRequest, s.upload("notes.png", []byte("plain text")).Code)
}

func (s *APITestSuite) dispatch(actionType string, payload interface{}) *httptest.ResponseRecorder {
	action := map[string]interface{}{"type": actionType}
	if payload != nil {
		action["payload"] = payload
	}
	w := s.do(http.MethodPost, "/api/session/actions", "", action)
	s.keepCookies(w)
	return w
}

func (s *APITestSuite) session() cart.State {
	var state cart.State
	s.decode(s.do(http.MethodGet, "/api/session", "", nil), &state)
	return state
}

func (s *APITestSuite) TestSessionCart() {
	state := s.session()
	s.Empty(state.Cart.CartItems)
	s.Nil(state.UserInfo)

	s.Equal(http.StatusOK, s.dispatch(cart.ActionCartAddItem, map[string]interface{}{"productId": s.shirt.ID}).Code)
	s.Equal(http.StatusOK, s.dispatch(cart.ActionCartAddItem, map[string]interface{}{"productId": s.shirt.ID}).Code)

	state = s.session()
	s.Require().Len(state.Cart.CartItems, 1)
	s.Equal(2, state.Cart.CartItems[0].Quantity)
	s.Equal("Free Shirt", state.Cart.CartItems[0].Name)

	// only two in stock
	w := s.dispatch(cart.ActionCartAddItem, map[string]interface{}{"productId": s.shirt.ID})
	s.Equal(http.StatusBadRequest, w.Code)

	s.Equal(http.StatusOK, s.dispatch(cart.ActionCartAddItem, map[string]interface{}{"productId": s.pants.ID, "quantity": 3}).Code)
	s.Equal(http.StatusOK, s.dispatch(cart.ActionCartRemoveItem, map[string]interface{}{"id": s.shirt.ID}).Code)
	s.Equal(http.StatusOK, s.dispatch(cart.ActionSavePaymentMethod, "PayPal").Code)
	s.Equal(http.StatusOK, s.dispatch(cart.ActionDarkModeOn, nil).Code)

	state = s.session()
	s.Require().Len(state.Cart.CartItems, 1)
	s.Equal(s.pants.ID, state.Cart.CartItems[0].ProductID)
	s.Equal("PayPal", state.Cart.PaymentMethod)
	s.True(state.DarkMode)

	s.Equal(http.StatusOK, s.dispatch(cart.ActionCartClear, nil).Code)
	s.Empty(s.session().Cart.CartItems)

	s.Equal(http.StatusNotFound, s.dispatch(cart.ActionCartAddItem, map[string]interface{}{"productId": uuid.New()}).Code)
	s.Equal(http.StatusBadRequest, s.dispatch("CART_EXPLODE", nil).Code)
}

func (s *APITestSuite) TestSessionCartHoldsManyProducts() {
	ctx := context.Background()
	ids := make([]uuid.UUID, 0, cart.MaxCartLines)
	for i := 0; i < cart.MaxCartLines; i++ {
		p := &models.Product{
			Name:         fmt.Sprintf("Limited Tee %02d", i),
			Slug:         fmt.Sprintf("limited-tee-%02d", i),
			Category:     "Shirts",
			Price:        decimal.NewFromInt(int64(10 + i)),
			CountInStock: 5,
		}
		s.Require().NoError(s.store.Products().Create(ctx, p))
		ids = append(ids, p.ID)
	}

	for i, id := range ids {
		w := s.dispatch(cart.ActionCartAddItem, map[string]interface{}{"productId": id})
		s.Require().Equal(http.StatusOK, w.Code, "item %d: %s", i+1, w.Body.String())
	}

	state := s.session()
	s.Require().Len(state.Cart.CartItems, cart.MaxCartLines)
	s.Equal("Limited Tee 00", state.Cart.CartItems[0].Name)
	s.Equal(fmt.Sprintf("Limited Tee %02d", cart.MaxCartLines-1), state.Cart.CartItems[cart.MaxCartLines-1].Name)

	w := s.dispatch(cart.ActionCartAddItem, map[string]interface{}{"productId": s.pants.ID})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(s.decode(w, nil).Error.Message, fmt.Sprint(cart.MaxCartLines))

	// a product removed from the catalog drops out of the cart
	s.Require().NoError(s.store.Products().Delete(ctx, ids[0]))
	state = s.session()
	s.Len(state.Cart.CartItems, cart.MaxCartLines-1)
	s.Equal(http.StatusOK, s.dispatch(cart.ActionCartAddItem, map[string]interface{}{"productId": s.pants.ID}).Code)
}

func (s *APITestSuite) TestSessionLoginLogout() {
	s.Equal(http.StatusUnauthorized, s.dispatch(cart.ActionUserLogin, map[string]string{"token": "forged"}).Code)

	s.Equal(http.StatusOK, s.dispatch(cart.ActionUserLogin, map[string]string{"token": s.admin.Token}).Code)
	s.Equal(http.StatusOK, s.dispatch(cart.ActionCartAddItem, map[string]interface{}{"productId": s.pants.ID}).Code)
	s.Equal(http.StatusOK, s.dispatch(cart.ActionDarkModeOn, nil).Code)

	state := s.session()
	s.Require().NotNil(state.UserInfo)
	s.Equal("admin@example.com", state.UserInfo.Email)
	s.True(state.UserInfo.IsAdmin)

	s.Equal(http.StatusOK, s.dispatch(cart.ActionUserLogout, nil).Code)
	state = s.session()
	s.Nil(state.UserInfo)
	s.Empty(state.Cart.CartItems)
	s.True(state.DarkMode)
}

func (s *APITestSuite) TestAuditTrail() {
	s.register("Jane", "jane@example.com")

	s.Eventually(func() bool {
		for _, entry := range s.store.Audit().Entries() {
			if entry.Action == "POST /api/users/register" {
				return entry.NewValues["password"] == "[REDACTED]"
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
