// internal/router/router.go
package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/javajoker/storefront/internal/cart"
	"github.com/javajoker/storefront/internal/config"
	"github.com/javajoker/storefront/internal/handlers"
	"github.com/javajoker/storefront/internal/middleware"
	"github.com/javajoker/storefront/internal/repository"
	"github.com/javajoker/storefront/internal/services"
	"github.com/javajoker/storefront/internal/utils"
)

// Dependencies are the ports the HTTP layer is built on.
type Dependencies struct {
	Users    services.UserRepository
	Products services.ProductRepository
	Orders   services.OrderRepository
	Audit    services.AuditRepository

	// Gateway may be nil; card payments then answer 503.
	Gateway  services.PaymentGateway
	Notifier services.OrderNotifier
	Storage  *services.StorageService

	// RateLimit enables per-IP limiting; the limiters live until ctx ends.
	RateLimit bool
}

// Initialize wires the GORM repositories and external clients from cfg.
// Background work started for the engine stops when ctx is done.
func Initialize(ctx context.Context, db *gorm.DB, cfg *config.Config) (*gin.Engine, error) {
	repos := repository.New(db)

	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		return nil, err
	}

	var gateway services.PaymentGateway
	if cfg.Payment.StripeSecretKey != "" {
		gateway = services.NewStripeGateway(cfg.Payment.StripeSecretKey)
	}

	return New(ctx, cfg, Dependencies{
		Users:     repos.Users,
		Products:  repos.Products,
		Orders:    repos.Orders,
		Audit:     repos.Audit,
		Gateway:   gateway,
		Notifier:  services.NewNotificationService(cfg),
		Storage:   storageService,
		RateLimit: true,
	}), nil
}

func New(ctx context.Context, cfg *config.Config, deps Dependencies) *gin.Engine {
	// Initialize services
	authService := services.NewAuthService(deps.Users, cfg)
	userService := services.NewUserService(deps.Users, authService)
	productService := services.NewProductService(deps.Products, cfg.Catalog)
	paymentService := services.NewPaymentService(deps.Gateway, cfg.Payment)
	orderService := services.NewOrderService(deps.Orders, deps.Users, paymentService, deps.Notifier)
	adminService := services.NewAdminService(deps.Users, deps.Products, deps.Orders)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	productHandler := handlers.NewProductHandler(productService)
	orderHandler := handlers.NewOrderHandler(orderService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	adminHandler := handlers.NewAdminHandler(adminService, deps.Storage)
	sessionHandler := handlers.NewSessionHandler(cart.NewCodec(cfg.Session), productService)

	utils.SetJWTSecret(cfg.JWT.SecretKey)

	var limits *middleware.RateLimits
	if deps.RateLimit {
		limits = middleware.NewRateLimits(ctx)
	}

	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Frontend.AllowedOrigins))
	r.Use(middleware.I18nMiddleware())
	if limits != nil {
		r.Use(limits.General.Middleware())
	}
	if deps.Audit != nil {
		r.Use(middleware.AuditLogMiddleware(deps.Audit))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// Locally stored uploads
	if cfg.AWS.AccessKeyID == "" && cfg.Upload.Dir != "" {
		r.Static("/uploads", cfg.Upload.Dir)
	}

	api := r.Group("/api")
	{
		users := api.Group("/users")
		{
			authRoutes := users.Group("")
			if limits != nil {
				authRoutes.Use(limits.Auth.Middleware())
			}
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)

			users.GET("/profile", middleware.AuthRequired(), userHandler.GetProfile)
			users.PUT("/profile", middleware.AuthRequired(), userHandler.UpdateProfile)
		}

		products := api.Group("/products")
		{
			products.GET("", productHandler.GetProducts)
			products.GET("/search", productHandler.SearchProducts)
			products.GET("/categories", productHandler.GetCategories)
			products.GET("/top-rated", productHandler.GetTopRated)
			products.GET("/featured", productHandler.GetFeatured)
			products.GET("/slug/:slug", productHandler.GetProductBySlug)
			products.GET("/:id", productHandler.GetProduct)
			products.POST("/:id/reviews", middleware.AuthRequired(), productHandler.SubmitReview)
		}

		orders := api.Group("/orders")
		orders.Use(middleware.AuthRequired())
		{
			orders.POST("", orderHandler.CreateOrder)
			orders.GET("/history", orderHandler.GetOrderHistory)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.PUT("/:id/pay", orderHandler.PayOrder)
			orders.POST("/:id/payment-intent", orderHandler.CreatePaymentIntent)
		}

		keys := api.Group("/keys")
		keys.Use(middleware.AuthRequired())
		{
			keys.GET("/paypal", paymentHandler.GetPayPalClientID)
			keys.GET("/stripe", paymentHandler.GetStripeKey)
		}

		session := api.Group("/session")
		{
			session.GET("", sessionHandler.GetSession)
			session.POST("/actions", sessionHandler.Dispatch)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/summary", adminHandler.GetSummary)

			admin.GET("/orders", orderHandler.ListOrders)
			admin.GET("/orders/export", adminHandler.ExportOrders)
			admin.PUT("/orders/:id/delivered", orderHandler.DeliverOrder)

			admin.GET("/products", productHandler.AdminListProducts)
			admin.POST("/products", productHandler.CreateProduct)
			admin.GET("/products/:id", productHandler.GetProduct)
			admin.PUT("/products/:id", productHandler.UpdateProduct)
			admin.DELETE("/products/:id", productHandler.DeleteProduct)

			admin.GET("/users", userHandler.ListUsers)
			admin.GET("/users/:id", userHandler.GetUser)
			admin.PUT("/users/:id", userHandler.UpdateUser)
			admin.DELETE("/users/:id", userHandler.DeleteUser)

			upload := admin.Group("/upload")
			if limits != nil {
				upload.Use(limits.Upload.Middleware())
			}
			upload.POST("", adminHandler.Upload)
		}
	}

	return r
}
