// internal/database/connection.go
package database

import (
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javajoker/storefront/internal/config"
	"github.com/javajoker/storefront/internal/models"
)

const (
	defaultAdminEmail    = "admin@example.com"
	defaultAdminPassword = "admin123!@#"
)

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	return Open(postgres.Open(cfg.DSN()), cfg)
}

// Open connects through the given dialector and applies the pool settings.
// Repositories rely on TranslateError to see gorm.ErrDuplicatedKey and
// gorm.ErrForeignKeyViolated.
func Open(dialector gorm.Dialector, cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.Info("Database connection established successfully")
	return db, nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	default:
		return logger.Info
	}
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations...")

	// gen_random_uuid() lives in pgcrypto before PostgreSQL 13
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		return fmt.Errorf("failed to create pgcrypto extension: %w", err)
	}

	err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Review{},
		&models.Order{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logrus.Info("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_brand ON products(brand)",
		"CREATE INDEX IF NOT EXISTS idx_products_price ON products(price)",
		"CREATE INDEX IF NOT EXISTS idx_products_rating ON products(rating DESC)",
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_user_created ON orders(user_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC)",

		// Audit indexes
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_user_action ON audit_logs(user_id, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			// Continue with other indexes instead of failing completely
			logrus.WithError(err).Warnf("Failed to create index: %s", index)
		}
	}

	return nil
}

// SeedInitialData creates the default administrator and a starter catalog
// when the tables are empty.
func SeedInitialData(db *gorm.DB) error {
	logrus.Info("Seeding initial data...")

	var adminCount int64
	if err := db.Model(&models.User{}).Where("is_admin = ?", true).Count(&adminCount).Error; err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}

	if adminCount == 0 {
		admin := &models.User{
			Name:    "Admin",
			Email:   defaultAdminEmail,
			IsAdmin: true,
		}
		if err := admin.SetPassword(defaultAdminPassword); err != nil {
			return fmt.Errorf("failed to set admin password: %w", err)
		}
		if err := db.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}
		logrus.WithField("email", admin.Email).Info("Default admin user created successfully")
	}

	var productCount int64
	if err := db.Model(&models.Product{}).Count(&productCount).Error; err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	if productCount > 0 {
		logrus.Info("Initial data seeding completed")
		return nil
	}

	for _, product := range sampleProducts() {
		product := product
		if err := db.Omit("Reviews").Create(&product).Error; err != nil {
			logrus.WithError(err).Warnf("Failed to create sample product %s", product.Slug)
		}
	}

	logrus.Info("Initial data seeding completed")
	return nil
}

func sampleProducts() []models.Product {
	return []models.Product{
		{
			Name:          "Free Shirt",
			Slug:          "free-shirt",
			Category:      "Shirts",
			Brand:         "Nike",
			Image:         "/images/shirt1.jpg",
			FeaturedImage: "/images/banner1.jpg",
			Images:        pq.StringArray{"/images/shirt1.jpg"},
			IsFeatured:    true,
			Price:         decimal.NewFromInt(70),
			CountInStock:  20,
			Description:   "A popular shirt",
		},
		{
			Name:          "Fit Shirt",
			Slug:          "fit-shirt",
			Category:      "Shirts",
			Brand:         "Adidas",
			Image:         "/images/shirt2.jpg",
			FeaturedImage: "/images/banner2.jpg",
			Images:        pq.StringArray{"/images/shirt2.jpg"},
			IsFeatured:    true,
			Price:         decimal.NewFromInt(80),
			CountInStock:  20,
			Description:   "A popular shirt",
		},
		{
			Name:         "Slim Shirt",
			Slug:         "slim-shirt",
			Category:     "Shirts",
			Brand:        "Raymond",
			Image:        "/images/shirt3.jpg",
			Images:       pq.StringArray{"/images/shirt3.jpg"},
			Price:        decimal.NewFromInt(90),
			CountInStock: 20,
			Description:  "A popular shirt",
		},
		{
			Name:         "Golf Pants",
			Slug:         "golf-pants",
			Category:     "Pants",
			Brand:        "Oliver",
			Image:        "/images/pants1.jpg",
			Images:       pq.StringArray{"/images/pants1.jpg"},
			Price:        decimal.NewFromInt(90),
			CountInStock: 20,
			Description:  "Smart looking pants",
		},
		{
			Name:         "Fit Pants",
			Slug:         "fit-pants",
			Category:     "Pants",
			Brand:        "Zara",
			Image:        "/images/pants2.jpg",
			Images:       pq.StringArray{"/images/pants2.jpg"},
			Price:        decimal.NewFromInt(95),
			CountInStock: 20,
			Description:  "A popular pants",
		},
		{
			Name:         "Classic Pants",
			Slug:         "classic-pants",
			Category:     "Pants",
			Brand:        "Casely",
			Image:        "/images/pants3.jpg",
			Images:       pq.StringArray{"/images/pants3.jpg"},
			Price:        decimal.NewFromInt(75),
			CountInStock: 20,
			Description:  "A popular pants",
		},
	}
}

// WithTransaction runs fn inside a transaction, rolling back on error or panic.
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
