// internal/models/admin.go
package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AuditLog struct {
	BaseModel
	UserID       *uuid.UUID `json:"userId" gorm:"type:uuid;index"`
	Action       string     `json:"action" gorm:"size:100;not null;index"`
	ResourceType string     `json:"resourceType" gorm:"size:50;not null;index"`
	ResourceID   *uuid.UUID `json:"resourceId" gorm:"type:uuid;index"`
	NewValues    JSONB      `json:"newValues" gorm:"type:jsonb"`
	Status       int        `json:"status"`
	IPAddress    string     `json:"ipAddress" gorm:"size:45"`
	UserAgent    string     `json:"userAgent" gorm:"type:text"`
}

// Summary is the admin dashboard payload. Every field is computed on read.
type Summary struct {
	OrdersCount       int64           `json:"ordersCount"`
	ProductsCount     int64           `json:"productsCount"`
	UsersCount        int64           `json:"usersCount"`
	OrdersPrice       decimal.Decimal `json:"ordersPrice"`
	AverageOrderValue float64         `json:"averageOrderValue"`
	SalesData         []MonthlySales  `json:"salesData"`
}
