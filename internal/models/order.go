// internal/models/order.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem is a snapshot of a product at checkout time. It is never
// re-read from the catalog.
type OrderItem struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

type OrderItems []OrderItem

func (o OrderItems) Value() (driver.Value, error) {
	if o == nil {
		return "[]", nil
	}
	b, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (o *OrderItems) Scan(value interface{}) error {
	if value == nil {
		*o = nil
		return nil
	}
	return json.Unmarshal(toBytes(value), o)
}

// ItemsTotal sums price*quantity over the snapshot.
func (o OrderItems) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

type ShippingAddress struct {
	FullName   string `json:"fullName" gorm:"size:255"`
	Address    string `json:"address" gorm:"size:255"`
	City       string `json:"city" gorm:"size:100"`
	PostalCode string `json:"postalCode" gorm:"size:20"`
	Country    string `json:"country" gorm:"size:100"`
}

type Order struct {
	BaseModel
	UserID          uuid.UUID       `json:"user" gorm:"type:uuid;not null;index"`
	OrderItems      OrderItems      `json:"orderItems" gorm:"type:jsonb;not null"`
	ShippingAddress ShippingAddress `json:"shippingAddress" gorm:"embedded;embeddedPrefix:shipping_"`
	PaymentMethod   PaymentMethod   `json:"paymentMethod" gorm:"type:varchar(20);not null"`
	PaymentResult   JSONB           `json:"paymentResult,omitempty" gorm:"type:jsonb"`
	ItemsPrice      decimal.Decimal `json:"itemsPrice" gorm:"type:decimal(12,2);not null"`
	TaxPrice        decimal.Decimal `json:"taxPrice" gorm:"type:decimal(12,2);not null"`
	ShippingPrice   decimal.Decimal `json:"shippingPrice" gorm:"type:decimal(12,2);not null"`
	TotalPrice      decimal.Decimal `json:"totalPrice" gorm:"type:decimal(12,2);not null"`
	IsPaid          bool            `json:"isPaid" gorm:"not null;default:false"`
	PaidAt          *time.Time      `json:"paidAt"`
	IsDelivered     bool            `json:"isDelivered" gorm:"not null;default:false"`
	DeliveredAt     *time.Time      `json:"deliveredAt"`

	// Relationships
	User *User `json:"owner,omitempty" gorm:"foreignKey:UserID"`
}

// MonthlySales is one bucket of the admin sales series, keyed "YYYY-MM".
type MonthlySales struct {
	Month      string          `json:"month"`
	TotalSales decimal.Decimal `json:"totalSales"`
}
