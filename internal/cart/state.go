// internal/cart/state.go
package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/javajoker/storefront/internal/models"
)

// Cookie names for each persisted slice of State.
const (
	KeyDarkMode        = "darkMode"
	KeyCartItems       = "cartItems"
	KeyShippingAddress = "shippingAddress"
	KeyPaymentMethod   = "paymentMethod"
	KeyUserInfo        = "userInfo"
)

// MaxCartLines bounds the distinct products in a cart. At this size the
// signed and encrypted cartItems cookie stays well under the 4096 byte
// limit browsers and securecookie enforce.
const MaxCartLines = 30

// Item is a product snapshot plus the requested quantity.
type Item struct {
	ProductID    uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Slug         string          `json:"slug"`
	Image        string          `json:"image"`
	Price        decimal.Decimal `json:"price"`
	CountInStock int             `json:"countInStock"`
	Quantity     int             `json:"quantity"`
}

// line is the persisted form of an Item. Product details are re-read from
// the catalog through Hydrate.
type line struct {
	ProductID uuid.UUID `json:"id"`
	Quantity  int       `json:"quantity"`
}

func toLines(items []Item) []line {
	lines := make([]line, 0, len(items))
	for _, item := range items {
		lines = append(lines, line{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines
}

type UserInfo struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	Token   string `json:"token"`
}

type Cart struct {
	CartItems       []Item                 `json:"cartItems"`
	ShippingAddress models.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
}

type State struct {
	DarkMode bool      `json:"darkMode"`
	Cart     Cart      `json:"cart"`
	UserInfo *UserInfo `json:"userInfo"`
}

// Empty is the state of a visitor with no cookies.
func Empty() State {
	return State{Cart: Cart{CartItems: []Item{}}}
}

// Find returns the cart line for productID.
func (s State) Find(productID uuid.UUID) (Item, bool) {
	for _, item := range s.Cart.CartItems {
		if item.ProductID == productID {
			return item, true
		}
	}
	return Item{}, false
}

// ItemsPrice sums price*quantity over the cart.
func (c Cart) ItemsPrice() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.CartItems {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

// Snapshot returns the live catalog view of a product. found is false when
// the product no longer exists.
type Snapshot func(productID uuid.UUID) (item Item, found bool, err error)

// Hydrate refreshes every cart line from snapshot while keeping the chosen
// quantities. Lines for vanished products are dropped.
func (s State) Hydrate(snapshot Snapshot) (State, error) {
	next := s.clone()
	items := make([]Item, 0, len(next.Cart.CartItems))
	for _, item := range next.Cart.CartItems {
		fresh, found, err := snapshot(item.ProductID)
		if err != nil {
			return s, err
		}
		if !found {
			continue
		}
		fresh.ProductID = item.ProductID
		fresh.Quantity = item.Quantity
		items = append(items, fresh)
	}
	next.Cart.CartItems = items
	return next, nil
}
