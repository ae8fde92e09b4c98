// internal/cart/reducer.go
package cart

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/javajoker/storefront/internal/models"
)

const (
	ActionDarkModeOn          = "DARK_MODE_ON"
	ActionDarkModeOff         = "DARK_MODE_OFF"
	ActionCartAddItem         = "CART_ADD_ITEM"
	ActionCartRemoveItem      = "CART_REMOVE_ITEM"
	ActionCartClear           = "CART_CLEAR"
	ActionUserLogin           = "USER_LOGIN"
	ActionUserLogout          = "USER_LOGOUT"
	ActionSaveShippingAddress = "SAVE_SHIPPING_ADDRESS"
	ActionSavePaymentMethod   = "SAVE_PAYMENT_METHOD"
)

type Action struct {
	Type    string          `json:"type" validate:"required"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewAction marshals payload into an Action.
func NewAction(actionType string, payload interface{}) (Action, error) {
	if payload == nil {
		return Action{Type: actionType}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Action{}, fmt.Errorf("encode %s payload: %w", actionType, err)
	}
	return Action{Type: actionType, Payload: raw}, nil
}

// Store persists individual slices of State between requests.
type Store interface {
	Set(key string, value interface{}) error
	Remove(key string)
	// Get decodes the slice stored under key into dst. found is false
	// when nothing is stored.
	Get(key string, dst interface{}) (found bool, err error)
}

// ErrCartFull rejects a new line once the cart holds MaxCartLines products.
var ErrCartFull = errors.New("cart is full")

// StoreError reports a slice of State that could not be persisted.
type StoreError struct {
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// commit writes value under key and returns next, or prev with a
// *StoreError when the write fails.
func commit(prev, next State, store Store, key string, value interface{}) (State, error) {
	if err := store.Set(key, value); err != nil {
		return prev, &StoreError{Key: key, Err: err}
	}
	return next, nil
}

// RemoveItemPayload identifies the line dropped by CART_REMOVE_ITEM.
type RemoveItemPayload struct {
	ID uuid.UUID `json:"id"`
}

// Reduce applies action to state and mirrors the touched slice into store.
// The input state is never modified. Unknown actions return state as is,
// and so does a failed write.
//
// CART_ADD_ITEM replaces an existing line for the same product; the caller
// decides the quantity before dispatch.
func Reduce(state State, action Action, store Store) (State, error) {
	next := state.clone()

	switch action.Type {
	case ActionDarkModeOn:
		next.DarkMode = true
		return commit(state, next, store, KeyDarkMode, "ON")

	case ActionDarkModeOff:
		next.DarkMode = false
		return commit(state, next, store, KeyDarkMode, "OFF")

	case ActionCartAddItem:
		var item Item
		if err := decode(action, &item); err != nil {
			return state, err
		}
		replaced := false
		for i := range next.Cart.CartItems {
			if next.Cart.CartItems[i].ProductID == item.ProductID {
				next.Cart.CartItems[i] = item
				replaced = true
			}
		}
		if !replaced {
			if len(next.Cart.CartItems) >= MaxCartLines {
				return state, ErrCartFull
			}
			next.Cart.CartItems = append(next.Cart.CartItems, item)
		}
		return commit(state, next, store, KeyCartItems, toLines(next.Cart.CartItems))

	case ActionCartRemoveItem:
		var payload RemoveItemPayload
		if err := decode(action, &payload); err != nil {
			return state, err
		}
		kept := make([]Item, 0, len(next.Cart.CartItems))
		for _, item := range next.Cart.CartItems {
			if item.ProductID != payload.ID {
				kept = append(kept, item)
			}
		}
		next.Cart.CartItems = kept
		return commit(state, next, store, KeyCartItems, toLines(next.Cart.CartItems))

	case ActionCartClear:
		next.Cart.CartItems = []Item{}
		store.Remove(KeyCartItems)
		return next, nil

	case ActionUserLogin:
		var user UserInfo
		if err := decode(action, &user); err != nil {
			return state, err
		}
		next.UserInfo = &user
		return commit(state, next, store, KeyUserInfo, user)

	case ActionUserLogout:
		next.UserInfo = nil
		next.Cart = Cart{CartItems: []Item{}}
		for _, key := range []string{KeyUserInfo, KeyCartItems, KeyShippingAddress, KeyPaymentMethod} {
			store.Remove(key)
		}
		return next, nil

	case ActionSaveShippingAddress:
		var address models.ShippingAddress
		if err := decode(action, &address); err != nil {
			return state, err
		}
		next.Cart.ShippingAddress = address
		return commit(state, next, store, KeyShippingAddress, address)

	case ActionSavePaymentMethod:
		var method string
		if err := decode(action, &method); err != nil {
			return state, err
		}
		next.Cart.PaymentMethod = method
		return commit(state, next, store, KeyPaymentMethod, method)

	default:
		return state, nil
	}
}

// Load rebuilds State from whatever slices store holds. Slices that fail
// to decode are treated as absent. Cart lines carry only product id and
// quantity until Hydrate fills in the catalog details.
func Load(store Store) State {
	state := Empty()

	var darkMode string
	if ok, err := store.Get(KeyDarkMode, &darkMode); ok && err == nil {
		state.DarkMode = darkMode == "ON"
	}

	var lines []line
	if ok, err := store.Get(KeyCartItems, &lines); ok && err == nil {
		for _, l := range lines {
			state.Cart.CartItems = append(state.Cart.CartItems, Item{ProductID: l.ProductID, Quantity: l.Quantity})
		}
	}

	var address models.ShippingAddress
	if ok, err := store.Get(KeyShippingAddress, &address); ok && err == nil {
		state.Cart.ShippingAddress = address
	}

	var method string
	if ok, err := store.Get(KeyPaymentMethod, &method); ok && err == nil {
		state.Cart.PaymentMethod = method
	}

	var user UserInfo
	if ok, err := store.Get(KeyUserInfo, &user); ok && err == nil {
		state.UserInfo = &user
	}

	return state
}

func decode(action Action, dst interface{}) error {
	if len(action.Payload) == 0 {
		return fmt.Errorf("%s: payload is required", action.Type)
	}
	if err := json.Unmarshal(action.Payload, dst); err != nil {
		return fmt.Errorf("%s: invalid payload: %w", action.Type, err)
	}
	return nil
}

func (s State) clone() State {
	next := s
	next.Cart.CartItems = append([]Item(nil), s.Cart.CartItems...)
	if next.Cart.CartItems == nil {
		next.Cart.CartItems = []Item{}
	}
	if s.UserInfo != nil {
		user := *s.UserInfo
		next.UserInfo = &user
	}
	return next
}
