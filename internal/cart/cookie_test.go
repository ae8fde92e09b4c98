package cart

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/storefront/internal/config"
)

func testCodec() *Codec {
	return NewCodec(config.SessionConfig{
		HashKey:  "0123456789abcdef0123456789abcdef",
		BlockKey: "abcdef0123456789",
		MaxAge:   3600,
	})
}

func TestCookieStoreRoundTrip(t *testing.T) {
	codec := testCodec()

	rec := httptest.NewRecorder()
	store := codec.Store(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	state := dispatch(t, Empty(), store, ActionCartAddItem, shirt(2))
	state = dispatch(t, state, store, ActionSavePaymentMethod, "Stripe")

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		assert.True(t, c.HttpOnly)
		next.AddCookie(c)
	}

	loaded := Load(codec.Store(httptest.NewRecorder(), next))
	assert.Equal(t, state.Cart.PaymentMethod, loaded.Cart.PaymentMethod)
	require.Len(t, loaded.Cart.CartItems, 1)
	assert.Equal(t, 2, loaded.Cart.CartItems[0].Quantity)
}

func TestCookieStoreRejectsTamperedValues(t *testing.T) {
	codec := testCodec()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: KeyPaymentMethod, Value: "Cash"})

	var method string
	found, err := codec.Store(httptest.NewRecorder(), req).Get(KeyPaymentMethod, &method)
	assert.True(t, found)
	assert.Error(t, err)
	assert.Empty(t, Load(codec.Store(httptest.NewRecorder(), req)).Cart.PaymentMethod)
}

func TestCookieStoreRemoveExpiresCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	testCodec().Store(rec, httptest.NewRequest(http.MethodGet, "/", nil)).Remove(KeyUserInfo)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, KeyUserInfo, cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)
}

func TestCookieStoreHoldsFullCart(t *testing.T) {
	codec := testCodec()

	rec := httptest.NewRecorder()
	store := codec.Store(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	state := Empty()
	for i := 0; i < MaxCartLines; i++ {
		item := shirt(99)
		item.ProductID = uuid.New()
		item.Name = fmt.Sprintf("A rather long product name number %d", i)
		state = dispatch(t, state, store, ActionCartAddItem, item)
	}

	// every add rewrites the slice; the last cookie is the full cart
	var last *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == KeyCartItems {
			last = c
		}
	}
	require.NotNil(t, last)
	assert.LessOrEqual(t, len(last.Value), 4096)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(last)
	loaded := Load(codec.Store(httptest.NewRecorder(), next))
	require.Len(t, loaded.Cart.CartItems, MaxCartLines)
	assert.Equal(t, state.Cart.CartItems[MaxCartLines-1].ProductID, loaded.Cart.CartItems[MaxCartLines-1].ProductID)
	assert.Equal(t, 99, loaded.Cart.CartItems[0].Quantity)
}
