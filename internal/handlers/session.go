// internal/handlers/session.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront/internal/cart"
	"github.com/javajoker/storefront/internal/i18n"
	"github.com/javajoker/storefront/internal/services"
	"github.com/javajoker/storefront/internal/utils"
)

// SessionHandler exposes the cookie-backed cart state to thin clients.
type SessionHandler struct {
	codec          *cart.Codec
	productService *services.ProductService
}

func NewSessionHandler(codec *cart.Codec, productService *services.ProductService) *SessionHandler {
	return &SessionHandler{
		codec:          codec,
		productService: productService,
	}
}

type addItemPayload struct {
	ProductID uuid.UUID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

type loginPayload struct {
	Token string `json:"token"`
}

var knownActions = map[string]bool{
	cart.ActionDarkModeOn:          true,
	cart.ActionDarkModeOff:         true,
	cart.ActionCartAddItem:         true,
	cart.ActionCartRemoveItem:      true,
	cart.ActionCartClear:           true,
	cart.ActionUserLogin:           true,
	cart.ActionUserLogout:          true,
	cart.ActionSaveShippingAddress: true,
	cart.ActionSavePaymentMethod:   true,
}

// load rebuilds the session state and refreshes cart lines from the catalog.
func (h *SessionHandler) load(c *gin.Context, store cart.Store) (cart.State, bool) {
	ctx := c.Request.Context()
	state, err := cart.Load(store).Hydrate(func(id uuid.UUID) (cart.Item, bool, error) {
		return h.snapshot(ctx, id)
	})
	if err != nil {
		respondError(c, err, i18n.KeyProductNotFound)
		return cart.State{}, false
	}
	return state, true
}

func (h *SessionHandler) snapshot(ctx context.Context, id uuid.UUID) (cart.Item, bool, error) {
	product, err := h.productService.GetProduct(ctx, id)
	if errors.Is(err, services.ErrNotFound) {
		return cart.Item{}, false, nil
	}
	if err != nil {
		return cart.Item{}, false, err
	}
	return cart.Item{
		ProductID:    product.ID,
		Name:         product.Name,
		Slug:         product.Slug,
		Image:        product.Image,
		Price:        product.Price,
		CountInStock: product.CountInStock,
	}, true, nil
}

// GET /api/session
func (h *SessionHandler) GetSession(c *gin.Context) {
	state, ok := h.load(c, h.codec.Store(c.Writer, c.Request))
	if !ok {
		return
	}
	utils.SuccessResponse(c, state)
}

// POST /api/session/actions
func (h *SessionHandler) Dispatch(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var action cart.Action
	if !bindJSON(c, &action) {
		return
	}
	if !knownActions[action.Type] {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeySessionUnknownAction, action.Type), nil)
		return
	}

	store := h.codec.Store(c.Writer, c.Request)
	state, ok := h.load(c, store)
	if !ok {
		return
	}

	switch action.Type {
	case cart.ActionCartAddItem:
		resolved, ok := h.resolveCartItem(c, state, action)
		if !ok {
			return
		}
		action = resolved
	case cart.ActionUserLogin:
		resolved, ok := h.resolveLogin(c, action)
		if !ok {
			return
		}
		action = resolved
	}

	next, err := cart.Reduce(state, action, store)
	if err != nil {
		var storeErr *cart.StoreError
		switch {
		case errors.As(err, &storeErr):
			logrus.WithError(storeErr.Err).WithFields(logrus.Fields{
				"action": action.Type,
				"key":    storeErr.Key,
			}).Error("Failed to persist session")
			utils.ErrorResponse(c, http.StatusInternalServerError, "SESSION_STORE_FAILED", i18n.T(lang, i18n.KeySessionStoreFailed), nil)
		case errors.Is(err, cart.ErrCartFull):
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeySessionCartFull, cart.MaxCartLines), nil)
		default:
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "payload"), err.Error())
		}
		return
	}

	logrus.WithField("action", action.Type).Debug("Session action applied")
	utils.SuccessResponse(c, next)
}

// resolveCartItem snapshots the product from the catalog and settles the
// quantity: one more than the current line when the client omits it.
func (h *SessionHandler) resolveCartItem(c *gin.Context, state cart.State, action cart.Action) (cart.Action, bool) {
	lang := utils.GetLangFromContext(c)

	var payload addItemPayload
	if len(action.Payload) == 0 || json.Unmarshal(action.Payload, &payload) != nil || payload.ProductID == uuid.Nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "productId"), nil)
		return cart.Action{}, false
	}

	item, found, err := h.snapshot(c.Request.Context(), payload.ProductID)
	if err == nil && !found {
		err = services.ErrNotFound
	}
	if err != nil {
		respondError(c, err, i18n.KeyProductNotFound)
		return cart.Action{}, false
	}

	quantity := payload.Quantity
	if quantity <= 0 {
		quantity = 1
		if existing, ok := state.Find(item.ProductID); ok {
			quantity = existing.Quantity + 1
		}
	}
	if item.CountInStock < quantity {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyProductOutOfStock), nil)
		return cart.Action{}, false
	}

	item.Quantity = quantity
	resolved, err := cart.NewAction(cart.ActionCartAddItem, item)
	if err != nil {
		respondError(c, err, i18n.KeyProductNotFound)
		return cart.Action{}, false
	}
	return resolved, true
}

// resolveLogin only trusts identity carried by a valid token.
func (h *SessionHandler) resolveLogin(c *gin.Context, action cart.Action) (cart.Action, bool) {
	lang := utils.GetLangFromContext(c)

	var payload loginPayload
	if len(action.Payload) > 0 {
		_ = json.Unmarshal(action.Payload, &payload)
	}

	claims, err := utils.ValidateJWT(payload.Token)
	if payload.Token == "" || err != nil {
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
		return cart.Action{}, false
	}

	resolved, err := cart.NewAction(cart.ActionUserLogin, cart.UserInfo{
		ID:      claims.UserID,
		Name:    claims.Name,
		Email:   claims.Email,
		IsAdmin: claims.IsAdmin,
		Token:   payload.Token,
	})
	if err != nil {
		respondError(c, err, i18n.KeyUserNotFound)
		return cart.Action{}, false
	}
	return resolved, true
}
