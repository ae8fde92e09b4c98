// internal/handlers/order.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/storefront/internal/i18n"
	"github.com/javajoker/storefront/internal/services"
	"github.com/javajoker/storefront/internal/utils"
)

type OrderHandler struct {
	orderService *services.OrderService
}

func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// POST /api/orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req.ShippingAddress)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, err, i18n.KeyOrderNotFound)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyOrderCreated),
		"order":   order,
	})
}

// GET /api/orders/history
func (h *OrderHandler) GetOrderHistory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	orders, err := h.orderService.GetOrderHistory(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err, i18n.KeyOrderNotFound)
		return
	}

	utils.SuccessResponse(c, orders)
}

// GET /api/orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "order")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), id, userID, utils.GetIsAdminFromContext(c))
	if err != nil {
		respondError(c, err, i18n.KeyOrderNotFound)
		return
	}

	utils.SuccessResponse(c, order)
}

// POST /api/orders/:id/payment-intent
func (h *OrderHandler) CreatePaymentIntent(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "order")
	if !ok {
		return
	}

	intent, err := h.orderService.CreatePaymentIntent(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err, i18n.KeyOrderNotFound)
		return
	}

	utils.SuccessResponse(c, intent)
}

// PUT /api/orders/:id/pay
func (h *OrderHandler) PayOrder(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "order")
	if !ok {
		return
	}

	payload := services.PayOrderRequest{}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
			return
		}
	}

	order, err := h.orderService.PayOrder(c.Request.Context(), id, userID, utils.GetIsAdminFromContext(c), payload)
	if err != nil {
		respondError(c, err, i18n.KeyOrderNotFound)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyOrderPaid),
		"order":   order,
	})
}

// GET /api/admin/orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	orders, err := h.orderService.ListOrders(c.Request.Context())
	if err != nil {
		respondError(c, err, i18n.KeyOrderNotFound)
		return
	}

	utils.SuccessResponse(c, orders)
}

// PUT /api/admin/orders/:id/delivered
func (h *OrderHandler) DeliverOrder(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := parseIDParam(c, "order")
	if !ok {
		return
	}

	order, err := h.orderService.DeliverOrder(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, i18n.KeyOrderNotFound)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyOrderDelivered),
		"order":   order,
	})
}
