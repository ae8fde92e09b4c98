// internal/handlers/payment.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/storefront/internal/services"
	"github.com/javajoker/storefront/internal/utils"
)

type PaymentHandler struct {
	paymentService *services.PaymentService
}

func NewPaymentHandler(paymentService *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// GET /api/keys/paypal
func (h *PaymentHandler) GetPayPalClientID(c *gin.Context) {
	c.String(http.StatusOK, h.paymentService.PayPalClientID())
}

// GET /api/keys/stripe
func (h *PaymentHandler) GetStripeKey(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"publishableKey": h.paymentService.StripePublishableKey(),
	})
}
