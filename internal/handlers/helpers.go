// internal/handlers/helpers.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/storefront/internal/i18n"
	"github.com/javajoker/storefront/internal/services"
	"github.com/javajoker/storefront/internal/utils"
)

// bindJSON decodes and validates the request body, writing the 400
// response itself when either step fails.
func bindJSON(c *gin.Context, req interface{}) bool {
	lang := utils.GetLangFromContext(c)

	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return false
	}
	return true
}

func parseIDParam(c *gin.Context, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyInvalidID, what), nil)
		return uuid.Nil, false
	}
	return id, true
}

// currentUserID reads the id attached by AuthRequired.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.UnauthorizedResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyAuthInvalidToken))
		return uuid.Nil, false
	}
	return userID, true
}

// respondError maps service errors onto HTTP responses. notFoundKey is the
// message used for services.ErrNotFound.
func respondError(c *gin.Context, err error, notFoundKey string) {
	lang := utils.GetLangFromContext(c)
	var inputErr *services.InputError

	switch {
	case errors.Is(err, services.ErrNotFound):
		utils.NotFoundResponse(c, notFoundKey)
	case errors.As(err, &inputErr):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, inputErr.Field), gin.H{
			"field": inputErr.Field,
			"value": inputErr.Value,
		})
	case errors.Is(err, services.ErrInvalidInput):
		utils.BadRequestResponse(c, "", nil)
	case errors.Is(err, services.ErrEmailTaken):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyAuthUserExists), nil)
	case errors.Is(err, services.ErrUserHasOrders):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyUserHasOrders))
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidCredentials))
	case errors.Is(err, services.ErrPaymentNotVerified):
		utils.ErrorResponse(c, http.StatusPaymentRequired, "PAYMENT_NOT_VERIFIED", i18n.T(lang, i18n.KeyPaymentNotVerified), nil)
	case errors.Is(err, services.ErrGatewayUnavailable):
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "PAYMENT_UNAVAILABLE", i18n.T(lang, i18n.KeyPaymentUnavailable), nil)
	default:
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Error("Request failed")
		utils.InternalErrorResponse(c, i18n.T(lang, i18n.KeyInternalError))
	}
}
