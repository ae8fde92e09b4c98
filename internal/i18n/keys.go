// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeyValidationInvalid = "validation.invalid"
	KeyInvalidID         = "validation.invalid_id"
	KeyRateLimited       = "error.rate_limited"
	KeyInternalError     = "error.internal"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyAdminAccessDenied      = "auth.forbidden"

	// Users
	KeyUserProfileUpdated = "user.profile_updated"
	KeyUserNotFound       = "user.not_found"
	KeyUserUpdated        = "user.updated"
	KeyUserDeleted        = "user.deleted"
	KeyUserHasOrders      = "user.has_orders"

	// Products
	KeyProductCreated    = "product.created"
	KeyProductUpdated    = "product.updated"
	KeyProductDeleted    = "product.deleted"
	KeyProductNotFound   = "product.not_found"
	KeyProductOutOfStock = "product.out_of_stock"
	KeyReviewSubmitted   = "review.submitted"
	KeyReviewUpdated     = "review.updated"

	// Orders
	KeyOrderCreated   = "order.created"
	KeyOrderNotFound  = "order.not_found"
	KeyOrderPaid      = "order.paid"
	KeyOrderDelivered = "order.delivered"

	// Admin reports
	KeyReportUnavailable = "admin.report_unavailable"

	// Payments
	KeyPaymentNotVerified = "payment.not_verified"
	KeyPaymentUnavailable = "payment.unavailable"

	// Uploads
	KeyUploadFailed      = "upload.failed"
	KeyUploadInvalidFile = "upload.invalid_file"

	// Session
	KeySessionUnknownAction = "session.unknown_action"
	KeySessionCartFull      = "session.cart_full"
	KeySessionStoreFailed   = "session.store_failed"
)
