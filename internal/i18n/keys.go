// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess            = "success"
	KeyInternalError      = "error.internal"
	KeyRateLimited        = "error.rate_limited"
	KeyValidationInvalid  = "validation.invalid"
	KeyValidationRequired = "validation.required"

	// Authentication
	KeyAuthRequired                 = "auth.required"
	KeyAuthInvalidToken             = "auth.invalid_token"
	KeyAuthInvalidCredentials       = "auth.invalid_credentials"
	KeyAuthEmailNotVerified         = "auth.email_not_verified"
	KeyAuthUserExists               = "auth.user_exists"
	KeyAuthEmailExists              = "auth.email_exists"
	KeyAuthLoginSuccess             = "auth.login_success"
	KeyAuthLogoutSuccess            = "auth.logout_success"
	KeyAuthRegisterSuccess          = "auth.register_success"
	KeyAuthEmailVerified            = "auth.email_verified"
	KeyAuthInvalidVerificationToken = "auth.invalid_verification_token"
	KeyAuthEmailRequired            = "auth.email_required"
	KeyAuthResetSent                = "auth.reset_sent"
	KeyAuthPasswordReset            = "auth.password_reset"
	KeyAuthInvalidResetToken        = "auth.invalid_reset_token"
	KeyAuthInvalidScope             = "auth.invalid_scope"
	KeyAuthForbidden                = "auth.forbidden"
	KeyAuthElevatedRoleDenied       = "auth.elevated_role_denied"
	KeyAuthVerifyPageTitle          = "auth.verify_page_title"
	KeyAuthVerifyPageFailed         = "auth.verify_page_failed"
	KeyAuthVerifyPageLogin          = "auth.verify_page_login"
	KeyAuthReauthRequired           = "auth.reauth_required"

	// User Management
	KeyUserNotFound              = "user.not_found"
	KeyUserUpdated               = "user.updated"
	KeyUserDeleted               = "user.deleted"
	KeyUserProfilePictureUpdated = "user.profile_picture_updated"
	KeyUserRoleChangeDenied      = "user.role_change_denied"
	KeyUserFavoritesUpdated      = "user.favorites_updated"

	// Products
	KeyProductCreated      = "product.created"
	KeyProductUpdated      = "product.updated"
	KeyProductDeleted      = "product.deleted"
	KeyProductNotFound     = "product.not_found"
	KeyProductExists       = "product.exists"
	KeyProductImageUpdated = "product.image_updated"
	KeyProductCatalogEmpty = "product.catalog_empty"
	KeyProductInvalidQuery = "product.invalid_query"

	// Stock
	KeyStockUpdated         = "stock.updated"
	KeyStockInsufficient    = "stock.insufficient"
	KeyStockInvalidMovement = "stock.invalid_movement"

	// Vendas
	KeyVendaNotFound       = "venda.not_found"
	KeyVendaDeleted        = "venda.deleted"
	KeyVendaInvalidNumber  = "venda.invalid_number"
	KeyVendaInvalidFilter  = "venda.invalid_filter"
	KeyCartNotFound        = "cart.not_found"
	KeyCartEmpty           = "cart.empty"
	KeyCartUpdated         = "cart.updated"
	KeyCartFinalized       = "cart.finalized"
	KeyCartItemNotFound    = "cart.item_not_found"
	KeyCartInvalidQuantity = "cart.invalid_quantity"

	// Payments
	KeyPaymentFailed = "payment.failed"

	// Files
	KeyImageInvalid  = "image.invalid"
	KeyImageTooLarge = "image.too_large"
)
