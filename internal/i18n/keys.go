// internal/i18n/keys.go
package i18n

import "strings"

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication
	KeyAuthRequired      = "auth.required"
	KeyAuthInvalidToken  = "auth.invalid_token"
	KeyAuthTokenExpired  = "auth.token_expired"
	KeyAdminAccessDenied = "admin.access_denied"
	KeyAccessDenied      = "access.denied"

	// Assets
	KeyAssetNotFound = "asset.not_found"
	KeyAssetNoFile   = "asset.no_file"

	// Wallets
	KeyWalletCreated  = "wallet.created"
	KeyWalletToppedUp = "wallet.topped_up"
	KeyWalletNotFound = "wallet.not_found"

	// Purchases and licenses
	KeyPurchaseCompleted      = "purchase.completed"
	KeyPurchaseReconciliation = "purchase.reconciliation_required"
	KeyNotificationMarkedRead = "notification.marked_read"
	KeyNotificationNotFound   = "notification.not_found"
	KeySaleNotFound           = "sale.not_found"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"

	// Rate limiting
	KeyRateLimitExceeded = "rate_limit.exceeded"

	// System
	KeySystemError       = "system.error"
	KeySystemMaintenance = "system.maintenance"
)

// ErrorKey returns the translation key for a domain error code such as
// INSUFFICIENT_FUNDS.
func ErrorKey(code string) string {
	return "error." + strings.ToLower(code)
}
