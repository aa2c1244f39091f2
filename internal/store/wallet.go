// internal/store/wallet.go
package store

import (
	"github.com/shopspring/decimal"

	"github.com/javajoker/digital-marketplace/internal/models"
)

type walletOptions struct {
	creditCap decimal.Decimal
}

// WalletOption configures a wallet store.
type WalletOption func(*walletOptions)

// WithCreditCap rejects any single credit above limit. A zero limit means
// no cap.
func WithCreditCap(limit decimal.Decimal) WalletOption {
	return func(o *walletOptions) {
		o.creditCap = limit
	}
}

func newWalletOptions(opts []WalletOption) walletOptions {
	var o walletOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o walletOptions) checkCredit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return models.InvalidAmountError(amount)
	}
	if o.creditCap.IsPositive() && amount.GreaterThan(o.creditCap) {
		return models.AmountExceedsCapError(amount, o.creditCap)
	}
	return nil
}
