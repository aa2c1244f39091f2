// internal/models/errors.go
package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type ErrorKind string

const (
	ErrKindInvalidAmount          ErrorKind = "INVALID_AMOUNT"
	ErrKindAmountExceedsCap       ErrorKind = "AMOUNT_EXCEEDS_CAP"
	ErrKindWalletAlreadyExists    ErrorKind = "WALLET_ALREADY_EXISTS"
	ErrKindWalletNotFound         ErrorKind = "WALLET_NOT_FOUND"
	ErrKindAssetNotFound          ErrorKind = "ASSET_NOT_FOUND"
	ErrKindAssetNotAvailable      ErrorKind = "ASSET_NOT_AVAILABLE"
	ErrKindSelfPurchaseNotAllowed ErrorKind = "SELF_PURCHASE_NOT_ALLOWED"
	ErrKindAlreadyOwned           ErrorKind = "ALREADY_OWNED"
	ErrKindInsufficientFunds      ErrorKind = "INSUFFICIENT_FUNDS"
	ErrKindGrantAlreadyExists     ErrorKind = "GRANT_ALREADY_EXISTS"
	ErrKindPersistenceFailure     ErrorKind = "PERSISTENCE_FAILURE"
)

// Error is the domain error carried through every layer. Two errors match
// under errors.Is when their kinds are equal.
type Error struct {
	Kind    ErrorKind
	Message string
	Details map[string]interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidAmount          = &Error{Kind: ErrKindInvalidAmount, Message: "amount must be positive with at most two decimals"}
	ErrAmountExceedsCap       = &Error{Kind: ErrKindAmountExceedsCap, Message: "amount exceeds the per-operation limit"}
	ErrWalletAlreadyExists    = &Error{Kind: ErrKindWalletAlreadyExists, Message: "wallet already exists"}
	ErrWalletNotFound         = &Error{Kind: ErrKindWalletNotFound, Message: "wallet not found"}
	ErrAssetNotFound          = &Error{Kind: ErrKindAssetNotFound, Message: "asset not found"}
	ErrAssetNotAvailable      = &Error{Kind: ErrKindAssetNotAvailable, Message: "asset is not available for purchase"}
	ErrSelfPurchaseNotAllowed = &Error{Kind: ErrKindSelfPurchaseNotAllowed, Message: "sellers cannot purchase their own assets"}
	ErrAlreadyOwned           = &Error{Kind: ErrKindAlreadyOwned, Message: "asset already owned"}
	ErrInsufficientFunds      = &Error{Kind: ErrKindInsufficientFunds, Message: "insufficient funds"}
	ErrGrantAlreadyExists     = &Error{Kind: ErrKindGrantAlreadyExists, Message: "access grant already exists"}
	ErrPersistenceFailure     = &Error{Kind: ErrKindPersistenceFailure, Message: "persistence failure"}
)

// ErrRecordNotFound is returned by lookups outside the purchase error
// kinds, such as sales and admin notifications.
var ErrRecordNotFound = errors.New("record not found")

func newError(sentinel *Error, details map[string]interface{}) *Error {
	return &Error{Kind: sentinel.Kind, Message: sentinel.Message, Details: details}
}

func InvalidAmountError(amount interface{}) error {
	return newError(ErrInvalidAmount, map[string]interface{}{"amount": amount})
}

func AmountExceedsCapError(amount, limit interface{}) error {
	return newError(ErrAmountExceedsCap, map[string]interface{}{"amount": amount, "cap": limit})
}

func WalletAlreadyExistsError(ownerID int64) error {
	return newError(ErrWalletAlreadyExists, map[string]interface{}{"owner_id": ownerID})
}

func WalletNotFoundError(ownerID int64) error {
	return newError(ErrWalletNotFound, map[string]interface{}{"owner_id": ownerID})
}

func WalletIDNotFoundError(walletID uuid.UUID) error {
	return newError(ErrWalletNotFound, map[string]interface{}{"wallet_id": walletID})
}

func AssetNotFoundError(assetID int64) error {
	return newError(ErrAssetNotFound, map[string]interface{}{"asset_id": assetID})
}

func AssetNotAvailableError(assetID int64, status AssetStatus) error {
	return newError(ErrAssetNotAvailable, map[string]interface{}{"asset_id": assetID, "status": status})
}

func SelfPurchaseError(assetID, buyerID int64) error {
	return newError(ErrSelfPurchaseNotAllowed, map[string]interface{}{"asset_id": assetID, "buyer_id": buyerID})
}

func AlreadyOwnedError(assetID, buyerID int64) error {
	return newError(ErrAlreadyOwned, map[string]interface{}{"asset_id": assetID, "buyer_id": buyerID})
}

func InsufficientFundsError(ownerID int64, balance, required interface{}) error {
	return newError(ErrInsufficientFunds, map[string]interface{}{
		"owner_id": ownerID,
		"balance":  balance,
		"required": required,
	})
}

func GrantAlreadyExistsError(buyerID, assetID int64) error {
	return newError(ErrGrantAlreadyExists, map[string]interface{}{"buyer_id": buyerID, "asset_id": assetID})
}

// PersistenceError wraps a storage failure. The message names the
// operation that failed.
func PersistenceError(op string, err error) error {
	return &Error{Kind: ErrKindPersistenceFailure, Message: op, Err: err}
}

// KindOf returns the kind of the first domain error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// CompensationError reports a purchase that failed after the wallet was
// debited and whose compensation could not be completed. Unwrap yields the
// original failure so its kind is preserved for callers.
type CompensationError struct {
	Cause          error
	Compensation   error
	Step           string
	NotificationID *uuid.UUID
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("purchase failed (%v) and compensation step %q did not complete: %v",
		e.Cause, e.Step, e.Compensation)
}

func (e *CompensationError) Unwrap() error {
	return e.Cause
}

// RequiresReconciliation reports whether err carries a failed compensation.
func RequiresReconciliation(err error) bool {
	var ce *CompensationError
	return errors.As(err, &ce)
}
