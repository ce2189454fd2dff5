package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound            = errors.New("entity not found")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrOperationFailed     = errors.New("operation failed")
	ErrInvalidExecContext  = errors.New("invalid executor context")
	ErrReadDatabaseRow     = errors.New("failed to read database row")
	ErrTransactionNotFound = errors.New("payment transaction not found")
	ErrPlanNotFound        = errors.New("plan not found")
	ErrCouponNotFound      = errors.New("coupon not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrUserNotFound        = errors.New("user not found")

	// Callback verification errors. Each one is a hard gate: the callback is
	// rejected before any fulfillment side effect runs.
	ErrPaymentDeclined   = errors.New("payment declined by processor")
	ErrSignatureMismatch = errors.New("callback signature mismatch")
	ErrMalformedOrder    = errors.New("malformed order payload")
	ErrOrderSchema       = errors.New("order payload schema mismatch")
	ErrPriceMismatch     = errors.New("callback amount does not match recomputed price")

	// Configuration errors fail closed.
	ErrMissingSecret = errors.New("gateway signing secret is not configured")
	ErrMissingBucket = errors.New("storage bucket is not configured")

	ErrAlreadyPurchased  = errors.New("book already purchased by user")
	ErrAlreadyProcessing = errors.New("legacy fulfillment already in progress")
)
