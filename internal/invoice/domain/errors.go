package domain

import "errors"

var (
	ErrNotFound               = errors.New("invoice_not_found")
	ErrInvalidID              = errors.New("invalid_invoice_id")
	ErrReconciliationFailure  = errors.New("reconciliation_failure")
	ErrAlreadyCancelled       = errors.New("invoice_already_cancelled")
	ErrCancelSettledInvoice   = errors.New("cannot_cancel_settled_invoice")
	ErrCancelWrongStatus      = errors.New("invoice_not_cancellable")
	ErrInvalidRoundingRequest = errors.New("invalid_rounding_request")
)
