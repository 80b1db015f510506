package domain

import "errors"

var (
	ErrNothingToReturn    = errors.New("nothing_to_return")
	ErrMissingReturnRef   = errors.New("missing_return_ref")
	ErrLineNotFound       = errors.New("return_line_not_found")
	ErrInvalidQuantity    = errors.New("invalid_return_quantity")
	ErrQuantityExceeded   = errors.New("return_quantity_exceeded")
	ErrNotReturnable      = errors.New("invoice_not_returnable")
	ErrDuplicateReturn    = errors.New("duplicate_return")
	ErrInvalidRefund      = errors.New("invalid_refund_method")
	ErrRefundNeedsAccount = errors.New("credit_refund_needs_customer")
)
