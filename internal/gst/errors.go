package gst

import "errors"

var (
	ErrEmptyCart         = errors.New("empty_cart")
	ErrMissingStateCode  = errors.New("missing_state_code")
	ErrInvalidQuantity   = errors.New("invalid_quantity")
	ErrInvalidUnitPrice  = errors.New("invalid_unit_price")
	ErrInvalidDiscount   = errors.New("invalid_discount")
	ErrInvalidRate       = errors.New("invalid_gst_rate")
	ErrMissingHSNCode    = errors.New("missing_hsn_code")
	ErrInvalidInclusion  = errors.New("invalid_tax_inclusion")
	ErrAmbiguousDiscount = errors.New("ambiguous_discount")
)
