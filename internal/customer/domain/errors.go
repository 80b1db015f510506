package domain

import "errors"

var (
	ErrNotFound            = errors.New("customer_not_found")
	ErrInvalidName         = errors.New("invalid_customer_name")
	ErrCreditLimitExceeded = errors.New("credit_limit_exceeded")
)
