package domain

import "errors"

var (
	ErrInvalidMethod       = errors.New("invalid_payment_method")
	ErrInvalidDetails      = errors.New("invalid_payment_details")
	ErrInvalidAmount       = errors.New("invalid_payment_amount")
	ErrNoPayments          = errors.New("no_payments")
	ErrOverpayment         = errors.New("overpayment")
	ErrPaymentNotFound     = errors.New("payment_not_found")
	ErrAlreadyFinal        = errors.New("payment_already_final")
	ErrMissingCustomer     = errors.New("missing_customer_for_credit")
	ErrInvoiceNotSettlable = errors.New("invoice_not_settlable")
	ErrDuplicateProvider   = errors.New("duplicate_provider_payment_id")
)
