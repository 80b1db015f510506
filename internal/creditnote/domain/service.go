// Package domain defines the return engine contract. A return is recorded
// as a CREDIT_NOTE invoice linked to the original, with every monetary
// field sign-reversed.
package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/medloop/aushadhi/internal/invoice/domain"
	paymentdomain "github.com/medloop/aushadhi/internal/payment/domain"
	"github.com/medloop/aushadhi/internal/tenantctx"
)

// ReturnLine selects one sold line and how many units come back.
type ReturnLine struct {
	LineItemID snowflake.ID `json:"line_item_id"`
	Quantity   int64        `json:"quantity"`
}

// ProcessReturnRequest describes one return call. ReturnRef is the caller's
// idempotency key for restocking: retrying the same return with the same ref
// restocks each line at most once.
type ProcessReturnRequest struct {
	OriginalInvoiceID snowflake.ID          `json:"original_invoice_id"`
	Lines             []ReturnLine          `json:"line_items"`
	Reason            string                `json:"reason"`
	RefundMethod      *paymentdomain.Method `json:"refund_method,omitempty"`
	ReturnRef         string                `json:"return_ref"`
}

type ProcessReturnResponse struct {
	CreditNote invoicedomain.Invoice           `json:"credit_note"`
	Lines      []invoicedomain.InvoiceLineItem `json:"lines"`
	Refund     *paymentdomain.Payment          `json:"refund,omitempty"`
}

type Service interface {
	ProcessReturn(ctx context.Context, tc tenantctx.TenantContext, req ProcessReturnRequest) (*ProcessReturnResponse, error)
}
