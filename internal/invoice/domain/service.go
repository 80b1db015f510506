package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/medloop/aushadhi/internal/gst"
	"github.com/medloop/aushadhi/internal/tenantctx"
)

// CheckoutRequest is a validated cart ready for invoice assembly. All
// monetary fields are paise; rates are basis points.
type CheckoutRequest struct {
	SellerStateCode string
	BuyerStateCode  string
	BuyerGSTIN      string
	CustomerID      *snowflake.ID
	Items           []gst.CartLine
	RoundToRupee    bool
}

type CheckoutResponse struct {
	ID            snowflake.ID `json:"id"`
	InvoiceNumber string       `json:"invoice_no"`
}

// InvoiceDetail is an invoice aggregate with its children loaded.
type InvoiceDetail struct {
	Invoice   Invoice           `json:"invoice"`
	LineItems []InvoiceLineItem `json:"line_items"`
	TaxLines  []InvoiceTaxLine  `json:"tax_lines"`
}

type ListRequest struct {
	Status     InvoiceStatus
	Type       InvoiceType
	IssuedFrom *time.Time
	IssuedTo   *time.Time
	Limit      int
}

// Service assembles and reads invoice aggregates. Checkout runs the tax
// bucket engine, persists the draft header and placeholder lines, then
// backfills per-line allocations in the same transaction, aborting on any
// reconciliation mismatch.
type Service interface {
	Checkout(ctx context.Context, tc tenantctx.TenantContext, req CheckoutRequest) (*CheckoutResponse, error)
	GetByID(ctx context.Context, tc tenantctx.TenantContext, id snowflake.ID) (*InvoiceDetail, error)
	List(ctx context.Context, tc tenantctx.TenantContext, req ListRequest) ([]Invoice, error)
	Cancel(ctx context.Context, tc tenantctx.TenantContext, id snowflake.ID) (*Invoice, error)
}
