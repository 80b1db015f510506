package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/medloop/aushadhi/internal/gst"
	"github.com/medloop/aushadhi/internal/tenantctx"
	"gorm.io/gorm"
)

// Sequence kinds for fiscal document numbering.
const (
	SequenceKindInvoice    = "INV"
	SequenceKindCreditNote = "CRN"
)

// LineInput pairs a cart line with the original line it reverses, if any.
type LineInput struct {
	Cart               gst.CartLine
	OriginalLineItemID *snowflake.ID
}

// AssembleInput carries everything needed to persist one invoice aggregate
// inside an existing transaction.
type AssembleInput struct {
	Type              InvoiceType
	Status            InvoiceStatus
	SequenceKind      string
	CustomerID        *snowflake.ID
	OriginalInvoiceID *snowflake.ID
	SellerStateCode   string
	PlaceOfSupply     string
	BuyerGSTIN        *string
	RoundOffPaise     int64
	Lines             []LineInput
	Comp              *gst.Computation
}

// Assembler persists an invoice aggregate with the two-phase write: header,
// tax lines and placeholder line items first, then the per-line tax
// allocation backfill, then the reconciliation check. Used by checkout and
// by the credit note engine so both share one persistence contract.
type Assembler interface {
	AssembleTx(ctx context.Context, tx *gorm.DB, tc tenantctx.TenantContext, in AssembleInput) (*Invoice, error)
}
