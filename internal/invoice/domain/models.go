// Package domain contains persistence models for GST invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/medloop/aushadhi/internal/gst"
	"gorm.io/datatypes"
)

// InvoiceType classifies the fiscal document.
type InvoiceType string

const (
	InvoiceTypeB2B        InvoiceType = "B2B"
	InvoiceTypeB2C        InvoiceType = "B2C"
	InvoiceTypeCreditNote InvoiceType = "CREDIT_NOTE"
	InvoiceTypeCashMemo   InvoiceType = "CASH_MEMO"
)

// InvoiceStatus represents invoice lifecycle states. Invoices are never
// physically deleted, only status-transitioned.
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusIssued    InvoiceStatus = "ISSUED"
	InvoiceStatusFiled     InvoiceStatus = "FILED"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// PaymentStatus tracks settlement progress against the invoice total.
type PaymentStatus string

const (
	PaymentStatusPending       PaymentStatus = "PENDING"
	PaymentStatusPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	PaymentStatusPaid          PaymentStatus = "PAID"
	PaymentStatusRefunded      PaymentStatus = "REFUNDED"
)

// TaxType identifies one leg of the GST split.
type TaxType string

const (
	TaxTypeCGST TaxType = "CGST"
	TaxTypeSGST TaxType = "SGST"
	TaxTypeIGST TaxType = "IGST"
)

// Invoice is the persisted invoice header. The totals invariant
// TotalInvoicePaise == TotalTaxablePaise + TotalGSTPaise + RoundOffPaise
// is enforced at assembly and checked again before commit.
type Invoice struct {
	ID                snowflake.ID      `gorm:"primaryKey" json:"id"`
	TenantID          snowflake.ID      `gorm:"not null;index" json:"tenant_id"`
	SellerOrgID       snowflake.ID      `gorm:"not null;index;uniqueIndex:ux_invoices_seller_number,priority:1" json:"seller_org_id"`
	SellerGSTINID     snowflake.ID      `gorm:"not null" json:"seller_gstin_id"`
	CustomerID        *snowflake.ID     `gorm:"index" json:"customer_id,omitempty"`
	OriginalInvoiceID *snowflake.ID     `gorm:"index" json:"original_invoice_id,omitempty"`
	InvoiceNumber     string            `gorm:"type:text;not null;uniqueIndex:ux_invoices_seller_number,priority:2" json:"invoice_number"`
	InvoiceType       InvoiceType       `gorm:"type:text;not null" json:"invoice_type"`
	Status            InvoiceStatus     `gorm:"type:text;not null;default:'DRAFT'" json:"status"`
	PaymentStatus     PaymentStatus     `gorm:"type:text;not null;default:'PENDING'" json:"payment_status"`
	SellerStateCode   string            `gorm:"type:text;not null" json:"seller_state_code"`
	PlaceOfSupply     string            `gorm:"type:text;not null" json:"place_of_supply"`
	BuyerGSTIN        *string           `gorm:"type:text" json:"buyer_gstin,omitempty"`
	TotalTaxablePaise int64             `gorm:"not null;default:0" json:"total_taxable_paise"`
	TotalGSTPaise     int64             `gorm:"not null;default:0" json:"total_gst_paise"`
	RoundOffPaise     int64             `gorm:"not null;default:0" json:"round_off_paise"`
	TotalInvoicePaise int64             `gorm:"not null;default:0" json:"total_invoice_paise"`
	PaidAmountPaise   int64             `gorm:"not null;default:0" json:"paid_amount_paise"`
	IssuedAt          *time.Time        `json:"issued_at,omitempty"`
	Metadata          datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt         time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceLineItem is a line on an invoice. Position preserves cart order and
// is the stable join key for the two-phase tax allocation backfill.
type InvoiceLineItem struct {
	ID                 snowflake.ID     `gorm:"primaryKey" json:"id"`
	TenantID           snowflake.ID     `gorm:"not null;index" json:"tenant_id"`
	InvoiceID          snowflake.ID     `gorm:"not null;index" json:"invoice_id"`
	OriginalLineItemID *snowflake.ID    `gorm:"index" json:"original_line_item_id,omitempty"`
	Position           int              `gorm:"not null" json:"position"`
	ProductRef         string           `gorm:"type:text;not null" json:"product_ref"`
	ProductName        string           `gorm:"type:text;not null" json:"product_name"`
	HSNCode            string           `gorm:"type:text;not null;index" json:"hsn_code"`
	BatchRef           string           `gorm:"type:text" json:"batch_ref,omitempty"`
	Quantity           int64            `gorm:"not null" json:"quantity"`
	UnitPricePaise     int64            `gorm:"not null" json:"unit_price_paise"`
	DiscountPaise      int64            `gorm:"not null;default:0" json:"discount_paise"`
	GSTRateBps         int64            `gorm:"not null" json:"gst_rate_bps"`
	TaxInclusion       gst.TaxInclusion `gorm:"type:text;not null" json:"tax_inclusion"`
	TaxablePaise       int64            `gorm:"not null;default:0" json:"taxable_paise"`
	CGSTPaise          int64            `gorm:"not null;default:0" json:"cgst_paise"`
	SGSTPaise          int64            `gorm:"not null;default:0" json:"sgst_paise"`
	IGSTPaise          int64            `gorm:"not null;default:0" json:"igst_paise"`
	CreatedAt          time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (InvoiceLineItem) TableName() string { return "invoice_line_items" }

// InvoiceTaxLine captures one {taxType, rate} aggregate actually present on
// the invoice. Zero-rate buckets never emit a tax line.
type InvoiceTaxLine struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID   snowflake.ID `gorm:"not null;index" json:"tenant_id"`
	InvoiceID  snowflake.ID `gorm:"not null;index" json:"invoice_id"`
	TaxType    TaxType      `gorm:"type:text;not null" json:"tax_type"`
	TaxRateBps int64        `gorm:"not null" json:"tax_rate_bps"`
	TaxPaise   int64        `gorm:"not null" json:"tax_paise"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (InvoiceTaxLine) TableName() string { return "invoice_tax_lines" }

// InvoiceSequence is the per-seller per-day (and per document kind) counter
// behind INV-YYYYMMDD-NNNN numbers. Incremented atomically inside the
// checkout transaction so concurrent checkouts never share a number.
type InvoiceSequence struct {
	SellerOrgID snowflake.ID `gorm:"primaryKey;autoIncrement:false" json:"seller_org_id"`
	Kind        string       `gorm:"primaryKey;type:text" json:"kind"`
	Day         string       `gorm:"primaryKey;type:text" json:"day"`
	LastValue   int64        `gorm:"not null" json:"last_value"`
}

// TableName sets the database table name.
func (InvoiceSequence) TableName() string { return "invoice_sequences" }
