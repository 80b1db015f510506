// Package domain defines the read-side reporting shapes. Reports sum
// amounts persisted at invoice assembly and never re-derive tax math, so a
// drift between a report and its invoices indicates a write-side bug.
package domain

import (
	"context"
	"time"

	"github.com/medloop/aushadhi/internal/tenantctx"
)

// HSNSummaryRow aggregates sold value per HSN code, the shape GSTR-1 HSN
// reporting wants. Credit notes participate with their negative amounts.
type HSNSummaryRow struct {
	HSNCode           string `json:"hsn_code"`
	TotalQuantity     int64  `json:"total_quantity"`
	TotalTaxablePaise int64  `json:"total_taxable_paise"`
	TotalCGSTPaise    int64  `json:"total_cgst_paise"`
	TotalSGSTPaise    int64  `json:"total_sgst_paise"`
	TotalIGSTPaise    int64  `json:"total_igst_paise"`
}

// DailySummary is the end-of-day counter snapshot for one seller.
type DailySummary struct {
	Day               string `json:"day"`
	InvoiceCount      int64  `json:"invoice_count"`
	CreditNoteCount   int64  `json:"credit_note_count"`
	TotalTaxablePaise int64  `json:"total_taxable_paise"`
	TotalGSTPaise     int64  `json:"total_gst_paise"`
	TotalInvoicePaise int64  `json:"total_invoice_paise"`
	CollectedPaise    int64  `json:"collected_paise"`
}

// MonthSummary is one month of a fiscal-year report.
type MonthSummary struct {
	Month             string `json:"month"`
	InvoiceCount      int64  `json:"invoice_count"`
	CreditNoteCount   int64  `json:"credit_note_count"`
	TotalTaxablePaise int64  `json:"total_taxable_paise"`
	TotalGSTPaise     int64  `json:"total_gst_paise"`
	TotalInvoicePaise int64  `json:"total_invoice_paise"`
}

// YearEndSummary covers one fiscal year month by month plus totals.
type YearEndSummary struct {
	FiscalYearStart   string         `json:"fiscal_year_start"`
	Months            []MonthSummary `json:"months"`
	TotalTaxablePaise int64          `json:"total_taxable_paise"`
	TotalGSTPaise     int64          `json:"total_gst_paise"`
	TotalInvoicePaise int64          `json:"total_invoice_paise"`
}

// Service serves reporting reads over ISSUED and FILED invoices.
type Service interface {
	HSNSummary(ctx context.Context, tc tenantctx.TenantContext, from, to time.Time) ([]HSNSummaryRow, error)
	DailySummary(ctx context.Context, tc tenantctx.TenantContext, day time.Time) (*DailySummary, error)
	YearEndSummary(ctx context.Context, tc tenantctx.TenantContext, fiscalYearStart time.Time) (*YearEndSummary, error)
}
