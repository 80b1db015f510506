package service

import (
	"context"
	"time"

	paymentdomain "github.com/medloop/aushadhi/internal/payment/domain"
	reportingdomain "github.com/medloop/aushadhi/internal/reporting/domain"
	"github.com/medloop/aushadhi/internal/tenantctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(p Params) *Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("reporting.service"),
	}
}

// NewDomainService exposes the concrete service under the domain interface.
func NewDomainService(s *Service) reportingdomain.Service { return s }

// HSNSummary sums line-level amounts per HSN code over [from, to). Credit
// note lines come in with negative monetary amounts, so returned goods net
// out of the report automatically; their quantities are excluded from the
// sold-quantity column instead of being subtracted twice.
func (s *Service) HSNSummary(ctx context.Context, tc tenantctx.TenantContext, from, to time.Time) ([]reportingdomain.HSNSummaryRow, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	var rows []reportingdomain.HSNSummaryRow
	err := s.db.WithContext(ctx).Raw(
		`SELECT li.hsn_code AS hsn_code,
		        COALESCE(SUM(CASE WHEN i.invoice_type = 'CREDIT_NOTE' THEN -li.quantity ELSE li.quantity END), 0) AS total_quantity,
		        COALESCE(SUM(li.taxable_paise), 0) AS total_taxable_paise,
		        COALESCE(SUM(li.cgst_paise), 0) AS total_cgst_paise,
		        COALESCE(SUM(li.sgst_paise), 0) AS total_sgst_paise,
		        COALESCE(SUM(li.igst_paise), 0) AS total_igst_paise
		 FROM invoice_line_items li
		 JOIN invoices i ON i.id = li.invoice_id
		 WHERE i.tenant_id = ? AND i.seller_org_id = ?
		   AND i.status IN (?, ?)
		   AND i.issued_at >= ? AND i.issued_at < ?
		 GROUP BY li.hsn_code
		 ORDER BY li.hsn_code ASC`,
		tc.TenantID,
		tc.SellerOrgID,
		"ISSUED", "FILED",
		from, to,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DailySummary aggregates one calendar day of invoices plus the cash
// actually collected that day (PAID payments, refunds netted out).
func (s *Service) DailySummary(ctx context.Context, tc tenantctx.TenantContext, day time.Time) (*reportingdomain.DailySummary, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	var agg struct {
		InvoiceCount      int64
		CreditNoteCount   int64
		TotalTaxablePaise int64
		TotalGSTPaise     int64
		TotalInvoicePaise int64
	}
	err := s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(CASE WHEN invoice_type <> 'CREDIT_NOTE' THEN 1 ELSE 0 END), 0) AS invoice_count,
		        COALESCE(SUM(CASE WHEN invoice_type = 'CREDIT_NOTE' THEN 1 ELSE 0 END), 0) AS credit_note_count,
		        COALESCE(SUM(total_taxable_paise), 0) AS total_taxable_paise,
		        COALESCE(SUM(total_gst_paise), 0) AS total_gst_paise,
		        COALESCE(SUM(total_invoice_paise), 0) AS total_invoice_paise
		 FROM invoices
		 WHERE tenant_id = ? AND seller_org_id = ?
		   AND status IN (?, ?)
		   AND issued_at >= ? AND issued_at < ?`,
		tc.TenantID,
		tc.SellerOrgID,
		"ISSUED", "FILED",
		from, to,
	).Scan(&agg).Error
	if err != nil {
		return nil, err
	}

	var collected int64
	err = s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(p.amount_paise), 0)
		 FROM payments p
		 JOIN invoices i ON i.id = p.invoice_id
		 WHERE p.tenant_id = ? AND i.seller_org_id = ?
		   AND p.status = ?
		   AND p.created_at >= ? AND p.created_at < ?`,
		tc.TenantID,
		tc.SellerOrgID,
		paymentdomain.StatusPaid,
		from, to,
	).Scan(&collected).Error
	if err != nil {
		return nil, err
	}

	return &reportingdomain.DailySummary{
		Day:               from.Format("2006-01-02"),
		InvoiceCount:      agg.InvoiceCount,
		CreditNoteCount:   agg.CreditNoteCount,
		TotalTaxablePaise: agg.TotalTaxablePaise,
		TotalGSTPaise:     agg.TotalGSTPaise,
		TotalInvoicePaise: agg.TotalInvoicePaise,
		CollectedPaise:    collected,
	}, nil
}

// YearEndSummary covers the twelve months starting at fiscalYearStart.
// Month bucketing happens in Go so the query stays portable across the
// supported dialects.
func (s *Service) YearEndSummary(ctx context.Context, tc tenantctx.TenantContext, fiscalYearStart time.Time) (*reportingdomain.YearEndSummary, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	from := time.Date(fiscalYearStart.Year(), fiscalYearStart.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	var rows []struct {
		IssuedAt          time.Time
		InvoiceType       string
		TotalTaxablePaise int64
		TotalGSTPaise     int64
		TotalInvoicePaise int64
	}
	err := s.db.WithContext(ctx).Raw(
		`SELECT issued_at, invoice_type,
		        total_taxable_paise, total_gst_paise, total_invoice_paise
		 FROM invoices
		 WHERE tenant_id = ? AND seller_org_id = ?
		   AND status IN (?, ?)
		   AND issued_at >= ? AND issued_at < ?`,
		tc.TenantID,
		tc.SellerOrgID,
		"ISSUED", "FILED",
		from, to,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	summary := &reportingdomain.YearEndSummary{
		FiscalYearStart: from.Format("2006-01-02"),
		Months:          make([]reportingdomain.MonthSummary, 12),
	}
	for i := 0; i < 12; i++ {
		summary.Months[i].Month = from.AddDate(0, i, 0).Format("2006-01")
	}

	for _, row := range rows {
		idx := monthIndex(from, row.IssuedAt.UTC())
		if idx < 0 || idx > 11 {
			continue
		}
		m := &summary.Months[idx]
		if row.InvoiceType == "CREDIT_NOTE" {
			m.CreditNoteCount++
		} else {
			m.InvoiceCount++
		}
		m.TotalTaxablePaise += row.TotalTaxablePaise
		m.TotalGSTPaise += row.TotalGSTPaise
		m.TotalInvoicePaise += row.TotalInvoicePaise

		summary.TotalTaxablePaise += row.TotalTaxablePaise
		summary.TotalGSTPaise += row.TotalGSTPaise
		summary.TotalInvoicePaise += row.TotalInvoicePaise
	}
	return summary, nil
}

func monthIndex(start, t time.Time) int {
	return (t.Year()-start.Year())*12 + int(t.Month()) - int(start.Month())
}
