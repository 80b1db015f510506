package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/medloop/aushadhi/internal/invoice/domain"
	"gorm.io/gorm"
)

// Repository serves read paths over persisted invoice aggregates. Writes go
// through the assembler's transaction, not through here.
type Repository interface {
	FindByID(ctx context.Context, tenantID, id snowflake.ID) (*invoicedomain.Invoice, error)
	ListLineItems(ctx context.Context, tenantID, invoiceID snowflake.ID) ([]invoicedomain.InvoiceLineItem, error)
	ListTaxLines(ctx context.Context, tenantID, invoiceID snowflake.ID) ([]invoicedomain.InvoiceTaxLine, error)
	List(ctx context.Context, tenantID, sellerOrgID snowflake.ID, filter invoicedomain.ListRequest) ([]invoicedomain.Invoice, error)
	SumReturnedQuantity(ctx context.Context, tenantID, originalLineItemID snowflake.ID) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, tenantID, id snowflake.ID) (*invoicedomain.Invoice, error) {
	var inv invoicedomain.Invoice
	err := r.db.WithContext(ctx).Raw(
		`SELECT * FROM invoices WHERE tenant_id = ? AND id = ?`,
		tenantID,
		id,
	).Scan(&inv).Error
	if err != nil {
		return nil, err
	}
	if inv.ID == 0 {
		return nil, nil
	}
	return &inv, nil
}

func (r *repository) ListLineItems(ctx context.Context, tenantID, invoiceID snowflake.ID) ([]invoicedomain.InvoiceLineItem, error) {
	var items []invoicedomain.InvoiceLineItem
	err := r.db.WithContext(ctx).Raw(
		`SELECT * FROM invoice_line_items
		 WHERE tenant_id = ? AND invoice_id = ?
		 ORDER BY position ASC`,
		tenantID,
		invoiceID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ListTaxLines(ctx context.Context, tenantID, invoiceID snowflake.ID) ([]invoicedomain.InvoiceTaxLine, error) {
	var lines []invoicedomain.InvoiceTaxLine
	err := r.db.WithContext(ctx).Raw(
		`SELECT * FROM invoice_tax_lines
		 WHERE tenant_id = ? AND invoice_id = ?
		 ORDER BY tax_rate_bps ASC, tax_type ASC`,
		tenantID,
		invoiceID,
	).Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repository) List(ctx context.Context, tenantID, sellerOrgID snowflake.ID, filter invoicedomain.ListRequest) ([]invoicedomain.Invoice, error) {
	stmt := r.db.WithContext(ctx).
		Model(&invoicedomain.Invoice{}).
		Where("tenant_id = ? AND seller_org_id = ?", tenantID, sellerOrgID)

	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		stmt = stmt.Where("invoice_type = ?", filter.Type)
	}
	if filter.IssuedFrom != nil {
		stmt = stmt.Where("issued_at >= ?", filter.IssuedFrom)
	}
	if filter.IssuedTo != nil {
		stmt = stmt.Where("issued_at < ?", filter.IssuedTo)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 250 {
		limit = 50
	}

	var invoices []invoicedomain.Invoice
	if err := stmt.Order("id DESC").Limit(limit).Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// SumReturnedQuantity totals the quantity already credited back against one
// sold line across non-cancelled credit notes. Credit note lines keep a
// positive quantity; only their monetary fields are sign-reversed.
func (r *repository) SumReturnedQuantity(ctx context.Context, tenantID, originalLineItemID snowflake.ID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(li.quantity), 0)
		 FROM invoice_line_items li
		 JOIN invoices i ON i.id = li.invoice_id
		 WHERE li.tenant_id = ? AND li.original_line_item_id = ? AND i.status <> ?`,
		tenantID,
		originalLineItemID,
		invoicedomain.InvoiceStatusCancelled,
	).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
