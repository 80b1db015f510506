package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/medloop/aushadhi/internal/clock"
	"github.com/medloop/aushadhi/internal/gst"
	invoicedomain "github.com/medloop/aushadhi/internal/invoice/domain"
	"github.com/medloop/aushadhi/internal/invoice/repository"
	obsmetrics "github.com/medloop/aushadhi/internal/observability/metrics"
	"github.com/medloop/aushadhi/internal/tenantctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       repository.Repository
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       repository.Repository
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) *Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("invoice.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		obsMetrics: p.ObsMetrics,
	}
}

// NewDomainService exposes the concrete service under the domain interface.
func NewDomainService(s *Service) invoicedomain.Service { return s }

// NewAssembler exposes the transactional assembler used by checkout and the
// credit note engine.
func NewAssembler(s *Service) invoicedomain.Assembler { return s }

// Checkout turns a validated cart into a persisted, reconciled invoice.
func (s *Service) Checkout(ctx context.Context, tc tenantctx.TenantContext, req invoicedomain.CheckoutRequest) (*invoicedomain.CheckoutResponse, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}

	comp, err := gst.Compute(req.Items, req.SellerStateCode, req.BuyerStateCode)
	if err != nil {
		return nil, err
	}

	var roundOff int64
	if req.RoundToRupee {
		roundOff = roundOffToRupee(comp.GrandTotal)
	}

	invoiceType := classifyInvoice(req)

	var buyerGSTIN *string
	if req.BuyerGSTIN != "" {
		v := req.BuyerGSTIN
		buyerGSTIN = &v
	}

	lines := make([]invoicedomain.LineInput, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, invoicedomain.LineInput{Cart: item})
	}

	var created *invoicedomain.Invoice
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := s.AssembleTx(ctx, tx, tc, invoicedomain.AssembleInput{
			Type:            invoiceType,
			Status:          invoicedomain.InvoiceStatusIssued,
			SequenceKind:    invoicedomain.SequenceKindInvoice,
			CustomerID:      req.CustomerID,
			SellerStateCode: req.SellerStateCode,
			PlaceOfSupply:   req.BuyerStateCode,
			BuyerGSTIN:      buyerGSTIN,
			RoundOffPaise:   roundOff,
			Lines:           lines,
			Comp:            comp,
		})
		if err != nil {
			return err
		}
		created = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("invoice issued",
		zap.String("invoice_id", created.ID.String()),
		zap.String("invoice_number", created.InvoiceNumber),
		zap.Int64("total_paise", created.TotalInvoicePaise),
	)
	if s.obsMetrics != nil {
		s.obsMetrics.RecordInvoiceIssued(string(created.InvoiceType))
	}

	return &invoicedomain.CheckoutResponse{
		ID:            created.ID,
		InvoiceNumber: created.InvoiceNumber,
	}, nil
}

// AssembleTx persists one invoice aggregate inside tx using the two-phase
// write: header plus placeholder line items first, then the per-line tax
// allocation backfill keyed by persisted row order, then a reconciliation
// check that aborts the transaction on any mismatch.
func (s *Service) AssembleTx(ctx context.Context, tx *gorm.DB, tc tenantctx.TenantContext, in invoicedomain.AssembleInput) (*invoicedomain.Invoice, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	if len(in.Lines) != len(in.Comp.Lines) {
		return nil, invoicedomain.ErrReconciliationFailure
	}

	now := s.clock.Now()
	number, err := s.nextInvoiceNumber(ctx, tx, tc.SellerOrgID, in.SequenceKind, now)
	if err != nil {
		return nil, err
	}

	sign := int64(1)
	if in.Type == invoicedomain.InvoiceTypeCreditNote {
		sign = -1
	}

	inv := invoicedomain.Invoice{
		ID:                s.genID.Generate(),
		TenantID:          tc.TenantID,
		SellerOrgID:       tc.SellerOrgID,
		SellerGSTINID:     tc.SellerGSTINID,
		CustomerID:        in.CustomerID,
		OriginalInvoiceID: in.OriginalInvoiceID,
		InvoiceNumber:     number,
		InvoiceType:       in.Type,
		Status:            in.Status,
		PaymentStatus:     invoicedomain.PaymentStatusPending,
		SellerStateCode:   in.SellerStateCode,
		PlaceOfSupply:     in.PlaceOfSupply,
		BuyerGSTIN:        in.BuyerGSTIN,
		TotalTaxablePaise: in.Comp.Subtotal,
		TotalGSTPaise:     in.Comp.TaxTotal,
		RoundOffPaise:     in.RoundOffPaise,
		TotalInvoicePaise: in.Comp.GrandTotal + in.RoundOffPaise,
		IssuedAt:          &now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := tx.WithContext(ctx).Exec(
		`INSERT INTO invoices (
			id, tenant_id, seller_org_id, seller_gstin_id, customer_id, original_invoice_id,
			invoice_number, invoice_type, status, payment_status,
			seller_state_code, place_of_supply, buyer_gstin,
			total_taxable_paise, total_gst_paise, round_off_paise, total_invoice_paise,
			paid_amount_paise, issued_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.TenantID, inv.SellerOrgID, inv.SellerGSTINID, inv.CustomerID, inv.OriginalInvoiceID,
		inv.InvoiceNumber, inv.InvoiceType, inv.Status, inv.PaymentStatus,
		inv.SellerStateCode, inv.PlaceOfSupply, inv.BuyerGSTIN,
		inv.TotalTaxablePaise, inv.TotalGSTPaise, inv.RoundOffPaise, inv.TotalInvoicePaise,
		int64(0), inv.IssuedAt, inv.CreatedAt, inv.UpdatedAt,
	).Error; err != nil {
		return nil, err
	}

	// Phase 1: placeholder line items in cart order, allocations zeroed.
	lineIDs := make([]snowflake.ID, len(in.Lines))
	for i, line := range in.Lines {
		lineIDs[i] = s.genID.Generate()
		if err := tx.WithContext(ctx).Exec(
			`INSERT INTO invoice_line_items (
				id, tenant_id, invoice_id, original_line_item_id, position,
				product_ref, product_name, hsn_code, batch_ref,
				quantity, unit_price_paise, discount_paise, gst_rate_bps, tax_inclusion,
				taxable_paise, cgst_paise, sgst_paise, igst_paise, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, 0, 0, ?)`,
			lineIDs[i], tc.TenantID, inv.ID, line.OriginalLineItemID, i,
			line.Cart.ProductRef, line.Cart.ProductName, line.Cart.HSNCode, line.Cart.BatchRef,
			line.Cart.Quantity, sign*line.Cart.UnitPrice, sign*line.Cart.DiscountAmount(), line.Cart.GSTRateBps, line.Cart.TaxInclusion,
			now,
		).Error; err != nil {
			return nil, err
		}
	}

	if err := s.insertTaxLines(ctx, tx, tc, inv.ID, in.Comp, now); err != nil {
		return nil, err
	}

	// Phase 2: re-fetch persisted lines in creation order and backfill the
	// exact per-line allocation computed by the bucket engine.
	var persisted []invoicedomain.InvoiceLineItem
	if err := tx.WithContext(ctx).Raw(
		`SELECT * FROM invoice_line_items
		 WHERE tenant_id = ? AND invoice_id = ?
		 ORDER BY position ASC`,
		tc.TenantID,
		inv.ID,
	).Scan(&persisted).Error; err != nil {
		return nil, err
	}
	if len(persisted) != len(in.Comp.Lines) {
		return nil, invoicedomain.ErrReconciliationFailure
	}
	for i, row := range persisted {
		alloc := in.Comp.Lines[i]
		if err := tx.WithContext(ctx).Exec(
			`UPDATE invoice_line_items
			 SET taxable_paise = ?, cgst_paise = ?, sgst_paise = ?, igst_paise = ?
			 WHERE id = ?`,
			alloc.Taxable, alloc.CGST, alloc.SGST, alloc.IGST,
			row.ID,
		).Error; err != nil {
			return nil, err
		}
	}

	if err := s.verifyReconciled(ctx, tx, tc, &inv); err != nil {
		return nil, err
	}

	return &inv, nil
}

// nextInvoiceNumber allocates the next per-seller per-day sequence value
// with a single atomic upsert so two concurrent checkouts can never share a
// number.
func (s *Service) nextInvoiceNumber(ctx context.Context, tx *gorm.DB, sellerOrgID snowflake.ID, kind string, now time.Time) (string, error) {
	day := now.Format("20060102")
	var next int64
	err := tx.WithContext(ctx).Raw(
		`INSERT INTO invoice_sequences (seller_org_id, kind, day, last_value)
		 VALUES (?, ?, ?, 1)
		 ON CONFLICT (seller_org_id, kind, day)
		 DO UPDATE SET last_value = invoice_sequences.last_value + 1
		 RETURNING last_value`,
		sellerOrgID,
		kind,
		day,
	).Scan(&next).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%04d", kind, day, next), nil
}

func (s *Service) insertTaxLines(ctx context.Context, tx *gorm.DB, tc tenantctx.TenantContext, invoiceID snowflake.ID, comp *gst.Computation, now time.Time) error {
	insert := func(taxType invoicedomain.TaxType, rateBps, amount int64) error {
		return tx.WithContext(ctx).Exec(
			`INSERT INTO invoice_tax_lines (
				id, tenant_id, invoice_id, tax_type, tax_rate_bps, tax_paise, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			s.genID.Generate(), tc.TenantID, invoiceID, taxType, rateBps, amount, now,
		).Error
	}

	for _, b := range comp.Buckets {
		// zero-rate buckets are reported but never emit tax lines
		if b.RateBps == 0 || b.CGST+b.SGST+b.IGST == 0 {
			continue
		}
		if comp.InterState {
			if err := insert(invoicedomain.TaxTypeIGST, b.RateBps, b.IGST); err != nil {
				return err
			}
			continue
		}
		if err := insert(invoicedomain.TaxTypeCGST, b.RateBps, b.CGST); err != nil {
			return err
		}
		if err := insert(invoicedomain.TaxTypeSGST, b.RateBps, b.SGST); err != nil {
			return err
		}
	}
	return nil
}

// verifyReconciled re-reads persisted children and asserts the line-level
// sums match the header and tax line aggregates. A mismatch can only come
// from a rounding-distribution bug and must abort the transaction; it is
// never silently accepted.
func (s *Service) verifyReconciled(ctx context.Context, tx *gorm.DB, tc tenantctx.TenantContext, inv *invoicedomain.Invoice) error {
	var sums struct {
		Taxable int64
		CGST    int64
		SGST    int64
		IGST    int64
	}
	if err := tx.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(taxable_paise), 0) AS taxable,
		        COALESCE(SUM(cgst_paise), 0) AS cgst,
		        COALESCE(SUM(sgst_paise), 0) AS sgst,
		        COALESCE(SUM(igst_paise), 0) AS igst
		 FROM invoice_line_items
		 WHERE tenant_id = ? AND invoice_id = ?`,
		tc.TenantID,
		inv.ID,
	).Scan(&sums).Error; err != nil {
		return err
	}

	var taxLineSum int64
	if err := tx.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(tax_paise), 0) FROM invoice_tax_lines
		 WHERE tenant_id = ? AND invoice_id = ?`,
		tc.TenantID,
		inv.ID,
	).Scan(&taxLineSum).Error; err != nil {
		return err
	}

	lineTax := sums.CGST + sums.SGST + sums.IGST
	if sums.Taxable != inv.TotalTaxablePaise || lineTax != inv.TotalGSTPaise || taxLineSum != inv.TotalGSTPaise {
		s.log.Error("invoice reconciliation failed",
			zap.String("invoice_id", inv.ID.String()),
			zap.Int64("header_taxable", inv.TotalTaxablePaise),
			zap.Int64("line_taxable", sums.Taxable),
			zap.Int64("header_gst", inv.TotalGSTPaise),
			zap.Int64("line_gst", lineTax),
			zap.Int64("tax_line_gst", taxLineSum),
		)
		if s.obsMetrics != nil {
			s.obsMetrics.RecordReconciliationFailure()
		}
		return invoicedomain.ErrReconciliationFailure
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, tc tenantctx.TenantContext, id snowflake.ID) (*invoicedomain.InvoiceDetail, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	inv, err := s.repo.FindByID(ctx, tc.TenantID, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, invoicedomain.ErrNotFound
	}
	items, err := s.repo.ListLineItems(ctx, tc.TenantID, id)
	if err != nil {
		return nil, err
	}
	taxLines, err := s.repo.ListTaxLines(ctx, tc.TenantID, id)
	if err != nil {
		return nil, err
	}
	return &invoicedomain.InvoiceDetail{
		Invoice:   *inv,
		LineItems: items,
		TaxLines:  taxLines,
	}, nil
}

func (s *Service) List(ctx context.Context, tc tenantctx.TenantContext, req invoicedomain.ListRequest) ([]invoicedomain.Invoice, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, tc.TenantID, tc.SellerOrgID, req)
}

// Cancel transitions an unsettled invoice to CANCELLED. Paid or partially
// paid invoices must be reversed through a credit note instead.
func (s *Service) Cancel(ctx context.Context, tc tenantctx.TenantContext, id snowflake.ID) (*invoicedomain.Invoice, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}

	var cancelled *invoicedomain.Invoice
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var inv invoicedomain.Invoice
		if err := tx.WithContext(ctx).Raw(
			`SELECT * FROM invoices WHERE tenant_id = ? AND id = ?`,
			tc.TenantID,
			id,
		).Scan(&inv).Error; err != nil {
			return err
		}
		if inv.ID == 0 {
			return invoicedomain.ErrNotFound
		}
		switch inv.Status {
		case invoicedomain.InvoiceStatusCancelled:
			return invoicedomain.ErrAlreadyCancelled
		case invoicedomain.InvoiceStatusDraft, invoicedomain.InvoiceStatusIssued:
		default:
			return invoicedomain.ErrCancelWrongStatus
		}
		if inv.PaidAmountPaise != 0 {
			return invoicedomain.ErrCancelSettledInvoice
		}

		now := s.clock.Now()
		if err := tx.WithContext(ctx).Exec(
			`UPDATE invoices SET status = ?, updated_at = ? WHERE id = ?`,
			invoicedomain.InvoiceStatusCancelled,
			now,
			inv.ID,
		).Error; err != nil {
			return err
		}
		inv.Status = invoicedomain.InvoiceStatusCancelled
		inv.UpdatedAt = now
		cancelled = &inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("invoice cancelled", zap.String("invoice_id", cancelled.ID.String()))
	return cancelled, nil
}

// roundOffToRupee returns the residual that rounds total to the nearest
// whole rupee (half up, symmetric for credit notes).
func roundOffToRupee(totalPaise int64) int64 {
	neg := false
	t := totalPaise
	if t < 0 {
		neg = true
		t = -t
	}
	rounded := ((t + 50) / 100) * 100
	off := rounded - t
	if neg {
		return -off
	}
	return off
}

func classifyInvoice(req invoicedomain.CheckoutRequest) invoicedomain.InvoiceType {
	if req.BuyerGSTIN != "" {
		return invoicedomain.InvoiceTypeB2B
	}
	if req.CustomerID == nil {
		return invoicedomain.InvoiceTypeCashMemo
	}
	return invoicedomain.InvoiceTypeB2C
}
