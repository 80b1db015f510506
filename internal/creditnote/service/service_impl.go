package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	creditnotedomain "github.com/medloop/aushadhi/internal/creditnote/domain"
	customerdomain "github.com/medloop/aushadhi/internal/customer/domain"
	customerrepo "github.com/medloop/aushadhi/internal/customer/repository"
	"github.com/medloop/aushadhi/internal/gst"
	inventorydomain "github.com/medloop/aushadhi/internal/inventory/domain"
	inventoryservice "github.com/medloop/aushadhi/internal/inventory/service"
	invoicedomain "github.com/medloop/aushadhi/internal/invoice/domain"
	invoicerepo "github.com/medloop/aushadhi/internal/invoice/repository"
	obsmetrics "github.com/medloop/aushadhi/internal/observability/metrics"
	paymentdomain "github.com/medloop/aushadhi/internal/payment/domain"
	"github.com/medloop/aushadhi/internal/tenantctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	InvoiceRepo  invoicerepo.Repository
	Assembler    invoicedomain.Assembler
	Restocker    inventoryservice.Restocker
	CustomerRepo customerrepo.Repository
	ObsMetrics   *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	invoiceRepo  invoicerepo.Repository
	assembler    invoicedomain.Assembler
	restocker    inventoryservice.Restocker
	customerRepo customerrepo.Repository
	obsMetrics   *obsmetrics.Metrics
}

func NewService(p Params) *Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("creditnote.service"),
		genID:        p.GenID,
		invoiceRepo:  p.InvoiceRepo,
		assembler:    p.Assembler,
		restocker:    p.Restocker,
		customerRepo: p.CustomerRepo,
		obsMetrics:   p.ObsMetrics,
	}
}

// NewDomainService exposes the concrete service under the domain interface.
func NewDomainService(s *Service) creditnotedomain.Service { return s }

// ProcessReturn reverses a subset of a sold invoice into a CREDIT_NOTE.
// Restock, credit note assembly and the optional refund commit or roll back
// as one transaction; a restock failure on any line aborts the whole return.
func (s *Service) ProcessReturn(ctx context.Context, tc tenantctx.TenantContext, req creditnotedomain.ProcessReturnRequest) (*creditnotedomain.ProcessReturnResponse, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	if len(req.Lines) == 0 {
		return nil, creditnotedomain.ErrNothingToReturn
	}
	if req.ReturnRef == "" {
		return nil, creditnotedomain.ErrMissingReturnRef
	}
	if req.RefundMethod != nil && !refundable(*req.RefundMethod) {
		return nil, fmt.Errorf("%w: %s", creditnotedomain.ErrInvalidRefund, *req.RefundMethod)
	}

	original, err := s.invoiceRepo.FindByID(ctx, tc.TenantID, req.OriginalInvoiceID)
	if err != nil {
		return nil, err
	}
	if original == nil {
		return nil, invoicedomain.ErrNotFound
	}
	if original.InvoiceType == invoicedomain.InvoiceTypeCreditNote || original.Status == invoicedomain.InvoiceStatusCancelled {
		return nil, creditnotedomain.ErrNotReturnable
	}
	if req.RefundMethod != nil && *req.RefundMethod == paymentdomain.MethodCredit && original.CustomerID == nil {
		return nil, creditnotedomain.ErrRefundNeedsAccount
	}

	soldLines, err := s.invoiceRepo.ListLineItems(ctx, tc.TenantID, req.OriginalInvoiceID)
	if err != nil {
		return nil, err
	}
	byID := make(map[snowflake.ID]invoicedomain.InvoiceLineItem, len(soldLines))
	for _, li := range soldLines {
		byID[li.ID] = li
	}

	lineInputs := make([]invoicedomain.LineInput, 0, len(req.Lines))
	restocks := make([]inventorydomain.RestockRequest, 0, len(req.Lines))
	for _, rl := range req.Lines {
		sold, ok := byID[rl.LineItemID]
		if !ok {
			return nil, fmt.Errorf("%w: line %s", creditnotedomain.ErrLineNotFound, rl.LineItemID)
		}
		if rl.Quantity <= 0 {
			return nil, fmt.Errorf("%w: got %d", creditnotedomain.ErrInvalidQuantity, rl.Quantity)
		}
		returned, err := s.invoiceRepo.SumReturnedQuantity(ctx, tc.TenantID, sold.ID)
		if err != nil {
			return nil, err
		}
		if returned+rl.Quantity > sold.Quantity {
			return nil, fmt.Errorf("%w: sold %d, already returned %d, requested %d",
				creditnotedomain.ErrQuantityExceeded, sold.Quantity, returned, rl.Quantity)
		}

		origID := sold.ID
		lineInputs = append(lineInputs, invoicedomain.LineInput{
			Cart:               reversalCartLine(sold, rl.Quantity),
			OriginalLineItemID: &origID,
		})
		restocks = append(restocks, inventorydomain.RestockRequest{
			OriginalLineItemID: sold.ID,
			ReturnBatchRef:     req.ReturnRef,
			ProductRef:         sold.ProductRef,
			BatchRef:           sold.BatchRef,
			Quantity:           rl.Quantity,
			Saleable:           true,
		})
	}

	cartLines := make([]gst.CartLine, len(lineInputs))
	for i, in := range lineInputs {
		cartLines[i] = in.Cart
	}
	comp, err := gst.Compute(cartLines, original.SellerStateCode, original.PlaceOfSupply)
	if err != nil {
		return nil, err
	}
	comp.Negate()

	var resp *creditnotedomain.ProcessReturnResponse
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rs := range restocks {
			applied, err := s.restocker.RestockTx(ctx, tx, tc, rs)
			if err != nil {
				return err
			}
			// an existing restock row means this return ref was already
			// processed to completion; replaying it must not mint a second
			// credit note
			if !applied {
				return fmt.Errorf("%w: line %s with return ref %q",
					creditnotedomain.ErrDuplicateReturn, rs.OriginalLineItemID, rs.ReturnBatchRef)
			}
		}

		cn, err := s.assembler.AssembleTx(ctx, tx, tc, invoicedomain.AssembleInput{
			Type:              invoicedomain.InvoiceTypeCreditNote,
			Status:            invoicedomain.InvoiceStatusIssued,
			SequenceKind:      invoicedomain.SequenceKindCreditNote,
			CustomerID:        original.CustomerID,
			OriginalInvoiceID: &original.ID,
			SellerStateCode:   original.SellerStateCode,
			PlaceOfSupply:     original.PlaceOfSupply,
			BuyerGSTIN:        original.BuyerGSTIN,
			Lines:             lineInputs,
			Comp:              comp,
		})
		if err != nil {
			return err
		}

		var refund *paymentdomain.Payment
		if req.RefundMethod != nil {
			refund, err = s.recordRefundTx(ctx, tx, tc, original, cn, *req.RefundMethod)
			if err != nil {
				return err
			}
		}

		lines, err := s.listLineItemsTx(ctx, tx, tc.TenantID, cn.ID)
		if err != nil {
			return err
		}
		resp = &creditnotedomain.ProcessReturnResponse{
			CreditNote: *cn,
			Lines:      lines,
			Refund:     refund,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.obsMetrics != nil {
		s.obsMetrics.RecordCreditNoteIssued()
	}
	s.log.Info("credit note issued",
		zap.String("credit_note_id", resp.CreditNote.ID.String()),
		zap.String("credit_note_number", resp.CreditNote.InvoiceNumber),
		zap.String("original_invoice_id", original.ID.String()),
		zap.Int64("grand_total_paise", resp.CreditNote.TotalInvoicePaise),
		zap.String("reason", req.Reason),
	)
	return resp, nil
}

// reversalCartLine rebuilds the cart line for the returned quantity using
// the prices and inclusion flag persisted at sale time. The line discount is
// prorated by quantity, rounded half up.
func reversalCartLine(sold invoicedomain.InvoiceLineItem, quantity int64) gst.CartLine {
	discount := sold.DiscountPaise
	if quantity != sold.Quantity && sold.Quantity > 0 {
		discount = (sold.DiscountPaise*quantity + sold.Quantity/2) / sold.Quantity
	}
	return gst.CartLine{
		ProductRef:   sold.ProductRef,
		ProductName:  sold.ProductName,
		HSNCode:      sold.HSNCode,
		BatchRef:     sold.BatchRef,
		Quantity:     quantity,
		UnitPrice:    sold.UnitPricePaise,
		Discount:     discount,
		GSTRateBps:   sold.GSTRateBps,
		TaxInclusion: sold.TaxInclusion,
	}
}

// recordRefundTx writes the PAID refund row against the credit note and, for
// CREDIT refunds, releases the amount from the customer's running balance.
func (s *Service) recordRefundTx(ctx context.Context, tx *gorm.DB, tc tenantctx.TenantContext, original, cn *invoicedomain.Invoice, method paymentdomain.Method) (*paymentdomain.Payment, error) {
	amount := -cn.TotalInvoicePaise
	if amount <= 0 {
		return nil, nil
	}
	now := time.Now().UTC()

	if method == paymentdomain.MethodCredit {
		balanceAfter, err := s.customerRepo.ApplyCreditDelta(ctx, tx, tc.TenantID, *original.CustomerID, -amount)
		if err != nil {
			return nil, err
		}
		cnID := cn.ID
		if err := s.customerRepo.AppendLedgerEntry(ctx, tx, &customerdomain.CreditLedgerEntry{
			ID:                s.genID.Generate(),
			TenantID:          tc.TenantID,
			CustomerID:        *original.CustomerID,
			InvoiceID:         &cnID,
			EntryType:         customerdomain.CreditEntryCredit,
			AmountPaise:       amount,
			BalanceAfterPaise: balanceAfter,
			Note:              "return refund",
			CreatedAt:         now,
		}); err != nil {
			return nil, err
		}
	}

	row := paymentdomain.Payment{
		ID:          s.genID.Generate(),
		TenantID:    tc.TenantID,
		InvoiceID:   cn.ID,
		CustomerID:  original.CustomerID,
		Method:      method,
		Status:      paymentdomain.StatusPaid,
		AmountPaise: amount,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := tx.WithContext(ctx).Exec(
		`INSERT INTO payments (
			id, tenant_id, invoice_id, customer_id, method, status,
			amount_paise, provider_payment_id, details, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, NULL, NULL, ?, ?)`,
		row.ID, row.TenantID, row.InvoiceID, row.CustomerID, row.Method, row.Status,
		row.AmountPaise, row.CreatedAt, row.UpdatedAt,
	).Error; err != nil {
		return nil, err
	}

	// The original invoice keeps its paid amount for audit; the refunded
	// state is carried on payment_status.
	if err := tx.WithContext(ctx).Exec(
		`UPDATE invoices SET payment_status = ?, updated_at = ?
		 WHERE tenant_id = ? AND id = ?`,
		invoicedomain.PaymentStatusRefunded,
		now,
		tc.TenantID,
		original.ID,
	).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Service) listLineItemsTx(ctx context.Context, tx *gorm.DB, tenantID, invoiceID snowflake.ID) ([]invoicedomain.InvoiceLineItem, error) {
	var items []invoicedomain.InvoiceLineItem
	err := tx.WithContext(ctx).Raw(
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

func refundable(m paymentdomain.Method) bool {
	switch m {
	case paymentdomain.MethodCash, paymentdomain.MethodCard, paymentdomain.MethodUPI,
		paymentdomain.MethodWallet, paymentdomain.MethodBankTransfer, paymentdomain.MethodCredit:
		return true
	}
	return false
}
