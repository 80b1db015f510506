package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/medloop/aushadhi/internal/customer/domain"
	customerrepo "github.com/medloop/aushadhi/internal/customer/repository"
	invoicedomain "github.com/medloop/aushadhi/internal/invoice/domain"
	obsmetrics "github.com/medloop/aushadhi/internal/observability/metrics"
	paymentdomain "github.com/medloop/aushadhi/internal/payment/domain"
	"github.com/medloop/aushadhi/internal/payment/repository"
	"github.com/medloop/aushadhi/internal/tenantctx"
	"github.com/medloop/aushadhi/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Repo         repository.Repository
	CustomerRepo customerrepo.Repository
	ObsMetrics   *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	repo         repository.Repository
	customerRepo customerrepo.Repository
	obsMetrics   *obsmetrics.Metrics
}

func NewService(p Params) *Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("payment.service"),
		genID:        p.GenID,
		repo:         p.Repo,
		customerRepo: p.CustomerRepo,
		obsMetrics:   p.ObsMetrics,
	}
}

// NewDomainService exposes the concrete service under the domain interface.
func NewDomainService(s *Service) paymentdomain.Service { return s }

// RecordPayments settles one or more legs against an invoice. The cumulative
// paid amount can never exceed the invoice total; CREDIT legs additionally
// honor the customer's credit limit, and the whole call commits or rolls
// back as a unit.
func (s *Service) RecordPayments(ctx context.Context, tc tenantctx.TenantContext, req paymentdomain.RecordPaymentsRequest) (*paymentdomain.RecordPaymentsResponse, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	if len(req.Payments) == 0 {
		return nil, paymentdomain.ErrNoPayments
	}
	for _, p := range req.Payments {
		if err := validateNewPayment(p); err != nil {
			return nil, err
		}
	}

	var resp *paymentdomain.RecordPaymentsResponse
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		inv, err := s.loadInvoiceTx(ctx, tx, tc.TenantID, req.InvoiceID)
		if err != nil {
			return err
		}
		if inv == nil {
			return invoicedomain.ErrNotFound
		}
		if inv.Status == invoicedomain.InvoiceStatusCancelled || inv.InvoiceType == invoicedomain.InvoiceTypeCreditNote {
			return paymentdomain.ErrInvoiceNotSettlable
		}

		remaining := inv.TotalInvoicePaise - inv.PaidAmountPaise
		var requested int64
		for _, p := range req.Payments {
			requested += p.AmountPaise
		}
		if requested > remaining {
			return fmt.Errorf("%w: remaining due %d paise, attempted %d paise",
				paymentdomain.ErrOverpayment, remaining, requested)
		}

		now := time.Now().UTC()
		created := make([]paymentdomain.Payment, 0, len(req.Payments))
		var paidDelta int64

		for _, p := range req.Payments {
			status := paymentdomain.StatusInitiated
			if p.Method.Instant() {
				status = paymentdomain.StatusPaid
				paidDelta += p.AmountPaise
			}

			var customerID *snowflake.ID
			if p.Method == paymentdomain.MethodCredit {
				id := p.Details.Credit.CustomerID
				customerID = &id
				if err := s.applyCreditCharge(ctx, tx, tc, id, inv.ID, p.AmountPaise, now); err != nil {
					return err
				}
			}

			row, err := s.insertPaymentTx(ctx, tx, tc, inv.ID, customerID, p, status, now)
			if err != nil {
				return err
			}
			created = append(created, *row)
		}

		if paidDelta > 0 {
			if err := s.bumpInvoicePaid(ctx, tx, tc.TenantID, inv.ID, paidDelta, now); err != nil {
				return err
			}
		}

		inv, err = s.loadInvoiceTx(ctx, tx, tc.TenantID, req.InvoiceID)
		if err != nil {
			return err
		}
		resp = &paymentdomain.RecordPaymentsResponse{
			Payments:     created,
			Invoice:      *inv,
			RemainingDue: inv.TotalInvoicePaise - inv.PaidAmountPaise,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, p := range resp.Payments {
		if s.obsMetrics != nil {
			s.obsMetrics.RecordPaymentRecorded(string(p.Method))
		}
	}
	s.log.Info("payments recorded",
		zap.String("invoice_id", req.InvoiceID.String()),
		zap.Int("count", len(resp.Payments)),
		zap.Int64("remaining_due_paise", resp.RemainingDue),
	)
	return resp, nil
}

// ConfirmPayment advances an INITIATED payment to PAID and credits the
// invoice. Replaying the call for an already-PAID payment is a no-op, so
// duplicate provider webhooks never double-credit.
func (s *Service) ConfirmPayment(ctx context.Context, tc tenantctx.TenantContext, paymentID snowflake.ID) error {
	if err := tc.Validate(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		result := tx.WithContext(ctx).Exec(
			`UPDATE payments SET status = ?, updated_at = ?
			 WHERE tenant_id = ? AND id = ? AND status = ?`,
			paymentdomain.StatusPaid,
			now,
			tc.TenantID,
			paymentID,
			paymentdomain.StatusInitiated,
		)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			existing, err := s.findPaymentTx(ctx, tx, tc.TenantID, paymentID)
			if err != nil {
				return err
			}
			if existing == nil {
				return paymentdomain.ErrPaymentNotFound
			}
			if existing.Status == paymentdomain.StatusPaid {
				return nil
			}
			return paymentdomain.ErrAlreadyFinal
		}

		p, err := s.findPaymentTx(ctx, tx, tc.TenantID, paymentID)
		if err != nil {
			return err
		}
		return s.bumpInvoicePaid(ctx, tx, tc.TenantID, p.InvoiceID, p.AmountPaise, now)
	})
}

// FailPayment marks an INITIATED payment FAILED. The invoice itself stays
// valid; the caller may retry with a fresh payment.
func (s *Service) FailPayment(ctx context.Context, tc tenantctx.TenantContext, paymentID snowflake.ID) error {
	if err := tc.Validate(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.WithContext(ctx).Exec(
			`UPDATE payments SET status = ?, updated_at = ?
			 WHERE tenant_id = ? AND id = ? AND status = ?`,
			paymentdomain.StatusFailed,
			time.Now().UTC(),
			tc.TenantID,
			paymentID,
			paymentdomain.StatusInitiated,
		)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			existing, err := s.findPaymentTx(ctx, tx, tc.TenantID, paymentID)
			if err != nil {
				return err
			}
			if existing == nil {
				return paymentdomain.ErrPaymentNotFound
			}
			if existing.Status == paymentdomain.StatusFailed {
				return nil
			}
			return paymentdomain.ErrAlreadyFinal
		}
		return nil
	})
}

// ConfirmByProviderRef resolves the payment a provider webhook refers to
// and confirms it. Keying on the provider payment id makes webhook retries
// idempotent end to end.
func (s *Service) ConfirmByProviderRef(ctx context.Context, tc tenantctx.TenantContext, providerPaymentID string) error {
	if err := tc.Validate(); err != nil {
		return err
	}
	if providerPaymentID == "" {
		return paymentdomain.ErrPaymentNotFound
	}
	p, err := s.repo.FindByProviderRef(ctx, tc.TenantID, providerPaymentID)
	if err != nil {
		return err
	}
	if p == nil {
		return paymentdomain.ErrPaymentNotFound
	}
	return s.ConfirmPayment(ctx, tc, p.ID)
}

func (s *Service) applyCreditCharge(ctx context.Context, tx *gorm.DB, tc tenantctx.TenantContext, customerID, invoiceID snowflake.ID, amountPaise int64, now time.Time) error {
	balanceAfter, err := s.customerRepo.ApplyCreditDelta(ctx, tx, tc.TenantID, customerID, amountPaise)
	if err != nil {
		if errors.Is(err, customerdomain.ErrCreditLimitExceeded) {
			var c customerdomain.Customer
			lookupErr := tx.WithContext(ctx).Raw(
				`SELECT * FROM customers WHERE tenant_id = ? AND id = ?`,
				tc.TenantID,
				customerID,
			).Scan(&c).Error
			if lookupErr == nil && c.CreditLimitPaise != nil {
				return fmt.Errorf("%w: balance %d + credit %d exceeds limit %d paise",
					customerdomain.ErrCreditLimitExceeded, c.CreditBalancePaise, amountPaise, *c.CreditLimitPaise)
			}
		}
		return err
	}

	invID := invoiceID
	return s.customerRepo.AppendLedgerEntry(ctx, tx, &customerdomain.CreditLedgerEntry{
		ID:                s.genID.Generate(),
		TenantID:          tc.TenantID,
		CustomerID:        customerID,
		InvoiceID:         &invID,
		EntryType:         customerdomain.CreditEntryDebit,
		AmountPaise:       amountPaise,
		BalanceAfterPaise: balanceAfter,
		Note:              "credit sale",
		CreatedAt:         now,
	})
}

func (s *Service) insertPaymentTx(ctx context.Context, tx *gorm.DB, tc tenantctx.TenantContext, invoiceID snowflake.ID, customerID *snowflake.ID, p paymentdomain.NewPayment, status paymentdomain.Status, now time.Time) (*paymentdomain.Payment, error) {
	detailsJSON, err := json.Marshal(p.Details)
	if err != nil {
		return nil, err
	}

	var providerRef *string
	if ref := p.Details.ProviderPaymentID(); ref != "" {
		providerRef = &ref
	}

	row := paymentdomain.Payment{
		ID:                s.genID.Generate(),
		TenantID:          tc.TenantID,
		InvoiceID:         invoiceID,
		CustomerID:        customerID,
		Method:            p.Method,
		Status:            status,
		AmountPaise:       p.AmountPaise,
		ProviderPaymentID: providerRef,
		Details:           datatypes.JSON(detailsJSON),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := tx.WithContext(ctx).Exec(
		`INSERT INTO payments (
			id, tenant_id, invoice_id, customer_id, method, status,
			amount_paise, provider_payment_id, details, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.TenantID, row.InvoiceID, row.CustomerID, row.Method, row.Status,
		row.AmountPaise, row.ProviderPaymentID, row.Details, row.CreatedAt, row.UpdatedAt,
	).Error; err != nil {
		if providerRef != nil && db.IsDuplicateKeyErr(err) {
			return nil, fmt.Errorf("%w: %s", paymentdomain.ErrDuplicateProvider, *providerRef)
		}
		return nil, err
	}
	return &row, nil
}

// bumpInvoicePaid credits the invoice inside one conditional statement so a
// concurrent settlement can never push paid past total.
func (s *Service) bumpInvoicePaid(ctx context.Context, tx *gorm.DB, tenantID, invoiceID snowflake.ID, deltaPaise int64, now time.Time) error {
	result := tx.WithContext(ctx).Exec(
		`UPDATE invoices
		 SET paid_amount_paise = paid_amount_paise + ?,
		     payment_status = CASE
		         WHEN paid_amount_paise + ? >= total_invoice_paise THEN ?
		         WHEN paid_amount_paise + ? > 0 THEN ?
		         ELSE ?
		     END,
		     updated_at = ?
		 WHERE tenant_id = ? AND id = ? AND paid_amount_paise + ? <= total_invoice_paise`,
		deltaPaise,
		deltaPaise, invoicedomain.PaymentStatusPaid,
		deltaPaise, invoicedomain.PaymentStatusPartiallyPaid,
		invoicedomain.PaymentStatusPending,
		now,
		tenantID,
		invoiceID,
		deltaPaise,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return paymentdomain.ErrOverpayment
	}
	return nil
}

func (s *Service) findPaymentTx(ctx context.Context, tx *gorm.DB, tenantID, id snowflake.ID) (*paymentdomain.Payment, error) {
	var p paymentdomain.Payment
	err := tx.WithContext(ctx).Raw(
		`SELECT * FROM payments WHERE tenant_id = ? AND id = ?`,
		tenantID,
		id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (s *Service) loadInvoiceTx(ctx context.Context, tx *gorm.DB, tenantID, id snowflake.ID) (*invoicedomain.Invoice, error) {
	var inv invoicedomain.Invoice
	err := tx.WithContext(ctx).Raw(
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

func validateNewPayment(p paymentdomain.NewPayment) error {
	if p.AmountPaise <= 0 {
		return fmt.Errorf("%w: amount must be positive, got %d paise", paymentdomain.ErrInvalidAmount, p.AmountPaise)
	}
	switch p.Method {
	case paymentdomain.MethodCash, paymentdomain.MethodCard, paymentdomain.MethodUPI,
		paymentdomain.MethodWallet, paymentdomain.MethodCheque,
		paymentdomain.MethodBankTransfer, paymentdomain.MethodCredit:
	default:
		// SPLIT settlements arrive as multiple rows, never as one row
		return paymentdomain.ErrInvalidMethod
	}
	return p.Details.Validate(p.Method)
}
