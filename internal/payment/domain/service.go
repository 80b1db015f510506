package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/medloop/aushadhi/internal/invoice/domain"
	"github.com/medloop/aushadhi/internal/tenantctx"
)

// NewPayment is one requested settlement leg.
type NewPayment struct {
	Method      Method  `json:"method"`
	AmountPaise int64   `json:"amount_paise"`
	Details     Details `json:"details"`
}

type RecordPaymentsRequest struct {
	InvoiceID snowflake.ID
	Payments  []NewPayment
}

type RecordPaymentsResponse struct {
	Payments     []Payment             `json:"payments"`
	Invoice      invoicedomain.Invoice `json:"invoice"`
	RemainingDue int64                 `json:"remaining_due_paise"`
}

// Service is the payment ledger. ConfirmPayment and FailPayment are the
// only mutation entry points after a payment row is created; both are
// idempotent so duplicate provider webhooks never double-credit.
type Service interface {
	RecordPayments(ctx context.Context, tc tenantctx.TenantContext, req RecordPaymentsRequest) (*RecordPaymentsResponse, error)
	ConfirmPayment(ctx context.Context, tc tenantctx.TenantContext, paymentID snowflake.ID) error
	FailPayment(ctx context.Context, tc tenantctx.TenantContext, paymentID snowflake.ID) error
	ConfirmByProviderRef(ctx context.Context, tc tenantctx.TenantContext, providerPaymentID string) error
}
