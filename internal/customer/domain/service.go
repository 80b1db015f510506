package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/medloop/aushadhi/internal/tenantctx"
)

type CreateCustomerRequest struct {
	Name             string  `json:"name"`
	Phone            string  `json:"phone"`
	Email            string  `json:"email"`
	GSTIN            *string `json:"gstin,omitempty"`
	StateCode        string  `json:"state_code"`
	CreditLimitPaise *int64  `json:"credit_limit_paise,omitempty"`
}

type Service interface {
	Create(ctx context.Context, tc tenantctx.TenantContext, req CreateCustomerRequest) (*Customer, error)
	GetByID(ctx context.Context, tc tenantctx.TenantContext, id snowflake.ID) (*Customer, error)
	ListLedger(ctx context.Context, tc tenantctx.TenantContext, customerID snowflake.ID, limit int) ([]CreditLedgerEntry, error)
}
