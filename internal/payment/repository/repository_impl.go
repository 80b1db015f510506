package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	paymentdomain "github.com/medloop/aushadhi/internal/payment/domain"
	"gorm.io/gorm"
)

// Repository serves payment reads. Settlement writes run inside the
// service transaction.
type Repository interface {
	FindByID(ctx context.Context, tenantID, id snowflake.ID) (*paymentdomain.Payment, error)
	FindByProviderRef(ctx context.Context, tenantID snowflake.ID, providerPaymentID string) (*paymentdomain.Payment, error)
	ListByInvoice(ctx context.Context, tenantID, invoiceID snowflake.ID) ([]paymentdomain.Payment, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, tenantID, id snowflake.ID) (*paymentdomain.Payment, error) {
	var p paymentdomain.Payment
	err := r.db.WithContext(ctx).Raw(
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

func (r *repository) FindByProviderRef(ctx context.Context, tenantID snowflake.ID, providerPaymentID string) (*paymentdomain.Payment, error) {
	var p paymentdomain.Payment
	err := r.db.WithContext(ctx).Raw(
		`SELECT * FROM payments WHERE tenant_id = ? AND provider_payment_id = ?`,
		tenantID,
		providerPaymentID,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repository) ListByInvoice(ctx context.Context, tenantID, invoiceID snowflake.ID) ([]paymentdomain.Payment, error) {
	var payments []paymentdomain.Payment
	err := r.db.WithContext(ctx).Raw(
		`SELECT * FROM payments
		 WHERE tenant_id = ? AND invoice_id = ?
		 ORDER BY id ASC`,
		tenantID,
		invoiceID,
	).Scan(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}
