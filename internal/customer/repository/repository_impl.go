package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/medloop/aushadhi/internal/customer/domain"
	"gorm.io/gorm"
)

// Repository persists customers and their append-only credit ledger.
// Balance mutations are single atomic statements so two concurrent
// settlements can never commit from a stale balance read.
type Repository interface {
	Create(ctx context.Context, c *customerdomain.Customer) error
	FindByID(ctx context.Context, tenantID, id snowflake.ID) (*customerdomain.Customer, error)
	ApplyCreditDelta(ctx context.Context, tx *gorm.DB, tenantID, id snowflake.ID, deltaPaise int64) (int64, error)
	AppendLedgerEntry(ctx context.Context, tx *gorm.DB, entry *customerdomain.CreditLedgerEntry) error
	ListLedger(ctx context.Context, tenantID, customerID snowflake.ID, limit int) ([]customerdomain.CreditLedgerEntry, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, c *customerdomain.Customer) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO customers (
			id, tenant_id, name, phone, email, gstin, state_code,
			credit_limit_paise, credit_balance_paise, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.TenantID,
		c.Name,
		c.Phone,
		c.Email,
		c.GSTIN,
		c.StateCode,
		c.CreditLimitPaise,
		c.CreditBalancePaise,
		c.CreatedAt,
		c.UpdatedAt,
	).Error
}

func (r *repository) FindByID(ctx context.Context, tenantID, id snowflake.ID) (*customerdomain.Customer, error) {
	var c customerdomain.Customer
	err := r.db.WithContext(ctx).Raw(
		`SELECT * FROM customers WHERE tenant_id = ? AND id = ?`,
		tenantID,
		id,
	).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == 0 {
		return nil, nil
	}
	return &c, nil
}

// ApplyCreditDelta atomically shifts the running balance and returns the
// balance after the shift. A positive delta that would push the balance
// past a configured credit limit affects no rows and is reported as
// ErrCreditLimitExceeded.
func (r *repository) ApplyCreditDelta(ctx context.Context, tx *gorm.DB, tenantID, id snowflake.ID, deltaPaise int64) (int64, error) {
	var balanceAfter int64
	result := tx.WithContext(ctx).Raw(
		`UPDATE customers
		 SET credit_balance_paise = credit_balance_paise + ?, updated_at = ?
		 WHERE tenant_id = ? AND id = ?
		   AND (? <= 0 OR credit_limit_paise IS NULL OR credit_balance_paise + ? <= credit_limit_paise)
		 RETURNING credit_balance_paise`,
		deltaPaise,
		time.Now().UTC(),
		tenantID,
		id,
		deltaPaise,
		deltaPaise,
	).Scan(&balanceAfter)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		existing, err := r.findByIDTx(ctx, tx, tenantID, id)
		if err != nil {
			return 0, err
		}
		if existing == nil {
			return 0, customerdomain.ErrNotFound
		}
		return 0, customerdomain.ErrCreditLimitExceeded
	}
	return balanceAfter, nil
}

func (r *repository) findByIDTx(ctx context.Context, tx *gorm.DB, tenantID, id snowflake.ID) (*customerdomain.Customer, error) {
	var c customerdomain.Customer
	err := tx.WithContext(ctx).Raw(
		`SELECT * FROM customers WHERE tenant_id = ? AND id = ?`,
		tenantID,
		id,
	).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == 0 {
		return nil, nil
	}
	return &c, nil
}

func (r *repository) AppendLedgerEntry(ctx context.Context, tx *gorm.DB, entry *customerdomain.CreditLedgerEntry) error {
	return tx.WithContext(ctx).Exec(
		`INSERT INTO credit_ledger_entries (
			id, tenant_id, customer_id, invoice_id, entry_type,
			amount_paise, balance_after_paise, note, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.TenantID,
		entry.CustomerID,
		entry.InvoiceID,
		entry.EntryType,
		entry.AmountPaise,
		entry.BalanceAfterPaise,
		entry.Note,
		entry.CreatedAt,
	).Error
}

func (r *repository) ListLedger(ctx context.Context, tenantID, customerID snowflake.ID, limit int) ([]customerdomain.CreditLedgerEntry, error) {
	if limit <= 0 || limit > 250 {
		limit = 50
	}
	var entries []customerdomain.CreditLedgerEntry
	err := r.db.WithContext(ctx).Raw(
		`SELECT * FROM credit_ledger_entries
		 WHERE tenant_id = ? AND customer_id = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		tenantID,
		customerID,
		limit,
	).Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
