// Package domain contains customer and credit ledger models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Customer struct {
	ID                 snowflake.ID      `gorm:"primaryKey" json:"id"`
	TenantID           snowflake.ID      `gorm:"not null;index" json:"tenant_id"`
	Name               string            `gorm:"type:text;not null" json:"name"`
	Phone              string            `gorm:"type:text" json:"phone,omitempty"`
	Email              string            `gorm:"type:text" json:"email,omitempty"`
	GSTIN              *string           `gorm:"type:text" json:"gstin,omitempty"`
	StateCode          string            `gorm:"type:text" json:"state_code,omitempty"`
	CreditLimitPaise   *int64            `json:"credit_limit_paise,omitempty"`
	CreditBalancePaise int64             `gorm:"not null;default:0" json:"credit_balance_paise"`
	Metadata           datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt          time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "customers" }

// CreditEntryType marks the direction of a credit ledger entry: DEBIT grows
// the customer's outstanding balance, CREDIT shrinks it.
type CreditEntryType string

const (
	CreditEntryDebit  CreditEntryType = "DEBIT"
	CreditEntryCredit CreditEntryType = "CREDIT"
)

// CreditLedgerEntry is one row of the strictly ordered append-only credit
// ledger. BalanceAfterPaise equals the customer's running balance at the
// instant the entry was written; rows are never updated in place.
type CreditLedgerEntry struct {
	ID                snowflake.ID    `gorm:"primaryKey" json:"id"`
	TenantID          snowflake.ID    `gorm:"not null;index" json:"tenant_id"`
	CustomerID        snowflake.ID    `gorm:"not null;index" json:"customer_id"`
	InvoiceID         *snowflake.ID   `gorm:"index" json:"invoice_id,omitempty"`
	EntryType         CreditEntryType `gorm:"type:text;not null" json:"entry_type"`
	AmountPaise       int64           `gorm:"not null" json:"amount_paise"`
	BalanceAfterPaise int64           `gorm:"not null" json:"balance_after_paise"`
	Note              string          `gorm:"type:text" json:"note,omitempty"`
	CreatedAt         time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (CreditLedgerEntry) TableName() string { return "credit_ledger_entries" }
