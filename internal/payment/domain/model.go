// Package domain contains the payment ledger models. A payment's method
// details are a closed tagged variant: exactly the field matching the
// method may be set, everything else stays nil.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Method string

const (
	MethodCash         Method = "CASH"
	MethodCard         Method = "CARD"
	MethodUPI          Method = "UPI"
	MethodWallet       Method = "WALLET"
	MethodCheque       Method = "CHEQUE"
	MethodBankTransfer Method = "BANK_TRANSFER"
	MethodCredit       Method = "CREDIT"
	// MethodSplit is a presentation concept: a split settlement is recorded
	// as multiple payment rows, never as a single SPLIT row.
	MethodSplit Method = "SPLIT"
)

type Status string

const (
	StatusInitiated Status = "INITIATED"
	StatusPaid      Status = "PAID"
	StatusFailed    Status = "FAILED"
	StatusRefunded  Status = "REFUNDED"
)

type CardDetails struct {
	ProviderPaymentID string `json:"provider_payment_id"`
	Network           string `json:"network,omitempty"`
	Last4             string `json:"last4,omitempty"`
}

type UPIDetails struct {
	ProviderPaymentID string `json:"provider_payment_id"`
	VPA               string `json:"vpa,omitempty"`
}

type WalletDetails struct {
	ProviderPaymentID string `json:"provider_payment_id"`
	Provider          string `json:"provider,omitempty"`
}

type ChequeDetails struct {
	ChequeNumber string `json:"cheque_number"`
	BankName     string `json:"bank_name,omitempty"`
}

type BankTransferDetails struct {
	UTRNumber string `json:"utr_number"`
	BankName  string `json:"bank_name,omitempty"`
}

type CreditDetails struct {
	CustomerID snowflake.ID `json:"customer_id"`
}

// Details is the closed variant record for method-specific fields.
type Details struct {
	Card         *CardDetails         `json:"card,omitempty"`
	UPI          *UPIDetails          `json:"upi,omitempty"`
	Wallet       *WalletDetails       `json:"wallet,omitempty"`
	Cheque       *ChequeDetails       `json:"cheque,omitempty"`
	BankTransfer *BankTransferDetails `json:"bank_transfer,omitempty"`
	Credit       *CreditDetails       `json:"credit,omitempty"`
}

// Validate checks that exactly the variant matching the method is populated.
func (d Details) Validate(method Method) error {
	populated := 0
	if d.Card != nil {
		populated++
	}
	if d.UPI != nil {
		populated++
	}
	if d.Wallet != nil {
		populated++
	}
	if d.Cheque != nil {
		populated++
	}
	if d.BankTransfer != nil {
		populated++
	}
	if d.Credit != nil {
		populated++
	}

	switch method {
	case MethodCash:
		if populated != 0 {
			return ErrInvalidDetails
		}
	case MethodCard:
		if populated != 1 || d.Card == nil || d.Card.ProviderPaymentID == "" {
			return ErrInvalidDetails
		}
	case MethodUPI:
		if populated != 1 || d.UPI == nil || d.UPI.ProviderPaymentID == "" {
			return ErrInvalidDetails
		}
	case MethodWallet:
		if populated != 1 || d.Wallet == nil || d.Wallet.ProviderPaymentID == "" {
			return ErrInvalidDetails
		}
	case MethodCheque:
		if populated != 1 || d.Cheque == nil || d.Cheque.ChequeNumber == "" {
			return ErrInvalidDetails
		}
	case MethodBankTransfer:
		if populated != 1 || d.BankTransfer == nil || d.BankTransfer.UTRNumber == "" {
			return ErrInvalidDetails
		}
	case MethodCredit:
		if populated != 1 || d.Credit == nil || d.Credit.CustomerID == 0 {
			return ErrInvalidDetails
		}
	default:
		return ErrInvalidMethod
	}
	return nil
}

// ProviderPaymentID returns the external provider reference when the
// method carries one. Provider webhooks are keyed by it.
func (d Details) ProviderPaymentID() string {
	switch {
	case d.Card != nil:
		return d.Card.ProviderPaymentID
	case d.UPI != nil:
		return d.UPI.ProviderPaymentID
	case d.Wallet != nil:
		return d.Wallet.ProviderPaymentID
	}
	return ""
}

// Payment is one settlement row against an invoice.
type Payment struct {
	ID                snowflake.ID   `gorm:"primaryKey" json:"id"`
	TenantID          snowflake.ID   `gorm:"not null;index" json:"tenant_id"`
	InvoiceID         snowflake.ID   `gorm:"not null;index" json:"invoice_id"`
	CustomerID        *snowflake.ID  `gorm:"index" json:"customer_id,omitempty"`
	Method            Method         `gorm:"type:text;not null" json:"method"`
	Status            Status         `gorm:"type:text;not null" json:"status"`
	AmountPaise       int64          `gorm:"not null" json:"amount_paise"`
	ProviderPaymentID *string        `gorm:"type:text;uniqueIndex:ux_payments_provider_ref" json:"provider_payment_id,omitempty"`
	Details           datatypes.JSON `gorm:"type:jsonb" json:"details,omitempty"`
	CreatedAt         time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }

// Instant reports whether the method settles synchronously at the counter.
// Everything else starts INITIATED and is advanced by ConfirmPayment or
// FailPayment only.
func (m Method) Instant() bool {
	return m == MethodCash || m == MethodCredit
}
