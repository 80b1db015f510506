// Package domain holds the restock ledger written when returned stock
// re-enters inventory.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// RestockRequest records one returned line going back to stock. The
// (tenant, original line item, return batch) key makes retried returns
// restock at most once.
type RestockRequest struct {
	ID                 snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID           snowflake.ID `gorm:"not null;uniqueIndex:ux_restock_line_batch" json:"tenant_id"`
	OriginalLineItemID snowflake.ID `gorm:"not null;uniqueIndex:ux_restock_line_batch" json:"original_line_item_id"`
	ReturnBatchRef     string       `gorm:"type:text;not null;uniqueIndex:ux_restock_line_batch" json:"return_batch_ref"`
	ProductRef         string       `gorm:"type:text;not null" json:"product_ref"`
	BatchRef           string       `gorm:"type:text" json:"batch_ref,omitempty"`
	Quantity           int64        `gorm:"not null" json:"quantity"`
	Saleable           bool         `gorm:"not null" json:"saleable"`
	CreatedAt          time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (RestockRequest) TableName() string { return "restock_requests" }
