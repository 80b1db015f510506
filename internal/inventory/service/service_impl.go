package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/medloop/aushadhi/internal/inventory/domain"
	"github.com/medloop/aushadhi/internal/tenantctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Restocker puts returned stock back into inventory. Implementations must
// be idempotent per (original line item, return batch).
type Restocker interface {
	RestockTx(ctx context.Context, tx *gorm.DB, tc tenantctx.TenantContext, req domain.RestockRequest) (bool, error)
}

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
}

func NewService(p Params) *Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("inventory.service"),
		genID: p.GenID,
	}
}

// NewRestocker exposes the concrete service under the Restocker interface.
func NewRestocker(s *Service) Restocker { return s }

// RestockTx appends a restock row inside the caller's transaction. A replay
// for the same line and return batch is swallowed and reported as applied=false.
func (s *Service) RestockTx(ctx context.Context, tx *gorm.DB, tc tenantctx.TenantContext, req domain.RestockRequest) (bool, error) {
	if err := tc.Validate(); err != nil {
		return false, err
	}

	req.ID = s.genID.Generate()
	req.TenantID = tc.TenantID
	req.CreatedAt = time.Now().UTC()

	result := tx.WithContext(ctx).Exec(
		`INSERT INTO restock_requests (
			id, tenant_id, original_line_item_id, return_batch_ref,
			product_ref, batch_ref, quantity, saleable, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (tenant_id, original_line_item_id, return_batch_ref) DO NOTHING`,
		req.ID, req.TenantID, req.OriginalLineItemID, req.ReturnBatchRef,
		req.ProductRef, req.BatchRef, req.Quantity, req.Saleable, req.CreatedAt,
	)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		s.log.Debug("restock already applied",
			zap.String("original_line_item_id", req.OriginalLineItemID.String()),
			zap.String("return_batch_ref", req.ReturnBatchRef),
		)
		return false, nil
	}
	return true, nil
}
