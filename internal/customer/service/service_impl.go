package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	customerdomain "github.com/medloop/aushadhi/internal/customer/domain"
	"github.com/medloop/aushadhi/internal/customer/repository"
	"github.com/medloop/aushadhi/internal/tenantctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  repository.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  repository.Repository
}

func NewService(p Params) customerdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("customer.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, tc tenantctx.TenantContext, req customerdomain.CreateCustomerRequest) (*customerdomain.Customer, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, customerdomain.ErrInvalidName
	}

	now := time.Now().UTC()
	c := customerdomain.Customer{
		ID:               s.genID.Generate(),
		TenantID:         tc.TenantID,
		Name:             name,
		Phone:            strings.TrimSpace(req.Phone),
		Email:            strings.TrimSpace(req.Email),
		GSTIN:            req.GSTIN,
		StateCode:        strings.TrimSpace(req.StateCode),
		CreditLimitPaise: req.CreditLimitPaise,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Create(ctx, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Service) GetByID(ctx context.Context, tc tenantctx.TenantContext, id snowflake.ID) (*customerdomain.Customer, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	c, err := s.repo.FindByID(ctx, tc.TenantID, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, customerdomain.ErrNotFound
	}
	return c, nil
}

func (s *Service) ListLedger(ctx context.Context, tc tenantctx.TenantContext, customerID snowflake.ID, limit int) ([]customerdomain.CreditLedgerEntry, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	if c, err := s.repo.FindByID(ctx, tc.TenantID, customerID); err != nil {
		return nil, err
	} else if c == nil {
		return nil, customerdomain.ErrNotFound
	}
	return s.repo.ListLedger(ctx, tc.TenantID, customerID, limit)
}
