package server

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/medloop/aushadhi/internal/tenantctx"
	"go.uber.org/zap"
)

// RequestLogger emits one structured line per request.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	l := log.Named("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.Last().Error()))
		}
		if c.Writer.Status() >= 500 {
			l.Error("request", fields...)
			return
		}
		l.Info("request", fields...)
	}
}

// TenantRequired resolves the seller identity headers into a TenantContext
// and stores it on the request context. Requests without a complete identity
// never reach a handler.
func (s *Server) TenantRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		tc, err := tenantFromHeaders(c)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		ctx := tenantctx.WithTenant(c.Request.Context(), tc)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func tenantFromHeaders(c *gin.Context) (tenantctx.TenantContext, error) {
	tenantID, err := parseIDHeader(c, "X-Tenant-ID")
	if err != nil {
		return tenantctx.TenantContext{}, err
	}
	sellerOrgID, err := parseIDHeader(c, "X-Seller-Org-ID")
	if err != nil {
		return tenantctx.TenantContext{}, err
	}
	sellerGSTINID, err := parseIDHeader(c, "X-Seller-Gstin-ID")
	if err != nil {
		return tenantctx.TenantContext{}, err
	}
	return tenantctx.TenantContext{
		TenantID:      tenantID,
		SellerOrgID:   sellerOrgID,
		SellerGSTINID: sellerGSTINID,
	}, nil
}

func parseIDHeader(c *gin.Context, name string) (snowflake.ID, error) {
	raw := strings.TrimSpace(c.GetHeader(name))
	if raw == "" {
		return 0, tenantctx.ErrMissingTenant
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, tenantctx.ErrMissingTenant
	}
	return id, nil
}

func (s *Server) tenant(c *gin.Context) (tenantctx.TenantContext, bool) {
	tc, ok := tenantctx.FromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, tenantctx.ErrMissingTenant)
		return tenantctx.TenantContext{}, false
	}
	return tc, true
}
