// Package tenantctx threads the seller identity explicitly through every
// engine call. There is no global default tenant; callers that cannot
// produce a complete TenantContext are rejected up front.
package tenantctx

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var ErrMissingTenant = errors.New("missing_tenant_context")

// TenantContext identifies the seller on whose behalf a request runs.
type TenantContext struct {
	TenantID      snowflake.ID
	SellerOrgID   snowflake.ID
	SellerGSTINID snowflake.ID
}

// Validate reports whether the context is complete enough to bill under.
func (tc TenantContext) Validate() error {
	if tc.TenantID == 0 || tc.SellerOrgID == 0 || tc.SellerGSTINID == 0 {
		return ErrMissingTenant
	}
	return nil
}

type contextKey struct{}

// WithTenant stores the tenant context on the request context.
func WithTenant(ctx context.Context, tc TenantContext) context.Context {
	return context.WithValue(ctx, contextKey{}, tc)
}

// FromContext returns the tenant context stored by the middleware.
func FromContext(ctx context.Context) (TenantContext, bool) {
	tc, ok := ctx.Value(contextKey{}).(TenantContext)
	return tc, ok
}
