package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/medloop/aushadhi/internal/clock"
	creditnotedomain "github.com/medloop/aushadhi/internal/creditnote/domain"
	creditnoteservice "github.com/medloop/aushadhi/internal/creditnote/service"
	customerdomain "github.com/medloop/aushadhi/internal/customer/domain"
	customerrepo "github.com/medloop/aushadhi/internal/customer/repository"
	"github.com/medloop/aushadhi/internal/gst"
	inventorydomain "github.com/medloop/aushadhi/internal/inventory/domain"
	inventoryservice "github.com/medloop/aushadhi/internal/inventory/service"
	invoicedomain "github.com/medloop/aushadhi/internal/invoice/domain"
	invoicerepo "github.com/medloop/aushadhi/internal/invoice/repository"
	invoiceservice "github.com/medloop/aushadhi/internal/invoice/service"
	paymentdomain "github.com/medloop/aushadhi/internal/payment/domain"
	"github.com/medloop/aushadhi/internal/tenantctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db            *gorm.DB
	node          *snowflake.Node
	fc            *clock.FakeClock
	svc           *Service
	invoiceSvc    *invoiceservice.Service
	creditNoteSvc *creditnoteservice.Service
	tc            tenantctx.TenantContext
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceLineItem{},
		&invoicedomain.InvoiceTaxLine{},
		&invoicedomain.InvoiceSequence{},
		&paymentdomain.Payment{},
		&customerdomain.Customer{},
		&customerdomain.CreditLedgerEntry{},
		&inventorydomain.RestockRequest{},
	)
	require.NoError(t, err)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()
	fc := clock.NewFakeClock(time.Date(2026, 4, 10, 11, 0, 0, 0, time.UTC))
	invRepo := invoicerepo.NewRepository(db)

	invoiceSvc := invoiceservice.NewService(invoiceservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: fc,
		Repo:  invRepo,
	})
	restocker := inventoryservice.NewService(inventoryservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
	})
	creditNoteSvc := creditnoteservice.NewService(creditnoteservice.Params{
		DB:           db,
		Log:          log,
		GenID:        node,
		InvoiceRepo:  invRepo,
		Assembler:    invoiceservice.NewAssembler(invoiceSvc),
		Restocker:    inventoryservice.NewRestocker(restocker),
		CustomerRepo: customerrepo.NewRepository(db),
	})

	return &fixture{
		db:            db,
		node:          node,
		fc:            fc,
		svc:           NewService(Params{DB: db, Log: log}),
		invoiceSvc:    invoiceSvc,
		creditNoteSvc: creditNoteSvc,
		tc:            tenantctx.TenantContext{TenantID: 1, SellerOrgID: 2, SellerGSTINID: 3},
	}
}

func (f *fixture) checkout(t *testing.T, buyerState string, items ...gst.CartLine) snowflake.ID {
	t.Helper()
	resp, err := f.invoiceSvc.Checkout(context.Background(), f.tc, invoicedomain.CheckoutRequest{
		SellerStateCode: "MH",
		BuyerStateCode:  buyerState,
		Items:           items,
	})
	require.NoError(t, err)
	return resp.ID
}

func (f *fixture) returnFirstLine(t *testing.T, invoiceID snowflake.ID, quantity int64, ref string) {
	t.Helper()
	detail, err := f.invoiceSvc.GetByID(context.Background(), f.tc, invoiceID)
	require.NoError(t, err)
	_, err = f.creditNoteSvc.ProcessReturn(context.Background(), f.tc, creditnotedomain.ProcessReturnRequest{
		OriginalInvoiceID: invoiceID,
		Lines: []creditnotedomain.ReturnLine{
			{LineItemID: detail.LineItems[0].ID, Quantity: quantity},
		},
		ReturnRef: ref,
	})
	require.NoError(t, err)
}

func paracetamol(quantity int64) gst.CartLine {
	return gst.CartLine{
		ProductRef:   "SKU-1",
		ProductName:  "Paracetamol 500mg",
		HSNCode:      "3004",
		Quantity:     quantity,
		UnitPrice:    10000,
		GSTRateBps:   1200,
		TaxInclusion: gst.TaxInclusionExclusive,
	}
}

func toothpaste() gst.CartLine {
	return gst.CartLine{
		ProductRef:   "SKU-2",
		ProductName:  "Herbal Toothpaste",
		HSNCode:      "3306",
		Quantity:     1,
		UnitPrice:    5000,
		GSTRateBps:   1800,
		TaxInclusion: gst.TaxInclusionExclusive,
	}
}

func TestHSNSummary_NetsReturnsAndSkipsCancelled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// intra-state sale of two HSN codes, inter-state sale of the first,
	// then one unit of the first comes back
	a := f.checkout(t, "MH", paracetamol(2), toothpaste())
	f.checkout(t, "KA", paracetamol(1))
	f.returnFirstLine(t, a, 1, "RET-001")

	// cancelled invoices never reach the report
	c := f.checkout(t, "MH", paracetamol(5))
	_, err := f.invoiceSvc.Cancel(ctx, f.tc, c)
	require.NoError(t, err)

	from := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	rows, err := f.svc.HSNSummary(ctx, f.tc, from, from.AddDate(0, 1, 0))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	para := rows[0]
	assert.Equal(t, "3004", para.HSNCode)
	assert.Equal(t, int64(2), para.TotalQuantity)
	assert.Equal(t, int64(20000), para.TotalTaxablePaise)
	assert.Equal(t, int64(600), para.TotalCGSTPaise)
	assert.Equal(t, int64(600), para.TotalSGSTPaise)
	assert.Equal(t, int64(1200), para.TotalIGSTPaise)

	paste := rows[1]
	assert.Equal(t, "3306", paste.HSNCode)
	assert.Equal(t, int64(1), paste.TotalQuantity)
	assert.Equal(t, int64(5000), paste.TotalTaxablePaise)
	assert.Equal(t, int64(450), paste.TotalCGSTPaise)
	assert.Equal(t, int64(450), paste.TotalSGSTPaise)
	assert.Equal(t, int64(0), paste.TotalIGSTPaise)
}

func TestDailySummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 28300 intra-state, 11200 inter-state, -11200 return
	a := f.checkout(t, "MH", paracetamol(2), toothpaste())
	f.checkout(t, "KA", paracetamol(1))
	f.returnFirstLine(t, a, 1, "RET-001")

	// one settled payment inside the reporting day
	paidAt := time.Date(2026, 4, 10, 15, 0, 0, 0, time.UTC)
	require.NoError(t, f.db.Exec(
		`INSERT INTO payments (
			id, tenant_id, invoice_id, method, status,
			amount_paise, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.node.Generate(), f.tc.TenantID, a,
		paymentdomain.MethodCash, paymentdomain.StatusPaid,
		int64(28300), paidAt, paidAt,
	).Error)

	got, err := f.svc.DailySummary(ctx, f.tc, time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "2026-04-10", got.Day)
	assert.Equal(t, int64(2), got.InvoiceCount)
	assert.Equal(t, int64(1), got.CreditNoteCount)
	assert.Equal(t, int64(25000), got.TotalTaxablePaise)
	assert.Equal(t, int64(3300), got.TotalGSTPaise)
	assert.Equal(t, int64(28300), got.TotalInvoicePaise)
	assert.Equal(t, int64(28300), got.CollectedPaise)
}

func TestDailySummary_EmptyDay(t *testing.T) {
	f := newFixture(t)

	got, err := f.svc.DailySummary(context.Background(), f.tc, time.Date(2026, 4, 11, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.InvoiceCount)
	assert.Equal(t, int64(0), got.TotalInvoicePaise)
	assert.Equal(t, int64(0), got.CollectedPaise)
}

func TestYearEndSummary_BucketsByMonth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// April: 22400 sold, 11200 returned
	a := f.checkout(t, "MH", paracetamol(2))
	f.returnFirstLine(t, a, 1, "RET-001")

	// May: 11200 inter-state
	f.fc.Advance(31 * 24 * time.Hour)
	f.checkout(t, "KA", paracetamol(1))

	got, err := f.svc.YearEndSummary(ctx, f.tc, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Equal(t, "2026-04-01", got.FiscalYearStart)
	require.Len(t, got.Months, 12)

	april := got.Months[0]
	assert.Equal(t, "2026-04", april.Month)
	assert.Equal(t, int64(1), april.InvoiceCount)
	assert.Equal(t, int64(1), april.CreditNoteCount)
	assert.Equal(t, int64(22400-11200), april.TotalInvoicePaise)

	may := got.Months[1]
	assert.Equal(t, "2026-05", may.Month)
	assert.Equal(t, int64(1), may.InvoiceCount)
	assert.Equal(t, int64(0), may.CreditNoteCount)
	assert.Equal(t, int64(11200), may.TotalInvoicePaise)

	for _, m := range got.Months[2:] {
		assert.Equal(t, int64(0), m.InvoiceCount+m.CreditNoteCount)
	}
	assert.Equal(t, int64(22400), got.TotalInvoicePaise)
	assert.Equal(t, int64(20000-10000+10000), got.TotalTaxablePaise)
}

func TestReports_RequireTenant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.HSNSummary(ctx, tenantctx.TenantContext{}, time.Now(), time.Now())
	assert.ErrorIs(t, err, tenantctx.ErrMissingTenant)
	_, err = f.svc.DailySummary(ctx, tenantctx.TenantContext{}, time.Now())
	assert.ErrorIs(t, err, tenantctx.ErrMissingTenant)
	_, err = f.svc.YearEndSummary(ctx, tenantctx.TenantContext{}, time.Now())
	assert.ErrorIs(t, err, tenantctx.ErrMissingTenant)
}
