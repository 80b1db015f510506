package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/medloop/aushadhi/internal/clock"
	"github.com/medloop/aushadhi/internal/gst"
	invoicedomain "github.com/medloop/aushadhi/internal/invoice/domain"
	"github.com/medloop/aushadhi/internal/invoice/repository"
	"github.com/medloop/aushadhi/internal/tenantctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceLineItem{},
		&invoicedomain.InvoiceTaxLine{},
		&invoicedomain.InvoiceSequence{},
	)
	require.NoError(t, err)
	return db
}

func newTestService(t *testing.T, db *gorm.DB) (*Service, *clock.FakeClock) {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fc := clock.NewFakeClock(time.Date(2026, 4, 10, 11, 0, 0, 0, time.UTC))

	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fc,
		Repo:  repository.NewRepository(db),
	})
	return svc, fc
}

func testTenant() tenantctx.TenantContext {
	return tenantctx.TenantContext{TenantID: 1, SellerOrgID: 2, SellerGSTINID: 3}
}

func TestCheckout_IntraState(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	tc := testTenant()
	ctx := context.Background()

	resp, err := svc.Checkout(ctx, tc, invoicedomain.CheckoutRequest{
		SellerStateCode: "MH",
		BuyerStateCode:  "MH",
		Items: []gst.CartLine{
			{
				ProductRef:   "SKU-1",
				ProductName:  "Paracetamol 500mg",
				HSNCode:      "3004",
				Quantity:     2,
				UnitPrice:    10000,
				GSTRateBps:   1200,
				TaxInclusion: gst.TaxInclusionExclusive,
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-20260410-0001", resp.InvoiceNumber)

	detail, err := svc.GetByID(ctx, tc, resp.ID)
	require.NoError(t, err)

	inv := detail.Invoice
	assert.Equal(t, invoicedomain.InvoiceTypeCashMemo, inv.InvoiceType)
	assert.Equal(t, int64(20000), inv.TotalTaxablePaise)
	assert.Equal(t, int64(2400), inv.TotalGSTPaise)
	assert.Equal(t, int64(22400), inv.TotalInvoicePaise)
	assert.Equal(t, invoicedomain.PaymentStatusPending, inv.PaymentStatus)

	require.Len(t, detail.LineItems, 1)
	line := detail.LineItems[0]
	assert.Equal(t, int64(20000), line.TaxablePaise)
	assert.Equal(t, int64(1200), line.CGSTPaise)
	assert.Equal(t, int64(1200), line.SGSTPaise)
	assert.Equal(t, int64(0), line.IGSTPaise)

	require.Len(t, detail.TaxLines, 2)
	var cgst, sgst int64
	for _, tl := range detail.TaxLines {
		switch tl.TaxType {
		case invoicedomain.TaxTypeCGST:
			cgst = tl.TaxPaise
		case invoicedomain.TaxTypeSGST:
			sgst = tl.TaxPaise
		}
	}
	assert.Equal(t, int64(1200), cgst)
	assert.Equal(t, int64(1200), sgst)
}

func TestCheckout_InterState(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	tc := testTenant()

	resp, err := svc.Checkout(context.Background(), tc, invoicedomain.CheckoutRequest{
		SellerStateCode: "MH",
		BuyerStateCode:  "DL",
		Items: []gst.CartLine{
			{
				ProductRef:   "SKU-1",
				ProductName:  "Paracetamol 500mg",
				HSNCode:      "3004",
				Quantity:     2,
				UnitPrice:    10000,
				GSTRateBps:   1200,
				TaxInclusion: gst.TaxInclusionExclusive,
			},
		},
	})
	require.NoError(t, err)

	detail, err := svc.GetByID(context.Background(), tc, resp.ID)
	require.NoError(t, err)

	require.Len(t, detail.TaxLines, 1)
	assert.Equal(t, invoicedomain.TaxTypeIGST, detail.TaxLines[0].TaxType)
	assert.Equal(t, int64(2400), detail.TaxLines[0].TaxPaise)
	assert.Equal(t, int64(2400), detail.Invoice.TotalGSTPaise)
}

func TestCheckout_InvoiceNumberSequence(t *testing.T) {
	db := newTestDB(t)
	svc, fc := newTestService(t, db)
	tc := testTenant()
	ctx := context.Background()

	req := invoicedomain.CheckoutRequest{
		SellerStateCode: "KA",
		BuyerStateCode:  "KA",
		Items: []gst.CartLine{
			{
				ProductRef:   "SKU-9",
				ProductName:  "ORS Sachet",
				HSNCode:      "3004",
				Quantity:     1,
				UnitPrice:    2500,
				GSTRateBps:   500,
				TaxInclusion: gst.TaxInclusionExclusive,
			},
		},
	}

	first, err := svc.Checkout(ctx, tc, req)
	require.NoError(t, err)
	second, err := svc.Checkout(ctx, tc, req)
	require.NoError(t, err)
	assert.Equal(t, "INV-20260410-0001", first.InvoiceNumber)
	assert.Equal(t, "INV-20260410-0002", second.InvoiceNumber)

	// sequence resets per day
	fc.Advance(24 * time.Hour)
	third, err := svc.Checkout(ctx, tc, req)
	require.NoError(t, err)
	assert.Equal(t, "INV-20260411-0001", third.InvoiceNumber)
}

func TestCheckout_ClassifiesBuyer(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	tc := testTenant()
	ctx := context.Background()
	customerID := snowflake.ID(99)

	items := []gst.CartLine{
		{
			ProductRef:   "SKU-2",
			ProductName:  "Insulin",
			HSNCode:      "3004",
			Quantity:     1,
			UnitPrice:    45000,
			GSTRateBps:   1200,
			TaxInclusion: gst.TaxInclusionExclusive,
		},
	}

	b2b, err := svc.Checkout(ctx, tc, invoicedomain.CheckoutRequest{
		SellerStateCode: "MH", BuyerStateCode: "MH",
		BuyerGSTIN: "27AAACB2894G1ZN",
		CustomerID: &customerID,
		Items:      items,
	})
	require.NoError(t, err)
	b2c, err := svc.Checkout(ctx, tc, invoicedomain.CheckoutRequest{
		SellerStateCode: "MH", BuyerStateCode: "MH",
		CustomerID: &customerID,
		Items:      items,
	})
	require.NoError(t, err)

	b2bDetail, err := svc.GetByID(ctx, tc, b2b.ID)
	require.NoError(t, err)
	b2cDetail, err := svc.GetByID(ctx, tc, b2c.ID)
	require.NoError(t, err)

	assert.Equal(t, invoicedomain.InvoiceTypeB2B, b2bDetail.Invoice.InvoiceType)
	assert.Equal(t, invoicedomain.InvoiceTypeB2C, b2cDetail.Invoice.InvoiceType)
}

func TestCheckout_RoundToRupee(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	tc := testTenant()

	// gross 3333 * 12% = 400 tax, total 3733 -> rounds to 3700
	resp, err := svc.Checkout(context.Background(), tc, invoicedomain.CheckoutRequest{
		SellerStateCode: "MH",
		BuyerStateCode:  "MH",
		RoundToRupee:    true,
		Items: []gst.CartLine{
			{
				ProductRef:   "SKU-3",
				ProductName:  "Cough Syrup",
				HSNCode:      "3004",
				Quantity:     1,
				UnitPrice:    3333,
				GSTRateBps:   1200,
				TaxInclusion: gst.TaxInclusionExclusive,
			},
		},
	})
	require.NoError(t, err)

	detail, err := svc.GetByID(context.Background(), tc, resp.ID)
	require.NoError(t, err)
	inv := detail.Invoice
	assert.Equal(t, inv.TotalTaxablePaise+inv.TotalGSTPaise+inv.RoundOffPaise, inv.TotalInvoicePaise)
	assert.Zero(t, inv.TotalInvoicePaise%100)
}

func TestCheckout_RejectsInvalidCart(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	tc := testTenant()

	_, err := svc.Checkout(context.Background(), tc, invoicedomain.CheckoutRequest{
		SellerStateCode: "MH",
		BuyerStateCode:  "MH",
	})
	assert.ErrorIs(t, err, gst.ErrEmptyCart)

	_, err = svc.Checkout(context.Background(), tc, invoicedomain.CheckoutRequest{
		BuyerStateCode: "MH",
		Items: []gst.CartLine{
			{ProductRef: "X", HSNCode: "3004", Quantity: 1, UnitPrice: 100, GSTRateBps: 500, TaxInclusion: gst.TaxInclusionExclusive},
		},
	})
	assert.ErrorIs(t, err, gst.ErrMissingStateCode)
}

func TestCheckout_RequiresTenant(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestService(t, db)

	_, err := svc.Checkout(context.Background(), tenantctx.TenantContext{}, invoicedomain.CheckoutRequest{})
	assert.ErrorIs(t, err, tenantctx.ErrMissingTenant)
}

func TestAssembleTx_ReconciliationMismatchAborts(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	tc := testTenant()
	ctx := context.Background()

	cart := gst.CartLine{
		ProductRef:   "SKU-1",
		ProductName:  "Paracetamol 500mg",
		HSNCode:      "3004",
		Quantity:     1,
		UnitPrice:    10000,
		GSTRateBps:   1200,
		TaxInclusion: gst.TaxInclusionExclusive,
	}
	comp, err := gst.Compute([]gst.CartLine{cart}, "MH", "MH")
	require.NoError(t, err)

	// corrupt one line allocation so the persisted sums cannot match the header
	comp.Lines[0].CGST += 1

	err = db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.AssembleTx(ctx, tx, tc, invoicedomain.AssembleInput{
			Type:            invoicedomain.InvoiceTypeB2C,
			Status:          invoicedomain.InvoiceStatusIssued,
			SequenceKind:    invoicedomain.SequenceKindInvoice,
			SellerStateCode: "MH",
			PlaceOfSupply:   "MH",
			Lines:           []invoicedomain.LineInput{{Cart: cart}},
			Comp:            comp,
		})
		return err
	})
	assert.ErrorIs(t, err, invoicedomain.ErrReconciliationFailure)

	// nothing committed
	var count int64
	require.NoError(t, db.Model(&invoicedomain.Invoice{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCancel(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	tc := testTenant()
	ctx := context.Background()

	resp, err := svc.Checkout(ctx, tc, invoicedomain.CheckoutRequest{
		SellerStateCode: "MH",
		BuyerStateCode:  "MH",
		Items: []gst.CartLine{
			{ProductRef: "SKU-1", ProductName: "Paracetamol", HSNCode: "3004", Quantity: 1, UnitPrice: 10000, GSTRateBps: 1200, TaxInclusion: gst.TaxInclusionExclusive},
		},
	})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, tc, resp.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusCancelled, cancelled.Status)

	_, err = svc.Cancel(ctx, tc, resp.ID)
	assert.ErrorIs(t, err, invoicedomain.ErrAlreadyCancelled)
}

func TestCancel_RejectsSettledInvoice(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	tc := testTenant()
	ctx := context.Background()

	resp, err := svc.Checkout(ctx, tc, invoicedomain.CheckoutRequest{
		SellerStateCode: "MH",
		BuyerStateCode:  "MH",
		Items: []gst.CartLine{
			{ProductRef: "SKU-1", ProductName: "Paracetamol", HSNCode: "3004", Quantity: 1, UnitPrice: 10000, GSTRateBps: 1200, TaxInclusion: gst.TaxInclusionExclusive},
		},
	})
	require.NoError(t, err)

	require.NoError(t, db.Exec(
		`UPDATE invoices SET paid_amount_paise = 5000 WHERE id = ?`, resp.ID,
	).Error)

	_, err = svc.Cancel(ctx, tc, resp.ID)
	assert.ErrorIs(t, err, invoicedomain.ErrCancelSettledInvoice)
}

func TestList_FiltersByStatusAndType(t *testing.T) {
	db := newTestDB(t)
	svc, _ := newTestService(t, db)
	tc := testTenant()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Checkout(ctx, tc, invoicedomain.CheckoutRequest{
			SellerStateCode: "MH",
			BuyerStateCode:  "MH",
			Items: []gst.CartLine{
				{ProductRef: "SKU-1", ProductName: "Paracetamol", HSNCode: "3004", Quantity: 1, UnitPrice: 10000, GSTRateBps: 1200, TaxInclusion: gst.TaxInclusionExclusive},
			},
		})
		require.NoError(t, err)
	}

	issued, err := svc.List(ctx, tc, invoicedomain.ListRequest{Status: invoicedomain.InvoiceStatusIssued})
	require.NoError(t, err)
	assert.Len(t, issued, 3)

	notes, err := svc.List(ctx, tc, invoicedomain.ListRequest{Type: invoicedomain.InvoiceTypeCreditNote})
	require.NoError(t, err)
	assert.Empty(t, notes)
}
