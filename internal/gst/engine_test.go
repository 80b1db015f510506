package gst

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exclusiveLine(qty, unit, rateBps int64) CartLine {
	return CartLine{
		ProductRef:   "SKU-1",
		ProductName:  "Paracetamol 500mg",
		HSNCode:      "3004",
		Quantity:     qty,
		UnitPrice:    unit,
		GSTRateBps:   rateBps,
		TaxInclusion: TaxInclusionExclusive,
	}
}

func TestComputeIntraStateExclusive(t *testing.T) {
	comp, err := Compute([]CartLine{exclusiveLine(2, 10000, 1200)}, "MH", "MH")
	require.NoError(t, err)

	assert.Equal(t, int64(20000), comp.Subtotal)
	assert.Equal(t, int64(2400), comp.TaxTotal)
	assert.Equal(t, int64(22400), comp.GrandTotal)
	assert.False(t, comp.InterState)

	require.Len(t, comp.Buckets, 1)
	b := comp.Buckets[0]
	assert.Equal(t, int64(1200), b.RateBps)
	assert.Equal(t, int64(20000), b.TaxableSum)
	assert.Equal(t, int64(1200), b.CGST)
	assert.Equal(t, int64(1200), b.SGST)
	assert.Equal(t, int64(0), b.IGST)
}

func TestComputeInterState(t *testing.T) {
	comp, err := Compute([]CartLine{exclusiveLine(2, 10000, 1200)}, "MH", "DL")
	require.NoError(t, err)

	assert.Equal(t, int64(22400), comp.GrandTotal)
	assert.True(t, comp.InterState)

	require.Len(t, comp.Buckets, 1)
	b := comp.Buckets[0]
	assert.Equal(t, int64(0), b.CGST)
	assert.Equal(t, int64(0), b.SGST)
	assert.Equal(t, int64(2400), b.IGST)
}

func TestComputeInclusive(t *testing.T) {
	line := exclusiveLine(1, 11200, 1200)
	line.TaxInclusion = TaxInclusionInclusive

	comp, err := Compute([]CartLine{line}, "MH", "MH")
	require.NoError(t, err)

	assert.Equal(t, int64(10000), comp.Subtotal)
	assert.Equal(t, int64(1200), comp.TaxTotal)
	// inclusive pricing leaves the gross unchanged
	assert.Equal(t, int64(11200), comp.GrandTotal)

	require.Len(t, comp.Buckets, 1)
	assert.Equal(t, int64(600), comp.Buckets[0].CGST)
	assert.Equal(t, int64(600), comp.Buckets[0].SGST)
}

func TestComputeZeroRateBucketRetained(t *testing.T) {
	lines := []CartLine{
		exclusiveLine(1, 5000, 0),
		exclusiveLine(1, 10000, 1200),
	}
	comp, err := Compute(lines, "KA", "KA")
	require.NoError(t, err)

	require.Len(t, comp.Buckets, 2)
	assert.Equal(t, int64(0), comp.Buckets[0].RateBps)
	assert.Equal(t, int64(5000), comp.Buckets[0].TaxableSum)
	assert.Equal(t, int64(0), comp.Buckets[0].CGST+comp.Buckets[0].SGST+comp.Buckets[0].IGST)
	assert.Equal(t, int64(1200), comp.Buckets[1].RateBps)
}

func TestComputeDiscountFlooredAtZero(t *testing.T) {
	line := exclusiveLine(1, 1000, 1200)
	line.Discount = 5000
	comp, err := Compute([]CartLine{line}, "MH", "MH")
	require.NoError(t, err)
	assert.Equal(t, int64(0), comp.Subtotal)
	assert.Equal(t, int64(0), comp.TaxTotal)
}

func TestComputePercentDiscount(t *testing.T) {
	line := exclusiveLine(2, 10000, 1200)
	line.DiscountBps = 1000 // 10%
	comp, err := Compute([]CartLine{line}, "MH", "MH")
	require.NoError(t, err)
	assert.Equal(t, int64(18000), comp.Subtotal)
	assert.Equal(t, int64(2160), comp.TaxTotal)
}

func TestComputeValidation(t *testing.T) {
	valid := []CartLine{exclusiveLine(1, 100, 500)}

	_, err := Compute(nil, "MH", "MH")
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = Compute(valid, "", "MH")
	assert.ErrorIs(t, err, ErrMissingStateCode)

	_, err = Compute(valid, "MH", "")
	assert.ErrorIs(t, err, ErrMissingStateCode)

	bad := exclusiveLine(0, 100, 500)
	_, err = Compute([]CartLine{bad}, "MH", "MH")
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	bad = exclusiveLine(1, -1, 500)
	_, err = Compute([]CartLine{bad}, "MH", "MH")
	assert.ErrorIs(t, err, ErrInvalidUnitPrice)

	bad = exclusiveLine(1, 100, 500)
	bad.HSNCode = ""
	_, err = Compute([]CartLine{bad}, "MH", "MH")
	assert.ErrorIs(t, err, ErrMissingHSNCode)

	bad = exclusiveLine(1, 100, 500)
	bad.Discount = 10
	bad.DiscountBps = 100
	_, err = Compute([]CartLine{bad}, "MH", "MH")
	assert.ErrorIs(t, err, ErrAmbiguousDiscount)

	bad = exclusiveLine(1, 100, 500)
	bad.TaxInclusion = "MAYBE"
	_, err = Compute([]CartLine{bad}, "MH", "MH")
	assert.ErrorIs(t, err, ErrInvalidInclusion)
}

// No paisa may be lost or created: bucket sums must equal the aggregate
// totals for any cart, and intra-state splits must keep sgst-cgst within
// one paisa.
func TestComputeExactness(t *testing.T) {
	carts := [][]CartLine{
		{exclusiveLine(3, 3333, 500), exclusiveLine(1, 9999, 1200)},
		{exclusiveLine(7, 101, 1800), exclusiveLine(2, 55555, 2800), exclusiveLine(1, 1, 500)},
	}
	inclusive := exclusiveLine(3, 4999, 1200)
	inclusive.TaxInclusion = TaxInclusionInclusive
	carts = append(carts, []CartLine{inclusive, exclusiveLine(5, 777, 1800)})

	for _, cart := range carts {
		for _, buyer := range []string{"MH", "TN"} {
			comp, err := Compute(cart, "MH", buyer)
			require.NoError(t, err)

			var taxableSum, taxSum int64
			for _, b := range comp.Buckets {
				taxableSum += b.TaxableSum
				taxSum += b.CGST + b.SGST + b.IGST
				if comp.InterState {
					assert.Zero(t, b.CGST)
					assert.Zero(t, b.SGST)
				} else {
					assert.Zero(t, b.IGST)
					assert.GreaterOrEqual(t, b.SGST, b.CGST)
				}
			}
			assert.Equal(t, comp.Subtotal, taxableSum)
			assert.Equal(t, comp.TaxTotal, taxSum)
			assert.Equal(t, comp.GrandTotal, comp.Subtotal+comp.TaxTotal)

			var lineTaxable, lineTax int64
			for _, l := range comp.Lines {
				lineTaxable += l.Taxable
				lineTax += l.CGST + l.SGST + l.IGST
				if !comp.InterState {
					diff := l.SGST - l.CGST
					assert.True(t, diff == 0 || diff == 1, "odd paisa must go to SGST")
				}
			}
			assert.Equal(t, comp.Subtotal, lineTaxable)
			assert.Equal(t, comp.TaxTotal, lineTax)
		}
	}
}

func TestNegate(t *testing.T) {
	comp, err := Compute([]CartLine{exclusiveLine(1, 10000, 1200)}, "MH", "MH")
	require.NoError(t, err)
	comp.Negate()

	assert.Equal(t, int64(-10000), comp.Subtotal)
	assert.Equal(t, int64(-1200), comp.TaxTotal)
	assert.Equal(t, int64(-11200), comp.GrandTotal)
	assert.Equal(t, int64(-600), comp.Buckets[0].CGST)
	assert.Equal(t, int64(-600), comp.Buckets[0].SGST)
	assert.Equal(t, comp.Subtotal, comp.Lines[0].Taxable)
}

func TestComputeLineErrorWraps(t *testing.T) {
	bad := exclusiveLine(1, 100, -5)
	_, err := Compute([]CartLine{exclusiveLine(1, 100, 0), bad}, "MH", "MH")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRate))
	assert.Contains(t, err.Error(), "line 1")
}
