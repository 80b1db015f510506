package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToPaise(t *testing.T) {
	assert.Equal(t, int64(10000), ToPaise(100))
	assert.Equal(t, int64(10050), ToPaise(100.50))
	assert.Equal(t, int64(1), ToPaise(0.005))
	assert.Equal(t, int64(0), ToPaise(0))
	assert.Equal(t, int64(-10050), ToPaise(-100.50))
}

func TestApplyRateBps(t *testing.T) {
	// 12% of 20000 paise
	assert.Equal(t, int64(2400), ApplyRateBps(20000, 1200))
	// 5% of 1 paisa rounds up from 0.05
	assert.Equal(t, int64(0), ApplyRateBps(1, 500))
	// half up: 18% of 25 paise = 4.5 -> 5
	assert.Equal(t, int64(5), ApplyRateBps(25, 1800))
	// zero rate
	assert.Equal(t, int64(0), ApplyRateBps(20000, 0))
	// symmetric for negatives
	assert.Equal(t, int64(-2400), ApplyRateBps(-20000, 1200))
	assert.Equal(t, int64(-5), ApplyRateBps(-25, 1800))
}

func TestExtractInclusiveTax(t *testing.T) {
	taxable, tax := ExtractInclusiveTax(11200, 1200)
	assert.Equal(t, int64(10000), taxable)
	assert.Equal(t, int64(1200), tax)

	// zero rate passes gross through
	taxable, tax = ExtractInclusiveTax(11200, 0)
	assert.Equal(t, int64(11200), taxable)
	assert.Equal(t, int64(0), tax)

	// negative gross mirrors the positive split
	taxable, tax = ExtractInclusiveTax(-11200, 1200)
	assert.Equal(t, int64(-10000), taxable)
	assert.Equal(t, int64(-1200), tax)
}

// The extraction must never round-trip to more than gross and the tax must
// stay within one paisa of the exact percentage of the taxable base.
func TestExtractInclusiveTaxRoundTrip(t *testing.T) {
	rates := []int64{0, 500, 1200, 1800, 2800}
	for _, rate := range rates {
		for gross := int64(0); gross < 5000; gross++ {
			taxable, tax := ExtractInclusiveTax(gross, rate)
			if taxable+tax != gross {
				t.Fatalf("gross %d rate %d: taxable %d + tax %d != gross", gross, rate, taxable, tax)
			}
			expected := ApplyRateBps(taxable, rate)
			diff := tax - expected
			if diff < -1 || diff > 1 {
				t.Fatalf("gross %d rate %d: tax %d deviates from %d by more than 1 paisa", gross, rate, tax, expected)
			}
		}
	}
}

func TestSplitIntraState(t *testing.T) {
	cgst, sgst := SplitIntraState(2400)
	assert.Equal(t, int64(1200), cgst)
	assert.Equal(t, int64(1200), sgst)

	// odd paisa goes to SGST
	cgst, sgst = SplitIntraState(2401)
	assert.Equal(t, int64(1200), cgst)
	assert.Equal(t, int64(1201), sgst)

	// negative amounts mirror the split for credit notes
	cgst, sgst = SplitIntraState(-2401)
	assert.Equal(t, int64(-1200), cgst)
	assert.Equal(t, int64(-1201), sgst)
	assert.Equal(t, int64(-2401), cgst+sgst)
}

func TestSplitIntraStateExactness(t *testing.T) {
	for tax := int64(-1000); tax <= 1000; tax++ {
		cgst, sgst := SplitIntraState(tax)
		if cgst+sgst != tax {
			t.Fatalf("tax %d: cgst %d + sgst %d != tax", tax, cgst, sgst)
		}
		diff := sgst - cgst
		if tax >= 0 && (diff < 0 || diff > 1) {
			t.Fatalf("tax %d: sgst %d - cgst %d out of range", tax, sgst, cgst)
		}
		if tax < 0 && (diff > 0 || diff < -1) {
			t.Fatalf("tax %d: sgst %d - cgst %d out of range", tax, sgst, cgst)
		}
	}
}
