// Package money provides integer paise arithmetic for GST billing.
// All monetary values are signed 64-bit integers denominated in paise
// (1/100 rupee); no floating point crosses a persisted boundary.
package money

// ToPaise converts a rupee amount to paise, rounding half away from zero.
// Only used at the edges of the system; internal math never leaves paise.
func ToPaise(rupees float64) int64 {
	if rupees >= 0 {
		return int64(rupees*100 + 0.5)
	}
	return -int64(-rupees*100 + 0.5)
}

// ApplyRateBps applies a basis-point rate to an amount in paise, rounding
// to the nearest paisa (half up, symmetric for negative amounts).
// 1200 bps == 12%.
func ApplyRateBps(amountPaise, rateBps int64) int64 {
	if rateBps == 0 || amountPaise == 0 {
		return 0
	}
	neg := false
	a := amountPaise
	if a < 0 {
		neg = true
		a = -a
	}
	tax := (a*rateBps + 5000) / 10000
	if neg {
		return -tax
	}
	return tax
}

// ExtractInclusiveTax splits a tax-inclusive gross amount into its taxable
// base and tax portion for the given basis-point rate. The taxable base is
// rounded to the nearest paisa and the remainder is assigned to tax, so
// taxable+tax == gross always holds exactly.
func ExtractInclusiveTax(grossPaise, rateBps int64) (taxablePaise, taxPaise int64) {
	if rateBps == 0 {
		return grossPaise, 0
	}
	neg := false
	g := grossPaise
	if g < 0 {
		neg = true
		g = -g
	}
	denom := 10000 + rateBps
	taxable := (g*10000 + denom/2) / denom
	tax := g - taxable
	if neg {
		return -taxable, -tax
	}
	return taxable, tax
}

// SplitIntraState divides a tax amount into CGST and SGST halves such that
// cgst+sgst == tax exactly. The odd paisa always goes to SGST; this is a
// defined tie-break, preserved for negative (credit note) amounts as a
// mirror image.
func SplitIntraState(taxPaise int64) (cgstPaise, sgstPaise int64) {
	cgst := taxPaise / 2
	return cgst, taxPaise - cgst
}
