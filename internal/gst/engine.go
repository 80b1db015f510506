package gst

import (
	"fmt"
	"sort"

	"github.com/medloop/aushadhi/internal/money"
)

// Compute turns an ordered cart into per-rate tax buckets, per-line tax
// allocations and aggregate totals. State codes are compared exactly as
// stored; a mismatch means an inter-state sale and the full tax lands in
// IGST, otherwise tax is split into CGST/SGST with the odd paisa going to
// SGST. Zero-rate buckets are retained so reporting sees every rate that
// appeared on the cart.
func Compute(lines []CartLine, sellerStateCode, buyerStateCode string) (*Computation, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	if sellerStateCode == "" || buyerStateCode == "" {
		return nil, ErrMissingStateCode
	}

	interState := sellerStateCode != buyerStateCode

	comp := &Computation{
		InterState: interState,
		Lines:      make([]LineTax, 0, len(lines)),
	}
	bucketIdx := make(map[int64]int)

	for i, line := range lines {
		if err := validateLine(line); err != nil {
			return nil, fmt.Errorf("line %d: %w", i, err)
		}

		taxable, tax := lineTax(line)

		lt := LineTax{Taxable: taxable}
		if interState {
			lt.IGST = tax
		} else {
			lt.CGST, lt.SGST = money.SplitIntraState(tax)
		}
		comp.Lines = append(comp.Lines, lt)

		idx, ok := bucketIdx[line.GSTRateBps]
		if !ok {
			idx = len(comp.Buckets)
			bucketIdx[line.GSTRateBps] = idx
			comp.Buckets = append(comp.Buckets, TaxBucket{RateBps: line.GSTRateBps})
		}
		b := &comp.Buckets[idx]
		b.TaxableSum += taxable
		b.CGST += lt.CGST
		b.SGST += lt.SGST
		b.IGST += lt.IGST

		comp.Subtotal += taxable
		comp.TaxTotal += tax
	}

	comp.GrandTotal = comp.Subtotal + comp.TaxTotal

	sort.Slice(comp.Buckets, func(i, j int) bool {
		return comp.Buckets[i].RateBps < comp.Buckets[j].RateBps
	})

	return comp, nil
}

// lineTax computes the taxable base and tax for one line. Gross is floored
// at zero so a discount can never drive a line negative.
func lineTax(line CartLine) (taxable, tax int64) {
	gross := line.Quantity*line.UnitPrice - line.DiscountAmount()
	if gross < 0 {
		gross = 0
	}
	if line.TaxInclusion == TaxInclusionInclusive && line.GSTRateBps > 0 {
		return money.ExtractInclusiveTax(gross, line.GSTRateBps)
	}
	return gross, money.ApplyRateBps(gross, line.GSTRateBps)
}

func validateLine(line CartLine) error {
	if line.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if line.UnitPrice < 0 {
		return ErrInvalidUnitPrice
	}
	if line.Discount < 0 || line.DiscountBps < 0 {
		return ErrInvalidDiscount
	}
	if line.Discount > 0 && line.DiscountBps > 0 {
		return ErrAmbiguousDiscount
	}
	if line.GSTRateBps < 0 {
		return ErrInvalidRate
	}
	if line.HSNCode == "" {
		return ErrMissingHSNCode
	}
	if line.TaxInclusion != TaxInclusionInclusive && line.TaxInclusion != TaxInclusionExclusive {
		return ErrInvalidInclusion
	}
	return nil
}
