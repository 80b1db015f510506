// Package gst implements the tax bucket engine: a pure function turning
// priced cart lines into per-rate CGST/SGST/IGST buckets and per-line tax
// allocations. It performs no I/O and holds no state.
package gst

import "github.com/medloop/aushadhi/internal/money"

// TaxInclusion states whether a line's unit price already contains GST.
type TaxInclusion string

const (
	TaxInclusionInclusive TaxInclusion = "INCLUSIVE"
	TaxInclusionExclusive TaxInclusion = "EXCLUSIVE"
)

// CartLine is a single priced line of a checkout cart. All amounts are in
// paise and rates in basis points (1200 == 12%).
type CartLine struct {
	ProductRef   string
	ProductName  string
	HSNCode      string
	BatchRef     string
	Quantity     int64
	UnitPrice    int64
	Discount     int64
	DiscountBps  int64
	GSTRateBps   int64
	TaxInclusion TaxInclusion
}

// DiscountAmount resolves the line discount in paise, whether it was given
// as an absolute amount or as basis points of the gross.
func (l CartLine) DiscountAmount() int64 {
	if l.DiscountBps > 0 {
		return money.ApplyRateBps(l.Quantity*l.UnitPrice, l.DiscountBps)
	}
	return l.Discount
}

// TaxBucket accumulates taxable value and tax for one GST rate. Exactly one
// of {CGST+SGST} or {IGST} is non-zero per bucket, depending on whether the
// sale is intra-state or inter-state.
type TaxBucket struct {
	RateBps    int64
	TaxableSum int64
	CGST       int64
	SGST       int64
	IGST       int64
}

// LineTax is the per-line allocation, index-aligned with the input cart.
type LineTax struct {
	Taxable int64
	CGST    int64
	SGST    int64
	IGST    int64
}

// Computation is the engine output. GrandTotal == Subtotal + TaxTotal with
// zero residual; rounding only happens at inclusive extraction and the
// intra-state split.
type Computation struct {
	Subtotal   int64
	TaxTotal   int64
	GrandTotal int64
	InterState bool
	Buckets    []TaxBucket
	Lines      []LineTax
}

// Negate flips the sign of every amount in place. Used for credit notes so
// reversals flow through the same bucket math rather than a second formula.
func (c *Computation) Negate() {
	c.Subtotal = -c.Subtotal
	c.TaxTotal = -c.TaxTotal
	c.GrandTotal = -c.GrandTotal
	for i := range c.Buckets {
		b := &c.Buckets[i]
		b.TaxableSum = -b.TaxableSum
		b.CGST = -b.CGST
		b.SGST = -b.SGST
		b.IGST = -b.IGST
	}
	for i := range c.Lines {
		l := &c.Lines[i]
		l.Taxable = -l.Taxable
		l.CGST = -l.CGST
		l.SGST = -l.SGST
		l.IGST = -l.IGST
	}
}
