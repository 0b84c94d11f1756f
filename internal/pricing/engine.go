// Package pricing implements the line-item pricing and tax calculation
// engine shared by the invoice and quotation editors, the persistence
// layer, and the printable document renderer. Every consumer runs the
// same two pure functions, LineTotal and ComputeTotals, so the discount
// and tax rules exist in exactly one place.
package pricing

// Totals holds the derived monetary figures of a billing document.
// They are always produced by ComputeTotals and never mutated by hand.
type Totals struct {
	Subtotal  float64 `json:"subtotal"`
	GSTAmount float64 `json:"gst_amount"`
	PSTAmount float64 `json:"pst_amount"`
	TotalTax  float64 `json:"total_tax"`
	Total     float64 `json:"total"`
}

// GrossBase sums quantity x unit price over every non-discount item.
//
// This is the base against which each percentage discount is measured.
// Multiple percentage discounts are all measured against this same base,
// never against a progressively reduced subtotal, so discounts do not
// compound and the result is independent of item order.
func GrossBase(items []LineItem) float64 {
	var base float64
	for _, it := range items {
		if it.Type.IsDiscount() {
			continue
		}
		base += float64(it.Quantity) * it.UnitPrice
	}
	return base
}

// LineTotal computes the signed contribution of one item to the subtotal.
//
// A percentage discount depends on the other items present, which is why
// the full list is a parameter: whenever any item changes, every line
// total must be recomputed, not just the changed one.
func LineTotal(item LineItem, all []LineItem) float64 {
	if item.Type == ItemDiscountPercentage {
		return -(GrossBase(all) * item.UnitPrice / 100)
	}
	return float64(item.Quantity) * item.UnitPrice
}

// ComputeTotals derives the full totals set from the item list and the
// two tax rates. It is pure and never fails: an empty list yields zeroed
// totals, and an over-discounted list yields a negative subtotal with
// correspondingly negative tax amounts.
func ComputeTotals(items []LineItem, gstRate, pstRate float64) Totals {
	var subtotal float64
	for _, it := range items {
		subtotal += LineTotal(it, items)
	}

	gst := subtotal * gstRate
	pst := subtotal * pstRate
	return Totals{
		Subtotal:  subtotal,
		GSTAmount: gst,
		PSTAmount: pst,
		TotalTax:  gst + pst,
		Total:     subtotal + gst + pst,
	}
}
