package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func standard(t ItemType, desc string, qty int, price float64) LineItem {
	return LineItem{Type: t, Description: desc, Quantity: qty, UnitPrice: price}
}

func percentDiscount(desc string, pct float64) LineItem {
	return LineItem{Type: ItemDiscountPercentage, Description: desc, Quantity: 1, UnitPrice: pct}
}

func flatDiscount(desc string, amount float64) LineItem {
	return LineItem{Type: ItemDiscount, Description: desc, Quantity: 1, UnitPrice: -amount}
}

func TestComputeTotalsNoDiscountAdditivity(t *testing.T) {
	items := []LineItem{
		standard(ItemTire, "All-season 205/55R16", 4, 120),
		standard(ItemService, "Mount and balance", 4, 25),
		standard(ItemLevy, "Tire recycling levy", 4, 6.50),
	}

	totals := ComputeTotals(items, 0, 0)
	assert.InDelta(t, 4*120+4*25+4*6.50, totals.Subtotal, 1e-9)
}

func TestComputeTotalsSinglePercentageDiscount(t *testing.T) {
	items := []LineItem{
		standard(ItemService, "Wheel alignment", 1, 100),
		percentDiscount("Loyalty discount", 10),
	}

	totals := ComputeTotals(items, 0, 0)
	assert.InDelta(t, 90, totals.Subtotal, 1e-9)
}

func TestComputeTotalsPercentageDiscountsDoNotCompound(t *testing.T) {
	items := []LineItem{
		standard(ItemService, "Wheel alignment", 1, 100),
		percentDiscount("Loyalty discount", 10),
		percentDiscount("Seasonal promo", 10),
	}

	// Both discounts are measured against the same gross base of 100,
	// not against a running subtotal of 90.
	totals := ComputeTotals(items, 0, 0)
	assert.InDelta(t, 80, totals.Subtotal, 1e-9)
}

func TestComputeTotalsFlatDiscount(t *testing.T) {
	items := []LineItem{
		standard(ItemService, "Wheel alignment", 1, 100),
		flatDiscount("Coupon", 15),
	}

	totals := ComputeTotals(items, 0, 0)
	assert.InDelta(t, 85, totals.Subtotal, 1e-9)
}

func TestComputeTotalsTaxAmounts(t *testing.T) {
	items := []LineItem{
		standard(ItemService, "Brake inspection", 1, 100),
		standard(ItemTire, "Winter tire", 2, 50),
	}

	totals := ComputeTotals(items, 0.05, 0.07)
	assert.InDelta(t, 200, totals.Subtotal, 1e-9)
	assert.InDelta(t, 10, totals.GSTAmount, 1e-9)
	assert.InDelta(t, 14, totals.PSTAmount, 1e-9)
	assert.InDelta(t, 24, totals.TotalTax, 1e-9)
	assert.InDelta(t, 224, totals.Total, 1e-9)
}

func TestComputeTotalsEmptyList(t *testing.T) {
	totals := ComputeTotals(nil, 0.05, 0.07)
	assert.Equal(t, Totals{}, totals)
}

func TestComputeTotalsIdempotent(t *testing.T) {
	items := []LineItem{
		standard(ItemPart, "Valve stem", 4, 3.25),
		percentDiscount("Promo", 5),
	}

	first := ComputeTotals(items, 0.05, 0.07)
	second := ComputeTotals(items, 0.05, 0.07)
	assert.Equal(t, first, second)
}

func TestComputeTotalsOrderIndependent(t *testing.T) {
	forward := []LineItem{
		standard(ItemTire, "Tire", 2, 80),
		percentDiscount("Promo", 25),
		standard(ItemService, "Install", 1, 40),
		flatDiscount("Coupon", 10),
	}
	reversed := []LineItem{forward[3], forward[2], forward[1], forward[0]}

	assert.InDelta(t, ComputeTotals(forward, 0.05, 0.07).Total, ComputeTotals(reversed, 0.05, 0.07).Total, 1e-9)
}

func TestComputeTotalsOverDiscounted(t *testing.T) {
	items := []LineItem{
		standard(ItemService, "Tire rotation", 1, 40),
		flatDiscount("Goodwill credit", 100),
	}

	totals := ComputeTotals(items, 0.05, 0.07)
	assert.InDelta(t, -60, totals.Subtotal, 1e-9)
	// The identity total = subtotal + gst + pst still holds when negative.
	assert.InDelta(t, totals.Subtotal+totals.GSTAmount+totals.PSTAmount, totals.Total, 1e-9)
}

func TestGrossBaseExcludesDiscountItems(t *testing.T) {
	items := []LineItem{
		standard(ItemTire, "Tire", 4, 100),
		flatDiscount("Coupon", 50),
		percentDiscount("Promo", 20),
	}

	require.InDelta(t, 400, GrossBase(items), 1e-9)
}

func TestLineTotalPercentageUsesGrossBase(t *testing.T) {
	items := []LineItem{
		standard(ItemTire, "Tire", 4, 100),
		flatDiscount("Coupon", 50),
		percentDiscount("Promo", 20),
	}

	// 20% of the 400 gross base, unaffected by the flat discount.
	assert.InDelta(t, -80, LineTotal(items[2], items), 1e-9)
	assert.InDelta(t, -50, LineTotal(items[1], items), 1e-9)
	assert.InDelta(t, 400, LineTotal(items[0], items), 1e-9)
}

func TestLineTotalPercentageOfEmptyBaseIsZero(t *testing.T) {
	items := []LineItem{percentDiscount("Promo", 15)}
	assert.Zero(t, LineTotal(items[0], items))
}
