package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocumentStartsWithDefaultRates(t *testing.T) {
	doc := NewDocument(NewRatePolicy(0.05, 0.07))
	assert.InDelta(t, 0.05, doc.GSTRate, 1e-9)
	assert.InDelta(t, 0.07, doc.PSTRate, 1e-9)
	assert.Equal(t, Totals{}, doc.Totals)
}

func TestDocumentRecomputesOnEveryMutation(t *testing.T) {
	doc := NewDocument(NewRatePolicy(0.05, 0.07))

	require.NoError(t, doc.AddItem(LineItem{Type: ItemService, Description: "Alignment", Quantity: 1, UnitPrice: 100}))
	assert.InDelta(t, 100, doc.Totals.Subtotal, 1e-9)
	assert.InDelta(t, 112, doc.Totals.Total, 1e-9)

	require.NoError(t, doc.AddItem(LineItem{Type: ItemDiscountPercentage, Description: "Promo", Quantity: 1, UnitPrice: 10}))
	assert.InDelta(t, 90, doc.Totals.Subtotal, 1e-9)

	// Editing the service line shifts the percentage discount too.
	require.NoError(t, doc.UpdateItem(0, LineItem{Type: ItemService, Description: "Alignment", Quantity: 1, UnitPrice: 200}))
	assert.InDelta(t, 180, doc.Totals.Subtotal, 1e-9)

	require.NoError(t, doc.RemoveItem(1))
	assert.InDelta(t, 200, doc.Totals.Subtotal, 1e-9)
}

func TestDocumentRejectsInvalidItems(t *testing.T) {
	doc := NewDocument(NewRatePolicy(0.05, 0.07))

	err := doc.AddItem(LineItem{Type: ItemTire, Description: "", Quantity: 1, UnitPrice: 100})
	assert.ErrorIs(t, err, ErrEmptyDescription)
	assert.Empty(t, doc.Items)

	assert.ErrorIs(t, doc.RemoveItem(0), ErrItemOutOfRange)
	assert.ErrorIs(t, doc.UpdateItem(3, LineItem{}), ErrItemOutOfRange)
}

func TestDocumentPaymentMethodDrivesRates(t *testing.T) {
	doc := NewDocument(NewRatePolicy(0.05, 0.07))
	require.NoError(t, doc.AddItem(LineItem{Type: ItemService, Description: "Alignment", Quantity: 1, UnitPrice: 100}))

	require.NoError(t, doc.SetPaymentMethod(PaymentCash))
	assert.Zero(t, doc.GSTRate)
	assert.Zero(t, doc.PSTRate)
	assert.InDelta(t, 100, doc.Totals.Total, 1e-9)

	require.NoError(t, doc.SetPaymentMethod(PaymentCreditCard))
	assert.InDelta(t, 0.05, doc.GSTRate, 1e-9)
	assert.InDelta(t, 0.07, doc.PSTRate, 1e-9)
	assert.InDelta(t, 112, doc.Totals.Total, 1e-9)

	assert.Error(t, doc.SetPaymentMethod(PaymentMethod("BARTER")))
}

func TestDocumentManualRateOverride(t *testing.T) {
	doc := NewDocument(NewRatePolicy(0.05, 0.07))
	require.NoError(t, doc.AddItem(LineItem{Type: ItemService, Description: "Alignment", Quantity: 1, UnitPrice: 100}))

	doc.SetGSTRate(0.10)
	doc.SetPSTRate(0)
	assert.InDelta(t, 110, doc.Totals.Total, 1e-9)

	// A non-cash to non-cash change keeps the manual rates.
	require.NoError(t, doc.SetPaymentMethod(PaymentDebit))
	require.NoError(t, doc.SetPaymentMethod(PaymentCheque))
	assert.InDelta(t, 0.10, doc.GSTRate, 1e-9)
}

func TestLoadDocumentRecomputesStoredTotals(t *testing.T) {
	items := []LineItem{
		{Type: ItemTire, Description: "Tire", Quantity: 2, UnitPrice: 80},
		{Type: ItemDiscount, Description: "Coupon", Quantity: 1, UnitPrice: -20},
	}
	doc, err := LoadDocument(NewRatePolicy(0.05, 0.07), items, 0.05, 0.07, PaymentCreditCard)
	require.NoError(t, err)
	assert.InDelta(t, 140, doc.Totals.Subtotal, 1e-9)

	_, err = LoadDocument(NewRatePolicy(0.05, 0.07), []LineItem{{Type: ItemTire, Description: "Tire"}}, 0.05, 0.07, PaymentNone)
	assert.Error(t, err)
}

func TestDocumentLineTotalsForDisplay(t *testing.T) {
	doc := NewDocument(NewRatePolicy(0.05, 0.07))
	require.NoError(t, doc.AddItem(LineItem{Type: ItemTire, Description: "Tire", Quantity: 4, UnitPrice: 100}))
	require.NoError(t, doc.AddItem(LineItem{Type: ItemDiscountPercentage, Description: "Promo", Quantity: 1, UnitPrice: 10}))

	totals := doc.LineTotals()
	require.Len(t, totals, 2)
	assert.InDelta(t, 400, totals[0], 1e-9)
	assert.InDelta(t, -40, totals[1], 1e-9)
}
