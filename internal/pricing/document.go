package pricing

import (
	"errors"
	"fmt"
)

// ErrItemOutOfRange is returned for operations addressing a line index the
// document does not have.
var ErrItemOutOfRange = errors.New("line item index out of range")

// Document is the in-memory editing session for an invoice or quotation.
// It owns an item list, the pair of tax rates, and the selected payment
// method, and keeps Totals derived from them at all times.
//
// Every mutator ends in a full recompute over the entire current list;
// totals are never patched incrementally. This is required for
// correctness: a percentage discount's value depends on global list
// state, so changing any one item can shift every derived figure.
type Document struct {
	Items         []LineItem
	GSTRate       float64
	PSTRate       float64
	PaymentMethod PaymentMethod
	Totals        Totals

	policy RatePolicy
}

// NewDocument starts an empty document with the policy's default rates.
func NewDocument(policy RatePolicy) *Document {
	d := &Document{
		GSTRate: policy.DefaultGSTRate,
		PSTRate: policy.DefaultPSTRate,
		policy:  policy,
	}
	d.recompute()
	return d
}

// LoadDocument rebuilds an editing session from persisted state and
// recomputes totals rather than trusting any stored figures.
func LoadDocument(policy RatePolicy, items []LineItem, gstRate, pstRate float64, method PaymentMethod) (*Document, error) {
	for i, it := range items {
		if err := it.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
	}
	d := &Document{
		Items:         items,
		GSTRate:       gstRate,
		PSTRate:       pstRate,
		PaymentMethod: method,
		policy:        policy,
	}
	d.recompute()
	return d, nil
}

// AddItem validates and appends an item, then recomputes.
func (d *Document) AddItem(item LineItem) error {
	if err := item.Validate(); err != nil {
		return err
	}
	d.Items = append(d.Items, item)
	d.recompute()
	return nil
}

// RemoveItem deletes the item at index i, then recomputes.
func (d *Document) RemoveItem(i int) error {
	if i < 0 || i >= len(d.Items) {
		return ErrItemOutOfRange
	}
	d.Items = append(d.Items[:i], d.Items[i+1:]...)
	d.recompute()
	return nil
}

// UpdateItem replaces the item at index i, then recomputes.
func (d *Document) UpdateItem(i int, item LineItem) error {
	if i < 0 || i >= len(d.Items) {
		return ErrItemOutOfRange
	}
	if err := item.Validate(); err != nil {
		return err
	}
	d.Items[i] = item
	d.recompute()
	return nil
}

// SetGSTRate overrides the GST rate, then recomputes.
func (d *Document) SetGSTRate(rate float64) {
	d.GSTRate = rate
	d.recompute()
}

// SetPSTRate overrides the PST rate, then recomputes.
func (d *Document) SetPSTRate(rate float64) {
	d.PSTRate = rate
	d.recompute()
}

// SetPaymentMethod records the new method and applies the rate policy to
// the (previous, next) transition before recomputing.
func (d *Document) SetPaymentMethod(method PaymentMethod) error {
	if !method.Valid() {
		return fmt.Errorf("unknown payment method %q", method)
	}
	d.GSTRate, d.PSTRate = d.policy.Apply(d.PaymentMethod, method, d.GSTRate, d.PSTRate)
	d.PaymentMethod = method
	d.recompute()
	return nil
}

// LineTotals returns the resolved contribution of each item in display
// order. Percentage discount rows show their dollar effect, not the
// stored percentage.
func (d *Document) LineTotals() []float64 {
	totals := make([]float64, len(d.Items))
	for i, it := range d.Items {
		totals[i] = LineTotal(it, d.Items)
	}
	return totals
}

func (d *Document) recompute() {
	d.Totals = ComputeTotals(d.Items, d.GSTRate, d.PSTRate)
}
