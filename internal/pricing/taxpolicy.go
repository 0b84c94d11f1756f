package pricing

// PaymentMethod enumerates how a document is settled. PaymentCash is
// special-cased by the rate policy; the rest are equivalent to the engine.
type PaymentMethod string

const (
	PaymentNone       PaymentMethod = ""
	PaymentCash       PaymentMethod = "CASH"
	PaymentCreditCard PaymentMethod = "CREDIT_CARD"
	PaymentDebit      PaymentMethod = "DEBIT"
	PaymentCheque     PaymentMethod = "CHEQUE"
	PaymentETransfer  PaymentMethod = "E_TRANSFER"
)

// Valid reports whether m is a known payment method. The empty value is
// valid and means no method has been selected yet.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentNone, PaymentCash, PaymentCreditCard, PaymentDebit, PaymentCheque, PaymentETransfer:
		return true
	}
	return false
}

// RatePolicy governs how GST and PST rates respond to payment method
// changes. The default rates come from configuration rather than being
// baked into each editing surface.
type RatePolicy struct {
	DefaultGSTRate float64
	DefaultPSTRate float64
}

// NewRatePolicy builds a policy with the injected default rates.
func NewRatePolicy(defaultGST, defaultPST float64) RatePolicy {
	return RatePolicy{DefaultGSTRate: defaultGST, DefaultPSTRate: defaultPST}
}

// Apply resolves the effective rates after a payment method transition.
//
// Exactly two transitions touch the rates:
//   - any -> CASH zeroes both rates,
//   - CASH -> non-cash restores the configured defaults.
//
// Every other transition, including selecting a non-cash method from no
// method at all, leaves manually entered rates untouched. The zeroing is
// therefore reversible: the previous method value is the only state the
// restore depends on.
func (p RatePolicy) Apply(previous, next PaymentMethod, gstRate, pstRate float64) (gst, pst float64) {
	switch {
	case next == PaymentCash:
		return 0, 0
	case previous == PaymentCash:
		return p.DefaultGSTRate, p.DefaultPSTRate
	default:
		return gstRate, pstRate
	}
}
