package billing

import "github.com/shopspring/decimal"

// InvoiceTotals is the reconciled invoice-level view. A nil percentage means
// it could not be derived because the subtotal is zero.
type InvoiceTotals struct {
	Subtotal Money `json:"subtotal"`
	TaxPct   *Rate `json:"taxPct,omitempty"`
	TaxAmt   Money `json:"taxAmt"`
	SvcPct   *Rate `json:"svcPct,omitempty"`
	SvcAmt   Money `json:"svcAmt"`
	Total    Money `json:"total"`

	// Drift is subtotal + tax + service - total before any correction.
	Drift decimal.Decimal `json:"-"`
	// Corrected is set when the drift exceeded the tolerance and the
	// subtotal was replaced.
	Corrected bool `json:"-"`
}

// headerResolver also looks inside the containers older writers used for
// cached totals. Stored columns on the header win over any container, and
// free-form invoice metadata is never read for totals.
var headerResolver = Resolver{Containers: []string{"totals", "details", "meta", "data"}, RecordFirst: true}

var (
	headerTypeKeys     = []string{"serviceType", "type", "category", "productType"}
	headerSubtotalKeys = []string{"subtotal", "subTotal", "baseAmount", "netAmount"}
	headerTaxAmtKeys   = []string{"taxAmt", "taxTotal", "tax", "taxAmount", "totalTax", "gstAmount"}
	headerTaxPctKeys   = []string{"taxPct", "taxPercent", "taxPercentage", "taxRate", "gstPct", "gstRate"}
	headerSvcAmtKeys   = []string{"svcAmt", "serviceCharges", "serviceCharge", "serviceAmount", "serviceFee"}
	headerSvcPctKeys   = []string{"svcPct", "servicePct", "serviceChargePct", "servicePercent"}
	headerTotalKeys    = []string{"total", "grandTotal", "totalAmount", "invoiceTotal", "amountPayable"}
)

func headerNumber(header Record, keys []string) decimal.Decimal {
	return headerResolver.Number(header, keys, decimal.Zero)
}

// headerType is the invoice-level service type, or nil when none is set.
func headerType(header Record) any {
	v, _ := headerResolver.Value(header, headerTypeKeys)
	return v
}

// HeaderCategory classifies the invoice-level service type.
func HeaderCategory(header Record) ServiceCategory {
	return ClassifyService(headerType(header))
}

// ReconcileTotals prices items and reconciles them against the header's
// cached totals.
func (e *Engine) ReconcileTotals(header Record, items []Record) InvoiceTotals {
	return e.reconcile(header, e.Price(headerType(header), items))
}

func (e *Engine) reconcile(header Record, lines []Line) InvoiceTotals {
	fromItems := decimal.Zero
	for _, l := range lines {
		fromItems = fromItems.Add(l.Amounts.Base.Decimal)
	}

	subtotal := fromItems
	if !subtotal.IsPositive() {
		subtotal = clampZero(headerNumber(header, headerSubtotalKeys))
	}

	taxPct := headerNumber(header, headerTaxPctKeys)
	svcPct := headerNumber(header, headerSvcPctKeys)
	tax := headerCharge(header, headerTaxAmtKeys, taxPct, subtotal)
	svc := headerCharge(header, headerSvcAmtKeys, svcPct, subtotal)

	total := clampZero(headerNumber(header, headerTotalKeys))
	if total.IsZero() {
		total = subtotal.Add(tax).Add(svc)
	}

	out := InvoiceTotals{Drift: subtotal.Add(tax).Add(svc).Sub(total)}
	if out.Drift.Abs().GreaterThan(e.policy.ReconcileTolerance) {
		out.Corrected = true
		if fromItems.IsPositive() {
			subtotal = fromItems
		} else {
			subtotal = clampZero(total.Sub(tax).Sub(svc))
		}
	}

	out.Subtotal = NewMoney(subtotal)
	out.TaxAmt = NewMoney(tax)
	out.SvcAmt = NewMoney(svc)
	out.Total = NewMoney(total)
	out.TaxPct = effectivePct(taxPct, out.TaxAmt, out.Subtotal)
	out.SvcPct = effectivePct(svcPct, out.SvcAmt, out.Subtotal)
	return out
}

// headerCharge takes a positive stored amount, else a positive stored
// percentage of subtotal, else zero.
func headerCharge(header Record, amountKeys []string, pct, subtotal decimal.Decimal) decimal.Decimal {
	if amt := headerNumber(header, amountKeys); amt.IsPositive() {
		return amt
	}
	if pct.IsPositive() {
		return pct.Mul(subtotal).Div(hundred)
	}
	return decimal.Zero
}

// effectivePct keeps a positive stored percentage and otherwise back-computes
// it from the amount. It is nil when the subtotal is zero.
func effectivePct(stored decimal.Decimal, amt, subtotal Money) *Rate {
	if stored.IsPositive() {
		r := NewRate(stored)
		return &r
	}
	if !subtotal.IsPositive() {
		return nil
	}
	r := NewRate(percentOf(amt.Decimal, subtotal.Decimal))
	return &r
}

// Summarize adds up priced lines into invoice totals, as done when an
// invoice is first created.
func Summarize(amounts []LineAmounts) InvoiceTotals {
	var out InvoiceTotals
	for _, a := range amounts {
		out.Subtotal = out.Subtotal.Plus(a.Base)
		out.TaxAmt = out.TaxAmt.Plus(a.Tax)
		out.SvcAmt = out.SvcAmt.Plus(a.Service)
		out.Total = out.Total.Plus(a.Total)
	}
	out.TaxPct = effectivePct(decimal.Zero, out.TaxAmt, out.Subtotal)
	out.SvcPct = effectivePct(decimal.Zero, out.SvcAmt, out.Subtotal)
	return out
}

// LineAmountsOf extracts the amounts of priced lines.
func LineAmountsOf(lines []Line) []LineAmounts {
	out := make([]LineAmounts, len(lines))
	for i, l := range lines {
		out[i] = l.Amounts
	}
	return out
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
