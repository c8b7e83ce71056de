package billing

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// DocumentClassification decides the document template and its GST columns.
type DocumentClassification struct {
	IsProforma  bool `json:"isProforma"`
	TotalTaxPct Rate `json:"totalTaxPct"`
	CGSTPct     Rate `json:"cgstPct"`
	SGSTPct     Rate `json:"sgstPct"`
}

// Title is the heading printed on the document.
func (d DocumentClassification) Title() string {
	if d.IsProforma {
		return "PROFORMA INVOICE"
	}
	return "TAX INVOICE"
}

var proformaPattern = regexp.MustCompile(`(?i)pro\s*-?\s*forma|performa`)

var (
	metadataKeys      = []string{"metadata", "meta", "details", "data"}
	proformaFlagKeys  = []string{"isProforma", "proforma", "isPerforma", "performa", "proformaInvoice"}
	documentKindKeys  = []string{"status", "documentKind", "docKind", "kind", "docType", "documentType", "invoiceType"}
	invoiceNumberKeys = []string{"invoiceNumber", "invoiceNo", "invoiceNum", "number", "docNumber", "documentNumber"}

	gstResolver = Resolver{Containers: []string{"gst", "tax", "taxes"}}
	cgstKeys    = []string{"cgst", "cgstAmount", "cgstAmt"}
	sgstKeys    = []string{"sgst", "sgstAmount", "sgstAmt"}
)

// metadataOf returns the header's metadata object, which may be stored as a
// nested map or as a JSON string.
func metadataOf(header Record) Record {
	v, ok := flatResolver.Value(header, metadataKeys)
	if !ok {
		return Record{}
	}
	return ParseRecord(v)
}

// InvoiceNumber returns the header's invoice number under any known alias.
func InvoiceNumber(header Record) string {
	return strings.TrimSpace(flatResolver.Text(header, invoiceNumberKeys, ""))
}

type proformaSignal func(header, meta Record) bool

// IsProforma reports whether the header describes a proforma document. The
// first signal that fires wins.
func (e *Engine) IsProforma(header Record) bool {
	meta := metadataOf(header)
	for _, signal := range e.proformaSignals() {
		if signal(header, meta) {
			return true
		}
	}
	return false
}

func (e *Engine) proformaSignals() []proformaSignal {
	return []proformaSignal{
		func(_, meta Record) bool {
			return flatResolver.Flag(meta, proformaFlagKeys)
		},
		func(header, meta Record) bool {
			for _, rec := range []Record{header, meta} {
				for _, key := range documentKindKeys {
					if proformaPattern.MatchString(flatResolver.Text(rec, []string{key}, "")) {
						return true
					}
				}
			}
			return false
		},
		func(header, _ Record) bool {
			return proformaPattern.MatchString(InvoiceNumber(header))
		},
		func(header, _ Record) bool {
			number := strings.ToUpper(InvoiceNumber(header))
			for _, prefix := range e.policy.ProformaPrefixes {
				if p := strings.ToUpper(strings.TrimSpace(prefix)); p != "" && strings.HasPrefix(number, p) {
					return true
				}
			}
			return false
		},
	}
}

type gstInput struct {
	header   Record
	meta     Record
	items    []Record
	subtotal decimal.Decimal
}

// gstAttempt yields a combined tax percentage or reports that it has none.
type gstAttempt func(in gstInput) (decimal.Decimal, bool)

var gstCascade = []gstAttempt{
	gstFromMetadata,
	gstFromHeaderTax,
	gstFromFirstLine,
	gstFromGrandTotal,
}

func gstFromMetadata(in gstInput) (decimal.Decimal, bool) {
	if !in.subtotal.IsPositive() {
		return decimal.Zero, false
	}
	cgst := gstResolver.Number(in.meta, cgstKeys, decimal.Zero)
	sgst := gstResolver.Number(in.meta, sgstKeys, decimal.Zero)
	sum := cgst.Add(sgst)
	if !sum.IsPositive() {
		return decimal.Zero, false
	}
	return percentOf(sum, in.subtotal), true
}

func gstFromHeaderTax(in gstInput) (decimal.Decimal, bool) {
	if !in.subtotal.IsPositive() {
		return decimal.Zero, false
	}
	tax := headerNumber(in.header, headerTaxAmtKeys)
	if !tax.IsPositive() {
		return decimal.Zero, false
	}
	return percentOf(tax, in.subtotal), true
}

// gstFromFirstLine reads the first item's tax fields. A percentage above 100
// is taken to be a mis-filed amount.
func gstFromFirstLine(in gstInput) (decimal.Decimal, bool) {
	if len(in.items) == 0 {
		return decimal.Zero, false
	}
	first := in.items[0]
	if pct := num(first, taxPctKeys); pct.IsPositive() {
		if pct.LessThanOrEqual(hundred) {
			return pct, true
		}
		if in.subtotal.IsPositive() {
			return percentOf(pct, in.subtotal), true
		}
		return decimal.Zero, false
	}
	if amt := num(first, taxAmountKeys); amt.IsPositive() && in.subtotal.IsPositive() {
		return percentOf(amt, in.subtotal), true
	}
	return decimal.Zero, false
}

func gstFromGrandTotal(in gstInput) (decimal.Decimal, bool) {
	if !in.subtotal.IsPositive() {
		return decimal.Zero, false
	}
	grand := headerNumber(in.header, headerTotalKeys)
	tax := grand.Sub(in.subtotal).Sub(headerNumber(in.header, headerSvcAmtKeys))
	if !grand.IsPositive() || !tax.IsPositive() {
		return decimal.Zero, false
	}
	return percentOf(tax, in.subtotal), true
}

// ClassifyDocument decides the document kind and, for proformas, derives the
// combined GST rate and its even CGST/SGST split. Tax invoices carry zero
// percentages.
func (e *Engine) ClassifyDocument(header Record, items []Record, subtotal decimal.Decimal) DocumentClassification {
	if !e.IsProforma(header) {
		return DocumentClassification{}
	}
	in := gstInput{header: header, meta: metadataOf(header), items: items, subtotal: subtotal}
	total := decimal.Zero
	for _, attempt := range gstCascade {
		if pct, ok := attempt(in); ok {
			total = pct
			break
		}
	}
	half := Round2(total.Div(decimal.NewFromInt(2)))
	return DocumentClassification{
		IsProforma:  true,
		TotalTaxPct: NewRate(Round2(total)),
		CGSTPct:     NewRate(half),
		SGSTPct:     NewRate(half),
	}
}

// GSTAmounts applies the CGST and SGST rates to subtotal. Both are zero on
// tax invoices.
func (d DocumentClassification) GSTAmounts(subtotal Money) (cgst, sgst Money) {
	if !d.IsProforma {
		return Money{}, Money{}
	}
	cgst = NewMoney(d.CGSTPct.Mul(subtotal.Decimal).Div(hundred))
	sgst = NewMoney(d.SGSTPct.Mul(subtotal.Decimal).Div(hundred))
	return cgst, sgst
}

// Breakdown is the full computed view of one invoice, shared by every
// export surface.
type Breakdown struct {
	Category ServiceCategory        `json:"category"`
	Lines    []Line                 `json:"lines"`
	Totals   InvoiceTotals          `json:"totals"`
	Document DocumentClassification `json:"document"`
}

// Breakdown prices, reconciles and classifies one stored invoice.
func (e *Engine) Breakdown(header Record, items []Record) Breakdown {
	typ := headerType(header)
	lines := e.Price(typ, items)
	totals := e.reconcile(header, lines)
	return Breakdown{
		Category: ClassifyService(typ),
		Lines:    lines,
		Totals:   totals,
		Document: e.ClassifyDocument(header, items, totals.Subtotal.Decimal),
	}
}
