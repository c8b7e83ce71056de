package billing

import "github.com/shopspring/decimal"

// LineAmounts is the computed value of one line item.
// Total always equals Base + Tax + Service of the rounded components.
type LineAmounts struct {
	Base    Money `json:"base"`
	Tax     Money `json:"tax"`
	Service Money `json:"service"`
	Total   Money `json:"total"`
}

func newLineAmounts(base, tax, service decimal.Decimal) LineAmounts {
	a := LineAmounts{
		Base:    NewMoney(base),
		Tax:     NewMoney(tax),
		Service: NewMoney(service),
	}
	a.Total = a.Base.Plus(a.Tax).Plus(a.Service)
	return a
}

// Field aliases shared by every category.
var (
	quantityKeys     = []string{"quantity", "qty", "units", "noOfUnits", "count"}
	unitPriceKeys    = []string{"unitPrice", "price", "rate", "unitCost", "costPerUnit"}
	taxAmountKeys    = []string{"taxAmount", "taxAmt", "tax", "gstAmount", "gstAmt", "taxes"}
	taxPctKeys       = []string{"taxPct", "taxPercent", "taxPercentage", "taxRate", "gstPct", "gstPercent", "gstRate"}
	serviceAmtKeys   = []string{"serviceCharges", "serviceCharge", "serviceAmount", "svcAmt", "serviceFee", "serviceFees"}
	servicePctKeys   = []string{"servicePct", "serviceChargePct", "servicePercent", "serviceChargePercent", "svcPct"}
	legacyAmountKeys = []string{"amount", "baseAmount", "netAmount", "subtotal"}
	additionalKeys   = []string{"additionalFees", "additionalCharges", "extraCharges", "otherCharges"}
)

// Flight.
var (
	fareKeys         = []string{"fare", "baseFare", "basicFare", "ticketFare", "airfare", "ticketPrice"}
	flightSurcharges = [][]string{
		{"airportTax", "airportTaxes", "airportCharges"},
		{"k3", "k3Tax", "gstLevy", "airlineGst"},
		{"yq", "yqTax", "fuelSurcharge"},
		{"yr", "yrTax"},
		{"baggage", "baggageCharges", "excessBaggage"},
		{"meal", "meals", "mealCharges"},
		{"seat", "seatCharges", "seatSelection"},
		{"ssr", "specialService", "specialServiceCharges"},
		{"globalHandling", "globalHandlingCharges", "ghc"},
	}
)

// Hotel.
var (
	roomsKeys    = []string{"rooms", "noOfRooms", "numRooms", "roomCount", "numberOfRooms"}
	nightsKeys   = []string{"nights", "noOfNights", "numNights", "nightCount", "numberOfNights"}
	roomRateKeys = []string{"rate", "roomRate", "ratePerNight", "tariff", "pricePerNight", "unitPrice", "price"}
	discountKeys = []string{"discount", "discountAmount", "discountAmt"}
)

// Holiday.
var (
	paxKeys       = []string{"paxCount", "pax", "noOfPax", "numPax", "travellers", "travelers", "passengers", "persons", "adults"}
	basePriceKeys = []string{"basePrice", "pricePerPax", "perPaxPrice", "costPerPerson", "perPersonCost", "packagePrice"}
)

// Visa and MICE.
var (
	processingFeeKeys = []string{"processingFee", "processingFees", "visaFee", "visaFees"}
	embassyFeeKeys    = []string{"embassyFee", "embassyFees", "consulateFee", "vfsFee"}
	baseCostKeys      = []string{"baseCost", "cost", "eventCost", "packageCost", "venueCost"}
)

// extraChargeKeys is the category-specific addition for quantity-priced goods.
var extraChargeKeys = map[ServiceCategory][]string{
	Stationery: {"customizationCharges", "customisationCharges", "printingCharges", "additionalFees"},
	GiftItems:  {"customizationCharges", "customisationCharges", "brandingCharges", "additionalFees"},
	Goodies:    {"brandingCharges", "customizationCharges", "customisationCharges", "additionalFees"},
	Other:      additionalKeys,
}

var one = decimal.NewFromInt(1)

func num(rec Record, keys []string) decimal.Decimal {
	return Number(rec, keys, decimal.Zero)
}

// baseFormulas computes the pre-tax, pre-service amount per category.
var baseFormulas = map[ServiceCategory]func(Record) decimal.Decimal{
	Flight: func(f Record) decimal.Decimal {
		base := num(f, fareKeys)
		for _, keys := range flightSurcharges {
			base = base.Add(num(f, keys))
		}
		return base
	},
	Hotel: func(f Record) decimal.Decimal {
		rooms := Number(f, roomsKeys, one)
		nights := Number(f, nightsKeys, one)
		return rooms.Mul(nights).Mul(num(f, roomRateKeys)).Sub(num(f, discountKeys))
	},
	Holiday: func(f Record) decimal.Decimal {
		perPax := num(f, paxKeys).Mul(num(f, basePriceKeys))
		if !perPax.IsZero() {
			return perPax
		}
		return quantityPriced(f, additionalKeys)
	},
	Visa: func(f Record) decimal.Decimal {
		return num(f, processingFeeKeys).Add(num(f, embassyFeeKeys))
	},
	MICE: func(f Record) decimal.Decimal {
		return num(f, baseCostKeys).Add(num(f, additionalKeys))
	},
}

func quantityPriced(f Record, extraKeys []string) decimal.Decimal {
	qty := Number(f, quantityKeys, one)
	return qty.Mul(num(f, unitPriceKeys)).Add(num(f, extraKeys))
}

// BaseAmount returns the unrounded base of one line. A formula that yields
// zero falls back to a legacy flat amount field; negatives clamp to zero.
func BaseAmount(category ServiceCategory, fields Record) decimal.Decimal {
	var base decimal.Decimal
	if formula, ok := baseFormulas[category]; ok {
		base = formula(fields)
	} else {
		extra, ok := extraChargeKeys[category]
		if !ok {
			extra = extraChargeKeys[Other]
		}
		base = quantityPriced(fields, extra)
	}
	if base.IsZero() {
		base = num(fields, legacyAmountKeys)
	}
	if base.IsNegative() {
		return decimal.Zero
	}
	return base
}

// ComputeLine prices one line item. Tax and service each take an absolute
// amount when one is positive, otherwise a positive percentage of the base,
// otherwise zero.
func ComputeLine(category ServiceCategory, fields Record) LineAmounts {
	base := BaseAmount(category, fields)
	tax := charge(fields, taxAmountKeys, taxPctKeys, base)
	service := charge(fields, serviceAmtKeys, servicePctKeys, base)
	return newLineAmounts(base, tax, service)
}

func charge(fields Record, amountKeys, pctKeys []string, base decimal.Decimal) decimal.Decimal {
	if amt := num(fields, amountKeys); amt.IsPositive() {
		return amt
	}
	if pct := num(fields, pctKeys); pct.IsPositive() {
		return pct.Mul(base).Div(hundred)
	}
	return decimal.Zero
}

var lineTypeKeys = []string{"category", "serviceType", "type", "productType", "service"}

// Line is one priced line item.
type Line struct {
	Index    int             `json:"index"`
	Category ServiceCategory `json:"category"`
	Fields   Record          `json:"fields"`
	Amounts  LineAmounts     `json:"amounts"`
}

// LineCategory classifies one item by its own type field, falling back to
// the invoice-level type only when the item has no type or a blank one. An
// explicit label that matches nothing stays Other.
func LineCategory(defaultType any, item Record) ServiceCategory {
	if v, ok := defaultResolver.Value(item, lineTypeKeys); ok {
		return ClassifyService(v)
	}
	return ClassifyService(defaultType)
}

// Price classifies and computes every item.
func (e *Engine) Price(defaultType any, items []Record) []Line {
	lines := make([]Line, 0, len(items))
	for i, item := range items {
		category := LineCategory(defaultType, item)
		lines = append(lines, Line{
			Index:    i,
			Category: category,
			Fields:   item,
			Amounts:  ComputeLine(category, item),
		})
	}
	return lines
}
