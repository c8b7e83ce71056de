package csvexport

import (
	"strconv"
	"strings"

	"travelbill/internal/billing"
	"travelbill/internal/domain"
)

// Row kinds in the first column.
const (
	RowLine    = "LINE"
	RowSummary = "SUMMARY"
)

// Columns is the header shared by the CSV export and the XLSX line sheet.
var Columns = []string{
	"Row Type",
	"Invoice Number",
	"Invoice Date",
	"Document",
	"Customer",
	"Customer GSTIN",
	"Line #",
	"Category",
	"Description",
	"Passenger",
	"Sector",
	"PNR",
	"Hotel",
	"Check-In",
	"Check-Out",
	"Visa Country",
	"Quantity",
	"Base",
	"Tax",
	"Service",
	"Total",
	"Tax %",
	"Service %",
	"CGST %",
	"SGST %",
	"Currency",
}

const (
	colRowType = iota
	colInvoiceNumber
	colInvoiceDate
	colDocument
	colCustomer
	colCustomerGSTIN
	colLineNo
	colCategory
	colDescription
	colPassenger
	colSector
	colPNR
	colHotel
	colCheckIn
	colCheckOut
	colVisaCountry
	colQuantity
	colBase
	colTax
	colService
	colTotal
	colTaxPct
	colServicePct
	colCGSTPct
	colSGSTPct
	colCurrency
)

// BaseColumn is the index of the first amount column (Base, Tax, Service,
// Total follow in that order).
const BaseColumn = colBase

// descriptor fills one descriptive column from a line's fields.
type descriptor struct {
	col     int
	aliases []string
}

var (
	descPassenger   = descriptor{colPassenger, []string{"passengerName", "passenger", "paxName", "travellerName", "travelerName", "guestName"}}
	descSector      = descriptor{colSector, []string{"sector", "route", "itinerary", "fromTo"}}
	descPNR         = descriptor{colPNR, []string{"pnr", "bookingRef", "bookingReference", "ticketNumber", "ticketNo"}}
	descHotel       = descriptor{colHotel, []string{"hotelName", "hotel", "property", "propertyName"}}
	descCheckIn     = descriptor{colCheckIn, []string{"checkIn", "checkInDate", "checkin", "arrivalDate"}}
	descCheckOut    = descriptor{colCheckOut, []string{"checkOut", "checkOutDate", "checkout", "departureDate"}}
	descVisaCountry = descriptor{colVisaCountry, []string{"visaCountry", "country", "destinationCountry", "destination"}}
)

// categoryDescriptors lists the descriptive columns each category carries.
var categoryDescriptors = map[billing.ServiceCategory][]descriptor{
	billing.Flight:  {descPassenger, descSector, descPNR},
	billing.Hotel:   {descPassenger, descHotel, descCheckIn, descCheckOut},
	billing.Holiday: {descPassenger, descHotel, descCheckIn, descCheckOut, descVisaCountry},
	billing.Visa:    {descPassenger, descVisaCountry},
	billing.MICE:    {descHotel, descCheckIn, descCheckOut},
}

var (
	descriptionKeys = []string{"description", "desc", "itemName", "item", "name", "particulars", "title"}
	quantityKeys    = []string{"quantity", "qty", "units", "noOfUnits", "rooms", "paxCount", "pax"}
)

// LineRow renders one priced line of an invoice.
func LineRow(view *domain.InvoiceView, line *billing.Line) []string {
	row := invoiceColumns(view, RowLine)
	row[colLineNo] = strconv.Itoa(line.Index + 1)
	row[colCategory] = line.Category.Label()
	row[colDescription] = billing.Text(line.Fields, descriptionKeys, "")
	for _, d := range categoryDescriptors[line.Category] {
		row[d.col] = billing.Text(line.Fields, d.aliases, "")
	}
	row[colQuantity] = billing.Text(line.Fields, quantityKeys, "1")
	row[colBase] = line.Amounts.Base.String()
	row[colTax] = line.Amounts.Tax.String()
	row[colService] = line.Amounts.Service.String()
	row[colTotal] = line.Amounts.Total.String()
	return row
}

// Describe returns a printable description of a line: its own description
// field, else its category-specific details, else the category label.
func Describe(line *billing.Line) string {
	if d := billing.Text(line.Fields, descriptionKeys, ""); d != "" {
		return d
	}
	var parts []string
	for _, d := range categoryDescriptors[line.Category] {
		if v := billing.Text(line.Fields, d.aliases, ""); v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) > 0 {
		return line.Category.Label() + ": " + strings.Join(parts, " / ")
	}
	return line.Category.Label()
}

// SummaryRow renders the reconciled totals of an invoice.
func SummaryRow(view *domain.InvoiceView) []string {
	totals := view.Breakdown.Totals
	doc := view.Breakdown.Document

	row := invoiceColumns(view, RowSummary)
	row[colCategory] = view.Breakdown.Category.Label()
	row[colBase] = totals.Subtotal.String()
	row[colTax] = totals.TaxAmt.String()
	row[colService] = totals.SvcAmt.String()
	row[colTotal] = totals.Total.String()
	row[colTaxPct] = FormatRate(totals.TaxPct)
	row[colServicePct] = FormatRate(totals.SvcPct)
	if doc.IsProforma {
		row[colCGSTPct] = doc.CGSTPct.String()
		row[colSGSTPct] = doc.SGSTPct.String()
	}
	return row
}

func invoiceColumns(view *domain.InvoiceView, kind string) []string {
	row := make([]string, len(Columns))
	row[colRowType] = kind
	row[colInvoiceNumber] = view.InvoiceNumber
	row[colInvoiceDate] = formatDate(view.InvoiceDate)
	row[colDocument] = view.Breakdown.Document.Title()
	row[colCustomer] = view.CustomerName
	row[colCustomerGSTIN] = view.CustomerGSTIN
	row[colCurrency] = view.Currency
	return row
}

// FormatRate renders an optional percentage; a missing one is blank.
func FormatRate(r *billing.Rate) string {
	if r == nil {
		return ""
	}
	return r.String()
}
