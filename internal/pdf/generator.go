// Package pdf renders invoices as printable A4 documents.
//
// Page layout:
//
//	issuer name, GSTIN, address    | TAX INVOICE / PROFORMA INVOICE, number, date
//	-----------------------------------------------------------------------------
//	bill to: customer, GSTIN, email
//	-----------------------------------------------------------------------------
//	# | Description | Base | Tax | Service | Total
//	-----------------------------------------------------------------------------
//	Subtotal / Tax / Service charges / [CGST / SGST] / TOTAL
//	terms
package pdf

import (
	"fmt"
	"strconv"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"travelbill/internal/billing"
	appconfig "travelbill/internal/config"
	"travelbill/internal/csvexport"
	"travelbill/internal/domain"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// Generator renders invoices with maroto.
type Generator struct {
	issuer appconfig.IssuerConfig
}

// NewGenerator creates a Generator printing issuer on every document.
func NewGenerator(issuer appconfig.IssuerConfig) *Generator {
	return &Generator{issuer: issuer}
}

// Render produces the PDF bytes of one invoice view.
func (g *Generator) Render(view *domain.InvoiceView) ([]byte, error) {
	doc := view.Breakdown.Document

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(doc.Title()+" "+view.InvoiceNumber, true).
		WithAuthor(g.issuer.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(view))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(customerRow(view))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableRows(view.Breakdown.Lines)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRows(view)...)

	if terms := strings.TrimSpace(view.Terms); terms != "" {
		m.AddRows(line.NewRow(3))
		m.AddRows(row.New(12).Add(col.New(12).Add(
			text.New("Terms", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(terms, props.Text{Size: 7, Top: 6, Color: colorGray}),
		)))
	}

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf.Render: %w", err)
	}
	return out.GetBytes(), nil
}

func (g *Generator) headerRow(view *domain.InvoiceView) core.Row {
	issuerLines := []string{}
	if g.issuer.GSTIN != "" {
		issuerLines = append(issuerLines, "GSTIN: "+g.issuer.GSTIN)
	}
	if g.issuer.Address != "" {
		issuerLines = append(issuerLines, g.issuer.Address)
	}
	contact := g.issuer.Email
	if g.issuer.Phone != "" {
		contact = strings.TrimSpace(contact + "  " + g.issuer.Phone)
	}
	if contact != "" {
		issuerLines = append(issuerLines, contact)
	}

	left := col.New(7).Add(text.New(g.issuer.Name, props.Text{
		Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
	}))
	for i, s := range issuerLines {
		left = left.Add(text.New(s, props.Text{Size: 8, Top: float64(8 + 4*i), Color: colorGray}))
	}

	date := "-"
	if !view.InvoiceDate.IsZero() {
		date = view.InvoiceDate.Format("02/01/2006")
	}

	return row.New(22).Add(
		left,
		col.New(5).Add(
			text.New(view.Breakdown.Document.Title(), props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(nonEmpty(view.InvoiceNumber, "-"), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right, Top: 8,
			}),
			text.New("Date: "+date, props.Text{
				Size: 8, Align: align.Right, Top: 14, Color: colorGray,
			}),
		),
	)
}

func customerRow(view *domain.InvoiceView) core.Row {
	details := []string{}
	if view.CustomerGSTIN != "" {
		details = append(details, "GSTIN: "+view.CustomerGSTIN)
	}
	if view.CustomerEmail != "" {
		details = append(details, view.CustomerEmail)
	}
	return row.New(16).Add(
		col.New(8).Add(
			text.New("BILL TO", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(nonEmpty(view.CustomerName, "-"), props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New(strings.Join(details, "   |   "), props.Text{Size: 8, Top: 12, Color: colorGray}),
		),
		col.New(4).Add(
			text.New("Service: "+view.Breakdown.Category.Label(), props.Text{
				Size: 8, Align: align.Right, Top: 6, Color: colorGray,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("#", 1, align.Center),
		h("Description", 5, align.Left),
		h("Base", 2, align.Right),
		h("Tax", 1, align.Right),
		h("Service", 1, align.Right),
		h("Total", 2, align.Right),
	)
}

func tableRows(lines []billing.Line) []core.Row {
	rows := make([]core.Row, 0, len(lines))
	for i := range lines {
		l := &lines[i]
		cell := func(s string, size int, a align.Type) core.Col {
			return col.New(size).Add(text.New(s, props.Text{Size: 8, Align: a, Top: 1, Left: 1, Right: 1}))
		}
		rows = append(rows, row.New(7).Add(
			cell(strconv.Itoa(l.Index+1), 1, align.Center),
			cell(csvexport.Describe(l), 5, align.Left),
			cell(FormatAmount(l.Amounts.Base), 2, align.Right),
			cell(FormatAmount(l.Amounts.Tax), 1, align.Right),
			cell(FormatAmount(l.Amounts.Service), 1, align.Right),
			cell(FormatAmount(l.Amounts.Total), 2, align.Right),
		))
	}
	return rows
}

// TotalLine is one label/value pair of the totals box.
type TotalLine struct {
	Label string
	Value string
	Grand bool
}

// TotalLines lists the totals box entries in print order.
func TotalLines(view *domain.InvoiceView) []TotalLine {
	totals := view.Breakdown.Totals
	doc := view.Breakdown.Document
	cur := nonEmpty(view.Currency, "INR")

	out := []TotalLine{
		{Label: "Subtotal", Value: FormatAmount(totals.Subtotal)},
		{Label: withRate("Tax", totals.TaxPct), Value: FormatAmount(totals.TaxAmt)},
		{Label: withRate("Service charges", totals.SvcPct), Value: FormatAmount(totals.SvcAmt)},
	}
	if doc.IsProforma {
		cgst, sgst := doc.GSTAmounts(totals.Subtotal)
		out = append(out,
			TotalLine{Label: "CGST @ " + doc.CGSTPct.String() + "%", Value: FormatAmount(cgst)},
			TotalLine{Label: "SGST @ " + doc.SGSTPct.String() + "%", Value: FormatAmount(sgst)},
		)
	}
	return append(out, TotalLine{Label: "TOTAL (" + cur + ")", Value: FormatAmount(totals.Total), Grand: true})
}

func totalsRows(view *domain.InvoiceView) []core.Row {
	entries := TotalLines(view)
	rows := make([]core.Row, 0, len(entries))
	for _, e := range entries {
		p := props.Text{Size: 9, Align: align.Right, Right: 1, Top: 1}
		if e.Grand {
			p.Style = fontstyle.Bold
			p.Size = 10
			p.Color = colorPrimary
		}
		rows = append(rows, row.New(6).Add(
			col.New(6),
			col.New(3).Add(text.New(e.Label, p)),
			col.New(3).Add(text.New(e.Value, p)),
		))
	}
	return rows
}

func withRate(label string, r *billing.Rate) string {
	if r == nil || r.IsZero() {
		return label
	}
	return label + " (" + r.String() + "%)"
}

// FormatAmount prints m with Indian digit grouping, e.g. 1,23,456.78.
func FormatAmount(m billing.Money) string {
	s := m.String()
	intPart, frac, _ := strings.Cut(s, ".")
	n := len(intPart)
	if n <= 3 {
		return s
	}

	head, tail := intPart[:n-3], intPart[n-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return strings.Join(append(groups, tail), ",") + "." + frac
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
