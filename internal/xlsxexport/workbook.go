package xlsxexport

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"travelbill/internal/billing"
	"travelbill/internal/csvexport"
	"travelbill/internal/domain"
)

// Sheet names.
const (
	InvoicesSheet  = "Invoices"
	LineItemsSheet = "Line Items"
)

// InvoiceColumns is the header of the Invoices sheet.
var InvoiceColumns = []string{
	"Invoice Number",
	"Invoice Date",
	"Document",
	"Status",
	"Customer",
	"Customer GSTIN",
	"Service Type",
	"Lines",
	"Subtotal",
	"Tax %",
	"Tax",
	"Service %",
	"Service",
	"Total",
	"CGST %",
	"SGST %",
	"Currency",
}

// Workbook builds an XLSX export with one summary sheet and one line sheet.
type Workbook struct {
	file    *excelize.File
	invRow  int
	lineRow int
	boldID  int
}

// NewWorkbook creates a workbook with both sheets and their header rows.
func NewWorkbook() (*Workbook, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", InvoicesSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("xlsxexport.NewWorkbook: rename sheet: %w", err)
	}
	if _, err := f.NewSheet(LineItemsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("xlsxexport.NewWorkbook: new sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("xlsxexport.NewWorkbook: style: %w", err)
	}

	w := &Workbook{file: f, invRow: 1, lineRow: 1, boldID: bold}
	if err := w.writeHeader(InvoicesSheet, InvoiceColumns); err != nil {
		f.Close()
		return nil, err
	}
	if err := w.writeHeader(LineItemsSheet, csvexport.Columns); err != nil {
		f.Close()
		return nil, err
	}
	w.invRow, w.lineRow = 2, 2
	return w, nil
}

func (w *Workbook) writeHeader(sheet string, cols []string) error {
	if err := setRow(w.file, sheet, 1, toCells(cols)); err != nil {
		return fmt.Errorf("xlsxexport.writeHeader: %w", err)
	}
	if err := w.file.SetRowStyle(sheet, 1, 1, w.boldID); err != nil {
		return fmt.Errorf("xlsxexport.writeHeader: style: %w", err)
	}
	return nil
}

// AddInvoices appends one Invoices row and the line rows of every view.
func (w *Workbook) AddInvoices(views []domain.InvoiceView) error {
	for i := range views {
		view := &views[i]
		if err := setRow(w.file, InvoicesSheet, w.invRow, invoiceCells(view)); err != nil {
			return fmt.Errorf("xlsxexport.AddInvoices: %w", err)
		}
		w.invRow++

		for j := range view.Breakdown.Lines {
			cells := lineCells(csvexport.LineRow(view, &view.Breakdown.Lines[j]), &view.Breakdown.Lines[j].Amounts)
			if err := setRow(w.file, LineItemsSheet, w.lineRow, cells); err != nil {
				return fmt.Errorf("xlsxexport.AddInvoices: %w", err)
			}
			w.lineRow++
		}
		if err := setRow(w.file, LineItemsSheet, w.lineRow, toCells(csvexport.SummaryRow(view))); err != nil {
			return fmt.Errorf("xlsxexport.AddInvoices: %w", err)
		}
		w.lineRow++
	}
	return nil
}

// Rows returns the number of invoices written so far.
func (w *Workbook) Rows() int {
	return w.invRow - 2
}

// WriteTo serializes the workbook.
func (w *Workbook) WriteTo(out io.Writer) (int64, error) {
	w.file.SetActiveSheet(0)
	n, err := w.file.WriteTo(out)
	if err != nil {
		return n, fmt.Errorf("xlsxexport.WriteTo: %w", err)
	}
	return n, nil
}

// Close releases the workbook's temporary resources.
func (w *Workbook) Close() error {
	return w.file.Close()
}

func invoiceCells(view *domain.InvoiceView) []any {
	totals := view.Breakdown.Totals
	doc := view.Breakdown.Document

	cells := []any{
		view.InvoiceNumber,
		dateCell(view),
		doc.Title(),
		string(view.Status),
		view.CustomerName,
		view.CustomerGSTIN,
		view.Breakdown.Category.Label(),
		len(view.Breakdown.Lines),
		totals.Subtotal.InexactFloat64(),
		rateCell(totals.TaxPct),
		totals.TaxAmt.InexactFloat64(),
		rateCell(totals.SvcPct),
		totals.SvcAmt.InexactFloat64(),
		totals.Total.InexactFloat64(),
		nil,
		nil,
		view.Currency,
	}
	if doc.IsProforma {
		cells[14] = doc.CGSTPct.InexactFloat64()
		cells[15] = doc.SGSTPct.InexactFloat64()
	}
	return cells
}

// lineCells keeps the CSV text columns and swaps the amount columns for
// numeric cells so spreadsheet formulas work on them.
func lineCells(row []string, amounts *billing.LineAmounts) []any {
	cells := toCells(row)
	base := csvexport.BaseColumn
	cells[base] = amounts.Base.InexactFloat64()
	cells[base+1] = amounts.Tax.InexactFloat64()
	cells[base+2] = amounts.Service.InexactFloat64()
	cells[base+3] = amounts.Total.InexactFloat64()
	return cells
}

func dateCell(view *domain.InvoiceView) any {
	if view.InvoiceDate.IsZero() {
		return ""
	}
	return view.InvoiceDate.Format("2006-01-02")
}

func rateCell(r *billing.Rate) any {
	if r == nil {
		return nil
	}
	return r.InexactFloat64()
}

func toCells(row []string) []any {
	cells := make([]any, len(row))
	for i, v := range row {
		cells[i] = v
	}
	return cells
}

func setRow(f *excelize.File, sheet string, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &cells)
}
