package service

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"travelbill/internal/csvexport"
	"travelbill/internal/domain"
	"travelbill/internal/xlsxexport"
)

// exportSink receives invoice views page by page.
type exportSink interface {
	begin() error
	write(views []domain.InvoiceView) error
	finish() error
	close()
}

func (s *invoiceService) Export(ctx context.Context, input ExportInput, w io.Writer) error {
	var sink exportSink
	switch input.Format {
	case domain.ExportFormatCSV:
		sink = &csvSink{out: w}
	case domain.ExportFormatXLSX:
		sink = &xlsxSink{out: w}
	default:
		return domain.ErrUnsupportedExportFormat
	}
	defer sink.close()

	rows, err := s.streamPages(ctx, input, sink)
	if err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().
		Str("tenant_id", input.TenantID.String()).
		Str("format", string(input.Format)).
		Int("invoices", rows).
		Msg("invoices exported")
	return nil
}

// streamPages pages through the filtered invoices in batches. The row limit
// is checked against the first page's total before anything is written.
func (s *invoiceService) streamPages(ctx context.Context, input ExportInput, sink exportSink) (int, error) {
	batch := s.export.BatchSize
	offset := 0
	for {
		invoices, total, err := s.repo.List(ctx, input.TenantID, input.Filters, offset, batch)
		if err != nil {
			return offset, fmt.Errorf("invoice.Export page at %d: %w", offset, err)
		}
		if offset == 0 {
			if s.export.MaxRows > 0 && total > s.export.MaxRows {
				return 0, fmt.Errorf("%w: %d invoices match, limit is %d", domain.ErrExportTooLarge, total, s.export.MaxRows)
			}
			if err := sink.begin(); err != nil {
				return 0, fmt.Errorf("invoice.Export: %w", err)
			}
		}
		if err := sink.write(s.views(ctx, invoices)); err != nil {
			return offset, fmt.Errorf("invoice.Export: %w", err)
		}
		offset += len(invoices)
		if len(invoices) < batch || offset >= total {
			break
		}
		if err := ctx.Err(); err != nil {
			return offset, err
		}
	}
	if err := sink.finish(); err != nil {
		return offset, fmt.Errorf("invoice.Export: %w", err)
	}
	return offset, nil
}

type csvSink struct {
	out io.Writer
	w   *csvexport.Writer
}

func (c *csvSink) begin() error {
	if _, err := c.out.Write(csvexport.BOM); err != nil {
		return err
	}
	c.w = csvexport.NewWriter(c.out)
	return c.w.WriteHeader()
}

func (c *csvSink) write(views []domain.InvoiceView) error {
	if err := c.w.WriteInvoices(views); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *csvSink) finish() error {
	c.w.Flush()
	return c.w.Error()
}

func (c *csvSink) close() {}

// xlsxSink buffers the workbook in memory; excelize serializes it at the end.
type xlsxSink struct {
	out io.Writer
	wb  *xlsxexport.Workbook
}

func (x *xlsxSink) begin() error {
	wb, err := xlsxexport.NewWorkbook()
	if err != nil {
		return err
	}
	x.wb = wb
	return nil
}

func (x *xlsxSink) write(views []domain.InvoiceView) error {
	return x.wb.AddInvoices(views)
}

func (x *xlsxSink) finish() error {
	_, err := x.wb.WriteTo(x.out)
	return err
}

func (x *xlsxSink) close() {
	if x.wb != nil {
		_ = x.wb.Close()
	}
}
