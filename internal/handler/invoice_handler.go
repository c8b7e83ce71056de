package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"travelbill/internal/csvexport"
	"travelbill/internal/domain"
	"travelbill/internal/service"
)

const dateLayout = "2006-01-02"

// InvoiceHandler handles invoice endpoints.
type InvoiceHandler struct {
	invoiceService service.InvoiceService
	now            func() time.Time
}

// NewInvoiceHandler creates a new InvoiceHandler.
func NewInvoiceHandler(invoiceService service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService, now: time.Now}
}

type createInvoiceRequest struct {
	InvoiceDate   string           `json:"invoice_date"`
	ServiceType   string           `json:"service_type" binding:"required"`
	DocumentKind  string           `json:"document_kind"`
	Currency      string           `json:"currency"`
	CustomerName  string           `json:"customer_name" binding:"required"`
	CustomerEmail string           `json:"customer_email"`
	CustomerGSTIN string           `json:"customer_gstin"`
	LineItems     []map[string]any `json:"line_items" binding:"required"`
	Metadata      map[string]any   `json:"metadata"`
	Terms         string           `json:"terms"`
}

type emailInvoiceRequest struct {
	To string `json:"to" binding:"omitempty,email"`
}

// Create handles POST /api/v1/invoices
// @Summary Create an invoice
// @Description Price the line items, number the invoice and store it
// @Tags invoices
// @Accept json
// @Produce json
// @Param request body createInvoiceRequest true "Invoice details"
// @Success 201 {object} APIResponse{data=domain.InvoiceView} "Invoice created"
// @Failure 400 {object} APIResponse "Invalid request or no line items"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Insufficient role"
// @Failure 409 {object} APIResponse "Duplicate invoice number"
// @Security BearerAuth
// @Router /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	tenantID, userID, role, ok := extractAuthContext(c)
	if !ok {
		return
	}

	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "service_type, customer_name and line_items are required")
		return
	}

	invoiceDate := h.now()
	if req.InvoiceDate != "" {
		t, err := time.Parse(dateLayout, req.InvoiceDate)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "invalid invoice_date: must be YYYY-MM-DD")
			return
		}
		invoiceDate = t
	}

	view, err := h.invoiceService.Create(c.Request.Context(), &service.CreateInvoiceInput{
		TenantID:      tenantID,
		CreatedBy:     userID,
		Role:          role,
		InvoiceDate:   invoiceDate,
		ServiceType:   req.ServiceType,
		DocumentKind:  domain.DocumentKind(req.DocumentKind),
		Currency:      req.Currency,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerGSTIN: req.CustomerGSTIN,
		LineItems:     req.LineItems,
		Metadata:      req.Metadata,
		Terms:         req.Terms,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, view)
}

// List handles GET /api/v1/invoices
// @Summary List invoices
// @Description List invoices with reconciled totals
// @Tags invoices
// @Produce json
// @Param service_type query string false "Filter by service type"
// @Param q query string false "Search invoice number or customer"
// @Param status query string false "draft, issued or cancelled"
// @Param document_kind query string false "tax_invoice or proforma"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Param offset query int false "Offset for pagination" default(0)
// @Param limit query int false "Limit for pagination (max 100)" default(20)
// @Success 200 {object} APIResponse{data=[]domain.InvoiceView,meta=PagMeta} "List of invoices"
// @Failure 400 {object} APIResponse "Invalid filter"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Security BearerAuth
// @Router /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	tenantID, _, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	filters, err := parseInvoiceFilters(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	offset, limit := parsePagination(c)

	views, total, err := h.invoiceService.List(c.Request.Context(), tenantID, filters, offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, views, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetByID handles GET /api/v1/invoices/:id
// @Summary Get invoice by ID
// @Description Get an invoice with its line breakdown and document classification
// @Tags invoices
// @Produce json
// @Param id path string true "Invoice ID (UUID)"
// @Success 200 {object} APIResponse{data=domain.InvoiceView} "Invoice details"
// @Failure 400 {object} APIResponse "Invalid ID"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 404 {object} APIResponse "Invoice not found"
// @Security BearerAuth
// @Router /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	tenantID, _, _, ok := extractAuthContext(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	view, err := h.invoiceService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, view)
}

// DownloadPDF handles GET /api/v1/invoices/:id/pdf
// @Summary Download invoice PDF
// @Description Render the tax invoice or proforma as a PDF
// @Tags invoices
// @Produce application/pdf
// @Param id path string true "Invoice ID (UUID)"
// @Success 200 {file} file "Rendered PDF"
// @Failure 400 {object} APIResponse "Invalid ID"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 404 {object} APIResponse "Invoice not found"
// @Security BearerAuth
// @Router /invoices/{id}/pdf [get]
func (h *InvoiceHandler) DownloadPDF(c *gin.Context) {
	tenantID, _, _, ok := extractAuthContext(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	pdf, view, err := h.invoiceService.RenderPDF(c.Request.Context(), tenantID, id)
	if err != nil {
		HandleError(c, err)
		return
	}

	filename := csvexport.SanitizeFilename(view.InvoiceNumber) + ".pdf"
	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// Publish handles POST /api/v1/invoices/:id/publish
// @Summary Publish invoice PDF
// @Description Upload the rendered PDF to object storage and return a presigned link. Drafts become issued.
// @Tags invoices
// @Produce json
// @Param id path string true "Invoice ID (UUID)"
// @Success 200 {object} APIResponse{data=service.PublishedDocument} "Published document"
// @Failure 400 {object} APIResponse "Invalid ID"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Insufficient role"
// @Failure 404 {object} APIResponse "Invoice not found"
// @Failure 409 {object} APIResponse "Invoice cancelled"
// @Failure 502 {object} APIResponse "Upload failed"
// @Security BearerAuth
// @Router /invoices/{id}/publish [post]
func (h *InvoiceHandler) Publish(c *gin.Context) {
	tenantID, _, role, ok := extractAuthContext(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	doc, err := h.invoiceService.PublishPDF(c.Request.Context(), tenantID, id, role)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, doc)
}

// Email handles POST /api/v1/invoices/:id/email
// The body is optional; without "to" the customer email on the invoice is used.
// @Summary Email invoice
// @Description Publish the invoice PDF and email its download link
// @Tags invoices
// @Accept json
// @Produce json
// @Param id path string true "Invoice ID (UUID)"
// @Param request body emailInvoiceRequest false "Recipient override"
// @Success 200 {object} APIResponse{data=service.PublishedDocument} "Email sent"
// @Failure 400 {object} APIResponse "Invalid ID, recipient or missing recipient"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Insufficient role"
// @Failure 404 {object} APIResponse "Invoice not found"
// @Failure 502 {object} APIResponse "Email delivery failed"
// @Security BearerAuth
// @Router /invoices/{id}/email [post]
func (h *InvoiceHandler) Email(c *gin.Context) {
	tenantID, _, role, ok := extractAuthContext(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req emailInvoiceRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "to must be a valid email address")
			return
		}
	}

	doc, err := h.invoiceService.EmailInvoice(c.Request.Context(), tenantID, id, role, req.To)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, doc)
}

// Cancel handles POST /api/v1/invoices/:id/cancel
// @Summary Cancel an invoice
// @Description Mark an invoice cancelled and remove its published PDF
// @Tags invoices
// @Produce json
// @Param id path string true "Invoice ID (UUID)"
// @Success 200 {object} APIResponse "Invoice cancelled"
// @Failure 400 {object} APIResponse "Invalid ID"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Insufficient role"
// @Failure 404 {object} APIResponse "Invoice not found"
// @Failure 409 {object} APIResponse "Invoice already cancelled"
// @Security BearerAuth
// @Router /invoices/{id}/cancel [post]
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	tenantID, _, role, ok := extractAuthContext(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.invoiceService.Cancel(c.Request.Context(), tenantID, id, role); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"message": "invoice cancelled"})
}

// Reconcile handles POST /api/v1/invoices/:id/reconcile
// @Summary Reconcile invoice totals
// @Description Recompute totals from line items and rewrite stored totals that drifted. Admin only.
// @Tags invoices
// @Produce json
// @Param id path string true "Invoice ID (UUID)"
// @Success 200 {object} APIResponse "Reconciled invoice and whether it was updated"
// @Failure 400 {object} APIResponse "Invalid ID"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 403 {object} APIResponse "Insufficient role"
// @Failure 404 {object} APIResponse "Invoice not found"
// @Security BearerAuth
// @Router /invoices/{id}/reconcile [post]
func (h *InvoiceHandler) Reconcile(c *gin.Context) {
	tenantID, _, _, ok := extractAuthContext(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	view, updated, err := h.invoiceService.Reconcile(c.Request.Context(), tenantID, id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"invoice": view, "updated": updated})
}

// ExportCSV handles GET /api/v1/invoices/export/csv
// @Summary Export invoices as CSV
// @Description Stream matching invoices as CSV with one row per line item and a summary row per invoice
// @Tags invoices
// @Produce text/csv
// @Param service_type query string false "Filter by service type"
// @Param status query string false "draft, issued or cancelled"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Success 200 {file} file "CSV file download"
// @Failure 400 {object} APIResponse "Invalid filter"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 413 {object} APIResponse "Too many rows"
// @Security BearerAuth
// @Router /invoices/export/csv [get]
func (h *InvoiceHandler) ExportCSV(c *gin.Context) {
	h.export(c, domain.ExportFormatCSV)
}

// ExportXLSX handles GET /api/v1/invoices/export/xlsx
// @Summary Export invoices as XLSX
// @Description Workbook with an Invoices sheet and a Line Items sheet
// @Tags invoices
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param service_type query string false "Filter by service type"
// @Param status query string false "draft, issued or cancelled"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Success 200 {file} file "XLSX file download"
// @Failure 400 {object} APIResponse "Invalid filter"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Failure 413 {object} APIResponse "Too many rows"
// @Security BearerAuth
// @Router /invoices/export/xlsx [get]
func (h *InvoiceHandler) ExportXLSX(c *gin.Context) {
	h.export(c, domain.ExportFormatXLSX)
}

func (h *InvoiceHandler) export(c *gin.Context, format domain.ExportFormat) {
	tenantID, _, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	filters, err := parseInvoiceFilters(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	prefix := lo.Ternary(filters.ServiceType != "", filters.ServiceType+"_invoices", "invoices")
	filename := csvexport.BuildFilename(prefix, string(format), h.now())
	c.Header("Content-Type", format.ContentType())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	err = h.invoiceService.Export(c.Request.Context(), service.ExportInput{
		TenantID: tenantID,
		Filters:  filters,
		Format:   format,
	}, c.Writer)
	if err == nil {
		return
	}
	if c.Writer.Written() {
		// Status and headers are already on the wire.
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("format", string(format)).Msg("export aborted mid-stream")
		c.Abort()
		return
	}
	c.Writer.Header().Del("Content-Disposition")
	c.Writer.Header().Del("Content-Type")
	HandleError(c, err)
}

// parsePagination extracts offset and limit from query params with defaults.
func parsePagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}

func parseInvoiceFilters(c *gin.Context) (domain.InvoiceFilters, error) {
	filters := domain.InvoiceFilters{
		ServiceType: strings.TrimSpace(c.Query("service_type")),
		Search:      strings.TrimSpace(c.Query("q")),
	}

	if s := c.Query("status"); s != "" {
		status := domain.InvoiceStatus(s)
		if !domain.ValidInvoiceStatuses[status] {
			return filters, fmt.Errorf("invalid 'status': must be draft, issued or cancelled")
		}
		filters.Status = status
	}
	if k := c.Query("document_kind"); k != "" {
		kind := domain.DocumentKind(k)
		if !domain.ValidDocumentKinds[kind] {
			return filters, fmt.Errorf("invalid 'document_kind': must be tax_invoice or proforma")
		}
		filters.DocumentKind = kind
	}
	if fromStr := c.Query("from"); fromStr != "" {
		t, err := time.Parse(dateLayout, fromStr)
		if err != nil {
			return filters, fmt.Errorf("invalid 'from' date: must be YYYY-MM-DD")
		}
		filters.From = &t
	}
	if toStr := c.Query("to"); toStr != "" {
		t, err := time.Parse(dateLayout, toStr)
		if err != nil {
			return filters, fmt.Errorf("invalid 'to' date: must be YYYY-MM-DD")
		}
		filters.To = &t
	}
	if filters.From != nil && filters.To != nil && filters.To.Before(*filters.From) {
		return filters, fmt.Errorf("'to' date must not be before 'from' date")
	}
	return filters, nil
}
