package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"travelbill/internal/service"
)

// StatsHandler handles statistics endpoints.
type StatsHandler struct {
	statsService service.StatsService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(statsService service.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// GetStats handles GET /api/v1/invoices/stats
// Accepts the same filters as the invoice listing.
// @Summary Get invoice statistics
// @Description Counts by status and document kind, billed amounts excluding cancelled invoices, and per-category totals
// @Tags stats
// @Produce json
// @Param service_type query string false "Filter by service type"
// @Param status query string false "draft, issued or cancelled"
// @Param document_kind query string false "tax_invoice or proforma"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Success 200 {object} APIResponse{data=domain.InvoiceStats} "Aggregate statistics"
// @Failure 400 {object} APIResponse "Invalid filter"
// @Failure 401 {object} APIResponse "Unauthorized"
// @Security BearerAuth
// @Router /invoices/stats [get]
func (h *StatsHandler) GetStats(c *gin.Context) {
	tenantID, _, _, ok := extractAuthContext(c)
	if !ok {
		return
	}

	filters, err := parseInvoiceFilters(c)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	stats, err := h.statsService.GetStats(c.Request.Context(), tenantID, filters)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, stats)
}
