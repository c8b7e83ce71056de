package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"travelbill/internal/domain"
	"travelbill/internal/handler"
	"travelbill/internal/middleware"
	"travelbill/internal/service"
	"travelbill/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setAuthContext(c *gin.Context, tenantID, userID uuid.UUID, role domain.UserRole) {
	c.Set(middleware.ContextKeyTenantID, tenantID)
	c.Set(middleware.ContextKeyUserID, userID)
	c.Set(middleware.ContextKeyRole, string(role))
	c.Set(middleware.ContextKeyEmail, "ops@acme.travel")
}

type testCtx struct {
	w        *httptest.ResponseRecorder
	c        *gin.Context
	tenantID uuid.UUID
	userID   uuid.UUID
}

func newRequest(method, target string, body []byte, role domain.UserRole) *testCtx {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
		c.Request, _ = http.NewRequest(method, target, reader)
		c.Request.Header.Set("Content-Type", "application/json")
	} else {
		c.Request, _ = http.NewRequest(method, target, http.NoBody)
	}
	tc := &testCtx{w: w, c: c, tenantID: uuid.New(), userID: uuid.New()}
	setAuthContext(c, tc.tenantID, tc.userID, role)
	return tc
}

func (tc *testCtx) withID(id uuid.UUID) *testCtx {
	tc.c.Params = gin.Params{{Key: "id", Value: id.String()}}
	return tc
}

func decode(t *testing.T, w *httptest.ResponseRecorder) handler.APIResponse {
	t.Helper()
	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func sampleView(tenantID uuid.UUID) *domain.InvoiceView {
	return &domain.InvoiceView{Invoice: &domain.Invoice{
		ID:            uuid.New(),
		TenantID:      tenantID,
		InvoiceNumber: "INV-20250115-0007",
		ServiceType:   "Hotel",
		Currency:      "INR",
		Status:        domain.InvoiceStatusIssued,
		DocumentKind:  domain.DocumentKindTaxInvoice,
		CustomerName:  "Globex",
	}}
}

func TestInvoiceHandler_Create(t *testing.T) {
	svc := new(mocks.MockInvoiceService)
	h := handler.NewInvoiceHandler(svc)

	body := []byte(`{
		"invoice_date": "2025-01-15",
		"service_type": "Hotel",
		"customer_name": "Globex",
		"customer_email": "ap@globex.in",
		"line_items": [{"hotelName": "Taj", "rooms": 2, "nights": 3, "ratePerNight": 4500}]
	}`)
	tc := newRequest(http.MethodPost, "/api/v1/invoices", body, domain.RoleAccountant)
	view := sampleView(tc.tenantID)

	svc.On("Create", mock.Anything, mock.MatchedBy(func(in *service.CreateInvoiceInput) bool {
		return in.TenantID == tc.tenantID &&
			in.CreatedBy == tc.userID &&
			in.Role == domain.RoleAccountant &&
			in.InvoiceDate.Equal(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)) &&
			in.ServiceType == "Hotel" &&
			len(in.LineItems) == 1 &&
			in.LineItems[0]["hotelName"] == "Taj"
	})).Return(view, nil)

	h.Create(tc.c)

	assert.Equal(t, http.StatusCreated, tc.w.Code)
	resp := decode(t, tc.w)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "INV-20250115-0007", data["invoice_number"])
	svc.AssertExpectations(t)
}

func TestInvoiceHandler_Create_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "missing_customer",
			body:       `{"service_type": "Hotel", "line_items": [{}]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "bad_date",
			body:       `{"invoice_date": "15/01/2025", "service_type": "Hotel", "customer_name": "G", "line_items": [{}]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "viewer",
			body:       `{"service_type": "Hotel", "customer_name": "G", "line_items": [{}]}`,
			svcErr:     domain.ErrInsufficientRole,
			wantStatus: http.StatusForbidden,
			wantCode:   "INSUFFICIENT_ROLE",
		},
		{
			name:       "no_line_items",
			body:       `{"service_type": "Hotel", "customer_name": "G", "line_items": []}`,
			svcErr:     domain.ErrNoLineItems,
			wantStatus: http.StatusBadRequest,
			wantCode:   "NO_LINE_ITEMS",
		},
		{
			name:       "duplicate_number",
			body:       `{"service_type": "Hotel", "customer_name": "G", "line_items": [{}]}`,
			svcErr:     fmt.Errorf("invoice.Create: %w", domain.ErrDuplicateInvoiceNumber),
			wantStatus: http.StatusConflict,
			wantCode:   "DUPLICATE_INVOICE_NUMBER",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mocks.MockInvoiceService)
			h := handler.NewInvoiceHandler(svc)
			if tt.svcErr != nil {
				svc.On("Create", mock.Anything, mock.Anything).Return(nil, tt.svcErr)
			}

			tc := newRequest(http.MethodPost, "/api/v1/invoices", []byte(tt.body), domain.RoleAccountant)
			h.Create(tc.c)

			assert.Equal(t, tt.wantStatus, tc.w.Code)
			resp := decode(t, tc.w)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			if tt.svcErr == nil {
				svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestInvoiceHandler_Create_MissingAuth(t *testing.T) {
	svc := new(mocks.MockInvoiceService)
	h := handler.NewInvoiceHandler(svc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/invoices", strings.NewReader(`{}`))

	h.Create(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInvoiceHandler_List(t *testing.T) {
	svc := new(mocks.MockInvoiceService)
	h := handler.NewInvoiceHandler(svc)

	tc := newRequest(http.MethodGet,
		"/api/v1/invoices?status=issued&document_kind=proforma&from=2025-01-01&to=2025-01-31&q=globex&offset=20&limit=10",
		nil, domain.RoleViewer)
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	filters := domain.InvoiceFilters{
		Status:       domain.InvoiceStatusIssued,
		DocumentKind: domain.DocumentKindProforma,
		From:         &from,
		To:           &to,
		Search:       "globex",
	}
	svc.On("List", mock.Anything, tc.tenantID, filters, 20, 10).
		Return([]domain.InvoiceView{*sampleView(tc.tenantID)}, 21, nil)

	h.List(tc.c)

	assert.Equal(t, http.StatusOK, tc.w.Code)
	resp := decode(t, tc.w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, handler.PagMeta{Total: 21, Offset: 20, Limit: 10}, *resp.Meta)
	assert.Len(t, resp.Data, 1)
	svc.AssertExpectations(t)
}

func TestInvoiceHandler_List_InvalidFilters(t *testing.T) {
	for _, query := range []string{
		"status=paid",
		"document_kind=receipt",
		"from=2025-13-01",
		"from=2025-02-01&to=2025-01-01",
	} {
		t.Run(query, func(t *testing.T) {
			svc := new(mocks.MockInvoiceService)
			h := handler.NewInvoiceHandler(svc)
			tc := newRequest(http.MethodGet, "/api/v1/invoices?"+query, nil, domain.RoleViewer)

			h.List(tc.c)

			assert.Equal(t, http.StatusBadRequest, tc.w.Code)
			svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestInvoiceHandler_GetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		svc := new(mocks.MockInvoiceService)
		h := handler.NewInvoiceHandler(svc)
		id := uuid.New()
		tc := newRequest(http.MethodGet, "/api/v1/invoices/"+id.String(), nil, domain.RoleViewer).withID(id)
		svc.On("Get", mock.Anything, tc.tenantID, id).Return(sampleView(tc.tenantID), nil)

		h.GetByID(tc.c)

		assert.Equal(t, http.StatusOK, tc.w.Code)
	})

	t.Run("not_found", func(t *testing.T) {
		svc := new(mocks.MockInvoiceService)
		h := handler.NewInvoiceHandler(svc)
		id := uuid.New()
		tc := newRequest(http.MethodGet, "/api/v1/invoices/"+id.String(), nil, domain.RoleViewer).withID(id)
		svc.On("Get", mock.Anything, tc.tenantID, id).Return(nil, domain.ErrInvoiceNotFound)

		h.GetByID(tc.c)

		assert.Equal(t, http.StatusNotFound, tc.w.Code)
		assert.Equal(t, "INVOICE_NOT_FOUND", decode(t, tc.w).Error.Code)
	})

	t.Run("invalid_id", func(t *testing.T) {
		svc := new(mocks.MockInvoiceService)
		h := handler.NewInvoiceHandler(svc)
		tc := newRequest(http.MethodGet, "/api/v1/invoices/abc", nil, domain.RoleViewer)
		tc.c.Params = gin.Params{{Key: "id", Value: "abc"}}

		h.GetByID(tc.c)

		assert.Equal(t, http.StatusBadRequest, tc.w.Code)
		assert.Equal(t, "INVALID_ID", decode(t, tc.w).Error.Code)
	})

	t.Run("internal_error", func(t *testing.T) {
		svc := new(mocks.MockInvoiceService)
		h := handler.NewInvoiceHandler(svc)
		id := uuid.New()
		tc := newRequest(http.MethodGet, "/", nil, domain.RoleViewer).withID(id)
		svc.On("Get", mock.Anything, tc.tenantID, id).Return(nil, errors.New("pq: connection refused"))

		h.GetByID(tc.c)

		assert.Equal(t, http.StatusInternalServerError, tc.w.Code)
		assert.NotContains(t, tc.w.Body.String(), "connection refused")
	})
}

func TestInvoiceHandler_DownloadPDF(t *testing.T) {
	svc := new(mocks.MockInvoiceService)
	h := handler.NewInvoiceHandler(svc)
	id := uuid.New()
	tc := newRequest(http.MethodGet, "/", nil, domain.RoleViewer).withID(id)
	view := sampleView(tc.tenantID)
	view.InvoiceNumber = "PI/2025/07"
	svc.On("RenderPDF", mock.Anything, tc.tenantID, id).Return([]byte("%PDF-1.7"), view, nil)

	h.DownloadPDF(tc.c)

	assert.Equal(t, http.StatusOK, tc.w.Code)
	assert.Equal(t, "application/pdf", tc.w.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename="PI_2025_07.pdf"`, tc.w.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.7", tc.w.Body.String())
}

func TestInvoiceHandler_Publish(t *testing.T) {
	svc := new(mocks.MockInvoiceService)
	h := handler.NewInvoiceHandler(svc)
	id := uuid.New()
	tc := newRequest(http.MethodPost, "/", nil, domain.RoleAdmin).withID(id)
	svc.On("PublishPDF", mock.Anything, tc.tenantID, id, domain.RoleAdmin).
		Return(&service.PublishedDocument{Key: "invoices/x.pdf", URL: "https://signed"}, nil)

	h.Publish(tc.c)

	assert.Equal(t, http.StatusOK, tc.w.Code)
	data := decode(t, tc.w).Data.(map[string]interface{})
	assert.Equal(t, "https://signed", data["url"])
}

func TestInvoiceHandler_Publish_UploadFailed(t *testing.T) {
	svc := new(mocks.MockInvoiceService)
	h := handler.NewInvoiceHandler(svc)
	id := uuid.New()
	tc := newRequest(http.MethodPost, "/", nil, domain.RoleAdmin).withID(id)
	svc.On("PublishPDF", mock.Anything, tc.tenantID, id, domain.RoleAdmin).
		Return(nil, fmt.Errorf("%w: %v", domain.ErrUploadFailed, "access denied"))

	h.Publish(tc.c)

	assert.Equal(t, http.StatusBadGateway, tc.w.Code)
	assert.Equal(t, "UPLOAD_FAILED", decode(t, tc.w).Error.Code)
}

func TestInvoiceHandler_Email(t *testing.T) {
	t.Run("no_body_uses_customer_email", func(t *testing.T) {
		svc := new(mocks.MockInvoiceService)
		h := handler.NewInvoiceHandler(svc)
		id := uuid.New()
		tc := newRequest(http.MethodPost, "/", nil, domain.RoleAccountant).withID(id)
		svc.On("EmailInvoice", mock.Anything, tc.tenantID, id, domain.RoleAccountant, "").
			Return(&service.PublishedDocument{URL: "https://signed"}, nil)

		h.Email(tc.c)

		assert.Equal(t, http.StatusOK, tc.w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("explicit_recipient", func(t *testing.T) {
		svc := new(mocks.MockInvoiceService)
		h := handler.NewInvoiceHandler(svc)
		id := uuid.New()
		tc := newRequest(http.MethodPost, "/", []byte(`{"to": "cfo@globex.in"}`), domain.RoleAccountant).withID(id)
		svc.On("EmailInvoice", mock.Anything, tc.tenantID, id, domain.RoleAccountant, "cfo@globex.in").
			Return(&service.PublishedDocument{}, nil)

		h.Email(tc.c)

		assert.Equal(t, http.StatusOK, tc.w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("invalid_recipient", func(t *testing.T) {
		svc := new(mocks.MockInvoiceService)
		h := handler.NewInvoiceHandler(svc)
		id := uuid.New()
		tc := newRequest(http.MethodPost, "/", []byte(`{"to": "not-an-email"}`), domain.RoleAccountant).withID(id)

		h.Email(tc.c)

		assert.Equal(t, http.StatusBadRequest, tc.w.Code)
		svc.AssertNotCalled(t, "EmailInvoice", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing_recipient", func(t *testing.T) {
		svc := new(mocks.MockInvoiceService)
		h := handler.NewInvoiceHandler(svc)
		id := uuid.New()
		tc := newRequest(http.MethodPost, "/", nil, domain.RoleAccountant).withID(id)
		svc.On("EmailInvoice", mock.Anything, tc.tenantID, id, domain.RoleAccountant, "").
			Return(nil, domain.ErrMissingRecipient)

		h.Email(tc.c)

		assert.Equal(t, http.StatusBadRequest, tc.w.Code)
		assert.Equal(t, "MISSING_RECIPIENT", decode(t, tc.w).Error.Code)
	})
}

func TestInvoiceHandler_Cancel(t *testing.T) {
	svc := new(mocks.MockInvoiceService)
	h := handler.NewInvoiceHandler(svc)
	id := uuid.New()
	tc := newRequest(http.MethodPost, "/", nil, domain.RoleAdmin).withID(id)
	svc.On("Cancel", mock.Anything, tc.tenantID, id, domain.RoleAdmin).Return(domain.ErrInvoiceCancelled)

	h.Cancel(tc.c)

	assert.Equal(t, http.StatusConflict, tc.w.Code)
	assert.Equal(t, "INVOICE_CANCELLED", decode(t, tc.w).Error.Code)
}

func TestInvoiceHandler_Reconcile(t *testing.T) {
	svc := new(mocks.MockInvoiceService)
	h := handler.NewInvoiceHandler(svc)
	id := uuid.New()
	tc := newRequest(http.MethodPost, "/", nil, domain.RoleAdmin).withID(id)
	svc.On("Reconcile", mock.Anything, tc.tenantID, id).Return(sampleView(tc.tenantID), true, nil)

	h.Reconcile(tc.c)

	assert.Equal(t, http.StatusOK, tc.w.Code)
	data := decode(t, tc.w).Data.(map[string]interface{})
	assert.Equal(t, true, data["updated"])
}

func TestInvoiceHandler_ExportCSV(t *testing.T) {
	svc := new(mocks.MockInvoiceService)
	h := handler.NewInvoiceHandler(svc)
	tc := newRequest(http.MethodGet, "/api/v1/invoices/export/csv?service_type=Air%20Ticket", nil, domain.RoleViewer)

	svc.On("Export", mock.Anything, service.ExportInput{
		TenantID: tc.tenantID,
		Filters:  domain.InvoiceFilters{ServiceType: "Air Ticket"},
		Format:   domain.ExportFormatCSV,
	}, mock.Anything).Return("row_type,invoice_number\n", nil)

	h.ExportCSV(tc.c)

	assert.Equal(t, http.StatusOK, tc.w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", tc.w.Header().Get("Content-Type"))
	disposition := tc.w.Header().Get("Content-Disposition")
	assert.True(t, strings.HasPrefix(disposition, `attachment; filename="Air_Ticket_invoices_`), disposition)
	assert.True(t, strings.HasSuffix(disposition, `.csv"`), disposition)
	assert.Equal(t, "row_type,invoice_number\n", tc.w.Body.String())
}

func TestInvoiceHandler_ExportXLSX_TooLarge(t *testing.T) {
	svc := new(mocks.MockInvoiceService)
	h := handler.NewInvoiceHandler(svc)
	tc := newRequest(http.MethodGet, "/api/v1/invoices/export/xlsx", nil, domain.RoleViewer)

	svc.On("Export", mock.Anything, mock.MatchedBy(func(in service.ExportInput) bool {
		return in.Format == domain.ExportFormatXLSX
	}), mock.Anything).Return(nil, fmt.Errorf("invoice.Export: %w", domain.ErrExportTooLarge))

	h.ExportXLSX(tc.c)

	assert.Equal(t, http.StatusRequestEntityTooLarge, tc.w.Code)
	assert.Empty(t, tc.w.Header().Get("Content-Disposition"))
	assert.Contains(t, tc.w.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, "EXPORT_TOO_LARGE", decode(t, tc.w).Error.Code)
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{domain.ErrInvoiceNotFound, http.StatusNotFound, "INVOICE_NOT_FOUND"},
		{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{domain.ErrInvalidToken, http.StatusUnauthorized, "UNAUTHORIZED"},
		{domain.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{fmt.Errorf("%w: customer name is required", domain.ErrInvalidInvoice), http.StatusBadRequest, "INVALID_INVOICE"},
		{domain.ErrUnsupportedExportFormat, http.StatusBadRequest, "UNSUPPORTED_EXPORT_FORMAT"},
		{domain.ErrEmailDeliveryFailed, http.StatusBadGateway, "EMAIL_DELIVERY_FAILED"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			status, code, _ := handler.MapDomainError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}
