package router_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"travelbill/internal/config"
	"travelbill/internal/domain"
	"travelbill/internal/handler"
	"travelbill/internal/router"
	"travelbill/internal/service"
	"travelbill/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

func setup(t *testing.T, role domain.UserRole, pingErr error) (*gin.Engine, *mocks.MockInvoiceService, uuid.UUID) {
	t.Helper()
	verifier := new(mocks.MockTokenVerifier)
	svc := new(mocks.MockInvoiceService)
	tenantID := uuid.New()
	verifier.On("ValidateToken", "good").Return(&service.Claims{
		TenantID: tenantID,
		UserID:   uuid.New(),
		Role:     role,
	}, nil).Maybe()

	cfg := &config.Config{CORS: config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}}}
	r := router.Setup(cfg, zerolog.Nop(), verifier,
		handler.NewInvoiceHandler(svc),
		handler.NewStatsHandler(new(mocks.MockStatsService)),
		handler.NewHealthHandler(stubPinger{err: pingErr}))
	return r, svc, tenantID
}

func do(r *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, http.NoBody)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	r, _, _ := setup(t, domain.RoleViewer, nil)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/readyz", "").Code)

	down, _, _ := setup(t, domain.RoleViewer, errors.New("dial tcp: refused"))
	assert.Equal(t, http.StatusServiceUnavailable, do(down, http.MethodGet, "/readyz", "").Code)
}

func TestRouter_InvoicesRequireToken(t *testing.T) {
	r, svc, _ := setup(t, domain.RoleViewer, nil)

	w := do(r, http.MethodGet, "/api/v1/invoices", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRouter_ExportRouteIsNotAnID(t *testing.T) {
	r, svc, tenantID := setup(t, domain.RoleViewer, nil)
	svc.On("Export", mock.Anything, mock.MatchedBy(func(in service.ExportInput) bool {
		return in.TenantID == tenantID && in.Format == domain.ExportFormatCSV
	}), mock.Anything).Return("x", nil)

	w := do(r, http.MethodGet, "/api/v1/invoices/export/csv", "good")

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
	svc.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
}

func TestRouter_ReconcileIsAdminOnly(t *testing.T) {
	id := uuid.New()

	viewer, viewerSvc, _ := setup(t, domain.RoleAccountant, nil)
	assert.Equal(t, http.StatusForbidden, do(viewer, http.MethodPost, "/api/v1/invoices/"+id.String()+"/reconcile", "good").Code)
	viewerSvc.AssertNotCalled(t, "Reconcile", mock.Anything, mock.Anything, mock.Anything)

	admin, adminSvc, tenantID := setup(t, domain.RoleAdmin, nil)
	adminSvc.On("Reconcile", mock.Anything, tenantID, id).Return(&domain.InvoiceView{Invoice: &domain.Invoice{ID: id}}, false, nil)
	assert.Equal(t, http.StatusOK, do(admin, http.MethodPost, "/api/v1/invoices/"+id.String()+"/reconcile", "good").Code)
}
