package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"travelbill/internal/billing"
	"travelbill/internal/config"
	"travelbill/internal/email/noop"
	"travelbill/internal/email/ses"
	"travelbill/internal/handler"
	"travelbill/internal/logger"
	"travelbill/internal/pdf"
	"travelbill/internal/port"
	"travelbill/internal/repository/postgres"
	"travelbill/internal/router"
	"travelbill/internal/service"
	s3storage "travelbill/internal/storage/s3"
)

const shutdownTimeout = 20 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	zl := logger.Setup(cfg.Log)
	ctx := zl.WithContext(context.Background())

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(ctx, &cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	// Initialize repositories
	invoiceRepo := postgres.NewInvoiceRepo(db)
	sequenceRepo := postgres.NewSequenceRepo(db)
	statsRepo := postgres.NewStatsRepo(db)

	// Initialize storage
	store, err := s3storage.NewDocumentStore(ctx, &cfg.S3)
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}

	emailer, err := newEmailSender(ctx, cfg.Email, zl)
	if err != nil {
		return fmt.Errorf("failed to initialize email sender: %w", err)
	}

	// Initialize services
	engine := billing.New(cfg.Billing.Policy())
	invoiceSvc := service.NewInvoiceService(
		invoiceRepo, sequenceRepo, store, emailer,
		pdf.NewGenerator(cfg.Issuer),
		engine, cfg.Billing, cfg.Export, &cfg.S3,
	)
	statsSvc := service.NewStatsService(statsRepo)
	verifier := service.NewTokenVerifier(cfg.JWT)

	// Initialize handlers
	invoiceH := handler.NewInvoiceHandler(invoiceSvc)
	statsH := handler.NewStatsHandler(statsSvc)
	healthH := handler.NewHealthHandler(db)

	// Setup router
	r := router.Setup(cfg, zl, verifier, invoiceH, statsH, healthH)

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  time.Minute,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		zl.Info().Str("addr", srv.Addr).Str("environment", cfg.Server.Environment).Msg("server starting")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-sigCtx.Done():
	}

	zl.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	zl.Info().Msg("server stopped")
	return nil
}

// newEmailSender picks the delivery backend. Anything other than "ses" logs
// messages instead of sending them.
func newEmailSender(ctx context.Context, cfg config.EmailConfig, zl zerolog.Logger) (port.EmailSender, error) {
	if strings.EqualFold(cfg.Provider, "ses") {
		return ses.NewSESSender(ctx, cfg.Region, cfg.FromAddress, cfg.FromName)
	}
	zl.Warn().Str("provider", cfg.Provider).Msg("email delivery disabled; using noop sender")
	return noop.NewNoopSender(), nil
}
