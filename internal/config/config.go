package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"travelbill/internal/billing"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	JWT     JWTConfig
	S3      S3Config
	Log     LogConfig
	CORS    CORSConfig
	Email   EmailConfig
	Billing BillingConfig
	Export  ExportConfig
	Issuer  IssuerConfig
}

// IssuerConfig identifies the agency printed on rendered documents.
type IssuerConfig struct {
	Name    string `mapstructure:"name"`
	GSTIN   string `mapstructure:"gstin"`
	Address string `mapstructure:"address"`
	Email   string `mapstructure:"email"`
	Phone   string `mapstructure:"phone"`
}

// EmailConfig holds email delivery settings.
type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	Region      string `mapstructure:"region"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds access token verification settings. Tokens are issued by
// the identity service; this service only verifies them.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// S3Config holds AWS S3 settings for rendered documents.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// BillingConfig holds invoice numbering and reconciliation policy.
type BillingConfig struct {
	ReconcileTolerance string   `mapstructure:"reconcile_tolerance"`
	ProformaPrefixes   []string `mapstructure:"proforma_prefixes"`
	InvoicePrefix      string   `mapstructure:"invoice_prefix"`
	ProformaPrefix     string   `mapstructure:"proforma_prefix"`
	Currency           string   `mapstructure:"currency"`
}

// Policy builds the engine policy. An unparsable tolerance falls back to the
// engine default.
func (b *BillingConfig) Policy() billing.Policy {
	policy := billing.DefaultPolicy()
	if tol, err := decimal.NewFromString(strings.TrimSpace(b.ReconcileTolerance)); err == nil && !tol.IsNegative() {
		policy.ReconcileTolerance = tol
	}
	if len(b.ProformaPrefixes) > 0 {
		policy.ProformaPrefixes = b.ProformaPrefixes
	}
	return policy
}

// ExportConfig holds tabular export settings.
type ExportConfig struct {
	BatchSize int `mapstructure:"batch_size"`
	MaxRows   int `mapstructure:"max_rows"`
}

// Load reads configuration from environment variables with the TRAVELBILL_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TRAVELBILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "travelbill")
	v.SetDefault("db.password", "travelbill_secret")
	v.SetDefault("db.name", "travelbill_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.issuer", "travelbill")

	// S3 defaults
	v.SetDefault("s3.region", "ap-south-1")
	v.SetDefault("s3.bucket", "travelbill-documents")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "ap-south-1")
	v.SetDefault("email.from_address", "billing@travelbill.in")
	v.SetDefault("email.from_name", "Travel Billing")

	// Billing defaults
	v.SetDefault("billing.reconcile_tolerance", "0.5")
	v.SetDefault("billing.proforma_prefixes", "QT-,QTN-,PI-,PFI-,PF-")
	v.SetDefault("billing.invoice_prefix", "INV")
	v.SetDefault("billing.proforma_prefix", "PI")
	v.SetDefault("billing.currency", "INR")

	// Export defaults
	v.SetDefault("export.batch_size", 200)
	v.SetDefault("export.max_rows", 50000)

	// Issuer defaults
	v.SetDefault("issuer.name", "Travel Billing")
	v.SetDefault("issuer.gstin", "")
	v.SetDefault("issuer.address", "")
	v.SetDefault("issuer.email", "billing@travelbill.in")
	v.SetDefault("issuer.phone", "")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                 "TRAVELBILL_SERVER_PORT",
		"server.read_timeout":         "TRAVELBILL_SERVER_READ_TIMEOUT",
		"server.write_timeout":        "TRAVELBILL_SERVER_WRITE_TIMEOUT",
		"server.environment":          "TRAVELBILL_SERVER_ENVIRONMENT",
		"db.host":                     "TRAVELBILL_DB_HOST",
		"db.port":                     "TRAVELBILL_DB_PORT",
		"db.user":                     "TRAVELBILL_DB_USER",
		"db.password":                 "TRAVELBILL_DB_PASSWORD",
		"db.name":                     "TRAVELBILL_DB_NAME",
		"db.sslmode":                  "TRAVELBILL_DB_SSLMODE",
		"db.max_open":                 "TRAVELBILL_DB_MAX_OPEN",
		"db.max_idle":                 "TRAVELBILL_DB_MAX_IDLE",
		"jwt.secret":                  "TRAVELBILL_JWT_SECRET",
		"jwt.issuer":                  "TRAVELBILL_JWT_ISSUER",
		"s3.region":                   "TRAVELBILL_S3_REGION",
		"s3.bucket":                   "TRAVELBILL_S3_BUCKET",
		"s3.endpoint":                 "TRAVELBILL_S3_ENDPOINT",
		"s3.access_key":               "TRAVELBILL_S3_ACCESS_KEY",
		"s3.secret_key":               "TRAVELBILL_S3_SECRET_KEY",
		"s3.presign_expiry":           "TRAVELBILL_S3_PRESIGN_EXPIRY",
		"log.level":                   "TRAVELBILL_LOG_LEVEL",
		"log.format":                  "TRAVELBILL_LOG_FORMAT",
		"cors.allowed_origins":        "TRAVELBILL_CORS_ALLOWED_ORIGINS",
		"email.provider":              "TRAVELBILL_EMAIL_PROVIDER",
		"email.region":                "TRAVELBILL_EMAIL_REGION",
		"email.from_address":          "TRAVELBILL_EMAIL_FROM_ADDRESS",
		"email.from_name":             "TRAVELBILL_EMAIL_FROM_NAME",
		"billing.reconcile_tolerance": "TRAVELBILL_BILLING_RECONCILE_TOLERANCE",
		"billing.proforma_prefixes":   "TRAVELBILL_BILLING_PROFORMA_PREFIXES",
		"billing.invoice_prefix":      "TRAVELBILL_BILLING_INVOICE_PREFIX",
		"billing.proforma_prefix":     "TRAVELBILL_BILLING_PROFORMA_PREFIX",
		"billing.currency":            "TRAVELBILL_BILLING_CURRENCY",
		"export.batch_size":           "TRAVELBILL_EXPORT_BATCH_SIZE",
		"export.max_rows":             "TRAVELBILL_EXPORT_MAX_ROWS",
		"issuer.name":                 "TRAVELBILL_ISSUER_NAME",
		"issuer.gstin":                "TRAVELBILL_ISSUER_GSTIN",
		"issuer.address":              "TRAVELBILL_ISSUER_ADDRESS",
		"issuer.email":                "TRAVELBILL_ISSUER_EMAIL",
		"issuer.phone":                "TRAVELBILL_ISSUER_PHONE",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if TRAVELBILL_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("TRAVELBILL_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.JWT = JWTConfig{
		Secret: v.GetString("jwt.secret"),
		Issuer: v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}
	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
	}
	cfg.Billing = BillingConfig{
		ReconcileTolerance: v.GetString("billing.reconcile_tolerance"),
		ProformaPrefixes:   splitList(v.GetString("billing.proforma_prefixes")),
		InvoicePrefix:      v.GetString("billing.invoice_prefix"),
		ProformaPrefix:     v.GetString("billing.proforma_prefix"),
		Currency:           v.GetString("billing.currency"),
	}
	cfg.Export = ExportConfig{
		BatchSize: v.GetInt("export.batch_size"),
		MaxRows:   v.GetInt("export.max_rows"),
	}
	cfg.Issuer = IssuerConfig{
		Name:    v.GetString("issuer.name"),
		GSTIN:   v.GetString("issuer.gstin"),
		Address: v.GetString("issuer.address"),
		Email:   v.GetString("issuer.email"),
		Phone:   v.GetString("issuer.phone"),
	}

	if _, err := decimal.NewFromString(cfg.Billing.ReconcileTolerance); err != nil {
		return nil, fmt.Errorf("config: invalid billing.reconcile_tolerance %q: %w", cfg.Billing.ReconcileTolerance, err)
	}
	if cfg.Export.BatchSize <= 0 {
		return nil, fmt.Errorf("config: export.batch_size must be positive, got %d", cfg.Export.BatchSize)
	}

	return cfg, nil
}

// splitList parses a comma-separated string, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
