package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Backend API
	APIBaseURL  string
	APIBasePath string
	Endpoints   Endpoints

	// HTTP client
	HTTPTimeout time.Duration

	// Resilience
	MaxConcurrency int

	// Query cache
	CacheTTL time.Duration

	// Observability
	OTLPEndpoint string

	// Session persistence
	SessionBackend  string // file | redis | memory
	SessionFile     string
	SessionKey      string // optional passphrase for at-rest encryption of SessionFile
	RedisURL        string
	SessionRedisKey string

	// Front-end
	CORSOrigins []string

	// Onboarding
	TINAutoAdvance bool
}

// Endpoints lists the backend paths consumed by the console. Every entry can
// be overridden with ENDPOINT_<NAME>. Paths containing %s take one argument.
type Endpoints struct {
	Login             string
	Register          string
	EmailVerification string
	Logout            string
	PasswordReset     string
	PasswordResetDone string

	TINVerification string
	BusinessProfile string
	APIKeys         string // %s = business id

	Invoices       string
	Invoice        string // %s = invoice id
	DashboardStats string

	ERPAdapters string
	ERPPush     string // %s = system
	ERPPull     string // %s = system
	ERPSync     string // %s = system

	EInvoiceActions  string
	EInvoiceValidate string
	EInvoiceReport   string
	EInvoiceSign     string
	TaxpayerLogins   string
	TaxpayerAuth     string
	EInvoiceDownload string // %s = irn
}

// DefaultEndpoints returns the pinned backend contract.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Login:             "/open/api/user/login",
		Register:          "/open/api/user",
		EmailVerification: "/open/api/email-verifications",
		Logout:            "/api/v1/user/logout",
		PasswordReset:     "/open/api/user/password-reset",
		PasswordResetDone: "/open/api/user/password-reset/confirm",

		TINVerification: "/api/v1/tin-verifications",
		BusinessProfile: "/api/v1/business-profile",
		APIKeys:         "/api/v1/business-profile/%s/api-keys",

		Invoices:       "/api/invoices",
		Invoice:        "/api/invoices/%s",
		DashboardStats: "/api/invoices/dashboard",

		ERPAdapters: "/api/erp",
		ERPPush:     "/api/erp/%s/push",
		ERPPull:     "/api/erp/%s/pull",
		ERPSync:     "/api/erp/%s/sync",

		EInvoiceActions:  "/api/einvoice/actions",
		EInvoiceValidate: "/api/einvoice/validate",
		EInvoiceReport:   "/api/einvoice/report",
		EInvoiceSign:     "/api/einvoice/sign",
		TaxpayerLogins:   "/api/einvoice/taxpayer-logins",
		TaxpayerAuth:     "/api/einvoice/taxpayer-auth",
		EInvoiceDownload: "/api/einvoice/download/%s",
	}
}

// Load reads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		APIBaseURL:  getEnv("API_BASE_URL", "http://localhost:8081"),
		APIBasePath: getEnv("API_BASE_PATH", ""),
		Endpoints:   loadEndpoints(),

		HTTPTimeout: getEnvDuration("HTTP_TIMEOUT", 10*time.Second),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 16),

		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		SessionBackend:  getEnv("SESSION_BACKEND", "file"),
		SessionFile:     getEnv("SESSION_FILE", defaultSessionFile()),
		SessionKey:      getEnv("SESSION_KEY", ""),
		RedisURL:        getEnv("REDIS_URL", "redis://localhost:6379/0"),
		SessionRedisKey: getEnv("SESSION_REDIS_KEY", "uplug-auth"),

		CORSOrigins: getEnvList("CORS_ORIGINS", []string{"http://localhost:5173"}),

		TINAutoAdvance: getEnv("TIN_AUTO_ADVANCE", "true") == "true",
	}
}

func loadEndpoints() Endpoints {
	e := DefaultEndpoints()
	overrides := map[string]*string{
		"LOGIN":               &e.Login,
		"REGISTER":            &e.Register,
		"EMAIL_VERIFICATION":  &e.EmailVerification,
		"LOGOUT":              &e.Logout,
		"PASSWORD_RESET":      &e.PasswordReset,
		"PASSWORD_RESET_DONE": &e.PasswordResetDone,
		"TIN_VERIFICATION":    &e.TINVerification,
		"BUSINESS_PROFILE":    &e.BusinessProfile,
		"API_KEYS":            &e.APIKeys,
		"INVOICES":            &e.Invoices,
		"INVOICE":             &e.Invoice,
		"DASHBOARD_STATS":     &e.DashboardStats,
		"ERP_ADAPTERS":        &e.ERPAdapters,
		"ERP_PUSH":            &e.ERPPush,
		"ERP_PULL":            &e.ERPPull,
		"ERP_SYNC":            &e.ERPSync,
		"EINVOICE_ACTIONS":    &e.EInvoiceActions,
		"EINVOICE_VALIDATE":   &e.EInvoiceValidate,
		"EINVOICE_REPORT":     &e.EInvoiceReport,
		"EINVOICE_SIGN":       &e.EInvoiceSign,
		"TAXPAYER_LOGINS":     &e.TaxpayerLogins,
		"TAXPAYER_AUTH":       &e.TaxpayerAuth,
		"EINVOICE_DOWNLOAD":   &e.EInvoiceDownload,
	}
	for name, field := range overrides {
		*field = getEnv("ENDPOINT_"+name, *field)
	}
	return e
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".uplug-session.json"
	}
	return dir + string(os.PathSeparator) + "uplug" + string(os.PathSeparator) + "session.json"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
