package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode    string
	Port       string
	Database   DatabaseConfig
	JWT        JWTConfig
	Cookie     CookieConfig
	Admin      AdminConfig
	USSD       USSDConfig
	Settlement SettlementConfig
	Reports    ReportsConfig
	Mail       MailConfig
	Storage    StorageConfig
	Sentry     SentryConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver     string // mysql | sqlite
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SQLitePath string
}

// JWTConfig holds JWT configuration for the admin session cookie
type JWTConfig struct {
	Secret          string
	AccessTokenMins int
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// AdminConfig holds the seeded dashboard account
type AdminConfig struct {
	Username string
	Password string
}

// USSDConfig holds USSD channel configuration
type USSDConfig struct {
	Separator   string
	ServiceName string
	Currency    string
	SessionTTL  time.Duration
}

// SettlementConfig holds the debt collection job configuration
type SettlementConfig struct {
	Schedule             string // cron spec, e.g. "@every 1m"
	HousekeepingSchedule string
	PoolMode             string // snapshot | recompute
	ZeroPoolPolicy       string // mark_paid | leave_unpaid
}

// ReportsConfig holds export configuration
type ReportsConfig struct {
	Enabled bool
	Dir     string
}

// MailConfig holds report email configuration (Mailtrap send API)
type MailConfig struct {
	APIURL string
	APIKey string
	From   string
	To     []string
}

// StorageConfig holds MinIO configuration for report uploads
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// SentryConfig holds error tracking configuration
type SentryConfig struct {
	DSN         string
	Environment string
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	settlement := loadSettlementConfig()
	if settlement.PoolMode != "snapshot" && settlement.PoolMode != "recompute" {
		return nil, fmt.Errorf("invalid SETTLEMENT_POOL_MODE: '%s' (must be 'snapshot' or 'recompute')", settlement.PoolMode)
	}
	if settlement.ZeroPoolPolicy != "mark_paid" && settlement.ZeroPoolPolicy != "leave_unpaid" {
		return nil, fmt.Errorf("invalid SETTLEMENT_ZERO_POOL_POLICY: '%s' (must be 'mark_paid' or 'leave_unpaid')", settlement.ZeroPoolPolicy)
	}

	database := loadDatabaseConfig(appMode)
	if database.Driver != "mysql" && database.Driver != "sqlite" {
		return nil, fmt.Errorf("invalid DB_DRIVER: '%s' (must be 'mysql' or 'sqlite')", database.Driver)
	}

	config := &Config{
		AppMode:    appMode,
		Port:       getEnv("PORT", "3000"),
		Database:   database,
		JWT:        loadJWTConfig(appMode),
		Cookie:     loadCookieConfig(appMode),
		Admin:      loadAdminConfig(),
		USSD:       loadUSSDConfig(),
		Settlement: settlement,
		Reports:    loadReportsConfig(),
		Mail:       loadMailConfig(),
		Storage:    loadStorageConfig(),
		Sentry: SentryConfig{
			DSN:         getEnv("SENTRY_DSN", ""),
			Environment: getEnv("SENTRY_ENVIRONMENT", appMode),
		},
	}

	// Set global config
	AppConfig = config

	log.Printf("✅ Configuration loaded successfully [MODE: %s]", appMode)
	return config, nil
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := modePrefix(mode)

	return DatabaseConfig{
		Driver:     strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		Host:       getEnv(prefix+"DB_HOST", "localhost"),
		Port:       getEnv(prefix+"DB_PORT", "3306"),
		User:       getEnv(prefix+"DB_USER", "root"),
		Password:   getEnv(prefix+"DB_PASS", ""),
		DBName:     getEnv(prefix+"DB_NAME", "momo_loanhub"),
		SQLitePath: getEnv("SQLITE_PATH", "users.db"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := modePrefix(mode)

	return JWTConfig{
		Secret:          getEnv(prefix+"JWT_SECRET", "default_secret"),
		AccessTokenMins: getEnvInt("ACCESS_TOKEN_MINUTES", 60),
	}
}

// loadCookieConfig loads cookie config based on mode
func loadCookieConfig(mode string) CookieConfig {
	prefix := modePrefix(mode)

	secure, _ := strconv.ParseBool(getEnv(prefix+"COOKIE_SECURE", "false"))

	return CookieConfig{
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

func loadAdminConfig() AdminConfig {
	return AdminConfig{
		Username: getEnv("ADMIN_USERNAME", "admin"),
		Password: getEnv("ADMIN_PASSWORD", "admin123"),
	}
}

func loadUSSDConfig() USSDConfig {
	return USSDConfig{
		Separator:   getEnv("USSD_SEPARATOR", "*"),
		ServiceName: getEnv("USSD_SERVICE_NAME", "USSD Loan Service"),
		Currency:    getEnv("USSD_CURRENCY", "RWF"),
		SessionTTL:  getEnvDuration("USSD_SESSION_TTL", 30*time.Minute),
	}
}

func loadSettlementConfig() SettlementConfig {
	return SettlementConfig{
		Schedule:             getEnv("SETTLEMENT_SCHEDULE", "@every 1m"),
		HousekeepingSchedule: getEnv("HOUSEKEEPING_SCHEDULE", "@every 10m"),
		PoolMode:             strings.ToLower(getEnv("SETTLEMENT_POOL_MODE", "snapshot")),
		ZeroPoolPolicy:       strings.ToLower(getEnv("SETTLEMENT_ZERO_POOL_POLICY", "mark_paid")),
	}
}

func loadReportsConfig() ReportsConfig {
	enabled, _ := strconv.ParseBool(getEnv("REPORTS_ENABLED", "true"))
	return ReportsConfig{
		Enabled: enabled,
		Dir:     getEnv("REPORT_DIR", "reports"),
	}
}

func loadMailConfig() MailConfig {
	var to []string
	for _, addr := range strings.Split(getEnv("REPORT_EMAIL_TO", ""), ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}

	return MailConfig{
		APIURL: getEnv("MAILTRAP_API_URL", ""),
		APIKey: getEnv("MAILTRAP_API_KEY", ""),
		From:   getEnv("REPORT_EMAIL_FROM", ""),
		To:     to,
	}
}

func loadStorageConfig() StorageConfig {
	useSSL, _ := strconv.ParseBool(getEnv("MINIO_USE_SSL", "false"))
	return StorageConfig{
		Endpoint:  getEnv("MINIO_ENDPOINT", ""),
		AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		SecretKey: getEnv("MINIO_SECRET_KEY", ""),
		Bucket:    getEnv("MINIO_BUCKET", "loan-reports"),
		UseSSL:    useSSL,
	}
}

func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "http://localhost:" + c.Port
	}
	return origins
}
