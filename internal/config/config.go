package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App        AppConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Logger     LoggerConfig
	Auth       AuthConfig
	Accounts   AccountConfig
	Escalation EscalationConfig
	Audit      AuditConfig
	Relay      RelayConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// AccountConfig governs registration, invites, and code lifetimes.
type AccountConfig struct {
	SelfServiceDomains  []string
	InviteExpiryHours   int
	OTPTTLMinutes       int
	ResetCodeTTLMinutes int
	FallbackRole        string
}

// EscalationConfig holds the SLA age thresholds and sweep cadence.
type EscalationConfig struct {
	UrgentSecondaryHours   int
	StandardSecondaryHours int
	AdminHours             int
	SweepIntervalMinutes   int
}

// AuditConfig controls audit log retention.
type AuditConfig struct {
	RetentionDays         int
	HighSensRetentionDays int
	CleanupIntervalHours  int
}

// RelayConfig configures the websocket notification relay.
type RelayConfig struct {
	Addr    string
	Channel string
}

// Load reads configuration from environment variables, applying defaults
// where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "fixitweb"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Accounts: AccountConfig{
			SelfServiceDomains:  getEnvAsList("ACCOUNT_SELF_SERVICE_DOMAINS", []string{"student.pirmaed.com"}),
			InviteExpiryHours:   getEnvAsInt("INVITE_EXPIRY_HOURS", 24),
			OTPTTLMinutes:       getEnvAsInt("ACCOUNT_OTP_TTL_MINUTES", 5),
			ResetCodeTTLMinutes: getEnvAsInt("ACCOUNT_RESET_CODE_TTL_MINUTES", 15),
			FallbackRole:        getEnv("ACCOUNT_FALLBACK_ROLE", "Visitor"),
		},
		Escalation: EscalationConfig{
			UrgentSecondaryHours:   getEnvAsInt("ESCALATION_URGENT_SECONDARY_HOURS", 4),
			StandardSecondaryHours: getEnvAsInt("ESCALATION_STANDARD_SECONDARY_HOURS", 24),
			AdminHours:             getEnvAsInt("ESCALATION_ADMIN_HOURS", 48),
			SweepIntervalMinutes:   getEnvAsInt("ESCALATION_SWEEP_INTERVAL_MINUTES", 60),
		},
		Audit: AuditConfig{
			RetentionDays:         getEnvAsInt("AUDIT_RETENTION_DAYS", 90),
			HighSensRetentionDays: getEnvAsInt("AUDIT_HIGH_SENS_RETENTION_DAYS", 30),
			CleanupIntervalHours:  getEnvAsInt("AUDIT_CLEANUP_INTERVAL_HOURS", 24),
		},
		Relay: RelayConfig{
			Addr:    getEnv("RELAY_ADDR", "0.0.0.0:8081"),
			Channel: getEnv("RELAY_CHANNEL", "fixitweb:events"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// InviteExpiry returns the invite lifetime.
func (a AccountConfig) InviteExpiry() time.Duration {
	return time.Duration(a.InviteExpiryHours) * time.Hour
}

// OTPTTL returns the OTP lifetime.
func (a AccountConfig) OTPTTL() time.Duration {
	return time.Duration(a.OTPTTLMinutes) * time.Minute
}

// ResetCodeTTL returns the password reset code lifetime.
func (a AccountConfig) ResetCodeTTL() time.Duration {
	return time.Duration(a.ResetCodeTTLMinutes) * time.Minute
}

// AllowsDomain reports whether the email domain may self-register.
func (a AccountConfig) AllowsDomain(domain string) bool {
	for _, d := range a.SelfServiceDomains {
		if strings.EqualFold(d, domain) {
			return true
		}
	}
	return false
}

// SweepInterval returns how often the escalation sweep runs.
func (e EscalationConfig) SweepInterval() time.Duration {
	return time.Duration(e.SweepIntervalMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
