package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"drivedocs/internal/apperror"
)

// DriveFileScope limits access to files created or opened by this app.
const DriveFileScope = "https://www.googleapis.com/auth/drive.file"

// DatabaseConfig holds PostgreSQL settings for the optional document registry.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
	AutoMigrate        bool
}

// Enabled reports whether a registry database was configured.
func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// GoogleConfig holds the OAuth client identity and the token store location.
type GoogleConfig struct {
	ClientSecretPath string
	TokenPath        string
	Scopes           []string
}

// GatewayConfig tunes calls against the Drive API.
type GatewayConfig struct {
	// Endpoint overrides the Drive API base URL (emulators, tests). Empty means Google's default.
	Endpoint       string
	ChunkSize      int
	MaxExportBytes int64
	CallTimeout    time.Duration
	MaxRetries     int
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost  string
	Port     string
	APIURL   string
	LogLevel string
	Timezone string
	Google   GoogleConfig
	Gateway  GatewayConfig
	Database DatabaseConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:  getEnv("APP_HOST", "localhost:8080"),
		Port:     getEnv("PORT", "8080"),
		APIURL:   getEnv("API_URL", "http://localhost:8080/download_document/"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Timezone: getEnv("APP_TIMEZONE", "UTC"),
		Google: GoogleConfig{
			ClientSecretPath: getEnv("GOOGLE_CLIENT_SECRET_PATH", "credentials.json"),
			TokenPath:        getEnv("GOOGLE_TOKEN_PATH", "token.json"),
			Scopes:           getEnvList("GOOGLE_SCOPES", []string{DriveFileScope}),
		},
		Gateway: GatewayConfig{
			Endpoint:       getEnv("GATEWAY_ENDPOINT", ""),
			ChunkSize:      getEnvInt("GATEWAY_CHUNK_SIZE", 1<<20),
			MaxExportBytes: int64(getEnvInt("GATEWAY_MAX_EXPORT_BYTES", 10<<20)),
			CallTimeout:    getEnvDuration("GATEWAY_CALL_TIMEOUT", 30*time.Second),
			MaxRetries:     getEnvInt("GATEWAY_MAX_RETRIES", 3),
		},
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
			AutoMigrate:        getEnvBool("DB_AUTO_MIGRATE", true),
		},
	}
}

// Validate checks the settings the core cannot run without. Failures are
// reported as apperror.ErrConfig.
func (c *AppConfig) Validate() error {
	err := validation.Errors{
		"google": validation.ValidateStruct(&c.Google,
			validation.Field(&c.Google.ClientSecretPath, validation.Required),
			validation.Field(&c.Google.TokenPath, validation.Required),
			validation.Field(&c.Google.Scopes, validation.Required),
		),
		"gateway": validation.ValidateStruct(&c.Gateway,
			validation.Field(&c.Gateway.ChunkSize, validation.Required, validation.Min(1)),
			validation.Field(&c.Gateway.MaxExportBytes, validation.Required, validation.Min(int64(1))),
			validation.Field(&c.Gateway.CallTimeout, validation.Required),
			validation.Field(&c.Gateway.MaxRetries, validation.Min(0)),
		),
		"port": validation.Validate(c.Port, validation.Required),
	}.Filter()
	if err != nil {
		return apperror.New("config", apperror.ErrConfig, err)
	}
	return nil
}

// Location resolves Timezone, falling back to UTC.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

// getEnvList splits a comma or space separated value.
func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	fields := strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' })
	if len(fields) == 0 {
		return def
	}
	return fields
}
