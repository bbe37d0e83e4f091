package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"pbm-portal/internal/constants"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Environment struct {
	// Server configs
	IsDocker           bool
	Port               string
	Environment        string
	CORSAllowedOrigins []string
	AuthRequired       bool

	// Auth configs
	JWTSecret                 string
	JWTExpirationMilliseconds int

	// Primary database (users, lookups, authorization history)
	PostgresURL string

	// Analytical database (historical claims)
	SecondaryPostgresURL string
	KontrolaDBHost       string
	KontrolaDBPort       string
	KontrolaDBUser       string
	KontrolaDBPassword   string
	KontrolaDBName       string
	DBConnectTimeout     time.Duration
	DBMaxOpenConns       int
	DBMaxIdleConns       int
	QueryMaxRows         int

	// Redis configs
	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string

	// LLM configs
	DefaultLLMClient          string
	GeminiAPIKey              string
	GeminiModel               string
	GeminiTemperature         float64
	GeminiMaxCompletionTokens int
	OpenAIAPIKey              string
	OpenAIModel               string
	OpenAITemperature         float64
	OpenAIMaxCompletionTokens int
	LLMRetryMax               int
	LLMRetryInitialDelay      time.Duration
}

var Env Environment

// LoadEnv loads environment variables from .env file if present
// and validates everything the API server needs.
func LoadEnv() error {
	loadValues()
	return validateConfig()
}

// LoadOperationalEnv loads the same variables as LoadEnv but only validates
// the database settings, so maintenance commands run without LLM or JWT keys.
func LoadOperationalEnv() error {
	loadValues()
	return validateDatabaseConfig()
}

func loadValues() {
	// Check if running in Docker
	Env.IsDocker = os.Getenv("IS_DOCKER") == "true"

	// Load .env file only if not running in Docker
	if !Env.IsDocker {
		if err := godotenv.Load(); err != nil {
			log.Warn().Err(err).Msg(".env file not found")
		}
	}

	// Server configs
	Env.Port = getEnvWithDefault("PORT", "3001")
	Env.Environment = getEnvWithDefault("ENV", "development")
	Env.CORSAllowedOrigins = splitList(getEnvWithDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173,http://127.0.0.1:5173"))
	Env.AuthRequired = getEnvWithDefault("AUTH_REQUIRED", "false") == "true"

	// Auth configs
	Env.JWTSecret = getRequiredEnv("JWT_SECRET", "")
	Env.JWTExpirationMilliseconds = getIntEnvWithDefault("JWT_EXPIRATION_MILLISECONDS", 1000*60*60*24) // 24h default

	// Database configs
	Env.PostgresURL = getRequiredEnv("POSTGRES_URL", "")
	Env.SecondaryPostgresURL = getEnvWithDefault("SECONDARY_POSTGRES_URL", "")
	Env.KontrolaDBHost = getEnvWithDefault("KONTROLA_DB_HOST", "")
	Env.KontrolaDBPort = getEnvWithDefault("KONTROLA_DB_PORT", "5432")
	Env.KontrolaDBUser = getEnvWithDefault("KONTROLA_DB_USER", "")
	Env.KontrolaDBPassword = getEnvWithDefault("KONTROLA_DB_PASSWORD", "")
	Env.KontrolaDBName = getEnvWithDefault("KONTROLA_DB_NAME", "")
	Env.DBConnectTimeout = getDurationEnvWithDefault("DB_CONNECT_TIMEOUT", 5*time.Second)
	Env.DBMaxOpenConns = getIntEnvWithDefault("DB_MAX_OPEN_CONNS", 10)
	Env.DBMaxIdleConns = getIntEnvWithDefault("DB_MAX_IDLE_CONNS", 5)
	Env.QueryMaxRows = getIntEnvWithDefault("QUERY_MAX_ROWS", 1000)

	// Redis configs
	Env.RedisHost = getEnvWithDefault("REDIS_HOST", "localhost")
	Env.RedisPort = getEnvWithDefault("REDIS_PORT", "6379")
	Env.RedisUsername = getEnvWithDefault("REDIS_USERNAME", "")
	Env.RedisPassword = getEnvWithDefault("REDIS_PASSWORD", "")

	// LLM configs
	Env.DefaultLLMClient = getEnvWithDefault("DEFAULT_LLM_CLIENT", constants.Gemini)
	Env.GeminiAPIKey = getEnvWithDefault("GOOGLE_API_KEY", "")
	Env.GeminiModel = getEnvWithDefault("GEMINI_MODEL", constants.GeminiModel)
	Env.GeminiTemperature = getFloatEnvWithDefault("GEMINI_TEMPERATURE", constants.GeminiTemperature)
	Env.GeminiMaxCompletionTokens = getIntEnvWithDefault("GEMINI_MAX_COMPLETION_TOKENS", constants.GeminiMaxCompletionTokens)
	Env.OpenAIAPIKey = getEnvWithDefault("OPENAI_API_KEY", "")
	Env.OpenAIModel = getEnvWithDefault("OPENAI_MODEL", constants.OpenAIModel)
	Env.OpenAITemperature = getFloatEnvWithDefault("OPENAI_TEMPERATURE", constants.OpenAITemperature)
	Env.OpenAIMaxCompletionTokens = getIntEnvWithDefault("OPENAI_MAX_COMPLETION_TOKENS", constants.OpenAIMaxCompletionTokens)
	Env.LLMRetryMax = getIntEnvWithDefault("LLM_RETRY_MAX", 3)
	Env.LLMRetryInitialDelay = getDurationEnvWithDefault("LLM_RETRY_INITIAL_DELAY", 2*time.Second)
}

// IsProduction reports whether raw store errors must be hidden from API callers.
func (e Environment) IsProduction() bool {
	return e.Environment == "production"
}

// AnalyticalDSN returns the connection string for the historical claims database.
// SECONDARY_POSTGRES_URL wins over the discrete KONTROLA_DB_* variables.
func (e Environment) AnalyticalDSN() string {
	if e.SecondaryPostgresURL != "" {
		return e.SecondaryPostgresURL
	}
	if e.KontrolaDBHost == "" {
		return ""
	}
	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(e.KontrolaDBUser, e.KontrolaDBPassword),
		Host:     net.JoinHostPort(e.KontrolaDBHost, e.KontrolaDBPort),
		Path:     "/" + e.KontrolaDBName,
		RawQuery: "sslmode=require",
	}
	return dsn.String()
}

// Helper functions to get environment variables with defaults and validation
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getRequiredEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnvWithDefault(key string, defaultValue int) int {
	strValue := os.Getenv(key)
	if strValue == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(strValue)
	if err != nil {
		log.Warn().Str("key", key).Int("default", defaultValue).Msg("invalid integer value, using default")
		return defaultValue
	}
	return value
}

func getFloatEnvWithDefault(key string, defaultValue float64) float64 {
	strValue := os.Getenv(key)
	if strValue == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(strValue, 64)
	if err != nil {
		log.Warn().Str("key", key).Float64("default", defaultValue).Msg("invalid float value, using default")
		return defaultValue
	}
	return value
}

func getDurationEnvWithDefault(key string, defaultValue time.Duration) time.Duration {
	strValue := os.Getenv(key)
	if strValue == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(strValue)
	if err != nil {
		log.Warn().Str("key", key).Dur("default", defaultValue).Msg("invalid duration value, using default")
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func validateDatabaseConfig() error {
	if !isValidURI(Env.PostgresURL) {
		return fmt.Errorf("invalid POSTGRES_URL format: %q", Env.PostgresURL)
	}

	if Env.AnalyticalDSN() == "" {
		return fmt.Errorf("either SECONDARY_POSTGRES_URL or KONTROLA_DB_HOST must be set")
	}

	if Env.QueryMaxRows <= 0 {
		return fmt.Errorf("QUERY_MAX_ROWS must be positive, got: %d", Env.QueryMaxRows)
	}
	return nil
}

func validateConfig() error {
	if Env.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if err := validateDatabaseConfig(); err != nil {
		return err
	}

	// Validate JWT expiration
	if Env.JWTExpirationMilliseconds <= 0 {
		return fmt.Errorf("JWT_EXPIRATION_MILLISECONDS must be positive, got: %d", Env.JWTExpirationMilliseconds)
	}

	if Env.LLMRetryMax < 0 {
		return fmt.Errorf("LLM_RETRY_MAX must not be negative, got: %d", Env.LLMRetryMax)
	}

	switch Env.DefaultLLMClient {
	case constants.Gemini:
		if Env.GeminiAPIKey == "" {
			return fmt.Errorf("GOOGLE_API_KEY is required when DEFAULT_LLM_CLIENT=gemini")
		}
	case constants.OpenAI:
		if Env.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when DEFAULT_LLM_CLIENT=openai")
		}
	default:
		return fmt.Errorf("unsupported DEFAULT_LLM_CLIENT: %s", Env.DefaultLLMClient)
	}

	return nil
}

func isValidURI(uri string) bool {
	return len(uri) > 10
}
