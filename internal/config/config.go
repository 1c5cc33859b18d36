package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	PostgreSQL PostgreSQLConfig
	Server     ServerConfig
	Search     SearchConfig
	Logging    LoggingConfig
	Extractor  ExtractorConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	Maps       MapsConfig
	Redis      RedisConfig
	Admin      AdminConfig
	Vocabulary VocabularyConfig

	// Warnings collects values that could not be parsed and fell back to
	// defaults. They are logged once the logger exists.
	Warnings []string
}

// PostgreSQLConfig holds PostgreSQL database configuration
type PostgreSQLConfig struct {
	DSN                string // full connection string, preferred when set
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
	AdminSearchProc    string
	GuestSearchProc    string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

// SearchConfig holds search-related configuration
type SearchConfig struct {
	DefaultLimit      int
	MaxLimit          int
	DefaultRadiusKm   float64
	ParallelThreshold int // max lookups served by the unbounded strategy
	ProximityWorkers  int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json | console
}

// ExtractorConfig selects and bounds the constraint extraction backend.
type ExtractorConfig struct {
	Provider              string // openai | gemini
	MaxTokens             int
	Temperature           float64
	BudgetUSD             float64 // 0 disables the ceiling
	PromptPricePerMillion float64
	OutputPricePerMillion float64
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	APIKey    string
	APIBase   string
	ChatModel string
	Timeout   int // seconds
}

// GeminiConfig holds Google Gemini configuration
type GeminiConfig struct {
	APIKey string
	Model  string
}

// MapsConfig holds Google Maps configuration
type MapsConfig struct {
	APIKey  string
	BaseURL string // override for tests and proxies
	Region  string
	QPS     int
}

// RedisConfig holds the geocode cache configuration
type RedisConfig struct {
	Addrs    []string
	Password string
	GeoTTL   time.Duration
}

// AdminConfig holds API keys accepted on admin routes
type AdminConfig struct {
	APIKeys []string
}

// VocabularyConfig points at an optional vocabulary override file
type VocabularyConfig struct {
	Path string
}

// Provider names accepted by EXTRACTOR_PROVIDER.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	var w warnings
	cfg := &Config{
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("POSTGRESQL_URI", getEnv("PG_DSN", ""))),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               w.getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "property_search"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     w.getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: w.getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
			AdminSearchProc:    getEnv("PG_ADMIN_SEARCH_PROC", "search_properties_admin"),
			GuestSearchProc:    getEnv("PG_GUEST_SEARCH_PROC", "search_properties_guest"),
		},
		Server: ServerConfig{
			Port:           w.getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET,POST,OPTIONS"),
			AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type,Authorization"),
		},
		Search: SearchConfig{
			DefaultLimit:      w.getEnvAsInt("SEARCH_DEFAULT_LIMIT", 20),
			MaxLimit:          w.getEnvAsInt("SEARCH_MAX_LIMIT", 100),
			DefaultRadiusKm:   w.getEnvAsFloat("SEARCH_DEFAULT_RADIUS_KM", 5),
			ParallelThreshold: w.getEnvAsInt("SEARCH_PARALLEL_THRESHOLD", 20),
			ProximityWorkers:  w.getEnvAsInt("SEARCH_PROXIMITY_WORKERS", 5),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Extractor: ExtractorConfig{
			Provider:              strings.ToLower(getEnv("EXTRACTOR_PROVIDER", ProviderOpenAI)),
			MaxTokens:             w.getEnvAsInt("EXTRACTOR_MAX_TOKENS", 512),
			Temperature:           w.getEnvAsFloat("EXTRACTOR_TEMPERATURE", 0.1),
			BudgetUSD:             w.getEnvAsFloat("EXTRACTOR_BUDGET_USD", 5),
			PromptPricePerMillion: w.getEnvAsFloat("EXTRACTOR_PROMPT_PRICE_PER_MILLION", 0.15),
			OutputPricePerMillion: w.getEnvAsFloat("EXTRACTOR_OUTPUT_PRICE_PER_MILLION", 0.6),
		},
		OpenAI: OpenAIConfig{
			APIKey:    getEnv("OPENAI_API_KEY", ""),
			APIBase:   getEnv("OPENAI_API_BASE", "https://api.openai.com/v1"),
			ChatModel: getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			Timeout:   w.getEnvAsInt("OPENAI_TIMEOUT", 30),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		},
		Maps: MapsConfig{
			APIKey:  getEnv("GOOGLE_MAPS_API_KEY", ""),
			BaseURL: getEnv("GOOGLE_MAPS_BASE_URL", ""),
			Region:  getEnv("GOOGLE_MAPS_REGION", "pk"),
			QPS:     w.getEnvAsInt("GOOGLE_MAPS_QPS", 50),
		},
		Redis: RedisConfig{
			Addrs:    splitList(getEnv("REDIS_ADDRS", "")),
			Password: getEnv("REDIS_PASSWORD", ""),
			GeoTTL:   time.Duration(w.getEnvAsInt("REDIS_GEOCODE_TTL_HOURS", 24*7)) * time.Hour,
		},
		Admin: AdminConfig{
			APIKeys: splitList(getEnv("ADMIN_API_KEYS", "")),
		},
		Vocabulary: VocabularyConfig{
			Path: getEnv("VOCABULARY_PATH", ""),
		},
	}
	cfg.Warnings = w

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Extractor.Provider {
	case ProviderOpenAI, ProviderGemini:
	default:
		errs = append(errs, fmt.Errorf("unknown extractor provider %q", c.Extractor.Provider))
	}
	if c.Search.DefaultLimit < 1 || c.Search.MaxLimit < 1 {
		errs = append(errs, errors.New("search limits must be positive"))
	}
	if c.Search.DefaultLimit > c.Search.MaxLimit {
		errs = append(errs, errors.New("default search limit exceeds max limit"))
	}
	if c.Search.ProximityWorkers < 1 {
		errs = append(errs, errors.New("proximity workers must be at least 1"))
	}
	if c.Search.DefaultRadiusKm <= 0 {
		errs = append(errs, errors.New("default radius must be positive"))
	}
	if c.Extractor.BudgetUSD < 0 {
		errs = append(errs, errors.New("extractor budget must not be negative"))
	}
	return errors.Join(errs...)
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

type warnings []string

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func (w *warnings) getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		*w = append(*w, fmt.Sprintf("invalid integer value for %s, using default %d", key, defaultValue))
		return defaultValue
	}
	return value
}

func (w *warnings) getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		*w = append(*w, fmt.Sprintf("invalid float value for %s, using default %g", key, defaultValue))
		return defaultValue
	}
	return value
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
