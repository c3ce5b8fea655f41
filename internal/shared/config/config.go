package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"medreport-backend/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	CORSAllowOrigin []string

	DatabaseURL   string
	ReportStore   string
	SQLitePath    string
	MongoURI      string
	MongoDatabase string

	LLMProvider     string
	LLMModel        string
	LLMBaseURL      string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	LLMTimeoutSecs  int

	TesseractPath  string
	OCRLanguage    string
	OCRPageSegMode int
	OCRMaxWorkers  int

	AllowGuests          bool
	AnalyzeRatePerMinute int
	JWTSecret            string
	JWTTTL               time.Duration
	GoogleClientID       string
	GoogleClientSecret   string
	GoogleRedirectURL    string
	UIRedirectURL        string
}

// Load reads configuration from the environment, with optional dotenv files
// for local development.
func Load() Config {
	v := viper.New()
	setDefaults(v)
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(v, ".env", "cmd/.env")
	v.AutomaticEnv()

	env := normalizeEnv(v.GetString("ENV"))
	dbURL := strings.TrimSpace(v.GetString("DATABASE_URL"))

	if env == "production" && dbURL == "" && normalizeStore(v.GetString("REPORT_STORE"), dbURL) == "postgres" {
		telemetry.Warn("config.database_url_missing", map[string]any{"env": env})
	}

	return Config{
		Port:            v.GetString("PORT"),
		Env:             env,
		CORSAllowOrigin: splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),

		DatabaseURL:   dbURL,
		ReportStore:   normalizeStore(v.GetString("REPORT_STORE"), dbURL),
		SQLitePath:    v.GetString("SQLITE_PATH"),
		MongoURI:      v.GetString("MONGO_URI"),
		MongoDatabase: v.GetString("MONGO_DATABASE"),

		LLMProvider:     normalizeProvider(v.GetString("LLM_PROVIDER")),
		LLMModel:        strings.TrimSpace(v.GetString("LLM_MODEL")),
		LLMBaseURL:      strings.TrimSpace(v.GetString("LLM_BASE_URL")),
		OpenAIAPIKey:    strings.TrimSpace(v.GetString("OPENAI_API_KEY")),
		AnthropicAPIKey: strings.TrimSpace(v.GetString("ANTHROPIC_API_KEY")),
		LLMTimeoutSecs:  v.GetInt("OPENAI_TIMEOUT_SECONDS"),

		TesseractPath:  v.GetString("OCR_TESSERACT_PATH"),
		OCRLanguage:    v.GetString("OCR_LANGUAGE"),
		OCRPageSegMode: v.GetInt("OCR_PSM"),
		OCRMaxWorkers:  v.GetInt("OCR_MAX_WORKERS"),

		AllowGuests:          v.GetBool("ALLOW_GUESTS"),
		AnalyzeRatePerMinute: v.GetInt("RATE_LIMIT_ANALYZE_PER_MIN"),
		JWTSecret:            strings.TrimSpace(v.GetString("JWT_SECRET")),
		JWTTTL:               time.Duration(v.GetInt("JWT_TTL_HOURS")) * time.Hour,
		GoogleClientID:       v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret:   v.GetString("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:    v.GetString("GOOGLE_REDIRECT_URL"),
		UIRedirectURL:        v.GetString("UI_REDIRECT_URL"),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "dev")
	v.SetDefault("CORS_ALLOW_ORIGINS", "http://localhost:5173")
	v.SetDefault("SQLITE_PATH", "./data/reports.db")
	v.SetDefault("MONGO_DATABASE", "medreport")
	v.SetDefault("LLM_PROVIDER", "openai")
	v.SetDefault("LLM_MODEL", "gpt-4o-mini")
	v.SetDefault("OPENAI_TIMEOUT_SECONDS", 120)
	v.SetDefault("OCR_TESSERACT_PATH", "tesseract")
	v.SetDefault("OCR_LANGUAGE", "eng")
	v.SetDefault("OCR_PSM", 0)
	v.SetDefault("OCR_MAX_WORKERS", 2)
	v.SetDefault("ALLOW_GUESTS", false)
	v.SetDefault("RATE_LIMIT_ANALYZE_PER_MIN", 10)
	v.SetDefault("JWT_TTL_HOURS", 24)
}

// loadEnvFiles merges KEY=VALUE files into v if they exist; errors are ignored.
func loadEnvFiles(v *viper.Viper, paths ...string) {
	for _, path := range paths {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		_ = v.MergeInConfig()
	}
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

// normalizeStore picks the report store; postgres is implied by DATABASE_URL.
func normalizeStore(raw, dbURL string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "pg":
		return "postgres"
	case "sqlite":
		return "sqlite"
	case "mongo", "mongodb":
		return "mongo"
	case "memory":
		return "memory"
	}
	if dbURL != "" {
		return "postgres"
	}
	return "memory"
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "ollama":
		return "ollama"
	case "anthropic", "claude":
		return "anthropic"
	case "none", "placeholder":
		return "none"
	default:
		return "openai"
	}
}

// IsProduction reports whether secrets and durable stores are mandatory.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// IsDevLike reports whether the environment tolerates in-memory fallbacks.
func (c Config) IsDevLike() bool {
	return c.Env == "dev" || c.Env == "local"
}
