package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port               string
	CORSAllowOrigin    []string
	ObjectStoreType    string
	LocalStoreDir      string
	AWSRegion          string
	S3Bucket           string
	S3Prefix           string
	SSEKMSKeyID        string
	DatabaseURL        string
	Env                string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	UIRedirectURL      string
	ShareBaseURL       string
	ExtractorProvider  string
	LandingAIAPIKey    string
	StageDurations     []time.Duration
}

// DefaultStageDurations is the per-stage processing time: uploaded->ocr,
// ocr->nlp, nlp->summary, summary->done.
var DefaultStageDurations = []time.Duration{
	1 * time.Second,
	3 * time.Second,
	5 * time.Second,
	2 * time.Second,
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:               getEnv("PORT", "8080"),
		CORSAllowOrigin:    splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5000")),
		ObjectStoreType:    normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:      getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:          getEnv("AWS_REGION", ""),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		S3Prefix:           getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:        getEnv("SSE_KMS_KEY_ID", ""),
		DatabaseURL:        dbURL,
		Env:                env,
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
		UIRedirectURL:      getEnv("UI_REDIRECT_URL", "http://localhost:5000"),
		ShareBaseURL:       getEnv("SHARE_BASE_URL", getEnv("UI_REDIRECT_URL", "http://localhost:5000")),
		ExtractorProvider:  normalizeExtractor(getEnv("EXTRACTOR_PROVIDER", "mock")),
		LandingAIAPIKey:    getEnv("LANDINGAI_API_KEY", ""),
		StageDurations:     parseStageDurations(os.Getenv("PIPELINE_STAGE_MS")),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
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
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeExtractor(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "landingai":
		return "landingai"
	default:
		return "mock"
	}
}

// parseStageDurations reads four comma-separated millisecond values; any parse
// failure falls back to the defaults.
func parseStageDurations(raw string) []time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultStageDurations
	}
	parts := strings.Split(raw, ",")
	if len(parts) != len(DefaultStageDurations) {
		log.Printf("PIPELINE_STAGE_MS expects %d values; using defaults", len(DefaultStageDurations))
		return DefaultStageDurations
	}
	out := make([]time.Duration, len(parts))
	for i, p := range parts {
		ms, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || ms < 0 {
			log.Printf("PIPELINE_STAGE_MS invalid value %q; using defaults", p)
			return DefaultStageDurations
		}
		out[i] = time.Duration(ms) * time.Millisecond
	}
	return out
}
