package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	StaticDir          string
	WatermarkPath      string
	SiteProfilesPath   string
	GeoIPDBPath        string
	DefaultLocale      string
	UserAgent          string
	CORSAllowedOrigins []string
	HTTPReadTimeout    time.Duration
	HTTPWriteTimeout   time.Duration
	HTTPIdleTimeout    time.Duration
	RateLimitPerMin    int
	FetchTimeout       time.Duration
	FetchRetries       int
	FetchRatePerHost   float64
	MaxUploadBytes     int64
	JobLogTTL          time.Duration
	MaxConcurrentJobs  int
	JobQueueTimeout    time.Duration
	FetchCacheMB       int
	FetchCacheTTL      time.Duration
}

// DefaultUserAgent mimics a desktop browser; several shop fronts refuse
// obvious bot agents.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120 Safari/537.36"

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "3000"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		StaticDir:          getEnv("STATIC_DIR", "public"),
		WatermarkPath:      getEnv("WATERMARK_PATH", "watermark.png"),
		SiteProfilesPath:   os.Getenv("SITE_PROFILES_PATH"),
		GeoIPDBPath:        os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:      getEnv("DEFAULT_LOCALE", "en"),
		UserAgent:          getEnv("USER_AGENT", DefaultUserAgent),
		CORSAllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		HTTPReadTimeout:    time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 60)),
		// Archives stream for as long as the job runs, so no write deadline by default.
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 0)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
		FetchTimeout:     time.Second * time.Duration(getEnvInt("FETCH_TIMEOUT_SECONDS", 30)),
		FetchRetries:     getEnvInt("FETCH_RETRIES", 2),
		FetchRatePerHost: getEnvFloat("FETCH_RATE_PER_HOST", 5),
		MaxUploadBytes:   int64(getEnvInt("MAX_UPLOAD_MB", 64)) << 20,
		JobLogTTL:        time.Minute * time.Duration(getEnvInt("JOB_LOG_TTL_MINUTES", 60)),
		// 0 disables the limit.
		MaxConcurrentJobs: getEnvInt("MAX_CONCURRENT_JOBS", 4),
		JobQueueTimeout:   time.Second * time.Duration(getEnvInt("JOB_QUEUE_TIMEOUT_SECONDS", 30)),
		// 0 disables the fetch cache.
		FetchCacheMB:  getEnvInt("FETCH_CACHE_MB", 64),
		FetchCacheTTL: time.Minute * time.Duration(getEnvInt("FETCH_CACHE_TTL_MINUTES", 10)),
	}

	if cfg.FetchRetries < 0 {
		return nil, fmt.Errorf("FETCH_RETRIES must not be negative")
	}
	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_MB must be positive")
	}
	if cfg.MaxConcurrentJobs < 0 {
		return nil, fmt.Errorf("MAX_CONCURRENT_JOBS must not be negative")
	}
	if cfg.FetchCacheMB > 0 && cfg.FetchCacheTTL <= 0 {
		return nil, fmt.Errorf("FETCH_CACHE_TTL_MINUTES must be positive when the fetch cache is enabled")
	}
	if cfg.JobLogTTL <= 0 {
		return nil, fmt.Errorf("JOB_LOG_TTL_MINUTES must be positive")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
