package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               string
	DatabaseURL        string
	CommunityAPIURL    string
	RedisAddr          string
	FeedCacheTTL       time.Duration
	TrendingWindowDays int
	TrendingLimit      int
	PageSize           int
	HTTPTimeout        time.Duration
	CorsAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
	TrustedProxies     []string
	LogLevel           string
}

// Load reads the configuration from the environment, after loading a .env
// file when one is present.
func Load() Config {
	_ = godotenv.Load()

	origins := splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*"))
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return Config{
		Port:               getEnv("SERVER_PORT", "8080"),
		DatabaseURL:        getEnv("DB_URL", ""),
		CommunityAPIURL:    strings.TrimSuffix(getEnv("COMMUNITY_API_URL", "http://localhost:3000/api/v1"), "/"),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		FeedCacheTTL:       getDuration("FEED_CACHE_TTL", 30*time.Second),
		TrendingWindowDays: getInt("TRENDING_WINDOW_DAYS", 7),
		TrendingLimit:      getInt("TRENDING_LIMIT", 5),
		PageSize:           getInt("PAGE_SIZE", 10),
		HTTPTimeout:        getDuration("HTTP_TIMEOUT", 15*time.Second),
		CorsAllowedOrigins: origins,
		RateLimitRPS:       getFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:     getInt("RATE_LIMIT_BURST", 20),
		TrustedProxies:     splitCSV(getEnv("TRUSTED_PROXIES", "")),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func getFloat(key string, fallback float64) float64 {
	f, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}

func getDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			out = append(out, item)
		}
	}
	return out
}
