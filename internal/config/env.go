package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL  string
	SslCertPath  string
	Port         string
	JWTSecret    string
	TokenTTL     time.Duration
	CORSOrigins  []string
	LogLevel     string
	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string

	AIAPIKey      string
	GenModel      string
	GenTimeout    time.Duration
	UploadTimeout time.Duration
	DeleteTimeout time.Duration

	FetchTimeout        time.Duration
	FetchMaxBytes       int64
	InlineFallbackChars int
	ExtractWorkers      int
}

// LoadConfig loads the environment variables and return config
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		SslCertPath:  getEnv("SSL_CERT_PATH", ""),
		Port:         getEnv("PORT", "8080"),
		JWTSecret:    getEnv("JWT_SECRET", ""),
		TokenTTL:     getEnvDuration("TOKEN_TTL", 24*time.Hour),
		CORSOrigins:  getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", ""),

		AIAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GenModel:      getEnv("GEN_MODEL", "gemini-2.5-flash"),
		GenTimeout:    getEnvDuration("GEN_TIMEOUT", 2*time.Minute),
		UploadTimeout: getEnvDuration("UPLOAD_TIMEOUT", time.Minute),
		DeleteTimeout: getEnvDuration("DELETE_TIMEOUT", 15*time.Second),

		FetchTimeout:        getEnvDuration("FETCH_TIMEOUT", 30*time.Second),
		FetchMaxBytes:       int64(getEnvInt("FETCH_MAX_BYTES", 50<<20)),
		InlineFallbackChars: getEnvInt("INLINE_FALLBACK_CHARS", 5000),
		ExtractWorkers:      getEnvInt("EXTRACT_WORKERS", 4),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL not set")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET not set")
	}

	return cfg, nil
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func getEnvList(key string, def []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
