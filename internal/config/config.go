package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// DefaultAllowedNetworks はALLOWED_NETWORKS未設定時の許可ネットワーク。
const DefaultAllowedNetworks = "127.0.0.0/24,129.16.0.0/16,::1/128"

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL string

	// Token
	TokenTTL       time.Duration
	TokenRetention time.Duration
	BcryptCost     int

	// Perimeter
	AllowedNetworks []string

	// Rate Limit（req/min）
	RateLimitToken int
	RateLimitAPI   int

	// Worker
	CleanupInterval time.Duration

	// Server
	ServerPort     string
	BaseURL        string
	RequestTimeout time.Duration

	// CORS
	CORSAllowedOrigin string
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合、または値が範囲外の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("required environment variables are not set: %v", []string{"DATABASE_URL"})
	}

	// Optional fields with defaults
	cfg.TokenTTL = getEnvDuration("TOKEN_TTL", 60*time.Minute)
	cfg.TokenRetention = getEnvDuration("TOKEN_RETENTION", 7*24*time.Hour)
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", bcrypt.DefaultCost)
	cfg.AllowedNetworks = splitList(getEnvString("ALLOWED_NETWORKS", DefaultAllowedNetworks))
	cfg.RateLimitToken = getEnvInt("RATE_LIMIT_TOKEN", 10)
	cfg.RateLimitAPI = getEnvInt("RATE_LIMIT_API", 120)
	cfg.CleanupInterval = getEnvDuration("CLEANUP_INTERVAL", 24*time.Hour)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.BaseURL = strings.TrimRight(getEnvString("BASE_URL", "http://localhost:8080"), "/")
	cfg.RequestTimeout = getEnvDuration("REQUEST_TIMEOUT", 30*time.Second)
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var problems []string
	if c.TokenTTL <= 0 {
		problems = append(problems, "TOKEN_TTL must be positive")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		problems = append(problems, fmt.Sprintf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if len(c.AllowedNetworks) == 0 {
		problems = append(problems, "ALLOWED_NETWORKS must not be empty")
	}
	if c.RateLimitToken <= 0 || c.RateLimitAPI <= 0 {
		problems = append(problems, "RATE_LIMIT_TOKEN and RATE_LIMIT_API must be positive")
	}
	if c.CleanupInterval <= 0 {
		problems = append(problems, "CLEANUP_INTERVAL must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
