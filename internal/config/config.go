package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ChainConfig holds the on-chain credential registry settings.
type ChainConfig struct {
	RPCURL          string
	ContractAddress string
	ChainID         int64
	IssuerKey       string
	ReceiptTimeout  time.Duration
}

// PinningConfig holds the content pinning service settings.
type PinningConfig struct {
	Endpoint string
	JWT      string
	Timeout  time.Duration
}

// AuthConfig holds JWT session settings.
type AuthConfig struct {
	Secret   string
	TokenTTL time.Duration
}

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	DatabaseURL string
	RedisURL    string

	KafkaBrokers []string
	KafkaEnabled bool

	Chain   ChainConfig
	Pinning PinningConfig
	Auth    AuthConfig
}

// LoadConfig reads configuration from the environment, with a .env file
// as fallback for local development.
func LoadConfig() (*Config, error) {
	// Missing .env is fine in containerized deployments.
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		KafkaBrokers: splitEnv("KAFKA_BROKERS"),
		KafkaEnabled: boolEnv("KAFKA_ENABLED", false),

		Chain: ChainConfig{
			RPCURL:          getEnv("CHAIN_RPC_URL", ""),
			ContractAddress: getEnv("CONTRACT_ADDRESS", "0xDaDea6be84CFb181A7bfa50807cF72698d1de644"),
			ChainID:         int64Env("CHAIN_ID", 11155111),
			IssuerKey:       getEnv("ISSUER_PRIVATE_KEY", ""),
			ReceiptTimeout:  durationEnv("CHAIN_RECEIPT_TIMEOUT", 2*time.Minute),
		},
		Pinning: PinningConfig{
			Endpoint: getEnv("PINNING_ENDPOINT", "https://api.pinata.cloud/pinning/pinFileToIPFS"),
			JWT:      getEnv("PINNING_JWT", ""),
			Timeout:  durationEnv("PINNING_TIMEOUT", 60*time.Second),
		},
		Auth: AuthConfig{
			Secret:   getEnv("JWT_SECRET", ""),
			TokenTTL: durationEnv("JWT_TTL", 12*time.Hour),
		},
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.Auth.Secret == "" && cfg.Environment == "production" {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func int64Env(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitEnv(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
