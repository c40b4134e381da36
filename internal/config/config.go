package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/solana-token-tracker/internal/constants"
)

type Config struct {
	// API settings
	APIAddr      string
	APIKey       string
	DevMode      bool
	AllowOrigins []string

	// RPC settings
	RPCUrl      string
	RPCTimeout  time.Duration
	MaxAttempts int
	BaseBackoff time.Duration
	RPCRate     float64 // requests per second across all callers
	RPCBurst    int

	// Ingestion settings
	SignatureLimit int
	IngestWorkers  int
	HolderWorkers  int
	ReferenceMint  string
	PriceMint      string

	// Redis settings
	RedisAddr     string
	PriceCacheTTL time.Duration

	// ClickHouse settings
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// Jupiter quote API settings
	JupiterBaseURL string
	JupiterAPIKey  string

	// AI settings
	OpenRouterAPIKey string
	AIModel          string
}

func Load() *Config {
	return &Config{
		// API
		APIAddr:      getEnv("API_ADDR", ":8090"),
		APIKey:       getEnv("API_KEY", ""),
		DevMode:      getBoolEnv("DEV_MODE", false),
		AllowOrigins: getListEnv("ALLOW_ORIGINS"),

		// RPC
		RPCUrl:      getEnv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
		RPCTimeout:  getDurationEnv("RPC_TIMEOUT", 30*time.Second),
		MaxAttempts: getIntEnv("RPC_MAX_ATTEMPTS", constants.MaxRPCAttempts),
		BaseBackoff: getDurationEnv("RPC_BASE_BACKOFF", time.Second),
		RPCRate:     getFloatEnv("RPC_RATE", 5),
		RPCBurst:    getIntEnv("RPC_BURST", 5),

		// Ingestion
		SignatureLimit: getIntEnv("SIGNATURE_LIMIT", constants.SignatureFetchLimit),
		IngestWorkers:  getIntEnv("INGEST_WORKERS", 4),
		HolderWorkers:  getIntEnv("HOLDER_WORKERS", 4),
		ReferenceMint:  getEnv("REFERENCE_MINT", ""),
		PriceMint:      getEnv("PRICE_MINT", constants.WSOLMint.String()),

		// Redis
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		PriceCacheTTL: getDurationEnv("PRICE_CACHE_TTL", time.Minute),

		// ClickHouse
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "solana"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", "default"),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		// Jupiter
		JupiterBaseURL: getEnv("JUPITER_BASE_URL", ""),
		JupiterAPIKey:  getEnv("JUPITER_API_KEY", ""),

		// AI
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		AIModel:          getEnv("AI_MODEL", "openai/gpt-4.1-mini"),
	}
}

// Validate checks settings the process cannot run without.
func (c *Config) Validate() error {
	if c.APIAddr == "" {
		return fmt.Errorf("API_ADDR is required")
	}
	if c.RPCUrl == "" {
		return fmt.Errorf("SOLANA_RPC_URL is required")
	}
	if c.ReferenceMint == "" {
		return fmt.Errorf("REFERENCE_MINT is required")
	}
	if _, err := solana.PublicKeyFromBase58(c.ReferenceMint); err != nil {
		return fmt.Errorf("REFERENCE_MINT is not a valid public key: %w", err)
	}
	if _, err := solana.PublicKeyFromBase58(c.PriceMint); err != nil {
		return fmt.Errorf("PRICE_MINT is not a valid public key: %w", err)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("RPC_MAX_ATTEMPTS must be positive")
	}
	if c.RPCRate <= 0 {
		return fmt.Errorf("RPC_RATE must be positive")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getListEnv(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(val, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
