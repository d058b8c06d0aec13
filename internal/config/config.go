// Package config provides configuration management for the lending indexer.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Chain    ChainConfig
	Protocol ProtocolConfig
	Indexer  IndexerConfig
	Logging  LoggingConfig
}

// ServerConfig holds reporting API server configuration
type ServerConfig struct {
	Host string
	Port string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres   PostgresConfig
	ClickHouse ClickHouseConfig
	Redis      RedisConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// ClickHouseConfig holds ClickHouse configuration
type ClickHouseConfig struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// ChainConfig holds RPC endpoint configuration
type ChainConfig struct {
	RPCPrimary   string
	RPCSecondary string
	PollInterval time.Duration
}

// ProtocolConfig identifies the indexed protocol deployment
type ProtocolConfig struct {
	ID         string // core contract address, doubles as the Protocol entity id
	Name       string
	Slug       string
	Spotter    string // price oracle spotter contract
	DebtAsset  string // the protocol's USD-pegged debt token
	StartBlock uint64
}

// IndexerConfig holds ingestion tuning
type IndexerConfig struct {
	MaxBlocksPerPoll int
	RequestsPerSec   float64
	DedupeTTL        time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// .env file is optional; environment variables can be set directly
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "lending_indexer"),
				User:           getEnv("POSTGRES_USER", "indexer"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 50),
			},
			ClickHouse: ClickHouseConfig{
				Host:     getEnv("CLICKHOUSE_HOST", "localhost"),
				Port:     getEnv("CLICKHOUSE_PORT", "9000"),
				Database: getEnv("CLICKHOUSE_DB", "lending_indexer"),
				User:     getEnv("CLICKHOUSE_USER", "default"),
				Password: getEnv("CLICKHOUSE_PASSWORD", ""),
			},
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 20),
			},
		},
		Chain: ChainConfig{
			RPCPrimary:   getEnv("ETHEREUM_RPC_PRIMARY", ""),
			RPCSecondary: getEnv("ETHEREUM_RPC_SECONDARY", ""),
			PollInterval: getEnvAsDuration("ETHEREUM_POLL_INTERVAL", 15*time.Second),
		},
		Protocol: ProtocolConfig{
			ID:         getEnv("PROTOCOL_ID", "0x35d1b3f3d7966a1dfe207aa4514c12a259a0492b"),
			Name:       getEnv("PROTOCOL_NAME", "MakerDAO"),
			Slug:       getEnv("PROTOCOL_SLUG", "makerdao"),
			Spotter:    getEnv("PROTOCOL_SPOTTER", "0x65c79fcb50ca1594b025960e539ed7a9a6d434a3"),
			DebtAsset:  getEnv("PROTOCOL_DEBT_ASSET", "0x6b175474e89094c44da98b954eedeac495271d0f"),
			StartBlock: getEnvAsUint64("PROTOCOL_START_BLOCK", 8928152),
		},
		Indexer: IndexerConfig{
			MaxBlocksPerPoll: getEnvAsInt("INDEXER_MAX_BLOCKS_PER_POLL", 30),
			RequestsPerSec:   getEnvAsFloat("INDEXER_RPC_REQUESTS_PER_SEC", 10),
			DedupeTTL:        getEnvAsDuration("INDEXER_DEDUPE_TTL", 7*24*time.Hour),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return config, nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsUint64 gets an environment variable as a uint64 with a default value
func getEnvAsUint64(key string, defaultValue uint64) uint64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat gets an environment variable as a float with a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
