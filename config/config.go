package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the land registry service
type Config struct {
	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// Server configuration
	Port string

	// Admin auth configuration
	JWTSecret string

	// Blockchain configuration. Chain recording is disabled unless all
	// three of EthRPCURL, ContractAddress and EthPrivateKey are set.
	EthRPCURL       string
	ContractAddress string
	EthPrivateKey   string
	// ChainRequired makes transfer approval fail when the on-chain write
	// fails instead of falling back to a synthesized transaction hash.
	ChainRequired bool

	// Email configuration
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	AdminEmail        string
}

// Load loads configuration from environment variables
func Load() *Config {
	// Optional .env for local runs; env vars win.
	godotenv.Load()

	config := &Config{
		// Database defaults
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "server"),
		DBPassword: getEnv("DB_PASSWORD", "secret"),
		DBName:     getEnv("DB_NAME", "landregistry"),

		// Server defaults
		Port: getEnv("PORT", "8080"),

		JWTSecret: getEnv("JWT_SECRET", ""),

		EthRPCURL:       getEnv("ETH_RPC_URL", ""),
		ContractAddress: getEnv("CONTRACT_ADDRESS", ""),
		EthPrivateKey:   getEnv("ETH_PRIVATE_KEY", ""),
		ChainRequired:   getBoolEnv("CHAIN_REQUIRED", false),

		SendGridAPIKey:    getEnv("SENDGRID_API_KEY", ""),
		SendGridFromEmail: getEnv("SENDGRID_FROM_EMAIL", "noreply@landregistry.example"),
		SendGridFromName:  getEnv("SENDGRID_FROM_NAME", "Land Registry"),
		AdminEmail:        getEnv("ADMIN_EMAIL", ""),
	}

	return config
}

// ChainConfigured reports whether all settings needed for on-chain
// recording are present.
func (c *Config) ChainConfigured() bool {
	return c.EthRPCURL != "" && c.ContractAddress != "" && c.EthPrivateKey != ""
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv gets a boolean environment variable or returns a default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
