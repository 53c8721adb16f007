// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"sacco-ledger/pkg/db"
)

// PersonalChainScope selects how personal-ledger entries chain together.
type PersonalChainScope string

const (
	// ChainScopeMember gives every member an independent personal chain.
	ChainScopeMember PersonalChainScope = "member"
	// ChainScopeGlobal interleaves all members' personal entries into one
	// globally ordered chain.
	ChainScopeGlobal PersonalChainScope = "global"
)

// AppConfig holds all application-wide configuration.
type AppConfig struct {
	ServerPort         string
	MigrationsPath     string
	PersonalChainScope PersonalChainScope
	DB                 db.Config
}

// LoadConfig loads configuration from the environment, reading an optional
// .env file first. Missing values fall back to local-development defaults.
func LoadConfig() (*AppConfig, error) {
	_ = godotenv.Load()

	serverPort := getEnv("SERVER_PORT", "8080")
	migrationsPath := getEnv("MIGRATIONS_PATH", "migrations")

	scope := PersonalChainScope(getEnv("PERSONAL_CHAIN_SCOPE", string(ChainScopeMember)))
	if scope != ChainScopeMember && scope != ChainScopeGlobal {
		return nil, fmt.Errorf("invalid PERSONAL_CHAIN_SCOPE %q, want %q or %q", scope, ChainScopeMember, ChainScopeGlobal)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	return &AppConfig{
		ServerPort:         serverPort,
		MigrationsPath:     migrationsPath,
		PersonalChainScope: scope,
		DB: db.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "user"),
			Password: getEnv("DB_PASSWORD", "password"),
			DBName:   getEnv("DB_NAME", "saccodb"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
