package config

import (
	"os"
	"strconv"

	"github.com/KirkDiggler/pf2e-sheet/internal/domain/pf2e"
)

// Config holds all configuration for the application
type Config struct {
	Content ContentConfig
	Redis   RedisConfig
	Server  ServerConfig
	Variant pf2e.VariantRules
}

// ContentConfig locates the rulebook content on disk
type ContentConfig struct {
	Dir string
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ServerConfig holds the HTTP server configuration
type ServerConfig struct {
	Addr string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Content: ContentConfig{
			Dir: getEnvOrDefault("PF2E_CONTENT_DIR", "content"),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvAsIntOrDefault("REDIS_DB", 0),
		},
		Server: ServerConfig{
			Addr: getEnvOrDefault("PF2E_LISTEN_ADDR", ":8080"),
		},
		Variant: pf2e.VariantRules{
			ProficiencyWithoutLevel:   getEnvAsBoolOrDefault("PF2E_VARIANT_PROFICIENCY_WITHOUT_LEVEL", false),
			GradualAbilityBoosts:      getEnvAsBoolOrDefault("PF2E_VARIANT_GRADUAL_ABILITY_BOOSTS", false),
			AutomaticBonusProgression: getEnvAsBoolOrDefault("PF2E_VARIANT_AUTOMATIC_BONUS_PROGRESSION", false),
			DualClass:                 getEnvAsBoolOrDefault("PF2E_VARIANT_DUAL_CLASS", false),
		},
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
