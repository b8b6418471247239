package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	LLM         LLMConfig
	Agent       AgentConfig
	Storage     StorageConfig
	Session     SessionConfig
	Environment Environment
}

type Environment string

const (
	EnvironmentDevelopment Environment = "development"
	EnvironmentStaging     Environment = "staging"
	EnvironmentProduction  Environment = "production"
)

func (c Config) IsDevelopment() bool {
	return c.Environment == EnvironmentDevelopment
}

func loadEnvironment() Environment {
	env := getEnv("ENVIRONMENT", "development")
	switch strings.ToLower(env) {
	case "production":
		return EnvironmentProduction
	case "staging":
		return EnvironmentStaging
	default:
		return EnvironmentDevelopment
	}
}

func Load() (*Config, error) {
	cfg := &Config{
		Server:      loadServerConfig(),
		Database:    loadDatabaseConfig(),
		Redis:       loadRedisConfig(),
		LLM:         loadLLMConfig(),
		Agent:       loadAgentConfig(),
		Storage:     loadStorageConfig(),
		Session:     loadSessionConfig(),
		Environment: loadEnvironment(),
	}

	if cfg.Agent.TurnTimeout == 0 {
		cfg.Agent.TurnTimeout = turnTimeoutRequests * cfg.LLM.Timeout
	}

	// Development runs without a configured secret; sessions do not survive a restart
	if cfg.Session.Secret == "" && cfg.IsDevelopment() {
		secret, err := randomSecret()
		if err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		cfg.Session.Secret = secret
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if len(c.Session.Secret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 characters")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}

	switch c.LLM.Provider {
	case LLMProviderOllama, LLMProviderMock:
	case LLMProviderOpenAI:
		if c.LLM.APIKey == "" {
			return fmt.Errorf("LLM_API_KEY is required for the openai provider")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLM.Provider)
	}
	if c.LLM.Provider != LLMProviderMock && c.LLM.Model == "" {
		return fmt.Errorf("LLM_MODEL is required")
	}

	if c.Agent.MaxSteps < 1 {
		return fmt.Errorf("AGENT_MAX_STEPS must be at least 1")
	}
	if c.Agent.TurnTimeout < c.LLM.Timeout {
		return fmt.Errorf("AGENT_TURN_TIMEOUT must not be shorter than LLM_TIMEOUT")
	}

	switch c.Storage.CheckpointStore {
	case "memory", "redis", "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown CHECKPOINT_STORE %q", c.Storage.CheckpointStore)
	}
	switch c.Storage.SessionStore {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", c.Storage.SessionStore)
	}
	switch c.Storage.ArchiveMode {
	case "none", "local":
	case "s3":
		if c.Storage.AWSBucket == "" {
			return fmt.Errorf("AWS_BUCKET is required when ARCHIVE_MODE=s3")
		}
	default:
		return fmt.Errorf("unknown ARCHIVE_MODE %q", c.Storage.ArchiveMode)
	}
	return nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
