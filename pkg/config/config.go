// Package config loads the application configuration from environment
// variables, with working defaults for local development.
package config

import "time"

// Config is the full application configuration
type Config struct {
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	Auth         AuthConfig
	AI           AIConfig
	Storage      StorageConfig
	Integrations IntegrationsConfig
}

// ServerConfig configures the HTTP server
type ServerConfig struct {
	Port        string
	CORSOrigins string
	BodyLimit   int
}

// DatabaseConfig configures the Postgres connection
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the Redis connection
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Address returns host:port
func (r RedisConfig) Address() string {
	return r.Host + ":" + itoa(r.Port)
}

// AuthConfig configures token and API key authentication
type AuthConfig struct {
	JWTSecret      string
	AccessTokenTTL time.Duration
	Issuer         string
}

// AIConfig selects and configures the model provider
type AIConfig struct {
	// Provider is one of gemini, openai, anthropic
	Provider string
	Model    string
	MaxSteps int
}

// StorageConfig selects the object storage backend
type StorageConfig struct {
	// Mode is local or s3
	Mode      string
	UploadDir string
	AWSRegion string
	Bucket    string
}

// IntegrationsConfig holds the server-side integration credentials
type IntegrationsConfig struct {
	PerplexityAPIKey string
}

// Load reads the configuration from the environment
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			CORSOrigins: getEnv("CORS_ORIGINS", "*"),
			BodyLimit:   getEnvInt("BODY_LIMIT", 10*1024*1024),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Name:            getEnv("DB_NAME", "chatstream"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret:      getEnv("JWT_SECRET", "dev-secret-change-me"),
			AccessTokenTTL: getEnvDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
			Issuer:         getEnv("JWT_ISSUER", "chatstream"),
		},
		AI: AIConfig{
			Provider: getEnv("AI_PROVIDER", "gemini"),
			Model:    getEnv("AI_MODEL", ""),
			MaxSteps: getEnvInt("AI_MAX_STEPS", 10),
		},
		Storage: StorageConfig{
			Mode:      getEnv("STORAGE_MODE", "local"),
			UploadDir: getEnv("UPLOAD_DIR", "./uploads"),
			AWSRegion: getEnv("AWS_REGION", "us-east-1"),
			Bucket:    getEnv("AWS_BUCKET", "chatstream-uploads"),
		},
		Integrations: IntegrationsConfig{
			PerplexityAPIKey: getEnv("PERPLEXITY_API_KEY", ""),
		},
	}
}
