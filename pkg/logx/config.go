package logx

import (
	"io"
	"os"
)

// Format selects the output encoding
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// Config holds logger configuration
type Config struct {
	Level      Level
	Format     Format
	Output     io.Writer
	TimeFormat string
	AppName    string
}

// DefaultConfig returns a console logger at info level
func DefaultConfig() *Config {
	return &Config{
		Level:      LevelInfo,
		Format:     FormatConsole,
		Output:     os.Stdout,
		TimeFormat: "2006-01-02 15:04:05.000",
	}
}

// LoadFromEnv builds a config from LOG_LEVEL / LOG_FORMAT / APP_NAME
func LoadFromEnv() *Config {
	config := DefaultConfig()

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		config.Level = ParseLevel(v)
	}
	if v := os.Getenv("LOG_FORMAT"); v == "json" {
		config.Format = FormatJSON
	}
	if v := os.Getenv("APP_NAME"); v != "" {
		config.AppName = v
	}

	return config
}
