package config

import (
	"fmt"
	"os"
	"strconv"

	"vninvoice/internal/logger"
)

// Config holds the deployer-supplied settings for one run of the tool. The
// API key is the only secret; it is read from the environment (or a flag)
// and never written back to disk.
type Config struct {
	// Extraction service configuration
	ExtractAPIKey  string
	ExtractBaseURL string // OpenAI-compatible endpoint; empty means the default
	ExtractModel   string

	// Rasterizer configuration
	RenderDPI int
	MaxPages  int

	// Excel template configuration
	MappingPath  string // YAML column mapping; empty uses the built-in default
	TemplatePath string // existing workbook to fill; empty creates a new one

	// Logging configuration
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	config := &Config{
		ExtractAPIKey:  getEnv("EXTRACT_API_KEY", ""),
		ExtractBaseURL: getEnv("EXTRACT_BASE_URL", ""),
		ExtractModel:   getEnv("EXTRACT_MODEL", "gpt-4o"),
		RenderDPI:      getEnvInt("RENDER_DPI", 200),
		MaxPages:       getEnvInt("MAX_PAGES", 10),
		MappingPath:    getEnv("MAPPING_PATH", ""),
		TemplatePath:   getEnv("TEMPLATE_PATH", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "console"),
		LogTimeFormat:  getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:      getEnv("LOG_OUTPUT", "stderr"),
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func (c *Config) validate() error {
	if c.RenderDPI < 72 || c.RenderDPI > 600 {
		return fmt.Errorf("RENDER_DPI must be between 72 and 600, got %d", c.RenderDPI)
	}
	if c.MaxPages < 1 {
		return fmt.Errorf("MAX_PAGES must be at least 1, got %d", c.MaxPages)
	}
	return nil
}

// GetLoggerConfig returns a logger configuration from the main config
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
