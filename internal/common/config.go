package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Rasterize RasterizeConfig
	OCR       OCRConfig
	Extract   ExtractConfig
	Session   SessionConfig
}

// RasterizeConfig holds PDF rendering configuration
type RasterizeConfig struct {
	DPI         int // render resolution, default 200
	JPEGQuality int // 1..100, default 90
}

// OCRConfig holds OCR engine configuration
type OCRConfig struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration
}

// ExtractConfig holds structured-extraction engine configuration
type ExtractConfig struct {
	BaseURL string
	Model   string
	APIKey  string
	Timeout time.Duration

	// MaxTextBytes caps the corpus text sent to the engine. Longer corpora
	// are truncated at this budget, never mid-rune.
	MaxTextBytes int
}

// SessionConfig holds session storage configuration
type SessionConfig struct {
	// StorePath points at the sqlite file backing file records. Empty means
	// an in-memory store scoped to the process.
	StorePath string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Rasterize: RasterizeConfig{
			DPI:         getEnvAsInt("RASTER_DPI", 200),
			JPEGQuality: getEnvAsInt("RASTER_JPEG_QUALITY", 90),
		},
		OCR: OCRConfig{
			BaseURL: getEnv("MISTRAL_BASE_URL", "https://api.mistral.ai"),
			Model:   getEnv("MISTRAL_OCR_MODEL", "mistral-ocr-latest"),
			APIKey:  getEnv("MISTRAL_API_KEY", ""),
			Timeout: getEnvAsDuration("MISTRAL_TIMEOUT", 60*time.Second),
		},
		Extract: ExtractConfig{
			BaseURL:      getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:        getEnv("OPENAI_MODEL", "o1"),
			APIKey:       getEnv("OPENAI_API_KEY", ""),
			Timeout:      getEnvAsDuration("OPENAI_TIMEOUT", 120*time.Second),
			MaxTextBytes: getEnvAsInt("EXTRACT_MAX_TEXT_BYTES", 400_000),
		},
		Session: SessionConfig{
			StorePath: getEnv("SESSION_STORE_PATH", ""),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.OCR.APIKey == "" {
		return NewAppError(KindOCRAuth, "MISTRAL_API_KEY is required", nil)
	}
	if c.Extract.APIKey == "" {
		return NewAppError(KindExtractionAuth, "OPENAI_API_KEY is required", nil)
	}
	if c.Rasterize.DPI <= 0 {
		return NewAppError(KindRasterization, "RASTER_DPI must be positive", nil)
	}
	return nil
}
