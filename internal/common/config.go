package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Store  StoreConfig
	Server ServerConfig
	Loader LoaderConfig
	LLM    LLMConfig
	Paths  PathsConfig
}

// StoreConfig holds job-store configuration.
type StoreConfig struct {
	Path string // SQLite file path; ":memory:" for ephemeral runs
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration
}

// LoaderConfig holds document-loader configuration.
type LoaderConfig struct {
	Pdftoppm      string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract     string // binary name or absolute path; if empty -> "tesseract"
	TesseractLang string
	DPI           int
	MaxPages      int
	MaxFileSize   int64
}

// LLMConfig holds reasoning-provider configuration.
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
}

// PathsConfig holds template and output directory configuration.
type PathsConfig struct {
	TemplatesDir string
	OutputDir    string
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Path: getEnv("JOBS_DB_PATH", "contractfill.db"),
		},
		Server: ServerConfig{
			HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Loader: LoaderConfig{
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract:     getEnv("TESSERACT_BIN", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			MaxPages:      getEnvAsInt("OCR_MAX_PAGES", 0),
			MaxFileSize:   int64(getEnvAsInt("LOADER_MAX_FILE_MB", 100)) * 1024 * 1024,
		},
		LLM: LLMConfig{
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", ""),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
		},
		Paths: PathsConfig{
			TemplatesDir: getEnv("TEMPLATES_DIR", "templates"),
			OutputDir:    getEnv("OUTPUT_DIR", "output"),
		},
	}
}

// Validate validates the loaded configuration.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.Paths.TemplatesDir == "" {
		return NewAppError("CONFIG_ERROR", "TEMPLATES_DIR is required", ErrInvalidInput)
	}
	return nil
}

// Helper functions for environment variable parsing.
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

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
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
