package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/investor-screening/constants"
)

// Config holds all application configuration
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
	Extract   ExtractConfig   `yaml:"extract"`
	LLM       LLMConfig       `yaml:"llm"`
	Watchlist WatchlistConfig `yaml:"watchlist"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // json | text
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr        string        `yaml:"grpc_addr"`
	HTTPAddr        string        `yaml:"http_addr"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ExtractConfig holds text-extraction configuration
type ExtractConfig struct {
	Engine    string `yaml:"engine"` // fitz | pdftotext
	MinChars  int    `yaml:"min_chars"`
	MaxPages  int    `yaml:"max_pages"` // 0 = no limit
	Inspect   bool   `yaml:"inspect"`   // pdfcpu pre-validation
	Pdftotext string `yaml:"pdftotext"`
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Provider         string        `yaml:"provider"` // gemini | openai
	Timeout          time.Duration `yaml:"timeout"`
	DraftTemperature float32       `yaml:"draft_temperature"`
	Gemini           GeminiConfig  `yaml:"gemini"`
	OpenAI           OpenAIConfig  `yaml:"openai"`
}

// GeminiConfig holds Vertex AI settings
type GeminiConfig struct {
	ProjectID string `yaml:"project_id"`
	Location  string `yaml:"location"`
	Model     string `yaml:"model"`
}

// OpenAIConfig holds OpenAI settings
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// WatchlistConfig holds compliance watchlist configuration
type WatchlistConfig struct {
	Source            string        `yaml:"source"` // URL, path, gs://, postgres://, sqlite://
	Table             string        `yaml:"table"`
	Column            string        `yaml:"column"`
	Sheet             string        `yaml:"sheet"`
	UnavailablePolicy string        `yaml:"unavailable_policy"` // fail | flag | approve
	Timeout           time.Duration `yaml:"timeout"`
}

// PipelineConfig holds orchestrator and run-queue settings
type PipelineConfig struct {
	RunTimeout       time.Duration `yaml:"run_timeout"`
	SubscriberBuffer int           `yaml:"subscriber_buffer"`
	Workers          int           `yaml:"workers"`
	QueueSize        int           `yaml:"queue_size"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{Level: "info", Format: "json"},
		Server: ServerConfig{
			GRPCAddr:        ":8080",
			HTTPAddr:        ":8081",
			MaxUploadBytes:  constants.MaxUploadBytesDefault,
			ShutdownTimeout: 10 * time.Second,
		},
		Extract: ExtractConfig{
			Engine:    "fitz",
			MinChars:  constants.MinTextLength,
			Inspect:   true,
			Pdftotext: "pdftotext",
		},
		LLM: LLMConfig{
			Provider:         "gemini",
			Timeout:          45 * time.Second,
			DraftTemperature: 0.5,
			Gemini:           GeminiConfig{Location: "us-central1", Model: "gemini-2.5-flash"},
			OpenAI:           OpenAIConfig{BaseURL: "https://api.openai.com/v1", Model: "gpt-4o-mini"},
		},
		Watchlist: WatchlistConfig{
			Source:            "./watchlist.csv",
			Table:             "watchlist",
			Column:            "name",
			UnavailablePolicy: "fail",
			Timeout:           10 * time.Second,
		},
		Pipeline: PipelineConfig{
			RunTimeout:       3 * time.Minute,
			SubscriberBuffer: 16,
			Workers:          2,
			QueueSize:        8,
		},
	}
}

// LoadConfig loads configuration: defaults, then the optional YAML file at path,
// then environment variables (a .env file in the working directory is honored).
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, NewAppError(CodeConfig, "load .env", err)
	}

	cfg := DefaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, NewAppError(CodeConfig, "read config file", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, NewAppError(CodeConfig, "parse config file", err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)

	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)
	c.Server.HTTPAddr = getEnv("HTTP_ADDR", c.Server.HTTPAddr)
	c.Server.MaxUploadBytes = getEnvAsInt64("MAX_UPLOAD_BYTES", c.Server.MaxUploadBytes)
	c.Server.ShutdownTimeout = getEnvAsDuration("SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)

	c.Extract.Engine = getEnv("EXTRACT_ENGINE", c.Extract.Engine)
	c.Extract.MinChars = getEnvAsInt("EXTRACT_MIN_CHARS", c.Extract.MinChars)
	c.Extract.MaxPages = getEnvAsInt("EXTRACT_MAX_PAGES", c.Extract.MaxPages)
	c.Extract.Inspect = getEnvAsBool("EXTRACT_INSPECT", c.Extract.Inspect)
	c.Extract.Pdftotext = getEnv("PDFTOTEXT_BIN", c.Extract.Pdftotext)

	c.LLM.Provider = getEnv("LLM_PROVIDER", c.LLM.Provider)
	c.LLM.Timeout = getEnvAsDuration("LLM_TIMEOUT", c.LLM.Timeout)
	c.LLM.DraftTemperature = getEnvAsFloat32("DRAFT_TEMPERATURE", c.LLM.DraftTemperature)
	c.LLM.Gemini.ProjectID = getEnv("GEMINI_PROJECT_ID", c.LLM.Gemini.ProjectID)
	c.LLM.Gemini.Location = getEnv("GEMINI_LOCATION", c.LLM.Gemini.Location)
	c.LLM.Gemini.Model = getEnv("GEMINI_MODEL", c.LLM.Gemini.Model)
	c.LLM.OpenAI.APIKey = getEnv("OPENAI_API_KEY", c.LLM.OpenAI.APIKey)
	c.LLM.OpenAI.BaseURL = getEnv("OPENAI_BASE_URL", c.LLM.OpenAI.BaseURL)
	c.LLM.OpenAI.Model = getEnv("OPENAI_MODEL", c.LLM.OpenAI.Model)

	c.Watchlist.Source = getEnv("WATCHLIST_SOURCE", c.Watchlist.Source)
	c.Watchlist.Table = getEnv("WATCHLIST_TABLE", c.Watchlist.Table)
	c.Watchlist.Column = getEnv("WATCHLIST_COLUMN", c.Watchlist.Column)
	c.Watchlist.Sheet = getEnv("WATCHLIST_SHEET", c.Watchlist.Sheet)
	c.Watchlist.UnavailablePolicy = getEnv("WATCHLIST_UNAVAILABLE_POLICY", c.Watchlist.UnavailablePolicy)
	c.Watchlist.Timeout = getEnvAsDuration("WATCHLIST_TIMEOUT", c.Watchlist.Timeout)

	c.Pipeline.RunTimeout = getEnvAsDuration("RUN_TIMEOUT", c.Pipeline.RunTimeout)
	c.Pipeline.SubscriberBuffer = getEnvAsInt("SUBSCRIBER_BUFFER", c.Pipeline.SubscriberBuffer)
	c.Pipeline.Workers = getEnvAsInt("RUN_WORKERS", c.Pipeline.Workers)
	c.Pipeline.QueueSize = getEnvAsInt("RUN_QUEUE_SIZE", c.Pipeline.QueueSize)
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

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch strings.ToLower(c.LLM.Provider) {
	case "gemini":
		if c.LLM.Gemini.ProjectID == "" {
			return NewAppError(CodeConfig, "GEMINI_PROJECT_ID is required", ErrInvalidInput)
		}
	case "openai":
		if c.LLM.OpenAI.APIKey == "" {
			return NewAppError(CodeConfig, "OPENAI_API_KEY is required", ErrInvalidInput)
		}
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("unsupported LLM_PROVIDER %q", c.LLM.Provider), ErrInvalidInput)
	}
	if err := c.ValidateWatchlist(); err != nil {
		return err
	}
	switch c.Extract.Engine {
	case "fitz", "pdftotext":
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("unsupported EXTRACT_ENGINE %q", c.Extract.Engine), ErrInvalidInput)
	}
	return nil
}

// ValidateWatchlist validates only the watchlist settings; the CLI's check
// command needs nothing else.
func (c *Config) ValidateWatchlist() error {
	if strings.TrimSpace(c.Watchlist.Source) == "" {
		return NewAppError(CodeConfig, "WATCHLIST_SOURCE is required", ErrInvalidInput)
	}
	switch c.Watchlist.UnavailablePolicy {
	case "fail", "flag", "approve":
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("unsupported WATCHLIST_UNAVAILABLE_POLICY %q", c.Watchlist.UnavailablePolicy), ErrInvalidInput)
	}
	return nil
}
