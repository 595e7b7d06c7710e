package common

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"

	"github.com/ternarybob/vipaii/internal/interfaces"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	Gemini      GeminiConfig    `toml:"gemini"`
	Assistant   AssistantConfig `toml:"assistant"`
	KeyGate     KeyGateConfig   `toml:"keygate"`
	History     HistoryConfig   `toml:"history"`
	Sessions    SessionsConfig  `toml:"sessions"`
	Upload      UploadConfig    `toml:"upload"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
	GCSchedule     string `toml:"gc_schedule"`      // Cron schedule for value log garbage collection
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05")
	Dir        string   `toml:"dir"`         // Log file directory; empty uses logs/ next to the executable
}

// GeminiConfig contains Google Gemini API configuration for analysis, chat and image generation
type GeminiConfig struct {
	APIKey        string  `toml:"api_key"`        // Fallback key when neither the KV store nor the environment has one
	AnalysisModel string  `toml:"analysis_model"` // Multimodal model for structured analysis
	ChatModel     string  `toml:"chat_model"`     // Model for streamed chat
	ImageModel    string  `toml:"image_model"`    // Image generation model
	Timeout       string  `toml:"timeout"`        // Bound on analysis and image calls
	StreamTimeout string  `toml:"stream_timeout"` // Bound on a whole chat stream
	RateLimit     string  `toml:"rate_limit"`     // Minimum spacing between provider calls, "0" disables pacing
	Temperature   float32 `toml:"temperature"`    // 0 leaves the provider default
	BaseURL       string  `toml:"base_url"`       // Override the Gemini endpoint (tests, proxies)
}

// AssistantConfig holds the user-facing canned strings of the assistant persona
type AssistantConfig struct {
	Greeting string `toml:"greeting"`
	Apology  string `toml:"apology"`
}

// KeyGateConfig controls the paid-key gate in front of image generation
type KeyGateConfig struct {
	Enabled             bool `toml:"enabled"`               // Use the KV-backed host key selector
	ReverifyAfterPrompt bool `toml:"reverify_after_prompt"` // Re-check after prompting instead of proceeding optimistically
}

// HistoryConfig controls the analysis history log
type HistoryConfig struct {
	Enabled       bool   `toml:"enabled"`
	Retention     string `toml:"retention"`      // e.g. "720h"; empty keeps items forever
	PruneSchedule string `toml:"prune_schedule"` // Cron schedule for pruning
	ListLimit     int    `toml:"list_limit"`     // Default page size for listing
}

// SessionsConfig controls in-memory visitor sessions
type SessionsConfig struct {
	IdleTimeout   string `toml:"idle_timeout"`
	SweepSchedule string `toml:"sweep_schedule"`
}

// UploadConfig bounds uploaded files
type UploadConfig struct {
	MaxBytes int64 `toml:"max_bytes"`
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path:       "./data",
				GCSchedule: "@every 1h",
			},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		Gemini: GeminiConfig{
			AnalysisModel: "gemini-3-flash-preview",
			ChatModel:     "gemini-3-flash-preview",
			ImageModel:    "gemini-3-pro-image-preview",
			Timeout:       "2m",
			StreamTimeout: "5m",
			RateLimit:     "500ms",
		},
		Assistant: AssistantConfig{
			Greeting: "Chào bạn! Mình là Vipaii. Năm mới sắp đến rồi, bạn cần giúp đỡ gì về bài học không?",
			Apology:  "Xin lỗi, Vipaii đang bận sắm Tết một chút, bạn thử lại sau nhé!",
		},
		KeyGate: KeyGateConfig{
			Enabled:             true,
			ReverifyAfterPrompt: false,
		},
		History: HistoryConfig{
			Enabled:       true,
			Retention:     "720h",
			PruneSchedule: "0 3 * * *",
			ListLimit:     20,
		},
		Sessions: SessionsConfig{
			IdleTimeout:   "30m",
			SweepSchedule: "@every 1m",
		},
		Upload: UploadConfig{
			MaxBytes: 20 * 1024 * 1024,
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority: default -> file1 -> file2 -> ... -> env.
// Later files override earlier files. CLI flags are applied afterwards by ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies VIPAII_* environment variables to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("VIPAII_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("VIPAII_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("VIPAII_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("VIPAII_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("VIPAII_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("VIPAII_LOG_OUTPUT"); output != "" {
		var outputs []string
		for _, o := range strings.Split(output, ",") {
			if o = strings.TrimSpace(o); o != "" {
				outputs = append(outputs, o)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Gemini configuration
	if apiKey := os.Getenv("VIPAII_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("VIPAII_GEMINI_ANALYSIS_MODEL"); model != "" {
		config.Gemini.AnalysisModel = model
	}
	if model := os.Getenv("VIPAII_GEMINI_CHAT_MODEL"); model != "" {
		config.Gemini.ChatModel = model
	}
	if model := os.Getenv("VIPAII_GEMINI_IMAGE_MODEL"); model != "" {
		config.Gemini.ImageModel = model
	}
	if timeout := os.Getenv("VIPAII_GEMINI_TIMEOUT"); timeout != "" {
		config.Gemini.Timeout = timeout
	}
	if timeout := os.Getenv("VIPAII_GEMINI_STREAM_TIMEOUT"); timeout != "" {
		config.Gemini.StreamTimeout = timeout
	}
	if rateLimit := os.Getenv("VIPAII_GEMINI_RATE_LIMIT"); rateLimit != "" {
		config.Gemini.RateLimit = rateLimit
	}
	if temperature := os.Getenv("VIPAII_GEMINI_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Gemini.Temperature = float32(t)
		}
	}
	if baseURL := os.Getenv("VIPAII_GEMINI_BASE_URL"); baseURL != "" {
		config.Gemini.BaseURL = baseURL
	}

	// Key gate configuration
	if enabled := os.Getenv("VIPAII_KEYGATE_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.KeyGate.Enabled = b
		}
	}
	if reverify := os.Getenv("VIPAII_KEYGATE_REVERIFY_AFTER_PROMPT"); reverify != "" {
		if b, err := strconv.ParseBool(reverify); err == nil {
			config.KeyGate.ReverifyAfterPrompt = b
		}
	}

	// History configuration
	if enabled := os.Getenv("VIPAII_HISTORY_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.History.Enabled = b
		}
	}
	if retention := os.Getenv("VIPAII_HISTORY_RETENTION"); retention != "" {
		config.History.Retention = retention
	}

	// Upload configuration
	if maxBytes := os.Getenv("VIPAII_UPLOAD_MAX_BYTES"); maxBytes != "" {
		if n, err := strconv.ParseInt(maxBytes, 10, 64); err == nil && n > 0 {
			config.Upload.MaxBytes = n
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks durations and schedules so misconfiguration fails at startup
func (c *Config) Validate() error {
	durations := map[string]string{
		"gemini.timeout":        c.Gemini.Timeout,
		"gemini.stream_timeout": c.Gemini.StreamTimeout,
		"gemini.rate_limit":     c.Gemini.RateLimit,
		"history.retention":     c.History.Retention,
		"sessions.idle_timeout": c.Sessions.IdleTimeout,
	}
	for name, value := range durations {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid duration for %s '%s': %w", name, value, err)
		}
	}

	schedules := map[string]string{
		"history.prune_schedule":     c.History.PruneSchedule,
		"sessions.sweep_schedule":    c.Sessions.SweepSchedule,
		"storage.badger.gc_schedule": c.Storage.Badger.GCSchedule,
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	for name, value := range schedules {
		if value == "" {
			continue
		}
		if _, err := parser.Parse(value); err != nil {
			return fmt.Errorf("invalid cron schedule for %s '%s': %w", name, value, err)
		}
	}

	return nil
}

// Duration parses a duration string, returning fallback when empty or invalid
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// KV store keys shared by the key gate, the key endpoints and the Gemini backend
const (
	GeminiAPIKeyName          = "gemini_api_key"
	KeySelectionRequestedName = "gemini_key_selection_requested"
)

// apiKeyEnvVars lists the environment variables consulted for each named key, in priority order
var apiKeyEnvVars = map[string][]string{
	GeminiAPIKeyName: {"VIPAII_GEMINI_API_KEY", "GEMINI_API_KEY", "API_KEY"},
}

// ResolveAPIKey resolves an API key with priority: KV store (selected key) -> environment -> config fallback.
// kvStorage may be nil.
func ResolveAPIKey(ctx context.Context, kvStorage interfaces.KeyValueStorage, name string, configFallback string) (string, error) {
	if kvStorage != nil {
		if value, err := kvStorage.Get(ctx, name); err == nil && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value), nil
		}
	}

	for _, envVar := range apiKeyEnvVars[name] {
		if value := strings.TrimSpace(os.Getenv(envVar)); value != "" {
			return value, nil
		}
	}

	if value := strings.TrimSpace(configFallback); value != "" {
		return value, nil
	}

	return "", fmt.Errorf("API key '%s' not found in KV store, environment or config", name)
}

// IsProduction returns true when running in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
