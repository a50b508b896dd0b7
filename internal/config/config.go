// Package config handles application configuration loading from a YAML file and environment variables.
package config

import (
	"errors"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	contextutils "directed/internal/utils"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported LLM providers
const (
	ProviderGroq      = "groq"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderMock      = "mock"
	ProviderNone      = "none"
)

// Supported profile store drivers
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig `json:"server" yaml:"server"`

	// Language model used for tutoring answers, LLM quiz mode and the learning pipeline
	LLM LLMConfig `json:"llm" yaml:"llm"`

	// Vector store backing the document retriever
	Retrieval RetrievalConfig `json:"retrieval" yaml:"retrieval"`

	// Learning profile persistence
	ProfileStore ProfileStoreConfig `json:"profile_store" yaml:"profile_store"`

	// Content generation defaults
	Content ContentConfig `json:"content" yaml:"content"`

	// OpenTelemetry Configuration
	OpenTelemetry OpenTelemetryConfig `json:"open_telemetry" yaml:"open_telemetry"`

	// Internal fields
	IsTest bool `json:"is_test" yaml:"is_test"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host               string   `json:"host" yaml:"host"`
	Port               string   `json:"port" yaml:"port"`
	Debug              bool     `json:"debug" yaml:"debug"`
	LogLevel           string   `json:"log_level" yaml:"log_level"`
	CORSOrigins        []string `json:"cors_origins" yaml:"cors_origins"`
	RateLimitPerMinute int      `json:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
	MaxAIConcurrent    int      `json:"max_ai_concurrent" yaml:"max_ai_concurrent"`
}

// LLMConfig configures the language model provider
type LLMConfig struct {
	Provider    string        `json:"provider" yaml:"provider"` // groq, openai, anthropic, gemini, mock or none
	APIKey      string        `json:"api_key" yaml:"api_key"`
	Model       string        `json:"model" yaml:"model"`
	BaseURL     string        `json:"base_url" yaml:"base_url"`
	Temperature float64       `json:"temperature" yaml:"temperature"`
	MaxTokens   int           `json:"max_tokens" yaml:"max_tokens"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout"`
	Retry       RetryConfig   `json:"retry" yaml:"retry"`
}

// RetryConfig controls retry behaviour for LLM calls
type RetryConfig struct {
	MaxAttempts int           `json:"max_attempts" yaml:"max_attempts"`
	InitialWait time.Duration `json:"initial_wait" yaml:"initial_wait"`
	MaxWait     time.Duration `json:"max_wait" yaml:"max_wait"`
}

// RetrievalConfig configures the chromem-backed retriever
type RetrievalConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	Path           string `json:"path" yaml:"path"` // empty means in-memory
	Collection     string `json:"collection" yaml:"collection"`
	TopK           int    `json:"top_k" yaml:"top_k"`
	EmbeddingModel string `json:"embedding_model" yaml:"embedding_model"`
	APIKey         string `json:"api_key" yaml:"api_key"`
}

// ProfileStoreConfig selects the learning profile backend
type ProfileStoreConfig struct {
	Driver   string         `json:"driver" yaml:"driver"`
	Database DatabaseConfig `json:"database" yaml:"database"`
}

// ContentConfig holds content generation defaults
type ContentConfig struct {
	DefaultNumItems int      `json:"default_num_items" yaml:"default_num_items"`
	DefaultLevel    string   `json:"default_level" yaml:"default_level"`
	LLMQuiz         bool     `json:"llm_quiz" yaml:"llm_quiz"`
	Curriculum      []string `json:"curriculum" yaml:"curriculum"`
}

// OpenTelemetryConfig holds all OpenTelemetry-related configuration
type OpenTelemetryConfig struct {
	Endpoint       string            `json:"endpoint" yaml:"endpoint"`               // Default: "localhost:4317"
	Protocol       string            `json:"protocol" yaml:"protocol"`               // "grpc" or "http", default: "grpc"
	Insecure       bool              `json:"insecure" yaml:"insecure"`               // Default: true (for localhost)
	Headers        map[string]string `json:"headers" yaml:"headers"`                 // For authenticated endpoints
	ServiceName    string            `json:"service_name" yaml:"service_name"`       // Default: "directed-assistant"
	ServiceVersion string            `json:"service_version" yaml:"service_version"` // From version package
	EnableTracing  bool              `json:"enable_tracing" yaml:"enable_tracing"`
	EnableMetrics  bool              `json:"enable_metrics" yaml:"enable_metrics"`
	EnableLogging  bool              `json:"enable_logging" yaml:"enable_logging"`
	SamplingRate   float64           `json:"sampling_rate" yaml:"sampling_rate"` // Default: 1.0 (100%)
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	URL             string        `json:"url" yaml:"url"`
	MaxOpenConns    int           `json:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime"`
}

// NewConfig loads configuration from YAML file first, then overrides with environment variables
func NewConfig() (result0 *Config, err error) {
	// A missing .env is normal outside local development
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to load .env: %w", err)
	}

	config, err := loadConfigWithOverrides()
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to load config: %w", err)
	}

	config.overrideFromEnv()
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks values that would otherwise fail late at runtime
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderGroq, ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderMock, ProviderNone:
	default:
		return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unknown llm provider %q", c.LLM.Provider)
	}

	switch c.ProfileStore.Driver {
	case StoreMemory:
	case StorePostgres:
		if c.ProfileStore.Database.URL == "" {
			return contextutils.WrapError(contextutils.ErrMissingRequired, "profile_store.database.url is required for the postgres driver")
		}
	default:
		return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "unknown profile store driver %q", c.ProfileStore.Driver)
	}

	if c.Content.DefaultNumItems < 1 || c.Content.DefaultNumItems > MaxContentItems {
		return contextutils.WrapErrorf(contextutils.ErrInvalidInput, "content.default_num_items must be between 1 and %d", MaxContentItems)
	}

	return nil
}

// LLMEnabled reports whether a language model should be wired in
func (c *Config) LLMEnabled() bool {
	return c.LLM.Provider != ProviderNone
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = DefaultPort
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = append([]string(nil), DefaultCORSOrigins...)
	}
	if c.Server.RateLimitPerMinute <= 0 {
		c.Server.RateLimitPerMinute = DefaultRateLimitPerMinute
	}
	if c.Server.MaxAIConcurrent <= 0 {
		c.Server.MaxAIConcurrent = DefaultMaxAIConcurrent
	}

	if c.LLM.Provider == "" {
		c.LLM.Provider = ProviderNone
	}
	if c.LLM.Provider == ProviderGroq {
		if c.LLM.BaseURL == "" {
			c.LLM.BaseURL = GroqBaseURL
		}
		if c.LLM.APIKey == "" {
			c.LLM.APIKey = os.Getenv("GROQ_API_KEY")
		}
		if c.LLM.Model == "" {
			c.LLM.Model = os.Getenv("GROQ_MODEL_NAME")
		}
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = DefaultTemperature
	}
	if c.LLM.Timeout <= 0 {
		c.LLM.Timeout = DefaultHTTPTimeout
	}
	if c.LLM.Retry.MaxAttempts <= 0 {
		c.LLM.Retry.MaxAttempts = 3
	}
	if c.LLM.Retry.InitialWait <= 0 {
		c.LLM.Retry.InitialWait = time.Second
	}
	if c.LLM.Retry.MaxWait <= 0 {
		c.LLM.Retry.MaxWait = 30 * time.Second
	}

	if c.Retrieval.Collection == "" {
		c.Retrieval.Collection = DefaultCollection
	}
	if c.Retrieval.TopK <= 0 {
		c.Retrieval.TopK = DefaultTopK
	}
	if c.Retrieval.EmbeddingModel == "" {
		c.Retrieval.EmbeddingModel = DefaultEmbeddingModel
	}

	if c.ProfileStore.Driver == "" {
		c.ProfileStore.Driver = StoreMemory
	}
	if c.ProfileStore.Database.ConnMaxLifetime <= 0 {
		c.ProfileStore.Database.ConnMaxLifetime = DatabaseConnMaxLifetime
	}

	if c.Content.DefaultNumItems == 0 {
		c.Content.DefaultNumItems = DefaultNumItems
	}
	if c.Content.DefaultLevel == "" {
		c.Content.DefaultLevel = DefaultLevel
	}
	if len(c.Content.Curriculum) == 0 {
		c.Content.Curriculum = append([]string(nil), DefaultCurriculum...)
	}

	if c.OpenTelemetry.ServiceName == "" {
		c.OpenTelemetry.ServiceName = "directed-assistant"
	}
	if c.OpenTelemetry.SamplingRate == 0 {
		c.OpenTelemetry.SamplingRate = 1.0
	}
}

// overrideFromEnv overrides config values with environment variables using reflection
func (c *Config) overrideFromEnv() {
	overrideStructFromEnv(c)
}

// overrideStructFromEnv recursively overrides struct fields with environment variables
func overrideStructFromEnv(v interface{}) {
	overrideStructFromEnvWithPrefix(v, "")
}

// overrideStructFromEnvWithPrefix walks struct fields and maps each yaml tag path to an
// upper-case env key, e.g. llm.retry.max_attempts -> LLM_RETRY_MAX_ATTEMPTS
func overrideStructFromEnvWithPrefix(v interface{}, prefix string) {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return
	}

	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		if !field.CanSet() {
			continue
		}

		yamlTag := fieldType.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}

		envKey := strings.ToUpper(strings.ReplaceAll(yamlTag, "-", "_"))
		if prefix != "" {
			envKey = prefix + "_" + envKey
		}

		// time.Duration is an int64 kind, accept both "90s" and plain nanoseconds
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			if envVal := os.Getenv(envKey); envVal != "" {
				if d, err := time.ParseDuration(envVal); err == nil {
					field.SetInt(int64(d))
				} else if n, err := strconv.ParseInt(envVal, 10, 64); err == nil {
					field.SetInt(n)
				}
			}
			continue
		}

		switch field.Kind() {
		case reflect.String:
			if envVal := os.Getenv(envKey); envVal != "" {
				field.SetString(envVal)
			}
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if envVal := os.Getenv(envKey); envVal != "" {
				if intVal, err := strconv.ParseInt(envVal, 10, 64); err == nil {
					field.SetInt(intVal)
				}
			}
		case reflect.Float32, reflect.Float64:
			if envVal := os.Getenv(envKey); envVal != "" {
				if floatVal, err := strconv.ParseFloat(envVal, 64); err == nil {
					field.SetFloat(floatVal)
				}
			}
		case reflect.Bool:
			if envVal := os.Getenv(envKey); envVal != "" {
				if boolVal, err := strconv.ParseBool(envVal); err == nil {
					field.SetBool(boolVal)
				}
			}
		case reflect.Slice:
			if envVal := os.Getenv(envKey); envVal != "" {
				// Comma separated string slices (CORS origins, curriculum)
				if field.Type().Elem().Kind() == reflect.String {
					parts := strings.Split(envVal, ",")
					for i := range parts {
						parts[i] = strings.TrimSpace(parts[i])
					}
					field.Set(reflect.ValueOf(parts))
				}
			}
		case reflect.Struct:
			if field.CanAddr() {
				fieldPrefix := strings.ToUpper(strings.ReplaceAll(yamlTag, "-", "_"))
				if prefix != "" {
					fieldPrefix = prefix + "_" + fieldPrefix
				}
				overrideStructFromEnvWithPrefix(field.Addr().Interface(), fieldPrefix)
			}
		}
	}
}

// loadConfigWithOverrides loads the config file named by ASSISTANT_CONFIG_FILE, falling back to
// config.yaml. A missing default file yields an empty config so the service can run on env alone.
func loadConfigWithOverrides() (result0 *Config, err error) {
	if envPath := os.Getenv(ConfigFileEnv); envPath != "" {
		config, err := loadConfigFromFile(envPath)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to load config from %s: %w", envPath, err)
		}
		return config, nil
	}

	config, err := loadConfigFromFile("config.yaml")
	if errors.Is(err, os.ErrNotExist) {
		return &Config{}, nil
	}
	return config, err
}

// loadConfigFromFile loads configuration from a specific file
func loadConfigFromFile(path string) (result0 *Config, err error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(yamlFile, &config); err != nil {
		return nil, err
	}

	return &config, nil
}
