package config

import "time"

// ConfigFileEnv names the environment variable pointing at the YAML config file
const ConfigFileEnv = "ASSISTANT_CONFIG_FILE"

// Timeout constants
const (
	// HTTP timeouts
	DefaultHTTPTimeout = 60 * time.Second
	ServerReadTimeout  = 15 * time.Second
	ShutdownTimeout    = 30 * time.Second

	// Database timeouts
	DatabaseConnMaxLifetime = 5 * time.Minute
)

// Server defaults
const (
	DefaultPort               = "8000"
	DefaultRateLimitPerMinute = 5
	DefaultMaxAIConcurrent    = 4
)

// DefaultCORSOrigins lists the front-ends allowed to call the API
var DefaultCORSOrigins = []string{
	"https://direct-ed-e-learning.vercel.app",
	"http://localhost:5173",
	"http://127.0.0.1:5173",
	"http://localhost:8000",
	"http://127.0.0.1:8000",
}

// LLM defaults
const (
	GroqBaseURL        = "https://api.groq.com/openai/v1"
	DefaultTemperature = 0.7
)

// Retrieval defaults
const (
	DefaultCollection     = "directed_docs"
	DefaultTopK           = 4
	DefaultEmbeddingModel = "embedding-001"
)

// Content defaults
const (
	DefaultNumItems = 5
	DefaultLevel    = "beginner"
	MaxContentItems = 50
)

// DefaultCurriculum is walked in order by adaptive learning once no struggling topic remains
var DefaultCurriculum = []string{"Langchain", "LLM reasoning", "Design"}

// Security configuration constants
const (
	// Content Security Policy
	DefaultCSP = "default-src 'self'; style-src 'self' 'unsafe-inline'; script-src 'self' 'unsafe-inline'; img-src 'self' data:;"
)
