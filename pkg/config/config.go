package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Server struct {
		Listen  string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
		Timeout time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
	} `yaml:"server" json:"server" jsonschema:"description=Server configuration"`

	Storage struct {
		DSN             string `yaml:"dsn" json:"dsn" jsonschema:"default=file:brief.db?cache=shared&mode=rwc,description=SQLite connection string for the blob store"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns" jsonschema:"default=4,description=Maximum number of open connections"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns" jsonschema:"default=2,description=Maximum number of idle connections"`
		ConnMaxLifetime int    `yaml:"conn_max_lifetime" json:"conn_max_lifetime" jsonschema:"default=3600,description=Connection maximum lifetime in seconds"`
	} `yaml:"storage" json:"storage" jsonschema:"description=Storage configuration"`

	Feed FeedConfig `yaml:"feed" json:"feed" jsonschema:"description=Substack feed configuration"`

	Extraction ExtractionConfig `yaml:"extraction" json:"extraction" jsonschema:"description=Content extraction configuration"`

	LLM LLMConfig `yaml:"llm" json:"llm" jsonschema:"description=LLM configuration for classification and report synthesis"`

	Cron CronConfig `yaml:"cron" json:"cron" jsonschema:"description=External ingestion trigger configuration"`
}

// FeedConfig holds feed fetch settings
type FeedConfig struct {
	URL            string        `yaml:"url" json:"url" jsonschema:"required,description=Feed URL to ingest from"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Feed fetch timeout"`
	CacheTTL       time.Duration `yaml:"cache_ttl" json:"cache_ttl" jsonschema:"default=5m,description=Freshness window for the feed read cache"`
	UpdateInterval time.Duration `yaml:"update_interval" json:"update_interval" jsonschema:"description=Internal ingestion interval; 0 disables the periodic scheduler"`
}

// ExtractionConfig holds content extraction settings for posts that carry a
// URL but no content
type ExtractionConfig struct {
	Enabled       bool          `yaml:"enabled" json:"enabled" jsonschema:"default=false,description=Enable content extraction"`
	Timeout       time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Extraction timeout per post"`
	UserAgent     string        `yaml:"user_agent" json:"user_agent" jsonschema:"default=ContrarianBrief/1.0,description=User agent for extraction requests"`
	MinTextLength int           `yaml:"min_text_length" json:"min_text_length" jsonschema:"default=100,description=Minimum extracted text length to consider valid"`
	MaxTextLength int           `yaml:"max_text_length" json:"max_text_length" jsonschema:"default=8000,description=Extracted text is truncated to this length"`
}

// LLMConfig holds LLM settings shared by the classifier and the synthesizer
type LLMConfig struct {
	Endpoint        string        `yaml:"endpoint" json:"endpoint" jsonschema:"description=OpenAI-compatible API endpoint (optional)"`
	APIKey          string        `yaml:"api_key" json:"api_key" jsonschema:"description=API key (can use environment variable)"`
	Model           string        `yaml:"model" json:"model" jsonschema:"required,description=Model name (e.g. gpt-4o-mini)"`
	Temperature     float64       `yaml:"temperature" json:"temperature" jsonschema:"default=0.3,description=Temperature for response generation"`
	ClassifyTokens  int           `yaml:"classify_tokens" json:"classify_tokens" jsonschema:"default=500,description=Maximum tokens for a classification response"`
	ReportTokens    int           `yaml:"report_tokens" json:"report_tokens" jsonschema:"default=1500,description=Maximum tokens for a report response"`
	Timeout         time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Request timeout"`
	ReportVoice     string        `yaml:"report_voice" json:"report_voice" jsonschema:"description=System prompt for report synthesis (optional)"`
	ClassifyPrompt  string        `yaml:"classify_prompt" json:"classify_prompt" jsonschema:"description=System prompt for classification (optional)"`
	MaxContentChars int           `yaml:"max_content_chars" json:"max_content_chars" jsonschema:"default=1000,description=Post content is truncated to this length before classification"`
}

// CronConfig holds settings for the externally invoked ingestion trigger
type CronConfig struct {
	Secret     string `yaml:"secret" json:"secret" jsonschema:"description=Bearer credential expected on cron requests (optional)"`
	Production bool   `yaml:"production" json:"production" jsonschema:"default=false,description=Reject unauthenticated cron requests instead of warning"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// set defaults for server
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = ":8080"
	}
	if cfg.Server.Timeout == 0 {
		cfg.Server.Timeout = 30 * time.Second
	}

	// set defaults for storage
	if cfg.Storage.DSN == "" {
		cfg.Storage.DSN = "file:brief.db?cache=shared&mode=rwc"
	}
	if cfg.Storage.MaxOpenConns == 0 {
		cfg.Storage.MaxOpenConns = 4
	}
	if cfg.Storage.MaxIdleConns == 0 {
		cfg.Storage.MaxIdleConns = 2
	}
	if cfg.Storage.ConnMaxLifetime == 0 {
		cfg.Storage.ConnMaxLifetime = 3600
	}

	// set defaults for feed
	if cfg.Feed.Timeout == 0 {
		cfg.Feed.Timeout = 30 * time.Second
	}
	if cfg.Feed.CacheTTL == 0 {
		cfg.Feed.CacheTTL = 5 * time.Minute
	}

	// set defaults for extraction
	if cfg.Extraction.Timeout == 0 {
		cfg.Extraction.Timeout = 30 * time.Second
	}
	if cfg.Extraction.UserAgent == "" {
		cfg.Extraction.UserAgent = "ContrarianBrief/1.0"
	}
	if cfg.Extraction.MinTextLength == 0 {
		cfg.Extraction.MinTextLength = 100
	}
	if cfg.Extraction.MaxTextLength == 0 {
		cfg.Extraction.MaxTextLength = 8000
	}

	// set defaults for LLM
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.3
	}
	if cfg.LLM.ClassifyTokens == 0 {
		cfg.LLM.ClassifyTokens = 500
	}
	if cfg.LLM.ReportTokens == 0 {
		cfg.LLM.ReportTokens = 1500
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 30 * time.Second
	}
	if cfg.LLM.MaxContentChars == 0 {
		cfg.LLM.MaxContentChars = 1000
	}

	// validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// verify against embedded schema
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		// log warning but don't fail - schema validation is supplementary
		fmt.Printf("warning: schema validation failed: %v\n", err)
	}

	return &cfg, nil
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	if cfg.Feed.URL == "" {
		return fmt.Errorf("feed.url is required")
	}
	if cfg.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2")
	}
	if cfg.LLM.MaxContentChars < 0 {
		return fmt.Errorf("llm.max_content_chars must be non-negative")
	}
	if cfg.Feed.CacheTTL < 0 {
		return fmt.Errorf("feed.cache_ttl must be non-negative")
	}
	return nil
}

// GetServerConfig returns server listen address and timeout
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}
