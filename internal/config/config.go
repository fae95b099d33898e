package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Index     IndexConfig     `json:"index"`
	Sources   SourcesConfig   `json:"sources"`
	Embedding EmbeddingConfig `json:"embedding"`
	Build     BuildConfig     `json:"build"`
	Logging   LoggingConfig   `json:"logging"`
}

// IndexConfig represents the persisted vector index configuration
type IndexConfig struct {
	Dir        string `json:"dir"        env:"INDEX_DIR"  envDefault:"~/.local/share/dbkb/index"`
	Collection string `json:"collection" env:"COLLECTION" envDefault:"database_knowledge"`
}

// SourcesConfig points at the two knowledge-base inputs
type SourcesConfig struct {
	QueryJSON string `json:"query_json" env:"QUERY_JSON" envDefault:"./data/query_business_requirements.json"`
	SchemaSQL string `json:"schema_sql" env:"SCHEMA_SQL" envDefault:"./data/schema.sql"`
}

// EmbeddingConfig represents the embedding service configuration.
// Any OpenAI-compatible /embeddings endpoint works (OpenAI, OpenRouter, local
// gateways); changing the model or dimensions invalidates the persisted index.
type EmbeddingConfig struct {
	BaseURL    string `json:"base_url"   env:"EMBEDDING_BASE_URL" envDefault:"https://api.openai.com/v1"`
	APIKey     string `json:"-"          env:"API_KEY"`
	Model      string `json:"model"      env:"EMBEDDING_MODEL"    envDefault:"text-embedding-3-large"`
	Dimensions int    `json:"dimensions" env:"EMBEDDING_DIMS"     envDefault:"3072"`
	Timeout    string `json:"timeout"    env:"EMBEDDING_TIMEOUT"  envDefault:"60s"`
}

// BuildConfig represents index-build tuning parameters
type BuildConfig struct {
	BatchSize     int `json:"batch_size"     env:"BATCH_SIZE"     envDefault:"100"`
	BulkThreshold int `json:"bulk_threshold" env:"BULK_THRESHOLD" envDefault:"100"`
	ChunkSize     int `json:"chunk_size"     env:"CHUNK_SIZE"     envDefault:"2000"`
	ChunkOverlap  int `json:"chunk_overlap"  env:"CHUNK_OVERLAP"  envDefault:"200"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `json:"level"  env:"LOG_LEVEL"  envDefault:"info"`   // debug, info, warn, error
	Format string `json:"format" env:"LOG_FORMAT" envDefault:"text"`   // text, json
	Output string `json:"output" env:"LOG_OUTPUT" envDefault:"stderr"` // stdout, stderr, file
	File   string `json:"file"   env:"LOG_FILE"   envDefault:"~/.local/share/dbkb/logs/dbkb.log"`
}

// Load loads configuration from .env, config file, and environment variables
func Load() (*Config, error) {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	config := &Config{}

	// Load from config file if it exists
	configPath := getConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		if err := loadConfigFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Apply environment variable overrides (also sets defaults)
	if err := env.ParseWithOptions(config, env.Options{
		Prefix: "DBKB_",
	}); err != nil {
		return nil, fmt.Errorf("failed to parse environment variables: %w", err)
	}

	// DBKB_API_KEY wins, the conventional OPENAI_API_KEY is the fallback
	if config.Embedding.APIKey == "" {
		config.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	config.ExpandAllPaths()

	return config, nil
}

// loadConfigFromFile loads configuration from a JSON file
func loadConfigFromFile(config *Config, configPath string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var fileConfig Config
	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	mergeConfigs(config, &fileConfig)

	return nil
}

// mergeConfigs merges source configuration into target configuration
func mergeConfigs(target, source *Config) {
	var mergeValues func(t, s reflect.Value)
	mergeValues = func(t, s reflect.Value) {
		if t.Kind() != s.Kind() {
			return
		}

		if t.Kind() == reflect.Struct {
			for i := range s.NumField() {
				mergeValues(t.Field(i), s.Field(i))
			}
		} else if !s.IsZero() {
			t.Set(s)
		}
	}

	mergeValues(reflect.ValueOf(target).Elem(), reflect.ValueOf(source).Elem())
}

// validateConfig validates the configuration for common errors
func validateConfig(config *Config) error {
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf(
			"invalid log level: %s (must be debug, info, warn, or error)",
			config.Logging.Level,
		)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[strings.ToLower(config.Logging.Format)] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", config.Logging.Format)
	}

	validLogOutputs := map[string]bool{
		"stdout": true, "stderr": true, "file": true,
	}
	if !validLogOutputs[strings.ToLower(config.Logging.Output)] {
		return fmt.Errorf(
			"invalid log output: %s (must be stdout, stderr, or file)",
			config.Logging.Output,
		)
	}

	if _, err := time.ParseDuration(config.Embedding.Timeout); err != nil {
		return fmt.Errorf("invalid embedding timeout: %s", config.Embedding.Timeout)
	}

	if config.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding dimensions must be positive: %d", config.Embedding.Dimensions)
	}

	if config.Build.BatchSize <= 0 {
		return fmt.Errorf("build batch size must be positive: %d", config.Build.BatchSize)
	}

	if config.Build.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive: %d", config.Build.ChunkSize)
	}

	if config.Build.ChunkOverlap < 0 || config.Build.ChunkOverlap >= config.Build.ChunkSize {
		return fmt.Errorf(
			"chunk overlap must be non-negative and smaller than chunk size: overlap=%d size=%d",
			config.Build.ChunkOverlap, config.Build.ChunkSize,
		)
	}

	return nil
}

// RequireEmbedding verifies that the embedding service credentials are set.
// Called by commands that talk to the embedding API, before any I/O happens.
func (c *Config) RequireEmbedding() error {
	if c.Embedding.APIKey == "" {
		return fmt.Errorf(
			"embedding API key is not configured: set OPENAI_API_KEY (or add it to .env)",
		)
	}

	return nil
}

// getConfigPath returns the path to the configuration file
func getConfigPath() string {
	if configPath := os.Getenv("DBKB_CONFIG"); configPath != "" {
		return expandPath(configPath)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}

	return filepath.Join(homeDir, ".config", "dbkb", "config.json")
}

// expandPath expands ~ to home directory in file paths
func expandPath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:])
	}

	return path
}

// ExpandAllPaths expands all paths in the configuration
func (c *Config) ExpandAllPaths() {
	c.Index.Dir = expandPath(c.Index.Dir)
	c.Sources.QueryJSON = expandPath(c.Sources.QueryJSON)
	c.Sources.SchemaSQL = expandPath(c.Sources.SchemaSQL)
	c.Logging.File = expandPath(c.Logging.File)
}

// EmbeddingTimeout returns the parsed embedding request timeout
func (c *Config) EmbeddingTimeout() time.Duration {
	d, err := time.ParseDuration(c.Embedding.Timeout)
	if err != nil {
		return 60 * time.Second
	}

	return d
}
