// Package config provides unified configuration for all Triplake services.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Mode represents the service mode to run.
type Mode string

const (
	ModeAll    Mode = "all"
	ModeIngest Mode = "ingest"
	ModeServe  Mode = "serve"
)

// Config holds the unified configuration for all Triplake services.
type Config struct {
	// Mode specifies which services to run: all, ingest, serve
	Mode Mode `json:"mode" yaml:"mode"`

	// DataDir is the base directory for all data files
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// HTTP configuration
	HTTP HTTPConfig `json:"http" yaml:"http"`

	// API configuration
	API APIConfig `json:"api" yaml:"api"`

	// Ingest pipeline configuration
	Ingest IngestConfig `json:"ingest" yaml:"ingest"`

	// Query configuration
	Query QueryConfig `json:"query" yaml:"query"`

	// Source (file drop) configuration
	Source SourceConfig `json:"source" yaml:"source"`

	// Store configuration
	Store StoreConfig `json:"store" yaml:"store"`
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	// Addr is the HTTP address for the read API
	Addr string `json:"addr" yaml:"addr"`

	// ReadTimeout is the HTTP read timeout
	ReadTimeout time.Duration `json:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout is the HTTP write timeout
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout is the HTTP idle timeout
	IdleTimeout time.Duration `json:"idle_timeout" yaml:"idle_timeout"`
}

// APIConfig holds read-API configuration.
type APIConfig struct {
	// Key is the API key required on read requests; empty disables auth
	Key string `json:"key" yaml:"key"`
}

// IngestConfig holds ingestion pipeline configuration.
type IngestConfig struct {
	// RawDir is the directory downloaded drop files are staged into
	RawDir string `json:"raw_dir" yaml:"raw_dir"`

	// ChunkSize is the number of rows processed per cleaning chunk (default 100000)
	ChunkSize int `json:"chunk_size" yaml:"chunk_size"`

	// FileConcurrency is the number of files ingested in parallel
	FileConcurrency int `json:"file_concurrency" yaml:"file_concurrency"`
}

// QueryConfig holds query configuration.
type QueryConfig struct {
	// DefaultLimit is the page size used when the caller omits limit
	DefaultLimit int `json:"default_limit" yaml:"default_limit"`

	// MaxLimit is the hard cap; larger requested limits are clamped, not rejected
	MaxLimit int `json:"max_limit" yaml:"max_limit"`
}

// SourceConfig holds file-drop source configuration.
type SourceConfig struct {
	// Type is the source type: local, s3
	Type string `json:"type" yaml:"type"`

	// Path is the local drop directory (for local type)
	Path string `json:"path" yaml:"path"`

	// S3 configuration (for s3 type)
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 drop configuration.
type S3Config struct {
	// Bucket is the S3 bucket name
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// Prefix limits listing to keys under this prefix
	Prefix string `json:"prefix" yaml:"prefix"`
}

// StoreConfig holds durable-store configuration.
type StoreConfig struct {
	// Path is the SQLite database path
	Path string `json:"path" yaml:"path"`
}

// DefaultConfig returns the default configuration for local development.
func DefaultConfig() *Config {
	return &Config{
		Mode:    ModeAll,
		DataDir: "./data/triplake",
		HTTP: HTTPConfig{
			Addr:         ":8080",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		API: APIConfig{
			Key: "",
		},
		Ingest: IngestConfig{
			RawDir:          "",
			ChunkSize:       100000,
			FileConcurrency: 4,
		},
		Query: QueryConfig{
			DefaultLimit: 100,
			MaxLimit:     500,
		},
		Source: SourceConfig{
			Type: "local",
			Path: "",
		},
		Store: StoreConfig{
			Path: "",
		},
	}
}

// Resolve resolves relative paths and sets defaults based on DataDir.
func (c *Config) Resolve() {
	if c.DataDir == "" {
		c.DataDir = "./data/triplake"
	}

	if c.Ingest.RawDir == "" {
		c.Ingest.RawDir = filepath.Join(c.DataDir, "raw")
	}

	if c.Source.Type == "local" && c.Source.Path == "" {
		c.Source.Path = filepath.Join(c.DataDir, "drop")
	}

	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(c.DataDir, "trips.db")
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeAll, ModeIngest, ModeServe:
		// Valid modes
	default:
		return fmt.Errorf("invalid mode: %s (must be all, ingest, or serve)", c.Mode)
	}

	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.Source.Type != "local" && c.Source.Type != "s3" {
		return fmt.Errorf("invalid source type: %s (must be local or s3)", c.Source.Type)
	}

	if c.Source.Type == "s3" && c.Source.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required when source type is s3")
	}

	if c.Ingest.ChunkSize <= 0 {
		return fmt.Errorf("ingest.chunk_size must be positive, got %d", c.Ingest.ChunkSize)
	}

	if c.Ingest.FileConcurrency <= 0 {
		return fmt.Errorf("ingest.file_concurrency must be positive, got %d", c.Ingest.FileConcurrency)
	}

	if c.Query.DefaultLimit <= 0 || c.Query.MaxLimit <= 0 {
		return fmt.Errorf("query limits must be positive")
	}

	if c.Query.DefaultLimit > c.Query.MaxLimit {
		return fmt.Errorf("query.default_limit (%d) must not exceed query.max_limit (%d)",
			c.Query.DefaultLimit, c.Query.MaxLimit)
	}

	return nil
}

// ShouldRunIngest returns true if the ingestion service should run.
func (c *Config) ShouldRunIngest() bool {
	return c.Mode == ModeAll || c.Mode == ModeIngest
}

// ShouldRunServe returns true if the read API should run.
func (c *Config) ShouldRunServe() bool {
	return c.Mode == ModeAll || c.Mode == ModeServe
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file format: %s", ext)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the TRIPLAKE_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("TRIPLAKE_MODE"); v != "" {
		cfg.Mode = Mode(v)
	}
	if v := os.Getenv("TRIPLAKE_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}

	// HTTP configuration
	if v := os.Getenv("TRIPLAKE_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}

	// API configuration
	if v := os.Getenv("TRIPLAKE_API_KEY"); v != "" {
		cfg.API.Key = v
	}

	// Ingest configuration
	if v := os.Getenv("TRIPLAKE_INGEST_CHUNK_SIZE"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Ingest.ChunkSize)
	}
	if v := os.Getenv("TRIPLAKE_INGEST_FILE_CONCURRENCY"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Ingest.FileConcurrency)
	}
	if v := os.Getenv("TRIPLAKE_INGEST_RAW_DIR"); v != "" {
		cfg.Ingest.RawDir = v
	}

	// Query configuration
	if v := os.Getenv("TRIPLAKE_QUERY_DEFAULT_LIMIT"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Query.DefaultLimit)
	}
	if v := os.Getenv("TRIPLAKE_QUERY_MAX_LIMIT"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Query.MaxLimit)
	}

	// Source configuration
	if v := os.Getenv("TRIPLAKE_SOURCE_TYPE"); v != "" {
		cfg.Source.Type = v
	}
	if v := os.Getenv("TRIPLAKE_SOURCE_PATH"); v != "" {
		cfg.Source.Path = v
	}
	if v := os.Getenv("TRIPLAKE_S3_BUCKET"); v != "" {
		cfg.Source.S3.Bucket = v
	}
	if v := os.Getenv("TRIPLAKE_S3_REGION"); v != "" {
		cfg.Source.S3.Region = v
	}
	if v := os.Getenv("TRIPLAKE_S3_ENDPOINT"); v != "" {
		cfg.Source.S3.Endpoint = v
	}
	if v := os.Getenv("TRIPLAKE_S3_PREFIX"); v != "" {
		cfg.Source.S3.Prefix = v
	}

	// Store configuration
	if v := os.Getenv("TRIPLAKE_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
}

// EnsureDirectories creates all required directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.DataDir,
		c.Ingest.RawDir,
	}
	if c.Source.Type == "local" {
		dirs = append(dirs, c.Source.Path)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
