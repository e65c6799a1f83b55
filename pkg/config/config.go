package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the submission harvester
type Config struct {
	// Remote API settings
	API APIConfig `yaml:"api" json:"api"`

	// Harvest loop settings
	Harvest HarvestConfig `yaml:"harvest" json:"harvest"`

	// Retry and backoff configuration
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Relational loader settings
	Database DatabaseConfig `yaml:"database" json:"database"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// APIConfig holds settings for the remote judge-platform API
type APIConfig struct {
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
}

// HarvestConfig holds settings for the paginated harvest loop
type HarvestConfig struct {
	PageLimit      int    `yaml:"page_limit" json:"page_limit"`
	ChunkSize      int    `yaml:"chunk_size" json:"chunk_size"`
	DataFile       string `yaml:"data_file" json:"data_file"`
	CheckpointFile string `yaml:"checkpoint_file" json:"checkpoint_file"`
	ContestID      int    `yaml:"contest_id" json:"contest_id"`
	ProblemID      int    `yaml:"problem_id" json:"problem_id"`
}

// RetryConfig holds retry and backoff configuration
type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts" json:"max_attempts"`
	MaxElapsedTime time.Duration `yaml:"max_elapsed_time" json:"max_elapsed_time"`
	BaseDelay      time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay       time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier     float64       `yaml:"multiplier" json:"multiplier"`
	JitterFactor   float64       `yaml:"jitter_factor" json:"jitter_factor"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// DatabaseConfig holds settings for the SQLite loader
type DatabaseConfig struct {
	Path string `yaml:"path" json:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "https://kilonova.ro/api/submissions/get",
			RequestTimeout: 10 * time.Second,
			UserAgent:      "subharvest/1.0",
		},
		Harvest: HarvestConfig{
			PageLimit:      50,
			ChunkSize:      1000,
			DataFile:       "data_dump.json",
			CheckpointFile: "checkpoint.txt",
		},
		Retry: RetryConfig{
			MaxAttempts:    10,
			MaxElapsedTime: 60 * time.Second,
			BaseDelay:      1 * time.Second,
			MaxDelay:       30 * time.Second,
			Multiplier:     2.0,
			JitterFactor:   0.1,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 0, // 0 means no rate limit
		},
		Database: DatabaseConfig{
			Path: "submissions.db",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if baseURL := os.Getenv("SUBHARVEST_BASE_URL"); baseURL != "" {
		c.API.BaseURL = baseURL
	}
	if userAgent := os.Getenv("SUBHARVEST_USER_AGENT"); userAgent != "" {
		c.API.UserAgent = userAgent
	}
	if timeout := os.Getenv("SUBHARVEST_REQUEST_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			c.API.RequestTimeout = d
		}
	}

	if limit := os.Getenv("SUBHARVEST_PAGE_LIMIT"); limit != "" {
		var val int
		fmt.Sscanf(limit, "%d", &val)
		if val > 0 {
			c.Harvest.PageLimit = val
		}
	}
	if chunk := os.Getenv("SUBHARVEST_CHUNK_SIZE"); chunk != "" {
		var val int
		fmt.Sscanf(chunk, "%d", &val)
		if val > 0 {
			c.Harvest.ChunkSize = val
		}
	}
	if dataFile := os.Getenv("SUBHARVEST_DATA_FILE"); dataFile != "" {
		c.Harvest.DataFile = dataFile
	}
	if checkpointFile := os.Getenv("SUBHARVEST_CHECKPOINT_FILE"); checkpointFile != "" {
		c.Harvest.CheckpointFile = checkpointFile
	}

	if rpm := os.Getenv("SUBHARVEST_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}

	if dbPath := os.Getenv("SUBHARVEST_DB_PATH"); dbPath != "" {
		c.Database.Path = dbPath
	}

	if logLevel := os.Getenv("SUBHARVEST_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".subharvest.yaml",
		".subharvest.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "subharvest", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "subharvest", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".subharvest.yaml"),
		filepath.Join(os.Getenv("HOME"), ".subharvest.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	// Validate API settings
	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("API base URL is required"))
	}
	if c.API.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	// Validate harvest settings
	if c.Harvest.PageLimit <= 0 {
		errs = append(errs, errors.New("page limit must be positive"))
	}
	if c.Harvest.ChunkSize <= 0 {
		errs = append(errs, errors.New("chunk size must be positive"))
	}
	if c.Harvest.ChunkSize < c.Harvest.PageLimit {
		errs = append(errs, errors.New("chunk size must not be smaller than page limit"))
	}
	if c.Harvest.DataFile == "" {
		errs = append(errs, errors.New("data file is required"))
	}
	if c.Harvest.CheckpointFile == "" {
		errs = append(errs, errors.New("checkpoint file is required"))
	}

	// Validate retry settings
	if c.Retry.MaxAttempts <= 0 {
		errs = append(errs, errors.New("max attempts must be positive"))
	}
	if c.Retry.MaxElapsedTime <= 0 {
		errs = append(errs, errors.New("max elapsed time must be positive"))
	}
	if c.Retry.Multiplier < 1.0 {
		errs = append(errs, errors.New("backoff multiplier must be at least 1"))
	}

	// Validate rate limiting
	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}

	// Validate database settings
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database path is required"))
	}

	// Validate logging
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if baseURL, ok := flags["base-url"].(string); ok && baseURL != "" {
		c.API.BaseURL = baseURL
	}
	if limit, ok := flags["limit"].(int); ok && limit > 0 {
		c.Harvest.PageLimit = limit
	}
	if chunkSize, ok := flags["chunk-size"].(int); ok && chunkSize > 0 {
		c.Harvest.ChunkSize = chunkSize
	}
	if dataFile, ok := flags["output"].(string); ok && dataFile != "" {
		c.Harvest.DataFile = dataFile
	}
	if checkpointFile, ok := flags["checkpoint"].(string); ok && checkpointFile != "" {
		c.Harvest.CheckpointFile = checkpointFile
	}
	if contestID, ok := flags["contest"].(int); ok && contestID > 0 {
		c.Harvest.ContestID = contestID
	}
	if problemID, ok := flags["problem"].(int); ok && problemID > 0 {
		c.Harvest.ProblemID = problemID
	}
	if rpm, ok := flags["rate-limit"].(int); ok && rpm > 0 {
		c.RateLimit.RequestsPerMinute = rpm
	}
	if maxAttempts, ok := flags["max-attempts"].(int); ok && maxAttempts > 0 {
		c.Retry.MaxAttempts = maxAttempts
	}
	if dbPath, ok := flags["db"].(string); ok && dbPath != "" {
		c.Database.Path = dbPath
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".subharvest.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
