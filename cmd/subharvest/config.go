package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"subharvest/pkg/config"
	"subharvest/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage subharvest configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.subharvest.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the current configuration including values from all sources:
  - Command line flags
  - Environment variables
  - Configuration file
  - Default values`,
	Run: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Required fields
  - Value types and ranges`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = ".subharvest.yaml"
	}

	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	exampleConfig := `# Subharvest Configuration File
#
# This file contains all available configuration options.
# You can also use environment variables prefixed with SUBHARVEST_
# For example: SUBHARVEST_BASE_URL, SUBHARVEST_PAGE_LIMIT

# Remote API settings
api:
  # Submissions endpoint
  base_url: "https://kilonova.ro/api/submissions/get"

  # Per-request timeout
  request_timeout: 10s

  # User agent string (optional)
  user_agent: ""

# Harvest loop settings
harvest:
  # Submissions requested per page
  page_limit: 50

  # Accumulated submissions per checkpoint save
  chunk_size: 1000

  # Checkpoint data file (the JSON dump)
  data_file: "data_dump.json"

  # Checkpoint marker file (the resumption offset)
  checkpoint_file: "checkpoint.txt"

  # Restrict to one contest or problem (0 = no filter)
  contest_id: 0
  problem_id: 0

# Retry configuration
retry:
  # Maximum attempts per page
  max_attempts: 10

  # Total time budget for retries of one page
  max_elapsed_time: 60s

  # Exponential backoff parameters
  base_delay: 1s
  max_delay: 30s
  multiplier: 2.0
  jitter_factor: 0.1

# Rate limiting configuration
rate_limit:
  # Requests per minute (0 = unlimited)
  requests_per_minute: 0

# Relational loader settings
database:
  # SQLite database path
  path: "submissions.db"

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (optional, empty = stdout only)
  file: ""
`

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		ui.PrintError("Failed to write configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		ui.PrintError("Failed to marshal configuration", err.Error())
		os.Exit(1)
	}

	fmt.Print(string(data))
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	cfg := config.DefaultConfig()
	if err := cfg.LoadFromFile(configFile); err != nil {
		ui.PrintError("Configuration file is invalid", err.Error())
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration is valid")
}
