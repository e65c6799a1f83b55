package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"subharvest/pkg/checkpoint"
	"subharvest/pkg/config"
	"subharvest/pkg/harvest"
	"subharvest/pkg/kilonova"
	"subharvest/pkg/logger"
	"subharvest/pkg/ratelimit"
	"subharvest/pkg/retry"
	"subharvest/pkg/ui"
)

var (
	// Harvest command flags
	baseURL      string
	outputFile   string
	markerFile   string
	pageLimit    int
	chunkSize    int
	contestID    int
	problemID    int
	rateLimitRPM int
	maxAttempts  int
	forceRestart bool
)

// harvestCmd represents the harvest command
var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Harvest submission records from the remote API",
	Long: `Harvest all submission records from the judge-platform API into a
checkpointed JSON dump.

The harvest runs page by page and saves a checkpoint (dump file plus
offset marker) at every chunk boundary and on shutdown. An interrupted
run resumes from the last checkpoint automatically; use --force-restart
to discard an existing checkpoint and start over.`,
	Example: `  # Harvest everything with default settings
  subharvest harvest

  # Harvest one contest into a specific dump file
  subharvest harvest --contest 42 --output contest42.json

  # Discard the existing checkpoint and start over
  subharvest harvest --force-restart`,
	Args: cobra.NoArgs,
	RunE: runHarvest,
}

func init() {
	rootCmd.AddCommand(harvestCmd)

	harvestCmd.Flags().StringVar(&baseURL, "base-url", "", "submissions API endpoint")
	harvestCmd.Flags().StringVarP(&outputFile, "output", "o", "", "checkpoint data file (default: data_dump.json)")
	harvestCmd.Flags().StringVar(&markerFile, "checkpoint", "", "checkpoint marker file (default: checkpoint.txt)")
	harvestCmd.Flags().IntVar(&pageLimit, "limit", 0, "submissions per page")
	harvestCmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "submissions per checkpoint chunk")
	harvestCmd.Flags().IntVar(&contestID, "contest", 0, "restrict to one contest")
	harvestCmd.Flags().IntVar(&problemID, "problem", 0, "restrict to one problem")
	harvestCmd.Flags().IntVar(&rateLimitRPM, "rate-limit", 0, "requests per minute (0 = unlimited)")
	harvestCmd.Flags().IntVar(&maxAttempts, "max-attempts", 0, "maximum retry attempts per page")
	harvestCmd.Flags().BoolVar(&forceRestart, "force-restart", false, "discard the existing checkpoint and start over")
}

func runHarvest(cmd *cobra.Command, args []string) error {
	// Build flags map from command line
	flags := make(map[string]interface{})
	if baseURL != "" {
		flags["base-url"] = baseURL
	}
	if outputFile != "" {
		flags["output"] = outputFile
	}
	if markerFile != "" {
		flags["checkpoint"] = markerFile
	}
	if pageLimit > 0 {
		flags["limit"] = pageLimit
	}
	if chunkSize > 0 {
		flags["chunk-size"] = chunkSize
	}
	if contestID > 0 {
		flags["contest"] = contestID
	}
	if problemID > 0 {
		flags["problem"] = problemID
	}
	if rateLimitRPM > 0 {
		flags["rate-limit"] = rateLimitRPM
	}
	if maxAttempts > 0 {
		flags["max-attempts"] = maxAttempts
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		return err
	}
	log := logger.GetLogger()

	checkpoints := checkpoint.NewManager(cfg.Harvest.DataFile, cfg.Harvest.CheckpointFile)
	if forceRestart && checkpoints.Exists() {
		if err := checkpoints.Delete(); err != nil {
			log.WithError(err).Warn("failed to delete existing checkpoint")
		}
		ui.PrintInfo("Force restart", "ignoring existing checkpoint")
	}

	shutdown := harvest.NewShutdown()
	shutdown.Register()

	retryCfg := &retry.Config{
		MaxAttempts:    cfg.Retry.MaxAttempts,
		MaxElapsedTime: cfg.Retry.MaxElapsedTime,
		Backoff: &retry.ExponentialBackoff{
			BaseDelay:    cfg.Retry.BaseDelay,
			MaxDelay:     cfg.Retry.MaxDelay,
			Multiplier:   cfg.Retry.Multiplier,
			JitterFactor: cfg.Retry.JitterFactor,
		},
		RetryIf: retry.DefaultRetryIf,
		Context: context.Background(),
		Logger:  log,
	}

	client := kilonova.NewClientWithRetry(cfg.API.BaseURL, cfg.API.RequestTimeout, retryCfg, log)
	if cfg.API.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.API.UserAgent)
	}

	var limiter ratelimit.Limiter = ratelimit.Unlimited()
	if cfg.RateLimit.RequestsPerMinute > 0 {
		limiter = ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, time.Minute)
	}

	ui.PrintInfo("Harvesting", cfg.API.BaseURL)
	log.WithField("data_file", cfg.Harvest.DataFile).Info("starting harvest")

	harvester := harvest.New(client, checkpoints, shutdown, limiter, cfg.Harvest)
	result, err := harvester.Run(context.Background())
	if err != nil {
		log.WithError(err).Error("harvest failed")
		ui.PrintError("Harvest failed", err.Error())
		return err
	}

	switch result.Outcome {
	case harvest.OutcomeDrained:
		ui.PrintSuccess(fmt.Sprintf("Harvest complete: %d submissions (%d new)", result.Total, result.Retrieved))
	case harvest.OutcomeInterrupted:
		ui.PrintWarning(fmt.Sprintf("Harvest interrupted at offset %d; rerun to resume", result.Offset))
	}

	return nil
}
