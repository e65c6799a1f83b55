package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"subharvest/pkg/config"
	"subharvest/pkg/loader"
	"subharvest/pkg/logger"
	"subharvest/pkg/ui"
)

var (
	// Load command flags
	dbPath   string
	dataFile string
)

// loadCmd represents the load command
var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load a harvested dump into a SQLite database",
	Long: `Load a harvested JSON dump into a normalized SQLite database with
Users, Problems and Submissions tables.

Only submissions with status "finished" are loaded. Inserts are
idempotent: loading the same dump twice leaves the database unchanged.`,
	Example: `  # Load the default dump into the default database
  subharvest load

  # Load a specific dump into a specific database
  subharvest load --data contest42.json --db contest42.db`,
	Args: cobra.NoArgs,
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)

	loadCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (default: submissions.db)")
	loadCmd.Flags().StringVar(&dataFile, "data", "", "dump file to load (default: data_dump.json)")
}

func runLoad(cmd *cobra.Command, args []string) error {
	// Build flags map from command line
	flags := make(map[string]interface{})
	if dbPath != "" {
		flags["db"] = dbPath
	}
	if dataFile != "" {
		flags["output"] = dataFile
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

	ui.PrintInfo("Loading", cfg.Harvest.DataFile)

	db, err := loader.Open(cfg.Database.Path)
	if err != nil {
		log.WithError(err).Error("failed to open database")
		ui.PrintError("Failed to open database", err.Error())
		return err
	}
	defer db.Close()

	stats, err := db.LoadFile(context.Background(), cfg.Harvest.DataFile)
	if err != nil {
		log.WithError(err).Error("load failed")
		ui.PrintError("Load failed", err.Error())
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("Loaded %d submissions, %d users, %d problems (%d skipped)",
		stats.SubmissionsInserted, stats.UsersInserted, stats.ProblemsInserted, stats.SubmissionsSkipped))

	return nil
}
