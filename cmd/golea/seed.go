package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/example/golea/internal/config"
	"github.com/example/golea/internal/logging"
	"github.com/example/golea/internal/persistence/sqlite"
	"github.com/example/golea/internal/seeds"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the demo faculty and student accounts",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	logger := logging.NewLogger(os.Stdout, cfg.Logging.Format, cfg.Logging.Level)

	storage, err := sqlite.Open(cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer storage.Close()

	if err := storage.Migrate(cmd.Context()); err != nil {
		return err
	}

	inserted, err := seeds.Apply(cmd.Context(), storage.Users())
	if err != nil {
		return err
	}

	logger.Info("seed complete", "inserted", inserted, "total", len(seeds.Users()))
	return nil
}
