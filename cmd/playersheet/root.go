package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kyzn-15/g-sheet-api/internal/config"
	"github.com/kyzn-15/g-sheet-api/internal/paths"
	"github.com/kyzn-15/g-sheet-api/pkg/types"
)

// exitUserError is the exit status for any failed command.
const exitUserError = 1

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagBackend   string
)

var rootCmd = &cobra.Command{
	Use:          "playersheet",
	Short:        "Players API backed by a spreadsheet",
	Version:      version.String(),
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/playersheet)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory for the sqlite backend (default: $XDG_DATA_HOME/playersheet)")
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "sheet backend: google or sqlite (overrides config)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads .env, then config.yaml from the resolved configuration
// directory, then applies the command-line overrides.
func loadConfig() (*config.AppConfig, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	file, err := paths.ConfigFile(flagConfigDir)
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	cfg, err := config.Load(file)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if flagBackend == "" && flagDataDir == "" {
		return cfg, nil
	}
	if flagBackend != "" {
		cfg.Sheet.Backend = flagBackend
	}
	if cfg.Sheet.Backend == types.BackendSQLite {
		dir, err := paths.ResolveDataDir(flagDataDir, cfg.Sheet.DataDir)
		if err != nil {
			return nil, fmt.Errorf("resolve data dir: %w", err)
		}
		cfg.Sheet.DataDir = dir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
