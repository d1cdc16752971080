package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kyzn-15/g-sheet-api/internal/logger"
	"github.com/kyzn-15/g-sheet-api/internal/store"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Prepare the worksheet",
	Long: `Init connects to the configured worksheet and writes the header row if
the worksheet is empty. A worksheet whose header differs is reported and
left untouched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		l, err := logger.New(cfg.Logger())
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		defer l.Sync()

		sheet, err := openSheet(cmd.Context(), cfg, l)
		if err != nil {
			return fmt.Errorf("open sheet: %w", err)
		}
		players := store.New(sheet, l, cfg.StoreOptions())
		defer players.Close()

		if err := players.Init(cmd.Context()); err != nil {
			return fmt.Errorf("initialize sheet: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Worksheet %q initialized (%s backend)\n", cfg.Sheet.Worksheet, cfg.Sheet.Backend)
		return nil
	},
}
