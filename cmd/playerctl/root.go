package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kyzn-15/g-sheet-api/internal/client"
	"github.com/kyzn-15/g-sheet-api/pkg/types"
)

// envURL overrides client.DefaultBaseURL when --url is not given.
const envURL = "PLAYERSHEET_URL"

var (
	flagURL  string
	flagJSON bool
)

var rootCmd = &cobra.Command{
	Use:          "playerctl",
	Short:        "Command-line client for the players API",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagURL, "url", "", "server base URL (default: $PLAYERSHEET_URL or "+client.DefaultBaseURL+")")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(listCmd, getCmd, createCmd, updateCmd, deleteCmd, demoCmd)
}

func newClient() *client.Client {
	url := flagURL
	if url == "" {
		url = os.Getenv(envURL)
	}
	if url == "" {
		url = client.DefaultBaseURL
	}
	return client.NewClient(url)
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid player id %q", arg)
	}
	return id, nil
}

// printPlayers writes players as indented JSON with --json, one line each
// otherwise.
func printPlayers(w io.Writer, players ...types.Player) error {
	if flagJSON {
		var v any = players
		if len(players) == 1 {
			v = players[0]
		}
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal players: %w", err)
		}
		fmt.Fprintln(w, string(out))
		return nil
	}
	for _, p := range players {
		client.PrintPlayer(w, p)
	}
	return nil
}
