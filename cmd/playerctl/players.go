package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kyzn-15/g-sheet-api/internal/client"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all players",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		players, err := newClient().ListPlayers(cmd.Context())
		if err != nil {
			return fmt.Errorf("list players: %w", err)
		}
		if !flagJSON {
			fmt.Fprintf(cmd.OutOrStdout(), "Retrieved %d players.\n", len(players))
		}
		return printPlayers(cmd.OutOrStdout(), players...)
	},
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one player",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		p, err := newClient().GetPlayer(cmd.Context(), id)
		if client.IsNotFound(err) {
			return fmt.Errorf("player %d not found", id)
		}
		if err != nil {
			return fmt.Errorf("get player: %w", err)
		}
		return printPlayers(cmd.OutOrStdout(), p)
	},
}

var newPlayer client.NewPlayer

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a player",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newClient().CreatePlayer(cmd.Context(), newPlayer)
		if err != nil {
			return fmt.Errorf("create player: %w", err)
		}
		if !flagJSON {
			fmt.Fprintln(cmd.OutOrStdout(), "Player created successfully!")
		}
		return printPlayers(cmd.OutOrStdout(), p)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <id> <field=value>...",
	Short: "Change fields of a player",
	Long: `Update sends the given fields to the server. Only name, age,
games_played, highest_score and current_score can be changed; other
fields are ignored.

Example:
  playerctl update 1 current_score=950 games_played=11`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		updates, err := parseAssignments(args[1:])
		if err != nil {
			return err
		}
		p, err := newClient().UpdatePlayer(cmd.Context(), id, updates)
		if client.IsNotFound(err) {
			return fmt.Errorf("player %d not found", id)
		}
		if err != nil {
			return fmt.Errorf("update player: %w", err)
		}
		if !flagJSON {
			fmt.Fprintf(cmd.OutOrStdout(), "Player %d updated successfully!\n", id)
		}
		return printPlayers(cmd.OutOrStdout(), p)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a player",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		err = newClient().DeletePlayer(cmd.Context(), id)
		if client.IsNotFound(err) {
			return fmt.Errorf("player %d not found", id)
		}
		if err != nil {
			return fmt.Errorf("delete player: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Player %d deleted successfully!\n", id)
		return nil
	},
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a create, update and delete walk-through against the server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return client.Demo(cmd.Context(), newClient(), cmd.OutOrStdout())
	},
}

func init() {
	f := createCmd.Flags()
	f.StringVar(&newPlayer.Name, "name", "", "player name (required)")
	f.IntVar(&newPlayer.Age, "age", 0, "player age (required)")
	f.IntVar(&newPlayer.GamesPlayed, "games-played", 0, "games played")
	f.IntVar(&newPlayer.HighestScore, "highest-score", 0, "highest score")
	f.IntVar(&newPlayer.CurrentScore, "current-score", 0, "current score")
	_ = createCmd.MarkFlagRequired("name")
	_ = createCmd.MarkFlagRequired("age")
}

// parseAssignments turns field=value arguments into an update body.
// Integer values are sent as numbers, everything else as strings.
func parseAssignments(args []string) (map[string]any, error) {
	updates := make(map[string]any, len(args))
	for _, a := range args {
		key, value, ok := strings.Cut(a, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected field=value, got %q", a)
		}
		if n, err := strconv.Atoi(value); err == nil {
			updates[key] = n
		} else {
			updates[key] = value
		}
	}
	return updates, nil
}
