package client

import (
	"context"
	"fmt"
	"io"

	"github.com/kyzn-15/g-sheet-api/pkg/types"
)

// Demo walks the API end to end, writing a transcript to w: list, create,
// get, update, get, delete, and a final get that should report the player
// missing. Failures of individual steps are reported and the walk goes on
// where it can; the returned error is the first one that stopped it.
func Demo(ctx context.Context, c *Client, w io.Writer) error {
	fmt.Fprintln(w, "\n=== Getting all players ===")
	players, err := c.ListPlayers(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
	} else {
		fmt.Fprintf(w, "Retrieved %d players.\n", len(players))
		for _, p := range players {
			PrintPlayer(w, p)
		}
	}

	fmt.Fprintln(w, "\n=== Creating a new player ===")
	created, err := c.CreatePlayer(ctx, NewPlayer{
		Name: "John Doe", Age: 25, GamesPlayed: 10, HighestScore: 1200, CurrentScore: 800,
	})
	if err != nil {
		fmt.Fprintf(w, "Error creating player: %v\n", err)
		fmt.Fprintln(w, "\n=== Demo complete ===")
		return err
	}
	fmt.Fprintln(w, "Player created successfully!")
	id := created.ID

	fmt.Fprintf(w, "\n=== Getting player %d ===\n", id)
	showPlayer(ctx, c, w, id)

	fmt.Fprintf(w, "\n=== Updating player %d ===\n", id)
	if _, err := c.UpdatePlayer(ctx, id, map[string]any{
		types.ColumnCurrentScore: 950,
		types.ColumnGamesPlayed:  11,
	}); err != nil {
		fmt.Fprintf(w, "Error updating player: %v\n", err)
	} else {
		fmt.Fprintf(w, "Player %d updated successfully!\n", id)
	}

	fmt.Fprintf(w, "\n=== Getting updated player %d ===\n", id)
	showPlayer(ctx, c, w, id)

	fmt.Fprintf(w, "\n=== Deleting player %d ===\n", id)
	if err := c.DeletePlayer(ctx, id); err != nil {
		fmt.Fprintf(w, "Error deleting player: %v\n", err)
	} else {
		fmt.Fprintf(w, "Player %d deleted successfully!\n", id)
	}

	fmt.Fprintln(w, "\n=== Verifying deletion ===")
	showPlayer(ctx, c, w, id)

	fmt.Fprintln(w, "\n=== Demo complete ===")
	return nil
}

func showPlayer(ctx context.Context, c *Client, w io.Writer, id int) {
	p, err := c.GetPlayer(ctx, id)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	PrintPlayer(w, p)
}

// PrintPlayer writes one player on a single line.
func PrintPlayer(w io.Writer, p types.Player) {
	fmt.Fprintf(w, "ID: %d, Name: %s, Age: %d, Games: %d, Highest Score: %d, Current Score: %d\n",
		p.ID, p.Name, p.Age, p.GamesPlayed, p.HighestScore, p.CurrentScore)
}
