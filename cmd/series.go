package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(seriesCmd)
}

// seriesCmd plays one series front to back, in story order, regardless of
// heard marks.
var seriesCmd = &cobra.Command{
	Use:   "series <series-id>",
	Short: "Play a series from the first episode, in order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess := newListening()
		if sess.client == nil {
			return fmt.Errorf("backend not configured")
		}

		episodes, err := sess.client.SeriesEpisodes(context.Background(), args[0])
		if err != nil {
			return err
		}
		if len(episodes) == 0 {
			return fmt.Errorf("series %s has no episodes with audio", args[0])
		}

		return sess.runPlayer(episodes, episodes, 0, false)
	},
}
