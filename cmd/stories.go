package cmd

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nadav-o/sipurim/internal/ui"
)

func init() {
	rootCmd.AddCommand(storiesCmd)
}

// storiesCmd opens the browser over the catalog, newest first. Picking a
// story plays the list from that point, in listed order.
var storiesCmd = &cobra.Command{
	Use:     "stories",
	Aliases: []string{"ls", "browse"},
	Short:   "Browse the archive and pick a story to play",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess := newListening()

		pool, err := sess.fetchStories(context.Background())
		if err != nil {
			return err
		}

		browser := ui.NewBrowser(pool, sess.heard)
		final, err := tea.NewProgram(browser, tea.WithAltScreen()).Run()
		if err != nil {
			return err
		}

		result := final.(ui.BrowserModel).Result()
		if result.Cancelled {
			return nil
		}

		return sess.runPlayer(pool, pool, result.Index, false)
	},
}
