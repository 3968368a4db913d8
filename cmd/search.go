package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/cobra"
)

func init() {
	searchCmd.Flags().BoolP("play", "p", false, "Play the best match immediately")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <term>...",
	Short: "Fuzzy-search story titles",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		term := strings.Join(args, " ")
		sess := newListening()

		pool, err := sess.fetchStories(context.Background())
		if err != nil {
			return err
		}

		titles := make([]string, len(pool))
		for i, t := range pool {
			titles[i] = t.Title
		}

		ranks := fuzzy.RankFindNormalizedFold(term, titles)
		sort.Sort(ranks)
		if len(ranks) == 0 {
			fmt.Printf("no stories match %q\n", term)
			return nil
		}

		if play, _ := cmd.Flags().GetBool("play"); play {
			return sess.runPlayer(pool, pool, ranks[0].OriginalIndex, false)
		}

		for _, r := range ranks {
			t := pool[r.OriginalIndex]
			badge := " "
			if sess.heard.IsHeard(t.ID) {
				badge = "✓"
			}
			line := fmt.Sprintf("%s %s", badge, t.Title)
			if series, ok := t.SeriesTitle.Get(); ok {
				line += fmt.Sprintf("  (%s)", series)
			}
			fmt.Println(line)
		}
		return nil
	},
}
