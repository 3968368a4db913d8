package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nadav-o/sipurim/internal/config"
	"github.com/nadav-o/sipurim/internal/playlist"
)

func init() {
	rootCmd.AddCommand(driveCmd)
}

// driveCmd is hands-free listening: shuffle the archive with series kept in
// order, skip what was already heard, and keep playing until stopped.
var driveCmd = &cobra.Command{
	Use:   "drive",
	Short: "Shuffle-play the archive, series in order, heard stories skipped",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess := newListening()

		pool, err := sess.fetchStories(context.Background())
		if err != nil {
			return err
		}

		skipHeard := viper.GetBool(config.KeyPlaybackSkipHeard)
		order := playlist.BuildOrder(pool, playlist.Options{SkipHeard: skipHeard}, playlist.Deps{
			IsHeard:  sess.heard.IsHeard,
			Finished: sess.store.Finished,
		}, nil)

		if len(order) == 0 {
			fmt.Println("nothing left to play; try --skip-heard=false")
			return nil
		}

		return sess.runPlayer(pool, order, 0, skipHeard)
	},
}
