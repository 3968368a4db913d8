package cmd

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nadav-o/sipurim/internal/catalog"
	"github.com/nadav-o/sipurim/internal/download"
	"github.com/nadav-o/sipurim/internal/player"
)

func init() {
	rootCmd.AddCommand(playCmd)
}

// playCmd plays a single local file or direct URL outside the catalog.
// Useful for listening to a recording before uploading it.
var playCmd = &cobra.Command{
	Use:   "play <file-or-url>",
	Short: "Play one audio file or URL directly",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := args[0]

		title := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
		if !download.IsURL(src) {
			if meta := player.ReadMetadata(src); meta.Title != "" {
				title = meta.Title
			}
		}

		track := catalog.Track{
			ID:       "adhoc:" + download.SanitizeFilename(title),
			Title:    title,
			AudioURL: src,
		}

		sess := newListening()
		pool := []catalog.Track{track}
		return sess.runPlayer(pool, pool, 0, false)
	},
}
