// Package cmd implements the sipurim command-line interface.
package cmd

import (
	"fmt"
	"os"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nadav-o/sipurim/internal/config"
	"github.com/nadav-o/sipurim/internal/log"
)

func init() {
	rootCmd.PersistentFlags().Bool("skip-heard", true, "Leave stories already marked heard out of the play order")
	lo.Must0(viper.BindPFlag(config.KeyPlaybackSkipHeard, rootCmd.PersistentFlags().Lookup("skip-heard")))

	rootCmd.PersistentFlags().Int("limit", 500, "Maximum number of stories to fetch from the catalog")
	lo.Must0(viper.BindPFlag(config.KeyCatalogLimit, rootCmd.PersistentFlags().Lookup("limit")))
}

// rootCmd defaults to drive mode: shuffle everything unheard and play.
var rootCmd = &cobra.Command{
	Use:   "sipurim",
	Short: "A terminal player for the story archive",
	Long:  "sipurim plays the story archive from the terminal: shuffled drive mode,\nresume where you left off, and heard tracking synced across devices.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return driveCmd.RunE(cmd, args)
	},
}

// Execute routes the CLI entry point.
func Execute() {
	cc.Init(&cc.Config{
		RootCmd:       rootCmd,
		Headings:      cc.HiCyan + cc.Bold + cc.Underline,
		Commands:      cc.HiYellow + cc.Bold,
		Example:       cc.Italic,
		ExecName:      cc.Bold,
		Flags:         cc.Bold,
		FlagsDataType: cc.Italic + cc.HiBlue,
	})

	handleErr(rootCmd.Execute())
}

func handleErr(err error) {
	if err == nil {
		return
	}
	log.Error(err)
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
