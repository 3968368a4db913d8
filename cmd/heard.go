package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nadav-o/sipurim/internal/progress"
	"github.com/nadav-o/sipurim/internal/where"
)

func init() {
	heardCmd.AddCommand(heardListCmd)
	heardCmd.AddCommand(heardMarkCmd)
	heardCmd.AddCommand(heardUnmarkCmd)
	heardCmd.AddCommand(heardSyncCmd)
	rootCmd.AddCommand(heardCmd)
}

var heardCmd = &cobra.Command{
	Use:   "heard",
	Short: "Inspect and edit the heard set",
}

var heardListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the story ids marked heard on this device",
	RunE: func(cmd *cobra.Command, args []string) error {
		heard := progress.NewHeardSet(where.Heard(), nil)
		ids := heard.IDs()
		if len(ids) == 0 {
			fmt.Println("nothing marked heard yet")
			return nil
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	},
}

var heardMarkCmd = &cobra.Command{
	Use:   "mark <story-id>...",
	Short: "Mark stories heard",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess := newListening()
		for _, id := range args {
			sess.heard.Mark(id)
		}
		sess.heard.Flush()
		return nil
	},
}

var heardUnmarkCmd = &cobra.Command{
	Use:   "unmark <story-id>...",
	Short: "Mark stories unheard",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess := newListening()
		for _, id := range args {
			sess.heard.Unmark(id)
		}
		sess.heard.Flush()
		return nil
	},
}

var heardSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull the signed-in account's remote listens into the local set",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess := newListening()
		before := len(sess.heard.IDs())
		if err := sess.heard.MergeRemote(context.Background()); err != nil {
			return err
		}
		fmt.Printf("merged %d remote listens\n", len(sess.heard.IDs())-before)
		return nil
	},
}
