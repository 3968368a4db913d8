package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/nadav-o/sipurim/internal/catalog"
	"github.com/nadav-o/sipurim/internal/media"
	"github.com/nadav-o/sipurim/internal/player"
)

func init() {
	addCmd.Flags().String("series", "", "Series id to attach the story to")
	rootCmd.AddCommand(addCmd)
}

// addCmd uploads a local recording and publishes it as a story. The title is
// prefilled from the file's tags.
var addCmd = &cobra.Command{
	Use:   "add <audio-file>",
	Short: "Upload a recording to the archive (requires sign-in)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if !media.IsSupportedFile(path) {
			return fmt.Errorf("unsupported audio file: %s", filepath.Base(path))
		}

		client, err := requireClient()
		if err != nil {
			return err
		}

		meta := player.ReadMetadata(path)
		title := meta.Title
		if err := survey.AskOne(&survey.Input{
			Message: "Title:",
			Default: title,
		}, &title, survey.WithValidator(survey.Required)); err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		ctx := context.Background()
		ext := filepath.Ext(path)
		audioURL, err := client.UploadAudio(ctx, filepath.Base(path), media.MimeForExt(ext), f)
		if err != nil {
			return fmt.Errorf("uploading audio: %w", err)
		}

		series, _ := cmd.Flags().GetString("series")
		if err := client.CreateStory(ctx, catalog.NewStory{
			Title:    title,
			AudioURL: audioURL,
			SeriesID: series,
		}); err != nil {
			return fmt.Errorf("publishing story: %w", err)
		}

		fmt.Printf("published %q\n", title)
		return nil
	},
}
