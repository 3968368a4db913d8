package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/nadav-o/sipurim/internal/memorial"
)

func init() {
	iluiCmd.AddCommand(iluiAddCmd)
	rootCmd.AddCommand(iluiCmd)
}

// iluiCmd lists the dedications stories are published in memory of, with
// dates on the Hebrew calendar.
var iluiCmd = &cobra.Command{
	Use:   "ilui",
	Short: "Show memorial dedications",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := requireClient()
		if err != nil {
			return err
		}

		memorials, err := client.Memorials(context.Background())
		if err != nil {
			return err
		}
		if len(memorials) == 0 {
			fmt.Println("no dedications yet")
			return nil
		}
		for _, m := range memorials {
			fmt.Println(memorial.FormatLine(m))
		}
		return nil
	},
}

var iluiAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a memorial dedication (requires sign-in)",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := requireClient()
		if err != nil {
			return err
		}

		var answers struct {
			Honoree string
			Date    string
		}
		qs := []*survey.Question{
			{
				Name:     "honoree",
				Prompt:   &survey.Input{Message: "In memory of:"},
				Validate: survey.Required,
			},
			{
				Name:   "date",
				Prompt: &survey.Input{Message: "Date (YYYY-MM-DD, empty for none):"},
			},
		}
		if err := survey.Ask(qs, &answers); err != nil {
			return err
		}

		var eventDate *time.Time
		if answers.Date != "" {
			d, err := time.Parse("2006-01-02", answers.Date)
			if err != nil {
				return fmt.Errorf("parsing date: %w", err)
			}
			eventDate = &d
		}

		if err := client.CreateMemorial(context.Background(), answers.Honoree, eventDate); err != nil {
			return err
		}
		if eventDate != nil {
			fmt.Printf("added (%s)\n", memorial.HebrewDate(*eventDate))
		} else {
			fmt.Println("added")
		}
		return nil
	},
}
