package cmd

import (
	"context"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/nadav-o/sipurim/internal/auth"
	"github.com/nadav-o/sipurim/internal/catalog"
)

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in so heard marks follow you across devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		var creds struct {
			Email    string
			Password string
		}
		qs := []*survey.Question{
			{
				Name:     "email",
				Prompt:   &survey.Input{Message: "Email:"},
				Validate: survey.Required,
			},
			{
				Name:     "password",
				Prompt:   &survey.Password{Message: "Password:"},
				Validate: survey.Required,
			},
		}
		if err := survey.Ask(qs, &creds); err != nil {
			return err
		}

		client, err := catalog.NewClient(nil)
		if err != nil {
			return err
		}
		session, err := client.SignIn(context.Background(), creds.Email, creds.Password)
		if err != nil {
			return fmt.Errorf("signing in: %w", err)
		}
		if err := auth.SetSession(session); err != nil {
			return fmt.Errorf("storing session: %w", err)
		}

		fmt.Println("signed in")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := auth.Clear(); err != nil {
			return err
		}
		fmt.Println("signed out")
		return nil
	},
}
