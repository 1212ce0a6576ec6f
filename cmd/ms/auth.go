package main

import (
	"github.com/spf13/cobra"

	"github.com/daviddao/mailsheets/internal/auth"
	"github.com/daviddao/mailsheets/internal/display"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authorize Gmail and Sheets access and save token.json",
	Long: `Open the Google consent page, wait for the browser redirect on a local
port and save the resulting token next to credentials.json. Run this once
before 'ms run', or again when the saved token has been revoked.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		err := auth.Reauthorize(cmd.Context(), auth.Options{
			CredentialsPath: cfg.Auth.Credentials,
			TokenPath:       cfg.Auth.Token,
			Prompt:          cmd.OutOrStdout(),
		})
		if err != nil {
			return err
		}
		if !quietFlag {
			display.SuccessMsg(cmd.OutOrStdout(), "Authorization saved.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
}
