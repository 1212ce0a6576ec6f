package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daviddao/mailsheets/internal/display"
)

var quickstartCmd = &cobra.Command{
	Use:   "quickstart",
	Short: "Quick start guide for ms",
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		b := display.Bold.Render
		a := display.Success.Render
		d := display.Dim.Render

		fmt.Fprintf(w, "\n%s\n\n", b("ms — Gmail to Google Sheets"))
		fmt.Fprintln(w, "Every unread inbox message becomes one row: from, subject, date, body.")
		fmt.Fprintln(w)

		fmt.Fprintln(w, b("SETUP"))
		fmt.Fprintf(w, "  %s          Create .mailsheets/ and mailsheets.yaml\n", a("ms init"))
		fmt.Fprintf(w, "  %s\n", d("  Put the OAuth client file at credentials/credentials.json"))
		fmt.Fprintf(w, "  %s          Authorize Gmail + Sheets, saves credentials/token.json\n\n", a("ms auth"))

		fmt.Fprintln(w, b("RUNNING"))
		fmt.Fprintf(w, "  %s                One pass (same as %s)\n", a("ms"), a("ms run"))
		fmt.Fprintf(w, "  %s      Parse only, write nothing\n", a("ms run --dry-run"))
		fmt.Fprintf(w, "  %s         Pass every 5 minutes until Ctrl+C\n", a("ms watch"))
		fmt.Fprintf(w, "  %s  Preview what would be appended\n\n", a("ms gmail unread"))

		fmt.Fprintln(w, b("CONFIGURATION"))
		fmt.Fprintln(w, "  mailsheets.yaml, overridden by MAILSHEETS_* variables and flags:")
		fmt.Fprintf(w, "  %s\n", a("MAILSHEETS_SHEET_ID=1AbC... ms run"))
		fmt.Fprintf(w, "  %s\n\n", a(`ms run --range "Inbox!A:D"`))

		fmt.Fprintf(w, "Run %s to check configuration and the last checkpoint.\n\n", a("ms status"))
	},
}

func init() {
	rootCmd.AddCommand(quickstartCmd)
}
