package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daviddao/mailsheets/internal/auth"
	"github.com/daviddao/mailsheets/internal/display"
	"github.com/daviddao/mailsheets/internal/gmail"
	"github.com/daviddao/mailsheets/internal/parser"
	"github.com/daviddao/mailsheets/internal/types"
)

var (
	gmailBodyLines int
	gmailMax       int
)

// parsedMessage is the JSON shape of a previewed message.
type parsedMessage struct {
	ID        string `json:"id"`
	HistoryID string `json:"history_id,omitempty"`
	types.Email
}

// gmailCmd is the parent command for read-only Gmail previews.
var gmailCmd = &cobra.Command{
	Use:   "gmail",
	Short: "Preview unread Gmail messages (read-only)",
	Long:  "Show what a pass would append, without touching the sheet or the UNREAD label.",
}

var gmailUnreadCmd = &cobra.Command{
	Use:   "unread",
	Short: "List unread inbox messages as they would be parsed",
	Example: `  ms gmail unread
  ms gmail unread -n 5 --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		client, err := newGmailClient(cmd, gmailMax)
		if err != nil {
			return err
		}

		ids, err := client.ListUnread(ctx)
		if err != nil {
			return err
		}

		var msgs []parsedMessage
		for _, id := range ids {
			msg, err := client.FetchFull(ctx, id)
			if err != nil {
				return err
			}
			msgs = append(msgs, parsedMessage{ID: id, HistoryID: gmail.HistoryToken(msg), Email: parser.Parse(msg)})
		}
		return printMessages(cmd, msgs)
	},
}

var gmailReadCmd = &cobra.Command{
	Use:   "read MESSAGE_ID",
	Short: "Parse a single message by ID",
	Example: `  ms gmail read 18d5a7b3c4e5f6a7
  ms gmail read 18d5a7b3c4e5f6a7 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newGmailClient(cmd, 0)
		if err != nil {
			return err
		}

		msg, err := client.FetchFull(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printMessages(cmd, []parsedMessage{{ID: args[0], HistoryID: gmail.HistoryToken(msg), Email: parser.Parse(msg)}})
	},
}

func newGmailClient(cmd *cobra.Command, limit int) (*gmail.Client, error) {
	session, err := auth.Load(cmd.Context(), auth.Options{
		CredentialsPath: cfg.Auth.Credentials,
		TokenPath:       cfg.Auth.Token,
		Prompt:          cmd.OutOrStdout(),
	})
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	return gmail.NewFromHTTPClient(cmd.Context(), session.HTTPClient, nil,
		gmail.WithUser(cfg.Gmail.User), gmail.WithLimit(limit))
}

func printMessages(cmd *cobra.Command, msgs []parsedMessage) error {
	w := cmd.OutOrStdout()
	if jsonOutput {
		if msgs == nil {
			msgs = []parsedMessage{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(msgs)
	}

	if len(msgs) == 0 {
		fmt.Fprintln(w, "No unread emails found.")
		return nil
	}
	for _, m := range msgs {
		display.Email(w, m.ID, m.Email, gmailBodyLines)
	}
	return nil
}

func init() {
	gmailCmd.PersistentFlags().String("user", "", "Gmail user ID (default: me)")
	gmailCmd.PersistentFlags().IntVar(&gmailBodyLines, "lines", 8, "Body lines to show per message (0 = all)")
	gmailUnreadCmd.Flags().IntVarP(&gmailMax, "limit", "n", 10, "Maximum messages to show (0 = all)")

	gmailCmd.AddCommand(gmailUnreadCmd)
	gmailCmd.AddCommand(gmailReadCmd)
	rootCmd.AddCommand(gmailCmd)
}
