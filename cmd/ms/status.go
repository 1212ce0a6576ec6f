package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/daviddao/mailsheets/internal/db"
	"github.com/daviddao/mailsheets/internal/display"
)

type statusOutput struct {
	ProjectDir  string `json:"project_dir"`
	SheetID     string `json:"sheet_id"`
	SheetRange  string `json:"sheet_range"`
	GmailUser   string `json:"gmail_user"`
	Credentials string `json:"credentials"`
	HasToken    bool   `json:"has_token"`
	StatePath   string `json:"state_path"`
	Checkpoint  string `json:"checkpoint,omitempty"`
	UpdatedAt   string `json:"checkpoint_updated_at,omitempty"`
	Schedule    string `json:"watch_schedule"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration and the last saved checkpoint",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		st := statusOutput{
			ProjectDir:  projectDir,
			SheetID:     cfg.Sheet.ID,
			SheetRange:  cfg.Sheet.Range,
			GmailUser:   cfg.Gmail.User,
			Credentials: cfg.Auth.Credentials,
			StatePath:   cfg.State.Path,
			Schedule:    cfg.Watch.Schedule,
		}
		st.HasToken = fileExists(tokenPath())

		if fileExists(cfg.State.Path) {
			store, err := db.Open(cfg.State.Path)
			if err != nil {
				return err
			}
			defer store.Close()
			token, ok, err := store.Checkpoint(ctx)
			if err != nil {
				return err
			}
			if ok {
				st.Checkpoint = token
				st.UpdatedAt = store.CheckpointUpdatedAt(ctx)
			}
		}

		w := cmd.OutOrStdout()
		if jsonOutput {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(st)
		}

		display.Header(w, "Mailsheets Status")
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  Project      %s\n", st.ProjectDir)
		fmt.Fprintf(w, "  Sheet        %s  %s\n", orNone(st.SheetID), display.Dim.Render(st.SheetRange))
		fmt.Fprintf(w, "  Gmail user   %s\n", st.GmailUser)
		fmt.Fprintf(w, "  Credentials  %s\n", st.Credentials)
		if st.HasToken {
			fmt.Fprintf(w, "  Token        %s\n", display.Success.Render("saved"))
		} else {
			fmt.Fprintf(w, "  Token        %s\n", display.Warn.Render("missing, run 'ms auth'"))
		}
		checkpoint := orNone(st.Checkpoint)
		if st.UpdatedAt != "" {
			checkpoint += "  " + display.Dim.Render("("+display.TimeAgo(st.UpdatedAt)+")")
		}
		fmt.Fprintf(w, "  Checkpoint   %s\n", checkpoint)
		fmt.Fprintf(w, "  Schedule     %s\n", st.Schedule)
		return nil
	},
}

func tokenPath() string {
	if cfg.Auth.Token != "" {
		return cfg.Auth.Token
	}
	return filepath.Join(filepath.Dir(cfg.Auth.Credentials), "token.json")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func orNone(s string) string {
	if s == "" {
		return display.Dim.Render("(none)")
	}
	return s
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
