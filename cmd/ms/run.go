package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/daviddao/mailsheets/internal/auth"
	"github.com/daviddao/mailsheets/internal/db"
	"github.com/daviddao/mailsheets/internal/display"
	"github.com/daviddao/mailsheets/internal/gmail"
	"github.com/daviddao/mailsheets/internal/metrics"
	"github.com/daviddao/mailsheets/internal/sheets"
	msync "github.com/daviddao/mailsheets/internal/sync"
	"github.com/daviddao/mailsheets/internal/types"
)

var dryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Append unread inbox messages to the sheet and mark them read",
	Long: `Run one pass: list unread inbox messages, append each as a row to the
configured sheet, then mark it read. Stops at the first failed API call;
rows already appended stay in the sheet.`,
	Example: `  ms run
  ms run --dry-run
  ms run --max 20 --sheet 1AbC...xyz --range "Inbox!A:D"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnce(cmd)
	},
}

// addRunFlags registers the flags shared by every command that runs a pass.
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("sheet", "", "Destination spreadsheet ID")
	cmd.Flags().String("range", "", "Destination A1 range (default Sheet1!A:D)")
	cmd.Flags().String("user", "", "Gmail user ID (default: me)")
	cmd.Flags().IntP("max", "n", 0, "Process at most N unread messages (0 = all)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse messages without writing rows or marking them read")
	cmd.Flags().String("metrics-file", "", "Write Prometheus metrics to this textfile after each pass")
}

// pipeline is a ready-to-run syncer and the state it holds open.
type pipeline struct {
	syncer  *msync.Syncer
	store   *db.DB
	metrics *metrics.Metrics
}

func (p *pipeline) Close() error {
	return p.store.Close()
}

// newPipeline authenticates and wires the Gmail and Sheets clients.
func newPipeline(ctx context.Context, out io.Writer) (*pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	store, err := db.Open(cfg.State.Path)
	if err != nil {
		return nil, err
	}

	session, err := auth.Load(ctx, auth.Options{
		CredentialsPath: cfg.Auth.Credentials,
		TokenPath:       cfg.Auth.Token,
		Prompt:          out,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	mailbox, err := gmail.NewFromHTTPClient(ctx, session.HTTPClient, nil,
		gmail.WithUser(cfg.Gmail.User),
		gmail.WithLimit(cfg.Gmail.MaxResults),
		gmail.WithCheckpointStore(store),
	)
	if err != nil {
		store.Close()
		return nil, err
	}
	ssvc, err := session.Sheets(ctx)
	if err != nil {
		store.Close()
		return nil, err
	}

	sheet, err := sheets.New(ssvc, cfg.Sheet.ID, cfg.Sheet.Range)
	if err != nil {
		store.Close()
		return nil, err
	}

	syncer := msync.New(mailbox, sheet, msync.Options{
		DryRun: dryRun,
		Quiet:  quietFlag || jsonOutput,
		Out:    out,
		Log:    logger,
	})
	return &pipeline{syncer: syncer, store: store, metrics: metrics.New()}, nil
}

// pass runs the syncer once and records metrics.
func (p *pipeline) pass(ctx context.Context) (*types.SyncResult, error) {
	start := time.Now()
	result, err := p.syncer.Run(ctx)
	p.metrics.Observe(result.Unread, result.Processed, time.Since(start), err)
	if cfg.Metrics.File != "" {
		if werr := p.metrics.WriteTextfile(cfg.Metrics.File); werr != nil {
			logger.WithError(werr).Warn("could not write metrics textfile")
		}
	}
	return result, err
}

func runOnce(cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if !quietFlag && !jsonOutput {
		fmt.Fprintln(out, "Initializing services...")
	}
	p, err := newPipeline(ctx, out)
	if err != nil {
		return err
	}
	defer p.Close()

	result, err := p.pass(ctx)
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(result); encErr != nil {
			return encErr
		}
	}
	if err != nil {
		if !jsonOutput {
			display.ErrorMsg(cmd.ErrOrStderr(), "stopped after %d of %d messages", result.Processed, result.Unread)
		}
		return err
	}
	return nil
}

func init() {
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}
