// Package sync copies unread Gmail messages into a Google Sheet, one row per
// message, marking each message read once its row is written.
package sync

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	gm "google.golang.org/api/gmail/v1"

	"github.com/daviddao/mailsheets/internal/display"
	"github.com/daviddao/mailsheets/internal/gmail"
	"github.com/daviddao/mailsheets/internal/parser"
	"github.com/daviddao/mailsheets/internal/types"
)

// Mailbox is the mail side of a run. *gmail.Client implements it.
type Mailbox interface {
	ListUnread(ctx context.Context) ([]string, error)
	FetchFull(ctx context.Context, id string) (*gm.Message, error)
	MarkRead(ctx context.Context, id string) error
	LoadCheckpoint(ctx context.Context) (string, bool, error)
	SaveCheckpoint(ctx context.Context, token string) error
}

// Sheet is the destination of a run. *sheets.Client implements it.
type Sheet interface {
	AppendRow(ctx context.Context, row types.Row) error
}

// Options tune a Syncer.
type Options struct {
	// DryRun fetches and parses without appending, marking or checkpointing.
	DryRun bool
	Quiet  bool
	// Out receives progress lines. Nil discards them.
	Out io.Writer
	Log logrus.FieldLogger
}

// Syncer runs sequential passes over the unread inbox.
type Syncer struct {
	mailbox Mailbox
	sheet   Sheet
	opts    Options
}

// New returns a Syncer.
func New(mailbox Mailbox, sheet Sheet, opts Options) *Syncer {
	if opts.Out == nil || opts.Quiet {
		opts.Out = io.Discard
	}
	if opts.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		opts.Log = l
	}
	return &Syncer{mailbox: mailbox, sheet: sheet, opts: opts}
}

// Run processes every unread inbox message in listing order: fetch, parse,
// append, mark read. The first failure stops the run; rows already appended
// and messages already marked stay that way. The returned result is never
// nil and reflects the work done before any error.
func (s *Syncer) Run(ctx context.Context) (*types.SyncResult, error) {
	result := &types.SyncResult{RunID: uuid.NewString(), DryRun: s.opts.DryRun}
	log := s.opts.Log.WithField("run_id", result.RunID)
	out := s.opts.Out

	fail := func(err error) (*types.SyncResult, error) {
		result.Error = err.Error()
		log.WithError(err).WithField("status", gmail.StatusCode(err)).Error("sync aborted")
		return result, err
	}

	if token, ok, err := s.mailbox.LoadCheckpoint(ctx); err != nil {
		return fail(fmt.Errorf("load checkpoint: %w", err))
	} else if ok {
		result.CheckpointFrom = token
	}
	log.WithField("checkpoint", result.CheckpointFrom).Debug("starting pass")

	fmt.Fprintln(out, "Fetching unread emails...")
	ids, err := s.mailbox.ListUnread(ctx)
	if err != nil {
		return fail(err)
	}
	result.Unread = len(ids)

	if len(ids) == 0 {
		fmt.Fprintln(out, "No unread emails found.")
		return result, nil
	}
	fmt.Fprintf(out, "%d unread emails found.\n", len(ids))

	var newest uint64
	for i, id := range ids {
		mlog := log.WithField("message_id", id)

		msg, err := s.mailbox.FetchFull(ctx, id)
		if err != nil {
			return fail(err)
		}
		email := parser.Parse(msg)
		display.Progress(out, i+1, len(ids), email)

		if s.opts.DryRun {
			mlog.Debug("dry run, skipping append")
			continue
		}

		if err := s.sheet.AppendRow(ctx, email.Row()); err != nil {
			return fail(fmt.Errorf("message %s: %w", id, err))
		}
		if err := s.mailbox.MarkRead(ctx, id); err != nil {
			return fail(err)
		}
		result.Processed++
		if msg.HistoryId > newest {
			newest = msg.HistoryId
		}
		mlog.WithField("from", email.From).Info("appended and marked read")
	}

	if result.Processed > 0 && newest > 0 {
		token := strconv.FormatUint(newest, 10)
		if err := s.mailbox.SaveCheckpoint(ctx, token); err != nil {
			return fail(fmt.Errorf("save checkpoint: %w", err))
		}
		result.CheckpointTo = token
	}

	if s.opts.DryRun {
		fmt.Fprintf(out, "Dry run complete. %d emails parsed, nothing written.\n", len(ids))
	} else {
		fmt.Fprintf(out, "Completed. %d emails appended to the sheet.\n", result.Processed)
	}
	return result, nil
}
