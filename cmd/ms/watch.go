package main

import (
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/daviddao/mailsheets/internal/display"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run passes on a schedule until interrupted",
	Long: `Run a pass immediately and then on a cron schedule. A pass that is still
running when the next one is due is skipped, so passes never overlap.
Failed passes are logged and the schedule continues.`,
	Example: `  ms watch
  ms watch --schedule "@every 15m"
  ms watch --schedule "0 8-18 * * 1-5" --metrics-file /var/lib/node_exporter/mailsheets.prom`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		var p *pipeline
		job := cron.FuncJob(func() {
			if ctx.Err() != nil {
				return
			}
			result, err := p.pass(ctx)
			if err != nil {
				logger.WithFields(logrus.Fields{
					"run_id":    result.RunID,
					"processed": result.Processed,
				}).WithError(err).Error("pass failed")
				if !quietFlag {
					display.ErrorMsg(cmd.ErrOrStderr(), "pass failed: %v", err)
				}
			}
		})

		c, err := newScheduler(cfg.Watch.Schedule, job)
		if err != nil {
			return err
		}

		p, err = newPipeline(ctx, out)
		if err != nil {
			return err
		}
		defer p.Close()

		if !quietFlag {
			fmt.Fprintf(out, "Watching inbox (%s). Press Ctrl+C to stop.\n", cfg.Watch.Schedule)
		}
		job.Run()

		c.Start()
		<-ctx.Done()
		<-c.Stop().Done()

		if !quietFlag {
			fmt.Fprintln(out, "Stopped.")
		}
		return nil
	},
}

// newScheduler registers job on schedule. Overlapping runs are skipped and
// panics are recovered.
func newScheduler(schedule string, job cron.Job) (*cron.Cron, error) {
	clog := cron.VerbosePrintfLogger(logger.WithField("component", "cron"))
	c := cron.New(cron.WithLogger(clog), cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)))
	if _, err := c.AddJob(schedule, job); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	return c, nil
}

func init() {
	addRunFlags(watchCmd)
	watchCmd.Flags().String("schedule", "", `Cron spec or descriptor (default "@every 5m")`)
	rootCmd.AddCommand(watchCmd)
}
