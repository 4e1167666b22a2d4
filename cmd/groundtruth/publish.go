package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clinops/groundtruth/internal/core"
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Convert, upload to S3, and restart the consumers",
	Long: `Publish runs the full pipeline: convert and validate locally, upload the
flat artifact and the LATEST pointer to S3, verify both remotely, then
restart the consuming deployments so they reload the ground truth.

A blocked validation stops before anything durable happens. Restart
problems are reported but never fail an already-published run.`,
	Args: cobra.NoArgs,
	RunE: runPublish,
}

func init() {
	publishCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")
	publishCmd.Flags().Bool("skip-restart", false, "do not restart consumer deployments after upload")
}

func runPublish(cmd *cobra.Command, _ []string) error {
	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return fmt.Errorf("failed to get yes flag: %w", err)
	}
	skipRestart, err := cmd.Flags().GetBool("skip-restart")
	if err != nil {
		return fmt.Errorf("failed to get skip-restart flag: %w", err)
	}

	app, cleanup, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer cleanup()

	if skipRestart {
		app.cfg.Deploy.SkipRestart = true
	}

	app.printer.Header("Ground Truth Publish")
	app.printer.Infof("Input:   %s", app.cfg.Pipeline.InputPath)
	app.printer.Infof("Bucket:  s3://%s/%s", app.cfg.S3.Bucket, app.cfg.S3.Prefix)
	app.printer.Infof("Version: %s", app.service.Version())

	if !yes {
		ok, err := confirm(cmd, "Publish to the bucket and restart consumers?")
		if err != nil {
			return err
		}
		if !ok {
			app.printer.Infof("Aborted.")
			return nil
		}
	}

	runID, err := app.service.StartPublish(cmd.Context())
	if err != nil {
		return err
	}

	drained := make(chan struct{})
	if progress, err := app.service.SubscribeProgress(runID); err == nil {
		go func() {
			defer close(drained)
			for p := range progress {
				switch p.Phase {
				case core.PhaseStarting, core.PhaseComplete, core.PhaseBlocked, core.PhaseFailed:
				default:
					app.printer.Infof("... %s", p.Phase)
				}
			}
		}()
	} else {
		close(drained)
	}

	res, err := app.service.Result(cmd.Context(), runID)
	// The progress channel closes when the run ends; wait for the last
	// updates so they never interleave with the summary.
	<-drained
	if res != nil {
		app.printer.PublishSummary(res)
		if res.Report.Documents > 0 || len(res.Report.Issues) > 0 {
			app.printer.ValidationIssues(res.Report)
		}
	}
	if err != nil {
		return err
	}
	if res.Blocked {
		return fmt.Errorf("publish blocked by round-trip validation: %d issue(s)", len(res.Report.Issues))
	}

	app.printer.Successf("Publish complete")
	return nil
}

// confirm asks a yes/no question on the command's streams. Anything but an
// explicit yes declines.
func confirm(cmd *cobra.Command, prompt string) (bool, error) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
