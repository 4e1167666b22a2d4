// Package report renders operator-facing summaries of pipeline runs for the
// terminal. All durable state lives elsewhere; this package only formats.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/clinops/groundtruth/internal/core"
)

const bannerWidth = 72

// Printer writes human-readable run summaries. Quiet mode suppresses
// informational output while keeping warnings and errors.
type Printer struct {
	out   io.Writer
	quiet bool

	head *color.Color
	ok   *color.Color
	warn *color.Color
	fail *color.Color
}

// NewPrinter builds a Printer writing to out. noColor disables ANSI colors
// for pipes and dumb terminals.
func NewPrinter(out io.Writer, noColor, quiet bool) *Printer {
	if noColor {
		color.NoColor = true
	}
	return &Printer{
		out:   out,
		quiet: quiet,
		head:  color.New(color.FgCyan, color.Bold),
		ok:    color.New(color.FgGreen, color.Bold),
		warn:  color.New(color.FgYellow),
		fail:  color.New(color.FgRed, color.Bold),
	}
}

// Header prints a banner line around title.
func (p *Printer) Header(title string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.out, strings.Repeat("=", bannerWidth))
	p.head.Fprintln(p.out, title)
	fmt.Fprintln(p.out, strings.Repeat("=", bannerWidth))
}

// Infof prints an informational line unless quiet mode is on.
func (p *Printer) Infof(format string, args ...any) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Successf prints a success line prefixed with [OK].
func (p *Printer) Successf(format string, args ...any) {
	if p.quiet {
		return
	}
	p.ok.Fprint(p.out, "[OK] ")
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Warnf prints a warning line prefixed with [WARN].
func (p *Printer) Warnf(format string, args ...any) {
	p.warn.Fprint(p.out, "[WARN] ")
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Errorf prints an error line prefixed with [ERROR].
func (p *Printer) Errorf(format string, args ...any) {
	p.fail.Fprint(p.out, "[ERROR] ")
	fmt.Fprintf(p.out, format+"\n", args...)
}

// ConvertSummary reports what a conversion run produced.
func (p *Printer) ConvertSummary(res *core.ConvertResult) {
	if res == nil {
		return
	}
	p.Infof("")
	p.Infof("Version:          %s", res.Version)
	p.Infof("Rows read:        %d", res.Stats.RowsRead)
	p.Infof("Documents:        %d", res.Stats.Documents)
	if n := len(res.Stats.MarkerFailures); n > 0 {
		p.Warnf("Rejected markers: %d (rows dropped, see log)", n)
		for _, f := range res.Stats.MarkerFailures {
			p.Warnf("  row %d: %s", f.Row, f.Text)
		}
	}
	if res.Blocked {
		return
	}
	if res.FlatPath != "" {
		p.Successf("Flat artifact:    %s", res.FlatPath)
	}
	if res.DebugPath != "" {
		p.Successf("Debug artifact:   %s", res.DebugPath)
	}
	if res.PointerPath != "" {
		p.Successf("Pointer:          %s", res.PointerPath)
	}
	if res.SHA256 != "" {
		p.Infof("SHA-256:          %s", res.SHA256)
	}
	p.Infof("Elapsed:          %s", res.Duration.Round(time.Millisecond))
}

// ValidationIssues lists every discrepancy the round-trip gate found.
func (p *Printer) ValidationIssues(rep core.ValidationReport) {
	if rep.Valid {
		p.Successf("Round-trip validation passed for %d documents", rep.Documents)
		return
	}
	p.Errorf("Round-trip validation FAILED with %d issue(s); nothing was persisted", len(rep.Issues))
	for _, issue := range rep.Issues {
		p.Errorf("  %s", issue.Error())
	}
}

// PublishSummary reports what a publish run uploaded and how the consumer
// restarts went.
func (p *Printer) PublishSummary(res *core.PublishResult) {
	if res == nil {
		return
	}
	p.ConvertSummary(&res.ConvertResult)
	if res.Blocked || res.ArtifactKey == "" {
		return
	}

	p.Infof("")
	p.Successf("Uploaded:         %s (%s)", core.S3URI(res.Bucket, res.ArtifactKey), humanize.IBytes(uint64(res.ArtifactSize)))
	p.Successf("Pointer:          %s (%s)", core.S3URI(res.Bucket, res.PointerKey), humanize.IBytes(uint64(res.PointerSize)))

	for _, st := range res.Restarts {
		switch {
		case st.Error != "":
			p.Warnf("Restart %s: %s", st.Deployment, st.Error)
		case !st.RolloutOK:
			p.Warnf("Restart %s: rollout not confirmed within timeout", st.Deployment)
		case st.LoadConfirmed:
			p.Successf("Restart %s: rolled out, ground truth load confirmed", st.Deployment)
		default:
			p.Warnf("Restart %s: rolled out, no load confirmation in recent logs", st.Deployment)
		}
		for _, line := range st.LogLines {
			p.Infof("    %s", line)
		}
	}
}

// RunHistory lists past runs from the ledger, newest first.
func (p *Printer) RunHistory(recs []core.RunRecord) {
	if len(recs) == 0 {
		p.Infof("No runs recorded yet.")
		return
	}
	p.Infof("%-20s  %-12s  %-10s  %10s  %s", "STARTED", "VERSION", "OUTCOME", "DOCUMENTS", "SHA256")
	for _, rec := range recs {
		sha := rec.SHA256
		if len(sha) > 12 {
			sha = sha[:12]
		}
		line := fmt.Sprintf("%-20s  %-12s  %-10s  %10d  %s",
			rec.StartedAt.Local().Format("2006-01-02 15:04:05"),
			rec.Version, rec.Outcome, rec.Documents, sha)
		switch rec.Outcome {
		case core.OutcomePublished:
			p.ok.Fprintln(p.out, line)
		case core.OutcomeBlocked, core.OutcomeFailed:
			p.warn.Fprintln(p.out, line)
		default:
			fmt.Fprintln(p.out, line)
		}
		if rec.Error != "" {
			p.Infof("    error: %s", rec.Error)
		}
	}
}
