package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/clinops/groundtruth/internal/core"
)

func newTestPrinter() (*Printer, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewPrinter(&buf, true, false), &buf
}

func TestHeader(t *testing.T) {
	p, buf := newTestPrinter()
	p.Header("Ground Truth Publish")

	out := buf.String()
	if !strings.Contains(out, "Ground Truth Publish") {
		t.Errorf("output missing title: %q", out)
	}
	if !strings.Contains(out, strings.Repeat("=", bannerWidth)) {
		t.Errorf("output missing banner: %q", out)
	}
}

func TestQuietSuppressesInfo(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true, true)

	p.Infof("routine detail")
	p.Successf("also routine")
	p.Warnf("still shown")

	out := buf.String()
	if strings.Contains(out, "routine") {
		t.Errorf("quiet output should drop info lines: %q", out)
	}
	if !strings.Contains(out, "[WARN] still shown") {
		t.Errorf("quiet output should keep warnings: %q", out)
	}
}

func TestConvertSummary(t *testing.T) {
	p, buf := newTestPrinter()
	p.ConvertSummary(&core.ConvertResult{
		Version: "2025.01.15",
		Stats: core.ParseStats{
			RowsRead:  40,
			Documents: 3,
			MarkerFailures: []core.MarkerFailure{
				{Row: 12, Text: "Document (x): broken"},
			},
		},
		FlatPath: "out/versions/2025.01.15/ground-truth.csv",
		SHA256:   "abc123",
		Duration: 42 * time.Millisecond,
	})

	out := buf.String()
	for _, want := range []string{
		"2025.01.15",
		"Documents:        3",
		"[WARN] Rejected markers: 1",
		"row 12",
		"[OK] Flat artifact",
		"abc123",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestValidationIssues_Blocked(t *testing.T) {
	p, buf := newTestPrinter()
	rep := core.ValidationReport{Documents: 2}
	rep.Valid = false
	rep.Issues = []core.ValidationIssue{
		{Index: 0, Document: "doc-1", Field: "medicamentos", Message: `missing from artifact: "aspirina"`},
	}
	p.ValidationIssues(rep)

	out := buf.String()
	if !strings.Contains(out, "FAILED with 1 issue(s)") {
		t.Errorf("output missing failure line: %q", out)
	}
	if !strings.Contains(out, "doc-1") || !strings.Contains(out, "medicamentos") {
		t.Errorf("output missing issue detail: %q", out)
	}
}

func TestValidationIssues_Passed(t *testing.T) {
	p, buf := newTestPrinter()
	p.ValidationIssues(core.ValidationReport{Valid: true, Documents: 5})

	if !strings.Contains(buf.String(), "[OK] Round-trip validation passed for 5 documents") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestPublishSummary_RestartStatuses(t *testing.T) {
	p, buf := newTestPrinter()
	res := &core.PublishResult{
		Bucket:       "bucket",
		ArtifactKey:  "datasets/traces/versions/2025.01.15/ground-truth.csv",
		PointerKey:   "datasets/traces/LATEST",
		ArtifactSize: 2048,
		PointerSize:  180,
	}
	res.Version = "2025.01.15"
	res.Restarts = []core.RestartStatus{
		{Deployment: "metrics-service", Restarted: true, RolloutOK: true, LoadConfirmed: true},
		{Deployment: "eval-worker", Error: "kubectl rollout restart eval-worker: exit status 1"},
	}
	p.PublishSummary(res)

	out := buf.String()
	if !strings.Contains(out, "s3://bucket/datasets/traces/versions/2025.01.15/ground-truth.csv") {
		t.Errorf("output missing artifact URI:\n%s", out)
	}
	if !strings.Contains(out, "[OK] Restart metrics-service: rolled out, ground truth load confirmed") {
		t.Errorf("output missing confirmed restart:\n%s", out)
	}
	if !strings.Contains(out, "[WARN] Restart eval-worker") {
		t.Errorf("output missing failed restart:\n%s", out)
	}
}

func TestRunHistory(t *testing.T) {
	p, buf := newTestPrinter()
	p.RunHistory([]core.RunRecord{
		{
			StartedAt: time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC),
			Version:   "2025.01.15",
			Outcome:   core.OutcomePublished,
			Documents: 128,
			SHA256:    "0123456789abcdef0123",
		},
		{
			StartedAt: time.Date(2025, 1, 14, 9, 0, 0, 0, time.UTC),
			Version:   "2025.01.14",
			Outcome:   core.OutcomeBlocked,
			Documents: 127,
			Error:     "round-trip validation failed",
		},
	})

	out := buf.String()
	if !strings.Contains(out, "2025.01.15") || !strings.Contains(out, "published") {
		t.Errorf("output missing published run:\n%s", out)
	}
	if !strings.Contains(out, "0123456789ab") || strings.Contains(out, "0123456789abcdef0123") {
		t.Errorf("sha should be truncated to 12 chars:\n%s", out)
	}
	if !strings.Contains(out, "error: round-trip validation failed") {
		t.Errorf("output missing run error:\n%s", out)
	}
}

func TestRunHistory_Empty(t *testing.T) {
	p, buf := newTestPrinter()
	p.RunHistory(nil)

	if !strings.Contains(buf.String(), "No runs recorded yet.") {
		t.Errorf("output = %q", buf.String())
	}
}
