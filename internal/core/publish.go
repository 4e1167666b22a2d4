package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/clinops/groundtruth/internal/logging"
)

// publish.go is the gate between conversion and durable state. Artifacts are
// written only after round-trip validation passes; a blocked run leaves the
// output directory and the bucket untouched. After a publish the downstream
// deployments are restarted so they reload the ground truth cache, and their
// logs are scanned for a load confirmation.

// ErrNoDocuments means the input parsed to zero document records, which is
// always an authoring or path mistake rather than a legitimate empty dataset.
var ErrNoDocuments = errors.New("no document records parsed from input")

// Artifact file names inside a version directory. The pointer lives at the
// output-directory root so consumers find it at a stable path.
const (
	FlatArtifactName  = "ground-truth.csv"
	DebugArtifactName = "ground-truth-debug.json"
	PointerFileName   = "LATEST"
)

// logTail is how many recent log lines to fetch per deployment when looking
// for the ground-truth load confirmation.
const logTail = 30

// ArtifactKey returns the object key of a version's flat artifact.
func ArtifactKey(prefix, version string) string {
	return fmt.Sprintf("%s/versions/%s/%s", prefix, version, FlatArtifactName)
}

// PointerKey returns the object key of the LATEST pointer.
func PointerKey(prefix string) string {
	return fmt.Sprintf("%s/%s", prefix, PointerFileName)
}

// Convert runs the full local pipeline: read, parse, encode, validate, and
// persist the versioned artifacts. A blocked result is returned with a nil
// error; the report tells the operator why.
func (s *Service) Convert(ctx context.Context) (*ConvertResult, error) {
	started := time.Now()
	res, err := s.convert(ctx, nil)
	s.recordRun(ctx, started, res, convertOutcome(res, err), "", errText(err))
	return res, err
}

func convertOutcome(res *ConvertResult, err error) string {
	switch {
	case err != nil:
		return OutcomeFailed
	case res.Blocked:
		return OutcomeBlocked
	}
	return OutcomeConverted
}

// convert is the gate proper. It emits progress into run when one is active
// and always returns a non-nil result so callers can report partial state.
func (s *Service) convert(ctx context.Context, run *activeRun) (*ConvertResult, error) {
	started := time.Now()
	res := &ConvertResult{RunID: s.runID(run), Version: s.Version()}
	log := logging.FromContext(ctx).With("run_id", res.RunID, "version", res.Version)

	s.emit(run, PhaseParsing, res, "")
	rows, err := ReadInput(s.cfg.Pipeline.InputPath)
	if err != nil {
		res.Duration = time.Since(started)
		s.emit(run, PhaseFailed, res, err.Error())
		return res, err
	}

	records, stats := Parse(rows)
	res.Stats = stats
	res.Records = records
	for _, f := range stats.MarkerFailures {
		log.Warn("document marker rejected, row dropped", "row", f.Row, "text", f.Text)
	}
	log.Info("parsed hierarchical export",
		"rows", stats.RowsRead,
		"documents", stats.Documents,
		"marker_failures", len(stats.MarkerFailures),
	)
	if len(records) == 0 {
		res.Duration = time.Since(started)
		s.emit(run, PhaseFailed, res, ErrNoDocuments.Error())
		return res, ErrNoDocuments
	}

	s.emit(run, PhaseEncoding, res, "")
	artifact, err := EncodeFlat(records, res.Version)
	if err != nil {
		res.Duration = time.Since(started)
		s.emit(run, PhaseFailed, res, err.Error())
		return res, err
	}

	s.emit(run, PhaseValidating, res, "")
	res.Report = Validate(records, artifact)
	if !res.Report.Valid {
		res.Blocked = true
		res.Duration = time.Since(started)
		log.Error("round-trip validation failed, nothing persisted",
			"issues", len(res.Report.Issues),
		)
		s.emit(run, PhaseBlocked, res, "")
		return res, nil
	}

	s.emit(run, PhasePersisting, res, "")
	if err := s.writeArtifacts(res, records, artifact); err != nil {
		res.Duration = time.Since(started)
		s.emit(run, PhaseFailed, res, err.Error())
		return res, err
	}

	res.Duration = time.Since(started)
	log.Info("conversion validated and persisted",
		"documents", stats.Documents,
		"flat", res.FlatPath,
		"sha256", res.SHA256,
	)
	return res, nil
}

// writeArtifacts persists the flat artifact, the debug artifact, and the
// LATEST pointer. Partial writes on failure are left in place; a re-run with
// the same version overwrites them.
func (s *Service) writeArtifacts(res *ConvertResult, records []DocumentRecord, artifact []byte) error {
	versionDir := filepath.Join(s.cfg.Pipeline.OutputDir, "versions", res.Version)
	if err := os.MkdirAll(versionDir, 0o755); err != nil {
		return fmt.Errorf("creating version directory: %w", err)
	}

	flatPath := filepath.Join(versionDir, FlatArtifactName)
	if err := os.WriteFile(flatPath, artifact, 0o644); err != nil {
		return fmt.Errorf("writing flat artifact: %w", err)
	}
	res.FlatPath = flatPath

	debug, err := debugJSON(records)
	if err != nil {
		return err
	}
	debugPath := filepath.Join(versionDir, DebugArtifactName)
	if err := os.WriteFile(debugPath, debug, 0o644); err != nil {
		return fmt.Errorf("writing debug artifact: %w", err)
	}
	res.DebugPath = debugPath

	pointer := BuildPointer(res.Version, S3URI(s.cfg.S3.Bucket, ArtifactKey(s.cfg.S3.Prefix, res.Version)), flatPath)
	data, err := pointer.Encode()
	if err != nil {
		return err
	}
	pointerPath := filepath.Join(s.cfg.Pipeline.OutputDir, PointerFileName)
	if err := os.WriteFile(pointerPath, data, 0o644); err != nil {
		return fmt.Errorf("writing pointer: %w", err)
	}
	res.PointerPath = pointerPath
	if pointer.SHA256 != nil {
		res.SHA256 = *pointer.SHA256
	}
	return nil
}

// debugJSON renders the parsed records, provenance included, for operator
// inspection. Unicode is preserved as written.
func debugJSON(records []DocumentRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("encoding debug artifact: %w", err)
	}
	return buf.Bytes(), nil
}

// Publish runs Convert and, when it passes, uploads the artifacts, verifies
// them remotely, and restarts the downstream deployments. Upload and
// verification failures propagate; restart problems are reported in the
// result but never fail an already-persisted publish.
func (s *Service) Publish(ctx context.Context) (*PublishResult, error) {
	started := time.Now()
	res, err := s.publish(ctx, nil)
	s.recordRun(ctx, started, &res.ConvertResult, publishOutcome(res, err), publishURI(res), errText(err))
	return res, err
}

func publishOutcome(res *PublishResult, err error) string {
	switch {
	case err != nil:
		return OutcomeFailed
	case res.Blocked:
		return OutcomeBlocked
	}
	return OutcomePublished
}

func publishURI(res *PublishResult) string {
	if res.ArtifactKey == "" {
		return ""
	}
	return S3URI(res.Bucket, res.ArtifactKey)
}

func (s *Service) publish(ctx context.Context, run *activeRun) (*PublishResult, error) {
	started := time.Now()
	res := &PublishResult{Bucket: s.cfg.S3.Bucket}

	if s.store == nil {
		return res, fmt.Errorf("object store not configured")
	}

	conv, err := s.convert(ctx, run)
	res.ConvertResult = *conv
	if err != nil {
		return res, err
	}
	if conv.Blocked {
		return res, nil
	}

	log := logging.FromContext(ctx).With("run_id", res.RunID, "version", res.Version)

	s.emit(run, PhaseUploading, &res.ConvertResult, "")
	res.ArtifactKey = ArtifactKey(s.cfg.S3.Prefix, res.Version)
	res.PointerKey = PointerKey(s.cfg.S3.Prefix)

	if err := s.store.Upload(ctx, res.FlatPath, res.Bucket, res.ArtifactKey, "text/csv"); err != nil {
		err = fmt.Errorf("uploading flat artifact: %w", err)
		s.emit(run, PhaseFailed, &res.ConvertResult, err.Error())
		return res, err
	}
	log.Info("flat artifact uploaded", "uri", S3URI(res.Bucket, res.ArtifactKey))

	if err := s.store.Upload(ctx, res.PointerPath, res.Bucket, res.PointerKey, "application/json"); err != nil {
		err = fmt.Errorf("uploading pointer: %w", err)
		s.emit(run, PhaseFailed, &res.ConvertResult, err.Error())
		return res, err
	}
	log.Info("pointer updated", "uri", S3URI(res.Bucket, res.PointerKey))

	if err := s.verifyUpload(ctx, res); err != nil {
		s.emit(run, PhaseFailed, &res.ConvertResult, err.Error())
		return res, err
	}

	s.restartDeployments(ctx, run, res)

	res.Duration = time.Since(started)
	s.emit(run, PhaseComplete, &res.ConvertResult, "")
	log.Info("publish complete", "documents", res.Stats.Documents, "version", res.Version)
	return res, nil
}

// verifyUpload confirms both objects landed and that the remote pointer
// parses back to a usable key.
func (s *Service) verifyUpload(ctx context.Context, res *PublishResult) error {
	log := logging.FromContext(ctx).With("run_id", res.RunID)

	size, err := s.store.Head(ctx, res.Bucket, res.ArtifactKey)
	if err != nil {
		return fmt.Errorf("verifying flat artifact: %w", err)
	}
	res.ArtifactSize = size

	size, err = s.store.Head(ctx, res.Bucket, res.PointerKey)
	if err != nil {
		return fmt.Errorf("verifying pointer: %w", err)
	}
	res.PointerSize = size

	data, err := s.store.Get(ctx, res.Bucket, res.PointerKey)
	if err != nil {
		return fmt.Errorf("reading pointer back: %w", err)
	}
	res.RemotePointer = string(data)

	key, pointer, err := ParsePointer(data)
	if err != nil {
		return fmt.Errorf("remote pointer does not parse: %w", err)
	}
	if key != res.ArtifactKey {
		return fmt.Errorf("remote pointer key %q does not match uploaded artifact %q", key, res.ArtifactKey)
	}
	if pointer != nil {
		log.Info("remote pointer verified", "version", pointer.Version, "updated_at", pointer.UpdatedAt)
	}
	return nil
}

// restartDeployments triggers a rollout for every configured deployment and
// waits for readiness within the configured timeout. Afterwards it scans
// recent logs for the ground-truth load confirmation. Failures here are
// reported per deployment; the publish itself already succeeded.
func (s *Service) restartDeployments(ctx context.Context, run *activeRun, res *PublishResult) {
	if s.deploy == nil || s.cfg.Deploy.SkipRestart || len(s.cfg.Deploy.Deployments) == 0 {
		return
	}
	log := logging.FromContext(ctx).With("run_id", res.RunID)
	ns := s.cfg.Deploy.Namespace

	s.emit(run, PhaseRestarting, &res.ConvertResult, "")
	for _, deployment := range s.cfg.Deploy.Deployments {
		status := RestartStatus{Deployment: deployment}

		if err := s.deploy.Restart(ctx, ns, deployment); err != nil {
			status.Error = err.Error()
			log.Warn("restart failed, restart it manually", "deployment", deployment, "error", err)
			res.Restarts = append(res.Restarts, status)
			continue
		}
		status.Restarted = true

		if err := s.deploy.AwaitReady(ctx, ns, deployment, s.cfg.Deploy.RolloutTimeout); err != nil {
			log.Warn("rollout not confirmed within timeout, may still be in progress",
				"deployment", deployment, "error", err)
		} else {
			status.RolloutOK = true
		}

		// Give the fresh pods a moment to log their startup before scanning.
		select {
		case <-ctx.Done():
			res.Restarts = append(res.Restarts, status)
			return
		case <-time.After(s.settleDelay):
		}

		logs, err := s.deploy.RecentLogs(ctx, ns, deployment, logTail)
		if err != nil {
			log.Warn("could not fetch deployment logs", "deployment", deployment, "error", err)
		} else {
			status.LogLines = relevantLogLines(logs)
			status.LoadConfirmed = strings.Contains(logs, "documents loaded")
		}
		res.Restarts = append(res.Restarts, status)
	}
}

// relevantLogLines filters deployment logs down to the lines that talk about
// the ground truth cache.
func relevantLogLines(logs string) []string {
	var out []string
	for _, line := range strings.Split(logs, "\n") {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "ground") || strings.Contains(lower, "cache") || strings.Contains(lower, "document") {
			out = append(out, line)
		}
	}
	return out
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
