package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/clinops/groundtruth/internal/config"
	"github.com/clinops/groundtruth/internal/logging"
	"github.com/google/uuid"
)

// service.go owns the run lifecycle: one Service coordinates conversion and
// publish runs, fans progress out to subscribers, and records every run in
// the history ledger. At most one run is active at a time; the pipeline has
// no locking discipline of its own because all-or-nothing persistence is
// what guarantees correctness, not concurrency control.

// ErrRunActive is returned when a run is requested while another is still in
// progress.
var ErrRunActive = errors.New("another run is already in progress")

// ErrRunNotFound is returned for run ids the service does not know.
var ErrRunNotFound = errors.New("run not found")

// defaultSettleDelay is how long to wait after a rollout before scanning
// deployment logs, so fresh pods have logged their startup.
const defaultSettleDelay = 10 * time.Second

// ObjectStore is the remote store publish runs upload artifacts to. A nil
// store disables publishing; conversion still works locally.
type ObjectStore interface {
	// Upload sends the file at localPath to bucket/key with the given
	// content type.
	Upload(ctx context.Context, localPath, bucket, key, contentType string) error
	// Head returns the stored object's size; a missing object is an error.
	Head(ctx context.Context, bucket, key string) (int64, error)
	// Get fetches the stored object's bytes.
	Get(ctx context.Context, bucket, key string) ([]byte, error)
}

// DeploymentController restarts downstream consumers of the published
// artifact and exposes just enough visibility to confirm they picked it up.
type DeploymentController interface {
	Restart(ctx context.Context, namespace, deployment string) error
	AwaitReady(ctx context.Context, namespace, deployment string, timeout time.Duration) error
	RecentLogs(ctx context.Context, namespace, deployment string, tail int) (string, error)
}

// Service provides the conversion and publish operations.
type Service struct {
	cfg     *config.Config
	store   ObjectStore
	deploy  DeploymentController
	history *HistoryStore

	settleDelay time.Duration

	mu     sync.Mutex
	active *activeRun
}

type activeRun struct {
	ID         string
	Cancel     context.CancelFunc
	Progress   RunProgress
	Result     *PublishResult
	Err        error
	Done       chan struct{}
	Listeners  []chan RunProgress
	ListenerMu sync.Mutex
}

// NewService wires a Service. store, deploy, and history may each be nil:
// a nil store disables publishing, a nil deploy skips restarts, and a nil
// history skips ledger writes.
func NewService(cfg *config.Config, store ObjectStore, deploy DeploymentController, history *HistoryStore) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	return &Service{
		cfg:         cfg,
		store:       store,
		deploy:      deploy,
		history:     history,
		settleDelay: defaultSettleDelay,
	}, nil
}

// Version returns the version tag for the next run: the configured override
// when set, otherwise today's date.
func (s *Service) Version() string {
	if s.cfg.Pipeline.VersionTag != "" {
		return s.cfg.Pipeline.VersionTag
	}
	return time.Now().Format("2006.01.02")
}

// History exposes the run ledger, nil when none is configured.
func (s *Service) History() *HistoryStore {
	return s.history
}

// StartPublish launches a publish run on a background goroutine and returns
// its run id. Only one run may be active at a time.
func (s *Service) StartPublish(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		select {
		case <-s.active.Done:
			// Previous run finished; replace it.
		default:
			return "", ErrRunActive
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, s.cfg.Pipeline.PublishTimeout)
	run := &activeRun{
		ID:     uuid.New().String(),
		Cancel: cancel,
		Done:   make(chan struct{}),
	}
	run.Progress = RunProgress{RunID: run.ID, Phase: PhaseStarting}
	s.active = run

	go s.runPublish(runCtx, run)
	return run.ID, nil
}

func (s *Service) runPublish(ctx context.Context, run *activeRun) {
	defer run.Cancel()
	started := time.Now()

	ctx = logging.WithRunID(ctx, run.ID)
	res, err := s.publish(ctx, run)
	s.recordRun(ctx, started, &res.ConvertResult, publishOutcome(res, err), publishURI(res), errText(err))

	s.mu.Lock()
	run.Result = res
	run.Err = err
	s.mu.Unlock()

	// Closing Done and the listener channels under the same lock keeps
	// SubscribeProgress from appending a listener that would never close.
	run.ListenerMu.Lock()
	close(run.Done)
	for _, ch := range run.Listeners {
		close(ch)
	}
	run.Listeners = nil
	run.ListenerMu.Unlock()
}

// SubscribeProgress returns a channel of progress snapshots for the run,
// closed when the run completes. The channel is buffered and slow consumers
// miss intermediate updates rather than stalling the pipeline.
func (s *Service) SubscribeProgress(runID string) (<-chan RunProgress, error) {
	s.mu.Lock()
	run := s.active
	s.mu.Unlock()

	if run == nil || run.ID != runID {
		return nil, ErrRunNotFound
	}

	ch := make(chan RunProgress, 16)
	run.ListenerMu.Lock()
	select {
	case <-run.Done:
		// Run already finished; deliver the final snapshot and close.
		ch <- run.Progress
		close(ch)
	default:
		run.Listeners = append(run.Listeners, ch)
		ch <- run.Progress
	}
	run.ListenerMu.Unlock()
	return ch, nil
}

// Result blocks until the run completes and returns its outcome.
func (s *Service) Result(ctx context.Context, runID string) (*PublishResult, error) {
	s.mu.Lock()
	run := s.active
	s.mu.Unlock()

	if run == nil || run.ID != runID {
		return nil, ErrRunNotFound
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-run.Done:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return run.Result, run.Err
}

// CancelRun cancels an in-flight run. The run still completes its teardown
// and publishes a final progress snapshot.
func (s *Service) CancelRun(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil || s.active.ID != runID {
		return ErrRunNotFound
	}
	s.active.Cancel()
	return nil
}

// emit updates the run's progress snapshot and notifies subscribers. A nil
// run (synchronous call path) is a no-op.
func (s *Service) emit(run *activeRun, phase RunPhase, res *ConvertResult, errText string) {
	if run == nil {
		return
	}
	progress := RunProgress{
		RunID:     run.ID,
		Phase:     phase,
		Version:   res.Version,
		Documents: res.Stats.Documents,
		Error:     errText,
	}

	run.ListenerMu.Lock()
	run.Progress = progress
	for _, ch := range run.Listeners {
		select {
		case ch <- progress:
		default:
			// Listener is behind; it will see the next snapshot.
		}
	}
	run.ListenerMu.Unlock()
}

// runID returns the active run's id, or a fresh one for synchronous calls so
// every ledger row has a stable identifier.
func (s *Service) runID(run *activeRun) string {
	if run != nil {
		return run.ID
	}
	return uuid.New().String()
}

// recordRun writes one ledger row. The ledger is observational: failures are
// logged and never fail the run.
func (s *Service) recordRun(ctx context.Context, startedAt time.Time, res *ConvertResult, outcome, s3URI, errText string) {
	if s.history == nil || res == nil {
		return
	}
	rec := RunRecord{
		ID:             res.RunID,
		StartedAt:      startedAt.UTC(),
		FinishedAt:     time.Now().UTC(),
		Version:        res.Version,
		Documents:      res.Stats.Documents,
		MarkerFailures: len(res.Stats.MarkerFailures),
		Issues:         len(res.Report.Issues),
		Valid:          res.Report.Valid,
		Outcome:        outcome,
		SHA256:         res.SHA256,
		S3URI:          s3URI,
		Error:          errText,
	}
	if err := s.history.RecordRun(ctx, rec); err != nil {
		logging.FromContext(ctx).Warn("recording run in history ledger", "run_id", res.RunID, "error", err)
	}
}
