package core

import "time"

// types.go defines the run lifecycle types shared by the pipeline, the
// progress subscription API, and the presentation layer.

// RunPhase represents the current phase of a conversion or publish run.
type RunPhase string

const (
	PhaseStarting   RunPhase = "starting"
	PhaseParsing    RunPhase = "parsing"
	PhaseEncoding   RunPhase = "encoding"
	PhaseValidating RunPhase = "validating"
	PhasePersisting RunPhase = "persisting"
	PhaseUploading  RunPhase = "uploading"
	PhaseRestarting RunPhase = "restarting"
	PhaseComplete   RunPhase = "complete"
	PhaseBlocked    RunPhase = "blocked"
	PhaseFailed     RunPhase = "failed"
)

// MarkerFailure records a document-marker row whose identifier could not be
// extracted. The row is dropped from the parse; these are the only rows the
// parser can silently lose, so they are always surfaced to the operator.
type MarkerFailure struct {
	Row  int    `json:"row"`
	Text string `json:"text"`
}

// ParseStats summarizes one pass over the hierarchical export.
type ParseStats struct {
	RowsRead       int             `json:"rowsRead"`
	Documents      int             `json:"documents"`
	MarkerFailures []MarkerFailure `json:"markerFailures,omitempty"`
}

// RunProgress is a snapshot of an active run, broadcast to subscribers.
type RunProgress struct {
	RunID     string   `json:"runId"`
	Phase     RunPhase `json:"phase"`
	Version   string   `json:"version"`
	Documents int      `json:"documents"`
	Error     string   `json:"error,omitempty"`
}

// ConvertResult is the outcome of one parse → encode → validate → persist
// pass. When Blocked is true nothing was persisted and Report carries the
// full discrepancy list.
type ConvertResult struct {
	RunID       string           `json:"runId"`
	Version     string           `json:"version"`
	Stats       ParseStats       `json:"stats"`
	Report      ValidationReport `json:"report"`
	Blocked     bool             `json:"blocked"`
	FlatPath    string           `json:"flatPath,omitempty"`
	DebugPath   string           `json:"debugPath,omitempty"`
	PointerPath string           `json:"pointerPath,omitempty"`
	SHA256      string           `json:"sha256,omitempty"`
	Duration    time.Duration    `json:"duration"`

	// Records carries the sealed documents for callers that render previews.
	// Excluded from JSON; the debug artifact already holds them.
	Records []DocumentRecord `json:"-"`
}

// RestartStatus reports the restart outcome for one downstream deployment.
// Restart problems never invalidate an already-persisted publish; they are
// reported here for the operator to follow up on.
type RestartStatus struct {
	Deployment    string   `json:"deployment"`
	Restarted     bool     `json:"restarted"`
	RolloutOK     bool     `json:"rolloutOk"`
	LoadConfirmed bool     `json:"loadConfirmed"`
	LogLines      []string `json:"logLines,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// PublishResult extends ConvertResult with the upload, verification, and
// restart outcomes.
type PublishResult struct {
	ConvertResult
	Bucket        string          `json:"bucket"`
	ArtifactKey   string          `json:"artifactKey,omitempty"`
	PointerKey    string          `json:"pointerKey,omitempty"`
	ArtifactSize  int64           `json:"artifactSize,omitempty"`
	PointerSize   int64           `json:"pointerSize,omitempty"`
	RemotePointer string          `json:"remotePointer,omitempty"`
	Restarts      []RestartStatus `json:"restarts,omitempty"`
}
