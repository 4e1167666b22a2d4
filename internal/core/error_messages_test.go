package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "missing input maps correctly",
			err:         fmt.Errorf("%w: open /tmp/x.csv: no such file", ErrInputUnavailable),
			wantCode:    "INP001",
			wantMessage: "The input CSV is missing or unreadable",
		},
		{
			name:        "zero documents maps correctly",
			err:         ErrNoDocuments,
			wantCode:    "INP002",
			wantMessage: "The input parsed to zero document records",
		},
		{
			name:        "blocked validation maps correctly",
			err:         errors.New("conversion blocked by round-trip validation: 3 issue(s)"),
			wantCode:    "VAL001",
			wantMessage: "The flat artifact did not round-trip back to the parsed records",
		},
		{
			name:     "artifact upload maps correctly",
			err:      errors.New("uploading flat artifact: access denied"),
			wantCode: "PUB001",
		},
		{
			name:     "pointer upload maps correctly",
			err:      errors.New("uploading pointer: access denied"),
			wantCode: "PUB002",
		},
		{
			name:     "verification maps correctly",
			err:      errors.New("verifying flat artifact: not found"),
			wantCode: "PUB003",
		},
		{
			name:     "pointer read-back maps correctly",
			err:      errors.New("reading pointer back: not found"),
			wantCode: "PUB003",
		},
		{
			name:     "pointer mismatch maps correctly",
			err:      errors.New(`remote pointer key "a" does not match uploaded artifact "b"`),
			wantCode: "PUB004",
		},
		{
			name:     "rollout failure maps correctly",
			err:      errors.New("kubectl rollout restart deployment/metrics-service: exit status 1"),
			wantCode: "DEP001",
		},
		{
			name:     "kubectl failure maps correctly",
			err:      errors.New("kubectl logs deployment/metrics-service: executable not found"),
			wantCode: "DEP002",
		},
		{
			name:     "cancellation maps correctly",
			err:      fmt.Errorf("uploading aborted: %w", errors.New("context canceled")),
			wantCode: "RUN001",
		},
		{
			name:     "timeout maps correctly",
			err:      errors.New("context deadline exceeded"),
			wantCode: "RUN002",
		},
		{
			name:     "history failure maps correctly",
			err:      errors.New("history db: unable to open database file"),
			wantCode: "HIST001",
		},
		{
			name:     "aws credential failure maps correctly",
			err:      errors.New("failed to retrieve credentials: no EC2 IMDS role found"),
			wantCode: "AWS001",
		},
		{
			name:        "unknown error falls back to default",
			err:         errors.New("something nobody anticipated"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:     "matching is case-insensitive",
			err:      errors.New("UPLOADING FLAT ARTIFACT: denied"),
			wantCode: "PUB001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := MapError(tt.err)
			if msg.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", msg.Code, tt.wantCode)
			}
			if tt.wantMessage != "" && msg.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", msg.Message, tt.wantMessage)
			}
		})
	}
}

func TestMapError_FirstMatchWins(t *testing.T) {
	// An AWS SDK error wrapped by the upload path must report the upload
	// code, not the generic AWS one.
	err := errors.New("uploading flat artifact: operation error S3: PutObject, https response error")
	if msg := MapError(err); msg.Code != "PUB001" {
		t.Errorf("Code = %q, want PUB001", msg.Code)
	}

	// Unwrapped SDK errors still map to the AWS code.
	err = errors.New("operation error S3: HeadObject, api error NotFound")
	if msg := MapError(err); msg.Code != "AWS001" {
		t.Errorf("Code = %q, want AWS001", msg.Code)
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(fmt.Errorf("%w: gone", ErrInputUnavailable))
	want := "The input CSV is missing or unreadable (Code: INP001). Check INPUT_PATH points at the exported ground-truth CSV"
	if got != want {
		t.Errorf("FormatUserError:\n got %q\nwant %q", got, want)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"known pattern", ErrNoDocuments, true},
		{"unknown error", errors.New("mystery"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing = %v, want %v", got, tt.want)
			}
		})
	}
}
