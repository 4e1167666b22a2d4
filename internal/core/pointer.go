package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
)

// pointer.go builds and parses the LATEST pointer: a small JSON document
// telling consumers where the current artifact lives and how to verify it.
// Earlier releases of the pipeline wrote the pointer as a bare object key in
// plain text; consumers still encounter those, so parsing accepts both
// generations.

// Pointer identifies the latest published flat artifact.
type Pointer struct {
	Version   string  `json:"version"`
	UpdatedAt string  `json:"updated_at"`
	S3URI     string  `json:"s3_uri"`
	SHA256    *string `json:"sha256"`
}

var s3URIPattern = regexp.MustCompile(`^s3://[^/]+/(.+)$`)

// BuildPointer creates a pointer for the artifact at artifactPath. The
// digest is computed from the file bytes; when the file cannot be read the
// pointer still publishes with a null digest, matching what consumers expect
// from older pipeline runs.
func BuildPointer(version, s3URI, artifactPath string) Pointer {
	return Pointer{
		Version:   version,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
		S3URI:     s3URI,
		SHA256:    fileSHA256(artifactPath),
	}
}

// Encode renders the pointer as indented JSON, keys in declaration order.
func (p Pointer) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding pointer: %w", err)
	}
	return data, nil
}

// Key extracts the object key from the pointer's s3_uri.
func (p Pointer) Key() (string, error) {
	m := s3URIPattern.FindStringSubmatch(p.S3URI)
	if m == nil {
		return "", fmt.Errorf("invalid s3_uri format: %q", p.S3URI)
	}
	return m[1], nil
}

// ParsePointer reads a pointer body in either generation. JSON bodies return
// the parsed pointer and the key extracted from its s3_uri; legacy plain-text
// bodies return the trimmed content as the key with a nil pointer.
func ParsePointer(data []byte) (string, *Pointer, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return "", nil, fmt.Errorf("pointer is empty")
	}

	if !strings.HasPrefix(trimmed, "{") {
		return trimmed, nil, nil
	}

	var p Pointer
	if err := json.Unmarshal([]byte(trimmed), &p); err != nil {
		return "", nil, fmt.Errorf("parsing pointer json: %w", err)
	}
	if p.S3URI == "" {
		return "", nil, fmt.Errorf("pointer has no s3_uri field")
	}
	key, err := p.Key()
	if err != nil {
		return "", nil, err
	}
	return key, &p, nil
}

// S3URI joins a bucket and key into the uri form stored in pointers.
func S3URI(bucket, key string) string {
	return fmt.Sprintf("s3://%s/%s", bucket, key)
}

// FileSHA256 returns the lowercase hex digest of the file's bytes.
func FileSHA256(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// fileSHA256 is FileSHA256 with read errors collapsed to nil, matching the
// pointer's nullable sha256 field.
func fileSHA256(path string) *string {
	digest, err := FileSHA256(path)
	if err != nil {
		return nil
	}
	return &digest
}
