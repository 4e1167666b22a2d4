package core

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// input.go reads the hierarchical export from disk into raw rows. Exports
// arrive from spreadsheet tools, so the reader tolerates ragged rows, bare
// quotes, UTF-8 BOMs, and the occasional invalid byte.

// ErrInputUnavailable marks a source file that is missing or unreadable.
// The run aborts before any parsing; nothing is written.
var ErrInputUnavailable = errors.New("input file missing or unreadable")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadInput loads and parses the hierarchical export at path. The whole file
// is read into memory; inputs are small operator-curated exports, not bulk
// data.
func ReadInput(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputUnavailable, err)
	}
	rows, err := parseRows(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return rows, nil
}

// parseRows decodes CSV bytes into rows without enforcing a column count.
func parseRows(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(strings.NewReader(sanitizeUTF8(string(data))))
	reader.FieldsPerRecord = -1 // rows vary in width by design
	reader.LazyQuotes = true    // tolerate bare quotes inside cells

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	return rows, nil
}

// sanitizeUTF8 replaces invalid UTF-8 bytes with the Unicode replacement
// character so a stray byte from a legacy encoding cannot abort the run.
func sanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == utf8.RuneError {
			b.WriteRune('�')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
