package core

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
)

// encode.go serializes document records into the canonical flat artifact the
// scoring service consumes, and decodes that artifact back for round-trip
// validation. One row per document; multi-valued fields travel as JSON
// arrays inside CSV cells.

// FlatColumns is the fixed column order of the flat artifact.
var FlatColumns = []string{
	"document_id",
	"diagnostico",
	"cie10",
	"destino_alta",
	"medicamentos",
	"consultas",
	"version",
}

// EncodeFlat serializes records into the flat artifact. Every field is
// quoted with internal quotes doubled, whether or not the value needs it, so
// identical inputs always produce identical bytes. Multi-valued fields keep
// insertion order and Unicode text is written as-is, never escaped to ASCII.
// version is stamped on every row.
func EncodeFlat(records []DocumentRecord, version string) ([]byte, error) {
	var b strings.Builder
	b.WriteString(strings.Join(FlatColumns, ","))
	b.WriteByte('\n')

	for i, r := range records {
		diagnosis, err := jsonArray(r.Diagnosis)
		if err != nil {
			return nil, fmt.Errorf("encoding document %d diagnosis: %w", i+1, err)
		}
		cie10, err := jsonArray(r.Cie10Codes)
		if err != nil {
			return nil, fmt.Errorf("encoding document %d cie10: %w", i+1, err)
		}
		medications, err := jsonArray(r.Medications)
		if err != nil {
			return nil, fmt.Errorf("encoding document %d medications: %w", i+1, err)
		}
		visits, err := jsonArray(r.FollowUpVisits)
		if err != nil {
			return nil, fmt.Errorf("encoding document %d follow-up visits: %w", i+1, err)
		}

		fields := []string{
			r.DocumentID,
			diagnosis,
			cie10,
			r.DischargeDestination,
			medications,
			visits,
			version,
		}
		for j, f := range fields {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(quoteField(f))
		}
		b.WriteByte('\n')
	}

	return []byte(b.String()), nil
}

// quoteField wraps a value in quotes with internal quotes doubled. Quoting
// is unconditional: the artifact is deterministic, not minimal.
func quoteField(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}

// jsonArray renders values as a JSON array of strings without escaping
// non-ASCII text.
func jsonArray(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(values); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// DecodeFlat parses a flat artifact back into document records. It is the
// inverse of EncodeFlat and exists so validation re-reads the artifact the
// way a consumer would, rather than trusting the encoder. Provenance is not
// part of the flat schema, so decoded records carry none.
func DecodeFlat(artifact []byte) ([]DocumentRecord, error) {
	reader := csv.NewReader(bytes.NewReader(artifact))
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading artifact: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("artifact has no header row")
	}

	idx := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		idx[strings.TrimSpace(name)] = i
	}
	for _, name := range FlatColumns {
		if _, ok := idx[name]; !ok {
			return nil, fmt.Errorf("artifact missing column %q", name)
		}
	}

	records := make([]DocumentRecord, 0, len(rows)-1)
	for n, row := range rows[1:] {
		cell := func(name string) string {
			pos := idx[name]
			if pos >= len(row) {
				return ""
			}
			return row[pos]
		}

		rec := DocumentRecord{
			DocumentID:           cell("document_id"),
			DischargeDestination: cell("destino_alta"),
		}
		for _, f := range []struct {
			column string
			dest   *[]string
		}{
			{"diagnostico", &rec.Diagnosis},
			{"cie10", &rec.Cie10Codes},
			{"medicamentos", &rec.Medications},
			{"consultas", &rec.FollowUpVisits},
		} {
			if err := json.Unmarshal([]byte(cell(f.column)), f.dest); err != nil {
				return nil, fmt.Errorf("artifact row %d: column %q is not a JSON array: %w", n+1, f.column, err)
			}
		}
		records = append(records, rec)
	}

	return records, nil
}
