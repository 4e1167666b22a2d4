package core

import (
	"regexp"
	"strings"
)

// parser.go reconstructs document records from the hierarchical export: a
// row-oriented format where the first cell of each row carries structural
// meaning. The format has no schema enforcement at the source, so the parser
// is fail-soft: rows it cannot classify are inert and never abort the run.
//
// Row classification, in priority order:
// - Blank row: skipped.
// - Document marker "Document (N): filename": seals the open record and
//   opens a new one. A marker whose filename cannot be extracted is counted
//   and dropped; no record opens for it.
// - Section header, matched as a trimmed literal: selects the field that
//   subsequent data rows populate.
// - Anything else: a data value for the current record and section, inert
//   when either is missing.

const markerPrefix = "Document ("

var (
	// markerPattern extracts the filename from a marker row. The index must
	// be an integer; the filename may carry one layer of quotes.
	markerPattern = regexp.MustCompile(`Document \(\d+\):\s*["']?(.+?)["']?$`)

	// nullPattern matches the authoring tool's "Null (value)" notation, any
	// case, anchored at the start of the cell.
	nullPattern = regexp.MustCompile(`(?i)^null\s*\((.+?)\)`)
)

// sectionFor matches a trimmed first cell against the section header
// literals. Headers are compared exactly (case- and accent-sensitive) except
// for the follow-up-visits header, which the authoring tool writes with
// varying suffixes ("Consultas y pruebas:", "Consultas:").
func sectionFor(trimmed string) (Section, bool) {
	switch trimmed {
	case "Diagnóstico:":
		return SectionDiagnosis, true
	case "CIE-10:":
		return SectionCie10, true
	case "Destino al alta:":
		return SectionDischargeDestination, true
	case "Medicamentos:":
		return SectionMedications, true
	}
	if strings.HasPrefix(trimmed, "Consultas") {
		return SectionFollowUpVisits, true
	}
	return SectionNone, false
}

// parseState is the explicit state machine threaded over the row sequence:
// at most one open record and one selected section at any time. Sealed
// records are immutable once appended.
type parseState struct {
	current *DocumentRecord
	section Section
	sealed  []DocumentRecord
	stats   ParseStats
}

func newParseState() *parseState {
	return &parseState{sealed: []DocumentRecord{}}
}

// seal appends the open record to the output sequence and closes it.
func (st *parseState) seal() {
	if st.current == nil {
		return
	}
	st.sealed = append(st.sealed, *st.current)
	st.current = nil
}

// step consumes one row and advances the state machine. rowNum is 1-based
// and counts every source row, blanks included, so provenance matches what
// the operator sees in a spreadsheet.
func (st *parseState) step(rowNum int, row []string) {
	if isBlankRow(row) {
		return
	}

	first := strings.TrimSpace(row[0])
	cleaned := Normalize(first)

	if strings.HasPrefix(cleaned, markerPrefix) {
		st.seal()
		id := extractDocumentID(cleaned)
		if id == "" {
			st.stats.MarkerFailures = append(st.stats.MarkerFailures, MarkerFailure{Row: rowNum, Text: cleaned})
			st.section = SectionNone
			return
		}
		st.current = newDocumentRecord(id)
		st.section = SectionNone
		return
	}

	if section, ok := sectionFor(first); ok {
		st.section = section
		return
	}

	// Data row. Only meaningful when a record is open and a section is
	// selected; otherwise the row is inert.
	if st.current == nil || st.section == SectionNone {
		return
	}

	value := Normalize(first)

	// "NO" is the authoring tool's sentinel for "explicitly absent".
	if strings.EqualFold(value, "NO") {
		return
	}

	// Unwrap "Null (value)" notation to the inner value.
	if m := nullPattern.FindStringSubmatch(value); m != nil {
		value = Normalize(m[1])
	}

	if value == "" || strings.EqualFold(value, "null") {
		return
	}

	st.current.apply(st.section, value)

	// Provenance records every applied write, including values the dedup
	// rule rejected, so the operator can trace repeated source rows.
	st.current.Provenance = append(st.current.Provenance, ProvenanceEntry{
		Row:     rowNum,
		Section: st.section,
		Value:   value,
	})
}

// Parse reconstructs document records from raw rows. It never fails:
// malformed rows are skipped, and marker rows whose identifier cannot be
// extracted are dropped and counted in the returned stats. An open record at
// end of input is sealed.
func Parse(rows [][]string) ([]DocumentRecord, ParseStats) {
	st := newParseState()
	for i, row := range rows {
		st.step(i+1, row)
	}
	st.seal()

	st.stats.RowsRead = len(rows)
	st.stats.Documents = len(st.sealed)
	return st.sealed, st.stats
}

// extractDocumentID pulls the filename out of a normalized marker cell.
// Returns "" when the marker does not carry an extractable identifier; the
// caller drops the row rather than construct a record without one.
func extractDocumentID(cleaned string) string {
	m := markerPattern.FindStringSubmatch(cleaned)
	if m == nil {
		return ""
	}
	return Normalize(m[1])
}

// isBlankRow reports whether every cell is empty after trimming.
func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
