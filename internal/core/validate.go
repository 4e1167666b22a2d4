package core

// validate.go proves that the flat artifact carries exactly the information
// the parser extracted, by decoding the artifact and comparing it against the
// original records.
//
// The comparison is deliberately paranoid:
//  1. Document counts must match before anything else is checked.
//  2. Per document, per multi-valued field, BOTH the set difference (both
//     directions) and the element counts are checked. A duplicated element
//     passes set equality but not the count check, so the count check is
//     independent.
//  3. Every issue across every document is collected before returning.
//     Operators need the full discrepancy list to decide whether to fix the
//     source data or the code; stopping at the first issue hides the rest.

import "fmt"

// ValidationIssue describes one round-trip discrepancy. Index is the
// document's zero-based position in original order, or -1 for issues that
// concern the artifact as a whole.
type ValidationIssue struct {
	Index    int    `json:"index"`
	Document string `json:"document,omitempty"`
	Field    string `json:"field,omitempty"`
	Message  string `json:"message"`
}

func (i ValidationIssue) Error() string {
	switch {
	case i.Document != "" && i.Field != "":
		return fmt.Sprintf("%s: %s: %s", i.Document, i.Field, i.Message)
	case i.Document != "":
		return fmt.Sprintf("%s: %s", i.Document, i.Message)
	}
	return i.Message
}

// ValidationReport is the aggregated outcome of round-trip validation.
// Valid is true only when zero issues were found.
type ValidationReport struct {
	Valid     bool              `json:"valid"`
	Documents int               `json:"documents"`
	Issues    []ValidationIssue `json:"issues"`
}

func (r *ValidationReport) add(issue ValidationIssue) {
	r.Valid = false
	r.Issues = append(r.Issues, issue)
}

// Validate decodes artifact and compares it pairwise against originals.
// It never short-circuits past the count check: all discrepancies across all
// documents are aggregated into one report.
func Validate(originals []DocumentRecord, artifact []byte) ValidationReport {
	report := ValidationReport{Valid: true, Documents: len(originals), Issues: []ValidationIssue{}}

	decoded, err := DecodeFlat(artifact)
	if err != nil {
		report.add(ValidationIssue{Index: -1, Message: fmt.Sprintf("artifact decode failed: %v", err)})
		return report
	}

	// Count mismatch makes pairwise comparison meaningless, so it is the one
	// check that stops the run.
	if len(originals) != len(decoded) {
		report.add(ValidationIssue{
			Index:   -1,
			Message: fmt.Sprintf("document count mismatch: %d original vs %d decoded", len(originals), len(decoded)),
		})
		return report
	}

	for i := range originals {
		compareRecords(&report, i, originals[i], decoded[i])
	}

	return report
}

// multiValuedFields pairs each multi-valued flat column with its section tag
// for issue reporting.
var multiValuedFields = []Section{
	SectionDiagnosis,
	SectionCie10,
	SectionMedications,
	SectionFollowUpVisits,
}

func compareRecords(report *ValidationReport, index int, orig, dec DocumentRecord) {
	doc := orig.DocumentID

	if orig.DocumentID != dec.DocumentID {
		report.add(ValidationIssue{
			Index:    index,
			Document: doc,
			Field:    "document_id",
			Message:  fmt.Sprintf("%q != %q", orig.DocumentID, dec.DocumentID),
		})
	}

	if orig.DischargeDestination != dec.DischargeDestination {
		report.add(ValidationIssue{
			Index:    index,
			Document: doc,
			Field:    string(SectionDischargeDestination),
			Message:  fmt.Sprintf("%q != %q", orig.DischargeDestination, dec.DischargeDestination),
		})
	}

	for _, field := range multiValuedFields {
		origValues := orig.field(field)
		decValues := dec.field(field)

		missing := difference(origValues, decValues)
		extra := difference(decValues, origValues)

		if len(missing) > 0 {
			report.add(ValidationIssue{
				Index:    index,
				Document: doc,
				Field:    string(field),
				Message:  fmt.Sprintf("missing from artifact: %q", missing),
			})
		}
		if len(extra) > 0 {
			report.add(ValidationIssue{
				Index:    index,
				Document: doc,
				Field:    string(field),
				Message:  fmt.Sprintf("not in original: %q", extra),
			})
		}

		// Independent of the set comparison: a repeated element makes the
		// counts differ while both differences stay empty.
		if len(origValues) != len(decValues) {
			report.add(ValidationIssue{
				Index:    index,
				Document: doc,
				Field:    string(field),
				Message:  fmt.Sprintf("element count %d != %d", len(origValues), len(decValues)),
			})
		}
	}
}

// difference returns the elements of a that do not occur in b, in a's order.
func difference(a, b []string) []string {
	inB := make(map[string]struct{}, len(b))
	for _, v := range b {
		inB[v] = struct{}{}
	}
	var out []string
	for _, v := range a {
		if _, ok := inB[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}
