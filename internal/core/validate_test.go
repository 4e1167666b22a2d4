package core

import (
	"reflect"
	"strings"
	"testing"
)

func encodeForTest(t *testing.T, records []DocumentRecord) []byte {
	t.Helper()
	artifact, err := EncodeFlat(records, "2026.08.22")
	if err != nil {
		t.Fatalf("EncodeFlat: %v", err)
	}
	return artifact
}

func TestValidate_Pass(t *testing.T) {
	originals := []DocumentRecord{
		{
			DocumentID:           "informe_001.pdf",
			Diagnosis:            []string{"Neumonía", "EPOC"},
			Cie10Codes:           []string{"J18.9"},
			DischargeDestination: "Domicilio",
			Medications:          []string{"Amoxicilina 875mg"},
			FollowUpVisits:       []string{"Neumología en 4 semanas"},
		},
		{DocumentID: "informe_002.pdf"},
	}

	report := Validate(originals, encodeForTest(t, originals))

	if !report.Valid {
		t.Errorf("Valid = false, issues: %v", report.Issues)
	}
	if report.Documents != 2 {
		t.Errorf("Documents = %d, want 2", report.Documents)
	}
	if len(report.Issues) != 0 {
		t.Errorf("Issues = %v, want none", report.Issues)
	}
}

func TestValidate_DecodeFailureStopsEarly(t *testing.T) {
	artifact := []byte(strings.Join([]string{
		"document_id,diagnostico,cie10,destino_alta,medicamentos,consultas,version",
		`"doc.pdf","broken","[]","","[]","[]","v"`,
		"",
	}, "\n"))

	report := Validate([]DocumentRecord{{DocumentID: "doc.pdf"}}, artifact)

	if report.Valid {
		t.Error("Valid = true for undecodable artifact")
	}
	if len(report.Issues) != 1 {
		t.Fatalf("Issues = %v, want exactly one", report.Issues)
	}
	issue := report.Issues[0]
	if issue.Index != -1 || !strings.Contains(issue.Message, "artifact decode failed") {
		t.Errorf("issue = %+v", issue)
	}
}

func TestValidate_CountMismatchStopsEarly(t *testing.T) {
	originals := []DocumentRecord{
		{DocumentID: "a.pdf", Diagnosis: []string{"x"}},
		{DocumentID: "b.pdf"},
	}
	// Artifact carries only the first document; the per-document comparison
	// would also flag issues, but the count check must preempt it.
	artifact := encodeForTest(t, originals[:1])

	report := Validate(originals, artifact)

	if len(report.Issues) != 1 {
		t.Fatalf("Issues = %v, want exactly one", report.Issues)
	}
	issue := report.Issues[0]
	if issue.Index != -1 {
		t.Errorf("Index = %d, want -1", issue.Index)
	}
	if issue.Message != "document count mismatch: 2 original vs 1 decoded" {
		t.Errorf("Message = %q", issue.Message)
	}
}

func TestValidate_AggregatesAllIssues(t *testing.T) {
	originals := []DocumentRecord{
		{
			DocumentID:           "informe_001.pdf",
			Diagnosis:            []string{"A", "B"},
			DischargeDestination: "Domicilio",
		},
		{
			DocumentID:  "informe_002.pdf",
			Medications: []string{"X"},
		},
	}
	tampered := []DocumentRecord{
		{
			DocumentID:           "informe_001.pdf",
			Diagnosis:            []string{"A"},
			DischargeDestination: "Residencia",
		},
		{
			DocumentID:  "informe_002.pdf",
			Medications: []string{"X", "Y"},
		},
	}

	report := Validate(originals, encodeForTest(t, tampered))

	if report.Valid {
		t.Error("Valid = true for tampered artifact")
	}

	want := []ValidationIssue{
		{Index: 0, Document: "informe_001.pdf", Field: "destino_alta", Message: `"Domicilio" != "Residencia"`},
		{Index: 0, Document: "informe_001.pdf", Field: "diagnostico", Message: `missing from artifact: ["B"]`},
		{Index: 0, Document: "informe_001.pdf", Field: "diagnostico", Message: "element count 2 != 1"},
		{Index: 1, Document: "informe_002.pdf", Field: "medicamentos", Message: `not in original: ["Y"]`},
		{Index: 1, Document: "informe_002.pdf", Field: "medicamentos", Message: "element count 1 != 2"},
	}
	if !reflect.DeepEqual(report.Issues, want) {
		t.Errorf("Issues:\n got %v\nwant %v", report.Issues, want)
	}
}

func TestValidate_DuplicateElementCaughtByCount(t *testing.T) {
	originals := []DocumentRecord{
		{DocumentID: "doc.pdf", Medications: []string{"Paracetamol 1g"}},
	}
	duplicated := []DocumentRecord{
		{DocumentID: "doc.pdf", Medications: []string{"Paracetamol 1g", "Paracetamol 1g"}},
	}

	report := Validate(originals, encodeForTest(t, duplicated))

	// Set equality holds in both directions; only the count check can see
	// the repeat.
	if len(report.Issues) != 1 {
		t.Fatalf("Issues = %v, want exactly one", report.Issues)
	}
	issue := report.Issues[0]
	if issue.Field != "medicamentos" || issue.Message != "element count 1 != 2" {
		t.Errorf("issue = %+v", issue)
	}
}

func TestValidate_DocumentIDMismatch(t *testing.T) {
	originals := []DocumentRecord{{DocumentID: "original.pdf"}}
	renamed := []DocumentRecord{{DocumentID: "renamed.pdf"}}

	report := Validate(originals, encodeForTest(t, renamed))

	if len(report.Issues) != 1 {
		t.Fatalf("Issues = %v, want exactly one", report.Issues)
	}
	issue := report.Issues[0]
	if issue.Field != "document_id" || issue.Message != `"original.pdf" != "renamed.pdf"` {
		t.Errorf("issue = %+v", issue)
	}
}

func TestValidationIssue_Error(t *testing.T) {
	tests := []struct {
		issue ValidationIssue
		want  string
	}{
		{ValidationIssue{Document: "doc.pdf", Field: "cie10", Message: "element count 1 != 2"}, "doc.pdf: cie10: element count 1 != 2"},
		{ValidationIssue{Document: "doc.pdf", Message: "oops"}, "doc.pdf: oops"},
		{ValidationIssue{Index: -1, Message: "document count mismatch: 2 original vs 1 decoded"}, "document count mismatch: 2 original vs 1 decoded"},
	}
	for _, tt := range tests {
		if got := tt.issue.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
