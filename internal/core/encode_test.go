package core

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestEncodeFlat_HeaderAndQuoting(t *testing.T) {
	records := []DocumentRecord{
		{
			DocumentID:           "doc.pdf",
			Diagnosis:            []string{"Neumonía adquirida"},
			Cie10Codes:           []string{"J18.9", "J96.0"},
			DischargeDestination: "Domicilio",
			Medications:          []string{},
			FollowUpVisits:       nil, // nil and empty must encode identically
		},
	}

	out, err := EncodeFlat(records, "2026.08.22")
	if err != nil {
		t.Fatalf("EncodeFlat: %v", err)
	}

	lines := strings.Split(string(out), "\n")
	if len(lines) != 3 || lines[2] != "" {
		t.Fatalf("got %d lines %q, want header + row + trailing newline", len(lines), lines)
	}

	// The header is the one row written without quoting.
	if lines[0] != "document_id,diagnostico,cie10,destino_alta,medicamentos,consultas,version" {
		t.Errorf("header = %q", lines[0])
	}

	want := `"doc.pdf","[""Neumonía adquirida""]","[""J18.9"",""J96.0""]","Domicilio","[]","[]","2026.08.22"`
	if lines[1] != want {
		t.Errorf("data row = %q\nwant       %q", lines[1], want)
	}
}

func TestEncodeFlat_Deterministic(t *testing.T) {
	records := []DocumentRecord{
		{DocumentID: "a.pdf", Diagnosis: []string{"x"}},
		{DocumentID: "b.pdf", DischargeDestination: "Domicilio"},
	}

	first, err := EncodeFlat(records, "2026.08.22")
	if err != nil {
		t.Fatalf("EncodeFlat: %v", err)
	}
	second, err := EncodeFlat(records, "2026.08.22")
	if err != nil {
		t.Fatalf("EncodeFlat: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("identical input produced different artifact bytes")
	}
}

func TestEncodeFlat_UnicodeAndHTMLUnescaped(t *testing.T) {
	records := []DocumentRecord{
		{DocumentID: "doc.pdf", Diagnosis: []string{"Neumonía <grave> & más"}},
	}

	out, err := EncodeFlat(records, "v")
	if err != nil {
		t.Fatalf("EncodeFlat: %v", err)
	}
	if !strings.Contains(string(out), "Neumonía <grave> & más") {
		t.Errorf("artifact escaped text that must stay literal:\n%s", out)
	}
	if strings.Contains(string(out), `\u`) {
		t.Errorf("artifact contains unicode escapes:\n%s", out)
	}
}

func TestEncodeFlat_DoublesInternalQuotes(t *testing.T) {
	records := []DocumentRecord{
		{DocumentID: "doc.pdf", DischargeDestination: `dieta "blanda" estricta`},
	}

	out, err := EncodeFlat(records, "v")
	if err != nil {
		t.Fatalf("EncodeFlat: %v", err)
	}
	if !strings.Contains(string(out), `"dieta ""blanda"" estricta"`) {
		t.Errorf("quotes not doubled:\n%s", out)
	}
}

func TestDecodeFlat_RoundTrip(t *testing.T) {
	originals := []DocumentRecord{
		{
			DocumentID:           "informe_001.pdf",
			Diagnosis:            []string{"Neumonía", `EPOC "reagudizado"`},
			Cie10Codes:           []string{"J18.9"},
			DischargeDestination: "Domicilio",
			Medications:          []string{"Amoxicilina 875mg, cada 8h"},
			FollowUpVisits:       []string{},
			Provenance:           []ProvenanceEntry{{Row: 3, Section: SectionDiagnosis, Value: "Neumonía"}},
		},
		{
			DocumentID:     "informe_002.pdf",
			Diagnosis:      []string{},
			Cie10Codes:     []string{},
			Medications:    []string{},
			FollowUpVisits: []string{"Revisión en 2 semanas"},
		},
	}

	artifact, err := EncodeFlat(originals, "2026.08.22")
	if err != nil {
		t.Fatalf("EncodeFlat: %v", err)
	}
	decoded, err := DecodeFlat(artifact)
	if err != nil {
		t.Fatalf("DecodeFlat: %v", err)
	}

	if len(decoded) != len(originals) {
		t.Fatalf("got %d records, want %d", len(decoded), len(originals))
	}
	for i := range originals {
		want := originals[i]
		want.Provenance = nil // not part of the flat schema
		if !reflect.DeepEqual(decoded[i], want) {
			t.Errorf("record %d:\n got %+v\nwant %+v", i, decoded[i], want)
		}
	}
}

func TestDecodeFlat_MissingColumn(t *testing.T) {
	artifact := []byte("document_id,diagnostico,cie10,destino_alta,medicamentos,consultas\n")

	_, err := DecodeFlat(artifact)
	if err == nil {
		t.Fatal("expected error for missing version column")
	}
	if !strings.Contains(err.Error(), `missing column "version"`) {
		t.Errorf("error = %v", err)
	}
}

func TestDecodeFlat_CellNotAJSONArray(t *testing.T) {
	artifact := []byte(strings.Join([]string{
		"document_id,diagnostico,cie10,destino_alta,medicamentos,consultas,version",
		`"doc.pdf","not json","[]","","[]","[]","v"`,
		"",
	}, "\n"))

	_, err := DecodeFlat(artifact)
	if err == nil {
		t.Fatal("expected error for non-array cell")
	}
	if !strings.Contains(err.Error(), `row 1: column "diagnostico" is not a JSON array`) {
		t.Errorf("error = %v", err)
	}
}

func TestDecodeFlat_EmptyArtifact(t *testing.T) {
	_, err := DecodeFlat(nil)
	if err == nil {
		t.Fatal("expected error for empty artifact")
	}
	if !strings.Contains(err.Error(), "no header row") {
		t.Errorf("error = %v", err)
	}
}
