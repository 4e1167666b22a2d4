package core

// record.go defines the document record reconstructed from the hierarchical
// export. Field names follow the flat schema the scoring service consumes,
// so the debug artifact serializes with the same keys the service knows.

// Section identifies which semantic bucket subsequent data rows belong to
// while a document is open. The string values double as the flat-schema
// column names.
type Section string

const (
	// SectionNone means no section header has been seen since the last
	// document marker (or no document is open at all).
	SectionNone Section = ""

	SectionDiagnosis            Section = "diagnostico"
	SectionCie10                Section = "cie10"
	SectionDischargeDestination Section = "destino_alta"
	SectionMedications          Section = "medicamentos"
	SectionFollowUpVisits       Section = "consultas"
)

// ProvenanceEntry records where a value came from in the source export.
// Informational only; it is never validated.
type ProvenanceEntry struct {
	Row     int     `json:"row"`
	Section Section `json:"section"`
	Value   string  `json:"value"`
}

// DocumentRecord is the unit of truth for one source document. Multi-valued
// fields preserve insertion order and never contain duplicates. The discharge
// destination is a scalar where the last non-empty value wins; empty means
// "not recorded".
type DocumentRecord struct {
	DocumentID           string            `json:"document_id"`
	Diagnosis            []string          `json:"diagnostico"`
	Cie10Codes           []string          `json:"cie10"`
	DischargeDestination string            `json:"destino_alta"`
	Medications          []string          `json:"medicamentos"`
	FollowUpVisits       []string          `json:"consultas"`
	Provenance           []ProvenanceEntry `json:"raw_rows"`
}

// newDocumentRecord opens a record with empty (non-nil) value slices so the
// debug artifact and flat encoding render empty fields as [] rather than null.
func newDocumentRecord(id string) *DocumentRecord {
	return &DocumentRecord{
		DocumentID:     id,
		Diagnosis:      []string{},
		Cie10Codes:     []string{},
		Medications:    []string{},
		FollowUpVisits: []string{},
		Provenance:     []ProvenanceEntry{},
	}
}

// apply writes a normalized value into the field selected by section.
// Multi-valued sections reject values already present; the discharge
// destination is overwritten.
func (r *DocumentRecord) apply(section Section, value string) {
	switch section {
	case SectionDischargeDestination:
		r.DischargeDestination = value
	case SectionDiagnosis:
		r.Diagnosis = appendIfAbsent(r.Diagnosis, value)
	case SectionCie10:
		r.Cie10Codes = appendIfAbsent(r.Cie10Codes, value)
	case SectionMedications:
		r.Medications = appendIfAbsent(r.Medications, value)
	case SectionFollowUpVisits:
		r.FollowUpVisits = appendIfAbsent(r.FollowUpVisits, value)
	}
}

// field returns the multi-valued slice for a flat-schema column, or nil for
// the scalar and unknown columns.
func (r *DocumentRecord) field(section Section) []string {
	switch section {
	case SectionDiagnosis:
		return r.Diagnosis
	case SectionCie10:
		return r.Cie10Codes
	case SectionMedications:
		return r.Medications
	case SectionFollowUpVisits:
		return r.FollowUpVisits
	}
	return nil
}

func appendIfAbsent(values []string, value string) []string {
	for _, v := range values {
		if v == value {
			return values
		}
	}
	return append(values, value)
}
