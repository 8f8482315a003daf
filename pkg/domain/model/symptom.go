package model

import (
	"strings"

	"github.com/clinrec-lab/longview/pkg/domain/types"
)

// SeverityRecord is a dated severity snapshot in a symptom's history
type SeverityRecord struct {
	AssessmentDate types.Date          `json:"assessment_date"`
	Severity       types.SeverityLevel `json:"severity"`
	Notes          string              `json:"notes,omitempty"`
}

// SeverityKey identifies a severity record within a symptom history.
// The explicit tuple avoids relying on whole-record equality.
type SeverityKey struct {
	Date     types.Date
	Severity types.SeverityLevel
	Notes    string
}

// Key returns the identity key of the severity record
func (r SeverityRecord) Key() SeverityKey {
	return SeverityKey{Date: r.AssessmentDate, Severity: r.Severity, Notes: r.Notes}
}

// Symptom tracks a patient symptom and its progression over time
type Symptom struct {
	Symptom              string              `json:"symptom"`
	Status               types.SymptomStatus `json:"status"`
	FirstReported        types.Date          `json:"first_reported"`
	LastReported         types.Date          `json:"last_reported"`
	CurrentSeverity      types.SeverityLevel `json:"current_severity,omitempty"`
	SeverityHistory      []SeverityRecord    `json:"severity_history,omitempty"`
	AssociatedConditions []string            `json:"associated_conditions,omitempty"`
	Triggers             []string            `json:"triggers,omitempty"`
	Treatments           []string            `json:"treatments,omitempty"`
	Notes                string              `json:"notes,omitempty"`
}

// Key returns the lowercased symptom text used for registry identity
func (s Symptom) Key() string {
	return strings.ToLower(s.Symptom)
}

// Clone returns a deep copy of the symptom
func (s Symptom) Clone() Symptom {
	dup := s
	dup.SeverityHistory = append([]SeverityRecord(nil), s.SeverityHistory...)
	dup.AssociatedConditions = append([]string(nil), s.AssociatedConditions...)
	dup.Triggers = append([]string(nil), s.Triggers...)
	dup.Treatments = append([]string(nil), s.Treatments...)
	return dup
}
