package types

import "github.com/m-mizutani/goerr/v2"

// SymptomStatus represents the status of a tracked symptom
type SymptomStatus string

const (
	SymptomStatusActive       SymptomStatus = "active"
	SymptomStatusResolved     SymptomStatus = "resolved"
	SymptomStatusIntermittent SymptomStatus = "intermittent"
	SymptomStatusWorsening    SymptomStatus = "worsening"
	SymptomStatusImproving    SymptomStatus = "improving"
)

// AllSymptomStatuses returns all valid symptom statuses
func AllSymptomStatuses() []SymptomStatus {
	return []SymptomStatus{
		SymptomStatusActive,
		SymptomStatusResolved,
		SymptomStatusIntermittent,
		SymptomStatusWorsening,
		SymptomStatusImproving,
	}
}

// IsValid checks if the symptom status is valid
func (s SymptomStatus) IsValid() bool {
	switch s {
	case SymptomStatusActive,
		SymptomStatusResolved,
		SymptomStatusIntermittent,
		SymptomStatusWorsening,
		SymptomStatusImproving:
		return true
	default:
		return false
	}
}

// String returns the string representation of the symptom status
func (s SymptomStatus) String() string {
	return string(s)
}

// ParseSymptomStatus parses a string into a SymptomStatus
func ParseSymptomStatus(s string) (SymptomStatus, error) {
	status := SymptomStatus(s)
	if !status.IsValid() {
		return "", goerr.New("invalid symptom status", goerr.V("value", s))
	}
	return status, nil
}
