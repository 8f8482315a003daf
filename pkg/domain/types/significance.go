package types

import "github.com/m-mizutani/goerr/v2"

// ClinicalSignificance represents the clinical significance level of a
// timeline event
type ClinicalSignificance string

const (
	SignificanceCritical ClinicalSignificance = "critical"
	SignificanceHigh     ClinicalSignificance = "high"
	SignificanceMedium   ClinicalSignificance = "medium"
	SignificanceLow      ClinicalSignificance = "low"
)

// AllClinicalSignificances returns all valid significance levels
func AllClinicalSignificances() []ClinicalSignificance {
	return []ClinicalSignificance{
		SignificanceCritical,
		SignificanceHigh,
		SignificanceMedium,
		SignificanceLow,
	}
}

// IsValid checks if the significance level is valid
func (s ClinicalSignificance) IsValid() bool {
	switch s {
	case SignificanceCritical, SignificanceHigh, SignificanceMedium, SignificanceLow:
		return true
	default:
		return false
	}
}

// String returns the string representation of the significance level
func (s ClinicalSignificance) String() string {
	return string(s)
}

// ParseClinicalSignificance parses a string into a ClinicalSignificance
func ParseClinicalSignificance(s string) (ClinicalSignificance, error) {
	sig := ClinicalSignificance(s)
	if !sig.IsValid() {
		return "", goerr.New("invalid clinical significance", goerr.V("value", s))
	}
	return sig, nil
}
