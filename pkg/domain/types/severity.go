package types

import "github.com/m-mizutani/goerr/v2"

// SeverityLevel represents the severity of a symptom at an assessment
type SeverityLevel string

const (
	SeverityNone     SeverityLevel = "none"
	SeverityMild     SeverityLevel = "mild"
	SeverityModerate SeverityLevel = "moderate"
	SeveritySevere   SeverityLevel = "severe"
	SeverityCritical SeverityLevel = "critical"
)

// AllSeverityLevels returns all valid severity levels
func AllSeverityLevels() []SeverityLevel {
	return []SeverityLevel{
		SeverityNone,
		SeverityMild,
		SeverityModerate,
		SeveritySevere,
		SeverityCritical,
	}
}

// IsValid checks if the severity level is valid
func (s SeverityLevel) IsValid() bool {
	switch s {
	case SeverityNone, SeverityMild, SeverityModerate, SeveritySevere, SeverityCritical:
		return true
	default:
		return false
	}
}

// String returns the string representation of the severity level
func (s SeverityLevel) String() string {
	return string(s)
}

// ParseSeverityLevel parses a string into a SeverityLevel
func ParseSeverityLevel(s string) (SeverityLevel, error) {
	level := SeverityLevel(s)
	if !level.IsValid() {
		return "", goerr.New("invalid severity level", goerr.V("value", s))
	}
	return level, nil
}
