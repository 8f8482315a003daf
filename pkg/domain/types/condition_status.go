package types

import "github.com/m-mizutani/goerr/v2"

// ConditionStatus represents the status of a medical condition
type ConditionStatus string

const (
	ConditionStatusActive      ConditionStatus = "active"
	ConditionStatusResolved    ConditionStatus = "resolved"
	ConditionStatusInRemission ConditionStatus = "in_remission"
	ConditionStatusRecurrence  ConditionStatus = "recurrence"
)

// AllConditionStatuses returns all valid condition statuses
func AllConditionStatuses() []ConditionStatus {
	return []ConditionStatus{
		ConditionStatusActive,
		ConditionStatusResolved,
		ConditionStatusInRemission,
		ConditionStatusRecurrence,
	}
}

// IsValid checks if the condition status is valid
func (s ConditionStatus) IsValid() bool {
	switch s {
	case ConditionStatusActive,
		ConditionStatusResolved,
		ConditionStatusInRemission,
		ConditionStatusRecurrence:
		return true
	default:
		return false
	}
}

// String returns the string representation of the condition status
func (s ConditionStatus) String() string {
	return string(s)
}

// ParseConditionStatus parses a string into a ConditionStatus
func ParseConditionStatus(s string) (ConditionStatus, error) {
	status := ConditionStatus(s)
	if !status.IsValid() {
		return "", goerr.New("invalid condition status", goerr.V("value", s))
	}
	return status, nil
}
