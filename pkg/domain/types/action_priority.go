package types

import "github.com/m-mizutani/goerr/v2"

// ActionPriority represents the priority of an action item or question
type ActionPriority string

const (
	PriorityUrgent ActionPriority = "urgent"
	PriorityHigh   ActionPriority = "high"
	PriorityMedium ActionPriority = "medium"
	PriorityLow    ActionPriority = "low"
)

// AllActionPriorities returns all valid action priorities
func AllActionPriorities() []ActionPriority {
	return []ActionPriority{
		PriorityUrgent,
		PriorityHigh,
		PriorityMedium,
		PriorityLow,
	}
}

// IsValid checks if the action priority is valid
func (p ActionPriority) IsValid() bool {
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// String returns the string representation of the action priority
func (p ActionPriority) String() string {
	return string(p)
}

// ParseActionPriority parses a string into an ActionPriority
func ParseActionPriority(s string) (ActionPriority, error) {
	p := ActionPriority(s)
	if !p.IsValid() {
		return "", goerr.New("invalid action priority", goerr.V("value", s))
	}
	return p, nil
}
