package types

import "github.com/m-mizutani/goerr/v2"

// EventType represents the category of a timeline event
type EventType string

const (
	EventTypeEncounter     EventType = "encounter"
	EventTypeProcedure     EventType = "procedure"
	EventTypeDiagnosis     EventType = "diagnosis"
	EventTypeMedication    EventType = "medication"
	EventTypeLabResult     EventType = "lab_result"
	EventTypeImaging       EventType = "imaging"
	EventTypeSymptom       EventType = "symptom"
	EventTypeVitalSigns    EventType = "vital_signs"
	EventTypeDeviceImplant EventType = "device_implant"
	EventTypeReferral      EventType = "referral"
	EventTypeOther         EventType = "other"
)

// AllEventTypes returns all valid event types
func AllEventTypes() []EventType {
	return []EventType{
		EventTypeEncounter,
		EventTypeProcedure,
		EventTypeDiagnosis,
		EventTypeMedication,
		EventTypeLabResult,
		EventTypeImaging,
		EventTypeSymptom,
		EventTypeVitalSigns,
		EventTypeDeviceImplant,
		EventTypeReferral,
		EventTypeOther,
	}
}

// IsValid checks if the event type is valid
func (t EventType) IsValid() bool {
	switch t {
	case EventTypeEncounter,
		EventTypeProcedure,
		EventTypeDiagnosis,
		EventTypeMedication,
		EventTypeLabResult,
		EventTypeImaging,
		EventTypeSymptom,
		EventTypeVitalSigns,
		EventTypeDeviceImplant,
		EventTypeReferral,
		EventTypeOther:
		return true
	default:
		return false
	}
}

// String returns the string representation of the event type
func (t EventType) String() string {
	return string(t)
}

// ParseEventType parses a string into an EventType
func ParseEventType(s string) (EventType, error) {
	t := EventType(s)
	if !t.IsValid() {
		return "", goerr.New("invalid event type", goerr.V("value", s))
	}
	return t, nil
}
