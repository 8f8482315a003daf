package timeline

import (
	"strings"
	"time"

	"github.com/clinrec-lab/longview/pkg/domain/model"
	"github.com/clinrec-lab/longview/pkg/domain/types"
)

// defaultSignificance is the fixed policy table mapping event categories
// to their default clinical significance. The mapping is policy, not
// inference.
var defaultSignificance = map[types.EventType]types.ClinicalSignificance{
	types.EventTypeDiagnosis:     types.SignificanceHigh,
	types.EventTypeProcedure:     types.SignificanceHigh,
	types.EventTypeDeviceImplant: types.SignificanceHigh,
	types.EventTypeEncounter:     types.SignificanceMedium,
	types.EventTypeLabResult:     types.SignificanceMedium,
}

// SignificanceFor returns the default clinical significance for an event
// type, falling back to medium for unmapped types
func SignificanceFor(eventType types.EventType) types.ClinicalSignificance {
	if sig, ok := defaultSignificance[eventType]; ok {
		return sig
	}
	return types.SignificanceMedium
}

// EventFromEncounter translates an encounter record into a timeline event
func EventFromEncounter(date time.Time, encounterType string, details map[string]any, source string) model.TimelineEvent {
	summary := encounterType
	if summary == "" {
		summary = "Medical encounter"
	}
	return model.TimelineEvent{
		Date:                 date,
		EventType:            types.EventTypeEncounter,
		Summary:              summary,
		Details:              details,
		SourceDocument:       source,
		ClinicalSignificance: SignificanceFor(types.EventTypeEncounter),
	}
}

// EventFromDiagnosis translates a condition with a known onset date into
// a diagnosis timeline event
func EventFromDiagnosis(cond model.Condition, source string) model.TimelineEvent {
	summary := cond.Name
	if summary == "" {
		summary = "New diagnosis"
	}

	codes := map[string]string{}
	if cond.ICD10Code != "" {
		codes["icd10"] = cond.ICD10Code
	}
	if cond.SNOMEDCode != "" {
		codes["snomed"] = cond.SNOMEDCode
	}

	return model.TimelineEvent{
		Date:                 cond.OnsetDate.Time(),
		EventType:            types.EventTypeDiagnosis,
		Summary:              summary,
		Details:              map[string]any{"status": cond.Status.String()},
		SourceDocument:       source,
		ClinicalSignificance: SignificanceFor(types.EventTypeDiagnosis),
		Codes:                codes,
	}
}

// EventFromProcedure translates a procedure record into a timeline event
func EventFromProcedure(date time.Time, name string, codes map[string]string, details map[string]any, source string) model.TimelineEvent {
	summary := name
	if summary == "" {
		summary = "Procedure"
	}
	return model.TimelineEvent{
		Date:                 date,
		EventType:            types.EventTypeProcedure,
		Summary:              summary,
		Details:              details,
		SourceDocument:       source,
		ClinicalSignificance: SignificanceFor(types.EventTypeProcedure),
		Codes:                codes,
	}
}

// EventFromLabResult translates a lab observation into a timeline event.
// The summary combines the observation name with its value and unit.
func EventFromLabResult(date time.Time, name, value, unit string, details map[string]any, source string) model.TimelineEvent {
	if name == "" {
		name = "Lab result"
	}
	summary := strings.TrimSpace(name + ": " + strings.TrimSpace(value+" "+unit))
	if value == "" && unit == "" {
		summary = name
	}
	return model.TimelineEvent{
		Date:                 date,
		EventType:            types.EventTypeLabResult,
		Summary:              summary,
		Details:              details,
		SourceDocument:       source,
		ClinicalSignificance: SignificanceFor(types.EventTypeLabResult),
	}
}
