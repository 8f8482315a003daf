package model

import (
	"sort"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/clinrec-lab/longview/pkg/domain/types"
)

// CareTeamMember is a member of the patient's care team
type CareTeamMember struct {
	Name         string `json:"name"`
	Role         string `json:"role"`
	Organization string `json:"organization,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
}

// Key returns the lowercased member name used for deduplication
func (m CareTeamMember) Key() string {
	return strings.ToLower(m.Name)
}

// PatientProfile composes demographics with the per-patient registries
type PatientProfile struct {
	Demographics      PatientDemographics `json:"demographics"`
	ChronicConditions []Condition         `json:"chronic_conditions"`
	ImplantedDevices  []ImplantedDevice   `json:"implanted_devices"`
	Allergies         []Allergy           `json:"allergies"`
	PrimaryCareTeam   []CareTeamMember    `json:"primary_care_team"`
}

// KnowledgeBase is the complete longitudinal aggregate for one patient.
// It is created once by an initial build and afterwards only ever produced
// by the merge engine from a prior instance plus a delta; it is never
// partially mutated outside the merge boundary.
type KnowledgeBase struct {
	Metadata            Metadata             `json:"metadata"`
	PatientProfile      PatientProfile       `json:"patient_profile"`
	Timeline            []TimelineEvent      `json:"timeline"`
	SymptomRegistry     []Symptom            `json:"symptom_registry"`
	ActionItems         []ActionItem         `json:"action_items"`
	UnresolvedQuestions []UnresolvedQuestion `json:"unresolved_questions"`
}

// NewKnowledgeBase returns an empty knowledge base with placeholder
// demographics, used for first-run bootstrap when no prior file exists
func NewKnowledgeBase(now time.Time) *KnowledgeBase {
	return &KnowledgeBase{
		Metadata: Metadata{
			Version:     "0.0.0",
			GeneratedAt: now,
		},
		PatientProfile: PatientProfile{
			Demographics: PlaceholderDemographics(),
		},
	}
}

// SortTimeline sorts the timeline chronologically in place. The sort is
// stable so same-instant events keep their insertion order.
func (kb *KnowledgeBase) SortTimeline() {
	sort.SliceStable(kb.Timeline, func(i, j int) bool {
		return kb.Timeline[i].Date.Before(kb.Timeline[j].Date)
	})
}

// ActiveConditions returns conditions with active status. The filter is
// recomputed on each call; the aggregate is bounded by one patient's
// lifetime records so no caching is needed.
func (kb *KnowledgeBase) ActiveConditions() []Condition {
	var active []Condition
	for _, c := range kb.PatientProfile.ChronicConditions {
		if c.Status == types.ConditionStatusActive {
			active = append(active, c)
		}
	}
	return active
}

// ActiveSymptoms returns symptoms with active status
func (kb *KnowledgeBase) ActiveSymptoms() []Symptom {
	var active []Symptom
	for _, s := range kb.SymptomRegistry {
		if s.Status == types.SymptomStatusActive {
			active = append(active, s)
		}
	}
	return active
}

// PendingActions returns action items with pending status
func (kb *KnowledgeBase) PendingActions() []ActionItem {
	var pending []ActionItem
	for _, a := range kb.ActionItems {
		if a.Status == types.ActionStatusPending {
			pending = append(pending, a)
		}
	}
	return pending
}

// RecentEvents returns up to n timeline events, newest first
func (kb *KnowledgeBase) RecentEvents(n int) []TimelineEvent {
	events := append([]TimelineEvent(nil), kb.Timeline...)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.After(events[j].Date)
	})
	if len(events) > n {
		events = events[:n]
	}
	return events
}

// Clone returns a deep, independent copy of the knowledge base. The merge
// engine operates on a clone so the caller's snapshot stays untouched for
// backup-then-overwrite workflows.
func (kb *KnowledgeBase) Clone() *KnowledgeBase {
	dup := &KnowledgeBase{
		Metadata: kb.Metadata,
		PatientProfile: PatientProfile{
			Demographics:      kb.PatientProfile.Demographics,
			ChronicConditions: append([]Condition(nil), kb.PatientProfile.ChronicConditions...),
			ImplantedDevices:  append([]ImplantedDevice(nil), kb.PatientProfile.ImplantedDevices...),
			Allergies:         append([]Allergy(nil), kb.PatientProfile.Allergies...),
			PrimaryCareTeam:   append([]CareTeamMember(nil), kb.PatientProfile.PrimaryCareTeam...),
		},
	}

	dup.Timeline = make([]TimelineEvent, len(kb.Timeline))
	for i, e := range kb.Timeline {
		dup.Timeline[i] = e.Clone()
	}

	dup.SymptomRegistry = make([]Symptom, len(kb.SymptomRegistry))
	for i, s := range kb.SymptomRegistry {
		dup.SymptomRegistry[i] = s.Clone()
	}

	dup.ActionItems = append([]ActionItem(nil), kb.ActionItems...)

	dup.UnresolvedQuestions = make([]UnresolvedQuestion, len(kb.UnresolvedQuestions))
	for i, q := range kb.UnresolvedQuestions {
		dup.UnresolvedQuestions[i] = q.Clone()
	}

	return dup
}

// Validate checks structural well-formedness of a loaded knowledge base.
// A violation is a hard failure on load; there is no partial load.
func (kb *KnowledgeBase) Validate() error {
	if kb.Metadata.Version == "" {
		return goerr.New("metadata version is required")
	}
	if kb.PatientProfile.Demographics.PatientID == "" {
		return goerr.New("patient ID is required")
	}
	if err := kb.PatientProfile.Demographics.Gender.Validate(); err != nil {
		return goerr.Wrap(err, "invalid patient demographics")
	}

	for i, c := range kb.PatientProfile.ChronicConditions {
		if c.Name == "" {
			return goerr.New("condition name is required", goerr.V("index", i))
		}
		if !c.Status.IsValid() {
			return goerr.New("invalid condition status",
				goerr.V("index", i), goerr.V("status", c.Status.String()))
		}
	}

	for i, e := range kb.Timeline {
		if e.Date.IsZero() {
			return goerr.New("timeline event date is required", goerr.V("index", i))
		}
		if !e.EventType.IsValid() {
			return goerr.New("invalid timeline event type",
				goerr.V("index", i), goerr.V("type", e.EventType.String()))
		}
		if !e.ClinicalSignificance.IsValid() {
			return goerr.New("invalid clinical significance",
				goerr.V("index", i), goerr.V("significance", e.ClinicalSignificance.String()))
		}
	}

	for i, s := range kb.SymptomRegistry {
		if s.Symptom == "" {
			return goerr.New("symptom description is required", goerr.V("index", i))
		}
		if !s.Status.IsValid() {
			return goerr.New("invalid symptom status",
				goerr.V("index", i), goerr.V("status", s.Status.String()))
		}
	}

	for i, a := range kb.ActionItems {
		if a.Item == "" {
			return goerr.New("action item text is required", goerr.V("index", i))
		}
		if !a.Priority.IsValid() || !a.Category.IsValid() || !a.Status.IsValid() {
			return goerr.New("invalid action item enum value", goerr.V("index", i))
		}
	}

	for i, q := range kb.UnresolvedQuestions {
		if q.Question == "" {
			return goerr.New("question text is required", goerr.V("index", i))
		}
	}

	return nil
}
