package model

// Delta is a batch of newly extracted clinical facts to be folded into an
// existing knowledge base by the merge engine. Every entry is assumed to
// be a validated instance of its entity type; the merge engine does not
// re-validate.
type Delta struct {
	Patient             *PatientDemographics `json:"patient,omitempty"`
	Conditions          []Condition          `json:"conditions,omitempty"`
	Devices             []ImplantedDevice    `json:"devices,omitempty"`
	Allergies           []Allergy            `json:"allergies,omitempty"`
	CareTeam            []CareTeamMember     `json:"care_team,omitempty"`
	TimelineEvents      []TimelineEvent      `json:"timeline_events,omitempty"`
	Symptoms            []Symptom            `json:"symptoms,omitempty"`
	ActionItems         []ActionItem         `json:"action_items,omitempty"`
	UnresolvedQuestions []UnresolvedQuestion `json:"unresolved_questions,omitempty"`
	SourceFilesCount    int                  `json:"source_files_count,omitempty"`
}

// IsEmpty reports whether the delta carries no facts at all
func (d *Delta) IsEmpty() bool {
	return d.Patient == nil &&
		len(d.Conditions) == 0 &&
		len(d.Devices) == 0 &&
		len(d.Allergies) == 0 &&
		len(d.CareTeam) == 0 &&
		len(d.TimelineEvents) == 0 &&
		len(d.Symptoms) == 0 &&
		len(d.ActionItems) == 0 &&
		len(d.UnresolvedQuestions) == 0 &&
		d.SourceFilesCount == 0
}
