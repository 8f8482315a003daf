package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/clinrec-lab/longview/pkg/domain/model"
)

// Stats summarizes the persisted knowledge base
type Stats struct {
	Version          string
	GeneratedAt      time.Time
	SourceFilesCount int
	PatientName      string
	PatientID        string

	Conditions       int
	ActiveConditions int
	Devices          int
	Allergies        int
	CareTeamMembers  int

	TimelineEvents int
	FirstEvent     time.Time
	LastEvent      time.Time

	Symptoms       int
	ActiveSymptoms int

	ActionItems    int
	PendingActions int
	Questions      int
}

// CollectStats loads the knowledge base and computes summary statistics
func (uc *UseCases) CollectStats(ctx context.Context) (*Stats, error) {
	kb, err := uc.store.Load(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load knowledge base")
	}
	if kb == nil {
		return nil, goerr.New("no knowledge base found")
	}
	return statsOf(kb), nil
}

func statsOf(kb *model.KnowledgeBase) *Stats {
	stats := &Stats{
		Version:          kb.Metadata.Version,
		GeneratedAt:      kb.Metadata.GeneratedAt,
		SourceFilesCount: kb.Metadata.SourceFilesCount,
		PatientName:      kb.PatientProfile.Demographics.Name,
		PatientID:        kb.PatientProfile.Demographics.PatientID,
		Conditions:       len(kb.PatientProfile.ChronicConditions),
		ActiveConditions: len(kb.ActiveConditions()),
		Devices:          len(kb.PatientProfile.ImplantedDevices),
		Allergies:        len(kb.PatientProfile.Allergies),
		CareTeamMembers:  len(kb.PatientProfile.PrimaryCareTeam),
		TimelineEvents:   len(kb.Timeline),
		Symptoms:         len(kb.SymptomRegistry),
		ActiveSymptoms:   len(kb.ActiveSymptoms()),
		ActionItems:      len(kb.ActionItems),
		PendingActions:   len(kb.PendingActions()),
		Questions:        len(kb.UnresolvedQuestions),
	}

	if len(kb.Timeline) > 0 {
		stats.FirstEvent = kb.Timeline[0].Date
		stats.LastEvent = kb.Timeline[len(kb.Timeline)-1].Date
	}

	return stats
}
