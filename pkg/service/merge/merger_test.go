package merge_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/clinrec-lab/longview/pkg/domain/model"
	"github.com/clinrec-lab/longview/pkg/domain/types"
	"github.com/clinrec-lab/longview/pkg/service/merge"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newMerger() *merge.Merger {
	return merge.New(merge.WithNow(func() time.Time { return fixedNow }))
}

func baseKB() *model.KnowledgeBase {
	return &model.KnowledgeBase{
		Metadata: model.Metadata{
			Version:          "1.0.0",
			GeneratedAt:      fixedNow.AddDate(0, -1, 0),
			SourceFilesCount: 3,
		},
		PatientProfile: model.PatientProfile{
			Demographics: model.PatientDemographics{
				PatientID: "p-100",
				Name:      "Jane Doe",
				Gender:    types.GenderFemale,
			},
			ChronicConditions: []model.Condition{
				{
					Name:      "Hypertension",
					ICD10Code: "I10",
					Status:    types.ConditionStatusActive,
					OnsetDate: types.NewDate(2018, time.March, 1),
				},
			},
			ImplantedDevices: []model.ImplantedDevice{
				{DeviceType: "spinal implant", DeviceName: "Cervical cage C5-C6", UDI: "UDI-001"},
			},
			Allergies: []model.Allergy{
				{Allergen: "Penicillin", Reaction: "rash"},
			},
		},
		Timeline: []model.TimelineEvent{
			{
				Date:                 time.Date(2020, 5, 15, 8, 30, 0, 0, time.UTC),
				EventType:            types.EventTypeProcedure,
				Summary:              "ACDF C5-C6",
				ClinicalSignificance: types.SignificanceHigh,
			},
		},
		SymptomRegistry: []model.Symptom{
			{
				Symptom:         "Neck pain",
				Status:          types.SymptomStatusActive,
				FirstReported:   types.NewDate(2019, time.September, 1),
				LastReported:    types.NewDate(2020, time.April, 1),
				CurrentSeverity: types.SeveritySevere,
				SeverityHistory: []model.SeverityRecord{
					{AssessmentDate: types.NewDate(2019, time.September, 1), Severity: types.SeveritySevere},
				},
			},
		},
		ActionItems: []model.ActionItem{
			{
				Item:     "Schedule post-op imaging",
				Priority: types.PriorityHigh,
				Category: types.CategoryImaging,
				Status:   types.ActionStatusPending,
			},
		},
		UnresolvedQuestions: []model.UnresolvedQuestion{
			{Question: "Confirm implant lot number", Context: "operative note is illegible"},
		},
	}
}

func TestMerge_ConditionDedup(t *testing.T) {
	kb := baseKB()
	delta := &model.Delta{
		Conditions: []model.Condition{
			// same code and onset, different name spelling
			{
				Name:      "Essential hypertension",
				ICD10Code: "I10",
				Status:    types.ConditionStatusActive,
				OnsetDate: types.NewDate(2018, time.March, 1),
			},
			{
				Name:      "Cervical radiculopathy",
				ICD10Code: "M54.12",
				Status:    types.ConditionStatusActive,
				OnsetDate: types.NewDate(2020, time.January, 10),
			},
		},
	}

	merged, err := newMerger().Merge(context.Background(), kb, delta)
	gt.NoError(t, err).Required()

	gt.Array(t, merged.PatientProfile.ChronicConditions).Length(2)
	gt.Value(t, merged.PatientProfile.ChronicConditions[0].Name).Equal("Hypertension")
	gt.Value(t, merged.PatientProfile.ChronicConditions[1].Name).Equal("Cervical radiculopathy")
}

func TestMerge_DeviceAliasDedup(t *testing.T) {
	kb := baseKB()
	delta := &model.Delta{
		Devices: []model.ImplantedDevice{
			// same UDI, different name
			{DeviceType: "spinal implant", DeviceName: "Interbody cage", UDI: "UDI-001"},
			// no UDI, name matches existing case-insensitively
			{DeviceType: "spinal implant", DeviceName: "cervical cage c5-c6"},
			{DeviceType: "cardiac", DeviceName: "Pacemaker", UDI: "UDI-777"},
		},
	}

	merged, err := newMerger().Merge(context.Background(), kb, delta)
	gt.NoError(t, err).Required()

	gt.Array(t, merged.PatientProfile.ImplantedDevices).Length(2)
	gt.Value(t, merged.PatientProfile.ImplantedDevices[1].DeviceName).Equal("Pacemaker")
}

func TestMerge_TimelineDedupAndOrder(t *testing.T) {
	kb := baseKB()
	delta := &model.Delta{
		TimelineEvents: []model.TimelineEvent{
			// same hour, case-folded summary: duplicate of the existing event
			{
				Date:                 time.Date(2020, 5, 15, 8, 45, 0, 0, time.UTC),
				EventType:            types.EventTypeProcedure,
				Summary:              "acdf c5-c6",
				ClinicalSignificance: types.SignificanceHigh,
			},
			{
				Date:                 time.Date(2019, 11, 2, 9, 0, 0, 0, time.UTC),
				EventType:            types.EventTypeImaging,
				Summary:              "Cervical MRI",
				ClinicalSignificance: types.SignificanceMedium,
			},
			{
				Date:                 time.Date(2021, 1, 20, 14, 0, 0, 0, time.UTC),
				EventType:            types.EventTypeEncounter,
				Summary:              "Post-op follow-up",
				ClinicalSignificance: types.SignificanceMedium,
			},
		},
	}

	merged, err := newMerger().Merge(context.Background(), kb, delta)
	gt.NoError(t, err).Required()

	gt.Array(t, merged.Timeline).Length(3)
	gt.Value(t, merged.Timeline[0].Summary).Equal("Cervical MRI")
	gt.Value(t, merged.Timeline[1].Summary).Equal("ACDF C5-C6")
	gt.Value(t, merged.Timeline[2].Summary).Equal("Post-op follow-up")
}

func TestMerge_SymptomUpsert(t *testing.T) {
	kb := baseKB()
	delta := &model.Delta{
		Symptoms: []model.Symptom{
			{
				Symptom:         "NECK PAIN",
				Status:          types.SymptomStatusImproving,
				FirstReported:   types.NewDate(2020, time.January, 1),
				LastReported:    types.NewDate(2021, time.February, 1),
				CurrentSeverity: types.SeverityModerate,
				SeverityHistory: []model.SeverityRecord{
					// already present
					{AssessmentDate: types.NewDate(2019, time.September, 1), Severity: types.SeveritySevere},
					{AssessmentDate: types.NewDate(2021, time.February, 1), Severity: types.SeverityModerate},
				},
			},
			{
				Symptom:       "Left arm numbness",
				Status:        types.SymptomStatusActive,
				FirstReported: types.NewDate(2021, time.January, 15),
				LastReported:  types.NewDate(2021, time.January, 15),
			},
		},
	}

	merged, err := newMerger().Merge(context.Background(), kb, delta)
	gt.NoError(t, err).Required()

	gt.Array(t, merged.SymptomRegistry).Length(2)

	neck := merged.SymptomRegistry[0]
	gt.Value(t, neck.Status).Equal(types.SymptomStatusImproving)
	gt.Value(t, neck.CurrentSeverity).Equal(types.SeverityModerate)
	// the existing first-reported date is earlier and wins
	gt.Value(t, neck.FirstReported).Equal(types.NewDate(2019, time.September, 1))
	gt.Value(t, neck.LastReported).Equal(types.NewDate(2021, time.February, 1))
	gt.Array(t, neck.SeverityHistory).Length(2)
	gt.Value(t, neck.SeverityHistory[1].Severity).Equal(types.SeverityModerate)

	gt.Value(t, merged.SymptomRegistry[1].Symptom).Equal("Left arm numbness")
}

func TestMerge_PlaceholderDemographicsReplaced(t *testing.T) {
	kb := model.NewKnowledgeBase(fixedNow)
	delta := &model.Delta{
		Patient: &model.PatientDemographics{
			PatientID: "p-100",
			Name:      "Jane Doe",
			Gender:    types.GenderFemale,
		},
	}

	merged, err := newMerger().Merge(context.Background(), kb, delta)
	gt.NoError(t, err).Required()
	gt.Value(t, merged.PatientProfile.Demographics.PatientID).Equal("p-100")
}

func TestMerge_RealDemographicsNotOverwritten(t *testing.T) {
	kb := baseKB()
	delta := &model.Delta{
		Patient: &model.PatientDemographics{
			PatientID: "p-999",
			Name:      "Someone Else",
			Gender:    types.GenderMale,
		},
	}

	merged, err := newMerger().Merge(context.Background(), kb, delta)
	gt.NoError(t, err).Required()
	gt.Value(t, merged.PatientProfile.Demographics.PatientID).Equal("p-100")
	gt.Value(t, merged.PatientProfile.Demographics.Name).Equal("Jane Doe")
}

func TestMerge_VersionIncrement(t *testing.T) {
	t.Run("patch increment", func(t *testing.T) {
		kb := baseKB()
		merged, err := newMerger().Merge(context.Background(), kb, &model.Delta{})
		gt.NoError(t, err).Required()
		gt.Value(t, merged.Metadata.Version).Equal("1.0.1")
		gt.Value(t, merged.Metadata.PreviousVersion).Equal("1.0.0")
	})

	t.Run("malformed version resets", func(t *testing.T) {
		kb := baseKB()
		kb.Metadata.Version = "not-a-version"
		merged, err := newMerger().Merge(context.Background(), kb, &model.Delta{})
		gt.NoError(t, err).Required()
		gt.Value(t, merged.Metadata.Version).Equal("1.0.0")
		gt.Value(t, merged.Metadata.PreviousVersion).Equal("not-a-version")
	})

	t.Run("bootstrap version", func(t *testing.T) {
		merged, err := newMerger().Merge(context.Background(), nil, &model.Delta{})
		gt.NoError(t, err).Required()
		gt.Value(t, merged.Metadata.Version).Equal("0.0.1")
	})
}

func TestMerge_EmptyDeltaPreservesHistory(t *testing.T) {
	kb := baseKB()
	merged, err := newMerger().Merge(context.Background(), kb, &model.Delta{})
	gt.NoError(t, err).Required()

	gt.Array(t, merged.Timeline).Length(1)
	gt.Array(t, merged.PatientProfile.ChronicConditions).Length(1)
	gt.Array(t, merged.SymptomRegistry).Length(1)
	gt.Array(t, merged.ActionItems).Length(1)
	gt.Array(t, merged.UnresolvedQuestions).Length(1)
	gt.Value(t, merged.Metadata.Changelog).Equal("no new facts")
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	kb := baseKB()
	delta := &model.Delta{
		Conditions: []model.Condition{
			{Name: "Cervical radiculopathy", ICD10Code: "M54.12", Status: types.ConditionStatusActive},
		},
		TimelineEvents: []model.TimelineEvent{
			{
				Date:                 time.Date(2021, 1, 20, 14, 0, 0, 0, time.UTC),
				EventType:            types.EventTypeEncounter,
				Summary:              "Post-op follow-up",
				ClinicalSignificance: types.SignificanceMedium,
			},
		},
	}

	merged, err := newMerger().Merge(context.Background(), kb, delta)
	gt.NoError(t, err).Required()
	gt.Value(t, merged).NotEqual(kb)

	gt.Value(t, kb.Metadata.Version).Equal("1.0.0")
	gt.Array(t, kb.Timeline).Length(1)
	gt.Array(t, kb.PatientProfile.ChronicConditions).Length(1)

	// mutating the result must not reach back into the input
	merged.Timeline[0].Summary = "changed"
	gt.Value(t, kb.Timeline[0].Summary).Equal("ACDF C5-C6")
}

func TestMerge_Idempotence(t *testing.T) {
	kb := baseKB()
	delta := &model.Delta{
		Conditions: []model.Condition{
			{
				Name:      "Cervical radiculopathy",
				ICD10Code: "M54.12",
				Status:    types.ConditionStatusActive,
				OnsetDate: types.NewDate(2020, time.January, 10),
			},
		},
		TimelineEvents: []model.TimelineEvent{
			{
				Date:                 time.Date(2021, 1, 20, 14, 0, 0, 0, time.UTC),
				EventType:            types.EventTypeEncounter,
				Summary:              "Post-op follow-up",
				ClinicalSignificance: types.SignificanceMedium,
			},
		},
		Symptoms: []model.Symptom{
			{
				Symptom:       "Neck pain",
				Status:        types.SymptomStatusActive,
				LastReported:  types.NewDate(2021, time.January, 20),
				FirstReported: types.NewDate(2019, time.September, 1),
			},
		},
	}

	m := newMerger()
	once, err := m.Merge(context.Background(), kb, delta)
	gt.NoError(t, err).Required()
	twice, err := m.Merge(context.Background(), once, delta)
	gt.NoError(t, err).Required()

	gt.Array(t, twice.PatientProfile.ChronicConditions).Length(len(once.PatientProfile.ChronicConditions))
	gt.Array(t, twice.Timeline).Length(len(once.Timeline))
	gt.Array(t, twice.SymptomRegistry).Length(len(once.SymptomRegistry))
	gt.Value(t, twice.Metadata.Changelog).Equal("no new facts")
}

func TestMerge_MetadataBookkeeping(t *testing.T) {
	kb := baseKB()
	delta := &model.Delta{
		SourceFilesCount: 2,
		Allergies: []model.Allergy{
			{Allergen: "Latex", Reaction: "contact dermatitis"},
		},
	}

	m := merge.New(
		merge.WithNow(func() time.Time { return fixedNow }),
		merge.WithGeneratorVersion("v0.3.0"),
	)
	merged, err := m.Merge(context.Background(), kb, delta)
	gt.NoError(t, err).Required()

	gt.Value(t, merged.Metadata.GeneratedAt).Equal(fixedNow)
	gt.Number(t, merged.Metadata.SourceFilesCount).Equal(5)
	gt.Value(t, merged.Metadata.GeneratorVersion).Equal("v0.3.0")
	gt.Value(t, merged.Metadata.Changelog).Equal("1 allergy")
}

func TestMerge_NilDelta(t *testing.T) {
	_, err := newMerger().Merge(context.Background(), baseKB(), nil)
	gt.Error(t, err)
}

func TestMerge_CareTeamDedup(t *testing.T) {
	existing := baseKB()
	existing.PatientProfile.PrimaryCareTeam = []model.CareTeamMember{
		{Name: "Dr. Emily Park", Role: "Primary care physician"},
	}

	delta := &model.Delta{
		CareTeam: []model.CareTeamMember{
			{Name: "dr. emily park", Role: "PCP"},
			{Name: "Dr. Sam Ito", Role: "Neurosurgeon"},
		},
	}

	merged, err := newMerger().Merge(context.Background(), existing, delta)
	gt.NoError(t, err).Required()

	gt.Array(t, merged.PatientProfile.PrimaryCareTeam).Length(2)
	gt.Value(t, merged.PatientProfile.PrimaryCareTeam[0].Role).Equal("Primary care physician")
	gt.Value(t, merged.PatientProfile.PrimaryCareTeam[1].Name).Equal("Dr. Sam Ito")
	gt.Value(t, merged.Metadata.Changelog).Equal("added 1 care team member")
}
