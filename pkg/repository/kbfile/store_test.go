package kbfile_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/clinrec-lab/longview/pkg/domain/model"
	"github.com/clinrec-lab/longview/pkg/domain/types"
	"github.com/clinrec-lab/longview/pkg/repository/kbfile"
)

func testKB(version string) *model.KnowledgeBase {
	return &model.KnowledgeBase{
		Metadata: model.Metadata{
			Version:     version,
			GeneratedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		},
		PatientProfile: model.PatientProfile{
			Demographics: model.PatientDemographics{
				PatientID:   "p-100",
				Name:        "Jane Doe",
				DateOfBirth: types.NewDate(1984, time.June, 16),
				Gender:      types.GenderFemale,
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
	}
}

func TestStore_LoadMissing(t *testing.T) {
	store := kbfile.New(filepath.Join(t.TempDir(), "kb.json"))

	kb, err := store.Load(context.Background())
	gt.NoError(t, err)
	gt.Value(t, kb).Nil()
}

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.json")
	store := kbfile.New(path)
	ctx := context.Background()

	gt.NoError(t, store.Save(ctx, testKB("1.0.0"))).Required()

	loaded, err := store.Load(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, loaded).NotNil()
	gt.Value(t, loaded.Metadata.Version).Equal("1.0.0")
	gt.Value(t, loaded.PatientProfile.Demographics.Name).Equal("Jane Doe")
	gt.Value(t, loaded.PatientProfile.Demographics.DateOfBirth).Equal(types.NewDate(1984, time.June, 16))
	gt.Array(t, loaded.Timeline).Length(1)
	gt.Value(t, loaded.Timeline[0].Date).Equal(time.Date(2020, 5, 15, 8, 30, 0, 0, time.UTC))
}

func TestStore_BackupOnOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kb.json")
	historyDir := filepath.Join(dir, "history")

	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := kbfile.New(path,
		kbfile.WithHistoryDir(historyDir),
		kbfile.WithNow(func() time.Time { return fixed }),
	)
	ctx := context.Background()

	gt.NoError(t, store.Save(ctx, testKB("1.0.0"))).Required()

	// first save has nothing to back up
	_, err := os.Stat(historyDir)
	gt.Bool(t, os.IsNotExist(err)).True()

	gt.NoError(t, store.Save(ctx, testKB("1.0.1"))).Required()

	backup := filepath.Join(historyDir, "kb_v1.0.0_20250601_120000.json")
	_, err = os.Stat(backup)
	gt.NoError(t, err)

	loaded, err := store.Load(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, loaded.Metadata.Version).Equal("1.0.1")
}

func TestStore_LoadInvalid(t *testing.T) {
	dir := t.TempDir()

	t.Run("malformed JSON", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		gt.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

		_, err := kbfile.New(path).Load(context.Background())
		gt.Error(t, err)
	})

	t.Run("schema violation", func(t *testing.T) {
		path := filepath.Join(dir, "invalid.json")
		// missing patient ID
		gt.NoError(t, os.WriteFile(path, []byte(`{"metadata": {"version": "1.0.0"}}`), 0600))

		_, err := kbfile.New(path).Load(context.Background())
		gt.Error(t, err)
	})
}
