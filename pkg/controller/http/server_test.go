package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	httpctrl "github.com/clinrec-lab/longview/pkg/controller/http"
	"github.com/clinrec-lab/longview/pkg/domain/model"
	"github.com/clinrec-lab/longview/pkg/domain/types"
	"github.com/clinrec-lab/longview/pkg/repository/memory"
)

func serverKB() *model.KnowledgeBase {
	return &model.KnowledgeBase{
		Metadata: model.Metadata{
			Version:     "1.0.0",
			GeneratedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		},
		PatientProfile: model.PatientProfile{
			Demographics: model.PatientDemographics{
				PatientID: "p-100",
				Name:      "Jane Doe",
				Gender:    types.GenderFemale,
			},
		},
		Timeline: []model.TimelineEvent{
			{
				Date:                 time.Date(2020, 1, 10, 10, 0, 0, 0, time.UTC),
				EventType:            types.EventTypeEncounter,
				Summary:              "Office visit",
				ClinicalSignificance: types.SignificanceMedium,
			},
			{
				Date:                 time.Date(2020, 5, 15, 8, 30, 0, 0, time.UTC),
				EventType:            types.EventTypeProcedure,
				Summary:              "ACDF C5-C6",
				ClinicalSignificance: types.SignificanceHigh,
			},
		},
		SymptomRegistry: []model.Symptom{
			{
				Symptom:       "Neck pain",
				Status:        types.SymptomStatusActive,
				FirstReported: types.NewDate(2020, time.January, 10),
				LastReported:  types.NewDate(2020, time.May, 1),
			},
			{
				Symptom:       "Headache",
				Status:        types.SymptomStatusResolved,
				FirstReported: types.NewDate(2019, time.March, 1),
				LastReported:  types.NewDate(2019, time.April, 1),
			},
		},
		ActionItems: []model.ActionItem{
			{
				Item:     "Schedule follow-up",
				Priority: types.PriorityHigh,
				Category: types.CategoryFollowUp,
				Status:   types.ActionStatusPending,
			},
			{
				Item:     "Complete PT course",
				Priority: types.PriorityMedium,
				Category: types.CategoryTherapy,
				Status:   types.ActionStatusCompleted,
			},
		},
	}
}

func newTestServer(t *testing.T) *httpctrl.Server {
	t.Helper()
	store := memory.New()
	gt.NoError(t, store.Save(context.Background(), serverKB())).Required()
	return httpctrl.New(store)
}

func get(t *testing.T, srv *httpctrl.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestServer_GetKnowledgeBase(t *testing.T) {
	srv := newTestServer(t)

	rec := get(t, srv, "/api/kb")
	gt.Value(t, rec.Code).Equal(http.StatusOK)

	var kb model.KnowledgeBase
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &kb)).Required()
	gt.Value(t, kb.Metadata.Version).Equal("1.0.0")
	gt.Value(t, kb.PatientProfile.Demographics.Name).Equal("Jane Doe")
}

func TestServer_NoKnowledgeBase(t *testing.T) {
	srv := httpctrl.New(memory.New())

	rec := get(t, srv, "/api/kb")
	gt.Value(t, rec.Code).Equal(http.StatusNotFound)
}

func TestServer_Timeline(t *testing.T) {
	srv := newTestServer(t)

	t.Run("all events", func(t *testing.T) {
		rec := get(t, srv, "/api/kb/timeline")
		gt.Value(t, rec.Code).Equal(http.StatusOK)

		var events []model.TimelineEvent
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events)).Required()
		gt.Array(t, events).Length(2)
	})

	t.Run("filter by type", func(t *testing.T) {
		rec := get(t, srv, "/api/kb/timeline?type=procedure")
		gt.Value(t, rec.Code).Equal(http.StatusOK)

		var events []model.TimelineEvent
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events)).Required()
		gt.Array(t, events).Length(1)
		gt.Value(t, events[0].Summary).Equal("ACDF C5-C6")
	})

	t.Run("limit keeps the most recent", func(t *testing.T) {
		rec := get(t, srv, "/api/kb/timeline?limit=1")
		gt.Value(t, rec.Code).Equal(http.StatusOK)

		var events []model.TimelineEvent
		gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &events)).Required()
		gt.Array(t, events).Length(1)
		gt.Value(t, events[0].Summary).Equal("ACDF C5-C6")
	})

	t.Run("unknown type is a bad request", func(t *testing.T) {
		rec := get(t, srv, "/api/kb/timeline?type=nonsense")
		gt.Value(t, rec.Code).Equal(http.StatusBadRequest)
	})
}

func TestServer_Symptoms(t *testing.T) {
	srv := newTestServer(t)

	rec := get(t, srv, "/api/kb/symptoms")
	var all []model.Symptom
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all)).Required()
	gt.Array(t, all).Length(2)

	rec = get(t, srv, "/api/kb/symptoms?active=true")
	var active []model.Symptom
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &active)).Required()
	gt.Array(t, active).Length(1)
	gt.Value(t, active[0].Symptom).Equal("Neck pain")
}

func TestServer_Actions(t *testing.T) {
	srv := newTestServer(t)

	rec := get(t, srv, "/api/kb/actions?pending=true")
	var pending []model.ActionItem
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending)).Required()
	gt.Array(t, pending).Length(1)
	gt.Value(t, pending[0].Item).Equal("Schedule follow-up")
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t)

	rec := get(t, srv, "/health")
	gt.Value(t, rec.Code).Equal(http.StatusOK)
}
