package types_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/m-mizutani/gt"

	"github.com/clinrec-lab/longview/pkg/domain/types"
)

func TestConditionStatus_IsValid(t *testing.T) {
	for _, s := range types.AllConditionStatuses() {
		gt.Bool(t, s.IsValid()).True()
	}
	gt.Bool(t, types.ConditionStatus("chronic").IsValid()).False()
	gt.Bool(t, types.ConditionStatus("").IsValid()).False()
}

func TestParseConditionStatus(t *testing.T) {
	status, err := types.ParseConditionStatus("in_remission")
	gt.NoError(t, err).Required()
	gt.Value(t, status).Equal(types.ConditionStatusInRemission)

	_, err = types.ParseConditionStatus("IN_REMISSION")
	gt.Error(t, err)
}

func TestParseGender_UnknownFallback(t *testing.T) {
	gt.Value(t, types.ParseGender("female")).Equal(types.GenderFemale)
	gt.Value(t, types.ParseGender("")).Equal(types.GenderUnknown)
	gt.Value(t, types.ParseGender("nonbinary")).Equal(types.GenderUnknown)
}

func TestEventType_IsValid(t *testing.T) {
	gt.Bool(t, types.EventTypeLabResult.IsValid()).True()
	gt.Bool(t, types.EventType("surgery").IsValid()).False()
}

func TestParseActionPriority(t *testing.T) {
	p, err := types.ParseActionPriority("urgent")
	gt.NoError(t, err).Required()
	gt.Value(t, p).Equal(types.PriorityUrgent)

	_, err = types.ParseActionPriority("critical")
	gt.Error(t, err)
}

func TestDate_RoundTrip(t *testing.T) {
	d := types.NewDate(2020, time.May, 15)

	raw, err := json.Marshal(d)
	gt.NoError(t, err).Required()
	gt.Value(t, string(raw)).Equal(`"2020-05-15"`)

	var decoded types.Date
	gt.NoError(t, json.Unmarshal(raw, &decoded)).Required()
	gt.Value(t, decoded).Equal(d)
}

func TestDate_ZeroIsNull(t *testing.T) {
	var d types.Date

	raw, err := json.Marshal(d)
	gt.NoError(t, err).Required()
	gt.Value(t, string(raw)).Equal("null")

	var decoded types.Date
	gt.NoError(t, json.Unmarshal([]byte("null"), &decoded)).Required()
	gt.Bool(t, decoded.IsZero()).True()
}

func TestDate_Ordering(t *testing.T) {
	earlier := types.NewDate(2019, time.September, 1)
	later := types.NewDate(2020, time.June, 1)

	gt.Bool(t, earlier.Before(later)).True()
	gt.Bool(t, later.After(earlier)).True()
	gt.Bool(t, earlier.After(later)).False()
	gt.Bool(t, earlier.Before(earlier)).False()
}

func TestParseDate_Invalid(t *testing.T) {
	_, err := types.ParseDate("2020/05/15")
	gt.Error(t, err)

	_, err = types.ParseDate("not a date")
	gt.Error(t, err)
}
