package model

import (
	"strings"
	"time"

	"github.com/clinrec-lab/longview/pkg/domain/types"
)

// summaryKeyLen bounds the summary prefix used in event identity keys
const summaryKeyLen = 100

// TimelineEvent is a single event in the patient timeline
type TimelineEvent struct {
	Date                 time.Time                  `json:"date"`
	EventType            types.EventType            `json:"event_type"`
	Summary              string                     `json:"summary"`
	Details              map[string]any             `json:"details,omitempty"`
	SourceDocument       string                     `json:"source_document,omitempty"`
	ClinicalSignificance types.ClinicalSignificance `json:"clinical_significance"`
	Location             string                     `json:"location,omitempty"`
	Provider             string                     `json:"provider,omitempty"`
	Codes                map[string]string          `json:"codes,omitempty"`
}

// EventKey identifies a real-world event for deduplication: the event
// instant truncated to the hour, the event type, and the first 100
// characters of the lowercased summary.
type EventKey struct {
	Hour    int64
	Type    types.EventType
	Summary string
}

// Key returns the deduplication key with the default one-hour bucket
func (e TimelineEvent) Key() EventKey {
	return e.BucketKey(time.Hour)
}

// BucketKey returns the deduplication key with an explicit time bucket
// width. Events whose dates fall into the same bucket and share type and
// summary prefix are the same real-world event.
func (e TimelineEvent) BucketKey(bucket time.Duration) EventKey {
	if bucket <= 0 {
		bucket = time.Hour
	}
	return EventKey{
		Hour:    e.Date.UTC().Truncate(bucket).Unix(),
		Type:    e.EventType,
		Summary: summaryKey(e.Summary),
	}
}

func summaryKey(s string) string {
	runes := []rune(strings.ToLower(strings.TrimSpace(s)))
	if len(runes) > summaryKeyLen {
		runes = runes[:summaryKeyLen]
	}
	return string(runes)
}

// Clone returns a deep copy of the event
func (e TimelineEvent) Clone() TimelineEvent {
	dup := e
	dup.Details = cloneDetails(e.Details)
	if e.Codes != nil {
		dup.Codes = make(map[string]string, len(e.Codes))
		for k, v := range e.Codes {
			dup.Codes[k] = v
		}
	}
	return dup
}

// cloneDetails deep-copies the loosely structured details payload. Only
// the container shapes produced by JSON decoding (maps and slices) need
// recursion; scalars are copied by value.
func cloneDetails(v map[string]any) map[string]any {
	if v == nil {
		return nil
	}
	dup := make(map[string]any, len(v))
	for k, val := range v {
		dup[k] = cloneValue(val)
	}
	return dup
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneDetails(val)
	case []any:
		dup := make([]any, len(val))
		for i, item := range val {
			dup[i] = cloneValue(item)
		}
		return dup
	default:
		return v
	}
}
