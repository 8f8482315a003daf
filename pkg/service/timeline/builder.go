package timeline

import (
	"sort"
	"time"

	"github.com/clinrec-lab/longview/pkg/domain/model"
	"github.com/clinrec-lab/longview/pkg/domain/types"
)

// DefaultDedupBucket is the identity bucket width used when callers do
// not specify one. It matches the fixed one-hour granularity of the merge
// engine's event key.
const DefaultDedupBucket = time.Hour

// Builder accumulates timeline events from one or more ingestion passes
// and exposes a deduplicated, chronologically ordered sequence.
type Builder struct {
	events []model.TimelineEvent
}

// New creates an empty timeline builder
func New() *Builder {
	return &Builder{}
}

// Add appends a single event. Events without a valid date are ignored;
// date validity is the only requirement enforced here.
func (b *Builder) Add(event model.TimelineEvent) {
	if event.Date.IsZero() {
		return
	}
	b.events = append(b.events, event)
}

// AddAll appends multiple events
func (b *Builder) AddAll(events []model.TimelineEvent) {
	for _, e := range events {
		b.Add(e)
	}
}

// Sort orders the accumulated events chronologically in place and
// returns the canonical sequence. The sort is stable so same-instant
// events keep insertion order.
func (b *Builder) Sort() []model.TimelineEvent {
	sort.SliceStable(b.events, func(i, j int) bool {
		return b.events[i].Date.Before(b.events[j].Date)
	})
	return b.events
}

// Deduplicate sorts the events and drops later occurrences of the same
// identity key: event date truncated to the given bucket width, event
// type, and the first 100 characters of the lowercased summary. The
// first occurrence of a key wins; dropped events are not merged into it.
// A non-positive bucket falls back to DefaultDedupBucket.
func (b *Builder) Deduplicate(bucket time.Duration) []model.TimelineEvent {
	if len(b.events) == 0 {
		return nil
	}
	if bucket <= 0 {
		bucket = DefaultDedupBucket
	}

	sorted := b.Sort()

	deduplicated := make([]model.TimelineEvent, 0, len(sorted))
	seen := make(map[model.EventKey]struct{}, len(sorted))

	for _, event := range sorted {
		key := event.BucketKey(bucket)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		deduplicated = append(deduplicated, event)
	}

	b.events = deduplicated
	return deduplicated
}

// MergeTimelines appends events from another timeline and returns the
// deduplicated, sorted result
func (b *Builder) MergeTimelines(other []model.TimelineEvent) []model.TimelineEvent {
	b.AddAll(other)
	return b.Deduplicate(DefaultDedupBucket)
}

// EventsByType returns all accumulated events of the given type
func (b *Builder) EventsByType(eventType types.EventType) []model.TimelineEvent {
	var matched []model.TimelineEvent
	for _, e := range b.events {
		if e.EventType == eventType {
			matched = append(matched, e)
		}
	}
	return matched
}

// EventsByRange returns events within [start, end], inclusive
func (b *Builder) EventsByRange(start, end time.Time) []model.TimelineEvent {
	var matched []model.TimelineEvent
	for _, e := range b.events {
		if !e.Date.Before(start) && !e.Date.After(end) {
			matched = append(matched, e)
		}
	}
	return matched
}

// CriticalEvents returns all events with critical clinical significance
func (b *Builder) CriticalEvents() []model.TimelineEvent {
	var matched []model.TimelineEvent
	for _, e := range b.events {
		if e.ClinicalSignificance == types.SignificanceCritical {
			matched = append(matched, e)
		}
	}
	return matched
}

// Events returns the current accumulated sequence
func (b *Builder) Events() []model.TimelineEvent {
	return b.events
}

// Len returns the number of accumulated events
func (b *Builder) Len() int {
	return len(b.events)
}
