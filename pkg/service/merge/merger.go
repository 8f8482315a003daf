package merge

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/clinrec-lab/longview/pkg/domain/model"
	"github.com/clinrec-lab/longview/pkg/domain/types"
	"github.com/clinrec-lab/longview/pkg/service/timeline"
)

// Merger folds a delta of newly extracted facts into an existing
// knowledge base. It never mutates its inputs: the result is built from
// a deep clone so the caller's snapshot stays valid for backup.
type Merger struct {
	now              func() time.Time
	dedupBucket      time.Duration
	generatorVersion string
}

// Option configures a Merger
type Option func(*Merger)

// WithNow overrides the clock, mainly for tests
func WithNow(now func() time.Time) Option {
	return func(m *Merger) {
		m.now = now
	}
}

// WithDedupBucket overrides the timeline deduplication bucket width
func WithDedupBucket(bucket time.Duration) Option {
	return func(m *Merger) {
		m.dedupBucket = bucket
	}
}

// WithGeneratorVersion records the tool version in the merged metadata
func WithGeneratorVersion(version string) Option {
	return func(m *Merger) {
		m.generatorVersion = version
	}
}

// New creates a Merger
func New(opts ...Option) *Merger {
	m := &Merger{
		now:         time.Now,
		dedupBucket: timeline.DefaultDedupBucket,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Merge folds the delta into the existing knowledge base and returns the
// next version. A nil existing base starts from an empty bootstrap base.
// Existing entries always win over incoming duplicates; incoming entries
// are only ever appended, never rewritten, except for the symptom
// registry upsert and the placeholder demographics replacement.
func (m *Merger) Merge(ctx context.Context, existing *model.KnowledgeBase, delta *model.Delta) (*model.KnowledgeBase, error) {
	if delta == nil {
		return nil, goerr.New("merge delta is required")
	}

	now := m.now()

	var next *model.KnowledgeBase
	if existing == nil {
		next = model.NewKnowledgeBase(now)
	} else {
		next = existing.Clone()
	}

	stats := mergeStats{}

	m.mergeDemographics(next, delta.Patient)
	stats.conditions = m.mergeConditions(next, delta.Conditions)
	stats.devices = m.mergeDevices(next, delta.Devices)
	stats.allergies = m.mergeAllergies(next, delta.Allergies)
	stats.careTeam = m.mergeCareTeam(next, delta.CareTeam)
	stats.events = m.mergeTimeline(next, delta.TimelineEvents)
	stats.symptoms = m.mergeSymptoms(next, delta.Symptoms)
	stats.actions = m.mergeActionItems(next, delta.ActionItems)
	stats.questions = m.mergeQuestions(next, delta.UnresolvedQuestions)

	next.Metadata.PreviousVersion = next.Metadata.Version
	next.Metadata.Version = nextVersion(next.Metadata.Version)
	next.Metadata.GeneratedAt = now
	next.Metadata.SourceFilesCount += delta.SourceFilesCount
	next.Metadata.Changelog = stats.changelog()
	if m.generatorVersion != "" {
		next.Metadata.GeneratorVersion = m.generatorVersion
	}

	return next, nil
}

// mergeDemographics replaces the patient record only when the existing
// one is still the bootstrap placeholder. Real demographics are never
// overwritten by a later document.
func (m *Merger) mergeDemographics(kb *model.KnowledgeBase, incoming *model.PatientDemographics) {
	if incoming == nil || incoming.IsPlaceholder() {
		return
	}
	if !kb.PatientProfile.Demographics.IsPlaceholder() {
		return
	}
	kb.PatientProfile.Demographics = *incoming
}

func (m *Merger) mergeConditions(kb *model.KnowledgeBase, incoming []model.Condition) int {
	seen := make(map[model.ConditionKey]struct{}, len(kb.PatientProfile.ChronicConditions))
	for _, c := range kb.PatientProfile.ChronicConditions {
		seen[c.Key()] = struct{}{}
	}

	added := 0
	for _, c := range incoming {
		key := c.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		kb.PatientProfile.ChronicConditions = append(kb.PatientProfile.ChronicConditions, c)
		added++
	}
	return added
}

// mergeDevices deduplicates by UDI when present, and by lowercased
// device name as a fallback alias. Both keys of an existing device are
// registered so a later record matching either one is dropped.
func (m *Merger) mergeDevices(kb *model.KnowledgeBase, incoming []model.ImplantedDevice) int {
	seen := make(map[string]struct{}, len(kb.PatientProfile.ImplantedDevices)*2)
	register := func(d model.ImplantedDevice) {
		if d.UDI != "" {
			seen["udi:"+d.UDI] = struct{}{}
		}
		if d.DeviceName != "" {
			seen["name:"+d.NameKey()] = struct{}{}
		}
	}
	known := func(d model.ImplantedDevice) bool {
		if d.UDI != "" {
			if _, ok := seen["udi:"+d.UDI]; ok {
				return true
			}
		}
		if d.DeviceName != "" {
			if _, ok := seen["name:"+d.NameKey()]; ok {
				return true
			}
		}
		return false
	}

	for _, d := range kb.PatientProfile.ImplantedDevices {
		register(d)
	}

	added := 0
	for _, d := range incoming {
		if known(d) {
			continue
		}
		register(d)
		kb.PatientProfile.ImplantedDevices = append(kb.PatientProfile.ImplantedDevices, d)
		added++
	}
	return added
}

func (m *Merger) mergeAllergies(kb *model.KnowledgeBase, incoming []model.Allergy) int {
	seen := make(map[string]struct{}, len(kb.PatientProfile.Allergies))
	for _, a := range kb.PatientProfile.Allergies {
		seen[a.Key()] = struct{}{}
	}

	added := 0
	for _, a := range incoming {
		key := a.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		kb.PatientProfile.Allergies = append(kb.PatientProfile.Allergies, a)
		added++
	}
	return added
}

func (m *Merger) mergeCareTeam(kb *model.KnowledgeBase, incoming []model.CareTeamMember) int {
	seen := make(map[string]struct{}, len(kb.PatientProfile.PrimaryCareTeam))
	for _, member := range kb.PatientProfile.PrimaryCareTeam {
		seen[member.Key()] = struct{}{}
	}

	added := 0
	for _, member := range incoming {
		key := member.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		kb.PatientProfile.PrimaryCareTeam = append(kb.PatientProfile.PrimaryCareTeam, member)
		added++
	}
	return added
}

// mergeTimeline unions the incoming events with the existing timeline,
// drops incoming events whose identity key already exists, and restores
// chronological order
func (m *Merger) mergeTimeline(kb *model.KnowledgeBase, incoming []model.TimelineEvent) int {
	seen := make(map[model.EventKey]struct{}, len(kb.Timeline))
	for _, e := range kb.Timeline {
		seen[e.BucketKey(m.dedupBucket)] = struct{}{}
	}

	added := 0
	for _, e := range incoming {
		if e.Date.IsZero() {
			continue
		}
		key := e.BucketKey(m.dedupBucket)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		kb.Timeline = append(kb.Timeline, e.Clone())
		added++
	}

	kb.SortTimeline()
	return added
}

// mergeSymptoms upserts by lowercased symptom text. A known symptom
// keeps its earliest first-reported date, advances last-reported to the
// later of the two, takes the incoming status and severity as current,
// and appends only unseen severity history records in their incoming
// order. Unknown symptoms are appended whole.
func (m *Merger) mergeSymptoms(kb *model.KnowledgeBase, incoming []model.Symptom) int {
	index := make(map[string]int, len(kb.SymptomRegistry))
	for i, s := range kb.SymptomRegistry {
		index[s.Key()] = i
	}

	added := 0
	for _, s := range incoming {
		pos, ok := index[s.Key()]
		if !ok {
			index[s.Key()] = len(kb.SymptomRegistry)
			kb.SymptomRegistry = append(kb.SymptomRegistry, s.Clone())
			added++
			continue
		}

		current := &kb.SymptomRegistry[pos]

		if !s.FirstReported.IsZero() &&
			(current.FirstReported.IsZero() || s.FirstReported.Before(current.FirstReported)) {
			current.FirstReported = s.FirstReported
		}
		if !s.LastReported.IsZero() && s.LastReported.After(current.LastReported) {
			current.LastReported = s.LastReported
		}
		if s.Status.IsValid() {
			current.Status = s.Status
		}
		if s.CurrentSeverity != "" {
			current.CurrentSeverity = s.CurrentSeverity
		}
		if s.Notes != "" {
			current.Notes = s.Notes
		}

		seen := make(map[model.SeverityKey]struct{}, len(current.SeverityHistory))
		for _, r := range current.SeverityHistory {
			seen[r.Key()] = struct{}{}
		}
		for _, r := range s.SeverityHistory {
			if _, ok := seen[r.Key()]; ok {
				continue
			}
			seen[r.Key()] = struct{}{}
			current.SeverityHistory = append(current.SeverityHistory, r)
		}

		current.AssociatedConditions = appendUnseen(current.AssociatedConditions, s.AssociatedConditions)
		current.Triggers = appendUnseen(current.Triggers, s.Triggers)
		current.Treatments = appendUnseen(current.Treatments, s.Treatments)
	}
	return added
}

func (m *Merger) mergeActionItems(kb *model.KnowledgeBase, incoming []model.ActionItem) int {
	seen := make(map[string]struct{}, len(kb.ActionItems))
	for _, a := range kb.ActionItems {
		seen[a.Key()] = struct{}{}
	}

	added := 0
	for _, a := range incoming {
		key := a.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if !a.Status.IsValid() {
			a.Status = types.ActionStatusPending
		}
		kb.ActionItems = append(kb.ActionItems, a)
		added++
	}
	return added
}

func (m *Merger) mergeQuestions(kb *model.KnowledgeBase, incoming []model.UnresolvedQuestion) int {
	seen := make(map[string]struct{}, len(kb.UnresolvedQuestions))
	for _, q := range kb.UnresolvedQuestions {
		seen[q.Key()] = struct{}{}
	}

	added := 0
	for _, q := range incoming {
		key := q.Key()
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		kb.UnresolvedQuestions = append(kb.UnresolvedQuestions, q.Clone())
		added++
	}
	return added
}

// appendUnseen appends incoming strings missing from base, matched
// case-insensitively, preserving incoming order
func appendUnseen(base, incoming []string) []string {
	seen := make(map[string]struct{}, len(base))
	for _, v := range base {
		seen[strings.ToLower(v)] = struct{}{}
	}
	for _, v := range incoming {
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		base = append(base, v)
	}
	return base
}

// nextVersion increments the patch component of a semantic version.
// A version that does not parse as MAJOR.MINOR.PATCH resets to 1.0.0.
func nextVersion(version string) string {
	parts := strings.Split(version, ".")
	if len(parts) != 3 {
		return "1.0.0"
	}
	major, err1 := strconv.Atoi(parts[0])
	minor, err2 := strconv.Atoi(parts[1])
	patch, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil || major < 0 || minor < 0 || patch < 0 {
		return "1.0.0"
	}
	return fmt.Sprintf("%d.%d.%d", major, minor, patch+1)
}

type mergeStats struct {
	conditions int
	devices    int
	allergies  int
	careTeam   int
	events     int
	symptoms   int
	actions    int
	questions  int
}

// changelog renders a short human-readable summary of what the merge
// added, or a no-change marker
func (s mergeStats) changelog() string {
	var parts []string
	add := func(n int, singular, plural string) {
		if n == 1 {
			parts = append(parts, "1 "+singular)
		} else if n > 1 {
			parts = append(parts, fmt.Sprintf("%d %s", n, plural))
		}
	}
	add(s.conditions, "condition", "conditions")
	add(s.devices, "device", "devices")
	add(s.allergies, "allergy", "allergies")
	add(s.careTeam, "care team member", "care team members")
	add(s.events, "timeline event", "timeline events")
	add(s.symptoms, "symptom", "symptoms")
	add(s.actions, "action item", "action items")
	add(s.questions, "question", "questions")

	if len(parts) == 0 {
		return "no new facts"
	}
	return "added " + strings.Join(parts, ", ")
}
