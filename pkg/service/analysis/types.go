package analysis

import (
	"context"
	"time"

	"github.com/clinrec-lab/longview/pkg/domain/model"
)

// Service defines the interface for LLM re-analysis of a knowledge base
type Service interface {
	// Analyze runs all analysis stages over the knowledge base and
	// returns their combined findings. A failed stage degrades to empty
	// findings rather than failing the whole analysis.
	Analyze(ctx context.Context, input Input) (*Report, error)
}

// Input is the material for one analysis run
type Input struct {
	KB           *model.KnowledgeBase
	NewDocuments []string // file names processed in the current batch
	Now          time.Time
}

// Pattern is a longitudinal medical pattern identified in the timeline
type Pattern struct {
	Pattern      string `json:"pattern"`
	Evidence     string `json:"evidence"`
	Significance string `json:"significance"`
}

// Insight is a clinical insight about the patient's trajectory
type Insight struct {
	Insight           string `json:"insight"`
	Evidence          string `json:"evidence"`
	ClinicalRelevance string `json:"clinical_relevance"`
}

// SymptomUpdate proposes a status change for a tracked symptom
type SymptomUpdate struct {
	Symptom   string `json:"symptom"`
	NewStatus string `json:"new_status"`
	Reason    string `json:"reason"`
}

// SymptomFindings holds the symptom progression stage output
type SymptomFindings struct {
	Updates     []SymptomUpdate `json:"symptom_updates"`
	NewSymptoms []model.Symptom `json:"-"`
}

// Report aggregates the findings of all analysis stages
type Report struct {
	Patterns            []Pattern
	SymptomFindings     SymptomFindings
	ActionItems         []model.ActionItem
	UnresolvedQuestions []model.UnresolvedQuestion
	Insights            []Insight
}

// IsEmpty reports whether no stage produced any finding
func (r *Report) IsEmpty() bool {
	return len(r.Patterns) == 0 &&
		len(r.SymptomFindings.Updates) == 0 &&
		len(r.SymptomFindings.NewSymptoms) == 0 &&
		len(r.ActionItems) == 0 &&
		len(r.UnresolvedQuestions) == 0 &&
		len(r.Insights) == 0
}

// llmActionItem is the structured output shape for extracted actions
type llmActionItem struct {
	Item     string `json:"item"`
	Priority string `json:"priority"`
	Category string `json:"category"`
	DueDate  string `json:"due_date"`
	Source   string `json:"source"`
	Notes    string `json:"notes"`
}

// llmQuestion is the structured output shape for identified questions
type llmQuestion struct {
	Question                  string `json:"question"`
	Context                   string `json:"context"`
	Priority                  string `json:"priority"`
	RequiresClarificationFrom string `json:"requires_clarification_from"`
}

// llmSymptomFindings is the structured output shape of the symptom stage
type llmSymptomFindings struct {
	SymptomUpdates []SymptomUpdate `json:"symptom_updates"`
	NewSymptoms    []llmNewSymptom `json:"new_symptoms"`
}

type llmNewSymptom struct {
	Symptom       string `json:"symptom"`
	FirstReported string `json:"first_reported"`
	Status        string `json:"status"`
}
