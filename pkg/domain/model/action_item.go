package model

import (
	"strings"

	"github.com/clinrec-lab/longview/pkg/domain/types"
)

// ActionItem is an actionable task extracted from medical records or
// surfaced by analysis
type ActionItem struct {
	Item          string               `json:"item"`
	Priority      types.ActionPriority `json:"priority"`
	Category      types.ActionCategory `json:"category"`
	DueDate       types.Date           `json:"due_date,omitempty"`
	Source        string               `json:"source,omitempty"`
	SourceDate    types.Date           `json:"source_date,omitempty"`
	Status        types.ActionStatus   `json:"status"`
	CompletedDate types.Date           `json:"completed_date,omitempty"`
	Notes         string               `json:"notes,omitempty"`
}

// Key returns the lowercased item text used for deduplication
func (a ActionItem) Key() string {
	return strings.ToLower(a.Item)
}

// UnresolvedQuestion flags an ambiguity or conflict in the records that
// needs human clarification
type UnresolvedQuestion struct {
	Question                  string               `json:"question"`
	Context                   string               `json:"context"`
	IdentifiedDate            types.Date           `json:"identified_date"`
	RequiresClarificationFrom string               `json:"requires_clarification_from,omitempty"`
	Priority                  types.ActionPriority `json:"priority"`
	RelatedDocuments          []string             `json:"related_documents,omitempty"`
}

// Key returns the lowercased question text used for deduplication
func (q UnresolvedQuestion) Key() string {
	return strings.ToLower(q.Question)
}

// Clone returns a deep copy of the question
func (q UnresolvedQuestion) Clone() UnresolvedQuestion {
	dup := q
	dup.RelatedDocuments = append([]string(nil), q.RelatedDocuments...)
	return dup
}
