package analysis

import (
	"fmt"
	"strings"

	"github.com/clinrec-lab/longview/pkg/domain/model"
)

// recentEventLimit bounds how many timeline events go into the analysis
// context
const recentEventLimit = 50

// renderContext formats the knowledge base as the shared prompt context
// for all analysis stages
func renderContext(kb *model.KnowledgeBase, newDocuments []string) string {
	var sb strings.Builder

	sb.WriteString("# PATIENT MEDICAL KNOWLEDGE BASE\n\n")

	demographics := kb.PatientProfile.Demographics
	sb.WriteString("## Patient Profile\n")
	fmt.Fprintf(&sb, "- Name: %s\n", demographics.Name)
	if demographics.Age > 0 {
		fmt.Fprintf(&sb, "- Age: %d\n", demographics.Age)
	}
	fmt.Fprintf(&sb, "- Gender: %s\n", demographics.Gender)

	sb.WriteString("\n## Active Conditions\n")
	for _, cond := range kb.ActiveConditions() {
		code := cond.ICD10Code
		if code == "" {
			code = "N/A"
		}
		onset := "Unknown"
		if !cond.OnsetDate.IsZero() {
			onset = cond.OnsetDate.String()
		}
		fmt.Fprintf(&sb, "- %s (ICD-10: %s) - Onset: %s\n", cond.Name, code, onset)
	}

	sb.WriteString("\n## Active Symptoms\n")
	for _, symptom := range kb.ActiveSymptoms() {
		fmt.Fprintf(&sb, "- %s (Status: %s) - First reported: %s, Last: %s\n",
			symptom.Symptom, symptom.Status, symptom.FirstReported, symptom.LastReported)
	}

	fmt.Fprintf(&sb, "\n## Recent Timeline (Last %d Events)\n", recentEventLimit)
	for _, event := range kb.RecentEvents(recentEventLimit) {
		fmt.Fprintf(&sb, "- %s: [%s] %s\n",
			event.Date.Format("2006-01-02"), event.EventType, event.Summary)
	}

	if len(kb.ActionItems) > 0 {
		sb.WriteString("\n## Existing Action Items\n")
		for _, item := range kb.ActionItems {
			fmt.Fprintf(&sb, "- [%s] %s\n", item.Status, item.Item)
		}
	}

	if len(newDocuments) > 0 {
		sb.WriteString("\n## Newly Processed Documents\n")
		for _, doc := range newDocuments {
			fmt.Fprintf(&sb, "- %s\n", doc)
		}
	}

	return sb.String()
}

// renderSymptomSummary lists every tracked symptom for the progression
// stage prompt
func renderSymptomSummary(kb *model.KnowledgeBase) string {
	var sb strings.Builder
	for _, s := range kb.SymptomRegistry {
		fmt.Fprintf(&sb, "- %s: %s (First: %s, Last: %s)\n",
			s.Symptom, s.Status, s.FirstReported, s.LastReported)
	}
	return sb.String()
}
