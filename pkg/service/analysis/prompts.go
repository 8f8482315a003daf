package analysis

import "github.com/m-mizutani/gollem"

const patternSystemPrompt = `You are a medical records analyst reviewing a patient's longitudinal knowledge base.
Identify medical patterns across the timeline: recurring symptom clusters, treatment response cycles, condition progressions, and correlations between events.
Base every pattern on events actually present in the record. Do not speculate beyond the evidence.`

const patternUserPrompt = `Identify medical patterns in the knowledge base above.
For each pattern provide the pattern description, the supporting evidence from the record, and its significance for the patient's care.
Return an empty array if no clear pattern exists.`

const symptomSystemPrompt = `You are a medical records analyst tracking symptom progression.
Review the tracked symptoms against the recent timeline and determine which have changed status (resolved, worsening, improving, intermittent) and which new symptoms appear in the record but are not yet tracked.
Only propose a status change when the timeline supports it.`

const symptomUserPrompt = `Review the tracked symptoms against the timeline above.
Report status updates for tracked symptoms whose progression has changed, and any new symptoms present in the record but missing from the tracked list.`

const actionSystemPrompt = `You are a medical records analyst extracting actionable follow-up items.
Extract concrete tasks from the record: follow-up appointments, recommended tests, medication reviews, specialist referrals, imaging, and therapy.
Priority is one of: urgent, high, medium, low. Category is one of: follow_up, testing, medication_review, specialist_referral, imaging, therapy, lifestyle, other.
Do not repeat action items already listed as existing.`

const actionUserPrompt = `Extract new actionable items from the knowledge base above.
For each item provide the task text, priority, category, due date in YYYY-MM-DD form when the record implies one, the source document or event, and any clarifying notes.`

const questionSystemPrompt = `You are a medical records analyst flagging ambiguities that need human clarification.
Look for conflicting information between documents, unexplained gaps in care, medications without a documented indication, and abnormal results without follow-up.
Priority is one of: urgent, high, medium, low.`

const questionUserPrompt = `Identify unresolved questions in the knowledge base above.
For each question provide the question text, the context that raised it, its priority, and who should clarify it (for example the patient, a named provider, or records staff).`

const insightSystemPrompt = `You are a medical records analyst summarizing a patient's clinical trajectory.
Derive insights that would help a clinician new to this patient: overall direction of the primary conditions, treatment effectiveness, and risks suggested by the record.
Base every insight on the record and state its clinical relevance.`

const insightUserPrompt = `Derive clinical insights from the knowledge base above.
For each insight provide the insight text, the supporting evidence, and its clinical relevance.
Return an empty array if the record is too thin to support any insight.`

func patternSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "PatternAnalysisResponse",
		Description: "Medical patterns identified across the patient timeline",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"patterns": {
				Type:        gollem.TypeArray,
				Description: "List of identified patterns",
				Items: &gollem.Parameter{
					Type: gollem.TypeObject,
					Properties: map[string]*gollem.Parameter{
						"pattern": {
							Type:        gollem.TypeString,
							Description: "Description of the pattern",
						},
						"evidence": {
							Type:        gollem.TypeString,
							Description: "Supporting evidence from the record",
						},
						"significance": {
							Type:        gollem.TypeString,
							Description: "Why the pattern matters for the patient's care",
						},
					},
					Required: []string{"pattern", "evidence", "significance"},
				},
			},
		},
		Required: []string{"patterns"},
	}
}

func symptomSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "SymptomProgressionResponse",
		Description: "Status updates for tracked symptoms and newly observed symptoms",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"symptom_updates": {
				Type:        gollem.TypeArray,
				Description: "Status changes for symptoms already tracked",
				Items: &gollem.Parameter{
					Type: gollem.TypeObject,
					Properties: map[string]*gollem.Parameter{
						"symptom": {
							Type:        gollem.TypeString,
							Description: "The tracked symptom text, exactly as listed",
						},
						"new_status": {
							Type:        gollem.TypeString,
							Description: "One of: active, resolved, intermittent, worsening, improving",
						},
						"reason": {
							Type:        gollem.TypeString,
							Description: "Timeline evidence for the status change",
						},
					},
					Required: []string{"symptom", "new_status", "reason"},
				},
			},
			"new_symptoms": {
				Type:        gollem.TypeArray,
				Description: "Symptoms in the record that are not yet tracked",
				Items: &gollem.Parameter{
					Type: gollem.TypeObject,
					Properties: map[string]*gollem.Parameter{
						"symptom": {
							Type:        gollem.TypeString,
							Description: "Description of the symptom",
						},
						"first_reported": {
							Type:        gollem.TypeString,
							Description: "Date first reported, YYYY-MM-DD",
						},
						"status": {
							Type:        gollem.TypeString,
							Description: "One of: active, resolved, intermittent, worsening, improving",
						},
					},
					Required: []string{"symptom"},
				},
			},
		},
		Required: []string{"symptom_updates", "new_symptoms"},
	}
}

func actionSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "ActionItemResponse",
		Description: "Actionable follow-up items extracted from the record",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"action_items": {
				Type:        gollem.TypeArray,
				Description: "List of extracted action items",
				Items: &gollem.Parameter{
					Type: gollem.TypeObject,
					Properties: map[string]*gollem.Parameter{
						"item": {
							Type:        gollem.TypeString,
							Description: "The task to be done",
						},
						"priority": {
							Type:        gollem.TypeString,
							Description: "One of: urgent, high, medium, low",
						},
						"category": {
							Type:        gollem.TypeString,
							Description: "One of: follow_up, testing, medication_review, specialist_referral, imaging, therapy, lifestyle, other",
						},
						"due_date": {
							Type:        gollem.TypeString,
							Description: "Due date in YYYY-MM-DD form, empty when unknown",
						},
						"source": {
							Type:        gollem.TypeString,
							Description: "The document or event the item comes from",
						},
						"notes": {
							Type:        gollem.TypeString,
							Description: "Clarifying notes",
						},
					},
					Required: []string{"item", "priority", "category"},
				},
			},
		},
		Required: []string{"action_items"},
	}
}

func questionSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "UnresolvedQuestionResponse",
		Description: "Ambiguities in the record that need human clarification",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"questions": {
				Type:        gollem.TypeArray,
				Description: "List of unresolved questions",
				Items: &gollem.Parameter{
					Type: gollem.TypeObject,
					Properties: map[string]*gollem.Parameter{
						"question": {
							Type:        gollem.TypeString,
							Description: "The question needing clarification",
						},
						"context": {
							Type:        gollem.TypeString,
							Description: "The record context that raised the question",
						},
						"priority": {
							Type:        gollem.TypeString,
							Description: "One of: urgent, high, medium, low",
						},
						"requires_clarification_from": {
							Type:        gollem.TypeString,
							Description: "Who should clarify the question",
						},
					},
					Required: []string{"question", "context", "priority"},
				},
			},
		},
		Required: []string{"questions"},
	}
}

func insightSchema() *gollem.Parameter {
	return &gollem.Parameter{
		Title:       "ClinicalInsightResponse",
		Description: "Clinical insights about the patient's trajectory",
		Type:        gollem.TypeObject,
		Properties: map[string]*gollem.Parameter{
			"insights": {
				Type:        gollem.TypeArray,
				Description: "List of derived insights",
				Items: &gollem.Parameter{
					Type: gollem.TypeObject,
					Properties: map[string]*gollem.Parameter{
						"insight": {
							Type:        gollem.TypeString,
							Description: "The insight text",
						},
						"evidence": {
							Type:        gollem.TypeString,
							Description: "Supporting evidence from the record",
						},
						"clinical_relevance": {
							Type:        gollem.TypeString,
							Description: "Why the insight matters clinically",
						},
					},
					Required: []string{"insight", "evidence", "clinical_relevance"},
				},
			},
		},
		Required: []string{"insights"},
	}
}
