package analysis

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"golang.org/x/sync/errgroup"

	"github.com/clinrec-lab/longview/pkg/domain/model"
	"github.com/clinrec-lab/longview/pkg/domain/types"
	"github.com/clinrec-lab/longview/pkg/utils/logging"
)

// client implements Service interface
type client struct {
	llmClient gollem.LLMClient
}

// Option is a functional option for client configuration
type Option func(*client)

// New creates a new analysis service with the provided LLM client
func New(llmClient gollem.LLMClient, opts ...Option) (Service, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	c := &client{
		llmClient: llmClient,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Analyze runs all analysis stages over the knowledge base. The stages
// run concurrently and each failed stage degrades to empty findings, so
// Analyze only fails on invalid input.
func (c *client) Analyze(ctx context.Context, input Input) (*Report, error) {
	if input.KB == nil {
		return nil, goerr.New("knowledge base is required")
	}

	kbContext := renderContext(input.KB, input.NewDocuments)

	report := &Report{}
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		report.Patterns = c.analyzePatterns(ctx, kbContext)
		return nil
	})
	eg.Go(func() error {
		report.SymptomFindings = c.analyzeSymptomProgression(ctx, input, kbContext)
		return nil
	})
	eg.Go(func() error {
		report.ActionItems = c.extractActionItems(ctx, input, kbContext)
		return nil
	})
	eg.Go(func() error {
		report.UnresolvedQuestions = c.identifyQuestions(ctx, input, kbContext)
		return nil
	})
	eg.Go(func() error {
		report.Insights = c.deriveInsights(ctx, kbContext)
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, goerr.Wrap(err, "analysis aborted")
	}

	return report, nil
}

// generate runs one structured-output LLM call and parses the JSON
// response into out
func (c *client) generate(ctx context.Context, stage, systemPrompt, userPrompt string, schema *gollem.Parameter, out any) error {
	session, err := c.llmClient.NewSession(ctx,
		gollem.WithSessionContentType(gollem.ContentTypeJSON),
		gollem.WithSessionResponseSchema(schema),
		gollem.WithSessionSystemPrompt(systemPrompt),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to create LLM session", goerr.V("stage", stage))
	}

	resp, err := session.GenerateContent(ctx, gollem.Text(userPrompt))
	if err != nil {
		return goerr.Wrap(err, "failed to generate content from LLM", goerr.V("stage", stage))
	}
	if len(resp.Texts) == 0 {
		return goerr.New("empty LLM response", goerr.V("stage", stage))
	}

	if err := json.Unmarshal([]byte(resp.Texts[0]), out); err != nil {
		return goerr.Wrap(err, "failed to parse LLM response",
			goerr.V("stage", stage), goerr.V("response", resp.Texts[0]))
	}

	return nil
}

func (c *client) analyzePatterns(ctx context.Context, kbContext string) []Pattern {
	var resp struct {
		Patterns []Pattern `json:"patterns"`
	}
	if err := c.generate(ctx, "patterns", patternSystemPrompt,
		kbContext+"\n\n"+patternUserPrompt, patternSchema(), &resp); err != nil {
		logging.From(ctx).Warn("pattern analysis failed", "error", err)
		return nil
	}
	return resp.Patterns
}

func (c *client) analyzeSymptomProgression(ctx context.Context, input Input, kbContext string) SymptomFindings {
	var resp llmSymptomFindings
	userPrompt := kbContext + "\n\n## Tracked Symptoms\n" +
		renderSymptomSummary(input.KB) + "\n" + symptomUserPrompt
	if err := c.generate(ctx, "symptom_progression", symptomSystemPrompt,
		userPrompt, symptomSchema(), &resp); err != nil {
		logging.From(ctx).Warn("symptom progression analysis failed", "error", err)
		return SymptomFindings{}
	}

	findings := SymptomFindings{Updates: resp.SymptomUpdates}
	for _, s := range resp.NewSymptoms {
		symptom := model.Symptom{
			Symptom: s.Symptom,
			Status:  types.SymptomStatusActive,
		}
		if status, err := types.ParseSymptomStatus(s.Status); err == nil {
			symptom.Status = status
		}
		if date, err := types.ParseDate(s.FirstReported); err == nil {
			symptom.FirstReported = date
			symptom.LastReported = date
		} else {
			symptom.FirstReported = types.DateOf(input.Now)
			symptom.LastReported = types.DateOf(input.Now)
		}
		findings.NewSymptoms = append(findings.NewSymptoms, symptom)
	}
	return findings
}

func (c *client) extractActionItems(ctx context.Context, input Input, kbContext string) []model.ActionItem {
	var resp struct {
		ActionItems []llmActionItem `json:"action_items"`
	}
	if err := c.generate(ctx, "action_items", actionSystemPrompt,
		kbContext+"\n\n"+actionUserPrompt, actionSchema(), &resp); err != nil {
		logging.From(ctx).Warn("action item extraction failed", "error", err)
		return nil
	}

	items := make([]model.ActionItem, 0, len(resp.ActionItems))
	for _, raw := range resp.ActionItems {
		if raw.Item == "" {
			continue
		}
		item := model.ActionItem{
			Item:       raw.Item,
			Priority:   types.PriorityMedium,
			Category:   types.CategoryOther,
			Source:     raw.Source,
			SourceDate: types.DateOf(input.Now),
			Status:     types.ActionStatusPending,
			Notes:      raw.Notes,
		}
		if priority, err := types.ParseActionPriority(raw.Priority); err == nil {
			item.Priority = priority
		}
		if category, err := types.ParseActionCategory(raw.Category); err == nil {
			item.Category = category
		}
		if raw.DueDate != "" {
			if due, err := types.ParseDate(raw.DueDate); err == nil {
				item.DueDate = due
			}
		}
		items = append(items, item)
	}
	return items
}

func (c *client) identifyQuestions(ctx context.Context, input Input, kbContext string) []model.UnresolvedQuestion {
	var resp struct {
		Questions []llmQuestion `json:"questions"`
	}
	if err := c.generate(ctx, "unresolved_questions", questionSystemPrompt,
		kbContext+"\n\n"+questionUserPrompt, questionSchema(), &resp); err != nil {
		logging.From(ctx).Warn("question identification failed", "error", err)
		return nil
	}

	questions := make([]model.UnresolvedQuestion, 0, len(resp.Questions))
	for _, raw := range resp.Questions {
		if raw.Question == "" {
			continue
		}
		question := model.UnresolvedQuestion{
			Question:                  raw.Question,
			Context:                   raw.Context,
			IdentifiedDate:            types.DateOf(input.Now),
			RequiresClarificationFrom: raw.RequiresClarificationFrom,
			Priority:                  types.PriorityMedium,
		}
		if priority, err := types.ParseActionPriority(raw.Priority); err == nil {
			question.Priority = priority
		}
		questions = append(questions, question)
	}
	return questions
}

func (c *client) deriveInsights(ctx context.Context, kbContext string) []Insight {
	var resp struct {
		Insights []Insight `json:"insights"`
	}
	if err := c.generate(ctx, "insights", insightSystemPrompt,
		kbContext+"\n\n"+insightUserPrompt, insightSchema(), &resp); err != nil {
		logging.From(ctx).Warn("insight derivation failed", "error", err)
		return nil
	}
	return resp.Insights
}
