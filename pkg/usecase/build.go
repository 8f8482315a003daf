package usecase

import (
	"context"
	"path/filepath"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/clinrec-lab/longview/pkg/domain/model"
	"github.com/clinrec-lab/longview/pkg/domain/types"
	"github.com/clinrec-lab/longview/pkg/service/analysis"
	"github.com/clinrec-lab/longview/pkg/utils/logging"
)

// BuildResult summarizes one build run
type BuildResult struct {
	Version            string
	PreviousVersion    string
	DocumentsProcessed int
	TimelineEvents     int
	Changelog          string
	AnalysisRan        bool
	Patterns           []analysis.Pattern
	Insights           []analysis.Insight
	Duration           time.Duration
}

// Build scans the input directory, ingests every recognized document,
// merges the extracted facts into the persisted knowledge base, runs
// optional LLM analysis, and saves the result. The prior version is
// backed up by the store before the overwrite.
func (uc *UseCases) Build(ctx context.Context, inputDir string) (*BuildResult, error) {
	logger := logging.From(ctx)
	start := uc.now()

	paths, err := uc.pipeline.Scan(ctx, inputDir)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to scan input directory")
	}
	if len(paths) == 0 {
		logger.Info("No ingestable documents found", "dir", inputDir)
		return &BuildResult{}, nil
	}

	results, err := uc.pipeline.IngestAll(ctx, paths)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to ingest documents")
	}
	delta := uc.pipeline.BuildDelta(ctx, results)

	existing, err := uc.store.Load(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load knowledge base")
	}

	merged, err := uc.merger.Merge(ctx, existing, delta)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to merge delta")
	}

	result := &BuildResult{
		DocumentsProcessed: len(paths),
	}

	if uc.analyzer != nil {
		report := uc.analyze(ctx, merged, paths)
		if report != nil && !report.IsEmpty() {
			foldReport(delta, report)
			// re-merge from the original base so the findings land in the
			// same version step as the documents that triggered them
			merged, err = uc.merger.Merge(ctx, existing, delta)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to merge analysis findings")
			}
		}
		if report != nil {
			result.AnalysisRan = true
			result.Patterns = report.Patterns
			result.Insights = report.Insights
		}
	}

	merged.Metadata.ProcessingDurationSeconds = uc.now().Sub(start).Seconds()

	if err := uc.store.Save(ctx, merged); err != nil {
		return nil, goerr.Wrap(err, "failed to save knowledge base")
	}

	result.Version = merged.Metadata.Version
	result.PreviousVersion = merged.Metadata.PreviousVersion
	result.TimelineEvents = len(merged.Timeline)
	result.Changelog = merged.Metadata.Changelog
	result.Duration = uc.now().Sub(start)

	logger.Info("Knowledge base build complete",
		"version", result.Version,
		"documents", result.DocumentsProcessed,
		"events", result.TimelineEvents,
		"changelog", result.Changelog,
	)
	return result, nil
}

// analyze runs LLM analysis over the provisional merge result. Analysis
// failure never aborts a build.
func (uc *UseCases) analyze(ctx context.Context, kb *model.KnowledgeBase, paths []string) *analysis.Report {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}

	report, err := uc.analyzer.Analyze(ctx, analysis.Input{
		KB:           kb,
		NewDocuments: names,
		Now:          uc.now(),
	})
	if err != nil {
		logging.From(ctx).Warn("Analysis failed, continuing without findings", "error", err)
		return nil
	}
	return report
}

// foldReport appends analysis findings to the delta. Symptom status
// updates become registry upserts carrying only the new status, so the
// merge engine applies them without touching the reported dates.
func foldReport(delta *model.Delta, report *analysis.Report) {
	delta.ActionItems = append(delta.ActionItems, report.ActionItems...)
	delta.UnresolvedQuestions = append(delta.UnresolvedQuestions, report.UnresolvedQuestions...)
	delta.Symptoms = append(delta.Symptoms, report.SymptomFindings.NewSymptoms...)

	for _, update := range report.SymptomFindings.Updates {
		status, err := types.ParseSymptomStatus(update.NewStatus)
		if err != nil {
			continue
		}
		delta.Symptoms = append(delta.Symptoms, model.Symptom{
			Symptom: update.Symptom,
			Status:  status,
			Notes:   update.Reason,
		})
	}
}
