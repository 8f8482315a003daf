package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/clinrec-lab/longview/pkg/domain/model"
	"github.com/clinrec-lab/longview/pkg/service/timeline"
	"github.com/clinrec-lab/longview/pkg/utils/logging"
)

// Result holds the clinical facts extracted from a single source
// document
type Result struct {
	Document       model.DocumentMetadata
	Patient        *model.PatientDemographics
	Conditions     []model.Condition
	Devices        []model.ImplantedDevice
	Allergies      []model.Allergy
	TimelineEvents []model.TimelineEvent
	CareTeam       []model.CareTeamMember
}

// Ingestor extracts clinical facts from one source document format
type Ingestor interface {
	// Format identifies the wire format this ingestor handles
	Format() model.DocumentFormat

	// CanIngest reports whether the file at path looks like a document of
	// this format. It must not return an error for unreadable or
	// malformed files; those are simply not ingestable.
	CanIngest(path string) bool

	// Ingest reads and extracts the document at path
	Ingest(ctx context.Context, path string) (*Result, error)
}

// Pipeline scans directories, routes each file to the ingestor claiming
// it, and folds the per-document results into one delta.
type Pipeline struct {
	ingestors []Ingestor
}

// PipelineOption configures a Pipeline
type PipelineOption func(*Pipeline)

// WithIngestors replaces the default ingestor set
func WithIngestors(ingestors ...Ingestor) PipelineOption {
	return func(p *Pipeline) {
		p.ingestors = ingestors
	}
}

// NewPipeline creates a pipeline with the standard ingestor set
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		ingestors: []Ingestor{NewFHIR(), NewCCDA()},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Scan walks the input directory and returns the paths of all
// ingestable documents in lexical order. Files no ingestor claims are
// skipped with a warning.
func (p *Pipeline) Scan(ctx context.Context, dir string) ([]string, error) {
	logger := logging.From(ctx)

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if p.ingestorFor(path) == nil {
			logger.Warn("Skipping unrecognized file", "path", path)
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to scan input directory", goerr.V("dir", dir))
	}

	sort.Strings(paths)
	return paths, nil
}

// IngestAll ingests every given document and returns the per-document
// results in input order. A document that fails to parse aborts the
// whole batch; partial batches would silently skew the merge.
func (p *Pipeline) IngestAll(ctx context.Context, paths []string) ([]*Result, error) {
	logger := logging.From(ctx)

	results := make([]*Result, 0, len(paths))
	for _, path := range paths {
		ingestor := p.ingestorFor(path)
		if ingestor == nil {
			return nil, goerr.New("no ingestor for file", goerr.V("path", path))
		}

		result, err := ingestor.Ingest(ctx, path)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to ingest document", goerr.V("path", path))
		}

		logger.Info("Ingested document",
			"path", path,
			"format", result.Document.Format,
			"events", len(result.TimelineEvents),
			"conditions", len(result.Conditions),
		)
		results = append(results, result)
	}
	return results, nil
}

// BuildDelta folds per-document results into a single merge delta. The
// first document that identifies the patient wins; timeline events are
// deduplicated across documents before they ever reach the merge engine.
func (p *Pipeline) BuildDelta(ctx context.Context, results []*Result) *model.Delta {
	delta := &model.Delta{SourceFilesCount: len(results)}

	builder := timeline.New()
	for _, r := range results {
		if delta.Patient == nil && r.Patient != nil {
			delta.Patient = r.Patient
		}
		delta.Conditions = append(delta.Conditions, r.Conditions...)
		delta.Devices = append(delta.Devices, r.Devices...)
		delta.Allergies = append(delta.Allergies, r.Allergies...)
		delta.CareTeam = append(delta.CareTeam, r.CareTeam...)
		builder.AddAll(r.TimelineEvents)
	}
	delta.TimelineEvents = builder.Deduplicate(timeline.DefaultDedupBucket)

	return delta
}

func (p *Pipeline) ingestorFor(path string) Ingestor {
	for _, ingestor := range p.ingestors {
		if ingestor.CanIngest(path) {
			return ingestor
		}
	}
	return nil
}

func newDocumentMetadata(path string, format model.DocumentFormat, size int64) model.DocumentMetadata {
	return model.DocumentMetadata{
		ID:         model.NewDocumentID(),
		FileName:   filepath.Base(path),
		Format:     format,
		IngestedAt: time.Now(),
		SizeBytes:  size,
	}
}
