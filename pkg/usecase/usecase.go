package usecase

import (
	"time"

	"github.com/clinrec-lab/longview/pkg/domain/interfaces"
	"github.com/clinrec-lab/longview/pkg/service/analysis"
	"github.com/clinrec-lab/longview/pkg/service/ingest"
	"github.com/clinrec-lab/longview/pkg/service/merge"
)

type UseCases struct {
	store    interfaces.KBStore
	pipeline *ingest.Pipeline
	merger   *merge.Merger
	analyzer analysis.Service
	now      func() time.Time
}

type Option func(*UseCases)

// WithAnalysis enables LLM re-analysis during builds. Without it builds
// run ingest and merge only.
func WithAnalysis(svc analysis.Service) Option {
	return func(uc *UseCases) {
		uc.analyzer = svc
	}
}

// WithPipeline overrides the default ingest pipeline
func WithPipeline(p *ingest.Pipeline) Option {
	return func(uc *UseCases) {
		uc.pipeline = p
	}
}

// WithMerger overrides the default merge engine
func WithMerger(m *merge.Merger) Option {
	return func(uc *UseCases) {
		uc.merger = m
	}
}

// WithNow overrides the clock, mainly for tests
func WithNow(now func() time.Time) Option {
	return func(uc *UseCases) {
		uc.now = now
	}
}

func New(store interfaces.KBStore, opts ...Option) *UseCases {
	uc := &UseCases{
		store:    store,
		pipeline: ingest.NewPipeline(),
		merger:   merge.New(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}
