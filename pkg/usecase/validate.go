package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/clinrec-lab/longview/pkg/domain/model"
)

// Validate loads the persisted knowledge base and checks its structural
// well-formedness. The store already rejects schema violations on load,
// so a successful load is a passing validation.
func (uc *UseCases) Validate(ctx context.Context) (*model.KnowledgeBase, error) {
	kb, err := uc.store.Load(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "validation failed")
	}
	if kb == nil {
		return nil, goerr.New("no knowledge base found")
	}
	return kb, nil
}
