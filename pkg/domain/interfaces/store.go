package interfaces

import (
	"context"

	"github.com/clinrec-lab/longview/pkg/domain/model"
)

// KBStore defines the persistence boundary for the knowledge base. The
// knowledge base is the sole durable artifact; there is no separate
// transaction log.
type KBStore interface {
	// Load returns the persisted knowledge base, or (nil, nil) when no
	// prior knowledge base exists. A schema validation failure is a hard
	// error; there is no partial load.
	Load(ctx context.Context) (*model.KnowledgeBase, error)

	// Save persists the knowledge base, writing a timestamped backup of
	// any prior version before overwriting it.
	Save(ctx context.Context, kb *model.KnowledgeBase) error
}
