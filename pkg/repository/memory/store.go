package memory

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/clinrec-lab/longview/pkg/domain/model"
)

// Store is an in-memory knowledge base store for tests and ephemeral
// runs. Saved versions are retained in order, mimicking the file store's
// backup history.
type Store struct {
	mu      sync.RWMutex
	current *model.KnowledgeBase
	history []*model.KnowledgeBase
}

// New creates an empty in-memory store
func New() *Store {
	return &Store{}
}

// Load returns a deep copy of the stored knowledge base, or (nil, nil)
// when nothing has been saved
func (s *Store) Load(ctx context.Context) (*model.KnowledgeBase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil, nil
	}
	return s.current.Clone(), nil
}

// Save stores a deep copy of the knowledge base and pushes the prior
// version onto the history
func (s *Store) Save(ctx context.Context, kb *model.KnowledgeBase) error {
	if kb == nil {
		return goerr.New("knowledge base is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		s.history = append(s.history, s.current)
	}
	s.current = kb.Clone()
	return nil
}

// History returns the retained prior versions, oldest first
func (s *Store) History() []*model.KnowledgeBase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*model.KnowledgeBase(nil), s.history...)
}
