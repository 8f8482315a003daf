package kbfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/clinrec-lab/longview/pkg/domain/model"
	"github.com/clinrec-lab/longview/pkg/utils/logging"
)

// Store persists the knowledge base as a single pretty-printed JSON file
// with timestamped backups of every prior version in a history directory.
type Store struct {
	path       string
	historyDir string
	now        func() time.Time
}

// Option configures a Store
type Option func(*Store)

// WithHistoryDir overrides the backup directory, which defaults to a
// history directory next to the knowledge base file
func WithHistoryDir(dir string) Option {
	return func(s *Store) {
		s.historyDir = dir
	}
}

// WithNow overrides the clock used for backup timestamps
func WithNow(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a file-backed knowledge base store at path
func New(path string, opts ...Option) *Store {
	s := &Store{
		path:       path,
		historyDir: filepath.Join(filepath.Dir(path), "history"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads and validates the knowledge base file. A missing file
// returns (nil, nil); a malformed or invalid file is a hard error.
func (s *Store) Load(ctx context.Context) (*model.KnowledgeBase, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.From(ctx).Info("No existing knowledge base found", "path", s.path)
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to read knowledge base", goerr.V("path", s.path))
	}

	var kb model.KnowledgeBase
	if err := json.Unmarshal(data, &kb); err != nil {
		return nil, goerr.Wrap(err, "failed to parse knowledge base", goerr.V("path", s.path))
	}
	if err := kb.Validate(); err != nil {
		return nil, goerr.Wrap(err, "knowledge base validation failed", goerr.V("path", s.path))
	}

	logging.From(ctx).Info("Loaded knowledge base",
		"path", s.path,
		"version", kb.Metadata.Version,
		"events", len(kb.Timeline),
	)
	return &kb, nil
}

// Save backs up any existing file to the history directory, then writes
// the new version atomically via a temporary file and rename
func (s *Store) Save(ctx context.Context, kb *model.KnowledgeBase) error {
	if kb == nil {
		return goerr.New("knowledge base is required")
	}

	if err := s.backupExisting(ctx); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0750); err != nil {
		return goerr.Wrap(err, "failed to create output directory", goerr.V("path", s.path))
	}

	data, err := json.MarshalIndent(kb, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to encode knowledge base")
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".kb-*.json")
	if err != nil {
		return goerr.Wrap(err, "failed to create temporary file", goerr.V("path", s.path))
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return goerr.Wrap(err, "failed to write knowledge base", goerr.V("path", tmpName))
	}
	if err := tmp.Close(); err != nil {
		return goerr.Wrap(err, "failed to close temporary file", goerr.V("path", tmpName))
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return goerr.Wrap(err, "failed to replace knowledge base file", goerr.V("path", s.path))
	}

	logging.From(ctx).Info("Saved knowledge base",
		"path", s.path,
		"version", kb.Metadata.Version,
		"bytes", len(data),
	)
	return nil
}

// backupExisting copies the current file, if any, into the history
// directory as kb_v{version}_{timestamp}.json
func (s *Store) backupExisting(ctx context.Context) error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return goerr.Wrap(err, "failed to read knowledge base for backup", goerr.V("path", s.path))
	}

	version := "unknown"
	var header struct {
		Metadata struct {
			Version string `json:"version"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(data, &header); err == nil && header.Metadata.Version != "" {
		version = header.Metadata.Version
	}

	if err := os.MkdirAll(s.historyDir, 0750); err != nil {
		return goerr.Wrap(err, "failed to create history directory", goerr.V("dir", s.historyDir))
	}

	name := fmt.Sprintf("kb_v%s_%s.json", version, s.now().Format("20060102_150405"))
	backupPath := filepath.Join(s.historyDir, name)
	if err := os.WriteFile(backupPath, data, 0600); err != nil {
		return goerr.Wrap(err, "failed to write backup", goerr.V("path", backupPath))
	}

	logging.From(ctx).Info("Backed up knowledge base", "path", backupPath)
	return nil
}
