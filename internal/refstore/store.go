// Package refstore stores uploaded reference-voice samples on disk and
// tracks which one synthesis should currently condition on.
package refstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/voiceclone-service/internal/core"
	"github.com/google/uuid"
)

// File and directory permissions.
const (
	filePermissions = 0o600
	dirPermissions  = 0o750
)

var (
	// ErrEmptyName indicates an upload without a file name.
	ErrEmptyName = errors.New("reference name cannot be empty")
	// ErrEmptyData indicates an upload without audio bytes.
	ErrEmptyData = errors.New("reference data cannot be empty")
)

// Store keeps every uploaded reference under a prompts directory. The most
// recent upload is the current reference, mirroring the single process-wide
// reference the synthesis contract specifies.
type Store struct {
	dir     string
	log     *logger.Logger
	mu      sync.RWMutex
	current *core.Reference
	refs    []core.Reference
}

// New creates a reference store rooted at dir, creating it if needed.
func New(dir string, log *logger.Logger) (*Store, error) {
	err := os.MkdirAll(dir, dirPermissions)
	if err != nil {
		return nil, fmt.Errorf("failed to create prompts directory '%s': %w", dir, err)
	}

	return &Store{
		dir: dir,
		log: log,
	}, nil
}

// Save writes an uploaded sample to the prompts directory and makes it the
// current reference. The stored file name is prefixed with a UUID so repeated
// uploads of the same file never clobber each other.
func (s *Store) Save(name string, data []byte) (core.Reference, error) {
	if name == "" {
		return core.Reference{}, ErrEmptyName
	}

	if len(data) == 0 {
		return core.Reference{}, ErrEmptyData
	}

	id := uuid.NewString()
	path := filepath.Join(s.dir, id+"_"+sanitizeName(name))

	err := os.WriteFile(path, data, filePermissions)
	if err != nil {
		return core.Reference{}, fmt.Errorf("failed to write reference file: %w", err)
	}

	ref := core.Reference{
		ID:         id,
		Name:       name,
		Path:       path,
		UploadedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.refs = append(s.refs, ref)
	s.current = &ref
	s.mu.Unlock()

	s.log.Info("Reference audio updated to: %s", path)

	return ref, nil
}

// Current returns the reference synthesis should condition on, if any.
func (s *Store) Current() (core.Reference, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return core.Reference{}, false
	}

	return *s.current, true
}

// List returns all stored references in upload order.
func (s *Store) List() []core.Reference {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Reference, len(s.refs))
	copy(out, s.refs)

	return out
}

// sanitizeName strips path separators and other surprises from an uploaded
// file name before it becomes part of an on-disk path.
func sanitizeName(name string) string {
	base := filepath.Base(name)

	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, base)
}
