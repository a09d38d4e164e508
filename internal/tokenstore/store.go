package tokenstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// PersistenceError indicates a filesystem or decode failure while saving
// or loading the credential bundle. A missing file is not a
// PersistenceError; Load reports that as absent.
type PersistenceError struct {
	Op   string // "save" or "load"
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s credentials at %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Store persists the credential bundle to a single JSON file.
type Store struct {
	path string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Save writes the bundle, creating the containing directory if absent.
// Any prior file is overwritten.
func (s *Store) Save(b *Bundle) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return &PersistenceError{Op: "save", Path: s.path, Err: err}
	}

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return &PersistenceError{Op: "save", Path: s.path, Err: err}
	}

	// Tokens only; keep the file private to the user.
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return &PersistenceError{Op: "save", Path: s.path, Err: err}
	}

	log.Debug().Str("path", s.path).Msg("saved credential bundle")
	return nil
}

// Load reads the persisted bundle. A missing file returns (nil, nil):
// absent is a normal first-run state, not an error. A file that exists
// but cannot be parsed is a PersistenceError.
func (s *Store) Load() (*Bundle, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "load", Path: s.path, Err: err}
	}

	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, &PersistenceError{Op: "load", Path: s.path, Err: err}
	}

	log.Debug().Str("path", s.path).Msg("loaded credential bundle")
	return &b, nil
}
