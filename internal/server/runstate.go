package server

import (
	"os"
	"strings"

	"github.com/basalt-ssg/basalt/internal/errors"
)

// Run-state file tokens. The file holds exactly one of these, newline
// terminated.
const (
	TokenDrafts   = "drafts"
	TokenNoDrafts = "no-drafts"
)

// RunState is the persisted dev server state shared with out-of-band CLI
// invocations. While a server runs, exactly one run-state file exists at the
// project's well-known path; a leftover file from a crash is simply
// overwritten on the next start.
type RunState struct {
	Path          string
	DraftsEnabled bool
}

// WriteRunState writes the run-state file, overwriting any existing one.
func WriteRunState(path string, draftsEnabled bool) (*RunState, error) {
	s := &RunState{Path: path, DraftsEnabled: draftsEnabled}
	if err := s.Persist(); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadRunState reads the run-state file. A missing file is not an error and
// yields a nil state; any other read failure is an I/O error.
func LoadRunState(path string) (*RunState, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.IO("could not read run-state file", err).WithPath(path)
	}

	var drafts bool
	switch strings.TrimSpace(string(raw)) {
	case TokenDrafts:
		drafts = true
	case TokenNoDrafts:
		drafts = false
	default:
		return nil, errors.Resource("unrecognized run-state content", nil).WithPath(path)
	}

	return &RunState{Path: path, DraftsEnabled: drafts}, nil
}

// Toggle sets drafts to the given value, or flips the current value when
// newValue is nil. In-memory only; call Persist to write it out.
func (s *RunState) Toggle(newValue *bool) {
	if newValue != nil {
		s.DraftsEnabled = *newValue
		return
	}
	s.DraftsEnabled = !s.DraftsEnabled
}

// Persist writes the current state to the file.
func (s *RunState) Persist() error {
	token := TokenNoDrafts
	if s.DraftsEnabled {
		token = TokenDrafts
	}
	if err := os.WriteFile(s.Path, []byte(token+"\n"), 0o644); err != nil {
		return errors.IO("could not write run-state file", err).WithPath(s.Path)
	}
	return nil
}

// Remove deletes the run-state file, treating an already-missing file as
// success.
func (s *RunState) Remove() error {
	if err := os.Remove(s.Path); err != nil && !os.IsNotExist(err) {
		return errors.IO("could not remove run-state file", err).WithPath(s.Path)
	}
	return nil
}
