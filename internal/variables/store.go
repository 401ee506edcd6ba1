package variables

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Store is an in-memory variable store keyed by variable id, with
// per-workflow normalized-name lookup. Safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	byID map[string]*Variable

	// names maps workflow id to normalized name to variable id.
	names map[string]map[string]string
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		byID:  make(map[string]*Variable),
		names: make(map[string]map[string]string),
	}
}

// Add writes a variable to the store and returns the stored copy.
//
// The write always succeeds: a non-nil *InvalidVariableValueError result is
// advisory and the caller may log or surface it without treating the write
// as failed. On write the deprecated "string" type is migrated to "plain",
// a missing id is generated, and the name is uniquified within its workflow
// ("name", "name (1)", …) using case/space-insensitive comparison.
func (s *Store) Add(v Variable) (*Variable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v.Type == TypeString || v.Type == "" {
		v.Type = TypePlain
	}
	if v.ID == "" {
		v.ID = uuid.NewString()
	}

	wfNames, ok := s.names[v.WorkflowID]
	if !ok {
		wfNames = make(map[string]string)
		s.names[v.WorkflowID] = wfNames
	}
	v.Name = uniquify(v.Name, wfNames)

	stored := v
	s.byID[stored.ID] = &stored
	wfNames[NormalizeName(stored.Name)] = stored.ID

	return &stored, validate(&stored)
}

// uniquify appends " (n)" until the normalized name is unused.
func uniquify(name string, taken map[string]string) string {
	candidate := name
	for n := 1; ; n++ {
		if _, exists := taken[NormalizeName(candidate)]; !exists {
			return candidate
		}
		candidate = fmt.Sprintf("%s (%d)", name, n)
	}
}

// ByID returns the variable with the given id.
func (s *Store) ByID(id string) (*Variable, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.byID[id]
	return v, ok
}

// Lookup finds a workflow's variable by name, matching case/space
// insensitively.
func (s *Store) Lookup(workflowID, name string) (*Variable, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wfNames, ok := s.names[workflowID]
	if !ok {
		return nil, false
	}
	id, ok := wfNames[NormalizeName(name)]
	if !ok {
		return nil, false
	}
	v, ok := s.byID[id]
	return v, ok
}

// ForWorkflow returns all variables of a workflow.
func (s *Store) ForWorkflow(workflowID string) []*Variable {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Variable
	for _, id := range s.names[workflowID] {
		if v, ok := s.byID[id]; ok {
			out = append(out, v)
		}
	}
	return out
}
