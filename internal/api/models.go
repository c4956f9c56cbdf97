package api

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vegarringdal/web-ifc/core/errors"
	"github.com/vegarringdal/web-ifc/core/loader"
)

// Model is one loaded IFC file held by the server. The loader's tape
// cursor is shared mutable state, so every operation on it takes the
// model's lock: one request at a time per loader, per the core's
// threading contract.
type Model struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	SHA256    string    `json:"sha256"`
	NumLines  int       `json:"num_lines"`
	Scale     float64   `json:"linear_scaling_factor"`
	CreatedAt time.Time `json:"created_at"`

	mu     sync.Mutex
	loader *loader.Loader
}

// WithLoader runs fn with exclusive access to the model's loader.
func (m *Model) WithLoader(fn func(*loader.Loader) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(m.loader)
}

// ModelStore is the in-memory registry of loaded models.
type ModelStore struct {
	mu     sync.RWMutex
	models map[string]*Model
}

// NewModelStore creates an empty registry.
func NewModelStore() *ModelStore {
	return &ModelStore{models: make(map[string]*Model)}
}

// Add registers a freshly loaded model and assigns it an id.
func (s *ModelStore) Add(name, sha256 string, l *loader.Loader) *Model {
	model := &Model{
		ID:        uuid.New().String(),
		Name:      name,
		SHA256:    sha256,
		NumLines:  l.GetNumLines(),
		Scale:     l.GetLinearScalingFactor(),
		CreatedAt: time.Now().UTC(),
		loader:    l,
	}
	s.mu.Lock()
	s.models[model.ID] = model
	s.mu.Unlock()
	return model
}

// Get returns a model by id.
func (s *ModelStore) Get(id string) (*Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	model, ok := s.models[id]
	if !ok {
		return nil, errors.NewNotFound("model", id)
	}
	return model, nil
}

// List returns all models.
func (s *ModelStore) List() []*Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Model, 0, len(s.models))
	for _, model := range s.models {
		out = append(out, model)
	}
	return out
}

// Remove drops a model from the registry. The loader's tape memory is
// released when the last reference goes away.
func (s *ModelStore) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.models[id]; !ok {
		return errors.NewNotFound("model", id)
	}
	delete(s.models, id)
	return nil
}
