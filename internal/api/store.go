package api

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type gridRecord struct {
	resource GridResource
	values   []float64
}

// GridStore holds uploaded and synthesized grids in memory, keyed by id.
type GridStore struct {
	mu    sync.Mutex
	grids map[string]*gridRecord
}

func NewGridStore() *GridStore {
	return &GridStore{
		grids: make(map[string]*gridRecord),
	}
}

// Create stores values under a fresh id and returns the resource
// (without the values payload).
func (s *GridStore) Create(name string, values []float64, profile string, refRatio float64, now time.Time) GridResource {
	resource := GridResource{
		ID:        newGridID(),
		Object:    "grid",
		Name:      name,
		Points:    len(values),
		Profile:   profile,
		RefRatio:  refRatio,
		CreatedAt: now.Unix(),
	}

	s.mu.Lock()
	s.grids[resource.ID] = &gridRecord{
		resource: resource,
		values:   values,
	}
	s.mu.Unlock()

	return resource
}

// Get returns the resource and its values.
func (s *GridStore) Get(id string) (GridResource, []float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.grids[id]
	if !ok {
		return GridResource{}, nil, false
	}
	return rec.resource, rec.values, true
}

// List returns every stored resource, oldest first.
func (s *GridStore) List() []GridResource {
	s.mu.Lock()
	out := make([]GridResource, 0, len(s.grids))
	for _, rec := range s.grids {
		out = append(out, rec.resource)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Delete removes the grid; it reports whether the id existed.
func (s *GridStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.grids[id]; !ok {
		return false
	}
	delete(s.grids, id)
	return true
}

func newGridID() string {
	return "grid_" + uuid.NewString()
}
