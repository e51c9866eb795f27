package registry

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/md-rashed-zaman/slotbook/services/booking-service/internal/model"
)

// ErrUnknownResource is returned by WeeklyTemplate for ids the registry
// has never seen. Callers that probe with Exists first will not hit it.
var ErrUnknownResource = errors.New("unknown resource")

// Provider resolves resource ids and their weekly availability templates.
// The engine consults it on every create and slot query; implementations
// are expected to answer quickly and may cache.
type Provider interface {
	Exists(ctx context.Context, resourceID string) (bool, error)
	WeeklyTemplate(ctx context.Context, resourceID string) (model.WeeklyTemplate, error)
}

// Static serves templates from a fixed in-memory set. It backs tests and
// single-binary deployments that run without a registry service.
type Static struct {
	mu        sync.RWMutex
	templates map[string]model.WeeklyTemplate
}

func NewStatic() *Static {
	return &Static{templates: make(map[string]model.WeeklyTemplate)}
}

// Add registers or replaces a resource's template.
func (s *Static) Add(resourceID string, tpl model.WeeklyTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[resourceID] = tpl
}

func (s *Static) Exists(_ context.Context, resourceID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.templates[resourceID]
	return ok, nil
}

func (s *Static) WeeklyTemplate(_ context.Context, resourceID string) (model.WeeklyTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tpl, ok := s.templates[resourceID]
	if !ok {
		return model.WeeklyTemplate{}, ErrUnknownResource
	}
	return tpl, nil
}

// ResourceIDs lists the registered ids in lexical order.
func (s *Static) ResourceIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.templates))
	for id := range s.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
