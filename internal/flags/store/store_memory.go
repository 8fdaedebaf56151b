package store

import (
	"context"
	"sync"

	"kycgate/internal/flags/models"
	"kycgate/pkg/domain"
)

// InMemoryStore keeps flags and their history in process.
type InMemoryStore struct {
	mu     sync.RWMutex
	flags  map[domain.FlagID]*models.Flag
	events map[domain.FlagID][]models.FlagAuditEvent
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		flags:  make(map[domain.FlagID]*models.Flag),
		events: make(map[domain.FlagID][]models.FlagAuditEvent),
	}
}

func (s *InMemoryStore) Create(_ context.Context, f *models.Flag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.flags[f.ID]; exists {
		return ErrConflict
	}
	s.flags[f.ID] = clone(f)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.FlagID) (*models.Flag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.flags[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(f), nil
}

// Execute validates and mutates a flag under the store lock. The stored
// flag is only replaced when validate succeeds.
func (s *InMemoryStore) Execute(_ context.Context, id domain.FlagID, validate func(*models.Flag) error, mutate func(*models.Flag)) (*models.Flag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.flags[id]
	if !ok {
		return nil, ErrNotFound
	}
	working := clone(current)
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	s.flags[id] = working
	return clone(working), nil
}

func (s *InMemoryStore) List(ctx context.Context, q models.ListQuery) (models.ListResult, error) {
	matched, err := s.ListAll(ctx, q.Filter)
	if err != nil {
		return models.ListResult{}, err
	}
	sortFlags(matched, q.SortBy, q.Order)

	res := models.ListResult{Total: len(matched), Limit: q.Limit, Offset: q.Offset, Items: []*models.Flag{}}
	if q.Offset >= len(matched) {
		return res, nil
	}
	res.Items = matched[q.Offset:min(q.Offset+q.Limit, len(matched))]
	return res, nil
}

// ListAll returns every flag matching the filter, unordered.
func (s *InMemoryStore) ListAll(_ context.Context, filter models.Filter) ([]*models.Flag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Flag, 0, len(s.flags))
	for _, f := range s.flags {
		if filter.Matches(f) {
			out = append(out, clone(f))
		}
	}
	return out, nil
}

func (s *InMemoryStore) AppendEvent(_ context.Context, e models.FlagAuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.flags[e.FlagID]; !ok {
		return ErrNotFound
	}
	s.events[e.FlagID] = append(s.events[e.FlagID], e)
	return nil
}

// ListEvents returns a flag's history oldest first.
func (s *InMemoryStore) ListEvents(_ context.Context, flagID domain.FlagID) ([]models.FlagAuditEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.FlagAuditEvent{}, s.events[flagID]...), nil
}
