package store

import (
	"context"
	"sort"
	"sync"

	"kycgate/internal/kyc/models"
	"kycgate/pkg/domain"
)

// InMemoryStore keeps verifications in process. Records are copied on the
// way in and out so callers never share them.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[domain.VerificationID]*models.Verification
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[domain.VerificationID]*models.Verification)}
}

func (s *InMemoryStore) Create(_ context.Context, v *models.Verification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[v.ID]; exists {
		return ErrConflict
	}
	s.records[v.ID] = clone(v)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id domain.VerificationID) (*models.Verification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(v), nil
}

func (s *InMemoryStore) List(_ context.Context, q models.ListQuery) (models.ListResult, error) {
	s.mu.RLock()
	matched := make([]*models.Verification, 0, len(s.records))
	for _, v := range s.records {
		if matches(v, q.Filter) {
			matched = append(matched, v)
		}
	}
	s.mu.RUnlock()

	sortNewestFirst(matched)

	res := models.ListResult{Total: len(matched), Limit: q.Limit, Offset: q.Offset, Items: []*models.Verification{}}
	if q.Offset >= len(matched) {
		return res, nil
	}
	end := min(q.Offset+q.Limit, len(matched))
	for _, v := range matched[q.Offset:end] {
		res.Items = append(res.Items, clone(v))
	}
	return res, nil
}

// LatestStatus returns the status of the newest verification for an account.
func (s *InMemoryStore) LatestStatus(_ context.Context, accountID string, network domain.Network) (domain.VerificationStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest *models.Verification
	for _, v := range s.records {
		if v.AccountID != accountID || v.Network != network {
			continue
		}
		if latest == nil || newer(v, latest) {
			latest = v
		}
	}
	if latest == nil {
		return "", ErrNotFound
	}
	return latest.Status, nil
}

func matches(v *models.Verification, f models.Filter) bool {
	if f.AccountID != "" && v.AccountID != f.AccountID {
		return false
	}
	if f.Status != "" && v.Status != f.Status {
		return false
	}
	if f.Type != "" && v.Type != f.Type {
		return false
	}
	if f.Network != "" && v.Network != f.Network {
		return false
	}
	return true
}

func newer(a, b *models.Verification) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

func sortNewestFirst(items []*models.Verification) {
	sort.Slice(items, func(i, j int) bool { return newer(items[i], items[j]) })
}
