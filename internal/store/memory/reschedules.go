package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Ibrahimango02/almahir-portal-sub003/internal/models"
)

type RescheduleStore struct {
	mu       sync.RWMutex
	requests map[uuid.UUID]*models.RescheduleRequest
}

func NewRescheduleStore() *RescheduleStore {
	return &RescheduleStore{requests: make(map[uuid.UUID]*models.RescheduleRequest)}
}

func (s *RescheduleStore) Create(ctx context.Context, r *models.RescheduleRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.requests[r.ID] = &cp
	return nil
}

func (s *RescheduleStore) Get(ctx context.Context, id uuid.UUID) (*models.RescheduleRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *RescheduleStore) Update(ctx context.Context, r *models.RescheduleRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[r.ID]; !ok {
		return models.ErrNotFound
	}
	cp := *r
	s.requests[r.ID] = &cp
	return nil
}

func (s *RescheduleStore) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*models.RescheduleRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.RescheduleRequest
	for _, r := range s.requests {
		if r.SessionID == sessionID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
