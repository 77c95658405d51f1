package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Ibrahimango02/almahir-portal-sub003/internal/models"
)

type SubscriptionStore struct {
	mu            sync.RWMutex
	plans         map[uuid.UUID]*models.SubscriptionPlan
	subscriptions map[uuid.UUID]*models.StudentSubscription
}

func NewSubscriptionStore() *SubscriptionStore {
	return &SubscriptionStore{
		plans:         make(map[uuid.UUID]*models.SubscriptionPlan),
		subscriptions: make(map[uuid.UUID]*models.StudentSubscription),
	}
}

func (s *SubscriptionStore) GetPlan(ctx context.Context, id uuid.UUID) (*models.SubscriptionPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.plans[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *SubscriptionStore) CreatePlan(ctx context.Context, p *models.SubscriptionPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.plans[p.ID] = &cp
	return nil
}

func (s *SubscriptionStore) GetSubscription(ctx context.Context, id uuid.UUID) (*models.StudentSubscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subscriptions[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

// CreateSubscription enforces at most one active subscription per student.
func (s *SubscriptionStore) CreateSubscription(ctx context.Context, sub *models.StudentSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sub.Status == models.SubscriptionActive {
		for _, existing := range s.subscriptions {
			if existing.StudentID == sub.StudentID && existing.Status == models.SubscriptionActive {
				return models.ErrActiveSubscriptionExists
			}
		}
	}
	cp := *sub
	s.subscriptions[sub.ID] = &cp
	return nil
}

func (s *SubscriptionStore) UpdateSubscription(ctx context.Context, sub *models.StudentSubscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subscriptions[sub.ID]; !ok {
		return models.ErrNotFound
	}
	cp := *sub
	s.subscriptions[sub.ID] = &cp
	return nil
}

func (s *SubscriptionStore) ActiveByStudent(ctx context.Context, studentID uuid.UUID) (*models.StudentSubscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subscriptions {
		if sub.StudentID == studentID && sub.Status == models.SubscriptionActive {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}
