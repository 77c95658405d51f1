package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Ibrahimango02/almahir-portal-sub003/internal/models"
)

type UnavailabilityStore struct {
	mu      sync.RWMutex
	windows map[uuid.UUID]*models.UnavailabilityWindow
}

func NewUnavailabilityStore() *UnavailabilityStore {
	return &UnavailabilityStore{windows: make(map[uuid.UUID]*models.UnavailabilityWindow)}
}

func (s *UnavailabilityStore) Create(ctx context.Context, w *models.UnavailabilityWindow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *w
	s.windows[w.ID] = &cp
	return nil
}

func (s *UnavailabilityStore) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*models.UnavailabilityWindow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.UnavailabilityWindow
	for _, w := range s.windows {
		if w.TeacherID == teacherID {
			cp := *w
			out = append(out, &cp)
		}
	}
	return out, nil
}
