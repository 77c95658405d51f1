// Package memory provides map-backed store implementations used by tests and
// single-node deployments.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Ibrahimango02/almahir-portal-sub003/internal/models"
)

type SessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*models.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[uuid.UUID]*models.Session)}
}

func (s *SessionStore) Get(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return sess.Clone(), nil
}

func (s *SessionStore) Create(ctx context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess.Clone()
	return nil
}

// Update replaces the stored session wholesale, so a status change and its
// attendance side effect land together or not at all.
func (s *SessionStore) Update(ctx context.Context, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; !ok {
		return models.ErrNotFound
	}
	s.sessions[sess.ID] = sess.Clone()
	return nil
}

func (s *SessionStore) ListByTeacher(ctx context.Context, teacherID uuid.UUID) ([]*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Session
	for _, sess := range s.sessions {
		for _, id := range sess.TeacherIDs {
			if id == teacherID {
				out = append(out, sess.Clone())
				break
			}
		}
	}
	sortSessions(out)
	return out, nil
}

func (s *SessionStore) ListByStudentInRange(ctx context.Context, studentID uuid.UUID, from, to time.Time) ([]*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Session
	for _, sess := range s.sessions {
		if !sess.HasStudent(studentID) {
			continue
		}
		if sess.StartTime.Before(from) || sess.StartTime.After(to) {
			continue
		}
		out = append(out, sess.Clone())
	}
	sortSessions(out)
	return out, nil
}

func sortSessions(sessions []*models.Session) {
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartTime.Before(sessions[j].StartTime)
	})
}
