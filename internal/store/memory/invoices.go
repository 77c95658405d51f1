package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Ibrahimango02/almahir-portal-sub003/internal/models"
)

type InvoiceStore struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]*models.Invoice
	lastSeq  int
}

func NewInvoiceStore() *InvoiceStore {
	return &InvoiceStore{invoices: make(map[uuid.UUID]*models.Invoice)}
}

// NextNumber hands out sequence values under the store mutex, so two invoices
// can never race for the same number.
func (s *InvoiceStore) NextNumber(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeq++
	return s.lastSeq, nil
}

func (s *InvoiceStore) Insert(ctx context.Context, inv *models.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *inv
	s.invoices[inv.ID] = &cp
	return nil
}

func (s *InvoiceStore) Get(ctx context.Context, id uuid.UUID) (*models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (s *InvoiceStore) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*models.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Invoice
	for _, inv := range s.invoices {
		if inv.StudentID == studentID {
			cp := *inv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

// UpdateStatus is the only mutation an issued invoice allows.
func (s *InvoiceStore) UpdateStatus(ctx context.Context, id uuid.UUID, status models.InvoiceStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok {
		return models.ErrNotFound
	}
	inv.Status = status
	return nil
}
