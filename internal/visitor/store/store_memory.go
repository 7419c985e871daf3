package store

import (
	"context"
	"sync"
	"time"

	eventstore "turnstile/internal/event/store"
	"turnstile/internal/visitor/models"
	"turnstile/pkg/domain"
	"turnstile/pkg/platform/sentinel"
)

// InMemoryStore mirrors the PostgresStore guarantees with a single mutex:
// Register is serialized the way the event row lock serializes it, and the
// transition methods are check-and-set under the same lock.
type InMemoryStore struct {
	mu            sync.Mutex
	events        *eventstore.InMemoryCatalog
	registrations map[domain.RegistrationID]*models.Registration
	visitors      map[domain.VisitorID]*models.Visitor
	scans         []models.ScanRecord
}

func NewInMemory(events *eventstore.InMemoryCatalog) *InMemoryStore {
	return &InMemoryStore{
		events:        events,
		registrations: make(map[domain.RegistrationID]*models.Registration),
		visitors:      make(map[domain.VisitorID]*models.Visitor),
	}
}

func (s *InMemoryStore) Register(ctx context.Context, eventID domain.EventID, fn RegisterFunc) (*models.Visitor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ev, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	count := 0
	for _, v := range s.visitors {
		if v.EventID == eventID {
			count++
		}
	}

	reg, visitor, err := fn(ev, count)
	if err != nil {
		return nil, err
	}

	r := *reg
	r.VisitorID = visitor.ID
	s.registrations[r.ID] = &r
	v := *visitor
	s.visitors[v.ID] = &v

	result := v
	return &result, nil
}

func (s *InMemoryStore) FindVisitor(_ context.Context, id domain.VisitorID) (*models.Visitor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visitorLocked(id)
}

func (s *InMemoryStore) visitorLocked(id domain.VisitorID) (*models.Visitor, error) {
	v, ok := s.visitors[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *v
	return &copied, nil
}

func (s *InMemoryStore) CheckInOnce(_ context.Context, id domain.VisitorID, at time.Time) (*models.Visitor, bool, error) {
	return s.transitionOnce(id, domain.StatusRegistered, func(v *models.Visitor) {
		v.Status = domain.StatusCheckedIn
		t := at
		v.CheckInTime = &t
	})
}

func (s *InMemoryStore) CheckOutOnce(_ context.Context, id domain.VisitorID, at time.Time) (*models.Visitor, bool, error) {
	return s.transitionOnce(id, domain.StatusCheckedIn, func(v *models.Visitor) {
		v.Status = domain.StatusCheckedOut
		t := at
		v.CheckOutTime = &t
	})
}

func (s *InMemoryStore) CancelOnce(_ context.Context, id domain.VisitorID) (*models.Visitor, bool, error) {
	return s.transitionOnce(id, domain.StatusRegistered, func(v *models.Visitor) {
		v.Status = domain.StatusCancelled
	})
}

func (s *InMemoryStore) transitionOnce(id domain.VisitorID, from domain.VisitorStatus, apply func(*models.Visitor)) (*models.Visitor, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.visitors[id]
	if !ok {
		return nil, false, sentinel.ErrNotFound
	}
	if v.Status != from {
		copied := *v
		return &copied, false, nil
	}
	apply(v)
	copied := *v
	return &copied, true, nil
}

func (s *InMemoryStore) AppendScan(_ context.Context, rec models.ScanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scans = append(s.scans, rec)
	return nil
}

func (s *InMemoryStore) ListScans(_ context.Context, visitorID domain.VisitorID) ([]models.ScanRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var records []models.ScanRecord
	for _, rec := range s.scans {
		if rec.VisitorID == visitorID {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (s *InMemoryStore) CountVisitors(_ context.Context, eventID domain.EventID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, v := range s.visitors {
		if v.EventID == eventID {
			count++
		}
	}
	return count, nil
}
