package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	eventmodels "turnstile/internal/event/models"
	eventstore "turnstile/internal/event/store"
	"turnstile/internal/visitor/models"
	"turnstile/pkg/domain"
	"turnstile/pkg/platform/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	ctx     context.Context
	catalog *eventstore.InMemoryCatalog
	store   *InMemoryStore
	eventID domain.EventID
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.catalog = eventstore.NewInMemoryCatalog()
	s.store = NewInMemory(s.catalog)

	s.eventID = domain.NewEventID()
	s.catalog.Put(eventmodels.Event{
		ID:        s.eventID,
		Title:     "Go Conference",
		Location:  "Hall B",
		Capacity:  100,
		StartDate: time.Now(),
		EndDate:   time.Now().Add(8 * time.Hour),
	})
}

func (s *InMemoryStoreSuite) register() *models.Visitor {
	v, err := s.store.Register(s.ctx, s.eventID, func(ev *eventmodels.Event, count int) (*models.Registration, *models.Visitor, error) {
		regID := domain.NewRegistrationID()
		visitorID := domain.NewVisitorID()
		now := time.Now()
		return &models.Registration{
				ID:          regID,
				EventID:     ev.ID,
				Status:      models.RegistrationConfirmed,
				SubmittedAt: now,
			}, &models.Visitor{
				ID:             visitorID,
				RegistrationID: regID,
				EventID:        ev.ID,
				Token:          "tk1_test",
				EventTitle:     ev.Title,
				EventLocation:  ev.Location,
				EventStart:     ev.StartDate,
				EventEnd:       ev.EndDate,
				Status:         domain.StatusRegistered,
				CreatedAt:      now,
			}, nil
	})
	s.Require().NoError(err)
	return v
}

func (s *InMemoryStoreSuite) TestRegisterAndFind() {
	v := s.register()

	found, err := s.store.FindVisitor(s.ctx, v.ID)
	s.Require().NoError(err)
	s.Equal(v.ID, found.ID)
	s.Equal(domain.StatusRegistered, found.Status)
	s.Equal("Go Conference", found.EventTitle)
}

func (s *InMemoryStoreSuite) TestRegisterUnknownEvent() {
	_, err := s.store.Register(s.ctx, domain.NewEventID(),
		func(*eventmodels.Event, int) (*models.Registration, *models.Visitor, error) {
			s.Fail("callback must not run for an unknown event")
			return nil, nil, nil
		})
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestRegisterCallbackErrorAborts() {
	wantErr := sentinel.ErrConflict
	_, err := s.store.Register(s.ctx, s.eventID,
		func(*eventmodels.Event, int) (*models.Registration, *models.Visitor, error) {
			return nil, nil, wantErr
		})
	s.Require().ErrorIs(err, wantErr)

	count, err := s.store.CountVisitors(s.ctx, s.eventID)
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *InMemoryStoreSuite) TestRegisterPassesCurrentCount() {
	s.register()
	s.register()

	var observed int
	s.store.Register(s.ctx, s.eventID, func(_ *eventmodels.Event, count int) (*models.Registration, *models.Visitor, error) {
		observed = count
		return nil, nil, sentinel.ErrConflict
	})
	s.Equal(2, observed)
}

func (s *InMemoryStoreSuite) TestCheckInOnceAppliesOnce() {
	v := s.register()
	at := time.Now()

	got, applied, err := s.store.CheckInOnce(s.ctx, v.ID, at)
	s.Require().NoError(err)
	s.True(applied)
	s.Equal(domain.StatusCheckedIn, got.Status)
	s.Require().NotNil(got.CheckInTime)
	s.True(got.CheckInTime.Equal(at))

	again, applied, err := s.store.CheckInOnce(s.ctx, v.ID, at.Add(time.Minute))
	s.Require().NoError(err)
	s.False(applied)
	s.Equal(domain.StatusCheckedIn, again.Status)
	s.True(again.CheckInTime.Equal(at), "losing call must observe the first check-in time")
}

func (s *InMemoryStoreSuite) TestCheckInOnceUnknownVisitor() {
	_, _, err := s.store.CheckInOnce(s.ctx, domain.NewVisitorID(), time.Now())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemoryStoreSuite) TestConcurrentCheckInExactlyOneWins() {
	v := s.register()

	const n = 32
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, applied, err := s.store.CheckInOnce(s.ctx, v.ID, time.Now())
			s.NoError(err)
			if applied {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Equal(1, wins)
}

func (s *InMemoryStoreSuite) TestCheckOutRequiresCheckIn() {
	v := s.register()

	got, applied, err := s.store.CheckOutOnce(s.ctx, v.ID, time.Now())
	s.Require().NoError(err)
	s.False(applied)
	s.Equal(domain.StatusRegistered, got.Status)

	_, _, err = s.store.CheckInOnce(s.ctx, v.ID, time.Now())
	s.Require().NoError(err)

	got, applied, err = s.store.CheckOutOnce(s.ctx, v.ID, time.Now())
	s.Require().NoError(err)
	s.True(applied)
	s.Equal(domain.StatusCheckedOut, got.Status)
	s.NotNil(got.CheckOutTime)
}

func (s *InMemoryStoreSuite) TestCancelOnlyFromRegistered() {
	v := s.register()

	got, applied, err := s.store.CancelOnce(s.ctx, v.ID)
	s.Require().NoError(err)
	s.True(applied)
	s.Equal(domain.StatusCancelled, got.Status)

	_, applied, err = s.store.CheckInOnce(s.ctx, v.ID, time.Now())
	s.Require().NoError(err)
	s.False(applied, "cancelled visitor must not check in")
}

func (s *InMemoryStoreSuite) TestScanRecordsAppendOnly() {
	v := s.register()

	for i, result := range []domain.ScanResult{domain.ScanCheckedIn, domain.ScanDuplicate} {
		err := s.store.AppendScan(s.ctx, models.ScanRecord{
			ID:           domain.NewScanID(),
			VisitorID:    v.ID,
			EventID:      s.eventID,
			ScanTime:     time.Now().Add(time.Duration(i) * time.Second),
			EntryType:    domain.EntryQR,
			ResultStatus: result,
			DeviceInfo:   "Android phone",
		})
		s.Require().NoError(err)
	}

	records, err := s.store.ListScans(s.ctx, v.ID)
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Equal(domain.ScanCheckedIn, records[0].ResultStatus)
	s.Equal(domain.ScanDuplicate, records[1].ResultStatus)
}
