package handler_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"turnstile/internal/checkin/handler"
	"turnstile/internal/checkin/service"
	eventmodels "turnstile/internal/event/models"
	eventstore "turnstile/internal/event/store"
	"turnstile/internal/identity"
	"turnstile/internal/visitor/models"
	"turnstile/internal/visitor/store"
	"turnstile/pkg/domain"
	"turnstile/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	router  chi.Router
	store   *store.InMemoryStore
	eventID domain.EventID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	catalog := eventstore.NewInMemoryCatalog()
	s.store = store.NewInMemory(catalog)

	s.eventID = domain.NewEventID()
	catalog.Put(eventmodels.Event{
		ID:       s.eventID,
		Title:    "Go Conference",
		Capacity: 100,
	})

	svc, err := service.New(s.store)
	s.Require().NoError(err)

	s.router = chi.NewRouter()
	handler.New(svc, nil).Register(s.router)
}

func (s *HandlerSuite) registerVisitor() *models.Visitor {
	v, err := s.store.Register(context.Background(), s.eventID, func(ev *eventmodels.Event, _ int) (*models.Registration, *models.Visitor, error) {
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
				Token:          identity.Encode(visitorID),
				EventTitle:     ev.Title,
				Status:         domain.StatusRegistered,
				CreatedAt:      now,
			}, nil
	})
	s.Require().NoError(err)
	return v
}

type checkInResponse struct {
	Status  string `json:"status"`
	Visitor struct {
		VisitorID   string     `json:"visitor_id"`
		Status      string     `json:"status"`
		CheckInTime *time.Time `json:"check_in_time"`
	} `json:"visitor"`
}

func (s *HandlerSuite) TestScanChecksIn() {
	v := s.registerVisitor()

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/checkin/scan", map[string]string{"token": v.Token})
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[checkInResponse](s.T(), rr)
	s.Equal("checked_in", resp.Status)
	s.Equal(v.ID.String(), resp.Visitor.VisitorID)
	s.NotNil(resp.Visitor.CheckInTime)
}

func (s *HandlerSuite) TestScanDuplicateIsOK() {
	v := s.registerVisitor()

	first := testutil.DoRequest(s.router,
		testutil.NewJSONRequest(s.T(), http.MethodPost, "/checkin/scan", map[string]string{"token": v.Token}))
	testutil.AssertStatus(s.T(), first, http.StatusOK)

	second := testutil.DoRequest(s.router,
		testutil.NewJSONRequest(s.T(), http.MethodPost, "/checkin/scan", map[string]string{"token": v.Token}))
	testutil.AssertStatus(s.T(), second, http.StatusOK)
	resp := testutil.UnmarshalResponse[checkInResponse](s.T(), second)
	s.Equal("already_checked_in", resp.Status)
	s.Equal("checked_in", resp.Visitor.Status)
}

func (s *HandlerSuite) TestScanMalformedToken() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/checkin/scan", map[string]string{"token": "garbage"})
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	testutil.AssertErrorCode(s.T(), rr, "bad_request")
}

func (s *HandlerSuite) TestManualCheckIn() {
	v := s.registerVisitor()

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/checkin/manual", map[string]string{"visitor_id": v.ID.String()})
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[checkInResponse](s.T(), rr)
	s.Equal("checked_in", resp.Status)
}

func (s *HandlerSuite) TestManualUnknownVisitor() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/checkin/manual", map[string]string{"visitor_id": domain.NewVisitorID().String()})
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	testutil.AssertErrorCode(s.T(), rr, "not_found")
}

func (s *HandlerSuite) TestCheckOutBeforeCheckInConflicts() {
	v := s.registerVisitor()

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/visitors/"+v.ID.String()+"/checkout", nil)
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusConflict)
	testutil.AssertErrorCode(s.T(), rr, "conflict")
}

func (s *HandlerSuite) TestCheckOutAfterCheckIn() {
	v := s.registerVisitor()
	testutil.DoRequest(s.router,
		testutil.NewJSONRequest(s.T(), http.MethodPost, "/checkin/manual", map[string]string{"visitor_id": v.ID.String()}))

	rr := testutil.DoRequest(s.router,
		testutil.NewJSONRequest(s.T(), http.MethodPost, "/visitors/"+v.ID.String()+"/checkout", nil))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
}

func (s *HandlerSuite) TestCancel() {
	v := s.registerVisitor()

	rr := testutil.DoRequest(s.router,
		testutil.NewJSONRequest(s.T(), http.MethodPost, "/visitors/"+v.ID.String()+"/cancel", nil))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
}

func (s *HandlerSuite) TestGetVisitorWithScans() {
	v := s.registerVisitor()
	testutil.DoRequest(s.router,
		testutil.NewJSONRequest(s.T(), http.MethodPost, "/checkin/scan", map[string]string{"token": v.Token}))

	rr := testutil.DoRequest(s.router,
		testutil.NewJSONRequest(s.T(), http.MethodGet, "/visitors/"+v.ID.String(), nil))

	testutil.AssertStatus(s.T(), rr, http.StatusOK)
	resp := testutil.UnmarshalResponse[struct {
		Visitor struct {
			Status string `json:"status"`
		} `json:"visitor"`
		Scans []struct {
			EntryType    string `json:"entry_type"`
			ResultStatus string `json:"result_status"`
		} `json:"scans"`
	}](s.T(), rr)
	s.Equal("checked_in", resp.Visitor.Status)
	s.Require().Len(resp.Scans, 1)
	s.Equal("qr", resp.Scans[0].EntryType)
	s.Equal("checked_in", resp.Scans[0].ResultStatus)
}
