package handler_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	eventmodels "turnstile/internal/event/models"
	eventstore "turnstile/internal/event/store"
	"turnstile/internal/notify"
	"turnstile/internal/registration/handler"
	"turnstile/internal/registration/service"
	"turnstile/internal/visitor/models"
	"turnstile/internal/visitor/store"
	"turnstile/pkg/domain"
	"turnstile/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	router  chi.Router
	catalog *eventstore.InMemoryCatalog
	eventID domain.EventID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.catalog = eventstore.NewInMemoryCatalog()
	visitors := store.NewInMemory(s.catalog)

	svc, err := service.New(visitors, notify.NewFakeSender())
	s.Require().NoError(err)

	s.router = chi.NewRouter()
	handler.New(svc, nil).Register(s.router)

	formID := "form-1"
	s.eventID = domain.NewEventID()
	s.catalog.Put(eventmodels.Event{
		ID:        s.eventID,
		Title:     "Go Conference",
		Location:  "Hall B",
		FormID:    &formID,
		Capacity:  2,
		StartDate: time.Now(),
		EndDate:   time.Now().Add(8 * time.Hour),
	})
}

func (s *HandlerSuite) register() map[string]any {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/events/"+s.eventID.String()+"/registrations", map[string]any{
		"email": "visitor@example.com",
		"answers": map[string]models.Answer{
			"q1": {Label: "Company", Value: "Acme"},
		},
	})
	rr := testutil.DoRequest(s.router, req)
	s.Require().Equal(http.StatusCreated, rr.Code, rr.Body.String())
	return *testutil.UnmarshalResponse[map[string]any](s.T(), rr)
}

func (s *HandlerSuite) TestRegisterCreated() {
	resp := s.register()

	s.Equal("registered", resp["status"])
	s.NotEmpty(resp["visitor_id"])
	token, _ := resp["token"].(string)
	s.Regexp(`^tk1_[0-9a-v]{26}$`, token)
	s.Equal("Go Conference", resp["event_title"])
}

func (s *HandlerSuite) TestRegisterInvalidEventID() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/events/not-a-uuid/registrations", map[string]any{
		"email": "visitor@example.com",
	})
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	testutil.AssertErrorCode(s.T(), rr, "invalid_input")
}

func (s *HandlerSuite) TestRegisterInvalidEmail() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/events/"+s.eventID.String()+"/registrations", map[string]any{
		"email": "not-an-email",
	})
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	testutil.AssertErrorCode(s.T(), rr, "invalid_input")
}

func (s *HandlerSuite) TestRegisterMalformedBody() {
	req, err := http.NewRequest(http.MethodPost, "/events/"+s.eventID.String()+"/registrations", strings.NewReader("{"))
	s.Require().NoError(err)
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	testutil.AssertErrorCode(s.T(), rr, "bad_request")
}

func (s *HandlerSuite) TestRegisterEventFullConflict() {
	s.register()
	s.register()

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/events/"+s.eventID.String()+"/registrations", map[string]any{
		"email": "visitor@example.com",
	})
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusConflict)
	testutil.AssertErrorCode(s.T(), rr, "conflict")
}

func (s *HandlerSuite) TestRegisterUnknownEventNotFound() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/events/"+domain.NewEventID().String()+"/registrations", map[string]any{
		"email": "visitor@example.com",
	})
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusNotFound)
	testutil.AssertErrorCode(s.T(), rr, "not_found")
}
