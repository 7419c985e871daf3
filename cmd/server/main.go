package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	checkinhandler "turnstile/internal/checkin/handler"
	checkinmetrics "turnstile/internal/checkin/metrics"
	checkinservice "turnstile/internal/checkin/service"
	eventmodels "turnstile/internal/event/models"
	eventstore "turnstile/internal/event/store"
	"turnstile/internal/notify"
	otphandler "turnstile/internal/otp/handler"
	otpmetrics "turnstile/internal/otp/metrics"
	otpservice "turnstile/internal/otp/service"
	otpstore "turnstile/internal/otp/store"
	"turnstile/internal/platform/config"
	"turnstile/internal/platform/httpserver"
	"turnstile/internal/platform/logger"
	"turnstile/internal/platform/postgres"
	platformredis "turnstile/internal/platform/redis"
	reghandler "turnstile/internal/registration/handler"
	regmetrics "turnstile/internal/registration/metrics"
	regservice "turnstile/internal/registration/service"
	httptransport "turnstile/internal/transport/http"
	visitormodels "turnstile/internal/visitor/models"
	visitorstore "turnstile/internal/visitor/store"
	"turnstile/pkg/domain"
	audit "turnstile/pkg/platform/audit"
	auditpublisher "turnstile/pkg/platform/audit/publisher"
	auditmemory "turnstile/pkg/platform/audit/store/memory"
	auditpostgres "turnstile/pkg/platform/audit/store/postgres"
)

// visitorStorage is the union of what the registration orchestrator and the
// check-in engine need; both store implementations satisfy it.
type visitorStorage interface {
	Register(ctx context.Context, eventID domain.EventID, fn visitorstore.RegisterFunc) (*visitormodels.Visitor, error)
	FindVisitor(ctx context.Context, id domain.VisitorID) (*visitormodels.Visitor, error)
	CheckInOnce(ctx context.Context, id domain.VisitorID, at time.Time) (*visitormodels.Visitor, bool, error)
	CheckOutOnce(ctx context.Context, id domain.VisitorID, at time.Time) (*visitormodels.Visitor, bool, error)
	CancelOnce(ctx context.Context, id domain.VisitorID) (*visitormodels.Visitor, bool, error)
	AppendScan(ctx context.Context, rec visitormodels.ScanRecord) error
	ListScans(ctx context.Context, visitorID domain.VisitorID) ([]visitormodels.ScanRecord, error)
}

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	health := map[string]httptransport.HealthChecker{}

	// Storage. An empty postgres URL selects in-memory stores for local
	// development; production always sets one.
	var (
		db         *sql.DB
		visitors   visitorStorage
		auditStore audit.Store
		memCatalog *eventstore.InMemoryCatalog
	)
	if cfg.Postgres.URL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			log.Error("postgres connect failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Error("postgres migration failed", "error", err)
			os.Exit(1)
		}
		visitors = visitorstore.NewPostgres(db)
		auditStore = auditpostgres.NewStore(db)
		health["postgres"] = dbHealth{db}
	} else {
		log.Warn("no postgres URL configured, using in-memory stores")
		memCatalog = eventstore.NewInMemoryCatalog()
		seedDemoEvent(memCatalog, log)
		visitors = visitorstore.NewInMemory(memCatalog)
		auditStore = auditmemory.NewInMemoryStore()
	}

	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("redis connect failed", "error", err)
		os.Exit(1)
	}
	var challenges otpservice.ChallengeStore
	if redisClient != nil {
		defer redisClient.Close()
		challenges = otpstore.NewRedisStore(redisClient.Client)
		health["redis"] = redisClient
	} else {
		log.Warn("no redis URL configured, using in-memory challenge store")
		challenges = otpstore.NewInMemoryStore()
	}

	auditPub := auditpublisher.NewPublisher(auditStore,
		auditpublisher.WithAsyncBuffer(256),
		auditpublisher.WithLogger(log),
	)
	defer auditPub.Close()

	sender := notify.NewLogSender(log)

	otpSvc, err := otpservice.New(challenges, sender,
		otpservice.WithLogger(log),
		otpservice.WithMetrics(otpmetrics.New()),
		otpservice.WithAuditPublisher(auditPub),
	)
	if err != nil {
		log.Error("otp service init failed", "error", err)
		os.Exit(1)
	}

	regSvc, err := regservice.New(visitors, sender,
		regservice.WithLogger(log),
		regservice.WithMetrics(regmetrics.New()),
		regservice.WithAuditPublisher(auditPub),
	)
	if err != nil {
		log.Error("registration service init failed", "error", err)
		os.Exit(1)
	}

	checkinSvc, err := checkinservice.New(visitors,
		checkinservice.WithLogger(log),
		checkinservice.WithMetrics(checkinmetrics.New()),
		checkinservice.WithAuditPublisher(auditPub),
	)
	if err != nil {
		log.Error("check-in service init failed", "error", err)
		os.Exit(1)
	}

	router := httptransport.NewRouter(httptransport.Deps{
		OTP:          otphandler.New(otpSvc, log),
		Registration: reghandler.New(regSvc, log),
		CheckIn:      checkinhandler.New(checkinSvc, log),
		Health:       health,
	})

	srv := httpserver.New(cfg.Server.Addr, router)

	log.Info("starting turnstile", "addr", cfg.Server.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

type dbHealth struct {
	db *sql.DB
}

func (h dbHealth) Health(ctx context.Context) error {
	return h.db.PingContext(ctx)
}

// seedDemoEvent gives the in-memory catalog one event so a fresh dev server
// can accept registrations immediately.
func seedDemoEvent(catalog *eventstore.InMemoryCatalog, log *slog.Logger) {
	formID := "demo-form"
	ev := eventmodels.Event{
		ID:        domain.NewEventID(),
		Title:     "Demo Event",
		Location:  "Main Hall",
		FormID:    &formID,
		Capacity:  100,
		StartDate: time.Now(),
		EndDate:   time.Now().Add(8 * time.Hour),
	}
	catalog.Put(ev)
	log.Info("seeded demo event", "event_id", ev.ID)
}
