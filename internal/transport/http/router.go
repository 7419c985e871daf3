// Package httptransport assembles the public HTTP surface.
package httptransport

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	checkinhandler "turnstile/internal/checkin/handler"
	otphandler "turnstile/internal/otp/handler"
	reghandler "turnstile/internal/registration/handler"
	"turnstile/pkg/platform/httputil"
	"turnstile/pkg/platform/middleware/metadata"
)

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps carries everything the router mounts.
type Deps struct {
	OTP          *otphandler.Handler
	Registration *reghandler.Handler
	CheckIn      *checkinhandler.Handler
	// Health checks run on GET /healthz; nil entries are skipped.
	Health map[string]HealthChecker
}

// NewRouter wires all public endpoints behind the request metadata
// middleware.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(metadata.Middleware)

	deps.OTP.Register(r)
	deps.Registration.Register(r)
	deps.CheckIn.Register(r)

	r.Get("/healthz", healthHandler(deps.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

func healthHandler(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		status := http.StatusOK
		report := make(map[string]string, len(checks)+1)
		report["status"] = "ok"
		for name, check := range checks {
			if check == nil {
				continue
			}
			if err := check.Health(ctx); err != nil {
				status = http.StatusServiceUnavailable
				report["status"] = "degraded"
				report[name] = err.Error()
				continue
			}
			report[name] = "ok"
		}
		httputil.WriteJSON(w, status, report)
	}
}
