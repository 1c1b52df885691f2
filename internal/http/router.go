package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/example/golea/internal/metrics"
	"github.com/example/golea/internal/ratelimit"
)

type RouterConfig struct {
	Auth     *AuthHandler
	Calendar *CalendarHandler
	Metrics  *metrics.Metrics
	Limiter  *ratelimit.Limiter
	// Healthz reports readiness; nil means always healthy.
	Healthz func() error
	// Middleware wraps the whole router, outermost first.
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}
	if cfg.Metrics != nil {
		r.Use(Instrument(cfg.Metrics))
	}

	if cfg.Auth != nil {
		r.Route("/auth", func(r chi.Router) {
			r.Use(RateLimit(cfg.Limiter, cfg.Metrics))
			r.Post("/signup", cfg.Auth.Signup)
			r.Post("/login", cfg.Auth.Login)
			r.Post("/login/id", cfg.Auth.LoginWithID)
			r.Post("/otp/request", cfg.Auth.RequestOTP)
			r.Post("/otp/verify", cfg.Auth.VerifyOTP)
			r.Post("/logout", cfg.Auth.Logout)
			r.Get("/session", cfg.Auth.Session)
		})
		r.Patch("/profile", cfg.Auth.UpdateProfile)
	}

	if cfg.Calendar != nil {
		r.Get("/calendar/{year}/{month}", cfg.Calendar.MonthGrid)
		r.Post("/events", cfg.Calendar.CreateEvent)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Healthz != nil {
			if err := cfg.Healthz(); err != nil {
				newResponder(nil).writeError(r.Context(), w, http.StatusServiceUnavailable, err)
				return
			}
		}
		newResponder(nil).writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	return r
}
