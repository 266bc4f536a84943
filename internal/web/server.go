package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/jaminalder/tic-tac-toe-replay/internal/app"
)

// Options tunes the HTTP layer; zero values fall back to defaults.
type Options struct {
	RequestTimeout time.Duration
	Heartbeat      time.Duration
}

// NewServer wires routes and returns an http.Handler. It also installs the
// game fragment as the service's broadcast renderer.
func NewServer(s *app.Service, log zerolog.Logger, opts Options) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}
	if opts.Heartbeat <= 0 {
		opts.Heartbeat = 15 * time.Second
	}
	h := &handlers{svc: s, tpl: loadTemplates(), heartbeat: opts.Heartbeat}
	s.SetRenderer(h.renderGame)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(hlog.NewHandler(log))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("req_id", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("took", d).
			Msg("request")
	}))
	r.Use(chimw.Recoverer)

	// event streams stay open, so only the short-lived routes get a deadline
	timeout := chimw.Timeout(opts.RequestTimeout)

	r.Get("/healthz", h.health)
	r.With(timeout).Get("/", h.index)
	r.With(timeout).Post("/game", h.create)
	r.Route("/game/{id}", func(r chi.Router) {
		r.With(timeout).Get("/", h.page)
		r.With(timeout).Post("/play", h.play)
		r.With(timeout).Post("/jump", h.jump)
		r.With(timeout).Post("/order", h.order)
		r.Get("/events", h.events)
	})
	return r
}
