package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"github.com/jaminalder/tic-tac-toe-replay/internal/app"
	"github.com/jaminalder/tic-tac-toe-replay/internal/view"
)

type handlers struct {
	svc       *app.Service
	tpl       *templates
	heartbeat time.Duration
}

func (h *handlers) renderGame(gs app.GameState) ([]byte, error) {
	return renderTemplate(h.tpl.frag, "", gameData{ID: gs.ID, View: view.Build(gs.Game)})
}

func (h *handlers) index(w http.ResponseWriter, r *http.Request) {
	if id := gameFromCookie(r); id != "" {
		if _, ok := h.svc.Get(id); ok {
			http.Redirect(w, r, "/game/"+id, http.StatusSeeOther)
			return
		}
	}
	b, err := renderTemplate(h.tpl.index, "base", nil)
	writeHTML(w, r, b, err)
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	gs, err := h.svc.CreateGame()
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("create game")
		http.Error(w, "failed to create", http.StatusInternalServerError)
		return
	}
	setGameCookie(w, gs.ID)
	http.Redirect(w, r, "/game/"+gs.ID, http.StatusSeeOther)
}

func (h *handlers) page(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	gs, ok := h.svc.Get(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	setGameCookie(w, gs.ID)
	b, err := renderTemplate(h.tpl.game, "base", gameData{ID: gs.ID, View: view.Build(gs.Game)})
	writeHTML(w, r, b, err)
}

func (h *handlers) play(w http.ResponseWriter, r *http.Request) {
	cell, err := formInt(r, "cell")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")
	gs, err := h.svc.Play(id, cell)
	h.respond(w, r, gs, err)
}

func (h *handlers) jump(w http.ResponseWriter, r *http.Request) {
	step, err := formInt(r, "step")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")
	gs, err := h.svc.JumpTo(id, step)
	h.respond(w, r, gs, err)
}

func (h *handlers) order(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	gs, err := h.svc.ToggleOrder(id)
	h.respond(w, r, gs, err)
}

// respond answers htmx requests with the game fragment and plain form posts
// with a redirect back to the game page.
func (h *handlers) respond(w http.ResponseWriter, r *http.Request, gs *app.GameState, err error) {
	switch {
	case errors.Is(err, app.ErrNotFound):
		http.NotFound(w, r)
		return
	case err != nil:
		hlog.FromRequest(r).Error().Err(err).Msg("apply transition")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if r.Header.Get("HX-Request") != "true" {
		http.Redirect(w, r, "/game/"+gs.ID, http.StatusSeeOther)
		return
	}
	b, err := h.renderGame(*gs)
	writeHTML(w, r, b, err)
}

// writeHTML writes a rendered page or fragment. Nothing is written before
// rendering has succeeded, so a failed render is still a clean 500.
func writeHTML(w http.ResponseWriter, r *http.Request, b []byte, err error) {
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("render")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func formInt(r *http.Request, key string) (int, error) {
	if err := r.ParseForm(); err != nil {
		return 0, fmt.Errorf("parse form: %w", err)
	}
	v, err := strconv.Atoi(r.Form.Get(key))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, r.Form.Get(key))
	}
	return v, nil
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok")
}

func (h *handlers) events(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := h.svc.Get(id); !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	// In tests or non-EventSource requests, just acknowledge headers and return
	if r.Header.Get("Accept") != "text/event-stream" {
		w.WriteHeader(http.StatusOK)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}
	ctx := r.Context()
	ch, unsub, err := h.svc.Subscribe(ctx, id)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer unsub()
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	// Initial flush of headers
	flusher.Flush()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = io.WriteString(w, ": ping\n\n")
			flusher.Flush()
		case b, ok := <-ch:
			if !ok {
				return
			}
			_, _ = io.WriteString(w, "event: game\n")
			writeData(w, b)
			flusher.Flush()
		}
	}
}

// writeData emits b as one SSE data field; every payload line needs its own
// "data:" prefix.
func writeData(w io.Writer, b []byte) {
	start := 0
	for i, c := range b {
		if c == '\n' {
			_, _ = fmt.Fprintf(w, "data: %s\n", b[start:i])
			start = i + 1
		}
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", b[start:])
}
