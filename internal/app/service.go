package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jaminalder/tic-tac-toe-replay/internal/domain"
)

// ErrNotFound is the only error the service returns: moves themselves never
// fail, illegal ones leave the game as it was.
var ErrNotFound = errors.New("game not found")

// GameState is the in-memory state tracked per game.
type GameState struct {
	ID      string
	Game    domain.State
	Created time.Time
	Updated time.Time
}

type subscriber struct {
	ch        chan []byte
	closeOnce sync.Once
}

func (s *subscriber) close() { s.closeOnce.Do(func() { close(s.ch) }) }

// Service manages games and subscribers. Transitions are applied one at a
// time under mu, so every handler sees the result of the previous one.
type Service struct {
	mu     sync.Mutex
	games  map[string]*GameState
	subs   map[string]map[*subscriber]struct{}
	render func(GameState) ([]byte, error)
	log    zerolog.Logger
}

// NewService creates a service with a renderer that broadcasts nothing useful.
func NewService(log zerolog.Logger) *Service { return NewServiceWithRenderer(log, nil) }

// NewServiceWithRenderer allows injecting a renderer for broadcast payloads.
func NewServiceWithRenderer(log zerolog.Logger, renderer func(GameState) ([]byte, error)) *Service {
	if renderer == nil {
		renderer = func(gs GameState) ([]byte, error) { return nil, nil }
	}
	return &Service{
		games:  make(map[string]*GameState),
		subs:   make(map[string]map[*subscriber]struct{}),
		render: renderer,
		log:    log.With().Str("component", "games").Logger(),
	}
}

// SetRenderer replaces the broadcast renderer function.
func (s *Service) SetRenderer(renderer func(GameState) ([]byte, error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if renderer == nil {
		s.render = func(gs GameState) ([]byte, error) { return nil, nil }
		return
	}
	s.render = renderer
}

// CreateGame creates and registers a new game.
func (s *Service) CreateGame() (*GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	now := time.Now()
	gs := &GameState{ID: id, Game: domain.New(), Created: now, Updated: now}
	s.games[id] = gs
	s.log.Info().Str("game", id).Msg("game created")
	cp := *gs
	return &cp, nil
}

// Get returns a copy of the game state if present.
func (s *Service) Get(id string) (*GameState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.games[id]
	if !ok {
		return nil, false
	}
	cp := *gs
	return &cp, true
}

// Play places the next mark at cell (0..8) of the displayed board.
func (s *Service) Play(id string, cell int) (*GameState, error) {
	return s.apply(id, "play", func(g domain.State) domain.State {
		if !g.CanPlay(cell) {
			s.log.Debug().Str("game", id).Int("cell", cell).Str("status", g.Status()).Msg("move ignored")
			return g
		}
		next := g.Play(cell)
		s.log.Debug().Str("game", id).Int("cell", cell).Int("step", next.StepNumber).
			Int("discarded", len(g.History)-g.StepNumber-1).Str("status", next.Status()).Msg("move played")
		return next
	})
}

// JumpTo displays the snapshot at step.
func (s *Service) JumpTo(id string, step int) (*GameState, error) {
	return s.apply(id, "jump", func(g domain.State) domain.State {
		next := g.JumpTo(step)
		s.log.Debug().Str("game", id).Int("step", step).Int("from", g.StepNumber).Msg("jump")
		return next
	})
}

// ToggleOrder flips the move list order.
func (s *Service) ToggleOrder(id string) (*GameState, error) {
	return s.apply(id, "order", func(g domain.State) domain.State {
		next := g.ToggleOrder()
		s.log.Debug().Str("game", id).Bool("ascending", next.Ascending).Msg("order toggled")
		return next
	})
}

// apply replaces the game with fn's result and broadcasts it. A transition
// that leaves the game unchanged is not broadcast.
func (s *Service) apply(id, op string, fn func(domain.State) domain.State) (*GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs, ok := s.games[id]
	if !ok {
		s.log.Debug().Str("game", id).Str("op", op).Msg("unknown game")
		return nil, ErrNotFound
	}
	prev := gs.Game
	gs.Game = fn(prev)
	if unchanged(prev, gs.Game) {
		cp := *gs
		return &cp, nil
	}
	gs.Updated = time.Now()

	cp := *gs
	payload, err := s.render(cp)
	if err != nil {
		s.log.Error().Err(err).Str("game", id).Str("op", op).Msg("render broadcast")
		return &cp, nil
	}
	s.broadcastLocked(id, payload)
	return &cp, nil
}

// broadcastLocked fans payload out without blocking. Subscribers whose buffer
// is still full are closed and dropped. Closing happens under mu, the same
// lock unsubscribe takes, so no send can race a close.
func (s *Service) broadcastLocked(id string, payload []byte) {
	dropped := 0
	for sub := range s.subs[id] {
		select {
		case sub.ch <- payload:
		default:
			sub.close()
			delete(s.subs[id], sub)
			dropped++
		}
	}
	if dropped > 0 {
		s.log.Warn().Str("game", id).Int("dropped", dropped).Msg("dropped slow subscribers")
	}
}

// unchanged compares two states from the same game. Transitions either return
// their receiver or build a new history, so history identity plus the scalar
// fields is enough.
func unchanged(a, b domain.State) bool {
	return a.StepNumber == b.StepNumber &&
		a.XIsNext == b.XIsNext &&
		a.Ascending == b.Ascending &&
		len(a.History) == len(b.History) &&
		&a.History[0] == &b.History[0]
}

// Subscribe registers a subscriber for a game. Returns a channel and an
// unsubscribe func; the subscription ends when ctx is done.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan []byte, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[id]; !ok {
		return nil, func() {}, ErrNotFound
	}
	set := s.subs[id]
	if set == nil {
		set = make(map[*subscriber]struct{})
		s.subs[id] = set
	}
	sub := &subscriber{ch: make(chan []byte, 1)}
	set[sub] = struct{}{}

	unsubOnce := &sync.Once{}
	unsub := func() {
		unsubOnce.Do(func() {
			s.mu.Lock()
			if set, ok := s.subs[id]; ok {
				delete(set, sub)
			}
			sub.close()
			s.mu.Unlock()
		})
	}
	go func() {
		<-ctx.Done()
		unsub()
	}()
	return sub.ch, unsub, nil
}
