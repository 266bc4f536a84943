package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/jaminalder/tic-tac-toe-replay/internal/domain"
)

// minimal renderer for tests: encode step and history length as bytes
func testRenderer(gs GameState) ([]byte, error) {
	return []byte(fmt.Sprintf("step=%d len=%d", gs.Game.StepNumber, len(gs.Game.History))), nil
}

func newTestService() *Service { return NewServiceWithRenderer(zerolog.Nop(), testRenderer) }

func TestCreateAndGet(t *testing.T) {
	s := newTestService()
	gs, err := s.CreateGame()
	if err != nil {
		t.Fatalf("CreateGame error: %v", err)
	}
	if gs.ID == "" {
		t.Fatalf("expected non-empty game ID")
	}
	if !gs.Game.XIsNext || len(gs.Game.History) != 1 {
		t.Fatalf("expected a fresh game with X next")
	}
	if gs.Created.IsZero() || gs.Updated.IsZero() {
		t.Fatalf("expected timestamps to be set")
	}
	got, ok := s.Get(gs.ID)
	if !ok || got.ID != gs.ID {
		t.Fatalf("Get should find created game")
	}
	if _, ok := s.Get("missing"); ok {
		t.Fatalf("Get should not find unknown game")
	}
}

func TestUnknownGame(t *testing.T) {
	s := newTestService()
	if _, err := s.Play("missing", 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from Play, got %v", err)
	}
	if _, err := s.JumpTo("missing", 0); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from JumpTo, got %v", err)
	}
	if _, err := s.ToggleOrder("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from ToggleOrder, got %v", err)
	}
	if _, _, err := s.Subscribe(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from Subscribe, got %v", err)
	}
}

func TestPlayJumpAndBranch(t *testing.T) {
	s := newTestService()
	gs, _ := s.CreateGame()

	for _, cell := range []int{0, 4, 1} {
		if _, err := s.Play(gs.ID, cell); err != nil {
			t.Fatalf("play %d: %v", cell, err)
		}
	}
	st, err := s.JumpTo(gs.ID, 1)
	if err != nil {
		t.Fatalf("jump: %v", err)
	}
	if st.Game.StepNumber != 1 || len(st.Game.History) != 4 {
		t.Fatalf("unexpected state after jump: step=%d len=%d", st.Game.StepNumber, len(st.Game.History))
	}
	st, err = s.Play(gs.ID, 8)
	if err != nil {
		t.Fatalf("branch play: %v", err)
	}
	if len(st.Game.History) != 3 || st.Game.Board()[8] != domain.O {
		t.Fatalf("expected branched history of 3 with O at 8, got len=%d board=%v", len(st.Game.History), st.Game.Board())
	}
}

func TestIllegalPlayLeavesGame(t *testing.T) {
	s := newTestService()
	gs, _ := s.CreateGame()
	before, _ := s.Play(gs.ID, 0)

	after, err := s.Play(gs.ID, 0)
	if err != nil {
		t.Fatalf("illegal move should not error, got %v", err)
	}
	if after.Game.StepNumber != before.Game.StepNumber || len(after.Game.History) != len(before.Game.History) {
		t.Fatalf("illegal move changed the game")
	}
	if !after.Updated.Equal(before.Updated) {
		t.Fatalf("illegal move should not touch Updated")
	}
}

func TestToggleOrder(t *testing.T) {
	s := newTestService()
	gs, _ := s.CreateGame()
	st, _ := s.ToggleOrder(gs.ID)
	if st.Game.Ascending {
		t.Fatalf("expected descending")
	}
	st, _ = s.ToggleOrder(gs.ID)
	if !st.Game.Ascending {
		t.Fatalf("expected ascending after second toggle")
	}
}

func TestSubscribeAndBroadcast(t *testing.T) {
	s := newTestService()
	gs, _ := s.CreateGame()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
	defer cancel()
	ch, unsub, err := s.Subscribe(ctx, gs.ID)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer unsub()

	if _, err := s.Play(gs.ID, 0); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	select {
	case b, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed unexpectedly")
		}
		if string(b) != "step=1 len=2" {
			t.Fatalf("unexpected broadcast payload: %q", string(b))
		}
	case <-ctx.Done():
		t.Fatalf("timed out waiting for broadcast")
	}
}

func TestNoopIsNotBroadcast(t *testing.T) {
	s := newTestService()
	gs, _ := s.CreateGame()
	s.Play(gs.ID, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, unsub, _ := s.Subscribe(ctx, gs.ID)
	defer unsub()

	s.Play(gs.ID, 0)   // occupied
	s.JumpTo(gs.ID, 1) // already displayed
	s.JumpTo(gs.ID, 7) // out of range

	select {
	case b := <-ch:
		t.Fatalf("expected no broadcast, got %q", string(b))
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDropSlowSubscriber(t *testing.T) {
	s := newTestService()
	gs, _ := s.CreateGame()

	// Slow subscriber: never read
	ctxSlow, cancelSlow := context.WithCancel(context.Background())
	defer cancelSlow()
	slowCh, _, _ := s.Subscribe(ctxSlow, gs.ID)

	// Fast subscriber: will read
	ctxFast, cancelFast := context.WithTimeout(context.Background(), time.Second*2)
	defer cancelFast()
	fastCh, unsubFast, _ := s.Subscribe(ctxFast, gs.ID)
	defer unsubFast()

	// Two updates; fast reads between them, slow never does
	if _, err := s.Play(gs.ID, 0); err != nil {
		t.Fatalf("play1: %v", err)
	}
	select {
	case <-fastCh:
	case <-ctxFast.Done():
		t.Fatalf("fast subscriber did not receive first update")
	}
	if _, err := s.Play(gs.ID, 4); err != nil {
		t.Fatalf("play2: %v", err)
	}
	select {
	case <-fastCh:
	case <-ctxFast.Done():
		t.Fatalf("fast subscriber did not receive second update")
	}

	// Slow subscriber got the first payload, then was closed
	if _, ok := <-slowCh; !ok {
		t.Fatalf("expected the buffered first payload")
	}
	if _, ok := <-slowCh; ok {
		t.Fatalf("expected slow subscriber to be closed")
	}
}

func TestUnsubscribeDuringBroadcast(t *testing.T) {
	s := newTestService()
	gs, _ := s.CreateGame()

	const n = 64
	chans := make([]<-chan []byte, 0, n)
	unsubs := make([]func(), 0, n)
	for i := 0; i < n; i++ {
		ch, unsub, err := s.Subscribe(context.Background(), gs.ID)
		if err != nil {
			t.Fatalf("subscribe %d: %v", i, err)
		}
		chans = append(chans, ch)
		unsubs = append(unsubs, unsub)
	}

	var wg sync.WaitGroup
	start := make(chan struct{})
	for _, unsub := range unsubs {
		wg.Add(1)
		go func(unsub func()) {
			defer wg.Done()
			<-start
			unsub()
		}(unsub)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-start
		for i := 0; i < 8; i++ {
			if _, err := s.ToggleOrder(gs.ID); err != nil {
				t.Errorf("toggle %d: %v", i, err)
			}
		}
	}()
	close(start)
	wg.Wait()

	st, _ := s.Get(gs.ID)
	if !st.Game.Ascending {
		t.Fatalf("expected ascending after an even number of toggles")
	}
	// every channel ends closed, after at most one buffered payload
	for i, ch := range chans {
		<-ch
		if _, ok := <-ch; ok {
			t.Fatalf("subscriber %d still open", i)
		}
	}
}

func TestRenderErrorSkipsBroadcast(t *testing.T) {
	s := NewServiceWithRenderer(zerolog.Nop(), func(GameState) ([]byte, error) {
		return nil, errors.New("template failed")
	})
	gs, _ := s.CreateGame()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, unsub, _ := s.Subscribe(ctx, gs.ID)
	defer unsub()

	st, err := s.Play(gs.ID, 0)
	if err != nil {
		t.Fatalf("play should still apply, got %v", err)
	}
	if st.Game.Board()[0] != domain.X {
		t.Fatalf("expected X at 0")
	}
	select {
	case b := <-ch:
		t.Fatalf("expected no broadcast, got %q", string(b))
	case <-time.After(50 * time.Millisecond):
	}
}
