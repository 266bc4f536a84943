package domain

import "fmt"

// NoCell marks the initial snapshot, which was not reached by a move.
const NoCell = -1

// Move is a board snapshot and the cell played to reach it.
type Move struct {
	Board Board
	Cell  int
}

// State is the full game: every snapshot played so far, the one on display,
// whose turn it is there, and the move list order.
//
// State values are never modified in place; each transition returns a new
// State and leaves the receiver usable as a prior snapshot.
type State struct {
	History    []Move
	StepNumber int
	XIsNext    bool
	Ascending  bool
}

// MoveItem is one entry of the move list.
type MoveItem struct {
	Step    int
	Label   string
	Current bool
}

// New returns a game at its start with X to move.
func New() State {
	return State{
		History:   []Move{{Cell: NoCell}},
		XIsNext:   true,
		Ascending: true,
	}
}

// Current returns the snapshot on display.
func (s State) Current() Move { return s.History[s.StepNumber] }

// Board returns the board on display.
func (s State) Board() Board { return s.Current().Board }

// Player returns the mark placed by the next move.
func (s State) Player() Cell {
	if s.XIsNext {
		return X
	}
	return O
}

// Winner evaluates the board on display.
func (s State) Winner() (Winner, bool) { return Evaluate(s.Board()) }

// Draw reports a finished game without a winner. Nine moves fill the board,
// so the step count stands in for a scan for empty cells.
func (s State) Draw() bool {
	if _, ok := s.Winner(); ok {
		return false
	}
	return s.StepNumber == 9
}

// Over reports whether no further move can be played at this step.
func (s State) Over() bool {
	_, won := s.Winner()
	return won || s.Draw()
}

// Status describes the step on display for the player.
func (s State) Status() string {
	if w, ok := s.Winner(); ok {
		return "Winner: " + w.Mark.String()
	}
	if s.Draw() {
		return "Draw"
	}
	return "Next player: " + s.Player().String()
}

// CanPlay reports whether Play(i) would change the game.
func (s State) CanPlay(i int) bool {
	if i < 0 || i >= len(Board{}) {
		return false
	}
	b := s.Board()
	if b[i] != Empty {
		return false
	}
	_, won := Evaluate(b)
	return !won
}

// Play places the current player's mark at cell i. Snapshots after the one on
// display are discarded first. Illegal moves return s unchanged.
func (s State) Play(i int) State {
	if !s.CanPlay(i) {
		return s
	}
	history := make([]Move, s.StepNumber+1, s.StepNumber+2)
	copy(history, s.History[:s.StepNumber+1])

	board := s.Board()
	board[i] = s.Player()
	history = append(history, Move{Board: board, Cell: i})

	return State{
		History:    history,
		StepNumber: len(history) - 1,
		XIsNext:    !s.XIsNext,
		Ascending:  s.Ascending,
	}
}

// JumpTo displays an earlier (or later) snapshot without touching history.
// Steps outside the history return s unchanged.
func (s State) JumpTo(step int) State {
	if step < 0 || step >= len(s.History) {
		return s
	}
	s.StepNumber = step
	s.XIsNext = step%2 == 0
	return s
}

// ToggleOrder flips the move list order.
func (s State) ToggleOrder() State {
	s.Ascending = !s.Ascending
	return s
}

// Describe labels the move list entry for step.
func (s State) Describe(step int) string {
	if step == 0 {
		return "Go to game start"
	}
	cell := s.History[step].Cell
	return fmt.Sprintf("Go to move #%d (%d, %d)", step, cell%3, cell/3)
}

// MoveList returns one item per snapshot in display order. Reversing the
// order keeps every item bound to its own step.
func (s State) MoveList() []MoveItem {
	items := make([]MoveItem, len(s.History))
	for step := range s.History {
		pos := step
		if !s.Ascending {
			pos = len(s.History) - 1 - step
		}
		items[pos] = MoveItem{
			Step:    step,
			Label:   s.Describe(step),
			Current: step == s.StepNumber,
		}
	}
	return items
}
