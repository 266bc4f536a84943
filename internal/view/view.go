// Package view derives render props from a game state. Renderers call Build
// after every transition and draw the result; nothing here holds state.
package view

import "github.com/jaminalder/tic-tac-toe-replay/internal/domain"

// Square is one board cell as drawn.
type Square struct {
	Index     int
	Mark      string
	Highlight bool
}

// BoardView is the board split into rows.
type BoardView struct {
	Rows [3][3]Square
}

// Game is everything a renderer needs for one frame.
type Game struct {
	Board       BoardView
	Status      string
	Moves       []domain.MoveItem
	ToggleLabel string
	Over        bool
}

// Build renders s into props.
func Build(s domain.State) Game {
	w, won := s.Winner()
	return Game{
		Board:       NewBoard(s.Board(), w, won),
		Status:      s.Status(),
		Moves:       s.MoveList(),
		ToggleLabel: toggleLabel(s.Ascending),
		Over:        s.Over(),
	}
}

// NewBoard lays out b row by row, highlighting the winning line when won.
func NewBoard(b domain.Board, w domain.Winner, won bool) BoardView {
	var bv BoardView
	for i, c := range b {
		bv.Rows[i/3][i%3] = Square{
			Index:     i,
			Mark:      c.String(),
			Highlight: won && w.Contains(i),
		}
	}
	return bv
}

// toggleLabel names the order the toggle switches to.
func toggleLabel(ascending bool) string {
	if ascending {
		return "Descending"
	}
	return "Ascending"
}
