package tui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rs/zerolog"

	"github.com/jaminalder/tic-tac-toe-replay/internal/domain"
	"github.com/jaminalder/tic-tac-toe-replay/internal/view"
)

// GameUI draws one game in the terminal and owns its state. Every handler
// replaces the state and redraws from view.Build.
type GameUI struct {
	app     *tview.Application
	log     zerolog.Logger
	state   domain.State
	flex    *tview.Flex
	squares [9]*tview.Button
	status  *tview.TextView
	moves   *tview.List
	order   *tview.Button
	hint    *tview.TextView
}

// NewGameUI builds the layout for a fresh game. app may be nil when the UI is
// not attached to a running application.
func NewGameUI(app *tview.Application, log zerolog.Logger) *GameUI {
	g := &GameUI{app: app, log: log, state: domain.New()}

	board := tview.NewGrid().
		SetRows(3, 3, 3).
		SetColumns(7, 7, 7).
		SetGap(0, 1)
	board.SetBorder(true).SetTitle(" Board ")
	for i := range g.squares {
		b := tview.NewButton("")
		b.SetSelectedFunc(g.playFunc(i))
		g.squares[i] = b
		board.AddItem(b, i/3, i%3, 1, 1, 0, 0, i == 0)
	}

	g.status = tview.NewTextView()
	g.status.SetBorder(true).SetTitle(" Status ")

	g.moves = tview.NewList()
	g.moves.ShowSecondaryText(false)
	g.moves.SetHighlightFullLine(true)
	g.moves.SetBorder(true).SetTitle(" Moves ")

	g.order = tview.NewButton("")
	g.order.SetSelectedFunc(g.ToggleOrder)

	g.hint = tview.NewTextView()
	g.hint.SetDynamicColors(true)
	g.hint.SetText("  [dimgray]1-9[-] play  [dimgray][ ][-] step  [dimgray]o[-] order  [dimgray]q[-] quit")

	info := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(g.status, 3, 0, false).
		AddItem(g.moves, 0, 1, false).
		AddItem(g.order, 1, 0, false)

	top := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(board, 27, 0, true).
		AddItem(info, 0, 1, false)

	g.flex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(top, 0, 1, true).
		AddItem(g.hint, 1, 0, false)

	g.draw()
	return g
}

// Flex returns the root container.
func (g *GameUI) Flex() *tview.Flex { return g.flex }

// State returns the game on display.
func (g *GameUI) State() domain.State { return g.state }

// Play places the next mark at cell i. Illegal moves are ignored.
func (g *GameUI) Play(i int) {
	if !g.state.CanPlay(i) {
		g.log.Debug().Int("cell", i).Str("status", g.state.Status()).Msg("move ignored")
		return
	}
	g.state = g.state.Play(i)
	g.log.Debug().Int("cell", i).Int("step", g.state.StepNumber).Str("status", g.state.Status()).Msg("move played")
	g.draw()
}

// JumpTo displays the snapshot at step.
func (g *GameUI) JumpTo(step int) {
	g.state = g.state.JumpTo(step)
	g.log.Debug().Int("step", g.state.StepNumber).Msg("jump")
	g.draw()
}

// ToggleOrder flips the move list order.
func (g *GameUI) ToggleOrder() {
	g.state = g.state.ToggleOrder()
	g.log.Debug().Bool("ascending", g.state.Ascending).Msg("order toggled")
	g.draw()
}

// HandleKey is the application input capture: digits play, brackets step
// through history, o toggles the order, q quits.
func (g *GameUI) HandleKey(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() != tcell.KeyRune {
		return event
	}
	switch r := event.Rune(); {
	case r >= '1' && r <= '9':
		g.Play(int(r - '1'))
	case r == '[':
		g.JumpTo(g.state.StepNumber - 1)
	case r == ']':
		g.JumpTo(g.state.StepNumber + 1)
	case r == 'o':
		g.ToggleOrder()
	case r == 'q':
		if g.app != nil {
			g.app.Stop()
		}
	default:
		return event
	}
	return nil
}

func (g *GameUI) playFunc(i int) func() { return func() { g.Play(i) } }

func (g *GameUI) jumpFunc(step int) func() { return func() { g.JumpTo(step) } }

func (g *GameUI) draw() {
	v := view.Build(g.state)

	for _, row := range v.Board.Rows {
		for _, sq := range row {
			b := g.squares[sq.Index]
			b.SetLabel(sq.Mark)
			if sq.Highlight {
				b.SetBackgroundColor(tcell.ColorYellow)
				b.SetLabelColor(tcell.ColorBlack)
			} else {
				b.SetBackgroundColor(tcell.ColorDarkSlateGray)
				b.SetLabelColor(tcell.ColorWhite)
			}
		}
	}

	g.status.SetText(v.Status)

	g.moves.Clear()
	current := 0
	for i, m := range v.Moves {
		g.moves.AddItem(m.Label, "", 0, g.jumpFunc(m.Step))
		if m.Current {
			current = i
		}
	}
	g.moves.SetCurrentItem(current)

	g.order.SetLabel(v.ToggleLabel)
}
