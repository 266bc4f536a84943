package web

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/jaminalder/tic-tac-toe-replay/internal/view"
)

const gameCookie = "game_id"

type templates struct {
	base  *template.Template
	game  *template.Template
	frag  *template.Template
	index *template.Template
}

func funcs() template.FuncMap {
	return template.FuncMap{
		"add": func(a, b int) int { return a + b },
	}
}

func loadTemplates() *templates {
	base := template.Must(template.New("base").Funcs(funcs()).Parse(`<!doctype html><html><head>
<meta charset="utf-8"/>
<title>Tic-tac-toe</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script src="https://unpkg.com/htmx.org/dist/ext/sse.js"></script>
<style>
.game{display:flex;gap:2em}
.board-row{display:flex}
.board-row form{margin:0}
.square{width:3em;height:3em;background:white;font-weight:bold}
.square.win,.current{background:yellow}
</style>
</head><body>{{template "content" .}}</body></html>`))
	// Define the game fragment within the same set so the page can include it
	template.Must(base.New("game").Funcs(funcs()).Parse(gameTemplate))
	index := template.Must(template.Must(base.Clone()).New("content").Parse(`<h1>Tic-tac-toe</h1><form action="/game" method="post"><button>New game</button></form>`))
	game := template.Must(template.Must(base.Clone()).New("content").Parse(`
<div hx-ext="sse" hx-sse="connect:/game/{{.ID}}/events">
  <div hx-sse="swap:game">{{template "game" .}}</div>
</div>
<form action="/game" method="post"><button>New game</button></form>`))
	// Standalone fragment used for htmx swaps and SSE payloads
	frag := template.Must(template.New("game_only").Funcs(funcs()).Parse(gameTemplate))
	return &templates{base: base, game: game, frag: frag, index: index}
}

func renderTemplate(t *template.Template, name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	if name == "" {
		err = t.Execute(&buf, data)
	} else {
		err = t.ExecuteTemplate(&buf, name, data)
	}
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return buf.Bytes(), nil
}

// Each square and move carries its own index; nothing is taken from the
// enclosing range.
const gameTemplate = `
<div id="game" class="game">
  <div class="game-board">
  {{range .View.Board.Rows}}
    <div class="board-row">
    {{range .}}
      <form action="/game/{{$.ID}}/play" hx-post="/game/{{$.ID}}/play" hx-target="#game" hx-swap="outerHTML" method="post">
        <input type="hidden" name="cell" value="{{.Index}}">
        <button type="submit" class="square{{if .Highlight}} win{{end}}" data-cell="{{.Index}}">{{.Mark}}</button>
      </form>
    {{end}}
    </div>
  {{end}}
  </div>
  <div class="game-info">
    <div class="status">{{.View.Status}}</div>
    <ol>
    {{range .View.Moves}}
      <li value="{{add .Step 1}}">
        <form action="/game/{{$.ID}}/jump" hx-post="/game/{{$.ID}}/jump" hx-target="#game" hx-swap="outerHTML" method="post">
          <input type="hidden" name="step" value="{{.Step}}">
          <button type="submit"{{if .Current}} class="current"{{end}}>{{.Label}}</button>
        </form>
      </li>
    {{end}}
    </ol>
  </div>
  <form action="/game/{{.ID}}/order" hx-post="/game/{{.ID}}/order" hx-target="#game" hx-swap="outerHTML" method="post">
    <button type="submit" class="order">{{.View.ToggleLabel}}</button>
  </form>
</div>
`

// gameData is what the game fragment renders.
type gameData struct {
	ID   string
	View view.Game
}

// gameFromCookie returns the game id remembered for this browser, if any.
func gameFromCookie(r *http.Request) string {
	if c, err := r.Cookie(gameCookie); err == nil {
		return c.Value
	}
	return ""
}

func setGameCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{Name: gameCookie, Value: id, Path: "/", HttpOnly: true, SameSite: http.SameSiteLaxMode})
}
