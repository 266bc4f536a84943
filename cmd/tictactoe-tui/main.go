// Command tictactoe-tui plays the game in the terminal.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/rivo/tview"

	"github.com/jaminalder/tic-tac-toe-replay/internal/config"
	"github.com/jaminalder/tic-tac-toe-replay/internal/logging"
	"github.com/jaminalder/tic-tac-toe-replay/internal/tui"
)

var flagConfig = flag.String("config", "", "path to config.yml (default: XDG config dir)")

func main() {
	flag.Parse()
	_ = godotenv.Load()

	if err := run(*flagConfig); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	conf, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// the terminal belongs to tview, so logs go to a file or nowhere
	var out io.Writer = io.Discard
	if conf.TUI.LogFile != "" {
		f, err := os.OpenFile(conf.TUI.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	logger := logging.New(conf.LogLevel, "json", out)

	application := tview.NewApplication()
	game := tui.NewGameUI(application, logger)
	application.SetInputCapture(game.HandleKey)

	if err := application.SetRoot(game.Flex(), true).EnableMouse(true).Run(); err != nil {
		logger.Error().Err(err).Msg("terminal ui exited")
		return fmt.Errorf("terminal ui: %w", err)
	}
	return nil
}
