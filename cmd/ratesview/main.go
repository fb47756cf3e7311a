// Command ratesview browses rates.json in the terminal.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/ikaadil/any-currency-to-bdt/internal/config"
	"github.com/ikaadil/any-currency-to-bdt/internal/service"
	"github.com/ikaadil/any-currency-to-bdt/internal/tui"
)

var (
	loadConfigFunc = config.Load
	runProgramFunc = func(m tea.Model) error {
		_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
		return err
	}
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run shows the file named by args[0], or the configured rates.json.
func run(args []string) error {
	path := ""
	if len(args) > 0 {
		path = args[0]
	} else {
		cfg := loadConfigFunc()
		path = filepath.Join(cfg.OutputDir, cfg.JSONFile)
	}

	reader := service.NewSnapshotReader(noop.NewTracerProvider().Tracer("ratesview"), nil, path)
	return runProgramFunc(tui.New(reader.Latest))
}
