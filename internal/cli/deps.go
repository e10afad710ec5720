// Package cli provides the Cobra command tree and dependency injection
// wiring for the pbt CLI. This file defines the Dependencies struct
// (Composition Root) that wires the pipelines together.
package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"

	"github.com/dartmoon/prestashop-build-tools/internal/scaffold"
	"github.com/dartmoon/prestashop-build-tools/internal/shell"
	"github.com/dartmoon/prestashop-build-tools/internal/ui"
)

// envPrefix prefixes the environment variables that override tool binaries,
// e.g. PBT_COMPOSER or PBT_PHP_SCOPER.
const envPrefix = "PBT_"

// Dependencies holds the services used by CLI commands. This is the
// Composition Root: the only place where concrete types are instantiated.
type Dependencies struct {
	Runner   shell.Runner
	Headless *ui.HeadlessManager
	Theme    *ui.Theme
	Logger   *slog.Logger

	// Prompter overrides the prompter chosen from the TTY state.
	Prompter scaffold.Prompter
	// Steps overrides the step reporter chosen from the TTY state.
	Steps func() ui.Steps

	In  io.Reader
	Out io.Writer
}

// deps is the global dependencies instance, initialized by InitDependencies.
var deps *Dependencies

// InitDependencies creates and wires all dependencies. verbose lowers the
// log level to debug.
func InitDependencies(verbose bool) {
	logger := newLogger(os.Stderr, verbose)
	slog.SetDefault(logger)

	deps = &Dependencies{
		Runner: shell.NewRunner(
			shell.WithEnvOverrides(envPrefix),
			shell.WithLogger(logger.With("module", "shell")),
		),
		Headless: ui.NewHeadlessManager(),
		Theme:    ui.DefaultTheme(),
		Logger:   logger,
		In:       os.Stdin,
		Out:      os.Stdout,
	}
}

// newLogger returns an slog.Logger backed by a charmbracelet/log handler.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	handler := log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: verbose,
		Prefix:          "pbt",
	})
	return slog.New(handler)
}

// steps returns the reporter for one pipeline run.
func (d *Dependencies) steps() ui.Steps {
	if d.Steps != nil {
		return d.Steps()
	}
	return ui.NewSteps(d.Theme, d.Headless)
}
