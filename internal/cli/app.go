// Package cli implements the airac command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/zapponejosh/airac-cycle/internal/airac"
	"github.com/zapponejosh/airac-cycle/internal/config"
	"github.com/zapponejosh/airac-cycle/internal/emitter"
	"github.com/zapponejosh/airac-cycle/internal/logger"
)

// Exit codes returned by the airac command.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitFailure indicates a runtime failure, including cycle lookup failures.
	ExitFailure = 1

	// ExitUsage indicates invalid flags, arguments or configuration.
	ExitUsage = 2
)

// usageError marks errors that should exit with ExitUsage.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// app carries the OS dependencies and the state shared by all commands.
type app struct {
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
	now    func() time.Time

	provider emitter.Provider
	cfg      *config.Config
	logger   *slog.Logger
}

// Run executes the command line and returns the process exit code.
// OS dependencies are parameters so tests can inject them.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer, getenv func(string) string, now func() time.Time) int {
	a := &app{
		stdout:   stdout,
		stderr:   stderr,
		getenv:   getenv,
		now:      now,
		provider: airac.Calculator{},
	}

	root := a.newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	fmt.Fprintf(stderr, "airac: %v\n", err)

	var ue *usageError
	if errors.As(err, &ue) {
		return ExitUsage
	}
	return ExitFailure
}

// load reads configuration and sets up logging. It runs before every command.
func (a *app) load(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadFrom(a.getenv)
	if err != nil {
		return &usageError{err: err}
	}
	a.cfg = cfg
	a.logger = logger.Setup(cfg, a.stderr)
	return nil
}

// newEmitter returns an emitter reading the injected clock in the configured
// time zone.
func (a *app) newEmitter(format emitter.Format) *emitter.Emitter {
	return &emitter.Emitter{
		Provider: a.provider,
		Format:   format,
		Now:      a.now,
		Location: a.cfg.Location(),
	}
}

// parseFormat validates an output format flag.
func parseFormat(s string) (emitter.Format, error) {
	f := emitter.Format(s)
	if !f.IsValid() {
		return "", usageErrorf("unknown format %q (want env, json or yaml)", s)
	}
	return f, nil
}
