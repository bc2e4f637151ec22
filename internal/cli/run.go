package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/quoteflow"
	"github.com/aretw0/quoteflow/internal/presentation/tui"
	"github.com/aretw0/quoteflow/pkg/session"
)

// RunOptions configures an interactive session.
type RunOptions struct {
	SessionID string
	Vehicle   string
	Headless  bool
	Input     io.Reader
	Output    io.Writer
}

// RunSession drives a wizard from the terminal. The session is persisted
// through the app's store, so an id given again resumes where it stopped.
func RunSession(ctx context.Context, app *App, opts RunOptions) error {
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	resumed := false
	if opts.SessionID != "" {
		_, err := app.Sessions.Load(ctx, opts.SessionID)
		resumed = err == nil
	} else {
		opts.SessionID = session.NewID()
	}

	wizardOpts := append(app.Options(),
		quoteflow.WithSessionID(opts.SessionID),
		quoteflow.WithSessionStore(app.Sessions),
	)
	if opts.Vehicle != "" {
		wizardOpts = append(wizardOpts, quoteflow.WithPreselect(opts.Vehicle))
	}
	w, err := quoteflow.New(app.Definition, wizardOpts...)
	if err != nil {
		return err
	}

	r := &quoteflow.Runner{
		Input:    NewInterruptibleReader(opts.Input, ctx.Done()),
		Output:   opts.Output,
		Headless: opts.Headless,
	}
	if !opts.Headless {
		if f, ok := opts.Output.(*os.File); ok {
			if tui.IsTerminal(f) {
				tui.PrintBanner(f)
			}
			r.Renderer = tui.RendererFor(f)
		}
	}

	logSessionStatus(app, opts, resumed)
	return handleExecutionError(r.Run(ctx, w))
}

func logSessionStatus(app *App, opts RunOptions, resumed bool) {
	if resumed {
		app.Logger.Info("session resumed", "session_id", opts.SessionID)
	} else {
		app.Logger.Info("session created", "session_id", opts.SessionID)
	}
	if opts.Headless {
		return
	}
	if resumed {
		printSystemMessage(opts.Output, "Resuming session '%s'...", opts.SessionID)
	} else {
		printSystemMessage(opts.Output, "Session '%s' active.", opts.SessionID)
	}
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

// errInterrupted is returned by InterruptibleReader once its context is done.
var errInterrupted = errors.New("interrupted")

// InterruptibleReader wraps an io.Reader (like os.Stdin) and checks for a cancellation signal.
type InterruptibleReader struct {
	base   io.Reader
	cancel <-chan struct{}
}

// NewInterruptibleReader wraps base so reads fail once cancel is closed.
func NewInterruptibleReader(base io.Reader, cancel <-chan struct{}) *InterruptibleReader {
	return &InterruptibleReader{base: base, cancel: cancel}
}

func (r *InterruptibleReader) Read(p []byte) (int, error) {
	select {
	case <-r.cancel:
		return 0, errInterrupted
	default:
	}

	n, err := r.base.Read(p)

	select {
	case <-r.cancel:
		return 0, errInterrupted
	default:
	}
	return n, err
}

// handleExecutionError treats interruptions as a clean exit.
func handleExecutionError(err error) error {
	if err == nil || errors.Is(err, errInterrupted) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
