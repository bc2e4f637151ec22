package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/quoteflow"
	"github.com/aretw0/quoteflow/internal/presentation/graph"
	"github.com/aretw0/quoteflow/pkg/domain"
)

// ListSessions prints the ids of the stored sessions.
func ListSessions(ctx context.Context, app *App, out io.Writer) error {
	ids, err := app.Sessions.List(ctx)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(out, "No active sessions found.")
		return nil
	}
	fmt.Fprintln(out, "Active Sessions:")
	for _, id := range ids {
		fmt.Fprintln(out, "- "+id)
	}
	return nil
}

// InspectSession prints the stored record of a session as indented JSON.
func InspectSession(ctx context.Context, app *App, id string, out io.Writer) error {
	sess, err := app.Sessions.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("load session '%s': %w", id, err)
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(out, string(data))
	return nil
}

// RemoveSessions deletes the given sessions, or every session when all is set.
// It keeps going after a failure and reports whether any removal failed.
func RemoveSessions(ctx context.Context, app *App, ids []string, all bool, out io.Writer) error {
	if all {
		listed, err := app.Sessions.List(ctx)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		ids = listed
	}

	failed := 0
	for _, id := range ids {
		if err := app.Sessions.Delete(ctx, id); err != nil {
			fmt.Fprintf(out, "Error removing '%s': %v\n", id, err)
			failed++
			continue
		}
		fmt.Fprintf(out, "Removed session '%s'\n", id)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d sessions could not be removed", failed, len(ids))
	}
	return nil
}

// Graph renders the definition as Mermaid. With a session id the steps are
// styled by that session's progress.
func Graph(ctx context.Context, app *App, sessionID string) (string, error) {
	if sessionID == "" {
		return graph.GenerateMermaid(app.Definition, nil), nil
	}

	sess, err := app.Sessions.Load(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("load session '%s': %w", sessionID, err)
	}
	w, err := quoteflow.New(app.Definition, quoteflow.WithSessionID(sessionID))
	if err != nil {
		return "", err
	}
	if !w.Resume(sess) {
		return "", fmt.Errorf("session '%s' was saved by an incompatible version", sessionID)
	}

	return graph.GenerateMermaid(app.Definition, Overlay(app.Definition, w.View())), nil
}

// Overlay derives the graph styling from a view: completed steps are
// visited, the active step is current and steps off the progress bar are hidden.
func Overlay(def *domain.Definition, view quoteflow.View) *graph.GraphOverlay {
	overlay := &graph.GraphOverlay{}
	visible := make(map[string]bool, len(view.Progress))
	for _, p := range view.Progress {
		visible[p.ID] = true
		switch p.Status {
		case quoteflow.ProgressComplete:
			overlay.VisitedSteps = append(overlay.VisitedSteps, p.ID)
		case quoteflow.ProgressCurrent:
			overlay.CurrentStep = p.ID
		}
	}
	if view.Step != nil && overlay.CurrentStep == "" {
		overlay.CurrentStep = view.Step.ID
	}
	for _, step := range def.Steps {
		if !visible[step.ID] {
			overlay.HiddenSteps = append(overlay.HiddenSteps, step.ID)
		}
	}
	return overlay
}
