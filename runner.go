package quoteflow

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aretw0/quoteflow/pkg/domain"
)

// Runner drives a Wizard from line based input.
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer
}

// ContentRenderer transforms step descriptions before they are printed.
type ContentRenderer func(string) (string, error)

// NewRunner creates a new Runner. Input and Output must be set before Run.
func NewRunner() *Runner {
	return &Runner{}
}

const runnerHelp = `Commands:
  <n>               toggle product n of the current step
  field=value       set a form field
  make|model|year X pick a vehicle
  next, back        move between steps
  jump <n>          jump to step n
  submit, restart, help, quit`

// Run renders the wizard and applies commands until quit, EOF or a successful submission.
func (r *Runner) Run(ctx context.Context, w *Wizard) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lines := bufio.NewReader(r.Input)
	out := r.Output

	view, err := w.Start(ctx)
	if err != nil {
		return fmt.Errorf("start error: %w", err)
	}

	if !r.Headless {
		fmt.Fprintln(out, "--- Quoteflow ---")
	}

	lastStep := ""
	for {
		if view.Step != nil && view.Step.ID != lastStep {
			r.renderStep(view)
			lastStep = view.Step.ID
		} else {
			r.renderState(view)
		}
		if view.Confirmation != nil {
			fmt.Fprintf(out, "%s\n%s\n", view.Confirmation.Heading, view.Confirmation.Message)
			if view.Confirmation.OrderURL != "" {
				fmt.Fprintln(out, view.Confirmation.OrderURL)
			}
			return nil
		}

		if !r.Headless {
			fmt.Fprint(out, "> ")
		}
		text, err := lines.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || strings.TrimSpace(text) == "") {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}

		input := strings.TrimSpace(text)
		if input == "exit" || input == "quit" {
			fmt.Fprintln(out, "Bye!")
			return nil
		}

		next, err := r.apply(ctx, w, view, input)
		switch {
		case errors.Is(err, domain.ErrStepIncomplete):
			fmt.Fprintln(out, view.Navigation.BlockingMessage)
		case errors.Is(err, domain.ErrFormInvalid):
			fmt.Fprintln(out, MsgCompleteFields)
		case err != nil:
			fmt.Fprintln(out, "Error:", err)
		}
		if next.Step != nil && lastStep == next.Step.ID && next.Step.SelectionMode == domain.ModeForm {
			r.renderErrors(next)
		}
		view = next
	}
}

func (r *Runner) apply(ctx context.Context, w *Wizard, view View, input string) (View, error) {
	cmd, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(cmd) {
	case "", "help", "?":
		fmt.Fprintln(r.Output, runnerHelp)
		return view, nil
	case "next", "n":
		res, err := w.Next(ctx)
		return res.View, err
	case "back", "b", "previous":
		return w.Previous(ctx).View, nil
	case "jump":
		n, err := strconv.Atoi(arg)
		if err != nil {
			return view, fmt.Errorf("jump expects a step number: %w", err)
		}
		return w.JumpTo(ctx, n-1).View, nil
	case "restart":
		return w.Restart(ctx).View, nil
	case "submit":
		res, err := w.Submit(ctx)
		return res.View, err
	case FieldMake:
		return w.SetVehicleMake(ctx, arg).View, nil
	case FieldModel:
		return w.SetVehicleModel(ctx, arg).View, nil
	case FieldYear:
		return w.SetVehicleYear(ctx, arg).View, nil
	}

	if view.Step == nil {
		return view, nil
	}
	if field, value, ok := strings.Cut(input, "="); ok {
		stepID, field := view.Step.ID, strings.TrimSpace(field)
		w.SetField(ctx, stepID, field, strings.TrimSpace(value))
		return w.Blur(ctx, stepID, field).View, nil
	}
	if n, err := strconv.Atoi(cmd); err == nil {
		var products []domain.Product
		products = append(products, view.Products.Compatible...)
		products = append(products, view.Products.Incompatible...)
		if n < 1 || n > len(products) {
			return view, fmt.Errorf("no product %d", n)
		}
		return w.Toggle(ctx, view.Step.ID, products[n-1].ID).View, nil
	}
	return view, fmt.Errorf("unknown command %q (type help)", input)
}

func (r *Runner) renderStep(view View) {
	out := r.Output
	step := view.Step
	fmt.Fprintf(out, "\n[%d/%d] %s\n", view.ActiveIndex+1, len(view.Progress), titleOf(*step))
	if step.Description != "" {
		desc := step.Description
		if r.Renderer != nil {
			if rendered, err := r.Renderer(desc); err == nil {
				desc = rendered
			}
		}
		fmt.Fprintln(out, strings.TrimSpace(desc))
	}
	r.renderState(view)
}

func (r *Runner) renderState(view View) {
	out := r.Output
	if view.Status != nil {
		fmt.Fprintf(out, "(%s) %s\n", view.Status.Kind, view.Status.Message)
	}
	if view.Step == nil {
		fmt.Fprintln(out, "Nothing to configure.")
		return
	}

	switch view.Step.SelectionMode {
	case domain.ModeForm:
		for _, f := range view.Step.Fields {
			fmt.Fprintf(out, "  %s = %s\n", f.ID, view.Form.Values[f.ID])
		}
	case domain.ModeSingle, domain.ModeMulti:
		if view.Vehicle != nil && view.Step.ID == view.Vehicle.StepID {
			v := view.Vehicle.Selection
			fmt.Fprintf(out, "  vehicle: make=%q model=%q year=%q\n", v.Make, v.Model, v.Year)
		}
		n := 1
		for g, group := range [][]domain.Product{view.Products.Compatible, view.Products.Incompatible} {
			for _, p := range group {
				mark := " "
				if contains(view.SelectedIDs, p.ID) {
					mark = "x"
				}
				line := fmt.Sprintf("  %d. [%s] %s", n, mark, nameOf(p))
				if p.Price != nil {
					line += fmt.Sprintf(" (%g)", *p.Price)
				}
				if g == 1 {
					line += " - not compatible"
				}
				fmt.Fprintln(out, line)
				n++
			}
		}
		if view.IsEmpty {
			fmt.Fprintln(out, "  No compatible products. Go back to change your choices.")
		}
		if view.HelperText != "" {
			fmt.Fprintln(out, view.HelperText)
		}
	}
	fmt.Fprintf(out, "Total: %g (%s)\n", view.Totals.TotalPrice, view.ChannelLabel)
}

func (r *Runner) renderErrors(view View) {
	for _, f := range view.Step.Fields {
		if msg, ok := view.Form.Errors[f.ID]; ok {
			fmt.Fprintf(r.Output, "  %s: %s\n", f.ID, msg)
		}
	}
}

func titleOf(step domain.StepDefinition) string {
	if step.Title != "" {
		return step.Title
	}
	return step.ID
}

func nameOf(p domain.Product) string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}
