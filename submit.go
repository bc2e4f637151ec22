package quoteflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/quoteflow/pkg/domain"
	"github.com/aretw0/quoteflow/pkg/schema"
	"github.com/mitchellh/mapstructure"
)

// ErrNoSubmitter is returned by Submit when no submission channel is configured.
var ErrNoSubmitter = errors.New("no submitter configured")

// Submit validates every visible form step, resolves the channel, builds
// the order and hands it to the submitter.
//
// Errors: a wrapped domain.ErrFormInvalid (with the *schema.AggregateError)
// when fields are invalid, a wrapped domain.ErrNoLineItems when no selected
// product has a variant for the channel, or the submitter's error.
func (w *Wizard) Submit(ctx context.Context) (Result, error) {
	w.showErrors = true

	if err := w.validateForms(); err != nil {
		w.metrics.Submission(w.channel, err)
		return w.finish(ctx, "submit", true, nil), err
	}

	w.channel = w.resolveChannel(w.channel)
	items := w.store.LineItemsForChannel(w.channel)
	if len(items) == 0 {
		w.status = &Status{Kind: StatusError, Message: MsgNoLineItems}
		err := fmt.Errorf("channel %s: %w", w.channel, domain.ErrNoLineItems)
		w.metrics.Submission(w.channel, err)
		return w.finish(ctx, "submit", true, nil), err
	}

	if w.submitter == nil {
		return w.finish(ctx, "submit", true, nil), ErrNoSubmitter
	}

	order, err := w.buildOrder(items)
	if err != nil {
		return w.finish(ctx, "submit", true, nil), err
	}

	confirmation, err := w.submitter.Submit(ctx, order)
	w.metrics.Submission(w.channel, err)
	if err != nil {
		w.status = &Status{Kind: StatusError, Message: MsgSubmitFailed}
		w.logger.Warn("submission failed", "channel", w.channel, "err", err)
		return w.finish(ctx, "submit", true, nil), fmt.Errorf("failed to submit order: %w", err)
	}

	w.status = nil
	w.submitted = &confirmation
	w.logger.Info("order submitted", "channel", w.channel, "items", len(items), "reference", confirmation.Reference)
	return w.finish(ctx, "submit", true, nil), nil
}

// Order builds the order that Submit would send, without validating.
func (w *Wizard) Order() (domain.Order, error) {
	return w.buildOrder(w.store.LineItemsForChannel(w.channel))
}

func (w *Wizard) validateForms() error {
	var errs []error
	for _, step := range w.engine.VisibleSteps() {
		s, ok := w.schemas[step.ID]
		if !ok {
			continue
		}
		if err := schema.Validate(s, w.store.FieldValues(step.ID)); err != nil {
			errs = append(errs, schema.ValidationErrors(err)...)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", domain.ErrFormInvalid, &schema.AggregateError{Errors: errs})
}

func (w *Wizard) buildOrder(items []domain.ChannelLineItem) (domain.Order, error) {
	values := make(map[string]any)
	for _, step := range w.def.Steps {
		if step.SelectionMode != domain.ModeForm {
			continue
		}
		for k, v := range w.store.FieldValues(step.ID) {
			values[k] = v
		}
	}

	var customer domain.Customer
	if err := mapstructure.Decode(values, &customer); err != nil {
		return domain.Order{}, fmt.Errorf("failed to build customer: %w", err)
	}

	return domain.Order{
		Channel:  w.channel,
		Customer: customer,
		Items:    items,
		Meta: domain.OrderMeta{
			AnchorID:   w.engine.AnchorID(),
			Vehicle:    w.Vehicle(),
			Selections: w.store.Selections(),
		},
	}, nil
}
