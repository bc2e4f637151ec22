package quoteflow_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/aretw0/quoteflow"
	"github.com/aretw0/quoteflow/pkg/catalog"
	"github.com/cucumber/godog"
)

type wizardTestContext struct {
	wizard    *quoteflow.Wizard
	submitter *fakeSubmitter
	last      quoteflow.Result
	err       error
}

func (c *wizardTestContext) reset() {
	c.wizard = nil
	c.submitter = &fakeSubmitter{}
	c.last = quoteflow.Result{}
	c.err = nil
}

func (c *wizardTestContext) theQuoteCatalog(ctx context.Context) error {
	def, err := catalog.Load(quotePath)
	if err != nil {
		return err
	}
	c.wizard, err = quoteflow.New(def, quoteflow.WithSubmitter(c.submitter))
	if err != nil {
		return err
	}
	_, err = c.wizard.Start(ctx)
	return err
}

func (c *wizardTestContext) iSelectOn(ctx context.Context, productID, stepID string) error {
	c.last = c.wizard.Toggle(ctx, stepID, productID)
	if !c.last.Changed {
		return fmt.Errorf("selecting %s on %s changed nothing", productID, stepID)
	}
	return nil
}

func (c *wizardTestContext) iSetTheSelectionOfTo(ctx context.Context, stepID, productID string) error {
	c.last = c.wizard.SetSelection(ctx, stepID, []string{productID})
	return nil
}

func (c *wizardTestContext) iFillInMyDetailsForState(ctx context.Context, state string) error {
	fillContact(ctx, c.wizard, state)
	return nil
}

func (c *wizardTestContext) iSubmitTheQuote(ctx context.Context) error {
	c.last, c.err = c.wizard.Submit(ctx)
	return nil
}

func (c *wizardTestContext) theTotalPriceIs(price float64) error {
	if got := c.wizard.Totals().TotalPrice; got != price {
		return fmt.Errorf("expected total %g, got %g", price, got)
	}
	return nil
}

func (c *wizardTestContext) theVisibleStepsAre(list string) error {
	var got []string
	for _, p := range c.wizard.View().Progress {
		got = append(got, p.ID)
	}
	if strings.Join(got, ", ") != list {
		return fmt.Errorf("expected visible steps %q, got %q", list, strings.Join(got, ", "))
	}
	return nil
}

func (c *wizardTestContext) theStepWasCleared(stepID string) error {
	for _, id := range c.last.Cleared {
		if id == stepID {
			return nil
		}
	}
	return fmt.Errorf("expected %s to be cleared, cleared %v", stepID, c.last.Cleared)
}

func (c *wizardTestContext) nothingChanged() error {
	if c.last.Changed {
		return errors.New("expected no change")
	}
	return nil
}

func (c *wizardTestContext) theQuoteIsConfirmed() error {
	if c.err != nil {
		return fmt.Errorf("expected confirmation but got error: %v", c.err)
	}
	if c.last.View.Confirmation == nil {
		return errors.New("expected a confirmation")
	}
	return nil
}

func (c *wizardTestContext) theOrderGoesToWithItems(channel string, items int) error {
	if len(c.submitter.orders) != 1 {
		return fmt.Errorf("expected one order, got %d", len(c.submitter.orders))
	}
	order := c.submitter.orders[0]
	if order.Channel != channel {
		return fmt.Errorf("expected channel %s, got %s", channel, order.Channel)
	}
	if len(order.Items) != items {
		return fmt.Errorf("expected %d items, got %d", items, len(order.Items))
	}
	return nil
}

func (c *wizardTestContext) theSubmissionFailsWith(msg string) error {
	if c.err == nil {
		return errors.New("expected submission to fail but it succeeded")
	}
	if !strings.Contains(c.err.Error(), msg) {
		return fmt.Errorf("expected error containing %q, got %q", msg, c.err.Error())
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &wizardTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^the quote catalog$`, tc.theQuoteCatalog)

	// When steps
	ctx.Step(`^I select "([^"]*)" on "([^"]*)"$`, tc.iSelectOn)
	ctx.Step(`^I set the selection of "([^"]*)" to "([^"]*)"$`, tc.iSetTheSelectionOfTo)
	ctx.Step(`^I fill in my details for state "([^"]*)"$`, tc.iFillInMyDetailsForState)
	ctx.Step(`^I submit the quote$`, tc.iSubmitTheQuote)

	// Then steps
	ctx.Step(`^the total price is (\d+(?:\.\d+)?)$`, tc.theTotalPriceIs)
	ctx.Step(`^the visible steps are "([^"]*)"$`, tc.theVisibleStepsAre)
	ctx.Step(`^the step "([^"]*)" was cleared$`, tc.theStepWasCleared)
	ctx.Step(`^nothing changed$`, tc.nothingChanged)
	ctx.Step(`^the quote is confirmed$`, tc.theQuoteIsConfirmed)
	ctx.Step(`^the order goes to "([^"]*)" with (\d+) items$`, tc.theOrderGoesToWithItems)
	ctx.Step(`^the submission fails with "([^"]*)"$`, tc.theSubmissionFailsWith)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
