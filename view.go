package quoteflow

import (
	"github.com/aretw0/quoteflow/pkg/domain"
	"github.com/aretw0/quoteflow/pkg/schema"
)

// Status kinds.
const (
	StatusInfo  = "info"
	StatusError = "error"
)

// User facing messages.
const (
	MsgSelectOption   = "Select an option to continue."
	MsgCompleteFields = "Complete the required fields to submit."
	MsgEnrichFailed   = "We could not refresh pricing. Showing saved values."
	MsgNoLineItems    = "No products could be added to the draft order. Please review your selections."
	MsgSubmitFailed   = "We could not create a draft order. Please try again."
	MsgValueRejected  = "That value could not be saved. Check its length and characters."

	confirmationHeading = "Quote request sent"
	confirmationMessage = "Our team will be in touch soon with your full quote and lead times."
)

// Progress states of a step.
const (
	ProgressComplete = "complete"
	ProgressCurrent  = "current"
	ProgressUpcoming = "upcoming"
)

// Status is a transient banner message.
type Status struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ProgressStep is one entry of the progress bar.
type ProgressStep struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// Navigation describes which navigation controls apply.
type Navigation struct {
	CanGoPrevious   bool   `json:"canGoPrevious"`
	CanGoNext       bool   `json:"canGoNext"`
	IsLastStep      bool   `json:"isLastStep"`
	NextDisabled    bool   `json:"nextDisabled"`
	AccessibleIndex int    `json:"accessibleIndex"`
	BlockingMessage string `json:"blockingMessage,omitempty"`
}

// Form holds the values and the visible validation messages of the active form step.
type Form struct {
	Values map[string]string `json:"values"`
	Errors map[string]string `json:"errors"`
}

// SummaryEntry is one selected product in the summary.
type SummaryEntry struct {
	ProductID string   `json:"productId"`
	Name      string   `json:"name"`
	Year      string   `json:"year,omitempty"`
	Price     *float64 `json:"price,omitempty"`
}

// SummaryItem groups the selected products of one visible step.
type SummaryItem struct {
	StepID  string         `json:"stepId"`
	Label   string         `json:"label"`
	Entries []SummaryEntry `json:"entries"`
}

// Vehicle is the picker state of the anchor step.
type Vehicle struct {
	StepID    string                  `json:"stepId"`
	Selection domain.VehicleSelection `json:"selection"`
	Options   VehicleOptions          `json:"options"`
}

// Confirmation is shown after a successful submission.
type Confirmation struct {
	Heading   string `json:"heading"`
	Message   string `json:"message"`
	Reference string `json:"reference,omitempty"`
	OrderURL  string `json:"orderUrl,omitempty"`
}

// View is plain data describing what to render. It never aliases wizard state.
type View struct {
	SessionID    string                 `json:"sessionId"`
	Progress     []ProgressStep         `json:"progress"`
	ActiveIndex  int                    `json:"activeIndex"`
	Step         *domain.StepDefinition `json:"step,omitempty"`
	Products     domain.ProductGroups   `json:"products"`
	SelectedIDs  []string               `json:"selectedIds"`
	HelperText   string                 `json:"helperText,omitempty"`
	IsEmpty      bool                   `json:"isEmpty"`
	Navigation   Navigation             `json:"navigation"`
	Totals       domain.Totals          `json:"totals"`
	Summary      []SummaryItem          `json:"summary"`
	Channel      string                 `json:"channel"`
	ChannelLabel string                 `json:"channelLabel"`
	Form         Form                   `json:"form"`
	Status       *Status                `json:"status,omitempty"`
	Vehicle      *Vehicle               `json:"vehicle,omitempty"`
	Confirmation *Confirmation          `json:"confirmation,omitempty"`
}

// View builds the current view model.
func (w *Wizard) View() View {
	visible := w.engine.VisibleSteps()
	active := w.engine.ActiveIndex()

	v := View{
		SessionID:    w.sessionID,
		Progress:     make([]ProgressStep, 0, len(visible)),
		ActiveIndex:  active,
		Products:     domain.ProductGroups{Compatible: []domain.Product{}, Incompatible: []domain.Product{}},
		SelectedIDs:  []string{},
		Totals:       w.store.Totals(),
		Summary:      w.summary(visible),
		Channel:      w.channel,
		ChannelLabel: w.def.ChannelLabel(w.channel),
		Form:         Form{Values: map[string]string{}, Errors: map[string]string{}},
	}

	for i, step := range visible {
		status := ProgressUpcoming
		switch {
		case i < active:
			status = ProgressComplete
		case i == active:
			status = ProgressCurrent
		}
		v.Progress = append(v.Progress, ProgressStep{ID: step.ID, Title: step.Title, Status: status})
	}

	if w.status != nil {
		s := *w.status
		v.Status = &s
	}
	if w.submitted != nil {
		v.Confirmation = &Confirmation{
			Heading:   confirmationHeading,
			Message:   confirmationMessage,
			Reference: w.submitted.Reference,
			OrderURL:  w.submitted.OrderURL,
		}
	}
	if w.def.AnchorStepID != "" {
		v.Vehicle = &Vehicle{StepID: w.def.AnchorStepID, Selection: w.Vehicle(), Options: w.VehicleOptions()}
	}

	step, ok := w.engine.ActiveStep()
	if !ok {
		return v
	}
	v.Step = &step
	complete := w.isStepComplete(step)

	v.Navigation = Navigation{
		CanGoPrevious:   active > 0,
		CanGoNext:       active < len(visible)-1,
		IsLastStep:      active == len(visible)-1,
		NextDisabled:    !complete,
		AccessibleIndex: w.engine.AccessibleIndex(),
	}
	if !complete {
		switch {
		case step.SelectionMode == domain.ModeForm:
			v.Navigation.BlockingMessage = MsgCompleteFields
		case step.Required:
			v.Navigation.BlockingMessage = MsgSelectOption
		}
	}

	switch step.SelectionMode {
	case domain.ModeForm:
		v.Form = w.form(step)
	case domain.ModeSingle, domain.ModeMulti:
		v.Products = w.engine.ProductsForStep(step.ID)
		v.SelectedIDs = w.store.SelectedIDs(step.ID)
		v.IsEmpty = len(v.Products.Compatible) == 0
		if step.Required && !w.store.IsStepComplete(step) {
			v.HelperText = MsgSelectOption
		}
	}
	return v
}

func (w *Wizard) form(step domain.StepDefinition) Form {
	f := Form{Values: w.store.FieldValues(step.ID), Errors: map[string]string{}}
	for _, field := range w.schemas[step.ID] {
		if !w.showErrors && !w.touched[touchKey(step.ID, field.ID)] {
			continue
		}
		for id, msg := range schema.Messages(field.Check(f.Values[field.ID])) {
			f.Errors[id] = msg
		}
	}
	return f
}

func (w *Wizard) summary(visible []domain.StepDefinition) []SummaryItem {
	items := []SummaryItem{}
	vehicle := w.Vehicle()
	for _, step := range visible {
		products := w.store.SelectedProducts(step.ID)
		if len(products) == 0 {
			continue
		}
		item := SummaryItem{StepID: step.ID, Label: step.Title}
		for _, p := range products {
			entry := SummaryEntry{ProductID: p.ID, Name: p.Name, Price: p.Price}
			if entry.Name == "" {
				entry.Name = p.ID
			}
			if step.ID == w.def.AnchorStepID {
				entry.Year = vehicle.Year
			}
			item.Entries = append(item.Entries, entry)
		}
		items = append(items, item)
	}
	return items
}
