/*
Package quoteflow is a multi-step product configuration wizard for building quote requests.

A Wizard walks a customer through an authored list of steps (vehicle, accessories,
contact details...). Each step is either a product choice (single or multi select),
a form, or an informational page. Steps may be hidden until earlier answers satisfy
a visibility rule, and changing an upstream answer clears every downstream answer
that may no longer apply.

# Concept

The wizard is split in three layers:

  - pkg/selection owns the answers: selections, form values, totals and snapshots.
  - pkg/steps derives the visible step list, the active step and the accessible index.
  - Wizard (this package) translates user intents into calls against both, in a
    fixed order, and returns a View describing what to render.

Every intent returns a Result carrying the changed flag, the steps a cascade cleared
and a fresh View. Nothing is pushed to the caller; frontends re-render from the View.
The same Wizard drives the terminal Runner, the HTTP server and the MCP server.

# Channels

Orders are routed to a fulfilment channel. The channel is forced by configuration,
or chosen by a form field route (e.g. state == WA), or falls back to the default.
Products carry one variant id per channel; Submit only sends products with a variant
for the resolved channel.

# Usage

	def, err := catalog.Load("quote.yaml")
	if err != nil {
		log.Fatal(err)
	}

	w, err := quoteflow.New(def,
		quoteflow.WithSessionStore(file.New(".quoteflow/sessions")),
		quoteflow.WithSubmitter(client),
	)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	view, _ := w.Start(ctx)
	res := w.Toggle(ctx, view.Step.ID, "hilux-2020")
	res, err = w.Next(ctx)
*/
package quoteflow
