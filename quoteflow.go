package quoteflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/quoteflow/internal/logging"
	"github.com/aretw0/quoteflow/pkg/domain"
	"github.com/aretw0/quoteflow/pkg/observability"
	"github.com/aretw0/quoteflow/pkg/ports"
	"github.com/aretw0/quoteflow/pkg/schema"
	"github.com/aretw0/quoteflow/pkg/selection"
	"github.com/aretw0/quoteflow/pkg/session"
	"github.com/aretw0/quoteflow/pkg/steps"
)

// Wizard is the high-level entry point for the quoteflow library.
// It owns one session's selection store and step engine and translates
// intents into calls against them in a fixed order.
//
// Wizard is not safe for concurrent use; serialise intents per session
// (session.Manager does this for servers).
type Wizard struct {
	def     *domain.Definition
	store   *selection.Store
	engine  *steps.Engine
	schemas map[string]schema.Schema

	sessionID string
	sessions  ports.SessionStore
	source    ports.CatalogSource
	enricher  ports.Enricher
	submitter ports.Submitter
	metrics   *observability.Metrics
	logger    *slog.Logger

	forcedChannel string
	preselect     string
	channel       string

	touched    map[string]bool
	showErrors bool
	status     *Status
	submitted  *domain.Confirmation
}

// Option defines a functional option for configuring the Wizard.
type Option func(*Wizard)

// WithSessionID sets the id used for persistence. A random id is generated otherwise.
func WithSessionID(id string) Option {
	return func(w *Wizard) {
		w.sessionID = id
	}
}

// WithSessionStore persists the session after every intent.
func WithSessionStore(store ports.SessionStore) Option {
	return func(w *Wizard) {
		w.sessions = store
	}
}

// WithCatalogSource merges products from source over the definition's catalog on Start and Reload.
func WithCatalogSource(source ports.CatalogSource) Option {
	return func(w *Wizard) {
		w.source = source
	}
}

// WithEnricher refreshes product data for the current channel.
func WithEnricher(enricher ports.Enricher) Option {
	return func(w *Wizard) {
		w.enricher = enricher
	}
}

// WithSubmitter sets the channel that receives finalised orders.
func WithSubmitter(submitter ports.Submitter) Option {
	return func(w *Wizard) {
		w.submitter = submitter
	}
}

// WithForcedChannel pins the channel, bypassing field based routing.
func WithForcedChannel(channel string) Option {
	return func(w *Wizard) {
		w.forcedChannel = channel
	}
}

// WithPreselect selects an anchor product on Start when it exists.
func WithPreselect(productID string) Option {
	return func(w *Wizard) {
		w.preselect = productID
	}
}

// WithMetrics records intents and submissions.
func WithMetrics(m *observability.Metrics) Option {
	return func(w *Wizard) {
		w.metrics = m
	}
}

// WithLogger sets a custom structured logger for the wizard.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Wizard) {
		w.logger = logger
	}
}

// New builds a wizard over def. The wizard starts empty; call Start to
// restore a persisted session and enrich, or Resume to adopt a record.
func New(def *domain.Definition, opts ...Option) (*Wizard, error) {
	if def == nil || len(def.Steps) == 0 {
		return nil, errors.New("definition has no steps")
	}

	w := &Wizard{
		def:     def,
		schemas: make(map[string]schema.Schema),
		touched: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logging.NewNop()
	}
	if w.sessionID == "" {
		w.sessionID = session.NewID()
	}
	w.logger = w.logger.With("session_id", w.sessionID)

	for _, step := range def.Steps {
		if step.SelectionMode != domain.ModeForm {
			continue
		}
		s, err := schema.FromStep(step)
		if err != nil {
			return nil, fmt.Errorf("invalid form step %q: %w", step.ID, err)
		}
		w.schemas[step.ID] = s
	}

	w.store = selection.New(def.Products, selection.WithLogger(w.logger))
	w.engine = steps.New(def.Steps, w.store,
		steps.WithAnchorStep(def.AnchorStepID),
		steps.WithCompletion(w.isStepComplete),
		steps.WithLogger(w.logger),
	)
	w.channel = w.resolveChannel("")
	return w, nil
}

// Start prepares the wizard for a visit: merges the catalog source, restores
// the persisted session (if any), applies the preselected anchor product,
// routes the channel and enriches. Enrichment failures only set a status.
func (w *Wizard) Start(ctx context.Context) (View, error) {
	if w.source != nil {
		if err := w.Reload(ctx); err != nil {
			return View{}, err
		}
	}

	if w.sessions != nil {
		sess, err := w.sessions.Load(ctx, w.sessionID)
		switch {
		case err == nil:
			if !w.Resume(sess) {
				w.logger.Info("persisted session discarded", "version", sess.Snapshot.Version)
			}
		case errors.Is(err, domain.ErrSessionNotFound):
		default:
			w.logger.Warn("failed to load session, starting fresh", "err", err)
		}
	}

	w.applyPreselect()
	w.channel = w.resolveChannel(w.channel)
	w.engine.Recompute()

	_ = w.Enrich(ctx)
	w.persist(ctx)
	w.metrics.StepViewed(w.activeStepID())
	return w.View(), nil
}

// Reload merges products from the catalog source into the store.
func (w *Wizard) Reload(ctx context.Context) error {
	if w.source == nil {
		return nil
	}
	products, err := w.source.Products(ctx)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	w.store.SetProducts(products)
	w.engine.Recompute()
	return nil
}

// Resume adopts a stored session. A snapshot with a foreign version is
// discarded as a whole and the wizard stays fresh. It reports whether the
// record was adopted.
func (w *Wizard) Resume(sess *domain.Session) bool {
	if sess == nil || !w.store.Restore(sess.Snapshot) {
		return false
	}

	w.channel = w.resolveChannel(sess.Channel)
	w.showErrors = sess.ShowErrors
	w.touched = make(map[string]bool, len(sess.Touched))
	for _, key := range sess.Touched {
		w.touched[key] = true
	}
	w.submitted = nil
	if sess.Submitted != nil {
		c := *sess.Submitted
		w.submitted = &c
	}

	w.engine.Recompute()
	w.engine.SetActiveByID(sess.ActiveStepID)
	return true
}

// Session returns the persistable record of the current state.
func (w *Wizard) Session() *domain.Session {
	sess := &domain.Session{
		ID:           w.sessionID,
		Snapshot:     w.store.Serialize(),
		Channel:      w.channel,
		ActiveStepID: w.activeStepID(),
		ShowErrors:   w.showErrors,
	}
	for key := range w.touched {
		sess.Touched = append(sess.Touched, key)
	}
	sortStrings(sess.Touched)
	if w.submitted != nil {
		c := *w.submitted
		sess.Submitted = &c
	}
	return sess
}

// SessionID returns the id the wizard persists under.
func (w *Wizard) SessionID() string {
	return w.sessionID
}

// Definition returns the definition the wizard was built from.
func (w *Wizard) Definition() *domain.Definition {
	return w.def
}

// Channel returns the channel orders would currently be routed to.
func (w *Wizard) Channel() string {
	return w.channel
}

// Totals returns the running totals of the current selections.
func (w *Wizard) Totals() domain.Totals {
	return w.store.Totals()
}

// Enrich refreshes product data for the current channel and merges it into
// the catalog by product id. On failure the saved values stay in place and
// an error status is set.
func (w *Wizard) Enrich(ctx context.Context) error {
	if w.enricher == nil {
		return nil
	}

	channel := w.channel
	byVariant := make(map[string][]string)
	var variantIDs []string
	for _, p := range w.store.Products() {
		variant, ok := p.VariantFor(channel)
		if !ok {
			continue
		}
		if _, seen := byVariant[variant]; !seen {
			variantIDs = append(variantIDs, variant)
		}
		byVariant[variant] = append(byVariant[variant], p.ID)
	}
	if len(variantIDs) == 0 {
		w.logger.Debug("no variant ids for enrichment", "channel", channel)
		return nil
	}

	enriched, err := w.enricher.Enrich(ctx, channel, variantIDs)
	if err != nil {
		w.status = &Status{Kind: StatusError, Message: MsgEnrichFailed}
		w.logger.Warn("enrichment failed", "channel", channel, "err", err)
		return fmt.Errorf("failed to enrich products for %s: %w", channel, err)
	}

	var updates []domain.Product
	for variant, e := range enriched {
		for _, id := range byVariant[variant] {
			updates = append(updates, e.Apply(id))
		}
	}
	w.store.SetProducts(updates)
	if w.status != nil && w.status.Message == MsgEnrichFailed {
		w.status = nil
	}
	w.logger.Debug("products enriched", "channel", channel, "variants", len(enriched))
	return nil
}

func (w *Wizard) isStepComplete(step domain.StepDefinition) bool {
	if step.SelectionMode == domain.ModeForm {
		return schema.IsComplete(w.schemas[step.ID], w.store.FieldValues(step.ID))
	}
	return w.store.IsStepComplete(step)
}

// resolveChannel applies the forced channel, then field routes, then fallback.
func (w *Wizard) resolveChannel(fallback string) string {
	if w.forcedChannel != "" {
		return w.def.NormaliseChannel(w.forcedChannel)
	}
	for _, r := range w.def.Routes {
		value := strings.TrimSpace(w.store.FieldValue(r.StepID, r.FieldID))
		if value != "" && strings.EqualFold(value, r.Equals) {
			return w.def.NormaliseChannel(r.Channel)
		}
	}
	if fallback == "" {
		fallback = w.def.DefaultChannel
	}
	return w.def.NormaliseChannel(fallback)
}

func (w *Wizard) isRouted(stepID, fieldID string) bool {
	for _, r := range w.def.Routes {
		if r.StepID == stepID && r.FieldID == fieldID {
			return true
		}
	}
	return false
}

func (w *Wizard) activeStepID() string {
	if step, ok := w.engine.ActiveStep(); ok {
		return step.ID
	}
	return ""
}

func (w *Wizard) persist(ctx context.Context) {
	if w.sessions == nil {
		return
	}
	if err := w.sessions.Save(ctx, w.sessionID, w.Session()); err != nil {
		w.logger.Warn("failed to persist session", "err", err)
	}
}
