package selection

import (
	"log/slog"

	"github.com/aretw0/quoteflow/internal/logging"
	"github.com/aretw0/quoteflow/pkg/domain"
)

// Store is the single source of truth for what a user has chosen.
// It indexes the catalog, records the chosen product ids per step and the
// free-form field values of form steps, and folds them into totals.
//
// A Store belongs to one session and is not safe for concurrent use.
// Every accessor returns a copy; no internal container ever escapes.
type Store struct {
	version string
	logger  *slog.Logger

	products     map[string]domain.Product
	productOrder []string

	selections map[string][]string
	stepOrder  []string
	fields     map[string]map[string]string
}

// Option configures a Store.
type Option func(*Store)

// WithVersion overrides the snapshot version marker accepted by Restore.
func WithVersion(version string) Option {
	return func(s *Store) {
		s.version = version
	}
}

// WithLogger sets the logger used for debug traces.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates an empty store indexing the given products.
func New(products []domain.Product, opts ...Option) *Store {
	s := &Store{
		version:  domain.SnapshotVersion,
		logger:   logging.NewNop(),
		products: make(map[string]domain.Product, len(products)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset()
	s.SetProducts(products)
	return s
}

// SetProducts merge-updates the catalog index by id. Products absent from
// the list are kept. New ids are appended to the catalog order. A product
// moved to another step leaves the selection of its old step.
func (s *Store) SetProducts(products []domain.Product) {
	moved := false
	for _, p := range products {
		if p.ID == "" {
			continue
		}
		existing, ok := s.products[p.ID]
		if !ok {
			s.products[p.ID] = p.Clone()
			s.productOrder = append(s.productOrder, p.ID)
			continue
		}
		merged := existing.Merge(p)
		moved = moved || merged.StepID != existing.StepID
		s.products[p.ID] = merged
	}
	if moved {
		s.dropMisplaced()
	}
}

// dropMisplaced removes selected ids whose product no longer belongs to the step.
func (s *Store) dropMisplaced() {
	for _, stepID := range append([]string(nil), s.stepOrder...) {
		ids := s.selections[stepID]
		kept := make([]string, 0, len(ids))
		for _, id := range ids {
			if s.belongsTo(id, stepID) {
				kept = append(kept, id)
			}
		}
		if len(kept) != len(ids) {
			s.logger.Debug("moved products deselected", "step", stepID, "kept", kept)
			s.put(stepID, kept)
		}
	}
}

// Toggle flips productID within stepID.
//
// In multi mode the id is added or removed. In single mode reclicking the
// sole selection clears the step, otherwise the selection becomes exactly
// the id. Unknown ids, products of another step and steps that do not hold
// products are ignored. It reports whether the selection changed.
func (s *Store) Toggle(stepID, productID string, mode domain.SelectionMode) bool {
	if !s.belongsTo(productID, stepID) {
		return false
	}

	current := s.selections[stepID]
	switch mode {
	case domain.ModeMulti:
		idx := indexOf(current, productID)
		if idx >= 0 {
			next := make([]string, 0, len(current)-1)
			next = append(next, current[:idx]...)
			next = append(next, current[idx+1:]...)
			s.put(stepID, next)
		} else {
			s.put(stepID, append(append([]string(nil), current...), productID))
		}
	case domain.ModeSingle:
		if len(current) == 1 && current[0] == productID {
			s.put(stepID, nil)
		} else {
			s.put(stepID, []string{productID})
		}
	default:
		return false
	}

	s.logger.Debug("selection toggled", "step", stepID, "product", productID, "mode", mode)
	return true
}

// SetSelection replaces the selection of stepID.
//
// A nil or empty list clears the step. Unknown ids are filtered out; when
// filtering leaves nothing from a non-empty request the call is a no-op.
// It reports whether the selection changed.
func (s *Store) SetSelection(stepID string, productIDs []string) bool {
	before := s.selections[stepID]

	if len(productIDs) == 0 {
		if len(before) == 0 {
			return false
		}
		s.put(stepID, nil)
		return true
	}

	filtered := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		if s.belongsTo(id, stepID) && indexOf(filtered, id) < 0 {
			filtered = append(filtered, id)
		}
	}
	if len(filtered) == 0 {
		s.logger.Debug("selection ignored, no known products", "step", stepID, "requested", productIDs)
		return false
	}
	if equalIDs(before, filtered) {
		return false
	}
	s.put(stepID, filtered)
	return true
}

// ClearSelectionsFrom deletes the selections and field values of every step
// at or after index in ordered. It returns the ids of the steps that held
// something.
func (s *Store) ClearSelectionsFrom(index int, ordered []domain.StepDefinition) []string {
	if index < 0 {
		index = 0
	}
	var cleared []string
	for i := index; i < len(ordered); i++ {
		stepID := ordered[i].ID
		_, hadSelection := s.selections[stepID]
		_, hadFields := s.fields[stepID]
		if !hadSelection && !hadFields {
			continue
		}
		s.put(stepID, nil)
		delete(s.fields, stepID)
		cleared = append(cleared, stepID)
	}
	if len(cleared) > 0 {
		s.logger.Debug("downstream selections cleared", "steps", cleared)
	}
	return cleared
}

// SetFieldValue records a form value. Last write wins. It reports whether
// the stored value changed.
func (s *Store) SetFieldValue(stepID, fieldID, value string) bool {
	values, ok := s.fields[stepID]
	if !ok {
		values = make(map[string]string)
		s.fields[stepID] = values
	}
	if prev, exists := values[fieldID]; exists && prev == value {
		return false
	}
	values[fieldID] = value
	return true
}

// FieldValues returns a copy of the field values recorded for stepID.
func (s *Store) FieldValues(stepID string) map[string]string {
	values := s.fields[stepID]
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}

// FieldValue returns a single recorded value, or "".
func (s *Store) FieldValue(stepID, fieldID string) string {
	return s.fields[stepID][fieldID]
}

// IsStepComplete reports whether step is satisfied by the recorded selections.
// Form and informational steps are always complete here; form validation is
// layered on top by the caller.
func (s *Store) IsStepComplete(step domain.StepDefinition) bool {
	switch step.SelectionMode {
	case domain.ModeNone, domain.ModeForm:
		return true
	}
	picked := len(s.selections[step.ID])
	if picked == 0 {
		return !step.Required
	}
	if step.SelectionMode == domain.ModeSingle {
		return picked == 1
	}
	return true
}

// Totals folds price and weight over every recorded selection. Missing
// numbers count as zero. The result is computed fresh on every call.
func (s *Store) Totals() domain.Totals {
	totals := domain.Totals{LineItems: []domain.LineItem{}}
	for _, stepID := range s.stepOrder {
		for _, id := range s.selections[stepID] {
			p, ok := s.products[id]
			if !ok {
				continue
			}
			totals.TotalPrice += p.PriceOrZero()
			totals.TotalWeight += p.WeightOrZero()
			totals.LineItems = append(totals.LineItems, domain.LineItem{StepID: stepID, ProductID: id})
		}
	}
	return totals
}

// LineItemsForChannel maps every recorded selection to its variant id in
// channel. Products without a variant for the channel are skipped; an
// empty result is for the caller to report.
func (s *Store) LineItemsForChannel(channel string) []domain.ChannelLineItem {
	items := []domain.ChannelLineItem{}
	for _, item := range s.Totals().LineItems {
		variant, ok := s.products[item.ProductID].VariantFor(channel)
		if !ok {
			s.logger.Debug("product has no variant for channel", "product", item.ProductID, "channel", channel)
			continue
		}
		items = append(items, domain.ChannelLineItem{VariantID: variant, Quantity: 1})
	}
	return items
}

// Serialize captures the selection state as a versioned snapshot.
func (s *Store) Serialize() domain.Snapshot {
	snap := domain.Snapshot{
		Version:        s.version,
		StepSelections: make(map[string][]string, len(s.selections)),
		FieldValues:    make(map[string]map[string]string, len(s.fields)),
	}
	for step, ids := range s.selections {
		snap.StepSelections[step] = append([]string(nil), ids...)
	}
	for step := range s.fields {
		snap.FieldValues[step] = s.FieldValues(step)
	}
	return snap
}

// Restore replaces the state with snap. A snapshot with a different version
// marker is discarded and the current state stands. Product ids unknown to
// the catalog are dropped. It reports whether the snapshot was adopted.
func (s *Store) Restore(snap domain.Snapshot) bool {
	if snap.Version != s.version {
		s.logger.Debug("snapshot discarded", "version", snap.Version, "want", s.version)
		return false
	}

	s.Reset()
	for _, stepID := range s.restoreOrder(snap.StepSelections) {
		var kept []string
		for _, id := range snap.StepSelections[stepID] {
			if s.belongsTo(id, stepID) && indexOf(kept, id) < 0 {
				kept = append(kept, id)
			}
		}
		s.put(stepID, kept)
	}
	for stepID, values := range snap.FieldValues {
		for fieldID, value := range values {
			s.SetFieldValue(stepID, fieldID, value)
		}
	}
	return true
}

// Reset clears every selection and field value. The catalog is kept.
func (s *Store) Reset() {
	s.selections = make(map[string][]string)
	s.stepOrder = nil
	s.fields = make(map[string]map[string]string)
}

// SelectedIDs returns a copy of the ids recorded for stepID.
func (s *Store) SelectedIDs(stepID string) []string {
	return append([]string{}, s.selections[stepID]...)
}

// IsSelected reports whether productID is recorded under stepID.
func (s *Store) IsSelected(stepID, productID string) bool {
	return indexOf(s.selections[stepID], productID) >= 0
}

// SelectedProducts returns copies of the products recorded for stepID.
func (s *Store) SelectedProducts(stepID string) []domain.Product {
	ids := s.selections[stepID]
	out := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out = append(out, p.Clone())
		}
	}
	return out
}

// Selections returns a copy of every recorded selection.
func (s *Store) Selections() map[string][]string {
	return s.Serialize().StepSelections
}

// Product returns a copy of the catalog entry with the given id.
func (s *Store) Product(id string) (domain.Product, bool) {
	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, false
	}
	return p.Clone(), true
}

// Products returns copies of the whole catalog in insertion order.
func (s *Store) Products() []domain.Product {
	out := make([]domain.Product, 0, len(s.productOrder))
	for _, id := range s.productOrder {
		out = append(out, s.products[id].Clone())
	}
	return out
}

// ProductsForStep returns copies of the catalog entries of stepID in
// insertion order.
func (s *Store) ProductsForStep(stepID string) []domain.Product {
	var out []domain.Product
	for _, id := range s.productOrder {
		if p := s.products[id]; p.StepID == stepID {
			out = append(out, p.Clone())
		}
	}
	return out
}

func (s *Store) belongsTo(productID, stepID string) bool {
	p, ok := s.products[productID]
	return ok && p.StepID == stepID
}

// put stores ids under stepID, deleting the key when ids is empty.
func (s *Store) put(stepID string, ids []string) {
	if len(ids) == 0 {
		if _, ok := s.selections[stepID]; ok {
			delete(s.selections, stepID)
			s.stepOrder = removeID(s.stepOrder, stepID)
		}
		return
	}
	if _, ok := s.selections[stepID]; !ok {
		s.stepOrder = append(s.stepOrder, stepID)
	}
	s.selections[stepID] = ids
}

// restoreOrder lists snapshot steps by the catalog position of their first
// product, so restored totals enumerate in catalog order.
func (s *Store) restoreOrder(selections map[string][]string) []string {
	order := make([]string, 0, len(selections))
	for _, id := range s.productOrder {
		stepID := s.products[id].StepID
		if _, ok := selections[stepID]; ok && indexOf(order, stepID) < 0 {
			order = append(order, stepID)
		}
	}
	return order
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func removeID(ids []string, id string) []string {
	idx := indexOf(ids, id)
	if idx < 0 {
		return ids
	}
	return append(ids[:idx:idx], ids[idx+1:]...)
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
