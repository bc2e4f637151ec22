package loam

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/quoteflow/internal/logging"
	"github.com/aretw0/quoteflow/pkg/domain"
)

// Source adapts a Loam repository of product documents to ports.CatalogSource.
type Source struct {
	Repo   *loam.TypedRepository[ProductMetadata]
	logger *slog.Logger
}

// Option configures a Source.
type Option func(*Source)

// WithLogger sets the logger used for skipped documents and watch events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		s.logger = logger
	}
}

// New creates a new Loam catalog source.
func New(repo *loam.TypedRepository[ProductMetadata], opts ...Option) *Source {
	s := &Source{Repo: repo}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	return s
}

// Open initialises a read-only, strict Loam repository at dir.
func Open(dir string, opts ...Option) (*Source, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}
	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}
	return New(loam.NewTypedRepository[ProductMetadata](repo), opts...), nil
}

// Products lists every product document, ordered by the order field and
// then by id. Two documents resolving to the same id are an error.
func (s *Source) Products(ctx context.Context) ([]domain.Product, error) {
	docs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	type entry struct {
		order   float64
		product domain.Product
	}
	seen := make(map[string]string)
	entries := make([]entry, 0, len(docs))

	for _, doc := range docs {
		product, err := decodeProduct(doc.ID, doc.Data, doc.Content)
		if err != nil {
			return nil, err
		}
		if product.StepID == "" {
			s.logger.Debug("document without step skipped", "doc", doc.ID)
			continue
		}
		if existing, ok := seen[product.ID]; ok {
			return nil, fmt.Errorf("collision detected: product '%s' is defined in both '%s' and '%s'", product.ID, existing, doc.ID)
		}
		seen[product.ID] = doc.ID

		order, err := toFloat(doc.Data.Order)
		if err != nil {
			return nil, fmt.Errorf("product %s: order: %w", product.ID, err)
		}
		e := entry{product: product}
		if order != nil {
			e.order = *order
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].order != entries[j].order {
			return entries[i].order < entries[j].order
		}
		return entries[i].product.ID < entries[j].product.ID
	})

	products := make([]domain.Product, len(entries))
	for i, e := range entries {
		products[i] = e.product
	}
	return products, nil
}

// Product loads a single document. Loam resolves "canopy-std" to canopy-std.md.
func (s *Source) Product(ctx context.Context, id string) (domain.Product, error) {
	doc, err := s.Repo.Get(ctx, id)
	if err != nil {
		return domain.Product{}, fmt.Errorf("loam get failed for %s: %w", id, err)
	}
	return decodeProduct(doc.ID, doc.Data, doc.Content)
}

// Watch implements ports.Watchable. It emits the id of every changed document.
func (s *Source) Watch(ctx context.Context) (<-chan string, error) {
	events, err := s.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				s.logger.Debug("catalog document changed", "doc", evt.ID)
				select {
				case ch <- trimExtension(evt.ID):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

func decodeProduct(docID string, meta ProductMetadata, content string) (domain.Product, error) {
	id := meta.ID
	if id == "" {
		id = trimExtension(docID)
	}
	p := domain.Product{
		ID:             id,
		StepID:         meta.StepID,
		Name:           meta.Name,
		Image:          meta.Image,
		Handle:         meta.Handle,
		Description:    strings.TrimSpace(content),
		Make:           meta.Make,
		Model:          meta.Model,
		CompatibleWith: meta.CompatibleWith,
	}

	var err error
	if p.Price, err = toFloat(meta.Price); err != nil {
		return domain.Product{}, fmt.Errorf("product %s: price: %w", p.ID, err)
	}
	if p.Weight, err = toFloat(meta.Weight); err != nil {
		return domain.Product{}, fmt.Errorf("product %s: weight: %w", p.ID, err)
	}
	stock, err := toFloat(meta.Stock)
	if err != nil {
		return domain.Product{}, fmt.Errorf("product %s: stock: %w", p.ID, err)
	}
	if stock != nil {
		n := int(*stock)
		p.Stock = &n
	}

	for _, y := range meta.Years {
		p.Years = append(p.Years, fmt.Sprint(y))
	}
	if len(meta.Variants) > 0 {
		p.Variants = make(map[string]string, len(meta.Variants))
		for channel, v := range meta.Variants {
			if v != nil {
				p.Variants[channel] = fmt.Sprint(v)
			}
		}
	}
	return p, nil
}

// toFloat accepts the numeric shapes a document decoder may produce.
func toFloat(value any) (*float64, error) {
	var f float64
	switch v := value.(type) {
	case nil:
		return nil, nil
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return nil, err
		}
		f = parsed
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint64:
		f = float64(v)
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", v)
		}
		f = parsed
	default:
		return nil, fmt.Errorf("unsupported type %T", value)
	}
	return &f, nil
}

// trimExtension strips the document extensions Loam understands.
func trimExtension(id string) string {
	switch ext := filepath.Ext(id); ext {
	case ".md", ".json", ".yaml", ".yml":
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
