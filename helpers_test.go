package quoteflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aretw0/quoteflow"
	"github.com/aretw0/quoteflow/pkg/catalog"
	"github.com/aretw0/quoteflow/pkg/domain"
	"github.com/stretchr/testify/require"
)

const quotePath = "pkg/catalog/testdata/quote.yaml"

func loadQuote(t *testing.T) *domain.Definition {
	t.Helper()
	def, err := catalog.Load(quotePath)
	require.NoError(t, err)
	return def
}

func newWizard(t *testing.T, opts ...quoteflow.Option) *quoteflow.Wizard {
	t.Helper()
	w, err := quoteflow.New(loadQuote(t), opts...)
	require.NoError(t, err)
	_, err = w.Start(context.Background())
	require.NoError(t, err)
	return w
}

// fillContact sets a valid value on every contact field.
func fillContact(ctx context.Context, w *quoteflow.Wizard, state string) {
	values := map[string]string{
		"firstName": "Ada",
		"lastName":  "Lovelace",
		"email":     "ada@example.com",
		"phone":     "0400 000 000",
		"state":     state,
		"postcode":  "6000",
	}
	for field, value := range values {
		w.SetField(ctx, "contact", field, value)
	}
}

type fakeSubmitter struct {
	mu     sync.Mutex
	orders []domain.Order
	err    error
}

func (f *fakeSubmitter) Submit(ctx context.Context, order domain.Order) (domain.Confirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.Confirmation{}, f.err
	}
	f.orders = append(f.orders, order)
	return domain.Confirmation{Reference: "Q-1001", OrderURL: "https://shop.example.com/draft/1001"}, nil
}

type fakeEnricher struct {
	calls    int
	channels []string
	data     map[string]domain.Enrichment
	err      error
}

func (f *fakeEnricher) Enrich(ctx context.Context, channel string, variantIDs []string) (map[string]domain.Enrichment, error) {
	f.calls++
	f.channels = append(f.channels, channel)
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]domain.Enrichment)
	for _, id := range variantIDs {
		if e, ok := f.data[id]; ok {
			out[id] = e
		}
	}
	return out, nil
}

var errUpstream = errors.New("upstream unavailable")
