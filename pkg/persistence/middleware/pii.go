package middleware

import (
	"context"
	"regexp"
	"sync"

	"github.com/aretw0/quoteflow/pkg/domain"
	"github.com/aretw0/quoteflow/pkg/ports"
)

// Mask replaces redacted field values in storage.
const Mask = "***"

// DefaultPIIFields matches the contact fields collected by quote forms.
var DefaultPIIFields = []string{`(?i)name$`, `(?i)^email$`, `(?i)^phone$`}

type piiMiddleware struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp

	mu sync.Mutex
	// vault holds the unmasked values of this process: session -> step -> field.
	vault map[string]map[string]map[string]string
}

// NewPIIMiddleware creates a middleware that masks form field values whose
// field id matches one of the patterns. Only the store sees the mask: the
// real values are kept in process memory and restored on load, so a session
// served by the same process keeps them across requests. A process that
// never saw the values (a restart, another replica) drops masked values on
// load and the form asks for them again.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		patterns[i] = re
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &piiMiddleware{
			next:     next,
			patterns: patterns,
			vault:    make(map[string]map[string]map[string]string),
		}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, session *domain.Session) error {
	// Clone so the live session keeps its values.
	cloned := session.Clone()
	kept := make(map[string]map[string]string)
	for stepID, fields := range cloned.Snapshot.FieldValues {
		for fieldID, value := range fields {
			if !m.sensitive(fieldID) {
				continue
			}
			if kept[stepID] == nil {
				kept[stepID] = make(map[string]string)
			}
			kept[stepID][fieldID] = value
			fields[fieldID] = Mask
		}
	}
	if err := m.next.Save(ctx, sessionID, cloned); err != nil {
		return err
	}

	m.mu.Lock()
	if len(kept) == 0 {
		delete(m.vault, sessionID)
	} else {
		m.vault[sessionID] = kept
	}
	m.mu.Unlock()
	return nil
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := m.next.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	kept := m.vault[sessionID]
	m.mu.Unlock()

	for stepID, fields := range session.Snapshot.FieldValues {
		for fieldID, value := range fields {
			if value != Mask {
				continue
			}
			if v, ok := kept[stepID][fieldID]; ok {
				fields[fieldID] = v
			} else {
				delete(fields, fieldID)
			}
		}
	}
	return session, nil
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.vault, sessionID)
	m.mu.Unlock()
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return listNext(ctx, m.next)
}

func (m *piiMiddleware) sensitive(fieldID string) bool {
	for _, p := range m.patterns {
		if p.MatchString(fieldID) {
			return true
		}
	}
	return false
}
