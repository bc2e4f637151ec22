package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/aretw0/quoteflow/internal/logging"
	"github.com/aretw0/quoteflow/pkg/ports"
	"github.com/go-chi/chi/v5"
)

// StreamManager fans session events out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // session id -> set of channels
	logger      *slog.Logger
}

// NewStreamManager creates a manager logging to logger (nil discards).
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a buffered channel for sessionID. The returned func
// unregisters and closes it.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[sessionID]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(sm.subscribers, sessionID)
				}
			}
			close(ch)
		})
	}
}

// Subscribers returns how many clients listen on sessionID.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}

// Broadcast sends a preformatted SSE frame to the subscribers of sessionID.
// Slow clients miss frames rather than block the sender.
func (sm *StreamManager) Broadcast(sessionID string, frame string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- frame:
		default:
			sm.logger.Warn("SSE: client buffer full, dropping frame", "session_id", sessionID)
		}
	}
}

// BroadcastAll sends frame to every subscriber of every session.
func (sm *StreamManager) BroadcastAll(frame string) {
	sm.mu.RLock()
	ids := make([]string, 0, len(sm.subscribers))
	for id := range sm.subscribers {
		ids = append(ids, id)
	}
	sm.mu.RUnlock()

	for _, id := range ids {
		sm.Broadcast(id, frame)
	}
}

// Publish encodes v as a "view" event for sessionID.
func (sm *StreamManager) Publish(sessionID string, v any) {
	sm.PublishEvent(sessionID, "view", v)
}

// PublishEvent encodes v as a named event for sessionID.
func (sm *StreamManager) PublishEvent(sessionID, event string, v any) {
	frame, err := Frame(event, v)
	if err != nil {
		sm.logger.Error("SSE: encode failed", "session_id", sessionID, "err", err)
		return
	}
	sm.Broadcast(sessionID, frame)
}

// Frame formats one SSE event with a JSON payload.
func Frame(event string, v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("event: %s\ndata: %s\n\n", event, data), nil
}

// WatchCatalog forwards catalog document changes to every open stream as
// "catalog" events until ctx is done.
func (sm *StreamManager) WatchCatalog(ctx context.Context, source ports.Watchable) error {
	events, err := source.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch catalog: %w", err)
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case id, ok := <-events:
				if !ok {
					return
				}
				frame, err := Frame("catalog", map[string]string{"document": id})
				if err != nil {
					sm.logger.Error("SSE: encode failed", "document", id, "err", err)
					continue
				}
				sm.logger.Debug("SSE: catalog changed", "document", id)
				sm.BroadcastAll(frame)
			}
		}
	}()
	return nil
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	sessionID := chi.URLParam(r, "id")
	if _, err := s.sessions.Load(r.Context(), sessionID); err != nil {
		s.fail(w, err, nil)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.streams.Subscribe(sessionID)
	defer cancel()
	s.logger.Info("SSE: client subscribed", "session_id", sessionID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "session_id", sessionID)
			return
		case frame, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprint(w, frame)
			flusher.Flush()
		}
	}
}
