package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/aretw0/quoteflow"
	"github.com/aretw0/quoteflow/internal/logging"
	"github.com/aretw0/quoteflow/pkg/domain"
	"github.com/aretw0/quoteflow/pkg/schema"
	"github.com/aretw0/quoteflow/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes wizard sessions as a JSON API on top of a quoteflow.Service.
type Server struct {
	def      *domain.Definition
	sessions *session.Manager
	service  *quoteflow.Service
	options  []quoteflow.Option
	gatherer prometheus.Gatherer
	streams  *StreamManager
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithWizardOptions applies opts to every wizard the server builds
// (enricher, submitter, metrics, forced channel...).
func WithWizardOptions(opts ...quoteflow.Option) Option {
	return func(s *Server) {
		s.options = append(s.options, opts...)
	}
}

// WithMetricsGatherer serves g on GET /metrics.
func WithMetricsGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a server for def backed by sessions.
func NewServer(def *domain.Definition, sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		def:      def,
		sessions: sessions,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logging.NewNop()
	}
	s.streams = NewStreamManager(s.logger)
	wizardOpts := append([]quoteflow.Option{quoteflow.WithLogger(s.logger)}, s.options...)
	s.service = quoteflow.NewService(def, sessions, wizardOpts...)
	return s
}

// NewHandler is a shortcut for NewServer(...).Handler().
func NewHandler(def *domain.Definition, sessions *session.Manager, opts ...Option) http.Handler {
	return NewServer(def, sessions, opts...).Handler()
}

// Streams returns the SSE fan-out used for session updates.
func (s *Server) Streams() *StreamManager {
	return s.streams
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.GetHealth)
	r.Get("/definition", s.GetDefinition)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Get("/events", s.SubscribeEvents)

			r.Post("/toggle", s.Toggle)
			r.Put("/selection", s.SetSelection)
			r.Put("/fields", s.SetField)
			r.Post("/blur", s.Blur)
			r.Post("/vehicle", s.PickVehicle)
			r.Post("/next", s.Next)
			r.Post("/previous", s.Previous)
			r.Post("/jump", s.Jump)
			r.Post("/restart", s.Restart)
			r.Post("/submit", s.Submit)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type createRequest struct {
	Preselect string `json:"preselect,omitempty"`
}

type toggleRequest struct {
	StepID    string `json:"stepId"`
	ProductID string `json:"productId"`
}

type selectionRequest struct {
	StepID     string   `json:"stepId"`
	ProductIDs []string `json:"productIds"`
}

type fieldRequest struct {
	StepID  string `json:"stepId"`
	FieldID string `json:"fieldId"`
	Value   string `json:"value"`
}

type vehicleRequest struct {
	Make  *string `json:"make,omitempty"`
	Model *string `json:"model,omitempty"`
	Year  *string `json:"year,omitempty"`
}

type jumpRequest struct {
	Index int `json:"index"`
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
	View   *quoteflow.View   `json:"view,omitempty"`
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetDefinition handles GET /definition.
func (s *Server) GetDefinition(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.def)
}

// CreateSession handles POST /sessions. The preselected anchor product comes
// from the body or the vehicle query parameter.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body createRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		s.fail(w, badRequest(err), nil)
		return
	}
	if body.Preselect == "" {
		body.Preselect = r.URL.Query().Get("vehicle")
	}

	view, err := s.service.Create(r.Context(), quoteflow.WithPreselect(body.Preselect))
	if err != nil {
		s.fail(w, err, nil)
		return
	}
	s.logger.Info("session created", "session_id", view.SessionID)
	writeJSON(w, http.StatusCreated, view)
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.View(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Toggle handles POST /sessions/{id}/toggle.
func (s *Server) Toggle(w http.ResponseWriter, r *http.Request) {
	var body toggleRequest
	if !decode(w, r, &body) {
		return
	}
	s.intent(w, r, func(ctx context.Context, wz *quoteflow.Wizard) (quoteflow.Result, error) {
		return wz.Toggle(ctx, body.StepID, body.ProductID), nil
	})
}

// SetSelection handles PUT /sessions/{id}/selection. A null list clears the step.
func (s *Server) SetSelection(w http.ResponseWriter, r *http.Request) {
	var body selectionRequest
	if !decode(w, r, &body) {
		return
	}
	s.intent(w, r, func(ctx context.Context, wz *quoteflow.Wizard) (quoteflow.Result, error) {
		return wz.SetSelection(ctx, body.StepID, body.ProductIDs), nil
	})
}

// SetField handles PUT /sessions/{id}/fields.
func (s *Server) SetField(w http.ResponseWriter, r *http.Request) {
	var body fieldRequest
	if !decode(w, r, &body) {
		return
	}
	s.intent(w, r, func(ctx context.Context, wz *quoteflow.Wizard) (quoteflow.Result, error) {
		return wz.SetField(ctx, body.StepID, body.FieldID, body.Value), nil
	})
}

// Blur handles POST /sessions/{id}/blur.
func (s *Server) Blur(w http.ResponseWriter, r *http.Request) {
	var body fieldRequest
	if !decode(w, r, &body) {
		return
	}
	s.intent(w, r, func(ctx context.Context, wz *quoteflow.Wizard) (quoteflow.Result, error) {
		return wz.Blur(ctx, body.StepID, body.FieldID), nil
	})
}

// PickVehicle handles POST /sessions/{id}/vehicle. Present fields apply in
// make, model, year order.
func (s *Server) PickVehicle(w http.ResponseWriter, r *http.Request) {
	var body vehicleRequest
	if !decode(w, r, &body) {
		return
	}
	s.intent(w, r, func(ctx context.Context, wz *quoteflow.Wizard) (quoteflow.Result, error) {
		var out quoteflow.Result
		merge := func(res quoteflow.Result) {
			out.Changed = out.Changed || res.Changed
			out.Cleared = append(out.Cleared, res.Cleared...)
			out.View = res.View
		}
		out.View = wz.View()
		if body.Make != nil {
			merge(wz.SetVehicleMake(ctx, *body.Make))
		}
		if body.Model != nil {
			merge(wz.SetVehicleModel(ctx, *body.Model))
		}
		if body.Year != nil {
			merge(wz.SetVehicleYear(ctx, *body.Year))
		}
		return out, nil
	})
}

// Next handles POST /sessions/{id}/next.
func (s *Server) Next(w http.ResponseWriter, r *http.Request) {
	s.intent(w, r, func(ctx context.Context, wz *quoteflow.Wizard) (quoteflow.Result, error) {
		return wz.Next(ctx)
	})
}

// Previous handles POST /sessions/{id}/previous.
func (s *Server) Previous(w http.ResponseWriter, r *http.Request) {
	s.intent(w, r, func(ctx context.Context, wz *quoteflow.Wizard) (quoteflow.Result, error) {
		return wz.Previous(ctx), nil
	})
}

// Jump handles POST /sessions/{id}/jump.
func (s *Server) Jump(w http.ResponseWriter, r *http.Request) {
	var body jumpRequest
	if !decode(w, r, &body) {
		return
	}
	s.intent(w, r, func(ctx context.Context, wz *quoteflow.Wizard) (quoteflow.Result, error) {
		return wz.JumpTo(ctx, body.Index), nil
	})
}

// Restart handles POST /sessions/{id}/restart. The session id stays valid.
func (s *Server) Restart(w http.ResponseWriter, r *http.Request) {
	s.intent(w, r, func(ctx context.Context, wz *quoteflow.Wizard) (quoteflow.Result, error) {
		return wz.Restart(ctx), nil
	})
}

// Submit handles POST /sessions/{id}/submit.
func (s *Server) Submit(w http.ResponseWriter, r *http.Request) {
	s.intent(w, r, func(ctx context.Context, wz *quoteflow.Wizard) (quoteflow.Result, error) {
		return wz.Submit(ctx)
	})
}

// intent applies fn to the session named in the URL and answers with the
// Result. Failed intents answer with the error and the view they left.
func (s *Server) intent(w http.ResponseWriter, r *http.Request, fn func(context.Context, *quoteflow.Wizard) (quoteflow.Result, error)) {
	id := chi.URLParam(r, "id")
	res, err := s.service.Do(r.Context(), id, fn)
	if res.Changed {
		s.streams.Publish(id, res.View)
	}
	if res.Diff != nil {
		s.streams.PublishEvent(id, "diff", res.Diff)
	}
	if err != nil {
		var view *quoteflow.View
		if res.View.SessionID != "" {
			view = &res.View
		}
		s.fail(w, err, view)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) fail(w http.ResponseWriter, err error, view *quoteflow.View) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error(), View: view}
	if errors.Is(err, domain.ErrFormInvalid) {
		resp.Fields = schema.Messages(err)
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, resp)
}

type requestError struct{ err error }

func (e *requestError) Error() string { return "invalid request body: " + e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(err error) error { return &requestError{err: err} }

func statusFor(err error) int {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrFormInvalid),
		errors.Is(err, domain.ErrNoLineItems),
		errors.Is(err, domain.ErrStepIncomplete):
		return http.StatusUnprocessableEntity
	case errors.Is(err, quoteflow.ErrNoSubmitter):
		return http.StatusNotImplemented
	}
	return http.StatusInternalServerError
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: badRequest(err).Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("response encode failed", "err", err)
	}
}
