package quoteflow

import (
	"context"
	"fmt"

	"github.com/aretw0/quoteflow/pkg/domain"
	"github.com/aretw0/quoteflow/pkg/ports"
	"github.com/aretw0/quoteflow/pkg/session"
)

// Service hosts many wizard sessions behind a session.Manager. Every call
// rebuilds a wizard from the stored record under the session lock, so
// processes sharing a store (and a distributed locker) can serve the same
// session. The HTTP and MCP adapters are thin layers over it.
type Service struct {
	def      *domain.Definition
	sessions *session.Manager
	options  []Option
}

// NewService creates a service for def. opts apply to every wizard it builds.
func NewService(def *domain.Definition, sessions *session.Manager, opts ...Option) *Service {
	return &Service{def: def, sessions: sessions, options: opts}
}

// Definition returns the served definition.
func (s *Service) Definition() *domain.Definition {
	return s.def
}

// Create starts a new persisted session and returns its first view.
// extra options (typically WithPreselect) apply to this first visit only.
func (s *Service) Create(ctx context.Context, extra ...Option) (View, error) {
	id := session.NewID()
	var view View
	_, err := s.sessions.Update(ctx, id, func(sess *domain.Session) error {
		wz, v, err := s.open(ctx, sess, extra...)
		if err != nil {
			return err
		}
		view = v
		*sess = *wz.Session()
		return nil
	})
	if err != nil {
		return View{}, err
	}
	return view, nil
}

// View renders session id without changing it.
func (s *Service) View(ctx context.Context, id string) (View, error) {
	sess, err := s.sessions.Load(ctx, id)
	if err != nil {
		return View{}, err
	}
	_, view, err := s.open(ctx, sess)
	return view, err
}

// Delete removes session id.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.sessions.Delete(ctx, id)
}

// Do runs fn against session id and saves the outcome. An error from fn is
// returned with its Result and the state is still saved, since intents that
// fail (validation, an empty order) update what the user sees. Unknown ids
// fail with domain.ErrSessionNotFound and nothing is created.
func (s *Service) Do(ctx context.Context, id string, fn func(context.Context, *Wizard) (Result, error)) (Result, error) {
	var (
		res       Result
		intentErr error
	)
	_, err := s.sessions.Update(ctx, id, func(sess *domain.Session) error {
		if sess.UpdatedAt.IsZero() {
			return domain.ErrSessionNotFound
		}
		wz, _, err := s.open(ctx, sess)
		if err != nil {
			return err
		}
		before := sess.Clone()
		res, intentErr = fn(ctx, wz)
		*sess = *wz.Session()
		res.Diff = domain.Diff(before, sess)
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, intentErr
}

// open builds a wizard over sess. Writes made by the wizard land in a
// private record; callers copy Session() back.
func (s *Service) open(ctx context.Context, sess *domain.Session, extra ...Option) (*Wizard, View, error) {
	rec := &record{session: sess.Clone(), fresh: sess.UpdatedAt.IsZero()}

	opts := append([]Option{}, s.options...)
	opts = append(opts, WithSessionID(sess.ID), WithSessionStore(rec))
	opts = append(opts, extra...)

	wz, err := New(s.def, opts...)
	if err != nil {
		return nil, View{}, fmt.Errorf("build wizard: %w", err)
	}
	view, err := wz.Start(ctx)
	if err != nil {
		return nil, View{}, err
	}
	return wz, view, nil
}

// record adapts one session record to ports.SessionStore for a single wizard.
type record struct {
	session *domain.Session
	fresh   bool
}

var _ ports.SessionStore = (*record)(nil)

func (r *record) Save(ctx context.Context, sessionID string, session *domain.Session) error {
	r.session = session.Clone()
	r.fresh = false
	return nil
}

func (r *record) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	if r.fresh {
		return nil, domain.ErrSessionNotFound
	}
	return r.session.Clone(), nil
}

func (r *record) Delete(ctx context.Context, sessionID string) error {
	r.session = domain.NewSession(sessionID)
	r.fresh = true
	return nil
}
