package adminapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/trackflag/pkg/audit"
	"github.com/dmitrymomot/trackflag/pkg/httpserver"
	"github.com/dmitrymomot/trackflag/pkg/logger"
	"github.com/dmitrymomot/trackflag/pkg/rollout"
)

// Controller is the part of *rollout.Controller the admin API drives.
type Controller interface {
	Status(ctx context.Context) rollout.Status
	ShouldUseNewPath(ctx context.Context) bool
	ShouldUseParallelTracking(ctx context.Context) bool
	ShouldUseComponent(ctx context.Context, name string) bool
	UpdateFlag(ctx context.Context, name string, value bool) error
	ResetFlag(ctx context.Context, name string) error
	EmergencyRollback(ctx context.Context, reason string)
	AuditEvents(ctx context.Context) ([]audit.Event, error)
	ClearAudit(ctx context.Context) error
}

// DefaultRollbackReason is used when POST /rollback carries no reason.
const DefaultRollbackReason = "manual rollback"

const maxBodySize = 1 << 16

type handler struct {
	ctrl     Controller
	log      *slog.Logger
	checks   []httpserver.Check
	metrics  http.Handler
	sessions rollout.SessionStore
}

// Option configures the router.
type Option func(*handler)

// WithLogger sets the logger used for failed requests.
func WithLogger(l *slog.Logger) Option {
	return func(h *handler) {
		if l != nil {
			h.log = l
		}
	}
}

// WithHealthChecks adds backend probes to GET /healthz.
func WithHealthChecks(checks ...httpserver.Check) Option {
	return func(h *handler) { h.checks = append(h.checks, checks...) }
}

// WithMetrics mounts h at GET /metrics, outside the session middleware.
func WithMetrics(h http.Handler) Option {
	return func(hd *handler) { hd.metrics = h }
}

// WithSessionStore lets requests without an X-Session-ID header take their
// identity from sessions instead of a freshly minted one.
func WithSessionStore(sessions rollout.SessionStore) Option {
	return func(h *handler) { h.sessions = sessions }
}

// Router returns the admin API routes for ctrl.
func Router(ctrl Controller, opts ...Option) chi.Router {
	h := &handler{ctrl: ctrl, log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(h)
	}
	h.log = h.log.With(logger.Component("adminapi"))

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, h.log, errNotFound, nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, h.log, errNotAllowed, nil)
	})

	r.Get("/healthz", httpserver.HealthCheckHandler(h.log, h.checks...))
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(SessionMiddleware(h.sessions))

		r.Get("/status", h.status)
		r.Get("/decisions", h.decisions)
		r.Route("/flags/{name}", func(r chi.Router) {
			r.Put("/", h.updateFlag)
			r.Delete("/", h.resetFlag)
		})
		r.Post("/rollback", h.rollback)
		r.Route("/audit", func(r chi.Router) {
			r.Get("/", h.auditEvents)
			r.Delete("/", h.clearAudit)
		})
	})

	return r
}

func (h *handler) status(w http.ResponseWriter, r *http.Request) {
	respond(w, h.ctrl.Status(r.Context()))
}

// Decisions answers the questions a tracking client asks on page load.
type Decisions struct {
	SessionID        string          `json:"session_id"`
	NewPath          bool            `json:"new_path"`
	ParallelTracking bool            `json:"parallel_tracking"`
	Components       map[string]bool `json:"components"`
}

func (h *handler) decisions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, _ := rollout.SessionIDFromContext(ctx)
	d := Decisions{
		SessionID:        id,
		NewPath:          h.ctrl.ShouldUseNewPath(ctx),
		ParallelTracking: h.ctrl.ShouldUseParallelTracking(ctx),
		Components:       make(map[string]bool, len(rollout.Components())),
	}
	for _, c := range rollout.Components() {
		d.Components[c] = h.ctrl.ShouldUseComponent(ctx, c)
	}
	respond(w, d)
}

type updateFlagRequest struct {
	Value *bool `json:"value"`
}

func (h *handler) updateFlag(w http.ResponseWriter, r *http.Request) {
	var req updateFlagRequest
	if err := decodeBody(r, &req, false); err != nil {
		respondError(w, r, h.log, errBadRequest, err)
		return
	}
	if req.Value == nil {
		respondError(w, r, h.log, errBadRequest, errors.New("value is required"))
		return
	}

	if err := h.ctrl.UpdateFlag(r.Context(), chi.URLParam(r, "name"), *req.Value); err != nil {
		h.flagError(w, r, err)
		return
	}
	h.status(w, r)
}

func (h *handler) resetFlag(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.ResetFlag(r.Context(), chi.URLParam(r, "name")); err != nil {
		h.flagError(w, r, err)
		return
	}
	h.status(w, r)
}

func (h *handler) flagError(w http.ResponseWriter, r *http.Request, err error) {
	if rollout.IsUnknownFlagError(err) {
		respondError(w, r, h.log, errUnknownFlag, err)
		return
	}
	respondError(w, r, h.log, errBadRequest, err)
}

type rollbackRequest struct {
	Reason string `json:"reason"`
}

func (h *handler) rollback(w http.ResponseWriter, r *http.Request) {
	var req rollbackRequest
	if err := decodeBody(r, &req, true); err != nil {
		respondError(w, r, h.log, errBadRequest, err)
		return
	}
	if req.Reason == "" {
		req.Reason = DefaultRollbackReason
	}

	h.ctrl.EmergencyRollback(r.Context(), req.Reason)
	h.status(w, r)
}

func (h *handler) auditEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.ctrl.AuditEvents(r.Context())
	if err != nil {
		respondError(w, r, h.log, errUnavailable, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	respond(w, events)
}

func (h *handler) clearAudit(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.ClearAudit(r.Context()); err != nil {
		respondError(w, r, h.log, errUnavailable, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeBody reads a single JSON object. Unknown fields are rejected; an empty
// body is accepted only when allowEmpty is set.
func decodeBody(r *http.Request, v any, allowEmpty bool) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) && allowEmpty {
			return nil
		}
		return err
	}
	if dec.More() {
		return errors.New("body must contain a single JSON object")
	}
	return nil
}
