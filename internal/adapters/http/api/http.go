// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/prizewheel/internal/admin"
	service "github.com/okian/prizewheel/internal/app"
	"github.com/okian/prizewheel/internal/domain/draw"
	"github.com/okian/prizewheel/internal/domain/gallery"
	"github.com/okian/prizewheel/internal/domain/model"
	"github.com/okian/prizewheel/internal/domain/notify"
	"github.com/okian/prizewheel/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Dependencies required by the public handlers and the draw endpoint.
type Dependencies interface {
	Prizes() []service.PrizeCard
	Prize(id string) (service.PrizeCard, error)
	AddEntry(ctx context.Context, id string, e model.Entry) error

	StepImage(id string, dir int) (service.PrizeCard, error)
	SelectImage(id string, idx int) (service.PrizeCard, error)
	OpenViewer(id string) (gallery.ViewerState, error)
	CloseViewer() gallery.ViewerState
	Viewer() gallery.ViewerState

	Labels() []admin.LabelRow
	Notifications() []notify.Notification
	Listen(fn func(service.Event)) (dispose func())

	Draw(ctx context.Context, id string) (draw.Result, error)
}

// Console is the admin console the /api/admin routes drive.
type Console interface {
	State() admin.State
	SetTab(t admin.Tab) error
	SetDrawTab(t admin.DrawTab) error

	PrizeRows(now time.Time) []admin.PrizeRow
	SubmitPrize(ctx context.Context, form admin.PrizeForm) bool
	EditPrize(ctx context.Context, id string) (admin.PrizeForm, bool)
	CancelPrizeEdit()
	DeletePrize(ctx context.Context, id string) bool
	Participants(id string) (admin.ParticipantList, bool)

	LabelRows() []admin.LabelRow
	SubmitLabel(ctx context.Context, text string) bool
	EditLabel(id string) (string, bool)
	CancelLabelEdit()
	DeleteLabel(ctx context.Context, id string) bool

	DrawBoard(now time.Time) admin.DrawBoard
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	prizeHandler  *PrizeHandler
	adminHandler  *AdminHandler
	streamHandler *StreamHandler

	adminToken string
}

// Option configures a Server.
type Option func(*serverConfig)

type serverConfig struct {
	adminToken string
	now        func() time.Time
	logger     logger.Logger
	heartbeat  time.Duration
}

// WithAdminToken guards /api/admin with a bearer token.
func WithAdminToken(token string) Option {
	return func(c *serverConfig) {
		c.adminToken = token
	}
}

// WithClock overrides the time used to render views.
func WithClock(now func() time.Time) Option {
	return func(c *serverConfig) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *serverConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHeartbeat sets the keep-alive interval of the event stream.
func WithHeartbeat(d time.Duration) Option {
	return func(c *serverConfig) {
		if d > 0 {
			c.heartbeat = d
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, console Console, statsProvider StatsProvider, opts ...Option) *Server {
	cfg := serverConfig{now: time.Now, heartbeat: defaultHeartbeat}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logger.Get().Named("api")
	}
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		prizeHandler:  NewPrizeHandler(deps, cfg.logger),
		adminHandler:  NewAdminHandler(console, deps, cfg.now, cfg.logger),
		streamHandler: NewStreamHandler(deps, cfg.heartbeat, cfg.logger),
		adminToken:    cfg.adminToken,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	p := s.prizeHandler
	mux.HandleFunc("GET /api/prizes", MetricsMiddleware(p.HandleList, "prizes"))
	mux.HandleFunc("GET /api/prizes/{id}", MetricsMiddleware(p.HandleGet, "prize"))
	mux.HandleFunc("POST /api/prizes/{id}/entries", MetricsMiddleware(p.HandleAddEntry, "entries"))
	mux.HandleFunc("POST /api/prizes/{id}/gallery", MetricsMiddleware(p.HandleGallery, "gallery"))
	mux.HandleFunc("POST /api/prizes/{id}/viewer", MetricsMiddleware(p.HandleOpenViewer, "viewer"))
	mux.HandleFunc("GET /api/viewer", MetricsMiddleware(p.HandleViewer, "viewer"))
	mux.HandleFunc("DELETE /api/viewer", MetricsMiddleware(p.HandleCloseViewer, "viewer"))
	mux.HandleFunc("GET /api/labels", MetricsMiddleware(p.HandleLabels, "labels"))
	mux.HandleFunc("GET /api/notifications", MetricsMiddleware(p.HandleNotifications, "notifications"))
	mux.HandleFunc("GET /api/events", MetricsMiddleware(s.streamHandler.HandleStream, "events"))

	a := s.adminHandler
	s.admin(mux, "GET /api/admin/prizes", a.HandleListPrizes, "admin_prizes")
	s.admin(mux, "POST /api/admin/prizes", a.HandleSubmitPrize, "admin_prizes")
	s.admin(mux, "POST /api/admin/prizes/{id}/edit", a.HandleEditPrize, "admin_prize_edit")
	s.admin(mux, "DELETE /api/admin/prizes/edit", a.HandleCancelPrizeEdit, "admin_prize_edit")
	s.admin(mux, "DELETE /api/admin/prizes/{id}", a.HandleDeletePrize, "admin_prizes")
	s.admin(mux, "GET /api/admin/prizes/{id}/participants", a.HandleParticipants, "admin_participants")
	s.admin(mux, "GET /api/admin/labels", a.HandleListLabels, "admin_labels")
	s.admin(mux, "POST /api/admin/labels", a.HandleSubmitLabel, "admin_labels")
	s.admin(mux, "POST /api/admin/labels/{id}/edit", a.HandleEditLabel, "admin_label_edit")
	s.admin(mux, "DELETE /api/admin/labels/edit", a.HandleCancelLabelEdit, "admin_label_edit")
	s.admin(mux, "DELETE /api/admin/labels/{id}", a.HandleDeleteLabel, "admin_labels")
	s.admin(mux, "GET /api/admin/draws", a.HandleDrawBoard, "admin_draws")
	s.admin(mux, "POST /api/admin/draws/{id}", a.HandleDraw, "admin_draw")
	s.admin(mux, "GET /api/admin/tab", a.HandleState, "admin_tab")
	s.admin(mux, "PUT /api/admin/tab", a.HandleSetTab, "admin_tab")
}

func (s *Server) admin(mux *http.ServeMux, pattern string, h http.HandlerFunc, endpoint string) {
	mux.HandleFunc(pattern, MetricsMiddleware(RequireToken(s.adminToken, h), endpoint))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// respond writes err with the status its kind maps to. Server-side
// failures are logged.
func respond(ctx context.Context, l logger.Logger, w http.ResponseWriter, op string, err error) {
	status, code := classify(err)
	if status >= statusInternalError {
		l.Error(ctx, "request failed", logger.String("op", op), logger.Error(err))
	}
	writeError(w, status, code, Wrap(op, err))
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}
