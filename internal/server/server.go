package server

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"homepulse/internal/dashboard"
	"homepulse/internal/models"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.New("index.html").Funcs(template.FuncMap{
	"unix": func(ts int64) string {
		if ts == 0 {
			return "-"
		}
		return time.Unix(ts, 0).Format("2006-01-02 15:04:05")
	},
}).ParseFS(templateFS, "templates/index.html"))

// Dashboard is the read side the server renders.
type Dashboard interface {
	Devices(ctx context.Context) ([]models.DeviceState, error)
	Events(ctx context.Context, limit int) ([]models.Event, error)
	Summary(ctx context.Context) (models.SummaryView, error)
	AllResponseTimes(ctx context.Context, limit int) (map[string]models.DeviceResponseTimes, error)
	AllResponseTimeStats(ctx context.Context, hours int) (map[string]models.DeviceResponseTimeStats, error)
	Timelines(ctx context.Context, hours int) ([]models.DeviceTimeline, error)
	SendSummary(ctx context.Context) (string, error)
	Snapshot(ctx context.Context) (dashboard.Snapshot, error)
}

// Server wraps HTTP serving of the API and the dashboard page.
type Server struct {
	httpServer   *http.Server
	dash         Dashboard
	logger       *slog.Logger
	pushInterval time.Duration
}

// New creates a configured HTTP server for the monitor.
func New(addr string, dash Dashboard, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		dash:         dash,
		logger:       logger.With("component", "http"),
		pushInterval: snapshotPushInterval,
	}
	s.registerRoutes(mux)
	return s
}

// Handler exposes the routes, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run blocks and serves HTTP traffic.
func (s *Server) Run() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("POST /api/summary/send", s.handleSendSummary)
	mux.HandleFunc("GET /api/response-times", s.handleResponseTimes)
	mux.HandleFunc("GET /api/response-times/stats", s.handleResponseTimeStats)
	mux.HandleFunc("GET /api/timeline", s.handleTimeline)
	mux.HandleFunc("GET /api/ws", s.handleSnapshotWS)
}

type indexData struct {
	Devices []models.DeviceState
	Events  []models.Event
	Summary models.SummaryView
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	devices, err := s.dash.Devices(ctx)
	if err != nil {
		s.fail(w, "load devices", err)
		return
	}
	events, err := s.dash.Events(ctx, 30)
	if err != nil {
		s.fail(w, "load events", err)
		return
	}
	summary, err := s.dash.Summary(ctx)
	if err != nil {
		s.fail(w, "load summary", err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, indexData{Devices: devices, Events: events, Summary: summary}); err != nil {
		s.logger.Error("render dashboard", "error", err)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	devices, err := s.dash.Devices(r.Context())
	if err != nil {
		s.fail(w, "load devices", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.dash.Events(r.Context(), parseInt(r, "limit"))
	if err != nil {
		s.fail(w, "load events", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	view, err := s.dash.Summary(r.Context())
	if err != nil {
		s.fail(w, "build summary", err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSendSummary(w http.ResponseWriter, r *http.Request) {
	text, err := s.dash.SendSummary(r.Context())
	switch {
	case err != nil && text == "":
		s.fail(w, "compose summary", err)
	case err != nil:
		s.logger.Warn("summary delivery failed", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"message": text, "error": err.Error()})
	default:
		writeJSON(w, http.StatusOK, map[string]string{"message": text})
	}
}

func (s *Server) handleResponseTimes(w http.ResponseWriter, r *http.Request) {
	data, err := s.dash.AllResponseTimes(r.Context(), parseInt(r, "limit"))
	if err != nil {
		s.fail(w, "load response times", err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleResponseTimeStats(w http.ResponseWriter, r *http.Request) {
	data, err := s.dash.AllResponseTimeStats(r.Context(), parseInt(r, "hours"))
	if err != nil {
		s.fail(w, "load response time stats", err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	timelines, err := s.dash.Timelines(r.Context(), parseInt(r, "hours"))
	if err != nil {
		s.fail(w, "build timelines", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": timelines})
}

func (s *Server) fail(w http.ResponseWriter, what string, err error) {
	s.logger.Error(what, "error", err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": what + " failed"})
}

// parseInt reads a positive query parameter; anything else yields 0 so the
// dashboard applies its default.
func parseInt(r *http.Request, key string) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0
	}
	return value
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}
