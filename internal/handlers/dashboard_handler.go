package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"presidentielle/internal/dashboard"
	"presidentielle/internal/models"
	"presidentielle/internal/parser"
)

// Dashboard is the projection served by the handlers
type Dashboard interface {
	Render(ctx context.Context, sel dashboard.Selection) (*dashboard.ViewModel, error)
	RenderStats(ctx context.Context, sel dashboard.Selection) (*dashboard.StatsPanel, error)
	RenderCandidates(ctx context.Context, sel dashboard.Selection) (*dashboard.CandidatePanel, error)
	Options(ctx context.Context, round models.Round) (*dashboard.Options, error)
	Audit(ctx context.Context) (*dashboard.AuditReport, error)
	GeoJSON(round models.Round, level models.Level) ([]byte, error)
}

// Route binds a path to a handler
type Route struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
}

type DashboardHandler struct {
	dashboard Dashboard
	logger    *zap.Logger
}

func NewDashboardHandler(d Dashboard, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{
		dashboard: d,
		logger:    logger,
	}
}

// Routes lists every endpoint served by the handler
func (h *DashboardHandler) Routes() []Route {
	return []Route{
		{http.MethodGet, "/api/elections/dashboard", h.HandleDashboard},
		{http.MethodGet, "/api/elections/stats", h.HandleStats},
		{http.MethodGet, "/api/elections/candidates", h.HandleCandidates},
		{http.MethodGet, "/api/elections/options", h.HandleOptions},
		{http.MethodGet, "/api/elections/geo", h.HandleGeo},
		{http.MethodGet, "/api/elections/audit", h.HandleAudit},
		{http.MethodGet, "/health", h.HandleHealth},
	}
}

// Mux wires the routes on a standard library mux
func (h *DashboardHandler) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	for _, rt := range h.Routes() {
		mux.HandleFunc(rt.Path, rt.Handler)
	}
	return mux
}

func selectionFromQuery(q url.Values) (dashboard.Selection, error) {
	return dashboard.ParseSelection(dashboard.Values{
		Round:      q.Get("round"),
		Level:      q.Get("level"),
		Percentage: q.Get("percentage"),
		Stat:       q.Get("stat"),
		Candidate:  q.Get("candidate"),
	})
}

func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sel, err := selectionFromQuery(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	vm, err := h.dashboard.Render(r.Context(), sel)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, vm)
}

func (h *DashboardHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sel, err := selectionFromQuery(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	panel, err := h.dashboard.RenderStats(r.Context(), sel)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, panel)
}

func (h *DashboardHandler) HandleCandidates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sel, err := selectionFromQuery(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	panel, err := h.dashboard.RenderCandidates(r.Context(), sel)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, panel)
}

func (h *DashboardHandler) HandleOptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sel, err := selectionFromQuery(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	opts, err := h.dashboard.Options(r.Context(), sel.Round)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

func (h *DashboardHandler) HandleGeo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sel, err := selectionFromQuery(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	data, err := h.dashboard.GeoJSON(sel.Round, sel.Level)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *DashboardHandler) HandleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	report, err := h.dashboard.Audit(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *DashboardHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// statusFor maps domain errors to HTTP statuses. Bad selections are the
// caller's fault; broken or missing bundle files are ours.
func statusFor(err error) int {
	var selErr *models.InvalidSelectionError
	var parseErr *parser.ParseError
	switch {
	case errors.As(err, &selErr):
		return http.StatusBadRequest
	case errors.As(err, &parseErr), errors.Is(err, fs.ErrNotExist):
		return http.StatusInternalServerError
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *DashboardHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	} else {
		h.logger.Debug("rejected selection", zap.String("path", r.URL.Path), zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
