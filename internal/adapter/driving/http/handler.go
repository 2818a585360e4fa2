// Package httphandler implements the JSON API driving adapter.
package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ericfisherdev/pmhub/internal/application"
	"github.com/ericfisherdev/pmhub/internal/domain/model"
	"github.com/ericfisherdev/pmhub/internal/domain/port/driven"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Handler is the HTTP driving adapter that serves the JSON API.
type Handler struct {
	oauthSvc    *application.OAuthService
	toolSvc     *application.PMToolService
	syncSvc     *application.SyncService
	analysisSvc *application.AnalysisService
	demoSvc     *application.DemoService
	appURL      string
	logger      *slog.Logger
	now         func() time.Time
}

// NewHandler creates a Handler with all required dependencies. appURL is the
// public base URL used for OAuth redirect URIs and settings redirects.
func NewHandler(
	oauthSvc *application.OAuthService,
	toolSvc *application.PMToolService,
	syncSvc *application.SyncService,
	analysisSvc *application.AnalysisService,
	demoSvc *application.DemoService,
	appURL string,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		oauthSvc:    oauthSvc,
		toolSvc:     toolSvc,
		syncSvc:     syncSvc,
		analysisSvc: analysisSvc,
		demoSvc:     demoSvc,
		appURL:      strings.TrimRight(appURL, "/"),
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// RegisterAPIRoutes registers all JSON API routes on the provided mux.
// The legacy Jira callback URL /api/integrations/oauth/callback/jira is served
// by the provider-generic callback route.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/integrations", h.ListIntegrations)
	mux.HandleFunc("GET /api/integrations/{provider}/auth", h.BeginAuth)
	mux.HandleFunc("GET /api/integrations/oauth/callback/{provider}", h.OAuthCallback)
	mux.HandleFunc("DELETE /api/integrations/{provider}", h.DisconnectIntegration)

	mux.HandleFunc("GET /api/dashboard/summary", h.DashboardSummary)
	mux.HandleFunc("GET /api/metrics", h.Metrics)

	mux.HandleFunc("GET /api/pm-tools", h.ListPMTools)
	mux.HandleFunc("POST /api/pm-tools", h.AddPMTool)
	mux.HandleFunc("POST /api/pm-tools/sync-all", h.SyncAllPMTools)
	mux.HandleFunc("DELETE /api/pm-tools/{id}", h.RemovePMTool)

	mux.HandleFunc("POST /api/strategic-analysis", h.StrategicAnalysis)
	mux.HandleFunc("GET /api/health", h.Health)
}

// DashboardSummary returns randomized dashboard counters.
func (h *Handler) DashboardSummary(w http.ResponseWriter, _ *http.Request) {
	writeData(w, http.StatusOK, toDashboardResponse(h.demoSvc.DashboardSummary()))
}

// Metrics returns randomized product metrics for the requested range.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	report, err := h.demoSvc.Metrics(r.URL.Query().Get("range"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeData(w, http.StatusOK, toMetricsResponse(report))
}

// ListPMTools returns all registered PM tools.
func (h *Handler) ListPMTools(w http.ResponseWriter, r *http.Request) {
	tools, err := h.toolSvc.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list pm tools", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]PMToolResponse, 0, len(tools))
	for _, tool := range tools {
		resp = append(resp, toPMToolResponse(tool))
	}

	writeData(w, http.StatusOK, resp)
}

// AddPMTool registers a new PM tool.
func (h *Handler) AddPMTool(w http.ResponseWriter, r *http.Request) {
	var req AddPMToolRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tool, err := h.toolSvc.Add(r.Context(), req.Name, model.Provider(req.Provider), req.Settings)
	switch {
	case errors.Is(err, application.ErrToolNameRequired):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, driven.ErrUnknownProvider):
		writeError(w, http.StatusBadRequest, "unknown provider: expected jira, linear, asana, github or trello")
		return
	case errors.Is(err, driven.ErrPMToolAlreadyExists):
		writeError(w, http.StatusConflict, "a tool with this name already exists")
		return
	case err != nil:
		h.logger.Error("failed to add pm tool", "name", req.Name, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeData(w, http.StatusCreated, toPMToolResponse(*tool))
}

// RemovePMTool deletes a PM tool by ID.
func (h *Handler) RemovePMTool(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.toolSvc.Remove(r.Context(), id); err != nil {
		if errors.Is(err, driven.ErrPMToolNotFound) {
			writeError(w, http.StatusNotFound, "pm tool not found")
			return
		}
		h.logger.Error("failed to remove pm tool", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeData(w, http.StatusOK, map[string]string{"id": id})
}

// SyncAllPMTools syncs every connected tool and reports per-tool results.
func (h *Handler) SyncAllPMTools(w http.ResponseWriter, r *http.Request) {
	results, err := h.syncSvc.SyncAll(r.Context())
	if err != nil {
		h.logger.Error("failed to sync pm tools", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeData(w, http.StatusOK, toSyncAllResponse(results))
}

// StrategicAnalysis answers a strategic question, remotely when a backend is
// configured and locally otherwise.
func (h *Handler) StrategicAnalysis(w http.ResponseWriter, r *http.Request) {
	var req AnalysisRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.analysisSvc.Analyze(r.Context(), model.AnalysisRequest{
		Question: req.Question,
		Context:  req.Context,
	})
	if err != nil {
		if errors.Is(err, application.ErrEmptyQuestion) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("strategic analysis failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeData(w, http.StatusOK, toAnalysisResponse(*result))
}

// Health reports service liveness and the analysis backend probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toHealthResponse(h.analysisSvc.BackendStatus(r.Context()), h.now()))
}

// decodeJSON decodes a size-limited JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}
