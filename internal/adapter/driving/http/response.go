package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/pmhub/internal/application"
	"github.com/ericfisherdev/pmhub/internal/domain/model"
)

// envelope wraps every JSON API response.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeData writes v inside a successful envelope.
func writeData(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, envelope{Success: true, Data: v})
}

// writeError writes a failed envelope with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Error: message})
}

// SetupResponse is the 400 body returned when a provider's client credentials
// are missing.
type SetupResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Setup   SetupInstructions `json:"setup"`
}

// SetupInstructions tells an operator how to register the OAuth app.
type SetupInstructions struct {
	Steps       []string `json:"steps"`
	RedirectURI string   `json:"redirectUri"`
	RequiredEnv []string `json:"requiredEnv"`
}

// AuthURLResponse is returned by the auth-URL endpoint.
type AuthURLResponse struct {
	Success bool   `json:"success"`
	AuthURL string `json:"authUrl"`
	State   string `json:"state"`
}

// IntegrationResponse is a connected integration without its tokens.
type IntegrationResponse struct {
	Provider      string   `json:"provider"`
	WorkspaceID   string   `json:"workspaceId"`
	WorkspaceName string   `json:"workspaceName"`
	WorkspaceURL  string   `json:"workspaceUrl"`
	AccountID     string   `json:"accountId"`
	AccountName   string   `json:"accountName"`
	AccountEmail  string   `json:"accountEmail"`
	Scopes        []string `json:"scopes"`
	ExpiresAt     string   `json:"expiresAt,omitempty"`
	Expired       bool     `json:"expired"`
	ConnectedAt   string   `json:"connectedAt"`
}

// PMToolResponse is the JSON representation of a PM tool.
type PMToolResponse struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Provider     string            `json:"provider"`
	Status       string            `json:"status"`
	ProjectCount int               `json:"projectCount"`
	TaskCount    int               `json:"taskCount"`
	LastSync     *string           `json:"lastSync"`
	Settings     map[string]string `json:"settings"`
	CreatedAt    string            `json:"createdAt"`
}

// AddPMToolRequest is the JSON body for the add PM tool endpoint.
type AddPMToolRequest struct {
	Name     string            `json:"name"`
	Provider string            `json:"provider"`
	Settings map[string]string `json:"settings"`
}

// SyncResultResponse is the outcome of syncing one tool.
type SyncResultResponse struct {
	ToolID      string `json:"toolId"`
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	Status      string `json:"status"`
	ItemsSynced int    `json:"itemsSynced"`
	DurationMs  int64  `json:"durationMs"`
	SyncedAt    string `json:"syncedAt"`
	Error       string `json:"error,omitempty"`
}

// SyncAllResponse summarizes a sync-all run.
type SyncAllResponse struct {
	Results   []SyncResultResponse `json:"results"`
	Succeeded int                  `json:"succeeded"`
	Failed    int                  `json:"failed"`
	Skipped   int                  `json:"skipped"`
}

// AnalysisRequest is the JSON body for the strategic analysis endpoint.
type AnalysisRequest struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

// AnalysisResponse is the JSON representation of an analysis result.
type AnalysisResponse struct {
	Framework       string   `json:"framework"`
	Analysis        string   `json:"analysis"`
	Recommendations []string `json:"recommendations"`
	Confidence      float64  `json:"confidence"`
	Timestamp       string   `json:"timestamp"`
	Source          string   `json:"source"`
}

// DashboardResponse is the JSON representation of the dashboard summary.
type DashboardResponse struct {
	ActiveProjects int                `json:"activeProjects"`
	TotalTasks     int                `json:"totalTasks"`
	CompletedTasks int                `json:"completedTasks"`
	CompletionRate float64            `json:"completionRate"`
	TeamVelocity   int                `json:"teamVelocity"`
	SprintProgress float64            `json:"sprintProgress"`
	OpenRisks      int                `json:"openRisks"`
	RecentActivity []ActivityResponse `json:"recentActivity"`
	GeneratedAt    string             `json:"generatedAt"`
}

// ActivityResponse is one recent-activity entry.
type ActivityResponse struct {
	Actor  string `json:"actor"`
	Action string `json:"action"`
	Target string `json:"target"`
	At     string `json:"at"`
}

// MetricsResponse is the JSON representation of a metrics report.
type MetricsResponse struct {
	Range       string           `json:"range"`
	Metrics     []MetricResponse `json:"metrics"`
	GeneratedAt string           `json:"generatedAt"`
}

// MetricResponse is one KPI with its trend.
type MetricResponse struct {
	Name   string    `json:"name"`
	Value  float64   `json:"value"`
	Unit   string    `json:"unit"`
	Change float64   `json:"change"`
	Trend  []float64 `json:"trend"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status  string                `json:"status"`
	Time    string                `json:"time"`
	Backend BackendHealthResponse `json:"backend"`
}

// BackendHealthResponse reports the analysis backend probe.
type BackendHealthResponse struct {
	Configured bool `json:"configured"`
	Reachable  bool `json:"reachable"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func toIntegrationResponse(cfg model.IntegrationConfig, now time.Time) IntegrationResponse {
	scopes := cfg.Scopes
	if scopes == nil {
		scopes = []string{}
	}

	resp := IntegrationResponse{
		Provider:      string(cfg.Provider),
		WorkspaceID:   cfg.WorkspaceID,
		WorkspaceName: cfg.WorkspaceName,
		WorkspaceURL:  cfg.WorkspaceURL,
		AccountID:     cfg.AccountID,
		AccountName:   cfg.AccountName,
		AccountEmail:  cfg.AccountEmail,
		Scopes:        scopes,
		Expired:       cfg.IsExpired(now),
		ConnectedAt:   formatTime(cfg.ConnectedAt),
	}
	if !cfg.ExpiresAt.IsZero() {
		resp.ExpiresAt = formatTime(cfg.ExpiresAt)
	}
	return resp
}

func toPMToolResponse(tool model.PMTool) PMToolResponse {
	settings := tool.Settings
	if settings == nil {
		settings = map[string]string{}
	}

	resp := PMToolResponse{
		ID:           tool.ID,
		Name:         tool.Name,
		Provider:     string(tool.Provider),
		Status:       string(tool.Status),
		ProjectCount: tool.ProjectCount,
		TaskCount:    tool.TaskCount,
		Settings:     settings,
		CreatedAt:    formatTime(tool.CreatedAt),
	}
	if tool.LastSync != nil {
		s := formatTime(*tool.LastSync)
		resp.LastSync = &s
	}
	return resp
}

func toSyncAllResponse(results []model.SyncResult) SyncAllResponse {
	resp := SyncAllResponse{Results: make([]SyncResultResponse, 0, len(results))}
	for _, r := range results {
		switch r.Status {
		case model.SyncStatusSuccess:
			resp.Succeeded++
		case model.SyncStatusFailed:
			resp.Failed++
		case model.SyncStatusSkipped:
			resp.Skipped++
		}
		resp.Results = append(resp.Results, SyncResultResponse{
			ToolID:      r.ToolID,
			Name:        r.Name,
			Provider:    string(r.Provider),
			Status:      string(r.Status),
			ItemsSynced: r.ItemsSynced,
			DurationMs:  r.Duration.Milliseconds(),
			SyncedAt:    formatTime(r.SyncedAt),
			Error:       r.Error,
		})
	}
	return resp
}

func toAnalysisResponse(r model.AnalysisResult) AnalysisResponse {
	return AnalysisResponse{
		Framework:       string(r.Framework),
		Analysis:        r.Analysis,
		Recommendations: r.Recommendations,
		Confidence:      r.Confidence,
		Timestamp:       formatTime(r.Timestamp),
		Source:          r.Source,
	}
}

func toDashboardResponse(s model.DashboardSummary) DashboardResponse {
	activity := make([]ActivityResponse, 0, len(s.RecentActivity))
	for _, a := range s.RecentActivity {
		activity = append(activity, ActivityResponse{
			Actor:  a.Actor,
			Action: a.Action,
			Target: a.Target,
			At:     formatTime(a.At),
		})
	}

	return DashboardResponse{
		ActiveProjects: s.ActiveProjects,
		TotalTasks:     s.TotalTasks,
		CompletedTasks: s.CompletedTasks,
		CompletionRate: s.CompletionRate,
		TeamVelocity:   s.TeamVelocity,
		SprintProgress: s.SprintProgress,
		OpenRisks:      s.OpenRisks,
		RecentActivity: activity,
		GeneratedAt:    formatTime(s.GeneratedAt),
	}
}

func toMetricsResponse(r model.MetricsReport) MetricsResponse {
	metrics := make([]MetricResponse, 0, len(r.Metrics))
	for _, m := range r.Metrics {
		metrics = append(metrics, MetricResponse{
			Name:   m.Name,
			Value:  m.Value,
			Unit:   m.Unit,
			Change: m.Change,
			Trend:  m.Trend,
		})
	}
	return MetricsResponse{Range: r.Range, Metrics: metrics, GeneratedAt: formatTime(r.GeneratedAt)}
}

func toHealthResponse(status application.BackendStatus, now time.Time) HealthResponse {
	return HealthResponse{
		Status:  "ok",
		Time:    formatTime(now),
		Backend: BackendHealthResponse{Configured: status.Configured, Reachable: status.Reachable},
	}
}
