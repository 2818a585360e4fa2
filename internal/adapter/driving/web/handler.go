// Package web implements the HTML driving adapter using html/template.
package web

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	httphandler "github.com/ericfisherdev/pmhub/internal/adapter/driving/http"
	vm "github.com/ericfisherdev/pmhub/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/pmhub/internal/application"
	"github.com/ericfisherdev/pmhub/internal/domain/model"
	"github.com/ericfisherdev/pmhub/internal/domain/port/driven"
)

const settingsPath = "/settings"

// Handler is the web driving adapter that serves the marketing pages and the
// integration settings page.
type Handler struct {
	oauthSvc     *application.OAuthService
	toolSvc      *application.PMToolService
	pages        map[string]vm.PageViewModel
	pageTmpl     *template.Template
	settingsTmpl *template.Template
	secure       bool
	logger       *slog.Logger
}

// NewHandler creates a Handler, parsing templates and rendering the Markdown
// pages up front. appURL decides whether cookies are marked Secure.
func NewHandler(
	oauthSvc *application.OAuthService,
	toolSvc *application.PMToolService,
	appURL string,
	logger *slog.Logger,
) (*Handler, error) {
	pageTmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/page.html")
	if err != nil {
		return nil, fmt.Errorf("parse page templates: %w", err)
	}
	settingsTmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/settings.html")
	if err != nil {
		return nil, fmt.Errorf("parse settings templates: %w", err)
	}
	pages, err := renderPages()
	if err != nil {
		return nil, err
	}

	return &Handler{
		oauthSvc:     oauthSvc,
		toolSvc:      toolSvc,
		pages:        pages,
		pageTmpl:     pageTmpl,
		settingsTmpl: settingsTmpl,
		secure:       strings.HasPrefix(appURL, "https://"),
		logger:       logger,
	}, nil
}

// Page renders the marketing page registered for the request path.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	p, ok := h.pages[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	h.render(w, h.pageTmpl, p)
}

// Settings renders the integrations and PM tools overview. A banner is shown
// when the OAuth callback redirected here with a result.
func (h *Handler) Settings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	data := vm.SettingsViewModel{
		LayoutViewModel: layout("Settings", settingsPath),
		Banner:          bannerFromQuery(r.URL.Query()),
		CSRFToken:       csrfToken(w, r, h.secure),
	}

	integrations, err := h.oauthSvc.List(ctx)
	switch {
	case errors.Is(err, driven.ErrEncryptionKeyNotSet):
		data.StorageNotice = httphandler.StorageDisabledMessage
	case err != nil:
		h.logger.Error("failed to list integrations", "error", err)
		data.StorageNotice = "Integrations could not be loaded."
	}
	data.Integrations = toIntegrationCards(h.oauthSvc.ConfiguredProviders(), integrations)

	tools, err := h.toolSvc.List(ctx)
	if err != nil {
		h.logger.Error("failed to list pm tools", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	data.Tools = toToolRows(tools)

	h.render(w, h.settingsTmpl, data)
}

// Connect starts an authorization from the settings page and redirects the
// browser straight to the provider.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	provider := model.Provider(r.PathValue("provider"))

	req, err := h.oauthSvc.BeginAuth(r.Context(), provider)
	if err != nil {
		var msg string
		switch {
		case errors.Is(err, driven.ErrProviderNotConfigured):
			msg = provider.DisplayName() + " integration is not configured"
		case errors.Is(err, driven.ErrOAuthNotSupported):
			msg = provider.DisplayName() + " does not support OAuth connections"
		case errors.Is(err, driven.ErrUnknownProvider):
			msg = "Unknown integration provider"
		case errors.Is(err, driven.ErrEncryptionKeyNotSet):
			msg = httphandler.StorageDisabledMessage
		default:
			msg = "Failed to start " + provider.DisplayName() + " authorization"
			h.logger.Error("failed to begin oauth", "provider", provider, "error", err)
		}
		redirectSettings(w, r, "integration_error", msg)
		return
	}

	httphandler.SetStateCookie(w, req.State, h.secure)
	http.Redirect(w, r, req.URL, http.StatusFound)
}

// Disconnect removes an integration from the settings page form.
func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	if !validateCSRF(r) {
		http.Error(w, "invalid CSRF token", http.StatusForbidden)
		return
	}

	provider := model.Provider(r.PathValue("provider"))
	if err := h.oauthSvc.Disconnect(r.Context(), provider); err != nil {
		if !errors.Is(err, driven.ErrIntegrationNotFound) && !errors.Is(err, driven.ErrUnknownProvider) {
			h.logger.Error("failed to disconnect integration", "provider", provider, "error", err)
		}
		redirectSettings(w, r, "integration_error", "Failed to disconnect "+provider.DisplayName())
		return
	}

	redirectSettings(w, r, "integration_disconnected", string(provider))
}

// render executes the layout into a buffer first so a template error never
// produces a half-written page.
func (h *Handler) render(w http.ResponseWriter, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		h.logger.Error("failed to render page", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func redirectSettings(w http.ResponseWriter, r *http.Request, key, value string) {
	http.Redirect(w, r, settingsPath+"?"+url.Values{key: {value}}.Encode(), http.StatusSeeOther)
}
