package httphandler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/ericfisherdev/pmhub/internal/application"
	"github.com/ericfisherdev/pmhub/internal/domain/model"
	"github.com/ericfisherdev/pmhub/internal/domain/port/driven"
)

const (
	// StateCookieName binds an authorization request to the browser that
	// started it.
	StateCookieName = "oauth_state"

	// StorageDisabledMessage is shown when PMHUB_SECRET_KEY is absent.
	StorageDisabledMessage = "Integration storage is disabled. Set PMHUB_SECRET_KEY to connect tools."

	stateCookiePath = "/api/integrations"
	settingsPath    = "/settings"
)

// BeginAuth starts an OAuth authorization for the provider in the path. When
// the provider has no client credentials it answers 400 with setup
// instructions and has no side effect. Providers without an OAuth connector
// answer 404, and 503 means tokens could not be stored.
func (h *Handler) BeginAuth(w http.ResponseWriter, r *http.Request) {
	provider := model.Provider(r.PathValue("provider"))

	req, err := h.oauthSvc.BeginAuth(r.Context(), provider)
	switch {
	case errors.Is(err, driven.ErrUnknownProvider):
		writeError(w, http.StatusNotFound, "unknown integration provider")
		return
	case errors.Is(err, driven.ErrOAuthNotSupported):
		writeError(w, http.StatusNotFound, provider.DisplayName()+" does not support OAuth connections")
		return
	case errors.Is(err, driven.ErrProviderNotConfigured):
		writeJSON(w, http.StatusBadRequest, h.setupResponse(provider))
		return
	case errors.Is(err, driven.ErrEncryptionKeyNotSet):
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		h.logger.Error("failed to begin oauth", "provider", provider, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	SetStateCookie(w, req.State, strings.HasPrefix(h.appURL, "https://"))

	writeJSON(w, http.StatusOK, AuthURLResponse{
		Success: true,
		AuthURL: req.URL,
		State:   req.State,
	})
}

// OAuthCallback completes an authorization and redirects the browser to the
// settings page with either integration_success or integration_error.
func (h *Handler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider := model.Provider(r.PathValue("provider"))
	q := r.URL.Query()

	h.clearStateCookie(w)

	if oauthErr := q.Get("error"); oauthErr != "" {
		msg := oauthErr
		if desc := q.Get("error_description"); desc != "" {
			msg = desc
		}
		h.logger.Warn("oauth provider returned error", "provider", provider, "error", oauthErr)
		h.redirectSettings(w, r, "integration_error", msg)
		return
	}

	code, state := q.Get("code"), q.Get("state")
	if code == "" || state == "" {
		h.redirectSettings(w, r, "integration_error", "Missing authorization code or state")
		return
	}

	var cookieState string
	if c, err := r.Cookie(StateCookieName); err == nil {
		cookieState = c.Value
	}

	if _, err := h.oauthSvc.HandleCallback(r.Context(), provider, code, state, cookieState); err != nil {
		h.logger.Warn("oauth callback failed", "provider", provider, "error", err)
		h.redirectSettings(w, r, "integration_error", callbackErrorMessage(provider, err))
		return
	}

	h.redirectSettings(w, r, "integration_success", string(provider))
}

// ListIntegrations returns every connected integration without its tokens.
func (h *Handler) ListIntegrations(w http.ResponseWriter, r *http.Request) {
	configs, err := h.oauthSvc.List(r.Context())
	if err != nil {
		if errors.Is(err, driven.ErrEncryptionKeyNotSet) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		h.logger.Error("failed to list integrations", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	now := h.now()
	resp := make([]IntegrationResponse, 0, len(configs))
	for _, cfg := range configs {
		resp = append(resp, toIntegrationResponse(cfg, now))
	}

	writeData(w, http.StatusOK, resp)
}

// DisconnectIntegration removes the stored integration for the provider.
func (h *Handler) DisconnectIntegration(w http.ResponseWriter, r *http.Request) {
	provider := model.Provider(r.PathValue("provider"))

	if err := h.oauthSvc.Disconnect(r.Context(), provider); err != nil {
		switch {
		case errors.Is(err, driven.ErrUnknownProvider):
			writeError(w, http.StatusNotFound, "unknown integration provider")
		case errors.Is(err, driven.ErrIntegrationNotFound):
			writeError(w, http.StatusNotFound, "integration not connected")
		default:
			h.logger.Error("failed to disconnect integration", "provider", provider, "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	writeData(w, http.StatusOK, map[string]string{"provider": string(provider)})
}

func (h *Handler) setupResponse(provider model.Provider) SetupResponse {
	prefix := strings.ToUpper(string(provider))
	name := provider.DisplayName()
	redirectURI := h.appURL + "/api/integrations/oauth/callback/" + string(provider)

	return SetupResponse{
		Success: false,
		Error:   name + " integration is not configured",
		Setup: SetupInstructions{
			Steps: []string{
				"Create an OAuth 2.0 app in the " + name + " developer console",
				"Add " + redirectURI + " as the callback URL",
				"Set " + prefix + "_CLIENT_ID and " + prefix + "_CLIENT_SECRET in the server environment",
				"Restart pmhub and try connecting again",
			},
			RedirectURI: redirectURI,
			RequiredEnv: []string{prefix + "_CLIENT_ID", prefix + "_CLIENT_SECRET"},
		},
	}
}

func (h *Handler) redirectSettings(w http.ResponseWriter, r *http.Request, key, value string) {
	target := h.appURL + settingsPath + "?" + url.Values{key: {value}}.Encode()
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handler) clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    "",
		Path:     stateCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   strings.HasPrefix(h.appURL, "https://"),
		SameSite: http.SameSiteLaxMode,
	})
}

// SetStateCookie binds state to the browser for the lifetime of the
// authorization request. The cookie is only sent to /api/integrations so the
// callback route can read it.
func SetStateCookie(w http.ResponseWriter, state string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    state,
		Path:     stateCookiePath,
		MaxAge:   int(application.StateTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// callbackErrorMessage turns a callback failure into the message shown on the
// settings page. Upstream details stay in the logs.
func callbackErrorMessage(provider model.Provider, err error) string {
	switch {
	case errors.Is(err, driven.ErrUnknownProvider):
		return "Unknown integration provider"
	case errors.Is(err, driven.ErrOAuthNotSupported):
		return provider.DisplayName() + " does not support OAuth connections"
	case errors.Is(err, driven.ErrProviderNotConfigured):
		return provider.DisplayName() + " integration is not configured"
	case errors.Is(err, driven.ErrEncryptionKeyNotSet):
		return StorageDisabledMessage
	case errors.Is(err, driven.ErrStateNotFound),
		errors.Is(err, driven.ErrStateExpired),
		errors.Is(err, driven.ErrStateMismatch):
		return "Authorization request expired or is invalid. Please try again."
	default:
		return "Failed to connect " + provider.DisplayName()
	}
}
