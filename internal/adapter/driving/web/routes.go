package web

import (
	"io/fs"
	"net/http"
)

// RegisterRoutes registers all web routes on the provided mux. Static assets
// are served from the embedded filesystem at /static/*.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	staticFS, _ := fs.Sub(StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	for _, p := range sitePages {
		pattern := "GET " + p.Path
		if p.Path == "/" {
			pattern = "GET /{$}"
		}
		mux.HandleFunc(pattern, h.Page)
	}

	mux.HandleFunc("GET "+settingsPath, h.Settings)
	mux.HandleFunc("GET "+settingsPath+"/integrations/{provider}/connect", h.Connect)
	mux.HandleFunc("POST "+settingsPath+"/integrations/{provider}/disconnect", h.Disconnect)
}
