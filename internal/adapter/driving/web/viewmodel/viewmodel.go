// Package viewmodel defines presentation-ready structs for html/template pages.
// View models decouple template rendering from domain model types.
package viewmodel

import "html/template"

// NavLink is one entry of the site navigation.
type NavLink struct {
	Title  string
	Path   string
	Active bool
}

// LayoutViewModel holds the data every page's layout needs.
type LayoutViewModel struct {
	Title string
	Nav   []NavLink
}

// PageViewModel is a marketing page rendered from Markdown.
type PageViewModel struct {
	LayoutViewModel
	Body template.HTML
}

// BannerViewModel is a one-shot status message on the settings page.
type BannerViewModel struct {
	Kind    string // "success" or "error"
	Message string
}

// IntegrationCardViewModel describes one OAuth provider on the settings page.
type IntegrationCardViewModel struct {
	Provider       string
	Name           string
	Configured     bool
	Connected      bool
	Expired        bool
	WorkspaceName  string
	WorkspaceURL   string
	AccountName    string
	AccountEmail   string
	ConnectedAt    string
	ConnectPath    string
	DisconnectPath string
}

// ToolRowViewModel is one PM tool in the settings table.
type ToolRowViewModel struct {
	Name         string
	Provider     string
	Status       string
	ProjectCount int
	TaskCount    int
	LastSync     string
}

// SettingsViewModel holds everything the settings page renders.
type SettingsViewModel struct {
	LayoutViewModel
	Banner        *BannerViewModel
	StorageNotice string
	Integrations  []IntegrationCardViewModel
	Tools         []ToolRowViewModel
	CSRFToken     string
}
