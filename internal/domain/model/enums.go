package model

// Provider identifies an external PM tool that pmhub can connect to or sync.
type Provider string

const (
	ProviderJira   Provider = "jira"
	ProviderLinear Provider = "linear"
	ProviderAsana  Provider = "asana"
	ProviderGitHub Provider = "github"
	ProviderTrello Provider = "trello"
)

// ToolStatus represents the connection state of a PM tool.
type ToolStatus string

const (
	ToolStatusConnected    ToolStatus = "connected"
	ToolStatusDisconnected ToolStatus = "disconnected"
	ToolStatusSyncing      ToolStatus = "syncing"
	ToolStatusError        ToolStatus = "error"
)

// SyncStatus is the outcome of syncing a single tool.
type SyncStatus string

const (
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusFailed  SyncStatus = "failed"
	SyncStatusSkipped SyncStatus = "skipped"
)

// Framework names a prioritization or strategy framework used by the analyst.
type Framework string

const (
	FrameworkPorter Framework = "Porter's Five Forces"
	FrameworkRICE   Framework = "RICE"
	FrameworkICE    Framework = "ICE"
)

// Valid reports whether p is a provider pmhub knows about.
func (p Provider) Valid() bool {
	switch p {
	case ProviderJira, ProviderLinear, ProviderAsana, ProviderGitHub, ProviderTrello:
		return true
	}
	return false
}

// SupportsOAuth reports whether pmhub can connect p through an OAuth
// authorization. Only Jira has a connector.
func (p Provider) SupportsOAuth() bool {
	return p == ProviderJira
}

// DisplayName returns the human-facing product name for p.
func (p Provider) DisplayName() string {
	switch p {
	case ProviderJira:
		return "Jira"
	case ProviderLinear:
		return "Linear"
	case ProviderAsana:
		return "Asana"
	case ProviderGitHub:
		return "GitHub"
	case ProviderTrello:
		return "Trello"
	}
	return string(p)
}
