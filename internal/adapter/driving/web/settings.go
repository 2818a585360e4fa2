package web

import (
	"slices"
	"time"

	vm "github.com/ericfisherdev/pmhub/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/pmhub/internal/domain/model"
)

const displayTimeLayout = "Jan 2, 2006 15:04 UTC"

// bannerFromQuery builds the settings banner from the redirect parameters
// set by the OAuth callback. Success wins when both are present.
func bannerFromQuery(q map[string][]string) *vm.BannerViewModel {
	get := func(key string) string {
		if v := q[key]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	if p := get("integration_success"); p != "" {
		return &vm.BannerViewModel{Kind: "success", Message: model.Provider(p).DisplayName() + " connected successfully."}
	}
	if p := get("integration_disconnected"); p != "" {
		return &vm.BannerViewModel{Kind: "success", Message: model.Provider(p).DisplayName() + " disconnected."}
	}
	if msg := get("integration_error"); msg != "" {
		return &vm.BannerViewModel{Kind: "error", Message: msg}
	}
	return nil
}

// toIntegrationCards returns one card per provider that is configured or
// connected, plus Jira, which is always offered. Cards are sorted by provider.
func toIntegrationCards(configured []model.Provider, connected []model.IntegrationConfig) []vm.IntegrationCardViewModel {
	byProvider := make(map[model.Provider]*model.IntegrationConfig, len(connected))
	for i := range connected {
		byProvider[connected[i].Provider] = &connected[i]
	}

	providers := []model.Provider{model.ProviderJira}
	providers = append(providers, configured...)
	for p := range byProvider {
		providers = append(providers, p)
	}
	slices.Sort(providers)
	providers = slices.Compact(providers)

	now := time.Now()
	cards := make([]vm.IntegrationCardViewModel, 0, len(providers))
	for _, p := range providers {
		card := vm.IntegrationCardViewModel{
			Provider:       string(p),
			Name:           p.DisplayName(),
			Configured:     slices.Contains(configured, p),
			ConnectPath:    settingsPath + "/integrations/" + string(p) + "/connect",
			DisconnectPath: settingsPath + "/integrations/" + string(p) + "/disconnect",
		}
		if cfg, ok := byProvider[p]; ok {
			card.Connected = true
			card.Expired = cfg.IsExpired(now)
			card.WorkspaceName = cfg.WorkspaceName
			card.WorkspaceURL = cfg.WorkspaceURL
			card.AccountName = cfg.AccountName
			card.AccountEmail = cfg.AccountEmail
			card.ConnectedAt = cfg.ConnectedAt.UTC().Format(displayTimeLayout)
		}
		cards = append(cards, card)
	}
	return cards
}

func toToolRows(tools []model.PMTool) []vm.ToolRowViewModel {
	rows := make([]vm.ToolRowViewModel, 0, len(tools))
	for _, t := range tools {
		row := vm.ToolRowViewModel{
			Name:         t.Name,
			Provider:     t.Provider.DisplayName(),
			Status:       string(t.Status),
			ProjectCount: t.ProjectCount,
			TaskCount:    t.TaskCount,
			LastSync:     "never",
		}
		if t.LastSync != nil {
			row.LastSync = t.LastSync.UTC().Format(displayTimeLayout)
		}
		rows = append(rows, row)
	}
	return rows
}
