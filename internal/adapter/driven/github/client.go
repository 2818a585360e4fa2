// Package github implements the ToolSyncer port for GitHub-backed PM tools
// using the go-github library.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"

	"github.com/ericfisherdev/pmhub/internal/domain/model"
	"github.com/ericfisherdev/pmhub/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ToolSyncer = (*Client)(nil)

// RepositorySetting is the PMTool settings key naming the owner/repo to sync.
const RepositorySetting = "repository"

// ErrNoRepository is returned when a tool has no repository setting.
var ErrNoRepository = errors.New("github tool has no repository setting")

// Client syncs GitHub-backed PM tools by counting open issues.
type Client struct {
	gh *gh.Client
}

// NewClient creates a new GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client with PAT auth)
func NewClient(token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)
	client := gh.NewClient(rateLimitClient).WithAuthToken(token)

	return &Client{gh: client}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL string) (*Client, error) {
	client := gh.NewClient(httpClient)

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{gh: client}, nil
}

// Sync counts the open issues (pull requests excluded) of the repository
// named by the tool's "repository" setting.
func (c *Client) Sync(ctx context.Context, tool model.PMTool) (int, error) {
	repoFullName := strings.TrimSpace(tool.Settings[RepositorySetting])
	if repoFullName == "" {
		return 0, ErrNoRepository
	}

	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return 0, err
	}

	opts := &gh.IssueListByRepoOptions{
		State: "open",
		ListOptions: gh.ListOptions{
			PerPage: 100,
		},
	}

	count := 0
	for {
		issues, resp, err := c.gh.Issues.ListByRepo(ctx, owner, repo, opts)
		if err != nil {
			return 0, fmt.Errorf("listing issues for %s (page %d): %w", repoFullName, opts.ListOptions.Page, err)
		}

		logRateLimit(resp, repoFullName, opts.ListOptions.Page, len(issues))

		for _, issue := range issues {
			if !issue.IsPullRequest() {
				count++
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.ListOptions.Page = resp.NextPage
	}

	return count, nil
}

func logRateLimit(resp *gh.Response, endpoint string, page, count int) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"page", page,
		"count", count,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 100 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}

func splitRepo(fullName string) (string, string, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo name %q: expected owner/repo", fullName)
	}
	return parts[0], parts[1], nil
}
