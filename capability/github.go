package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const githubAPIBase = "https://api.github.com"

// GitHubClient wraps the GitHub REST API. A token is optional; without one
// requests run against the unauthenticated rate limit.
type GitHubClient struct {
	httpClient *http.Client
	token      string
}

// NewGitHubClient creates the GitHub client provider.
func NewGitHubClient() *GitHubClient {
	return &GitHubClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// GitHubMetadata is the registry metadata for the GitHub client.
func GitHubMetadata() Metadata {
	return Metadata{
		ID:          "github",
		Name:        "GitHub",
		Description: "Look up repositories and search code on GitHub",
		Version:     "1.0.0",
		Tags:        []string{"code", "github"},
		Hosts:       []string{"github.com"},
	}
}

type githubRepoInfo struct {
	FullName        string `json:"full_name"`
	Description     string `json:"description"`
	Language        string `json:"language"`
	StargazersCount int    `json:"stargazers_count"`
	ForksCount      int    `json:"forks_count"`
	OpenIssuesCount int    `json:"open_issues_count"`
	License         *struct {
		SPDXID string `json:"spdx_id"`
	} `json:"license"`
	PushedAt      time.Time `json:"pushed_at"`
	DefaultBranch string    `json:"default_branch"`
}

type githubCodeSearch struct {
	TotalCount int `json:"total_count"`
	Items      []struct {
		Name       string `json:"name"`
		Path       string `json:"path"`
		HTMLURL    string `json:"html_url"`
		Repository struct {
			FullName string `json:"full_name"`
		} `json:"repository"`
	} `json:"items"`
}

func (c *GitHubClient) Capabilities() []Capability {
	return []Capability{
		{
			Name:        "repo_info",
			Description: "Fetch metadata for a GitHub repository (stars, language, license, last push)",
			Parameters: []Parameter{
				{Name: "repo", Type: "string", Description: "Repository in owner/name form", Required: true},
			},
		},
		{
			Name:        "search_code",
			Description: "Search code on GitHub, optionally scoped to one repository",
			Parameters: []Parameter{
				{Name: "query", Type: "string", Description: "Search terms", Required: true},
				{Name: "repo", Type: "string", Description: "Optional owner/name scope"},
			},
		},
	}
}

func (c *GitHubClient) CredentialFields() []Field {
	return []Field{
		{
			Key:         "token",
			Label:       "API token",
			Description: "Personal access token; optional, raises the rate limit",
		},
	}
}

func (c *GitHubClient) ConfigFields() []Field { return nil }

func (c *GitHubClient) SetCredentials(values map[string]string) {
	c.token = values["token"]
}

func (c *GitHubClient) SetConfig(values map[string]string) {}

func (c *GitHubClient) Initialize(ctx context.Context) error {
	var status struct {
		Resources struct {
			Core struct {
				Remaining int `json:"remaining"`
			} `json:"core"`
		} `json:"resources"`
	}
	if err := c.get(ctx, githubAPIBase+"/rate_limit", &status); err != nil {
		return fmt.Errorf("GitHub API unreachable: %w", err)
	}
	return nil
}

func (c *GitHubClient) Execute(ctx context.Context, name string, input map[string]any) (*Result, error) {
	switch name {
	case "repo_info":
		repo, _ := input["repo"].(string)
		return c.repoInfo(ctx, repo)
	case "search_code":
		query, _ := input["query"].(string)
		repo, _ := input["repo"].(string)
		return c.searchCode(ctx, query, repo)
	default:
		return nil, fmt.Errorf("unknown capability: %s", name)
	}
}

func (c *GitHubClient) repoInfo(ctx context.Context, repo string) (*Result, error) {
	if err := validateRepoPath(repo); err != nil {
		return nil, err
	}

	var info githubRepoInfo
	if err := c.get(ctx, fmt.Sprintf("%s/repos/%s", githubAPIBase, repo), &info); err != nil {
		return nil, err
	}

	license := ""
	if info.License != nil {
		license = info.License.SPDXID
	}

	return &Result{Data: map[string]any{
		"full_name":      info.FullName,
		"description":    info.Description,
		"language":       info.Language,
		"stars":          info.StargazersCount,
		"forks":          info.ForksCount,
		"open_issues":    info.OpenIssuesCount,
		"license":        license,
		"pushed_at":      info.PushedAt.Format(time.RFC3339),
		"default_branch": info.DefaultBranch,
	}}, nil
}

func (c *GitHubClient) searchCode(ctx context.Context, query, repo string) (*Result, error) {
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if repo != "" {
		if err := validateRepoPath(repo); err != nil {
			return nil, err
		}
		query = query + " repo:" + repo
	}

	var parsed githubCodeSearch
	searchURL := fmt.Sprintf("%s/search/code?q=%s", githubAPIBase, url.QueryEscape(query))
	if err := c.get(ctx, searchURL, &parsed); err != nil {
		return nil, err
	}

	items := make([]map[string]string, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		items = append(items, map[string]string{
			"repository": item.Repository.FullName,
			"path":       item.Path,
			"url":        item.HTMLURL,
		})
	}

	return &Result{Data: map[string]any{
		"total_count": parsed.TotalCount,
		"items":       items,
	}}, nil
}

func (c *GitHubClient) get(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("not found (404)")
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("GitHub API returned %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func validateRepoPath(repo string) error {
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return fmt.Errorf("repo must be in owner/name form")
	}
	return nil
}
