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

// JiraClient wraps the Atlassian Jira Cloud REST API. It requires the site
// base URL plus an email/API-token pair for basic auth.
type JiraClient struct {
	httpClient *http.Client
	baseURL    string
	email      string
	apiToken   string
}

// NewJiraClient creates the Jira client provider.
func NewJiraClient() *JiraClient {
	return &JiraClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// JiraMetadata is the registry metadata for the Jira client.
func JiraMetadata() Metadata {
	return Metadata{
		ID:          "jira",
		Name:        "Jira",
		Description: "Search and read issues on a Jira Cloud site",
		Version:     "1.0.0",
		Tags:        []string{"issues", "atlassian", "project-management"},
		Hosts:       []string{"*.atlassian.net"},
	}
}

func (c *JiraClient) Capabilities() []Capability {
	return []Capability{
		{
			Name:        "search_issues",
			Description: "Search Jira issues with a JQL query",
			Parameters: []Parameter{
				{Name: "jql", Type: "string", Description: "JQL query, e.g. 'project = NAV AND status = \"In Progress\"'", Required: true},
				{Name: "max_results", Type: "number", Description: "Maximum issues to return", Default: 20},
			},
		},
		{
			Name:        "get_issue",
			Description: "Fetch one Jira issue by key",
			Parameters: []Parameter{
				{Name: "key", Type: "string", Description: "Issue key, e.g. NAV-123", Required: true},
			},
		},
	}
}

func (c *JiraClient) CredentialFields() []Field {
	return []Field{
		{Key: "base_url", Label: "Site URL", Description: "Jira site base URL, e.g. https://yourteam.atlassian.net", Required: true},
		{Key: "email", Label: "Account email", Description: "Atlassian account email", Required: true},
		{Key: "api_token", Label: "API token", Description: "Atlassian API token", Required: true},
	}
}

func (c *JiraClient) ConfigFields() []Field { return nil }

func (c *JiraClient) SetCredentials(values map[string]string) {
	c.baseURL = strings.TrimRight(values["base_url"], "/")
	c.email = values["email"]
	c.apiToken = values["api_token"]
}

func (c *JiraClient) SetConfig(values map[string]string) {}

func (c *JiraClient) Initialize(ctx context.Context) error {
	if c.baseURL == "" || c.email == "" || c.apiToken == "" {
		return fmt.Errorf("jira credentials not configured")
	}

	var me struct {
		AccountID string `json:"accountId"`
	}
	if err := c.get(ctx, c.baseURL+"/rest/api/2/myself", &me); err != nil {
		return fmt.Errorf("jira authentication check failed: %w", err)
	}
	return nil
}

type jiraIssue struct {
	Key    string `json:"key"`
	Fields struct {
		Summary string `json:"summary"`
		Status  struct {
			Name string `json:"name"`
		} `json:"status"`
		Assignee *struct {
			DisplayName string `json:"displayName"`
		} `json:"assignee"`
		Priority *struct {
			Name string `json:"name"`
		} `json:"priority"`
		Description string `json:"description"`
		Updated     string `json:"updated"`
	} `json:"fields"`
}

type jiraSearchResponse struct {
	Total  int         `json:"total"`
	Issues []jiraIssue `json:"issues"`
}

func (c *JiraClient) Execute(ctx context.Context, name string, input map[string]any) (*Result, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("jira credentials not configured")
	}

	switch name {
	case "search_issues":
		jql, _ := input["jql"].(string)
		if jql == "" {
			return nil, fmt.Errorf("jql is required")
		}
		maxResults := 20
		if n, ok := input["max_results"].(float64); ok && n > 0 {
			maxResults = int(n)
		}
		return c.searchIssues(ctx, jql, maxResults)

	case "get_issue":
		key, _ := input["key"].(string)
		if key == "" {
			return nil, fmt.Errorf("key is required")
		}
		return c.getIssue(ctx, key)

	default:
		return nil, fmt.Errorf("unknown capability: %s", name)
	}
}

func (c *JiraClient) searchIssues(ctx context.Context, jql string, maxResults int) (*Result, error) {
	searchURL := fmt.Sprintf("%s/rest/api/2/search?jql=%s&maxResults=%d",
		c.baseURL, url.QueryEscape(jql), maxResults)

	var parsed jiraSearchResponse
	if err := c.get(ctx, searchURL, &parsed); err != nil {
		return nil, err
	}

	items := make([]map[string]string, 0, len(parsed.Issues))
	for _, issue := range parsed.Issues {
		items = append(items, summarizeIssue(issue))
	}

	return &Result{Data: map[string]any{
		"total": parsed.Total,
		"items": items,
	}}, nil
}

func (c *JiraClient) getIssue(ctx context.Context, key string) (*Result, error) {
	var issue jiraIssue
	if err := c.get(ctx, fmt.Sprintf("%s/rest/api/2/issue/%s", c.baseURL, url.PathEscape(key)), &issue); err != nil {
		return nil, err
	}

	data := summarizeIssue(issue)
	data["description"] = issue.Fields.Description
	return &Result{Data: data}, nil
}

func summarizeIssue(issue jiraIssue) map[string]string {
	assignee := ""
	if issue.Fields.Assignee != nil {
		assignee = issue.Fields.Assignee.DisplayName
	}
	priority := ""
	if issue.Fields.Priority != nil {
		priority = issue.Fields.Priority.Name
	}
	return map[string]string{
		"key":      issue.Key,
		"summary":  issue.Fields.Summary,
		"status":   issue.Fields.Status.Name,
		"assignee": assignee,
		"priority": priority,
		"updated":  issue.Fields.Updated,
	}
}

func (c *JiraClient) get(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.email, c.apiToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("jira rejected credentials (HTTP %d)", resp.StatusCode)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("not found (404)")
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("jira API returned %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
