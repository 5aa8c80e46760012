package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// WebSearchClient queries a SearXNG metasearch instance. The instance URL is
// user-supplied config; the provider is unusable until it is set.
type WebSearchClient struct {
	httpClient  *http.Client
	instanceURL string
}

// NewWebSearchClient creates the web search client provider.
func NewWebSearchClient() *WebSearchClient {
	return &WebSearchClient{
		httpClient: &http.Client{Timeout: 20 * time.Second},
	}
}

// WebSearchMetadata is the registry metadata for the web search client.
func WebSearchMetadata() Metadata {
	return Metadata{
		ID:          "websearch",
		Name:        "Web Search",
		Description: "Search the web through a SearXNG instance",
		Version:     "1.0.0",
		Tags:        []string{"web", "search"},
		Hosts:       []string{"*"},
		AlwaysOn:    true,
	}
}

func (c *WebSearchClient) Capabilities() []Capability {
	return []Capability{
		{
			Name:        "search",
			Description: "Search the web and return titles, URLs and snippets",
			Parameters: []Parameter{
				{Name: "query", Type: "string", Description: "Search query", Required: true},
				{Name: "limit", Type: "number", Description: "Maximum results to return", Default: 10},
			},
		},
	}
}

func (c *WebSearchClient) CredentialFields() []Field { return nil }

func (c *WebSearchClient) ConfigFields() []Field {
	return []Field{
		{
			Key:         "instance_url",
			Label:       "SearXNG instance URL",
			Description: "Base URL of the SearXNG instance to query, e.g. https://searx.example.org",
			Required:    true,
		},
	}
}

func (c *WebSearchClient) SetCredentials(values map[string]string) {}

func (c *WebSearchClient) SetConfig(values map[string]string) {
	c.instanceURL = strings.TrimRight(values["instance_url"], "/")
}

func (c *WebSearchClient) Initialize(ctx context.Context) error {
	if c.instanceURL == "" {
		return fmt.Errorf("instance_url not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.instanceURL, nil)
	if err != nil {
		return fmt.Errorf("invalid instance URL: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("instance unreachable: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("instance returned HTTP %d", resp.StatusCode)
	}
	return nil
}

type searxResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
	Engine  string `json:"engine"`
}

type searxResponse struct {
	Results []searxResult `json:"results"`
}

func (c *WebSearchClient) Execute(ctx context.Context, name string, input map[string]any) (*Result, error) {
	if name != "search" {
		return nil, fmt.Errorf("unknown capability: %s", name)
	}
	if c.instanceURL == "" {
		return nil, fmt.Errorf("instance_url not configured")
	}

	query, _ := input["query"].(string)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}

	limit := 10
	if n, ok := input["limit"].(float64); ok && n > 0 {
		limit = int(n)
	}

	searchURL := fmt.Sprintf("%s/search?q=%s&format=json", c.instanceURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search failed: HTTP %d", resp.StatusCode)
	}

	var parsed searxResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	if len(parsed.Results) > limit {
		parsed.Results = parsed.Results[:limit]
	}

	items := make([]map[string]string, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		items = append(items, map[string]string{
			"title":   r.Title,
			"url":     r.URL,
			"snippet": r.Content,
		})
	}

	return &Result{Data: map[string]any{
		"query": query,
		"items": items,
	}}, nil
}
