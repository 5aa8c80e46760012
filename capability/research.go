package capability

import (
	"context"
	"fmt"
	"strings"

	"navi/config"
)

// ResearchAgent composes the websearch and fetch clients into a single
// deep-research capability: search a topic, fetch the top hits, and return
// the collated extracts. Dependencies are wired by the catalog builder
// before any capability runs.
type ResearchAgent struct {
	deps map[string]Provider
}

// NewResearchAgent creates the research agent provider.
func NewResearchAgent() *ResearchAgent {
	return &ResearchAgent{deps: make(map[string]Provider)}
}

// ResearchMetadata is the registry metadata for the research agent.
func ResearchMetadata() Metadata {
	return Metadata{
		ID:          "research",
		Name:        "Deep Research",
		Description: "Search the web for a topic and collate extracts from the top sources",
		Version:     "1.0.0",
		Tags:        []string{"research", "web"},
		Hosts:       []string{"*"},
	}
}

func (a *ResearchAgent) Capabilities() []Capability {
	return []Capability{
		{
			Name:        "deep_research",
			Description: "Search the web for a topic, fetch the top results and return collated extracts with sources",
			Parameters: []Parameter{
				{Name: "topic", Type: "string", Description: "Topic or question to research", Required: true},
				{Name: "max_sources", Type: "number", Description: "How many sources to fetch", Default: 3},
			},
		},
	}
}

func (a *ResearchAgent) CredentialFields() []Field { return nil }
func (a *ResearchAgent) ConfigFields() []Field     { return nil }

func (a *ResearchAgent) SetCredentials(values map[string]string) {}
func (a *ResearchAgent) SetConfig(values map[string]string)      {}

func (a *ResearchAgent) Dependencies() []string {
	return []string{"websearch", "fetch"}
}

func (a *ResearchAgent) SetDependency(id string, dep Provider) {
	a.deps[id] = dep
}

func (a *ResearchAgent) Initialize(ctx context.Context) error {
	for _, id := range a.Dependencies() {
		if a.deps[id] == nil {
			return fmt.Errorf("dependency %s not wired", id)
		}
	}
	return nil
}

func (a *ResearchAgent) Execute(ctx context.Context, name string, input map[string]any) (*Result, error) {
	if name != "deep_research" {
		return nil, fmt.Errorf("unknown capability: %s", name)
	}
	if err := a.Initialize(ctx); err != nil {
		return nil, err
	}

	topic, _ := input["topic"].(string)
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	maxSources := 3
	if n, ok := input["max_sources"].(float64); ok && n > 0 {
		maxSources = int(n)
	}

	search := a.deps["websearch"]
	fetch := a.deps["fetch"]

	searchResult, err := search.Execute(ctx, "search", map[string]any{
		"query": topic,
		"limit": float64(maxSources),
	})
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	urls := extractResultURLs(searchResult.Data)
	if len(urls) == 0 {
		return nil, fmt.Errorf("no search results for %q", topic)
	}
	if len(urls) > maxSources {
		urls = urls[:maxSources]
	}

	var sections []string
	for _, pageURL := range urls {
		pageResult, err := fetch.Execute(ctx, "fetch_page", map[string]any{"url": pageURL})
		if err != nil {
			if config.Debug {
				config.DebugLog.Printf("[Research] Skipping %s: %v", pageURL, err)
			}
			continue
		}

		text := extractPageText(pageResult.Data)
		if len(text) > 4000 {
			text = text[:4000]
		}
		sections = append(sections, fmt.Sprintf("Source: %s\n%s", pageURL, text))
	}

	if len(sections) == 0 {
		return nil, fmt.Errorf("could not fetch any source for %q", topic)
	}

	return &Result{
		Data: map[string]any{
			"topic":    topic,
			"sources":  urls,
			"extracts": strings.Join(sections, "\n\n---\n\n"),
		},
	}, nil
}

func extractResultURLs(data any) []string {
	payload, ok := data.(map[string]any)
	if !ok {
		return nil
	}

	var urls []string
	switch items := payload["items"].(type) {
	case []map[string]string:
		for _, item := range items {
			if item["url"] != "" {
				urls = append(urls, item["url"])
			}
		}
	case []any:
		for _, raw := range items {
			if item, ok := raw.(map[string]any); ok {
				if u, ok := item["url"].(string); ok && u != "" {
					urls = append(urls, u)
				}
			}
		}
	}
	return urls
}

func extractPageText(data any) string {
	if payload, ok := data.(map[string]any); ok {
		if text, ok := payload["text"].(string); ok {
			return text
		}
	}
	if s, ok := data.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", data)
}
