package capability

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// fetchBodyLimit caps how much of a response we read. Pages past this size
// are cut off rather than ballooning the tool result.
const fetchBodyLimit = 2 << 20

// FetchClient retrieves web pages and extracts readable text or links.
// No credentials, applicable to any page, part of every working set.
type FetchClient struct {
	httpClient *http.Client
}

// NewFetchClient creates the fetch client provider.
func NewFetchClient() *FetchClient {
	return &FetchClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchMetadata is the registry metadata for the fetch client.
func FetchMetadata() Metadata {
	return Metadata{
		ID:          "fetch",
		Name:        "Page Fetch",
		Description: "Fetch a web page and extract its readable text or links",
		Version:     "1.0.0",
		Tags:        []string{"web", "browsing"},
		Hosts:       []string{"*"},
		AlwaysOn:    true,
	}
}

func (c *FetchClient) Capabilities() []Capability {
	return []Capability{
		{
			Name:        "fetch_page",
			Description: "Fetch a URL and return the readable text content of the page",
			Parameters: []Parameter{
				{Name: "url", Type: "string", Description: "Absolute http(s) URL to fetch", Required: true},
				{Name: "selector", Type: "string", Description: "Optional CSS selector to narrow extraction"},
			},
		},
		{
			Name:        "fetch_links",
			Description: "Fetch a URL and return the hyperlinks found on the page",
			Parameters: []Parameter{
				{Name: "url", Type: "string", Description: "Absolute http(s) URL to fetch", Required: true},
			},
		},
	}
}

func (c *FetchClient) CredentialFields() []Field { return nil }
func (c *FetchClient) ConfigFields() []Field     { return nil }

func (c *FetchClient) SetCredentials(values map[string]string) {}
func (c *FetchClient) SetConfig(values map[string]string)      {}

func (c *FetchClient) Initialize(ctx context.Context) error { return nil }

func (c *FetchClient) Execute(ctx context.Context, name string, input map[string]any) (*Result, error) {
	url, _ := input["url"].(string)
	if url == "" {
		return nil, fmt.Errorf("url is required")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, fmt.Errorf("url must be http or https")
	}

	switch name {
	case "fetch_page":
		selector, _ := input["selector"].(string)
		return c.fetchPage(ctx, url, selector)
	case "fetch_links":
		return c.fetchLinks(ctx, url)
	default:
		return nil, fmt.Errorf("unknown capability: %s", name)
	}
}

func (c *FetchClient) fetchPage(ctx context.Context, url, selector string) (*Result, error) {
	doc, err := c.load(ctx, url)
	if err != nil {
		return nil, err
	}

	doc.Find("script, style, noscript, svg").Remove()

	root := doc.Selection
	if selector != "" {
		root = doc.Find(selector)
		if root.Length() == 0 {
			return nil, fmt.Errorf("selector %q matched nothing", selector)
		}
	}

	text := collapseWhitespace(root.Text())
	if text == "" {
		return nil, fmt.Errorf("no readable text found at %s", url)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	return &Result{Data: map[string]any{
		"url":   url,
		"title": title,
		"text":  text,
	}}, nil
}

func (c *FetchClient) fetchLinks(ctx context.Context, url string) (*Result, error) {
	doc, err := c.load(ctx, url)
	if err != nil {
		return nil, err
	}

	var links []map[string]string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
			return
		}
		links = append(links, map[string]string{
			"href": href,
			"text": collapseWhitespace(sel.Text()),
		})
	})

	return &Result{Data: map[string]any{
		"url":   url,
		"links": links,
	}}, nil
}

func (c *FetchClient) load(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	req.Header.Set("User-Agent", "navi/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch failed: HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, fetchBodyLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	return doc, nil
}

var whitespaceRe = regexp.MustCompile(`[ \t]*\n[ \t\n]*`)
var spacesRe = regexp.MustCompile(`[ \t]{2,}`)

func collapseWhitespace(s string) string {
	s = whitespaceRe.ReplaceAllString(s, "\n")
	s = spacesRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
