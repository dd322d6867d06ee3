// Package wiki queries the Arch Wiki through the MediaWiki HTTP API.
package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// DefaultBaseURL is the production Arch Wiki API endpoint root.
const DefaultBaseURL = "https://wiki.archlinux.org"

const (
	defaultTimeout = 10 * time.Second
	maxBodySize    = 8 << 20
)

// Result is one search hit.
type Result struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// Client talks to one MediaWiki instance.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the given wiki root; empty means the Arch Wiki.
func New(baseURL string) *Client {
	return NewWithTimeout(baseURL, 0)
}

// NewWithTimeout is New with an explicit request timeout (<=0 for the
// default).
func NewWithTimeout(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type searchResponse struct {
	Query struct {
		Search []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
		} `json:"search"`
	} `json:"query"`
}

// htmlTagRE strips the <span class="searchmatch"> markup MediaWiki embeds
// in snippets.
var htmlTagRE = regexp.MustCompile(`<[^>]+>`)

// Search runs a full-text search and returns up to limit results with
// plain-text snippets and canonical page URLs.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = 10
	}

	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {fmt.Sprint(limit)},
		"format":   {"json"},
	}

	var parsed searchResponse
	if err := c.get(ctx, params, &parsed); err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(parsed.Query.Search))
	for _, hit := range parsed.Query.Search {
		results = append(results, Result{
			Title:   hit.Title,
			Snippet: htmlTagRE.ReplaceAllString(hit.Snippet, ""),
			URL:     c.baseURL + "/title/" + url.PathEscape(strings.ReplaceAll(hit.Title, " ", "_")),
		})
	}
	return results, nil
}

type parseResponse struct {
	Parse struct {
		Title    string `json:"title"`
		Wikitext struct {
			Content string `json:"*"`
		} `json:"wikitext"`
	} `json:"parse"`
	Error *struct {
		Info string `json:"info"`
	} `json:"error"`
}

// Page fetches a page's wikitext by exact title.
func (c *Client) Page(ctx context.Context, title string) (string, error) {
	params := url.Values{
		"action": {"parse"},
		"page":   {title},
		"prop":   {"wikitext"},
		"format": {"json"},
	}

	var parsed parseResponse
	if err := c.get(ctx, params, &parsed); err != nil {
		return "", err
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("wiki: page %q: %s", title, parsed.Error.Info)
	}
	return parsed.Parse.Wikitext.Content, nil
}

func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	endpoint := c.baseURL + "/api.php?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("wiki: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("wiki: api returned %s", resp.Status)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(out); err != nil {
		return fmt.Errorf("wiki: decoding response: %w", err)
	}
	return nil
}
