// Package aur is a client for the AUR RPC v5 interface and the cgit raw
// file endpoint. It fetches package metadata and PKGBUILD text; all
// analysis of what it fetches lives in internal/analyzer.
package aur

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/aurguard/aurguard/internal/analyzer"
)

const (
	// DefaultBaseURL is the production AUR host.
	DefaultBaseURL = "https://aur.archlinux.org"

	defaultTimeout = 10 * time.Second
	maxBodySize    = 4 << 20 // RPC responses and PKGBUILDs are small; cap reads defensively
)

var (
	// ErrNotFound means the package does not exist in the AUR.
	ErrNotFound = errors.New("aur: package not found")

	// ErrRateLimited means the AUR RPC returned 429.
	ErrRateLimited = errors.New("aur: rate limited, retry later")
)

// Package mirrors the AUR RPC result object. Nullable RPC fields stay
// pointers so "absent" is distinguishable from zero.
type Package struct {
	ID             int      `json:"ID"`
	Name           string   `json:"Name"`
	PackageBase    string   `json:"PackageBase"`
	Version        string   `json:"Version"`
	Description    string   `json:"Description"`
	URL            string   `json:"URL"`
	NumVotes       int      `json:"NumVotes"`
	Popularity     float64  `json:"Popularity"`
	OutOfDate      *int64   `json:"OutOfDate"`
	Maintainer     *string  `json:"Maintainer"`
	FirstSubmitted int64    `json:"FirstSubmitted"`
	LastModified   int64    `json:"LastModified"`
	URLPath        string   `json:"URLPath"`
	Depends        []string `json:"Depends,omitempty"`
	MakeDepends    []string `json:"MakeDepends,omitempty"`
	License        []string `json:"License,omitempty"`
	Keywords       []string `json:"Keywords,omitempty"`
}

// Meta converts the RPC payload into the analyzer's metadata record.
func (p Package) Meta() analyzer.PackageMeta {
	return analyzer.PackageMeta{
		Name:           p.Name,
		Votes:          p.NumVotes,
		Popularity:     p.Popularity,
		OutOfDate:      p.OutOfDate,
		Maintainer:     p.Maintainer,
		FirstSubmitted: p.FirstSubmitted,
		LastModified:   p.LastModified,
	}
}

type rpcResponse struct {
	Version     int       `json:"version"`
	Type        string    `json:"type"`
	ResultCount int       `json:"resultcount"`
	Results     []Package `json:"results"`
	Error       string    `json:"error,omitempty"`
}

// Client talks to one AUR instance.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the given AUR base URL; empty means production.
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

// Sort orders accepted by Search.
const (
	SortRelevance  = "relevance"
	SortVotes      = "votes"
	SortPopularity = "popularity"
	SortModified   = "modified"
)

// Search queries the AUR by name/description and returns up to limit
// packages ordered by sortBy (default relevance: exact and prefix name
// matches first, votes break ties).
func (c *Client) Search(ctx context.Context, query string, limit int, sortBy string) ([]Package, error) {
	if limit <= 0 {
		limit = 20
	}

	resp, err := c.rpc(ctx, url.Values{
		"v":    {"5"},
		"type": {"search"},
		"arg":  {query},
	})
	if err != nil {
		return nil, err
	}

	results := resp.Results
	rankResults(results, query, sortBy)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Info fetches metadata for one exact package name.
func (c *Client) Info(ctx context.Context, name string) (*Package, error) {
	resp, err := c.rpc(ctx, url.Values{
		"v":     {"5"},
		"type":  {"info"},
		"arg[]": {name},
	})
	if err != nil {
		return nil, err
	}
	if resp.ResultCount == 0 || len(resp.Results) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	pkg := resp.Results[0]
	return &pkg, nil
}

// PKGBUILD fetches the raw PKGBUILD text for a package base.
func (c *Client) PKGBUILD(ctx context.Context, name string) (string, error) {
	endpoint := c.baseURL + "/cgit/aur.git/plain/PKGBUILD?h=" + url.QueryEscape(name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("aur: fetching PKGBUILD for %s: %w", name, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", fmt.Errorf("%w: %s has no PKGBUILD", ErrNotFound, name)
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("aur: PKGBUILD fetch for %s returned %s", name, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", fmt.Errorf("aur: reading PKGBUILD for %s: %w", name, err)
	}
	return string(body), nil
}

// FetchAudit pulls metadata and PKGBUILD for a package and runs both
// analyzers over them. The PKGBUILD half is skipped (not failed) when the
// file cannot be fetched; metadata failure aborts since the package then
// likely does not exist.
func (c *Client) FetchAudit(ctx context.Context, name string) (analyzer.AuditReport, error) {
	info, err := c.Info(ctx, name)
	if err != nil {
		return analyzer.AuditReport{}, err
	}
	metadata := analyzer.AnalyzeMetadata(info.Meta())

	var safety *analyzer.SafetyReport
	if content, err := c.PKGBUILD(ctx, info.PackageBase); err == nil {
		report := analyzer.AnalyzePKGBUILD(content)
		safety = &report
	}

	return analyzer.CombineAudit(name, safety, &metadata), nil
}

func (c *Client) rpc(ctx context.Context, params url.Values) (*rpcResponse, error) {
	endpoint := c.baseURL + "/rpc/?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("aur: rpc request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("aur: rpc returned %s", resp.Status)
	}

	var parsed rpcResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("aur: decoding rpc response: %w", err)
	}
	if parsed.Type == "error" {
		return nil, fmt.Errorf("aur: rpc error: %s", parsed.Error)
	}
	return &parsed, nil
}

// rankResults sorts in place. Relevance prefers exact name matches, then
// name prefixes, then substring hits, with votes as tiebreaker.
func rankResults(pkgs []Package, query, sortBy string) {
	switch sortBy {
	case SortVotes:
		sort.SliceStable(pkgs, func(i, j int) bool { return pkgs[i].NumVotes > pkgs[j].NumVotes })
	case SortPopularity:
		sort.SliceStable(pkgs, func(i, j int) bool { return pkgs[i].Popularity > pkgs[j].Popularity })
	case SortModified:
		sort.SliceStable(pkgs, func(i, j int) bool { return pkgs[i].LastModified > pkgs[j].LastModified })
	default:
		q := strings.ToLower(query)
		sort.SliceStable(pkgs, func(i, j int) bool {
			ri, rj := relevance(pkgs[i].Name, q), relevance(pkgs[j].Name, q)
			if ri != rj {
				return ri > rj
			}
			return pkgs[i].NumVotes > pkgs[j].NumVotes
		})
	}
}

func relevance(name, query string) int {
	lower := strings.ToLower(name)
	switch {
	case lower == query:
		return 3
	case strings.HasPrefix(lower, query):
		return 2
	case strings.Contains(lower, query):
		return 1
	default:
		return 0
	}
}
