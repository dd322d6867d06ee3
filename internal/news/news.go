// Package news fetches and parses the Arch Linux news RSS feed.
package news

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultFeedURL is the production news feed.
const DefaultFeedURL = "https://archlinux.org/feeds/news/"

const (
	defaultTimeout = 10 * time.Second
	maxBodySize    = 4 << 20
)

// Item is one news entry.
type Item struct {
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Published   time.Time `json:"published"`
	Description string    `json:"description,omitempty"`
}

// Client fetches one RSS feed.
type Client struct {
	feedURL string
	http    *http.Client
}

// New returns a client for the given feed URL; empty means the Arch feed.
func New(feedURL string) *Client {
	return NewWithTimeout(feedURL, 0)
}

// NewWithTimeout is New with an explicit request timeout (<=0 for the
// default).
func NewWithTimeout(feedURL string, timeout time.Duration) *Client {
	if feedURL == "" {
		feedURL = DefaultFeedURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		feedURL: feedURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type rssDoc struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	PubDate     string `xml:"pubDate"`
	Description string `xml:"description"`
}

// Fetch downloads the feed and returns up to limit items, newest first
// (feed order).
func (c *Client) Fetch(ctx context.Context, limit int) ([]Item, error) {
	if limit <= 0 {
		limit = 10
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news: fetching feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news: feed returned %s", resp.Status)
	}

	var doc rssDoc
	if err := xml.NewDecoder(io.LimitReader(resp.Body, maxBodySize)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("news: decoding feed: %w", err)
	}

	items := make([]Item, 0, limit)
	for _, raw := range doc.Channel.Items {
		if len(items) == limit {
			break
		}
		items = append(items, Item{
			Title:       strings.TrimSpace(raw.Title),
			Link:        strings.TrimSpace(raw.Link),
			Published:   parsePubDate(raw.PubDate),
			Description: strings.TrimSpace(raw.Description),
		})
	}
	return items, nil
}

// pubDate layouts seen in the wild; the Arch feed uses RFC 1123 with a
// numeric zone.
var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
}

func parsePubDate(value string) time.Time {
	value = strings.TrimSpace(value)
	for _, layout := range pubDateLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts
		}
	}
	return time.Time{}
}
