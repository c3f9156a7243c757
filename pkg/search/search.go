package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ghosttube/ghosttube/pkg/client"
	"github.com/ghosttube/ghosttube/pkg/mediapath"
)

const (
	defaultBaseURL    = "https://html.duckduckgo.com/html/"
	defaultMaxResults = 10
	siteFilter        = "site:youtube.com OR site:music.youtube.com"
	userAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Client searches the engine's HTML endpoint for content-host links.
type Client struct {
	HTTP       client.HTTPClient
	BaseURL    string
	MaxResults int
}

// New returns a search client with defaults applied.
func New(httpClient client.HTTPClient, baseURL string, maxResults int) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	return &Client{HTTP: httpClient, BaseURL: baseURL, MaxResults: maxResults}
}

// Search queries the engine for the query scoped to the content host and
// returns up to MaxResults deduplicated links in first-seen order.
func (c *Client) Search(ctx context.Context, query string) ([]string, error) {
	q := url.Values{}
	q.Set("q", query+" "+siteFilter)
	reqURL := c.BaseURL + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search status %d", resp.StatusCode)
	}

	links, err := ParseResults(resp.Body, c.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("parse search results: %w", err)
	}
	return links, nil
}

// ParseResults extracts content-host links from search result markup,
// deduplicating while preserving first-seen order and capping at max.
// Links are deduplicated by video ID where one can be extracted, so
// watch?v= and youtu.be shapes of the same video collapse to one entry.
func ParseResults(body io.Reader, max int) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("goquery parse: %w", err)
	}

	var links []string
	seen := make(map[string]struct{})

	doc.Find(".result, .web-result").Each(func(_ int, s *goquery.Selection) {
		if len(links) >= max {
			return
		}
		anchor := s.Find("a.result__a, .result__title a").First()
		href, exists := anchor.Attr("href")
		if !exists {
			return
		}

		href = unwrapRedirect(href)
		if href == "" || !mediapath.IsContentLink(href) {
			return
		}
		key := href
		if id := mediapath.ExtractVideoID(href); id != "" {
			key = id
		}
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		links = append(links, href)
	})

	return links, nil
}

// unwrapRedirect extracts the destination from the engine's redirect
// wrapper (//duckduckgo.com/l/?uddg=https%3A%2F%2F...&rut=...) and fixes up
// protocol-relative URLs.
func unwrapRedirect(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	if strings.Contains(href, "uddg=") {
		if u, err := url.Parse(href); err == nil {
			if uddg := u.Query().Get("uddg"); uddg != "" {
				return uddg
			}
		}
	}
	if strings.HasPrefix(href, "http") {
		return href
	}
	return ""
}
