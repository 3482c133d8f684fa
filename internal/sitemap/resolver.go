// Package sitemap fetches and recursively resolves XML sitemaps into
// flat page-URL lists.
package sitemap

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// MaxDepth bounds recursion through nested sitemap indexes.
	// Depth 0 is the root call; branches past the cap yield no URLs
	// rather than failing the whole crawl.
	MaxDepth = 3

	defaultTimeout = 15 * time.Second

	// Sitemaps have no inherent size bound; cap the body read so a
	// hostile document cannot exhaust memory.
	maxBodyBytes = 32 << 20

	userAgent = "foghorn-bot/1.0"
)

// Resolver fetches sitemap documents over HTTP.
type Resolver struct {
	client  *http.Client
	timeout time.Duration
}

// Option mutates a Resolver at construction time.
type Option func(*Resolver)

// WithTimeout overrides the per-fetch timeout (tests mostly).
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.timeout = d }
}

// WithClient overrides the HTTP client.
func WithClient(c *http.Client) Option {
	return func(r *Resolver) { r.client = c }
}

// New builds a Resolver with a 15s per-fetch timeout.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		client:  &http.Client{},
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// sitemapDocument covers both recognized shapes. The root element
// name distinguishes a sitemap index from a URL set; repeated child
// elements decode into slices, so a single-entry document and a
// multi-entry one take the same path.
type sitemapDocument struct {
	XMLName  xml.Name
	Sitemaps []locEntry `xml:"sitemap"`
	URLs     []locEntry `xml:"url"`
}

type locEntry struct {
	Loc string `xml:"loc"`
}

// Fetch retrieves the sitemap at url and returns its page URLs in
// document order. Sitemap indexes are resolved recursively; nested
// results are concatenated in index order. Duplicates across nested
// sitemaps are not removed here; the reconciler dedups by path
// against existing pages.
//
// A timeout or non-2xx response is an error that aborts the whole
// resolution; callers treat it as the site's scrape failure.
func (r *Resolver) Fetch(ctx context.Context, url string, depth int) ([]string, error) {
	if depth > MaxDepth {
		return nil, nil
	}

	body, err := r.get(ctx, url)
	if err != nil {
		return nil, err
	}

	var doc sitemapDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("parse sitemap %s: %w", url, err)
	}

	var pages []string
	switch doc.XMLName.Local {
	case "sitemapindex":
		for _, entry := range doc.Sitemaps {
			if entry.Loc == "" {
				continue
			}
			nested, err := r.Fetch(ctx, entry.Loc, depth+1)
			if err != nil {
				return nil, err
			}
			pages = append(pages, nested...)
		}
	case "urlset":
		for _, entry := range doc.URLs {
			if entry.Loc != "" {
				pages = append(pages, entry.Loc)
			}
		}
	}
	// Any other root shape yields an empty list.
	return pages, nil
}

func (r *Resolver) get(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/xml, text/xml")

	resp, err := r.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("timeout fetching %s", url)
		}
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("timeout fetching %s", url)
		}
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return body, nil
}
