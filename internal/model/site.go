// Package model defines the persisted entities and the normalized
// audit report shape shared by the pipelines and the HTTP API.
package model

import "time"

// DefaultSitemapPath is used when a site is created without one.
const DefaultSitemapPath = "/sitemap.xml"

// Site is a monitored website owned by a team. The two scrape fields
// are updated together on every scrape attempt: a failure records the
// error and still refreshes the timestamp, a success clears the error.
type Site struct {
	ID                   string     `json:"id"`
	TeamID               string     `json:"teamId"`
	Domain               string     `json:"domain"`
	SitemapPath          string     `json:"sitemapPath"`
	LastScrapedSitemapAt *time.Time `json:"lastScrapedSitemapAt"`
	ScrapeSitemapError   *string    `json:"scrapeSitemapError"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// SitemapURL builds the absolute URL of the site's sitemap.
func (s *Site) SitemapURL() string {
	return "https://" + s.Domain + s.SitemapPath
}
