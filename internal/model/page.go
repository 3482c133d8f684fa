package model

import "time"

// Page is a single page discovered from a site's sitemap. Path is the
// URL path component and is the per-site dedup key: the reconciler
// never creates a second page for a (siteId, path) pair. The audit
// fields are owned by the audit runner.
type Page struct {
	ID            string       `json:"id"`
	SiteID        string       `json:"siteId"`
	Path          string       `json:"path"`
	URL           string       `json:"url"`
	LastAuditedAt *time.Time   `json:"lastAuditedAt"`
	AuditError    *string      `json:"auditError"`
	AuditReport   *AuditReport `json:"auditReport"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}
