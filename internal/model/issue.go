package model

// Issue is the cross-page view of one failing audit. It is derived
// on demand from stored pages and never persisted.
type Issue struct {
	AuditID  string      `json:"auditId"`
	Title    string      `json:"title"`
	Category Category    `json:"category"`
	Pages    []IssuePage `json:"pages"`
}

// IssuePage is one page's occurrence of an issue. DisplayValue is
// always emitted, null when the stored audit carried none.
type IssuePage struct {
	PageID       string  `json:"pageId"`
	URL          string  `json:"url"`
	Path         string  `json:"path"`
	Score        float64 `json:"score"`
	DisplayValue *string `json:"displayValue"`
}
