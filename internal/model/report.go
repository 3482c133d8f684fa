package model

// AuditResult is a single named check copied out of an audit run.
// Score is nil for informational audits that are not scored.
// DisplayValue and NumericValue are omitted from the stored document
// when the upstream response omitted them.
type AuditResult struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Score        *float64 `json:"score"`
	DisplayValue *string  `json:"displayValue,omitempty"`
	NumericValue *float64 `json:"numericValue,omitempty"`
}

// CategoryResult holds one category's overall score and its audits in
// the order the upstream report listed them.
type CategoryResult struct {
	Score  *float64      `json:"score"`
	Audits []AuditResult `json:"audits"`
}

// FieldMetricDistribution is one bucket of a real-user metric.
type FieldMetricDistribution struct {
	Min        float64 `json:"min"`
	Max        float64 `json:"max"`
	Proportion float64 `json:"proportion"`
}

// FieldMetric is a real-user (field) metric, as opposed to the
// synthetic lab audits.
type FieldMetric struct {
	Percentile    float64                   `json:"percentile"`
	Distributions []FieldMetricDistribution `json:"distributions"`
	Category      string                    `json:"category"`
}

// AuditReport is the normalized snapshot of one external audit run,
// embedded in a Page and replaced whole on every successful audit.
// FieldData is explicitly null when the upstream response carried no
// real-user data.
type AuditReport struct {
	FetchTime     string                 `json:"fetchTime"`
	FinalURL      string                 `json:"finalUrl"`
	DurationMs    int64                  `json:"durationMs"`
	Performance   CategoryResult         `json:"performance"`
	Accessibility CategoryResult         `json:"accessibility"`
	BestPractices CategoryResult         `json:"bestPractices"`
	SEO           CategoryResult         `json:"seo"`
	FieldData     map[string]FieldMetric `json:"fieldData"`
}

// Category returns the result block for c. Unknown categories return
// an empty result; callers validate c before reaching storage.
func (r *AuditReport) Category(c Category) CategoryResult {
	switch c {
	case CategoryPerformance:
		return r.Performance
	case CategoryAccessibility:
		return r.Accessibility
	case CategoryBestPractices:
		return r.BestPractices
	case CategorySEO:
		return r.SEO
	}
	return CategoryResult{}
}
