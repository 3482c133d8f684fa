package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/foghornhq/foghorn/internal/model"
)

const (
	// DefaultEndpoint is the PageSpeed Insights v5 run endpoint.
	DefaultEndpoint = "https://www.googleapis.com/pagespeedonline/v5/runPagespeed"

	defaultTimeout = 60 * time.Second
	maxBodyBytes   = 64 << 20
)

// Client calls the external audit API and normalizes its response
// into the strict report shape. The upstream JSON is partially
// optional, so every field is extracted defensively; the result
// never carries optionality beyond the report schema's own pointers.
type Client struct {
	// Endpoint overrides the audit API URL (tests).
	Endpoint string
	// APIKey, when set, is passed as the key query parameter.
	APIKey string
	// Timeout bounds the whole call. Defaults to 60s.
	Timeout time.Duration
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// psResponse mirrors the slice of the PageSpeed response we consume.
type psResponse struct {
	LighthouseResult  *psLighthouse        `json:"lighthouseResult"`
	LoadingExperience *psLoadingExperience `json:"loadingExperience"`
}

type psLighthouse struct {
	FetchTime  string                   `json:"fetchTime"`
	FinalURL   string                   `json:"finalUrl"`
	Categories map[string]*psCategory   `json:"categories"`
	Audits     map[string]*psAuditEntry `json:"audits"`
}

type psCategory struct {
	Score     *float64     `json:"score"`
	AuditRefs []psAuditRef `json:"auditRefs"`
}

type psAuditRef struct {
	ID string `json:"id"`
}

type psAuditEntry struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Score        *float64 `json:"score"`
	DisplayValue *string  `json:"displayValue"`
	NumericValue *float64 `json:"numericValue"`
}

type psLoadingExperience struct {
	Metrics map[string]psFieldMetric `json:"metrics"`
}

type psFieldMetric struct {
	Percentile    float64                         `json:"percentile"`
	Distributions []model.FieldMetricDistribution `json:"distributions"`
	Category      string                          `json:"category"`
}

// Audit fetches a report for pageURL: mobile strategy, all four
// categories. The call duration is recorded on the report.
func (c *Client) Audit(ctx context.Context, pageURL string) (*model.AuditReport, error) {
	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	params := url.Values{}
	params.Set("url", pageURL)
	params.Set("strategy", "mobile")
	for _, cat := range []string{"performance", "accessibility", "best-practices", "seo"} {
		params.Add("category", cat)
	}
	if c.APIKey != "" {
		params.Set("key", c.APIKey)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build audit request: %w", err)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("timeout auditing %s", pageURL)
		}
		return nil, fmt.Errorf("auditing %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP %d auditing %s", resp.StatusCode, pageURL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("timeout auditing %s", pageURL)
		}
		return nil, fmt.Errorf("read audit response for %s: %w", pageURL, err)
	}
	durationMs := time.Since(start).Milliseconds()

	var decoded psResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode audit response for %s: %w", pageURL, err)
	}
	if decoded.LighthouseResult == nil {
		return nil, fmt.Errorf("audit response for %s has no lighthouse result", pageURL)
	}

	lh := decoded.LighthouseResult
	report := &model.AuditReport{
		FetchTime:     lh.FetchTime,
		FinalURL:      lh.FinalURL,
		DurationMs:    durationMs,
		Performance:   extractCategory(lh.Categories["performance"], lh.Audits),
		Accessibility: extractCategory(lh.Categories["accessibility"], lh.Audits),
		BestPractices: extractCategory(lh.Categories["best-practices"], lh.Audits),
		SEO:           extractCategory(lh.Categories["seo"], lh.Audits),
		FieldData:     extractFieldData(decoded.LoadingExperience),
	}
	return report, nil
}

// extractCategory copies the category score and resolves each audit
// reference against the global audit map. References with no entry
// are dropped. A missing category yields a null score and an empty
// audit list rather than an error.
func extractCategory(cat *psCategory, audits map[string]*psAuditEntry) model.CategoryResult {
	result := model.CategoryResult{Audits: []model.AuditResult{}}
	if cat == nil {
		return result
	}
	result.Score = cat.Score
	for _, ref := range cat.AuditRefs {
		entry := audits[ref.ID]
		if entry == nil {
			continue
		}
		result.Audits = append(result.Audits, model.AuditResult{
			ID:           entry.ID,
			Title:        entry.Title,
			Score:        entry.Score,
			DisplayValue: entry.DisplayValue,
			NumericValue: entry.NumericValue,
		})
	}
	return result
}

// extractFieldData returns nil when the response carries no real-user
// metrics, which serializes as an explicit null on the report.
func extractFieldData(le *psLoadingExperience) map[string]model.FieldMetric {
	if le == nil || len(le.Metrics) == 0 {
		return nil
	}
	out := make(map[string]model.FieldMetric, len(le.Metrics))
	for name, m := range le.Metrics {
		out[name] = model.FieldMetric{
			Percentile:    m.Percentile,
			Distributions: m.Distributions,
			Category:      m.Category,
		}
	}
	return out
}
