package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/foghornhq/foghorn/internal/scrape"
)

type scrapeTarget struct {
	ID          string `json:"id"`
	Domain      string `json:"domain"`
	SitemapPath string `json:"sitemapPath"`
}

// sitesToScrape returns sites ordered by scrape urgency: never
// scraped first, then by oldest attempt.
func (s *Server) sitesToScrape(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "Limit must be a positive integer.")
			return
		}
		limit = parsed
	}

	sites, err := s.stores.Sites.All(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sites.")
		return
	}

	scrape.SortByLastScraped(sites)
	if len(sites) > limit {
		sites = sites[:limit]
	}

	targets := make([]scrapeTarget, 0, len(sites))
	for _, site := range sites {
		targets = append(targets, scrapeTarget{
			ID:          site.ID,
			Domain:      site.Domain,
			SitemapPath: site.SitemapPath,
		})
	}
	writeJSON(w, http.StatusOK, map[string][]scrapeTarget{"sites": targets})
}

type scrapeResultRequest struct {
	LastScrapedSitemapAt time.Time `json:"lastScrapedSitemapAt"`
	ScrapeSitemapError   *string   `json:"scrapeSitemapError"`
}

// patchScrapeResult records a scrape outcome reported by an external
// runner.
func (s *Server) patchScrapeResult(w http.ResponseWriter, r *http.Request) {
	var req scrapeResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.LastScrapedSitemapAt.IsZero() {
		writeError(w, http.StatusBadRequest, "A scrape timestamp is required.")
		return
	}

	site, err := s.stores.Sites.Find(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up site.")
		return
	}
	if site == nil {
		writeError(w, http.StatusNotFound, "Site not found.")
		return
	}

	at := req.LastScrapedSitemapAt.UTC()
	site.LastScrapedSitemapAt = &at
	site.ScrapeSitemapError = req.ScrapeSitemapError
	if err := s.stores.Sites.Save(r.Context(), site); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update site.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
