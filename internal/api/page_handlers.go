package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/foghornhq/foghorn/internal/issues"
	"github.com/foghornhq/foghorn/internal/model"
)

// accessiblePages returns the pages the user may see: either the
// pages of one authorized site, or everything across their teams.
func (s *Server) accessiblePages(r *http.Request, siteID, userID string) ([]*model.Page, *apiError) {
	if siteID != "" {
		if _, apiErr := s.loadAuthorizedSite(r, siteID, userID); apiErr != nil {
			return nil, apiErr
		}
		pages, err := s.stores.Pages.BySite(r.Context(), siteID)
		if err != nil {
			return nil, &apiError{http.StatusInternalServerError, "Failed to list pages."}
		}
		return pages, nil
	}

	sites, apiErr := s.sitesForUser(r, userID)
	if apiErr != nil {
		return nil, apiErr
	}
	pages := []*model.Page{}
	for _, site := range sites {
		sitePages, err := s.stores.Pages.BySite(r.Context(), site.ID)
		if err != nil {
			return nil, &apiError{http.StatusInternalServerError, "Failed to list pages."}
		}
		pages = append(pages, sitePages...)
	}
	return pages, nil
}

func (s *Server) listPages(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	siteID := r.URL.Query().Get("siteId")
	search := r.URL.Query().Get("search")

	pages, apiErr := s.accessiblePages(r, siteID, userID)
	if apiErr != nil {
		apiErr.write(w)
		return
	}

	if search != "" {
		needle := strings.ToLower(search)
		filtered := make([]*model.Page, 0, len(pages))
		for _, p := range pages {
			if strings.Contains(strings.ToLower(p.URL), needle) ||
				strings.Contains(strings.ToLower(p.Path), needle) {
				filtered = append(filtered, p)
			}
		}
		pages = filtered
	}
	if pages == nil {
		pages = []*model.Page{}
	}
	writeJSON(w, http.StatusOK, map[string][]*model.Page{"pages": pages})
}

func (s *Server) getPage(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)

	page, err := s.stores.Pages.Find(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up page.")
		return
	}
	if page == nil {
		writeError(w, http.StatusNotFound, "Page not found.")
		return
	}

	if _, apiErr := s.loadAuthorizedSite(r, page.SiteID, userID); apiErr != nil {
		apiErr.write(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*model.Page{"page": page})
}

func (s *Server) listIssues(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	siteID := r.URL.Query().Get("siteId")
	category := model.Category(r.URL.Query().Get("category"))

	if category != "" && !category.Valid() {
		names := make([]string, 0, 4)
		for _, c := range model.Categories() {
			names = append(names, c.String())
		}
		writeError(w, http.StatusBadRequest,
			"Invalid category. Must be one of: "+strings.Join(names, ", "))
		return
	}

	pages, apiErr := s.accessiblePages(r, siteID, userID)
	if apiErr != nil {
		apiErr.write(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]*model.Issue{"issues": issues.List(pages, category)})
}
