package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/foghornhq/foghorn/internal/model"
)

type createSiteRequest struct {
	TeamID      string `json:"teamId"`
	Domain      string `json:"domain"`
	SitemapPath string `json:"sitemapPath"`
}

func (s *Server) createSite(w http.ResponseWriter, r *http.Request) {
	var req createSiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}
	req.Domain = strings.TrimSpace(req.Domain)
	if req.TeamID == "" || req.Domain == "" {
		writeError(w, http.StatusBadRequest, "Team id and domain are required.")
		return
	}
	userID := currentUserID(r)

	if _, apiErr := s.requireTeamMembership(r.Context(), req.TeamID, userID); apiErr != nil {
		apiErr.write(w)
		return
	}

	site := &model.Site{
		TeamID:      req.TeamID,
		Domain:      req.Domain,
		SitemapPath: req.SitemapPath,
	}
	if err := s.stores.Sites.Create(r.Context(), site); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create site.")
		return
	}

	s.logger.Info("site created",
		zap.String("site_id", site.ID),
		zap.String("team_id", site.TeamID),
		zap.String("user_id", userID),
	)
	writeJSON(w, http.StatusCreated, map[string]*model.Site{"site": site})
}

func (s *Server) listSites(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	teamID := r.URL.Query().Get("teamId")

	if teamID != "" {
		if _, apiErr := s.requireTeamMembership(r.Context(), teamID, userID); apiErr != nil {
			apiErr.write(w)
			return
		}
		sites, err := s.stores.Sites.ByTeam(r.Context(), teamID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to list sites.")
			return
		}
		if sites == nil {
			sites = []*model.Site{}
		}
		writeJSON(w, http.StatusOK, map[string][]*model.Site{"sites": sites})
		return
	}

	sites, apiErr := s.sitesForUser(r, userID)
	if apiErr != nil {
		apiErr.write(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]*model.Site{"sites": sites})
}

// sitesForUser collects every site across the user's teams.
func (s *Server) sitesForUser(r *http.Request, userID string) ([]*model.Site, *apiError) {
	memberships, err := s.stores.TeamMembers.ByUser(r.Context(), userID)
	if err != nil {
		return nil, &apiError{http.StatusInternalServerError, "Failed to list memberships."}
	}
	sites := []*model.Site{}
	for _, m := range memberships {
		teamSites, err := s.stores.Sites.ByTeam(r.Context(), m.TeamID)
		if err != nil {
			return nil, &apiError{http.StatusInternalServerError, "Failed to list sites."}
		}
		sites = append(sites, teamSites...)
	}
	return sites, nil
}

// loadAuthorizedSite fetches a site and checks membership of its
// owning team.
func (s *Server) loadAuthorizedSite(r *http.Request, siteID, userID string) (*model.Site, *apiError) {
	site, err := s.stores.Sites.Find(r.Context(), siteID)
	if err != nil {
		return nil, &apiError{http.StatusInternalServerError, "Failed to look up site."}
	}
	if site == nil {
		return nil, &apiError{http.StatusNotFound, "Site not found."}
	}
	if _, apiErr := s.requireTeamMembership(r.Context(), site.TeamID, userID); apiErr != nil {
		return nil, apiErr
	}
	return site, nil
}

func (s *Server) getSite(w http.ResponseWriter, r *http.Request) {
	site, apiErr := s.loadAuthorizedSite(r, chi.URLParam(r, "id"), currentUserID(r))
	if apiErr != nil {
		apiErr.write(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*model.Site{"site": site})
}

type updateSiteRequest struct {
	Domain      *string `json:"domain"`
	SitemapPath *string `json:"sitemapPath"`
}

func (s *Server) updateSite(w http.ResponseWriter, r *http.Request) {
	var req updateSiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body.")
		return
	}

	site, apiErr := s.loadAuthorizedSite(r, chi.URLParam(r, "id"), currentUserID(r))
	if apiErr != nil {
		apiErr.write(w)
		return
	}

	if req.Domain != nil {
		site.Domain = strings.TrimSpace(*req.Domain)
	}
	if req.SitemapPath != nil {
		site.SitemapPath = *req.SitemapPath
	}
	if site.Domain == "" {
		writeError(w, http.StatusBadRequest, "Domain cannot be empty.")
		return
	}

	if err := s.stores.Sites.Save(r.Context(), site); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update site.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]*model.Site{"site": site})
}

func (s *Server) deleteSite(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)
	site, apiErr := s.loadAuthorizedSite(r, chi.URLParam(r, "id"), userID)
	if apiErr != nil {
		apiErr.write(w)
		return
	}

	if err := s.stores.Sites.Delete(r.Context(), site.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete site.")
		return
	}

	s.logger.Info("site deleted",
		zap.String("site_id", site.ID),
		zap.String("team_id", site.TeamID),
		zap.String("user_id", userID),
	)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
