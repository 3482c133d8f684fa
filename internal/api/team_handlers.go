package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/foghornhq/foghorn/internal/model"
)

// requireTeamMembership loads the team and checks the user belongs to
// it. Non-members get 403; a missing team is 404.
func (s *Server) requireTeamMembership(ctx context.Context, teamID, userID string) (*model.Team, *apiError) {
	team, err := s.stores.Teams.Find(ctx, teamID)
	if err != nil {
		return nil, &apiError{http.StatusInternalServerError, "Failed to look up team."}
	}
	if team == nil {
		return nil, &apiError{http.StatusNotFound, "Team not found."}
	}

	members, err := s.stores.TeamMembers.ByTeam(ctx, teamID)
	if err != nil {
		return nil, &apiError{http.StatusInternalServerError, "Failed to look up team members."}
	}
	for _, m := range members {
		if m.UserID == userID {
			return team, nil
		}
	}
	return nil, &apiError{http.StatusForbidden, "You are not a member of this team."}
}

type teamRequest struct {
	Name string `json:"name"`
}

func (s *Server) createTeam(w http.ResponseWriter, r *http.Request) {
	var req teamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Team name is required.")
		return
	}
	userID := currentUserID(r)

	team := &model.Team{Name: strings.TrimSpace(req.Name)}
	if err := s.stores.Teams.Create(r.Context(), team); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create team.")
		return
	}
	member := &model.TeamMember{TeamID: team.ID, UserID: userID}
	if err := s.stores.TeamMembers.Create(r.Context(), member); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create team membership.")
		return
	}

	s.logger.Info("team created",
		zap.String("team_id", team.ID),
		zap.String("user_id", userID),
	)
	writeJSON(w, http.StatusCreated, map[string]*model.Team{"team": team})
}

func (s *Server) listTeams(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r)

	memberships, err := s.stores.TeamMembers.ByUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list memberships.")
		return
	}

	teams := make([]*model.Team, 0, len(memberships))
	for _, m := range memberships {
		team, err := s.stores.Teams.Find(r.Context(), m.TeamID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to look up team.")
			return
		}
		if team != nil {
			teams = append(teams, team)
		}
	}
	writeJSON(w, http.StatusOK, map[string][]*model.Team{"teams": teams})
}

func (s *Server) getTeam(w http.ResponseWriter, r *http.Request) {
	team, apiErr := s.requireTeamMembership(r.Context(), chi.URLParam(r, "id"), currentUserID(r))
	if apiErr != nil {
		apiErr.write(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]*model.Team{"team": team})
}

func (s *Server) updateTeam(w http.ResponseWriter, r *http.Request) {
	var req teamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Team name is required.")
		return
	}

	team, apiErr := s.requireTeamMembership(r.Context(), chi.URLParam(r, "id"), currentUserID(r))
	if apiErr != nil {
		apiErr.write(w)
		return
	}

	team.Name = strings.TrimSpace(req.Name)
	if err := s.stores.Teams.Save(r.Context(), team); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update team.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]*model.Team{"team": team})
}

func (s *Server) deleteTeam(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "id")
	userID := currentUserID(r)

	team, apiErr := s.requireTeamMembership(r.Context(), teamID, userID)
	if apiErr != nil {
		apiErr.write(w)
		return
	}

	members, err := s.stores.TeamMembers.ByTeam(r.Context(), teamID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list team members.")
		return
	}
	for _, m := range members {
		if err := s.stores.TeamMembers.Delete(r.Context(), m.ID); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to delete team membership.")
			return
		}
	}
	if err := s.stores.Teams.Delete(r.Context(), team.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete team.")
		return
	}

	s.logger.Info("team deleted",
		zap.String("team_id", teamID),
		zap.String("user_id", userID),
	)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type addMemberRequest struct {
	UserID string `json:"userId"`
}

func (s *Server) addTeamMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "User id is required.")
		return
	}
	teamID := chi.URLParam(r, "id")

	if _, apiErr := s.requireTeamMembership(r.Context(), teamID, currentUserID(r)); apiErr != nil {
		apiErr.write(w)
		return
	}

	user, err := s.stores.Users.Find(r.Context(), req.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up user.")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found.")
		return
	}

	members, err := s.stores.TeamMembers.ByTeam(r.Context(), teamID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list team members.")
		return
	}
	for _, m := range members {
		if m.UserID == req.UserID {
			writeError(w, http.StatusConflict, "User is already a member of this team.")
			return
		}
	}

	member := &model.TeamMember{TeamID: teamID, UserID: req.UserID}
	if err := s.stores.TeamMembers.Create(r.Context(), member); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to add team member.")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]*model.TeamMember{"member": member})
}

func (s *Server) listTeamMembers(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "id")

	if _, apiErr := s.requireTeamMembership(r.Context(), teamID, currentUserID(r)); apiErr != nil {
		apiErr.write(w)
		return
	}

	members, err := s.stores.TeamMembers.ByTeam(r.Context(), teamID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list team members.")
		return
	}
	if members == nil {
		members = []*model.TeamMember{}
	}
	writeJSON(w, http.StatusOK, map[string][]*model.TeamMember{"members": members})
}

func (s *Server) removeTeamMember(w http.ResponseWriter, r *http.Request) {
	teamID := chi.URLParam(r, "id")
	targetUserID := chi.URLParam(r, "userId")

	if _, apiErr := s.requireTeamMembership(r.Context(), teamID, currentUserID(r)); apiErr != nil {
		apiErr.write(w)
		return
	}

	members, err := s.stores.TeamMembers.ByTeam(r.Context(), teamID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list team members.")
		return
	}
	for _, m := range members {
		if m.UserID == targetUserID {
			if err := s.stores.TeamMembers.Delete(r.Context(), m.ID); err != nil {
				writeError(w, http.StatusInternalServerError, "Failed to remove team member.")
				return
			}
			writeJSON(w, http.StatusOK, map[string]bool{"success": true})
			return
		}
	}
	writeError(w, http.StatusNotFound, "Member not found.")
}
