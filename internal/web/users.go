package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/netresearch/ldap-rest-auth/internal/directory"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.dir.FindUsersContext(r.Context())
	if err != nil {
		s.logger.Error("user_list_failed", slog.String("error", err.Error()))
		s.writeError(w, http.StatusInternalServerError, "directory lookup failed")
		return
	}
	if users == nil {
		users = []directory.User{}
	}
	s.writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	term := r.URL.Query().Get("term")
	if term == "" {
		s.writeError(w, http.StatusBadRequest, "query parameter 'term' is required")
		return
	}

	users, err := s.dir.SearchUsersContext(r.Context(), term)
	if err != nil {
		s.logger.Error("user_search_failed",
			slog.String("term", term),
			slog.String("error", err.Error()))
		s.writeError(w, http.StatusInternalServerError, "directory lookup failed")
		return
	}
	if users == nil {
		users = []directory.User{}
	}
	s.writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	user, err := s.dir.FindUserBySAMAccountNameContext(r.Context(), username)
	if err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			s.writeError(w, http.StatusNotFound, "user not found")
			return
		}
		s.logger.Error("user_lookup_failed",
			slog.String("username", username),
			slog.String("error", err.Error()))
		s.writeError(w, http.StatusInternalServerError, "directory lookup failed")
		return
	}
	s.writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleGetUserGroups(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	groups, err := s.dir.UserGroupsContext(r.Context(), username)
	if err != nil {
		s.logger.Error("user_groups_failed",
			slog.String("username", username),
			slog.String("error", err.Error()))
		s.writeError(w, http.StatusInternalServerError, "directory lookup failed")
		return
	}
	if groups == nil {
		groups = []string{}
	}
	s.writeJSON(w, http.StatusOK, groups)
}
