package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/netresearch/ldap-rest-auth/internal/directory"
)

type authRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// authStatus maps an authentication result to the outward-facing HTTP
// status: 401 for a failed bind, 403 for a caller outside the required
// group, 200 otherwise.
func authStatus(result directory.AuthResult) int {
	switch {
	case !result.Authenticated:
		return http.StatusUnauthorized
	case !result.HasRequiredGroup:
		return http.StatusForbidden
	default:
		return http.StatusOK
	}
}

// directoryErrorStatus distinguishes an unreachable directory from any
// other lookup failure.
func directoryErrorStatus(err error) int {
	if errors.Is(err, directory.ErrUnavailable) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	var req authRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		s.writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	s.logger.Info("authentication_request",
		slog.String("path", r.URL.Path))

	result, err := s.dir.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		s.logger.Error("authentication_directory_failed",
			slog.String("error", err.Error()))
		s.writeError(w, directoryErrorStatus(err), "directory lookup failed")
		return
	}
	observeAuthOutcome(result)
	s.writeJSON(w, authStatus(result), result)
}

// honorariosResponse is the slimmed-down body of the billing-system
// entry point: flags and a message, no user record or group list.
type honorariosResponse struct {
	Authenticated    bool   `json:"authenticated"`
	Username         string `json:"username"`
	HasRequiredGroup bool   `json:"hasRequiredGroup"`
	AccountEnabled   bool   `json:"accountEnabled"`
	AccountLocked    bool   `json:"accountLocked"`
	Message          string `json:"message"`
}

// handleAuthenticateHonorarios is the billing-system specific entry
// point. It takes form parameters instead of a JSON body and reports its
// own messages; the user record and group list are not echoed back.
func (s *Server) handleAuthenticateHonorarios(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		s.writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	result, err := s.dir.Authenticate(r.Context(), username, password)
	if err != nil {
		s.logger.Error("authentication_directory_failed",
			slog.String("error", err.Error()))
		s.writeError(w, directoryErrorStatus(err), "directory lookup failed")
		return
	}
	observeAuthOutcome(result)

	resp := honorariosResponse{
		Authenticated:    result.Authenticated,
		Username:         result.Username,
		HasRequiredGroup: result.HasRequiredGroup,
		AccountEnabled:   result.AccountEnabled,
		AccountLocked:    result.AccountLocked,
	}
	status := authStatus(result)
	switch status {
	case http.StatusOK:
		resp.Message = "authentication successful for honorarios system"
	case http.StatusForbidden:
		resp.Message = "user authenticated but not granted access to the honorarios system"
	default:
		resp.Message = "invalid credentials for honorarios system"
	}

	s.writeJSON(w, status, resp)
}

func (s *Server) handleRequiredGroupUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.dir.FindUsersInGroupContext(r.Context(), s.requiredGroup)
	if err != nil {
		s.logger.Error("group_users_lookup_failed",
			slog.String("group", s.requiredGroup),
			slog.String("error", err.Error()))
		s.writeError(w, http.StatusInternalServerError, "directory lookup failed")
		return
	}
	s.writeJSON(w, http.StatusOK, users)
}

type healthResponse struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	Domain        string `json:"domain,omitempty"`
	RequiredGroup string `json:"requiredGroup,omitempty"`
}

// handleHealth exercises the lookup+auth path: a user lookup, which
// itself requires a successful service bind. A missing probe user is a
// healthy outcome; only transport or bind failures mark the service down.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	_, err := s.dir.FindUserBySAMAccountNameContext(r.Context(), "administrator")
	if err != nil && !errors.Is(err, directory.ErrUserNotFound) {
		s.logger.Error("health_check_failed", slog.String("error", err.Error()))
		s.writeJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status:  "DOWN",
			Message: "directory health check failed: " + err.Error(),
		})
		return
	}

	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:        "UP",
		Message:       "directory service is running, connection test completed",
		Domain:        s.domain,
		RequiredGroup: s.requiredGroup,
	})
}
