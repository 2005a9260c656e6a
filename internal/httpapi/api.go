package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"tickcom/portal/internal/auth"
	"tickcom/portal/internal/model"
	"tickcom/portal/internal/portal"
	"tickcom/portal/internal/store"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userView struct {
	Username  string `json:"username"`
	Name      string `json:"name"`
	Active    bool   `json:"active"`
	ExpiresAt string `json:"expires_at,omitempty"`
	Admin     bool   `json:"admin"`
}

type loginResponse struct {
	Token string   `json:"token"`
	User  userView `json:"user"`
}

type rosterPayload struct {
	Users    []model.EditedRow `json:"users"`
	Revision string            `json:"revision"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"time": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) userView(res model.AuthResult, u model.UserRecord) userView {
	return userView{
		Username:  res.Username,
		Name:      res.Name,
		Active:    u.IsActive(),
		ExpiresAt: u.Expiry(),
		Admin:     s.portal.IsAdmin(res.Username),
	}
}

func (s *Server) handleAPILogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "POST only")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON")
		return
	}
	if strings.TrimSpace(req.Username) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "username is required")
		return
	}

	res := s.portal.Login(req.Username, req.Password)
	if !res.OK() {
		writeRejection(w, http.StatusUnauthorized, res)
		return
	}

	token, err := s.tokens.issue(res.Username, res.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", "failed to generate token")
		return
	}

	_, u := s.portal.Authorize(model.Session{Authenticated: true, Username: res.Username, Name: res.Name})
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: s.userView(res, u)})
}

// authorizeAPI rechecks the token's user against the current roster.
func (s *Server) authorizeAPI(w http.ResponseWriter, r *http.Request) (model.AuthResult, model.UserRecord, bool) {
	sess := model.Session{
		Authenticated: true,
		Username:      usernameFromContext(r.Context()),
		Name:          nameFromContext(r.Context()),
	}
	res, u := s.portal.Authorize(sess)
	if !res.OK() {
		writeRejection(w, http.StatusForbidden, res)
		return res, u, false
	}
	return res, u, true
}

func (s *Server) handleAPITools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "GET only")
		return
	}
	res, u, ok := s.authorizeAPI(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":  s.userView(res, u),
		"tools": s.portal.Tools(u),
	})
}

func (s *Server) handleAPIRoster(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "GET or PUT only")
		return
	}
	res, _, ok := s.authorizeAPI(w, r)
	if !ok {
		return
	}
	if !s.portal.IsAdmin(res.Username) {
		writeError(w, http.StatusForbidden, "forbidden", "admin only")
		return
	}

	if r.Method == http.MethodGet {
		snap := s.portal.Roster()
		writeJSON(w, http.StatusOK, rosterPayload{Users: auth.EditRows(snap.Users), Revision: snap.Revision})
		return
	}

	var req rosterPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON")
		return
	}
	if req.Users == nil {
		writeError(w, http.StatusBadRequest, "bad_request", "users is required")
		return
	}

	saved, err := s.portal.SaveRoster(r.Context(), res.Username, req.Users, req.Revision)
	if err != nil {
		status, code := saveErrorStatus(err)
		writeError(w, status, code, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rosterPayload{Users: auth.EditRows(saved.Users), Revision: saved.Revision})
}

func saveErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, portal.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, auth.ErrDuplicateUsername):
		return http.StatusBadRequest, "duplicate_username"
	case errors.Is(err, auth.ErrInvalidRow):
		return http.StatusBadRequest, "invalid_row"
	default:
		return http.StatusInternalServerError, "save_failed"
	}
}
