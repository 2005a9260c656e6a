package httpapi

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/csrf"
	"github.com/sirupsen/logrus"

	"tickcom/portal/internal/auth"
	"tickcom/portal/internal/model"
	"tickcom/portal/internal/store"
)

const (
	blankEditorRows = 3
	maxEditorRows   = 5000
)

type pageData struct {
	CSRF  template.HTML
	Error string
	Info  string

	// Signed-in user, empty when anonymous.
	Username string
	Name     string
	IsAdmin  bool

	Tools   []model.ResolvedTool
	Active  bool
	Expires string

	Rows     []model.EditedRow
	Revision string
}

func (s *Server) newPageData(r *http.Request) pageData {
	return pageData{CSRF: csrf.TemplateField(r)}
}

// currentUser rechecks the session on every protected page.
func (s *Server) currentUser(r *http.Request) (model.Session, model.AuthResult, model.UserRecord) {
	sess := s.session(r)
	if !sess.Authenticated {
		return sess, model.AuthResult{Status: model.AuthStatusAnonymous}, model.UserRecord{}
	}
	res, u := s.portal.Authorize(sess)
	return sess, res, u
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	data := s.newPageData(r)

	sess, res, u := s.currentUser(r)
	switch {
	case res.Status == model.AuthStatusAnonymous:
		data.Info = "Enter your credentials."
		render(w, http.StatusOK, "index", data)
		return
	case !res.OK():
		data.Username = sess.Username
		data.Name = sess.Name
		data.Error = res.Reason.Message()
		render(w, http.StatusForbidden, "index", data)
		return
	}

	data.Username = res.Username
	data.Name = res.Name
	data.IsAdmin = s.portal.IsAdmin(res.Username)
	data.Tools = s.portal.Tools(u)
	data.Active = u.IsActive()
	data.Expires = u.Expiry()
	render(w, http.StatusOK, "index", data)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	res := s.portal.Login(r.PostForm.Get("username"), r.PostForm.Get("password"))
	if !res.OK() {
		data := s.newPageData(r)
		data.Error = res.Reason.Message()
		render(w, http.StatusUnauthorized, "index", data)
		return
	}

	if err := s.startSession(w, r, res); err != nil {
		logrus.WithError(err).Error("failed to save session")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := s.endSession(w, r); err != nil {
		logrus.WithError(err).Warn("failed to clear session")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	_, res, _ := s.currentUser(r)
	if !res.OK() || !s.portal.IsAdmin(res.Username) {
		http.NotFound(w, r)
		return
	}

	data := s.newPageData(r)
	data.Username = res.Username
	data.Name = res.Name
	data.IsAdmin = true

	switch r.Method {
	case http.MethodGet:
		snap := s.portal.Roster()
		data.Rows = withBlankRows(auth.EditRows(snap.Users))
		data.Revision = snap.Revision
		render(w, http.StatusOK, "admin", data)
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad form", http.StatusBadRequest)
			return
		}
		rows, err := parseEditorRows(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		revision := r.PostForm.Get("revision")

		saved, err := s.portal.SaveRoster(r.Context(), res.Username, rows, revision)
		if err != nil {
			// Keep the submitted rows on screen so the edit can be retried.
			status, _ := saveErrorStatus(err)
			data.Rows = withBlankRows(rows)
			data.Revision = revision
			data.Error = saveErrorMessage(err)
			render(w, status, "admin", data)
			return
		}
		data.Rows = withBlankRows(auth.EditRows(saved.Users))
		data.Revision = saved.Revision
		data.Info = "Saved."
		render(w, http.StatusOK, "admin", data)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func saveErrorMessage(err error) string {
	switch {
	case errors.Is(err, store.ErrConflict):
		return "The roster changed since you opened it. Reload the page to see the latest version."
	case errors.Is(err, auth.ErrDuplicateUsername), errors.Is(err, auth.ErrInvalidRow):
		return "Not saved: " + err.Error()
	default:
		return "Saving users.yaml failed. Your edits are kept below; try again."
	}
}

func withBlankRows(rows []model.EditedRow) []model.EditedRow {
	out := make([]model.EditedRow, 0, len(rows)+blankEditorRows)
	for _, r := range rows {
		if strings.TrimSpace(r.Username) != "" {
			out = append(out, r)
		}
	}
	for i := 0; i < blankEditorRows; i++ {
		out = append(out, model.EditedRow{Active: model.BoolPtr(true)})
	}
	return out
}

// parseEditorRows reads rows posted as username_N, name_N, ... for N < rows.
// A missing or out of range row count is an error so a broken form can never
// wipe the roster.
func parseEditorRows(r *http.Request) ([]model.EditedRow, error) {
	raw, ok := r.PostForm["rows"]
	if !ok {
		return nil, errors.New("rows is required")
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw[0]))
	if err != nil || n < 0 {
		return nil, fmt.Errorf("invalid rows %q", raw[0])
	}
	if n > maxEditorRows {
		return nil, fmt.Errorf("too many rows: %d (max %d)", n, maxEditorRows)
	}

	rows := make([]model.EditedRow, 0, n)
	for i := 0; i < n; i++ {
		idx := strconv.Itoa(i)
		rows = append(rows, model.EditedRow{
			Username:     r.PostForm.Get("username_" + idx),
			Name:         r.PostForm.Get("name_" + idx),
			Package:      r.PostForm.Get("package_" + idx),
			AllowedTools: r.PostForm.Get("allowed_tools_" + idx),
			Active:       model.BoolPtr(r.PostForm.Get("active_"+idx) != ""),
			ExpiresAt:    r.PostForm.Get("expires_at_" + idx),
		})
	}
	return rows, nil
}
