package httpapi

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"tickcom/portal/internal/model"
)

const (
	sessAuthenticated = "authenticated"
	sessUsername      = "username"
	sessName          = "name"
)

// session reads the portal session. A missing or tampered cookie yields an
// anonymous session.
func (s *Server) session(r *http.Request) model.Session {
	sess, err := s.sessions.Get(r, s.cfg.Session.CookieName)
	if err != nil {
		logrus.WithError(err).Debug("discarding unreadable session cookie")
		return model.Session{}
	}
	authed, _ := sess.Values[sessAuthenticated].(bool)
	username, _ := sess.Values[sessUsername].(string)
	name, _ := sess.Values[sessName].(string)
	if !authed || username == "" {
		return model.Session{}
	}
	return model.Session{Authenticated: true, Username: username, Name: name}
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, res model.AuthResult) error {
	sess, _ := s.sessions.Get(r, s.cfg.Session.CookieName)
	sess.Values[sessAuthenticated] = true
	sess.Values[sessUsername] = res.Username
	sess.Values[sessName] = res.Name
	return sess.Save(r, w)
}

func (s *Server) endSession(w http.ResponseWriter, r *http.Request) error {
	sess, _ := s.sessions.Get(r, s.cfg.Session.CookieName)
	sess.Values = map[any]any{}
	sess.Options.MaxAge = -1
	return sess.Save(r, w)
}
