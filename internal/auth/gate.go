package auth

import (
	"time"

	"github.com/sirupsen/logrus"

	"tickcom/portal/internal/model"
)

const dateLayout = "2006-01-02"

// Gate decides whether a login or an existing session may pass.
type Gate struct {
	Verifier Verifier

	// StrictExpiry rejects records whose expires_at cannot be parsed instead
	// of treating them as never expiring.
	StrictExpiry bool

	// Now defaults to time.Now.
	Now func() time.Time
}

func (g Gate) today() time.Time {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	t := now().UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func rejected(reason model.RejectReason) model.AuthResult {
	return model.AuthResult{Status: model.AuthStatusRejected, Reason: reason}
}

// Login evaluates a username/password submission against the roster.
func (g Gate) Login(users []model.UserRecord, username, password string) model.AuthResult {
	u := model.FindUser(users, username)
	if u == nil {
		return rejected(model.RejectBadCredentials)
	}
	if !g.Verifier.Verify(password, u.Password) {
		return rejected(model.RejectBadCredentials)
	}
	return g.admit(*u)
}

// Recheck re-evaluates an authenticated session against the current roster.
// The record may have been deactivated, expired or removed since login.
func (g Gate) Recheck(users []model.UserRecord, s model.Session) model.AuthResult {
	if !s.Authenticated {
		return model.AuthResult{Status: model.AuthStatusAnonymous}
	}
	u := model.FindUser(users, s.Username)
	if u == nil {
		return rejected(model.RejectBadCredentials)
	}
	return g.admit(*u)
}

func (g Gate) admit(u model.UserRecord) model.AuthResult {
	if !u.IsActive() {
		return rejected(model.RejectInactive)
	}
	if reason, ok := g.checkExpiry(u); !ok {
		return rejected(reason)
	}
	return model.AuthResult{
		Name:     u.DisplayName(),
		Status:   model.AuthStatusAuthenticated,
		Username: u.Username,
	}
}

func (g Gate) checkExpiry(u model.UserRecord) (model.RejectReason, bool) {
	raw := u.Expiry()
	if raw == "" {
		return "", true
	}
	exp, err := time.ParseInLocation(dateLayout, raw, time.UTC)
	if err != nil {
		if g.StrictExpiry {
			return model.RejectMalformedDate, false
		}
		logrus.WithFields(logrus.Fields{
			"username":   u.Username,
			"expires_at": raw,
		}).Warn("unparsable expiry date, treating account as not expired")
		return "", true
	}
	if exp.Before(g.today()) {
		return model.RejectExpired, false
	}
	return "", true
}
