// Package portal ties the roster repository to the authorization core and
// holds the tables every request reads.
package portal

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"tickcom/portal/internal/auth"
	"tickcom/portal/internal/model"
	"tickcom/portal/internal/store"
)

var ErrForbidden = errors.New("forbidden")

type Options struct {
	Repo     store.RosterRepository
	Packages model.PackageTable
	Catalog  model.ToolCatalog
	Gate     auth.Gate
	Admins   auth.Allowlist
	Metrics  *Metrics
}

type Service struct {
	repo    store.RosterRepository
	gate    auth.Gate
	admins  auth.Allowlist
	metrics *Metrics

	mu       sync.RWMutex
	roster   model.RosterSnapshot
	packages model.PackageTable
	catalog  model.ToolCatalog
}

// New loads the roster once and returns a ready service.
func New(ctx context.Context, opts Options) (*Service, error) {
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(nil)
	}
	if opts.Packages == nil {
		opts.Packages = model.PackageTable{}
	}
	if opts.Catalog == nil {
		opts.Catalog = model.ToolCatalog{}
	}
	s := &Service{
		repo:     opts.Repo,
		gate:     opts.Gate,
		admins:   opts.Admins,
		metrics:  opts.Metrics,
		packages: opts.Packages,
		catalog:  opts.Catalog,
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces the in-memory roster with the repository's current content.
func (s *Service) Reload(ctx context.Context) error {
	snap, err := s.repo.Load(ctx)
	if err != nil {
		s.metrics.RosterReloads.WithLabelValues("error").Inc()
		return fmt.Errorf("load roster: %w", err)
	}

	s.mu.Lock()
	changed := snap.Revision != s.roster.Revision
	s.roster = snap
	s.mu.Unlock()

	s.metrics.RosterReloads.WithLabelValues("ok").Inc()
	if changed {
		logrus.WithFields(logrus.Fields{"users": len(snap.Users), "revision": short(snap.Revision)}).Info("roster loaded")
	}
	if len(snap.Users) == 0 {
		logrus.Warn("roster has no users; add a user to users.yaml")
	}
	return nil
}

func (s *Service) Login(username, password string) model.AuthResult {
	s.mu.RLock()
	res := s.gate.Login(s.roster.Users, username, password)
	s.mu.RUnlock()

	outcome := string(res.Reason)
	if res.OK() {
		outcome = "ok"
	}
	s.metrics.LoginAttempts.WithLabelValues(outcome).Inc()

	entry := logrus.WithField("username", username)
	if res.OK() {
		entry.Info("login succeeded")
	} else {
		entry.WithField("reason", res.Reason).Info("login rejected")
	}
	return res
}

// Authorize rechecks a session against the current roster and returns the
// backing record when access is still allowed.
func (s *Service) Authorize(sess model.Session) (model.AuthResult, model.UserRecord) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := s.gate.Recheck(s.roster.Users, sess)
	if !res.OK() {
		return res, model.UserRecord{}
	}
	return res, *model.FindUser(s.roster.Users, res.Username)
}

func (s *Service) Tools(u model.UserRecord) []model.ResolvedTool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return auth.ResolveTools(u, s.packages, s.catalog)
}

func (s *Service) IsAdmin(username string) bool {
	return s.admins.IsAdmin(username)
}

// Roster returns a copy of the current snapshot.
func (s *Service) Roster() model.RosterSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]model.UserRecord, len(s.roster.Users))
	copy(users, s.roster.Users)
	return model.RosterSnapshot{Users: users, Revision: s.roster.Revision}
}

// SaveRoster replaces the roster with rows edited by actor. revision must be
// the revision the edit was based on; an empty revision means the current one.
// The in-memory roster only changes once the repository accepted the write.
func (s *Service) SaveRoster(ctx context.Context, actor string, rows []model.EditedRow, revision string) (model.RosterSnapshot, error) {
	if !s.admins.IsAdmin(actor) {
		s.metrics.RosterSaves.WithLabelValues("forbidden").Inc()
		return model.RosterSnapshot{}, ErrForbidden
	}

	current := s.Roster()
	if revision == "" {
		revision = current.Revision
	}
	if revision != current.Revision {
		s.metrics.RosterSaves.WithLabelValues("conflict").Inc()
		return model.RosterSnapshot{}, store.ErrConflict
	}

	users, err := auth.ApplyRosterEdit(rows, current.Users)
	if err != nil {
		s.metrics.RosterSaves.WithLabelValues("invalid").Inc()
		return model.RosterSnapshot{}, err
	}

	saved, err := s.repo.Save(ctx, model.RosterSnapshot{Users: users, Revision: revision})
	if err != nil {
		result := "error"
		if errors.Is(err, store.ErrConflict) {
			result = "conflict"
		}
		s.metrics.RosterSaves.WithLabelValues(result).Inc()
		logrus.WithError(err).WithField("actor", actor).Error("roster save failed")
		return model.RosterSnapshot{}, err
	}

	s.mu.Lock()
	s.roster = saved
	s.mu.Unlock()

	s.metrics.RosterSaves.WithLabelValues("ok").Inc()
	logrus.WithFields(logrus.Fields{"actor": actor, "users": len(saved.Users)}).Info("roster saved")
	return saved, nil
}

func short(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}
