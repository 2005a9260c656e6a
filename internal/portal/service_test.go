package portal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"tickcom/portal/internal/auth"
	"tickcom/portal/internal/model"
	"tickcom/portal/internal/store"
	"tickcom/portal/internal/store/memory"
)

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	h, err := auth.HashPassword("pw", bcrypt.MinCost)
	require.NoError(t, err)

	repo := memory.NewStore(
		model.UserRecord{Username: "admin", Password: h},
		model.UserRecord{Username: "alice", Name: "Alice", Password: h, Package: model.StringPtr("pro"), AllowedTools: []string{"support"}},
		model.UserRecord{Username: "bob", Password: h, Active: model.BoolPtr(false)},
		model.UserRecord{Username: "carol", Password: h, AllowedTools: []string{"crm"}},
	)
	svc, err := New(context.Background(), Options{
		Repo:     repo,
		Packages: model.PackageTable{"pro": {"crm", "billing"}},
		Catalog: model.ToolCatalog{
			"crm":     {Name: "CRM"},
			"billing": {Name: "Billing"},
			"support": {Name: "Support"},
		},
		Gate:    auth.Gate{Now: func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }},
		Admins:  auth.ParseAllowlist(""),
		Metrics: NewMetrics(prometheus.NewRegistry()),
	})
	require.NoError(t, err)
	return svc, repo
}

func keys(tools []model.ResolvedTool) []string {
	out := make([]string, 0, len(tools))
	for _, t := range tools {
		out = append(out, t.Key)
	}
	return out
}

func TestLoginAndTools(t *testing.T) {
	svc, _ := newTestService(t)

	res := svc.Login("alice", "pw")
	require.True(t, res.OK())

	ar, user := svc.Authorize(model.Session{Authenticated: true, Username: res.Username, Name: res.Name})
	require.True(t, ar.OK())
	assert.ElementsMatch(t, []string{"support", "crm", "billing"}, keys(svc.Tools(user)))

	assert.Equal(t, 1.0, testutil.ToFloat64(svc.metrics.LoginAttempts.WithLabelValues("ok")))
}

func TestLogin_InactiveReportsInactive(t *testing.T) {
	svc, _ := newTestService(t)
	res := svc.Login("bob", "pw")
	assert.Equal(t, model.RejectInactive, res.Reason)
	assert.Equal(t, 1.0, testutil.ToFloat64(svc.metrics.LoginAttempts.WithLabelValues("inactive")))
}

func TestSaveRoster_RequiresAdmin(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.SaveRoster(context.Background(), "alice", nil, "")
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Len(t, svc.Roster().Users, 4)
}

func TestSaveRoster_RemovesUserAndDeniesSession(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	sess := model.Session{Authenticated: true, Username: "carol"}
	ar, _ := svc.Authorize(sess)
	require.True(t, ar.OK())

	before := svc.Roster()
	rows := auth.EditRows(before.Users)
	var kept []model.EditedRow
	for _, r := range rows {
		if r.Username != "carol" {
			kept = append(kept, r)
		}
	}

	saved, err := svc.SaveRoster(ctx, "ADMIN", kept, before.Revision)
	require.NoError(t, err)
	assert.Nil(t, model.FindUser(saved.Users, "carol"))

	ar, _ = svc.Authorize(sess)
	assert.Equal(t, model.RejectBadCredentials, ar.Reason)

	persisted, err := repo.Load(ctx)
	require.NoError(t, err)
	for _, u := range persisted.Users {
		assert.Equal(t, model.FindUser(before.Users, u.Username).Password, u.Password)
	}
}

func TestSaveRoster_DeactivationTakesEffectMidSession(t *testing.T) {
	svc, _ := newTestService(t)
	sess := model.Session{Authenticated: true, Username: "alice"}

	rows := auth.EditRows(svc.Roster().Users)
	for i := range rows {
		if rows[i].Username == "alice" {
			rows[i].Active = model.BoolPtr(false)
		}
	}
	_, err := svc.SaveRoster(context.Background(), "admin", rows, "")
	require.NoError(t, err)

	ar, _ := svc.Authorize(sess)
	assert.Equal(t, model.RejectInactive, ar.Reason)
}

func TestSaveRoster_StaleRevision(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.SaveRoster(context.Background(), "admin", auth.EditRows(svc.Roster().Users), "stale")
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestSaveRoster_IOFailureKeepsState(t *testing.T) {
	svc, repo := newTestService(t)
	repo.FailSave = errors.New("disk full")

	before := svc.Roster()
	_, err := svc.SaveRoster(context.Background(), "admin", nil, before.Revision)
	assert.Error(t, err)

	after := svc.Roster()
	assert.Equal(t, before.Revision, after.Revision)
	assert.Len(t, after.Users, 4)

	// Retry once the disk recovers.
	repo.FailSave = nil
	_, err = svc.SaveRoster(context.Background(), "admin", auth.EditRows(before.Users)[:1], before.Revision)
	require.NoError(t, err)
	assert.Len(t, svc.Roster().Users, 1)
}

func TestReload_PicksUpExternalChanges(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	snap, err := repo.Load(ctx)
	require.NoError(t, err)
	snap.Users = snap.Users[:1]
	_, err = repo.Save(ctx, snap)
	require.NoError(t, err)

	require.NoError(t, svc.Reload(ctx))
	assert.Len(t, svc.Roster().Users, 1)
}
