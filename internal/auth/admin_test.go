package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickcom/portal/internal/model"
)

func TestAllowlist(t *testing.T) {
	a := ParseAllowlist(" root, Ops ,,")
	assert.True(t, a.IsAdmin("root"))
	assert.True(t, a.IsAdmin("ops"))
	assert.True(t, a.IsAdmin(" OPS "))
	assert.False(t, a.IsAdmin("admin"))
	assert.False(t, a.IsAdmin(""))

	def := ParseAllowlist("  ")
	assert.Equal(t, []string{DefaultAdmin}, def.Names())
	assert.True(t, def.IsAdmin("admin"))
}

func TestApplyRosterEdit_PreservesPasswords(t *testing.T) {
	existing := []model.UserRecord{
		{Username: "alice", Password: "$2b$10$alicehash"},
		{Username: "Bob", Password: "$2b$10$bobhash"},
	}
	edited := []model.EditedRow{
		{Username: "alice", Name: "Alice"},
		{Username: " bob "},
		{Username: "newbie"},
	}

	got, err := ApplyRosterEdit(edited, existing)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "$2b$10$alicehash", got[0].Password)
	assert.Equal(t, "bob", got[1].Username)
	assert.Equal(t, "$2b$10$bobhash", got[1].Password)
	assert.Equal(t, "", got[2].Password, "new users cannot log in until provisioned")
}

func TestApplyRosterEdit_Normalizes(t *testing.T) {
	got, err := ApplyRosterEdit([]model.EditedRow{{
		Username:     "alice",
		AllowedTools: " crm, ,billing ,",
		Package:      "  ",
		ExpiresAt:    "",
		Active:       model.BoolPtr(false),
	}, {
		Username:  "bob",
		Package:   "pro",
		ExpiresAt: "2026-01-31",
	}}, nil)
	require.NoError(t, err)

	alice := got[0]
	assert.Equal(t, "alice", alice.Name)
	assert.Equal(t, []string{"crm", "billing"}, alice.AllowedTools)
	assert.Nil(t, alice.Package)
	assert.Nil(t, alice.ExpiresAt)
	assert.False(t, alice.IsActive())

	bob := got[1]
	assert.Equal(t, "pro", bob.PackageName())
	assert.Equal(t, "2026-01-31", bob.Expiry())
	assert.True(t, bob.IsActive())
	assert.NotNil(t, bob.AllowedTools)
	assert.Empty(t, bob.AllowedTools)
}

func TestApplyRosterEdit_RemovesOmittedUsers(t *testing.T) {
	existing := []model.UserRecord{
		{Username: "alice", Password: "h1"},
		{Username: "carol", Password: "h2", AllowedTools: []string{"crm"}},
	}
	got, err := ApplyRosterEdit([]model.EditedRow{{Username: "alice"}}, existing)
	require.NoError(t, err)

	assert.Len(t, got, 1)
	carol := model.FindUser(got, "carol")
	assert.Nil(t, carol)

	// With no record, carol's entitlement resolves to nothing.
	var resolved []string
	if carol != nil {
		resolved = Resolve(*carol, testPackages, testCatalog)
	}
	assert.Empty(t, resolved)
}

func TestApplyRosterEdit_SkipsBlankRows(t *testing.T) {
	got, err := ApplyRosterEdit([]model.EditedRow{{Username: "  "}, {Username: "alice"}, {}}, nil)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestApplyRosterEdit_Rejects(t *testing.T) {
	_, err := ApplyRosterEdit([]model.EditedRow{{Username: "alice"}, {Username: "ALICE "}}, nil)
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	_, err = ApplyRosterEdit([]model.EditedRow{{Username: "alice", ExpiresAt: "31/12/2025"}}, nil)
	assert.ErrorIs(t, err, ErrInvalidRow)
}

func TestEditRows_RoundTrip(t *testing.T) {
	existing := []model.UserRecord{
		{Username: "alice", Name: "Alice", Password: "$2b$10$h", Package: model.StringPtr("pro"),
			AllowedTools: []string{"crm", "support"}, ExpiresAt: model.StringPtr("2030-01-01")},
	}
	rows := EditRows(existing)
	require.Len(t, rows, 1)
	assert.Equal(t, "crm, support", rows[0].AllowedTools)
	assert.Equal(t, "pro", rows[0].Package)
	assert.True(t, *rows[0].Active)

	back, err := ApplyRosterEdit(rows, existing)
	require.NoError(t, err)
	assert.Equal(t, existing[0].Password, back[0].Password)
	assert.Equal(t, existing[0].AllowedTools, back[0].AllowedTools)
	assert.Equal(t, "2030-01-01", back[0].Expiry())
}
