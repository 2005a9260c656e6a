package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickcom/portal/internal/auth"
	"tickcom/portal/internal/model"
	"tickcom/portal/internal/store/memory"
	"tickcom/portal/internal/store/yamlfile"
)

const seedYAML = `credentials:
  users:
    - username: alice
      name: Alice
      password: $2b$12$alicehashalicehashalicehashalicehashalicehashalice
      allowed_tools: [crm]
`

func TestOpenRoster_FileMode(t *testing.T) {
	p := filepath.Join(t.TempDir(), "users.yaml")
	repo, watch, err := openRoster(context.Background(), p, false, auth.ParseAllowlist(""))
	require.NoError(t, err)
	assert.IsType(t, &yamlfile.Store{}, repo)
	assert.Equal(t, p, watch)
}

func TestOpenRoster_MemorySeededFromFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "users.yaml")
	require.NoError(t, os.WriteFile(p, []byte(seedYAML), 0o600))
	ctx := context.Background()

	repo, watch, err := openRoster(ctx, p, true, auth.ParseAllowlist(""))
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, repo)
	assert.Empty(t, watch)

	snap, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Users, 1)
	assert.Equal(t, "alice", snap.Users[0].Username)

	snap.Users = nil
	_, err = repo.Save(ctx, snap)
	require.NoError(t, err)

	raw, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, seedYAML, string(raw), "memory saves leave the file alone")
}

func TestOpenRoster_MemoryDemoAdmin(t *testing.T) {
	ctx := context.Background()
	repo, _, err := openRoster(ctx, filepath.Join(t.TempDir(), "missing.yaml"), true, auth.ParseAllowlist("root,ops"))
	require.NoError(t, err)

	snap, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Users, 1)

	u := model.FindUser(snap.Users, "root")
	require.NotNil(t, u)
	assert.True(t, u.IsActive())
	assert.True(t, auth.IsHashed(u.Password))
}
