package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickcom/portal/internal/model"
	"tickcom/portal/internal/store"
)

func TestLoadSave(t *testing.T) {
	ctx := context.Background()
	s := NewStore(model.UserRecord{Username: "alice", Password: "h"})

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Users, 1)

	snap.Users = append(snap.Users, model.UserRecord{Username: "bob"})
	saved, err := s.Save(ctx, snap)
	require.NoError(t, err)
	assert.NotEqual(t, snap.Revision, saved.Revision)

	again, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved.Revision, again.Revision)
	assert.Len(t, again.Users, 2)
}

func TestSave_StaleRevisionConflicts(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	a, _ := s.Load(ctx)
	b, _ := s.Load(ctx)

	_, err := s.Save(ctx, a)
	require.NoError(t, err)

	_, err = s.Save(ctx, b)
	assert.ErrorIs(t, err, store.ErrConflict)
}

func TestLoad_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore(model.UserRecord{Username: "alice", AllowedTools: []string{"crm"}})

	snap, _ := s.Load(ctx)
	snap.Users[0].AllowedTools[0] = "mutated"

	again, _ := s.Load(ctx)
	assert.Equal(t, "crm", again.Users[0].AllowedTools[0])
}

func TestSave_FailureLeavesState(t *testing.T) {
	ctx := context.Background()
	s := NewStore(model.UserRecord{Username: "alice"})
	s.FailSave = errors.New("disk full")

	snap, _ := s.Load(ctx)
	snap.Users = nil
	_, err := s.Save(ctx, snap)
	assert.Error(t, err)

	again, _ := s.Load(ctx)
	assert.Len(t, again.Users, 1)
	assert.Equal(t, snap.Revision, again.Revision)
}
