package memory

import (
	"context"
	"strconv"
	"sync"

	"tickcom/portal/internal/model"
	"tickcom/portal/internal/store"
)

// Store keeps the roster in process memory. Revisions are a save counter.
type Store struct {
	mu sync.Mutex

	users    []model.UserRecord
	revision int

	// FailSave, when set, is returned from Save without touching state.
	FailSave error
}

func NewStore(users ...model.UserRecord) *Store {
	return &Store{users: cloneUsers(users), revision: 1}
}

func (s *Store) Load(_ context.Context) (model.RosterSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return model.RosterSnapshot{
		Users:    cloneUsers(s.users),
		Revision: strconv.Itoa(s.revision),
	}, nil
}

func (s *Store) Save(_ context.Context, snap model.RosterSnapshot) (model.RosterSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailSave != nil {
		return model.RosterSnapshot{}, s.FailSave
	}
	if snap.Revision != strconv.Itoa(s.revision) {
		return model.RosterSnapshot{}, store.ErrConflict
	}

	s.revision++
	s.users = cloneUsers(snap.Users)
	return model.RosterSnapshot{
		Users:    cloneUsers(s.users),
		Revision: strconv.Itoa(s.revision),
	}, nil
}

func cloneUsers(in []model.UserRecord) []model.UserRecord {
	out := make([]model.UserRecord, len(in))
	for i, u := range in {
		u.AllowedTools = append([]string(nil), u.AllowedTools...)
		if u.Package != nil {
			u.Package = model.StringPtr(*u.Package)
		}
		if u.ExpiresAt != nil {
			u.ExpiresAt = model.StringPtr(*u.ExpiresAt)
		}
		if u.Active != nil {
			u.Active = model.BoolPtr(*u.Active)
		}
		out[i] = u
	}
	return out
}
