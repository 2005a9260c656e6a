package store

import (
	"context"
	"errors"

	"tickcom/portal/internal/model"
)

// ErrConflict is returned by Save when the roster changed since it was read.
var ErrConflict = errors.New("conflict")

// RosterRepository is the single seam through which the roster is read and
// replaced. Save is a whole-roster swap: it succeeds only if the persisted
// roster still matches snap.Revision, and returns the snapshot with its new
// revision.
type RosterRepository interface {
	Load(ctx context.Context) (model.RosterSnapshot, error)
	Save(ctx context.Context, snap model.RosterSnapshot) (model.RosterSnapshot, error)
}
