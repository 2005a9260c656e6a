package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tickcom/portal/internal/auth"
	"tickcom/portal/internal/model"
	"tickcom/portal/internal/store"
	"tickcom/portal/internal/store/memory"
	"tickcom/portal/internal/store/yamlfile"
)

// openRoster returns the roster repository and, for file-backed rosters, the
// path to watch. In memory mode the roster is seeded from usersFile once and
// saves never touch disk; an empty seed gets a demo admin with a one-off
// password that is logged at startup.
func openRoster(ctx context.Context, usersFile string, inMemory bool, admins auth.Allowlist) (store.RosterRepository, string, error) {
	file := yamlfile.NewStore(usersFile)
	if !inMemory {
		return file, file.Path(), nil
	}

	seed, err := file.Load(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("seed memory roster: %w", err)
	}
	if len(seed.Users) == 0 {
		demo, err := demoAdmin(admins.Names()[0])
		if err != nil {
			return nil, "", err
		}
		seed.Users = []model.UserRecord{demo}
	}
	logrus.WithField("users", len(seed.Users)).Warn("memory mode: roster edits are not persisted")
	return memory.NewStore(seed.Users...), "", nil
}

func demoAdmin(username string) (model.UserRecord, error) {
	password := uuid.NewString()
	hash, err := auth.HashPassword(password, 0)
	if err != nil {
		return model.UserRecord{}, err
	}
	logrus.WithFields(logrus.Fields{"username": username, "password": password}).Warn("memory mode: created demo admin")
	return model.UserRecord{
		Username:     username,
		Name:         "Demo Admin",
		Password:     hash,
		AllowedTools: []string{},
		Active:       model.BoolPtr(true),
	}, nil
}
