// Package yamlfile persists the roster and reads the package and tool tables
// from YAML documents on disk.
package yamlfile

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"tickcom/portal/internal/model"
	"tickcom/portal/internal/store"
)

// Store is a RosterRepository backed by a users.yaml file. The revision of a
// snapshot is the sha256 of the file bytes it was decoded from; a missing
// file has the empty revision.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

func (s *Store) Load(_ context.Context) (model.RosterSnapshot, error) {
	raw, err := readOptional(s.path)
	if err != nil {
		return model.RosterSnapshot{}, err
	}

	var doc model.UsersFile
	if len(raw) > 0 {
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return model.RosterSnapshot{}, fmt.Errorf("parse %s: %w", s.path, err)
		}
	}
	users := doc.Credentials.Users
	if users == nil {
		users = []model.UserRecord{}
	}
	return model.RosterSnapshot{Users: users, Revision: revisionOf(raw)}, nil
}

func (s *Store) Save(_ context.Context, snap model.RosterSnapshot) (model.RosterSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := readOptional(s.path)
	if err != nil {
		return model.RosterSnapshot{}, err
	}
	if revisionOf(current) != snap.Revision {
		return model.RosterSnapshot{}, store.ErrConflict
	}

	users := snap.Users
	if users == nil {
		users = []model.UserRecord{}
	}
	out, err := encode(model.UsersFile{Credentials: model.Credentials{Users: users}})
	if err != nil {
		return model.RosterSnapshot{}, err
	}
	if err := writeAtomic(s.path, out); err != nil {
		return model.RosterSnapshot{}, err
	}

	return model.RosterSnapshot{Users: users, Revision: revisionOf(out)}, nil
}

// LoadPackages reads a packages document. A missing file is an empty table.
func LoadPackages(path string) (model.PackageTable, error) {
	var doc model.PackagesFile
	if err := loadDoc(path, &doc); err != nil {
		return nil, err
	}
	if doc.Packages == nil {
		doc.Packages = model.PackageTable{}
	}
	return doc.Packages, nil
}

// LoadCatalog reads a tools document. A missing file is an empty catalog.
func LoadCatalog(path string) (model.ToolCatalog, error) {
	var doc model.ToolsFile
	if err := loadDoc(path, &doc); err != nil {
		return nil, err
	}
	if doc.Tools == nil {
		doc.Tools = model.ToolCatalog{}
	}
	return doc.Tools, nil
}

func loadDoc(path string, v any) error {
	raw, err := readOptional(path)
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return nil
	}
	if err := yaml.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func readOptional(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logrus.WithField("path", path).Info("config file missing, using empty default")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return raw, nil
}

func revisionOf(raw []byte) string {
	if raw == nil {
		return ""
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode roster: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode roster: %w", err)
	}
	return buf.Bytes(), nil
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
