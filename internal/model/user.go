package model

import "strings"

// UserRecord is one roster entry as persisted under credentials.users.
type UserRecord struct {
	Username     string   `yaml:"username" json:"username"`
	Name         string   `yaml:"name" json:"name"`
	Password     string   `yaml:"password" json:"-"`
	Package      *string  `yaml:"package" json:"package,omitempty"`
	AllowedTools []string `yaml:"allowed_tools" json:"allowed_tools"`
	Active       *bool    `yaml:"active,omitempty" json:"active"`
	ExpiresAt    *string  `yaml:"expires_at" json:"expires_at,omitempty"`
}

// DisplayName falls back to the username when no name is set.
func (u UserRecord) DisplayName() string {
	if strings.TrimSpace(u.Name) == "" {
		return u.Username
	}
	return u.Name
}

// IsActive treats a missing flag as active.
func (u UserRecord) IsActive() bool {
	return u.Active == nil || *u.Active
}

func (u UserRecord) PackageName() string {
	if u.Package == nil {
		return ""
	}
	return strings.TrimSpace(*u.Package)
}

func (u UserRecord) Expiry() string {
	if u.ExpiresAt == nil {
		return ""
	}
	return strings.TrimSpace(*u.ExpiresAt)
}

// SameUsername compares usernames the way the roster keys them: trimmed, case-insensitive.
func SameUsername(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// FindUser returns the record whose username matches, or nil.
func FindUser(users []UserRecord, username string) *UserRecord {
	for i := range users {
		if SameUsername(users[i].Username, username) {
			return &users[i]
		}
	}
	return nil
}

type Credentials struct {
	Users []UserRecord `yaml:"users"`
}

// UsersFile is the on-disk roster document.
type UsersFile struct {
	Credentials Credentials `yaml:"credentials"`
}

// RosterSnapshot is the full roster as read from a repository. Revision identifies
// the persisted content it was read from and is opaque to callers.
type RosterSnapshot struct {
	Users    []UserRecord `json:"users"`
	Revision string       `json:"revision"`
}

// EditedRow is a roster row as it comes back from the admin editor.
// AllowedTools is comma separated; Active nil means true.
type EditedRow struct {
	Username     string `json:"username" validate:"required,max=64"`
	Name         string `json:"name"`
	Package      string `json:"package"`
	AllowedTools string `json:"allowed_tools"`
	Active       *bool  `json:"active"`
	ExpiresAt    string `json:"expires_at" validate:"omitempty,datetime=2006-01-02"`
}

func (r EditedRow) IsActive() bool {
	return r.Active == nil || *r.Active
}

func StringPtr(s string) *string { return &s }

func BoolPtr(b bool) *bool { return &b }
