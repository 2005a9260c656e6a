package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"tickcom/portal/internal/model"
)

// DefaultAdmin is used when no admin allowlist is configured.
const DefaultAdmin = "admin"

var (
	ErrDuplicateUsername = errors.New("duplicate_username")
	ErrInvalidRow        = errors.New("invalid_row")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Allowlist is the set of usernames allowed to edit the roster.
type Allowlist struct {
	names []string
}

// ParseAllowlist reads a comma separated list. Blank input yields the default admin.
func ParseAllowlist(raw string) Allowlist {
	names := SplitList(raw)
	if len(names) == 0 {
		names = []string{DefaultAdmin}
	}
	return Allowlist{names: names}
}

func (a Allowlist) IsAdmin(username string) bool {
	if strings.TrimSpace(username) == "" {
		return false
	}
	for _, n := range a.names {
		if model.SameUsername(n, username) {
			return true
		}
	}
	return false
}

func (a Allowlist) Names() []string {
	return append([]string(nil), a.names...)
}

// SplitList splits on commas and drops blank tokens.
func SplitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// EditRows projects the roster into editor rows. Passwords never leave the roster.
func EditRows(users []model.UserRecord) []model.EditedRow {
	rows := make([]model.EditedRow, 0, len(users))
	for _, u := range users {
		rows = append(rows, model.EditedRow{
			Username:     u.Username,
			Name:         u.Name,
			Package:      u.PackageName(),
			AllowedTools: strings.Join(u.AllowedTools, ", "),
			Active:       model.BoolPtr(u.IsActive()),
			ExpiresAt:    u.Expiry(),
		})
	}
	return rows
}

// ApplyRosterEdit builds the replacement roster from edited rows.
//
// Passwords are taken from the existing record with the same username and are
// never read from the edit; new users get an empty password. Existing users
// missing from edited are dropped.
func ApplyRosterEdit(edited []model.EditedRow, existing []model.UserRecord) ([]model.UserRecord, error) {
	out := make([]model.UserRecord, 0, len(edited))
	for i, r := range edited {
		r.Username = strings.TrimSpace(r.Username)
		if r.Username == "" {
			continue
		}
		r.ExpiresAt = strings.TrimSpace(r.ExpiresAt)
		if err := validate.Struct(r); err != nil {
			return nil, fmt.Errorf("%w: row %d (%s): %v", ErrInvalidRow, i+1, r.Username, err)
		}
		if model.FindUser(out, r.Username) != nil {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateUsername, r.Username)
		}

		u := model.UserRecord{
			Username:     r.Username,
			Name:         strings.TrimSpace(r.Name),
			AllowedTools: SplitList(r.AllowedTools),
			Active:       model.BoolPtr(r.IsActive()),
		}
		if u.Name == "" {
			u.Name = u.Username
		}
		if u.AllowedTools == nil {
			u.AllowedTools = []string{}
		}
		if pkg := strings.TrimSpace(r.Package); pkg != "" {
			u.Package = model.StringPtr(pkg)
		}
		if r.ExpiresAt != "" {
			u.ExpiresAt = model.StringPtr(r.ExpiresAt)
		}
		if old := model.FindUser(existing, r.Username); old != nil {
			u.Password = old.Password
		}
		out = append(out, u)
	}
	return out, nil
}
