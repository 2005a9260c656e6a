// Package hashpw implements the interactive bcrypt hasher used to fill the
// password field of users.yaml.
package hashpw

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"

	"tickcom/portal/internal/auth"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// Run prompts for passwords on fd without echo and writes a bcrypt hash of
// each to w until a blank password is entered.
func Run(w io.Writer, fd int, cost int) error {
	if _, err := fmt.Fprintln(w, "Password Hasher (bcrypt)"); err != nil {
		return err
	}
	for {
		fmt.Fprint(w, "Enter password (blank to quit): ")
		pw, err := readPassword(fd)
		fmt.Fprintln(w)
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		// Logins trim the attempt, so the hash must cover the trimmed value.
		plain := strings.TrimSpace(string(pw))
		if plain == "" {
			return nil
		}

		hash, err := auth.HashPassword(plain, cost)
		clear(pw)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Hashed: %s\n", hash)
	}
}
