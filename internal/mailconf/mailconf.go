// Package mailconf exposes the mail user database to the other
// management tools.
//
// The database itself is owned by the mail stack; this package only
// reads it. Two SQLite drivers are supported: the pure Go
// modernc.org/sqlite by default, or mattn/go-sqlite3 when built with
// the cgo_sqlite tag (see driver_purego.go and driver_cgo.go).
package mailconf

import (
	"database/sql"
	"sort"
	"strings"

	"github.com/benschumacher/mailinabox/core/errors"
	"github.com/benschumacher/mailinabox/internal/env"
	"github.com/benschumacher/mailinabox/internal/fileutil"
)

// DatabasePath returns the location of the mail user database.
func DatabasePath(e *env.Environment) string {
	return e.StoragePath("mail", "users.sqlite")
}

// Domains returns every domain that has a mail user or alias,
// lowercased, deduplicated, and sorted. A box whose mail database has
// not been created yet simply has no mail domains.
func Domains(e *env.Environment) ([]string, error) {
	path := DatabasePath(e)
	if !fileutil.Exists(path) {
		return nil, nil
	}

	db, err := sql.Open(driverName, "file:"+path+"?mode=ro")
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer db.Close()

	seen := make(map[string]bool)
	for _, query := range []string{
		"SELECT email FROM users",
		"SELECT source FROM aliases",
	} {
		if err := collectDomains(db, query, seen); err != nil {
			return nil, errors.Wrapf(err, "querying %s", path)
		}
	}

	domains := make([]string, 0, len(seen))
	for domain := range seen {
		domains = append(domains, domain)
	}
	sort.Strings(domains)
	return domains, nil
}

func collectDomains(db *sql.DB, query string, seen map[string]bool) error {
	rows, err := db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var address string
		if err := rows.Scan(&address); err != nil {
			return err
		}
		if domain := domainOf(address); domain != "" {
			seen[domain] = true
		}
	}
	return rows.Err()
}

// domainOf extracts the domain part of a mail address. Catch-all alias
// sources like "@example.com" have an empty local part, which is fine.
func domainOf(address string) string {
	at := strings.Index(address, "@")
	if at < 0 || at == len(address)-1 {
		return ""
	}
	return strings.ToLower(address[at+1:])
}
