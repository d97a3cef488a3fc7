// Package fileutil provides small filesystem helpers shared across the codebase.
package fileutil

import (
	"fmt"
	"os"
	"strings"
)

// Exists reports whether a file or directory exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// WriteAtomic writes data to path via a temporary file and rename, so
// readers never observe a partially written file.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("rename %s -> %s: %w", tmp, path, err)
	}
	return nil
}

// SafeDomainName returns a version of a domain name usable as a single
// path component. Every byte outside the unreserved set [A-Za-z0-9._~-]
// is percent-encoded with uppercase hex, so internationalized or
// otherwise unusual names cannot escape their directory.
func SafeDomainName(domain string) string {
	var b strings.Builder
	b.Grow(len(domain))
	for i := 0; i < len(domain); i++ {
		c := domain[i]
		if isUnreserved(c) {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '-' || c == '.' || c == '_' || c == '~':
		return true
	}
	return false
}
