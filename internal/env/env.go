// Package env loads the box-wide environment file that every
// management tool reads its settings from.
//
// Setup writes /etc/mailinabox.conf as shell-style KEY=VALUE lines, so
// the same file can be sourced by shell scripts and parsed here.
package env

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/benschumacher/mailinabox/core/errors"
)

// DefaultPath is where setup writes the environment file.
const DefaultPath = "/etc/mailinabox.conf"

// Environment holds the box-wide settings the management tools need.
type Environment struct {
	PrimaryHostname string // PRIMARY_HOSTNAME
	PublicIP        string // PUBLIC_IP
	PublicIPv6      string // PUBLIC_IPV6
	StorageUser     string // STORAGE_USER
	StorageRoot     string // STORAGE_ROOT
	CSRCountry      string // CSR_COUNTRY
}

// StoragePath joins path elements under the storage root.
func (e *Environment) StoragePath(parts ...string) string {
	return filepath.Join(append([]string{e.StorageRoot}, parts...)...)
}

// envFile represents a parsed environment file.
type envFile struct {
	Lines []envLine `parser:"@@*"`
}

// envLine represents a single meaningful line in the file.
type envLine struct {
	Assignment string `parser:"@Assignment"`
}

// envLexer defines tokens for KEY=VALUE environment files using
// line-based patterns. Order matters: more specific patterns should
// come first.
var envLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Comment lines (full line starting with #)
	{Name: "Comment", Pattern: `#[^\r\n]*`},
	// Assignment line: KEY=VALUE, with an optional shell-style export prefix
	{Name: "Assignment", Pattern: `(?:export[ \t]+)?[A-Za-z_][A-Za-z0-9_]*=[^\r\n]*`},
	// Whitespace (spaces/tabs)
	{Name: "Whitespace", Pattern: `[ \t]+`},
	// Newlines
	{Name: "Newline", Pattern: `[\r\n]+`},
})

// envParser is the Participle parser for environment files.
var envParser = participle.MustBuild[envFile](
	participle.Lexer(envLexer),
	participle.Elide("Comment", "Whitespace", "Newline"),
)

// Load reads and parses the environment file at path.
func Load(path string) (*Environment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIO("read", path, err)
	}

	e, err := Parse(data)
	if err != nil {
		var parseErr *errors.ParseError
		if errors.As(err, &parseErr) {
			parseErr.Path = path
		}
		return nil, err
	}
	return e, nil
}

// Parse parses environment file content and validates that the
// settings every tool depends on are present.
func Parse(data []byte) (*Environment, error) {
	file, err := envParser.ParseBytes("", data)
	if err != nil {
		return nil, &errors.ParseError{Format: "environment file", Message: err.Error(), Err: err}
	}

	e := &Environment{}
	for _, line := range file.Lines {
		assignment := line.Assignment
		if rest, ok := strings.CutPrefix(assignment, "export"); ok &&
			(strings.HasPrefix(rest, " ") || strings.HasPrefix(rest, "\t")) {
			assignment = strings.TrimLeft(rest, " \t")
		}

		// Split on first "="
		idx := strings.Index(assignment, "=")
		if idx < 0 {
			continue
		}
		key := assignment[:idx]
		value := unquote(strings.TrimSpace(assignment[idx+1:]))

		switch key {
		case "PRIMARY_HOSTNAME":
			e.PrimaryHostname = value
		case "PUBLIC_IP":
			e.PublicIP = value
		case "PUBLIC_IPV6":
			e.PublicIPv6 = value
		case "STORAGE_USER":
			e.StorageUser = value
		case "STORAGE_ROOT":
			e.StorageRoot = value
		case "CSR_COUNTRY":
			e.CSRCountry = value
		}
		// Setup writes more keys than we read; unknown ones are ignored.
	}

	if err := e.validate(); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Environment) validate() error {
	if e.PrimaryHostname == "" {
		return errors.NewValidation("PRIMARY_HOSTNAME", "must be set")
	}
	if e.StorageRoot == "" {
		return errors.NewValidation("STORAGE_ROOT", "must be set")
	}
	return nil
}

// unquote strips one matching pair of surrounding quotes, which setup
// sometimes writes around values containing special characters.
func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
