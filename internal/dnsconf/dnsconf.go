// Package dnsconf reads the custom DNS override table kept in user data.
//
// Admins can point individual domains at other machines by editing
// STORAGE_ROOT/dns/custom.yaml. The web tooling only needs to know one
// thing about each entry: does it keep the domain on this box, or send
// it somewhere else?
package dnsconf

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/benschumacher/mailinabox/core/errors"
	"github.com/benschumacher/mailinabox/internal/env"
)

// Local is the sentinel record value meaning "this box".
const Local = "local"

// Table maps fully qualified domain names to their override values.
type Table map[string]Value

// Value is one override entry: either a literal value (usually an IP
// address) or a record set with explicit A/AAAA values.
type Value struct {
	literal *string
	a       *string
	aaaa    *string
}

// LiteralValue builds a literal override entry.
func LiteralValue(s string) Value {
	return Value{literal: &s}
}

// RecordValue builds a record override entry. Nil fields mean the
// record type is absent from the entry.
func RecordValue(a, aaaa *string) Value {
	return Value{a: a, aaaa: aaaa}
}

// Literal returns the literal override value, if this entry is one.
func (v Value) Literal() (string, bool) {
	if v.literal == nil {
		return "", false
	}
	return *v.literal, true
}

// A returns the explicit A record value, if present.
func (v Value) A() (string, bool) {
	if v.a == nil {
		return "", false
	}
	return *v.a, true
}

// AAAA returns the explicit AAAA record value, if present.
func (v Value) AAAA() (string, bool) {
	if v.aaaa == nil {
		return "", false
	}
	return *v.aaaa, true
}

// ResolvesAway reports whether this override points the domain at some
// other machine. A literal or record value of "local" keeps the domain
// here, as does a record entry with neither A nor AAAA set.
func (v Value) ResolvesAway() bool {
	if v.literal != nil {
		return *v.literal != Local
	}
	if v.a != nil && *v.a != Local {
		return true
	}
	if v.aaaa != nil && *v.aaaa != Local {
		return true
	}
	return false
}

// UnmarshalYAML decodes either a scalar literal or an A/AAAA mapping.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		v.literal = &s
		return nil
	case yaml.MappingNode:
		var records struct {
			A    *string `yaml:"A"`
			AAAA *string `yaml:"AAAA"`
		}
		if err := node.Decode(&records); err != nil {
			return err
		}
		v.a = records.A
		v.aaaa = records.AAAA
		return nil
	default:
		return fmt.Errorf("line %d: DNS override must be a value or an A/AAAA mapping", node.Line)
	}
}

// Path returns the override table location under the storage root.
func Path(e *env.Environment) string {
	return e.StoragePath("dns", "custom.yaml")
}

// Load reads the box's override table. A box with no overrides has no
// file, which is an empty table.
func Load(e *env.Environment) (Table, error) {
	return LoadFile(Path(e))
}

// LoadFile reads an override table from an explicit path.
func LoadFile(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Table{}, nil
		}
		return nil, errors.NewIO("read", path, err)
	}

	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, &errors.ParseError{Format: "YAML", Path: path, Message: err.Error(), Err: err}
	}
	if t == nil {
		t = Table{}
	}
	return t, nil
}
