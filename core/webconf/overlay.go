package webconf

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/benschumacher/mailinabox/core/errors"
	"github.com/benschumacher/mailinabox/internal/env"
)

// Overlay carries per-domain directives that admins mix into rendered
// server blocks by editing STORAGE_ROOT/www/custom.yaml.
type Overlay map[string]DomainDirectives

// DomainDirectives is the overlay entry for one domain.
type DomainDirectives struct {
	// Proxy, when set, routes all requests for the domain to this URL
	// instead of serving static files.
	Proxy string `yaml:"proxy"`
}

// OverlayPath returns the overlay file location under the storage root.
func OverlayPath(e *env.Environment) string {
	return e.StoragePath("www", "custom.yaml")
}

// LoadOverlay reads an overlay file. A missing file means no overlay;
// an unreadable or malformed one is an error rather than an empty
// overlay, so admin directives are never silently dropped.
func LoadOverlay(path string) (Overlay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Overlay{}, nil
		}
		return nil, errors.NewIO("read", path, err)
	}

	var o Overlay
	if err := yaml.Unmarshal(data, &o); err != nil {
		return nil, &errors.ParseError{Format: "YAML", Path: path, Message: err.Error(), Err: err}
	}
	if o == nil {
		o = Overlay{}
	}
	return o, nil
}
