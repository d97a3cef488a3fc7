package webconf

import (
	"encoding/hex"
	"os"

	"github.com/zeebo/blake3"

	"github.com/benschumacher/mailinabox/core/errors"
	"github.com/benschumacher/mailinabox/internal/fileutil"
)

// DefaultOutputPath is where nginx picks up the generated configuration.
const DefaultOutputPath = "/etc/nginx/conf.d/local.conf"

// Apply writes the configuration document if it differs from what is
// live and reloads nginx. It reports whether anything changed.
func (a *Assembler) Apply(conf string) (bool, error) {
	path := a.outputPath()

	// Identical content means nothing to do, and in particular no
	// needless reload.
	if current, err := os.ReadFile(path); err == nil && string(current) == conf {
		return false, nil
	}

	if err := fileutil.WriteAtomic(path, []byte(conf), 0644); err != nil {
		return false, errors.NewIO("write", path, err)
	}

	// Reload rather than restart: a restart would kill open
	// connections, including the admin request that triggered this
	// update. A reload keeps them alive.
	if err := a.Runner.CheckCall("/usr/sbin/service", "nginx", "reload"); err != nil {
		return true, errors.Wrap(err, "reloading nginx")
	}
	return true, nil
}

// Fingerprint returns the BLAKE3 hash of a configuration document,
// used for change tracking and audit logging.
func Fingerprint(conf string) string {
	h := blake3.Sum256([]byte(conf))
	return hex.EncodeToString(h[:])
}
