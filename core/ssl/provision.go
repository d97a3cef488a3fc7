package ssl

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/benschumacher/mailinabox/core/errors"
	"github.com/benschumacher/mailinabox/internal/env"
	"github.com/benschumacher/mailinabox/internal/fileutil"
	"github.com/benschumacher/mailinabox/internal/shell"
)

// Provisioner creates self-signed certificates for domains that have none.
type Provisioner struct {
	Env    *env.Environment
	Runner shell.Runner
}

// Ensure makes sure the certificate named in m exists, generating a
// self-signed one when it does not. The primary hostname is left
// alone: its certificate is provisioned during initial setup. Domains
// riding on the primary certificate are also left alone.
func (p *Provisioner) Ensure(domain string, m Material) error {
	if domain == p.Env.PrimaryHostname {
		return nil
	}

	// Resolution only hands out the primary certificate path when that
	// certificate exists and covers the domain, so there is nothing to
	// generate here.
	if m.Certificate == PrimaryCertificatePath(p.Env) {
		return nil
	}

	if fileutil.Exists(m.Certificate) {
		return nil
	}

	dir := filepath.Dir(m.Certificate)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.NewIO("mkdir", dir, err)
	}

	// Generate a signing request for the domain, then self-sign it
	// with the same key. The request stays on disk so a real CA can
	// sign it later.
	subject := fmt.Sprintf("/C=%s/ST=/L=/O=/CN=%s", p.Env.CSRCountry, domain)
	if err := p.Runner.CheckCall("openssl", "req", "-new",
		"-key", m.PrivateKey,
		"-out", m.CSR,
		"-subj", subject); err != nil {
		return err
	}

	return p.Runner.CheckCall("openssl", "x509", "-req",
		"-days", "365",
		"-in", m.CSR,
		"-signkey", m.PrivateKey,
		"-out", m.Certificate)
}
