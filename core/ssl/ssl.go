// Package ssl resolves and provisions the TLS material the web server
// serves with.
//
// Every domain the box serves needs a private key, a certificate, and a
// place for a certificate signing request. The primary hostname's
// material lives at fixed well-known paths under STORAGE_ROOT/ssl; any
// other domain gets its own directory there, keyed by a
// filesystem-safe version of its name, but rides on the primary
// certificate whenever that certificate already covers it.
package ssl

import (
	"path/filepath"

	"github.com/benschumacher/mailinabox/internal/env"
	"github.com/benschumacher/mailinabox/internal/fileutil"
)

// Material locates the TLS files for one domain.
type Material struct {
	PrivateKey  string // PEM private key path
	Certificate string // PEM certificate path
	CSR         string // certificate signing request path

	// AlternateKey records that PrivateKey is the domain's own
	// uploaded key rather than the shared primary key.
	AlternateKey bool
}

// PrimaryKeyPath returns the shared private key location.
func PrimaryKeyPath(e *env.Environment) string {
	return e.StoragePath("ssl", "ssl_private_key.pem")
}

// PrimaryCertificatePath returns the primary certificate location.
func PrimaryCertificatePath(e *env.Environment) string {
	return e.StoragePath("ssl", "ssl_certificate.pem")
}

// PrimaryCSRPath returns the primary certificate signing request location.
func PrimaryCSRPath(e *env.Environment) string {
	return e.StoragePath("ssl", "ssl_cert_sign_req.csr")
}

// domainDir returns the per-domain material directory.
func domainDir(e *env.Environment, domain string) string {
	return e.StoragePath("ssl", fileutil.SafeDomainName(domain))
}

// Resolve decides which key, certificate, and CSR files serve a
// domain. It only inspects the filesystem; nothing is created.
func Resolve(domain string, e *env.Environment, checker CoverageChecker) Material {
	m := Material{
		PrivateKey: PrimaryKeyPath(e),
		CSR:        PrimaryCSRPath(e),
	}

	if domain == e.PrimaryHostname {
		// The primary hostname always uses the material generated at
		// setup time; a per-domain override is not honored for it.
		m.Certificate = PrimaryCertificatePath(e)
		return m
	}

	dir := domainDir(e, domain)

	if altKey := filepath.Join(dir, "private_key.pem"); fileutil.Exists(altKey) {
		m.PrivateKey = altKey
		m.AlternateKey = true
	}

	// The CSR is per-domain even when the certificate ends up shared:
	// a request for this name can be handed to a real CA later.
	m.CSR = filepath.Join(dir, "certificate_signing_request.csr")

	// Reuse the primary certificate when it already covers this domain
	// through a Subject Alternative Name. A domain with its own key
	// can't ride on it, since the primary certificate was not issued
	// for that key.
	if !m.AlternateKey && checker != nil && checker.Covers(domain, PrimaryCertificatePath(e)) {
		m.Certificate = PrimaryCertificatePath(e)
		return m
	}

	m.Certificate = filepath.Join(dir, "ssl_certificate.pem")
	return m
}
