package ssl

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"strings"
	"time"
)

// CoverageChecker reports whether an existing certificate is valid for
// a domain.
type CoverageChecker interface {
	Covers(domain, certPath string) bool
}

// X509Checker inspects certificates on disk with crypto/x509.
type X509Checker struct {
	// Now substitutes the clock for validity-window checks in tests.
	// Nil means time.Now.
	Now func() time.Time
}

// Covers reports whether the certificate at certPath is currently
// within its validity window and names the domain. Unreadable or
// unparsable certificates cover nothing.
func (c *X509Checker) Covers(domain, certPath string) bool {
	cert, err := readCertificate(certPath)
	if err != nil {
		return false
	}

	now := time.Now()
	if c.Now != nil {
		now = c.Now()
	}
	if now.Before(cert.NotBefore) || now.After(cert.NotAfter) {
		return false
	}

	if cert.VerifyHostname(domain) == nil {
		return true
	}

	// Self-signed certificates generated by older tooling carry only a
	// Common Name and no Subject Alternative Names, which VerifyHostname
	// refuses to match. Honor the CN for those.
	if len(cert.DNSNames) == 0 && matchHostname(cert.Subject.CommonName, domain) {
		return true
	}
	return false
}

func readCertificate(path string) (*x509.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("no certificate PEM block in %s", path)
	}
	return x509.ParseCertificate(block.Bytes)
}

// matchHostname compares a certificate name against a host, allowing a
// single leading wildcard label.
func matchHostname(pattern, host string) bool {
	pattern = strings.ToLower(strings.TrimSuffix(pattern, "."))
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if pattern == "" || host == "" {
		return false
	}
	if pattern == host {
		return true
	}
	if rest, ok := strings.CutPrefix(pattern, "*."); ok {
		if i := strings.Index(host, "."); i > 0 && host[i+1:] == rest {
			return true
		}
	}
	return false
}
