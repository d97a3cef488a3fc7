package webconf

import (
	"fmt"
	"strings"

	"github.com/benschumacher/mailinabox/core/errors"
	"github.com/benschumacher/mailinabox/core/ssl"
	"github.com/benschumacher/mailinabox/internal/fileutil"
)

// Marker is the template line after which overlay directives are
// inserted. The newline is part of the marker so insertion lands on
// its own line.
const Marker = "# ADDITIONAL DIRECTIVES HERE\n"

// Build renders the complete configuration document for the given
// domains: the shared preamble followed by one server block each. The
// overlay file is re-read on every build, so admin edits take effect
// on the next update without any cache to invalidate.
func (a *Assembler) Build(domains []string) (string, error) {
	overlay, err := LoadOverlay(OverlayPath(a.Env))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(a.preamble())
	for _, domain := range domains {
		block, err := a.RenderDomain(domain, overlay)
		if err != nil {
			return "", err
		}
		b.WriteString(block)
	}
	return b.String(), nil
}

// RenderDomain renders one server block, provisioning a self-signed
// certificate first when the domain has none.
func (a *Assembler) RenderDomain(domain string, overlay Overlay) (string, error) {
	root := a.webRoot(domain)

	material := ssl.Resolve(domain, a.Env, a.Checker)
	prov := &ssl.Provisioner{Env: a.Env, Runner: a.Runner}
	if err := prov.Ensure(domain, material); err != nil {
		return "", errors.Wrapf(err, "ensuring certificate for %s", domain)
	}

	conf := strings.NewReplacer(
		"$HOSTNAME", domain,
		"$ROOT", root,
		"$SSL_KEY", material.PrivateKey,
		"$SSL_CERTIFICATE", material.Certificate,
	).Replace(a.template())

	if directives, ok := overlay[domain]; ok && directives.Proxy != "" {
		extra := fmt.Sprintf("\tlocation / {\n\t\tproxy_pass %s;\n\t}\n", directives.Proxy)
		var err error
		conf, err = insertAfterMarker(conf, extra)
		if err != nil {
			return "", errors.Wrapf(err, "inserting overlay directives for %s", domain)
		}
	}

	return conf, nil
}

// webRoot returns the document root for a domain: its own directory
// under www/ when one exists, otherwise the shared default root. The
// default is used even when it does not exist yet.
func (a *Assembler) webRoot(domain string) string {
	root := a.Env.StoragePath("www", fileutil.SafeDomainName(domain))
	if fileutil.Exists(root) {
		return root
	}
	return a.Env.StoragePath("www", "default")
}

// insertAfterMarker places extra directives on the line after the
// overlay marker, keeping the marker in place for later regeneration.
func insertAfterMarker(conf, extra string) (string, error) {
	idx := strings.Index(conf, Marker)
	if idx < 0 {
		return "", errors.NewValidation("template",
			"missing '# ADDITIONAL DIRECTIVES HERE' marker required for overlay directives")
	}
	end := idx + len(Marker)
	return conf[:end] + extra + conf[end:], nil
}
