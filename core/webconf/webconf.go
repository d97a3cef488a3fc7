// Package webconf generates the box's nginx configuration.
//
// The box serves HTTP/HTTPS on every domain that receives mail, plus
// the primary hostname for webmail and ActiveSync. One configuration
// document is generated for all of them: a shared preamble followed by
// a server block per domain, rendered from a template with the
// domain's web root and TLS material filled in. Applying the document
// is change-detected so nginx is only reloaded when something actually
// differs.
package webconf

import (
	"github.com/benschumacher/mailinabox/core/ssl"
	"github.com/benschumacher/mailinabox/internal/dnsconf"
	"github.com/benschumacher/mailinabox/internal/env"
	"github.com/benschumacher/mailinabox/internal/shell"
)

// Assembler builds and applies the web configuration for one box.
type Assembler struct {
	Env     *env.Environment
	Runner  shell.Runner
	Checker ssl.CoverageChecker

	// Template and Preamble replace the embedded defaults when set.
	Template string
	Preamble string

	// OutputPath replaces DefaultOutputPath when set.
	OutputPath string
}

// NewAssembler creates an Assembler using the embedded templates and
// the default output path.
func NewAssembler(e *env.Environment, runner shell.Runner, checker ssl.CoverageChecker) *Assembler {
	return &Assembler{
		Env:     e,
		Runner:  runner,
		Checker: checker,
	}
}

// ApplyResult describes the outcome of a web configuration update.
type ApplyResult struct {
	Changed     bool     // whether the artifact was rewritten and nginx reloaded
	Domains     []string // domains served, primary hostname first
	Fingerprint string   // BLAKE3 hash of the generated document
	OutputPath  string   // where the document lives
}

// Update regenerates the whole web configuration: select the domains,
// build the document, and write + reload only when it differs from
// what is already live.
func (a *Assembler) Update(mailDomains []string, overrides dnsconf.Table) (*ApplyResult, error) {
	domains := WebDomains(a.Env, mailDomains, overrides)

	conf, err := a.Build(domains)
	if err != nil {
		return nil, err
	}

	changed, err := a.Apply(conf)
	if err != nil {
		return nil, err
	}

	return &ApplyResult{
		Changed:     changed,
		Domains:     domains,
		Fingerprint: Fingerprint(conf),
		OutputPath:  a.outputPath(),
	}, nil
}

func (a *Assembler) template() string {
	if a.Template != "" {
		return a.Template
	}
	return defaultTemplate
}

func (a *Assembler) preamble() string {
	if a.Preamble != "" {
		return a.Preamble
	}
	return defaultPreamble
}

func (a *Assembler) outputPath() string {
	if a.OutputPath != "" {
		return a.OutputPath
	}
	return DefaultOutputPath
}
