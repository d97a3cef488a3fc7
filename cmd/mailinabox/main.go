// Command mailinabox is the management CLI for a Mail-in-a-Box server.
// It regenerates the nginx web configuration from the box's mail
// domains and checks TLS certificate coverage.
package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/benschumacher/mailinabox/core/ssl"
	"github.com/benschumacher/mailinabox/core/webconf"
	"github.com/benschumacher/mailinabox/internal/dnsconf"
	"github.com/benschumacher/mailinabox/internal/env"
	"github.com/benschumacher/mailinabox/internal/logging"
	"github.com/benschumacher/mailinabox/internal/mailconf"
	"github.com/benschumacher/mailinabox/internal/shell"
)

const version = "0.1.0"

// CLI defines the command-line interface for mailinabox.
var CLI struct {
	// Global flags
	EnvFile   string `name:"env-file" help:"Machine environment file" type:"path" default:"/etc/mailinabox.conf"`
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)" default:"warn"`
	LogFormat string `name:"log-format" help:"Log format (text, json)" default:"text"`

	// Command groups (noun-first organization)
	Web     WebGroup   `cmd:"" help:"Web server configuration (update, domains)"`
	SSL     SSLGroup   `cmd:"" help:"TLS certificate operations"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// WebGroup contains web configuration operations.
type WebGroup struct {
	Update  WebUpdateCmd  `cmd:"" help:"Regenerate the nginx configuration and reload"`
	Domains WebDomainsCmd `cmd:"" help:"List the domains the web server serves"`
}

// SSLGroup contains certificate operations.
type SSLGroup struct {
	Check SSLCheckCmd `cmd:"" help:"Check whether a certificate covers a domain"`
}

// loadEnvironment reads the machine settings named by --env-file.
func loadEnvironment() (*env.Environment, error) {
	e, err := env.Load(CLI.EnvFile)
	if err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}
	return e, nil
}

// loadDomainSources gathers the two inputs of domain selection: the
// domains that receive mail and the custom DNS overrides.
func loadDomainSources(e *env.Environment) ([]string, dnsconf.Table, error) {
	mailDomains, err := mailconf.Domains(e)
	if err != nil {
		return nil, nil, fmt.Errorf("reading mail domains: %w", err)
	}
	overrides, err := dnsconf.Load(e)
	if err != nil {
		return nil, nil, fmt.Errorf("reading custom DNS: %w", err)
	}
	return mailDomains, overrides, nil
}

// WebUpdateCmd regenerates the nginx configuration and reloads the
// web server when anything changed.
type WebUpdateCmd struct {
	Output   string `help:"Write the configuration here instead of the nginx conf.d path" type:"path"`
	Template string `help:"Per-domain server block template file" type:"existingfile"`
	Preamble string `help:"Shared configuration preamble file" type:"existingfile"`
}

func (c *WebUpdateCmd) Run() error {
	e, err := loadEnvironment()
	if err != nil {
		return err
	}
	mailDomains, overrides, err := loadDomainSources(e)
	if err != nil {
		return err
	}

	a := webconf.NewAssembler(e, shell.NewExecRunner(), &ssl.X509Checker{})
	if c.Output != "" {
		a.OutputPath = c.Output
	}
	if c.Template != "" {
		data, err := os.ReadFile(c.Template)
		if err != nil {
			return fmt.Errorf("reading template: %w", err)
		}
		a.Template = string(data)
	}
	if c.Preamble != "" {
		data, err := os.ReadFile(c.Preamble)
		if err != nil {
			return fmt.Errorf("reading preamble: %w", err)
		}
		a.Preamble = string(data)
	}

	res, err := a.Update(mailDomains, overrides)
	if err != nil {
		return err
	}

	logging.ConfigApplied(res.OutputPath, res.Changed, len(res.Domains), res.Fingerprint)
	if res.Changed {
		fmt.Printf("web updated (%d domains)\n", len(res.Domains))
	} else {
		fmt.Println("no changes to web configuration")
	}
	return nil
}

// WebDomainsCmd lists the domains the web server would serve, one per
// line, primary hostname first.
type WebDomainsCmd struct{}

func (c *WebDomainsCmd) Run() error {
	e, err := loadEnvironment()
	if err != nil {
		return err
	}
	mailDomains, overrides, err := loadDomainSources(e)
	if err != nil {
		return err
	}

	for _, domain := range webconf.WebDomains(e, mailDomains, overrides) {
		fmt.Println(domain)
	}
	return nil
}

// SSLCheckCmd reports whether a certificate covers a domain.
type SSLCheckCmd struct {
	Domain      string `arg:"" help:"Domain name to check"`
	Certificate string `help:"Certificate path (default: the primary certificate)" type:"path"`
}

func (c *SSLCheckCmd) Run() error {
	e, err := loadEnvironment()
	if err != nil {
		return err
	}

	certPath := c.Certificate
	if certPath == "" {
		certPath = ssl.PrimaryCertificatePath(e)
	}

	checker := &ssl.X509Checker{}
	if !checker.Covers(c.Domain, certPath) {
		return fmt.Errorf("certificate %s does not cover %s", certPath, c.Domain)
	}
	fmt.Printf("OK: %s covers %s\n", certPath, c.Domain)
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("mailinabox version %s\n", version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("mailinabox"),
		kong.Description("Mail-in-a-Box management tools - web configuration and TLS"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	logging.InitLogger(logging.ParseLevel(CLI.LogLevel), logging.ParseFormat(CLI.LogFormat))

	err := ctx.Run(ctx)
	ctx.FatalIfErrorf(err)
}
