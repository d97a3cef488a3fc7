package webconf

import (
	"sort"

	"github.com/benschumacher/mailinabox/internal/dnsconf"
	"github.com/benschumacher/mailinabox/internal/env"
)

// WebDomains returns the hostnames the box serves web content for: the
// primary hostname (webmail, ActiveSync) plus every mail domain
// (Webfinger, autodiscover). Domains whose custom DNS points somewhere
// other than this box are dropped, since a site served here would
// never be reached. That rule applies to the primary hostname too.
func WebDomains(e *env.Environment, mailDomains []string, overrides dnsconf.Table) []string {
	domains := make(map[string]bool)
	domains[e.PrimaryHostname] = true
	for _, domain := range mailDomains {
		domains[domain] = true
	}

	for domain, value := range overrides {
		if domains[domain] && value.ResolvesAway() {
			delete(domains, domain)
		}
	}

	return sortDomains(domains, e.PrimaryHostname)
}

// sortDomains orders a selection with the primary hostname first, so
// its server block becomes nginx's default server, and the rest sorted
// for deterministic output.
func sortDomains(set map[string]bool, primary string) []string {
	domains := make([]string, 0, len(set))
	for domain := range set {
		if domain != primary {
			domains = append(domains, domain)
		}
	}
	sort.Strings(domains)

	if set[primary] {
		domains = append([]string{primary}, domains...)
	}
	return domains
}
