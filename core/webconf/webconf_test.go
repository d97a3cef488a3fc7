package webconf

import (
	"path/filepath"
	"testing"

	"github.com/benschumacher/mailinabox/internal/env"
	"github.com/benschumacher/mailinabox/internal/shell"
)

// staticChecker is a CoverageChecker with a fixed answer.
type staticChecker bool

func (s staticChecker) Covers(domain, certPath string) bool { return bool(s) }

// testTemplate is a minimal per-domain template with all four
// placeholders and the overlay marker.
const testTemplate = "server {\n" +
	"\tserver_name $HOSTNAME;\n" +
	"\troot $ROOT;\n" +
	"\tssl_certificate $SSL_CERTIFICATE;\n" +
	"\tssl_certificate_key $SSL_KEY;\n" +
	"\t# ADDITIONAL DIRECTIVES HERE\n" +
	"}\n"

const testPreamble = "# test preamble\n"

func newTestEnv(t *testing.T) *env.Environment {
	t.Helper()
	return &env.Environment{
		PrimaryHostname: "box.example.com",
		StorageRoot:     t.TempDir(),
		CSRCountry:      "US",
	}
}

// newTestAssembler builds an Assembler over a fresh storage root with
// a recording runner, the test templates, and an output path inside
// the temp directory.
func newTestAssembler(t *testing.T) (*Assembler, *shell.Recorder) {
	t.Helper()
	e := newTestEnv(t)
	rec := &shell.Recorder{}
	a := NewAssembler(e, rec, staticChecker(false))
	a.Template = testTemplate
	a.Preamble = testPreamble
	a.OutputPath = filepath.Join(e.StorageRoot, "local.conf")
	return a, rec
}
