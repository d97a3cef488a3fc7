package webconf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/benschumacher/mailinabox/core/errors"
	"github.com/benschumacher/mailinabox/core/ssl"
)

func TestRenderDomainSubstitution(t *testing.T) {
	a, rec := newTestAssembler(t)

	conf, err := a.RenderDomain("box.example.com", nil)
	if err != nil {
		t.Fatalf("RenderDomain() error = %v", err)
	}

	wantLines := []string{
		"server_name box.example.com;",
		"root " + a.Env.StoragePath("www", "default") + ";",
		"ssl_certificate " + ssl.PrimaryCertificatePath(a.Env) + ";",
		"ssl_certificate_key " + ssl.PrimaryKeyPath(a.Env) + ";",
	}
	for _, want := range wantLines {
		if !strings.Contains(conf, want) {
			t.Errorf("RenderDomain() missing %q in:\n%s", want, conf)
		}
	}
	for _, placeholder := range []string{"$HOSTNAME", "$ROOT", "$SSL_KEY", "$SSL_CERTIFICATE"} {
		if strings.Contains(conf, placeholder) {
			t.Errorf("RenderDomain() left placeholder %s in:\n%s", placeholder, conf)
		}
	}
	if len(rec.Calls) != 0 {
		t.Errorf("RenderDomain() for primary ran %d commands, want 0", len(rec.Calls))
	}
}

func TestRenderDomainPerDomainRoot(t *testing.T) {
	a, _ := newTestAssembler(t)
	root := a.Env.StoragePath("www", "site.example.net")
	if err := os.MkdirAll(root, 0755); err != nil {
		t.Fatal(err)
	}

	conf, err := a.RenderDomain("site.example.net", nil)
	if err != nil {
		t.Fatalf("RenderDomain() error = %v", err)
	}
	if !strings.Contains(conf, "root "+root+";") {
		t.Errorf("RenderDomain() did not use per-domain root %s:\n%s", root, conf)
	}
}

func TestRenderDomainProvisionsOwnCertificate(t *testing.T) {
	a, rec := newTestAssembler(t)

	conf, err := a.RenderDomain("example.net", nil)
	if err != nil {
		t.Fatalf("RenderDomain() error = %v", err)
	}

	certPath := a.Env.StoragePath("ssl", "example.net", "ssl_certificate.pem")
	if !strings.Contains(conf, "ssl_certificate "+certPath+";") {
		t.Errorf("RenderDomain() did not reference per-domain certificate:\n%s", conf)
	}
	if len(rec.Calls) != 2 {
		t.Fatalf("RenderDomain() ran %d commands, want 2 (request + sign)", len(rec.Calls))
	}
	for _, call := range rec.Calls {
		if call.Name != "openssl" {
			t.Errorf("RenderDomain() ran %s, want openssl", call.Name)
		}
	}
}

func TestRenderDomainReusesPrimaryCertificate(t *testing.T) {
	a, rec := newTestAssembler(t)
	a.Checker = staticChecker(true)

	conf, err := a.RenderDomain("example.net", nil)
	if err != nil {
		t.Fatalf("RenderDomain() error = %v", err)
	}
	if !strings.Contains(conf, "ssl_certificate "+ssl.PrimaryCertificatePath(a.Env)+";") {
		t.Errorf("RenderDomain() did not reuse primary certificate:\n%s", conf)
	}
	if len(rec.Calls) != 0 {
		t.Errorf("RenderDomain() ran %d commands, want 0 when certificate is covered", len(rec.Calls))
	}
}

func TestRenderDomainOverlayProxy(t *testing.T) {
	a, _ := newTestAssembler(t)
	overlay := Overlay{"box.example.com": {Proxy: "http://127.0.0.1:8000"}}

	conf, err := a.RenderDomain("box.example.com", overlay)
	if err != nil {
		t.Fatalf("RenderDomain() error = %v", err)
	}

	want := Marker + "\tlocation / {\n\t\tproxy_pass http://127.0.0.1:8000;\n\t}\n"
	if !strings.Contains(conf, want) {
		t.Errorf("RenderDomain() did not insert proxy after marker:\n%s", conf)
	}
	if strings.Count(conf, Marker) != 1 {
		t.Errorf("RenderDomain() marker count = %d, want 1", strings.Count(conf, Marker))
	}
}

func TestRenderDomainOverlayOtherDomain(t *testing.T) {
	a, _ := newTestAssembler(t)
	overlay := Overlay{"elsewhere.example": {Proxy: "http://127.0.0.1:8000"}}

	conf, err := a.RenderDomain("box.example.com", overlay)
	if err != nil {
		t.Fatalf("RenderDomain() error = %v", err)
	}
	if strings.Contains(conf, "proxy_pass") {
		t.Errorf("RenderDomain() applied another domain's overlay:\n%s", conf)
	}
}

func TestRenderDomainMissingMarker(t *testing.T) {
	a, _ := newTestAssembler(t)
	a.Template = "server {\n\tserver_name $HOSTNAME;\n}\n"
	overlay := Overlay{"box.example.com": {Proxy: "http://127.0.0.1:8000"}}

	_, err := a.RenderDomain("box.example.com", overlay)
	if err == nil {
		t.Fatal("RenderDomain() expected error for template without marker")
	}
	var validationErr *errors.ValidationError
	if !errors.As(err, &validationErr) {
		t.Errorf("RenderDomain() error = %v, want ValidationError", err)
	}
}

func TestBuildComposesDocument(t *testing.T) {
	a, _ := newTestAssembler(t)
	overlayPath := OverlayPath(a.Env)
	if err := os.MkdirAll(filepath.Dir(overlayPath), 0755); err != nil {
		t.Fatal(err)
	}
	overlayYAML := "other.example.net:\n  proxy: http://127.0.0.1:8000\n"
	if err := os.WriteFile(overlayPath, []byte(overlayYAML), 0644); err != nil {
		t.Fatal(err)
	}

	doc, err := a.Build([]string{"box.example.com", "other.example.net"})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if !strings.HasPrefix(doc, testPreamble) {
		t.Errorf("Build() does not start with preamble:\n%s", doc)
	}
	idxPrimary := strings.Index(doc, "server_name box.example.com;")
	idxOther := strings.Index(doc, "server_name other.example.net;")
	if idxPrimary < 0 || idxOther < 0 || idxOther < idxPrimary {
		t.Errorf("Build() block order wrong (primary at %d, other at %d):\n%s", idxPrimary, idxOther, doc)
	}
	idxProxy := strings.Index(doc, "proxy_pass http://127.0.0.1:8000;")
	if idxProxy < idxOther {
		t.Errorf("Build() proxy directive at %d, want inside block starting %d:\n%s", idxProxy, idxOther, doc)
	}
}

func TestBuildMalformedOverlay(t *testing.T) {
	a, _ := newTestAssembler(t)
	overlayPath := OverlayPath(a.Env)
	if err := os.MkdirAll(filepath.Dir(overlayPath), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(overlayPath, []byte("not: [valid: yaml"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := a.Build([]string{"box.example.com"})
	if err == nil {
		t.Fatal("Build() expected error for malformed overlay")
	}
	var parseErr *errors.ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("Build() error = %v, want ParseError", err)
	}
}

func TestBuildEmbeddedDefaults(t *testing.T) {
	e := newTestEnv(t)
	a := NewAssembler(e, nil, nil)

	doc, err := a.Build([]string{"box.example.com"})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if !strings.HasPrefix(doc, "# This file is automatically generated") {
		t.Errorf("Build() default preamble missing:\n%.200s", doc)
	}
	if !strings.Contains(doc, "server_name box.example.com;") {
		t.Error("Build() default template did not render the domain")
	}
	if !strings.Contains(doc, Marker) {
		t.Error("Build() default template lost the overlay marker")
	}
	for _, placeholder := range []string{"$HOSTNAME", "$ROOT", "$SSL_KEY", "$SSL_CERTIFICATE"} {
		if strings.Contains(doc, placeholder) {
			t.Errorf("Build() left placeholder %s in default template", placeholder)
		}
	}
}
