package provision

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/webship/internal"
)

func TestRenderServerBlockRoundTrip(t *testing.T) {
	conf, err := RenderServerBlock("203.0.113.7", DefaultTarget())
	if err != nil {
		t.Errorf("expected no errors and got err=%v", err.Error())
	}

	if got := strings.Count(conf, "server_name"); got != 1 {
		t.Errorf("expected a single server_name directive and got %d", got)
	}
	if !strings.Contains(conf, "server_name 203.0.113.7 _;") {
		t.Errorf("expected the identity as the only accepted name plus wildcard, got:\n%s", conf)
	}
	if !strings.Contains(conf, "root /var/www/html;") {
		t.Errorf("expected the fixed document root, got:\n%s", conf)
	}
	if !strings.Contains(conf, "try_files $uri $uri/ /index.html;") {
		t.Errorf("expected SPA fallback routing, got:\n%s", conf)
	}
	if !strings.Contains(conf, "gzip_min_length 256;") {
		t.Errorf("expected the compression size floor, got:\n%s", conf)
	}
	if !strings.Contains(conf, "expires 365d;") {
		t.Errorf("expected long-lived static caching, got:\n%s", conf)
	}
	// the security headers apply to every response: once at server
	// level and once more inside the caching location, where nginx
	// add_header inheritance would otherwise drop them
	for _, header := range []string{"X-Frame-Options", "X-Content-Type-Options", "X-XSS-Protection"} {
		if got := strings.Count(conf, "add_header "+header); got != 2 {
			t.Errorf("expected security header %s at server and location level, got %d occurrences in:\n%s", header, got, conf)
		}
	}
}

func TestRenderServerBlockCachingLocationKeepsSecurityHeaders(t *testing.T) {
	conf, err := RenderServerBlock("203.0.113.7", DefaultTarget())
	if err != nil {
		t.Errorf("expected no errors and got err=%v", err.Error())
	}

	open := strings.Index(conf, "location ~*")
	if open == -1 {
		t.Fatalf("expected a static-asset location block, got:\n%s", conf)
	}
	block := conf[open:]
	block = block[:strings.Index(block, "}")+1]

	for _, directive := range []string{
		`add_header Cache-Control "public, immutable";`,
		`add_header X-Frame-Options "SAMEORIGIN" always;`,
		`add_header X-Content-Type-Options "nosniff" always;`,
		`add_header X-XSS-Protection "1; mode=block" always;`,
	} {
		if !strings.Contains(block, directive) {
			t.Errorf("expected %q inside the caching location, got:\n%s", directive, block)
		}
	}
}

func TestRenderServerBlockRejectsEmptyIdentity(t *testing.T) {
	for _, identity := range []string{"", "   ", "\n"} {
		_, err := RenderServerBlock(identity, DefaultTarget())
		if err == nil {
			t.Errorf("expected error for identity %q and got nil", identity)
		}
		if !errors.Is(err, ErrConfig) {
			t.Errorf("expected config error and got %v", err)
		}
	}
}

func TestDiscoverIdentityTrustsSingleLine(t *testing.T) {
	f := &internal.FakeHost{Rules: []*internal.ExecRule{
		internal.Rule("ifconfig.me", internal.Resp(0, "203.0.113.7\n")),
	}}
	p := testPipeline(f)

	identity, err := p.discoverIdentity(context.Background())
	if err != nil {
		t.Errorf("expected no errors and got err=%v", err.Error())
	}
	if identity != "203.0.113.7" {
		t.Errorf("expected 203.0.113.7 and got %q", identity)
	}
}

func TestDiscoverIdentityEmptyResponseIsFatal(t *testing.T) {
	f := &internal.FakeHost{Rules: []*internal.ExecRule{
		internal.Rule("ifconfig.me", internal.Resp(0, "\n")),
	}}
	p := testPipeline(f)

	_, err := p.discoverIdentity(context.Background())
	if err == nil {
		t.Errorf("expected error and got nil")
	}
	if !errors.Is(err, ErrConfig) {
		t.Errorf("expected config error and got %v", err)
	}
}

func TestDiscoverIdentityLookupFailureIsFatal(t *testing.T) {
	f := &internal.FakeHost{Rules: []*internal.ExecRule{
		internal.Rule("ifconfig.me", internal.RespErr(6, "could not resolve host")),
	}}
	p := testPipeline(f)

	_, err := p.discoverIdentity(context.Background())
	if err == nil {
		t.Errorf("expected error and got nil")
	}
	if !errors.Is(err, ErrConfig) {
		t.Errorf("expected config error and got %v", err)
	}
}

func TestInstallServerConfigActivatesExclusively(t *testing.T) {
	f := &internal.FakeHost{}
	p := testPipeline(f)

	err := p.installServerConfig(context.Background(), "server {}\n")
	if err != nil {
		t.Errorf("expected no errors and got err=%v", err.Error())
	}

	if len(f.Pushed) != 1 {
		t.Fatalf("expected one pushed config and got %d", len(f.Pushed))
	}
	if f.Pushed[0].RemotePath != "/tmp/webapp.conf.1700000000" {
		t.Errorf("expected staged config in /tmp and got %s", f.Pushed[0].RemotePath)
	}
	if string(f.Pushed[0].Content) != "server {}\n" {
		t.Errorf("pushed config differs from the rendered text")
	}

	install := f.IndexOf("mv '/tmp/webapp.conf.1700000000' '/etc/nginx/sites-available/webapp'")
	link := f.IndexOf("ln -sfn '/etc/nginx/sites-available/webapp' '/etc/nginx/sites-enabled/webapp'")
	unlinkDefault := f.IndexOf("rm -f '/etc/nginx/sites-enabled/default'")

	if install == -1 || link == -1 || unlinkDefault == -1 {
		t.Errorf("expected install, symlink and default removal, got %v", f.Commands)
	}
	if !(install < link && link < unlinkDefault) {
		t.Errorf("expected install before activation, got %v", f.Commands)
	}
}
