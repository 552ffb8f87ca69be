package provision

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"text/template"

	"github.com/pkg/errors"
	"github.com/webship/target/types"
)

const (
	// addressLookupCmd asks the host for its externally visible address.
	// The single-line answer is trusted as-is; a failed or empty lookup
	// is a hard failure of the run, never a fallback identity.
	addressLookupCmd = "curl -fsS --max-time 10 https://ifconfig.me"

	sitesAvailable = "/etc/nginx/sites-available"
	sitesEnabled   = "/etc/nginx/sites-enabled"
)

// serverBlock is the fixed site template. Policy constants (gzip types,
// cache lifetime, security headers) are not operator-configurable.
const serverBlock = `server {
    listen 80;
    listen [::]:80;

    server_name {{.ServerName}} _;

    root {{.DocRoot}};
    index index.html;

    location / {
        try_files $uri $uri/ /index.html;
    }

    gzip on;
    gzip_min_length 256;
    gzip_types text/plain text/css text/javascript application/javascript application/json application/xml image/svg+xml;

    # add_header in a location discards inherited headers, so the
    # security set must be repeated next to the caching policy
    location ~* \.(js|css|png|jpg|jpeg|gif|ico|svg|woff|woff2)$ {
        expires 365d;
        add_header Cache-Control "public, immutable";
        add_header X-Frame-Options "SAMEORIGIN" always;
        add_header X-Content-Type-Options "nosniff" always;
        add_header X-XSS-Protection "1; mode=block" always;
    }

    add_header X-Frame-Options "SAMEORIGIN" always;
    add_header X-Content-Type-Options "nosniff" always;
    add_header X-XSS-Protection "1; mode=block" always;
}
`

var serverBlockTmpl = template.Must(template.New("server").Parse(serverBlock))

// RenderServerBlock renders the site config for the discovered host
// identity. The identity becomes the only accepted virtual-host name,
// next to the catch-all fallback.
func RenderServerBlock(identity string, tgt types.DeployTarget) (string, error) {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return "", step(ErrConfig, errors.New("empty server identity"))
	}

	var buf bytes.Buffer
	err := serverBlockTmpl.Execute(&buf, struct {
		ServerName string
		DocRoot    string
	}{
		ServerName: identity,
		DocRoot:    tgt.DocRoot,
	})
	if err != nil {
		return "", step(ErrConfig, errors.Wrap(err, "rendering server block"))
	}
	return buf.String(), nil
}

// discoverIdentity resolves the host's public address on the host itself.
func (p *Pipeline) discoverIdentity(ctx context.Context) (string, error) {
	res, err := p.mustRun(ctx, probeTimeout, ErrConfig, addressLookupCmd)
	if err != nil {
		return "", err
	}
	identity := res.Line()
	if identity == "" {
		return "", step(ErrConfig, errors.New("address lookup returned an empty response"))
	}
	p.out.Info("host public address is %s", identity)
	return identity, nil
}

// installServerConfig writes the rendered config to sites-available and
// makes it the single active site: the enabled symlink points only at
// this config and the default site is removed.
func (p *Pipeline) installServerConfig(ctx context.Context, rendered string) error {
	app := p.cfg.App.Name
	staged := fmt.Sprintf("/tmp/%s.conf.%d", app, p.now().Unix())
	available := path.Join(sitesAvailable, app)
	enabled := path.Join(sitesEnabled, app)

	pctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	err := p.host.Push(pctx, []types.File{
		{
			RemotePath: staged,
			Content:    []byte(rendered),
			Mode:       0644,
		},
	})
	if err != nil {
		return step(ErrConfig, err)
	}

	if _, err := p.mustRun(ctx, probeTimeout, ErrConfig, fmt.Sprintf("sudo mv %s %s", quote(staged), quote(available))); err != nil {
		return err
	}
	if _, err := p.mustRun(ctx, probeTimeout, ErrConfig, fmt.Sprintf("sudo ln -sfn %s %s", quote(available), quote(enabled))); err != nil {
		return err
	}
	if _, err := p.mustRun(ctx, probeTimeout, ErrConfig, fmt.Sprintf("sudo rm -f %s", quote(path.Join(sitesEnabled, "default")))); err != nil {
		return err
	}

	p.out.OK("site %s activated exclusively", app)
	return nil
}
