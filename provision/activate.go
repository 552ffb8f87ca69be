package provision

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// activate syntax-checks the rendered config and restarts the web
// server. The restart is gated strictly behind the check: a bad render
// must never take down a working server, so on a failed check the
// previously running configuration stays untouched.
func (p *Pipeline) activate(ctx context.Context) error {
	res, err := p.runCmd(ctx, serviceTimeout, "sudo nginx -t")
	if err != nil {
		return step(ErrConfig, err)
	}
	if !res.Success() {
		return step(ErrConfig, errors.Errorf("config syntax check failed, web server left untouched: %s", strings.TrimSpace(res.Stderr.String())))
	}

	// service failures belong to the install taxonomy
	if _, err := p.mustRun(ctx, serviceTimeout, ErrInstall, "sudo systemctl restart nginx"); err != nil {
		return err
	}

	p.out.OK("web server restarted with the new config")
	return nil
}
