package provision

import (
	"context"
	"fmt"
	"path"
)

// prepareWorkspace returns a fresh, empty workspace directory for the
// app under the remote user's home. An existing workspace is renamed to
// <path>.backup.<unix-ts> first; prior content is never deleted so the
// operator can recover from it.
func (p *Pipeline) prepareWorkspace(ctx context.Context) (string, error) {
	home, err := p.homeDir(ctx)
	if err != nil {
		return "", err
	}
	workspace := path.Join(home, p.cfg.App.Name)

	res, err := p.runCmd(ctx, probeTimeout, fmt.Sprintf("test -d %s", quote(workspace)))
	if err != nil {
		return "", step(ErrBuild, err)
	}

	if res.Success() {
		backup := fmt.Sprintf("%s.backup.%d", workspace, p.now().Unix())
		if _, err := p.mustRun(ctx, probeTimeout, ErrBuild, fmt.Sprintf("mv %s %s", quote(workspace), quote(backup))); err != nil {
			return "", err
		}
		p.out.Info("existing workspace backed up to %s", backup)
	}

	if _, err := p.mustRun(ctx, probeTimeout, ErrBuild, fmt.Sprintf("mkdir -p %s", quote(workspace))); err != nil {
		return "", err
	}

	p.out.OK("workspace ready at %s", workspace)
	return workspace, nil
}
