package provision

import (
	"context"
	"fmt"

	"github.com/webship/target/types"
)

// DefaultTarget is the nginx document root on Ubuntu and the server's
// runtime user. Ownership and permissions are reset on every deploy
// whether or not the root changed.
func DefaultTarget() types.DeployTarget {
	return types.DeployTarget{
		DocRoot: "/var/www/html",
		Owner:   "www-data",
		Mode:    "u=rwX,go=rX",
	}
}

// deploy replaces the document root with the artifact. The artifact is
// copied into a staging directory next to the root and swapped in with
// renames, so the server never observes an empty or half-copied root.
// The displaced root is removed only after the swap succeeded.
func (p *Pipeline) deploy(ctx context.Context, artifact types.BuildArtifact, tgt types.DeployTarget) error {
	ts := p.now().Unix()
	staging := fmt.Sprintf("%s.staging.%d", tgt.DocRoot, ts)
	displaced := fmt.Sprintf("%s.old.%d", tgt.DocRoot, ts)

	if _, err := p.mustRun(ctx, deployTimeout, ErrDeploy, fmt.Sprintf("sudo mkdir -p %s", quote(staging))); err != nil {
		return err
	}
	if _, err := p.mustRun(ctx, deployTimeout, ErrDeploy, fmt.Sprintf("sudo cp -a %s/. %s/", quote(artifact.OutputDir), quote(staging))); err != nil {
		return err
	}
	if _, err := p.mustRun(ctx, deployTimeout, ErrDeploy, fmt.Sprintf("sudo chown -R %s:%s %s", tgt.Owner, tgt.Owner, quote(staging))); err != nil {
		return err
	}
	if _, err := p.mustRun(ctx, deployTimeout, ErrDeploy, fmt.Sprintf("sudo chmod -R %s %s", tgt.Mode, quote(staging))); err != nil {
		return err
	}

	res, err := p.runCmd(ctx, probeTimeout, fmt.Sprintf("sudo test -d %s", quote(tgt.DocRoot)))
	if err != nil {
		return step(ErrDeploy, err)
	}
	hadRoot := res.Success()

	if hadRoot {
		if _, err := p.mustRun(ctx, deployTimeout, ErrDeploy, fmt.Sprintf("sudo mv %s %s", quote(tgt.DocRoot), quote(displaced))); err != nil {
			return err
		}
	}

	if _, err := p.mustRun(ctx, deployTimeout, ErrDeploy, fmt.Sprintf("sudo mv %s %s", quote(staging), quote(tgt.DocRoot))); err != nil {
		if hadRoot {
			// best effort: put the previous root back so the server
			// keeps serving something
			_, _ = p.runCmd(ctx, deployTimeout, fmt.Sprintf("sudo mv %s %s", quote(displaced), quote(tgt.DocRoot)))
		}
		return err
	}

	if hadRoot {
		if _, err := p.mustRun(ctx, deployTimeout, ErrDeploy, fmt.Sprintf("sudo rm -rf %s", quote(displaced))); err != nil {
			return err
		}
	}

	p.out.OK("document root replaced, owned by %s", tgt.Owner)
	return nil
}
