package provision

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/webship/target/types"
)

// DefaultCapabilities is the ordered list of prerequisites for a static
// web deploy: the build runtime, the web server and the version control
// tool the scaffolder depends on.
func DefaultCapabilities() []types.Capability {
	return []types.Capability{
		{
			Name:       "node runtime",
			Binary:     "node",
			VersionCmd: "node --version",
			Packages:   []string{"nodejs", "npm"},
		},
		{
			Name:       "nginx web server",
			Binary:     "nginx",
			VersionCmd: "nginx -v 2>&1",
			Packages:   []string{"nginx"},
			Service:    "nginx",
		},
		{
			Name:       "git",
			Binary:     "git",
			VersionCmd: "git --version",
			Packages:   []string{"git"},
		},
	}
}

// Probe checks whether the capability's binary exists on the target.
// It never mutates the target; a missing binary is not an error.
func (p *Pipeline) Probe(ctx context.Context, capability types.Capability) (bool, string, error) {
	res, err := p.runCmd(ctx, probeTimeout, fmt.Sprintf("command -v %s", capability.Binary))
	if err != nil {
		return false, "", errors.Wrapf(err, "could not probe for %s", capability.Name)
	}
	if !res.Success() {
		return false, "", nil
	}

	version := "version unknown"
	if capability.VersionCmd != "" {
		if vres, verr := p.runCmd(ctx, probeTimeout, capability.VersionCmd); verr == nil && vres.Success() {
			version = vres.Line()
		}
	}
	return true, version, nil
}

// ensure makes the capability present: satisfied when the probe already
// reports present, enforced after a package install followed by service
// bring-up and a re-probe. Package manager transient errors are common,
// so a failed install is retried once before aborting.
func (p *Pipeline) ensure(ctx context.Context, capability types.Capability) (types.StatusCode, error) {
	present, version, err := p.Probe(ctx, capability)
	if err != nil {
		return types.StatusFailed, step(ErrInstall, err)
	}
	if present {
		p.out.OK("%s already installed (%s)", capability.Name, version)
		return types.StatusSatisfied, nil
	}

	p.out.Info("%s absent, installing %s", capability.Name, strings.Join(capability.Packages, " "))

	if !p.aptUpdated {
		if _, err := p.mustRun(ctx, aptTimeout, ErrInstall, "sudo apt-get update"); err != nil {
			return types.StatusFailed, err
		}
		p.aptUpdated = true
	}

	install := fmt.Sprintf("sudo DEBIAN_FRONTEND=noninteractive apt-get install -y %s", strings.Join(capability.Packages, " "))
	if _, err := p.mustRun(ctx, aptTimeout, ErrInstall, install); err != nil {
		p.out.Warn("install of %s failed, retrying once", capability.Name)
		if _, err := p.mustRun(ctx, aptTimeout, ErrInstall, install); err != nil {
			return types.StatusFailed, err
		}
	}

	if capability.Managed() {
		if _, err := p.mustRun(ctx, serviceTimeout, ErrInstall, fmt.Sprintf("sudo systemctl start %s", capability.Service)); err != nil {
			return types.StatusFailed, err
		}
		if _, err := p.mustRun(ctx, serviceTimeout, ErrInstall, fmt.Sprintf("sudo systemctl enable %s", capability.Service)); err != nil {
			return types.StatusFailed, err
		}
	}

	// the install only counts once the capability probes present again
	present, version, err = p.Probe(ctx, capability)
	if err != nil {
		return types.StatusFailed, step(ErrInstall, err)
	}
	if !present {
		return types.StatusFailed, step(ErrInstall, errors.Errorf("%s still absent after install", capability.Name))
	}

	p.out.OK("%s installed (%s)", capability.Name, version)
	return types.StatusEnforced, nil
}
