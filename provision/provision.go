// Package provision orchestrates a one-shot provisioning and deployment
// run against a single remote host: probe and install missing
// capabilities, prepare a backed-up workspace, build the app, swap the
// artifact into the web server's document root and activate a freshly
// rendered server config.
package provision

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/webship/target"
	"github.com/webship/target/types"
	"github.com/webship/ui"
)

// Per-command deadlines. Probes are quick existence checks; package
// manager and build commands legitimately take minutes on a fresh host.
const (
	probeTimeout   = 30 * time.Second
	serviceTimeout = 2 * time.Minute
	aptTimeout     = 20 * time.Minute
	buildTimeout   = 20 * time.Minute
	deployTimeout  = 5 * time.Minute
)

// Pipeline runs the provisioning steps strictly in sequence. Any failing
// external command aborts the whole run; no step catches and continues.
type Pipeline struct {
	host target.Host
	cfg  types.Config
	out  *ui.Printer

	now func() time.Time

	// apt-get update runs at most once per run, shared by all installs
	aptUpdated bool

	home string
}

func New(host target.Host, cfg types.Config, out *ui.Printer) *Pipeline {
	return &Pipeline{
		host: host,
		cfg:  cfg,
		out:  out,
		now:  time.Now,
	}
}

// Run executes the full pipeline. It refuses to do anything without a
// granted Authorization from the guard.
func (p *Pipeline) Run(ctx context.Context, auth Authorization) error {
	if !auth.Granted() {
		return step(ErrPrecondition, errors.New("run is not authorized"))
	}

	p.out.Step("ensuring host capabilities")
	enforced := 0
	for _, capability := range DefaultCapabilities() {
		status, err := p.ensure(ctx, capability)
		if err != nil {
			return err
		}
		if status == types.StatusEnforced {
			enforced++
		}
	}
	if enforced == 0 {
		p.out.Info("all capabilities already present")
	} else {
		p.out.Info("installed %d missing capabilities", enforced)
	}

	p.out.Step("preparing workspace")
	workspace, err := p.prepareWorkspace(ctx)
	if err != nil {
		return err
	}

	p.out.Step("building %s", p.cfg.App.Name)
	artifact, err := p.build(ctx, workspace)
	if err != nil {
		return err
	}

	deployTarget := DefaultTarget()

	p.out.Step("deploying artifact to %s", deployTarget.DocRoot)
	if err := p.deploy(ctx, artifact, deployTarget); err != nil {
		return err
	}

	p.out.Step("rendering server config")
	identity, err := p.discoverIdentity(ctx)
	if err != nil {
		return err
	}
	rendered, err := RenderServerBlock(identity, deployTarget)
	if err != nil {
		return err
	}
	if err := p.installServerConfig(ctx, rendered); err != nil {
		return err
	}

	p.out.Step("validating and restarting web server")
	if err := p.activate(ctx); err != nil {
		return err
	}

	p.out.OK("%s is live at http://%s/", p.cfg.App.Name, identity)
	return nil
}

// runCmd issues a single remote command under its own deadline.
func (p *Pipeline) runCmd(ctx context.Context, timeout time.Duration, cmd string) (types.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.host.RunCmd(ctx, cmd, bytes.NewBufferString(""))
}

// mustRun runs a remote command and converts transport errors and
// non-zero exits into a StepError of the given kind.
func (p *Pipeline) mustRun(ctx context.Context, timeout time.Duration, kind error, cmd string) (types.Response, error) {
	res, err := p.runCmd(ctx, timeout, cmd)
	if err != nil {
		return res, step(kind, err)
	}
	if !res.Success() {
		detail := strings.TrimSpace(res.Stderr.String())
		if detail == "" {
			detail = strings.TrimSpace(res.Stdout.String())
		}
		return res, step(kind, errors.Errorf("command exited %d: %s: %s", res.ExitStatus, cmd, detail))
	}
	return res, nil
}

// homeDir resolves and caches the remote user's home directory. SFTP
// pushes need absolute paths, so ~ is never used in commands.
func (p *Pipeline) homeDir(ctx context.Context) (string, error) {
	if p.home != "" {
		return p.home, nil
	}
	res, err := p.mustRun(ctx, probeTimeout, ErrBuild, `printf '%s' "$HOME"`)
	if err != nil {
		return "", err
	}
	home := res.Line()
	if home == "" {
		return "", step(ErrBuild, errors.New("could not resolve remote home directory"))
	}
	p.home = home
	return home, nil
}

// quote wraps a path for safe interpolation into a remote shell command.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
