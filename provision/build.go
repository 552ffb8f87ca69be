package provision

import (
	"context"
	"fmt"
	"path"

	"github.com/webship/target/types"
)

const (
	// extraDependency is installed on top of the scaffold's declared deps.
	extraDependency = "react-router-dom"

	// stylesheetEntry is the skeleton's style entry point the fixed
	// stylesheet is injected into.
	stylesheetEntry = "src/App.css"

	// buildOutputDir is where the production build command leaves the
	// static files, relative to the workspace.
	buildOutputDir = "build"
)

// stylesheet is the fixed asset injected into every scaffolded app.
var stylesheet = []byte(`:root {
  --accent: #2563eb;
  --ink: #111827;
  --paper: #f9fafb;
}

body {
  margin: 0;
  color: var(--ink);
  background: var(--paper);
  font-family: -apple-system, "Segoe UI", Roboto, sans-serif;
  -webkit-font-smoothing: antialiased;
}

.App {
  max-width: 960px;
  margin: 0 auto;
  padding: 2rem 1rem;
  text-align: center;
}

.App a {
  color: var(--accent);
  text-decoration: none;
}

.App a:hover {
  text-decoration: underline;
}
`)

// build produces the deployable artifact inside the workspace. Steps run
// strictly in order and each must fully succeed before the next starts;
// there is no partial artifact reuse. An artifact is only trusted if the
// final build command completed.
func (p *Pipeline) build(ctx context.Context, workspace string) (types.BuildArtifact, error) {
	none := types.BuildArtifact{}
	ws := quote(workspace)

	p.out.Info("scaffolding application skeleton")
	if _, err := p.mustRun(ctx, buildTimeout, ErrBuild, fmt.Sprintf("cd %s && npx --yes create-react-app .", ws)); err != nil {
		return none, err
	}

	p.out.Info("installing dependencies")
	if _, err := p.mustRun(ctx, buildTimeout, ErrBuild, fmt.Sprintf("cd %s && npm install", ws)); err != nil {
		return none, err
	}
	if _, err := p.mustRun(ctx, buildTimeout, ErrBuild, fmt.Sprintf("cd %s && npm install %s", ws, extraDependency)); err != nil {
		return none, err
	}

	p.out.Info("injecting stylesheet")
	pctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	err := p.host.Push(pctx, []types.File{
		{
			RemotePath: path.Join(workspace, stylesheetEntry),
			Content:    stylesheet,
			Mode:       0644,
		},
	})
	if err != nil {
		return none, step(ErrBuild, err)
	}

	p.out.Info("running production build")
	if _, err := p.mustRun(ctx, buildTimeout, ErrBuild, fmt.Sprintf("cd %s && npm run build", ws)); err != nil {
		return none, err
	}

	artifact := types.BuildArtifact{
		SourceDir: workspace,
		OutputDir: path.Join(workspace, buildOutputDir),
		BuiltAt:   p.now().Unix(),
	}
	p.out.OK("artifact built at %s", artifact.OutputDir)
	return artifact, nil
}
