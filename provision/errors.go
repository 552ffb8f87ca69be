package provision

import "github.com/pkg/errors"

// Step kinds. Every failure of a run is tagged with exactly one of these
// so callers can tell a safe abort (config rejected before restart) from
// a dangerous one (deploy interrupted).
var (
	ErrPrecondition = errors.New("precondition failed")
	ErrInstall      = errors.New("install failed")
	ErrBuild        = errors.New("build failed")
	ErrDeploy       = errors.New("deploy failed")
	ErrConfig       = errors.New("config failed")
)

// StepError tags an underlying error with the pipeline step kind it
// belongs to. errors.Is(err, ErrInstall) matches through it.
type StepError struct {
	Kind error
	Err  error
}

func (e *StepError) Error() string {
	return e.Kind.Error() + ": " + e.Err.Error()
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func (e *StepError) Is(target error) bool {
	return target == e.Kind
}

func step(kind error, err error) error {
	if err == nil {
		return nil
	}
	return &StepError{Kind: kind, Err: err}
}
