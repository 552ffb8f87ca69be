package provision

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/webship/target"
	"github.com/webship/ui"
)

// Authorization is the proof that the guard ran and the operator
// confirmed. Every mutating step is gated behind it; the zero value
// grants nothing.
type Authorization struct {
	confirmed bool
}

// Granted reports whether the run may mutate the host.
func (a Authorization) Granted() bool {
	return a.confirmed
}

// Authorize checks the execution identity on the target and asks the
// operator for an explicit go-ahead. It runs before any mutation and is
// all-or-nothing: a privileged identity, a declined prompt or any
// unrecognized input aborts with no side effects.
func Authorize(ctx context.Context, host target.Host, in io.Reader, out *ui.Printer) (Authorization, error) {
	cctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	res, err := host.RunCmd(cctx, "id -u", bytes.NewBufferString(""))
	if err != nil {
		return Authorization{}, step(ErrPrecondition, err)
	}
	if !res.Success() {
		return Authorization{}, step(ErrPrecondition, errors.Errorf("could not determine remote identity: %s", res.Stderr.String()))
	}
	if res.Line() == "0" {
		return Authorization{}, step(ErrPrecondition, errors.New("refusing to run as root; connect as an unprivileged user with sudo"))
	}

	out.Info("connected as uid %s", res.Line())
	out.Prompt("this run will mutate the host. continue? [y/n] ")

	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return Authorization{}, step(ErrPrecondition, errors.Wrap(err, "stdin error"))
	}

	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return Authorization{confirmed: true}, nil
	case "n", "no":
		return Authorization{}, step(ErrPrecondition, errors.New("declined by operator"))
	default:
		return Authorization{}, step(ErrPrecondition, errors.New("unrecognized confirmation input"))
	}
}
