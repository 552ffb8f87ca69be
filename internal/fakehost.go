package internal

import (
	"context"
	"io"
	"strings"

	"github.com/webship/target/types"
)

// ExecRule scripts the response for commands containing a substring.
// Responses are consumed in order across matches; the last one repeats.
type ExecRule struct {
	Contains  string
	Responses []types.Response
	Err       error

	calls int
}

func (r *ExecRule) next() types.Response {
	if len(r.Responses) == 0 {
		return Resp(0, "")
	}
	i := r.calls
	if i >= len(r.Responses) {
		i = len(r.Responses) - 1
	}
	r.calls++
	return r.Responses[i]
}

// Rule builds an ExecRule for a command substring.
func Rule(contains string, responses ...types.Response) *ExecRule {
	return &ExecRule{Contains: contains, Responses: responses}
}

// FakeHost implements target.Host by recording every call instead of
// mutating a real host. Unmatched commands succeed with empty output.
type FakeHost struct {
	Rules    []*ExecRule
	Commands []string
	Pushed   []types.File
	PushErr  error
	Closed   bool
}

func (f *FakeHost) RunCmd(_ context.Context, cmd string, _ io.Reader) (types.Response, error) {
	f.Commands = append(f.Commands, cmd)
	for _, r := range f.Rules {
		if strings.Contains(cmd, r.Contains) {
			return r.next(), r.Err
		}
	}
	return Resp(0, ""), nil
}

func (f *FakeHost) Push(_ context.Context, files []types.File) error {
	if f.PushErr != nil {
		return f.PushErr
	}
	f.Pushed = append(f.Pushed, files...)
	return nil
}

func (f *FakeHost) Close() error {
	f.Closed = true
	return nil
}

// CommandsContaining returns the recorded commands matching a substring.
func (f *FakeHost) CommandsContaining(substr string) []string {
	var out []string
	for _, c := range f.Commands {
		if strings.Contains(c, substr) {
			out = append(out, c)
		}
	}
	return out
}

// IndexOf returns the position of the first recorded command containing
// the substring, or -1.
func (f *FakeHost) IndexOf(substr string) int {
	for i, c := range f.Commands {
		if strings.Contains(c, substr) {
			return i
		}
	}
	return -1
}

// Resp builds a Response with the given exit status and stdout.
func Resp(status int, stdout string) types.Response {
	r := types.Response{ExitStatus: status}
	r.Stdout.WriteString(stdout)
	return r
}

// RespErr builds a failing Response carrying stderr output.
func RespErr(status int, stderr string) types.Response {
	r := types.Response{ExitStatus: status}
	r.Stderr.WriteString(stderr)
	return r
}
