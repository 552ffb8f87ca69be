package provision

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/webship/target"
	"github.com/webship/target/types"
	"github.com/webship/ui"
)

// minFreeKiB is the free space on / below which doctor warns (2 GiB).
const minFreeKiB = 2 * 1024 * 1024

type check struct {
	name string
	cmd  string
	eval func(types.Response) error
}

// Doctor runs non-mutating preflight checks against the target and
// reports each with an OK/WARN marker. Warnings do not fail the command;
// only an unreachable host does.
func Doctor(ctx context.Context, host target.Host, out *ui.Printer) error {
	checks := []check{
		{
			name: "unprivileged login",
			cmd:  "id -u",
			eval: func(res types.Response) error {
				if !res.Success() {
					return errors.New("could not determine identity")
				}
				if res.Line() == "0" {
					return errors.New("logged in as root")
				}
				return nil
			},
		},
		{
			name: "passwordless sudo",
			cmd:  "sudo -n true",
			eval: expectSuccess("sudo requires a password or is missing"),
		},
		{
			name: "apt available",
			cmd:  "command -v apt-get",
			eval: expectSuccess("apt-get not found"),
		},
		{
			name: "systemd available",
			cmd:  "command -v systemctl",
			eval: expectSuccess("systemctl not found"),
		},
		{
			name: "disk space on /",
			cmd:  `df -Pk / | awk 'NR==2 {print $4}'`,
			eval: func(res types.Response) error {
				free, err := strconv.ParseUint(res.Line(), 10, 64)
				if err != nil {
					return errors.Errorf("unreadable df output: %q", res.Line())
				}
				if free < minFreeKiB {
					return errors.Errorf("only %d KiB free", free)
				}
				return nil
			},
		},
		{
			name: "port 80",
			cmd:  "ss -ltn",
			eval: func(res types.Response) error {
				// the local-address column may be the last field on a
				// line, so match per field rather than on raw spacing
				for _, line := range strings.Split(res.Stdout.String(), "\n") {
					for _, field := range strings.Fields(line) {
						if strings.HasSuffix(field, ":80") {
							return errors.New("something already listens on port 80")
						}
					}
				}
				return nil
			},
		},
	}

	for _, c := range checks {
		cctx, cancel := context.WithTimeout(ctx, probeTimeout)
		res, err := host.RunCmd(cctx, c.cmd, bytes.NewBufferString(""))
		cancel()
		if err != nil {
			out.Fail("%s: %v", c.name, err)
			return errors.Wrap(err, "host unreachable")
		}
		if cerr := c.eval(res); cerr != nil {
			out.Warn("%s: %v", c.name, cerr)
		} else {
			out.OK("%s", c.name)
		}
	}
	return nil
}

func expectSuccess(msg string) func(types.Response) error {
	return func(res types.Response) error {
		if !res.Success() {
			return errors.New(msg)
		}
		return nil
	}
}
