package convert

import (
	"context"
	"os/exec"

	"github.com/pkg/errors"
)

// Runner is the narrow capability adapters use to invoke external tools, so
// they stay testable without spawning real processes.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	LookPath(name string) bool
}

type execRunner struct{}

// NewExecRunner returns a Runner backed by os/exec. The caller's context
// bounds the wall-clock time of each invocation.
func NewExecRunner() Runner {
	return execRunner{}
}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return output, errors.Wrapf(ctxErr, "%s timed out", name)
		}
		return output, errors.Wrapf(err, "%s failed: %s", name, string(output))
	}
	return output, nil
}

func (execRunner) LookPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
