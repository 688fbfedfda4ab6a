package ilspy

import (
	"bytes"
	"context"
	"os/exec"

	"github.com/publicrust/DotnetDllParser/errors"
)

// Runner executes one engine command and returns its captured output.
// A non-zero exit is reported as an error alongside whatever was captured.
type Runner interface {
	Run(ctx context.Context, argv []string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands as child processes
type ExecRunner struct{}

// Run implements Runner
func (ExecRunner) Run(ctx context.Context, argv []string) ([]byte, []byte, error) {
	if len(argv) == 0 {
		return nil, nil, errors.New("empty command")
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil && ctx.Err() != nil {
		err = errors.Wrap(ctx.Err(), err.Error())
	}
	return stdout.Bytes(), stderr.Bytes(), err
}
