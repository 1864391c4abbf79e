package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const defaultExecTimeout = 60 * time.Second

// Compile-time interface check.
var _ Prober = (*ExecProber)(nil)

// ExecProber runs an external prober command and interprets its exit status
// and combined output.
type ExecProber struct {
	command []string
	timeout time.Duration
}

// NewExecProber returns an ExecProber for the given argv. A zero or negative
// timeout selects 60 seconds.
func NewExecProber(command []string, timeout time.Duration) (*ExecProber, error) {
	if len(command) == 0 || command[0] == "" {
		return nil, errors.New("probe: empty command")
	}
	if timeout <= 0 {
		timeout = defaultExecTimeout
	}
	return &ExecProber{command: command, timeout: timeout}, nil
}

// Probe runs the command once. Failure to start, a timeout, or an exit
// status other than ExitPresent/ExitAbsent yields OutcomeError.
func (p *ExecProber) Probe(ctx context.Context) Result {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, p.command[0], p.command[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = 2 * time.Second

	runErr := cmd.Run()
	out := strings.TrimSpace(stdout.String() + stderr.String())

	code := 0
	if runErr != nil {
		var exitErr *exec.ExitError
		if !errors.As(runErr, &exitErr) || ctx.Err() != nil {
			return errorResult(out, fmt.Errorf("probe: run %s: %w", p.command[0], runErr))
		}
		code = exitErr.ExitCode()
	}

	outcome := OutcomeFromExit(code)
	if outcome == OutcomeError {
		return errorResult(out, fmt.Errorf("probe: %s exited rc=%d: %s", p.command[0], code, out))
	}

	soc, in, outW := ParseOutput(out)
	return Result{
		Outcome:     outcome,
		Status:      outcome.String(),
		SOC:         soc,
		InputWatts:  in,
		OutputWatts: outW,
		Message:     out,
	}
}

func errorResult(out string, err error) Result {
	return Result{
		Outcome: OutcomeError,
		Status:  OutcomeError.String(),
		Message: out,
		Err:     err,
	}
}

// ErrorResult builds an OutcomeError result for err.
func ErrorResult(err error) Result {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return errorResult(msg, err)
}
