package common

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ExecRunner runs external commands through os/exec. It implements
// interfaces.Runner and is the only Runner used outside of tests.
type ExecRunner struct{}

// Run executes the named command and returns its combined output. A non-zero
// exit status is returned as an error that includes the trailing output, so
// callers surface the tool's own diagnostics without extra plumbing.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return out, fmt.Errorf("%s %s: %w (%s)", name, strings.Join(args, " "), err, lastLine(out))
	}
	return out, nil
}

func lastLine(out []byte) string {
	trimmed := strings.TrimSpace(string(out))
	if idx := strings.LastIndexByte(trimmed, '\n'); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}
