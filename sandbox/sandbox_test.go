package sandbox

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingRunner captures command invocations and answers them from a
// scripted error map keyed by the joined command line.
type recordingRunner struct {
	calls    []string
	failures map[string]error
}

func (r *recordingRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	cmdline := strings.Join(append([]string{name}, args...), " ")
	r.calls = append(r.calls, cmdline)
	if err, ok := r.failures[cmdline]; ok {
		return nil, err
	}
	return nil, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProvisionFreshContainer(t *testing.T) {
	runner := &recordingRunner{failures: map[string]error{
		"lxc info tee-setup": errors.New("not found"), // container does not exist yet
	}}
	sb := New("", "", runner, discardLogger())

	require.NoError(t, sb.Provision(context.Background()))

	assert.Equal(t, []string{
		"lxc info tee-setup",
		"lxc launch images:ubuntu/22.04 tee-setup",
		"lxc exec tee-setup -- cloud-init status --wait",
		"lxc exec tee-setup -- apt-get update",
		"lxc exec tee-setup -- apt-get install -y ansible",
		"lxc exec tee-setup -- ansible-galaxy collection install dellemc.openmanage",
	}, runner.calls, "provisioning must run the full sequence in order")
}

func TestProvisionRecreatesExistingContainer(t *testing.T) {
	runner := &recordingRunner{}
	sb := New("custom", "images:debian/12", runner, discardLogger())

	require.NoError(t, sb.Provision(context.Background()))

	assert.Equal(t, "lxc info custom", runner.calls[0])
	assert.Equal(t, "lxc delete --force custom", runner.calls[1], "an existing container must be destroyed first")
	assert.Equal(t, "lxc launch images:debian/12 custom", runner.calls[2])
}

func TestProvisionAbortsOnFirstFailure(t *testing.T) {
	launchErr := errors.New("image not found")
	runner := &recordingRunner{failures: map[string]error{
		"lxc info tee-setup":                       errors.New("not found"),
		"lxc launch images:ubuntu/22.04 tee-setup": launchErr,
	}}
	sb := New("", "", runner, discardLogger())

	err := sb.Provision(context.Background())
	require.ErrorIs(t, err, launchErr, "the launch failure should surface")
	assert.Len(t, runner.calls, 2, "no further commands may run after a failure")
}
