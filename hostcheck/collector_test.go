package hostcheck

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedRunner struct {
	output string
	calls  [][]string
}

func (r *scriptedRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	return []byte(r.output), nil
}

func TestSystemCollectorReadsFixtureTree(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(base, "proc"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, CPUInfoPath), []byte(intelCPUInfo), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(base, CmdlinePath), []byte("root=/dev/sda1\n"), 0o644))

	runner := &scriptedRunner{output: "[  1.0] tdx: module initialized\n"}
	collector := NewSystemCollector(runner)
	collector.base = base

	cpuinfo, err := collector.CPUInfo(context.Background())
	require.NoError(t, err)
	assert.Contains(t, cpuinfo, "GenuineIntel")

	cmdline, err := collector.KernelCmdline(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "root=/dev/sda1\n", cmdline)

	kernelLog, err := collector.KernelLog(context.Background())
	require.NoError(t, err)
	assert.Contains(t, kernelLog, "tdx")
	require.Len(t, runner.calls, 1, "the kernel log should come from one dmesg invocation")
	assert.Equal(t, []string{"dmesg"}, runner.calls[0])

	assert.False(t, collector.DevicePresent(SEVDevicePath), "no /dev/sev in the fixture tree")
}
