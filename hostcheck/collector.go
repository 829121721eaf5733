package hostcheck

import (
	"context"
	"fmt"
	"os"

	"github.com/google/go-tdx-guest/client"
	"github.com/teeutil/tee-host-setup/interfaces"
)

// Kernel-exposed sources consulted at verification time. The paths must match
// exactly for compatibility with existing tooling that parses the report.
const (
	CPUInfoPath    = "/proc/cpuinfo"
	CmdlinePath    = "/proc/cmdline"
	IOMMUGroupsDir = "/sys/kernel/iommu_groups"
	SEVDevicePath  = "/dev/sev"
)

// SystemCollector reads the live kernel sources. The ring buffer is read by
// shelling out to dmesg through the provided runner.
type SystemCollector struct {
	runner interfaces.Runner

	// base is prepended to all paths; empty in production, a fixture
	// directory in tests.
	base string
}

// NewSystemCollector creates a collector that reads the real system paths.
func NewSystemCollector(runner interfaces.Runner) *SystemCollector {
	return &SystemCollector{runner: runner}
}

// CPUInfo returns the contents of /proc/cpuinfo.
func (c *SystemCollector) CPUInfo(ctx context.Context) (string, error) {
	return c.readFile(CPUInfoPath)
}

// KernelLog returns the kernel ring buffer via dmesg.
func (c *SystemCollector) KernelLog(ctx context.Context) (string, error) {
	out, err := c.runner.Run(ctx, "dmesg")
	if err != nil {
		return "", fmt.Errorf("failed to read kernel log: %w", err)
	}
	return string(out), nil
}

// KernelCmdline returns the contents of /proc/cmdline.
func (c *SystemCollector) KernelCmdline(ctx context.Context) (string, error) {
	return c.readFile(CmdlinePath)
}

// IOMMUGroupCount counts the entries of the IOMMU groups directory, one
// symbolic link per group. A missing directory counts as zero groups.
func (c *SystemCollector) IOMMUGroupCount(ctx context.Context) (int, error) {
	return CountIOMMUGroups(c.base + IOMMUGroupsDir)
}

// DevicePresent reports whether the device node exists.
func (c *SystemCollector) DevicePresent(path string) bool {
	_, err := os.Stat(c.base + path)
	return err == nil
}

// TEEGuestDevice reports whether a TDX quote source is usable, indicating
// this process runs inside a trust domain rather than on the host. The
// configfs provider is preferred; older kernels expose the guest device
// directly.
func (c *SystemCollector) TEEGuestDevice() bool {
	qp := &client.LinuxConfigFsQuoteProvider{}
	if qp.IsSupported() == nil {
		return true
	}

	device, err := client.OpenDevice()
	if err != nil {
		return false
	}
	device.Close()
	return true
}

func (c *SystemCollector) readFile(path string) (string, error) {
	data, err := os.ReadFile(c.base + path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// CountIOMMUGroups returns the number of entries under dir. Zero entries (or
// a missing directory) implies IOMMU grouping is not active.
func CountIOMMUGroups(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to list IOMMU groups: %w", err)
	}
	return len(entries), nil
}
