package hostcheck

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teeutil/tee-host-setup/interfaces"
)

// fakeCollector serves recorded source contents instead of the live system.
type fakeCollector struct {
	cpuinfo     string
	kernelLog   string
	cmdline     string
	iommuGroups int
	devices     map[string]bool
	guestDevice bool
}

func (f *fakeCollector) CPUInfo(context.Context) (string, error)       { return f.cpuinfo, nil }
func (f *fakeCollector) KernelLog(context.Context) (string, error)     { return f.kernelLog, nil }
func (f *fakeCollector) KernelCmdline(context.Context) (string, error) { return f.cmdline, nil }
func (f *fakeCollector) IOMMUGroupCount(context.Context) (int, error)  { return f.iommuGroups, nil }
func (f *fakeCollector) DevicePresent(path string) bool                { return f.devices[path] }
func (f *fakeCollector) TEEGuestDevice() bool                          { return f.guestDevice }

func resultByName(t *testing.T, report *Report, name string) interfaces.CheckResult {
	t.Helper()
	for _, result := range report.Results {
		if result.Name == name {
			return result
		}
	}
	t.Fatalf("report has no %q result", name)
	return interfaces.CheckResult{}
}

func TestVerifyIntelActivated(t *testing.T) {
	collector := &fakeCollector{
		cpuinfo:     intelCPUInfo,
		kernelLog:   "[    3.2] tdx: module initialized\n",
		cmdline:     "BOOT_IMAGE=/vmlinuz root=/dev/sda1 kvm_intel.tdx=on\n",
		iommuGroups: 12,
	}

	report, err := Verify(context.Background(), collector)
	require.NoError(t, err, "Verify should succeed on a healthy Intel host")
	assert.Equal(t, interfaces.VendorIntel, report.Vendor)

	flag := resultByName(t, report, "tdx-cpu-flag")
	assert.Equal(t, interfaces.StatusOK, flag.Status, "tdx flag should be detected")

	log := resultByName(t, report, "tdx-kernel-log")
	assert.Equal(t, interfaces.StatusOK, log.Status, "tdx should be confirmed initialized")
	assert.Contains(t, log.Detail, "module initialized", "the activating log line should be part of the detail")

	iommu := resultByName(t, report, "iommu-groups")
	assert.Equal(t, interfaces.StatusOK, iommu.Status)
	assert.Equal(t, 12, iommu.Count, "IOMMU group count should be reported verbatim")

	assert.Equal(t, "BOOT_IMAGE=/vmlinuz root=/dev/sda1 kvm_intel.tdx=on", report.Cmdline, "raw cmdline should be echoed trimmed")
}

func TestVerifyAMDNothingDetected(t *testing.T) {
	collector := &fakeCollector{
		cpuinfo:   "processor\t: 0\nvendor_id\t: AuthenticAMD\nflags\t\t: fpu vme de pse\n",
		kernelLog: "[    0.1] Linux version 6.8.0\n",
		cmdline:   "BOOT_IMAGE=/vmlinuz\n",
	}

	report, err := Verify(context.Background(), collector)
	require.NoError(t, err, "absent features must not fail verification")
	assert.Equal(t, interfaces.VendorAMD, report.Vendor)

	for _, name := range []string{"sev-cpu-flags", "sme-cpu-flag", "sev-kernel-log", "sev-device", "iommu-groups"} {
		result := resultByName(t, report, name)
		assert.Equal(t, interfaces.StatusWarn, result.Status, "%s should be a warning when absent", name)
	}
}

func TestVerifyAMDDevicePresent(t *testing.T) {
	collector := &fakeCollector{
		cpuinfo:     amdCPUInfo,
		kernelLog:   "[    1.5] SEV-SNP API: 1.55 build 21\n",
		cmdline:     "BOOT_IMAGE=/vmlinuz mem_encrypt=on\n",
		iommuGroups: 4,
		devices:     map[string]bool{SEVDevicePath: true},
	}

	report, err := Verify(context.Background(), collector)
	require.NoError(t, err)

	assert.Equal(t, 3, resultByName(t, report, "sev-cpu-flags").Count, "three sev flag variants expected")
	assert.Equal(t, interfaces.StatusOK, resultByName(t, report, "sev-device").Status, "/dev/sev should be reported present")
	assert.Equal(t, interfaces.StatusOK, resultByName(t, report, "sev-kernel-log").Status, "API marker should confirm activation")
}

func TestVerifyUnknownVendor(t *testing.T) {
	collector := &fakeCollector{cpuinfo: "vendor_id : NotACPU\n"}

	_, err := Verify(context.Background(), collector)
	require.ErrorIs(t, err, interfaces.ErrUnknownVendor, "unknown vendor must abort verification")
}

func TestCountIOMMUGroups(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 12; i++ {
		require.NoError(t, os.Mkdir(filepath.Join(dir, strconv.Itoa(i)), 0o755))
	}

	count, err := CountIOMMUGroups(dir)
	require.NoError(t, err)
	assert.Equal(t, 12, count, "count should equal the number of directory entries")

	count, err = CountIOMMUGroups(filepath.Join(dir, "does-not-exist"))
	require.NoError(t, err, "a missing groups directory is not an error")
	assert.Zero(t, count, "missing directory means zero groups")
}
