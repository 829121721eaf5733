package hostcheck

import (
	"context"
	"fmt"
	"strings"

	"github.com/teeutil/tee-host-setup/interfaces"
)

// Report is the outcome of one verification run. It is printed and discarded;
// nothing is persisted.
type Report struct {
	Vendor  interfaces.Vendor
	Results []interfaces.CheckResult

	// Cmdline is the raw kernel command line, echoed at the end of the
	// report for operator inspection.
	Cmdline string
}

// Verify classifies the CPU vendor once and runs the vendor-specific feature
// checks against the collector's sources. It returns
// interfaces.ErrUnknownVendor when the vendor cannot be classified; feature
// absence never produces an error, only warning-level results.
func Verify(ctx context.Context, collector interfaces.Collector) (*Report, error) {
	cpuinfo, err := collector.CPUInfo(ctx)
	if err != nil {
		return nil, err
	}

	vendor := ClassifyVendor(cpuinfo)
	if vendor == interfaces.VendorUnknown {
		return nil, interfaces.ErrUnknownVendor
	}

	kernelLog, err := collector.KernelLog(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{Vendor: vendor}

	switch vendor {
	case interfaces.VendorIntel:
		report.Results = append(report.Results, intelChecks(cpuinfo, kernelLog, collector)...)
	case interfaces.VendorAMD:
		report.Results = append(report.Results, amdChecks(cpuinfo, kernelLog, collector)...)
	}

	groups, err := collector.IOMMUGroupCount(ctx)
	if err != nil {
		return nil, err
	}
	report.Results = append(report.Results, iommuResult(groups))

	cmdline, err := collector.KernelCmdline(ctx)
	if err != nil {
		return nil, err
	}
	report.Cmdline = strings.TrimSpace(cmdline)

	return report, nil
}

func intelChecks(cpuinfo, kernelLog string, collector interfaces.Collector) []interfaces.CheckResult {
	results := []interfaces.CheckResult{
		flagResult("tdx-cpu-flag", "TDX", CPUFlagCount(cpuinfo, "tdx")),
		kernelLogResult("tdx-kernel-log", "TDX", ScanKernelLog(kernelLog, "tdx")),
	}

	guest := interfaces.CheckResult{Name: "tdx-guest-device", Status: interfaces.StatusOK}
	if collector.TEEGuestDevice() {
		guest.Detail = "TDX guest device available, running inside a trust domain"
	} else {
		guest.Detail = "TDX guest device not available (expected on the host)"
	}
	return append(results, guest)
}

func amdChecks(cpuinfo, kernelLog string, collector interfaces.Collector) []interfaces.CheckResult {
	results := []interfaces.CheckResult{
		flagResult("sev-cpu-flags", "SEV", CPUFlagCount(cpuinfo, "sev")),
		flagResult("sme-cpu-flag", "SME", CPUFlagCount(cpuinfo, "sme")),
		kernelLogResult("sev-kernel-log", "SEV", ScanKernelLog(kernelLog, "sev")),
	}

	device := interfaces.CheckResult{Name: "sev-device"}
	if collector.DevicePresent(SEVDevicePath) {
		device.Status = interfaces.StatusOK
		device.Detail = fmt.Sprintf("%s device node present", SEVDevicePath)
	} else {
		device.Status = interfaces.StatusWarn
		device.Detail = fmt.Sprintf("%s device node not found", SEVDevicePath)
	}
	return append(results, device)
}

func flagResult(name, feature string, count int) interfaces.CheckResult {
	if count == 0 {
		return interfaces.CheckResult{
			Name:   name,
			Status: interfaces.StatusWarn,
			Detail: fmt.Sprintf("%s CPU flags NOT found in %s", feature, CPUInfoPath),
		}
	}
	return interfaces.CheckResult{
		Name:   name,
		Status: interfaces.StatusOK,
		Count:  count,
		Detail: fmt.Sprintf("%s CPU flags present (%d)", feature, count),
	}
}

func kernelLogResult(name, feature string, scan KernelLogResult) interfaces.CheckResult {
	switch {
	case scan.Activated:
		return interfaces.CheckResult{
			Name:   name,
			Status: interfaces.StatusOK,
			Detail: fmt.Sprintf("%s initialized: %s", feature, scan.ActivationLine),
			Lines:  scan.Matches,
		}
	case len(scan.Matches) > 0:
		return interfaces.CheckResult{
			Name:   name,
			Status: interfaces.StatusWarn,
			Detail: fmt.Sprintf("%s kernel messages found but not confirmed initialized", feature),
			Lines:  scan.Matches,
		}
	default:
		return interfaces.CheckResult{
			Name:   name,
			Status: interfaces.StatusWarn,
			Detail: fmt.Sprintf("no %s kernel log messages", feature),
		}
	}
}

func iommuResult(groups int) interfaces.CheckResult {
	if groups == 0 {
		return interfaces.CheckResult{
			Name:   "iommu-groups",
			Status: interfaces.StatusWarn,
			Detail: "no IOMMU groups, IOMMU is not enabled",
		}
	}
	return interfaces.CheckResult{
		Name:   "iommu-groups",
		Status: interfaces.StatusOK,
		Count:  groups,
		Detail: fmt.Sprintf("IOMMU enabled with %d groups", groups),
	}
}
