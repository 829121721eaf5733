// Package interfaces defines the core types and contracts shared by the
// host-setup components without implementation details.
package interfaces

import (
	"context"
	"errors"
)

// ErrUnknownVendor is returned when the processor information matches neither
// the Intel nor the AMD vendor marker. Configuration and verification halt on
// this error.
var ErrUnknownVendor = errors.New("unsupported or unknown CPU vendor")

// Vendor classifies the host CPU manufacturer. Exactly one value holds per
// run; call sites switch exhaustively so new vendors can be added without
// touching classification.
type Vendor int

const (
	VendorUnknown Vendor = iota
	VendorIntel
	VendorAMD
)

// String returns the human-readable vendor name.
func (v Vendor) String() string {
	switch v {
	case VendorIntel:
		return "Intel"
	case VendorAMD:
		return "AMD"
	default:
		return "Unknown"
	}
}

// CheckStatus is the severity of a single verification result. Feature
// absence is a warning, never a failure of the tool itself.
type CheckStatus int

const (
	StatusOK CheckStatus = iota
	StatusWarn
)

// CheckResult is one entry of the flat verification report. Results are
// independent of each other; no aggregation invariant links them.
type CheckResult struct {
	// Name identifies the check, e.g. "tdx-cpu-flag" or "iommu-groups".
	Name string

	// Status is OK for detected/positive outcomes and Warn for absence.
	Status CheckStatus

	// Detail is a one-line human-readable summary.
	Detail string

	// Count carries the numeric result for counting checks (flag counts,
	// IOMMU groups). Zero when not applicable.
	Count int

	// Lines holds matched kernel log lines for log-derived checks.
	Lines []string
}

// Runner executes an external command and returns its combined output.
// Implementations must honor context cancellation. Tests substitute fakes to
// record invocations without touching the system.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Collector abstracts the kernel-exposed text sources consulted during
// verification, so checks can run against recorded fixtures in tests.
type Collector interface {
	// CPUInfo returns the contents of /proc/cpuinfo.
	CPUInfo(ctx context.Context) (string, error)

	// KernelLog returns the kernel ring buffer contents.
	KernelLog(ctx context.Context) (string, error)

	// KernelCmdline returns the contents of /proc/cmdline.
	KernelCmdline(ctx context.Context) (string, error)

	// IOMMUGroupCount returns the number of entries under the IOMMU
	// groups directory. Zero means IOMMU grouping is not active.
	IOMMUGroupCount(ctx context.Context) (int, error)

	// DevicePresent reports whether a device node exists.
	DevicePresent(path string) bool

	// TEEGuestDevice reports whether a TEE guest driver is usable from
	// this process, indicating execution inside a confidential VM.
	TEEGuestDevice() bool
}
