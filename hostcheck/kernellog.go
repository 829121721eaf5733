package hostcheck

import "strings"

// activationMarkers are the substrings that indicate a feature reported in
// the kernel log is actually active, not merely mentioned.
var activationMarkers = []string{"initialized", "enabled", "api", "active"}

// KernelLogResult holds the outcome of scanning the kernel ring buffer for a
// single feature.
type KernelLogResult struct {
	// Feature is the marker that was searched for, e.g. "tdx" or "sev".
	Feature string

	// Matches are the log lines mentioning the feature, in log order.
	Matches []string

	// Activated is true when at least one matching line also carries an
	// activation marker.
	Activated bool

	// ActivationLine is the first matching line with an activation marker,
	// empty when Activated is false.
	ActivationLine string
}

// ScanKernelLog collects the kernel log lines that mention the feature marker
// (case-insensitive) and checks them for activation markers. No structured
// parse of the log format is attempted; this feeds human-readable reporting
// only.
func ScanKernelLog(kernelLog, feature string) KernelLogResult {
	result := KernelLogResult{Feature: feature}
	needle := strings.ToLower(feature)

	for _, line := range strings.Split(kernelLog, "\n") {
		lower := strings.ToLower(line)
		if !strings.Contains(lower, needle) {
			continue
		}
		result.Matches = append(result.Matches, strings.TrimSpace(line))
		if result.Activated {
			continue
		}
		for _, marker := range activationMarkers {
			if strings.Contains(lower, marker) {
				result.Activated = true
				result.ActivationLine = strings.TrimSpace(line)
				break
			}
		}
	}
	return result
}
