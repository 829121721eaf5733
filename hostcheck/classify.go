package hostcheck

import (
	"strings"

	"github.com/teeutil/tee-host-setup/interfaces"
)

// Vendor identification markers as they appear in /proc/cpuinfo.
const (
	intelVendorMarker = "GenuineIntel"
	amdVendorMarker   = "AuthenticAMD"
)

// ClassifyVendor determines the CPU vendor from the raw contents of
// /proc/cpuinfo. Intel is checked first, so if both markers were ever present
// in the same input Intel wins; real hardware never produces that.
func ClassifyVendor(cpuinfo string) interfaces.Vendor {
	switch {
	case strings.Contains(cpuinfo, intelVendorMarker):
		return interfaces.VendorIntel
	case strings.Contains(cpuinfo, amdVendorMarker):
		return interfaces.VendorAMD
	default:
		return interfaces.VendorUnknown
	}
}

// CPUFlagCount returns the number of distinct flag tokens in the cpuinfo
// flags lines that contain the feature marker. For "sev" this counts sev,
// sev_es and sev_snp as three. The per-core repetition of the flags line does
// not inflate the count.
func CPUFlagCount(cpuinfo, feature string) int {
	seen := make(map[string]struct{})
	for _, line := range strings.Split(cpuinfo, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "flags") && !strings.HasPrefix(trimmed, "Features") {
			continue
		}
		_, value, ok := strings.Cut(trimmed, ":")
		if !ok {
			continue
		}
		for _, token := range strings.Fields(value) {
			if strings.Contains(token, feature) {
				seen[token] = struct{}{}
			}
		}
	}
	return len(seen)
}

// HasCPUFlag reports whether any cpuinfo flag token contains the feature
// marker.
func HasCPUFlag(cpuinfo, feature string) bool {
	return CPUFlagCount(cpuinfo, feature) > 0
}
