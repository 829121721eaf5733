// Package hostcheck detects the host CPU vendor and inspects kernel-exposed
// text sources for confidential-computing features.
//
// The package separates pure text classification from data collection. The
// classifiers (ClassifyVendor, CPUFlagCount, ScanKernelLog) operate on raw
// strings and have no side effects, so they can be exercised against recorded
// fixtures. SystemCollector gathers the live inputs: /proc/cpuinfo, the
// kernel ring buffer via dmesg, /proc/cmdline, the IOMMU groups directory,
// and device nodes such as /dev/sev.
//
// Verify ties the two together: it classifies the vendor once and threads the
// result through the vendor-specific checks, producing a flat Report. Feature
// absence is reported as a warning, not an error; the only fatal condition is
// an unknown vendor.
package hostcheck
