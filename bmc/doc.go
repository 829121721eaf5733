// Package bmc configures BIOS attributes for confidential computing through
// a Redfish remote management controller.
//
// The attribute sets are fixed per CPU vendor: Intel hosts get TME/TDX
// enablement, AMD hosts get SEV-SNP enablement with a reserved ASID range.
// Staged attributes only take effect after a host restart, so
// ApplyBIOSSettings triggers a reset and waits for the controller to report
// the new values with a bounded, fixed-interval poll (WaitForJob). The poll
// source is injectable for tests.
package bmc
