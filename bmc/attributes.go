package bmc

import (
	"fmt"

	"github.com/stmcginnis/gofish/redfish"
	"github.com/teeutil/tee-host-setup/interfaces"
)

// intelAttributes enables TDX on Intel platforms. TME is a TDX prerequisite
// and directory mode conflicts with multi-key encryption, so both are set
// alongside the TDX toggle.
var intelAttributes = redfish.SettingsAttributes{
	"ProcVirtualization": "Enabled",
	"TmeEnable":          "Enabled",
	"MemoryEncryption":   "MultiKeys",
	"IntelTdx":           "Enabled",
	"DirectoryMode":      "Disabled",
}

// amdAttributes enables SEV-SNP on AMD platforms. Transparent SME is disabled
// because it conflicts with per-guest encryption, and a minimum ASID reserves
// space for SEV-ES/SNP guests.
var amdAttributes = redfish.SettingsAttributes{
	"ProcVirtualization": "Enabled",
	"CpuMinSevAsid":      128,
	"SnpMemoryCoverage":  "Enabled",
	"TransparentSme":     "Disabled",
	"IommuSupport":       "Enabled",
}

// AttributesFor returns the fixed BIOS attribute set for the vendor. Unknown
// vendors cannot be configured.
func AttributesFor(vendor interfaces.Vendor) (redfish.SettingsAttributes, error) {
	switch vendor {
	case interfaces.VendorIntel:
		return intelAttributes, nil
	case interfaces.VendorAMD:
		return amdAttributes, nil
	default:
		return nil, fmt.Errorf("no BIOS attribute set for vendor %s: %w", vendor, interfaces.ErrUnknownVendor)
	}
}

// pendingChanges returns the subset of desired attributes whose current value
// differs. Values are compared by their string form because controllers
// report numeric attributes inconsistently as strings or numbers.
func pendingChanges(current, desired redfish.SettingsAttributes) redfish.SettingsAttributes {
	pending := redfish.SettingsAttributes{}
	for key, want := range desired {
		have, ok := current[key]
		if !ok || fmt.Sprint(have) != fmt.Sprint(want) {
			pending[key] = want
		}
	}
	return pending
}
