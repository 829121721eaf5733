package hostcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanKernelLogActivated(t *testing.T) {
	kernelLog := `[    0.000000] Linux version 6.8.0
[    2.123456] tdx: BIOS enabled: private KeyID range [64, 128)
[    3.222222] tdx: module initialized
[    4.000000] something unrelated
`
	result := ScanKernelLog(kernelLog, "tdx")
	require.Len(t, result.Matches, 2, "both tdx lines should match")
	assert.True(t, result.Activated, "an initialized marker should flag the feature as activated")
	assert.Contains(t, result.ActivationLine, "BIOS enabled", "first activating line should be reported")
}

func TestScanKernelLogFoundNotActivated(t *testing.T) {
	kernelLog := "[    2.0] tdx: keyid allocation pending\n"
	result := ScanKernelLog(kernelLog, "tdx")
	require.Len(t, result.Matches, 1, "the tdx line should match")
	assert.False(t, result.Activated, "no activation marker means not activated")
	assert.Empty(t, result.ActivationLine, "no activation line should be set")
}

func TestScanKernelLogCaseInsensitive(t *testing.T) {
	kernelLog := "[    1.5] SEV-SNP: RMP table physical range ... SEV API: 1.55\n"
	result := ScanKernelLog(kernelLog, "sev")
	require.Len(t, result.Matches, 1)
	assert.True(t, result.Activated, "the API marker should count as activation")
}

func TestScanKernelLogNoMatches(t *testing.T) {
	result := ScanKernelLog("[    0.1] ACPI: all good\n", "sev")
	assert.Empty(t, result.Matches, "no sev lines expected")
	assert.False(t, result.Activated)
}
