package playbook

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeAll(t *testing.T, variant Variant) string {
	t.Helper()
	dir := t.TempDir()
	gen := NewGenerator(dir, variant, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, gen.Write(), "generator should write all artifacts")
	return dir
}

func TestWriteProducesAllArtifacts(t *testing.T) {
	dir := writeAll(t, VariantDetect)

	for _, name := range []string{InventoryFile, ConfigureFile, VerifyFile, ReadmeFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, "%s should exist", name)
	}
}

func TestInventoryGroups(t *testing.T) {
	dir := writeAll(t, VariantDetect)

	data, err := os.ReadFile(filepath.Join(dir, InventoryFile))
	require.NoError(t, err)

	var inv map[string]any
	require.NoError(t, yaml.Unmarshal(data, &inv), "inventory must be valid YAML")

	all := inv["all"].(map[string]any)
	children := all["children"].(map[string]any)
	assert.Contains(t, children, "local", "inventory needs the localhost group")
	assert.Contains(t, children, "idrac", "inventory needs the management controller placeholder group")

	local := children["local"].(map[string]any)
	hosts := local["hosts"].(map[string]any)
	localhost := hosts["localhost"].(map[string]any)
	assert.Equal(t, "local", localhost["ansible_connection"], "localhost must use the local connection")
}

func TestVerifyPlaybookConstantAcrossVariants(t *testing.T) {
	var previous []byte
	for _, variant := range []Variant{VariantDetect, VariantBMC, VariantBootParam} {
		dir := writeAll(t, variant)
		data, err := os.ReadFile(filepath.Join(dir, VerifyFile))
		require.NoError(t, err)
		if previous != nil {
			assert.Equal(t, string(previous), string(data), "verify playbook must not depend on the variant")
		}
		previous = data
	}
}

func TestConfigureVariants(t *testing.T) {
	detect, err := renderConfigure(VariantDetect)
	require.NoError(t, err)
	bmcPlays, err := renderConfigure(VariantBMC)
	require.NoError(t, err)
	bootparam, err := renderConfigure(VariantBootParam)
	require.NoError(t, err)

	assert.NotContains(t, string(detect), "idrac_bios", "detect variant must not touch the controller")
	assert.Contains(t, string(bmcPlays), "dellemc.openmanage.idrac_bios", "bmc variant configures through the collection")
	assert.Contains(t, string(bmcPlays), "IntelTdx", "bmc variant stages the Intel attribute set")
	assert.Contains(t, string(bootparam), "GRUB_CMDLINE_LINUX", "bootparam variant rewrites the boot-loader config")
	assert.Contains(t, string(bootparam), "grub2-mkconfig", "bootparam variant regenerates the boot-loader config")

	_, err = renderConfigure(Variant("bogus"))
	require.Error(t, err, "unknown variants must be rejected")
}

func TestPlaybooksAreValidYAML(t *testing.T) {
	for _, variant := range []Variant{VariantDetect, VariantBMC, VariantBootParam} {
		configure, err := renderConfigure(variant)
		require.NoError(t, err)

		var plays []map[string]any
		require.NoError(t, yaml.Unmarshal(configure, &plays), "configure playbook for %s must parse", variant)
		require.NotEmpty(t, plays)
		assert.Equal(t, "Detect CPU vendor", plays[0]["name"], "every configure playbook starts with vendor detection")
	}

	verify, err := renderVerify()
	require.NoError(t, err)
	var plays []map[string]any
	require.NoError(t, yaml.Unmarshal(verify, &plays))
	require.Len(t, plays, 2, "verify playbook is detection plus checks")
}
