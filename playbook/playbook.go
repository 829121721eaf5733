// Package playbook generates the Ansible artifacts used to configure and
// verify confidential-computing support: an inventory, a configure playbook
// whose content depends on the chosen variant, a verify playbook that is the
// same for all variants, and a README.
package playbook

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Variant selects the configuration strategy rendered into the configure
// playbook.
type Variant string

const (
	// VariantDetect only classifies the CPU vendor and reports it.
	VariantDetect Variant = "detect"

	// VariantBMC configures BIOS attributes through the remote management
	// controller using the Dell OpenManage collection.
	VariantBMC Variant = "bmc"

	// VariantBootParam rewrites the boot-loader kernel parameters locally.
	VariantBootParam Variant = "bootparam"
)

// ParseVariant validates a variant name from the CLI.
func ParseVariant(name string) (Variant, error) {
	switch Variant(name) {
	case VariantDetect, VariantBMC, VariantBootParam:
		return Variant(name), nil
	default:
		return "", fmt.Errorf("unknown variant %q, expected 'detect', 'bmc' or 'bootparam'", name)
	}
}

// Artifact file names, fixed relative to the output directory.
const (
	InventoryFile = "inventory.yml"
	ConfigureFile = "configure-tee.yml"
	VerifyFile    = "verify-tee.yml"
	ReadmeFile    = "README.md"
)

// DefaultOutputDir returns the playbook directory under the invoking user's
// home directory.
func DefaultOutputDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, "tee-playbooks"), nil
}

// Generator writes the playbook artifacts for one variant.
type Generator struct {
	OutDir  string
	Variant Variant

	log *slog.Logger
}

// NewGenerator creates a generator for the given output directory and
// variant.
func NewGenerator(outDir string, variant Variant, log *slog.Logger) *Generator {
	return &Generator{OutDir: outDir, Variant: variant, log: log}
}

// Write renders all four artifacts into the output directory, creating it if
// needed. Existing artifacts are overwritten.
func (g *Generator) Write() error {
	if err := os.MkdirAll(g.OutDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	inventory, err := renderInventory()
	if err != nil {
		return err
	}
	configure, err := renderConfigure(g.Variant)
	if err != nil {
		return err
	}
	verify, err := renderVerify()
	if err != nil {
		return err
	}

	artifacts := map[string][]byte{
		InventoryFile: inventory,
		ConfigureFile: configure,
		VerifyFile:    verify,
		ReadmeFile:    []byte(readme(g.OutDir)),
	}

	for name, content := range artifacts {
		path := filepath.Join(g.OutDir, name)
		if err := os.WriteFile(path, content, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
		g.log.Info("Wrote playbook artifact", "path", path)
	}
	return nil
}

func readme(outDir string) string {
	return fmt.Sprintf(`# TEE setup playbooks

Generated by teehost. Run from %s:

    ansible-playbook -i %s %s
    ansible-playbook -i %s %s

Edit %s first and fill in the management controller address and
credentials for the idrac group before running the configure playbook.

Verification never fails for absent features; absence is reported as a
warning so the playbook can run on hosts that are not yet configured.
`, outDir, InventoryFile, ConfigureFile, InventoryFile, VerifyFile, InventoryFile)
}
