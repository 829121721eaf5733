// Package bootparam rewrites the boot-loader kernel command line to enable
// confidential-computing features on the local host.
package bootparam

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/teeutil/tee-host-setup/interfaces"
)

// Config locates the boot-loader files and controls the post-edit steps.
type Config struct {
	// GrubPath is the defaults file holding GRUB_CMDLINE_LINUX.
	GrubPath string

	// GrubCfgPath is the generated configuration passed to grub2-mkconfig.
	GrubCfgPath string

	// SkipReboot leaves the host running; the parameters then apply on the
	// next manual reboot.
	SkipReboot bool
}

// DefaultConfig returns the conventional grub2 paths.
func DefaultConfig() Config {
	return Config{
		GrubPath:    "/etc/default/grub",
		GrubCfgPath: "/boot/grub2/grub.cfg",
	}
}

var cmdlineRe = regexp.MustCompile(`(?m)^GRUB_CMDLINE_LINUX="([^"]*)"$`)

// ParamsFor returns the kernel parameters that enable the vendor's
// confidential-computing feature.
func ParamsFor(vendor interfaces.Vendor) (string, error) {
	switch vendor {
	case interfaces.VendorIntel:
		return "kvm_intel.tdx=on nohibernate", nil
	case interfaces.VendorAMD:
		return "mem_encrypt=on kvm_amd.sev=1 kvm_amd.sev_snp=1 iommu=pt", nil
	default:
		return "", fmt.Errorf("no boot parameters for vendor %s: %w", vendor, interfaces.ErrUnknownVendor)
	}
}

// RewriteCmdline merges params into the GRUB_CMDLINE_LINUX line of content.
// Parameters already present are not duplicated; if the line is missing it is
// appended. The second return value reports whether content changed.
func RewriteCmdline(content, params string) (string, bool) {
	loc := cmdlineRe.FindStringSubmatchIndex(content)
	if loc == nil {
		line := fmt.Sprintf("GRUB_CMDLINE_LINUX=\"%s\"\n", params)
		if content != "" && !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		return content + line, true
	}

	existing := content[loc[2]:loc[3]]
	merged := mergeParams(existing, params)
	if merged == existing {
		return content, false
	}
	return content[:loc[2]] + merged + content[loc[3]:], true
}

func mergeParams(existing, params string) string {
	present := make(map[string]struct{})
	for _, token := range strings.Fields(existing) {
		present[token] = struct{}{}
	}

	merged := existing
	for _, token := range strings.Fields(params) {
		if _, ok := present[token]; ok {
			continue
		}
		if merged == "" {
			merged = token
		} else {
			merged += " " + token
		}
	}
	return merged
}

// Apply rewrites the boot-loader defaults for the vendor, keeps a timestamped
// backup next to the original, regenerates the boot-loader configuration and
// reboots unless configured otherwise. There is no rollback beyond the backup
// file.
func Apply(ctx context.Context, cfg Config, vendor interfaces.Vendor, runner interfaces.Runner, log *slog.Logger) error {
	params, err := ParamsFor(vendor)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(cfg.GrubPath)
	if err != nil {
		return fmt.Errorf("failed to read boot-loader defaults: %w", err)
	}

	rewritten, changed := RewriteCmdline(string(data), params)
	if !changed {
		log.Info("Boot parameters already configured", "vendor", vendor.String())
		return nil
	}

	backup := fmt.Sprintf("%s.bak-%s", cfg.GrubPath, time.Now().Format("20060102-150405"))
	if err := os.WriteFile(backup, data, 0o644); err != nil {
		return fmt.Errorf("failed to write backup %s: %w", backup, err)
	}
	log.Info("Backed up boot-loader defaults", "backup", backup)

	if err := os.WriteFile(cfg.GrubPath, []byte(rewritten), 0o644); err != nil {
		return fmt.Errorf("failed to update %s: %w", cfg.GrubPath, err)
	}

	log.Info("Regenerating boot-loader configuration", "output", cfg.GrubCfgPath)
	if _, err := runner.Run(ctx, "grub2-mkconfig", "-o", cfg.GrubCfgPath); err != nil {
		return fmt.Errorf("failed to regenerate boot-loader configuration: %w", err)
	}

	if cfg.SkipReboot {
		log.Info("Skipping reboot, parameters apply on next boot", "params", params)
		return nil
	}

	log.Info("Rebooting to apply boot parameters", "params", params)
	if _, err := runner.Run(ctx, "systemctl", "reboot"); err != nil {
		return fmt.Errorf("failed to reboot: %w", err)
	}
	return nil
}
