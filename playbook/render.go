package playbook

import (
	"fmt"

	"github.com/teeutil/tee-host-setup/bmc"
	"github.com/teeutil/tee-host-setup/interfaces"
	"gopkg.in/yaml.v3"
)

// Ansible inventory shape, the same structure the rest of the ecosystem uses
// for YAML inventories.
type inventory struct {
	All inventoryAll `yaml:"all"`
}

type inventoryAll struct {
	Children map[string]inventoryGroup `yaml:"children"`
}

type inventoryGroup struct {
	Hosts map[string]inventoryHost `yaml:"hosts"`
	Vars  map[string]any           `yaml:"vars,omitempty"`
}

type inventoryHost struct {
	AnsibleHost       string         `yaml:"ansible_host,omitempty"`
	AnsibleConnection string         `yaml:"ansible_connection,omitempty"`
	Vars              map[string]any `yaml:",inline"`
}

// play and task model just enough of the Ansible playbook format. Struct
// fields keep their declared order in the rendered YAML, which keeps the
// generated files readable.
type play struct {
	Name        string         `yaml:"name"`
	Hosts       string         `yaml:"hosts"`
	GatherFacts bool           `yaml:"gather_facts"`
	Become      bool           `yaml:"become,omitempty"`
	Collections []string       `yaml:"collections,omitempty"`
	Vars        map[string]any `yaml:"vars,omitempty"`
	Tasks       []task         `yaml:"tasks"`
}

type task struct {
	Name         string            `yaml:"name"`
	Shell        string            `yaml:"ansible.builtin.shell,omitempty"`
	Command      string            `yaml:"ansible.builtin.command,omitempty"`
	SetFact      map[string]string `yaml:"ansible.builtin.set_fact,omitempty"`
	Debug        *debugArgs        `yaml:"ansible.builtin.debug,omitempty"`
	Fail         *failArgs         `yaml:"ansible.builtin.fail,omitempty"`
	Stat         map[string]any    `yaml:"ansible.builtin.stat,omitempty"`
	Replace      map[string]any    `yaml:"ansible.builtin.replace,omitempty"`
	Reboot       map[string]any    `yaml:"ansible.builtin.reboot,omitempty"`
	IdracBIOS    map[string]any    `yaml:"dellemc.openmanage.idrac_bios,omitempty"`
	Register     string            `yaml:"register,omitempty"`
	When         string            `yaml:"when,omitempty"`
	FailedWhen   string            `yaml:"failed_when,omitempty"`
	IgnoreErrors bool              `yaml:"ignore_errors,omitempty"`
}

type debugArgs struct {
	Msg string `yaml:"msg,omitempty"`
	Var string `yaml:"var,omitempty"`
}

type failArgs struct {
	Msg string `yaml:"msg"`
}

func renderInventory() ([]byte, error) {
	inv := inventory{
		All: inventoryAll{
			Children: map[string]inventoryGroup{
				"local": {
					Hosts: map[string]inventoryHost{
						"localhost": {AnsibleConnection: "local"},
					},
				},
				// Placeholder group; fill in the controller address and
				// credentials before running the configure playbook.
				"idrac": {
					Hosts: map[string]inventoryHost{
						"idrac1": {AnsibleHost: "192.168.0.120"},
					},
					Vars: map[string]any{
						"idrac_user":     "root",
						"idrac_password": "changeme",
					},
				},
			},
		},
	}
	return marshal(inv)
}

// detectPlay classifies the CPU vendor on localhost and aborts on an unknown
// vendor. Both the configure and verify playbooks start with it.
func detectPlay() play {
	return play{
		Name:        "Detect CPU vendor",
		Hosts:       "local",
		GatherFacts: false,
		Tasks: []task{
			{
				Name:     "Read processor information",
				Command:  "cat /proc/cpuinfo",
				Register: "cpuinfo",
			},
			{
				Name: "Classify CPU vendor",
				SetFact: map[string]string{
					"cpu_vendor": "{{ 'Intel' if 'GenuineIntel' in cpuinfo.stdout else ('AMD' if 'AuthenticAMD' in cpuinfo.stdout else 'Unknown') }}",
				},
			},
			{
				Name: "Abort on unknown vendor",
				Fail: &failArgs{Msg: "unsupported CPU vendor, expected GenuineIntel or AuthenticAMD"},
				When: "cpu_vendor == 'Unknown'",
			},
			{
				Name:  "Report CPU vendor",
				Debug: &debugArgs{Msg: "CPU vendor: {{ cpu_vendor }}"},
			},
		},
	}
}

func renderConfigure(variant Variant) ([]byte, error) {
	plays := []play{detectPlay()}

	switch variant {
	case VariantDetect:
		// Detection only; nothing to configure.

	case VariantBMC:
		intelAttrs, err := bmc.AttributesFor(interfaces.VendorIntel)
		if err != nil {
			return nil, err
		}
		amdAttrs, err := bmc.AttributesFor(interfaces.VendorAMD)
		if err != nil {
			return nil, err
		}
		plays = append(plays, play{
			Name:        "Configure BIOS through the management controller",
			Hosts:       "idrac",
			GatherFacts: false,
			Collections: []string{"dellemc.openmanage"},
			Tasks: []task{
				{
					Name:      "Enable Intel TDX BIOS attributes",
					IdracBIOS: idracBIOSArgs(intelAttrs),
					When:      "hostvars['localhost'].cpu_vendor == 'Intel'",
				},
				{
					Name:      "Enable AMD SEV-SNP BIOS attributes",
					IdracBIOS: idracBIOSArgs(amdAttrs),
					When:      "hostvars['localhost'].cpu_vendor == 'AMD'",
				},
			},
		})

	case VariantBootParam:
		plays = append(plays, play{
			Name:        "Configure kernel boot parameters",
			Hosts:       "local",
			GatherFacts: false,
			Become:      true,
			Vars: map[string]any{
				"tee_cmdline": "{{ 'kvm_intel.tdx=on nohibernate' if cpu_vendor == 'Intel' else 'mem_encrypt=on kvm_amd.sev=1 kvm_amd.sev_snp=1 iommu=pt' }}",
			},
			Tasks: []task{
				{
					Name: "Append TEE parameters to the boot-loader command line",
					Replace: map[string]any{
						"path":    "/etc/default/grub",
						"regexp":  `^(GRUB_CMDLINE_LINUX=")([^"]*)(")$`,
						"replace": `\1\2 {{ tee_cmdline }}\3`,
						"backup":  true,
					},
				},
				{
					Name:    "Regenerate boot-loader configuration",
					Command: "grub2-mkconfig -o /boot/grub2/grub.cfg",
				},
				{
					Name:   "Reboot to apply boot parameters",
					Reboot: map[string]any{"reboot_timeout": 900},
				},
			},
		})

	default:
		return nil, fmt.Errorf("unknown playbook variant %q", variant)
	}

	return marshal(plays)
}

func idracBIOSArgs(attributes map[string]any) map[string]any {
	return map[string]any{
		"idrac_ip":         "{{ ansible_host }}",
		"idrac_user":       "{{ idrac_user }}",
		"idrac_password":   "{{ idrac_password }}",
		"validate_certs":   false,
		"attributes":       attributes,
		"job_wait":         true,
		"job_wait_timeout": 600,
	}
}

// renderVerify produces the verification playbook. Its content is identical
// for every configure variant. Feature checks never fail the play; absence
// only shows up in the debug output.
func renderVerify() ([]byte, error) {
	verify := play{
		Name:        "Verify confidential-computing support",
		Hosts:       "local",
		GatherFacts: false,
		Become:      true,
		Tasks: []task{
			{
				Name:       "Check TDX CPU flags",
				Shell:      "grep -o 'tdx[a-z_]*' /proc/cpuinfo | sort -u",
				Register:   "tdx_flags",
				When:       "cpu_vendor == 'Intel'",
				FailedWhen: "false",
			},
			{
				Name:       "Check TDX kernel messages",
				Shell:      "dmesg | grep -i tdx",
				Register:   "tdx_dmesg",
				When:       "cpu_vendor == 'Intel'",
				FailedWhen: "false",
			},
			{
				Name:       "Check SEV/SME CPU flags",
				Shell:      "grep -o 'se[vm][a-z_]*' /proc/cpuinfo | sort -u",
				Register:   "sev_flags",
				When:       "cpu_vendor == 'AMD'",
				FailedWhen: "false",
			},
			{
				Name:       "Check SEV kernel messages",
				Shell:      "dmesg | grep -i sev",
				Register:   "sev_dmesg",
				When:       "cpu_vendor == 'AMD'",
				FailedWhen: "false",
			},
			{
				Name:     "Check SEV device node",
				Stat:     map[string]any{"path": "/dev/sev"},
				Register: "sev_device",
				When:     "cpu_vendor == 'AMD'",
			},
			{
				Name:     "Count IOMMU groups",
				Shell:    "ls /sys/kernel/iommu_groups 2>/dev/null | wc -l",
				Register: "iommu_groups",
			},
			{
				Name:     "Read kernel command line",
				Command:  "cat /proc/cmdline",
				Register: "cmdline",
			},
			{
				Name: "Report results",
				Debug: &debugArgs{
					Msg: "vendor={{ cpu_vendor }} iommu_groups={{ iommu_groups.stdout }} cmdline={{ cmdline.stdout }}",
				},
			},
		},
	}

	return marshal([]play{detectPlay(), verify})
}

func marshal(doc any) ([]byte, error) {
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to render playbook YAML: %w", err)
	}
	return append([]byte("---\n"), out...), nil
}
