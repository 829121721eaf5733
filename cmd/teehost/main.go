package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/briandowns/spinner"
	"github.com/teeutil/tee-host-setup/bmc"
	"github.com/teeutil/tee-host-setup/bootparam"
	"github.com/teeutil/tee-host-setup/cmd/flags"
	"github.com/teeutil/tee-host-setup/common"
	"github.com/teeutil/tee-host-setup/hostcheck"
	"github.com/teeutil/tee-host-setup/interfaces"
	"github.com/teeutil/tee-host-setup/playbook"
	"github.com/teeutil/tee-host-setup/report"
	"github.com/teeutil/tee-host-setup/sandbox"
	"github.com/urfave/cli/v2"
)

var appFlags = append([]cli.Flag{
	flags.ContainerNameFlag,
	flags.ImageFlag,
	flags.OutputDirFlag,
	flags.VariantFlag,
	flags.BMCAddrFlag,
	flags.BMCUserFlag,
	flags.BMCPasswordFlag,
	flags.JobTimeoutFlag,
	flags.SkipRebootFlag,
}, flags.CommonFlags...)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "teehost",
		Usage: "Provision and verify confidential-computing host setup (Intel TDX / AMD SEV-SNP)",
		Flags: appFlags,
		Commands: []*cli.Command{
			{
				Name:   "create",
				Usage:  "Provision the Ansible sandbox and generate playbooks",
				Action: runCreate,
			},
			{
				Name:   "verify",
				Usage:  "Inspect the host and report confidential-computing status",
				Action: runVerify,
			},
			{
				Name:   "configure",
				Usage:  "Apply vendor-specific configuration (BIOS attributes or boot parameters)",
				Action: runConfigure,
			},
		},
		// With no command, create runs; anything unrecognized prints usage
		// and exits non-zero without side effects.
		Action: func(cCtx *cli.Context) error {
			if arg := cCtx.Args().First(); arg != "" {
				cli.ShowAppHelp(cCtx)
				return cli.Exit(fmt.Sprintf("unknown command %q", arg), 1)
			}
			return runCreate(cCtx)
		},
	}
}

func runCreate(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)
	printer := report.NewPrinter(os.Stdout)
	runner := common.ExecRunner{}

	variant, err := playbook.ParseVariant(cCtx.String(flags.VariantFlag.Name))
	if err != nil {
		return err
	}

	outDir := cCtx.String(flags.OutputDirFlag.Name)
	if outDir == "" {
		outDir, err = playbook.DefaultOutputDir()
		if err != nil {
			return err
		}
	}

	sb := sandbox.New(cCtx.String(flags.ContainerNameFlag.Name), cCtx.String(flags.ImageFlag.Name), runner, logger)

	logger.Info("Provisioning sandbox", "container", sb.Name, "image", sb.Image)
	spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	spin.Suffix = fmt.Sprintf(" provisioning container %s...", sb.Name)
	spin.Start()
	err = sb.Provision(cCtx.Context)
	spin.Stop()
	if err != nil {
		printer.Error("sandbox provisioning failed: %v", err)
		return cli.Exit("", 1)
	}

	generator := playbook.NewGenerator(outDir, variant, logger)
	if err := generator.Write(); err != nil {
		printer.Error("playbook generation failed: %v", err)
		return cli.Exit("", 1)
	}

	printer.Info("Sandbox %s ready with Ansible and the management collection", sb.Name)
	printer.Info("Playbooks written to %s (variant: %s)", outDir, variant)
	printer.Info("Copy them into the sandbox: lxc file push -r %s %s/root/", outDir, sb.Name)
	printer.Info("Then run: lxc exec %s -- ansible-playbook -i /root/%s/%s /root/%s/%s",
		sb.Name, filepath.Base(outDir), playbook.InventoryFile, filepath.Base(outDir), playbook.VerifyFile)
	return nil
}

func runVerify(cCtx *cli.Context) error {
	printer := report.NewPrinter(os.Stdout)
	collector := hostcheck.NewSystemCollector(common.ExecRunner{})

	rep, err := hostcheck.Verify(cCtx.Context, collector)
	if err != nil {
		if errors.Is(err, interfaces.ErrUnknownVendor) {
			printer.Error("cannot verify: %v", err)
		} else {
			printer.Error("verification failed: %v", err)
		}
		return cli.Exit("", 1)
	}

	printer.Render(rep)
	return nil
}

func runConfigure(cCtx *cli.Context) error {
	logger := flags.SetupLogger(cCtx)
	printer := report.NewPrinter(os.Stdout)
	runner := common.ExecRunner{}

	variant, err := playbook.ParseVariant(cCtx.String(flags.VariantFlag.Name))
	if err != nil {
		return err
	}

	collector := hostcheck.NewSystemCollector(runner)
	cpuinfo, err := collector.CPUInfo(cCtx.Context)
	if err != nil {
		return err
	}

	vendor := hostcheck.ClassifyVendor(cpuinfo)
	if vendor == interfaces.VendorUnknown {
		printer.Error("cannot configure: %v", interfaces.ErrUnknownVendor)
		return cli.Exit("", 1)
	}
	printer.Info("CPU vendor: %s", vendor)

	switch variant {
	case playbook.VariantDetect:
		// Detection only.
		return nil

	case playbook.VariantBMC:
		endpoint := cCtx.String(flags.BMCAddrFlag.Name)
		if endpoint == "" {
			return errors.New("--bmc-addr is required for the bmc variant")
		}
		client, err := bmc.Connect(cCtx.Context, bmc.Config{
			Endpoint:   endpoint,
			Username:   cCtx.String(flags.BMCUserFlag.Name),
			Password:   cCtx.String(flags.BMCPasswordFlag.Name),
			Insecure:   true,
			JobTimeout: time.Duration(cCtx.Int64(flags.JobTimeoutFlag.Name)) * time.Second,
		}, logger)
		if err != nil {
			printer.Error("%v", err)
			return cli.Exit("", 1)
		}
		defer client.Close()

		if err := client.ApplyBIOSSettings(cCtx.Context, vendor); err != nil {
			printer.Error("BIOS configuration failed: %v", err)
			return cli.Exit("", 1)
		}
		printer.Info("BIOS configured for %s confidential computing", vendor)
		return nil

	default: // playbook.VariantBootParam
		cfg := bootparam.DefaultConfig()
		cfg.SkipReboot = cCtx.Bool(flags.SkipRebootFlag.Name)
		if err := bootparam.Apply(cCtx.Context, cfg, vendor, runner, logger); err != nil {
			printer.Error("boot parameter configuration failed: %v", err)
			return cli.Exit("", 1)
		}
		printer.Info("Boot parameters configured for %s", vendor)
		return nil
	}
}
