// Package flags holds the CLI flag definitions and logger wiring shared by
// the teehost commands.
package flags

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/teeutil/tee-host-setup/common"
	"github.com/urfave/cli/v2"
)

func SetupLogger(cCtx *cli.Context) *slog.Logger {
	logger := common.SetupLogger(&common.LoggingOpts{
		Debug:   cCtx.Bool(LogDebugFlag.Name),
		JSON:    cCtx.Bool(LogJSONFlag.Name),
		Service: cCtx.String(LogServiceFlag.Name),
		Version: common.Version,
	})

	if cCtx.Bool(LogUIDFlag.Name) {
		id := uuid.Must(uuid.NewRandom())
		logger = logger.With("uid", id.String())
	}
	return logger
}

var LogJSONFlag = &cli.BoolFlag{
	Name:  "log-json",
	Value: false,
	Usage: "log in JSON format",
}
var LogDebugFlag = &cli.BoolFlag{
	Name:  "log-debug",
	Value: false,
	Usage: "log debug messages",
}
var LogUIDFlag = &cli.BoolFlag{
	Name:  "log-uid",
	Value: false,
	Usage: "generate a uuid and add to all log messages",
}
var LogServiceFlag = &cli.StringFlag{
	Name:  "log-service",
	Value: "teehost",
	Usage: "add 'service' tag to logs",
}

var ContainerNameFlag = &cli.StringFlag{
	Name:  "container-name",
	Value: "",
	Usage: "name of the sandbox container (default: tee-setup)",
}
var ImageFlag = &cli.StringFlag{
	Name:  "image",
	Value: "",
	Usage: "container image for the sandbox (default: images:ubuntu/22.04)",
}
var OutputDirFlag = &cli.StringFlag{
	Name:  "output-dir",
	Value: "",
	Usage: "directory for generated playbooks (default: $HOME/tee-playbooks)",
}
var VariantFlag = &cli.StringFlag{
	Name:  "variant",
	Value: "detect",
	Usage: "configure playbook variant: 'detect', 'bmc' or 'bootparam'",
}

var BMCAddrFlag = &cli.StringFlag{
	Name:    "bmc-addr",
	Usage:   "management controller endpoint, e.g. https://192.168.0.120",
	EnvVars: []string{"TEEHOST_BMC_ADDR"},
}
var BMCUserFlag = &cli.StringFlag{
	Name:    "bmc-user",
	Value:   "root",
	Usage:   "management controller user",
	EnvVars: []string{"TEEHOST_BMC_USER"},
}
var BMCPasswordFlag = &cli.StringFlag{
	Name:    "bmc-password",
	Usage:   "management controller password",
	EnvVars: []string{"TEEHOST_BMC_PASSWORD"},
}
var JobTimeoutFlag = &cli.Int64Flag{
	Name:  "job-timeout",
	Value: 600,
	Usage: "seconds to wait for the BIOS configuration job",
}
var SkipRebootFlag = &cli.BoolFlag{
	Name:  "skip-reboot",
	Value: false,
	Usage: "do not reboot after changing boot parameters",
}

var CommonFlags = []cli.Flag{
	LogJSONFlag,
	LogDebugFlag,
	LogUIDFlag,
	LogServiceFlag,
}
