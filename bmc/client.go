package bmc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/stmcginnis/gofish"
	"github.com/stmcginnis/gofish/redfish"
	"github.com/teeutil/tee-host-setup/interfaces"
)

// Config carries the remote management controller endpoint and job pacing.
type Config struct {
	Endpoint string
	Username string
	Password string

	// Insecure skips TLS verification. Controllers ship with self-signed
	// certificates, so this defaults to true in the CLI.
	Insecure bool

	JobInterval time.Duration
	JobTimeout  time.Duration
}

// Client wraps a Redfish session against a single managed server.
type Client struct {
	api *gofish.APIClient
	cfg Config
	log *slog.Logger
}

// Connect establishes a Redfish session. The caller must Close the client.
func Connect(ctx context.Context, cfg Config, log *slog.Logger) (*Client, error) {
	if cfg.JobInterval == 0 {
		cfg.JobInterval = DefaultJobInterval
	}
	if cfg.JobTimeout == 0 {
		cfg.JobTimeout = DefaultJobTimeout
	}

	api, err := gofish.ConnectContext(ctx, gofish.ClientConfig{
		Endpoint: cfg.Endpoint,
		Username: cfg.Username,
		Password: cfg.Password,
		Insecure: cfg.Insecure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to management controller at %s: %w", cfg.Endpoint, err)
	}

	return &Client{api: api, cfg: cfg, log: log}, nil
}

// Close terminates the Redfish session.
func (c *Client) Close() {
	c.api.Logout()
}

// ApplyBIOSSettings stages the vendor's confidential-computing BIOS
// attributes, restarts the host to apply them, and waits for the controller
// to report the new values. Attributes already at their desired value are not
// re-staged; if nothing needs changing, no restart happens.
func (c *Client) ApplyBIOSSettings(ctx context.Context, vendor interfaces.Vendor) error {
	desired, err := AttributesFor(vendor)
	if err != nil {
		return err
	}

	system, err := c.firstSystem()
	if err != nil {
		return err
	}

	bios, err := system.Bios()
	if err != nil {
		return fmt.Errorf("failed to read BIOS resource: %w", err)
	}

	staged := pendingChanges(bios.Attributes, desired)
	if len(staged) == 0 {
		c.log.Info("BIOS already configured for confidential computing", "vendor", vendor.String())
		return nil
	}

	c.log.Info("Staging BIOS attributes", "vendor", vendor.String(), "count", len(staged))
	if err := bios.UpdateBiosAttributes(staged); err != nil {
		return fmt.Errorf("failed to stage BIOS attributes: %w", err)
	}

	c.log.Info("Restarting host to apply BIOS settings")
	if err := system.Reset(redfish.ForceRestartResetType); err != nil {
		return fmt.Errorf("failed to restart host: %w", err)
	}

	c.log.Info("Waiting for BIOS settings to apply",
		"interval", c.cfg.JobInterval, "timeout", c.cfg.JobTimeout)
	return WaitForJob(ctx, c.cfg.JobInterval, c.cfg.JobTimeout, func(ctx context.Context) (bool, error) {
		return c.settingsApplied(staged)
	})
}

// settingsApplied re-reads the BIOS resource and reports whether all staged
// attributes now hold their desired values. Transient read errors while the
// host reboots count as "not done" rather than failures.
func (c *Client) settingsApplied(staged redfish.SettingsAttributes) (bool, error) {
	system, err := c.firstSystem()
	if err != nil {
		c.log.Debug("Controller not ready", "err", err)
		return false, nil
	}
	bios, err := system.Bios()
	if err != nil {
		c.log.Debug("BIOS resource not ready", "err", err)
		return false, nil
	}
	return len(pendingChanges(bios.Attributes, staged)) == 0, nil
}

func (c *Client) firstSystem() (*redfish.ComputerSystem, error) {
	systems, err := c.api.Service.Systems()
	if err != nil {
		return nil, fmt.Errorf("failed to list systems: %w", err)
	}
	if len(systems) == 0 {
		return nil, errors.New("management controller exposes no systems")
	}
	return systems[0], nil
}
