// Package sandbox provisions the isolated container environment that carries
// Ansible and the Dell OpenManage collection.
package sandbox

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/teeutil/tee-host-setup/interfaces"
)

// Fixed defaults for the managed container. Both can be overridden by CLI
// flags.
const (
	DefaultImage = "images:ubuntu/22.04"
	DefaultName  = "tee-setup"
)

// ansibleCollection is the vendor hardware-management collection installed
// into the sandbox.
const ansibleCollection = "dellemc.openmanage"

// Sandbox manages a single lxc container by shelling out to the lxc client.
type Sandbox struct {
	Name  string
	Image string

	runner interfaces.Runner
	log    *slog.Logger
}

// New creates a Sandbox handle. Empty name or image fall back to the fixed
// defaults.
func New(name, image string, runner interfaces.Runner, log *slog.Logger) *Sandbox {
	if name == "" {
		name = DefaultName
	}
	if image == "" {
		image = DefaultImage
	}
	return &Sandbox{Name: name, Image: image, runner: runner, log: log}
}

// Exists reports whether the container is known to the container manager.
func (s *Sandbox) Exists(ctx context.Context) bool {
	_, err := s.runner.Run(ctx, "lxc", "info", s.Name)
	return err == nil
}

// Destroy force-removes the container.
func (s *Sandbox) Destroy(ctx context.Context) error {
	s.log.Info("Removing existing container", "name", s.Name)
	if _, err := s.runner.Run(ctx, "lxc", "delete", "--force", s.Name); err != nil {
		return fmt.Errorf("failed to delete container %s: %w", s.Name, err)
	}
	return nil
}

// Launch creates and starts the container from the configured image.
func (s *Sandbox) Launch(ctx context.Context) error {
	s.log.Info("Launching container", "name", s.Name, "image", s.Image)
	if _, err := s.runner.Run(ctx, "lxc", "launch", s.Image, s.Name); err != nil {
		return fmt.Errorf("failed to launch container %s: %w", s.Name, err)
	}
	return nil
}

// Exec runs a command inside the container.
func (s *Sandbox) Exec(ctx context.Context, args ...string) error {
	execArgs := append([]string{"exec", s.Name, "--"}, args...)
	if _, err := s.runner.Run(ctx, "lxc", execArgs...); err != nil {
		return fmt.Errorf("command failed inside container %s: %w", s.Name, err)
	}
	return nil
}

// Provision ensures a fresh container with Ansible and the management
// collection installed. An existing container with the same name is destroyed
// first, so repeated runs always converge to a clean environment. The first
// failing step aborts provisioning.
func (s *Sandbox) Provision(ctx context.Context) error {
	if s.Exists(ctx) {
		if err := s.Destroy(ctx); err != nil {
			return err
		}
	}

	if err := s.Launch(ctx); err != nil {
		return err
	}

	// The image boots asynchronously; wait for cloud-init so apt is usable.
	if err := s.Exec(ctx, "cloud-init", "status", "--wait"); err != nil {
		return err
	}

	s.log.Info("Installing Ansible", "container", s.Name)
	if err := s.Exec(ctx, "apt-get", "update"); err != nil {
		return err
	}
	if err := s.Exec(ctx, "apt-get", "install", "-y", "ansible"); err != nil {
		return err
	}

	s.log.Info("Installing management collection", "collection", ansibleCollection)
	if err := s.Exec(ctx, "ansible-galaxy", "collection", "install", ansibleCollection); err != nil {
		return err
	}

	return nil
}
