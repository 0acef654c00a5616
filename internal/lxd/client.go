package lxd

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/mreed8855/lxd-vm/internal/command"
)

// runner matches command.Run and allows tests to substitute it.
type runner func(ctx context.Context, cmdline string) (*command.Result, error)

// Client issues LXD CLI commands and logs their outcomes.
type Client struct {
	run runner
}

// NewClient returns a Client backed by the real lxd/lxc binaries.
func NewClient() *Client {
	return &Client{run: command.Run}
}

// newClientWithRunner allows tests to capture issued commands.
func newClientWithRunner(run runner) *Client {
	return &Client{run: run}
}

// InitAuto runs the daemon's automatic initialization.
func (c *Client) InitAuto(ctx context.Context) (*command.Result, error) {
	return c.exec(ctx, "lxd init --auto")
}

// ImageImport imports a local template/rootfs tarball pair under alias.
func (c *Client) ImageImport(ctx context.Context, template, rootfs, alias string) (*command.Result, error) {
	return c.exec(ctx, fmt.Sprintf("lxc image import %s rootfs %s --alias %s", template, rootfs, alias))
}

// ImageCopy copies the image for release from a remote catalog into the
// local store under alias.
func (c *Client) ImageCopy(ctx context.Context, remote, release, alias string) (*command.Result, error) {
	return c.exec(ctx, fmt.Sprintf("lxc image copy %s%s local: --alias %s", remote, release, alias))
}

// ImageDelete removes the image stored under alias.
func (c *Client) ImageDelete(ctx context.Context, alias string) (*command.Result, error) {
	return c.exec(ctx, fmt.Sprintf("lxc image delete %s", alias))
}

// Init creates a stopped instance named name from source. When vm is true
// the instance is created as a virtual machine rather than a container.
func (c *Client) Init(ctx context.Context, source, name string, vm bool) (*command.Result, error) {
	cmdline := fmt.Sprintf("lxc init %s %s", source, name)
	if vm {
		cmdline += " --vm"
	}
	return c.exec(ctx, cmdline)
}

// Start starts the named instance.
func (c *Client) Start(ctx context.Context, name string) (*command.Result, error) {
	return c.exec(ctx, fmt.Sprintf("lxc start %s", name))
}

// List lists all instances.
func (c *Client) List(ctx context.Context) (*command.Result, error) {
	return c.exec(ctx, "lxc list")
}

// Exec runs guestCmd inside the named instance.
func (c *Client) Exec(ctx context.Context, name, guestCmd string) (*command.Result, error) {
	return c.exec(ctx, fmt.Sprintf("lxc exec %s -- %s", name, guestCmd))
}

// DeleteForce force-deletes the named instance, stopping it if running.
func (c *Client) DeleteForce(ctx context.Context, name string) (*command.Result, error) {
	return c.exec(ctx, fmt.Sprintf("lxc delete --force %s", name))
}

// exec runs one command line and logs the outcome. A nonzero exit is
// logged with full context but still returned as a plain Result.
func (c *Client) exec(ctx context.Context, cmdline string) (*command.Result, error) {
	res, err := c.run(ctx, cmdline)
	if err != nil {
		log.Error("command could not be run", "cmd", cmdline, "err", err)
		return nil, err
	}

	if !res.OK() {
		log.Error("command failed", "cmd", res.Cmd, "exit", res.ExitCode)
		log.Error("captured output", "stdout", res.Stdout, "stderr", res.Stderr)
		return res, nil
	}

	switch {
	case res.Stdout != "":
		log.Debug("command succeeded", "cmd", res.Cmd, "stdout", res.Stdout)
	case res.Stderr != "":
		log.Debug("command succeeded", "cmd", res.Cmd, "stderr", res.Stderr)
	default:
		log.Debug("command succeeded with no output", "cmd", res.Cmd)
	}
	return res, nil
}
