package vmtest

import (
	"context"

	"github.com/mreed8855/lxd-vm/internal/command"
)

// hypervisor defines the LXD CLI operations the run consumes.
//
// In production, this is satisfied by *lxd.Client.
// In tests, this is satisfied by mock implementations.
type hypervisor interface {
	// InitAuto runs the daemon's automatic initialization
	InitAuto(ctx context.Context) (*command.Result, error)

	// ImageImport imports a local template/rootfs tarball pair under alias
	ImageImport(ctx context.Context, template, rootfs, alias string) (*command.Result, error)

	// ImageCopy copies an image from a remote catalog under alias
	ImageCopy(ctx context.Context, remote, release, alias string) (*command.Result, error)

	// ImageDelete removes the image stored under alias
	ImageDelete(ctx context.Context, alias string) (*command.Result, error)

	// Init creates a stopped instance from source
	Init(ctx context.Context, source, name string, vm bool) (*command.Result, error)

	// Start starts the named instance
	Start(ctx context.Context, name string) (*command.Result, error)

	// List lists all instances
	List(ctx context.Context) (*command.Result, error)

	// Exec runs a command inside the named instance
	Exec(ctx context.Context, name, guestCmd string) (*command.Result, error)

	// DeleteForce force-deletes the named instance
	DeleteForce(ctx context.Context, name string) (*command.Result, error)
}

// imageResolver resolves a remote tarball URL to a cached local file.
//
// In production, this is satisfied by *image.Resolver.
type imageResolver interface {
	// Resolve returns a local path for rawURL, downloading into destDir
	// only when no cached copy exists
	Resolve(ctx context.Context, rawURL, destDir string) (string, error)
}
