package vmtest

import (
	"context"
	"fmt"
	"net/url"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"

	"github.com/mreed8855/lxd-vm/internal/command"
	"github.com/mreed8855/lxd-vm/internal/config"
	"github.com/mreed8855/lxd-vm/internal/image"
	"github.com/mreed8855/lxd-vm/internal/lxd"
)

// Run provisions the VM described by cfg, verifies the guest boots, and
// tears down the image and instance it created.
//
// The returned error describes the first fatal failure; cleanup has run
// regardless by the time Run returns.
func Run(ctx context.Context, cfg *config.Run) error {
	return runWithDeps(ctx, cfg, lxd.NewClient(), image.NewResolver())
}

// runWithDeps runs the full lifecycle with injected collaborators.
// This allows for testing by accepting interfaces instead of concrete types.
func runWithDeps(ctx context.Context, cfg *config.Run, hv hypervisor, images imageResolver) error {
	provErr := provisionWithDeps(ctx, cfg, hv, images)

	var bootErr error
	if provErr == nil {
		bootErr = verifyBootWithDeps(ctx, cfg, hv)
	}

	// Cleanup runs exactly once, after verification (or after the failure
	// that made verification unreachable).
	cleanupWithDeps(ctx, cfg, hv)

	if provErr != nil {
		return fmt.Errorf("provisioning failed: %w", provErr)
	}
	if bootErr != nil {
		return fmt.Errorf("boot verification failed: %w", bootErr)
	}
	return nil
}

// provisionWithDeps walks the provisioning sequence up to a started
// instance. Any error returned is fatal for the run.
func provisionWithDeps(ctx context.Context, cfg *config.Run, hv hypervisor, images imageResolver) error {
	// Step 1: daemon initialization. Best-effort: the daemon is commonly
	// already initialized and re-initialization fails benignly.
	log.Debug("Attempting to initialize LXD")
	if err := expectOK(hv.InitAuto(ctx)); err != nil {
		log.Warn("LXD initialization failed, assuming already initialized", "err", err)
	}

	// Step 2: resolve image locators to local paths.
	template, err := resolveLocator(ctx, images, cfg.Template, cfg.CacheDir)
	if err != nil {
		return fmt.Errorf("failed to resolve template %s: %w", cfg.Template, err)
	}
	rootfs, err := resolveLocator(ctx, images, cfg.Rootfs, cfg.CacheDir)
	if err != nil {
		return fmt.Errorf("failed to resolve rootfs %s: %w", cfg.Rootfs, err)
	}

	// Step 3: acquire the image. The local import path is taken only when
	// both tarballs are available; anything less falls back to the
	// remote catalog.
	source := cfg.DefaultRemote + cfg.OSRelease
	if template != "" && rootfs != "" {
		log.Debug("Importing local images into LXD",
			"template", template, "rootfs", rootfs, "alias", cfg.ImageAlias)
		if err := expectOK(hv.ImageImport(ctx, template, rootfs, cfg.ImageAlias)); err != nil {
			return fmt.Errorf("failed to import local images: %w", err)
		}
		source = cfg.ImageAlias
	} else {
		log.Debug("No local image pair available, importing from default remote",
			"remote", cfg.DefaultRemote, "release", cfg.OSRelease, "alias", cfg.ImageAlias)
		copyImage := func() error {
			return expectOK(hv.ImageCopy(ctx, cfg.DefaultRemote, cfg.OSRelease, cfg.ImageAlias))
		}
		if err := retryImmediate(copyImage, cfg.ImportRetries); err != nil {
			return fmt.Errorf("failed to copy image from %s%s: %w",
				cfg.DefaultRemote, cfg.OSRelease, err)
		}
	}

	// Step 4: create the instance, stopped, as a VM.
	log.Debug("Creating instance", "source", source, "name", cfg.InstanceName)
	if err := expectOK(hv.Init(ctx, source, cfg.InstanceName, true)); err != nil {
		return fmt.Errorf("failed to create instance %s: %w", cfg.InstanceName, err)
	}

	// Step 5: start it.
	log.Debug("Starting instance", "name", cfg.InstanceName)
	if err := expectOK(hv.Start(ctx, cfg.InstanceName)); err != nil {
		return fmt.Errorf("failed to start instance %s: %w", cfg.InstanceName, err)
	}

	// Step 6: instance listing, diagnostics only.
	if res, err := hv.List(ctx); err == nil && res.OK() {
		log.Debug("Instance listing", "output", res.Stdout)
	}

	return nil
}

// retryImmediate retries op with no delay between attempts, allowing
// retries extra attempts beyond the first. It stops on the first success.
func retryImmediate(op func() error, retries int) error {
	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(0), uint64(retries))
	return backoff.Retry(op, policy)
}

// expectOK collapses a command invocation into an error when the command
// could not run at all or exited nonzero.
func expectOK(res *command.Result, err error) error {
	if err != nil {
		return err
	}
	if !res.OK() {
		return fmt.Errorf("command %q exited with status %d", res.Cmd, res.ExitCode)
	}
	return nil
}

// resolveLocator turns an image locator into a local path. HTTP(S) URLs go
// through the download cache; anything else is treated as a local path and
// used directly. An empty locator stays empty.
func resolveLocator(ctx context.Context, images imageResolver, locator, cacheDir string) (string, error) {
	if locator == "" {
		return "", nil
	}
	if !isRemote(locator) {
		return locator, nil
	}
	return images.Resolve(ctx, locator, cacheDir)
}

func isRemote(locator string) bool {
	u, err := url.Parse(locator)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}
