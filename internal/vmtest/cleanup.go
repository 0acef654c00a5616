package vmtest

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/mreed8855/lxd-vm/internal/config"
)

// cleanupWithDeps deletes the image and instance created during the run.
// It runs unconditionally, whether or not the image or instance actually
// exist.
//
// This is best-effort: failures are logged but never returned, so cleanup
// can never mask the run's own result.
func cleanupWithDeps(ctx context.Context, cfg *config.Run, hv hypervisor) {
	log.Debug("Cleaning up images and instances created during the run")

	if err := expectOK(hv.ImageDelete(ctx, cfg.ImageAlias)); err != nil {
		log.Warn("Failed to delete image", "alias", cfg.ImageAlias, "err", err)
	}

	if err := expectOK(hv.DeleteForce(ctx, cfg.InstanceName)); err != nil {
		log.Warn("Failed to delete instance", "name", cfg.InstanceName, "err", err)
	}
}
