package vmtest

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/charmbracelet/log"

	"github.com/mreed8855/lxd-vm/internal/config"
)

// bootProbeCommand is run inside the guest to confirm it has finished
// booting. Querying the guest's release information only succeeds once the
// OS is up enough to execute commands.
const bootProbeCommand = "lsb_release -a"

// verifyBootWithDeps polls the instance every cfg.BootInterval until a
// probe succeeds or the cumulative wait reaches cfg.BootBudget. Elapsed
// time advances in interval units, so exactly budget/interval probes are
// attempted before giving up; a slow probe is not independently bounded.
func verifyBootWithDeps(ctx context.Context, cfg *config.Run, hv hypervisor) error {
	probes := int(cfg.BootBudget / cfg.BootInterval)
	if probes < 1 {
		probes = 1
	}

	log.Debug("Waiting for the guest to finish booting",
		"name", cfg.InstanceName, "interval", cfg.BootInterval, "budget", cfg.BootBudget)

	probe := func() error {
		if err := expectOK(hv.Exec(ctx, cfg.InstanceName, bootProbeCommand)); err != nil {
			return fmt.Errorf("guest not ready: %w", err)
		}
		return nil
	}

	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(cfg.BootInterval), uint64(probes-1))
	if err := backoff.Retry(probe, backoff.WithContext(policy, ctx)); err != nil {
		return fmt.Errorf("instance %s did not boot within %s: %w",
			cfg.InstanceName, cfg.BootBudget, err)
	}

	log.Debug("Guest is up", "name", cfg.InstanceName)
	return nil
}
