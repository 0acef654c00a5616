// Package vmtest drives the end-to-end LXD VM validation run.
//
// A run is a linear sequence: best-effort daemon initialization, image
// acquisition (local tarball pair or remote catalog copy with bounded
// retry), instance creation and start, then a bounded poll until the guest
// confirms it has booted. The image and instance created along the way are
// always deleted afterwards, no matter where the run failed.
//
// Error Handling:
//
// Fatal failures short-circuit the remaining provisioning steps but never
// skip cleanup. Cleanup itself is best-effort: its failures are logged and
// never returned to the caller.
//
// The package mutates no local state; everything it creates lives in the
// hypervisor and is addressed by the run's generated image alias and fixed
// instance name.
package vmtest
