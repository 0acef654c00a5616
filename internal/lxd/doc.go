// Package lxd wraps the LXD command line surface the harness consumes.
//
// The hypervisor is driven exclusively through the lxd/lxc binaries; this
// package does not speak the LXD REST API. Each method issues exactly one
// command, logs its outcome (debug on success, error with full command,
// stdout and stderr on failure), and returns the structured result so the
// caller can decide how to react. Nonzero exit is never turned into an
// error here.
//
// Consumer-Side Interface:
//
// Consumers (internal/vmtest) define their own interface listing only the
// operations they need. This package's Client satisfies it implicitly.
package lxd
