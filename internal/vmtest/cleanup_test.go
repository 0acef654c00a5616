package vmtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/mreed8855/lxd-vm/internal/command"
)

func TestCleanup_DeletesImageAndInstance(t *testing.T) {
	ctx := context.Background()
	cfg := testRunConfig()
	mock := newMockHypervisor()

	cleanupWithDeps(ctx, cfg, mock)

	if len(mock.imageDeleteCalls) != 1 || mock.imageDeleteCalls[0] != cfg.ImageAlias {
		t.Errorf("expected image delete for %q, got %v", cfg.ImageAlias, mock.imageDeleteCalls)
	}
	if len(mock.deleteForceCalls) != 1 || mock.deleteForceCalls[0] != cfg.InstanceName {
		t.Errorf("expected forced delete for %q, got %v", cfg.InstanceName, mock.deleteForceCalls)
	}
}

func TestCleanup_ImageDeleteFailureDoesNotSkipInstanceDelete(t *testing.T) {
	ctx := context.Background()
	cfg := testRunConfig()
	mock := newMockHypervisor()

	mock.imageDeleteFunc = func(alias string) (*command.Result, error) {
		return failResult("lxc image delete " + alias), nil
	}

	cleanupWithDeps(ctx, cfg, mock)

	if len(mock.deleteForceCalls) != 1 {
		t.Errorf("expected instance delete despite image delete failure, got %d", len(mock.deleteForceCalls))
	}
}

func TestCleanup_NeverEscalatesFailures(t *testing.T) {
	ctx := context.Background()
	cfg := testRunConfig()
	mock := newMockHypervisor()

	// Both deletions fail outright; cleanup must still complete quietly.
	mock.imageDeleteFunc = func(alias string) (*command.Result, error) {
		return nil, fmt.Errorf("simulated spawn failure")
	}
	mock.deleteForceFunc = func(name string) (*command.Result, error) {
		return failResult("lxc delete --force " + name), nil
	}

	cleanupWithDeps(ctx, cfg, mock)

	if len(mock.imageDeleteCalls) != 1 || len(mock.deleteForceCalls) != 1 {
		t.Error("expected both deletions to be attempted exactly once")
	}
}
