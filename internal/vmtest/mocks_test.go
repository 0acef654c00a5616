package vmtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/mreed8855/lxd-vm/internal/command"
)

// okResult builds a successful result for cmdline.
func okResult(cmdline string) *command.Result {
	return &command.Result{Cmd: cmdline}
}

// failResult builds a failing result for cmdline.
func failResult(cmdline string) *command.Result {
	return &command.Result{Cmd: cmdline, ExitCode: 1, Stderr: "simulated failure"}
}

type importCall struct {
	template, rootfs, alias string
}

type copyCall struct {
	remote, release, alias string
}

type initCall struct {
	source, name string
	vm           bool
}

// mockHypervisor is a mock implementation of the hypervisor interface for
// testing. Every operation succeeds by default.
type mockHypervisor struct {
	mu sync.Mutex

	// Configurable behavior
	initAutoFunc    func() (*command.Result, error)
	imageImportFunc func(template, rootfs, alias string) (*command.Result, error)
	imageCopyFunc   func(remote, release, alias string) (*command.Result, error)
	imageDeleteFunc func(alias string) (*command.Result, error)
	initFunc        func(source, name string, vm bool) (*command.Result, error)
	startFunc       func(name string) (*command.Result, error)
	listFunc        func() (*command.Result, error)
	execFunc        func(name, guestCmd string) (*command.Result, error)
	deleteForceFunc func(name string) (*command.Result, error)

	// Call tracking
	initAutoCalls    int
	imageImportCalls []importCall
	imageCopyCalls   []copyCall
	imageDeleteCalls []string
	initCalls        []initCall
	startCalls       []string
	listCalls        int
	execCalls        []string
	deleteForceCalls []string
}

// newMockHypervisor creates a mock where every operation succeeds.
func newMockHypervisor() *mockHypervisor {
	m := &mockHypervisor{}

	m.initAutoFunc = func() (*command.Result, error) {
		return okResult("lxd init --auto"), nil
	}
	m.imageImportFunc = func(template, rootfs, alias string) (*command.Result, error) {
		return okResult(fmt.Sprintf("lxc image import %s rootfs %s --alias %s", template, rootfs, alias)), nil
	}
	m.imageCopyFunc = func(remote, release, alias string) (*command.Result, error) {
		return okResult(fmt.Sprintf("lxc image copy %s%s local: --alias %s", remote, release, alias)), nil
	}
	m.imageDeleteFunc = func(alias string) (*command.Result, error) {
		return okResult(fmt.Sprintf("lxc image delete %s", alias)), nil
	}
	m.initFunc = func(source, name string, vm bool) (*command.Result, error) {
		return okResult(fmt.Sprintf("lxc init %s %s --vm", source, name)), nil
	}
	m.startFunc = func(name string) (*command.Result, error) {
		return okResult(fmt.Sprintf("lxc start %s", name)), nil
	}
	m.listFunc = func() (*command.Result, error) {
		return okResult("lxc list"), nil
	}
	m.execFunc = func(name, guestCmd string) (*command.Result, error) {
		return okResult(fmt.Sprintf("lxc exec %s -- %s", name, guestCmd)), nil
	}
	m.deleteForceFunc = func(name string) (*command.Result, error) {
		return okResult(fmt.Sprintf("lxc delete --force %s", name)), nil
	}

	return m
}

func (m *mockHypervisor) InitAuto(_ context.Context) (*command.Result, error) {
	m.mu.Lock()
	m.initAutoCalls++
	m.mu.Unlock()
	return m.initAutoFunc()
}

func (m *mockHypervisor) ImageImport(_ context.Context, template, rootfs, alias string) (*command.Result, error) {
	m.mu.Lock()
	m.imageImportCalls = append(m.imageImportCalls, importCall{template, rootfs, alias})
	m.mu.Unlock()
	return m.imageImportFunc(template, rootfs, alias)
}

func (m *mockHypervisor) ImageCopy(_ context.Context, remote, release, alias string) (*command.Result, error) {
	m.mu.Lock()
	m.imageCopyCalls = append(m.imageCopyCalls, copyCall{remote, release, alias})
	m.mu.Unlock()
	return m.imageCopyFunc(remote, release, alias)
}

func (m *mockHypervisor) ImageDelete(_ context.Context, alias string) (*command.Result, error) {
	m.mu.Lock()
	m.imageDeleteCalls = append(m.imageDeleteCalls, alias)
	m.mu.Unlock()
	return m.imageDeleteFunc(alias)
}

func (m *mockHypervisor) Init(_ context.Context, source, name string, vm bool) (*command.Result, error) {
	m.mu.Lock()
	m.initCalls = append(m.initCalls, initCall{source, name, vm})
	m.mu.Unlock()
	return m.initFunc(source, name, vm)
}

func (m *mockHypervisor) Start(_ context.Context, name string) (*command.Result, error) {
	m.mu.Lock()
	m.startCalls = append(m.startCalls, name)
	m.mu.Unlock()
	return m.startFunc(name)
}

func (m *mockHypervisor) List(_ context.Context) (*command.Result, error) {
	m.mu.Lock()
	m.listCalls++
	m.mu.Unlock()
	return m.listFunc()
}

func (m *mockHypervisor) Exec(_ context.Context, name, guestCmd string) (*command.Result, error) {
	m.mu.Lock()
	m.execCalls = append(m.execCalls, guestCmd)
	m.mu.Unlock()
	return m.execFunc(name, guestCmd)
}

func (m *mockHypervisor) DeleteForce(_ context.Context, name string) (*command.Result, error) {
	m.mu.Lock()
	m.deleteForceCalls = append(m.deleteForceCalls, name)
	m.mu.Unlock()
	return m.deleteForceFunc(name)
}

// mockResolver is a mock implementation of the imageResolver interface.
type mockResolver struct {
	mu sync.Mutex

	resolveFunc  func(rawURL, destDir string) (string, error)
	resolveCalls []string
}

// newMockResolver creates a mock that "downloads" every URL successfully,
// returning a fake local path.
func newMockResolver() *mockResolver {
	return &mockResolver{
		resolveFunc: func(rawURL, destDir string) (string, error) {
			return destDir + "/resolved.tar.xz", nil
		},
	}
}

func (m *mockResolver) Resolve(_ context.Context, rawURL, destDir string) (string, error) {
	m.mu.Lock()
	m.resolveCalls = append(m.resolveCalls, rawURL)
	m.mu.Unlock()
	return m.resolveFunc(rawURL, destDir)
}
