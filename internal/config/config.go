// Package config defines the harness settings and the immutable
// configuration of a single test run.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/mreed8855/lxd-vm/internal/release"
)

// Defaults applied by Settings.SetDefaults.
const (
	DefaultInstanceName  = "testbed"
	DefaultRemote        = "ubuntu:"
	DefaultBootInterval  = 5 * time.Second
	DefaultBootBudget    = 60 * time.Second
	DefaultImportRetries = 2
)

// Settings are the harness-level knobs, optionally loaded from a YAML
// file. Zero values are replaced by defaults.
type Settings struct {
	InstanceName  string        `yaml:"instance_name,omitempty"`
	DefaultRemote string        `yaml:"default_remote,omitempty"`
	CacheDir      string        `yaml:"cache_dir,omitempty"`
	OSRelease     string        `yaml:"os_release,omitempty"` // override host release detection
	BootInterval  time.Duration `yaml:"boot_interval,omitempty"`
	BootBudget    time.Duration `yaml:"boot_budget,omitempty"`
	ImportRetries int           `yaml:"import_retries,omitempty"` // extra attempts beyond the first
}

// DefaultSettings returns Settings with every default applied.
func DefaultSettings() Settings {
	var s Settings
	s.SetDefaults()
	return s
}

// LoadFromFile loads, defaults and validates settings from a YAML file.
func LoadFromFile(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}

	s.SetDefaults()
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings in %s: %w", path, err)
	}

	return &s, nil
}

// SetDefaults fills unset fields with their defaults.
func (s *Settings) SetDefaults() {
	if s.InstanceName == "" {
		s.InstanceName = DefaultInstanceName
	}
	if s.DefaultRemote == "" {
		s.DefaultRemote = DefaultRemote
	}
	if s.CacheDir == "" {
		s.CacheDir = os.TempDir()
	}
	if s.BootInterval == 0 {
		s.BootInterval = DefaultBootInterval
	}
	if s.BootBudget == 0 {
		s.BootBudget = DefaultBootBudget
	}
	if s.ImportRetries == 0 {
		s.ImportRetries = DefaultImportRetries
	}
}

// instanceNamePattern matches LXD instance name requirements: alphanumeric
// start and end, hyphens allowed inside.
var instanceNamePattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?$`)

// Validate checks the settings for errors. It does not validate hypervisor
// state, only the settings themselves.
func (s *Settings) Validate() error {
	if !instanceNamePattern.MatchString(s.InstanceName) {
		return fmt.Errorf("instance_name must be alphanumeric with optional inner hyphens, got %q", s.InstanceName)
	}
	if s.BootInterval <= 0 {
		return fmt.Errorf("boot_interval must be > 0, got %s", s.BootInterval)
	}
	if s.BootBudget < s.BootInterval {
		return fmt.Errorf("boot_budget must be >= boot_interval, got %s < %s", s.BootBudget, s.BootInterval)
	}
	if s.ImportRetries < 0 {
		return fmt.Errorf("import_retries must be >= 0, got %d", s.ImportRetries)
	}
	return nil
}

// Run is the immutable configuration of one harness run. It is constructed
// once at the start of the run and only read afterwards.
type Run struct {
	// Template and Rootfs are optional image locators, each either a
	// local filesystem path or an HTTP(S) URL. Empty means not provided.
	Template string
	Rootfs   string

	InstanceName  string
	ImageAlias    string // generated, unique per run
	DefaultRemote string
	OSRelease     string
	CacheDir      string

	BootInterval  time.Duration
	BootBudget    time.Duration
	ImportRetries int
}

// NewRun builds the configuration for a single run. The image alias is a
// freshly generated unique token; the OS release is detected from the host
// unless overridden in the settings.
func NewRun(s Settings, template, rootfs string) (*Run, error) {
	s.SetDefaults()
	if err := s.Validate(); err != nil {
		return nil, err
	}

	osRelease := s.OSRelease
	if osRelease == "" {
		detected, err := release.Detect()
		if err != nil {
			return nil, fmt.Errorf("failed to detect host OS release: %w", err)
		}
		osRelease = detected
	}

	return &Run{
		Template:      template,
		Rootfs:        rootfs,
		InstanceName:  s.InstanceName,
		ImageAlias:    newImageAlias(),
		DefaultRemote: s.DefaultRemote,
		OSRelease:     osRelease,
		CacheDir:      s.CacheDir,
		BootInterval:  s.BootInterval,
		BootBudget:    s.BootBudget,
		ImportRetries: s.ImportRetries,
	}, nil
}

// newImageAlias returns a collision-resistant identifier for the imported
// image, as a bare hex string so it is safe in command lines.
func newImageAlias() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
