package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mreed8855/lxd-vm/internal/config"
	"github.com/mreed8855/lxd-vm/internal/vmtest"
)

var (
	version = "dev"
	commit  = "unknown"
)

// errRunFailed marks a completed run that failed; the FAIL line has
// already been printed when it is returned.
var errRunFailed = errors.New("run failed")

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lxd-vm",
	Short: "LXD virtualization test harness",
	Long: `lxd-vm validates KVM virtual machine provisioning through LXD.

A run imports a base image (local tarballs or the default remote catalog),
creates and starts a VM instance, waits for the guest to finish booting,
and always deletes the image and instance it created.`,
	Version: fmt.Sprintf("%s (commit: %s)", version, commit),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debugLogging {
			log.SetLevel(log.DebugLevel)
		}
	},
}

var (
	debugLogging bool
	settingsPath string
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugLogging, "debug", false,
		"enable detailed diagnostic logging")

	vmCmd.Flags().String("template", "",
		"template tarball path or URL (overrides LXD_TEMPLATE)")
	vmCmd.Flags().String("rootfs", "",
		"rootfs tarball path or URL (overrides LXD_ROOTFS)")
	vmCmd.Flags().StringVar(&settingsPath, "config", "",
		"harness settings file (YAML)")

	rootCmd.AddCommand(vmCmd)
}

var vmCmd = &cobra.Command{
	Use:   "vm",
	Short: "Run the LXD VM validation test",
	Long: `Provision an LXD virtual machine and verify the guest boots.

The template and rootfs tarballs may be given as local paths or URLs, via
the LXD_TEMPLATE and LXD_ROOTFS environment variables or the corresponding
flags (flags win). With no tarballs, the image is copied from the default
remote catalog at the host's OS release.`,
	RunE: runVM,
}

func runVM(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	// Environment variables provide the locators; explicit flags override.
	v := viper.New()
	if err := v.BindPFlag("template", cmd.Flags().Lookup("template")); err != nil {
		return err
	}
	if err := v.BindPFlag("rootfs", cmd.Flags().Lookup("rootfs")); err != nil {
		return err
	}
	_ = v.BindEnv("template", "LXD_TEMPLATE")
	_ = v.BindEnv("rootfs", "LXD_ROOTFS")

	settings := config.DefaultSettings()
	if settingsPath != "" {
		loaded, err := config.LoadFromFile(settingsPath)
		if err != nil {
			return err
		}
		settings = *loaded
	}

	run, err := config.NewRun(settings, v.GetString("template"), v.GetString("rootfs"))
	if err != nil {
		return err
	}

	if err := vmtest.Run(cmd.Context(), run); err != nil {
		cmd.SilenceErrors = true
		color.Red("FAIL: VM was not started and checked: %v", err)
		return errRunFailed
	}

	color.Green("PASS: VM was successfully started and checked")
	return nil
}
