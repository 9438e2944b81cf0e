package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/mod/modfile"

	"github.com/mklimuk/proximity/cmd/dev/cmd"
)

const modulePath = "github.com/mklimuk/proximity"

var errNoModule = errors.New("proximity module root not found")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("dev command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var debug bool
	var root string
	rootCmd := &cobra.Command{
		Use:          "dev",
		Short:        "Build and test tool for the proximity sensor cli",
		Long:         "Builds dist/proximity for the host or a NanoPi/Raspberry Pi and runs the unit, lint and hardware integration suites. Commands run from the module root.",
		SilenceUsage: true,
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			setupLogging(debug)
			dir := root
			if dir == "" {
				wd, err := os.Getwd()
				if err != nil {
					return fmt.Errorf("could not get working directory: %w", err)
				}
				if dir, err = moduleRoot(wd); err != nil {
					return err
				}
			}
			slog.Debug("running from module root", "dir", dir)
			return os.Chdir(dir)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&root, "root", "", "module root (default: nearest parent holding the proximity go.mod)")

	rootCmd.AddCommand(cmd.BuildCmd())
	rootCmd.AddCommand(cmd.TestCmd())
	rootCmd.AddCommand(cmd.LintCmd())
	rootCmd.AddCommand(cmd.IntegrationTestCmd())
	return rootCmd
}

func setupLogging(debug bool) {
	charm := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Prefix:          "dev",
	})
	charm.SetColorProfile(termenv.TrueColor)
	charm.SetLevel(log.InfoLevel)
	if debug {
		charm.SetLevel(log.DebugLevel)
	}
	slog.SetDefault(slog.New(charm))
}

// moduleRoot walks up from dir to the directory whose go.mod declares this
// module.
func moduleRoot(dir string) (string, error) {
	dir = filepath.Clean(dir)
	for {
		if isProximityModule(filepath.Join(dir, "go.mod")) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errNoModule
		}
		dir = parent
	}
}

func isProximityModule(gomod string) bool {
	raw, err := os.ReadFile(gomod)
	if err != nil {
		return false
	}
	return modfile.ModulePath(raw) == modulePath
}
