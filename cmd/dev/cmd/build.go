package cmd

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/gophertribe/devtool/build"
)

// boardTargets maps supported single board computers to their GOOS/GOARCH.
var boardTargets = map[string][2]string{
	"nanopi": {"linux", "arm"},
	"raspi":  {"linux", "arm64"},
}

func BuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the proximity cli",
		Long: `Build the proximity cli into dist/proximity.

Native builds use the local toolchain. Cross builds run inside the gobuild
container; --board picks the target of a supported board.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			os := cmd.Flag("os").Value.String()
			arch := cmd.Flag("arch").Value.String()
			version := cmd.Flag("version").Value.String()
			crossOs := cmd.Flag("cross-os").Value.String()
			crossArch := cmd.Flag("cross-arch").Value.String()

			if board := cmd.Flag("board").Value.String(); board != "" {
				target, ok := boardTargets[board]
				if !ok {
					return fmt.Errorf("unknown board %q", board)
				}
				crossOs, crossArch = target[0], target[1]
				slog.Info("cross compiling for board", "board", board, "os", crossOs, "arch", crossArch)
			}
			noCgo, err := cmd.Flags().GetBool("no-cgo")
			if err != nil {
				return fmt.Errorf("could not get no-cgo flag: %w", err)
			}

			// if this is a native build, use go build
			if os == runtime.GOOS && arch == runtime.GOARCH {
				if crossOs != "" && crossArch != "" {
					os = crossOs
					arch = crossArch
				}
				// the MCP2221 backend needs cgo (hidapi)
				return build.GoBuild("dist/proximity", "./cmd/proximity", build.GoBuildOpts{
					Version:       version,
					InjectVersion: true,
					ConfigPackage: "github.com/mklimuk/proximity/pkg/config",
					EnableCgo:     !noCgo,
					Arch:          arch,
					OS:            os,
				})
			}

			noCache, err := cmd.Flags().GetBool("no-cache")
			if err != nil {
				return fmt.Errorf("could not get no-cache flag: %w", err)
			}
			return build.Docker(cmd.Context(), fmt.Sprintf("./dev-%s-%s", os, arch), []string{"build", "--version", version, "--cross-os", crossOs, "--cross-arch", crossArch}, build.DockerBuildOpts{
				NoCache: noCache,
				Image:   "gophertribe/gobuild:1.25-bookworm",
			})
		},
	}
	cmd.Flags().Bool("no-cache", false, "do not use cache when building the app")
	cmd.Flags().Bool("no-cgo", false, "build without cgo (drops MCP2221 support)")
	cmd.Flags().String("version", "latest", "version of the cli")
	cmd.Flags().String("os", runtime.GOOS, "os to build for")
	cmd.Flags().String("arch", runtime.GOARCH, "arch to build for")
	cmd.Flags().String("cross-os", "", "os to cross-compile for")
	cmd.Flags().String("cross-arch", "", "arch to cross-compile for")
	cmd.Flags().String("board", "", "cross-compile for a board: nanopi or raspi")

	return cmd
}
