package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

func TestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run tests",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := test.Test()
			if err != nil {
				return fmt.Errorf("failed to run tests: %w", err)
			}
			return nil
		},
	}
	return cmd
}

func LintCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Run linting",
		RunE: func(cmd *cobra.Command, args []string) error {
			err := test.Lint()
			if err != nil {
				return fmt.Errorf("failed to run linting: %w", err)
			}
			return nil
		},
	}
	return cmd
}

// IntegrationTestCmd runs the integration suite against real hardware. The
// device settings reach the tests through PROXIMITY_I2C_* variables.
func IntegrationTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "integration-test",
		Short: "Run integration tests against an attached sensor",
		RunE: func(cmd *cobra.Command, args []string) error {
			for flag, env := range integrationEnv {
				value := cmd.Flag(flag).Value.String()
				if value == "" {
					continue
				}
				if err := os.Setenv(env, value); err != nil {
					return fmt.Errorf("could not set %s: %w", env, err)
				}
				slog.Debug("integration setting", "env", env, "value", value)
			}
			err := test.Integ()
			if err != nil {
				return fmt.Errorf("failed to run integration testing: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().String("device", "", "i2c bus the sensor is attached to, e.g. /dev/i2c-1")
	cmd.Flags().String("backend", "", "i2c backend used by the tests")
	cmd.Flags().String("board", "", "gobot board when the gobot backend is used")
	return cmd
}

var integrationEnv = map[string]string{
	"device":  "PROXIMITY_I2C_DEVICE",
	"backend": "PROXIMITY_I2C_BACKEND",
	"board":   "PROXIMITY_I2C_BOARD",
}
