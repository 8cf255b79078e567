// Package cmd assembles the command line interface.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openmeters/openmeters-go/cmd/devices"
	"github.com/openmeters/openmeters-go/cmd/meter"
	"github.com/openmeters/openmeters-go/internal/conf"
	"github.com/openmeters/openmeters-go/internal/logging"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "openmeters",
		Short: "OpenMeters CLI",
		Long:  "Real-time peak and RMS metering of system audio output.",
	}

	if err := setupFlags(rootCmd, settings); err != nil {
		cobra.CheckErr(err)
	}

	rootCmd.AddCommand(
		meter.Command(settings),
		devices.Command(),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if settings.Debug {
			logging.SetLevel(slog.LevelDebug)
		}
		return conf.ValidateSettings(settings)
	}

	return rootCmd
}

// setupFlags configures persistent flags shared by all subcommands. Flags
// write directly into the settings struct, so command line values take
// precedence over the config file.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", settings.Debug, "Enable debug output")
	cmd.PersistentFlags().StringVar(&settings.Main.Log.Path, "logpath", settings.Main.Log.Path, "Path to the log file")

	if err := viper.BindPFlag("debug", cmd.PersistentFlags().Lookup("debug")); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}
	if err := viper.BindPFlag("main.log.path", cmd.PersistentFlags().Lookup("logpath")); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
