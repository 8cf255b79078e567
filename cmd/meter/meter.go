// Package meter implements the live metering subcommand.
package meter

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/openmeters/openmeters-go/internal/conf"
	"github.com/openmeters/openmeters-go/internal/realtime"
)

// Command creates the meter subcommand.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meter",
		Short: "Meter system audio in real time",
		Long:  "Capture the system audio output and display live peak and RMS levels.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return realtime.RunSession(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the meter command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.Audio.Device, "device", settings.Audio.Device, "Playback device to meter (\"default\" for the system output)")
	cmd.Flags().BoolVar(&settings.Audio.MirrorMono, "mirrormono", settings.Audio.MirrorMono, "Report a mono source on both meter channels")
	cmd.Flags().BoolVar(&settings.Export.Enabled, "export", settings.Export.Enabled, "Record the captured audio to a WAV file")
	cmd.Flags().StringVar(&settings.Export.Path, "exportpath", settings.Export.Path, "Directory for exported WAV files")
	cmd.Flags().BoolVar(&settings.Telemetry.Enabled, "telemetry", settings.Telemetry.Enabled, "Enable Prometheus telemetry endpoint")
	cmd.Flags().StringVar(&settings.Telemetry.Listen, "listen", settings.Telemetry.Listen, "Listen address and port of telemetry endpoint")

	bindings := map[string]string{
		"audio.device":      "device",
		"audio.mirrormono":  "mirrormono",
		"export.enabled":    "export",
		"export.path":       "exportpath",
		"telemetry.enabled": "telemetry",
		"telemetry.listen":  "listen",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("error binding flags: %w", err)
		}
	}

	return nil
}
