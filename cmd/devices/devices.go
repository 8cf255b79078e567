// Package devices implements the device listing subcommand.
package devices

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openmeters/openmeters-go/internal/audiocore/capture"
)

// Command creates the devices subcommand.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List playback devices available for metering",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listDevices(cmd)
		},
	}
}

func listDevices(cmd *cobra.Command) error {
	deviceList, err := capture.ListPlaybackDevices()
	if err != nil {
		return fmt.Errorf("failed to enumerate playback devices: %w", err)
	}

	if len(deviceList) == 0 {
		cmd.Println("No playback devices found")
		return nil
	}

	for _, d := range deviceList {
		marker := " "
		if d.IsDefault {
			marker = "*"
		}
		cmd.Printf("%s %2d: %s\n", marker, d.Index, d.Name)
	}
	cmd.Println("\n* = system default output")
	return nil
}
