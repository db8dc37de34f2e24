package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voiceloop/voiceloop/pkg/audio/portaudio"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List audio devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := portaudio.Initialize(); err != nil {
			return err
		}
		defer portaudio.Terminate()

		devices, err := portaudio.Devices()
		if err != nil {
			return err
		}
		for _, d := range devices {
			mark := " "
			switch {
			case d.IsDefaultInput && d.IsDefaultOutput:
				mark = "*"
			case d.IsDefaultInput:
				mark = "i"
			case d.IsDefaultOutput:
				mark = "o"
			}
			fmt.Printf("%s [%2d] %-40s in:%-2d out:%-2d %.0f Hz\n",
				mark, d.Index, d.Name, d.MaxInputChannels, d.MaxOutputChannels, d.DefaultSampleRate)
		}
		return nil
	},
}
