package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voiceloop/voiceloop/pkg/audio/portaudio"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe",
	Short: "Record speech and transcribe it, without a spoken reply",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := portaudio.Initialize(); err != nil {
			return fmt.Errorf("initialize audio: %w", err)
		}
		defer portaudio.Terminate()

		result, err := runTranscription(ctx, cfg)
		if err != nil {
			return err
		}
		fmt.Println("\n=== Final transcription ===")
		fmt.Println(result.FinalText)
		fmt.Println("Transcript saved to", result.TranscriptPath)
		return nil
	},
}
