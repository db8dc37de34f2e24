package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/spf13/cobra"

	"github.com/voiceloop/voiceloop/pkg/audio/portaudio"
	"github.com/voiceloop/voiceloop/pkg/respond"
	"github.com/voiceloop/voiceloop/pkg/synth"
)

var speakVoice string

var speakCmd = &cobra.Command{
	Use:   "speak <text>...",
	Short: "Synthesize and play a piece of text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfig()
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		apiKey, err := cfg.ResolveAPIKey()
		if err != nil {
			return err
		}
		voice := cfg.Synthesis.Voice
		if speakVoice != "" {
			voice = speakVoice
		}
		instructions := loadInstructions(cfg.Synthesis.InstructionsPrompt)

		if err := portaudio.Initialize(); err != nil {
			return fmt.Errorf("initialize audio: %w", err)
		}
		defer portaudio.Terminate()

		client := openai.NewClient(option.WithAPIKey(apiKey))
		speech := synth.NewSpeech(client, openai.SpeechModel(cfg.Synthesis.Model), synth.Voice(voice), instructions)
		clip, err := speech.Synthesize(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		player := &synth.DevicePlayer{}
		return player.Play(ctx, clip)
	},
}

// loadInstructions reads the optional TTS instructions prompt. A missing or
// unreadable file is logged and the synthesis proceeds without instructions.
func loadInstructions(path string) string {
	if path == "" {
		return ""
	}
	p, err := respond.ReadPrompt(path)
	if err != nil {
		slog.Warn("instructions prompt unavailable, synthesizing without it", "path", path, "error", err)
		return ""
	}
	return p
}

func init() {
	speakCmd.Flags().StringVar(&speakVoice, "voice", "", "voice name (echo, alloy, onyx, random)")
}
