package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/voiceloop/voiceloop/pkg/config"
)

var (
	// Global flags
	cfgFile string
	verbose bool

	// Global configuration
	globalConfig *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "voiceloop",
	Short: "Live microphone transcription with a spoken reply",
	Long: `voiceloop captures microphone audio, streams it to the realtime
transcription API, and speaks a generated reply to the transcript.

Examples:
  # Full loop: record until Enter, then hear the reply
  voiceloop run

  # Transcription only
  voiceloop transcribe

  # Synthesize arbitrary text
  voiceloop speak "Hello there."

The OpenAI API key is read from the api_key config entry, which defaults
to the OPENAI_API_KEY environment variable.
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadGlobalConfig()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(transcribeCmd)
	rootCmd.AddCommand(speakCmd)
	rootCmd.AddCommand(devicesCmd)
}

func initConfig() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})))
}

// loadGlobalConfig resolves the configuration before any subcommand runs.
// An explicitly passed --config that cannot be loaded fails the command
// rather than silently falling back to defaults.
func loadGlobalConfig() error {
	if cfgFile == "" {
		globalConfig = config.Default()
		return nil
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config %s: %w", cfgFile, err)
	}
	globalConfig = cfg
	return nil
}

// getConfig returns the global configuration
func getConfig() *config.Config {
	return globalConfig
}
