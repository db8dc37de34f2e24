package commands

import (
	"bufio"
	"context"
	"fmt"
	"iter"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/spf13/cobra"
	"google.golang.org/api/iterator"

	"github.com/voiceloop/voiceloop/pkg/audio/pcm"
	"github.com/voiceloop/voiceloop/pkg/audio/portaudio"
	"github.com/voiceloop/voiceloop/pkg/audio/wav"
	"github.com/voiceloop/voiceloop/pkg/capture"
	"github.com/voiceloop/voiceloop/pkg/config"
	"github.com/voiceloop/voiceloop/pkg/realtime"
	"github.com/voiceloop/voiceloop/pkg/respond"
	"github.com/voiceloop/voiceloop/pkg/sentence"
	"github.com/voiceloop/voiceloop/pkg/synth"
	"github.com/voiceloop/voiceloop/pkg/transcript"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Record speech, transcribe it, and speak a generated reply",
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

		return speakReply(ctx, cfg, result.TranscriptPath)
	},
}

type transcriptionResult struct {
	FinalText      string
	TranscriptPath string
}

// runTranscription records from the default microphone until Enter is
// pressed (or ctx is canceled) and returns the finished transcript.
// PortAudio must already be initialized.
func runTranscription(ctx context.Context, cfg *config.Config) (*transcriptionResult, error) {
	apiKey, err := cfg.ResolveAPIKey()
	if err != nil {
		return nil, err
	}
	interval, err := cfg.CommitInterval()
	if err != nil {
		return nil, err
	}
	format, ok := pcm.FormatFor(cfg.Audio.SampleRate)
	if !ok {
		return nil, fmt.Errorf("unsupported sample rate %d", cfg.Audio.SampleRate)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	t0 := time.Now().Unix()
	transcriptPath := filepath.Join(cfg.OutputDir, fmt.Sprintf("transcript_%d.txt", t0))
	recordingPath := filepath.Join(cfg.OutputDir, fmt.Sprintf("microphone_recording_%d.wav", t0))

	transcriptFile, err := os.Create(transcriptPath)
	if err != nil {
		return nil, fmt.Errorf("create transcript file: %w", err)
	}
	defer transcriptFile.Close()

	recordingFile, err := os.Create(recordingPath)
	if err != nil {
		return nil, fmt.Errorf("create recording file: %w", err)
	}
	defer recordingFile.Close()
	mirror, err := wav.NewWriter(recordingFile, format)
	if err != nil {
		return nil, fmt.Errorf("create recording writer: %w", err)
	}
	defer mirror.Close()

	// The microphone is opened before any network I/O so a missing device
	// fails the session without touching the remote service.
	mic, err := portaudio.NewInputStream(format, cfg.Audio.ChunkSize)
	if err != nil {
		return nil, fmt.Errorf("open microphone: %w", err)
	}
	defer mic.Close()

	tcfg := &realtime.TranscriptionConfig{
		Model:    cfg.Transcription.Model,
		Language: cfg.Transcription.Language,
		Prompt:   cfg.Transcription.Prompt,
	}
	client := realtime.NewClient(apiKey)
	token, err := client.CreateTranscriptionSession(ctx, tcfg)
	if err != nil {
		return nil, err
	}
	session, err := client.Connect(ctx, token)
	if err != nil {
		return nil, err
	}
	defer session.Close()
	if err := session.UpdateTranscriptionSession(tcfg); err != nil {
		return nil, err
	}

	ring := capture.NewRing(capture.OverlapChunks(cfg.Audio.SampleRate, cfg.Audio.ChunkSize, cfg.Audio.OverlapSeconds))
	source := capture.NewSource(mic, ring, session.AppendAudio, mirror, nil)
	if err := source.Validate(); err != nil {
		return nil, err
	}
	scheduler := capture.NewScheduler(ring, session, interval, nil)
	processor := transcript.NewProcessor(transcriptFile, scheduler.Final, nil)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The capture goroutine is joined before the deferred mirror and mic
	// closes run, so no write races the WAV header patch.
	sourceDone := make(chan struct{})
	go func() {
		defer close(sourceDone)
		source.Run(ctx)
	}()
	go func() {
		if err := scheduler.Run(ctx); err != nil && ctx.Err() == nil {
			slog.Error("commit scheduler failed", "error", err)
			cancel()
		}
	}()
	consumeErr := make(chan error, 1)
	go func() {
		consumeErr <- processor.Consume(transcriptEvents(session))
	}()

	// Enter finishes the session.
	go func() {
		bufio.NewReader(os.Stdin).ReadString('\n')
		slog.Info("finalizing session")
		scheduler.Stop()
	}()

	fmt.Println("Recording. Press Enter to finish.")
	select {
	case <-ctx.Done():
		cancel()
		<-sourceDone
		return nil, ctx.Err()
	case <-processor.Done():
	}
	cancel()
	<-sourceDone
	session.Close()

	if err := <-consumeErr; err != nil {
		return nil, err
	}
	return &transcriptionResult{
		FinalText:      processor.FinalText(),
		TranscriptPath: transcriptPath,
	}, nil
}

// transcriptEvents narrows realtime server events to transcription events.
func transcriptEvents(session *realtime.Session) iter.Seq2[transcript.Event, error] {
	return func(yield func(transcript.Event, error) bool) {
		for ev, err := range session.Events() {
			if err != nil {
				yield(transcript.Event{}, err)
				return
			}
			switch ev.Type {
			case realtime.EventTypeTranscriptionDelta:
				if !yield(transcript.Event{Kind: transcript.Delta, Text: ev.Delta}, nil) {
					return
				}
			case realtime.EventTypeTranscriptionCompleted:
				if !yield(transcript.Event{Kind: transcript.Completed, Text: ev.Transcript}, nil) {
					return
				}
			case realtime.EventTypeError, realtime.EventTypeTranscriptionFailed:
				detail := &realtime.Error{Code: "unknown", Message: "no error detail"}
				if ev.Error != nil {
					detail = ev.Error.ToError()
				}
				if !yield(transcript.Event{Kind: transcript.Error, Err: detail}, nil) {
					return
				}
			}
		}
	}
}

// speakReply generates a reply to the recorded transcript and plays it
// sentence by sentence.
func speakReply(ctx context.Context, cfg *config.Config, transcriptPath string) error {
	apiKey, err := cfg.ResolveAPIKey()
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(transcriptPath)
	if err != nil {
		return fmt.Errorf("read transcript: %w", err)
	}
	cleanupPrompt, err := respond.ReadPrompt(cfg.Response.CleanupPrompt)
	if err != nil {
		return err
	}
	responsePrompt, err := respond.ReadPrompt(cfg.Response.ResponsePrompt)
	if err != nil {
		return err
	}
	instructions, err := respond.ReadPrompt(cfg.Synthesis.InstructionsPrompt)
	if err != nil {
		return err
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))
	agent := &respond.Agent{
		Client:         client,
		CleanupModel:   cfg.Response.CleanupModel,
		ResponseModel:  cfg.Response.ResponseModel,
		CleanupPrompt:  cleanupPrompt,
		ResponsePrompt: responsePrompt,
	}
	reply, err := agent.Respond(ctx, string(raw))
	if err != nil {
		return err
	}

	sentences := make(chan string, 8)
	go func() {
		defer close(sentences)
		it := sentence.Stream(reply)
		for {
			s, err := it.Next()
			if err == iterator.Done {
				return
			}
			if err != nil {
				slog.Error("reply stream failed", "error", err)
				return
			}
			select {
			case <-ctx.Done():
				return
			case sentences <- s:
			}
		}
	}()

	speech := synth.NewSpeech(client, openai.SpeechModel(cfg.Synthesis.Model), synth.Voice(cfg.Synthesis.Voice), instructions)
	slog.Info("speaking reply", "voice", string(speech.Voice))
	pipeline := synth.NewPipeline(speech, &synth.DevicePlayer{}, 2, nil)
	return pipeline.Run(ctx, sentences)
}
