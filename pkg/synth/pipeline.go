package synth

import (
	"context"
	"log/slog"

	"github.com/voiceloop/voiceloop/pkg/audio/wav"
)

// Pipeline runs synthesis and playback concurrently. Sentences are
// synthesized in arrival order and played in the same order, each exactly
// once. A failure in either stage halts the pipeline; sentences after the
// failed one are never synthesized.
type Pipeline struct {
	synth  Synthesizer
	player Player
	logger *slog.Logger
	depth  int
}

// NewPipeline creates a pipeline. depth is the number of synthesized clips
// that may wait for playback; values below 1 are raised to 1.
func NewPipeline(synth Synthesizer, player Player, depth int, logger *slog.Logger) *Pipeline {
	if depth < 1 {
		depth = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{synth: synth, player: player, logger: logger, depth: depth}
}

// Run consumes sentences until the channel closes and plays every
// synthesized clip. It returns the first stage error, or nil once all
// sentences have been spoken.
func (p *Pipeline) Run(ctx context.Context, sentences <-chan string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	clips := make(chan *wav.Clip, p.depth)
	var synthErr error
	go func() {
		defer close(clips)
		for {
			var text string
			var ok bool
			select {
			case <-ctx.Done():
				synthErr = ctx.Err()
				return
			case text, ok = <-sentences:
				if !ok {
					return
				}
			}

			clip, err := p.synth.Synthesize(ctx, text)
			if err != nil {
				synthErr = err
				return
			}
			p.logger.Debug("synthesized sentence",
				"text", text, "bytes", len(clip.Data), "rate", clip.SampleRate)

			select {
			case <-ctx.Done():
				synthErr = ctx.Err()
				return
			case clips <- clip:
			}
		}
	}()

	for clip := range clips {
		if err := p.player.Play(ctx, clip); err != nil {
			cancel()
			// Unblock the synthesis stage before reporting.
			for range clips {
			}
			return err
		}
	}
	return synthErr
}
