package synth

import (
	"context"
	"fmt"

	"github.com/voiceloop/voiceloop/pkg/audio/pcm"
	"github.com/voiceloop/voiceloop/pkg/audio/portaudio"
	"github.com/voiceloop/voiceloop/pkg/audio/wav"
)

// Player plays one clip to completion before returning.
type Player interface {
	Play(ctx context.Context, clip *wav.Clip) error
}

// DevicePlayer plays clips on the default output device. A fresh stream is
// opened per clip because each clip carries its own sample rate.
type DevicePlayer struct {
	// ChunkSize is the playback write size in samples. Zero means 1024.
	ChunkSize int
}

func (p *DevicePlayer) Play(ctx context.Context, clip *wav.Clip) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	format, ok := pcm.FormatFor(clip.SampleRate)
	if !ok {
		return fmt.Errorf("synth: unsupported playback sample rate %d", clip.SampleRate)
	}
	if clip.Channels != format.Channels() || clip.Depth != format.Depth() {
		return fmt.Errorf("synth: unsupported clip layout: %d ch %d bit", clip.Channels, clip.Depth)
	}
	chunkSize := p.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 1024
	}

	stream, err := portaudio.NewOutputStream(format, chunkSize)
	if err != nil {
		return fmt.Errorf("synth: open output stream: %w", err)
	}
	defer stream.Close()

	if _, err := stream.Write(clip.Data); err != nil {
		return fmt.Errorf("synth: playback: %w", err)
	}
	return nil
}
