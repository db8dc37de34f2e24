// Package synth turns response sentences into spoken audio.
//
// Synthesis and playback run as separate pipeline stages so the next
// sentence is already being generated while the current one plays.
package synth

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/openai/openai-go"

	"github.com/voiceloop/voiceloop/pkg/audio/wav"
)

// Voice names a synthesis voice.
type Voice string

const (
	VoiceEcho  Voice = "echo"
	VoiceAlloy Voice = "alloy"
	VoiceOnyx  Voice = "onyx"

	// VoiceRandom resolves to one of the concrete voices. Resolve it once
	// per session so every sentence speaks with the same voice.
	VoiceRandom Voice = "random"
)

// Resolve replaces VoiceRandom (or an empty voice) with a concrete voice.
func (v Voice) Resolve() Voice {
	if v != VoiceRandom && v != "" {
		return v
	}
	voices := []Voice{VoiceEcho, VoiceAlloy, VoiceOnyx}
	return voices[rand.IntN(len(voices))]
}

// Synthesizer converts one sentence of text into an audio clip.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*wav.Clip, error)
}

// Speech synthesizes text with the OpenAI speech API.
type Speech struct {
	Client openai.Client
	Model  openai.SpeechModel

	// Voice must be a concrete voice; NewSpeech resolves VoiceRandom.
	Voice Voice

	// Instructions steer delivery (tone, pacing). Optional.
	Instructions string
}

// NewSpeech creates a synthesizer, resolving the voice once so the whole
// session speaks consistently.
func NewSpeech(client openai.Client, model openai.SpeechModel, voice Voice, instructions string) *Speech {
	return &Speech{
		Client:       client,
		Model:        model,
		Voice:        voice.Resolve(),
		Instructions: instructions,
	}
}

// Synthesize requests WAV audio for text and decodes it.
func (s *Speech) Synthesize(ctx context.Context, text string) (*wav.Clip, error) {
	params := openai.AudioSpeechNewParams{
		Model:          cmp.Or(s.Model, openai.SpeechModelGPT4oMiniTTS),
		Voice:          openai.AudioSpeechNewParamsVoice(s.Voice),
		Input:          text,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatWAV,
	}
	if s.Instructions != "" {
		params.Instructions = openai.String(s.Instructions)
	}

	resp, err := s.Client.Audio.Speech.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("synth: speech request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("synth: read speech response: %w", err)
	}
	clip, err := wav.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("synth: decode speech response: %w", err)
	}
	return clip, nil
}
