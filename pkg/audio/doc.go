// Package audio is an umbrella for audio-related sub-packages:
//
//   - pcm: PCM format math (sample rates, chunk sizes, durations)
//   - wav: WAV encoding for recordings and decoding for playback
//   - portaudio: microphone capture and speaker playback streams
package audio
