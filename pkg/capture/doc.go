// Package capture implements the microphone capture and commit side of a
// live transcription session.
//
// A Source reads fixed-size PCM chunks from an audio device and publishes
// each chunk three ways: into an overlap Ring holding the trailing window of
// audio, to the outbound transcription channel, and optionally to a local
// WAV mirror recording.
//
// A Scheduler drives commit boundaries. Before every boundary, periodic or
// final, it re-transmits the current ring snapshot so that the seconds of
// audio immediately preceding the cut have been seen by the remote segmenter
// at least twice. This replay is what prevents words from being dropped at
// segment boundaries.
package capture
