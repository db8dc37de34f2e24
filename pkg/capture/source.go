package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Device delivers fixed-size PCM chunks from an audio input.
// portaudio.InputStream satisfies this interface.
type Device interface {
	ReadChunk() ([]byte, error)
	Close() error
}

// AppendFunc transmits one chunk of audio to the transcription channel.
type AppendFunc func(chunk []byte) error

// Source continuously reads chunks from a Device and fans each one out to
// the overlap ring, the outbound append function, and an optional mirror
// writer. Chunk-level read and send failures are logged and dropped;
// capture keeps going.
type Source struct {
	device Device
	ring   *Ring
	send   AppendFunc
	mirror io.Writer // optional WAV mirror, may be nil
	logger *slog.Logger
}

// NewSource wires a capture source. mirror may be nil to disable the local
// recording.
func NewSource(device Device, ring *Ring, send AppendFunc, mirror io.Writer, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	return &Source{
		device: device,
		ring:   ring,
		send:   send,
		mirror: mirror,
		logger: logger,
	}
}

// Run reads chunks until ctx is cancelled or the device reaches EOF.
// The device is closed on every exit path.
func (s *Source) Run(ctx context.Context) error {
	defer s.device.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		chunk, err := s.device.ReadChunk()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Availability over completeness: drop the chunk, keep capturing.
			s.logger.Warn("capture: chunk read failed, dropping", "error", err)
			continue
		}

		s.ring.Push(chunk)

		if err := s.send(chunk); err != nil {
			s.logger.Warn("capture: chunk send failed, dropping", "error", err)
		}

		if s.mirror != nil {
			if _, err := s.mirror.Write(chunk); err != nil {
				s.logger.Warn("capture: mirror write failed", "error", err)
			}
		}
	}
}

// Ring returns the overlap ring fed by this source.
func (s *Source) Ring() *Ring {
	return s.ring
}

var errNilDevice = fmt.Errorf("capture: nil device")

// Validate reports configuration errors before the session starts.
func (s *Source) Validate() error {
	if s.device == nil {
		return errNilDevice
	}
	if s.ring == nil {
		return fmt.Errorf("capture: nil ring")
	}
	if s.send == nil {
		return fmt.Errorf("capture: nil send func")
	}
	return nil
}
