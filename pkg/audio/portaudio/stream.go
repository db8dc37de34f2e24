package portaudio

import (
	"io"

	"github.com/voiceloop/voiceloop/pkg/audio/pcm"
)

// InputStream captures audio from the default input device.
type InputStream struct {
	stream    *stream
	format    pcm.Format
	chunkSize int
}

// NewInputStream opens and starts a capture stream delivering chunkSize
// samples per read.
func NewInputStream(format pcm.Format, chunkSize int) (*InputStream, error) {
	s, err := openStream(format.Channels(), 0, float64(format.SampleRate()), chunkSize)
	if err != nil {
		return nil, err
	}
	if err := s.start(); err != nil {
		s.close()
		return nil, err
	}
	return &InputStream{stream: s, format: format, chunkSize: chunkSize}, nil
}

// ReadChunk blocks until a full chunk of chunkSize samples has been
// captured and returns it as little-endian PCM bytes.
func (is *InputStream) ReadChunk() ([]byte, error) {
	return is.stream.readBytes(is.chunkSize)
}

// Format returns the PCM format.
func (is *InputStream) Format() pcm.Format {
	return is.format
}

// Close stops and closes the stream.
func (is *InputStream) Close() error {
	return is.stream.close()
}

// OutputStream plays audio on the default output device.
type OutputStream struct {
	stream    *stream
	format    pcm.Format
	chunkSize int
}

// NewOutputStream opens and starts a playback stream accepting chunkSize
// samples per write.
func NewOutputStream(format pcm.Format, chunkSize int) (*OutputStream, error) {
	s, err := openStream(0, format.Channels(), float64(format.SampleRate()), chunkSize)
	if err != nil {
		return nil, err
	}
	if err := s.start(); err != nil {
		s.close()
		return nil, err
	}
	return &OutputStream{stream: s, format: format, chunkSize: chunkSize}, nil
}

// Write plays little-endian PCM bytes, blocking until the device has
// accepted all of them. Partial trailing chunks are zero-padded.
func (os *OutputStream) Write(p []byte) (int, error) {
	chunkBytes := os.chunkSize * 2
	written := 0
	for len(p) > 0 {
		n := min(len(p), chunkBytes)
		buf := p[:n]
		if n < chunkBytes {
			padded := make([]byte, chunkBytes)
			copy(padded, buf)
			buf = padded
		}
		if err := os.stream.writeBytes(buf, os.chunkSize); err != nil {
			return written, err
		}
		written += n
		p = p[n:]
	}
	return written, nil
}

// Format returns the PCM format.
func (os *OutputStream) Format() pcm.Format {
	return os.format
}

// Close stops and closes the stream.
func (os *OutputStream) Close() error {
	return os.stream.close()
}

var _ io.Writer = (*OutputStream)(nil)
