// Package wav reads and writes RIFF/WAVE containers around raw PCM data.
//
// Only linear 16-bit PCM is supported. The Writer streams chunks to an
// io.WriteSeeker and patches the size fields on Close, so it can be used
// for live recordings of unknown length.
package wav

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sync"

	"github.com/voiceloop/voiceloop/pkg/audio/pcm"
)

const headerSize = 44

// header is the fixed 44-byte canonical WAV header for PCM data.
type header struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // file size - 8
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32
}

func newHeader(format pcm.Format, dataSize uint32) header {
	channels := uint16(format.Channels())
	depth := uint16(format.Depth())
	return header{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataSize,
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1,
		NumChannels:   channels,
		SampleRate:    uint32(format.SampleRate()),
		ByteRate:      uint32(format.BytesRate()),
		BlockAlign:    channels * depth / 8,
		BitsPerSample: depth,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
		Subchunk2Size: dataSize,
	}
}

// Writer writes a WAV stream of unknown length. Close patches the RIFF and
// data sizes, so the destination must support seeking. Write and Close may
// be called from different goroutines; a Write racing Close either lands
// before the header patch or fails with the closed-writer error.
type Writer struct {
	mu      sync.Mutex
	w       io.WriteSeeker
	format  pcm.Format
	written uint32
	closed  bool
}

// NewWriter writes a provisional header and returns a Writer appending PCM
// data after it.
func NewWriter(w io.WriteSeeker, format pcm.Format) (*Writer, error) {
	h := newHeader(format, 0)
	if err := binary.Write(w, binary.LittleEndian, h); err != nil {
		return nil, fmt.Errorf("wav: write header: %w", err)
	}
	return &Writer{w: w, format: format}, nil
}

// Write appends raw PCM bytes to the data chunk.
func (wr *Writer) Write(p []byte) (int, error) {
	wr.mu.Lock()
	defer wr.mu.Unlock()
	if wr.closed {
		return 0, fmt.Errorf("wav: write to closed writer")
	}
	n, err := wr.w.Write(p)
	wr.written += uint32(n)
	if err != nil {
		return n, fmt.Errorf("wav: write data: %w", err)
	}
	return n, nil
}

// Close patches the header size fields. It does not close the underlying
// writer.
func (wr *Writer) Close() error {
	wr.mu.Lock()
	defer wr.mu.Unlock()
	if wr.closed {
		return nil
	}
	wr.closed = true
	if _, err := wr.w.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("wav: seek header: %w", err)
	}
	h := newHeader(wr.format, wr.written)
	if err := binary.Write(wr.w, binary.LittleEndian, h); err != nil {
		return fmt.Errorf("wav: rewrite header: %w", err)
	}
	if _, err := wr.w.Seek(int64(headerSize)+int64(wr.written), io.SeekStart); err != nil {
		return fmt.Errorf("wav: seek end: %w", err)
	}
	return nil
}

// Clip is decoded WAV audio: the raw PCM payload and its sample rate.
type Clip struct {
	Data       []byte
	SampleRate int
	Channels   int
	Depth      int
}

// Decode parses a WAV byte stream and returns its PCM payload.
// Only 16-bit PCM data is accepted.
func Decode(data []byte) (*Clip, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("wav: data too short: %d bytes", len(data))
	}
	var h header
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("wav: read header: %w", err)
	}
	if string(h.ChunkID[:]) != "RIFF" || string(h.Format[:]) != "WAVE" {
		return nil, fmt.Errorf("wav: not a RIFF/WAVE stream")
	}
	if h.AudioFormat != 1 {
		return nil, fmt.Errorf("wav: unsupported audio format %d (want PCM)", h.AudioFormat)
	}
	if h.BitsPerSample != 16 {
		return nil, fmt.Errorf("wav: unsupported bit depth %d (want 16)", h.BitsPerSample)
	}

	// The data chunk is not always the second chunk; scan for it.
	payload, err := findDataChunk(data[12:])
	if err != nil {
		return nil, err
	}
	return &Clip{
		Data:       payload,
		SampleRate: int(h.SampleRate),
		Channels:   int(h.NumChannels),
		Depth:      int(h.BitsPerSample),
	}, nil
}

func findDataChunk(b []byte) ([]byte, error) {
	for len(b) >= 8 {
		id := string(b[:4])
		size := binary.LittleEndian.Uint32(b[4:8])
		b = b[8:]
		if id == "data" {
			if uint32(len(b)) < size {
				// Truncated size field; some encoders leave it stale for
				// streamed output. Take what is actually present.
				return b, nil
			}
			return b[:size], nil
		}
		if uint32(len(b)) < size {
			break
		}
		b = b[size:]
	}
	return nil, fmt.Errorf("wav: no data chunk found")
}
