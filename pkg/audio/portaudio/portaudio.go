// Package portaudio provides minimal Go bindings for the PortAudio library.
//
// This package uses CGO to interface with the PortAudio C library and
// exposes just enough surface for microphone capture and speaker playback
// of 16-bit mono PCM.
//
// Requires portaudio installed via pkg-config (brew install portaudio /
// apt install portaudio19-dev).
package portaudio

/*
#cgo pkg-config: portaudio-2.0

#include <portaudio.h>
#include <stdlib.h>
#include <string.h>

// Wrapper functions using void* to avoid CGO type issues with PaStream
static PaError pa_open_stream(void **stream,
                              const PaStreamParameters *inputParams,
                              const PaStreamParameters *outputParams,
                              double sampleRate,
                              unsigned long framesPerBuffer,
                              PaStreamFlags streamFlags) {
    return Pa_OpenStream((PaStream**)stream, inputParams, outputParams, sampleRate,
                         framesPerBuffer, streamFlags, NULL, NULL);
}

static PaError pa_start_stream(void *stream) {
    return Pa_StartStream((PaStream*)stream);
}

static PaError pa_stop_stream(void *stream) {
    return Pa_StopStream((PaStream*)stream);
}

static PaError pa_close_stream(void *stream) {
    return Pa_CloseStream((PaStream*)stream);
}

static PaError pa_read_stream(void *stream, void *buffer, unsigned long frames) {
    return Pa_ReadStream((PaStream*)stream, buffer, frames);
}

static PaError pa_write_stream(void *stream, const void *buffer, unsigned long frames) {
    return Pa_WriteStream((PaStream*)stream, buffer, frames);
}
*/
import "C"

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"
)

var (
	initOnce sync.Once
	initErr  error
)

// paError converts a PortAudio error code to a Go error.
func paError(code C.PaError) error {
	if code == C.paNoError {
		return nil
	}
	return errors.New(C.GoString(C.Pa_GetErrorText(code)))
}

// Initialize initializes the PortAudio library.
// It is safe to call multiple times.
func Initialize() error {
	initOnce.Do(func() {
		initErr = paError(C.Pa_Initialize())
	})
	return initErr
}

// Terminate terminates the PortAudio library.
func Terminate() error {
	return paError(C.Pa_Terminate())
}

// DeviceInfo contains information about an audio device.
type DeviceInfo struct {
	Index             int
	Name              string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
	IsDefaultInput    bool
	IsDefaultOutput   bool
}

// Devices returns a list of available audio devices.
func Devices() ([]DeviceInfo, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}

	count := int(C.Pa_GetDeviceCount())
	if count < 0 {
		return nil, paError(C.PaError(count))
	}

	defaultInput := int(C.Pa_GetDefaultInputDevice())
	defaultOutput := int(C.Pa_GetDefaultOutputDevice())

	devices := make([]DeviceInfo, 0, count)
	for i := 0; i < count; i++ {
		info := C.Pa_GetDeviceInfo(C.PaDeviceIndex(i))
		if info == nil {
			continue
		}
		devices = append(devices, DeviceInfo{
			Index:             i,
			Name:              C.GoString(info.name),
			MaxInputChannels:  int(info.maxInputChannels),
			MaxOutputChannels: int(info.maxOutputChannels),
			DefaultSampleRate: float64(info.defaultSampleRate),
			IsDefaultInput:    i == defaultInput,
			IsDefaultOutput:   i == defaultOutput,
		})
	}
	return devices, nil
}

// stream wraps a raw PortAudio stream and its transfer buffer.
type stream struct {
	ptr    unsafe.Pointer
	buffer unsafe.Pointer
	closed bool
	mu     sync.Mutex
}

// openStream opens a PortAudio stream on the default devices.
func openStream(inputChannels, outputChannels int, sampleRate float64, framesPerBuffer int) (*stream, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}

	var inputParams, outputParams *C.PaStreamParameters

	if inputChannels > 0 {
		dev := C.Pa_GetDefaultInputDevice()
		if dev == C.paNoDevice {
			return nil, errors.New("no default input device")
		}
		info := C.Pa_GetDeviceInfo(dev)
		inputParams = &C.PaStreamParameters{
			device:                    dev,
			channelCount:              C.int(inputChannels),
			sampleFormat:              C.paInt16,
			suggestedLatency:          info.defaultLowInputLatency,
			hostApiSpecificStreamInfo: nil,
		}
	}

	if outputChannels > 0 {
		dev := C.Pa_GetDefaultOutputDevice()
		if dev == C.paNoDevice {
			return nil, errors.New("no default output device")
		}
		info := C.Pa_GetDeviceInfo(dev)
		outputParams = &C.PaStreamParameters{
			device:                    dev,
			channelCount:              C.int(outputChannels),
			sampleFormat:              C.paInt16,
			suggestedLatency:          info.defaultLowOutputLatency,
			hostApiSpecificStreamInfo: nil,
		}
	}

	var ptr unsafe.Pointer
	err := paError(C.pa_open_stream(
		&ptr,
		inputParams,
		outputParams,
		C.double(sampleRate),
		C.ulong(framesPerBuffer),
		C.paClipOff,
	))
	if err != nil {
		return nil, fmt.Errorf("portaudio: open stream: %w", err)
	}

	channels := max(inputChannels, outputChannels)
	bufferSize := framesPerBuffer * channels * 2 // int16 = 2 bytes

	return &stream{
		ptr:    ptr,
		buffer: C.malloc(C.size_t(bufferSize)),
	}, nil
}

func (s *stream) start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("portaudio: stream closed")
	}
	return paError(C.pa_start_stream(s.ptr))
}

func (s *stream) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	C.pa_stop_stream(s.ptr)
	err := paError(C.pa_close_stream(s.ptr))
	C.free(s.buffer)
	return err
}

// readBytes reads frames samples into a fresh little-endian byte slice.
func (s *stream) readBytes(frames int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errors.New("portaudio: stream closed")
	}
	if err := paError(C.pa_read_stream(s.ptr, s.buffer, C.ulong(frames))); err != nil {
		return nil, err
	}
	buf := make([]byte, frames*2)
	C.memcpy(unsafe.Pointer(&buf[0]), s.buffer, C.size_t(len(buf)))
	return buf, nil
}

// writeBytes writes little-endian int16 bytes as frames samples.
func (s *stream) writeBytes(p []byte, frames int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("portaudio: stream closed")
	}
	C.memcpy(s.buffer, unsafe.Pointer(&p[0]), C.size_t(len(p)))
	return paError(C.pa_write_stream(s.ptr, s.buffer, C.ulong(frames)))
}
