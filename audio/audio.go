package audio

import (
	"context"
	"errors"
)

var (
	// ErrPermissionDenied is returned by Open when microphone access is refused.
	ErrPermissionDenied = errors.New("microphone permission denied")

	// ErrDeviceUnavailable is returned by Open when no capture device can be used.
	ErrDeviceUnavailable = errors.New("audio capture device unavailable")
)

// Device defines the interface for microphone capture implementations
type Device interface {
	// Open acquires the microphone for one session. It blocks until the
	// platform grants or refuses access, or ctx is done.
	Open(ctx context.Context) (Capture, error)
}

// Capture is an open capture handle exposing pull-based analysis views.
type Capture interface {
	// FrequencyBinCount returns the number of frequency bins, which is also
	// the natural waveform snapshot length.
	FrequencyBinCount() int

	// PullFrequency overwrites dst with the current spectral magnitudes.
	// It never waits for new audio.
	PullFrequency(dst []byte)

	// PullWaveform overwrites dst with the current time-domain samples.
	PullWaveform(dst []byte)

	// Close stops the stream and releases the device. It is idempotent.
	Close() error
}
