package sound

import "context"

// Player defines the interface for audio playback
type Player interface {
	// Initialize initializes the audio playback system
	Initialize() error

	// Terminate terminates the audio playback system
	Terminate()

	// PlayStream plays mono 16-bit little-endian PCM chunks from a channel
	// until it is closed or ctx is done
	PlayStream(ctx context.Context, sampleRate int, audioData <-chan []byte) error
}

// Clip is a mono 16-bit little-endian PCM sound.
type Clip struct {
	SampleRate int
	PCM        []byte
}

// Duration returns the clip length in seconds.
func (c Clip) Duration() float64 {
	if c.SampleRate == 0 {
		return 0
	}
	return float64(len(c.PCM)/2) / float64(c.SampleRate)
}
