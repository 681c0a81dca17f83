package sound

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/gordonklaus/portaudio"
	"go.uber.org/zap"
)

type PlayerConfig struct {
	FramesPerBuffer int
	OutputChannels  int
}

type PortaudioPlayer struct {
	config PlayerConfig
	logger *zap.Logger
}

// Ensure PortaudioPlayer implements Player interface
var _ Player = (*PortaudioPlayer)(nil)

func NewPortaudioPlayer(config PlayerConfig, logger *zap.Logger) *PortaudioPlayer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PortaudioPlayer{
		config: config,
		logger: logger,
	}
}

func GetDefaultConfig() PlayerConfig {
	return PlayerConfig{
		FramesPerBuffer: 1024,
		OutputChannels:  1,
	}
}

func (p *PortaudioPlayer) Initialize() error {
	return portaudio.Initialize()
}

func (p *PortaudioPlayer) Terminate() {
	portaudio.Terminate()
}

// PlayStream opens an output stream at sampleRate for the duration of
// playback. Mono samples are copied to every output channel.
func (p *PortaudioPlayer) PlayStream(ctx context.Context, sampleRate int, audioData <-chan []byte) error {
	channels := max(p.config.OutputChannels, 1)
	audioBuffer := make([]int16, p.config.FramesPerBuffer*channels)

	stream, err := portaudio.OpenDefaultStream(
		0,
		channels,
		float64(sampleRate),
		p.config.FramesPerBuffer,
		audioBuffer,
	)
	if err != nil {
		return fmt.Errorf("failed to open output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("failed to start output stream: %w", err)
	}
	defer stream.Stop()

	frames := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case audioBytes, ok := <-audioData:
			if !ok {
				if frames > 0 {
					// Flush the tail with silence.
					clear(audioBuffer[frames*channels:])
					return p.write(stream)
				}
				return nil
			}

			for _, sample := range convertBytesToSamples(audioBytes) {
				for ch := 0; ch < channels; ch++ {
					audioBuffer[frames*channels+ch] = sample
				}
				frames++
				if frames == p.config.FramesPerBuffer {
					if err := p.write(stream); err != nil {
						return err
					}
					frames = 0
				}
			}
		}
	}
}

func (p *PortaudioPlayer) write(stream *portaudio.Stream) error {
	if err := stream.Write(); err != nil {
		p.logger.Debug("error writing audio", zap.Error(err))
		return fmt.Errorf("failed to write audio: %w", err)
	}
	return nil
}

func convertBytesToSamples(audioBytes []byte) []int16 {
	samples := make([]int16, len(audioBytes)/2)
	for i := 0; i < len(samples); i++ {
		// Convert little-endian bytes to int16
		samples[i] = int16(binary.LittleEndian.Uint16(audioBytes[i*2 : i*2+2]))
	}
	return samples
}
