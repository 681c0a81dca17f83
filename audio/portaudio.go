package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gordonklaus/portaudio"
	"go.uber.org/zap"
)

type Config struct {
	SampleRate      float64
	FramesPerBuffer int
	InputChannels   int
	Analyser        AnalyserConfig
}

// PortaudioDevice opens the default input device through PortAudio.
type PortaudioDevice struct {
	config Config
	logger *zap.Logger
}

// Ensure PortaudioDevice implements Device interface
var _ Device = (*PortaudioDevice)(nil)

func NewPortaudioDevice(config Config, logger *zap.Logger) *PortaudioDevice {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PortaudioDevice{
		config: config,
		logger: logger,
	}
}

func (d *PortaudioDevice) Initialize() error {
	return portaudio.Initialize()
}

func (d *PortaudioDevice) Terminate() {
	portaudio.Terminate()
}

func (d *PortaudioDevice) Open(ctx context.Context) (Capture, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	analyser, err := NewAnalyser(d.config.Analyser)
	if err != nil {
		return nil, fmt.Errorf("invalid analyser config: %w", err)
	}

	info, err := portaudio.DefaultInputDevice()
	if err != nil {
		return nil, classifyError(err)
	}
	if info == nil || info.MaxInputChannels < 1 {
		return nil, ErrDeviceUnavailable
	}

	channels := min(max(d.config.InputChannels, 1), info.MaxInputChannels)
	buffer := make([]float32, d.config.FramesPerBuffer*channels)

	stream, err := portaudio.OpenDefaultStream(
		channels,
		0,
		d.config.SampleRate,
		d.config.FramesPerBuffer,
		buffer,
	)
	if err != nil {
		return nil, classifyError(err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, classifyError(err)
	}

	c := &portaudioCapture{
		stream:   stream,
		read:     stream.Read,
		analyser: analyser,
		buffer:   buffer,
		mono:     make([]float32, d.config.FramesPerBuffer),
		channels: channels,
		done:     make(chan struct{}),
		logger:   d.logger,
	}

	c.wg.Add(1)
	go c.capture()

	d.logger.Info("audio capture opened",
		zap.String("device", info.Name),
		zap.Int("channels", channels),
		zap.Float64("sample_rate", d.config.SampleRate),
		zap.Int("frames_per_buffer", d.config.FramesPerBuffer),
	)

	return c, nil
}

// GetDefaultConfig returns a mono 44.1 kHz capture feeding a default analyser.
func GetDefaultConfig() Config {
	return Config{
		SampleRate:      44100,
		FramesPerBuffer: 1024,
		InputChannels:   1,
		Analyser:        GetDefaultAnalyserConfig(),
	}
}

// Read retry bounds for a stream that keeps failing, e.g. an unplugged
// device.
const (
	readRetryInitial = 10 * time.Millisecond
	readRetryMax     = time.Second
)

type portaudioCapture struct {
	stream   *portaudio.Stream
	read     func() error
	analyser *Analyser
	buffer   []float32
	mono     []float32
	channels int
	logger   *zap.Logger

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

func (c *portaudioCapture) capture() {
	defer c.wg.Done()

	retry := backoff.NewExponentialBackOff()
	retry.InitialInterval = readRetryInitial
	retry.MaxInterval = readRetryMax
	retry.MaxElapsedTime = 0
	failing := false

	for {
		select {
		case <-c.done:
			return
		default:
		}

		err := c.read()
		switch {
		case err == nil:
		case errors.Is(err, portaudio.InputOverflowed):
			// The buffer still holds a full read; only older samples were lost.
			c.logger.Debug("audio input overflowed")
		default:
			if !failing {
				c.logger.Warn("error reading audio, retrying", zap.Error(err))
				failing = true
			}
			select {
			case <-c.done:
				return
			case <-time.After(retry.NextBackOff()):
			}
			continue
		}

		if failing {
			c.logger.Info("audio reads recovered")
			failing = false
			retry.Reset()
		}
		c.analyser.Write(c.downmix())
	}
}

// downmix averages interleaved channels into the mono buffer.
func (c *portaudioCapture) downmix() []float32 {
	if c.channels == 1 {
		return c.buffer
	}

	for i := range c.mono {
		var sum float32
		for ch := 0; ch < c.channels; ch++ {
			sum += c.buffer[i*c.channels+ch]
		}
		c.mono[i] = sum / float32(c.channels)
	}
	return c.mono
}

func (c *portaudioCapture) FrequencyBinCount() int {
	return c.analyser.FrequencyBinCount()
}

func (c *portaudioCapture) PullFrequency(dst []byte) {
	c.analyser.ByteFrequencyData(dst)
}

func (c *portaudioCapture) PullWaveform(dst []byte) {
	c.analyser.ByteTimeDomainData(dst)
}

// Close waits for the in-flight read to finish before stopping the stream,
// since PortAudio streams must not be stopped under a blocked Read.
func (c *portaudioCapture) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.wg.Wait()

		var errs []error
		if err := c.stream.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop audio stream: %w", err))
		}
		if err := c.stream.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close audio stream: %w", err))
		}
		c.closeErr = errors.Join(errs...)

		c.logger.Info("audio capture closed")
	})
	return c.closeErr
}

// classifyError maps a PortAudio failure onto the capture error taxonomy.
// PortAudio has no dedicated permission code, so host errors are matched on
// their text.
func classifyError(err error) error {
	msg := strings.ToLower(err.Error())
	for _, hint := range []string{"permission", "not permitted", "access denied", "unauthorized"} {
		if strings.Contains(msg, hint) {
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
}
