package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/d1nch8g/decibel/audio"
	"github.com/d1nch8g/decibel/level"
	"github.com/d1nch8g/decibel/render"
	"github.com/d1nch8g/decibel/threshold"
)

var (
	// ErrAlreadyRunning is returned by Start while a session is open or opening.
	ErrAlreadyRunning = errors.New("engine is already running")

	// ErrStopped is returned by Start when Stop was called while the device
	// was being opened.
	ErrStopped = errors.New("engine stopped while starting")
)

// Display receives the per-session and per-frame readouts
type Display interface {
	// SetThreshold is called once per session with the frozen threshold.
	SetThreshold(text string)

	// SetLevel receives the reading with two decimals, e.g. "43.21 dB".
	SetLevel(text string)

	// SetValue receives the rounded reading, e.g. "43 dB".
	SetValue(text string)

	// SetWarning toggles the over-threshold warning.
	SetWarning(visible bool)
}

// Alerter is notified when the level crosses up into the alert state.
// Alert must return without waiting for playback.
type Alerter interface {
	Alert()
}

// EngineConfig holds the configuration for the visualization engine
type EngineConfig struct {
	Policy   threshold.Policy
	BarCount int
	Now      func() time.Time
	Alerter  Alerter
	Logger   *zap.Logger
}

// Engine runs the decibel-threshold visualization loop. It is Idle until
// Start succeeds and Running until Stop.
type Engine struct {
	config    EngineConfig
	device    audio.Device
	surface   render.Surface
	display   Display
	scheduler Scheduler
	renderer  *render.Renderer
	logger    *zap.Logger

	// mu guards the session, its snapshot buffers and the running state.
	mu       sync.Mutex
	session  *session
	starting bool
	aborted  bool
}

type session struct {
	capture     audio.Capture
	frequencies []byte
	waveform    []byte
	threshold   float64
	alerting    bool
	task        Task
	frames      int64
}

// NewEngine creates a new visualization engine instance
func NewEngine(
	config EngineConfig,
	device audio.Device,
	surface render.Surface,
	display Display,
	scheduler Scheduler,
) *Engine {
	if config.Policy == (threshold.Policy{}) {
		config.Policy = threshold.Default
	}
	if config.BarCount == 0 {
		config.BarCount = render.BarCount
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	renderer := render.NewRenderer()
	renderer.BarCount = config.BarCount

	return &Engine{
		config:    config,
		device:    device,
		surface:   surface,
		display:   display,
		scheduler: scheduler,
		renderer:  renderer,
		logger:    config.Logger,
	}
}

// Start opens the capture device, freezes the threshold for the session and
// schedules frames. It blocks while the device is being opened. If ctx is
// done or Stop is called before the device is ready, the capture is closed
// and the engine stays Idle.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.session != nil || e.starting {
		e.mu.Unlock()
		return ErrAlreadyRunning
	}
	e.starting = true
	e.aborted = false
	e.mu.Unlock()

	capture, err := e.device.Open(ctx)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.starting = false
	aborted := e.aborted
	e.aborted = false

	if err != nil {
		e.logger.Warn("failed to open audio capture", zap.Error(err))
		return fmt.Errorf("failed to open audio capture: %w", err)
	}

	if cause := ctx.Err(); cause != nil || aborted {
		if err := capture.Close(); err != nil {
			e.logger.Warn("error closing audio capture", zap.Error(err))
		}
		if cause == nil {
			cause = ErrStopped
		}
		e.logger.Info("start abandoned", zap.Error(cause))
		return cause
	}

	now := e.config.Now()
	s := &session{
		capture:     capture,
		frequencies: make([]byte, e.config.BarCount),
		waveform:    make([]byte, capture.FrequencyBinCount()),
		threshold:   e.config.Policy.Compute(threshold.HourOf(now)),
	}
	e.display.SetThreshold(level.FormatThreshold(s.threshold))

	e.session = s
	s.task = e.scheduler.Schedule(func() { e.frame(s) })

	e.logger.Info("engine started",
		zap.Float64("threshold", s.threshold),
		zap.Time("started_at", now),
		zap.Int("waveform_size", len(s.waveform)),
	)
	return nil
}

// frame renders one tick of session s. Ticks for a session that has been
// stopped are ignored.
func (e *Engine) frame(s *session) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session != s {
		return
	}

	s.capture.PullFrequency(s.frequencies)
	s.capture.PullWaveform(s.waveform)

	db := level.EstimateDecibels(s.waveform)
	value := level.Round(db)
	above := value >= s.threshold

	e.renderer.RenderFrame(e.surface, s.frequencies, above)

	e.display.SetLevel(level.FormatLevel(db))
	e.display.SetValue(level.FormatValue(value))
	e.display.SetWarning(above)

	if above && !s.alerting {
		e.logger.Info("level above threshold",
			zap.Float64("decibels", db),
			zap.Float64("threshold", s.threshold),
		)
		if e.config.Alerter != nil {
			e.config.Alerter.Alert()
		}
	} else if !above && s.alerting {
		e.logger.Info("level back under threshold", zap.Float64("decibels", db))
	}
	s.alerting = above
	s.frames++
}

// Stop cancels frame scheduling and releases the capture device. A frame
// already in progress completes first. Stop during a pending Start makes
// that Start release the device and return ErrStopped. Stop is a no-op when
// idle.
func (e *Engine) Stop() {
	e.mu.Lock()
	s := e.session
	e.session = nil
	if s == nil && e.starting {
		e.aborted = true
	}
	e.mu.Unlock()

	if s == nil {
		return
	}

	s.task.Cancel()
	if err := s.capture.Close(); err != nil {
		e.logger.Warn("error closing audio capture", zap.Error(err))
	}

	e.logger.Info("engine stopped", zap.Int64("frames", s.frames))
}

// IsRunning returns whether a capture session is open
func (e *Engine) IsRunning() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session != nil
}

// Threshold returns the frozen threshold of the running session.
func (e *Engine) Threshold() (float64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return 0, false
	}
	return e.session.threshold, true
}
