package audio

import (
	"fmt"
	"math"
	"math/cmplx"
	"sync"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/window"
)

// AnalyserConfig holds spectral analysis parameters.
type AnalyserConfig struct {
	FFTSize     int
	Smoothing   float64
	MinDecibels float64
	MaxDecibels float64
}

// GetDefaultAnalyserConfig returns a 2048-point analysis with 0.8 smoothing
// over a -100..-30 dB display range.
func GetDefaultAnalyserConfig() AnalyserConfig {
	return AnalyserConfig{
		FFTSize:     2048,
		Smoothing:   0.8,
		MinDecibels: -100,
		MaxDecibels: -30,
	}
}

// Validate checks that the parameters describe a usable analyser.
func (c AnalyserConfig) Validate() error {
	if c.FFTSize < 32 || c.FFTSize > 32768 || c.FFTSize&(c.FFTSize-1) != 0 {
		return fmt.Errorf("fft size %d must be a power of two in [32, 32768]", c.FFTSize)
	}
	if c.Smoothing < 0 || c.Smoothing > 1 {
		return fmt.Errorf("smoothing %v must be in [0, 1]", c.Smoothing)
	}
	if c.MinDecibels >= c.MaxDecibels {
		return fmt.Errorf("min decibels %v must be below max decibels %v", c.MinDecibels, c.MaxDecibels)
	}
	return nil
}

// Analyser keeps the most recent FFTSize mono samples and derives byte
// frequency and time-domain views from them on demand.
type Analyser struct {
	config AnalyserConfig

	mu       sync.Mutex
	ring     []float64
	pos      int
	window   []float64
	frame    []float64
	smoothed []float64
}

// NewAnalyser creates an analyser with a silent history.
func NewAnalyser(config AnalyserConfig) (*Analyser, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Analyser{
		config:   config,
		ring:     make([]float64, config.FFTSize),
		window:   periodicBlackman(config.FFTSize),
		frame:    make([]float64, config.FFTSize),
		smoothed: make([]float64, config.FFTSize/2),
	}, nil
}

// periodicBlackman returns the n-point Blackman window with an n
// denominator. gonum builds the symmetric form, so the window is taken from
// n+1 points with the last one dropped.
func periodicBlackman(n int) []float64 {
	coeffs := make([]float64, n+1)
	for i := range coeffs {
		coeffs[i] = 1
	}
	return window.Blackman(coeffs)[:n]
}

// FrequencyBinCount returns FFTSize/2.
func (a *Analyser) FrequencyBinCount() int {
	return a.config.FFTSize / 2
}

// Write appends mono samples in [-1, 1] to the history.
func (a *Analyser) Write(samples []float32) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, s := range samples {
		a.ring[a.pos] = float64(s)
		a.pos = (a.pos + 1) % len(a.ring)
	}
}

// ByteTimeDomainData fills dst with the oldest-first history mapped from
// [-1, 1] onto [0, 255] around the 128 midpoint.
func (a *Analyser) ByteTimeDomainData(dst []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := min(len(dst), len(a.ring))
	for i := 0; i < n; i++ {
		s := a.ring[(a.pos+i)%len(a.ring)]
		dst[i] = clampByte(128 * (1 + s))
	}
}

// ByteFrequencyData fills dst with smoothed spectral magnitudes scaled from
// [MinDecibels, MaxDecibels] onto [0, 255]. Each call advances the smoothing.
func (a *Analyser) ByteFrequencyData(dst []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()

	size := len(a.ring)
	for i := 0; i < size; i++ {
		a.frame[i] = a.ring[(a.pos+i)%size] * a.window[i]
	}
	spectrum := fft.FFTReal(a.frame)

	tau := a.config.Smoothing
	for k := range a.smoothed {
		mag := cmplx.Abs(spectrum[k]) / float64(size)
		v := tau*a.smoothed[k] + (1-tau)*mag
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		a.smoothed[k] = v
	}

	scale := 255 / (a.config.MaxDecibels - a.config.MinDecibels)
	n := min(len(dst), len(a.smoothed))
	for k := 0; k < n; k++ {
		db := 20 * math.Log10(a.smoothed[k])
		dst[k] = clampByte(scale * (db - a.config.MinDecibels))
	}
}

func clampByte(v float64) byte {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return byte(v)
}
