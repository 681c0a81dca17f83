package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/d1nch8g/decibel/audio"
)

// EnvPrefix namespaces environment variables, e.g. DECIBEL_FRAME_RATE.
const EnvPrefix = "DECIBEL"

type Config struct {
	Audio     AudioConfig     `mapstructure:",squash"`
	Threshold ThresholdConfig `mapstructure:",squash"`
	Alert     AlertConfig     `mapstructure:",squash"`

	FrameRate float64 `mapstructure:"frame_rate"`

	// Headless mode
	Headless bool          `mapstructure:"headless"`
	Duration time.Duration `mapstructure:"duration"`
	Snapshot string        `mapstructure:"snapshot"`

	// Logging
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
}

type AudioConfig struct {
	SampleRate      float64 `mapstructure:"sample_rate"`
	FramesPerBuffer int     `mapstructure:"frames_per_buffer"`
	InputChannels   int     `mapstructure:"input_channels"`
	FFTSize         int     `mapstructure:"fft_size"`
	Smoothing       float64 `mapstructure:"smoothing"`
	MinDecibels     float64 `mapstructure:"min_decibels"`
	MaxDecibels     float64 `mapstructure:"max_decibels"`
}

// Analyser returns the spectral analysis part of the audio settings.
func (c AudioConfig) Analyser() audio.AnalyserConfig {
	return audio.AnalyserConfig{
		FFTSize:     c.FFTSize,
		Smoothing:   c.Smoothing,
		MinDecibels: c.MinDecibels,
		MaxDecibels: c.MaxDecibels,
	}
}

type ThresholdConfig struct {
	DayStart float64 `mapstructure:"day_start"`
	DayEnd   float64 `mapstructure:"day_end"`
	Day      float64 `mapstructure:"day_threshold"`
	Night    float64 `mapstructure:"night_threshold"`
}

type AlertConfig struct {
	Enabled bool   `mapstructure:"alert_enabled"`
	Sound   string `mapstructure:"alert_sound"`
}

var defaults = map[string]any{
	"sample_rate":       44100.0,
	"frames_per_buffer": 1024,
	"input_channels":    1,
	"fft_size":          2048,
	"smoothing":         0.8,
	"min_decibels":      -100.0,
	"max_decibels":      -30.0,
	"day_start":         6.0,
	"day_end":           22.0,
	"day_threshold":     55.0,
	"night_threshold":   45.0,
	"alert_enabled":     false,
	"alert_sound":       "",
	"frame_rate":        60.0,
	"headless":          false,
	"duration":          10 * time.Second,
	"snapshot":          "",
	"log_level":         "info",
	"log_file":          "decibel.log",
}

// LoadConfig reads .env (if present), DECIBEL_* environment variables and
// the given flags, in increasing order of precedence. Flag names use dashes
// in place of underscores.
func LoadConfig(flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if _, known := defaults[key]; !known {
				return
			}
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", bindErr)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the audio pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample_rate must be positive, got %v", c.Audio.SampleRate))
	}
	if c.Audio.FramesPerBuffer <= 0 {
		errs = append(errs, fmt.Errorf("frames_per_buffer must be positive, got %d", c.Audio.FramesPerBuffer))
	}
	if c.Audio.InputChannels < 1 {
		errs = append(errs, fmt.Errorf("input_channels must be at least 1, got %d", c.Audio.InputChannels))
	}
	if err := c.Audio.Analyser().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("analyser: %w", err))
	}
	if c.FrameRate <= 0 {
		errs = append(errs, fmt.Errorf("frame_rate must be positive, got %v", c.FrameRate))
	}
	if c.Threshold.DayStart < 0 || c.Threshold.DayEnd > 24 || c.Threshold.DayStart > c.Threshold.DayEnd {
		errs = append(errs, fmt.Errorf("day window [%v, %v) must lie within [0, 24]", c.Threshold.DayStart, c.Threshold.DayEnd))
	}
	if c.Headless && c.Duration <= 0 {
		errs = append(errs, fmt.Errorf("duration must be positive in headless mode, got %v", c.Duration))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
