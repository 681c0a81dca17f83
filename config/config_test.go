package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/d1nch8g/decibel/audio"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Audio.SampleRate != 44100 || cfg.Audio.FFTSize != 2048 || cfg.Audio.FramesPerBuffer != 1024 {
		t.Errorf("audio = %+v, want 44100 Hz, fft 2048, 1024 frames", cfg.Audio)
	}
	if cfg.Threshold.Day != 55 || cfg.Threshold.Night != 45 || cfg.Threshold.DayStart != 6 || cfg.Threshold.DayEnd != 22 {
		t.Errorf("threshold = %+v, want 6-22 55/45", cfg.Threshold)
	}
	if cfg.FrameRate != 60 {
		t.Errorf("FrameRate = %v, want 60", cfg.FrameRate)
	}
	if cfg.Duration != 10*time.Second {
		t.Errorf("Duration = %v, want 10s", cfg.Duration)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("DECIBEL_FRAME_RATE", "30")
	t.Setenv("DECIBEL_NIGHT_THRESHOLD", "40")
	t.Setenv("DECIBEL_ALERT_ENABLED", "true")
	t.Setenv("DECIBEL_DURATION", "2m")

	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.FrameRate != 30 {
		t.Errorf("FrameRate = %v, want 30", cfg.FrameRate)
	}
	if cfg.Threshold.Night != 40 {
		t.Errorf("Night = %v, want 40", cfg.Threshold.Night)
	}
	if !cfg.Alert.Enabled {
		t.Error("Alert.Enabled = false, want true")
	}
	if cfg.Duration != 2*time.Minute {
		t.Errorf("Duration = %v, want 2m", cfg.Duration)
	}
}

func TestLoadConfigFlags(t *testing.T) {
	t.Setenv("DECIBEL_LOG_LEVEL", "warn")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bool("headless", false, "")
	flags.String("log-level", "info", "")
	flags.String("snapshot", "", "")
	flags.Bool("unrelated", false, "")
	if err := flags.Parse([]string{"--headless", "--snapshot", "out.png"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	cfg, err := LoadConfig(flags)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if !cfg.Headless || cfg.Snapshot != "out.png" {
		t.Errorf("headless=%v snapshot=%q, want true out.png", cfg.Headless, cfg.Snapshot)
	}
	// Unset flags do not shadow the environment.
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want []string
	}{
		{
			name: "decibel range and frame rate",
			env:  map[string]string{"DECIBEL_MIN_DECIBELS": "-20", "DECIBEL_FRAME_RATE": "0"},
			want: []string{"min decibels", "frame_rate"},
		},
		{
			name: "fft size not a power of two",
			env:  map[string]string{"DECIBEL_FFT_SIZE": "1000"},
			want: []string{"fft size 1000"},
		},
		{
			name: "smoothing out of range",
			env:  map[string]string{"DECIBEL_SMOOTHING": "3"},
			want: []string{"smoothing 3"},
		},
		{
			name: "no input channels",
			env:  map[string]string{"DECIBEL_INPUT_CHANNELS": "0"},
			want: []string{"input_channels"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.env {
				t.Setenv(key, value)
			}

			_, err := LoadConfig(nil)
			if err == nil {
				t.Fatal("LoadConfig returned no error")
			}
			for _, want := range tt.want {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error %q does not mention %q", err, want)
				}
			}
		})
	}
}

func TestValidateMatchesAnalyser(t *testing.T) {
	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	// Whatever config accepts must also build an analyser.
	for _, size := range []int{32, 1024, 2048, 32768} {
		cfg.Audio.FFTSize = size
		if err := cfg.Validate(); err != nil {
			t.Errorf("fft_size %d: Validate: %v", size, err)
		}
		if _, err := audio.NewAnalyser(cfg.Audio.Analyser()); err != nil {
			t.Errorf("fft_size %d: NewAnalyser: %v", size, err)
		}
	}
}
