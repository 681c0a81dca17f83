package main

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// logDisplay reports readings through the logger. Per-frame values go to
// debug, warning transitions to info.
type logDisplay struct {
	logger *zap.Logger

	mu       sync.Mutex
	level    string
	value    string
	warning  bool
	frames   int
	warnings int
}

func newLogDisplay(logger *zap.Logger) *logDisplay {
	return &logDisplay{logger: logger}
}

func (d *logDisplay) SetThreshold(text string) {
	d.logger.Info("threshold set", zap.String("threshold", text+" dB"))
	fmt.Printf("Threshold: %s dB\n", text)
}

func (d *logDisplay) SetLevel(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.level = text
}

func (d *logDisplay) SetValue(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.value = text
}

func (d *logDisplay) SetWarning(visible bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.frames++
	d.logger.Debug("frame", zap.String("level", d.level), zap.String("value", d.value))

	if visible != d.warning {
		if visible {
			d.warnings++
			fmt.Printf("WARNING: %s exceeds the threshold\n", d.value)
		}
		d.logger.Info("warning toggled", zap.Bool("visible", visible), zap.String("level", d.level))
	}
	d.warning = visible
}

func (d *logDisplay) summary() {
	d.mu.Lock()
	defer d.mu.Unlock()
	fmt.Printf("Frames: %d, last level: %s (%s), warnings: %d\n", d.frames, d.level, d.value, d.warnings)
}
