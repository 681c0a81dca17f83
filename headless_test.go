package main

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogDisplayWarningTransitions(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	d := newLogDisplay(zap.New(core))

	for _, visible := range []bool{false, true, true, false, true} {
		d.SetLevel("50.00 dB")
		d.SetValue("50 dB")
		d.SetWarning(visible)
	}

	if d.frames != 5 {
		t.Errorf("frames = %d, want 5", d.frames)
	}
	if d.warnings != 2 {
		t.Errorf("warnings = %d, want 2", d.warnings)
	}
	if got := logs.FilterMessage("warning toggled").Len(); got != 3 {
		t.Errorf("%d warning toggles logged, want 3", got)
	}
}
