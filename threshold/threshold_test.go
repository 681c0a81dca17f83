package threshold

import (
	"testing"
	"time"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		hour float64
		want float64
	}{
		{0, 45},
		{5.999, 45},
		{6.0, 55},
		{6.5, 55},
		{12, 55},
		{21.999, 55},
		{22.0, 45},
		{23.99, 45},
	}

	for _, tt := range tests {
		if got := Compute(tt.hour); got != tt.want {
			t.Errorf("Compute(%v) = %v, want %v", tt.hour, got, tt.want)
		}
	}
}

func TestPolicyCustom(t *testing.T) {
	p := Policy{DayStart: 8, DayEnd: 20, Day: 60, Night: 40}

	if got := p.Compute(7.9); got != 40 {
		t.Errorf("Compute(7.9) = %v, want 40", got)
	}
	if got := p.Compute(8); got != 60 {
		t.Errorf("Compute(8) = %v, want 60", got)
	}
	if got := p.Compute(20); got != 40 {
		t.Errorf("Compute(20) = %v, want 40", got)
	}
}

func TestHourOf(t *testing.T) {
	tm := time.Date(2024, 3, 1, 6, 30, 59, 0, time.Local)
	if got := HourOf(tm); got != 6.5 {
		t.Errorf("HourOf(06:30:59) = %v, want 6.5", got)
	}

	tm = time.Date(2024, 3, 1, 21, 59, 0, 0, time.Local)
	if got := Compute(HourOf(tm)); got != 55 {
		t.Errorf("threshold at 21:59 = %v, want 55", got)
	}
}
